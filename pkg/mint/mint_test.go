package mint_test

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/internal/runconfig"
	"github.com/lisanmuaddib/base-minter/pkg/action"
	"github.com/lisanmuaddib/base-minter/pkg/bridge"
	"github.com/lisanmuaddib/base-minter/pkg/mint"
	"github.com/lisanmuaddib/base-minter/pkg/wallet"
	"github.com/lisanmuaddib/base-minter/pkg/wallet/wallettest"
)

var oneEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var _ = Describe("Orchestrator", func() {
	var (
		ctx    context.Context
		log    *logrus.Logger
		eth    *wallettest.Client
		base   *wallettest.Client
		acc    *wallet.Account
		orch   *mint.Orchestrator
		sleeps *wallettest.Sleeps
		drop   mint.Target
		build  mint.Target
	)

	BeforeEach(func() {
		ctx = context.Background()
		log = wallettest.NewLogger()
		eth = wallettest.NewClient()
		base = wallettest.NewClient()

		reg := wallettest.NewRegistry(log, map[wallet.ChainName]*wallettest.Client{
			wallet.Ethereum: eth,
			wallet.Base:     base,
		})
		w, err := wallet.ParseWallet("farm;" + wallettest.KeyB)
		Expect(err).NotTo(HaveOccurred())
		acc, err = reg.Open(ctx, w, "", wallet.Ethereum, wallet.Base)
		Expect(err).NotTo(HaveOccurred())

		cfg := &runconfig.Config{
			MaxEthGasPrice:     20,
			WaitGasTime:        time.Minute,
			TotalWaitGasTime:   time.Hour,
			BridgeAmountMin:    0.003,
			BridgeAmountMax:    0.004,
			BridgeWaitTime:     10 * time.Minute,
			BridgePollInterval: 20 * time.Second,
			NextTxMinWait:      10 * time.Second,
			NextTxMaxWait:      20 * time.Second,
			MaxTries:           3,
			RetryBaseDelay:     time.Millisecond,
		}

		pacer, s := wallettest.NewPacer()
		sleeps = s
		executor := wallet.NewExecutor(log, pacer, wallet.NewNonceManager())
		runner := action.NewRunner(log, cfg.RetryPolicy())
		coordinator := bridge.NewCoordinator(log, cfg.BridgeConfig(), executor, wallet.NewGasGate(log, pacer), runner, pacer)
		orch = mint.NewOrchestrator(log, cfg.MintConfig(), executor, coordinator, runner, pacer)

		drop = mint.Target{
			Address: common.HexToAddress("0x00000000000000000000000000000000000d0d0d"),
			Kind:    mint.KindClaim,
			Name:    "Onchain Summer Drop",
		}
		build = mint.Target{Address: runconfig.BuildersAddress, Kind: mint.KindBuilders, Name: "Base is for builders"}
	})

	It("skips a target the wallet already holds", func() {
		base.SetNFT(drop.Address, acc.Address(), 1)

		res, err := orch.Mint(ctx, acc, drop)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(action.StatusAlready))
		Expect(base.SentCount()).To(BeZero())
		Expect(eth.SentCount()).To(BeZero())
	})

	It("is idempotent once the mint is confirmed", func() {
		base.SetBalance(acc.Address(), oneEther)
		base.OnSend = func(tx *types.Transaction) {
			base.SetNFT(*tx.To(), acc.Address(), 1)
		}

		first, err := orch.Mint(ctx, acc, drop)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Status).To(Equal(action.StatusSuccess))

		second, err := orch.Mint(ctx, acc, drop)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Status).To(Equal(action.StatusAlready))
		Expect(base.SentCount()).To(Equal(1))
	})

	It("claims one token for the wallet at zero price in ETH", func() {
		base.SetBalance(acc.Address(), oneEther)

		res, err := orch.Mint(ctx, acc, drop)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(action.StatusSuccess))
		Expect(res.Label).To(Equal("Mint NFT"))

		sent := base.SentTo(drop.Address)
		Expect(sent).To(HaveLen(1))
		Expect(sent[0].Value().Sign()).To(BeZero())

		method := runconfig.ClaimABI.Methods["claim"]
		Expect(sent[0].Data()[:4]).To(Equal(method.ID))
		args, err := method.Inputs.Unpack(sent[0].Data()[4:])
		Expect(err).NotTo(HaveOccurred())
		Expect(args[0]).To(Equal(acc.Address()))
		Expect(args[1].(*big.Int).Int64()).To(Equal(int64(1)))
		Expect(args[2]).To(Equal(runconfig.NativeTokenAddress))
		Expect(args[3].(*big.Int).Sign()).To(BeZero())
		Expect(args[5]).To(BeEmpty())

		proof := *abi.ConvertType(args[4], new(mint.AllowlistProof)).(*mint.AllowlistProof)
		Expect(proof.Proof).To(BeEmpty())
		Expect(proof.QuantityLimitPerWallet.Cmp(math.MaxBig256)).To(BeZero())
		Expect(proof.Currency).To(Equal(runconfig.NativeTokenAddress))
	})

	It("mints builders with a signature of the fixed message", func() {
		base.SetBalance(acc.Address(), oneEther)

		res, err := orch.Mint(ctx, acc, build)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Label).To(Equal("Mint Base is for builders"))

		sent := base.SentTo(runconfig.BuildersAddress)
		Expect(sent).To(HaveLen(1))

		method := runconfig.BuildersABI.Methods["mint"]
		args, err := method.Inputs.Unpack(sent[0].Data()[4:])
		Expect(err).NotTo(HaveOccurred())

		sig := append([]byte(nil), args[0].([]byte)...)
		Expect(sig).To(HaveLen(crypto.SignatureLength))
		sig[crypto.RecoveryIDOffset] -= 27
		pub, err := crypto.SigToPub(accounts.TextHash([]byte(runconfig.BuildersMessage)), sig)
		Expect(err).NotTo(HaveOccurred())
		Expect(crypto.PubkeyToAddress(*pub)).To(Equal(acc.Address()))
	})

	It("reports a mint left in flight as pending without resubmitting", func() {
		base.SetBalance(acc.Address(), oneEther)
		base.NeverMine = true

		res, err := orch.Mint(ctx, acc, drop)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Status).To(Equal(action.StatusPending))
		Expect(res.HasTx()).To(BeTrue())
		Expect(res.TxHash).To(Equal(base.SentTo(drop.Address)[0].Hash()))
		Expect(res.Completed()).To(BeTrue())
		Expect(base.SentCount()).To(Equal(1))
		Expect(eth.SentCount()).To(BeZero())
	})

	Context("when the wallet cannot pay on Base", func() {
		BeforeEach(func() {
			eth.SetBalance(acc.Address(), oneEther)
		})

		It("bridges once, waits for the funds and mints", func() {
			eth.OnSend = func(tx *types.Transaction) {
				base.AddBalance(acc.Address(), tx.Value())
			}

			res, err := orch.Mint(ctx, acc, drop)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(action.StatusSuccess))

			Expect(eth.SentTo(runconfig.BasePortalAddress)).To(HaveLen(1))
			Expect(base.SentTo(drop.Address)).To(HaveLen(1))
			Expect(sleeps.Total()).To(BeNumerically(">=", 10*time.Second))
		})

		It("reports a pending bridge without minting", func() {
			eth.NeverMine = true

			res, err := orch.Mint(ctx, acc, drop)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(action.StatusPending))
			Expect(res.Completed()).To(BeTrue())
			Expect(base.SentCount()).To(BeZero())
		})

		It("reports pending when the mint after the bridge is still in flight", func() {
			eth.OnSend = func(tx *types.Transaction) {
				base.AddBalance(acc.Address(), tx.Value())
			}
			base.NeverMine = true

			res, err := orch.Mint(ctx, acc, drop)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Status).To(Equal(action.StatusPending))
			Expect(eth.SentCount()).To(Equal(1))
			Expect(base.SentCount()).To(Equal(1))
		})

		It("gives up when the retry is still short of funds", func() {
			eth.OnSend = func(tx *types.Transaction) {
				base.AddBalance(acc.Address(), big.NewInt(1))
			}

			res, err := orch.Mint(ctx, acc, drop)
			Expect(wallet.IsInsufficientFunds(err)).To(BeTrue())
			Expect(res.Status).To(Equal(action.StatusFailed))
			Expect(eth.SentCount()).To(Equal(1))
			Expect(base.SentCount()).To(BeZero())
		})

		It("fails when bridged funds never arrive", func() {
			res, err := orch.Mint(ctx, acc, drop)
			Expect(wallet.IsWalletError(err, wallet.ErrCodeBridgeTimeout)).To(BeTrue())
			Expect(res.Status).To(Equal(action.StatusFailed))
			Expect(res.Label).To(Equal(drop.Name))
		})
	})

	It("fails after exhausting retries on a reverting mint", func() {
		base.SetBalance(acc.Address(), oneEther)
		base.ReceiptStatus = types.ReceiptStatusFailed

		res, err := orch.Mint(ctx, acc, drop)
		Expect(wallet.IsWalletError(err, wallet.ErrCodeTxReverted)).To(BeTrue())
		Expect(res.Status).To(Equal(action.StatusFailed))
		Expect(base.SentCount()).To(Equal(3))
		Expect(eth.SentCount()).To(BeZero())
	})
})
