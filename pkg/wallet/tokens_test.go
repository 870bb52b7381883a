package wallet_test

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lisanmuaddib/base-minter/pkg/wallet"
	"github.com/lisanmuaddib/base-minter/pkg/wallet/wallettest"
)

var _ = Describe("ERC-721 reads", func() {
	var (
		ctx        context.Context
		client     *wallettest.Client
		h          *wallet.ChainHandle
		collection common.Address
		owner      common.Address
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = wallettest.NewClient()
		h = wallet.NewChainHandle(wallettest.ChainConfigs()[1], "", client)
		collection = common.HexToAddress("0x1FC10ef15E041C5D3C54042e52EB0C54CB9b710c")
		owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	})

	It("reports holdings", func() {
		held, err := wallet.HoldsNFT(ctx, h, collection, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(held).To(BeFalse())

		client.SetNFT(collection, owner, 2)

		held, err = wallet.HoldsNFT(ctx, h, collection, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(held).To(BeTrue())
	})

	It("reads the collection name", func() {
		client.Names[collection] = "Base is for builders"

		name, err := wallet.NFTName(ctx, h, collection)
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("Base is for builders"))
	})

	It("wraps call failures as contract errors", func() {
		client.CallErr = errors.New("execution reverted")

		_, err := wallet.NFTName(ctx, h, collection)
		Expect(wallet.IsWalletError(err, wallet.ErrCodeContractError)).To(BeTrue())
	})
})
