// Package bridge moves ETH from the source chain to the destination chain and waits
// for it to land.
package bridge

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/pkg/action"
	"github.com/lisanmuaddib/base-minter/pkg/pace"
	"github.com/lisanmuaddib/base-minter/pkg/wallet"
)

// Strategy selects the bridge contract used.
type Strategy int

const (
	// StrategyOfficial deposits through the OptimismPortal of the destination chain
	StrategyOfficial Strategy = iota
	// StrategySummer deposits through the Onchain Summer bridge
	StrategySummer
)

func (s Strategy) String() string {
	if s == StrategySummer {
		return "onchain-summer"
	}
	return "official"
}

// Contracts holds the bridge contract addresses, interfaces and fixed parameters.
type Contracts struct {
	SummerBridge    common.Address
	SummerABI       abi.ABI
	SummerGasLimit  uint32 // L2 gas limit passed to depositETH
	Portal          common.Address
	PortalABI       abi.ABI
	PortalGasLimit  uint64 // L2 gas limit for a plain deposit to self
	MintFunPass     common.Address
	MintFunCalldata []byte
	MintFunGasLimit uint64
	MintFunValue    decimal.Decimal // ETH
}

// Config is the immutable bridge configuration.
type Config struct {
	Strategy Strategy

	// ViaMintFun routes official deposits through the mint.fun pass contract
	ViaMintFun bool

	// AmountMin and AmountMax bound the randomized deposit in ETH
	AmountMin float64
	AmountMax float64

	// Gas gates submissions on the source chain
	Gas wallet.GasPolicy

	// WaitTimeout bounds how long the destination balance is watched
	WaitTimeout time.Duration

	// PollInterval is the delay between destination balance reads
	PollInterval time.Duration

	Source      wallet.ChainName
	Destination wallet.ChainName

	Contracts Contracts
}

// Sender submits a contract call and waits for its receipt.
type Sender interface {
	Send(ctx context.Context, h *wallet.ChainHandle, key *wallet.KeyManager, call wallet.Call, value *big.Int, label string) (action.Result, error)
}

// Gate blocks until gas is acceptable on a chain.
type Gate interface {
	WaitForAcceptableGas(ctx context.Context, h *wallet.ChainHandle, policy wallet.GasPolicy) error
}

// Coordinator executes the configured bridge strategy for an account.
type Coordinator struct {
	cfg    Config
	sender Sender
	gate   Gate
	runner *action.Runner
	pacer  *pace.Pacer
	log    *logrus.Logger
}

// NewCoordinator creates a bridge coordinator.
func NewCoordinator(log *logrus.Logger, cfg Config, sender Sender, gate Gate, runner *action.Runner, pacer *pace.Pacer) *Coordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 20 * time.Second
	}
	return &Coordinator{
		cfg:    cfg,
		sender: sender,
		gate:   gate,
		runner: runner,
		pacer:  pacer,
		log:    log,
	}
}

// Bridge submits one deposit on the source chain. A confirmed result only means the
// deposit was accepted; arrival is checked by WaitForCompletion.
func (c *Coordinator) Bridge(ctx context.Context, acc *wallet.Account) (action.Result, error) {
	if c.cfg.Strategy == StrategySummer {
		return c.summer(ctx, acc)
	}
	return c.official(ctx, acc)
}

func (c *Coordinator) summer(ctx context.Context, acc *wallet.Account) (action.Result, error) {
	const label = "Onchain Summer Bridge"

	return c.runner.Run(ctx, label, func(ctx context.Context) (action.Result, error) {
		h, err := acc.Handle(c.cfg.Source)
		if err != nil {
			return action.Result{}, err
		}

		amount := c.RandomAmount()
		value := wallet.EtherToWei(amount)

		if err := c.gate.WaitForAcceptableGas(ctx, h, c.cfg.Gas); err != nil {
			return action.Result{}, err
		}

		c.log.WithFields(logrus.Fields{
			"wallet": acc.Name(),
			"action": label,
			"amount": amount.String(),
		}).Info("Bridging ETH")

		call := wallet.Call{
			To:     c.cfg.Contracts.SummerBridge,
			ABI:    c.cfg.Contracts.SummerABI,
			Method: "depositETH",
			Args:   []interface{}{c.cfg.Contracts.SummerGasLimit, []byte{}},
		}
		return c.sender.Send(ctx, h, acc.Key, call, value, label)
	})
}

func (c *Coordinator) official(ctx context.Context, acc *wallet.Account) (action.Result, error) {
	return c.runner.Run(ctx, "Bridge", func(ctx context.Context) (action.Result, error) {
		h, err := acc.Handle(c.cfg.Source)
		if err != nil {
			return action.Result{}, err
		}

		contracts := c.cfg.Contracts
		var (
			recipient common.Address
			gasLimit  uint64
			data      []byte
			amount    decimal.Decimal
			label     string
		)
		if c.cfg.ViaMintFun {
			recipient = contracts.MintFunPass
			gasLimit = contracts.MintFunGasLimit
			data = contracts.MintFunCalldata
			amount = contracts.MintFunValue
			label = "Bridge with mint.fun"
		} else {
			recipient = acc.Address()
			gasLimit = contracts.PortalGasLimit
			data = []byte{0x01}
			amount = c.RandomAmount()
			label = "Official bridge"
		}
		value := wallet.EtherToWei(amount)

		if err := c.gate.WaitForAcceptableGas(ctx, h, c.cfg.Gas); err != nil {
			return action.Result{}, err
		}

		c.log.WithFields(logrus.Fields{
			"wallet": acc.Name(),
			"action": label,
			"amount": amount.String(),
		}).Info("Bridging ETH")

		call := wallet.Call{
			To:     contracts.Portal,
			ABI:    contracts.PortalABI,
			Method: "depositTransaction",
			Args:   []interface{}{recipient, value, gasLimit, false, data},
		}
		return c.sender.Send(ctx, h, acc.Key, call, value, label)
	})
}

// RandomAmount draws a deposit in [AmountMin, AmountMax] ETH rounded to 4..6
// decimals so amounts do not repeat across wallets.
func (c *Coordinator) RandomAmount() decimal.Decimal {
	amount := c.pacer.Float64(c.cfg.AmountMin, c.cfg.AmountMax)
	places := c.pacer.Intn(4, 6)
	return decimal.NewFromFloat(amount).Round(int32(places))
}

// WaitForCompletion polls the destination balance until it exceeds initial. It
// fails with ErrCodeBridgeTimeout once WaitTimeout has accumulated.
func (c *Coordinator) WaitForCompletion(ctx context.Context, acc *wallet.Account, initial *big.Int) error {
	var elapsed time.Duration
	for {
		balance, err := acc.NativeBalance(ctx, c.cfg.Destination)
		if err != nil {
			return err
		}
		if balance.Cmp(initial) > 0 {
			c.log.WithFields(logrus.Fields{
				"wallet":  acc.Name(),
				"chain":   c.cfg.Destination,
				"balance": wallet.WeiToEther(balance).StringFixed(6),
			}).Info("Assets bridged successfully")
			return nil
		}
		if elapsed >= c.cfg.WaitTimeout {
			return wallet.NewWalletError(
				wallet.ErrCodeBridgeTimeout,
				fmt.Sprintf("bridge takes too long, waited %s", elapsed),
				nil,
				c.cfg.Destination,
			)
		}

		c.log.WithFields(logrus.Fields{
			"wallet": acc.Name(),
			"chain":  c.cfg.Destination,
		}).Info("Assets not bridged")

		if err := c.pacer.Sleep(ctx, c.cfg.PollInterval); err != nil {
			return err
		}
		elapsed += c.cfg.PollInterval
	}
}
