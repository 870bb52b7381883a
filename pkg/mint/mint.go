// Package mint drives the per-wallet mint state machine: skip when already minted,
// submit the mint, and on insufficient funds bridge once and retry once.
package mint

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/pkg/action"
	"github.com/lisanmuaddib/base-minter/pkg/bridge"
	"github.com/lisanmuaddib/base-minter/pkg/pace"
	"github.com/lisanmuaddib/base-minter/pkg/wallet"
)

// Kind selects how a target is minted.
type Kind int

const (
	// KindClaim is a drop contract minted through claim(...)
	KindClaim Kind = iota
	// KindBuilders is minted through mint(signature) with a signed fixed message
	KindBuilders
)

// Target is one NFT collection to mint.
type Target struct {
	Address common.Address
	Kind    Kind
	Name    string
}

// Contracts holds the mint interfaces and fixed arguments.
type Contracts struct {
	ClaimABI        abi.ABI
	BuildersABI     abi.ABI
	NativeToken     common.Address
	BuildersMessage string
}

// Config is the immutable orchestrator configuration.
type Config struct {
	// Chain is where targets live
	Chain wallet.ChainName

	Contracts Contracts

	// NextTxMin and NextTxMax bound the pause between bridging and the mint retry
	NextTxMin time.Duration
	NextTxMax time.Duration
}

// Bridger funds the mint chain.
type Bridger interface {
	Bridge(ctx context.Context, acc *wallet.Account) (action.Result, error)
	WaitForCompletion(ctx context.Context, acc *wallet.Account, initial *big.Int) error
}

// AllowlistProof mirrors the claim contract's allowlist tuple.
type AllowlistProof struct {
	Proof                  [][32]byte
	QuantityLimitPerWallet *big.Int
	PricePerToken          *big.Int
	Currency               common.Address
}

// Orchestrator mints targets for one account at a time.
type Orchestrator struct {
	cfg     Config
	sender  bridge.Sender
	bridger Bridger
	runner  *action.Runner
	pacer   *pace.Pacer
	log     *logrus.Logger
}

// NewOrchestrator creates a mint orchestrator.
func NewOrchestrator(log *logrus.Logger, cfg Config, sender bridge.Sender, bridger Bridger, runner *action.Runner, pacer *pace.Pacer) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		sender:  sender,
		bridger: bridger,
		runner:  runner,
		pacer:   pacer,
		log:     log,
	}
}

// Mint runs the state machine for (acc, target):
//  1. already holding the NFT: StatusAlready
//  2. mint confirmed: StatusSuccess
//  3. insufficient funds: bridge, wait for the funds, pause, and mint exactly once more;
//     a second insufficient funds is terminal
//  4. any transaction left pending, bridge or mint: StatusPending
//
// Every other outcome is StatusFailed together with the error.
func (o *Orchestrator) Mint(ctx context.Context, acc *wallet.Account, target Target) (action.Result, error) {
	res, err := o.attempt(ctx, acc, target)
	if err == nil {
		return res, nil
	}
	if !wallet.IsInsufficientFunds(err) {
		return action.Failed(target.Name, err), err
	}

	entry := o.log.WithFields(logrus.Fields{
		"wallet": acc.Name(),
		"chain":  o.cfg.Chain,
		"target": target.Name,
	})
	entry.Infof("Insufficient funds on %s. Let's bridge", o.cfg.Chain)

	initial, err := acc.NativeBalance(ctx, o.cfg.Chain)
	if err != nil {
		return action.Failed(target.Name, err), err
	}

	bridged, err := o.bridger.Bridge(ctx, acc)
	if err != nil {
		return action.Failed(target.Name, err), err
	}
	if bridged.Status == action.StatusPending {
		return bridged, nil
	}

	if err := o.bridger.WaitForCompletion(ctx, acc, initial); err != nil {
		return action.Failed(target.Name, err), err
	}

	if _, err := o.pacer.Between(ctx, o.cfg.NextTxMin, o.cfg.NextTxMax); err != nil {
		return action.Failed(target.Name, err), err
	}

	res, err = o.attempt(ctx, acc, target)
	if err != nil {
		return action.Failed(target.Name, err), err
	}
	return res, nil
}

// attempt is one retried mint: holdings check, then submission.
func (o *Orchestrator) attempt(ctx context.Context, acc *wallet.Account, target Target) (action.Result, error) {
	label := "Mint NFT"
	if target.Kind == KindBuilders {
		label = "Mint Base is for builders"
	}

	return o.runner.Run(ctx, label, func(ctx context.Context) (action.Result, error) {
		h, err := acc.Handle(o.cfg.Chain)
		if err != nil {
			return action.Result{}, err
		}

		// Both variants expose balanceOf; a non-zero balance is the already-minted flag.
		held, err := wallet.HoldsNFT(ctx, h, target.Address, acc.Address())
		if err != nil {
			return action.Result{}, err
		}
		if held {
			return action.Already(label), nil
		}

		call, err := o.buildCall(acc, target)
		if err != nil {
			return action.Result{}, err
		}
		return o.sender.Send(ctx, h, acc.Key, call, nil, label)
	})
}

func (o *Orchestrator) buildCall(acc *wallet.Account, target Target) (wallet.Call, error) {
	contracts := o.cfg.Contracts

	if target.Kind == KindBuilders {
		sig, err := acc.Key.SignText(contracts.BuildersMessage)
		if err != nil {
			return wallet.Call{}, err
		}
		return wallet.Call{
			To:     target.Address,
			ABI:    contracts.BuildersABI,
			Method: "mint",
			Args:   []interface{}{sig},
		}, nil
	}

	proof := AllowlistProof{
		Proof:                  [][32]byte{},
		QuantityLimitPerWallet: new(big.Int).Set(math.MaxBig256),
		PricePerToken:          big.NewInt(0),
		Currency:               contracts.NativeToken,
	}
	return wallet.Call{
		To:     target.Address,
		ABI:    contracts.ClaimABI,
		Method: "claim",
		Args: []interface{}{
			acc.Address(),
			big.NewInt(1),
			contracts.NativeToken,
			big.NewInt(0),
			proof,
			[]byte{},
		},
	}, nil
}
