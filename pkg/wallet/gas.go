package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/pkg/pace"
)

// GasPolicy bounds how long a submission may wait for the chain's gas price to
// fall under a ceiling.
type GasPolicy struct {
	// CeilingGwei is the maximum acceptable gas price in gwei
	CeilingGwei float64

	// PollInterval is the delay between gas price reads while over the ceiling
	PollInterval time.Duration

	// MaxWait is the accumulated wait after which the gate gives up
	MaxWait time.Duration
}

// GasGate blocks progress until a chain's gas price is acceptable. It is a
// throttle only: the price may spike again right after the gate passes.
type GasGate struct {
	pacer *pace.Pacer
	log   *logrus.Logger
}

// NewGasGate creates a gate that sleeps through pacer.
func NewGasGate(log *logrus.Logger, pacer *pace.Pacer) *GasGate {
	return &GasGate{pacer: pacer, log: log}
}

// WaitForAcceptableGas returns as soon as the gas price on h is at or under the
// policy ceiling. Once MaxWait has accumulated it checks one final time and fails
// with ErrCodeGasPrice if the price is still too high.
func (g *GasGate) WaitForAcceptableGas(ctx context.Context, h *ChainHandle, policy GasPolicy) error {
	ceiling := GweiToWei(policy.CeilingGwei)

	var elapsed time.Duration
	for {
		price, err := g.gasPrice(ctx, h)
		if err != nil {
			return err
		}
		if price.Cmp(ceiling) <= 0 {
			return nil
		}

		g.log.WithFields(logrus.Fields{
			"chain":     h.Name(),
			"gas_price": WeiToGwei(price).StringFixed(2),
			"ceiling":   policy.CeilingGwei,
		}).Infof("Gas price is too high. Waiting for %s", policy.PollInterval)

		elapsed += policy.PollInterval
		if elapsed >= policy.MaxWait {
			break
		}
		if err := g.pacer.Sleep(ctx, policy.PollInterval); err != nil {
			return err
		}
	}

	price, err := g.gasPrice(ctx, h)
	if err != nil {
		return err
	}
	if price.Cmp(ceiling) > 0 {
		return NewWalletError(
			ErrCodeGasPrice,
			fmt.Sprintf("gas price is too high: %s gwei", WeiToGwei(price).StringFixed(2)),
			nil,
			h.Name(),
		)
	}
	return nil
}

func (g *GasGate) gasPrice(ctx context.Context, h *ChainHandle) (*big.Int, error) {
	price, err := h.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to get gas price", err, h.Name())
	}
	return price, nil
}

// GweiToWei converts a gwei amount to wei, truncating below one wei.
func GweiToWei(gwei float64) *big.Int {
	return decimal.NewFromFloat(gwei).Shift(9).BigInt()
}

// WeiToGwei converts wei to a gwei decimal.
func WeiToGwei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -9)
}

// EtherToWei converts an ETH decimal amount to wei.
func EtherToWei(eth decimal.Decimal) *big.Int {
	return eth.Shift(NativeDecimals).BigInt()
}

// WeiToEther converts wei to an ETH decimal.
func WeiToEther(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -NativeDecimals)
}
