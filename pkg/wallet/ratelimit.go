package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/time/rate"
)

// rateLimitedClient throttles every RPC round trip of the wrapped client. Receipt,
// gas and balance pollers all go through one handle, so a shared limiter keeps a
// proxied endpoint from being flooded.
type rateLimitedClient struct {
	Client
	limiter *rate.Limiter
}

func newRateLimitedClient(c Client, perSecond float64) Client {
	if perSecond <= 0 {
		return c
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedClient{
		Client:  c,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (c *rateLimitedClient) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Client.CodeAt(ctx, contract, blockNumber)
}

func (c *rateLimitedClient) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Client.CallContract(ctx, call, blockNumber)
}

func (c *rateLimitedClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Client.HeaderByNumber(ctx, number)
}

func (c *rateLimitedClient) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Client.PendingCodeAt(ctx, account)
}

func (c *rateLimitedClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return c.Client.PendingNonceAt(ctx, account)
}

func (c *rateLimitedClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Client.SuggestGasPrice(ctx)
}

func (c *rateLimitedClient) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Client.SuggestGasTipCap(ctx)
}

func (c *rateLimitedClient) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return c.Client.EstimateGas(ctx, call)
}

func (c *rateLimitedClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.Client.SendTransaction(ctx, tx)
}

func (c *rateLimitedClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Client.BalanceAt(ctx, account, blockNumber)
}

func (c *rateLimitedClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Client.TransactionReceipt(ctx, txHash)
}
