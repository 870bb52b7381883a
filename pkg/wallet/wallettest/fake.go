// Package wallettest provides an in-memory wallet.Client and helpers for testing
// code built on the wallet package without a node.
package wallettest

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/pkg/pace"
	"github.com/lisanmuaddib/base-minter/pkg/wallet"
)

// Well-known throwaway keys. Never fund them.
const (
	KeyA = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	KeyB = "8da4ef21b864d2cc526dbdb2a120bd2874c36c9d0a1fb7f8c63d7f7a8b41de8f"
)

// Client is a scriptable chain. The zero value is not usable; use NewClient.
type Client struct {
	mu sync.Mutex

	// Balances in wei per account
	Balances map[common.Address]*big.Int
	// NFTs holds ERC-721 balances per collection and owner
	NFTs map[common.Address]map[common.Address]int64
	// Names holds ERC-721 names per collection
	Names map[common.Address]string

	GasPrice *big.Int
	TipCap   *big.Int
	BaseFee  *big.Int
	GasLimit uint64
	Nonce    uint64

	// GasPrices, when non-empty, is consumed one value per SuggestGasPrice call; the
	// last value repeats
	GasPrices []*big.Int

	EstimateErr error
	SendErr     error
	CallErr     error
	BalanceErr  error

	// ReceiptStatus is the status of every mined receipt
	ReceiptStatus uint64
	// NeverMine leaves every transaction without a receipt
	NeverMine bool

	// OnSend runs after a transaction is accepted, with the lock released
	OnSend func(tx *types.Transaction)

	Sent          []*types.Transaction
	BalanceCalls  int
	GasPriceCalls int
	Closed        bool
}

// NewClient returns a chain with 1 gwei gas, successful receipts and no balances.
func NewClient() *Client {
	return &Client{
		Balances:      make(map[common.Address]*big.Int),
		NFTs:          make(map[common.Address]map[common.Address]int64),
		Names:         make(map[common.Address]string),
		GasPrice:      big.NewInt(1_000_000_000),
		TipCap:        big.NewInt(1_000_000),
		BaseFee:       big.NewInt(1_000_000_000),
		GasLimit:      100_000,
		ReceiptStatus: types.ReceiptStatusSuccessful,
	}
}

// SetBalance sets the wei balance of account.
func (c *Client) SetBalance(account common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Balances[account] = new(big.Int).Set(wei)
}

// AddBalance credits wei to account.
func (c *Client) AddBalance(account common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.Balances[account]
	if !ok {
		current = new(big.Int)
	}
	c.Balances[account] = new(big.Int).Add(current, wei)
}

// SetNFT sets how many tokens of collection owner holds.
func (c *Client) SetNFT(collection, owner common.Address, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.NFTs[collection] == nil {
		c.NFTs[collection] = make(map[common.Address]int64)
	}
	c.NFTs[collection][owner] = n
}

// SentCount returns the number of accepted transactions.
func (c *Client) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

// SentTo returns accepted transactions addressed to to.
func (c *Client) SentTo(to common.Address) []*types.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*types.Transaction
	for _, tx := range c.Sent {
		if tx.To() != nil && *tx.To() == to {
			out = append(out, tx)
		}
	}
	return out
}

func (c *Client) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (c *Client) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.CallErr != nil {
		return nil, c.CallErr
	}

	erc721 := wallet.ERC721ABI()
	if call.To == nil || len(call.Data) < 4 {
		return nil, ethereum.NotFound
	}
	selector := call.Data[:4]

	switch {
	case bytes.Equal(selector, erc721.Methods["balanceOf"].ID):
		args, err := erc721.Methods["balanceOf"].Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, err
		}
		owner := args[0].(common.Address)
		return erc721.Methods["balanceOf"].Outputs.Pack(big.NewInt(c.NFTs[*call.To][owner]))
	case bytes.Equal(selector, erc721.Methods["name"].ID):
		return erc721.Methods["name"].Outputs.Pack(c.Names[*call.To])
	}
	return nil, ethereum.NotFound
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &types.Header{Number: big.NewInt(1), BaseFee: c.BaseFee}, nil
}

func (c *Client) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}

func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Nonce, nil
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.GasPriceCalls++
	if len(c.GasPrices) > 0 {
		price := c.GasPrices[0]
		if len(c.GasPrices) > 1 {
			c.GasPrices = c.GasPrices[1:]
		}
		return price, nil
	}
	return c.GasPrice, nil
}

func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TipCap, nil
}

func (c *Client) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.EstimateErr != nil {
		return 0, c.EstimateErr
	}
	return c.GasLimit, nil
}

func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	if c.SendErr != nil {
		err := c.SendErr
		c.mu.Unlock()
		return err
	}
	c.Sent = append(c.Sent, tx)
	c.Nonce = tx.Nonce() + 1
	hook := c.OnSend
	c.mu.Unlock()

	if hook != nil {
		hook(tx)
	}
	return nil
}

func (c *Client) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (c *Client) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, ethereum.NotFound
}

func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.BalanceCalls++
	if c.BalanceErr != nil {
		return nil, c.BalanceErr
	}
	if b, ok := c.Balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.NeverMine {
		return nil, ethereum.NotFound
	}
	for _, tx := range c.Sent {
		if tx.Hash() == txHash {
			return &types.Receipt{
				Status:      c.ReceiptStatus,
				TxHash:      txHash,
				BlockNumber: big.NewInt(1),
			}, nil
		}
	}
	return nil, ethereum.NotFound
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
}

// ChainConfigs returns the default chain table with throttling off and a short
// receipt window.
func ChainConfigs() []wallet.ChainConfig {
	configs := wallet.DefaultChainConfigs()
	for i := range configs {
		configs[i].RPCURL = string(configs[i].Name)
		configs[i].RateLimit = 0
		configs[i].ReceiptTimeout = 3 * time.Second
		configs[i].ReceiptPollInterval = time.Second
		configs[i].DialRetries = 0
	}
	return configs
}

// NewRegistry returns a registry whose dialer serves clients by chain name.
func NewRegistry(log *logrus.Logger, clients map[wallet.ChainName]*Client) *wallet.Registry {
	return wallet.NewRegistry(log, ChainConfigs(), wallet.WithDialer(
		func(ctx context.Context, rpcURL, proxy string) (wallet.Client, error) {
			c, ok := clients[wallet.ChainName(rpcURL)]
			if !ok {
				return nil, ethereum.NotFound
			}
			return c, nil
		},
	))
}

// Sleeps records the waits requested from a pacer built by NewPacer.
type Sleeps struct {
	mu    sync.Mutex
	calls []time.Duration
}

// Count returns the number of waits.
func (s *Sleeps) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Total returns the sum of all waits.
func (s *Sleeps) Total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total time.Duration
	for _, d := range s.calls {
		total += d
	}
	return total
}

// NewPacer returns a deterministic pacer that never blocks.
func NewPacer() (*pace.Pacer, *Sleeps) {
	sleeps := &Sleeps{}
	p := pace.NewWith(rand.New(rand.NewSource(1)), func(ctx context.Context, d time.Duration) error {
		sleeps.mu.Lock()
		sleeps.calls = append(sleeps.calls, d)
		sleeps.mu.Unlock()
		return ctx.Err()
	})
	return p, sleeps
}

// NewLogger returns a logger that discards output.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	log.SetLevel(logrus.DebugLevel)
	return log
}
