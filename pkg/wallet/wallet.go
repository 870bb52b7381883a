package wallet

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
)

// Client is the subset of ethclient.Client the engine relies on. Tests substitute
// in-memory implementations.
type Client interface {
	bind.ContractBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// Dialer opens a Client for an RPC endpoint, routing HTTP traffic through proxy when
// it is non-empty.
type Dialer func(ctx context.Context, rpcURL, proxy string) (Client, error)

// ChainHandle is a chain client bound to one (chain, proxy) pair. It is never
// mutated after construction.
type ChainHandle struct {
	Config ChainConfig
	Proxy  string
	client Client
}

// Name returns the chain the handle talks to.
func (h *ChainHandle) Name() ChainName {
	return h.Config.Name
}

// Client returns the underlying chain client.
func (h *ChainHandle) Client() Client {
	return h.client
}

// NewChainHandle wraps an already dialed client. Registry.Get is the normal way to
// obtain handles; this is for callers that manage the client themselves.
func NewChainHandle(config ChainConfig, proxy string, client Client) *ChainHandle {
	return &ChainHandle{
		Config: config,
		Proxy:  proxy,
		client: newRateLimitedClient(client, config.RateLimit),
	}
}

type handleKey struct {
	chain ChainName
	proxy string
}

// Registry lazily constructs and caches one ChainHandle per (chain, proxy) pair.
type Registry struct {
	configs map[ChainName]ChainConfig
	handles map[handleKey]*ChainHandle
	dial    Dialer
	mu      sync.Mutex
	log     *logrus.Logger
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithDialer replaces the default ethclient dialer.
func WithDialer(d Dialer) RegistryOption {
	return func(r *Registry) {
		r.dial = d
	}
}

// NewRegistry creates a registry for the given chain configurations.
func NewRegistry(log *logrus.Logger, configs []ChainConfig, opts ...RegistryOption) *Registry {
	r := &Registry{
		configs: make(map[ChainName]ChainConfig, len(configs)),
		handles: make(map[handleKey]*ChainHandle),
		dial:    DialEthClient,
		log:     log,
	}
	for _, c := range configs {
		r.configs[c.Name] = c
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the configuration for a chain.
func (r *Registry) Config(chain ChainName) (ChainConfig, error) {
	config, ok := r.configs[chain]
	if !ok {
		return ChainConfig{}, NewWalletError(ErrCodeInvalidChain, "chain not configured", nil, chain)
	}
	return config, nil
}

// Get returns the cached handle for (chain, proxy), constructing it on first use.
// A construction failure is returned as is; callers treat it as fatal for the wallet.
func (r *Registry) Get(ctx context.Context, chain ChainName, proxy string) (*ChainHandle, error) {
	proxy = NormalizeProxy(proxy)

	config, err := r.Config(chain)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := handleKey{chain: chain, proxy: proxy}
	if h, ok := r.handles[key]; ok {
		return h, nil
	}

	client, err := r.dialWithRetry(ctx, config, proxy)
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to connect to chain", err, chain)
	}

	h := NewChainHandle(config, proxy, client)
	r.handles[key] = h

	r.log.WithFields(logrus.Fields{
		"chain":     chain,
		"has_proxy": proxy != "",
	}).Debug("Constructed chain handle")

	return h, nil
}

// Evict closes and forgets every handle built for proxy.
func (r *Registry) Evict(proxy string) {
	proxy = NormalizeProxy(proxy)

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, h := range r.handles {
		if key.proxy != proxy {
			continue
		}
		h.client.Close()
		delete(r.handles, key)
	}
}

// Close closes all cached handles.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, h := range r.handles {
		h.client.Close()
		delete(r.handles, key)
		r.log.WithField("chain", key.chain).Debug("Closed chain connection")
	}
}

// Open resolves handles for every chain in chains on behalf of w and proxy.
// Any construction failure aborts the whole account.
func (r *Registry) Open(ctx context.Context, w Wallet, proxy string, chains ...ChainName) (*Account, error) {
	acc := &Account{
		Wallet:   w,
		Proxy:    NormalizeProxy(proxy),
		handles:  make(map[ChainName]*ChainHandle, len(chains)),
		registry: r,
	}
	for _, chain := range chains {
		h, err := r.Get(ctx, chain, proxy)
		if err != nil {
			r.Evict(proxy)
			return nil, err
		}
		acc.handles[chain] = h
	}
	return acc, nil
}

// dialWithRetry attempts to connect to the chain with the configured retries. The
// wait between attempts ends early when ctx is cancelled.
func (r *Registry) dialWithRetry(ctx context.Context, config ChainConfig, proxy string) (Client, error) {
	attempts := config.DialRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	client, err := retry.DoWithData(
		func() (Client, error) {
			return r.dial(ctx, config.RPCURL, proxy)
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(config.DialRetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.log.WithFields(logrus.Fields{
				"chain":   config.Name,
				"attempt": n + 1,
				"error":   err,
			}).Debug("Retrying chain connection")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempts, err)
	}
	return client, nil
}

// NormalizeProxy trims the proxy string and prepends http:// when it has no scheme.
func NormalizeProxy(proxy string) string {
	proxy = strings.TrimSpace(proxy)
	if proxy == "" {
		return ""
	}
	if !strings.Contains(proxy, "://") {
		proxy = "http://" + proxy
	}
	return proxy
}

// DialEthClient is the default Dialer. The proxy, if any, is applied to the HTTP
// transport used by the JSON-RPC client.
func DialEthClient(ctx context.Context, rpcURL, proxy string) (Client, error) {
	var opts []rpc.ClientOption
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, NewWalletError(ErrCodeInvalidProxy, "failed to parse proxy", err, "")
		}
		opts = append(opts, rpc.WithHTTPClient(&http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
			Timeout:   30 * time.Second,
		}))
	}

	rc, err := rpc.DialOptions(ctx, rpcURL, opts...)
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(rc), nil
}

// Account is a wallet together with the chain handles resolved for its proxy. It
// lives for one wallet's run.
type Account struct {
	Wallet
	Proxy    string
	handles  map[ChainName]*ChainHandle
	registry *Registry
}

// Handle returns the handle for chain.
func (a *Account) Handle(chain ChainName) (*ChainHandle, error) {
	h, ok := a.handles[chain]
	if !ok {
		return nil, NewWalletError(ErrCodeInvalidChain, "chain not opened for account", nil, chain)
	}
	return h, nil
}

// NativeBalance returns the account's native balance on chain in wei.
func (a *Account) NativeBalance(ctx context.Context, chain ChainName) (*big.Int, error) {
	h, err := a.Handle(chain)
	if err != nil {
		return nil, err
	}

	balance, err := h.client.BalanceAt(ctx, a.Address(), nil)
	if err != nil {
		return nil, NewWalletError(ErrCodeRPCError, "failed to get balance", err, chain)
	}

	a.registry.log.WithFields(logrus.Fields{
		"chain":   chain,
		"wallet":  a.Name(),
		"balance": balance.String(),
	}).Debug("Retrieved balance")

	return balance, nil
}

// Close releases the account's handles.
func (a *Account) Close() {
	a.registry.Evict(a.Proxy)
}
