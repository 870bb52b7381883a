package wallet

import (
	"math/big"
	"time"
)

// ChainName identifies a configured EVM chain.
type ChainName string

const (
	// Ethereum is the source chain funds are bridged from
	Ethereum ChainName = "Ethereum"
	// Base is the destination chain where mints happen
	Base ChainName = "Base"
)

// NativeDecimals is the number of decimals of ETH on both chains.
const NativeDecimals = 18

// ChainConfig holds chain-specific parameters for blockchain interactions.
// It is never mutated after the registry is built.
type ChainConfig struct {
	// Name identifies which chain this config is for
	Name ChainName

	// RPCURL is the HTTP(S) endpoint for connecting to the chain
	RPCURL string

	// ChainID is the EIP-155 chain identifier used for signing
	ChainID int64

	// ExplorerURL is the block explorer root used in log lines, e.g. https://basescan.org
	ExplorerURL string

	// NativeDecimals is the decimal count of the native currency
	NativeDecimals int32

	// EIP1559 selects dynamic fee transactions instead of legacy gas price
	EIP1559 bool

	// GasLimitMultiplier is used to add a safety buffer to estimated gas
	// For example, 1.2 adds 20% to the estimated gas limit
	GasLimitMultiplier float64

	// ReceiptTimeout bounds how long a submitted transaction is polled before it is
	// reported as pending
	ReceiptTimeout time.Duration

	// ReceiptPollInterval is the delay between receipt lookups
	ReceiptPollInterval time.Duration

	// RateLimit caps RPC requests per second per handle. Zero disables throttling.
	RateLimit float64

	// DialRetries and DialRetryDelay control connection attempts on handle construction
	DialRetries    int
	DialRetryDelay time.Duration
}

// TxURL returns the explorer link for a transaction hash.
func (c ChainConfig) TxURL(hash string) string {
	return c.ExplorerURL + "/tx/" + hash
}

// ChainIDBig returns the chain id as a big integer for signers.
func (c ChainConfig) ChainIDBig() *big.Int {
	return big.NewInt(c.ChainID)
}

// DefaultChainConfigs returns settings for the two chains the runner touches.
// RPC URLs are expected to be overridden from the environment.
func DefaultChainConfigs() []ChainConfig {
	return []ChainConfig{
		{
			Name:                Ethereum,
			RPCURL:              "https://rpc.ankr.com/eth",
			ChainID:             1,
			ExplorerURL:         "https://etherscan.io",
			NativeDecimals:      NativeDecimals,
			EIP1559:             true,
			GasLimitMultiplier:  1.2,
			ReceiptTimeout:      120 * time.Second,
			ReceiptPollInterval: 2 * time.Second,
			RateLimit:           10,
			DialRetries:         2,
			DialRetryDelay:      time.Second,
		},
		{
			Name:                Base,
			RPCURL:              "https://mainnet.base.org",
			ChainID:             8453,
			ExplorerURL:         "https://basescan.org",
			NativeDecimals:      NativeDecimals,
			EIP1559:             true,
			GasLimitMultiplier:  1.2,
			ReceiptTimeout:      120 * time.Second,
			ReceiptPollInterval: 2 * time.Second,
			RateLimit:           10,
			DialRetries:         2,
			DialRetryDelay:      time.Second,
		},
	}
}
