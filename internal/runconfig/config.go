// Package runconfig loads the minter's environment configuration and turns it into
// the immutable configs of the wallet, bridge, mint and batch components.
package runconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/pkg/wallet"
)

// ErrConflictingBridges is returned when both alternative bridge routes are enabled.
var ErrConflictingBridges = errors.New("can't bridge with mint fun and with onchain summer, choose only one")

// Config is the flat run configuration read from the environment.
type Config struct {
	// RPC endpoints
	EthereumRPCURL string
	BaseRPCURL     string

	// Gas gating on Ethereum, gwei and durations
	MaxEthGasPrice   float64
	WaitGasTime      time.Duration
	TotalWaitGasTime time.Duration

	// Bridge amounts in ETH and arrival watch
	BridgeAmountMin    float64
	BridgeAmountMax    float64
	BridgeWaitTime     time.Duration
	BridgePollInterval time.Duration

	BridgeWithMintFun       bool
	BridgeWithOnchainSummer bool

	// Pacing
	NextTxMinWait      time.Duration
	NextTxMaxWait      time.Duration
	NextAddressMinWait time.Duration
	NextAddressMaxWait time.Duration

	// Retry
	MaxTries       int
	RetryBaseDelay time.Duration
	RetryMaxJitter time.Duration

	// Transactions
	ReceiptTimeout      time.Duration
	ReceiptPollInterval time.Duration
	GasLimitMultiplier  float64
	RPCRateLimit        float64

	// Targets on Base
	MintAddresses []common.Address

	// Files
	WalletsFile string
	ProxiesFile string
	ResultsDir  string

	ShuffleWallets bool
	LedgerEnabled  bool
}

// Load builds a validated Config from the process environment. The caller loads
// .env beforehand so LOG_LEVEL is known before the config is read.
func Load() (*Config, error) {
	config, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FromEnv builds a Config from the process environment without validating it.
func FromEnv() (*Config, error) {
	p := &envParser{}

	config := &Config{
		EthereumRPCURL: getEnvOrDefault("ETHEREUM_RPC_URL", "https://rpc.ankr.com/eth"),
		BaseRPCURL:     getEnvOrDefault("BASE_RPC_URL", "https://mainnet.base.org"),

		MaxEthGasPrice:   p.float("MAX_ETH_GAS_PRICE", "15"),
		WaitGasTime:      p.seconds("WAIT_GAS_TIME", "60"),
		TotalWaitGasTime: p.seconds("TOTAL_WAIT_GAS_TIME", "86400"),

		BridgeAmountMin:    p.float("BRIDGE_AMOUNT_MIN", "0.003"),
		BridgeAmountMax:    p.float("BRIDGE_AMOUNT_MAX", "0.004"),
		BridgeWaitTime:     p.seconds("BRIDGE_WAIT_TIME", "600"),
		BridgePollInterval: p.seconds("BRIDGE_POLL_INTERVAL", "20"),

		BridgeWithMintFun:       p.bool("BRIDGE_WITH_MINT_FUN", "false"),
		BridgeWithOnchainSummer: p.bool("BRIDGE_WITH_ONCHAIN_SUMMER", "false"),

		NextTxMinWait:      p.seconds("NEXT_TX_MIN_WAIT_TIME", "10"),
		NextTxMaxWait:      p.seconds("NEXT_TX_MAX_WAIT_TIME", "20"),
		NextAddressMinWait: p.minutes("NEXT_ADDRESS_MIN_WAIT_TIME", "1"),
		NextAddressMaxWait: p.minutes("NEXT_ADDRESS_MAX_WAIT_TIME", "3"),

		MaxTries:       p.int("MAX_TRIES", "5"),
		RetryBaseDelay: p.seconds("RETRY_BASE_DELAY", "1.5"),
		RetryMaxJitter: p.seconds("RETRY_MAX_JITTER", "1"),

		ReceiptTimeout:      p.seconds("RECEIPT_TIMEOUT", "120"),
		ReceiptPollInterval: p.seconds("RECEIPT_POLL_INTERVAL", "2"),
		GasLimitMultiplier:  p.float("GAS_LIMIT_MULTIPLIER", "1.2"),
		RPCRateLimit:        p.float("RPC_RATE_LIMIT", "10"),

		WalletsFile: getEnvOrDefault("WALLETS_FILE", "files/wallets.txt"),
		ProxiesFile: getEnvOrDefault("PROXIES_FILE", "files/proxies.txt"),
		ResultsDir:  getEnvOrDefault("RESULTS_DIR", "results"),

		ShuffleWallets: p.bool("SHUFFLE_WALLETS", "true"),
		LedgerEnabled:  p.bool("LEDGER_ENABLED", "false"),
	}

	config.MintAddresses = p.addresses("MINT_ADDRESSES", BuildersAddress.Hex())

	if p.err != nil {
		return nil, p.err
	}
	return config, nil
}

// Validate checks cross-field rules:
//   - only one of the alternative bridge routes may be enabled
//   - min bounds must not exceed max bounds
//   - at least one mint address must be configured
//   - attempts, gas ceiling and multiplier must be positive
func (c *Config) Validate() error {
	if c.BridgeWithMintFun && c.BridgeWithOnchainSummer {
		return ErrConflictingBridges
	}
	if c.BridgeAmountMin <= 0 || c.BridgeAmountMin > c.BridgeAmountMax {
		return fmt.Errorf("invalid bridge amount range [%v, %v]", c.BridgeAmountMin, c.BridgeAmountMax)
	}
	if c.NextTxMinWait > c.NextTxMaxWait {
		return fmt.Errorf("invalid next tx wait range [%s, %s]", c.NextTxMinWait, c.NextTxMaxWait)
	}
	if c.NextAddressMinWait > c.NextAddressMaxWait {
		return fmt.Errorf("invalid next address wait range [%s, %s]", c.NextAddressMinWait, c.NextAddressMaxWait)
	}
	if len(c.MintAddresses) == 0 {
		return fmt.Errorf("at least one mint address is required")
	}
	if c.MaxTries < 1 {
		return fmt.Errorf("max tries must be positive, got %d", c.MaxTries)
	}
	if c.MaxEthGasPrice <= 0 {
		return fmt.Errorf("max eth gas price must be positive, got %v", c.MaxEthGasPrice)
	}
	if c.GasLimitMultiplier < 1 {
		return fmt.Errorf("gas limit multiplier must be at least 1, got %v", c.GasLimitMultiplier)
	}
	if c.EthereumRPCURL == "" || c.BaseRPCURL == "" {
		return fmt.Errorf("rpc urls are required")
	}
	return nil
}

// getEnvOrDefault retrieves an environment variable value by key,
// returning the defaultValue if the environment variable is not set or empty.
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// envParser keeps the first parse error so FromEnv reads like a field list.
type envParser struct {
	err error
}

func (p *envParser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func (p *envParser) float(key, def string) float64 {
	value := getEnvOrDefault(key, def)
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(key, value, err)
	}
	return f
}

func (p *envParser) int(key, def string) int {
	value := getEnvOrDefault(key, def)
	i, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
	}
	return i
}

func (p *envParser) bool(key, def string) bool {
	value := getEnvOrDefault(key, def)
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
	}
	return b
}

func (p *envParser) seconds(key, def string) time.Duration {
	return time.Duration(p.float(key, def) * float64(time.Second))
}

func (p *envParser) minutes(key, def string) time.Duration {
	return time.Duration(p.float(key, def) * float64(time.Minute))
}

func (p *envParser) addresses(key, def string) []common.Address {
	value := getEnvOrDefault(key, def)

	var out []common.Address
	seen := make(map[common.Address]bool)
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		addr, err := wallet.ParseAddress(part)
		if err != nil {
			p.fail(key, part, err)
			continue
		}
		if seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}

// LogFields summarizes the config for the startup log line.
func (c *Config) LogFields() logrus.Fields {
	return logrus.Fields{
		"max_eth_gas_price": c.MaxEthGasPrice,
		"bridge_amount":     fmt.Sprintf("%v-%v", c.BridgeAmountMin, c.BridgeAmountMax),
		"bridge_mint_fun":   c.BridgeWithMintFun,
		"bridge_summer":     c.BridgeWithOnchainSummer,
		"mint_targets":      len(c.MintAddresses),
		"max_tries":         c.MaxTries,
		"shuffle":           c.ShuffleWallets,
		"ledger":            c.LedgerEnabled,
	}
}
