package runconfig

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/lisanmuaddib/base-minter/pkg/action"
	"github.com/lisanmuaddib/base-minter/pkg/batch"
	"github.com/lisanmuaddib/base-minter/pkg/bridge"
	"github.com/lisanmuaddib/base-minter/pkg/mint"
	"github.com/lisanmuaddib/base-minter/pkg/wallet"
)

// ChainConfigs applies RPC and transaction settings to the default chain table.
func (c *Config) ChainConfigs() []wallet.ChainConfig {
	configs := wallet.DefaultChainConfigs()
	for i := range configs {
		switch configs[i].Name {
		case wallet.Ethereum:
			configs[i].RPCURL = c.EthereumRPCURL
		case wallet.Base:
			configs[i].RPCURL = c.BaseRPCURL
		}
		configs[i].GasLimitMultiplier = c.GasLimitMultiplier
		configs[i].ReceiptTimeout = c.ReceiptTimeout
		configs[i].ReceiptPollInterval = c.ReceiptPollInterval
		configs[i].RateLimit = c.RPCRateLimit
	}
	return configs
}

// GasPolicy is the Ethereum gas gate used before every bridge submission.
func (c *Config) GasPolicy() wallet.GasPolicy {
	return wallet.GasPolicy{
		CeilingGwei:  c.MaxEthGasPrice,
		PollInterval: c.WaitGasTime,
		MaxWait:      c.TotalWaitGasTime,
	}
}

// BridgeConfig selects the bridge route from the flags. The official portal is used
// unless Onchain Summer is enabled.
func (c *Config) BridgeConfig() bridge.Config {
	strategy := bridge.StrategyOfficial
	if c.BridgeWithOnchainSummer {
		strategy = bridge.StrategySummer
	}

	return bridge.Config{
		Strategy:     strategy,
		ViaMintFun:   c.BridgeWithMintFun,
		AmountMin:    c.BridgeAmountMin,
		AmountMax:    c.BridgeAmountMax,
		Gas:          c.GasPolicy(),
		WaitTimeout:  c.BridgeWaitTime,
		PollInterval: c.BridgePollInterval,
		Source:       wallet.Ethereum,
		Destination:  wallet.Base,
		Contracts: bridge.Contracts{
			SummerBridge:    OnchainSummerBridgeAddress,
			SummerABI:       SummerBridgeABI,
			SummerGasLimit:  OnchainSummerBridgeGasLimit,
			Portal:          BasePortalAddress,
			PortalABI:       PortalABI,
			PortalGasLimit:  BaseBridgeGasLimit,
			MintFunPass:     MintFunPassAddress,
			MintFunCalldata: MintFunCalldata,
			MintFunGasLimit: MintFunBridgeGasLimit,
			MintFunValue:    MintFunValue,
		},
	}
}

// MintConfig is the orchestrator config for targets on Base.
func (c *Config) MintConfig() mint.Config {
	return mint.Config{
		Chain: wallet.Base,
		Contracts: mint.Contracts{
			ClaimABI:        ClaimABI,
			BuildersABI:     BuildersABI,
			NativeToken:     NativeTokenAddress,
			BuildersMessage: BuildersMessage,
		},
		NextTxMin: c.NextTxMinWait,
		NextTxMax: c.NextTxMaxWait,
	}
}

// RetryPolicy is shared by every action runner. Insufficient funds and other
// terminal wallet errors are never retried.
func (c *Config) RetryPolicy() action.Policy {
	attempts := uint(1)
	if c.MaxTries > 1 {
		attempts = uint(c.MaxTries)
	}
	return action.Policy{
		MaxAttempts:  attempts,
		BackoffBase:  c.RetryBaseDelay,
		MaxJitter:    c.RetryMaxJitter,
		NonRetryable: wallet.IsTerminal,
	}
}

// BatchConfig is the sequential wallet loop config.
func (c *Config) BatchConfig(runID string) batch.Config {
	return batch.Config{
		RunID:         runID,
		Chains:        []wallet.ChainName{wallet.Ethereum, wallet.Base},
		NextTxMin:     c.NextTxMinWait,
		NextTxMax:     c.NextTxMaxWait,
		NextWalletMin: c.NextAddressMinWait,
		NextWalletMax: c.NextAddressMaxWait,
		Shuffle:       c.ShuffleWallets,
	}
}

// Targets builds mint targets in configured order. names maps each address to its
// collection name; a missing name falls back to the address.
func (c *Config) Targets(names map[common.Address]string) []mint.Target {
	targets := make([]mint.Target, 0, len(c.MintAddresses))
	for _, addr := range c.MintAddresses {
		kind := mint.KindClaim
		if addr == BuildersAddress {
			kind = mint.KindBuilders
		}
		name := names[addr]
		if name == "" {
			name = addr.Hex()
		}
		targets = append(targets, mint.Target{Address: addr, Kind: kind, Name: name})
	}
	return targets
}
