package runconfig

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

var (
	// NativeTokenAddress is the placeholder currency for ETH in claim arguments
	NativeTokenAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

	// MintFunPassAddress receives mint.fun bridge deposits on Base
	MintFunPassAddress = common.HexToAddress("0x00008453E27e8e88F305F13CF27c30D724fDd055")

	// OnchainSummerBridgeAddress is the Onchain Summer bridge on Ethereum
	OnchainSummerBridgeAddress = common.HexToAddress("0x3154Cf16ccdb4C6d922629664174b904d80F2C35")

	// BasePortalAddress is the Base OptimismPortal on Ethereum
	BasePortalAddress = common.HexToAddress("0x49048044D57e1C92A77f79988d21Fa8fAF74E97e")

	// BuildersAddress is the "Base is for builders" collection
	BuildersAddress = common.HexToAddress("0x1FC10ef15E041C5D3C54042e52EB0C54CB9b710c")
)

const (
	BaseBridgeGasLimit          uint64 = 100000
	MintFunBridgeGasLimit       uint64 = 222000
	OnchainSummerBridgeGasLimit uint32 = 200000

	// BuildersMessage is signed with EIP-191 and passed to mint(bytes)
	BuildersMessage = "all your base are belong to you."
)

// MintFunValue is the fixed ETH amount deposited through the mint.fun pass.
var MintFunValue = decimal.RequireFromString("0.001")

// MintFunCalldata is the pass contract call forwarded with the deposit.
var MintFunCalldata = hexutil.MustDecode("0x8c874ebd0021fb3f")

const summerBridgeABI = `[
	{
		"inputs": [
			{"internalType": "uint32", "name": "_minGasLimit", "type": "uint32"},
			{"internalType": "bytes", "name": "_extraData", "type": "bytes"}
		],
		"name": "depositETH",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	}
]`

const portalABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "_to", "type": "address"},
			{"internalType": "uint256", "name": "_value", "type": "uint256"},
			{"internalType": "uint64", "name": "_gasLimit", "type": "uint64"},
			{"internalType": "bool", "name": "_isCreation", "type": "bool"},
			{"internalType": "bytes", "name": "_data", "type": "bytes"}
		],
		"name": "depositTransaction",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	}
]`

const claimABI = `[
	{
		"inputs": [
			{"internalType": "address", "name": "_receiver", "type": "address"},
			{"internalType": "uint256", "name": "_quantity", "type": "uint256"},
			{"internalType": "address", "name": "_currency", "type": "address"},
			{"internalType": "uint256", "name": "_pricePerToken", "type": "uint256"},
			{
				"components": [
					{"internalType": "bytes32[]", "name": "proof", "type": "bytes32[]"},
					{"internalType": "uint256", "name": "quantityLimitPerWallet", "type": "uint256"},
					{"internalType": "uint256", "name": "pricePerToken", "type": "uint256"},
					{"internalType": "address", "name": "currency", "type": "address"}
				],
				"internalType": "struct IDrop.AllowlistProof",
				"name": "_allowlistProof",
				"type": "tuple"
			},
			{"internalType": "bytes", "name": "_data", "type": "bytes"}
		],
		"name": "claim",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

const buildersABI = `[
	{
		"inputs": [{"internalType": "bytes", "name": "signature", "type": "bytes"}],
		"name": "mint",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

func mustParseABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid %s abi: %v", name, err))
	}
	return parsed
}

var (
	SummerBridgeABI = mustParseABI("summer bridge", summerBridgeABI)
	PortalABI       = mustParseABI("portal", portalABI)
	ClaimABI        = mustParseABI("claim", claimABI)
	BuildersABI     = mustParseABI("builders", buildersABI)
)
