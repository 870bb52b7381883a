package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// erc721ABI is the read-only part of ERC-721 the runner needs: holdings and the
// collection display name.
const erc721ABI = `[
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "name",
		"outputs": [{"name": "", "type": "string"}],
		"type": "function"
	}
]`

var parsedERC721ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc721ABI))
	if err != nil {
		panic(fmt.Sprintf("invalid erc721 abi: %v", err))
	}
	return parsed
}()

// ERC721ABI returns the parsed minimal ERC-721 interface.
func ERC721ABI() abi.ABI {
	return parsedERC721ABI
}

// NFTBalance returns how many tokens of collection owner holds.
func NFTBalance(ctx context.Context, h *ChainHandle, collection, owner common.Address) (*big.Int, error) {
	contract := bind.NewBoundContract(collection, parsedERC721ABI, h.client, h.client, h.client)

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", owner); err != nil {
		return nil, NewWalletError(ErrCodeContractError, "failed to get token balance", err, h.Name())
	}
	if len(out) == 0 {
		return nil, NewWalletError(ErrCodeContractError, "no balance returned", nil, h.Name())
	}

	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, NewWalletError(ErrCodeContractError, "failed to convert balance to *big.Int", nil, h.Name())
	}
	return balance, nil
}

// HoldsNFT reports whether owner holds at least one token of collection.
func HoldsNFT(ctx context.Context, h *ChainHandle, collection, owner common.Address) (bool, error) {
	balance, err := NFTBalance(ctx, h, collection, owner)
	if err != nil {
		return false, err
	}
	return balance.Sign() > 0, nil
}

// NFTName returns the collection's name().
func NFTName(ctx context.Context, h *ChainHandle, collection common.Address) (string, error) {
	contract := bind.NewBoundContract(collection, parsedERC721ABI, h.client, h.client, h.client)

	var out []interface{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &out, "name"); err != nil {
		return "", NewWalletError(ErrCodeContractError, "failed to get collection name", err, h.Name())
	}
	if len(out) == 0 {
		return "", NewWalletError(ErrCodeContractError, "no name returned", nil, h.Name())
	}

	name, ok := out[0].(string)
	if !ok {
		return "", NewWalletError(ErrCodeContractError, "failed to convert name to string", nil, h.Name())
	}
	return name, nil
}
