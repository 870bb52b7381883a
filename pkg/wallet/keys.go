package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyManager holds a wallet private key and the address derived from it.
// It is immutable after construction.
type KeyManager struct {
	privateKey *ecdsa.PrivateKey // The wallet's private key
	address    common.Address    // The derived Ethereum address
}

// NewKeyManager creates a new key manager from a hex-encoded private key
// (with or without 0x prefix).
//
// Example:
//
//	km, err := NewKeyManager("0x1234...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	address := km.GetAddress()
func NewKeyManager(privateKeyHex string) (*KeyManager, error) {
	privateKeyHex = strings.TrimSpace(privateKeyHex)
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}

	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &KeyManager{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// GetAddress returns the Ethereum address associated with this key manager.
func (km *KeyManager) GetAddress() common.Address {
	return km.address
}

// SignText signs text with the EIP-191 personal message prefix, as wallets do for
// personal_sign. The recovery id is shifted to 27/28.
func (km *KeyManager) SignText(text string) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(text)), km.privateKey)
	if err != nil {
		return nil, NewWalletError(ErrCodeSigningFailed, "failed to sign message", err, "")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// Wallet is one entry of the credential list: an optional label and its key.
type Wallet struct {
	Label string
	Key   *KeyManager
}

// ParseWallet builds a Wallet from a credential line, either a raw private key or
// "label;privateKey".
func ParseWallet(line string) (Wallet, error) {
	line = strings.TrimSpace(line)
	label, key := "", line
	if idx := strings.Index(line, ";"); idx >= 0 {
		label, key = strings.TrimSpace(line[:idx]), line[idx+1:]
	}

	km, err := NewKeyManager(key)
	if err != nil {
		return Wallet{}, NewWalletError(ErrCodeInvalidPrivateKey, "failed to parse wallet credential", err, "")
	}
	return Wallet{Label: label, Key: km}, nil
}

// Address returns the wallet's derived address.
func (w Wallet) Address() common.Address {
	return w.Key.GetAddress()
}

// Name returns the label when present and the hex address otherwise.
func (w Wallet) Name() string {
	if w.Label != "" {
		return w.Label
	}
	return w.Address().Hex()
}
