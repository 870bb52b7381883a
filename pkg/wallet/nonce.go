package wallet

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type nonceKey struct {
	chain   ChainName
	address common.Address
}

// NonceManager hands out nonces per (chain, address). Load-balanced RPCs can report
// a stale pending nonce right after a confirmation, so the next nonce is never lower
// than the last one handed out plus one.
type NonceManager struct {
	last map[nonceKey]uint64 // Last nonce handed out per chain and account
	mu   sync.Mutex
}

// NewNonceManager creates an empty nonce manager.
func NewNonceManager() *NonceManager {
	return &NonceManager{
		last: make(map[nonceKey]uint64),
	}
}

// Next returns the nonce to use for the next transaction of address on h.
func (nm *NonceManager) Next(ctx context.Context, h *ChainHandle, address common.Address) (uint64, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nonce, err := h.client.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, NewWalletError(ErrCodeRPCError, "failed to get nonce", err, h.Name())
	}

	key := nonceKey{chain: h.Name(), address: address}
	if last, ok := nm.last[key]; ok && nonce <= last {
		nonce = last + 1
	}
	nm.last[key] = nonce
	return nonce, nil
}

// Release forgets nonce if it is the last one handed out, so a transaction that was
// never accepted by the node does not leave a gap.
func (nm *NonceManager) Release(h *ChainHandle, address common.Address, nonce uint64) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	key := nonceKey{chain: h.Name(), address: address}
	if last, ok := nm.last[key]; ok && last == nonce {
		if nonce == 0 {
			delete(nm.last, key)
			return
		}
		nm.last[key] = nonce - 1
	}
}
