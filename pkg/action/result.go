// Package action holds the outcome type of a logical on-chain action and the retry
// policy every action runs under.
package action

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Status classifies how an action ended.
type Status int

const (
	// StatusAlready means nothing had to be done, e.g. the NFT is already held
	StatusAlready Status = iota + 1
	// StatusPending means a transaction was accepted but no receipt appeared in time
	StatusPending
	// StatusSuccess means the transaction was confirmed with status 1
	StatusSuccess
	// StatusFailed means the action gave up with an error
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusAlready:
		return "already"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the immutable outcome of one action.
type Result struct {
	Status Status
	Chain  string
	TxHash common.Hash
	Label  string
	Err    error
}

// PendingRecord identifies a transaction whose receipt wait timed out. It is
// reported, never stored or retried.
type PendingRecord struct {
	Chain  string
	TxHash common.Hash
	Label  string
}

func (p PendingRecord) String() string {
	return fmt.Sprintf("%s, chain = %s, tx_hash = %s", p.Label, p.Chain, p.TxHash.Hex())
}

// Already returns a result for an action with nothing left to do.
func Already(label string) Result {
	return Result{Status: StatusAlready, Label: label}
}

// Success returns a confirmed result.
func Success(chain, label string, hash common.Hash) Result {
	return Result{Status: StatusSuccess, Chain: chain, Label: label, TxHash: hash}
}

// Pending returns a result for a submitted transaction without a receipt yet.
func Pending(chain, label string, hash common.Hash) Result {
	return Result{Status: StatusPending, Chain: chain, Label: label, TxHash: hash}
}

// Failed returns a failed result carrying err.
func Failed(label string, err error) Result {
	return Result{Status: StatusFailed, Label: label, Err: err}
}

// Completed reports whether the action counts as done for reporting: already done,
// confirmed, or in flight.
func (r Result) Completed() bool {
	switch r.Status {
	case StatusAlready, StatusPending, StatusSuccess:
		return true
	default:
		return false
	}
}

// PendingRecord returns the pending details when the result is pending.
func (r Result) PendingRecord() (PendingRecord, bool) {
	if r.Status != StatusPending {
		return PendingRecord{}, false
	}
	return PendingRecord{Chain: r.Chain, TxHash: r.TxHash, Label: r.Label}, true
}

// HasTx reports whether a transaction hash is attached.
func (r Result) HasTx() bool {
	return r.TxHash != (common.Hash{})
}
