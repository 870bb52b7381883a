// Package wallet provides the per-wallet transaction engine: chain handles resolved per
// proxy, key management, gas gating, and transaction submission with receipt polling.
package wallet

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for various wallet operations
const (
	// ErrCodeInvalidChain indicates the requested chain is not configured
	ErrCodeInvalidChain = "INVALID_CHAIN"
	// ErrCodeInvalidAddress indicates an invalid blockchain address format
	ErrCodeInvalidAddress = "INVALID_ADDRESS"
	// ErrCodeInvalidPrivateKey indicates an invalid or malformed private key
	ErrCodeInvalidPrivateKey = "INVALID_PRIVATE_KEY"
	// ErrCodeInvalidProxy indicates the proxy string could not be parsed as a URL
	ErrCodeInvalidProxy = "INVALID_PROXY"
	// ErrCodeRPCError indicates an RPC connection or call failed
	ErrCodeRPCError = "RPC_ERROR"
	// ErrCodeInsufficientFunds indicates insufficient balance for value plus gas
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	// ErrCodeTxReverted indicates a receipt was observed with a failed status
	ErrCodeTxReverted = "TX_REVERTED"
	// ErrCodeGasPrice indicates gas price stayed above the ceiling for the whole wait
	ErrCodeGasPrice = "GAS_PRICE_TOO_HIGH"
	// ErrCodeBridgeTimeout indicates bridged funds did not arrive in time
	ErrCodeBridgeTimeout = "BRIDGE_TIMEOUT"
	// ErrCodeContractError indicates a contract read failed
	ErrCodeContractError = "CONTRACT_ERROR"
	// ErrCodeGasEstimationFailed indicates gas estimation failed
	ErrCodeGasEstimationFailed = "GAS_ESTIMATION_FAILED"
	// ErrCodeSigningFailed indicates the transaction or message could not be signed
	ErrCodeSigningFailed = "SIGNING_FAILED"
	// ErrCodeSubmissionFailed indicates the node rejected the signed transaction
	ErrCodeSubmissionFailed = "SUBMISSION_FAILED"
)

// WalletError represents a wallet-specific error with additional context
// about the error type, message, underlying error and chain.
type WalletError struct {
	Code    string    // Error code identifying the type of error
	Message string    // Human readable error message
	Err     error     // Underlying error if any
	Chain   ChainName // Chain where the error occurred
}

// Error implements the error interface for WalletError.
func (e *WalletError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Chain != "" {
		msg += fmt.Sprintf(" on chain %s", e.Chain)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *WalletError) Unwrap() error {
	return e.Err
}

// NewWalletError creates a new WalletError with the given parameters.
func NewWalletError(code string, message string, err error, chain ChainName) *WalletError {
	return &WalletError{
		Code:    code,
		Message: message,
		Err:     err,
		Chain:   chain,
	}
}

// IsWalletError checks if any error in err's chain is a WalletError with the given code.
func IsWalletError(err error, code string) bool {
	var we *WalletError
	if errors.As(err, &we) {
		return we.Code == code
	}
	return false
}

// IsInsufficientFunds reports whether err signals that the account cannot cover value plus gas.
func IsInsufficientFunds(err error) bool {
	return IsWalletError(err, ErrCodeInsufficientFunds)
}

// IsTerminal reports whether err must not be retried blindly. Insufficient funds is
// recovered by the orchestrator (bridge and retry once), never by resubmission.
func IsTerminal(err error) bool {
	return IsInsufficientFunds(err)
}

// looksLikeInsufficientFunds matches the node error text for core.ErrInsufficientFunds
// and its "for transfer" variant. JSON-RPC flattens errors to strings, so typed
// comparison is not possible on the client side.
func looksLikeInsufficientFunds(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "insufficient funds")
}
