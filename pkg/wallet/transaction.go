package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/base-minter/pkg/action"
	"github.com/lisanmuaddib/base-minter/pkg/pace"
)

// Call describes a contract method invocation to be encoded into transaction data.
type Call struct {
	// To is the contract address
	To common.Address

	// ABI is the contract interface used to encode the call
	ABI abi.ABI

	// Method is the contract method name
	Method string

	// Args are the method arguments in ABI order
	Args []interface{}
}

// Pack encodes the call data.
func (c Call) Pack() ([]byte, error) {
	data, err := c.ABI.Pack(c.Method, c.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", c.Method, err)
	}
	return data, nil
}

// Executor builds, signs and submits transactions and polls for their receipts.
type Executor struct {
	nonces *NonceManager
	pacer  *pace.Pacer
	log    *logrus.Logger
}

// NewExecutor creates an executor. Receipt polling sleeps go through pacer.
func NewExecutor(log *logrus.Logger, pacer *pace.Pacer, nonces *NonceManager) *Executor {
	if nonces == nil {
		nonces = NewNonceManager()
	}
	return &Executor{nonces: nonces, pacer: pacer, log: log}
}

// fees holds the gas pricing fields for one transaction.
type fees struct {
	gasPrice  *big.Int // legacy
	gasTipCap *big.Int // EIP-1559
	gasFeeCap *big.Int // EIP-1559
}

// maxPerGas is the highest price per gas the transaction may pay.
func (f fees) maxPerGas() *big.Int {
	if f.gasFeeCap != nil {
		return f.gasFeeCap
	}
	return f.gasPrice
}

// Send submits call on h from key with value attached and waits for the receipt.
//
// Outcomes:
//   - confirmed with status 1: action.StatusSuccess
//   - no receipt within the chain's ReceiptTimeout: action.StatusPending (not an error,
//     resubmitting an in-flight transaction risks a duplicate)
//   - confirmed with another status: ErrCodeTxReverted
//   - balance below value plus gas: ErrCodeInsufficientFunds
func (e *Executor) Send(
	ctx context.Context,
	h *ChainHandle,
	key *KeyManager,
	call Call,
	value *big.Int,
	label string,
) (action.Result, error) {
	if value == nil {
		value = new(big.Int)
	}
	from := key.GetAddress()
	chain := h.Name()

	data, err := call.Pack()
	if err != nil {
		return action.Result{}, NewWalletError(ErrCodeContractError, "failed to build transaction", err, chain)
	}

	nonce, err := e.nonces.Next(ctx, h, from)
	if err != nil {
		return action.Result{}, err
	}
	submitted := false
	defer func() {
		if !submitted {
			e.nonces.Release(h, from, nonce)
		}
	}()

	fee, err := e.suggestFees(ctx, h)
	if err != nil {
		return action.Result{}, err
	}

	gasLimit, err := e.estimateGas(ctx, h, from, call.To, data, value, fee)
	if err != nil {
		return action.Result{}, err
	}

	if err := e.checkBalance(ctx, h, from, value, gasLimit, fee); err != nil {
		return action.Result{}, err
	}

	tx := e.buildTx(h.Config, nonce, call.To, value, gasLimit, fee, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(h.Config.ChainIDBig()), key.privateKey)
	if err != nil {
		return action.Result{}, NewWalletError(ErrCodeSigningFailed, "failed to sign transaction", err, chain)
	}

	if err := h.client.SendTransaction(ctx, signedTx); err != nil {
		if looksLikeInsufficientFunds(err) {
			return action.Result{}, NewWalletError(ErrCodeInsufficientFunds, "insufficient funds to send transaction", err, chain)
		}
		return action.Result{}, NewWalletError(ErrCodeSubmissionFailed, "failed to send transaction", err, chain)
	}
	submitted = true

	hash := signedTx.Hash()
	entry := e.log.WithFields(logrus.Fields{
		"chain":   chain,
		"action":  label,
		"tx_hash": hash.Hex(),
		"nonce":   nonce,
	})
	entry.Info("Tx was sent")

	receipt, err := e.waitForReceipt(ctx, h, hash)
	if err != nil {
		return action.Result{}, err
	}
	if receipt == nil {
		entry.Infof("Tx in pending: %s", h.Config.TxURL(hash.Hex()))
		return action.Pending(string(chain), label, hash), nil
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return action.Result{}, NewWalletError(
			ErrCodeTxReverted,
			fmt.Sprintf("%s: tx status = %d, tx_hash = %s", label, receipt.Status, hash.Hex()),
			nil,
			chain,
		)
	}

	entry.WithField("block", receipt.BlockNumber).Infof("Successful tx: %s", h.Config.TxURL(hash.Hex()))
	return action.Success(string(chain), label, hash), nil
}

// suggestFees prices the transaction. EIP-1559 chains pay twice the latest base fee
// plus the suggested tip as fee cap.
func (e *Executor) suggestFees(ctx context.Context, h *ChainHandle) (fees, error) {
	if h.Config.EIP1559 {
		head, err := h.client.HeaderByNumber(ctx, nil)
		if err != nil {
			return fees{}, NewWalletError(ErrCodeRPCError, "failed to get latest header", err, h.Name())
		}
		if head.BaseFee != nil {
			tip, err := h.client.SuggestGasTipCap(ctx)
			if err != nil {
				return fees{}, NewWalletError(ErrCodeRPCError, "failed to get gas tip cap", err, h.Name())
			}
			feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
			feeCap.Add(feeCap, tip)
			return fees{gasTipCap: tip, gasFeeCap: feeCap}, nil
		}
	}

	price, err := h.client.SuggestGasPrice(ctx)
	if err != nil {
		return fees{}, NewWalletError(ErrCodeRPCError, "failed to get gas price", err, h.Name())
	}
	return fees{gasPrice: price}, nil
}

// estimateGas estimates the gas limit and applies the chain's safety multiplier.
func (e *Executor) estimateGas(
	ctx context.Context,
	h *ChainHandle,
	from, to common.Address,
	data []byte,
	value *big.Int,
	fee fees,
) (uint64, error) {
	msg := ethereum.CallMsg{
		From:      from,
		To:        &to,
		Data:      data,
		Value:     value,
		GasPrice:  fee.gasPrice,
		GasFeeCap: fee.gasFeeCap,
		GasTipCap: fee.gasTipCap,
	}

	estimated, err := h.client.EstimateGas(ctx, msg)
	if err != nil {
		if looksLikeInsufficientFunds(err) {
			return 0, NewWalletError(ErrCodeInsufficientFunds, "insufficient funds for gas * price + value", err, h.Name())
		}
		return 0, NewWalletError(ErrCodeGasEstimationFailed, "failed to estimate gas", err, h.Name())
	}

	multiplier := h.Config.GasLimitMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	return uint64(float64(estimated) * multiplier), nil
}

// checkBalance fails with ErrCodeInsufficientFunds when value plus the maximum gas
// cost exceeds the balance, matching the node's own admission rule.
func (e *Executor) checkBalance(
	ctx context.Context,
	h *ChainHandle,
	from common.Address,
	value *big.Int,
	gasLimit uint64,
	fee fees,
) error {
	balance, err := h.client.BalanceAt(ctx, from, nil)
	if err != nil {
		return NewWalletError(ErrCodeRPCError, "failed to get balance", err, h.Name())
	}

	cost := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), fee.maxPerGas())
	cost.Add(cost, value)
	if balance.Cmp(cost) < 0 {
		return NewWalletError(
			ErrCodeInsufficientFunds,
			fmt.Sprintf("balance %s ETH is below required %s ETH", WeiToEther(balance).StringFixed(6), WeiToEther(cost).StringFixed(6)),
			nil,
			h.Name(),
		)
	}
	return nil
}

func (e *Executor) buildTx(
	config ChainConfig,
	nonce uint64,
	to common.Address,
	value *big.Int,
	gasLimit uint64,
	fee fees,
	data []byte,
) *types.Transaction {
	if fee.gasFeeCap != nil {
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   config.ChainIDBig(),
			Nonce:     nonce,
			GasTipCap: fee.gasTipCap,
			GasFeeCap: fee.gasFeeCap,
			Gas:       gasLimit,
			To:        &to,
			Value:     value,
			Data:      data,
		})
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: fee.gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	})
}

// waitForReceipt polls for the receipt of hash. It returns a nil receipt without
// error once the chain's ReceiptTimeout has accumulated.
func (e *Executor) waitForReceipt(ctx context.Context, h *ChainHandle, hash common.Hash) (*types.Receipt, error) {
	interval := h.Config.ReceiptPollInterval
	if interval <= 0 {
		interval = time.Second
	}

	var elapsed time.Duration
	for {
		receipt, err := h.client.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			e.log.WithFields(logrus.Fields{
				"chain":   h.Name(),
				"tx_hash": hash.Hex(),
				"error":   err,
			}).Debug("Receipt lookup failed")
		}

		if elapsed >= h.Config.ReceiptTimeout {
			return nil, nil
		}
		if err := e.pacer.Sleep(ctx, interval); err != nil {
			return nil, err
		}
		elapsed += interval
	}
}
