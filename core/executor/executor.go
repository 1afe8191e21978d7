// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package executor

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/evmforge/corevm/common"
	"github.com/evmforge/corevm/core/state"
	"github.com/evmforge/corevm/core/tracing"
	"github.com/evmforge/corevm/core/vm"
	"github.com/evmforge/corevm/params"
)

// Transaction-level rejection errors (spec.md §7 "Transaction-level errors
// reject the transaction before any state change"): none of these produce an
// ExecutionResult, since no gas has been debited and no nonce bumped yet.
var (
	ErrNonceTooLow          = errors.New("nonce too low")
	ErrNonceTooHigh         = errors.New("nonce too high")
	ErrInsufficientFunds    = errors.New("insufficient funds for gas * price + value")
	ErrIntrinsicGasTooLow   = errors.New("intrinsic gas too low")
	ErrGasLimitTooHigh      = errors.New("gas limit exceeds block gas limit")
	ErrSenderNotFunded      = errors.New("sender has no balance for upfront gas cost")
)

// ExecutionResult is spec.md §6's `ExecutionResult`: the sole, deterministic
// output of one transaction's execution.
type ExecutionResult struct {
	ExitReason  vm.ExitReason
	ErrorKind   string // empty on Succeed; one of spec.md §6's Error{...}/Fatal{...} names otherwise
	Err         error

	GasUsed     uint64
	GasRefunded uint64

	Output []byte
	Logs   []vm.Log

	// Modifies/Deletes mirror exactly what was handed to Backend.Apply (or
	// would have been, had the caller not supplied an Applyable): the
	// transaction's full state delta, for a caller that wants to inspect or
	// re-apply it without its own Backend.
	Modifies []state.Modify
	Deletes  []common.Address

	CreatedAddress *common.Address
}

// Failed reports whether the transaction's outer frame ended in anything
// other than Succeed — mirroring the teacher's ExecutionResult.Failed().
func (r *ExecutionResult) Failed() bool { return r.ExitReason != vm.ExitSucceed }

// Config bundles the inputs Execute needs beyond the transaction and header
// themselves: the active fork rules (as a resolved Patch, spec.md §4.I), the
// backend, and an optional diagnostic Tracer (spec.md §6).
type Config struct {
	Patch   *params.Patch
	Backend state.Backend
	Tracer  *tracing.Hooks
	GetHash vm.GetHashFunc
}

// Execute is spec.md §6's library entry point:
// `execute(tx, header, patch, backend) -> ExecutionResult`. It validates the
// transaction preamble, runs it to completion against a fresh root Substate,
// finalises gas accounting, and — for a Backend that also implements
// state.Applyable — applies the resulting state delta.
//
// Grounded on wyf-ACCEPT-eth2030/pkg/core/processor.go's applyMessage: debit
// upfront cost, bump the sender's nonce (for Call; Create's EVM.Create bumps
// it itself, matching the teacher's own "EVM.Create handles it" comment),
// dispatch Call or Create, then refund unused gas to the sender and the
// effective price (minus any EIP-1559 burn) to the coinbase.
func Execute(tx *Transaction, header *Header, cfg Config) (*ExecutionResult, error) {
	if cfg.Patch == nil {
		panic("corevm/core/executor: Execute called with a nil Patch")
	}
	patch := cfg.Patch

	root := state.New(cfg.Backend)

	result, err := run(tx, header, patch, root, cfg.Tracer, cfg.GetHash)
	if err != nil {
		// Transaction-level rejection: no state has changed, nothing to
		// apply (spec.md §7).
		return nil, err
	}

	if applyable, ok := cfg.Backend.(state.Applyable); ok {
		modifies, deletes, logs := root.Commit()
		if err := applyable.Apply(modifies, deletes, logs); err != nil {
			return nil, fmt.Errorf("corevm/core/executor: applying state delta: %w", err)
		}
		result.Modifies = modifies
		result.Deletes = deletes
	} else {
		result.Modifies, result.Deletes, _ = root.Commit()
	}

	return result, nil
}

// run performs transaction validation, preamble debiting, sub-invocation and
// gas finalisation against root, recovering from a pull-style Backend's
// require-request panic (SPEC_FULL.md supplemented feature 5) and reporting
// it as a Fatal exit instead of letting it escape Execute.
func run(tx *Transaction, header *Header, patch *params.Patch, root *state.Substate, tracer *tracing.Hooks, getHash vm.GetHashFunc) (result *ExecutionResult, rejectErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			if reqErr, ok := rec.(error); ok && isRequireRequest(reqErr) {
				result = &ExecutionResult{
					ExitReason: vm.ExitFatal,
					ErrorKind:  "UnhandledInterrupt",
					Err:        reqErr,
					GasUsed:    tx.GasLimit,
				}
				rejectErr = nil
				return
			}
			panic(rec)
		}
	}()

	stateNonce := root.GetNonce(tx.Caller)
	if tx.Nonce < stateNonce {
		return nil, fmt.Errorf("%w: tx %d, state %d", ErrNonceTooLow, tx.Nonce, stateNonce)
	}
	if tx.Nonce > stateNonce {
		return nil, fmt.Errorf("%w: tx %d, state %d", ErrNonceTooHigh, tx.Nonce, stateNonce)
	}

	isCreate := tx.Action == ActionCreate
	igas := IntrinsicGas(tx.Input, isCreate, patch)
	if tx.GasLimit < igas {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGasTooLow, tx.GasLimit, igas)
	}
	if header.GasLimit != 0 && tx.GasLimit > header.GasLimit {
		return nil, fmt.Errorf("%w: tx %d, block %d", ErrGasLimitTooHigh, tx.GasLimit, header.GasLimit)
	}

	gasPrice := tx.GasPrice
	if gasPrice == nil {
		gasPrice = new(uint256.Int)
	}
	value := tx.Value
	if value == nil {
		value = new(uint256.Int)
	}

	upfrontGasCost, overflow := new(uint256.Int).MulOverflow(gasPrice, new(uint256.Int).SetUint64(tx.GasLimit))
	if overflow {
		return nil, fmt.Errorf("%w: gas cost overflow", ErrInsufficientFunds)
	}
	totalCost, overflow := new(uint256.Int).AddOverflow(upfrontGasCost, value)
	if overflow {
		return nil, fmt.Errorf("%w: total cost overflow", ErrInsufficientFunds)
	}
	if root.GetBalance(tx.Caller).Lt(totalCost) {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrInsufficientFunds, root.GetBalance(tx.Caller), totalCost)
	}

	// Preamble: debit the full gas allowance up front, and — for Call only —
	// bump the sender's nonce now (spec.md §4.G "Debit gas_limit·gas_price
	// from sender; bump sender nonce"). These two writes sit outside any
	// snapshot the upcoming Call/Create takes, so they survive even if the
	// transaction's outer frame reverts or errors (spec.md §4.G "On outer
	// Revert/hard error: ... except nonce bump, sender debit, and miner
	// credit").
	root.SubBalance(tx.Caller, upfrontGasCost)
	if !isCreate {
		root.SetNonce(tx.Caller, tx.Nonce+1)
	}

	preWarmAccessList(root, tx, header, patch)

	blockCtx := vm.Context{
		GetHash:     getHash,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BlockNumber: header.Number,
		Time:        header.Timestamp,
		Difficulty:  header.Difficulty,
		Random:      header.Random,
		BaseFee:     header.BaseFee,
		BlobBaseFee: header.BlobBaseFee,
	}
	txCtx := vm.TxContext{
		Origin:     tx.Caller,
		GasPrice:   gasPrice,
		BlobHashes: header.BlobHashes,
	}
	evm := vm.NewEVM(blockCtx, txCtx, root, patch)
	evm.Tracer = tracer

	gasLeft := tx.GasLimit - igas
	caller := vm.NewContract(nil, tx.Caller, tx.Caller, nil, gasLeft, nil, common.Hash{}, nil)

	var (
		output         []byte
		leftOverGas    uint64
		execErr        error
		createdAddress *common.Address
	)
	if isCreate {
		var addr common.Address
		output, addr, leftOverGas, execErr = evm.Create(caller, tx.Input, gasLeft, value)
		if execErr == nil {
			createdAddress = &addr
		}
	} else {
		output, leftOverGas, execErr = evm.Call(caller, tx.To, tx.Input, gasLeft, value)
	}

	gasUsed := tx.GasLimit - leftOverGas

	refund := root.GetRefund()
	if maxRefund := gasUsed / patch.RefundQuotient; refund > maxRefund {
		refund = maxRefund
	}
	gasUsed -= refund
	gasReturned := tx.GasLimit - gasUsed

	if gasReturned > 0 {
		root.AddBalance(tx.Caller, new(uint256.Int).Mul(gasPrice, new(uint256.Int).SetUint64(gasReturned)))
	}
	creditCoinbase(root, header, patch, gasPrice, gasUsed)

	reason := vm.Classify(execErr)
	result = &ExecutionResult{
		ExitReason:     reason,
		Err:            execErr,
		GasUsed:        gasUsed,
		GasRefunded:    refund,
		Output:         output,
		Logs:           root.Logs(),
		CreatedAddress: createdAddress,
	}
	if execErr != nil {
		result.ErrorKind = ErrorKind(execErr)
	}
	return result, nil
}

// creditCoinbase pays the block proposer: the full effective gas price
// pre-EIP-1559, or just the tip (gasPrice - baseFee) from London onward, with
// the base-fee portion left uncredited anywhere — burned, per spec.md §8
// invariant 2's "minus base_fee_burn".
func creditCoinbase(root *state.Substate, header *Header, patch *params.Patch, gasPrice *uint256.Int, gasUsed uint64) {
	gasUsedWord := new(uint256.Int).SetUint64(gasUsed)
	if patch.HasBaseFee && header.BaseFee != nil {
		tip := gasPrice
		if gasPrice.Gt(header.BaseFee) {
			tip = new(uint256.Int).Sub(gasPrice, header.BaseFee)
		} else {
			tip = new(uint256.Int)
		}
		if !tip.IsZero() {
			root.AddBalance(header.Coinbase, new(uint256.Int).Mul(tip, gasUsedWord))
		}
		return
	}
	root.AddBalance(header.Coinbase, new(uint256.Int).Mul(gasPrice, gasUsedWord))
}

// preWarmAccessList marks the sender, the call target (or nothing, for a
// Create — the to-be-deployed address is never "warm" ahead of time), the
// coinbase, every active precompile, and the transaction's own EIP-2930
// access list as warm before execution begins, matching EIP-2929/2930's
// "pre-warmed" set (grounded on wyf-ACCEPT-eth2030/pkg/core/processor.go's
// applyMessage pre-warming block). A pre-Berlin patch still performs this
// unconditionally; it's simply never consulted, since SlotInAccessList is
// only read by the Berlin-or-later SSTORE/SLOAD/CALL gas functions.
func preWarmAccessList(root *state.Substate, tx *Transaction, header *Header, patch *params.Patch) {
	root.AddAddressToAccessList(tx.Caller)
	if tx.Action == ActionCall {
		root.AddAddressToAccessList(tx.To)
	}
	root.AddAddressToAccessList(header.Coinbase)
	for addr := range patch.Precompiles {
		root.AddAddressToAccessList(addr)
	}
	for _, tuple := range tx.AccessList {
		root.AddAddressToAccessList(tuple.Address)
		for _, key := range tuple.StorageKeys {
			root.AddSlotToAccessList(tuple.Address, key)
		}
	}
}

// IntrinsicGas computes the fixed cost charged before any bytecode executes
// (spec.md §4.G / GLOSSARY "Intrinsic gas"): the flat per-transaction base,
// 4/16 gas per zero/nonzero input byte (16 from EIP-2028 — this module
// always prices the post-Istanbul rate, since pre-Istanbul byte pricing has
// no SPEC_FULL.md component left to select it from), plus the EIP-3860
// per-word init-code surcharge for Create when the patch's MaxInitCodeSize
// indicates Shanghai-or-later is active.
func IntrinsicGas(data []byte, isCreate bool, patch *params.Patch) uint64 {
	gas := params.TxGas
	if isCreate {
		gas = params.TxGasContractCreation
	}
	var zeroes, nonZeroes uint64
	for _, b := range data {
		if b == 0 {
			zeroes++
		} else {
			nonZeroes++
		}
	}
	gas += zeroes * params.TxDataZeroGas
	gas += nonZeroes * params.TxDataNonZeroGasEIP2028

	if isCreate && patch.MaxInitCodeSize < 1<<63-1 {
		words := (uint64(len(data)) + 31) / 32
		gas += words * params.InitCodeWordGas
	}
	return gas
}

// ErrorKind maps err to one of spec.md §6's exhaustive Error{...} names.
func ErrorKind(err error) string {
	var (
		underflow *vm.ErrStackUnderflow
		overflow  *vm.ErrStackOverflow
		invalidOp *vm.ErrInvalidOpCode
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, vm.ErrOutOfGas), errors.Is(err, vm.ErrCodeStoreOutOfGas), errors.Is(err, vm.ErrGasUintOverflow):
		return "OutOfGas"
	case errors.As(err, &underflow):
		return "StackUnderflow"
	case errors.As(err, &overflow):
		return "StackOverflow"
	case errors.As(err, &invalidOp):
		return "DesignatedInvalid"
	case errors.Is(err, vm.ErrInvalidCode):
		return "InvalidCode"
	case errors.Is(err, vm.ErrInvalidJump):
		return "InvalidJump"
	case errors.Is(err, vm.ErrReturnDataOutOfBounds):
		return "InvalidRange"
	case errors.Is(err, vm.ErrDepth):
		return "CallTooDeep"
	case errors.Is(err, vm.ErrContractAddressCollision):
		return "CreateCollision"
	case errors.Is(err, vm.ErrMaxCodeSizeExceeded), errors.Is(err, vm.ErrMaxInitCodeSizeExceeded):
		return "CreateContractLimit"
	case errors.Is(err, vm.ErrWriteProtection), errors.Is(err, vm.ErrNotStatic):
		return "StaticCallViolation"
	case errors.Is(err, vm.ErrInsufficientBalance):
		return "OutOfFund"
	case errors.Is(err, vm.ErrExecutionReverted):
		return "" // Revert is its own ExitReason, not an Error kind
	default:
		return "Other(" + err.Error() + ")"
	}
}

// isRequireRequest reports whether err (or something it wraps) is one of
// core/state/backend.go's pull-backend require-request sentinels.
func isRequireRequest(err error) bool {
	return errors.Is(err, state.ErrAccountNeeded) ||
		errors.Is(err, state.ErrAccountStorageNeeded) ||
		errors.Is(err, state.ErrCodeNeeded) ||
		errors.Is(err, state.ErrBlockhashNeeded)
}
