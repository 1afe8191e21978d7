// Copyright 2015 The go-ethereum Authors
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

package vm

import (
	"errors"
	"fmt"
)

// ExitReason classifies how an execution frame ended, per spec.md §6's
// taxonomy (Succeed / Revert / Error / Fatal): Succeed and Revert still
// write return data and unwind gas normally; Error consumes all remaining
// gas in the frame; Fatal aborts the entire outer transaction regardless of
// call-stack depth. This is grounded on sputnikvm's ExitReason enum
// (original_source/src/lib.rs) recast as a Go type rather than copied
// go-ethereum's flatter "err or not" model, because spec.md §6 requires the
// four-way distinction explicitly.
type ExitReason int

const (
	ExitSucceed ExitReason = iota
	ExitRevert
	ExitError
	ExitFatal
)

func (r ExitReason) String() string {
	switch r {
	case ExitSucceed:
		return "succeed"
	case ExitRevert:
		return "revert"
	case ExitError:
		return "error"
	case ExitFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

var (
	ErrOutOfGas                 = errors.New("out of gas")
	ErrCodeStoreOutOfGas        = errors.New("contract creation code storage out of gas")
	ErrDepth                    = errors.New("max call depth exceeded")
	ErrInsufficientBalance      = errors.New("insufficient balance for transfer")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrExecutionReverted        = errors.New("execution reverted")
	ErrMaxCodeSizeExceeded      = errors.New("max code size exceeded")
	ErrMaxInitCodeSizeExceeded  = errors.New("max initcode size exceeded")
	ErrInvalidJump              = errors.New("invalid jump destination")
	ErrWriteProtection          = errors.New("write protection")
	ErrReturnDataOutOfBounds    = errors.New("return data out of bounds")
	ErrGasUintOverflow          = errors.New("gas uint64 overflow")
	ErrInvalidCode              = errors.New("invalid code: must not begin with 0xef")
	ErrNonceUintOverflow        = errors.New("nonce uint64 overflow")
	ErrNotStatic                = errors.New("cannot make a non-static call from a static context")

	// ErrFatal wraps an unrecoverable backend or invariant failure — one
	// that unwinds past the entire call stack and aborts the transaction,
	// per spec.md §6's "Fatal" exit reason.
	ErrFatal = errors.New("fatal execution error")

	// errStopExecution is the interpreter's internal "halt normally" signal
	// emitted by STOP/RETURN/SELFDESTRUCT; Run translates it back to a nil
	// error before returning to the caller.
	errStopExecution = errors.New("stop execution")
)

// ErrStackUnderflow means the stack had fewer items than an operation
// requires.
type ErrStackUnderflow struct {
	stackLen int
	required int
}

func (e *ErrStackUnderflow) Error() string {
	return fmt.Sprintf("stack underflow (%d <=> %d)", e.stackLen, e.required)
}

// ErrStackOverflow means an operation would push the stack past its 1024
// item limit.
type ErrStackOverflow struct {
	stackLen int
	limit    int
}

func (e *ErrStackOverflow) Error() string {
	return fmt.Sprintf("stack limit reached %d (%d)", e.stackLen, e.limit)
}

// ErrInvalidOpCode means the interpreter fetched a byte with no defined
// operation for the active patch.
type ErrInvalidOpCode struct {
	opcode OpCode
}

func (e *ErrInvalidOpCode) Error() string { return fmt.Sprintf("invalid opcode: %s", e.opcode) }

// Classify maps an interpreter/executor error to the exit-reason taxonomy of
// spec.md §6, for callers outside this package (core/executor) that need to
// report a top-level ExitReason without re-deriving the Revert/Fatal
// distinction themselves.
func Classify(err error) ExitReason { return classify(err) }

// classify maps an interpreter error to the exit-reason taxonomy.
func classify(err error) ExitReason {
	switch {
	case err == nil:
		return ExitSucceed
	case errors.Is(err, ErrExecutionReverted):
		return ExitRevert
	case errors.Is(err, ErrFatal):
		return ExitFatal
	default:
		return ExitError
	}
}
