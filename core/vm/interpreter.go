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

package vm

import (
	"github.com/evmforge/corevm/common"
	"github.com/evmforge/corevm/crypto"
)

// EVMInterpreter executes EVM bytecode for one call frame at a time. It
// holds no frame-specific state of its own besides the borrowed return-data
// buffer — all frame state lives in the ScopeContext passed to Run — so one
// interpreter instance is reused across every frame of a transaction,
// mirroring the teacher's core/vm/interpreter.go (as read from the
// canonical, non-Arbitrum reference copy; the teacher's own tree did not
// carry this file, having dropped straight to its Arbitrum override).
type EVMInterpreter struct {
	evm *EVM
	jt  *JumpTable

	hasher    crypto.KeccakState // reused across KECCAK256 ops to avoid reallocating the hash state
	hasherBuf common.Hash

	returnData []byte

	readOnly bool
}

// NewEVMInterpreter returns an interpreter bound to evm, with the
// instruction set matching evm.Patch.Rules.
func NewEVMInterpreter(evm *EVM) *EVMInterpreter {
	return &EVMInterpreter{
		evm: evm,
		jt:  newJumpTable(evm.Patch.Rules),
	}
}

// Run executes contract's code starting at pc 0 until it halts, reverts, or
// errors, returning the data it returned (if any). staticCall marks the
// frame as read-only: SSTORE, LOG, CREATE, SELFDESTRUCT and value-carrying
// CALL all fail inside it (spec.md §4.E "Static context").
func (in *EVMInterpreter) Run(contract *Contract, input []byte, staticCall bool) (ret []byte, err error) {
	in.evm.depth++
	defer func() { in.evm.depth-- }()

	prevReadOnly := in.readOnly
	if staticCall && !in.readOnly {
		in.readOnly = true
		defer func() { in.readOnly = prevReadOnly }()
	}

	in.returnData = nil
	if len(contract.Code) == 0 {
		return nil, nil
	}

	var (
		op          OpCode
		mem         = NewMemory()
		stack       = newstack()
		scope       = &ScopeContext{Memory: mem, Stack: stack, Contract: contract}
		pc          = uint64(0)
		cost        uint64
	)
	contract.Input = input
	defer returnStack(stack)

	tracer := in.evm.Tracer

	for {
		op = contract.GetOp(pc)
		operation := in.jt[op]
		if operation == nil {
			ierr := &ErrInvalidOpCode{opcode: op}
			in.traceFault(pc, op, contract.Gas, 0, scope, ierr)
			return nil, ierr
		}
		if sLen := stack.len(); sLen < operation.minStack {
			ierr := &ErrStackUnderflow{stackLen: sLen, required: operation.minStack}
			in.traceFault(pc, op, contract.Gas, 0, scope, ierr)
			return nil, ierr
		} else if sLen > operation.maxStack {
			ierr := &ErrStackOverflow{stackLen: sLen, limit: operation.maxStack}
			in.traceFault(pc, op, contract.Gas, 0, scope, ierr)
			return nil, ierr
		}

		cost = operation.constantGas
		if !contract.UseGas(cost) {
			in.traceFault(pc, op, contract.Gas, cost, scope, ErrOutOfGas)
			return nil, ErrOutOfGas
		}

		var memorySize uint64
		if operation.memorySize != nil {
			size, overflow := operation.memorySize(stack)
			if overflow {
				return nil, ErrGasUintOverflow
			}
			if memorySize, overflow = safeMul32(toWordSize(size)); overflow {
				return nil, ErrGasUintOverflow
			}
		}
		if operation.dynamicGas != nil {
			var dynamicCost uint64
			dynamicCost, err = operation.dynamicGas(in.evm, contract, stack, mem, memorySize)
			cost += dynamicCost
			if err != nil || !contract.UseGas(dynamicCost) {
				if err == nil {
					err = ErrOutOfGas
				}
				in.traceFault(pc, op, contract.Gas, cost, scope, err)
				return nil, err
			}
		}
		if memorySize > 0 {
			mem.Resize(memorySize)
		}

		if tracer != nil && tracer.OnOpcode != nil {
			tracer.OnOpcode(pc, byte(op), contract.Gas, cost, scope, in.evm.depth)
		}

		res, err := operation.execute(&pc, in, scope)
		if err != nil {
			if err == errStopExecution {
				in.returnData = res
				return res, nil
			}
			if err == ErrExecutionReverted {
				in.returnData = res
				return res, err
			}
			in.traceFault(pc, op, contract.Gas, cost, scope, err)
			return nil, err
		}
		if operation.jumps {
			continue
		}
		pc++
	}
}

// traceFault reports an opcode-level failure to the configured Tracer.
func (in *EVMInterpreter) traceFault(pc uint64, op OpCode, gas, cost uint64, scope *ScopeContext, err error) {
	tracer := in.evm.Tracer
	if tracer == nil || tracer.OnFault == nil {
		return
	}
	tracer.OnFault(pc, byte(op), gas, cost, scope, in.evm.depth, err)
}

func safeMul32(words uint64) (uint64, bool) {
	if words > (1<<32)/32 {
		return 0, true
	}
	return words * 32, false
}
