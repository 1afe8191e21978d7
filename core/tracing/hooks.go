// Copyright 2024 The go-ethereum Authors
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

// Package tracing defines the optional, purely diagnostic event-listener hook
// of spec.md §6: a Hooks value may observe every opcode step, call-frame
// enter/exit and storage access the interpreter performs, but it cannot
// mutate state. Trimmed from the teacher's tracing.Hooks (which also carries
// block-, chain- and balance/nonce-reason hooks for full-node live tracing,
// none of which exist here since this core has no block processing, per the
// Non-goals of spec.md §1) down to the frame-and-opcode-level events this
// package actually emits.
package tracing

import (
	"github.com/holiman/uint256"

	"github.com/evmforge/corevm/common"
)

// OpContext exposes the running frame to an OnOpcode/OnFault callback:
// memory, stack, and the contract-level facts an observer typically wants to
// render (caller/address/value/input/code) without copying them out.
type OpContext interface {
	MemoryData() []byte
	StackData() []uint256.Int
	Caller() common.Address
	Address() common.Address
	CallValue() *uint256.Int
	CallInput() []byte
	ContractCode() []byte
}

type (
	// EnterHook is invoked when a new call frame (CALL/CALLCODE/DELEGATECALL/
	// STATICCALL/CREATE/CREATE2) begins executing.
	EnterHook func(depth int, typ OpCode, from, to common.Address, input []byte, gas uint64, value *uint256.Int)

	// ExitHook is invoked when a call frame finishes, successfully or not.
	// reverted is true for both an explicit REVERT and any execution error
	// that unwinds the frame (spec.md §7 "Propagation policy").
	ExitHook func(depth int, output []byte, gasUsed uint64, err error, reverted bool)

	// OpcodeHook is invoked just before executing op, mirroring spec.md §6's
	// Step{pc, op, stack, memory_snapshot}.
	OpcodeHook func(pc uint64, op byte, gas, cost uint64, scope OpContext, depth int)

	// FaultHook is invoked when op fails: in place of OpcodeHook when a
	// pre-execution check (invalid opcode, stack bounds, gas) fails, and after
	// OpcodeHook when op's own execution returns an error (the
	// original_source Rust crate's separate fault event,
	// per SPEC_FULL.md's supplemented-features entry 4, rather than folding
	// the error into OpcodeHook's last argument as upstream go-ethereum
	// historically did).
	FaultHook func(pc uint64, op byte, gas, cost uint64, scope OpContext, depth int, err error)

	// SLoadHook and SStoreHook mirror spec.md §6's SLoad{addr,key,val} and
	// SStore{addr,key,val} events.
	SLoadHook  func(addr common.Address, key, val common.Hash)
	SStoreHook func(addr common.Address, key, val common.Hash)
)

// OpCode names the call kind an EnterHook observed (CALL, CALLCODE,
// DELEGATECALL, STATICCALL, CREATE, CREATE2); left as a distinct type from
// vm.OpCode so this package never imports core/vm.
type OpCode byte

// Hooks bundles every callback a tracer may implement; a nil field is simply
// never invoked.
type Hooks struct {
	OnEnter  EnterHook
	OnExit   ExitHook
	OnOpcode OpcodeHook
	OnFault  FaultHook
	OnSLoad  SLoadHook
	OnSStore SStoreHook
}
