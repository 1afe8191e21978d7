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
	"github.com/holiman/uint256"

	"github.com/evmforge/corevm/common"
)

// Contract is a scoped view of one call frame: the address whose code is
// executing, the caller, the value carried in, the frame's own gas budget,
// and the input it was invoked with (spec.md §4.B "Frame").
type Contract struct {
	CallerAddress common.Address
	caller        *Contract
	self          common.Address

	jumpdests bitvec // lazily computed JUMPDEST bitmap for Code

	// analysisCache, when non-nil, memoizes jumpdests by CodeHash across
	// every frame sharing one EVM instance, so proxies and factory-deployed
	// clones analyze identical bytecode only once.
	analysisCache *codeAnalysisCache

	Code     []byte
	CodeHash common.Hash
	Input    []byte

	Gas   uint64
	value *uint256.Int

	// IsDelegateOrCallcode marks a frame entered via DELEGATECALL or
	// CALLCODE: its storage context is the caller's own address, but its
	// code (and jumpdest analysis) still belongs to self.
	IsDelegateOrCallcode bool
}

// NewContract returns a new execution frame. cache may be nil, in which case
// the jumpdest bitmap is computed fresh for this frame alone.
func NewContract(caller *Contract, callerAddr, self common.Address, value *uint256.Int, gas uint64, code []byte, codeHash common.Hash, cache *codeAnalysisCache) *Contract {
	c := &Contract{
		caller:        caller,
		CallerAddress: callerAddr,
		self:          self,
		Gas:           gas,
		value:         value,
		Code:          code,
		CodeHash:      codeHash,
		analysisCache: cache,
	}
	return c
}

// Address returns the address whose storage this frame acts against.
func (c *Contract) Address() common.Address { return c.self }

// Value returns the wei value carried into this frame.
func (c *Contract) Value() *uint256.Int {
	if c.value == nil {
		return new(uint256.Int)
	}
	return c.value
}

// GetOp returns the opcode at code position n, or STOP past the end of code
// (per the Yellow Paper's "implicit STOP" convention).
func (c *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(c.Code)) {
		return OpCode(c.Code[n])
	}
	return STOP
}

// UseGas deducts gas from the frame's budget. It reports false, leaving the
// budget untouched, if gas exceeds what remains.
func (c *Contract) UseGas(gas uint64) bool {
	if c.Gas < gas {
		return false
	}
	c.Gas -= gas
	return true
}

// RefundGas credits gas back to the frame, used when returning unused gas
// from a sub-call.
func (c *Contract) RefundGas(gas uint64) {
	c.Gas += gas
}

// isCode reports whether pos is the start of an instruction rather than
// PUSH immediate data, computing (and caching on the Contract) the bitmap
// on first use.
func (c *Contract) isCode(pos uint64) bool {
	if c.jumpdests == nil {
		if c.analysisCache != nil && c.CodeHash != (common.Hash{}) {
			c.jumpdests = c.analysisCache.bitmap(c.CodeHash, c.Code)
		} else {
			c.jumpdests = codeBitmap(c.Code)
		}
	}
	if pos >= uint64(len(c.jumpdests)*8) {
		return false
	}
	return c.jumpdests.codeSegment(pos)
}

// validJumpdest reports whether dest is a JUMPDEST opcode at a genuine
// instruction boundary (not inside a PUSH's immediate data), per spec.md
// §4.D JUMP/JUMPI edge cases.
func (c *Contract) validJumpdest(dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	if overflow || udest >= uint64(len(c.Code)) {
		return false
	}
	if OpCode(c.Code[udest]) != JUMPDEST {
		return false
	}
	return c.isCode(udest)
}
