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
	"github.com/evmforge/corevm/common/math"
	"github.com/evmforge/corevm/params"
)

const (
	// GasQuickStep .. GasExtStep are the flat per-opcode gas tiers the
	// jump table assigns as constantGas, named after the teacher's own
	// tier constants.
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20
)

// gasFunc computes a dynamic (stack/memory-dependent) gas charge in addition
// to an operation's constantGas. memorySize is the number of bytes memory
// must grow to before executing, already computed by the operation's
// memorySizeFunc.
type gasFunc func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error)

// memorySizeFunc computes, from the stack (before popping), the highest
// memory offset + length an operation will touch, in bytes. overflow is true
// when that size does not fit in a uint64.
type memorySizeFunc func(stack *Stack) (size uint64, overflow bool)

// memoryGasCost computes the quadratic memory expansion cost of growing
// memory to newMemSize bytes, charging only the marginal cost above the
// memory's current size (spec.md §4.C).
func memoryGasCost(mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	if newMemSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	newMemSizeWords := math.MinInt((newMemSize+31)/32, math.MaxUint64)
	newMemSize = newMemSizeWords * 32

	if newMemSize > uint64(mem.Len()) {
		square := newMemSizeWords * newMemSizeWords
		linCoef := newMemSizeWords * params.MemoryGas
		quadCoef := square / params.QuadCoeffDiv
		newTotalFee := linCoef + quadCoef

		fee := newTotalFee - mem.lastGasCost
		mem.lastGasCost = newTotalFee
		return fee, nil
	}
	return 0, nil
}

// constGasFunc adapts a flat uint64 cost to the gasFunc signature, used for
// operations whose dynamicGas is fixed (e.g. always charges the cold-access
// surcharge regardless of stack contents).
func constGasFunc(cost uint64) gasFunc {
	return func(_ *EVM, _ *Contract, _ *Stack, _ *Memory, _ uint64) (uint64, error) {
		return cost, nil
	}
}
