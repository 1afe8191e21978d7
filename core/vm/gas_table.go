// Copyright 2016 The go-ethereum Authors
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
	"github.com/evmforge/corevm/common/math"
	"github.com/evmforge/corevm/params"
)

// The functions in this file compute each opcode's dynamicGas. They mirror
// the teacher's gas_table.go, with the Arbitrum multigas.MultiGas vector
// return collapsed back to a single uint64 — spec.md §4.D's gasometer is one
// scalar counter, not a cost vector.

func memoryCopierGas(stackpos int) gasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		words, overflow := stack.Back(stackpos).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		wordGas, overflow := math.SafeMul(toWordSize(words), params.CopyGas)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		return math.SafeAdd(gas, wordGas)
	}
}

func toWordSize(n uint64) uint64 {
	if n > (1<<64-1)-31 {
		return (1<<64 - 1) / 32
	}
	return (n + 31) / 32
}

var (
	gasCallDataCopy   = memoryCopierGas(2)
	gasCodeCopy       = memoryCopierGas(2)
	gasReturnDataCopy = memoryCopierGas(2)
)

func gasMCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	words, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	wordGas, overflow := math.SafeMul(toWordSize(words), params.CopyGas)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return math.SafeAdd(gas, wordGas)
}

// gasSStore dispatches on the active patch's SStoreVariant (spec.md §4.I:
// "a value, not a code branch"), recombining the teacher's fork-specific
// gasSStore / gasSStoreEIP2200 functions under one entry point.
func gasSStore(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	switch evm.Patch.SStoreVariant {
	case params.SStoreFrontier:
		return gasSStoreFrontier(evm, contract, stack)
	case params.SStoreEIP1283:
		return netSstoreGas(evm, contract, stack)
	default: // SStoreEIP2200, SStoreEIP2929
		return gasSStoreEIP2200(evm, contract, stack)
	}
}

func gasSStoreFrontier(evm *EVM, contract *Contract, stack *Stack) (uint64, error) {
	y, x := stack.Back(1), stack.Back(0)
	slot := common.Hash(x.Bytes32())
	current := evm.StateDB.GetState(contract.Address(), slot)
	newVal := common.Hash(y.Bytes32())

	switch {
	case current == (common.Hash{}) && newVal != (common.Hash{}):
		return params.SstoreSetGas, nil
	case current != (common.Hash{}) && newVal == (common.Hash{}):
		evm.StateDB.AddRefund(params.SstoreRefundGas)
		return params.SstoreClearGas, nil
	default:
		return params.SstoreResetGas, nil
	}
}

// gasSStoreEIP2200 is EIP-1283's net metering plus the EIP-2200 reentrancy
// sentry (SSTORE fails immediately if remaining gas is at or below the
// sentry threshold), and the EIP-2929 cold/warm surcharge when the active
// patch is Berlin or later.
func gasSStoreEIP2200(evm *EVM, contract *Contract, stack *Stack) (uint64, error) {
	if contract.Gas <= params.SstoreSentryGasEIP2200 {
		return 0, ErrOutOfGas
	}
	cost, err := netSstoreGas(evm, contract, stack)
	if err != nil {
		return 0, err
	}
	if evm.Patch.SStoreVariant == params.SStoreEIP2929 {
		addr := contract.Address()
		slot := common.Hash(stack.Back(0).Bytes32())
		if _, slotWarm := evm.StateDB.SlotInAccessList(addr, slot); !slotWarm {
			evm.StateDB.AddSlotToAccessList(addr, slot)
			cost += params.ColdSloadCostEIP2929
		} else {
			cost -= params.WarmStorageReadCostEIP2929
		}
	}
	return cost, nil
}

func netSstoreGas(evm *EVM, contract *Contract, stack *Stack) (uint64, error) {
	y, x := stack.Back(1), stack.Back(0)
	slot := common.Hash(x.Bytes32())
	addr := contract.Address()

	current := evm.StateDB.GetState(addr, slot)
	newVal := common.Hash(y.Bytes32())
	if current == newVal {
		return params.NetSstoreNoopGas, nil
	}
	original := evm.StateDB.GetCommittedState(addr, slot)
	clearRefund := evm.Patch.SstoreClearsScheduleRefund

	if original == current {
		if original == (common.Hash{}) {
			return params.NetSstoreInitGas, nil
		}
		if newVal == (common.Hash{}) {
			evm.StateDB.AddRefund(clearRefund)
		}
		return params.NetSstoreCleanGas, nil
	}
	if original != (common.Hash{}) {
		if current == (common.Hash{}) {
			evm.StateDB.SubRefund(clearRefund)
		}
		if newVal == (common.Hash{}) {
			evm.StateDB.AddRefund(clearRefund)
		}
	}
	if original == newVal {
		if original == (common.Hash{}) {
			evm.StateDB.AddRefund(params.NetSstoreInitGas - params.NetSstoreDirtyGas)
		} else {
			evm.StateDB.AddRefund(params.NetSstoreCleanGas - params.NetSstoreDirtyGas)
		}
	}
	return params.NetSstoreDirtyGas, nil
}

// gasSLoad charges the flat pre-Berlin SLOAD cost, or the EIP-2929
// cold/warm surcharge from Berlin on.
func gasSLoad(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	if evm.Patch.SStoreVariant != params.SStoreEIP2929 {
		return params.SloadGasEIP2200, nil
	}
	addr := contract.Address()
	slot := common.Hash(stack.Back(0).Bytes32())
	if _, slotWarm := evm.StateDB.SlotInAccessList(addr, slot); slotWarm {
		return params.WarmStorageReadCostEIP2929, nil
	}
	evm.StateDB.AddSlotToAccessList(addr, slot)
	return params.ColdSloadCostEIP2929, nil
}

func makeGasLog(n uint64) gasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		requestedSize, overflow := stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		gas, overflow = math.SafeAdd(gas, params.LogGas)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		topicGas, overflow := math.SafeMul(n, params.LogTopicGas)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		gas, overflow = math.SafeAdd(gas, topicGas)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		dataGas, overflow := math.SafeMul(requestedSize, params.LogDataGas)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		return math.SafeAdd(gas, dataGas)
	}
}

func gasKeccak256(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	words, overflow := stack.Back(1).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	wordGas, overflow := math.SafeMul(toWordSize(words), params.Keccak256WordGas)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return math.SafeAdd(gas, wordGas)
}

func gasCreate(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return memoryGasCost(mem, memorySize)
}

// gasCreateEip3860 adds the EIP-3860 per-word init-code charge and enforces
// the init-code size cap on top of plain CREATE's memory expansion cost.
func gasCreateEip3860(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := gasCreate(evm, contract, stack, mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow || size > evm.Patch.MaxInitCodeSize {
		return 0, ErrMaxInitCodeSizeExceeded
	}
	moreGas := params.InitCodeWordGas * toWordSize(size)
	return math.SafeAdd(gas, moreGas)
}

func gasCreate2Eip3860(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if size > evm.Patch.MaxInitCodeSize {
		return 0, ErrMaxInitCodeSizeExceeded
	}
	words := toWordSize(size)
	hashGas, overflow := math.SafeMul(words, params.Keccak256WordGas)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	initGas, overflow := math.SafeMul(words, params.InitCodeWordGas)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	gas, overflow = math.SafeAdd(gas, hashGas)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return math.SafeAdd(gas, initGas)
}

func gasExp(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	expByteLen := uint64((stack.Back(1).BitLen() + 7) / 8)
	gas, overflow := math.SafeMul(expByteLen, evm.Patch.ExpByteCost)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return math.SafeAdd(gas, params.ExpGas)
}

// gasCallFamily computes the shared CALL/CALLCODE/DELEGATECALL/STATICCALL
// gas: memory expansion, the EIP-2929 cold/warm address surcharge (or the
// flat pre-Berlin access cost), the value-transfer surcharge, and the
// new-account surcharge (spec.md §4.D).
func gasCallFamily(op OpCode) gasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		var (
			addrIdx  int
			valueIdx = -1
		)
		switch op {
		case CALL, CALLCODE:
			addrIdx, valueIdx = 1, 2
		case DELEGATECALL, STATICCALL:
			addrIdx = 1
		}
		addr := common.AddressFromWord(stack.Back(addrIdx))

		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}

		var accessCost uint64
		switch {
		case evm.Patch.SStoreVariant == params.SStoreEIP2929:
			if !evm.StateDB.AddressInAccessList(addr) {
				evm.StateDB.AddAddressToAccessList(addr)
				accessCost = params.ColdAccountAccessCostEIP2929
			} else {
				accessCost = params.WarmStorageReadCostEIP2929
			}
		case evm.Patch.EIP150:
			accessCost = params.CallGasEIP150
		default:
			accessCost = params.CallGasFrontier
		}
		gas, overflow := math.SafeAdd(gas, accessCost)
		if overflow {
			return 0, ErrGasUintOverflow
		}

		transfersValue := valueIdx >= 0 && !stack.Back(valueIdx).IsZero()
		if transfersValue {
			gas, overflow = math.SafeAdd(gas, params.CallValueTransferGas)
			if overflow {
				return 0, ErrGasUintOverflow
			}
		}
		if op == CALL {
			var newAccount bool
			if evm.Patch.EIP158NewAccountCheck {
				newAccount = evm.StateDB.Empty(addr)
			} else {
				newAccount = !evm.StateDB.Exist(addr)
			}
			if newAccount && transfersValue {
				gas, overflow = math.SafeAdd(gas, params.CallNewAccountGas)
				if overflow {
					return 0, ErrGasUintOverflow
				}
			}
		}
		return gas, nil
	}
}

var (
	gasCall         = gasCallFamily(CALL)
	gasCallCode     = gasCallFamily(CALLCODE)
	gasDelegateCall = gasCallFamily(DELEGATECALL)
	gasStaticCall   = gasCallFamily(STATICCALL)
)

// callGas computes the amount of gas forwarded to a sub-call, applying the
// EIP-150 "all but one 64th" rule when active (spec.md §4.D "The 63/64
// rule"): the child may request up to gas-gas/64 of what remains in the
// parent frame after the base access cost has already been deducted.
func callGas(eip150 bool, availableGas, base, requested uint64) (uint64, error) {
	if eip150 {
		availableGas -= base
		capped := availableGas - availableGas/64
		if requested > capped {
			return capped, nil
		}
	}
	return requested, nil
}

func gasSelfdestruct(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var gas uint64
	if evm.Patch.EIP158NewAccountCheck {
		gas = params.SelfdestructGasEIP150
	}
	beneficiary := common.AddressFromWord(stack.Back(0))
	if evm.Patch.EIP158NewAccountCheck {
		if evm.StateDB.Empty(beneficiary) && evm.StateDB.GetBalance(contract.Address()).Sign() != 0 {
			gas += params.CreateBySelfdestructGas
		}
	} else if !evm.StateDB.Exist(beneficiary) {
		gas += params.CreateBySelfdestructGas
	}
	if evm.Patch.SStoreVariant == params.SStoreEIP2929 && !evm.StateDB.AddressInAccessList(beneficiary) {
		evm.StateDB.AddAddressToAccessList(beneficiary)
		gas += params.ColdAccountAccessCostEIP2929
	}
	return gas, nil
}

// gasEip2929AccountCheck prices BALANCE/EXTCODESIZE/EXTCODEHASH's address
// argument under EIP-2929; it is a no-op cost before Berlin, since those
// opcodes' base constantGas already covers the flat pre-Berlin price.
func gasEip2929AccountCheck(evm *EVM, stack *Stack, idx int) (uint64, error) {
	if evm.Patch.SStoreVariant != params.SStoreEIP2929 {
		return 0, nil
	}
	addr := common.AddressFromWord(stack.Back(idx))
	if !evm.StateDB.AddressInAccessList(addr) {
		evm.StateDB.AddAddressToAccessList(addr)
		return params.ColdAccountAccessCostEIP2929, nil
	}
	return params.WarmStorageReadCostEIP2929, nil
}

func gasBalance(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return gasEip2929AccountCheck(evm, stack, 0)
}

func gasExtCodeSize(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return gasEip2929AccountCheck(evm, stack, 0)
}

func gasExtCodeHash(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return gasEip2929AccountCheck(evm, stack, 0)
}

func gasExtCodeCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryCopierGas(3)(evm, contract, stack, mem, memorySize)
	if err != nil {
		return 0, err
	}
	if evm.Patch.SStoreVariant != params.SStoreEIP2929 {
		return gas, nil
	}
	addr := common.AddressFromWord(stack.Back(0))
	if !evm.StateDB.AddressInAccessList(addr) {
		evm.StateDB.AddAddressToAccessList(addr)
		return math.SafeAdd(gas, params.ColdAccountAccessCostEIP2929-params.WarmStorageReadCostEIP2929)
	}
	return gas, nil
}
