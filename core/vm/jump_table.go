// Copyright 2017 The go-ethereum Authors
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
	"github.com/evmforge/corevm/params"
)

type executionFunc func(pc *uint64, interpreter *EVMInterpreter, scope *ScopeContext) ([]byte, error)

// operation is one opcode's full pricing and execution contract: the
// function that performs it, its flat gas tier, its dynamic (stack- and
// memory-dependent) surcharge, and the stack-depth bounds the interpreter
// validates before dispatch (spec.md §4.C opcode table).
type operation struct {
	execute     executionFunc
	constantGas uint64
	dynamicGas  gasFunc

	minStack int
	maxStack int

	memorySize memorySizeFunc

	// jumps marks JUMP/JUMPI, whose execute function sets *pc itself; the
	// interpreter's main loop must not advance pc again after they run.
	jumps bool
}

// JumpTable is a dense, 256-entry dispatch table: one *operation per opcode
// byte, nil where the active patch defines no instruction.
type JumpTable [256]*operation

func (jt *JumpTable) validate() {
	for i, op := range jt {
		if op == nil {
			continue
		}
		if op.execute == nil {
			panic("jump table: missing execute for opcode " + OpCode(i).String())
		}
	}
}

func stackRange(pops, pushes int) (int, int) {
	min := pops
	max := params.StackLimit - pushes + pops
	return min, max
}

func copy1(jt *JumpTable) *JumpTable {
	out := *jt
	return &out
}

// newFrontierInstructionSet builds the base, Frontier-era opcode set. Later
// forks are derived by copying the previous set and overlaying the opcodes
// each fork adds, prices differently, or removes — following the teacher's
// own newHomesteadInstructionSet / newByzantiumInstructionSet chain in
// core/vm/jump_table.go (as read from the canonical interpreter.go
// reference; the teacher's copy of this file is Arbitrum-overlaid and was
// not reused directly).
func newFrontierInstructionSet() *JumpTable {
	jt := &JumpTable{}
	set := func(op OpCode, o *operation) { jt[op] = o }

	set(STOP, &operation{execute: opStop, constantGas: 0, minStack: 0, maxStack: params.StackLimit})
	set(ADD, &operation{execute: opAdd, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(MUL, &operation{execute: opMul, constantGas: GasFastStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(SUB, &operation{execute: opSub, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(DIV, &operation{execute: opDiv, constantGas: GasFastStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(SDIV, &operation{execute: opSdiv, constantGas: GasFastStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(MOD, &operation{execute: opMod, constantGas: GasFastStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(SMOD, &operation{execute: opSmod, constantGas: GasFastStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(ADDMOD, &operation{execute: opAddmod, constantGas: GasMidStep, minStack: 3, maxStack: params.StackLimit - 2})
	set(MULMOD, &operation{execute: opMulmod, constantGas: GasMidStep, minStack: 3, maxStack: params.StackLimit - 2})
	set(EXP, &operation{execute: opExp, dynamicGas: gasExp, minStack: 2, maxStack: params.StackLimit - 1})
	set(SIGNEXTEND, &operation{execute: opSignExtend, constantGas: GasFastStep, minStack: 2, maxStack: params.StackLimit - 1})

	set(LT, &operation{execute: opLt, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(GT, &operation{execute: opGt, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(SLT, &operation{execute: opSlt, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(SGT, &operation{execute: opSgt, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(EQ, &operation{execute: opEq, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(ISZERO, &operation{execute: opIszero, constantGas: GasFastestStep, minStack: 1, maxStack: params.StackLimit})
	set(AND, &operation{execute: opAnd, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(OR, &operation{execute: opOr, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(XOR, &operation{execute: opXor, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})
	set(NOT, &operation{execute: opNot, constantGas: GasFastestStep, minStack: 1, maxStack: params.StackLimit})
	set(BYTE, &operation{execute: opByte, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1})

	set(KECCAK256, &operation{execute: opKeccak256, dynamicGas: gasKeccak256, minStack: 2, maxStack: params.StackLimit - 1, memorySize: memoryKeccak256})

	set(ADDRESS, &operation{execute: opAddress, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(BALANCE, &operation{execute: opBalance, constantGas: params.SloadGasFrontier, dynamicGas: gasBalance, minStack: 1, maxStack: params.StackLimit})
	set(ORIGIN, &operation{execute: opOrigin, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(CALLER, &operation{execute: opCaller, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(CALLVALUE, &operation{execute: opCallValue, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(CALLDATALOAD, &operation{execute: opCallDataLoad, constantGas: GasFastestStep, minStack: 1, maxStack: params.StackLimit})
	set(CALLDATASIZE, &operation{execute: opCallDataSize, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(CALLDATACOPY, &operation{execute: opCallDataCopy, constantGas: GasFastestStep, dynamicGas: gasCallDataCopy, minStack: 3, maxStack: params.StackLimit - 3, memorySize: memoryCallDataCopy})
	set(CODESIZE, &operation{execute: opCodeSize, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(CODECOPY, &operation{execute: opCodeCopy, constantGas: GasFastestStep, dynamicGas: gasCodeCopy, minStack: 3, maxStack: params.StackLimit - 3, memorySize: memoryCodeCopy})
	set(GASPRICE, &operation{execute: opGasprice, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(EXTCODESIZE, &operation{execute: opExtCodeSize, constantGas: params.SloadGasFrontier, dynamicGas: gasExtCodeSize, minStack: 1, maxStack: params.StackLimit})
	set(EXTCODECOPY, &operation{execute: opExtCodeCopy, constantGas: params.SloadGasFrontier, dynamicGas: gasExtCodeCopy, minStack: 4, maxStack: params.StackLimit - 4, memorySize: memoryExtCodeCopy})

	set(BLOCKHASH, &operation{execute: opBlockhash, constantGas: GasExtStep, minStack: 1, maxStack: params.StackLimit})
	set(COINBASE, &operation{execute: opCoinbase, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(TIMESTAMP, &operation{execute: opTimestamp, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(NUMBER, &operation{execute: opNumber, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(DIFFICULTY, &operation{execute: opDifficulty, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(GASLIMIT, &operation{execute: opGasLimit, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})

	set(POP, &operation{execute: opPop, constantGas: GasQuickStep, minStack: 1, maxStack: params.StackLimit})
	set(MLOAD, &operation{execute: opMload, constantGas: GasFastestStep, dynamicGas: gasMemoryOnly, minStack: 1, maxStack: params.StackLimit, memorySize: memoryMLoad})
	set(MSTORE, &operation{execute: opMstore, constantGas: GasFastestStep, dynamicGas: gasMemoryOnly, minStack: 2, maxStack: params.StackLimit - 1, memorySize: memoryMStore})
	set(MSTORE8, &operation{execute: opMstore8, constantGas: GasFastestStep, dynamicGas: gasMemoryOnly, minStack: 2, maxStack: params.StackLimit - 1, memorySize: memoryMStore8})
	set(SLOAD, &operation{execute: opSload, constantGas: params.SloadGasFrontier, minStack: 1, maxStack: params.StackLimit})
	set(SSTORE, &operation{execute: opSstore, dynamicGas: gasSStore, minStack: 2, maxStack: params.StackLimit})
	set(JUMP, &operation{execute: opJump, constantGas: GasMidStep, minStack: 1, maxStack: params.StackLimit, jumps: true})
	set(JUMPI, &operation{execute: opJumpi, constantGas: GasSlowStep, minStack: 2, maxStack: params.StackLimit, jumps: true})
	set(PC, &operation{execute: opPc, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(MSIZE, &operation{execute: opMsize, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(GAS, &operation{execute: opGas, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1})
	set(JUMPDEST, &operation{execute: opJumpdest, constantGas: 1, minStack: 0, maxStack: params.StackLimit})

	for i := byte(0); i < 32; i++ {
		op := PUSH1 + OpCode(i)
		set(op, &operation{execute: opPush(i + 1), constantGas: GasFastestStep, minStack: 0, maxStack: params.StackLimit - 1})
	}
	for i := 0; i < 16; i++ {
		dop, sop := DUP1+OpCode(i), SWAP1+OpCode(i)
		n := i + 1
		set(dop, &operation{execute: opDup(n), constantGas: GasFastestStep, minStack: n, maxStack: params.StackLimit - 1})
		set(sop, &operation{execute: opSwap(n), constantGas: GasFastestStep, minStack: n + 1, maxStack: params.StackLimit})
	}
	for i := 0; i < 5; i++ {
		set(LOG0+OpCode(i), &operation{execute: opLog(i), dynamicGas: makeGasLog(uint64(i)), minStack: 2 + i, maxStack: params.StackLimit - 2 - i, memorySize: memoryLog})
	}

	set(CREATE, &operation{execute: opCreate, constantGas: params.CreateGas, dynamicGas: gasCreate, minStack: 3, maxStack: params.StackLimit - 2, memorySize: memoryCreate})
	set(CALL, &operation{execute: opCall, dynamicGas: gasCall, minStack: 7, maxStack: params.StackLimit - 6, memorySize: memoryCall})
	set(CALLCODE, &operation{execute: opCallCode, dynamicGas: gasCallCode, minStack: 7, maxStack: params.StackLimit - 6, memorySize: memoryCall})
	set(RETURN, &operation{execute: opReturn, dynamicGas: gasMemoryOnly, minStack: 2, maxStack: params.StackLimit, memorySize: memoryReturn})
	set(INVALID, &operation{execute: opUndefined, minStack: 0, maxStack: params.StackLimit})
	set(SELFDESTRUCT, &operation{execute: opSelfdestruct, dynamicGas: gasSelfdestruct, minStack: 1, maxStack: params.StackLimit})

	jt.validate()
	return jt
}

func newHomesteadInstructionSet() *JumpTable {
	jt := copy1(newFrontierInstructionSet())
	jt[DELEGATECALL] = &operation{execute: opDelegateCall, dynamicGas: gasDelegateCall, minStack: 6, maxStack: params.StackLimit - 5, memorySize: memoryDelegateCall}
	jt.validate()
	return jt
}

func newTangerineWhistleInstructionSet() *JumpTable {
	jt := copy1(newHomesteadInstructionSet())
	jt[BALANCE].constantGas = params.SloadGasEIP150
	jt[EXTCODESIZE].constantGas = params.SloadGasEIP150
	jt[EXTCODECOPY].constantGas = params.SloadGasEIP150
	jt[SLOAD].constantGas = params.SloadGasEIP150
	jt[CALL].constantGas = params.CallGasEIP150
	jt[CALLCODE].constantGas = params.CallGasEIP150
	jt[DELEGATECALL].constantGas = params.CallGasEIP150
	jt[SELFDESTRUCT].constantGas = params.SelfdestructGasEIP150
	jt.validate()
	return jt
}

func newSpuriousDragonInstructionSet() *JumpTable {
	jt := copy1(newTangerineWhistleInstructionSet())
	jt.validate()
	return jt
}

func newByzantiumInstructionSet() *JumpTable {
	jt := copy1(newSpuriousDragonInstructionSet())
	jt[STATICCALL] = &operation{execute: opStaticCall, dynamicGas: gasStaticCall, minStack: 6, maxStack: params.StackLimit - 5, memorySize: memoryStaticCall}
	jt[RETURNDATASIZE] = &operation{execute: opReturnDataSize, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1}
	jt[RETURNDATACOPY] = &operation{execute: opReturnDataCopy, constantGas: GasFastestStep, dynamicGas: gasReturnDataCopy, minStack: 3, maxStack: params.StackLimit - 3, memorySize: memoryReturnDataCopy}
	jt[REVERT] = &operation{execute: opRevert, dynamicGas: gasMemoryOnly, minStack: 2, maxStack: params.StackLimit, memorySize: memoryReturn}
	jt.validate()
	return jt
}

func newConstantinopleInstructionSet() *JumpTable {
	jt := copy1(newByzantiumInstructionSet())
	jt[SHL] = &operation{execute: opSHL, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1}
	jt[SHR] = &operation{execute: opSHR, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1}
	jt[SAR] = &operation{execute: opSAR, constantGas: GasFastestStep, minStack: 2, maxStack: params.StackLimit - 1}
	jt[EXTCODEHASH] = &operation{execute: opExtCodeHash, constantGas: params.SloadGasEIP150, dynamicGas: gasExtCodeHash, minStack: 1, maxStack: params.StackLimit}
	jt[CREATE2] = &operation{execute: opCreate2, constantGas: params.Create2Gas, dynamicGas: gasCreate2Eip3860, minStack: 4, maxStack: params.StackLimit - 3, memorySize: memoryCreate2}
	jt.validate()
	return jt
}

func newPetersburgInstructionSet() *JumpTable {
	jt := copy1(newConstantinopleInstructionSet())
	jt.validate()
	return jt
}

func newIstanbulInstructionSet() *JumpTable {
	jt := copy1(newPetersburgInstructionSet())
	jt[CHAINID] = &operation{execute: opChainID, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1}
	jt[SELFBALANCE] = &operation{execute: opSelfBalance, constantGas: GasFastStep, minStack: 0, maxStack: params.StackLimit - 1}
	jt[SLOAD].constantGas = params.SloadGasEIP2200
	jt.validate()
	return jt
}

func newBerlinInstructionSet() *JumpTable {
	jt := copy1(newIstanbulInstructionSet())
	jt[BALANCE] = &operation{execute: opBalance, dynamicGas: gasBalance, minStack: 1, maxStack: params.StackLimit}
	jt[EXTCODESIZE] = &operation{execute: opExtCodeSize, dynamicGas: gasExtCodeSize, minStack: 1, maxStack: params.StackLimit}
	jt[EXTCODEHASH] = &operation{execute: opExtCodeHash, dynamicGas: gasExtCodeHash, minStack: 1, maxStack: params.StackLimit}
	jt[EXTCODECOPY] = &operation{execute: opExtCodeCopy, dynamicGas: gasExtCodeCopy, minStack: 4, maxStack: params.StackLimit - 4, memorySize: memoryExtCodeCopy}
	jt[SLOAD] = &operation{execute: opSload, dynamicGas: gasSLoad, minStack: 1, maxStack: params.StackLimit}
	jt[CALL] = &operation{execute: opCall, dynamicGas: gasCall, minStack: 7, maxStack: params.StackLimit - 6, memorySize: memoryCall}
	jt[CALLCODE] = &operation{execute: opCallCode, dynamicGas: gasCallCode, minStack: 7, maxStack: params.StackLimit - 6, memorySize: memoryCall}
	jt[DELEGATECALL] = &operation{execute: opDelegateCall, dynamicGas: gasDelegateCall, minStack: 6, maxStack: params.StackLimit - 5, memorySize: memoryDelegateCall}
	jt[STATICCALL] = &operation{execute: opStaticCall, dynamicGas: gasStaticCall, minStack: 6, maxStack: params.StackLimit - 5, memorySize: memoryStaticCall}
	jt[SELFDESTRUCT] = &operation{execute: opSelfdestruct, constantGas: params.SelfdestructGasEIP150, dynamicGas: gasSelfdestruct, minStack: 1, maxStack: params.StackLimit}
	jt.validate()
	return jt
}

func newLondonInstructionSet() *JumpTable {
	jt := copy1(newBerlinInstructionSet())
	jt[BASEFEE] = &operation{execute: opBaseFee, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1}
	jt.validate()
	return jt
}

func newMergeInstructionSet() *JumpTable {
	jt := copy1(newLondonInstructionSet())
	jt[DIFFICULTY] = &operation{execute: opRandom, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1}
	jt.validate()
	return jt
}

func newShanghaiInstructionSet() *JumpTable {
	jt := copy1(newMergeInstructionSet())
	jt[PUSH0] = &operation{execute: opPush0, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1}
	jt.validate()
	return jt
}

func newCancunInstructionSet() *JumpTable {
	jt := copy1(newShanghaiInstructionSet())
	jt[TLOAD] = &operation{execute: opTload, constantGas: params.WarmStorageReadCostEIP2929, minStack: 1, maxStack: params.StackLimit}
	jt[TSTORE] = &operation{execute: opTstore, constantGas: params.WarmStorageReadCostEIP2929, minStack: 2, maxStack: params.StackLimit}
	jt[MCOPY] = &operation{execute: opMcopy, constantGas: GasFastestStep, dynamicGas: gasMCopy, minStack: 3, maxStack: params.StackLimit - 2, memorySize: memoryMcopy}
	jt[BLOBHASH] = &operation{execute: opBlobHash, constantGas: GasFastestStep, minStack: 1, maxStack: params.StackLimit}
	jt[BLOBBASEFEE] = &operation{execute: opBlobBaseFee, constantGas: GasQuickStep, minStack: 0, maxStack: params.StackLimit - 1}
	jt.validate()
	return jt
}

// newJumpTable selects the instruction set matching r, mirroring the
// teacher's per-Rules jump table selection in NewEVMInterpreter.
func newJumpTable(r params.Rules) *JumpTable {
	switch {
	case r.IsCancun:
		return newCancunInstructionSet()
	case r.IsShanghai:
		return newShanghaiInstructionSet()
	case r.IsMerge:
		return newMergeInstructionSet()
	case r.IsLondon:
		return newLondonInstructionSet()
	case r.IsBerlin:
		return newBerlinInstructionSet()
	case r.IsIstanbul:
		return newIstanbulInstructionSet()
	case r.IsPetersburg:
		return newPetersburgInstructionSet()
	case r.IsConstantinople:
		return newConstantinopleInstructionSet()
	case r.IsByzantium:
		return newByzantiumInstructionSet()
	case r.IsEIP158:
		return newSpuriousDragonInstructionSet()
	case r.IsEIP150:
		return newTangerineWhistleInstructionSet()
	case r.IsHomestead:
		return newHomesteadInstructionSet()
	default:
		return newFrontierInstructionSet()
	}
}
