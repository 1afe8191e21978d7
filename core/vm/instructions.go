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
	"github.com/evmforge/corevm/crypto"
)

// ScopeContext groups one call frame's execution state: its operand stack,
// its memory, and the Contract it is executing against. The interpreter
// threads this through every opXxx function instead of exposing its own
// internals (spec.md §4.B "Frame").
type ScopeContext struct {
	Memory   *Memory
	Stack    *Stack
	Contract *Contract
}

// MemoryData, StackData, Caller, Address, CallValue, CallInput and
// ContractCode implement tracing.OpContext, letting a Tracer inspect the
// running frame without the vm package importing core/tracing for anything
// beyond the Hooks struct itself.
func (s *ScopeContext) MemoryData() []byte         { return s.Memory.Data() }
func (s *ScopeContext) StackData() []uint256.Int    { return s.Stack.Data() }
func (s *ScopeContext) Caller() common.Address      { return s.Contract.CallerAddress }
func (s *ScopeContext) Address() common.Address     { return s.Contract.Address() }
func (s *ScopeContext) CallValue() *uint256.Int      { return s.Contract.Value() }
func (s *ScopeContext) CallInput() []byte           { return s.Contract.Input }
func (s *ScopeContext) ContractCode() []byte        { return s.Contract.Code }

func opAdd(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.SMod(&x, y)
	return nil, nil
}

func opExp(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	base, exponent := scope.Stack.pop(), scope.Stack.peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	back, num := scope.Stack.pop(), scope.Stack.peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

func opNot(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	x.Not(x)
	return nil, nil
}

func opLt(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y := scope.Stack.pop(), scope.Stack.peek()
	y.Xor(&x, y)
	return nil, nil
}

func opByte(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	th, val := scope.Stack.pop(), scope.Stack.peek()
	val.Byte(&th)
	return nil, nil
}

func opAddmod(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x, y, z := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

func opSHL(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSHR(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

func opSAR(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	shift, value := scope.Stack.pop(), scope.Stack.peek()
	if shift.GtUint64(256) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return nil, nil
	}
	n := uint(shift.Uint64())
	value.SRsh(value, n)
	return nil, nil
}

func opKeccak256(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.peek()
	data := scope.Memory.GetPtr(int64(offset.Uint64()), int64(size.Uint64()))

	if interp.hasher == nil {
		interp.hasher = crypto.NewKeccakState()
	} else {
		interp.hasher.Reset()
	}
	interp.hasher.Write(data)
	interp.hasher.Read(interp.hasherBuf[:])

	size.SetBytes(interp.hasherBuf[:])
	return nil, nil
}

func opAddress(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(scope.Contract.Address().Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	addr := common.AddressFromWord(slot)
	slot.Set(interp.evm.StateDB.GetBalance(addr))
	return nil, nil
}

func opOrigin(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(interp.evm.TxContext.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(scope.Contract.CallerAddress.Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).Set(scope.Contract.Value()))
	return nil, nil
}

func opCallDataLoad(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	x := scope.Stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getData(scope.Contract.Input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(scope.Contract.Input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	memOffset, dataOffset, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = 0xffffffffffffffff
	}
	data := getData(scope.Contract.Input, dataOffset64, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opReturnDataSize(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(interp.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	memOffset, dataOffset, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	end, overflow := math64Add(offset64, length.Uint64())
	if overflow || uint64(len(interp.returnData)) < end {
		return nil, ErrReturnDataOutOfBounds
	}
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), interp.returnData[offset64:end])
	return nil, nil
}

func math64Add(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s < a
}

func opCodeSize(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(len(scope.Contract.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	memOffset, codeOffset, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	codeOffset64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOffset64 = 0xffffffffffffffff
	}
	data := getData(scope.Contract.Code, codeOffset64, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opExtCodeSize(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	slot.SetUint64(uint64(interp.evm.StateDB.GetCodeSize(common.AddressFromWord(slot))))
	return nil, nil
}

func opExtCodeCopy(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	a, memOffset, codeOffset, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	codeOffset64, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		codeOffset64 = 0xffffffffffffffff
	}
	addr := common.AddressFromWord(&a)
	code := interp.evm.StateDB.GetCode(addr)
	data := getData(code, codeOffset64, length.Uint64())
	scope.Memory.Set(memOffset.Uint64(), length.Uint64(), data)
	return nil, nil
}

func opExtCodeHash(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	slot := scope.Stack.peek()
	addr := common.AddressFromWord(slot)
	if interp.evm.StateDB.Empty(addr) {
		slot.Clear()
	} else {
		slot.SetBytes(interp.evm.StateDB.GetCodeHash(addr).Bytes())
	}
	return nil, nil
}

func opGasprice(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).Set(interp.evm.TxContext.GasPrice))
	return nil, nil
}

func opBlockhash(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	num := scope.Stack.peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow {
		num.Clear()
		return nil, nil
	}
	upper := interp.evm.Context.BlockNumber
	var lower uint64
	if upper > 256 {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper {
		num.SetBytes(interp.evm.Context.GetHash(num64).Bytes())
	} else {
		num.Clear()
	}
	return nil, nil
}

func opCoinbase(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(interp.evm.Context.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(interp.evm.Context.Time))
	return nil, nil
}

func opNumber(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(interp.evm.Context.BlockNumber))
	return nil, nil
}

func opDifficulty(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).Set(interp.evm.Context.Difficulty))
	return nil, nil
}

func opRandom(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetBytes(interp.evm.Context.Random.Bytes()))
	return nil, nil
}

func opGasLimit(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(interp.evm.Context.GasLimit))
	return nil, nil
}

func opChainID(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(interp.evm.Patch.Rules.ChainID.Uint64()))
	return nil, nil
}

func opSelfBalance(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	balance := interp.evm.StateDB.GetBalance(scope.Contract.Address())
	scope.Stack.push(new(uint256.Int).Set(balance))
	return nil, nil
}

func opBaseFee(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).Set(interp.evm.Context.BaseFee))
	return nil, nil
}

func opBlobHash(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	idx := scope.Stack.peek()
	if i, overflow := idx.Uint64WithOverflow(); !overflow && i < uint64(len(interp.evm.TxContext.BlobHashes)) {
		idx.SetBytes(interp.evm.TxContext.BlobHashes[i].Bytes())
	} else {
		idx.Clear()
	}
	return nil, nil
}

func opBlobBaseFee(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).Set(interp.evm.Context.BlobBaseFee))
	return nil, nil
}

func opPop(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.pop()
	return nil, nil
}

func opMload(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	v := scope.Stack.peek()
	offset := v.Uint64()
	v.SetBytes(scope.Memory.GetPtr(int64(offset), 32))
	return nil, nil
}

func opMstore(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	mStart, val := scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	off, val := scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.store[off.Uint64()] = byte(val.Uint64())
	return nil, nil
}

func opSload(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.peek()
	hash := common.Hash(loc.Bytes32())
	val := interp.evm.StateDB.GetState(scope.Contract.Address(), hash)
	if t := interp.evm.Tracer; t != nil && t.OnSLoad != nil {
		t.OnSLoad(scope.Contract.Address(), hash, val)
	}
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	if interp.readOnly {
		return nil, ErrWriteProtection
	}
	loc, val := scope.Stack.pop(), scope.Stack.pop()
	key, newVal := common.Hash(loc.Bytes32()), common.Hash(val.Bytes32())
	interp.evm.StateDB.SetState(scope.Contract.Address(), key, newVal)
	if t := interp.evm.Tracer; t != nil && t.OnSStore != nil {
		t.OnSStore(scope.Contract.Address(), key, newVal)
	}
	return nil, nil
}

func opTload(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	loc := scope.Stack.peek()
	hash := common.Hash(loc.Bytes32())
	val := interp.evm.StateDB.GetTransientState(scope.Contract.Address(), hash)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opTstore(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	if interp.readOnly {
		return nil, ErrWriteProtection
	}
	loc, val := scope.Stack.pop(), scope.Stack.pop()
	interp.evm.StateDB.SetTransientState(scope.Contract.Address(), common.Hash(loc.Bytes32()), common.Hash(val.Bytes32()))
	return nil, nil
}

func opJump(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	pos := scope.Stack.pop()
	if !scope.Contract.validJumpdest(&pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	pos, cond := scope.Stack.pop(), scope.Stack.pop()
	if !cond.IsZero() {
		if !scope.Contract.validJumpdest(&pos) {
			return nil, ErrInvalidJump
		}
		*pc = pos.Uint64()
	} else {
		*pc++
	}
	return nil, nil
}

func opJumpdest(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(uint64(scope.Memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int).SetUint64(scope.Contract.Gas))
	return nil, nil
}

func opMcopy(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	dst, src, length := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	scope.Memory.Copy(dst.Uint64(), src.Uint64(), length.Uint64())
	return nil, nil
}

func opPush0(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	scope.Stack.push(new(uint256.Int))
	return nil, nil
}

func opPush(size byte) executionFunc {
	return func(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
		codeLen := uint64(len(scope.Contract.Code))
		start := min(codeLen, *pc+1)
		end := min(codeLen, start+uint64(size))
		integer := new(uint256.Int)
		integer.SetBytes(scope.Contract.Code[start:end])
		if n := uint64(size) - (end - start); n > 0 {
			integer.Lsh(integer, uint(8*n))
		}
		scope.Stack.push(integer)
		*pc += uint64(size)
		return nil, nil
	}
}

func min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func opDup(n int) executionFunc {
	return func(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.dup(n)
		return nil, nil
	}
}

func opSwap(n int) executionFunc {
	return func(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
		scope.Stack.swap(n + 1)
		return nil, nil
	}
}

func opLog(size int) executionFunc {
	return func(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
		if interp.readOnly {
			return nil, ErrWriteProtection
		}
		mStart, mSize := scope.Stack.pop(), scope.Stack.pop()
		topics := make([]common.Hash, size)
		for i := 0; i < size; i++ {
			t := scope.Stack.pop()
			topics[i] = common.Hash(t.Bytes32())
		}
		data := scope.Memory.GetCopy(int64(mStart.Uint64()), int64(mSize.Uint64()))
		interp.evm.StateDB.AddLog(&Log{
			Address: scope.Contract.Address(),
			Topics:  topics,
			Data:    data,
		})
		return nil, nil
	}
}

func opCreate(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	if interp.readOnly {
		return nil, ErrWriteProtection
	}
	value, offset, size := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	input := scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))
	gas := scope.Contract.Gas
	if interp.evm.Patch.EIP150 {
		gas -= gas / 64
	}
	scope.Contract.UseGas(gas)

	res, addr, returnGas, suberr := interp.evm.Create(scope.Contract, input, gas, &value)
	return pushCreateResult(scope, res, addr, returnGas, suberr)
}

func opCreate2(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	if interp.readOnly {
		return nil, ErrWriteProtection
	}
	value, offset, size, salt := scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop(), scope.Stack.pop()
	input := scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))
	gas := scope.Contract.Gas
	gas -= gas / 64
	scope.Contract.UseGas(gas)

	res, addr, returnGas, suberr := interp.evm.Create2(scope.Contract, input, gas, &value, &salt)
	return pushCreateResult(scope, res, addr, returnGas, suberr)
}

func pushCreateResult(scope *ScopeContext, res []byte, addr common.Address, returnGas uint64, suberr error) ([]byte, error) {
	if suberr == ErrExecutionReverted {
		scope.Stack.push(new(uint256.Int))
		scope.Contract.Gas += returnGas
		return res, nil
	}
	if suberr != nil {
		scope.Stack.push(new(uint256.Int))
	} else {
		scope.Stack.push(new(uint256.Int).SetBytes(addr.Bytes()))
	}
	scope.Contract.Gas += returnGas
	return nil, nil
}

func opCall(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	stack := scope.Stack
	gasArg, addr, value := stack.pop(), stack.pop(), stack.pop()
	inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.AddressFromWord(&addr)

	if interp.readOnly && !value.IsZero() {
		return nil, ErrWriteProtection
	}
	args := scope.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	var bigVal *uint256.Int
	transfersValue := !value.IsZero()
	if transfersValue {
		bigVal = &value
	}
	// The 63/64 cap is computed on the requested amount alone; the stipend
	// (spec.md §4.D: "added to the child's gas budget only when value≠0") is
	// a bonus granted to the child on top of that cap, never charged to the
	// caller — callerDeduction and childGas must stay two distinct values,
	// mirroring wyf-ACCEPT-eth2030/pkg/core/vm/call_frame.go's ForwardGas.
	callerDeduction, err := callGas(interp.evm.Patch.EIP150, scope.Contract.Gas, 0, gasArg.Uint64())
	if err != nil {
		return nil, err
	}
	scope.Contract.UseGas(callerDeduction)

	childGas := callerDeduction
	if transfersValue {
		childGas += interp.evm.Patch.CallStipend
	}

	ret, returnGas, err := interp.evm.Call(scope.Contract, toAddr, args, childGas, bigVal)
	return afterCall(scope, ret, returnGas, err, retOffset, retSize)
}

func opCallCode(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	stack := scope.Stack
	gasArg, addr, value := stack.pop(), stack.pop(), stack.pop()
	inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.AddressFromWord(&addr)
	args := scope.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	var bigVal *uint256.Int
	transfersValue := !value.IsZero()
	if transfersValue {
		bigVal = &value
	}
	// See opCall: the stipend is added to the child's budget only, never
	// charged against the caller.
	callerDeduction, err := callGas(interp.evm.Patch.EIP150, scope.Contract.Gas, 0, gasArg.Uint64())
	if err != nil {
		return nil, err
	}
	scope.Contract.UseGas(callerDeduction)

	childGas := callerDeduction
	if transfersValue {
		childGas += interp.evm.Patch.CallStipend
	}

	ret, returnGas, err := interp.evm.CallCode(scope.Contract, toAddr, args, childGas, bigVal)
	return afterCall(scope, ret, returnGas, err, retOffset, retSize)
}

func opDelegateCall(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	stack := scope.Stack
	gasArg, addr := stack.pop(), stack.pop()
	inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.AddressFromWord(&addr)
	args := scope.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	gas, err := callGas(interp.evm.Patch.EIP150, scope.Contract.Gas, 0, gasArg.Uint64())
	if err != nil {
		return nil, err
	}
	scope.Contract.UseGas(gas)

	ret, returnGas, err := interp.evm.DelegateCall(scope.Contract, toAddr, args, gas)
	return afterCall(scope, ret, returnGas, err, retOffset, retSize)
}

func opStaticCall(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	stack := scope.Stack
	gasArg, addr := stack.pop(), stack.pop()
	inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.AddressFromWord(&addr)
	args := scope.Memory.GetCopy(int64(inOffset.Uint64()), int64(inSize.Uint64()))

	gas, err := callGas(interp.evm.Patch.EIP150, scope.Contract.Gas, 0, gasArg.Uint64())
	if err != nil {
		return nil, err
	}
	scope.Contract.UseGas(gas)

	ret, returnGas, err := interp.evm.StaticCall(scope.Contract, toAddr, args, gas)
	return afterCall(scope, ret, returnGas, err, retOffset, retSize)
}

func afterCall(scope *ScopeContext, ret []byte, returnGas uint64, err error, retOffset, retSize uint256.Int) ([]byte, error) {
	if err != nil {
		scope.Stack.push(new(uint256.Int))
	} else {
		scope.Stack.push(new(uint256.Int).SetOne())
	}
	if err == nil || err == ErrExecutionReverted {
		scope.Memory.Set(retOffset.Uint64(), retSize.Uint64(), ret)
	}
	scope.Contract.Gas += returnGas
	return ret, nil
}

func opReturn(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.pop()
	return scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64())), errStopExecution
}

func opRevert(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	offset, size := scope.Stack.pop(), scope.Stack.pop()
	ret := scope.Memory.GetCopy(int64(offset.Uint64()), int64(size.Uint64()))
	return ret, ErrExecutionReverted
}

func opUndefined(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	return nil, &ErrInvalidOpCode{opcode: OpCode(scope.Contract.GetOp(*pc))}
}

func opStop(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	return nil, errStopExecution
}

func opSelfdestruct(pc *uint64, interp *EVMInterpreter, scope *ScopeContext) ([]byte, error) {
	if interp.readOnly {
		return nil, ErrWriteProtection
	}
	beneficiary := scope.Stack.pop()
	balance := new(uint256.Int).Set(interp.evm.StateDB.GetBalance(scope.Contract.Address()))
	interp.evm.StateDB.SubBalance(scope.Contract.Address(), balance)
	interp.evm.StateDB.AddBalance(common.AddressFromWord(&beneficiary), balance)
	interp.evm.StateDB.SelfDestruct(scope.Contract.Address())
	return nil, errStopExecution
}

// getData returns data[start:start+size], zero-padding past the end — the
// shared semantics of CALLDATALOAD/CALLDATACOPY/CODECOPY/EXTCODECOPY
// reading past the end of their source buffer.
func getData(data []byte, start uint64, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	out := make([]byte, size)
	copy(out, data[start:end])
	return out
}
