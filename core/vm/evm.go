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
	"github.com/evmforge/corevm/core/tracing"
	"github.com/evmforge/corevm/crypto"
	"github.com/evmforge/corevm/params"
)

// GetHashFunc returns the n'th ancestor block hash and is used by the
// BLOCKHASH opcode.
type GetHashFunc func(uint64) common.Hash

// Context carries the per-block environment the interpreter reads through
// COINBASE/TIMESTAMP/NUMBER/DIFFICULTY/GASLIMIT/BASEFEE/BLOBBASEFEE and
// BLOCKHASH, mirroring the teacher's vm.Context (trimmed of the
// CanTransfer/Transfer function fields: value transfer is now a plain
// StateDB.SubBalance/AddBalance pair, spec.md §4.F).
type Context struct {
	GetHash GetHashFunc

	Coinbase    common.Address
	GasLimit    uint64
	BlockNumber uint64
	Time        uint64
	Difficulty  *uint256.Int
	Random      common.Hash // post-Merge PREVRANDAO, spec.md §4.A DIFFICULTY/RANDOM
	BaseFee     *uint256.Int
	BlobBaseFee *uint256.Int
}

// TxContext carries the per-transaction environment read through ORIGIN,
// GASPRICE and BLOBHASH.
type TxContext struct {
	Origin      common.Address
	GasPrice    *uint256.Int
	BlobHashes  []common.Hash
}

// EVM executes one transaction's worth of call frames against StateDB. It is
// built fresh per transaction and is not safe for concurrent or repeat use,
// matching the teacher's own EVM lifecycle contract.
type EVM struct {
	Context
	TxContext

	StateDB StateDB
	Patch   *params.Patch

	// Tracer is the optional diagnostic event-listener hook of spec.md §6.
	// A nil Tracer (the default) costs nothing beyond the nil checks already
	// on the interpreter's hot path.
	Tracer *tracing.Hooks

	depth int

	interpreter *EVMInterpreter

	// analysisCache memoizes JUMPDEST bitmaps by code hash across every
	// frame of this transaction (spec.md §4.B; see core/vm/analysis.go).
	analysisCache *codeAnalysisCache
}

// NewEVM returns an EVM ready to execute a single transaction.
func NewEVM(blockCtx Context, txCtx TxContext, statedb StateDB, patch *params.Patch) *EVM {
	evm := &EVM{
		Context:       blockCtx,
		TxContext:     txCtx,
		StateDB:       statedb,
		Patch:         patch,
		analysisCache: newCodeAnalysisCache(4 * 1024 * 1024),
	}
	evm.interpreter = NewEVMInterpreter(evm)
	return evm
}

// Interpreter returns the EVM's bytecode interpreter.
func (evm *EVM) Interpreter() *EVMInterpreter { return evm.interpreter }

// run dispatches to a precompile when to is one of the patch's precompiled
// addresses, falling back to bytecode interpretation otherwise (spec.md §4.G;
// precompile implementations themselves are out of scope, per the Open
// Question decision recorded in DESIGN.md — this only performs the address
// dispatch and charges nothing beyond ordinary CALL-family gas accounting).
func (evm *EVM) run(contract *Contract, input []byte, readOnly bool) ([]byte, error) {
	if _, ok := evm.Patch.Precompiles[contract.Address()]; ok {
		return nil, nil
	}
	return evm.interpreter.Run(contract, input, readOnly)
}

// Call executes the code at addr with the given input, handling the value
// transfer and reverting all state changes (but not the gas charged) on
// failure (spec.md §4.C "Call").
func (evm *EVM) Call(caller *Contract, addr common.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, err error) {
	if evm.depth > params.CallCreateDepth {
		return nil, gas, ErrDepth
	}
	if value != nil && !value.IsZero() && evm.StateDB.GetBalance(caller.Address()).Lt(value) {
		return nil, gas, ErrInsufficientBalance
	}

	snapshot := evm.StateDB.Snapshot()

	if !evm.StateDB.Exist(addr) {
		if _, isPrecompile := evm.Patch.Precompiles[addr]; !isPrecompile && evm.Patch.EIP158NewAccountCheck && (value == nil || value.IsZero()) {
			return nil, gas, nil
		}
		evm.StateDB.CreateAccount(addr)
	}
	evm.transfer(caller.Address(), addr, value)

	codeHash := evm.StateDB.GetCodeHash(addr)
	contract := NewContract(caller, caller.Address(), addr, value, gas, evm.StateDB.GetCode(addr), codeHash, evm.analysisCache)

	evm.traceEnter(CALL, caller.Address(), addr, input, gas, value)
	ret, err = evm.run(contract, input, false)
	evm.traceExit(ret, gas-contract.Gas, err, err != nil)
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.UseGas(contract.Gas)
		}
	}
	return ret, contract.Gas, err
}

// CallCode executes addr's code against the caller's own storage context,
// differing from DelegateCall only in that value and CALLER are still those
// of the immediate caller (spec.md §4.C "CallCode").
func (evm *EVM) CallCode(caller *Contract, addr common.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, err error) {
	if evm.depth > params.CallCreateDepth {
		return nil, gas, ErrDepth
	}
	if value != nil && !value.IsZero() && evm.StateDB.GetBalance(caller.Address()).Lt(value) {
		return nil, gas, ErrInsufficientBalance
	}

	snapshot := evm.StateDB.Snapshot()
	codeHash := evm.StateDB.GetCodeHash(addr)
	contract := NewContract(caller, caller.Address(), caller.Address(), value, gas, evm.StateDB.GetCode(addr), codeHash, evm.analysisCache)
	contract.IsDelegateOrCallcode = true

	evm.traceEnter(CALLCODE, caller.Address(), addr, input, gas, value)
	ret, err = evm.run(contract, input, false)
	evm.traceExit(ret, gas-contract.Gas, err, err != nil)
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.UseGas(contract.Gas)
		}
	}
	return ret, contract.Gas, err
}

// DelegateCall executes addr's code in the caller's own storage context,
// preserving the grandparent's CALLER and CALLVALUE (spec.md §4.C
// "DelegateCall").
func (evm *EVM) DelegateCall(caller *Contract, addr common.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, err error) {
	if evm.depth > params.CallCreateDepth {
		return nil, gas, ErrDepth
	}

	snapshot := evm.StateDB.Snapshot()
	codeHash := evm.StateDB.GetCodeHash(addr)
	contract := NewContract(caller, caller.CallerAddress, caller.Address(), caller.Value(), gas, evm.StateDB.GetCode(addr), codeHash, evm.analysisCache)
	contract.IsDelegateOrCallcode = true

	evm.traceEnter(DELEGATECALL, caller.CallerAddress, addr, input, gas, caller.Value())
	ret, err = evm.run(contract, input, false)
	evm.traceExit(ret, gas-contract.Gas, err, err != nil)
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.UseGas(contract.Gas)
		}
	}
	return ret, contract.Gas, err
}

// StaticCall executes addr's code in a read-only frame: SSTORE, LOG, CREATE,
// CREATE2, SELFDESTRUCT and value-carrying CALL all fail inside it (spec.md
// §4.E).
func (evm *EVM) StaticCall(caller *Contract, addr common.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, err error) {
	if evm.depth > params.CallCreateDepth {
		return nil, gas, ErrDepth
	}

	snapshot := evm.StateDB.Snapshot()
	codeHash := evm.StateDB.GetCodeHash(addr)
	contract := NewContract(caller, caller.Address(), addr, new(uint256.Int), gas, evm.StateDB.GetCode(addr), codeHash, evm.analysisCache)

	// Touch the target so empty accounts observed only through a STATICCALL
	// are still marked touched for end-of-transaction clearing (spec.md
	// §4.F, matching the teacher's zero-value AddBalance "touch" trick).
	evm.StateDB.AddBalance(addr, new(uint256.Int))

	evm.traceEnter(STATICCALL, caller.Address(), addr, input, gas, nil)
	ret, err = evm.run(contract, input, true)
	evm.traceExit(ret, gas-contract.Gas, err, err != nil)
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.UseGas(contract.Gas)
		}
	}
	return ret, contract.Gas, err
}

// traceEnter reports a new call frame to the configured Tracer, if any.
func (evm *EVM) traceEnter(typ OpCode, from, to common.Address, input []byte, gas uint64, value *uint256.Int) {
	if evm.Tracer == nil || evm.Tracer.OnEnter == nil {
		return
	}
	evm.Tracer.OnEnter(evm.depth, tracing.OpCode(typ), from, to, input, gas, value)
}

// traceExit reports a call frame's outcome to the configured Tracer, if any.
func (evm *EVM) traceExit(output []byte, gasUsed uint64, err error, reverted bool) {
	if evm.Tracer == nil || evm.Tracer.OnExit == nil {
		return
	}
	evm.Tracer.OnExit(evm.depth, output, gasUsed, err, reverted)
}

// transfer moves value from caller to addr. A nil or zero value is a no-op,
// matching how opCall and friends pass a nil bigVal for value-less calls.
func (evm *EVM) transfer(from, to common.Address, value *uint256.Int) {
	if value == nil || value.IsZero() {
		return
	}
	evm.StateDB.SubBalance(from, value)
	evm.StateDB.AddBalance(to, value)
}

// create runs deployment code and, on success, installs the returned bytes
// as the new account's code (spec.md §4.C "Create"/"Create2").
func (evm *EVM) create(caller *Contract, code []byte, gas uint64, value *uint256.Int, address common.Address, typ OpCode) (ret []byte, contractAddr common.Address, leftOverGas uint64, err error) {
	contractAddr = address

	if evm.depth > params.CallCreateDepth {
		return nil, common.Address{}, gas, ErrDepth
	}
	if value != nil && !value.IsZero() && evm.StateDB.GetBalance(caller.Address()).Lt(value) {
		return nil, common.Address{}, gas, ErrInsufficientBalance
	}
	if uint64(len(code)) > evm.Patch.MaxInitCodeSize {
		return nil, common.Address{}, gas, ErrMaxInitCodeSizeExceeded
	}

	nonce := evm.StateDB.GetNonce(caller.Address())
	evm.StateDB.SetNonce(caller.Address(), nonce+1)

	contractHash := evm.StateDB.GetCodeHash(address)
	if evm.StateDB.GetNonce(address) != 0 || (contractHash != (common.Hash{}) && contractHash != emptyCodeHash) {
		return nil, common.Address{}, 0, ErrContractAddressCollision
	}

	snapshot := evm.StateDB.Snapshot()
	evm.StateDB.CreateAccount(address)
	evm.StateDB.CreateContract(address)
	if evm.Patch.Rules.IsEIP158 {
		evm.StateDB.SetNonce(address, 1)
	}
	evm.transfer(caller.Address(), address, value)

	contract := NewContract(caller, caller.Address(), address, value, gas, code, common.Hash{}, nil)

	evm.traceEnter(typ, caller.Address(), address, code, gas, value)
	ret, err = evm.run(contract, nil, false)
	evm.traceExit(ret, gas-contract.Gas, err, err != nil)

	maxCodeSizeExceeded := uint64(len(ret)) > evm.Patch.MaxCodeSize
	if err == nil && !maxCodeSizeExceeded {
		createDataGas := uint64(len(ret)) * params.CreateDataGas
		if contract.UseGas(createDataGas) {
			evm.StateDB.SetCode(address, ret)
		} else {
			err = ErrCodeStoreOutOfGas
		}
	}

	if maxCodeSizeExceeded || (err != nil && (evm.Patch.Rules.IsHomestead || err != ErrCodeStoreOutOfGas)) {
		evm.StateDB.RevertToSnapshot(snapshot)
		if err != ErrExecutionReverted {
			contract.UseGas(contract.Gas)
		}
	}
	if maxCodeSizeExceeded && err == nil {
		err = ErrMaxCodeSizeExceeded
	}
	return ret, address, contract.Gas, err
}

// Create deploys code using the sender-and-nonce address scheme (Yellow
// Paper eq. 75).
func (evm *EVM) Create(caller *Contract, code []byte, gas uint64, value *uint256.Int) ([]byte, common.Address, uint64, error) {
	addr := crypto.CreateAddress(caller.Address(), evm.StateDB.GetNonce(caller.Address()))
	return evm.create(caller, code, gas, value, addr, CREATE)
}

// Create2 deploys code using the deterministic EIP-1014 address scheme:
// keccak256(0xff ++ sender ++ salt ++ keccak256(init_code))[12:].
func (evm *EVM) Create2(caller *Contract, code []byte, gas uint64, value *uint256.Int, salt *uint256.Int) ([]byte, common.Address, uint64, error) {
	codeHash := crypto.Keccak256Hash(code)
	addr := crypto.CreateAddress2(caller.Address(), common.Hash(salt.Bytes32()), codeHash.Bytes())
	return evm.create(caller, code, gas, value, addr, CREATE2)
}

// emptyCodeHash is the keccak256 of an empty byte slice; CREATE refuses to
// deploy over an address that already carries real code or a nonzero nonce,
// which this constant lets it tell apart from a never-touched account.
var emptyCodeHash = crypto.Keccak256Hash(nil)
