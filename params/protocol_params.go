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

package params

const (
	// Gas cost of a transaction.
	TxGas                 uint64 = 21000 // Per transaction not creating a contract.
	TxGasContractCreation uint64 = 53000 // Per transaction that creates a contract.

	TxDataZeroGas            uint64 = 4  // Per byte of data attached to a transaction that equals zero.
	TxDataNonZeroGasFrontier uint64 = 68 // Per byte of data attached to a transaction that is not equal to zero, before EIP-2028.
	TxDataNonZeroGasEIP2028  uint64 = 16 // Per byte of non-zero data, post EIP-2028 (Istanbul).

	// Stack and call-depth limits.
	StackLimit       = 1024 // Maximum size of VM stack allowed.
	CallCreateDepth  = 1024 // Maximum depth of call/create stack.

	// Memory expansion, §4.D.
	MemoryGas       uint64 = 3 // Linear coefficient: gas per active memory word.
	QuadCoeffDiv    uint64 = 512

	// Copy opcodes (CALLDATACOPY, CODECOPY, EXTCODECOPY, RETURNDATACOPY, MCOPY).
	CopyGas uint64 = 3

	// SHA3 / Keccak256.
	Keccak256Gas     uint64 = 30
	Keccak256WordGas uint64 = 6

	// LOGn.
	LogGas      uint64 = 375
	LogTopicGas uint64 = 375
	LogDataGas  uint64 = 8

	// EXP.
	ExpGas          uint64 = 10
	ExpByteFrontier uint64 = 10 // Per byte of the exponent before EIP-160.
	ExpByteEIP158   uint64 = 50 // Per byte of the exponent since EIP-160 (Spurious Dragon).

	// SSTORE — Frontier rules.
	SstoreSetGas   uint64 = 20000
	SstoreResetGas uint64 = 5000
	SstoreClearGas uint64 = 5000
	SstoreRefundGas uint64 = 15000

	// SSTORE — EIP-1283 net-metering rules (Constantinople).
	NetSstoreNoopGas           uint64 = 200
	NetSstoreInitGas           uint64 = 20000
	NetSstoreCleanGas          uint64 = 5000
	NetSstoreClearRefund       uint64 = 15000
	NetSstoreResetRefund       uint64 = 4800
	NetSstoreResetClearRefund  uint64 = 19800
	NetSstoreDirtyGas          uint64 = 200

	// SSTORE — EIP-2200 rules (Istanbul; EIP-1283 with a reentrancy sentry).
	SstoreSentryGasEIP2200             uint64 = 2300
	SloadGasEIP2200                    uint64 = 800
	SstoreSetGasEIP2200                uint64 = 20000
	SstoreResetGasEIP2200              uint64 = 5000
	SstoreClearsScheduleRefundEIP2200  uint64 = 15000

	// EIP-2929 (Berlin) access-list warm/cold costs.
	ColdAccountAccessCostEIP2929 uint64 = 2600
	ColdSloadCostEIP2929         uint64 = 2100
	WarmStorageReadCostEIP2929   uint64 = 100
	SstoreClearsScheduleRefundEIP3529 uint64 = 4800 // EIP-3529 shrinks the clearing refund.

	// SLOAD (pre Berlin).
	SloadGasFrontier    uint64 = 50
	SloadGasEIP150      uint64 = 200

	// CALL family.
	CallGasFrontier      uint64 = 40
	CallGasEIP150        uint64 = 700 // Flat CALL access cost from EIP-150.
	CallStipend          uint64 = 2300
	CallValueTransferGas uint64 = 9000
	CallNewAccountGas    uint64 = 25000
	QuadraticDivisorEIP150 uint64 = 64

	// SELFDESTRUCT.
	SelfdestructGasFrontier   uint64 = 0
	SelfdestructGasEIP150     uint64 = 5000
	SelfdestructRefundGas     uint64 = 24000
	CreateBySelfdestructGas   uint64 = 25000

	// CREATE / CREATE2.
	CreateDataGas       uint64 = 200 // Per byte of deployed code.
	CreateGas           uint64 = 32000
	Create2Gas          uint64 = 32000
	InitCodeWordGas     uint64 = 2 // EIP-3860, per 32-byte word of init code.
	MaxCodeSize                = 24576
	MaxInitCodeSize            = 2 * MaxCodeSize // EIP-3860.

	// JUMPDEST, and other flat-cost opcodes live in the opcode gas table
	// (core/vm/jump_table.go), not here — this file holds only the costs that
	// vary by formula or are shared across more than one opcode.

	// Refund accumulator cap, §4.D / §4.G finalisation.
	RefundQuotient        uint64 = 2 // gas_used / 2, pre-London.
	RefundQuotientEIP3529 uint64 = 5 // gas_used / 5, post-London (EIP-3529).

	// Precompile base costs (pricing only — implementations are out of
	// scope per spec.md §1).
	EcrecoverGas            uint64 = 3000
	Sha256BaseGas           uint64 = 60
	Sha256PerWordGas        uint64 = 12
	Ripemd160BaseGas        uint64 = 600
	Ripemd160PerWordGas     uint64 = 120
	IdentityBaseGas         uint64 = 15
	IdentityPerWordGas      uint64 = 3
)
