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

// Package executor implements spec.md §4.G: the orchestration layer sitting
// above core/vm.EVM and core/state.Substate that turns one already-formed
// transaction plus a read-only Backend into a deterministic
// (exit-reason, gas-used, state-delta, logs) ExecutionResult. Grounded on
// wyf-ACCEPT-eth2030/pkg/core/processor.go's applyMessage (the teacher's own
// tree never carried a state_transition.go — see DESIGN.md), trimmed of its
// block-level concerns (GasPool sharing across a block, receipts, EIP-4844
// blob gas, EIP-7702 authorization lists) that belong to block processing,
// out of scope per spec.md §1.
package executor

import (
	"github.com/holiman/uint256"

	"github.com/evmforge/corevm/common"
)

// Action selects whether a Transaction invokes existing code (Call) or
// deploys new code (Create), spec.md §6 "tx = {..., action ∈ {Call(to) |
// Create}, ...}".
type Action int

const (
	ActionCall Action = iota
	ActionCreate
)

// AccessTuple is one EIP-2930 access-list entry: an address and the storage
// slots within it to pre-warm before execution begins.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// Transaction is the already-formed, already-signature-verified transaction
// spec.md §6 takes as input. Signature recovery, RLP decoding and the wire
// transaction envelope are out of scope per spec.md §1; Caller is assumed
// already recovered.
type Transaction struct {
	Caller common.Address
	Action Action
	To     common.Address // meaningful iff Action == ActionCall

	Value    *uint256.Int
	GasPrice *uint256.Int
	GasLimit uint64
	Input    []byte
	Nonce    uint64

	AccessList []AccessTuple
}

// Header is the per-block environment the interpreter reads through
// COINBASE/TIMESTAMP/NUMBER/DIFFICULTY/GASLIMIT/BASEFEE/BLOBBASEFEE and
// BLOCKHASH (spec.md §6).
type Header struct {
	Coinbase    common.Address
	Timestamp   uint64
	Number      uint64
	Difficulty  *uint256.Int
	Random      common.Hash // post-Merge PREVRANDAO
	GasLimit    uint64
	BaseFee     *uint256.Int // nil when the patch predates EIP-1559
	BlobBaseFee *uint256.Int
	ChainID     *uint256.Int
	BlobHashes  []common.Hash
}
