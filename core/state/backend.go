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

// Package state implements the journaled substate of spec.md §4.F and the
// backend capability split of §4.H: a pure-read Backend the substate
// consults on a miss, and an Applyable write sink the executor hands the
// finished transaction's diff to. Keeping these as two interfaces instead of
// one "statedb does everything" type mirrors original_source's
// src/executor/stack/state.rs, which takes `&B: Backend` by reference and
// never lets the substate itself persist anything.
package state

import (
	"github.com/holiman/uint256"

	"github.com/evmforge/corevm/common"
)

// Basic is the minimal account record a Backend can answer for any address:
// an account that has never been touched reads as the zero value, which is
// indistinguishable from an explicitly zeroed account — spec.md leaves that
// reconciliation to Exist/Empty on the higher-level StateDB view.
type Basic struct {
	Nonce   uint64
	Balance *uint256.Int
}

// Backend is the read-only capability spec.md §4.H requires: basic account
// facts, code, current and pre-transaction ("original") storage, and the
// block/chain environment BLOCKHASH and the environment opcodes read. A
// Backend is never mutated during execution (spec.md §5 "Shared resources");
// all writes accumulate in a Substate and are handed to Applyable once, at
// the end of a successful outer frame.
type Backend interface {
	Basic(addr common.Address) Basic
	Code(addr common.Address) []byte
	CodeHash(addr common.Address) common.Hash

	// Storage returns the current committed value; OriginalStorage returns
	// the value as of the start of the transaction, used by EIP-2200/3529's
	// net-metering and by spec.md §8 invariant 3 ("original_storage(F, k) is
	// invariant across all reads within F").
	Storage(addr common.Address, key common.Hash) common.Hash
	OriginalStorage(addr common.Address, key common.Hash) common.Hash

	// BlockHash returns the hash of block n, or the zero hash if n is
	// outside [BlockNumber()-256, BlockNumber()-1] (spec.md §4.H).
	BlockHash(n uint64) common.Hash

	BlockNumber() uint64
	BlockCoinbase() common.Address
	BlockTimestamp() uint64
	BlockDifficulty() *uint256.Int
	BlockRandom() common.Hash // post-Merge PREVRANDAO; zero pre-Merge
	BlockGasLimit() uint64

	ChainID() *uint256.Int
	BaseFee() *uint256.Int // nil when the patch predates EIP-1559
}

// StorageDelta is one (key, value) write inside a Modify.
type StorageDelta struct {
	Key   common.Hash
	Value common.Hash
}

// Modify describes one account's accumulated changes at the end of a
// transaction, mirroring original_source's `Apply::Modify` variant.
type Modify struct {
	Address common.Address
	Basic   Basic

	// Code is nil when the account's code was not touched this transaction;
	// CodeSet distinguishes that from "set to empty code" (a rare but legal
	// CREATE outcome when init code returns zero bytes).
	Code    []byte
	CodeSet bool

	Storage []StorageDelta

	// ResetStorage marks that every slot of Address not present in Storage
	// should read as zero going forward, realizing the reset-flag trick of
	// SPEC_FULL.md's supplemented feature 2 without enumerating the
	// account's full key space.
	ResetStorage bool
}

// LogRecord is the backend-facing shape of a LOG0..LOG4 emission; kept
// separate from core/vm.Log so this package does not need to import
// core/vm purely to describe what Apply persists.
type LogRecord struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// Applyable is the write sink spec.md §4.H requires at transaction end:
// `apply(iter of {Modify, Delete}, logs)`. A Backend implementation that
// also wants to accept writes typically implements both interfaces on the
// same concrete type; keeping them distinct means a read-only Backend (e.g.
// one built over a static test fixture) never has to stub out a mutator it
// cannot support.
type Applyable interface {
	Apply(modifies []Modify, deletes []common.Address, logs []LogRecord) error
}

// Require-request sentinel errors (SPEC_FULL.md supplemented feature 5,
// spec.md §7 "Require requests"): Backend's read methods have no error
// result, so a pull-style Backend signals that the host must supply a
// missing datum by panicking with one of these from a read method instead of
// blocking. A push-style Backend — the only kind this repository ships a
// reference Substate against — never raises them; the executor recovers the
// panic and reports a Fatal exit (UnhandledInterrupt) rather than an
// ordinary execution error, since this core has no suspend/resume machinery
// to act on the request.
var (
	ErrAccountNeeded        = requireError("account data required")
	ErrAccountStorageNeeded = requireError("account storage required")
	ErrCodeNeeded           = requireError("account code required")
	ErrBlockhashNeeded      = requireError("block hash required")
)

// requireError is a distinct unexported type (not errors.New), so the four
// values above are the only require-request errors; a Backend raises one of
// them and the executor matches it with errors.Is.
type requireError string

func (e requireError) Error() string { return string(e) }
