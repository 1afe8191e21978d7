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

package state

import (
	"encoding/binary"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/holiman/bloomfilter/v2"
	"github.com/holiman/uint256"

	"github.com/evmforge/corevm/common"
	"github.com/evmforge/corevm/core/vm"
	"github.com/evmforge/corevm/crypto"
)

// accountState is one address's overlay on top of Backend: the account as
// this transaction currently sees it. A nil entry in Substate.accounts means
// "not yet touched, ask the backend"; once touched, every further read is
// served from here.
type accountState struct {
	basic Basic

	code      []byte
	codeSet   bool // true once code has been loaded from the backend or written
	destructed bool
	created   bool // true once CreateAccount/CreateContract has run for this address this tx
	reset     bool // storage wiped this tx (SPEC_FULL.md supplemented feature 2)
}

func (a *accountState) clone() *accountState {
	c := *a
	return &c
}

// Substate is the journaled world-state overlay of spec.md §4.F. It is a
// single flat layer with a revertible journal rather than original_source's
// literal parent-linked stack of layers (`MemoryStackSubstate`) — go-ethereum
// itself resolves the same "enter/commit/discard, later sibling wins" model
// this way (see wyf-ACCEPT-eth2030/pkg/core/state/journal.go): a flat map
// already gives last-write-wins for free, and Snapshot/RevertToSnapshot over
// one journal is exactly "enter a child layer" / "discard it" without ever
// needing to swallow a child's maps into a parent's by hand. Substate
// implements vm.StateDB directly, so the interpreter never touches the
// journal or Backend itself.
type Substate struct {
	backend Backend

	accounts map[common.Address]*accountState
	storage  map[common.Address]map[common.Hash]common.Hash
	transient map[common.Address]map[common.Hash]common.Hash

	logs   []vm.Log
	refund uint64

	// touched accumulates every address observed this transaction, used at
	// Commit to apply EIP-161 empty-account clearing without re-deriving it
	// from the journal.
	touched mapset.Set[common.Address]

	accessAddresses mapset.Set[common.Address]
	accessSlots     mapset.Set[common.StorageKey]

	// touchedBloom is a cheap, approximate "did this transaction touch X"
	// probe an optional observer can query without replaying the log
	// (SPEC_FULL.md DOMAIN STACK row 3); it is never consulted by the
	// substate's own logic, only exposed via TouchedBloom.
	touchedBloom *bloomfilter.Filter

	journal        []journalEntry
	validSnapshots map[int]int // snapshot id -> journal length at that point
	nextID         int
}

// fnv64Hash adapts a fixed-size byte slice to bloomfilter.Filter's required
// Sum64 capability without a real FNV pass — addresses and storage keys are
// already uniformly-distributed hash-derived bytes, so truncating to the
// leading 8 bytes is as good a bloom key as re-hashing them.
type fnv64Hash uint64

func (h fnv64Hash) Sum64() uint64 { return uint64(h) }

func sum64Of(b []byte) fnv64Hash {
	var buf [8]byte
	copy(buf[:], b)
	return fnv64Hash(binary.BigEndian.Uint64(buf[:]))
}

// New returns the root substate for one transaction, with no entered layers
// and an empty journal.
func New(backend Backend) *Substate {
	bloom, _ := bloomfilter.NewOptimal(4096, 0.01)
	return &Substate{
		backend:         backend,
		accounts:        make(map[common.Address]*accountState),
		storage:         make(map[common.Address]map[common.Hash]common.Hash),
		transient:       make(map[common.Address]map[common.Hash]common.Hash),
		touched:         mapset.NewThreadUnsafeSet[common.Address](),
		accessAddresses: mapset.NewThreadUnsafeSet[common.Address](),
		accessSlots:     mapset.NewThreadUnsafeSet[common.StorageKey](),
		touchedBloom:    bloom,
		validSnapshots:  make(map[int]int),
	}
}

var _ vm.StateDB = (*Substate)(nil)

// ---- journal entries, grounded on wyf-ACCEPT-eth2030/pkg/core/state/journal.go ----

type journalEntry interface {
	revert(s *Substate)
}

type createAccountChange struct {
	addr    common.Address
	existed bool
	prev    *accountState
}

func (ch createAccountChange) revert(s *Substate) {
	if ch.existed {
		s.accounts[ch.addr] = ch.prev
	} else {
		delete(s.accounts, ch.addr)
	}
}

type balanceChange struct {
	addr common.Address
	prev *uint256.Int
}

func (ch balanceChange) revert(s *Substate) {
	if acc, ok := s.accounts[ch.addr]; ok {
		acc.basic.Balance = ch.prev
	}
}

type nonceChange struct {
	addr common.Address
	prev uint64
}

func (ch nonceChange) revert(s *Substate) {
	if acc, ok := s.accounts[ch.addr]; ok {
		acc.basic.Nonce = ch.prev
	}
}

type codeChange struct {
	addr    common.Address
	prev    []byte
	prevSet bool
}

func (ch codeChange) revert(s *Substate) {
	if acc, ok := s.accounts[ch.addr]; ok {
		acc.code, acc.codeSet = ch.prev, ch.prevSet
	}
}

type storageChange struct {
	addr       common.Address
	key        common.Hash
	prev       common.Hash
	prevExists bool
}

func (ch storageChange) revert(s *Substate) {
	m := s.storage[ch.addr]
	if ch.prevExists {
		m[ch.key] = ch.prev
	} else {
		delete(m, ch.key)
	}
}

type resetChange struct {
	addr        common.Address
	prev        bool
	prevStorage map[common.Hash]common.Hash
}

func (ch resetChange) revert(s *Substate) {
	if acc, ok := s.accounts[ch.addr]; ok {
		acc.reset = ch.prev
	}
	if ch.prevStorage == nil {
		delete(s.storage, ch.addr)
	} else {
		s.storage[ch.addr] = ch.prevStorage
	}
}

type destructChange struct {
	addr common.Address
	prev bool
}

func (ch destructChange) revert(s *Substate) {
	if acc, ok := s.accounts[ch.addr]; ok {
		acc.destructed = ch.prev
	}
}

type transientStorageChange struct {
	addr       common.Address
	key        common.Hash
	prev       common.Hash
	prevExists bool
}

func (ch transientStorageChange) revert(s *Substate) {
	m := s.transient[ch.addr]
	if ch.prevExists {
		m[ch.key] = ch.prev
	} else {
		delete(m, ch.key)
		if len(m) == 0 {
			delete(s.transient, ch.addr)
		}
	}
}

type refundChange struct{ prev uint64 }

func (ch refundChange) revert(s *Substate) { s.refund = ch.prev }

type logChange struct{ prevLen int }

func (ch logChange) revert(s *Substate) { s.logs = s.logs[:ch.prevLen] }

type accessListAddAccountChange struct{ addr common.Address }

func (ch accessListAddAccountChange) revert(s *Substate) { s.accessAddresses.Remove(ch.addr) }

type accessListAddSlotChange struct {
	addr common.Address
	slot common.Hash
}

func (ch accessListAddSlotChange) revert(s *Substate) {
	s.accessSlots.Remove(common.StorageKey{Address: ch.addr, Slot: ch.slot})
}

// ---- internal helpers ----

func (s *Substate) touch(addr common.Address) *accountState {
	s.touched.Add(addr)
	s.touchedBloom.Add(sum64Of(addr[:]))
	if acc, ok := s.accounts[addr]; ok {
		return acc
	}
	b := s.backend.Basic(addr)
	bal := b.Balance
	if bal == nil {
		bal = new(uint256.Int)
	}
	acc := &accountState{basic: Basic{Nonce: b.Nonce, Balance: bal.Clone()}}
	s.accounts[addr] = acc
	return acc
}

func (s *Substate) storageMap(addr common.Address) map[common.Hash]common.Hash {
	m, ok := s.storage[addr]
	if !ok {
		m = make(map[common.Hash]common.Hash)
		s.storage[addr] = m
	}
	return m
}

// ---- vm.StateDB ----

func (s *Substate) CreateAccount(addr common.Address) {
	prev, existed := s.accounts[addr]
	var prevCopy *accountState
	if existed {
		prevCopy = prev.clone()
	}
	s.journal = append(s.journal, createAccountChange{addr: addr, existed: existed, prev: prevCopy})

	acc := s.touch(addr)
	acc.created = true
}

// CreateContract marks addr as about to receive code and wipes any storage
// left behind by an earlier SELFDESTRUCT of the same address within this
// transaction, so a CREATE landing on a previously-destructed address never
// observes stale slots (SPEC_FULL.md supplemented feature 2). It does not
// implement the full EIP-6780 "created this tx" scoping of SELFDESTRUCT
// behaviour.
func (s *Substate) CreateContract(addr common.Address) {
	s.CreateAccount(addr)
	s.resetStorage(addr)
}

func (s *Substate) resetStorage(addr common.Address) {
	acc := s.touch(addr)
	prevStorage := s.storage[addr]
	s.journal = append(s.journal, resetChange{addr: addr, prev: acc.reset, prevStorage: prevStorage})
	acc.reset = true
	s.storage[addr] = make(map[common.Hash]common.Hash)
}

func (s *Substate) SubBalance(addr common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		s.touch(addr)
		return
	}
	acc := s.touch(addr)
	s.journal = append(s.journal, balanceChange{addr: addr, prev: acc.basic.Balance})
	acc.basic.Balance = new(uint256.Int).Sub(acc.basic.Balance, amount)
}

func (s *Substate) AddBalance(addr common.Address, amount *uint256.Int) {
	if amount.IsZero() {
		s.touch(addr)
		return
	}
	acc := s.touch(addr)
	s.journal = append(s.journal, balanceChange{addr: addr, prev: acc.basic.Balance})
	acc.basic.Balance = new(uint256.Int).Add(acc.basic.Balance, amount)
}

func (s *Substate) GetBalance(addr common.Address) *uint256.Int {
	if acc, ok := s.accounts[addr]; ok {
		return acc.basic.Balance
	}
	b := s.backend.Basic(addr)
	if b.Balance == nil {
		return new(uint256.Int)
	}
	return b.Balance
}

func (s *Substate) GetNonce(addr common.Address) uint64 {
	if acc, ok := s.accounts[addr]; ok {
		return acc.basic.Nonce
	}
	return s.backend.Basic(addr).Nonce
}

func (s *Substate) SetNonce(addr common.Address, nonce uint64) {
	acc := s.touch(addr)
	s.journal = append(s.journal, nonceChange{addr: addr, prev: acc.basic.Nonce})
	acc.basic.Nonce = nonce
}

func (s *Substate) loadCode(addr common.Address, acc *accountState) {
	if acc.codeSet {
		return
	}
	acc.code, acc.codeSet = s.backend.Code(addr), true
}

func (s *Substate) GetCode(addr common.Address) []byte {
	acc := s.touch(addr)
	s.loadCode(addr, acc)
	return acc.code
}

func (s *Substate) GetCodeSize(addr common.Address) int { return len(s.GetCode(addr)) }

func (s *Substate) GetCodeHash(addr common.Address) common.Hash {
	if acc, ok := s.accounts[addr]; ok && acc.codeSet {
		if len(acc.code) == 0 {
			return common.Hash{}
		}
		return crypto.Keccak256Hash(acc.code)
	}
	return s.backend.CodeHash(addr)
}

func (s *Substate) SetCode(addr common.Address, code []byte) {
	acc := s.touch(addr)
	s.journal = append(s.journal, codeChange{addr: addr, prev: acc.code, prevSet: acc.codeSet})
	acc.code, acc.codeSet = code, true
}

func (s *Substate) AddRefund(gas uint64) {
	s.journal = append(s.journal, refundChange{prev: s.refund})
	s.refund += gas
}

func (s *Substate) SubRefund(gas uint64) {
	s.journal = append(s.journal, refundChange{prev: s.refund})
	if gas > s.refund {
		// Matches the teacher's own defensive floor in core/state/statedb.go:
		// a negative refund is an executor-level invariant violation, not a
		// recoverable condition, so clamp rather than underflow uint64.
		s.refund = 0
		return
	}
	s.refund -= gas
}

func (s *Substate) GetRefund() uint64 { return s.refund }

func (s *Substate) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	// The backend is immutable for the lifetime of a transaction (spec.md §5
	// "Shared resources"), so its OriginalStorage is, by construction, the
	// value as of transaction start no matter how many times this method is
	// called (spec.md §8 invariant 3).
	return s.backend.OriginalStorage(addr, key)
}

func (s *Substate) GetState(addr common.Address, key common.Hash) common.Hash {
	if acc, ok := s.accounts[addr]; ok {
		if v, ok := s.storage[addr][key]; ok {
			return v
		}
		if acc.reset {
			return common.Hash{}
		}
	}
	return s.backend.Storage(addr, key)
}

func (s *Substate) SetState(addr common.Address, key, value common.Hash) {
	s.touch(addr)
	m := s.storageMap(addr)
	prev, existed := m[key]
	s.journal = append(s.journal, storageChange{addr: addr, key: key, prev: prev, prevExists: existed})
	m[key] = value
	s.touchedBloom.Add(sum64Of(key[:]))
}

func (s *Substate) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	return s.transient[addr][key]
}

func (s *Substate) SetTransientState(addr common.Address, key, value common.Hash) {
	m, ok := s.transient[addr]
	if !ok {
		m = make(map[common.Hash]common.Hash)
		s.transient[addr] = m
	}
	prev, existed := m[key]
	s.journal = append(s.journal, transientStorageChange{addr: addr, key: key, prev: prev, prevExists: existed})
	if value == (common.Hash{}) && existed {
		delete(m, key)
	} else {
		m[key] = value
	}
}

// SelfDestruct marks addr deleted on the current layer; per spec.md §4.F the
// deletion is observable only on Commit. The caller (opSelfdestruct) has
// already moved the balance to the beneficiary before calling this, so only
// the destructed flag and the now-drained balance matter here.
func (s *Substate) SelfDestruct(addr common.Address) {
	acc := s.touch(addr)
	s.journal = append(s.journal, destructChange{addr: addr, prev: acc.destructed})
	acc.destructed = true
}

func (s *Substate) HasSelfDestructed(addr common.Address) bool {
	acc, ok := s.accounts[addr]
	return ok && acc.destructed
}

func (s *Substate) Exist(addr common.Address) bool {
	if acc, ok := s.accounts[addr]; ok && acc.created {
		return true
	}
	if s.GetNonce(addr) != 0 {
		return true
	}
	if !s.GetBalance(addr).IsZero() {
		return true
	}
	return s.GetCodeSize(addr) != 0
}

func (s *Substate) Empty(addr common.Address) bool {
	return s.GetNonce(addr) == 0 && s.GetBalance(addr).IsZero() && s.GetCodeSize(addr) == 0
}

func (s *Substate) AddressInAccessList(addr common.Address) bool {
	return s.accessAddresses.Contains(addr)
}

func (s *Substate) SlotInAccessList(addr common.Address, slot common.Hash) (addressOk, slotOk bool) {
	addressOk = s.accessAddresses.Contains(addr)
	slotOk = s.accessSlots.Contains(common.StorageKey{Address: addr, Slot: slot})
	return addressOk, slotOk
}

func (s *Substate) AddAddressToAccessList(addr common.Address) {
	if s.accessAddresses.Contains(addr) {
		return
	}
	s.accessAddresses.Add(addr)
	s.journal = append(s.journal, accessListAddAccountChange{addr: addr})
}

func (s *Substate) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	s.AddAddressToAccessList(addr)
	key := common.StorageKey{Address: addr, Slot: slot}
	if s.accessSlots.Contains(key) {
		return
	}
	s.accessSlots.Add(key)
	s.journal = append(s.journal, accessListAddSlotChange{addr: addr, slot: slot})
}

// Snapshot realizes spec.md §4.F's `enter`: the journal length is the
// cheapest possible marker of "everything from here on is this layer's".
func (s *Substate) Snapshot() int {
	id := s.nextID
	s.nextID++
	s.validSnapshots[id] = len(s.journal)
	return id
}

// RevertToSnapshot realizes `discard`: every entry recorded since id is
// unwound in reverse order, exactly undoing its effect.
func (s *Substate) RevertToSnapshot(id int) {
	idx, ok := s.validSnapshots[id]
	if !ok {
		panic("corevm/core/state: revert to non-existent snapshot")
	}
	for i := len(s.journal) - 1; i >= idx; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:idx]
	for sid := range s.validSnapshots {
		if sid >= id {
			delete(s.validSnapshots, sid)
		}
	}
}

func (s *Substate) AddLog(log *vm.Log) {
	s.journal = append(s.journal, logChange{prevLen: len(s.logs)})
	s.logs = append(s.logs, *log)
	s.touchedBloom.Add(sum64Of(log.Address[:]))
}

func (s *Substate) GetBlockHash(block uint64) common.Hash { return s.backend.BlockHash(block) }

// ---- outer-frame finalisation (spec.md §4.G) ----

// Logs returns every log emitted so far, in emission order.
func (s *Substate) Logs() []vm.Log { return s.logs }

// TouchedBloom exposes the per-transaction touched-address/storage-key probe
// (SPEC_FULL.md DOMAIN STACK row 3) to an optional observer.
func (s *Substate) TouchedBloom() *bloomfilter.Filter { return s.touchedBloom }

// Commit finalises a successful outer frame into the diff Backend.Apply
// expects: every touched account that is EIP-161 empty, whether or not it
// was explicitly created, is folded into the delete set instead of a
// zero-value Modify,
// matching spec.md §4.G "On outer Ok: apply root substate to the backend."
// Commit does not clear the substate; a finished transaction's Substate is
// discarded by the caller, not reused.
func (s *Substate) Commit() (modifies []Modify, deletes []common.Address, logs []LogRecord) {
	deleteSet := make(map[common.Address]bool)

	for addr := range s.touched.Iter() {
		acc, touched := s.accounts[addr]
		destructed := touched && acc.destructed
		empty := touched && s.Empty(addr)
		if destructed || empty {
			deleteSet[addr] = true
			continue
		}
		if !touched {
			continue
		}

		m := Modify{
			Address: addr,
			Basic:   acc.basic,
			CodeSet: acc.codeSet,
			Code:    acc.code,
		}
		if dirty, ok := s.storage[addr]; ok {
			for k, v := range dirty {
				m.Storage = append(m.Storage, StorageDelta{Key: k, Value: v})
			}
		}
		m.ResetStorage = acc.reset
		modifies = append(modifies, m)
	}

	for addr := range deleteSet {
		deletes = append(deletes, addr)
	}

	logs = make([]LogRecord, len(s.logs))
	for i, l := range s.logs {
		logs[i] = LogRecord{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return modifies, deletes, logs
}

// Discard drops every pending account, storage and log change, so a later
// Commit applies nothing. This includes writes the executor made through the
// substate (sender debit, nonce bump, miner credit): they are recorded here
// like any other write and are dropped with the rest.
func (s *Substate) Discard() {
	s.journal = nil
	s.accounts = make(map[common.Address]*accountState)
	s.storage = make(map[common.Address]map[common.Hash]common.Hash)
	s.touched = mapset.NewThreadUnsafeSet[common.Address]()
	s.logs = nil
}
