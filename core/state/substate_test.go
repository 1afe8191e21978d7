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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/evmforge/corevm/common"
)

// fakeBackend is a minimal read-only Backend fixture, just enough to drive
// Substate in isolation without pulling in core/executor.
type fakeBackend struct {
	basics  map[common.Address]Basic
	storage map[common.Address]map[common.Hash]common.Hash
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		basics:  make(map[common.Address]Basic),
		storage: make(map[common.Address]map[common.Hash]common.Hash),
	}
}

func (b *fakeBackend) Basic(addr common.Address) Basic {
	if acc, ok := b.basics[addr]; ok {
		return acc
	}
	return Basic{Balance: new(uint256.Int)}
}
func (b *fakeBackend) Code(common.Address) []byte            { return nil }
func (b *fakeBackend) CodeHash(common.Address) common.Hash   { return common.Hash{} }
func (b *fakeBackend) Storage(addr common.Address, key common.Hash) common.Hash {
	return b.storage[addr][key]
}
func (b *fakeBackend) OriginalStorage(addr common.Address, key common.Hash) common.Hash {
	return b.storage[addr][key]
}
func (b *fakeBackend) BlockHash(uint64) common.Hash       { return common.Hash{} }
func (b *fakeBackend) BlockNumber() uint64                { return 1 }
func (b *fakeBackend) BlockCoinbase() common.Address      { return common.Address{} }
func (b *fakeBackend) BlockTimestamp() uint64             { return 0 }
func (b *fakeBackend) BlockDifficulty() *uint256.Int      { return new(uint256.Int) }
func (b *fakeBackend) BlockRandom() common.Hash           { return common.Hash{} }
func (b *fakeBackend) BlockGasLimit() uint64              { return 30_000_000 }
func (b *fakeBackend) ChainID() *uint256.Int              { return uint256.NewInt(1) }
func (b *fakeBackend) BaseFee() *uint256.Int              { return uint256.NewInt(1) }

var addrA = common.BytesToAddress([]byte{0xaa})

func TestSnapshotRevertUndoesBalanceAndStorage(t *testing.T) {
	backend := newFakeBackend()
	backend.basics[addrA] = Basic{Balance: uint256.NewInt(100)}
	s := New(backend)

	snap := s.Snapshot()
	s.AddBalance(addrA, uint256.NewInt(50))
	s.SetState(addrA, common.Hash{1}, common.Hash{2})
	require.Equal(t, uint64(150), s.GetBalance(addrA).Uint64())
	require.Equal(t, common.Hash{2}, s.GetState(addrA, common.Hash{1}))

	s.RevertToSnapshot(snap)
	require.Equal(t, uint64(100), s.GetBalance(addrA).Uint64())
	require.Equal(t, common.Hash{}, s.GetState(addrA, common.Hash{1}))
}

func TestNestedSnapshotsRevertIndependently(t *testing.T) {
	backend := newFakeBackend()
	backend.basics[addrA] = Basic{Balance: uint256.NewInt(0)}
	s := New(backend)

	outer := s.Snapshot()
	s.AddBalance(addrA, uint256.NewInt(10))
	inner := s.Snapshot()
	s.AddBalance(addrA, uint256.NewInt(20))
	require.Equal(t, uint64(30), s.GetBalance(addrA).Uint64())

	s.RevertToSnapshot(inner)
	require.Equal(t, uint64(10), s.GetBalance(addrA).Uint64())

	s.RevertToSnapshot(outer)
	require.Equal(t, uint64(0), s.GetBalance(addrA).Uint64())
}

func TestRefundAddSubAndFloor(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)

	s.AddRefund(100)
	s.SubRefund(40)
	require.Equal(t, uint64(60), s.GetRefund())

	s.SubRefund(1000) // must clamp to zero, not underflow
	require.Equal(t, uint64(0), s.GetRefund())
}

func TestAccessListTracksAddressesAndSlots(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)

	require.False(t, s.AddressInAccessList(addrA))
	s.AddSlotToAccessList(addrA, common.Hash{9})
	require.True(t, s.AddressInAccessList(addrA))
	addrOk, slotOk := s.SlotInAccessList(addrA, common.Hash{9})
	require.True(t, addrOk)
	require.True(t, slotOk)

	_, otherSlotOk := s.SlotInAccessList(addrA, common.Hash{8})
	require.False(t, otherSlotOk)
}

func TestCommitFoldsEmptyTouchedAccountsIntoDeletes(t *testing.T) {
	backend := newFakeBackend()
	s := New(backend)

	// Touched but left at the zero value (EIP-161): should land in deletes,
	// not modifies.
	s.AddBalance(addrA, new(uint256.Int))

	modifies, deletes, _ := s.Commit()
	require.Empty(t, modifies)
	require.Contains(t, deletes, addrA)
}

func TestCommitCarriesStorageAndResetFlag(t *testing.T) {
	backend := newFakeBackend()
	backend.basics[addrA] = Basic{Balance: uint256.NewInt(1)}
	s := New(backend)

	s.SetState(addrA, common.Hash{1}, common.Hash{2})
	s.CreateContract(addrA) // exercises the reset-flag path (SPEC_FULL supplement 2)
	s.SetState(addrA, common.Hash{3}, common.Hash{4})

	modifies, _, _ := s.Commit()
	require.Len(t, modifies, 1)
	m := modifies[0]
	require.True(t, m.ResetStorage)
	require.Len(t, m.Storage, 1)
	require.Equal(t, common.Hash{3}, m.Storage[0].Key)
	require.Equal(t, common.Hash{4}, m.Storage[0].Value)
}

func TestDiscardDropsAllPendingState(t *testing.T) {
	backend := newFakeBackend()
	backend.basics[addrA] = Basic{Balance: uint256.NewInt(5)}
	s := New(backend)

	s.AddBalance(addrA, uint256.NewInt(100))
	s.Discard()

	modifies, deletes, logs := s.Commit()
	require.Empty(t, modifies)
	require.Empty(t, deletes)
	require.Empty(t, logs)
}

func TestSelfDestructMarksAccountForDeletionOnCommit(t *testing.T) {
	backend := newFakeBackend()
	backend.basics[addrA] = Basic{Balance: uint256.NewInt(0)}
	s := New(backend)

	s.CreateAccount(addrA)
	s.SelfDestruct(addrA)
	require.True(t, s.HasSelfDestructed(addrA))

	_, deletes, _ := s.Commit()
	require.Contains(t, deletes, addrA)
}
