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

// Package common holds the scalar types the core shares across packages:
// fixed-width addresses and hashes. Persistence, RLP and JSON codecs for
// these types belong to the trie/database backend and are out of scope here.
package common

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// HashLength is the expected length of the hash
	HashLength = 32
	// AddressLength is the expected length of the address
	AddressLength = 20
)

// Hash represents the 32 byte Keccak256 hash of arbitrary data.
type Hash [HashLength]byte

// BytesToHash sets b to hash. If b is larger than HashLength, b will be cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// SetBytes sets the hash to the value of b, left-padded if b is smaller than HashLength.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

func (h Hash) Bytes() []byte  { return h[:] }
func (h Hash) Big() *uint256.Int {
	return new(uint256.Int).SetBytes(h[:])
}
func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

// Address represents the 20 byte address of an Ethereum account.
type Address [AddressLength]byte

// BytesToAddress sets a to address. If b is larger than AddressLength, b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

func (a Address) Bytes() []byte  { return a[:] }
func (a Address) Hash() Hash     { return BytesToHash(a[:]) }
func (a Address) String() string { return "0x" + hex.EncodeToString(a[:]) }

// AddressFromWord truncates a word to its low 160 bits, per spec.md §3 ("Address:
// the low 160 bits of a word").
func AddressFromWord(w *uint256.Int) Address {
	var a Address
	b := w.Bytes32()
	copy(a[:], b[12:])
	return a
}

// StorageKey identifies a single (address, slot) pair, used as a map key by
// the journaled substate and the warm-access-list bookkeeping.
type StorageKey struct {
	Address Address
	Slot    Hash
}

func (k StorageKey) String() string {
	return fmt.Sprintf("%s/%s", k.Address, k.Slot)
}
