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
)

// Memory implements the EVM's byte-addressable, word-granular-expansion
// linear memory (spec.md §3 Memory, §4.C).
type Memory struct {
	store       []byte
	lastGasCost uint64
}

// NewMemory returns a new, zero-length memory instance.
func NewMemory() *Memory {
	return &Memory{}
}

// Set copies data into memory at offset. The caller must have already grown
// memory (via Resize) to at least offset+len(data).
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("invalid memory: store empty")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes val as a 32-byte big-endian word at offset.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("invalid memory: store empty")
	}
	b32 := val.Bytes32()
	copy(m.store[offset:offset+32], b32[:])
}

// Resize grows memory to size bytes, which must already be word-aligned by
// the caller (the gasometer computes size in words before calling Resize).
func (m *Memory) Resize(size uint64) {
	if uint64(m.Len()) < size {
		m.store = append(m.store, make([]byte, size-uint64(m.Len()))...)
	}
}

// GetCopy returns a copy of memory[offset:offset+size].
func (m *Memory) GetCopy(offset, size int64) (cpy []byte) {
	if size == 0 {
		return nil
	}
	if len(m.store) > int(offset) {
		cpy = make([]byte, size)
		copy(cpy, m.store[offset:offset+size])
		return
	}
	return
}

// GetPtr returns a direct reference into memory[offset:offset+size]. Callers
// must not retain the slice across further memory growth.
func (m *Memory) GetPtr(offset, size int64) []byte {
	if size == 0 {
		return nil
	}
	if len(m.store) > int(offset) {
		return m.store[offset : offset+size]
	}
	return nil
}

// Len returns the current size of memory in bytes.
func (m *Memory) Len() int { return len(m.store) }

// Data returns the full backing slice.
func (m *Memory) Data() []byte { return m.store }

// Copy implements MCOPY / the copying family's overlap-safe semantics
// (EIP-5656: behaves like Go's builtin copy, correct on overlapping ranges).
func (m *Memory) Copy(dst, src, len uint64) {
	if len == 0 {
		return
	}
	copy(m.store[dst:dst+len], m.store[src:src+len])
}

// MemoryWordCount returns the number of 32-byte words needed to cover size
// bytes, i.e. ceil(size/32) — the "active words" count the quadratic memory
// expansion cost formula is keyed on (spec.md §4.C).
func MemoryWordCount(size uint64) uint64 {
	return (size + 31) / 32
}
