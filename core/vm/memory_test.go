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
	"bytes"
	"testing"

	"github.com/holiman/uint256"
)

func TestMemorySetAndGetCopy(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set(0, 4, []byte{1, 2, 3, 4})

	got := m.GetCopy(0, 4)
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("GetCopy = %x, want 01020304", got)
	}
	if m.Len() != 32 {
		t.Fatalf("Len() = %d, want 32", m.Len())
	}
}

func TestMemorySet32(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set32(0, uint256.NewInt(0x1234))

	want := make([]byte, 32)
	want[30], want[31] = 0x12, 0x34
	if !bytes.Equal(m.Data(), want) {
		t.Fatalf("Set32: got %x, want %x", m.Data(), want)
	}
}

func TestMemoryResizeIsIdempotentWhenAlreadyBigEnough(t *testing.T) {
	m := NewMemory()
	m.Resize(64)
	m.Set(0, 1, []byte{0xff})
	m.Resize(32) // shrinking request: must not truncate or clear existing data
	if m.Len() != 64 {
		t.Fatalf("Len() = %d, want 64 (Resize must never shrink)", m.Len())
	}
	if m.Data()[0] != 0xff {
		t.Fatalf("Resize(32) after Resize(64) corrupted existing data")
	}
}

func TestMemoryCopyHandlesOverlap(t *testing.T) {
	m := NewMemory()
	m.Resize(32)
	m.Set(0, 4, []byte{1, 2, 3, 4})
	m.Copy(2, 0, 4) // overlapping forward copy, as MCOPY permits

	got := m.GetCopy(0, 6)
	want := []byte{1, 2, 1, 2, 3, 4}
	if !bytes.Equal(got, want) {
		t.Fatalf("Copy with overlap: got %x, want %x", got, want)
	}
}

func TestMemoryWordCount(t *testing.T) {
	cases := []struct {
		size uint64
		want uint64
	}{
		{0, 0},
		{1, 1},
		{32, 1},
		{33, 2},
		{64, 2},
	}
	for _, c := range cases {
		if got := MemoryWordCount(c.size); got != c.want {
			t.Errorf("MemoryWordCount(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}
