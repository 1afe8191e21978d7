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
	"testing"

	"github.com/holiman/uint256"
)

func TestStackPushPopOrder(t *testing.T) {
	st := newstack()
	defer returnStack(st)

	one, two, three := uint256.NewInt(1), uint256.NewInt(2), uint256.NewInt(3)
	st.push(one)
	st.push(two)
	st.push(three)

	if got := st.pop(); got != *three {
		t.Fatalf("pop 1: got %v, want %v", got, three)
	}
	if got := st.pop(); got != *two {
		t.Fatalf("pop 2: got %v, want %v", got, two)
	}
	if got := st.pop(); got != *one {
		t.Fatalf("pop 3: got %v, want %v", got, one)
	}
	if st.len() != 0 {
		t.Fatalf("stack not empty after draining: len=%d", st.len())
	}
}

func TestStackSwapAndDup(t *testing.T) {
	st := newstack()
	defer returnStack(st)

	st.push(uint256.NewInt(1))
	st.push(uint256.NewInt(2))

	st.swap1()
	if got := st.peek(); !got.Eq(uint256.NewInt(1)) {
		t.Fatalf("swap1: top is %v, want 1", got)
	}

	st.dup(2)
	if st.len() != 3 {
		t.Fatalf("dup: len=%d, want 3", st.len())
	}
	if got := st.peek(); !got.Eq(uint256.NewInt(2)) {
		t.Fatalf("dup: top is %v, want 2", got)
	}
}

func TestStackBack(t *testing.T) {
	st := newstack()
	defer returnStack(st)

	st.push(uint256.NewInt(10))
	st.push(uint256.NewInt(20))
	st.push(uint256.NewInt(30))

	if got := st.Back(0); !got.Eq(uint256.NewInt(30)) {
		t.Fatalf("Back(0) = %v, want 30", got)
	}
	if got := st.Back(2); !got.Eq(uint256.NewInt(10)) {
		t.Fatalf("Back(2) = %v, want 10", got)
	}
}

func TestStackRequireUnderflow(t *testing.T) {
	st := newstack()
	defer returnStack(st)

	st.push(uint256.NewInt(1))
	if err := st.require(2); err == nil {
		t.Fatal("require(2) on a 1-deep stack: want ErrStackUnderflow, got nil")
	}
	if err := st.require(1); err != nil {
		t.Fatalf("require(1) on a 1-deep stack: want nil, got %v", err)
	}
}
