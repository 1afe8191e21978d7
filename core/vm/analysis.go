// Copyright 2017 The go-ethereum Authors
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
	"github.com/VictoriaMetrics/fastcache"
)

// bitvec is a bit vector marking, for each code offset, whether that offset
// is a byte of a PUSH's immediate data (1) or an opcode position (0).
// JUMPDEST validity consults this instead of re-scanning the code on every
// JUMP/JUMPI.
type bitvec []byte

func (bits bitvec) set(pos uint64) {
	bits[pos/8] |= 0x80 >> (pos % 8)
}

// codeSegment reports whether pos is an opcode position (its bit is clear).
func (bits bitvec) codeSegment(pos uint64) bool {
	return (bits[pos/8] & (0x80 >> (pos % 8))) == 0
}

// codeBitmap computes the bitvec for code: the bytes of every PUSH
// instruction's immediate data are set; every other offset is left clear
// and so reads as a code position.
func codeBitmap(code []byte) bitvec {
	bits := make(bitvec, len(code)/8+1+4)
	for pc := uint64(0); pc < uint64(len(code)); {
		op := OpCode(code[pc])
		if op.IsPush() {
			numbits := uint64(op - PUSH1 + 1)
			pc++
			for ; numbits >= 8; numbits -= 8 {
				bits.set(pc)
				bits.set(pc + 1)
				bits.set(pc + 2)
				bits.set(pc + 3)
				bits.set(pc + 4)
				bits.set(pc + 5)
				bits.set(pc + 6)
				bits.set(pc + 7)
				pc += 8
			}
			for ; numbits > 0; numbits-- {
				bits.set(pc)
				pc++
			}
			continue
		}
		pc++
	}
	return bits
}

// codeAnalysisCache memoizes codeBitmap by code hash across the lifetime of
// one EVM instance, following the teacher's use of fastcache as a bounded,
// allocation-light cache for exactly this kind of "derived from immutable
// code" data. Keyed by the 32-byte code hash so two contracts sharing
// bytecode (a common case for proxies and factory-deployed clones) analyze
// the code only once.
type codeAnalysisCache struct {
	cache *fastcache.Cache
}

func newCodeAnalysisCache(maxBytes int) *codeAnalysisCache {
	return &codeAnalysisCache{cache: fastcache.New(maxBytes)}
}

func (c *codeAnalysisCache) bitmap(codeHash [32]byte, code []byte) bitvec {
	if raw, ok := c.cache.HasGet(nil, codeHash[:]); ok {
		return bitvec(raw)
	}
	bits := codeBitmap(code)
	c.cache.Set(codeHash[:], bits)
	return bits
}
