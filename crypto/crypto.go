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

// Package crypto wraps the Keccak256 hash used by the SHA3 opcode and by
// CREATE/CREATE2 address derivation. Signature recovery, the other half of
// the teacher's crypto package, belongs to the transaction decoder (out of
// scope per spec.md §1) and is not reproduced here.
package crypto

import (
	"hash"

	"github.com/evmforge/corevm/common"
	"golang.org/x/crypto/sha3"
)

// KeccakState wraps sha3.state and adds a Read method, mirroring the
// teacher's crypto.KeccakState so the interpreter can reuse one hasher across
// SHA3 opcode invocations instead of allocating one per call.
type KeccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

// NewKeccakState creates a new KeccakState.
func NewKeccakState() KeccakState {
	return sha3.NewLegacyKeccak256().(KeccakState)
}

// HashData hashes the provided data using the KeccakState and returns a 32
// byte hash.
func HashData(kh KeccakState, data []byte) (h common.Hash) {
	kh.Reset()
	kh.Write(data)
	kh.Read(h[:])
	return h
}

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	b := make([]byte, 32)
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.(KeccakState).Read(b)
	return b
}

// Keccak256Hash calculates and returns the Keccak256 hash of the input data,
// converting it to an internal Hash data structure.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := sha3.NewLegacyKeccak256().(KeccakState)
	for _, b := range data {
		d.Write(b)
	}
	d.Read(h[:])
	return h
}

// CreateAddress creates an Ethereum address given the bytes and the nonce,
// per Yellow Paper eq. 75: the CREATE address derivation.
func CreateAddress(b common.Address, nonce uint64) common.Address {
	data := rlpEncodeCreate(b, nonce)
	return common.BytesToAddress(Keccak256(data)[12:])
}

// CreateAddress2 creates an Ethereum address given the address, salt and code
// hash, per EIP-1014 (CREATE2): keccak256(0xff ++ sender ++ salt ++
// keccak256(init_code))[12:].
func CreateAddress2(b common.Address, salt common.Hash, inithash []byte) common.Address {
	data := make([]byte, 0, 1+common.AddressLength+common.HashLength+common.HashLength)
	data = append(data, 0xff)
	data = append(data, b.Bytes()...)
	data = append(data, salt.Bytes()...)
	data = append(data, Keccak256(inithash)...)
	return common.BytesToAddress(Keccak256(data)[12:])
}

// rlpEncodeCreate builds the minimal two-element RLP list [address, nonce]
// used by CREATE address derivation. A full RLP codec belongs to the
// transaction/block encoder out of scope per spec.md §1; this is the single
// fixed-shape encoding the core itself needs.
func rlpEncodeCreate(addr common.Address, nonce uint64) []byte {
	nonceBytes := encodeUint(nonce)
	addrItem := rlpBytes(addr.Bytes())
	nonceItem := rlpBytes(nonceBytes)
	payload := append(append([]byte{}, addrItem...), nonceItem...)
	return append(rlpListHeader(len(payload)), payload...)
}

func encodeUint(n uint64) []byte {
	if n == 0 {
		return nil
	}
	var b [8]byte
	i := 8
	for n > 0 {
		i--
		b[i] = byte(n)
		n >>= 8
	}
	return b[i:]
}

func rlpBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	if len(b) < 56 {
		return append([]byte{0x80 + byte(len(b))}, b...)
	}
	lenBytes := encodeUint(uint64(len(b)))
	return append(append([]byte{0xb7 + byte(len(lenBytes))}, lenBytes...), b...)
}

func rlpListHeader(payloadLen int) []byte {
	if payloadLen < 56 {
		return []byte{0xc0 + byte(payloadLen)}
	}
	lenBytes := encodeUint(uint64(payloadLen))
	return append([]byte{0xf7 + byte(len(lenBytes))}, lenBytes...)
}
