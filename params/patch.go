// Copyright 2016 The go-ethereum Authors
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

package params

import "github.com/evmforge/corevm/common"

// SStoreVariant selects the SSTORE pricing/refund rule-set to apply, per
// spec.md §4.D. The gasometer dispatches on this value instead of branching
// on individual fork booleans at each call site — "the selection is a datum
// of the patch, not code branches at call sites" (spec.md §4.D).
type SStoreVariant int

const (
	// SStoreFrontier charges a flat 20000/5000 based on (current, new) only.
	SStoreFrontier SStoreVariant = iota
	// SStoreEIP1283 introduces net-metering keyed on (original, current, new)
	// but without the EIP-2200 reentrancy sentry (Constantinople only — this
	// variant was live for a few weeks before being rolled back by
	// Petersburg, which reverts a patch to SStoreFrontier).
	SStoreEIP1283
	// SStoreEIP2200 is EIP-1283's net-metering plus the 2300-gas reentrancy
	// sentry (Istanbul).
	SStoreEIP2200
	// SStoreEIP2929 folds in the Berlin cold/warm access-list surcharge on
	// top of EIP-2200's net-metering.
	SStoreEIP2929
)

// Patch is the versioned rule bundle of spec.md §4.I: a plain value, never a
// code branch target. Every per-opcode decision that varies across forks —
// pricing, availability, behaviour flags — reads from a Patch.
type Patch struct {
	Rules Rules

	SStoreVariant SStoreVariant

	// RefundQuotient caps total_refund at gas_used/RefundQuotient (spec.md
	// §4.G finalisation; §9 "refund quotient").
	RefundQuotient uint64

	// SstoreClearsScheduleRefund is the refund granted for clearing a slot
	// to zero: 15000 pre EIP-3529, 4800 from London onward.
	SstoreClearsScheduleRefund uint64

	// EIP150 enables the "all but one 64th" (63/64) rule for sub-call gas
	// forwarding (spec.md §4.D "The 63/64 rule").
	EIP150 bool

	// CallStipend is added to a value-carrying CALL's child budget.
	CallStipend uint64

	// EIP158NewAccountCheck switches CALL/SELFDESTRUCT new-account detection
	// to the post EIP-161 "is the account empty" rule instead of "does it
	// exist".
	EIP158NewAccountCheck bool

	MaxCodeSize     uint64
	MaxInitCodeSize uint64 // spec.md §9 open question: EIP-3860 init-code cap.

	// Opcode availability flags, spec.md §4.I.
	HasSHL            bool // Constantinople, EIP-145
	HasCreate2        bool // Constantinople, EIP-1014
	HasExtCodeHash    bool // Constantinople, EIP-1052
	HasChainID        bool // Istanbul, EIP-1344
	HasSelfBalance    bool // Istanbul, EIP-1884
	HasReturnData     bool // Byzantium, EIP-211 (RETURNDATASIZE/RETURNDATACOPY)
	HasRevert         bool // Byzantium, EIP-140
	HasStaticCall     bool // Byzantium, EIP-214
	HasAccessList     bool // Berlin, EIP-2929/2930
	HasBaseFee        bool // London, EIP-3198 (BASEFEE opcode)
	HasPush0          bool // Shanghai, EIP-3855
	HasTransientStore bool // Cancun, EIP-1153 (TLOAD/TSTORE)
	HasMCopy          bool // Cancun, EIP-5656

	// ExpByteCost is the per-exponent-byte cost of EXP: 10 pre EIP-160, 50
	// from Spurious Dragon onward (spec.md §4.A/§9 open question).
	ExpByteCost uint64

	// Precompiles lists the addresses dispatched to a native implementation
	// ahead of bytecode interpretation (spec.md §4.G, §9 open question:
	// "Precompile addresses and their pricing per fork are part of the
	// patch"). The core only dispatches by address; the contract
	// implementations live with the precompile package, out of scope.
	Precompiles map[common.Address]struct{}
}

func newPrecompileSet(addrs ...byte) map[common.Address]struct{} {
	set := make(map[common.Address]struct{}, len(addrs))
	for _, b := range addrs {
		var a common.Address
		a[19] = b
		set[a] = struct{}{}
	}
	return set
}

// NewPatch resolves the Patch datum for a Rules snapshot, the way the
// teacher's NewEVMInterpreter resolves a jump table from chainRules — but
// collected into one value instead of a chain of if/else at every
// consultation site.
func NewPatch(r Rules) *Patch {
	p := &Patch{
		Rules:           r,
		MaxCodeSize:     MaxCodeSize,
		MaxInitCodeSize: 1<<63 - 1,
		ExpByteCost:     ExpByteFrontier,
		RefundQuotient:  RefundQuotient,
	}

	switch {
	case r.IsIstanbul:
		p.SStoreVariant = SStoreEIP2200
	case r.IsPetersburg:
		p.SStoreVariant = SStoreFrontier
	case r.IsConstantinople:
		p.SStoreVariant = SStoreEIP1283
	default:
		p.SStoreVariant = SStoreFrontier
	}
	if r.IsBerlin {
		p.SStoreVariant = SStoreEIP2929
	}

	p.EIP150 = r.IsEIP150
	p.EIP158NewAccountCheck = r.IsEIP158
	if r.IsEIP158 {
		p.ExpByteCost = ExpByteEIP158
	}
	p.CallStipend = CallStipend

	p.HasCreate2 = r.IsConstantinople
	p.HasSHL = r.IsConstantinople
	p.HasExtCodeHash = r.IsConstantinople
	p.HasChainID = r.IsIstanbul
	p.HasSelfBalance = r.IsIstanbul
	p.HasReturnData = r.IsByzantium
	p.HasRevert = r.IsByzantium
	p.HasStaticCall = r.IsByzantium
	p.HasAccessList = r.IsBerlin
	p.HasBaseFee = r.IsLondon
	p.HasPush0 = r.IsShanghai
	p.HasTransientStore = r.IsCancun
	p.HasMCopy = r.IsCancun

	p.SstoreClearsScheduleRefund = SstoreClearsScheduleRefundEIP2200
	p.RefundQuotient = RefundQuotient
	if r.IsLondon {
		p.SstoreClearsScheduleRefund = SstoreClearsScheduleRefundEIP3529
		p.RefundQuotient = RefundQuotientEIP3529
	}

	if r.IsShanghai {
		p.MaxInitCodeSize = MaxInitCodeSize
	}

	p.Precompiles = newPrecompileSet(1, 2, 3, 4) // ecrecover, sha256, ripemd160, identity
	if r.IsByzantium {
		p.Precompiles = newPrecompileSet(1, 2, 3, 4, 5, 6, 7, 8) // + modexp, bn256 add/mul/pairing
	}
	if r.IsIstanbul {
		p.Precompiles = newPrecompileSet(1, 2, 3, 4, 5, 6, 7, 8, 9) // + blake2f
	}

	return p
}
