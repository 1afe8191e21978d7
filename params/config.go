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

import "math/big"

// ChainConfig names the block numbers at which each hard fork's rules take
// effect. It is the persistent, human-edited configuration; Rules (and the
// derived Patch, see patch.go) is the resolved snapshot the core actually
// consults for a given block, following the teacher's own split between
// ChainConfig (config) and Rules (derived, per-block booleans).
type ChainConfig struct {
	ChainID *big.Int

	HomesteadBlock      *big.Int
	EIP150Block         *big.Int // Tangerine Whistle
	EIP158Block         *big.Int // Spurious Dragon
	ByzantiumBlock      *big.Int
	ConstantinopleBlock *big.Int
	PetersburgBlock     *big.Int
	IstanbulBlock       *big.Int
	BerlinBlock         *big.Int
	LondonBlock         *big.Int
	MergeBlock          *big.Int
	ShanghaiBlock       *big.Int
	CancunBlock         *big.Int
}

func isBlockActive(fork *big.Int, num *big.Int) bool {
	return fork != nil && num != nil && fork.Cmp(num) <= 0
}

// Rules is a snapshot of which fork rules apply at a given block number,
// computed once per transaction from a ChainConfig the way the teacher's
// ChainConfig.Rules(blockNumber) does.
type Rules struct {
	ChainID                                                 *big.Int
	IsHomestead, IsEIP150, IsEIP158                          bool
	IsByzantium, IsConstantinople, IsPetersburg, IsIstanbul  bool
	IsBerlin, IsLondon, IsMerge, IsShanghai, IsCancun         bool
}

// Rules computes the fork-activation snapshot for blockNumber.
func (c *ChainConfig) Rules(blockNumber *big.Int) Rules {
	return Rules{
		ChainID:          c.ChainID,
		IsHomestead:      isBlockActive(c.HomesteadBlock, blockNumber),
		IsEIP150:         isBlockActive(c.EIP150Block, blockNumber),
		IsEIP158:         isBlockActive(c.EIP158Block, blockNumber),
		IsByzantium:      isBlockActive(c.ByzantiumBlock, blockNumber),
		IsConstantinople: isBlockActive(c.ConstantinopleBlock, blockNumber),
		IsPetersburg:     isBlockActive(c.PetersburgBlock, blockNumber),
		IsIstanbul:       isBlockActive(c.IstanbulBlock, blockNumber),
		IsBerlin:         isBlockActive(c.BerlinBlock, blockNumber),
		IsLondon:         isBlockActive(c.LondonBlock, blockNumber),
		IsMerge:          isBlockActive(c.MergeBlock, blockNumber),
		IsShanghai:       isBlockActive(c.ShanghaiBlock, blockNumber),
		IsCancun:         isBlockActive(c.CancunBlock, blockNumber),
	}
}

// MaxInitCodeSizeFor returns the EIP-3860 init-code size cap, or no cap (as a
// very large sentinel) before Shanghai.
func (c *ChainConfig) MaxInitCodeSizeFor(r Rules) uint64 {
	if r.IsShanghai {
		return MaxInitCodeSize
	}
	return 1<<63 - 1
}

func big64(n uint64) *big.Int { return new(big.Int).SetUint64(n) }

// Named ChainConfig presets, mirroring the teacher's MainnetChainConfig /
// TestChainConfig pattern — one per historical network upgrade boundary, so
// tests can select a patch by name instead of hand-building block numbers.
var (
	FrontierConfig = &ChainConfig{ChainID: big.NewInt(1)}

	HomesteadConfig = &ChainConfig{
		ChainID:        big.NewInt(1),
		HomesteadBlock: big64(0),
	}

	TangerineWhistleConfig = &ChainConfig{
		ChainID:        big.NewInt(1),
		HomesteadBlock: big64(0),
		EIP150Block:    big64(0),
	}

	SpuriousDragonConfig = &ChainConfig{
		ChainID:        big.NewInt(1),
		HomesteadBlock: big64(0),
		EIP150Block:    big64(0),
		EIP158Block:    big64(0),
	}

	ByzantiumConfig = &ChainConfig{
		ChainID:        big.NewInt(1),
		HomesteadBlock: big64(0),
		EIP150Block:    big64(0),
		EIP158Block:    big64(0),
		ByzantiumBlock: big64(0),
	}

	ConstantinopleConfig = &ChainConfig{
		ChainID:             big.NewInt(1),
		HomesteadBlock:      big64(0),
		EIP150Block:         big64(0),
		EIP158Block:         big64(0),
		ByzantiumBlock:      big64(0),
		ConstantinopleBlock: big64(0),
		// Petersburg deliberately left unset: Constantinople alone exercises
		// the (buggy, superseded) EIP-1283 rules.
	}

	PetersburgConfig = &ChainConfig{
		ChainID:             big.NewInt(1),
		HomesteadBlock:      big64(0),
		EIP150Block:         big64(0),
		EIP158Block:         big64(0),
		ByzantiumBlock:      big64(0),
		ConstantinopleBlock: big64(0),
		PetersburgBlock:     big64(0),
	}

	IstanbulConfig = &ChainConfig{
		ChainID:             big.NewInt(1),
		HomesteadBlock:      big64(0),
		EIP150Block:         big64(0),
		EIP158Block:         big64(0),
		ByzantiumBlock:      big64(0),
		ConstantinopleBlock: big64(0),
		PetersburgBlock:     big64(0),
		IstanbulBlock:       big64(0),
	}

	BerlinConfig = &ChainConfig{
		ChainID:             big.NewInt(1),
		HomesteadBlock:      big64(0),
		EIP150Block:         big64(0),
		EIP158Block:         big64(0),
		ByzantiumBlock:      big64(0),
		ConstantinopleBlock: big64(0),
		PetersburgBlock:     big64(0),
		IstanbulBlock:       big64(0),
		BerlinBlock:         big64(0),
	}

	LondonConfig = &ChainConfig{
		ChainID:             big.NewInt(1),
		HomesteadBlock:      big64(0),
		EIP150Block:         big64(0),
		EIP158Block:         big64(0),
		ByzantiumBlock:      big64(0),
		ConstantinopleBlock: big64(0),
		PetersburgBlock:     big64(0),
		IstanbulBlock:       big64(0),
		BerlinBlock:         big64(0),
		LondonBlock:         big64(0),
	}

	MergeConfig = &ChainConfig{
		ChainID:             big.NewInt(1),
		HomesteadBlock:      big64(0),
		EIP150Block:         big64(0),
		EIP158Block:         big64(0),
		ByzantiumBlock:      big64(0),
		ConstantinopleBlock: big64(0),
		PetersburgBlock:     big64(0),
		IstanbulBlock:       big64(0),
		BerlinBlock:         big64(0),
		LondonBlock:         big64(0),
		MergeBlock:          big64(0),
	}

	ShanghaiConfig = &ChainConfig{
		ChainID:             big.NewInt(1),
		HomesteadBlock:      big64(0),
		EIP150Block:         big64(0),
		EIP158Block:         big64(0),
		ByzantiumBlock:      big64(0),
		ConstantinopleBlock: big64(0),
		PetersburgBlock:     big64(0),
		IstanbulBlock:       big64(0),
		BerlinBlock:         big64(0),
		LondonBlock:         big64(0),
		MergeBlock:          big64(0),
		ShanghaiBlock:       big64(0),
	}

	CancunConfig = &ChainConfig{
		ChainID:             big.NewInt(1),
		HomesteadBlock:      big64(0),
		EIP150Block:         big64(0),
		EIP158Block:         big64(0),
		ByzantiumBlock:      big64(0),
		ConstantinopleBlock: big64(0),
		PetersburgBlock:     big64(0),
		IstanbulBlock:       big64(0),
		BerlinBlock:         big64(0),
		LondonBlock:         big64(0),
		MergeBlock:          big64(0),
		ShanghaiBlock:       big64(0),
		CancunBlock:         big64(0),
	}
)
