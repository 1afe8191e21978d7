package executor

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/evmforge/corevm/common"
	"github.com/evmforge/corevm/core/state"
	"github.com/evmforge/corevm/core/vm"
	"github.com/evmforge/corevm/params"
)

// dumpBackendOnFailure logs a full struct dump of backend once the test has
// already failed, the way larger go-ethereum test suites use go-spew to show
// exactly which field of a mismatched state diverged rather than just the
// top-level require.Equal message.
func dumpBackendOnFailure(t *testing.T, backend *memBackend) {
	t.Helper()
	if t.Failed() {
		t.Logf("backend state at failure:\n%s", spew.Sdump(backend))
	}
}

// memBackend is a minimal in-memory Backend + Applyable, standing in for a
// real trie/database per spec.md §1's explicit exclusion of storage
// backends from this core. It is deliberately tiny: enough to drive the
// executor end to end, not a general-purpose test double.
type memBackend struct {
	basics   map[common.Address]state.Basic
	code     map[common.Address][]byte
	storage  map[common.Address]map[common.Hash]common.Hash
	coinbase common.Address
	number   uint64
	gasLimit uint64
	baseFee  *uint256.Int
	chainID  *uint256.Int
}

func newMemBackend() *memBackend {
	return &memBackend{
		basics:  make(map[common.Address]state.Basic),
		code:    make(map[common.Address][]byte),
		storage: make(map[common.Address]map[common.Hash]common.Hash),
		chainID: uint256.NewInt(1),
	}
}

func (b *memBackend) Basic(addr common.Address) state.Basic {
	if acc, ok := b.basics[addr]; ok {
		return acc
	}
	return state.Basic{Balance: new(uint256.Int)}
}
func (b *memBackend) Code(addr common.Address) []byte         { return b.code[addr] }
func (b *memBackend) CodeHash(addr common.Address) common.Hash { return common.Hash{} }
func (b *memBackend) Storage(addr common.Address, key common.Hash) common.Hash {
	return b.storage[addr][key]
}
func (b *memBackend) OriginalStorage(addr common.Address, key common.Hash) common.Hash {
	return b.storage[addr][key]
}
func (b *memBackend) BlockHash(n uint64) common.Hash          { return common.Hash{} }
func (b *memBackend) BlockNumber() uint64                     { return b.number }
func (b *memBackend) BlockCoinbase() common.Address           { return b.coinbase }
func (b *memBackend) BlockTimestamp() uint64                  { return 0 }
func (b *memBackend) BlockDifficulty() *uint256.Int           { return new(uint256.Int) }
func (b *memBackend) BlockRandom() common.Hash                { return common.Hash{} }
func (b *memBackend) BlockGasLimit() uint64                   { return b.gasLimit }
func (b *memBackend) ChainID() *uint256.Int                   { return b.chainID }
func (b *memBackend) BaseFee() *uint256.Int                   { return b.baseFee }

func (b *memBackend) Apply(modifies []state.Modify, deletes []common.Address, logs []state.LogRecord) error {
	for _, m := range modifies {
		b.basics[m.Address] = m.Basic
		if m.CodeSet {
			b.code[m.Address] = m.Code
		}
		if m.ResetStorage {
			b.storage[m.Address] = make(map[common.Hash]common.Hash)
		}
		if len(m.Storage) > 0 {
			if b.storage[m.Address] == nil {
				b.storage[m.Address] = make(map[common.Hash]common.Hash)
			}
			for _, d := range m.Storage {
				b.storage[m.Address][d.Key] = d.Value
			}
		}
	}
	for _, addr := range deletes {
		delete(b.basics, addr)
		delete(b.code, addr)
		delete(b.storage, addr)
	}
	return nil
}

func londonPatch() *params.Patch {
	return params.NewPatch(params.LondonConfig.Rules(big.NewInt(1)))
}

var sender = common.BytesToAddress([]byte{0x01})

func baseHeader() *Header {
	return &Header{
		Coinbase: common.BytesToAddress([]byte{0xc0}),
		Number:   1,
		GasLimit: 30_000_000,
		BaseFee:  uint256.NewInt(1),
	}
}

// TestSimpleArithmeticCall exercises spec.md §8 scenario S1: PUSH1 PUSH1 ADD
// PUSH1 MSTORE PUSH1 PUSH1 RETURN against a fresh account, asserting total
// gas_used rather than the spec's own (slightly approximate) op-by-op
// breakdown — see DESIGN.md for why.
func TestSimpleArithmeticCall(t *testing.T) {
	backend := newMemBackend()
	backend.basics[sender] = state.Basic{Balance: uint256.NewInt(1_000_000_000)}

	target := common.BytesToAddress([]byte{0x02})
	// PUSH1 3, PUSH1 4, ADD, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	code := []byte{
		0x60, 0x03,
		0x60, 0x04,
		0x01,
		0x60, 0x00,
		0x52,
		0x60, 0x20,
		0x60, 0x00,
		0xf3,
	}
	backend.code[target] = code

	tx := &Transaction{
		Caller:   sender,
		Action:   ActionCall,
		To:       target,
		Value:    new(uint256.Int),
		GasPrice: uint256.NewInt(1),
		GasLimit: 100_000,
	}
	result, err := Execute(tx, baseHeader(), Config{Patch: londonPatch(), Backend: backend})
	require.NoError(t, err)
	require.Equal(t, vm.ExitSucceed, result.ExitReason)
	require.Equal(t, uint64(21024), result.GasUsed)

	word := make([]byte, 32)
	word[31] = 7
	require.Equal(t, word, result.Output)
}

// TestOutOfGasConsumesAllGas covers spec.md §8 scenario S2: a call given gas
// for only its first opcode runs out on the second, burns its entire
// allowance and reports an Error exit, not Fatal.
func TestOutOfGasConsumesAllGas(t *testing.T) {
	backend := newMemBackend()
	backend.basics[sender] = state.Basic{Balance: uint256.NewInt(1_000_000_000)}

	target := common.BytesToAddress([]byte{0x02})
	backend.code[target] = []byte{0x60, 0x01, 0x60, 0x01, 0x01} // PUSH1 1 PUSH1 1 ADD

	tx := &Transaction{
		Caller:   sender,
		Action:   ActionCall,
		To:       target,
		Value:    new(uint256.Int),
		GasPrice: uint256.NewInt(1),
		GasLimit: params.TxGas + 3, // intrinsic + just enough for one PUSH
	}
	result, err := Execute(tx, baseHeader(), Config{Patch: londonPatch(), Backend: backend})
	require.NoError(t, err)
	require.Equal(t, vm.ExitError, result.ExitReason)
	require.Equal(t, "OutOfGas", result.ErrorKind)
	require.Equal(t, tx.GasLimit, result.GasUsed)
}

// TestRevertIsolatesInnerStateButKeepsPreamble covers spec.md §8 scenario S3:
// a REVERTing call leaves the sender debited and nonce bumped (preamble
// effects survive) while the callee's own writes vanish.
func TestRevertIsolatesInnerStateButKeepsPreamble(t *testing.T) {
	backend := newMemBackend()
	backend.basics[sender] = state.Basic{Balance: uint256.NewInt(1_000_000_000)}

	target := common.BytesToAddress([]byte{0x02})
	// PUSH1 1 PUSH1 0 SSTORE PUSH1 0 PUSH1 0 REVERT
	backend.code[target] = []byte{
		0x60, 0x01,
		0x60, 0x00,
		0x55,
		0x60, 0x00,
		0x60, 0x00,
		0xfd,
	}

	tx := &Transaction{
		Caller:   sender,
		Action:   ActionCall,
		To:       target,
		Value:    new(uint256.Int),
		GasPrice: uint256.NewInt(1),
		GasLimit: 100_000,
		Nonce:    0,
	}
	result, err := Execute(tx, baseHeader(), Config{Patch: londonPatch(), Backend: backend})
	defer dumpBackendOnFailure(t, backend)
	require.NoError(t, err)
	require.Equal(t, vm.ExitRevert, result.ExitReason)

	require.Equal(t, uint64(1), backend.basics[sender].Nonce)
	require.Equal(t, common.Hash{}, backend.storage[target][common.Hash{}])
}

// TestCreateDeploysCodeAndBumpsNonceOnce covers spec.md §8 scenario S4: a
// successful CREATE deploys code to the derived address and the sender's
// nonce advances exactly once (not twice, despite the preamble skipping the
// Call-only bump specifically so EVM.Create's own bump is the only one).
func TestCreateDeploysCodeAndBumpsNonceOnce(t *testing.T) {
	backend := newMemBackend()
	backend.basics[sender] = state.Basic{Balance: uint256.NewInt(1_000_000_000)}

	// init code: PUSH1 1 PUSH1 0 MSTORE PUSH1 1 PUSH1 31 RETURN (returns one
	// byte of runtime code: 0x01 == ADD is arbitrary, any single byte will do)
	initCode := []byte{
		0x60, 0x01,
		0x60, 0x00,
		0x52,
		0x60, 0x01,
		0x60, 0x1f,
		0xf3,
	}

	tx := &Transaction{
		Caller:   sender,
		Action:   ActionCreate,
		Value:    new(uint256.Int),
		GasPrice: uint256.NewInt(1),
		GasLimit: 200_000,
		Input:    initCode,
		Nonce:    0,
	}
	result, err := Execute(tx, baseHeader(), Config{Patch: londonPatch(), Backend: backend})
	require.NoError(t, err)
	require.Equal(t, vm.ExitSucceed, result.ExitReason)
	require.NotNil(t, result.CreatedAddress)
	require.Equal(t, uint64(1), backend.basics[sender].Nonce)
	require.Equal(t, []byte{0x01}, backend.code[*result.CreatedAddress])
}

// TestNonceTooLowRejectsBeforeAnyStateChange covers spec.md §7's
// transaction-level rejection: the sender's balance must be untouched.
func TestNonceTooLowRejectsBeforeAnyStateChange(t *testing.T) {
	backend := newMemBackend()
	backend.basics[sender] = state.Basic{Nonce: 5, Balance: uint256.NewInt(1_000_000_000)}

	tx := &Transaction{
		Caller:   sender,
		Action:   ActionCall,
		To:       common.BytesToAddress([]byte{0x02}),
		Value:    new(uint256.Int),
		GasPrice: uint256.NewInt(1),
		GasLimit: params.TxGas,
		Nonce:    3,
	}
	result, err := Execute(tx, baseHeader(), Config{Patch: londonPatch(), Backend: backend})
	require.Nil(t, result)
	require.ErrorIs(t, err, ErrNonceTooLow)
	require.Equal(t, uint64(1_000_000_000), backend.basics[sender].Balance.Uint64())
}

// TestCoinbaseReceivesOnlyTipUnderEIP1559 covers spec.md §8 invariant 2: the
// base-fee portion of the gas price is burned, and the coinbase only
// receives the tip above it.
func TestCoinbaseReceivesOnlyTipUnderEIP1559(t *testing.T) {
	backend := newMemBackend()
	backend.basics[sender] = state.Basic{Balance: uint256.NewInt(1_000_000_000)}

	header := baseHeader()
	header.BaseFee = uint256.NewInt(1)

	tx := &Transaction{
		Caller:   sender,
		Action:   ActionCall,
		To:       common.BytesToAddress([]byte{0x02}), // no code: pure transfer
		Value:    new(uint256.Int),
		GasPrice: uint256.NewInt(3), // tip = 2
		GasLimit: params.TxGas,
	}
	result, err := Execute(tx, header, Config{Patch: londonPatch(), Backend: backend})
	require.NoError(t, err)
	require.Equal(t, vm.ExitSucceed, result.ExitReason)

	wantTip := new(uint256.Int).Mul(uint256.NewInt(2), uint256.NewInt(result.GasUsed))
	require.Equal(t, wantTip.Uint64(), backend.basics[header.Coinbase].Balance.Uint64())
}

func TestIntrinsicGasChargesInitCodeWordsForCreate(t *testing.T) {
	patch := londonPatch()
	patch.MaxInitCodeSize = params.MaxInitCodeSize // simulate Shanghai-or-later activation

	data := make([]byte, 64) // exactly 2 words, all zero bytes
	gas := IntrinsicGas(data, true, patch)
	require.Equal(t, params.TxGasContractCreation+64*params.TxDataZeroGas+2*params.InitCodeWordGas, gas)
}
