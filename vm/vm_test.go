package vm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/storage"
	"github.com/colorfulnotion/fvm/tx"
	"github.com/colorfulnotion/fvm/types"
)

const testGasLimit = 1_000_000

func checkTx(t *testing.T, transaction *tx.Transaction) *tx.Checked {
	t.Helper()
	checked, err := tx.Check(transaction, types.DefaultParams(), 0)
	require.NoError(t, err)
	return checked
}

// runScript drives a transaction through a fresh transactor and returns the
// transition plus the machine for register inspection.
func runScript(t *testing.T, store storage.Store, transaction *tx.Transaction) (*StateTransition, *Interpreter) {
	t.Helper()
	transactor := NewTransactor(store, types.DefaultParams(), nil)
	st, err := transactor.Transact(checkTx(t, transaction))
	require.NoError(t, err)
	return st, transactor.Interpreter()
}

func TestReturnOne(t *testing.T) {
	script := asm.Program(asm.Ret(types.RegOne))
	st, machine := runScript(t, storage.NewMemoryStore(),
		tx.Script(script, nil, 100))

	assert.Equal(t, KindReturn, st.State.Kind)
	assert.Equal(t, types.Word(1), st.State.Value)

	var returns int
	for _, r := range st.Receipts {
		if r.Type == types.ReceiptReturn {
			returns++
		}
	}
	assert.Equal(t, 1, returns)
	last := st.Receipts[len(st.Receipts)-1]
	assert.Equal(t, types.ReceiptScriptResult, last.Type)
	assert.Equal(t, types.ScriptSuccess, last.Status)
	assert.Empty(t, machine.Frames())
}

func TestHeapAllocWriteRead(t *testing.T) {
	// allocate 8 bytes of heap, write a word, read it back
	script := asm.Program(
		asm.Movi(0x10, 8),
		asm.Aloc(0x10),
		asm.Move(0x11, types.RegHP),
		asm.Movi(0x12, 1234),
		asm.Sw(0x11, 0x12, 0),
		asm.Lw(0x13, 0x11, 0),
		asm.Ret(0x13),
	)
	st, _ := runScript(t, storage.NewMemoryStore(), tx.Script(script, nil, testGasLimit))

	assert.Equal(t, KindReturn, st.State.Kind)
	assert.Equal(t, types.Word(1234), st.State.Value)
	for _, r := range st.Receipts {
		assert.NotEqual(t, types.ReceiptPanic, r.Type)
	}
}

func TestRevert(t *testing.T) {
	script := asm.Program(asm.Rvrt(types.RegOne))
	st, _ := runScript(t, storage.NewMemoryStore(), tx.Script(script, nil, testGasLimit))

	assert.Equal(t, KindRevert, st.State.Kind)
	assert.Equal(t, types.Word(1), st.State.Value)
	require.Len(t, st.Receipts, 2)
	assert.Equal(t, types.ReceiptRevert, st.Receipts[0].Type)
	assert.Equal(t, types.ScriptRevert, st.Receipts[1].Status)
}

func TestOutOfGasZeroesBudget(t *testing.T) {
	// three ADDs at cost 5 against a budget of 12: the third charge halts
	script := asm.Program(
		asm.Add(0x10, types.RegOne, types.RegOne),
		asm.Add(0x10, 0x10, types.RegOne),
		asm.Add(0x10, 0x10, types.RegOne),
		asm.Ret(0x10),
	)
	machine := NewInterpreter(storage.NewMemoryStore(), types.DefaultParams(), nil)
	require.NoError(t, machine.InitScript(checkTx(t, tx.Script(script, nil, 12))))

	_, err := machine.Run()
	pe, ok := AsPanic(err)
	require.True(t, ok)
	assert.Equal(t, asm.OutOfGas, pe.Desc.Reason)
	assert.Equal(t, types.Word(0), machine.Register(types.RegGGas))
	assert.Equal(t, types.Word(0), machine.Register(types.RegCGas))
	assert.Equal(t, types.Word(12), machine.GasUsed())
}

func TestReservedRegisterNotWritable(t *testing.T) {
	for _, id := range []types.RegisterID{
		types.RegZero, types.RegOne, types.RegPC, types.RegSP, types.RegFlag,
	} {
		script := asm.Program(asm.Add(id, types.RegOne, types.RegOne))
		machine := NewInterpreter(storage.NewMemoryStore(), types.DefaultParams(), nil)
		require.NoError(t, machine.InitScript(checkTx(t, tx.Script(script, nil, testGasLimit))))

		_, err := machine.Run()
		pe, ok := AsPanic(err)
		require.True(t, ok, "register %#x", id)
		assert.Equal(t, asm.ReservedRegisterNotWritable, pe.Desc.Reason)
	}
}

func TestMemoryOverflowLeavesMemoryUntouched(t *testing.T) {
	script := asm.Program(
		asm.Not(0x10, types.RegZero), // max word
		asm.Sb(0x10, types.RegOne, 0),
	)
	machine := NewInterpreter(storage.NewMemoryStore(), types.DefaultParams(), nil)
	require.NoError(t, machine.InitScript(checkTx(t, tx.Script(script, nil, testGasLimit))))
	top := machine.Register(types.RegSSP)
	snapshot := make([]byte, 64)
	copy(snapshot, machine.Memory()[top:top+64])

	_, err := machine.Run()
	pe, ok := AsPanic(err)
	require.True(t, ok)
	assert.Equal(t, asm.MemoryOverflow, pe.Desc.Reason)
	assert.Equal(t, snapshot, machine.Memory()[top:top+64])
}

// callScript assembles a script that builds a call structure on the stack,
// copies the target id out of the script data and calls it with zero value.
func callScript(dataAddr types.Word) []byte {
	return asm.Program(
		asm.Move(0x10, types.RegSP), // call struct base
		asm.Cfei(48),
		asm.Movi(0x11, dataAddr),
		asm.Movi(0x12, 32),
		asm.Mcp(0x10, 0x11, 0x12),      // copy target id into the struct
		asm.Movi(0x13, dataAddr+32),    // zero asset id after the target id
		asm.Movi(0x14, 100_000),        // forwarded gas
		asm.Call(0x10, types.RegZero, 0x13, 0x14),
		asm.Ret(types.RegRet),
	)
}

// scriptDataAddr is where the script data lands in VM memory for a script
// of the given length.
func scriptDataAddr(scriptLen types.Word) types.Word {
	return types.TxMemOffset + 1 + 3*types.WordSize + scriptLen + types.WordSize
}

func deployedCallTx(t *testing.T, store *storage.MemoryStore, contractCode []byte) (*tx.Transaction, types.ContractID) {
	t.Helper()
	id := ContractID(types.Hash{}, contractCode)
	require.NoError(t, store.InsertContractCode(id, contractCode))

	script := callScript(0) // assemble once for the length
	data := append(append([]byte{}, id[:]...), make([]byte, 32)...)
	script = callScript(scriptDataAddr(types.Word(len(script))))
	return tx.Script(script, data, testGasLimit, tx.ContractInput(id)), id
}

func TestCallReturn(t *testing.T) {
	store := storage.NewMemoryStore()
	contractCode := asm.Program(asm.Ret(types.RegOne))
	transaction, id := deployedCallTx(t, store, contractCode)

	st, machine := runScript(t, store, transaction)
	assert.Equal(t, KindReturn, st.State.Kind)
	assert.Equal(t, types.Word(1), st.State.Value)
	assert.Empty(t, machine.Frames(), "call/return must be balanced")

	require.GreaterOrEqual(t, len(st.Receipts), 4)
	assert.Equal(t, types.ReceiptCall, st.Receipts[0].Type)
	assert.Equal(t, id, st.Receipts[0].To)
	assert.Equal(t, types.ReceiptReturn, st.Receipts[1].Type)
	assert.Equal(t, id, st.Receipts[1].ID)
	assert.Equal(t, types.ReceiptReturn, st.Receipts[2].Type)
	assert.Equal(t, types.ContractID{}, st.Receipts[2].ID)
}

func TestCallContractNotFound(t *testing.T) {
	store := storage.NewMemoryStore()
	missing := types.ContractID{0xaa}

	script := callScript(0)
	script = callScript(scriptDataAddr(types.Word(len(script))))
	data := append(append([]byte{}, missing[:]...), make([]byte, 32)...)
	transaction := tx.Script(script, data, testGasLimit, tx.ContractInput(missing))

	machine := NewInterpreter(store, types.DefaultParams(), nil)
	require.NoError(t, machine.InitScript(checkTx(t, transaction)))
	_, err := machine.Run()
	pe, ok := AsPanic(err)
	require.True(t, ok)
	assert.Equal(t, asm.ContractNotFound, pe.Desc.Reason)

	exists, err := store.ContractExists(missing)
	require.NoError(t, err)
	assert.False(t, exists, "failed call must not mutate storage")
}

func TestCallUndeclaredContract(t *testing.T) {
	store := storage.NewMemoryStore()
	contractCode := asm.Program(asm.Ret(types.RegOne))
	id := ContractID(types.Hash{}, contractCode)
	require.NoError(t, store.InsertContractCode(id, contractCode))

	script := callScript(0)
	script = callScript(scriptDataAddr(types.Word(len(script))))
	data := append(append([]byte{}, id[:]...), make([]byte, 32)...)
	// no contract input declared
	transaction := tx.Script(script, data, testGasLimit)

	machine := NewInterpreter(store, types.DefaultParams(), nil)
	require.NoError(t, machine.InitScript(checkTx(t, transaction)))
	_, err := machine.Run()
	pe, ok := AsPanic(err)
	require.True(t, ok)
	assert.Equal(t, asm.ContractNotInInputs, pe.Desc.Reason)
}

// contract writing 77 under the zero key, then returning
func stateWritingContract() []byte {
	return asm.Program(
		asm.Move(0x10, types.RegSP),
		asm.Cfei(32), // zeroed key
		asm.Movi(0x11, 77),
		asm.Sww(0x10, 0x11),
		asm.Ret(types.RegOne),
	)
}

func TestStateWriteCommitsOnSuccess(t *testing.T) {
	store := storage.NewMemoryStore()
	transaction, id := deployedCallTx(t, store, stateWritingContract())

	st, _ := runScript(t, store, transaction)
	require.Equal(t, KindReturn, st.State.Kind)

	value, err := store.State(id, types.Hash{})
	require.NoError(t, err)
	assert.Equal(t, types.Word(77), types.BytesToUint64(value[:types.WordSize]))
}

func TestStateWriteRollsBackOnRevert(t *testing.T) {
	store := storage.NewMemoryStore()
	contractCode := asm.Program(
		asm.Move(0x10, types.RegSP),
		asm.Cfei(32),
		asm.Movi(0x11, 77),
		asm.Sww(0x10, 0x11),
		asm.Rvrt(types.RegOne),
	)
	transaction, id := deployedCallTx(t, store, contractCode)

	st, _ := runScript(t, store, transaction)
	require.Equal(t, KindRevert, st.State.Kind)

	_, err := store.State(id, types.Hash{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIdempotentReceipts(t *testing.T) {
	run := func() *StateTransition {
		store := storage.NewMemoryStore()
		transaction, _ := deployedCallTx(t, store, stateWritingContract())
		st, _ := runScript(t, store, transaction)
		return st
	}
	first, second := run(), run()
	require.Equal(t, first.Receipts, second.Receipts)
	assert.Equal(t, first.Root, second.Root)
	assert.Equal(t, first.GasUsed, second.GasUsed)
}

func TestPanicTransition(t *testing.T) {
	// invalid opcode straight away
	script := asm.Program(asm.New(asm.Opcode(0xff), 0, 0, 0, 0))
	st, _ := runScript(t, storage.NewMemoryStore(), tx.Script(script, nil, testGasLimit))

	assert.Equal(t, KindRevert, st.State.Kind)
	require.Len(t, st.Receipts, 2)
	assert.Equal(t, types.ReceiptPanic, st.Receipts[0].Type)
	assert.Equal(t, asm.InvalidInstruction, asm.PanicReasonFromByte(st.Receipts[0].Reason))
	assert.Equal(t, types.ReceiptScriptResult, st.Receipts[1].Type)
	assert.Equal(t, types.ScriptPanic, st.Receipts[1].Status)
}

func TestBacktraceCapturedAtPanic(t *testing.T) {
	store := storage.NewMemoryStore()
	contractCode := asm.Program(asm.New(asm.Opcode(0xff), 0, 0, 0, 0))
	transaction, id := deployedCallTx(t, store, contractCode)

	st, machine := runScript(t, store, transaction)
	require.Equal(t, KindRevert, st.State.Kind)

	bt := machine.Backtrace()
	assert.Equal(t, id, bt.Contract, "panic happened inside the callee")
	require.Len(t, bt.Frames, 1)
	assert.Equal(t, id, bt.Frames[0].To)
	assert.Equal(t, machine.Register(types.RegPC), bt.Registers[types.RegPC])
	assert.Equal(t, machine.Register(types.RegIS), bt.Registers[types.RegIS])
	assert.NotZero(t, bt.Registers[types.RegIS], "callee code starts past the frame header")
}

func TestDeploy(t *testing.T) {
	store := storage.NewMemoryStore()
	code := asm.Program(asm.Ret(types.RegOne))
	salt := types.Hash{0x01}
	transaction := tx.Create(code, salt, testGasLimit)

	transactor := NewTransactor(store, types.DefaultParams(), nil)
	st, err := transactor.Transact(checkTx(t, transaction))
	require.NoError(t, err)
	assert.Equal(t, types.EmptyReceiptsRoot, st.Root)

	deployed, err := store.ContractCode(ContractID(salt, code))
	require.NoError(t, err)
	assert.Equal(t, code, deployed)
}

func TestBreakpointSuspendResume(t *testing.T) {
	script := asm.Program(asm.Noop(), asm.Ret(types.RegOne))
	machine := NewInterpreter(storage.NewMemoryStore(), types.DefaultParams(), nil)
	require.NoError(t, machine.InitScript(checkTx(t, tx.Script(script, nil, testGasLimit))))

	debugger := NewDebugger()
	entry := machine.Register(types.RegIS)
	debugger.SetBreakpoint(Breakpoint{PC: entry + asm.Len})
	machine.Attach(debugger)

	state, err := machine.Run()
	require.NoError(t, err)
	require.True(t, state.Suspended())
	assert.Equal(t, entry+asm.Len, state.Breakpoint.PC)

	state, err = machine.Run()
	require.NoError(t, err)
	assert.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(1), state.Value)
}

func TestLogReceipts(t *testing.T) {
	script := asm.Program(
		asm.Movi(0x10, 42),
		asm.Log(0x10, types.RegZero, types.RegZero, types.RegZero),
		asm.Ret(types.RegZero),
	)
	st, _ := runScript(t, storage.NewMemoryStore(), tx.Script(script, nil, testGasLimit))

	require.GreaterOrEqual(t, len(st.Receipts), 2)
	assert.Equal(t, types.ReceiptLog, st.Receipts[0].Type)
	assert.Equal(t, types.Word(42), st.Receipts[0].RA)
}

func TestPredicateMustReturnOne(t *testing.T) {
	owner := types.Address{0x01}
	script := asm.Program(asm.Ret(types.RegZero))

	failing := asm.Program(asm.Movi(0x10, 2), asm.Ret(0x10))
	transaction := tx.Script(script, nil, testGasLimit,
		tx.PredicateInput(owner, 10, types.AssetID{}, failing, nil))
	err := CheckPredicates(checkTx(t, transaction), types.DefaultParams(), nil)
	assert.ErrorIs(t, err, ErrPredicateFailed)

	passing := asm.Program(asm.Ret(types.RegOne))
	transaction = tx.Script(script, nil, testGasLimit,
		tx.PredicateInput(owner, 10, types.AssetID{}, passing, nil))
	assert.NoError(t, CheckPredicates(checkTx(t, transaction), types.DefaultParams(), nil))
}

func TestPredicateBackwardJumpIsIllegal(t *testing.T) {
	owner := types.Address{0x01}
	script := asm.Program(asm.Ret(types.RegZero))
	looping := asm.Program(asm.Noop(), asm.Ji(0))

	transaction := tx.Script(script, nil, testGasLimit,
		tx.PredicateInput(owner, 10, types.AssetID{}, looping, nil))
	err := CheckPredicates(checkTx(t, transaction), types.DefaultParams(), nil)
	assert.ErrorIs(t, err, ErrPredicateFailed)
}

func TestPredicateCannotTouchContracts(t *testing.T) {
	owner := types.Address{0x01}
	script := asm.Program(asm.Ret(types.RegZero))
	sneaky := asm.Program(asm.Bhei(0x10), asm.Ret(types.RegOne))

	transaction := tx.Script(script, nil, testGasLimit,
		tx.PredicateInput(owner, 10, types.AssetID{}, sneaky, nil))
	err := CheckPredicates(checkTx(t, transaction), types.DefaultParams(), nil)
	require.ErrorIs(t, err, ErrPredicateFailed)
	assert.Contains(t, err.Error(), asm.ContractInstructionNotAllowed.String())
}

func TestCheckPredicatesRunThroughTransactor(t *testing.T) {
	owner := types.Address{0x01}
	failing := asm.Program(asm.Ret(types.RegZero))
	transaction := tx.Script(asm.Program(asm.Ret(types.RegOne)), nil, testGasLimit,
		tx.PredicateInput(owner, 10, types.AssetID{}, failing, nil))

	transactor := NewTransactor(storage.NewMemoryStore(), types.DefaultParams(), nil)
	_, err := transactor.Transact(checkTx(t, transaction))
	assert.True(t, errors.Is(err, ErrPredicateFailed))
}
