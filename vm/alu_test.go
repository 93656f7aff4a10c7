package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/storage"
	"github.com/colorfulnotion/fvm/tx"
	"github.com/colorfulnotion/fvm/types"
)

// runProgram executes a raw script and returns the terminal state, requiring
// a clean run.
func runProgram(t *testing.T, instrs ...asm.Instruction) ProgramState {
	t.Helper()
	machine := NewInterpreter(storage.NewMemoryStore(), types.DefaultParams(), nil)
	require.NoError(t, machine.InitScript(checkTx(t, tx.Script(asm.Program(instrs...), nil, testGasLimit))))
	state, err := machine.Run()
	require.NoError(t, err)
	return state
}

// runPanic executes a raw script expecting a panic.
func runPanic(t *testing.T, instrs ...asm.Instruction) asm.PanicReason {
	t.Helper()
	machine := NewInterpreter(storage.NewMemoryStore(), types.DefaultParams(), nil)
	require.NoError(t, machine.InitScript(checkTx(t, tx.Script(asm.Program(instrs...), nil, testGasLimit))))
	_, err := machine.Run()
	pe, ok := AsPanic(err)
	require.True(t, ok, "expected a panic, got %v", err)
	return pe.Desc.Reason
}

func TestAluBasics(t *testing.T) {
	tests := []struct {
		name  string
		body  []asm.Instruction
		value types.Word
	}{
		{"add", []asm.Instruction{asm.Movi(0x10, 40), asm.Addi(0x11, 0x10, 2)}, 42},
		{"sub", []asm.Instruction{asm.Movi(0x10, 44), asm.Subi(0x11, 0x10, 2)}, 42},
		{"mul", []asm.Instruction{asm.Movi(0x10, 21), asm.Muli(0x11, 0x10, 2)}, 42},
		{"div", []asm.Instruction{asm.Movi(0x10, 84), asm.Divi(0x11, 0x10, 2)}, 42},
		{"mod", []asm.Instruction{asm.Movi(0x10, 44), asm.NewImm12(asm.MODI, 0x11, 0x10, 43)}, 1},
		{"exp", []asm.Instruction{asm.Movi(0x10, 2), asm.NewImm12(asm.EXPI, 0x11, 0x10, 10)}, 1024},
		{"and", []asm.Instruction{asm.Movi(0x10, 0xff), asm.NewImm12(asm.ANDI, 0x11, 0x10, 0x0f)}, 0x0f},
		{"or", []asm.Instruction{asm.Movi(0x10, 0xf0), asm.NewImm12(asm.ORI, 0x11, 0x10, 0x0f)}, 0xff},
		{"xor", []asm.Instruction{asm.Movi(0x10, 0xff), asm.NewImm12(asm.XORI, 0x11, 0x10, 0x0f)}, 0xf0},
		{"sll", []asm.Instruction{asm.Movi(0x10, 1), asm.NewImm12(asm.SLLI, 0x11, 0x10, 6)}, 64},
		{"srl", []asm.Instruction{asm.Movi(0x10, 64), asm.NewImm12(asm.SRLI, 0x11, 0x10, 6)}, 1},
		{"sll saturates", []asm.Instruction{asm.Movi(0x10, 1), asm.NewImm12(asm.SLLI, 0x11, 0x10, 64)}, 0},
		{"eq", []asm.Instruction{asm.Movi(0x10, 7), asm.Movi(0x11, 7), asm.Eqr(0x11, 0x10, 0x11)}, 1},
		{"gt", []asm.Instruction{asm.Movi(0x10, 7), asm.New(asm.GT, 0x11, 0x10, types.RegOne, 0)}, 1},
		{"lt", []asm.Instruction{asm.Movi(0x10, 7), asm.New(asm.LT, 0x11, 0x10, types.RegOne, 0)}, 0},
		{"mlog", []asm.Instruction{asm.Movi(0x10, 1000), asm.Movi(0x12, 10), asm.New(asm.MLOG, 0x11, 0x10, 0x12, 0)}, 3},
		{"mroo", []asm.Instruction{asm.Movi(0x10, 1000), asm.Movi(0x12, 3), asm.New(asm.MROO, 0x11, 0x10, 0x12, 0)}, 9},
		{"not", []asm.Instruction{asm.Movi(0x10, 0), asm.Not(0x11, 0x10)}, ^types.Word(0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := runProgram(t, append(tc.body, asm.Ret(0x11))...)
			require.Equal(t, KindReturn, state.Kind)
			assert.Equal(t, tc.value, state.Value)
		})
	}
}

func TestArithmeticOverflowPanicsWithoutWrapping(t *testing.T) {
	reason := runPanic(t,
		asm.Not(0x10, types.RegZero), // max word
		asm.Addi(0x11, 0x10, 1),
	)
	assert.Equal(t, asm.ArithmeticOverflow, reason)
}

func TestWrappingFlagCapturesOverflow(t *testing.T) {
	state := runProgram(t,
		asm.Movi(0x10, types.FlagWrapping),
		asm.Flag(0x10),
		asm.Not(0x11, types.RegZero),
		asm.Addi(0x12, 0x11, 1), // wraps to zero, $of set
		asm.Move(0x13, types.RegOF),
		asm.Ret(0x13),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(1), state.Value)
}

func TestWrappingExpOverflowZeroesDestination(t *testing.T) {
	// 3**41 overflows a word; the wrapped power is never stored
	state := runProgram(t,
		asm.Movi(0x10, types.FlagWrapping),
		asm.Flag(0x10),
		asm.Movi(0x11, 3),
		asm.NewImm12(asm.EXPI, 0x12, 0x11, 41),
		asm.Ret(0x12),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(0), state.Value)

	state = runProgram(t,
		asm.Movi(0x10, types.FlagWrapping),
		asm.Flag(0x10),
		asm.Movi(0x11, 3),
		asm.NewImm12(asm.EXPI, 0x12, 0x11, 41),
		asm.Move(0x13, types.RegOF),
		asm.Ret(0x13),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(1), state.Value)
}

func TestWrappingSubBorrowSetsAllOnes(t *testing.T) {
	// 0 - 1 borrows; $of carries the wrapped-out high bits, all ones
	state := runProgram(t,
		asm.Movi(0x10, types.FlagWrapping),
		asm.Flag(0x10),
		asm.Subi(0x11, types.RegZero, 1),
		asm.Move(0x12, types.RegOF),
		asm.Ret(0x12),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, ^types.Word(0), state.Value)
}

func TestDivisionByZeroPanicsWithoutUnsafeMath(t *testing.T) {
	reason := runPanic(t, asm.Div(0x10, types.RegOne, types.RegZero))
	assert.Equal(t, asm.ArithmeticError, reason)
}

func TestUnsafeMathFlagSetsErr(t *testing.T) {
	state := runProgram(t,
		asm.Movi(0x10, types.FlagUnsafeMath),
		asm.Flag(0x10),
		asm.Div(0x11, types.RegOne, types.RegZero), // 0 with $err set
		asm.Move(0x12, types.RegErr),
		asm.Ret(0x12),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(1), state.Value)
}

func TestJumpFlow(t *testing.T) {
	// skip over a revert via JNZI
	state := runProgram(t,
		asm.Movi(0x10, 1),
		asm.Jnzi(0x10, 3),
		asm.Rvrt(types.RegOne), // skipped
		asm.Ret(types.RegOne),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(1), state.Value)
}

func TestJumpTargetOverflowPanics(t *testing.T) {
	// offset*4 wraps modulo 2^64; the target must not land back inside code
	reason := runPanic(t,
		asm.Movi(0x10, 1),
		asm.NewImm12(asm.SLLI, 0x10, 0x10, 62),
		asm.New(asm.JMP, 0x10, 0, 0, 0),
	)
	assert.Equal(t, asm.MemoryOverflow, reason)
}

func TestJneiNotTakenFallsThrough(t *testing.T) {
	state := runProgram(t,
		asm.Movi(0x10, 5),
		asm.Movi(0x11, 5),
		asm.Jnei(0x10, 0x11, 5), // equal, not taken
		asm.Ret(types.RegOne),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(1), state.Value)
}

func TestMemCopyAndCompare(t *testing.T) {
	state := runProgram(t,
		asm.Move(0x10, types.RegSP),
		asm.Cfei(64),
		asm.Movi(0x11, 0xab),
		asm.Sb(0x10, 0x11, 0),
		asm.Addi(0x12, 0x10, 32),
		asm.Movi(0x13, 32),
		asm.Mcp(0x12, 0x10, 0x13), // copy first half onto second
		asm.Meq(0x14, 0x10, 0x12, 0x13),
		asm.Ret(0x14),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(1), state.Value)
}

func TestMemCopyOverlapPanics(t *testing.T) {
	reason := runPanic(t,
		asm.Move(0x10, types.RegSP),
		asm.Cfei(64),
		asm.Addi(0x11, 0x10, 8),
		asm.Movi(0x12, 32),
		asm.Mcp(0x11, 0x10, 0x12),
	)
	assert.Equal(t, asm.MemoryWriteOverlap, reason)
}

func TestMemClear(t *testing.T) {
	state := runProgram(t,
		asm.Move(0x10, types.RegSP),
		asm.Cfei(32),
		asm.Movi(0x11, 0xff),
		asm.Sb(0x10, 0x11, 0),
		asm.Mcli(0x10, 32),
		asm.Lb(0x12, 0x10, 0),
		asm.Ret(0x12),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(0), state.Value)
}

func TestStackOwnershipEnforced(t *testing.T) {
	// writing below $ssp hits memory the frame does not own
	reason := runPanic(t,
		asm.Movi(0x10, 0), // transaction id lives at address zero
		asm.Movi(0x11, 0xff),
		asm.Sb(0x10, 0x11, 0),
	)
	assert.Equal(t, asm.MemoryOwnership, reason)
}

func TestStackHeapCollision(t *testing.T) {
	// allocate nearly all memory as heap, then grow the stack into it
	params := types.DefaultParams()
	machine := NewInterpreter(storage.NewMemoryStore(), params, nil)
	script := asm.Program(
		asm.Not(0x10, types.RegZero),
		asm.Aloc(0x10),
	)
	require.NoError(t, machine.InitScript(checkTx(t, tx.Script(script, nil, testGasLimit))))
	_, err := machine.Run()
	pe, ok := AsPanic(err)
	require.True(t, ok)
	assert.Equal(t, asm.MemoryOverflow, pe.Desc.Reason)
}

func TestWideAdd(t *testing.T) {
	state := runProgram(t,
		asm.Move(0x10, types.RegSP),
		asm.Cfei(128),
		asm.Movi(0x11, 5),
		asm.Sw(0x10, 0x11, 3), // low word of lhs
		asm.Addi(0x12, 0x10, 32),
		asm.Movi(0x13, 7),
		asm.Sw(0x12, 0x13, 3), // low word of rhs
		asm.Addi(0x14, 0x10, 64),
		asm.New(asm.WQOP, 0x14, 0x10, 0x12, types.RegZero), // add selector
		asm.Lw(0x15, 0x14, 3),
		asm.Ret(0x15),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(12), state.Value)
}

func TestWideCompare(t *testing.T) {
	state := runProgram(t,
		asm.Move(0x10, types.RegSP),
		asm.Cfei(64),
		asm.Movi(0x11, 5),
		asm.Sw(0x10, 0x11, 3),
		asm.Addi(0x12, 0x10, 32),
		asm.Movi(0x13, 7),
		asm.Sw(0x12, 0x13, 3),
		asm.Movi(0x14, WideCmpLT),
		asm.New(asm.WQCM, 0x15, 0x10, 0x12, 0x14),
		asm.Ret(0x15),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(1), state.Value)
}

func TestWideDiv(t *testing.T) {
	state := runProgram(t,
		asm.Move(0x10, types.RegSP),
		asm.Cfei(96),
		asm.Movi(0x11, 6),
		asm.Sw(0x10, 0x11, 1), // low word of the 128 bit lhs
		asm.Addi(0x12, 0x10, 16),
		asm.Movi(0x13, 3),
		asm.Sw(0x12, 0x13, 1), // low word of the 128 bit rhs
		asm.Addi(0x14, 0x10, 32),
		asm.New(asm.WDDV, 0x14, 0x10, 0x12, 0),
		asm.Lw(0x15, 0x14, 1),
		asm.Ret(0x15),
	)
	require.Equal(t, KindReturn, state.Kind)
	assert.Equal(t, types.Word(2), state.Value)
}

func TestWideDivByZeroPanics(t *testing.T) {
	reason := runPanic(t,
		asm.Move(0x10, types.RegSP),
		asm.Cfei(96),
		asm.Movi(0x11, 6),
		asm.Sw(0x10, 0x11, 1),
		asm.Addi(0x12, 0x10, 16),
		asm.Addi(0x14, 0x10, 32),
		asm.New(asm.WDDV, 0x14, 0x10, 0x12, 0),
	)
	assert.Equal(t, asm.ArithmeticError, reason)
}

func TestSha256Opcode(t *testing.T) {
	// hash 4 zeroed stack bytes, then return the digest range
	state := runProgram(t,
		asm.Move(0x10, types.RegSP),
		asm.Cfei(96),
		asm.Addi(0x11, 0x10, 32), // digest destination
		asm.Movi(0x12, 4),
		asm.S256i(0x11, 0x10, 0x12),
		asm.Movi(0x13, 32),
		asm.Retd(0x11, 0x13),
	)
	require.Equal(t, KindReturnData, state.Kind)
	inner := types.Sha256(make([]byte, 4))
	assert.Equal(t, types.Sha256(inner.Bytes()).Hex(), state.Digest.Hex())
}

func TestKeccakMatchesTypesHelper(t *testing.T) {
	machine := NewInterpreter(storage.NewMemoryStore(), types.DefaultParams(), nil)
	script := asm.Program(
		asm.Move(0x10, types.RegSP),
		asm.Cfei(64),
		asm.Addi(0x11, 0x10, 32),
		asm.Movi(0x12, 32),
		asm.K256i(0x11, 0x10, 0x12),
		asm.Retd(0x11, 0x12),
	)
	require.NoError(t, machine.InitScript(checkTx(t, tx.Script(script, nil, testGasLimit))))
	state, err := machine.Run()
	require.NoError(t, err)
	require.Equal(t, KindReturnData, state.Kind)

	want := types.Keccak256(make([]byte, 32))
	got := machine.Memory()[machine.Register(types.RegRet) : machine.Register(types.RegRet)+32]
	assert.Equal(t, want.Bytes(), got)
}
