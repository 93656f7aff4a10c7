package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/fvm/types"
)

func TestPackUnpack(t *testing.T) {
	instr := New(ADD, 0x10, 0x11, 0x12, 0x13)
	assert.Equal(t, ADD, instr.Op())
	assert.Equal(t, types.RegisterID(0x10), instr.RA())
	assert.Equal(t, types.RegisterID(0x11), instr.RB())
	assert.Equal(t, types.RegisterID(0x12), instr.RC())
	assert.Equal(t, types.RegisterID(0x13), instr.RD())

	parsed, ok := Parse(instr.Bytes())
	require.True(t, ok)
	assert.Equal(t, instr, parsed)
}

func TestImmediateLayouts(t *testing.T) {
	i12 := NewImm12(ADDI, 0x20, 0x21, 0x0abc)
	assert.Equal(t, types.RegisterID(0x20), i12.RA())
	assert.Equal(t, types.RegisterID(0x21), i12.RB())
	assert.Equal(t, types.Word(0x0abc), i12.Imm12())

	i18 := NewImm18(MOVI, 0x22, 0x3ffff)
	assert.Equal(t, types.RegisterID(0x22), i18.RA())
	assert.Equal(t, types.Word(0x3ffff), i18.Imm18())

	i24 := NewImm24(JI, 0xffffff)
	assert.Equal(t, types.Word(0xffffff), i24.Imm24())
}

func TestImmediatesAreMasked(t *testing.T) {
	i := NewImm12(ADDI, 0x10, 0x11, 0xffff)
	assert.Equal(t, types.Word(0x0fff), i.Imm12())
	assert.Equal(t, ADDI, i.Op())
}

func TestParseShortBuffer(t *testing.T) {
	_, ok := Parse([]byte{0x10, 0x00})
	assert.False(t, ok)
}

func TestProgramConcatenation(t *testing.T) {
	code := Program(Noop(), Ret(types.RegOne))
	require.Len(t, code, 2*Len)
	first, _ := Parse(code)
	second, _ := Parse(code[Len:])
	assert.Equal(t, NOOP, first.Op())
	assert.Equal(t, RET, second.Op())
}

func TestDisassemble(t *testing.T) {
	out := Disassemble(Program(
		Movi(0x10, 42),
		Addi(0x11, 0x10, 1),
		Ret(0x11),
	))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "MOVI $10 42")
	assert.Contains(t, lines[1], "ADDI $11 $10 1")
	assert.Contains(t, lines[2], "RET $11")
}

func TestOpcodeValidity(t *testing.T) {
	assert.True(t, ADD.Valid())
	assert.True(t, WQDV.Valid())
	assert.False(t, Opcode(0xff).Valid())
	assert.Equal(t, "RESERVFF", Opcode(0xff).String())
}

func TestPanicReasonFromByteCollapsesUnknown(t *testing.T) {
	assert.Equal(t, OutOfGas, PanicReasonFromByte(0x02))
	assert.Equal(t, UnknownPanicReason, PanicReasonFromByte(0xfe))
	assert.Equal(t, UnknownPanicReason, PanicReasonFromByte(0x00))
}

func TestPanicDescString(t *testing.T) {
	desc := PanicDesc{Reason: OutOfGas, Instruction: Ret(types.RegOne)}
	s := desc.String()
	assert.Contains(t, s, "OutOfGas")
	assert.Contains(t, s, "RET")
}
