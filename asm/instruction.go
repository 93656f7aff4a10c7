package asm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/colorfulnotion/fvm/types"
)

// Instruction is a raw 32-bit instruction word. Layout, from the most
// significant bit: opcode (8), ra (6), rb (6), rc (6), rd (6). Immediate
// variants reuse the low bits: imm12 overlaps rc/rd, imm18 overlaps
// rb/rc/rd, imm24 overlaps ra/rb/rc/rd.
type Instruction uint32

// Len is the size of an instruction word in bytes.
const Len = 4

func (i Instruction) Op() Opcode           { return Opcode(i >> 24) }
func (i Instruction) RA() types.RegisterID { return types.RegisterID((i >> 18) & 0x3f) }
func (i Instruction) RB() types.RegisterID { return types.RegisterID((i >> 12) & 0x3f) }
func (i Instruction) RC() types.RegisterID { return types.RegisterID((i >> 6) & 0x3f) }
func (i Instruction) RD() types.RegisterID { return types.RegisterID(i & 0x3f) }

func (i Instruction) Imm06() types.Word { return types.Word(i & 0x3f) }
func (i Instruction) Imm12() types.Word { return types.Word(i & 0x0fff) }
func (i Instruction) Imm18() types.Word { return types.Word(i & 0x3ffff) }
func (i Instruction) Imm24() types.Word { return types.Word(i & 0xffffff) }

// Bits returns the raw instruction word.
func (i Instruction) Bits() uint32 { return uint32(i) }

// Parse decodes the instruction at the start of b, big-endian.
func Parse(b []byte) (Instruction, bool) {
	if len(b) < Len {
		return 0, false
	}
	return Instruction(binary.BigEndian.Uint32(b)), true
}

func pack(op Opcode, ra, rb, rc, rd types.RegisterID) Instruction {
	return Instruction(uint32(op)<<24 |
		uint32(ra&0x3f)<<18 | uint32(rb&0x3f)<<12 | uint32(rc&0x3f)<<6 | uint32(rd&0x3f))
}

// New packs a four-register instruction word.
func New(op Opcode, ra, rb, rc, rd types.RegisterID) Instruction {
	return pack(op, ra, rb, rc, rd)
}

// NewImm12 packs an instruction with two registers and a 12 bit immediate.
func NewImm12(op Opcode, ra, rb types.RegisterID, imm types.Word) Instruction {
	return Instruction(uint32(op)<<24 | uint32(ra&0x3f)<<18 | uint32(rb&0x3f)<<12 |
		uint32(imm&0x0fff))
}

// NewImm18 packs an instruction with one register and an 18 bit immediate.
func NewImm18(op Opcode, ra types.RegisterID, imm types.Word) Instruction {
	return Instruction(uint32(op)<<24 | uint32(ra&0x3f)<<18 | uint32(imm&0x3ffff))
}

// NewImm24 packs an instruction with a 24 bit immediate.
func NewImm24(op Opcode, imm types.Word) Instruction {
	return Instruction(uint32(op)<<24 | uint32(imm&0xffffff))
}

// Bytes returns the 4 byte big-endian encoding.
func (i Instruction) Bytes() []byte {
	b := make([]byte, Len)
	binary.BigEndian.PutUint32(b, uint32(i))
	return b
}

// Program concatenates instruction words into bytecode.
func Program(instrs ...Instruction) []byte {
	out := make([]byte, 0, len(instrs)*Len)
	for _, i := range instrs {
		out = append(out, i.Bytes()...)
	}
	return out
}

// Disassemble renders bytecode one instruction per line.
func Disassemble(code []byte) string {
	var sb strings.Builder
	for off := 0; off+Len <= len(code); off += Len {
		instr, _ := Parse(code[off:])
		fmt.Fprintf(&sb, "%06x  %08x  %s\n", off, instr.Bits(), instr)
	}
	return sb.String()
}

func (i Instruction) String() string {
	op := i.Op()
	switch op {
	case RET, ALOC, BURN, RVRT, MINT, FLAG, CB:
		return fmt.Sprintf("%s $%02x", op, i.RA())
	case NOOP:
		return op.String()
	case JI, CFEI, CFSI:
		return fmt.Sprintf("%s %d", op, i.Imm24())
	case MCLI, GM, MOVI, JNZI:
		return fmt.Sprintf("%s $%02x %d", op, i.RA(), i.Imm18())
	case ADDI, ANDI, DIVI, EXPI, MODI, MULI, ORI, SLLI, SRLI, SUBI, XORI,
		JNEI, LB, LW, SB, SW, MCPI:
		return fmt.Sprintf("%s $%02x $%02x %d", op, i.RA(), i.RB(), i.Imm12())
	case CALL, MEQ, LOG, LOGD, CCP, ECR, K256, S256, TR, TRO, SMO,
		WDCM, WQCM, WDOP, WQOP, WDML, WQML, WDDV, WQDV:
		return fmt.Sprintf("%s $%02x $%02x $%02x $%02x", op, i.RA(), i.RB(), i.RC(), i.RD())
	default:
		return fmt.Sprintf("%s $%02x $%02x $%02x", op, i.RA(), i.RB(), i.RC())
	}
}

// Constructors for the instructions exercised throughout the repo. The
// generic packers above cover anything not listed here.

func Add(ra, rb, rc types.RegisterID) Instruction      { return pack(ADD, ra, rb, rc, 0) }
func Sub(ra, rb, rc types.RegisterID) Instruction      { return pack(SUB, ra, rb, rc, 0) }
func Mul(ra, rb, rc types.RegisterID) Instruction      { return pack(MUL, ra, rb, rc, 0) }
func Div(ra, rb, rc types.RegisterID) Instruction      { return pack(DIV, ra, rb, rc, 0) }
func Eqr(ra, rb, rc types.RegisterID) Instruction      { return pack(EQ, ra, rb, rc, 0) }
func Move(ra, rb types.RegisterID) Instruction         { return pack(MOVE, ra, rb, 0, 0) }
func Not(ra, rb types.RegisterID) Instruction          { return pack(NOT, ra, rb, 0, 0) }
func Ret(ra types.RegisterID) Instruction              { return pack(RET, ra, 0, 0, 0) }
func Retd(ra, rb types.RegisterID) Instruction         { return pack(RETD, ra, rb, 0, 0) }
func Rvrt(ra types.RegisterID) Instruction             { return pack(RVRT, ra, 0, 0, 0) }
func Aloc(ra types.RegisterID) Instruction             { return pack(ALOC, ra, 0, 0, 0) }
func Mcl(ra, rb types.RegisterID) Instruction          { return pack(MCL, ra, rb, 0, 0) }
func Mcp(ra, rb, rc types.RegisterID) Instruction      { return pack(MCP, ra, rb, rc, 0) }
func Meq(ra, rb, rc, rd types.RegisterID) Instruction  { return pack(MEQ, ra, rb, rc, rd) }
func Call(ra, rb, rc, rd types.RegisterID) Instruction { return pack(CALL, ra, rb, rc, rd) }
func Log(ra, rb, rc, rd types.RegisterID) Instruction  { return pack(LOG, ra, rb, rc, rd) }
func Logd(ra, rb, rc, rd types.RegisterID) Instruction { return pack(LOGD, ra, rb, rc, rd) }
func Tr(ra, rb, rc types.RegisterID) Instruction       { return pack(TR, ra, rb, rc, 0) }
func Srw(ra, rb types.RegisterID) Instruction          { return pack(SRW, ra, rb, 0, 0) }
func Sww(ra, rb types.RegisterID) Instruction          { return pack(SWW, ra, rb, 0, 0) }
func Srwq(ra, rb types.RegisterID) Instruction         { return pack(SRWQ, ra, rb, 0, 0) }
func Swwq(ra, rb types.RegisterID) Instruction         { return pack(SWWQ, ra, rb, 0, 0) }
func Bhei(ra types.RegisterID) Instruction             { return pack(BHEI, ra, 0, 0, 0) }
func Flag(ra types.RegisterID) Instruction             { return pack(FLAG, ra, 0, 0, 0) }
func Ecr(ra, rb, rc types.RegisterID) Instruction      { return pack(ECR, ra, rb, rc, 0) }
func K256i(ra, rb, rc types.RegisterID) Instruction    { return pack(K256, ra, rb, rc, 0) }
func S256i(ra, rb, rc types.RegisterID) Instruction    { return pack(S256, ra, rb, rc, 0) }

func Addi(ra, rb types.RegisterID, imm types.Word) Instruction { return NewImm12(ADDI, ra, rb, imm) }
func Subi(ra, rb types.RegisterID, imm types.Word) Instruction { return NewImm12(SUBI, ra, rb, imm) }
func Muli(ra, rb types.RegisterID, imm types.Word) Instruction { return NewImm12(MULI, ra, rb, imm) }
func Divi(ra, rb types.RegisterID, imm types.Word) Instruction { return NewImm12(DIVI, ra, rb, imm) }
func Jnei(ra, rb types.RegisterID, imm types.Word) Instruction { return NewImm12(JNEI, ra, rb, imm) }
func Lb(ra, rb types.RegisterID, imm types.Word) Instruction   { return NewImm12(LB, ra, rb, imm) }
func Lw(ra, rb types.RegisterID, imm types.Word) Instruction   { return NewImm12(LW, ra, rb, imm) }
func Sb(ra, rb types.RegisterID, imm types.Word) Instruction   { return NewImm12(SB, ra, rb, imm) }
func Sw(ra, rb types.RegisterID, imm types.Word) Instruction   { return NewImm12(SW, ra, rb, imm) }
func Mcpi(ra, rb types.RegisterID, imm types.Word) Instruction { return NewImm12(MCPI, ra, rb, imm) }

func Movi(ra types.RegisterID, imm types.Word) Instruction { return NewImm18(MOVI, ra, imm) }
func Mcli(ra types.RegisterID, imm types.Word) Instruction { return NewImm18(MCLI, ra, imm) }
func Jnzi(ra types.RegisterID, imm types.Word) Instruction { return NewImm18(JNZI, ra, imm) }
func Gm(ra types.RegisterID, imm types.Word) Instruction   { return NewImm18(GM, ra, imm) }

func Ji(imm types.Word) Instruction   { return NewImm24(JI, imm) }
func Cfei(imm types.Word) Instruction { return NewImm24(CFEI, imm) }
func Cfsi(imm types.Word) Instruction { return NewImm24(CFSI, imm) }
func Noop() Instruction               { return pack(NOOP, 0, 0, 0, 0) }
