// Package asm defines the instruction set of the VM: opcode numbering, the
// 32-bit instruction word layout, and the closed set of panic reasons.
package asm

import "fmt"

// Opcode is the one byte operation selector of an instruction word.
type Opcode uint8

// Opcodes with register arguments only.
const (
	ADD  Opcode = 0x10
	AND  Opcode = 0x11
	DIV  Opcode = 0x12
	EQ   Opcode = 0x13
	EXP  Opcode = 0x14
	GT   Opcode = 0x15
	LT   Opcode = 0x16
	MLOG Opcode = 0x17
	MROO Opcode = 0x18
	MOD  Opcode = 0x19
	MOVE Opcode = 0x1a
	MUL  Opcode = 0x1b
	NOT  Opcode = 0x1c
	OR   Opcode = 0x1d
	SLL  Opcode = 0x1e
	SRL  Opcode = 0x1f
	SUB  Opcode = 0x20
	XOR  Opcode = 0x21

	RET  Opcode = 0x24
	RETD Opcode = 0x25
	ALOC Opcode = 0x26
	MCL  Opcode = 0x27
	MCP  Opcode = 0x28
	MEQ  Opcode = 0x29
	BHSH Opcode = 0x2a
	BHEI Opcode = 0x2b
	BURN Opcode = 0x2c
	CALL Opcode = 0x2d
	CCP  Opcode = 0x2e
	CROO Opcode = 0x2f
	CSIZ Opcode = 0x30
	CB   Opcode = 0x31
	LDC  Opcode = 0x32
	LOG  Opcode = 0x33
	LOGD Opcode = 0x34
	MINT Opcode = 0x35
	RVRT Opcode = 0x36
	SRW  Opcode = 0x38
	SRWQ Opcode = 0x39
	SWW  Opcode = 0x3a
	SWWQ Opcode = 0x3b
	TR   Opcode = 0x3c
	TRO  Opcode = 0x3d
	ECR  Opcode = 0x3e
	K256 Opcode = 0x3f
	S256 Opcode = 0x40

	NOOP Opcode = 0x47
	FLAG Opcode = 0x48
	BAL  Opcode = 0x49
	JMP  Opcode = 0x4a
	JNE  Opcode = 0x4b
	SMO  Opcode = 0x4c
)

// Opcodes with a 12 bit immediate.
const (
	ADDI Opcode = 0x50
	ANDI Opcode = 0x51
	DIVI Opcode = 0x52
	EXPI Opcode = 0x53
	MODI Opcode = 0x54
	MULI Opcode = 0x55
	ORI  Opcode = 0x56
	SLLI Opcode = 0x57
	SRLI Opcode = 0x58
	SUBI Opcode = 0x59
	XORI Opcode = 0x5a
	JNEI Opcode = 0x5b
	LB   Opcode = 0x5c
	LW   Opcode = 0x5d
	SB   Opcode = 0x5e
	SW   Opcode = 0x5f
	MCPI Opcode = 0x60
)

// Opcodes with an 18 or 24 bit immediate.
const (
	MCLI Opcode = 0x70
	GM   Opcode = 0x71
	MOVI Opcode = 0x72
	JNZI Opcode = 0x73
	JI   Opcode = 0x74
	CFEI Opcode = 0x75
	CFSI Opcode = 0x76
)

// Wide integer opcodes, operating on 128 and 256 bit operands in memory.
const (
	WDCM Opcode = 0x80
	WQCM Opcode = 0x81
	WDOP Opcode = 0x82
	WQOP Opcode = 0x83
	WDML Opcode = 0x84
	WQML Opcode = 0x85
	WDDV Opcode = 0x86
	WQDV Opcode = 0x87
)

var opcodeNames = map[Opcode]string{
	ADD: "ADD", AND: "AND", DIV: "DIV", EQ: "EQ", EXP: "EXP", GT: "GT",
	LT: "LT", MLOG: "MLOG", MROO: "MROO", MOD: "MOD", MOVE: "MOVE",
	MUL: "MUL", NOT: "NOT", OR: "OR", SLL: "SLL", SRL: "SRL", SUB: "SUB",
	XOR: "XOR", RET: "RET", RETD: "RETD", ALOC: "ALOC", MCL: "MCL",
	MCP: "MCP", MEQ: "MEQ", BHSH: "BHSH", BHEI: "BHEI", BURN: "BURN",
	CALL: "CALL", CCP: "CCP", CROO: "CROO", CSIZ: "CSIZ", CB: "CB",
	LDC: "LDC", LOG: "LOG", LOGD: "LOGD", MINT: "MINT", RVRT: "RVRT",
	SRW: "SRW", SRWQ: "SRWQ", SWW: "SWW", SWWQ: "SWWQ", TR: "TR",
	TRO: "TRO", ECR: "ECR", K256: "K256", S256: "S256", NOOP: "NOOP",
	FLAG: "FLAG", BAL: "BAL", JMP: "JMP", JNE: "JNE", SMO: "SMO",
	ADDI: "ADDI", ANDI: "ANDI", DIVI: "DIVI", EXPI: "EXPI", MODI: "MODI",
	MULI: "MULI", ORI: "ORI", SLLI: "SLLI", SRLI: "SRLI", SUBI: "SUBI",
	XORI: "XORI", JNEI: "JNEI", LB: "LB", LW: "LW", SB: "SB", SW: "SW",
	MCPI: "MCPI", MCLI: "MCLI", GM: "GM", MOVI: "MOVI", JNZI: "JNZI",
	JI: "JI", CFEI: "CFEI", CFSI: "CFSI",
	WDCM: "WDCM", WQCM: "WQCM", WDOP: "WDOP", WQOP: "WQOP",
	WDML: "WDML", WQML: "WQML", WDDV: "WDDV", WQDV: "WQDV",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("RESERV%02X", uint8(op))
}

// Valid reports whether the opcode is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeNames[op]
	return ok
}
