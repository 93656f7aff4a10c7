// Package gas defines the per-instruction cost model consumed by the VM.
// Exact prices are consensus configuration, not a core invariant; the core
// only guarantees costs are charged before an instruction's effect.
package gas

import (
	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/types"
)

// Cost describes the price of a single opcode: a flat base charge plus an
// optional size-dependent charge of PerUnit for every started Unit bytes.
type Cost struct {
	Base    types.Word
	PerUnit types.Word
	Unit    types.Word
}

// Of computes the charge for processing length bytes:
// base + perUnit * ceil(length/unit).
func (c Cost) Of(length types.Word) types.Word {
	if c.PerUnit == 0 || c.Unit == 0 {
		return c.Base
	}
	units := (length + c.Unit - 1) / c.Unit
	return c.Base + c.PerUnit*units
}

// Table maps opcodes to their costs. Opcodes missing from the table fall
// back to DefaultCost, so an incomplete table never makes execution free.
type Table struct {
	costs       map[asm.Opcode]Cost
	defaultCost Cost
}

// DefaultCost is charged for any opcode without an explicit entry.
var DefaultCost = Cost{Base: 1}

// NewTable builds a cost table from explicit entries.
func NewTable(costs map[asm.Opcode]Cost) *Table {
	cloned := make(map[asm.Opcode]Cost, len(costs))
	for op, c := range costs {
		cloned[op] = c
	}
	return &Table{costs: cloned, defaultCost: DefaultCost}
}

// Cost returns the flat charge for op.
func (t *Table) Cost(op asm.Opcode) types.Word {
	return t.entry(op).Base
}

// CostOf returns the size-dependent charge for op over length bytes.
func (t *Table) CostOf(op asm.Opcode, length types.Word) types.Word {
	return t.entry(op).Of(length)
}

func (t *Table) entry(op asm.Opcode) Cost {
	if c, ok := t.costs[op]; ok {
		return c
	}
	return t.defaultCost
}

// DefaultTable returns the reference price list. Prices follow a unit
// model: atomic ops cost 1, register writes 2,
// arithmetic 5, expensive arithmetic 7, memory writes 8 per 32 byte unit,
// ownership-checked writes 9, branching 10, storage and crypto higher.
func DefaultTable() *Table {
	arith := Cost{Base: 5}
	expensive := Cost{Base: 7}
	branch := Cost{Base: 10}
	memWrite := Cost{Base: 9, PerUnit: 8, Unit: 32}
	storage := Cost{Base: 40}
	storageBulk := Cost{Base: 40, PerUnit: 8, Unit: 32}
	crypto := Cost{Base: 64, PerUnit: 8, Unit: 64}

	return NewTable(map[asm.Opcode]Cost{
		asm.ADD: arith, asm.SUB: arith, asm.AND: {Base: 2}, asm.OR: {Base: 2},
		asm.XOR: {Base: 2}, asm.NOT: {Base: 2}, asm.EQ: arith, asm.GT: arith,
		asm.LT: arith, asm.MOVE: {Base: 2}, asm.SLL: arith, asm.SRL: arith,
		asm.MUL: expensive, asm.DIV: expensive, asm.MOD: expensive,
		asm.EXP: expensive, asm.MLOG: expensive, asm.MROO: expensive,
		asm.ADDI: arith, asm.SUBI: arith, asm.ANDI: {Base: 2}, asm.ORI: {Base: 2},
		asm.XORI: {Base: 2}, asm.MULI: expensive, asm.DIVI: expensive,
		asm.MODI: expensive, asm.EXPI: expensive, asm.SLLI: arith, asm.SRLI: arith,
		asm.MOVI: {Base: 2}, asm.NOOP: {Base: 1}, asm.FLAG: {Base: 1},

		asm.JI: branch, asm.JNEI: branch, asm.JNZI: branch, asm.JMP: branch,
		asm.JNE: branch, asm.RET: branch, asm.RETD: branch, asm.RVRT: branch,
		asm.CALL: {Base: 128},

		asm.ALOC: {Base: 2}, asm.CFEI: {Base: 2}, asm.CFSI: {Base: 2},
		asm.LB: arith, asm.LW: arith, asm.SB: memWrite, asm.SW: memWrite,
		asm.MCL: {Base: 9, PerUnit: 8, Unit: 32}, asm.MCLI: {Base: 9, PerUnit: 8, Unit: 32},
		asm.MCP: {Base: 9, PerUnit: 8, Unit: 32}, asm.MCPI: {Base: 9, PerUnit: 8, Unit: 32},
		asm.MEQ: {Base: 5, PerUnit: 4, Unit: 32},

		asm.BHSH: storage, asm.BHEI: {Base: 2}, asm.CB: storage,
		asm.BAL: storage, asm.BURN: storage, asm.MINT: storage,
		asm.CCP: storageBulk, asm.CROO: storageBulk, asm.CSIZ: storage,
		asm.LDC: storageBulk, asm.SRW: storage, asm.SRWQ: storageBulk,
		asm.SWW: storage, asm.SWWQ: storageBulk, asm.TR: storage, asm.TRO: storage,
		asm.SMO: storageBulk,

		asm.LOG: {Base: 10}, asm.LOGD: {Base: 10, PerUnit: 8, Unit: 32},
		asm.GM: {Base: 2},

		asm.ECR: {Base: 2048}, asm.K256: crypto, asm.S256: crypto,

		asm.WDCM: expensive, asm.WQCM: expensive, asm.WDOP: expensive,
		asm.WQOP: expensive, asm.WDML: {Base: 14}, asm.WQML: {Base: 28},
		asm.WDDV: {Base: 14}, asm.WQDV: {Base: 28},
	})
}
