package vm

import (
	"github.com/holiman/uint256"

	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/types"
)

// Wide integer instructions operate on 128 bit (WD*) and 256 bit (WQ*)
// big-endian operands held in memory; registers carry addresses and
// selectors. Results follow the same $of/$err discipline as the word ALU.

// Comparison selectors for WDCM/WQCM, taken from the rd register.
const (
	WideCmpEQ types.Word = iota
	WideCmpNE
	WideCmpLT
	WideCmpGT
	WideCmpLTE
	WideCmpGTE
)

// Operation selectors for WDOP/WQOP, taken from the rd register.
const (
	WideOpAdd types.Word = iota
	WideOpSub
	WideOpOr
	WideOpXor
	WideOpAnd
	WideOpShl
	WideOpShr
)

func (m *Interpreter) readWide(addr, width types.Word) (*uint256.Int, error) {
	b, err := m.readMemory(addr, width)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b), nil
}

func (m *Interpreter) writeWide(addr types.Word, v *uint256.Int, width types.Word) error {
	full := v.Bytes32()
	return m.writeMemory(addr, full[32-width:])
}

// fitsWidth reports whether v fits in width bytes.
func fitsWidth(v *uint256.Int, width types.Word) bool {
	if width >= 32 {
		return true
	}
	return v.BitLen() <= int(width)*8
}

// wideCompare implements WDCM/WQCM: ra = compare(mem[rb], mem[rc]) under the
// selector in rd.
func (m *Interpreter) wideCompare(ra, rb, rc, rd types.RegisterID, width types.Word) error {
	lhs, err := m.readWide(m.registers[rb], width)
	if err != nil {
		return err
	}
	rhs, err := m.readWide(m.registers[rc], width)
	if err != nil {
		return err
	}
	cmp := lhs.Cmp(rhs)
	var result bool
	switch m.registers[rd] {
	case WideCmpEQ:
		result = cmp == 0
	case WideCmpNE:
		result = cmp != 0
	case WideCmpLT:
		result = cmp < 0
	case WideCmpGT:
		result = cmp > 0
	case WideCmpLTE:
		result = cmp <= 0
	case WideCmpGTE:
		result = cmp >= 0
	default:
		return panicErr(asm.InvalidImmediateValue)
	}
	return m.aluSet(ra, boolWord(result))
}

// wideCapture writes a wide result at dst under the WRAPPING discipline:
// overflow panics unless the flag allows it, in which case $of records it.
func (m *Interpreter) wideCapture(dst types.Word, v *uint256.Int, overflowed bool, width types.Word) error {
	var of types.Word
	if overflowed {
		if m.registers[types.RegFlag]&types.FlagWrapping == 0 {
			return panicErr(asm.ArithmeticOverflow)
		}
		of = 1
	}
	if width < 32 {
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(width)*8)
		mask.SubUint64(mask, 1)
		v = new(uint256.Int).And(v, mask)
	}
	if err := m.writeWide(dst, v, width); err != nil {
		return err
	}
	m.registers[types.RegOF] = of
	m.registers[types.RegErr] = 0
	return nil
}

// wideOp implements WDOP/WQOP: mem[ra] = op(mem[rb], mem[rc]).
func (m *Interpreter) wideOp(ra, rb, rc, rd types.RegisterID, width types.Word) error {
	lhs, err := m.readWide(m.registers[rb], width)
	if err != nil {
		return err
	}
	rhs, err := m.readWide(m.registers[rc], width)
	if err != nil {
		return err
	}
	result := new(uint256.Int)
	overflowed := false
	switch m.registers[rd] {
	case WideOpAdd:
		_, carry := result.AddOverflow(lhs, rhs)
		overflowed = carry || !fitsWidth(result, width)
	case WideOpSub:
		_, overflowed = result.SubOverflow(lhs, rhs)
	case WideOpOr:
		result.Or(lhs, rhs)
	case WideOpXor:
		result.Xor(lhs, rhs)
	case WideOpAnd:
		result.And(lhs, rhs)
	case WideOpShl:
		result.Lsh(lhs, uint(rhs.Uint64()))
	case WideOpShr:
		result.Rsh(lhs, uint(rhs.Uint64()))
	default:
		return panicErr(asm.InvalidImmediateValue)
	}
	return m.wideCapture(m.registers[ra], result, overflowed, width)
}

// wideMul implements WDML/WQML.
func (m *Interpreter) wideMul(ra, rb, rc types.RegisterID, width types.Word) error {
	lhs, err := m.readWide(m.registers[rb], width)
	if err != nil {
		return err
	}
	rhs, err := m.readWide(m.registers[rc], width)
	if err != nil {
		return err
	}
	result := new(uint256.Int)
	_, overflowed := result.MulOverflow(lhs, rhs)
	overflowed = overflowed || !fitsWidth(result, width)
	return m.wideCapture(m.registers[ra], result, overflowed, width)
}

// wideDiv implements WDDV/WQDV. Division by zero follows the UNSAFEMATH
// discipline of the word ALU.
func (m *Interpreter) wideDiv(ra, rb, rc types.RegisterID, width types.Word) error {
	lhs, err := m.readWide(m.registers[rb], width)
	if err != nil {
		return err
	}
	rhs, err := m.readWide(m.registers[rc], width)
	if err != nil {
		return err
	}
	if rhs.IsZero() {
		if m.registers[types.RegFlag]&types.FlagUnsafeMath == 0 {
			return panicErr(asm.ArithmeticError)
		}
		if err := m.writeWide(m.registers[ra], new(uint256.Int), width); err != nil {
			return err
		}
		m.registers[types.RegOF] = 0
		m.registers[types.RegErr] = 1
		return nil
	}
	result := new(uint256.Int).Div(lhs, rhs)
	return m.wideCapture(m.registers[ra], result, false, width)
}
