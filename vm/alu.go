package vm

import (
	"math/bits"

	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/types"
)

// ALU write paths. Every arithmetic instruction funnels through one of three
// setters, which own the $of/$err bookkeeping and the flag-gated panic
// behavior: overflow panics ArithmeticOverflow unless the WRAPPING flag is
// set, invalid arguments panic ArithmeticError unless UNSAFEMATH is set.

// aluSet writes an infallible result, clearing $of and $err.
func (m *Interpreter) aluSet(ra types.RegisterID, value types.Word) error {
	if err := m.writeRegister(ra, value); err != nil {
		return err
	}
	m.registers[types.RegOF] = 0
	m.registers[types.RegErr] = 0
	return nil
}

// aluCapture writes a result that may have overflowed; overflow carries the
// overflowed-out bits (or 1 when they are not meaningful).
func (m *Interpreter) aluCapture(ra types.RegisterID, value, overflow types.Word) error {
	if overflow != 0 && m.registers[types.RegFlag]&types.FlagWrapping == 0 {
		return panicErr(asm.ArithmeticOverflow)
	}
	if err := m.writeRegister(ra, value); err != nil {
		return err
	}
	m.registers[types.RegOF] = overflow
	m.registers[types.RegErr] = 0
	return nil
}

// aluError writes a result whose arguments may be mathematically invalid,
// e.g. division by zero. Invalid arguments yield zero with $err set when
// UNSAFEMATH allows them.
func (m *Interpreter) aluError(ra types.RegisterID, value types.Word, invalid bool) error {
	if invalid && m.registers[types.RegFlag]&types.FlagUnsafeMath == 0 {
		return panicErr(asm.ArithmeticError)
	}
	if invalid {
		value = 0
	}
	if err := m.writeRegister(ra, value); err != nil {
		return err
	}
	m.registers[types.RegOF] = 0
	if invalid {
		m.registers[types.RegErr] = 1
	} else {
		m.registers[types.RegErr] = 0
	}
	return nil
}

func (m *Interpreter) aluAdd(ra types.RegisterID, b, c types.Word) error {
	sum, carry := bits.Add64(b, c, 0)
	return m.aluCapture(ra, sum, carry)
}

func (m *Interpreter) aluSub(ra types.RegisterID, b, c types.Word) error {
	diff, borrow := bits.Sub64(b, c, 0)
	// a borrow wraps all 64 high bits out, so $of carries all ones
	if borrow != 0 {
		borrow = ^types.Word(0)
	}
	return m.aluCapture(ra, diff, borrow)
}

func (m *Interpreter) aluMul(ra types.RegisterID, b, c types.Word) error {
	hi, lo := bits.Mul64(b, c)
	return m.aluCapture(ra, lo, hi)
}

func (m *Interpreter) aluDiv(ra types.RegisterID, b, c types.Word) error {
	if c == 0 {
		return m.aluError(ra, 0, true)
	}
	return m.aluError(ra, b/c, false)
}

func (m *Interpreter) aluMod(ra types.RegisterID, b, c types.Word) error {
	if c == 0 {
		return m.aluError(ra, 0, true)
	}
	return m.aluError(ra, b%c, false)
}

// aluExp computes b**c with overflow capture. An overflowing exponentiation
// zeroes the destination with $of set; the wrapped product is never stored.
func (m *Interpreter) aluExp(ra types.RegisterID, b, c types.Word) error {
	result, overflowed := expOverflow(b, c)
	var of types.Word
	if overflowed {
		result = 0
		of = 1
	}
	return m.aluCapture(ra, result, of)
}

// aluShl and aluShr saturate: shifts of 64 or more produce zero, never a
// panic.
func (m *Interpreter) aluShl(ra types.RegisterID, b, c types.Word) error {
	if c >= 64 {
		return m.aluSet(ra, 0)
	}
	return m.aluSet(ra, b<<c)
}

func (m *Interpreter) aluShr(ra types.RegisterID, b, c types.Word) error {
	if c >= 64 {
		return m.aluSet(ra, 0)
	}
	return m.aluSet(ra, b>>c)
}

// aluMlog computes floor(log_c(b)); b must be nonzero and c at least two.
func (m *Interpreter) aluMlog(ra types.RegisterID, b, c types.Word) error {
	if b == 0 || c < 2 {
		return m.aluError(ra, 0, true)
	}
	var n types.Word
	for v := b; v >= c; v /= c {
		n++
	}
	return m.aluError(ra, n, false)
}

// aluMroo computes floor(b ** (1/c)); c must be nonzero.
func (m *Interpreter) aluMroo(ra types.RegisterID, b, c types.Word) error {
	if c == 0 {
		return m.aluError(ra, 0, true)
	}
	if c == 1 || b <= 1 {
		return m.aluError(ra, b, false)
	}
	// binary search for the largest r with r**c <= b
	lo, hi := types.Word(1), types.Word(1)<<((64+c-1)/c)
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		pow, overflowed := expOverflow(mid, c)
		if overflowed || pow > b {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return m.aluError(ra, lo, false)
}

// expOverflow is exponentiation by squaring with overflow detection.
func expOverflow(base, exp types.Word) (types.Word, bool) {
	result := types.Word(1)
	overflowed := false
	for exp > 0 {
		if exp&1 == 1 {
			hi, lo := bits.Mul64(result, base)
			if hi != 0 {
				overflowed = true
			}
			result = lo
		}
		exp >>= 1
		if exp > 0 {
			hi, lo := bits.Mul64(base, base)
			if hi != 0 && exp > 0 {
				overflowed = true
			}
			base = lo
		}
	}
	return result, overflowed
}

func boolWord(b bool) types.Word {
	if b {
		return 1
	}
	return 0
}
