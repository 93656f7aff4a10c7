package vm

import (
	"encoding/binary"

	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/types"
)

// Memory model: one zero-initialized byte array of Params.MaxRAM. The stack
// region grows upward from zero through $ssp/$sp; the heap grows downward
// from the top through $hp. The machine never partially applies an access:
// bounds and ownership are checked before any mutation.

// checkedRange validates [addr, addr+size) against total memory and the
// single-access limit, returning the exclusive end.
func (m *Interpreter) checkedRange(addr, size types.Word) (types.Word, error) {
	end := addr + size
	if end < addr {
		return 0, panicErr(asm.MemoryOverflow)
	}
	if size > m.params.MaxMemAccess {
		return 0, panicErr(asm.MaxMemoryAccess)
	}
	if end > m.params.MaxRAM {
		return 0, panicErr(asm.MemoryOverflow)
	}
	return end, nil
}

// ownsRange reports whether the current frame may mutate [addr, addr+size):
// either inside its stack slice [$ssp, $sp) or inside its heap allocations
// [$hp, heapCeil). Zero-length writes are always owned.
func (m *Interpreter) ownsRange(addr, size types.Word) bool {
	if size == 0 {
		return true
	}
	end := addr + size
	if addr >= m.registers[types.RegSSP] && end <= m.registers[types.RegSP] {
		return true
	}
	if addr >= m.registers[types.RegHP] && end <= m.heapCeil {
		return true
	}
	return false
}

// readMemory returns the slice [addr, addr+size). Reads have no ownership
// requirement, only bounds.
func (m *Interpreter) readMemory(addr, size types.Word) ([]byte, error) {
	end, err := m.checkedRange(addr, size)
	if err != nil {
		return nil, err
	}
	return m.memory[addr:end], nil
}

// writeMemory copies data into memory at addr after bounds and ownership
// checks.
func (m *Interpreter) writeMemory(addr types.Word, data []byte) error {
	end, err := m.checkedRange(addr, types.Word(len(data)))
	if err != nil {
		return err
	}
	if !m.ownsRange(addr, types.Word(len(data))) {
		return panicErr(asm.MemoryOwnership)
	}
	copy(m.memory[addr:end], data)
	return nil
}

// readHash reads a 32 byte value at addr.
func (m *Interpreter) readHash(addr types.Word) (types.Hash, error) {
	b, err := m.readMemory(addr, 32)
	if err != nil {
		return types.Hash{}, err
	}
	return types.BytesToHash(b), nil
}

// loadByte implements LB: ra = mem[rb + imm].
func (m *Interpreter) loadByte(ra, rb types.RegisterID, imm types.Word) error {
	b, err := m.readMemory(m.registers[rb]+imm, 1)
	if err != nil {
		return err
	}
	return m.writeRegister(ra, types.Word(b[0]))
}

// loadWord implements LW: ra = word at mem[rb + imm*8], big-endian.
func (m *Interpreter) loadWord(ra, rb types.RegisterID, imm types.Word) error {
	b, err := m.readMemory(m.registers[rb]+imm*types.WordSize, types.WordSize)
	if err != nil {
		return err
	}
	return m.writeRegister(ra, binary.BigEndian.Uint64(b))
}

// storeByte implements SB: mem[ra + imm] = low byte of rb.
func (m *Interpreter) storeByte(ra, rb types.RegisterID, imm types.Word) error {
	return m.writeMemory(m.registers[ra]+imm, []byte{byte(m.registers[rb])})
}

// storeWord implements SW: word at mem[ra + imm*8] = rb, big-endian.
func (m *Interpreter) storeWord(ra, rb types.RegisterID, imm types.Word) error {
	var b [types.WordSize]byte
	binary.BigEndian.PutUint64(b[:], m.registers[rb])
	return m.writeMemory(m.registers[ra]+imm*types.WordSize, b[:])
}

// malloc implements ALOC: growing the heap downward by size. The heap may
// not cross the stack pointer.
func (m *Interpreter) malloc(size types.Word) error {
	hp := m.registers[types.RegHP]
	if size > hp {
		return panicErr(asm.MemoryOverflow)
	}
	next := hp - size
	if next < m.registers[types.RegSP] {
		return panicErr(asm.MemoryOverflow)
	}
	m.registers[types.RegHP] = next
	return nil
}

// stackExtend implements CFEI: grows the call frame by imm bytes.
func (m *Interpreter) stackExtend(imm types.Word) error {
	sp := m.registers[types.RegSP]
	next := sp + imm
	if next < sp || next > m.registers[types.RegHP] {
		return panicErr(asm.MemoryOverflow)
	}
	m.registers[types.RegSP] = next
	return nil
}

// stackShrink implements CFSI: shrinks the call frame by imm bytes, never
// below the frame's stack base.
func (m *Interpreter) stackShrink(imm types.Word) error {
	sp := m.registers[types.RegSP]
	if imm > sp || sp-imm < m.registers[types.RegSSP] {
		return panicErr(asm.MemoryOverflow)
	}
	m.registers[types.RegSP] = sp - imm
	return nil
}

// pushStack appends data at $ssp, claiming the bytes for the current frame.
// $sp tracks $ssp whenever it would fall behind.
func (m *Interpreter) pushStack(data ...[]byte) error {
	ssp := m.registers[types.RegSSP]
	for _, d := range data {
		end, err := m.checkedRange(ssp, types.Word(len(d)))
		if err != nil {
			return err
		}
		if end > m.registers[types.RegHP] {
			return panicErr(asm.MemoryOverflow)
		}
		copy(m.memory[ssp:end], d)
		ssp = end
	}
	m.registers[types.RegSSP] = ssp
	if m.registers[types.RegSP] < ssp {
		m.registers[types.RegSP] = ssp
	}
	return nil
}

// memClear implements MCL/MCLI: zero size bytes at addr.
func (m *Interpreter) memClear(addr, size types.Word) error {
	if err := m.chargeOf(asm.MCL, size); err != nil {
		return err
	}
	end, err := m.checkedRange(addr, size)
	if err != nil {
		return err
	}
	if !m.ownsRange(addr, size) {
		return panicErr(asm.MemoryOwnership)
	}
	clear(m.memory[addr:end])
	return nil
}

// memCopy implements MCP/MCPI: copy size bytes from src to dst. The ranges
// must not overlap.
func (m *Interpreter) memCopy(dst, src, size types.Word) error {
	if err := m.chargeOf(asm.MCP, size); err != nil {
		return err
	}
	dstEnd, err := m.checkedRange(dst, size)
	if err != nil {
		return err
	}
	srcEnd, err := m.checkedRange(src, size)
	if err != nil {
		return err
	}
	if size > 0 && dst < srcEnd && src < dstEnd {
		return panicErr(asm.MemoryWriteOverlap)
	}
	if !m.ownsRange(dst, size) {
		return panicErr(asm.MemoryOwnership)
	}
	copy(m.memory[dst:dstEnd], m.memory[src:srcEnd])
	return nil
}

// memEq implements MEQ: ra = 1 if the size-rd ranges at rb and rc are equal.
func (m *Interpreter) memEq(ra, rb, rc, rd types.RegisterID) error {
	size := m.registers[rd]
	if err := m.chargeOf(asm.MEQ, size); err != nil {
		return err
	}
	left, err := m.readMemory(m.registers[rb], size)
	if err != nil {
		return err
	}
	right, err := m.readMemory(m.registers[rc], size)
	if err != nil {
		return err
	}
	eq := types.Word(0)
	if string(left) == string(right) {
		eq = 1
	}
	return m.writeRegister(ra, eq)
}
