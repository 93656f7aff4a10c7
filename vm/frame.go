package vm

import (
	"bytes"
	"encoding/binary"

	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/types"
)

// FrameHeaderSize is the serialized size of a call frame header as pushed
// onto the stack: target id, asset id, the 64 saved registers, code size and
// the two call parameters. The callee's code follows the header.
const FrameHeaderSize = 32 + 32 + types.RegisterCount*types.WordSize + 3*types.WordSize

// CallFrame is the activation record of one nested contract invocation. The
// frame stack is an index-addressed slice; depth is bounded by
// Params.MaxCallDepth.
type CallFrame struct {
	// To is the called contract.
	To types.ContractID
	// Asset is the asset forwarded with the call.
	Asset types.AssetID
	// Registers is the caller's register file at the call site, restored on
	// return except for $ggas, $cgas, $ret and $retl.
	Registers [types.RegisterCount]types.Word
	// CodeSize is the unpadded callee bytecode length.
	CodeSize types.Word
	// A and B are the call parameters taken from the call structure.
	A, B types.Word

	// fpAddr is where the frame was laid down in memory.
	fpAddr types.Word
	// heapCeil is the caller's heap ceiling, restored on return.
	heapCeil types.Word
}

// Bytes serializes the frame header as written to the stack at $fp.
func (f *CallFrame) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(FrameHeaderSize)
	buf.Write(f.To[:])
	buf.Write(f.Asset[:])
	var b [types.WordSize]byte
	for _, r := range f.Registers {
		binary.BigEndian.PutUint64(b[:], r)
		buf.Write(b[:])
	}
	binary.BigEndian.PutUint64(b[:], f.CodeSize)
	buf.Write(b[:])
	binary.BigEndian.PutUint64(b[:], f.A)
	buf.Write(b[:])
	binary.BigEndian.PutUint64(b[:], f.B)
	buf.Write(b[:])
	return buf.Bytes()
}

// callStructSize is the in-memory call structure read by CALL: target id
// plus two parameter words.
const callStructSize = 32 + 2*types.WordSize

// readCallStruct decodes the call structure at addr. The structure must be
// word-aligned.
func (m *Interpreter) readCallStruct(addr types.Word) (to types.ContractID, a, b types.Word, err error) {
	if addr%types.WordSize != 0 {
		return to, 0, 0, panicErr(asm.MalformedCallStructure)
	}
	buf, err := m.readMemory(addr, callStructSize)
	if err != nil {
		return to, 0, 0, err
	}
	copy(to[:], buf[:32])
	a = binary.BigEndian.Uint64(buf[32:40])
	b = binary.BigEndian.Uint64(buf[40:48])
	return to, a, b, nil
}

// wordPadded pads b up to the next word boundary with zeroes.
func wordPadded(b []byte) []byte {
	rem := len(b) % types.WordSize
	if rem == 0 {
		return b
	}
	padded := make([]byte, len(b)+types.WordSize-rem)
	copy(padded, b)
	return padded
}
