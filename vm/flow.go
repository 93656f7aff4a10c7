package vm

import (
	"errors"
	"math/bits"

	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/storage"
	"github.com/colorfulnotion/fvm/types"
)

// jump sets $pc to $is + offset*4. Jump targets are instruction offsets
// relative to the start of the executing code. During predicate verification
// backward jumps are illegal, which bounds verification by program length.
func (m *Interpreter) jump(offset types.Word) error {
	is := m.registers[types.RegIS]
	hi, rel := bits.Mul64(offset, asm.Len)
	target, carry := bits.Add64(is, rel, 0)
	if hi != 0 || carry != 0 || target > m.params.MaxRAM-asm.Len {
		return panicErr(asm.MemoryOverflow)
	}
	if m.context == ContextPredicate && target < m.registers[types.RegPC] {
		return panicErr(asm.IllegalJump)
	}
	m.registers[types.RegPC] = target
	return nil
}

// jumpIf jumps when cond holds, otherwise advances to the next instruction.
func (m *Interpreter) jumpIf(cond bool, offset types.Word) error {
	if !cond {
		m.registers[types.RegPC] += asm.Len
		return nil
	}
	return m.jump(offset)
}

// call implements CALL: validate the call structure, move the forwarded
// balance, lay the frame and callee code onto the stack, and switch context.
func (m *Interpreter) call(ra, rb, rc, rd types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	if len(m.frames) >= m.params.MaxCallDepth {
		return panicErr(asm.CallStackOverflow)
	}
	to, a, b, err := m.readCallStruct(m.registers[ra])
	if err != nil {
		return err
	}
	asset, err := m.readAssetID(m.registers[rc])
	if err != nil {
		return err
	}
	if err := m.declaredContract(to); err != nil {
		return err
	}
	code, err := m.store.ContractCode(to)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return panicErr(asm.ContractNotFound)
		}
		return storeErr("contract code", err)
	}
	amount := m.registers[rb]
	if err := m.debitBalance(asset, amount); err != nil {
		return err
	}
	if err := m.creditContract(to, asset, amount); err != nil {
		return err
	}

	forwarded := m.registers[rd]
	if forwarded > m.registers[types.RegCGas] {
		forwarded = m.registers[types.RegCGas]
	}
	m.registers[types.RegCGas] -= forwarded

	caller := m.contextContractID()
	frame := CallFrame{
		To:        to,
		Asset:     asset,
		Registers: m.registers,
		CodeSize:  types.Word(len(code)),
		A:         a,
		B:         b,
		fpAddr:    m.registers[types.RegSSP],
		heapCeil:  m.heapCeil,
	}
	if err := m.pushStack(frame.Bytes(), wordPadded(code)); err != nil {
		return err
	}

	m.registers[types.RegFP] = frame.fpAddr
	m.registers[types.RegSP] = m.registers[types.RegSSP]
	m.registers[types.RegIS] = frame.fpAddr + FrameHeaderSize
	m.registers[types.RegPC] = m.registers[types.RegIS]
	m.registers[types.RegBal] = amount
	m.registers[types.RegCGas] = forwarded
	m.heapCeil = m.registers[types.RegHP]
	m.frames = append(m.frames, frame)

	m.appendReceipt(types.CallReceipt(caller, to, amount, asset, forwarded, a, b,
		m.registers[types.RegPC], m.registers[types.RegIS]))
	return nil
}

// returnFromContext pops the current frame, restoring every saved register
// except $ggas, $cgas, $ret and $retl, and resumes after the call site.
func (m *Interpreter) returnFromContext() {
	frame := m.frames[len(m.frames)-1]
	m.frames = m.frames[:len(m.frames)-1]

	remGGas := m.registers[types.RegGGas]
	remCGas := m.registers[types.RegCGas]
	ret := m.registers[types.RegRet]
	retl := m.registers[types.RegRetL]

	m.registers = frame.Registers
	m.registers[types.RegGGas] = remGGas
	m.registers[types.RegCGas] += remCGas
	m.registers[types.RegRet] = ret
	m.registers[types.RegRetL] = retl
	m.registers[types.RegPC] += asm.Len
	m.heapCeil = frame.heapCeil
}

// ret implements RET: terminal Return in the outermost context, frame pop
// otherwise.
func (m *Interpreter) ret(ra types.RegisterID) (ExecuteState, error) {
	value := m.registers[ra]
	m.appendReceipt(types.ReturnReceipt(m.contextContractID(), value,
		m.registers[types.RegPC], m.registers[types.RegIS]))
	m.registers[types.RegRet] = value
	m.registers[types.RegRetL] = 0
	if !m.internalContext() {
		return ExecuteState{Kind: KindReturn, Value: value}, nil
	}
	m.returnFromContext()
	return ExecuteState{Kind: KindProceed}, nil
}

// retd implements RETD: like RET but returning a memory range, recorded by
// digest in the receipt.
func (m *Interpreter) retd(ra, rb types.RegisterID) (ExecuteState, error) {
	addr, size := m.registers[ra], m.registers[rb]
	if err := m.chargeOf(asm.RETD, size); err != nil {
		return ExecuteState{}, err
	}
	data, err := m.readMemory(addr, size)
	if err != nil {
		return ExecuteState{}, err
	}
	digest := types.Sha256(data)
	m.appendReceipt(types.ReturnDataReceipt(m.contextContractID(), addr, size, digest,
		m.registers[types.RegPC], m.registers[types.RegIS]))
	m.registers[types.RegRet] = addr
	m.registers[types.RegRetL] = size
	if !m.internalContext() {
		return ExecuteState{Kind: KindReturnData, Digest: digest}, nil
	}
	m.returnFromContext()
	return ExecuteState{Kind: KindProceed}, nil
}

// revert implements RVRT: terminal at any depth, unwinding the whole
// transaction.
func (m *Interpreter) revert(ra types.RegisterID) ExecuteState {
	value := m.registers[ra]
	m.appendReceipt(types.RevertReceipt(m.contextContractID(), value,
		m.registers[types.RegPC], m.registers[types.RegIS]))
	return ExecuteState{Kind: KindRevert, Value: value}
}

// readAssetID reads a 32 byte asset id at addr.
func (m *Interpreter) readAssetID(addr types.Word) (types.AssetID, error) {
	b, err := m.readMemory(addr, 32)
	if err != nil {
		return types.AssetID{}, err
	}
	return types.BytesToAssetID(b), nil
}
