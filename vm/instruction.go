package vm

import (
	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/types"
)

// Step runs one fetch/validate/charge/apply cycle. Gas is charged before the
// instruction's effect, so an under-funded instruction never partially
// executes. A recoverable panic comes back as a *PanicError carrying the
// offending instruction word; anything else is an environment failure.
func (m *Interpreter) Step() (ExecuteState, error) {
	pc := m.registers[types.RegPC]
	if m.debugger != nil {
		if bp, hit := m.debugger.trap(m.contextContractID(), pc); hit {
			return ExecuteState{Kind: KindSuspend, Breakpoint: bp}, nil
		}
	}

	instr, err := m.fetch(pc)
	if err != nil {
		return ExecuteState{}, err
	}
	state, err := m.execute(instr)
	if err != nil {
		if pe, ok := AsPanic(err); ok && pe.Desc.Instruction == 0 {
			pe.Desc.Instruction = instr
		}
		return ExecuteState{}, err
	}
	return state, nil
}

func (m *Interpreter) fetch(pc types.Word) (asm.Instruction, error) {
	end := pc + asm.Len
	if end < pc || end > m.params.MaxRAM {
		return 0, panicErr(asm.MemoryOverflow)
	}
	instr, _ := asm.Parse(m.memory[pc:end])
	return instr, nil
}

// dynamicCost marks opcodes whose charge depends on a length known only to
// the handler; everything else is charged its flat cost up front.
func dynamicCost(op asm.Opcode) bool {
	switch op {
	case asm.MCL, asm.MCLI, asm.MCP, asm.MCPI, asm.MEQ, asm.LOGD, asm.RETD,
		asm.CCP, asm.CROO, asm.LDC, asm.K256, asm.S256, asm.SMO:
		return true
	}
	return false
}

func (m *Interpreter) execute(instr asm.Instruction) (ExecuteState, error) {
	op := instr.Op()
	if !op.Valid() {
		return ExecuteState{}, panicErr(asm.InvalidInstruction)
	}
	if !dynamicCost(op) {
		if err := m.charge(m.costs.Cost(op)); err != nil {
			return ExecuteState{}, err
		}
	}

	ra, rb, rc, rd := instr.RA(), instr.RB(), instr.RC(), instr.RD()
	b, c := m.registers[rb], m.registers[rc]
	proceed := ExecuteState{Kind: KindProceed}

	var err error
	switch op {
	// ALU, register operands.
	case asm.ADD:
		err = m.aluAdd(ra, b, c)
	case asm.SUB:
		err = m.aluSub(ra, b, c)
	case asm.MUL:
		err = m.aluMul(ra, b, c)
	case asm.DIV:
		err = m.aluDiv(ra, b, c)
	case asm.MOD:
		err = m.aluMod(ra, b, c)
	case asm.EXP:
		err = m.aluExp(ra, b, c)
	case asm.MLOG:
		err = m.aluMlog(ra, b, c)
	case asm.MROO:
		err = m.aluMroo(ra, b, c)
	case asm.AND:
		err = m.aluSet(ra, b&c)
	case asm.OR:
		err = m.aluSet(ra, b|c)
	case asm.XOR:
		err = m.aluSet(ra, b^c)
	case asm.NOT:
		err = m.aluSet(ra, ^b)
	case asm.EQ:
		err = m.aluSet(ra, boolWord(b == c))
	case asm.GT:
		err = m.aluSet(ra, boolWord(b > c))
	case asm.LT:
		err = m.aluSet(ra, boolWord(b < c))
	case asm.SLL:
		err = m.aluShl(ra, b, c)
	case asm.SRL:
		err = m.aluShr(ra, b, c)
	case asm.MOVE:
		err = m.aluSet(ra, b)

	// ALU, 12 bit immediate.
	case asm.ADDI:
		err = m.aluAdd(ra, b, instr.Imm12())
	case asm.SUBI:
		err = m.aluSub(ra, b, instr.Imm12())
	case asm.MULI:
		err = m.aluMul(ra, b, instr.Imm12())
	case asm.DIVI:
		err = m.aluDiv(ra, b, instr.Imm12())
	case asm.MODI:
		err = m.aluMod(ra, b, instr.Imm12())
	case asm.EXPI:
		err = m.aluExp(ra, b, instr.Imm12())
	case asm.ANDI:
		err = m.aluSet(ra, b&instr.Imm12())
	case asm.ORI:
		err = m.aluSet(ra, b|instr.Imm12())
	case asm.XORI:
		err = m.aluSet(ra, b^instr.Imm12())
	case asm.SLLI:
		err = m.aluShl(ra, b, instr.Imm12())
	case asm.SRLI:
		err = m.aluShr(ra, b, instr.Imm12())
	case asm.MOVI:
		err = m.aluSet(ra, instr.Imm18())

	// Control flow.
	case asm.JMP:
		return proceed, m.jump(m.registers[ra])
	case asm.JI:
		return proceed, m.jump(instr.Imm24())
	case asm.JNE:
		return proceed, m.jumpIf(m.registers[ra] != b, c)
	case asm.JNEI:
		return proceed, m.jumpIf(m.registers[ra] != b, instr.Imm12())
	case asm.JNZI:
		return proceed, m.jumpIf(m.registers[ra] != 0, instr.Imm18())
	case asm.RET:
		return m.ret(ra)
	case asm.RETD:
		return m.retd(ra, rb)
	case asm.RVRT:
		return m.revert(ra), nil
	case asm.CALL:
		if err := m.call(ra, rb, rc, rd); err != nil {
			return ExecuteState{}, err
		}
		return proceed, nil

	// Memory.
	case asm.ALOC:
		err = m.malloc(m.registers[ra])
	case asm.CFEI:
		err = m.stackExtend(instr.Imm24())
	case asm.CFSI:
		err = m.stackShrink(instr.Imm24())
	case asm.LB:
		err = m.loadByte(ra, rb, instr.Imm12())
	case asm.LW:
		err = m.loadWord(ra, rb, instr.Imm12())
	case asm.SB:
		err = m.storeByte(ra, rb, instr.Imm12())
	case asm.SW:
		err = m.storeWord(ra, rb, instr.Imm12())
	case asm.MCL:
		err = m.memClear(m.registers[ra], b)
	case asm.MCLI:
		err = m.memClear(m.registers[ra], instr.Imm18())
	case asm.MCP:
		err = m.memCopy(m.registers[ra], b, c)
	case asm.MCPI:
		err = m.memCopy(m.registers[ra], b, instr.Imm12())
	case asm.MEQ:
		err = m.memEq(ra, rb, rc, rd)

	// Blockchain and storage.
	case asm.BHSH:
		err = m.blockHash(ra, rb)
	case asm.BHEI:
		err = m.blockHeight(ra)
	case asm.CB:
		err = m.coinbase(ra)
	case asm.BAL:
		err = m.contractBalance(ra, rb, rc)
	case asm.BURN:
		err = m.burn(ra)
	case asm.MINT:
		err = m.mint(ra)
	case asm.CCP:
		err = m.codeCopy(ra, rb, rc, rd)
	case asm.CROO:
		err = m.codeRoot(ra, rb)
	case asm.CSIZ:
		err = m.codeSize(ra, rb)
	case asm.LDC:
		err = m.loadContractCode(ra, rb, rc)
	case asm.SRW:
		err = m.stateReadWord(ra, rb)
	case asm.SRWQ:
		err = m.stateReadQword(ra, rb)
	case asm.SWW:
		err = m.stateWriteWord(ra, rb)
	case asm.SWWQ:
		err = m.stateWriteQword(ra, rb)
	case asm.TR:
		err = m.transfer(ra, rb, rc)
	case asm.TRO:
		err = m.transferOut(ra, rb, rc, rd)
	case asm.SMO:
		err = m.messageOut(ra, rb, rc, rd)
	case asm.LOG:
		err = m.logEvent(ra, rb, rc, rd)
	case asm.LOGD:
		err = m.logData(ra, rb, rc, rd)
	case asm.GM:
		err = m.getMetadata(ra, instr.Imm18())

	// Crypto.
	case asm.ECR:
		err = m.ecRecover(ra, rb, rc)
	case asm.K256:
		err = m.keccak256(ra, rb, rc)
	case asm.S256:
		err = m.sha256(ra, rb, rc)

	// Wide integer ops.
	case asm.WDCM:
		err = m.wideCompare(ra, rb, rc, rd, 16)
	case asm.WQCM:
		err = m.wideCompare(ra, rb, rc, rd, 32)
	case asm.WDOP:
		err = m.wideOp(ra, rb, rc, rd, 16)
	case asm.WQOP:
		err = m.wideOp(ra, rb, rc, rd, 32)
	case asm.WDML:
		err = m.wideMul(ra, rb, rc, 16)
	case asm.WQML:
		err = m.wideMul(ra, rb, rc, 32)
	case asm.WDDV:
		err = m.wideDiv(ra, rb, rc, 16)
	case asm.WQDV:
		err = m.wideDiv(ra, rb, rc, 32)

	case asm.FLAG:
		m.registers[types.RegFlag] = m.registers[ra]
	case asm.NOOP:
	}

	if err != nil {
		return ExecuteState{}, err
	}
	m.registers[types.RegPC] += asm.Len
	return proceed, nil
}
