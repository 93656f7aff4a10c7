package vm

import (
	"fmt"

	"github.com/colorfulnotion/fvm/types"
)

// Breakpoint suspends execution when the given contract reaches the given
// $pc value. The zero contract id targets the outermost script context.
type Breakpoint struct {
	Contract types.ContractID
	PC       types.Word
}

func (b Breakpoint) String() string {
	return fmt.Sprintf("breakpoint %s@%d", b.Contract.Hex(), b.PC)
}

// Debugger holds breakpoints and the single-stepping switch. Debugging is a
// local inspection tool, excluded from determinism guarantees; two nodes
// must never diverge on whether a debugger was attached.
type Debugger struct {
	breakpoints map[types.ContractID]map[types.Word]struct{}
	singleStep  bool

	// lastBreak suppresses re-triggering at the pc just resumed from.
	lastBreak *Breakpoint
}

func NewDebugger() *Debugger {
	return &Debugger{breakpoints: make(map[types.ContractID]map[types.Word]struct{})}
}

// SetBreakpoint arms a breakpoint.
func (d *Debugger) SetBreakpoint(bp Breakpoint) {
	set, ok := d.breakpoints[bp.Contract]
	if !ok {
		set = make(map[types.Word]struct{})
		d.breakpoints[bp.Contract] = set
	}
	set[bp.PC] = struct{}{}
}

// ClearBreakpoint disarms a breakpoint.
func (d *Debugger) ClearBreakpoint(bp Breakpoint) {
	if set, ok := d.breakpoints[bp.Contract]; ok {
		delete(set, bp.PC)
	}
}

// SetSingleStepping toggles suspension after every instruction.
func (d *Debugger) SetSingleStepping(on bool) { d.singleStep = on }

// SingleStepping reports the switch.
func (d *Debugger) SingleStepping() bool { return d.singleStep }

// trap decides whether to suspend before executing at pc. Resuming from a
// suspension does not immediately re-trap at the same location.
func (d *Debugger) trap(contract types.ContractID, pc types.Word) (Breakpoint, bool) {
	if d.lastBreak != nil && d.lastBreak.Contract == contract && d.lastBreak.PC == pc {
		d.lastBreak = nil
		return Breakpoint{}, false
	}
	if set, ok := d.breakpoints[contract]; ok {
		if _, hit := set[pc]; hit {
			bp := Breakpoint{Contract: contract, PC: pc}
			d.lastBreak = &bp
			return bp, true
		}
	}
	return Breakpoint{}, false
}

// Backtrace is a snapshot of the machine taken at a panic: the contract in
// context, the register file and the live frame stack. It exists for
// operators and tests; it is never part of the canonical result.
type Backtrace struct {
	Contract  types.ContractID
	Registers [types.RegisterCount]types.Word
	Frames    []CallFrame
}

// Backtrace captures the current machine state.
func (m *Interpreter) Backtrace() *Backtrace {
	frames := make([]CallFrame, len(m.frames))
	copy(frames, m.frames)
	return &Backtrace{
		Contract:  m.contextContractID(),
		Registers: m.registers,
		Frames:    frames,
	}
}

func (b *Backtrace) String() string {
	return fmt.Sprintf("backtrace: contract=%s depth=%d pc=%d is=%d",
		b.Contract.Hex(), len(b.Frames),
		b.Registers[types.RegPC], b.Registers[types.RegIS])
}
