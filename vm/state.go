// Package vm implements the deterministic register machine: a 64-register
// file over a bounded linear memory, a gas-metered fetch/dispatch loop, an
// index-addressed call frame stack and an append-only receipt log, executing
// checked transactions against an external storage adapter.
package vm

import (
	"fmt"

	"github.com/colorfulnotion/fvm/types"
)

// StateKind classifies the outcome of a single step or a whole run.
type StateKind uint8

const (
	// KindProceed continues to the next instruction.
	KindProceed StateKind = iota
	// KindReturn is a RET reaching the outermost context.
	KindReturn
	// KindReturnData is a RETD reaching the outermost context.
	KindReturnData
	// KindRevert is an explicit RVRT anywhere in the call stack.
	KindRevert
	// KindSuspend is a breakpoint hit; non-terminal, resumable.
	KindSuspend
)

func (k StateKind) String() string {
	switch k {
	case KindProceed:
		return "proceed"
	case KindReturn:
		return "return"
	case KindReturnData:
		return "return_data"
	case KindRevert:
		return "revert"
	case KindSuspend:
		return "suspend"
	}
	return fmt.Sprintf("StateKind(%d)", uint8(k))
}

// ExecuteState is the outcome of one step of the loop.
type ExecuteState struct {
	Kind   StateKind
	Value  types.Word
	Digest types.Hash

	// Breakpoint is set when Kind is KindSuspend.
	Breakpoint Breakpoint
}

// ProgramState is a terminal (or suspended) outcome of a whole run.
type ProgramState struct {
	Kind   StateKind
	Value  types.Word
	Digest types.Hash

	Breakpoint Breakpoint
}

func (p ProgramState) String() string {
	switch p.Kind {
	case KindReturn, KindRevert:
		return fmt.Sprintf("%s(%d)", p.Kind, p.Value)
	case KindReturnData:
		return fmt.Sprintf("%s(%s)", p.Kind, p.Digest.Hex())
	}
	return p.Kind.String()
}

// Suspended reports whether the program hit a breakpoint and can be resumed.
func (p ProgramState) Suspended() bool { return p.Kind == KindSuspend }

// Context tags the execution mode of a machine state.
type Context uint8

const (
	// ContextScript executes a transaction script with full storage access.
	ContextScript Context = iota
	// ContextPredicate verifies a predicate program: no storage access, no
	// contract instructions, forward jumps only.
	ContextPredicate
)

func (c Context) String() string {
	if c == ContextPredicate {
		return "predicate"
	}
	return "script"
}
