package vm

import (
	"fmt"
	"log/slog"

	"github.com/colorfulnotion/fvm/gas"
	"github.com/colorfulnotion/fvm/log"
	"github.com/colorfulnotion/fvm/storage"
	"github.com/colorfulnotion/fvm/tx"
	"github.com/colorfulnotion/fvm/types"
)

// Run drives the step loop to a terminal state. A recoverable panic appends
// its Panic receipt before returning; the caller decides what the panic
// means for the transaction (the Transactor reverts it). Breakpoint
// suspensions return a resumable ProgramState instead.
func (m *Interpreter) Run() (ProgramState, error) {
	for {
		state, err := m.Step()
		if err != nil {
			if pe, ok := AsPanic(err); ok {
				m.appendReceipt(types.PanicReceipt(m.contextContractID(),
					uint8(pe.Desc.Reason), pe.Desc.Instruction.Bits(),
					m.registers[types.RegPC], m.registers[types.RegIS]))
			}
			return ProgramState{}, err
		}
		switch state.Kind {
		case KindProceed:
			if m.debugger != nil && m.debugger.SingleStepping() {
				return ProgramState{Kind: KindSuspend}, nil
			}
		case KindSuspend:
			return ProgramState{Kind: KindSuspend, Breakpoint: state.Breakpoint}, nil
		default:
			return ProgramState{Kind: state.Kind, Value: state.Value, Digest: state.Digest}, nil
		}
	}
}

// CheckPredicates verifies every predicate-gated input of the transaction,
// each in a fresh predicate machine with its own gas budget. A predicate
// that terminates with anything but Return(1) fails verification; panics
// inside a predicate are verification failures too, never crashes.
func CheckPredicates(checked *tx.Checked, params types.Params, costs *gas.Table) error {
	for idx := range checked.Tx.Inputs {
		if _, _, ok := checked.Tx.PredicateOffset(idx); !ok {
			continue
		}
		machine := NewPredicateInterpreter(params, costs)
		if err := machine.InitPredicate(checked, idx, checked.Tx.GasLimit); err != nil {
			return err
		}
		state, err := machine.Run()
		if err != nil {
			if _, ok := AsPanic(err); ok {
				return fmt.Errorf("%w: input %d: %v", ErrPredicateFailed, idx, err)
			}
			return err
		}
		if state.Kind != KindReturn || state.Value != 1 {
			return fmt.Errorf("%w: input %d returned %s", ErrPredicateFailed, idx, state)
		}
	}
	return nil
}

// StateTransition is the externally visible outcome of one transaction: the
// terminal state, the ordered receipts and their merkle root, and the gas
// consumed. Two nodes executing the same checked transaction over the same
// state must produce byte-identical transitions.
type StateTransition struct {
	State    ProgramState
	Receipts []types.Receipt
	Root     types.Hash
	GasUsed  types.Word
}

// Transactor executes checked transactions against a store, committing
// mutations only on success and rolling them back on revert or panic.
type Transactor struct {
	store  storage.Store
	params types.Params
	costs  *gas.Table
	logger *slog.Logger

	machine *Interpreter
}

// NewTransactor builds a transactor over store. A nil cost table selects the
// default price list.
func NewTransactor(store storage.Store, params types.Params, costs *gas.Table) *Transactor {
	if costs == nil {
		costs = gas.DefaultTable()
	}
	return &Transactor{
		store:  store,
		params: params,
		costs:  costs,
		logger: log.New("transactor"),
	}
}

// Interpreter exposes the machine of the last Transact call for inspection.
func (t *Transactor) Interpreter() *Interpreter { return t.machine }

// ContractID derives the deployment id of bytecode under salt.
func ContractID(salt types.Hash, code []byte) types.ContractID {
	return types.ContractID(types.Sha256(salt[:], code))
}

// Transact verifies predicates, then executes the transaction: deployment
// for a Create, the script otherwise. The returned transition carries
// exactly one ScriptResult receipt for script transactions.
func (t *Transactor) Transact(checked *tx.Checked) (*StateTransition, error) {
	if err := CheckPredicates(checked, t.params, t.costs); err != nil {
		return nil, err
	}
	if !checked.Tx.IsScript() {
		return t.deploy(checked)
	}
	return t.script(checked)
}

func (t *Transactor) deploy(checked *tx.Checked) (*StateTransition, error) {
	id := ContractID(checked.Tx.Salt, checked.Tx.Bytecode)
	if err := t.store.InsertContractCode(id, checked.Tx.Bytecode); err != nil {
		return nil, storeErr("insert contract code", err)
	}
	t.logger.Info("contract deployed", "id", id.Hex(), "size", len(checked.Tx.Bytecode))
	return &StateTransition{
		State: ProgramState{Kind: KindReturn, Value: 1},
		Root:  types.EmptyReceiptsRoot,
	}, nil
}

func (t *Transactor) script(checked *tx.Checked) (*StateTransition, error) {
	overlay := storage.NewTransactional(t.store)
	machine := NewInterpreter(overlay, t.params, t.costs)
	t.machine = machine
	if err := machine.InitScript(checked); err != nil {
		return nil, err
	}

	state, err := machine.Run()
	if err != nil {
		pe, ok := AsPanic(err)
		if !ok {
			return nil, err
		}
		// the Panic receipt is already appended; a panicked script reverts
		overlay.Discard()
		gasUsed := machine.GasUsed()
		machine.appendReceipt(types.ScriptResultReceipt(types.ScriptPanic, gasUsed))
		t.logger.Debug("script panicked", "reason", pe.Desc.Reason.String(),
			"gasUsed", gasUsed, "backtrace", machine.Backtrace())
		return t.transition(machine, ProgramState{Kind: KindRevert}), nil
	}
	if state.Suspended() {
		return nil, fmt.Errorf("vm: transaction suspended at %s", state.Breakpoint)
	}

	gasUsed := machine.GasUsed()
	switch state.Kind {
	case KindRevert:
		overlay.Discard()
		machine.appendReceipt(types.ScriptResultReceipt(types.ScriptRevert, gasUsed))
	default:
		machine.appendReceipt(types.ScriptResultReceipt(types.ScriptSuccess, gasUsed))
		if err := overlay.Commit(); err != nil {
			return nil, storeErr("commit", err)
		}
	}
	return t.transition(machine, state), nil
}

func (t *Transactor) transition(machine *Interpreter, state ProgramState) *StateTransition {
	receipts := machine.Receipts()
	return &StateTransition{
		State:    state,
		Receipts: receipts,
		Root:     types.ReceiptsRoot(receipts),
		GasUsed:  machine.GasUsed(),
	}
}
