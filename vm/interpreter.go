package vm

import (
	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/gas"
	"github.com/colorfulnotion/fvm/storage"
	"github.com/colorfulnotion/fvm/tx"
	"github.com/colorfulnotion/fvm/types"
)

// Interpreter is one machine state: created per execution attempt, mutated
// exclusively by the step loop, discarded after a terminal outcome. A state
// exclusively owns its storage view for the duration of the attempt;
// sequencing concurrent transactions is the caller's responsibility.
type Interpreter struct {
	registers [types.RegisterCount]types.Word
	memory    []byte
	frames    []CallFrame
	receipts  []types.Receipt

	checked *tx.Checked
	store   storage.Store
	params  types.Params
	costs   *gas.Table

	context Context

	// free per-asset balances of the outermost context, seeded from the
	// transaction's coin inputs.
	balances map[types.AssetID]types.Word

	// heapCeil is the exclusive upper bound of heap allocations owned by
	// the current frame; the region [$hp, heapCeil) is writable.
	heapCeil types.Word

	// predicateIdx is the input index under verification in predicate
	// context.
	predicateIdx int

	debugger *Debugger
}

// NewInterpreter builds a script-context machine over the given storage
// view. A nil cost table selects the default price list.
func NewInterpreter(store storage.Store, params types.Params, costs *gas.Table) *Interpreter {
	if costs == nil {
		costs = gas.DefaultTable()
	}
	return &Interpreter{
		memory:   make([]byte, params.MaxRAM),
		store:    store,
		params:   params,
		costs:    costs,
		context:  ContextScript,
		balances: make(map[types.AssetID]types.Word),
	}
}

// NewPredicateInterpreter builds a predicate-context machine. The storage
// view rejects every access; contract instructions panic before reaching it.
func NewPredicateInterpreter(params types.Params, costs *gas.Table) *Interpreter {
	m := NewInterpreter(storage.NewPredicateStore(), params, costs)
	m.context = ContextPredicate
	return m
}

// Register reads one register.
func (m *Interpreter) Register(id types.RegisterID) types.Word {
	return m.registers[id]
}

// Registers returns a copy of the register file.
func (m *Interpreter) Registers() [types.RegisterCount]types.Word {
	return m.registers
}

// Memory exposes the raw memory image. Callers must not retain it across
// steps.
func (m *Interpreter) Memory() []byte { return m.memory }

// Receipts returns the receipts appended so far, in execution order.
func (m *Interpreter) Receipts() []types.Receipt { return m.receipts }

// Frames returns the live call frame stack, outermost first.
func (m *Interpreter) Frames() []CallFrame { return m.frames }

// Context returns the execution mode.
func (m *Interpreter) Context() Context { return m.context }

// Transaction returns the checked transaction being executed, nil before
// initialization.
func (m *Interpreter) Transaction() *tx.Checked { return m.checked }

// GasUsed is the gas consumed so far against the transaction limit.
func (m *Interpreter) GasUsed() types.Word {
	if m.checked == nil {
		return 0
	}
	return m.checked.Tx.GasLimit - m.registers[types.RegGGas]
}

// Attach installs a debugger. Debugging is excluded from determinism
// guarantees.
func (m *Interpreter) Attach(d *Debugger) { m.debugger = d }

// writeRegister stores value into a caller-writable register. Writes to
// interpreter-maintained registers panic regardless of the value.
func (m *Interpreter) writeRegister(id types.RegisterID, value types.Word) error {
	if types.IsReserved(id) {
		return panicErr(asm.ReservedRegisterNotWritable)
	}
	m.registers[id] = value
	return nil
}

// charge deducts amount from both gas registers. An insufficient budget
// zeroes both so the remaining budget reads exactly zero, then panics.
func (m *Interpreter) charge(amount types.Word) error {
	if amount > m.registers[types.RegCGas] || amount > m.registers[types.RegGGas] {
		m.registers[types.RegCGas] = 0
		m.registers[types.RegGGas] = 0
		return panicErr(asm.OutOfGas)
	}
	m.registers[types.RegCGas] -= amount
	m.registers[types.RegGGas] -= amount
	return nil
}

// chargeOf charges the size-dependent cost of op over length bytes. Called
// by handlers before any effect is applied.
func (m *Interpreter) chargeOf(op asm.Opcode, length types.Word) error {
	return m.charge(m.costs.CostOf(op, length))
}

// contextContractID is the contract owning the current context, zero for the
// outermost script frame.
func (m *Interpreter) contextContractID() types.ContractID {
	if len(m.frames) == 0 {
		return types.ContractID{}
	}
	return m.frames[len(m.frames)-1].To
}

// internalContext reports whether execution is inside a contract call.
func (m *Interpreter) internalContext() bool { return len(m.frames) > 0 }

// contractOp gates instructions that touch contracts or persistent state:
// they are disallowed during predicate verification.
func (m *Interpreter) contractOp() error {
	if m.context == ContextPredicate {
		return panicErr(asm.ContractInstructionNotAllowed)
	}
	return nil
}

// freeBalance reads the outermost context's balance for asset.
func (m *Interpreter) freeBalance(asset types.AssetID) types.Word {
	return m.balances[asset]
}

// debitBalance removes amount from the current context's balance: the
// contract's storage balance inside a call, the transaction's free coin
// balance outside.
func (m *Interpreter) debitBalance(asset types.AssetID, amount types.Word) error {
	if amount == 0 {
		return nil
	}
	if !m.internalContext() {
		have := m.balances[asset]
		if have < amount {
			return panicErr(asm.NotEnoughBalance)
		}
		m.balances[asset] = have - amount
		return nil
	}
	id := m.contextContractID()
	have, err := m.store.Balance(id, asset)
	if err != nil {
		return storeErr("balance", err)
	}
	if have < amount {
		return panicErr(asm.NotEnoughBalance)
	}
	if err := m.store.SetBalance(id, asset, have-amount); err != nil {
		return storeErr("set balance", err)
	}
	return nil
}

// creditContract adds amount to a contract's storage balance.
func (m *Interpreter) creditContract(id types.ContractID, asset types.AssetID, amount types.Word) error {
	if amount == 0 {
		return nil
	}
	have, err := m.store.Balance(id, asset)
	if err != nil {
		return storeErr("balance", err)
	}
	sum := have + amount
	if sum < have {
		return panicErr(asm.InternalBalanceOverflow)
	}
	if err := m.store.SetBalance(id, asset, sum); err != nil {
		return storeErr("set balance", err)
	}
	return nil
}

// declaredContract checks that the transaction declared id as an input.
func (m *Interpreter) declaredContract(id types.ContractID) error {
	for _, in := range m.checked.Tx.InputContracts() {
		if in == id {
			return nil
		}
	}
	return panicErr(asm.ContractNotInInputs)
}

// appendReceipt appends to the ordered, append-only receipt log.
func (m *Interpreter) appendReceipt(r types.Receipt) {
	m.receipts = append(m.receipts, r)
}
