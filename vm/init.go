package vm

import (
	"fmt"

	"github.com/colorfulnotion/fvm/tx"
	"github.com/colorfulnotion/fvm/types"
)

// Initialization lays the invariant prefix of the stack: the transaction id,
// the length of the transaction image, the image itself (word padded), and
// the per-asset coin balance table. The entry point is then derived from the
// entry context: the script offset inside the image, or a predicate program
// range for predicate verification.

func (m *Interpreter) initTx(checked *tx.Checked) error {
	m.checked = checked
	m.registers = [types.RegisterCount]types.Word{}
	m.registers[types.RegOne] = 1
	m.registers[types.RegHP] = m.params.MaxRAM
	m.heapCeil = m.params.MaxRAM

	id := checked.ID()
	encoded := checked.Encoded()
	if err := m.pushStack(id[:],
		types.Uint64ToBytes(types.Word(len(encoded))),
		wordPadded(encoded)); err != nil {
		return err
	}
	for _, bal := range checked.Tx.CoinBalances() {
		if err := m.pushStack(bal.Asset[:], types.Uint64ToBytes(bal.Amount)); err != nil {
			return err
		}
		m.balances[bal.Asset] = bal.Amount
	}
	m.registers[types.RegSP] = m.registers[types.RegSSP]

	m.registers[types.RegGGas] = checked.Tx.GasLimit
	m.registers[types.RegCGas] = checked.Tx.GasLimit
	return nil
}

// InitScript prepares the machine to execute a script transaction.
func (m *Interpreter) InitScript(checked *tx.Checked) error {
	if !checked.Tx.IsScript() {
		return ErrNotScript
	}
	if err := m.initTx(checked); err != nil {
		return err
	}
	m.registers[types.RegIS] = types.TxMemOffset + checked.Tx.ScriptOffset()
	m.registers[types.RegPC] = m.registers[types.RegIS]
	return nil
}

// InitPredicate prepares the machine to verify the predicate of input idx,
// with its own gas budget. The instruction range is the predicate bytecode
// inside the transaction image.
func (m *Interpreter) InitPredicate(checked *tx.Checked, idx int, gasBudget types.Word) error {
	if m.context != ContextPredicate {
		return fmt.Errorf("vm: predicate init on %s machine", m.context)
	}
	off, _, ok := checked.Tx.PredicateOffset(idx)
	if !ok {
		return fmt.Errorf("vm: input %d carries no predicate", idx)
	}
	if err := m.initTx(checked); err != nil {
		return err
	}
	m.predicateIdx = idx
	m.registers[types.RegGGas] = gasBudget
	m.registers[types.RegCGas] = gasBudget
	m.registers[types.RegIS] = types.TxMemOffset + off
	m.registers[types.RegPC] = m.registers[types.RegIS]
	return nil
}
