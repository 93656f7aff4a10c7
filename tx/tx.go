// Package tx holds the transaction values consumed by the VM. Structural and
// static validity checking happens here, before execution; the interpreter
// only ever sees a Checked value.
package tx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/colorfulnotion/fvm/types"
)

// InputType discriminates transaction inputs.
type InputType uint8

const (
	// InputCoin spends a coin, optionally gated by a predicate program.
	InputCoin InputType = iota
	// InputContract grants the script access to a deployed contract.
	InputContract
)

// Input is one transaction input.
type Input struct {
	Type InputType

	// Coin fields.
	Owner         types.Address
	Amount        types.Word
	AssetID       types.AssetID
	Predicate     []byte
	PredicateData []byte

	// Contract fields.
	Contract types.ContractID
}

// CoinInput builds a plain coin input.
func CoinInput(owner types.Address, amount types.Word, asset types.AssetID) Input {
	return Input{Type: InputCoin, Owner: owner, Amount: amount, AssetID: asset}
}

// PredicateInput builds a coin input gated by a predicate program.
func PredicateInput(owner types.Address, amount types.Word, asset types.AssetID, predicate, data []byte) Input {
	in := CoinInput(owner, amount, asset)
	in.Predicate = predicate
	in.PredicateData = data
	return in
}

// ContractInput declares a contract the script may call.
func ContractInput(id types.ContractID) Input {
	return Input{Type: InputContract, Contract: id}
}

// Transaction is either a script execution or a contract deployment.
type Transaction struct {
	// Script bytecode and its data section. Empty script with non-empty
	// Bytecode marks a Create transaction.
	Script     []byte
	ScriptData []byte

	// Create fields.
	Bytecode []byte
	Salt     types.Hash

	GasLimit types.Word
	Maturity types.Word
	Inputs   []Input
}

// Script builds a script transaction.
func Script(script, scriptData []byte, gasLimit types.Word, inputs ...Input) *Transaction {
	return &Transaction{Script: script, ScriptData: scriptData, GasLimit: gasLimit, Inputs: inputs}
}

// Create builds a contract deployment transaction.
func Create(bytecode []byte, salt types.Hash, gasLimit types.Word) *Transaction {
	return &Transaction{Bytecode: bytecode, Salt: salt, GasLimit: gasLimit}
}

// IsScript reports whether the transaction executes a script.
func (t *Transaction) IsScript() bool { return len(t.Bytecode) == 0 }

// InputContracts iterates the contract ids declared by the inputs.
func (t *Transaction) InputContracts() []types.ContractID {
	var ids []types.ContractID
	for _, in := range t.Inputs {
		if in.Type == InputContract {
			ids = append(ids, in.Contract)
		}
	}
	return ids
}

// CoinBalances aggregates coin input amounts per asset, sorted by asset id
// so the balance table layout is deterministic.
func (t *Transaction) CoinBalances() []Balance {
	sums := make(map[types.AssetID]types.Word)
	for _, in := range t.Inputs {
		if in.Type == InputCoin {
			sums[in.AssetID] += in.Amount
		}
	}
	out := make([]Balance, 0, len(sums))
	for asset, amount := range sums {
		out = append(out, Balance{Asset: asset, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Asset[:], out[j].Asset[:]) < 0
	})
	return out
}

// Balance is an aggregated per-asset coin amount.
type Balance struct {
	Asset  types.AssetID
	Amount types.Word
}

// Bytes is the canonical transaction encoding: it defines the transaction
// id and the image copied into VM memory during initialization.
func (t *Transaction) Bytes() []byte {
	var buf bytes.Buffer
	if t.IsScript() {
		buf.WriteByte(0x00)
	} else {
		buf.WriteByte(0x01)
	}
	writeWord(&buf, t.GasLimit, t.Maturity)
	writeBytes(&buf, t.Script)
	writeBytes(&buf, t.ScriptData)
	writeBytes(&buf, t.Bytecode)
	buf.Write(t.Salt[:])
	writeWord(&buf, types.Word(len(t.Inputs)))
	for _, in := range t.Inputs {
		buf.WriteByte(byte(in.Type))
		switch in.Type {
		case InputCoin:
			buf.Write(in.Owner[:])
			writeWord(&buf, in.Amount)
			buf.Write(in.AssetID[:])
			writeBytes(&buf, in.Predicate)
			writeBytes(&buf, in.PredicateData)
		case InputContract:
			buf.Write(in.Contract[:])
		}
	}
	return buf.Bytes()
}

// ScriptOffset is the byte offset of the script bytecode inside the
// canonical encoding: the type byte, two header words and the script length
// word precede it. The VM derives its instruction start from this.
func (t *Transaction) ScriptOffset() types.Word {
	return 1 + 2*types.WordSize + types.WordSize
}

// PredicateOffset locates the predicate bytecode of input idx inside the
// canonical encoding. It reports false when the input is not a coin input
// carrying a predicate.
func (t *Transaction) PredicateOffset(idx int) (types.Word, types.Word, bool) {
	if idx < 0 || idx >= len(t.Inputs) || t.Inputs[idx].Type != InputCoin ||
		len(t.Inputs[idx].Predicate) == 0 {
		return 0, 0, false
	}
	off := t.ScriptOffset() + types.Word(len(t.Script)) +
		types.WordSize + types.Word(len(t.ScriptData)) +
		types.WordSize + types.Word(len(t.Bytecode)) +
		32 + types.WordSize
	for _, in := range t.Inputs[:idx] {
		off++ // input type byte
		switch in.Type {
		case InputCoin:
			off += 32 + types.WordSize + 32 +
				types.WordSize + types.Word(len(in.Predicate)) +
				types.WordSize + types.Word(len(in.PredicateData))
		case InputContract:
			off += 32
		}
	}
	in := t.Inputs[idx]
	off += 1 + 32 + types.WordSize + 32 + types.WordSize
	return off, types.Word(len(in.Predicate)), true
}

// ID is the transaction identifier, the digest of the canonical encoding.
func (t *Transaction) ID() types.Hash {
	return types.Sha256(t.Bytes())
}

func writeWord(buf *bytes.Buffer, words ...types.Word) {
	var b [8]byte
	for _, w := range words {
		binary.BigEndian.PutUint64(b[:], w)
		buf.Write(b[:])
	}
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeWord(buf, types.Word(len(b)))
	buf.Write(b)
}

// Static validation failures.
var (
	ErrNoProgram        = errors.New("tx: transaction carries neither script nor bytecode")
	ErrGasLimit         = errors.New("tx: gas limit exceeds consensus maximum")
	ErrScriptTooLong    = errors.New("tx: script exceeds maximum length")
	ErrContractTooLarge = errors.New("tx: contract bytecode exceeds maximum size")
	ErrTooManyInputs    = errors.New("tx: too many inputs")
	ErrNotMature        = errors.New("tx: maturity not reached")
)

// Checked is a transaction that passed static validation. The VM refuses
// anything else.
type Checked struct {
	Tx *Transaction

	id      types.Hash
	encoded []byte
}

// Check runs static validation against the consensus parameters at the
// given block height and freezes the canonical encoding.
func Check(t *Transaction, params types.Params, blockHeight types.Word) (*Checked, error) {
	if len(t.Script) == 0 && len(t.Bytecode) == 0 {
		return nil, ErrNoProgram
	}
	if t.GasLimit > params.MaxGasPerTx {
		return nil, fmt.Errorf("%w: %d > %d", ErrGasLimit, t.GasLimit, params.MaxGasPerTx)
	}
	if types.Word(len(t.Script)) > params.MaxScriptLength {
		return nil, ErrScriptTooLong
	}
	if types.Word(len(t.Bytecode)) > params.MaxContractSize {
		return nil, ErrContractTooLarge
	}
	if len(t.Inputs) > params.MaxInputs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyInputs, len(t.Inputs), params.MaxInputs)
	}
	if t.Maturity > blockHeight {
		return nil, fmt.Errorf("%w: maturity %d, height %d", ErrNotMature, t.Maturity, blockHeight)
	}
	encoded := t.Bytes()
	return &Checked{Tx: t, id: types.Sha256(encoded), encoded: encoded}, nil
}

// ID returns the frozen transaction id.
func (c *Checked) ID() types.Hash { return c.id }

// Encoded returns the frozen canonical encoding.
func (c *Checked) Encoded() []byte { return c.encoded }
