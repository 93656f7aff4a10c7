package tx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/fvm/types"
)

func TestCheckRejections(t *testing.T) {
	params := types.DefaultParams()
	tests := []struct {
		name string
		tx   *Transaction
		want error
	}{
		{"no program", &Transaction{GasLimit: 1}, ErrNoProgram},
		{"gas limit", Script([]byte{0x00}, nil, params.MaxGasPerTx+1), ErrGasLimit},
		{"script too long", Script(make([]byte, params.MaxScriptLength+1), nil, 1), ErrScriptTooLong},
		{"too many inputs", Script([]byte{0x00}, nil, 1, make([]Input, params.MaxInputs+1)...), ErrTooManyInputs},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Check(tc.tx, params, 0)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckMaturity(t *testing.T) {
	params := types.DefaultParams()
	transaction := Script([]byte{0x00}, nil, 1)
	transaction.Maturity = 10

	_, err := Check(transaction, params, 5)
	assert.ErrorIs(t, err, ErrNotMature)
	_, err = Check(transaction, params, 10)
	assert.NoError(t, err)
}

func TestCheckedFreezesEncoding(t *testing.T) {
	transaction := Script([]byte{0x01, 0x02}, []byte{0x03}, 100)
	checked, err := Check(transaction, types.DefaultParams(), 0)
	require.NoError(t, err)
	assert.Equal(t, transaction.ID(), checked.ID())
	assert.Equal(t, transaction.Bytes(), checked.Encoded())
}

func TestCoinBalancesAggregatesAndSorts(t *testing.T) {
	a, b := types.AssetID{0x02}, types.AssetID{0x01}
	owner := types.Address{}
	transaction := Script([]byte{0x00}, nil, 1,
		CoinInput(owner, 10, a),
		CoinInput(owner, 5, b),
		CoinInput(owner, 7, a),
		ContractInput(types.ContractID{0xff}),
	)
	balances := transaction.CoinBalances()
	require.Len(t, balances, 2)
	assert.Equal(t, b, balances[0].Asset)
	assert.Equal(t, types.Word(5), balances[0].Amount)
	assert.Equal(t, a, balances[1].Asset)
	assert.Equal(t, types.Word(17), balances[1].Amount)
}

func TestInputContracts(t *testing.T) {
	id := types.ContractID{0x07}
	transaction := Script([]byte{0x00}, nil, 1,
		CoinInput(types.Address{}, 1, types.AssetID{}),
		ContractInput(id),
	)
	require.Len(t, transaction.InputContracts(), 1)
	assert.Equal(t, id, transaction.InputContracts()[0])
}

func TestScriptOffsetLocatesScript(t *testing.T) {
	script := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	transaction := Script(script, []byte{0x01}, 100)
	encoded := transaction.Bytes()
	off := transaction.ScriptOffset()
	assert.Equal(t, script, encoded[off:off+types.Word(len(script))])
}

func TestPredicateOffsetLocatesPredicate(t *testing.T) {
	predicate := []byte{0x11, 0x22, 0x33, 0x44}
	transaction := Script([]byte{0x00, 0x00, 0x00, 0x00}, []byte{0xaa}, 100,
		ContractInput(types.ContractID{0x01}),
		CoinInput(types.Address{}, 5, types.AssetID{}),
		PredicateInput(types.Address{0x02}, 10, types.AssetID{}, predicate, []byte{0x55}),
	)
	encoded := transaction.Bytes()

	off, length, ok := transaction.PredicateOffset(2)
	require.True(t, ok)
	assert.Equal(t, types.Word(len(predicate)), length)
	assert.True(t, bytes.Equal(predicate, encoded[off:off+length]),
		"predicate not found at computed offset %d", off)

	_, _, ok = transaction.PredicateOffset(0)
	assert.False(t, ok, "contract input carries no predicate")
	_, _, ok = transaction.PredicateOffset(1)
	assert.False(t, ok, "plain coin input carries no predicate")
	_, _, ok = transaction.PredicateOffset(5)
	assert.False(t, ok)
}

func TestIDCoversEveryField(t *testing.T) {
	base := Script([]byte{0x01}, []byte{0x02}, 100)
	assert.NotEqual(t, base.ID(), Script([]byte{0x01}, []byte{0x03}, 100).ID())
	assert.NotEqual(t, base.ID(), Script([]byte{0x01}, []byte{0x02}, 101).ID())

	withInput := Script([]byte{0x01}, []byte{0x02}, 100, ContractInput(types.ContractID{0x01}))
	assert.NotEqual(t, base.ID(), withInput.ID())
}

func TestCreateTransaction(t *testing.T) {
	transaction := Create([]byte{0x01, 0x02}, types.Hash{0xab}, 100)
	assert.False(t, transaction.IsScript())

	checked, err := Check(transaction, types.DefaultParams(), 0)
	require.NoError(t, err)
	assert.False(t, checked.Tx.IsScript())
}
