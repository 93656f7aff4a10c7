package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyReceiptsRoot(t *testing.T) {
	assert.Equal(t, Sha256(nil), EmptyReceiptsRoot)
	assert.Equal(t, EmptyReceiptsRoot, ReceiptsRoot(nil))
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		EmptyReceiptsRoot.Hex())
}

func TestReceiptsRootSingleLeaf(t *testing.T) {
	r := ReturnReceipt(ContractID{}, 1, 0, 0)
	assert.Equal(t, Sha256(r.Bytes()), ReceiptsRoot([]Receipt{r}))
}

func TestReceiptsRootPairing(t *testing.T) {
	a := ReturnReceipt(ContractID{}, 1, 0, 0)
	b := ReturnReceipt(ContractID{}, 2, 0, 0)
	c := ReturnReceipt(ContractID{}, 3, 0, 0)

	ha, hb, hc := Sha256(a.Bytes()), Sha256(b.Bytes()), Sha256(c.Bytes())
	// odd leaf carried up unchanged, then paired at the next level
	want := Sha256(Sha256(ha[:], hb[:]).Bytes(), hc[:])
	assert.Equal(t, want, ReceiptsRoot([]Receipt{a, b, c}))
}

func TestReceiptsRootOrderSensitive(t *testing.T) {
	a := ReturnReceipt(ContractID{}, 1, 0, 0)
	b := ReturnReceipt(ContractID{}, 2, 0, 0)
	assert.NotEqual(t,
		ReceiptsRoot([]Receipt{a, b}),
		ReceiptsRoot([]Receipt{b, a}))
}

func TestReceiptEncodingsDiffer(t *testing.T) {
	id := ContractID{0x01}
	receipts := []Receipt{
		CallReceipt(id, ContractID{0x02}, 5, AssetID{}, 100, 1, 2, 0, 0),
		ReturnReceipt(id, 1, 8, 0),
		ReturnDataReceipt(id, 16, 32, Sha256(nil), 8, 0),
		PanicReceipt(id, 0x02, 0xdeadbeef, 8, 0),
		RevertReceipt(id, 9, 8, 0),
		LogReceipt(id, 1, 2, 3, 4, 8, 0),
		LogDataReceipt(id, 1, 2, 16, 32, Sha256(nil), 8, 0),
		TransferReceipt(id, ContractID{0x02}, 5, AssetID{}, 8, 0),
		TransferOutReceipt(id, Address{0x03}, 5, AssetID{}, 8, 0),
		ScriptResultReceipt(ScriptSuccess, 77),
	}
	seen := make(map[string]ReceiptType)
	for _, r := range receipts {
		enc := string(r.Bytes())
		prev, dup := seen[enc]
		require.False(t, dup, "%s encodes identically to %s", r.Type, prev)
		seen[enc] = r.Type
	}
	// the type tag leads every encoding
	for _, r := range receipts {
		assert.Equal(t, byte(r.Type), r.Bytes()[0])
	}
}

func TestScriptResultStatusString(t *testing.T) {
	assert.Equal(t, "success", ScriptSuccess.String())
	assert.Equal(t, "revert", ScriptRevert.String())
	assert.Equal(t, "panic", ScriptPanic.String())
}
