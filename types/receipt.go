package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ReceiptType tags one observable execution event.
type ReceiptType uint8

const (
	ReceiptCall ReceiptType = iota
	ReceiptReturn
	ReceiptReturnData
	ReceiptPanic
	ReceiptRevert
	ReceiptLog
	ReceiptLogData
	ReceiptTransfer
	ReceiptTransferOut
	ReceiptScriptResult
)

var receiptNames = [...]string{
	"Call", "Return", "ReturnData", "Panic", "Revert",
	"Log", "LogData", "Transfer", "TransferOut", "ScriptResult",
}

func (t ReceiptType) String() string {
	if int(t) < len(receiptNames) {
		return receiptNames[t]
	}
	return fmt.Sprintf("ReceiptType(%d)", uint8(t))
}

// ScriptResult status codes.
type ScriptStatus uint8

const (
	ScriptSuccess ScriptStatus = iota
	ScriptRevert
	ScriptPanic
)

func (s ScriptStatus) String() string {
	switch s {
	case ScriptSuccess:
		return "success"
	case ScriptRevert:
		return "revert"
	case ScriptPanic:
		return "panic"
	}
	return fmt.Sprintf("ScriptStatus(%d)", uint8(s))
}

// Receipt is an immutable record of one observable execution event. Receipts
// are appended in strict execution order; the ordered sequence is part of the
// externally visible transaction result and must be reproducible bit for bit.
type Receipt struct {
	Type ReceiptType

	// ID is the contract in whose context the event occurred; zero for the
	// outermost script frame.
	ID ContractID

	// Call / Transfer fields.
	To      ContractID
	ToAddr  Address
	Amount  Word
	AssetID AssetID
	Gas     Word
	Param1  Word
	Param2  Word

	// Return / Revert / Log values.
	Val Word
	RA  Word
	RB  Word
	RC  Word
	RD  Word

	// ReturnData / LogData fields.
	Ptr    Word
	Len    Word
	Digest Hash

	// Panic fields: the reason and the raw offending instruction word.
	Reason      uint8
	Instruction uint32

	// ScriptResult fields.
	Status  ScriptStatus
	GasUsed Word

	// PC and IS snapshot of the producing instruction.
	PC Word
	IS Word
}

func CallReceipt(id, to ContractID, amount Word, asset AssetID, gas, p1, p2, pc, is Word) Receipt {
	return Receipt{Type: ReceiptCall, ID: id, To: to, Amount: amount, AssetID: asset,
		Gas: gas, Param1: p1, Param2: p2, PC: pc, IS: is}
}

func ReturnReceipt(id ContractID, val, pc, is Word) Receipt {
	return Receipt{Type: ReceiptReturn, ID: id, Val: val, PC: pc, IS: is}
}

func ReturnDataReceipt(id ContractID, ptr, length Word, digest Hash, pc, is Word) Receipt {
	return Receipt{Type: ReceiptReturnData, ID: id, Ptr: ptr, Len: length, Digest: digest, PC: pc, IS: is}
}

func PanicReceipt(id ContractID, reason uint8, raw uint32, pc, is Word) Receipt {
	return Receipt{Type: ReceiptPanic, ID: id, Reason: reason, Instruction: raw, PC: pc, IS: is}
}

func RevertReceipt(id ContractID, ra, pc, is Word) Receipt {
	return Receipt{Type: ReceiptRevert, ID: id, RA: ra, PC: pc, IS: is}
}

func LogReceipt(id ContractID, ra, rb, rc, rd, pc, is Word) Receipt {
	return Receipt{Type: ReceiptLog, ID: id, RA: ra, RB: rb, RC: rc, RD: rd, PC: pc, IS: is}
}

func LogDataReceipt(id ContractID, ra, rb, ptr, length Word, digest Hash, pc, is Word) Receipt {
	return Receipt{Type: ReceiptLogData, ID: id, RA: ra, RB: rb, Ptr: ptr, Len: length,
		Digest: digest, PC: pc, IS: is}
}

func TransferReceipt(id, to ContractID, amount Word, asset AssetID, pc, is Word) Receipt {
	return Receipt{Type: ReceiptTransfer, ID: id, To: to, Amount: amount, AssetID: asset, PC: pc, IS: is}
}

func TransferOutReceipt(id ContractID, to Address, amount Word, asset AssetID, pc, is Word) Receipt {
	return Receipt{Type: ReceiptTransferOut, ID: id, ToAddr: to, Amount: amount, AssetID: asset, PC: pc, IS: is}
}

func ScriptResultReceipt(status ScriptStatus, gasUsed Word) Receipt {
	return Receipt{Type: ReceiptScriptResult, Status: status, GasUsed: gasUsed}
}

// Bytes returns the canonical binary encoding of the receipt. The encoding
// feeds the receipts merkle root, so it is fixed-order big-endian with every
// field of the variant included.
func (r Receipt) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(r.Type))
	buf.Write(r.ID[:])
	switch r.Type {
	case ReceiptCall:
		buf.Write(r.To[:])
		writeWord(&buf, r.Amount)
		buf.Write(r.AssetID[:])
		writeWord(&buf, r.Gas, r.Param1, r.Param2, r.PC, r.IS)
	case ReceiptReturn:
		writeWord(&buf, r.Val, r.PC, r.IS)
	case ReceiptReturnData:
		writeWord(&buf, r.Ptr, r.Len)
		buf.Write(r.Digest[:])
		writeWord(&buf, r.PC, r.IS)
	case ReceiptPanic:
		buf.WriteByte(r.Reason)
		var raw [4]byte
		binary.BigEndian.PutUint32(raw[:], r.Instruction)
		buf.Write(raw[:])
		writeWord(&buf, r.PC, r.IS)
	case ReceiptRevert:
		writeWord(&buf, r.RA, r.PC, r.IS)
	case ReceiptLog:
		writeWord(&buf, r.RA, r.RB, r.RC, r.RD, r.PC, r.IS)
	case ReceiptLogData:
		writeWord(&buf, r.RA, r.RB, r.Ptr, r.Len)
		buf.Write(r.Digest[:])
		writeWord(&buf, r.PC, r.IS)
	case ReceiptTransfer:
		buf.Write(r.To[:])
		writeWord(&buf, r.Amount)
		buf.Write(r.AssetID[:])
		writeWord(&buf, r.PC, r.IS)
	case ReceiptTransferOut:
		buf.Write(r.ToAddr[:])
		writeWord(&buf, r.Amount)
		buf.Write(r.AssetID[:])
		writeWord(&buf, r.PC, r.IS)
	case ReceiptScriptResult:
		buf.WriteByte(byte(r.Status))
		writeWord(&buf, r.GasUsed)
	}
	return buf.Bytes()
}

func writeWord(buf *bytes.Buffer, words ...Word) {
	var b [8]byte
	for _, w := range words {
		binary.BigEndian.PutUint64(b[:], w)
		buf.Write(b[:])
	}
}

// EmptyReceiptsRoot is the merkle root of an empty receipt sequence, the
// SHA-256 digest of the empty string.
var EmptyReceiptsRoot = Hash{
	0xe3, 0xb0, 0xc4, 0x42, 0x98, 0xfc, 0x1c, 0x14, 0x9a, 0xfb, 0xf4, 0xc8,
	0x99, 0x6f, 0xb9, 0x24, 0x27, 0xae, 0x41, 0xe4, 0x64, 0x9b, 0x93, 0x4c,
	0xa4, 0x95, 0x99, 0x1b, 0x78, 0x52, 0xb8, 0x55,
}

// ReceiptsRoot computes the ephemeral binary merkle root over the canonical
// receipt encodings. Odd leaves are carried up unchanged.
func ReceiptsRoot(receipts []Receipt) Hash {
	if len(receipts) == 0 {
		return EmptyReceiptsRoot
	}
	level := make([]Hash, len(receipts))
	for i, r := range receipts {
		level[i] = Sha256(r.Bytes())
	}
	for len(level) > 1 {
		next := make([]Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, Sha256(level[i][:], level[i+1][:]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}
