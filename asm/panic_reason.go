package asm

import "fmt"

// PanicReason is the closed set of well-defined halting conditions an
// instruction can raise. A panic is always recoverable at the transaction
// boundary: it halts the execution attempt and is recorded as a receipt, as
// opposed to an environment failure which aborts without one.
type PanicReason uint8

const (
	// UnknownPanicReason is the mapping for bytes outside the closed set.
	UnknownPanicReason PanicReason = 0x00
	// Revert marks an explicit RVRT instruction.
	Revert PanicReason = 0x01
	// OutOfGas is raised when a charge exceeds the remaining budget.
	OutOfGas PanicReason = 0x02
	// TransactionValidity is raised when runtime state contradicts the
	// statically checked transaction.
	TransactionValidity PanicReason = 0x03
	// MemoryOverflow is an access outside interpreter memory boundaries.
	MemoryOverflow PanicReason = 0x04
	// ArithmeticOverflow is ignored under the WRAPPING flag.
	ArithmeticOverflow PanicReason = 0x05
	// ContractNotFound: target contract missing from storage.
	ContractNotFound PanicReason = 0x06
	// MemoryOwnership: write into a region the frame does not own.
	MemoryOwnership PanicReason = 0x07
	// NotEnoughBalance: forwarded amount exceeds available balance.
	NotEnoughBalance PanicReason = 0x08
	// ExpectedInternalContext: instruction requires a call context.
	ExpectedInternalContext PanicReason = 0x09
	// AssetIDNotFound: queried asset missing from state.
	AssetIDNotFound PanicReason = 0x0a
	// InputNotFound: transaction input index out of range.
	InputNotFound PanicReason = 0x0b
	// OutputNotFound: transaction output index out of range.
	OutputNotFound PanicReason = 0x0c
	// MalformedCallStructure: call struct failed to decode.
	MalformedCallStructure PanicReason = 0x10
	// ReservedRegisterNotWritable: write to an interpreter register.
	ReservedRegisterNotWritable PanicReason = 0x11
	// ErrorFlag: the interpreter reached an erroneous state.
	ErrorFlag PanicReason = 0x12
	// InvalidImmediateValue: immediate not valid for the instruction.
	InvalidImmediateValue PanicReason = 0x13
	// MaxMemoryAccess: requested access exceeds the access limit.
	MaxMemoryAccess PanicReason = 0x15
	// MemoryWriteOverlap: overlapping segments in a copy.
	MemoryWriteOverlap PanicReason = 0x16
	// ContractNotInInputs: called contract not declared by the transaction.
	ContractNotInInputs PanicReason = 0x17
	// InternalBalanceOverflow: balance arithmetic overflowed.
	InternalBalanceOverflow PanicReason = 0x18
	// ContractMaxSize: deployed code exceeds the size limit.
	ContractMaxSize PanicReason = 0x19
	// ExpectedUnallocatedStack: stack must be unallocated for this call.
	ExpectedUnallocatedStack PanicReason = 0x1a
	// TransferAmountCannotBeZero: zero-amount transfer requested.
	TransferAmountCannotBeZero PanicReason = 0x1c
	// ExpectedOutputVariable: output at index is not variable.
	ExpectedOutputVariable PanicReason = 0x1d
	// IllegalJump: backward jump during predicate verification.
	IllegalJump PanicReason = 0x1f
	// MessageDataTooLong: outgoing message payload over the limit.
	MessageDataTooLong PanicReason = 0x22
	// ArithmeticError: mathematically invalid arguments, e.g. division by
	// zero. Ignored under the UNSAFEMATH flag.
	ArithmeticError PanicReason = 0x23
	// ContractInstructionNotAllowed: contract instruction in a predicate.
	ContractInstructionNotAllowed PanicReason = 0x24
	// InvalidInstruction: the opcode is not part of the instruction set.
	InvalidInstruction PanicReason = 0x25
	// CallStackOverflow: nested calls beyond the depth limit.
	CallStackOverflow PanicReason = 0x26
	// PredicateReturnedNonOne: predicate terminated with a value other
	// than the canonical true word.
	PredicateReturnedNonOne PanicReason = 0x27
)

var panicNames = map[PanicReason]string{
	UnknownPanicReason:            "UnknownPanicReason",
	Revert:                        "Revert",
	OutOfGas:                      "OutOfGas",
	TransactionValidity:           "TransactionValidity",
	MemoryOverflow:                "MemoryOverflow",
	ArithmeticOverflow:            "ArithmeticOverflow",
	ContractNotFound:              "ContractNotFound",
	MemoryOwnership:               "MemoryOwnership",
	NotEnoughBalance:              "NotEnoughBalance",
	ExpectedInternalContext:       "ExpectedInternalContext",
	AssetIDNotFound:               "AssetIdNotFound",
	InputNotFound:                 "InputNotFound",
	OutputNotFound:                "OutputNotFound",
	MalformedCallStructure:        "MalformedCallStructure",
	ReservedRegisterNotWritable:   "ReservedRegisterNotWritable",
	ErrorFlag:                     "ErrorFlag",
	InvalidImmediateValue:         "InvalidImmediateValue",
	MaxMemoryAccess:               "MaxMemoryAccess",
	MemoryWriteOverlap:            "MemoryWriteOverlap",
	ContractNotInInputs:           "ContractNotInInputs",
	InternalBalanceOverflow:       "InternalBalanceOverflow",
	ContractMaxSize:               "ContractMaxSize",
	ExpectedUnallocatedStack:      "ExpectedUnallocatedStack",
	TransferAmountCannotBeZero:    "TransferAmountCannotBeZero",
	ExpectedOutputVariable:        "ExpectedOutputVariable",
	IllegalJump:                   "IllegalJump",
	MessageDataTooLong:            "MessageDataTooLong",
	ArithmeticError:               "ArithmeticError",
	ContractInstructionNotAllowed: "ContractInstructionNotAllowed",
	InvalidInstruction:            "InvalidInstruction",
	CallStackOverflow:             "CallStackOverflow",
	PredicateReturnedNonOne:       "PredicateReturnedNonOne",
}

func (r PanicReason) String() string {
	if name, ok := panicNames[r]; ok {
		return name
	}
	return fmt.Sprintf("PanicReason(%02x)", uint8(r))
}

// PanicReasonFromByte maps a byte into the closed set; unmapped values
// collapse to UnknownPanicReason rather than round-tripping.
func PanicReasonFromByte(b uint8) PanicReason {
	r := PanicReason(b)
	if _, ok := panicNames[r]; ok && r != UnknownPanicReason {
		return r
	}
	return UnknownPanicReason
}

// PanicDesc pairs a panic reason with the raw bit pattern of the offending
// instruction. Both are surfaced on the error path so independent nodes can
// replay and compare failures deterministically.
type PanicDesc struct {
	Reason      PanicReason
	Instruction Instruction
}

func (p PanicDesc) String() string {
	return fmt.Sprintf("%s [%08x %s]", p.Reason, p.Instruction.Bits(), p.Instruction)
}
