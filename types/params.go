package types

// Params is the consensus-parameter set supplied to every VM instance.
// Independent nodes must run with identical parameters to reach identical
// terminal states.
type Params struct {
	ChainID Word

	// MaxRAM is the total VM memory image size in bytes.
	MaxRAM Word
	// MaxMemAccess bounds the length of a single memory read or write.
	MaxMemAccess Word
	// MaxGasPerTx bounds the gas limit a transaction may declare.
	MaxGasPerTx Word
	// MaxCallDepth bounds the call frame stack.
	MaxCallDepth int
	// MaxInputs bounds transaction inputs; fixes the size of the balance
	// table pushed during initialization.
	MaxInputs int
	// MaxScriptLength bounds script bytecode length in bytes.
	MaxScriptLength Word
	// MaxContractSize bounds deployed contract bytecode length in bytes.
	MaxContractSize Word
	// MaxMessageDataLength bounds the payload of an outgoing message.
	MaxMessageDataLength Word
}

// DefaultParams returns the consensus defaults: 64 MiB of RAM and a call
// depth bounded well below any stack exhaustion.
func DefaultParams() Params {
	return Params{
		ChainID:              0,
		MaxRAM:               64 * 1024 * 1024,
		MaxMemAccess:         64 * 1024 * 1024,
		MaxGasPerTx:          100_000_000,
		MaxCallDepth:         64,
		MaxInputs:            8,
		MaxScriptLength:      1024 * 1024,
		MaxContractSize:      16 * 1024 * 1024,
		MaxMessageDataLength: 1024 * 1024,
	}
}

// TxMemOffset is the fixed offset of the serialized transaction in VM
// memory: the 32 byte transaction id followed by the word-sized tx length.
const TxMemOffset = 32 + WordSize
