// Package storage defines the key-value boundary between the VM and the
// external state engine, plus the bundled implementations: an in-memory
// store for tests and tools, and a LevelDB-backed store for persistence.
package storage

import (
	"errors"

	"github.com/colorfulnotion/fvm/types"
)

// ErrNotFound distinguishes an absent entry from a backend failure. Any
// other error returned by a Store aborts execution as a non-recoverable
// error, distinct from a VM panic.
var ErrNotFound = errors.New("storage: not found")

// ErrUnavailable is returned by the predicate view for every operation:
// predicate verification runs without storage access.
var ErrUnavailable = errors.New("storage: unavailable in predicate context")

// Store is the full state interface consumed by the interpreter. One Store
// view must be exclusively owned by one executing machine state; sequencing
// of concurrent transactions is the caller's responsibility.
type Store interface {
	// ContractCode returns the deployed bytecode for id, or ErrNotFound.
	ContractCode(id types.ContractID) ([]byte, error)
	// InsertContractCode persists bytecode under id.
	InsertContractCode(id types.ContractID, code []byte) error
	// ContractExists reports whether id has deployed code.
	ContractExists(id types.ContractID) (bool, error)

	// Balance returns the per-(contract, asset) balance; missing entries
	// read as zero.
	Balance(id types.ContractID, asset types.AssetID) (types.Word, error)
	// SetBalance overwrites the per-(contract, asset) balance.
	SetBalance(id types.ContractID, asset types.AssetID, amount types.Word) error

	// State reads one contract state slot, or ErrNotFound.
	State(id types.ContractID, key types.Hash) (types.Hash, error)
	// SetState writes one contract state slot.
	SetState(id types.ContractID, key types.Hash, value types.Hash) error
	// ClearState removes a slot, reporting whether it existed.
	ClearState(id types.ContractID, key types.Hash) (bool, error)

	// BlockHeight is the height transactions execute at.
	BlockHeight() (types.Word, error)
	// BlockHash returns the hash of the block at the given height.
	BlockHash(height types.Word) (types.Hash, error)
	// Coinbase is the beneficiary address exposed to programs.
	Coinbase() (types.Address, error)
}
