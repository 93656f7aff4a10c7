package storage

import "github.com/colorfulnotion/fvm/types"

// PredicateStore is the view used during predicate verification. Contract
// instructions are not allowed in predicates, so every operation fails with
// ErrUnavailable; the interpreter translates that into the corresponding
// panic before any state could be touched.
type PredicateStore struct{}

// NewPredicateStore returns the rejecting view.
func NewPredicateStore() PredicateStore { return PredicateStore{} }

func (PredicateStore) ContractCode(types.ContractID) ([]byte, error) {
	return nil, ErrUnavailable
}

func (PredicateStore) InsertContractCode(types.ContractID, []byte) error {
	return ErrUnavailable
}

func (PredicateStore) ContractExists(types.ContractID) (bool, error) {
	return false, ErrUnavailable
}

func (PredicateStore) Balance(types.ContractID, types.AssetID) (types.Word, error) {
	return 0, ErrUnavailable
}

func (PredicateStore) SetBalance(types.ContractID, types.AssetID, types.Word) error {
	return ErrUnavailable
}

func (PredicateStore) State(types.ContractID, types.Hash) (types.Hash, error) {
	return types.Hash{}, ErrUnavailable
}

func (PredicateStore) SetState(types.ContractID, types.Hash, types.Hash) error {
	return ErrUnavailable
}

func (PredicateStore) ClearState(types.ContractID, types.Hash) (bool, error) {
	return false, ErrUnavailable
}

func (PredicateStore) BlockHeight() (types.Word, error) {
	return 0, ErrUnavailable
}

func (PredicateStore) BlockHash(types.Word) (types.Hash, error) {
	return types.Hash{}, ErrUnavailable
}

func (PredicateStore) Coinbase() (types.Address, error) {
	return types.Address{}, ErrUnavailable
}
