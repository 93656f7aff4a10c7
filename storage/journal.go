package storage

import "github.com/colorfulnotion/fvm/types"

// Transactional buffers every mutation over an inner Store until Commit.
// The transactor executes each attempt against one of these so a revert or
// panic leaves the underlying state byte-for-byte untouched.
type Transactional struct {
	inner Store

	code     map[types.ContractID][]byte
	balances map[balKey]types.Word
	state    map[slotKey]*types.Hash // nil marks a pending delete
}

type balKey struct {
	id    types.ContractID
	asset types.AssetID
}

type slotKey struct {
	id  types.ContractID
	key types.Hash
}

// NewTransactional wraps inner with a write buffer.
func NewTransactional(inner Store) *Transactional {
	return &Transactional{
		inner:    inner,
		code:     make(map[types.ContractID][]byte),
		balances: make(map[balKey]types.Word),
		state:    make(map[slotKey]*types.Hash),
	}
}

// Commit flushes the buffered mutations into the inner store in a fixed
// grouping: code, balances, state.
func (t *Transactional) Commit() error {
	for id, code := range t.code {
		if err := t.inner.InsertContractCode(id, code); err != nil {
			return err
		}
	}
	for k, amount := range t.balances {
		if err := t.inner.SetBalance(k.id, k.asset, amount); err != nil {
			return err
		}
	}
	for k, value := range t.state {
		if value == nil {
			if _, err := t.inner.ClearState(k.id, k.key); err != nil {
				return err
			}
			continue
		}
		if err := t.inner.SetState(k.id, k.key, *value); err != nil {
			return err
		}
	}
	t.Discard()
	return nil
}

// Discard drops the buffered mutations.
func (t *Transactional) Discard() {
	t.code = make(map[types.ContractID][]byte)
	t.balances = make(map[balKey]types.Word)
	t.state = make(map[slotKey]*types.Hash)
}

func (t *Transactional) ContractCode(id types.ContractID) ([]byte, error) {
	if code, ok := t.code[id]; ok {
		out := make([]byte, len(code))
		copy(out, code)
		return out, nil
	}
	return t.inner.ContractCode(id)
}

func (t *Transactional) InsertContractCode(id types.ContractID, code []byte) error {
	buf := make([]byte, len(code))
	copy(buf, code)
	t.code[id] = buf
	return nil
}

func (t *Transactional) ContractExists(id types.ContractID) (bool, error) {
	if _, ok := t.code[id]; ok {
		return true, nil
	}
	return t.inner.ContractExists(id)
}

func (t *Transactional) Balance(id types.ContractID, asset types.AssetID) (types.Word, error) {
	if amount, ok := t.balances[balKey{id, asset}]; ok {
		return amount, nil
	}
	return t.inner.Balance(id, asset)
}

func (t *Transactional) SetBalance(id types.ContractID, asset types.AssetID, amount types.Word) error {
	t.balances[balKey{id, asset}] = amount
	return nil
}

func (t *Transactional) State(id types.ContractID, key types.Hash) (types.Hash, error) {
	if value, ok := t.state[slotKey{id, key}]; ok {
		if value == nil {
			return types.Hash{}, ErrNotFound
		}
		return *value, nil
	}
	return t.inner.State(id, key)
}

func (t *Transactional) SetState(id types.ContractID, key, value types.Hash) error {
	v := value
	t.state[slotKey{id, key}] = &v
	return nil
}

func (t *Transactional) ClearState(id types.ContractID, key types.Hash) (bool, error) {
	k := slotKey{id, key}
	if value, ok := t.state[k]; ok {
		t.state[k] = nil
		return value != nil, nil
	}
	_, err := t.inner.State(id, key)
	existed := err == nil
	t.state[k] = nil
	return existed, nil
}

func (t *Transactional) BlockHeight() (types.Word, error) { return t.inner.BlockHeight() }

func (t *Transactional) BlockHash(height types.Word) (types.Hash, error) {
	return t.inner.BlockHash(height)
}

func (t *Transactional) Coinbase() (types.Address, error) { return t.inner.Coinbase() }
