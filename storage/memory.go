package storage

import (
	"sync"

	"github.com/colorfulnotion/fvm/types"
)

// MemoryStore is a map-backed Store. It is safe for concurrent readers and
// writers, though a single VM execution always owns its view exclusively.
type MemoryStore struct {
	mu sync.RWMutex

	code     map[types.ContractID][]byte
	balances map[types.ContractID]map[types.AssetID]types.Word
	state    map[types.ContractID]map[types.Hash]types.Hash

	height   types.Word
	hashes   map[types.Word]types.Hash
	coinbase types.Address
}

// NewMemoryStore returns an empty in-memory store at height 0.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		code:     make(map[types.ContractID][]byte),
		balances: make(map[types.ContractID]map[types.AssetID]types.Word),
		state:    make(map[types.ContractID]map[types.Hash]types.Hash),
		hashes:   make(map[types.Word]types.Hash),
	}
}

// SetBlock fixes the height, block hash and coinbase reported to programs.
func (m *MemoryStore) SetBlock(height types.Word, hash types.Hash, coinbase types.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.height = height
	m.hashes[height] = hash
	m.coinbase = coinbase
}

func (m *MemoryStore) ContractCode(id types.ContractID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.code[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(code))
	copy(out, code)
	return out, nil
}

func (m *MemoryStore) InsertContractCode(id types.ContractID, code []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(code))
	copy(stored, code)
	m.code[id] = stored
	return nil
}

func (m *MemoryStore) ContractExists(id types.ContractID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.code[id]
	return ok, nil
}

func (m *MemoryStore) Balance(id types.ContractID, asset types.AssetID) (types.Word, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[id][asset], nil
}

func (m *MemoryStore) SetBalance(id types.ContractID, asset types.AssetID, amount types.Word) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[id] == nil {
		m.balances[id] = make(map[types.AssetID]types.Word)
	}
	m.balances[id][asset] = amount
	return nil
}

func (m *MemoryStore) State(id types.ContractID, key types.Hash) (types.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.state[id][key]
	if !ok {
		return types.Hash{}, ErrNotFound
	}
	return value, nil
}

func (m *MemoryStore) SetState(id types.ContractID, key types.Hash, value types.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state[id] == nil {
		m.state[id] = make(map[types.Hash]types.Hash)
	}
	m.state[id][key] = value
	return nil
}

func (m *MemoryStore) ClearState(id types.ContractID, key types.Hash) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots, ok := m.state[id]
	if !ok {
		return false, nil
	}
	_, existed := slots[key]
	delete(slots, key)
	return existed, nil
}

func (m *MemoryStore) BlockHeight() (types.Word, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.height, nil
}

func (m *MemoryStore) BlockHash(height types.Word) (types.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hashes[height], nil
}

func (m *MemoryStore) Coinbase() (types.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.coinbase, nil
}
