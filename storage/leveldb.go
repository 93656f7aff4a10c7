package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/colorfulnotion/fvm/types"
)

// Key prefixes. Every entry is namespaced so one database can hold all
// state families.
const (
	prefixCode    = 'c'
	prefixBalance = 'b'
	prefixState   = 's'
	prefixBlock   = 'h'
	prefixMeta    = 'm'
)

// LevelStore persists VM state in LevelDB. Thread safety is delegated to
// LevelDB itself.
type LevelStore struct {
	db *leveldb.DB

	height   types.Word
	coinbase types.Address
}

// NewLevelStore opens or creates a database at path. An empty path opens an
// in-memory database, which is convenient for tests.
func NewLevelStore(path string) (*LevelStore, error) {
	var db *leveldb.DB
	var err error
	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", path, err)
	}
	return &LevelStore{db: db}, nil
}

// Close releases the underlying database.
func (s *LevelStore) Close() error { return s.db.Close() }

// SetBlock fixes the execution height and coinbase and persists the block
// hash for the height.
func (s *LevelStore) SetBlock(height types.Word, hash types.Hash, coinbase types.Address) error {
	s.height = height
	s.coinbase = coinbase
	return s.put(blockKey(height), hash[:])
}

func codeKey(id types.ContractID) []byte {
	return append([]byte{prefixCode}, id[:]...)
}

func balanceKey(id types.ContractID, asset types.AssetID) []byte {
	k := append([]byte{prefixBalance}, id[:]...)
	return append(k, asset[:]...)
}

func stateKey(id types.ContractID, key types.Hash) []byte {
	k := append([]byte{prefixState}, id[:]...)
	return append(k, key[:]...)
}

func blockKey(height types.Word) []byte {
	k := make([]byte, 9)
	k[0] = prefixBlock
	binary.BigEndian.PutUint64(k[1:], height)
	return k
}

func (s *LevelStore) get(key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: get %x: %w", key, err)
	}
	return value, nil
}

func (s *LevelStore) put(key, value []byte) error {
	if err := s.db.Put(key, value, nil); err != nil {
		return fmt.Errorf("storage: put %x: %w", key, err)
	}
	return nil
}

func (s *LevelStore) ContractCode(id types.ContractID) ([]byte, error) {
	return s.get(codeKey(id))
}

func (s *LevelStore) InsertContractCode(id types.ContractID, code []byte) error {
	return s.put(codeKey(id), code)
}

func (s *LevelStore) ContractExists(id types.ContractID) (bool, error) {
	ok, err := s.db.Has(codeKey(id), nil)
	if err != nil {
		return false, fmt.Errorf("storage: has %x: %w", codeKey(id), err)
	}
	return ok, nil
}

func (s *LevelStore) Balance(id types.ContractID, asset types.AssetID) (types.Word, error) {
	value, err := s.get(balanceKey(id, asset))
	if err == ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(value), nil
}

func (s *LevelStore) SetBalance(id types.ContractID, asset types.AssetID, amount types.Word) error {
	var value [8]byte
	binary.BigEndian.PutUint64(value[:], amount)
	return s.put(balanceKey(id, asset), value[:])
}

func (s *LevelStore) State(id types.ContractID, key types.Hash) (types.Hash, error) {
	value, err := s.get(stateKey(id, key))
	if err != nil {
		return types.Hash{}, err
	}
	return types.BytesToHash(value), nil
}

func (s *LevelStore) SetState(id types.ContractID, key types.Hash, value types.Hash) error {
	return s.put(stateKey(id, key), value[:])
}

func (s *LevelStore) ClearState(id types.ContractID, key types.Hash) (bool, error) {
	k := stateKey(id, key)
	existed, err := s.db.Has(k, nil)
	if err != nil {
		return false, fmt.Errorf("storage: has %x: %w", k, err)
	}
	if !existed {
		return false, nil
	}
	if err := s.db.Delete(k, nil); err != nil {
		return false, fmt.Errorf("storage: delete %x: %w", k, err)
	}
	return true, nil
}

func (s *LevelStore) BlockHeight() (types.Word, error) {
	return s.height, nil
}

func (s *LevelStore) BlockHash(height types.Word) (types.Hash, error) {
	value, err := s.get(blockKey(height))
	if err == ErrNotFound {
		return types.Hash{}, nil
	}
	if err != nil {
		return types.Hash{}, err
	}
	return types.BytesToHash(value), nil
}

func (s *LevelStore) Coinbase() (types.Address, error) {
	return s.coinbase, nil
}
