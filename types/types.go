package types

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Word is the fixed-width unsigned integer unit used for registers and
// immediates.
type Word = uint64

// WordSize is the length of a Word in bytes.
const WordSize = 8

// Hash is a 32 byte digest.
type Hash [32]byte

// ContractID identifies a deployed contract.
type ContractID [32]byte

// AssetID identifies a native asset.
type AssetID [32]byte

// Address is an externally owned account identifier.
type Address [32]byte

func (h Hash) Bytes() []byte       { return h[:] }
func (h Hash) Hex() string         { return hex.EncodeToString(h[:]) }
func (c ContractID) Bytes() []byte { return c[:] }
func (c ContractID) Hex() string   { return hex.EncodeToString(c[:]) }
func (a AssetID) Bytes() []byte    { return a[:] }
func (a AssetID) Hex() string      { return hex.EncodeToString(a[:]) }
func (a Address) Bytes() []byte    { return a[:] }
func (a Address) Hex() string      { return hex.EncodeToString(a[:]) }

// BytesToHash copies b into a Hash, truncating or left-padding as needed.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > len(h) {
		b = b[len(b)-32:]
	}
	copy(h[32-len(b):], b)
	return h
}

func BytesToContractID(b []byte) ContractID {
	return ContractID(BytesToHash(b))
}

func BytesToAssetID(b []byte) AssetID {
	return AssetID(BytesToHash(b))
}

// Sha256 computes the canonical digest used for receipts, return data and
// contract ids.
func Sha256(data ...[]byte) Hash {
	hasher := sha256.New()
	for _, d := range data {
		hasher.Write(d)
	}
	return BytesToHash(hasher.Sum(nil))
}

// Keccak256 hashes data with the legacy Keccak-256 permutation.
func Keccak256(data []byte) Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	return BytesToHash(hasher.Sum(nil))
}

func Uint64ToBytes(val uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, val)
	return b
}

func BytesToUint64(b []byte) uint64 {
	if len(b) < 8 {
		padded := make([]byte, 8)
		copy(padded[8-len(b):], b)
		b = padded
	}
	return binary.BigEndian.Uint64(b)
}
