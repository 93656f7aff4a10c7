package vm

import (
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/types"
)

// ecRecover implements ECR: recover the 64 byte secp256k1 public key from a
// compact 64 byte signature (recovery bit folded into the high bit of s) and
// a 32 byte message digest, writing it at ra. Recovery failure is not a
// panic: $err is set and the destination zeroed.
func (m *Interpreter) ecRecover(ra, rb, rc types.RegisterID) error {
	sig, err := m.readMemory(m.registers[rb], 64)
	if err != nil {
		return err
	}
	digest, err := m.readMemory(m.registers[rc], 32)
	if err != nil {
		return err
	}
	full := make([]byte, 65)
	copy(full, sig)
	full[64] = full[32] >> 7
	full[32] &= 0x7f

	pub, err := crypto.Ecrecover(digest, full)
	if err != nil || len(pub) != 65 {
		if werr := m.writeMemory(m.registers[ra], make([]byte, 64)); werr != nil {
			return werr
		}
		m.registers[types.RegErr] = 1
		return nil
	}
	// drop the uncompressed-point prefix byte
	if err := m.writeMemory(m.registers[ra], pub[1:]); err != nil {
		return err
	}
	m.registers[types.RegErr] = 0
	return nil
}

// keccak256 implements K256: digest rc bytes at rb into the 32 bytes at ra.
func (m *Interpreter) keccak256(ra, rb, rc types.RegisterID) error {
	length := m.registers[rc]
	if err := m.chargeOf(asm.K256, length); err != nil {
		return err
	}
	data, err := m.readMemory(m.registers[rb], length)
	if err != nil {
		return err
	}
	return m.writeMemory(m.registers[ra], crypto.Keccak256(data))
}

// sha256 implements S256.
func (m *Interpreter) sha256(ra, rb, rc types.RegisterID) error {
	length := m.registers[rc]
	if err := m.chargeOf(asm.S256, length); err != nil {
		return err
	}
	data, err := m.readMemory(m.registers[rb], length)
	if err != nil {
		return err
	}
	digest := types.Sha256(data)
	return m.writeMemory(m.registers[ra], digest[:])
}
