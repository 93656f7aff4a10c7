package vm

import (
	"encoding/binary"
	"errors"

	"github.com/colorfulnotion/fvm/asm"
	"github.com/colorfulnotion/fvm/storage"
	"github.com/colorfulnotion/fvm/types"
)

// Instructions touching contracts, persistent state or chain metadata. All
// of them are disallowed during predicate verification, a consensus-critical
// invariant enforced here before the storage view is ever consulted.

// GM metadata selectors.
const (
	GMIsCallerExternal      types.Word = 0x01
	GMGetCaller             types.Word = 0x02
	GMGetVerifyingPredicate types.Word = 0x03
)

func (m *Interpreter) blockHash(ra, rb types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	hash, err := m.store.BlockHash(m.registers[rb])
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storeErr("block hash", err)
	}
	return m.writeMemory(m.registers[ra], hash[:])
}

func (m *Interpreter) blockHeight(ra types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	height, err := m.store.BlockHeight()
	if err != nil {
		return storeErr("block height", err)
	}
	return m.writeRegister(ra, height)
}

func (m *Interpreter) coinbase(ra types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	cb, err := m.store.Coinbase()
	if err != nil {
		return storeErr("coinbase", err)
	}
	return m.writeMemory(m.registers[ra], cb[:])
}

// contractBalance implements BAL: ra = balance of contract (id at rc) for
// the asset at rb. The contract must be declared by the transaction.
func (m *Interpreter) contractBalance(ra, rb, rc types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	asset, err := m.readAssetID(m.registers[rb])
	if err != nil {
		return err
	}
	idBytes, err := m.readMemory(m.registers[rc], 32)
	if err != nil {
		return err
	}
	id := types.BytesToContractID(idBytes)
	if err := m.declaredContract(id); err != nil {
		return err
	}
	balance, err := m.store.Balance(id, asset)
	if err != nil {
		return storeErr("balance", err)
	}
	return m.writeRegister(ra, balance)
}

// burn and mint adjust the executing contract's balance of its own native
// asset, whose id equals the contract id.
func (m *Interpreter) burn(ra types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	if !m.internalContext() {
		return panicErr(asm.ExpectedInternalContext)
	}
	id := m.contextContractID()
	return m.debitBalance(types.AssetID(id), m.registers[ra])
}

func (m *Interpreter) mint(ra types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	if !m.internalContext() {
		return panicErr(asm.ExpectedInternalContext)
	}
	id := m.contextContractID()
	return m.creditContract(id, types.AssetID(id), m.registers[ra])
}

// contractCode loads the declared contract whose id sits at addr.
func (m *Interpreter) contractCode(addr types.Word) (types.ContractID, []byte, error) {
	idBytes, err := m.readMemory(addr, 32)
	if err != nil {
		return types.ContractID{}, nil, err
	}
	id := types.BytesToContractID(idBytes)
	if err := m.declaredContract(id); err != nil {
		return id, nil, err
	}
	code, err := m.store.ContractCode(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return id, nil, panicErr(asm.ContractNotFound)
		}
		return id, nil, storeErr("contract code", err)
	}
	return id, code, nil
}

// codeCopy implements CCP: copy rd bytes of the contract's code starting at
// offset rc into memory at ra, zero padded past the end of the code.
func (m *Interpreter) codeCopy(ra, rb, rc, rd types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	length := m.registers[rd]
	if err := m.chargeOf(asm.CCP, length); err != nil {
		return err
	}
	_, code, err := m.contractCode(m.registers[rb])
	if err != nil {
		return err
	}
	buf := make([]byte, length)
	if offset := m.registers[rc]; offset < types.Word(len(code)) {
		copy(buf, code[offset:])
	}
	return m.writeMemory(m.registers[ra], buf)
}

// codeRoot implements CROO: write the code digest of the contract at rb.
func (m *Interpreter) codeRoot(ra, rb types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	_, code, err := m.contractCode(m.registers[rb])
	if err != nil {
		return err
	}
	if err := m.chargeOf(asm.CROO, types.Word(len(code))); err != nil {
		return err
	}
	root := types.Sha256(code)
	return m.writeMemory(m.registers[ra], root[:])
}

func (m *Interpreter) codeSize(ra, rb types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	_, code, err := m.contractCode(m.registers[rb])
	if err != nil {
		return err
	}
	return m.writeRegister(ra, types.Word(len(code)))
}

// loadContractCode implements LDC: append a contract code slice to the
// stack. The current frame must not have allocated stack beyond $ssp.
func (m *Interpreter) loadContractCode(ra, rb, rc types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	if m.registers[types.RegSP] != m.registers[types.RegSSP] {
		return panicErr(asm.ExpectedUnallocatedStack)
	}
	length := m.registers[rc]
	if err := m.chargeOf(asm.LDC, length); err != nil {
		return err
	}
	_, code, err := m.contractCode(m.registers[ra])
	if err != nil {
		return err
	}
	buf := make([]byte, length)
	if offset := m.registers[rb]; offset < types.Word(len(code)) {
		copy(buf, code[offset:])
	}
	return m.pushStack(wordPadded(buf))
}

// State slots store 32 byte values; the word views (SRW/SWW) use the first
// word of the slot, big-endian.

func (m *Interpreter) stateKey(addr types.Word) (types.ContractID, types.Hash, error) {
	if err := m.contractOp(); err != nil {
		return types.ContractID{}, types.Hash{}, err
	}
	if !m.internalContext() {
		return types.ContractID{}, types.Hash{}, panicErr(asm.ExpectedInternalContext)
	}
	key, err := m.readHash(addr)
	if err != nil {
		return types.ContractID{}, types.Hash{}, err
	}
	return m.contextContractID(), key, nil
}

func (m *Interpreter) stateReadWord(ra, rb types.RegisterID) error {
	id, key, err := m.stateKey(m.registers[rb])
	if err != nil {
		return err
	}
	value, err := m.store.State(id, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storeErr("state", err)
	}
	return m.writeRegister(ra, binary.BigEndian.Uint64(value[:types.WordSize]))
}

func (m *Interpreter) stateReadQword(ra, rb types.RegisterID) error {
	id, key, err := m.stateKey(m.registers[rb])
	if err != nil {
		return err
	}
	value, err := m.store.State(id, key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storeErr("state", err)
	}
	return m.writeMemory(m.registers[ra], value[:])
}

func (m *Interpreter) stateWriteWord(ra, rb types.RegisterID) error {
	id, key, err := m.stateKey(m.registers[ra])
	if err != nil {
		return err
	}
	var value types.Hash
	binary.BigEndian.PutUint64(value[:types.WordSize], m.registers[rb])
	if err := m.store.SetState(id, key, value); err != nil {
		return storeErr("set state", err)
	}
	return nil
}

func (m *Interpreter) stateWriteQword(ra, rb types.RegisterID) error {
	id, key, err := m.stateKey(m.registers[ra])
	if err != nil {
		return err
	}
	value, err := m.readHash(m.registers[rb])
	if err != nil {
		return err
	}
	if err := m.store.SetState(id, key, value); err != nil {
		return storeErr("set state", err)
	}
	return nil
}

// transfer implements TR: move rb of the asset at rc from the current
// context to the contract whose id sits at ra.
func (m *Interpreter) transfer(ra, rb, rc types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	amount := m.registers[rb]
	if amount == 0 {
		return panicErr(asm.TransferAmountCannotBeZero)
	}
	idBytes, err := m.readMemory(m.registers[ra], 32)
	if err != nil {
		return err
	}
	to := types.BytesToContractID(idBytes)
	if err := m.declaredContract(to); err != nil {
		return err
	}
	exists, err := m.store.ContractExists(to)
	if err != nil {
		return storeErr("contract exists", err)
	}
	if !exists {
		return panicErr(asm.ContractNotFound)
	}
	asset, err := m.readAssetID(m.registers[rc])
	if err != nil {
		return err
	}
	if err := m.debitBalance(asset, amount); err != nil {
		return err
	}
	if err := m.creditContract(to, asset, amount); err != nil {
		return err
	}
	m.appendReceipt(types.TransferReceipt(m.contextContractID(), to, amount, asset,
		m.registers[types.RegPC], m.registers[types.RegIS]))
	return nil
}

// transferOut implements TRO: move rc of the asset at rd out of the VM to
// the address at ra. rb selects the transaction output and is recorded only
// through the receipt.
func (m *Interpreter) transferOut(ra, rb, rc, rd types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	amount := m.registers[rc]
	if amount == 0 {
		return panicErr(asm.TransferAmountCannotBeZero)
	}
	toBytes, err := m.readMemory(m.registers[ra], 32)
	if err != nil {
		return err
	}
	var to types.Address
	copy(to[:], toBytes)
	asset, err := m.readAssetID(m.registers[rd])
	if err != nil {
		return err
	}
	if err := m.debitBalance(asset, amount); err != nil {
		return err
	}
	m.appendReceipt(types.TransferOutReceipt(m.contextContractID(), to, amount, asset,
		m.registers[types.RegPC], m.registers[types.RegIS]))
	return nil
}

// messageOut implements SMO: send rd of the base asset plus a data payload
// to the address at ra. The outgoing value is recorded as a TransferOut
// receipt; the payload is bounded by MaxMessageDataLength.
func (m *Interpreter) messageOut(ra, rb, rc, rd types.RegisterID) error {
	if err := m.contractOp(); err != nil {
		return err
	}
	length := m.registers[rc]
	if length > m.params.MaxMessageDataLength {
		return panicErr(asm.MessageDataTooLong)
	}
	if err := m.chargeOf(asm.SMO, length); err != nil {
		return err
	}
	toBytes, err := m.readMemory(m.registers[ra], 32)
	if err != nil {
		return err
	}
	if _, err := m.readMemory(m.registers[rb], length); err != nil {
		return err
	}
	var to types.Address
	copy(to[:], toBytes)
	amount := m.registers[rd]
	if err := m.debitBalance(types.AssetID{}, amount); err != nil {
		return err
	}
	m.appendReceipt(types.TransferOutReceipt(m.contextContractID(), to, amount,
		types.AssetID{}, m.registers[types.RegPC], m.registers[types.RegIS]))
	return nil
}

func (m *Interpreter) logEvent(ra, rb, rc, rd types.RegisterID) error {
	m.appendReceipt(types.LogReceipt(m.contextContractID(),
		m.registers[ra], m.registers[rb], m.registers[rc], m.registers[rd],
		m.registers[types.RegPC], m.registers[types.RegIS]))
	return nil
}

func (m *Interpreter) logData(ra, rb, rc, rd types.RegisterID) error {
	length := m.registers[rd]
	if err := m.chargeOf(asm.LOGD, length); err != nil {
		return err
	}
	data, err := m.readMemory(m.registers[rc], length)
	if err != nil {
		return err
	}
	m.appendReceipt(types.LogDataReceipt(m.contextContractID(),
		m.registers[ra], m.registers[rb], m.registers[rc], length, types.Sha256(data),
		m.registers[types.RegPC], m.registers[types.RegIS]))
	return nil
}

// getMetadata implements GM.
func (m *Interpreter) getMetadata(ra types.RegisterID, selector types.Word) error {
	switch selector {
	case GMIsCallerExternal:
		if !m.internalContext() {
			return panicErr(asm.ExpectedInternalContext)
		}
		return m.writeRegister(ra, boolWord(len(m.frames) == 1))
	case GMGetCaller:
		if len(m.frames) < 2 {
			return panicErr(asm.ExpectedInternalContext)
		}
		// address of the caller frame header, which starts with its id
		return m.writeRegister(ra, m.frames[len(m.frames)-2].fpAddr)
	case GMGetVerifyingPredicate:
		if m.context != ContextPredicate {
			return panicErr(asm.TransactionValidity)
		}
		return m.writeRegister(ra, types.Word(m.predicateIdx))
	}
	return panicErr(asm.InvalidImmediateValue)
}
