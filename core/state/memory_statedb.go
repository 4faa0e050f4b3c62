// Package state provides an in-memory, journaled account state. It backs
// the execution engine in tests and in the evm command; persistent trie
// storage lives outside this module.
package state

import (
	"sort"

	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
	"github.com/y0ke/rskj/crypto"
)

// stateObject is one account and its storage.
type stateObject struct {
	nonce          uint64
	balance        *uint256.Int
	code           []byte
	codeHash       types.Hash
	storage        map[types.Hash]types.Hash
	selfDestructed bool
}

func newStateObject() *stateObject {
	return &stateObject{
		balance:  new(uint256.Int),
		codeHash: types.EmptyCodeHash,
		storage:  make(map[types.Hash]types.Hash),
	}
}

// MemoryStateDB keeps every account in a map and journals each mutation so
// that a failed sub-execution can be rolled back with RevertToSnapshot.
type MemoryStateDB struct {
	stateObjects map[types.Address]*stateObject
	journal      *journal
	logs         []*types.Log
	refund       uint64
	txHash       types.Hash
}

// NewMemoryStateDB creates an empty state.
func NewMemoryStateDB() *MemoryStateDB {
	return &MemoryStateDB{
		stateObjects: make(map[types.Address]*stateObject),
		journal:      newJournal(),
	}
}

func (s *MemoryStateDB) getStateObject(addr types.Address) *stateObject {
	return s.stateObjects[addr]
}

func (s *MemoryStateDB) getOrNewStateObject(addr types.Address) *stateObject {
	if obj := s.stateObjects[addr]; obj != nil {
		return obj
	}
	obj := newStateObject()
	s.journal.append(createAccountChange{addr: addr})
	s.stateObjects[addr] = obj
	return obj
}

// --- Accounts ---

// CreateAccount installs a fresh account at addr. A balance already held by
// the address is carried over.
func (s *MemoryStateDB) CreateAccount(addr types.Address) {
	prev := s.stateObjects[addr]
	obj := newStateObject()
	if prev != nil {
		obj.balance.Set(prev.balance)
	}
	s.journal.append(createAccountChange{addr: addr, prev: prev})
	s.stateObjects[addr] = obj
}

func (s *MemoryStateDB) GetBalance(addr types.Address) *uint256.Int {
	if obj := s.getStateObject(addr); obj != nil {
		return new(uint256.Int).Set(obj.balance)
	}
	return new(uint256.Int)
}

func (s *MemoryStateDB) AddBalance(addr types.Address, amount *uint256.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(uint256.Int).Set(obj.balance)})
	obj.balance = new(uint256.Int).Add(obj.balance, amount)
}

func (s *MemoryStateDB) SubBalance(addr types.Address, amount *uint256.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: new(uint256.Int).Set(obj.balance)})
	obj.balance = new(uint256.Int).Sub(obj.balance, amount)
}

func (s *MemoryStateDB) GetNonce(addr types.Address) uint64 {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.nonce
	}
	return 0
}

func (s *MemoryStateDB) SetNonce(addr types.Address, nonce uint64) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(nonceChange{addr: addr, prev: obj.nonce})
	obj.nonce = nonce
}

func (s *MemoryStateDB) GetCode(addr types.Address) []byte {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.code
	}
	return nil
}

func (s *MemoryStateDB) SetCode(addr types.Address, code []byte) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(codeChange{addr: addr, prevCode: obj.code, prevHash: obj.codeHash})
	obj.code = code
	obj.codeHash = crypto.Keccak256Hash(code)
}

func (s *MemoryStateDB) GetCodeHash(addr types.Address) types.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.codeHash
	}
	return types.Hash{}
}

func (s *MemoryStateDB) GetCodeSize(addr types.Address) int {
	if obj := s.getStateObject(addr); obj != nil {
		return len(obj.code)
	}
	return 0
}

// --- Self-destruct ---

// SelfDestruct marks addr for deletion and zeroes its balance. The account
// stays readable until Finalise.
func (s *MemoryStateDB) SelfDestruct(addr types.Address) {
	obj := s.getStateObject(addr)
	if obj == nil {
		return
	}
	s.journal.append(selfDestructChange{
		addr:           addr,
		prevDestructed: obj.selfDestructed,
		prevBalance:    new(uint256.Int).Set(obj.balance),
	})
	obj.selfDestructed = true
	obj.balance = new(uint256.Int)
}

func (s *MemoryStateDB) HasSelfDestructed(addr types.Address) bool {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.selfDestructed
	}
	return false
}

// --- Storage ---

// GetState returns the stored word, or the zero hash for an unset key.
func (s *MemoryStateDB) GetState(addr types.Address, key types.Hash) types.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.storage[key]
	}
	return types.Hash{}
}

// SetState stores value under key. Storing zero deletes the slot.
func (s *MemoryStateDB) SetState(addr types.Address, key types.Hash, value types.Hash) {
	obj := s.getOrNewStateObject(addr)
	prev, existed := obj.storage[key]
	s.journal.append(storageChange{addr: addr, key: key, prev: prev, prevExists: existed})
	if value.IsZero() {
		delete(obj.storage, key)
		return
	}
	obj.storage[key] = value
}

// StorageKeys returns the non-zero storage keys of addr in ascending order.
func (s *MemoryStateDB) StorageKeys(addr types.Address) []types.Hash {
	obj := s.getStateObject(addr)
	if obj == nil {
		return nil
	}
	keys := make([]types.Hash, 0, len(obj.storage))
	for k := range obj.storage {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return string(keys[i][:]) < string(keys[j][:])
	})
	return keys
}

// --- Existence ---

func (s *MemoryStateDB) Exist(addr types.Address) bool {
	return s.stateObjects[addr] != nil
}

// Empty reports whether addr has no nonce, no balance and no code.
func (s *MemoryStateDB) Empty(addr types.Address) bool {
	obj := s.getStateObject(addr)
	if obj == nil {
		return true
	}
	return obj.nonce == 0 && obj.balance.IsZero() && obj.codeHash == types.EmptyCodeHash
}

// --- Snapshot and revert ---

func (s *MemoryStateDB) Snapshot() int {
	return s.journal.snapshot()
}

func (s *MemoryStateDB) RevertToSnapshot(id int) {
	s.journal.revertToSnapshot(id, s)
}

// --- Logs ---

// SetTxHash sets the hash stamped onto logs emitted from now on.
func (s *MemoryStateDB) SetTxHash(h types.Hash) { s.txHash = h }

func (s *MemoryStateDB) AddLog(log *types.Log) {
	s.journal.append(logChange{prevLen: len(s.logs)})
	log.TxHash = s.txHash
	log.Index = uint(len(s.logs))
	s.logs = append(s.logs, log)
}

// Logs returns every log emitted and not reverted.
func (s *MemoryStateDB) Logs() []*types.Log {
	return s.logs
}

// --- Refund counter ---

func (s *MemoryStateDB) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

func (s *MemoryStateDB) GetRefund() uint64 {
	return s.refund
}

// --- Finalisation ---

// Finalise removes self-destructed accounts, clears the refund counter and
// discards the journal. Snapshots taken before Finalise become invalid.
func (s *MemoryStateDB) Finalise() {
	for addr, obj := range s.stateObjects {
		if obj.selfDestructed {
			delete(s.stateObjects, addr)
		}
	}
	s.refund = 0
	s.journal = newJournal()
}
