package vm

import (
	"github.com/holiman/uint256"
)

// Memory is the byte-addressable scratch space of a frame. Its length is
// always a multiple of 32 and only ever grows; expansion is billed by the
// dispatch loop before Resize is called.
type Memory struct {
	store []byte
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Set copies value into memory at [offset, offset+size).
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("memory: write beyond billed size")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes val as a 32-byte big-endian word at offset.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("memory: write beyond billed size")
	}
	val.PutUint256(m.store[offset : offset+32])
}

// SetByte writes a single byte at offset.
func (m *Memory) SetByte(offset uint64, b byte) {
	if offset >= uint64(len(m.store)) {
		panic("memory: write beyond billed size")
	}
	m.store[offset] = b
}

// Resize grows memory to size bytes. Callers pass word-aligned sizes.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// GetCopy returns a copy of [offset, offset+size).
func (m *Memory) GetCopy(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// GetPtr returns a slice aliasing [offset, offset+size).
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Len returns the memory size in bytes.
func (m *Memory) Len() int {
	return len(m.store)
}

// Words returns the memory size in 32-byte words.
func (m *Memory) Words() uint64 {
	return uint64(len(m.store)) / 32
}

// Data returns the backing slice.
func (m *Memory) Data() []byte {
	return m.store
}
