package vm

import (
	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
)

// Words are uint256.Int values. The helpers below convert between words,
// addresses, storage keys and memory spans.

// addressToWord left-pads an address into a word.
func addressToWord(a types.Address) *uint256.Int {
	return new(uint256.Int).SetBytes(a[:])
}

// wordToAddress keeps the low 20 bytes of w.
func wordToAddress(w *uint256.Int) types.Address {
	return types.Address(w.Bytes20())
}

// wordToHash encodes w as a 32-byte big-endian storage key or value.
func wordToHash(w *uint256.Int) types.Hash {
	return types.Hash(w.Bytes32())
}

// hashToWord decodes a 32-byte big-endian value.
func hashToWord(h types.Hash) *uint256.Int {
	return new(uint256.Int).SetBytes32(h[:])
}

// calcMemSize64 returns offset+length as a byte count. A zero length never
// requires memory, whatever the offset. The bool reports overflow of
// 64 bits.
func calcMemSize64(off, l *uint256.Int) (uint64, bool) {
	if !l.IsUint64() {
		return 0, true
	}
	return calcMemSize64WithUint(off, l.Uint64())
}

func calcMemSize64WithUint(off *uint256.Int, length uint64) (uint64, bool) {
	if length == 0 {
		return 0, false
	}
	offset, overflow := off.Uint64WithOverflow()
	if overflow {
		return 0, true
	}
	val := offset + length
	return val, val < offset
}

// getData returns data[start:start+size], zero-padded on the right when the
// range runs past the end of data.
func getData(data []byte, start uint64, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length || end < start {
		end = length
	}
	return padRight(data[start:end], int(size))
}

// padRight returns b extended with zero bytes to length n. It copies.
func padRight(b []byte, n int) []byte {
	if len(b) >= n {
		return append([]byte(nil), b[:n]...)
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}
