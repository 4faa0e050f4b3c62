package vm

import "math"

// Tier costs. Every opcode's constant gas is one of these unless listed
// separately below.
const (
	GasZeroStep    uint64 = 0
	GasQuickStep   uint64 = 2  // base
	GasFastestStep uint64 = 3  // very low
	GasFastStep    uint64 = 5  // low
	GasMidStep     uint64 = 8  // mid
	GasSlowStep    uint64 = 10 // high
	GasExtStep     uint64 = 20 // ext
	GasSpecialStep uint64 = 1  // JUMPDEST
)

// Opcode-specific gas schedule.
const (
	GasBalance     uint64 = 20
	GasExtCodeSize uint64 = 20
	GasExtCodeCopy uint64 = 20
	GasSload       uint64 = 50

	GasSstoreSet   uint64 = 20000 // zero -> non-zero
	GasSstoreReset uint64 = 5000  // every other transition
	GasSstoreClear uint64 = 5000  // non-zero -> zero
	SstoreRefund   uint64 = 15000 // credited on non-zero -> zero

	GasExp     uint64 = 10
	GasExpByte uint64 = 10 // per byte of exponent

	GasSha3     uint64 = 30
	GasSha3Word uint64 = 6

	GasMemory    uint64 = 3   // per word of memory
	QuadCoeffDiv uint64 = 512 // divisor of the quadratic memory term
	GasCopy      uint64 = 3   // per word copied

	GasLog      uint64 = 375
	GasLogTopic uint64 = 375
	GasLogData  uint64 = 8

	GasCreate     uint64 = 32000
	GasCreateData uint64 = 200 // per byte of deposited code

	GasCall              uint64 = 40
	GasCallValueTransfer uint64 = 9000
	GasCallNewAccount    uint64 = 25000
	CallStipend          uint64 = 2300

	GasSuicide           uint64 = 0
	GasSuicideNewAccount uint64 = 25000
	SuicideRefund        uint64 = 24000

	GasCodeReplace uint64 = 15000
	GasReplaceData uint64 = 50 // per byte overwritten

	GasJump     uint64 = GasMidStep
	GasJumpi    uint64 = GasSlowStep
	GasJumpDest uint64 = GasSpecialStep
	GasReturn   uint64 = 0
	GasStop     uint64 = 0
)

const (
	// MaxMemorySize is the largest memory a frame may address, in bytes.
	// Any offset+size beyond it is an out-of-gas class fault.
	MaxMemorySize uint64 = 1 << 30

	// MaxGas bounds every single dynamic charge.
	MaxGas uint64 = math.MaxInt64

	// StackLimit is the maximum operand stack depth.
	StackLimit = 1024

	// DefaultMaxCallDepth bounds nested CALL/CREATE recursion.
	DefaultMaxCallDepth = 1024
)

// toWordSize returns the number of 32-byte words needed for size bytes.
func toWordSize(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}

// memoryFee is the total cost of a memory of the given word count:
// 3w + w*w/512. Word counts are bounded by MaxMemorySize/32, so the square
// cannot overflow.
func memoryFee(words uint64) uint64 {
	return words*GasMemory + words*words/QuadCoeffDiv
}

// MemoryCost returns the expansion charge for growing memory from oldSize
// to newSize bytes, both rounded up to whole words. It is zero when
// newSize does not exceed oldSize.
func MemoryCost(oldSize, newSize uint64) (uint64, bool) {
	if newSize > MaxMemorySize || oldSize > MaxMemorySize {
		return 0, false
	}
	oldWords, newWords := toWordSize(oldSize), toWordSize(newSize)
	if newWords <= oldWords {
		return 0, true
	}
	return memoryFee(newWords) - memoryFee(oldWords), true
}

// callGas caps the gas requested by a CALL-family instruction to what the
// caller can still afford once the instruction's own cost is paid.
func callGas(available, required uint64, requested uint64, overflow bool) (uint64, error) {
	if available < required {
		return 0, ErrOutOfGas
	}
	rem := available - required
	if overflow || requested > rem {
		return rem, nil
	}
	return requested, nil
}
