package vm

type (
	// executionFunc runs an instruction against a frame. PUSH and jump
	// instructions move *pc themselves; everything else leaves it to the
	// dispatch loop.
	executionFunc func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error)

	// gasFunc computes the dynamic part of an instruction's cost, memory
	// expansion included. It reads the stack but never mutates it.
	gasFunc func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error)

	// memorySizeFunc returns the memory size in bytes an instruction
	// touches. The bool reports 64-bit overflow.
	memorySizeFunc func(stack *Stack) (uint64, bool)
)

// operation is the dispatch record of one opcode.
type operation struct {
	execute     executionFunc
	constantGas uint64
	dynamicGas  gasFunc
	minStack    int // items required on the stack
	maxStack    int // largest stack that cannot overflow after execution
	memorySize  memorySizeFunc
	minVersion  uint8 // lowest script version that may execute it

	halts     bool // STOP, RETURN, SUICIDE
	jumps     bool // JUMP, JUMPI set pc themselves
	writes    bool // forbidden under STATICCALL
	undefined bool // unassigned or reserved byte
}

// JumpTable maps every byte to an operation. No slot is nil.
type JumpTable [256]*operation

func minStack(pops, push int) int {
	return pops
}

func maxStack(pops, push int) int {
	return StackLimit + pops - push
}

func minSwapStack(n int) int { return minStack(n, n) }
func maxSwapStack(n int) int { return maxStack(n, n) }
func minDupStack(n int) int  { return minStack(n, n+1) }
func maxDupStack(n int) int  { return maxStack(n, n+1) }

var undefinedOp = &operation{
	execute:   opUndefined,
	maxStack:  StackLimit,
	undefined: true,
}

// DefaultJumpTable is the instruction set used by NewEVM.
var DefaultJumpTable = newInstructionSet()

// newInstructionSet returns the full instruction set of the chain: the
// base account-model set, DELEGATECALL, STATICCALL and the version-gated
// CODEREPLACE.
func newInstructionSet() JumpTable {
	var tbl JumpTable

	tbl[STOP] = &operation{execute: opStop, constantGas: GasStop, minStack: minStack(0, 0), maxStack: maxStack(0, 0), halts: true}

	// Arithmetic
	tbl[ADD] = &operation{execute: opAdd, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[MUL] = &operation{execute: opMul, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SUB] = &operation{execute: opSub, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[DIV] = &operation{execute: opDiv, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SDIV] = &operation{execute: opSdiv, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[MOD] = &operation{execute: opMod, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SMOD] = &operation{execute: opSmod, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[ADDMOD] = &operation{execute: opAddmod, constantGas: GasMidStep, minStack: minStack(3, 1), maxStack: maxStack(3, 1)}
	tbl[MULMOD] = &operation{execute: opMulmod, constantGas: GasMidStep, minStack: minStack(3, 1), maxStack: maxStack(3, 1)}
	tbl[EXP] = &operation{execute: opExp, constantGas: GasExp, dynamicGas: gasExp, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SIGNEXTEND] = &operation{execute: opSignExtend, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}

	// Comparison and bitwise
	tbl[LT] = &operation{execute: opLt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[GT] = &operation{execute: opGt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SLT] = &operation{execute: opSlt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SGT] = &operation{execute: opSgt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[EQ] = &operation{execute: opEq, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[ISZERO] = &operation{execute: opIszero, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[AND] = &operation{execute: opAnd, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[OR] = &operation{execute: opOr, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[XOR] = &operation{execute: opXor, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[NOT] = &operation{execute: opNot, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[BYTE] = &operation{execute: opByte, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}

	tbl[SHA3] = &operation{execute: opSha3, constantGas: GasSha3, dynamicGas: gasSha3, minStack: minStack(2, 1), maxStack: maxStack(2, 1), memorySize: memorySha3}

	// Environment
	tbl[ADDRESS] = &operation{execute: opAddress, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[BALANCE] = &operation{execute: opBalance, constantGas: GasBalance, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[ORIGIN] = &operation{execute: opOrigin, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[CALLER] = &operation{execute: opCaller, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[CALLVALUE] = &operation{execute: opCallValue, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[CALLDATALOAD] = &operation{execute: opCallDataLoad, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[CALLDATASIZE] = &operation{execute: opCallDataSize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[CALLDATACOPY] = &operation{execute: opCallDataCopy, constantGas: GasFastestStep, dynamicGas: gasCallDataCopy, minStack: minStack(3, 0), maxStack: maxStack(3, 0), memorySize: memoryCallDataCopy}
	tbl[CODESIZE] = &operation{execute: opCodeSize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[CODECOPY] = &operation{execute: opCodeCopy, constantGas: GasFastestStep, dynamicGas: gasCodeCopy, minStack: minStack(3, 0), maxStack: maxStack(3, 0), memorySize: memoryCodeCopy}
	tbl[GASPRICE] = &operation{execute: opGasprice, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[EXTCODESIZE] = &operation{execute: opExtCodeSize, constantGas: GasExtCodeSize, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[EXTCODECOPY] = &operation{execute: opExtCodeCopy, constantGas: GasExtCodeCopy, dynamicGas: gasExtCodeCopy, minStack: minStack(4, 0), maxStack: maxStack(4, 0), memorySize: memoryExtCodeCopy}

	// Block
	tbl[BLOCKHASH] = &operation{execute: opBlockhash, constantGas: GasExtStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[COINBASE] = &operation{execute: opCoinbase, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[TIMESTAMP] = &operation{execute: opTimestamp, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[NUMBER] = &operation{execute: opNumber, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[DIFFICULTY] = &operation{execute: opDifficulty, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[GASLIMIT] = &operation{execute: opGasLimit, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}

	// Stack, memory, storage and flow
	tbl[POP] = &operation{execute: opPop, constantGas: GasQuickStep, minStack: minStack(1, 0), maxStack: maxStack(1, 0)}
	tbl[MLOAD] = &operation{execute: opMload, constantGas: GasFastestStep, dynamicGas: gasMemoryOnly, minStack: minStack(1, 1), maxStack: maxStack(1, 1), memorySize: memoryMLoad}
	tbl[MSTORE] = &operation{execute: opMstore, constantGas: GasFastestStep, dynamicGas: gasMemoryOnly, minStack: minStack(2, 0), maxStack: maxStack(2, 0), memorySize: memoryMStore}
	tbl[MSTORE8] = &operation{execute: opMstore8, constantGas: GasFastestStep, dynamicGas: gasMemoryOnly, minStack: minStack(2, 0), maxStack: maxStack(2, 0), memorySize: memoryMStore8}
	tbl[SLOAD] = &operation{execute: opSload, constantGas: GasSload, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[SSTORE] = &operation{execute: opSstore, dynamicGas: gasSStore, minStack: minStack(2, 0), maxStack: maxStack(2, 0), writes: true}
	tbl[JUMP] = &operation{execute: opJump, constantGas: GasJump, minStack: minStack(1, 0), maxStack: maxStack(1, 0), jumps: true}
	tbl[JUMPI] = &operation{execute: opJumpi, constantGas: GasJumpi, minStack: minStack(2, 0), maxStack: maxStack(2, 0), jumps: true}
	tbl[PC] = &operation{execute: opPc, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[MSIZE] = &operation{execute: opMsize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[GAS] = &operation{execute: opGas, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[JUMPDEST] = &operation{execute: opJumpdest, constantGas: GasJumpDest, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}

	for i := 0; i < 32; i++ {
		tbl[PUSH1+OpCode(i)] = &operation{execute: makePush(uint64(i + 1)), constantGas: GasFastestStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1), jumps: true}
	}
	for i := 1; i <= 16; i++ {
		tbl[DUP1+OpCode(i-1)] = &operation{execute: makeDup(i), constantGas: GasFastestStep, minStack: minDupStack(i), maxStack: maxDupStack(i)}
		tbl[SWAP1+OpCode(i-1)] = &operation{execute: makeSwap(i), constantGas: GasFastestStep, minStack: minSwapStack(i + 1), maxStack: maxSwapStack(i + 1)}
	}
	for n := 0; n <= 4; n++ {
		tbl[LOG0+OpCode(n)] = &operation{execute: makeLog(n), constantGas: GasLog, dynamicGas: makeGasLog(uint64(n)), minStack: minStack(n+2, 0), maxStack: maxStack(n+2, 0), memorySize: memoryLog, writes: true}
	}

	tbl[CODEREPLACE] = &operation{execute: opCodeReplace, constantGas: GasCodeReplace, dynamicGas: gasCodeReplace, minStack: minStack(2, 1), maxStack: maxStack(2, 1), memorySize: memoryCodeReplace, minVersion: 1, writes: true}

	// System
	tbl[CREATE] = &operation{execute: opCreate, constantGas: GasCreate, dynamicGas: gasMemoryOnly, minStack: minStack(3, 1), maxStack: maxStack(3, 1), memorySize: memoryCreate, writes: true}
	tbl[CALL] = &operation{execute: opCall, constantGas: GasCall, dynamicGas: gasCall, minStack: minStack(7, 1), maxStack: maxStack(7, 1), memorySize: memoryCall}
	tbl[CALLCODE] = &operation{execute: opCallCode, constantGas: GasCall, dynamicGas: gasCallCode, minStack: minStack(7, 1), maxStack: maxStack(7, 1), memorySize: memoryCall}
	tbl[RETURN] = &operation{execute: opReturn, constantGas: GasReturn, dynamicGas: gasMemoryOnly, minStack: minStack(2, 0), maxStack: maxStack(2, 0), memorySize: memoryReturn, halts: true}
	tbl[DELEGATECALL] = &operation{execute: opDelegateCall, constantGas: GasCall, dynamicGas: gasDelegateCall, minStack: minStack(6, 1), maxStack: maxStack(6, 1), memorySize: memoryDelegateCall}
	tbl[STATICCALL] = &operation{execute: opStaticCall, constantGas: GasCall, dynamicGas: gasStaticCall, minStack: minStack(6, 1), maxStack: maxStack(6, 1), memorySize: memoryStaticCall}
	tbl[SUICIDE] = &operation{execute: opSuicide, constantGas: GasSuicide, dynamicGas: gasSuicide, minStack: minStack(1, 0), maxStack: maxStack(1, 0), halts: true, writes: true}

	for i, op := range tbl {
		if op == nil {
			tbl[i] = undefinedOp
		}
	}
	// HEADER is reserved for block-header access and has no semantics yet.
	tbl[HEADER] = undefinedOp
	return tbl
}

// --- Memory size functions ---

func memorySha3(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(1))
}

func memoryCallDataCopy(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(2))
}

func memoryCodeCopy(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(2))
}

func memoryExtCodeCopy(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(1), stack.Back(3))
}

func memoryMLoad(stack *Stack) (uint64, bool) {
	return calcMemSize64WithUint(stack.Back(0), 32)
}

func memoryMStore8(stack *Stack) (uint64, bool) {
	return calcMemSize64WithUint(stack.Back(0), 1)
}

func memoryMStore(stack *Stack) (uint64, bool) {
	return calcMemSize64WithUint(stack.Back(0), 32)
}

func memoryCreate(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(1), stack.Back(2))
}

func memoryReturn(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(1))
}

func memoryLog(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(1))
}

func memoryCodeReplace(stack *Stack) (uint64, bool) {
	return calcMemSize64(stack.Back(0), stack.Back(1))
}

// memoryCall covers both the input and the output span of CALL and
// CALLCODE: gas, addr, value, inOffset, inSize, outOffset, outSize.
func memoryCall(stack *Stack) (uint64, bool) {
	x, overflow := calcMemSize64(stack.Back(5), stack.Back(6))
	if overflow {
		return 0, true
	}
	y, overflow := calcMemSize64(stack.Back(3), stack.Back(4))
	if overflow {
		return 0, true
	}
	return max(x, y), false
}

// memoryDelegateCall is memoryCall without the value slot.
func memoryDelegateCall(stack *Stack) (uint64, bool) {
	x, overflow := calcMemSize64(stack.Back(4), stack.Back(5))
	if overflow {
		return 0, true
	}
	y, overflow := calcMemSize64(stack.Back(2), stack.Back(3))
	if overflow {
		return 0, true
	}
	return max(x, y), false
}

func memoryStaticCall(stack *Stack) (uint64, bool) {
	return memoryDelegateCall(stack)
}
