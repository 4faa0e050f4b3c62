package vm

import (
	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
	"github.com/y0ke/rskj/crypto"
)

// --- Arithmetic ---
//
// Every instruction pops its operands and writes the result into the slot
// of the last operand, which becomes the new top of stack.

func opAdd(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	y.Mul(&x, y)
	return nil, nil
}

// opDiv yields zero for a zero divisor.
func opDiv(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	y.Div(&x, y)
	return nil, nil
}

// opSdiv divides as two's complement; MIN_INT / -1 wraps to MIN_INT.
func opSdiv(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	y.SMod(&x, y)
	return nil, nil
}

// opAddmod and opMulmod work on 512-bit intermediates.
func opAddmod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y, z := frame.Stack.pop(), frame.Stack.pop(), frame.Stack.Peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y, z := frame.Stack.pop(), frame.Stack.pop(), frame.Stack.Peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

func opExp(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	base, exponent := frame.Stack.pop(), frame.Stack.Peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

// opSignExtend leaves the value unchanged for a byte index of 31 or more.
func opSignExtend(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	back, num := frame.Stack.pop(), frame.Stack.Peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

// --- Comparison and bitwise ---

func opLt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	setBool(y, x.Lt(y))
	return nil, nil
}

func opGt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	setBool(y, x.Gt(y))
	return nil, nil
}

func opSlt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	setBool(y, x.Slt(y))
	return nil, nil
}

func opSgt(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	setBool(y, x.Sgt(y))
	return nil, nil
}

func opEq(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	setBool(y, x.Eq(y))
	return nil, nil
}

func opIszero(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x := frame.Stack.Peek()
	setBool(x, x.IsZero())
	return nil, nil
}

func opAnd(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x, y := frame.Stack.pop(), frame.Stack.Peek()
	y.Xor(&x, y)
	return nil, nil
}

func opNot(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x := frame.Stack.Peek()
	x.Not(x)
	return nil, nil
}

// opByte yields zero for an index of 32 or more.
func opByte(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	th, val := frame.Stack.pop(), frame.Stack.Peek()
	val.Byte(&th)
	return nil, nil
}

func setBool(z *uint256.Int, b bool) {
	if b {
		z.SetOne()
	} else {
		z.Clear()
	}
}

func opSha3(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset, size := frame.Stack.pop(), frame.Stack.Peek()
	data := frame.Memory.GetPtr(offset.Uint64(), size.Uint64())
	size.SetBytes(crypto.Keccak256(data))
	return nil, nil
}

// --- Environment ---

func opAddress(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(addressToWord(frame.Contract.Address))
	return nil, nil
}

func opBalance(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	slot := frame.Stack.Peek()
	slot.Set(evm.StateDB.GetBalance(wordToAddress(slot)))
	return nil, nil
}

func opOrigin(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(addressToWord(evm.TxContext.Origin))
	return nil, nil
}

func opCaller(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(addressToWord(frame.Contract.CallerAddress))
	return nil, nil
}

func opCallValue(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(frame.Contract.Value)
	return nil, nil
}

func opCallDataLoad(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	x := frame.Stack.Peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		x.SetBytes(getData(frame.Contract.Input, offset, 32))
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(uint64(len(frame.Contract.Input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		memOffset  = frame.Stack.pop()
		dataOffset = frame.Stack.pop()
		length     = frame.Stack.pop()
	)
	off, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		off = ^uint64(0)
	}
	frame.Memory.Set(memOffset.Uint64(), length.Uint64(), getData(frame.Contract.Input, off, length.Uint64()))
	return nil, nil
}

func opCodeSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(uint64(len(frame.Contract.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		memOffset  = frame.Stack.pop()
		codeOffset = frame.Stack.pop()
		length     = frame.Stack.pop()
	)
	off, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		off = ^uint64(0)
	}
	frame.Memory.Set(memOffset.Uint64(), length.Uint64(), getData(frame.Contract.Code, off, length.Uint64()))
	return nil, nil
}

func opGasprice(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	price := evm.TxContext.GasPrice
	if price == nil {
		price = new(uint256.Int)
	}
	frame.Stack.push(price)
	return nil, nil
}

func opExtCodeSize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	slot := frame.Stack.Peek()
	slot.SetUint64(uint64(evm.StateDB.GetCodeSize(wordToAddress(slot))))
	return nil, nil
}

func opExtCodeCopy(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		a          = frame.Stack.pop()
		memOffset  = frame.Stack.pop()
		codeOffset = frame.Stack.pop()
		length     = frame.Stack.pop()
	)
	off, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		off = ^uint64(0)
	}
	code := evm.StateDB.GetCode(wordToAddress(&a))
	frame.Memory.Set(memOffset.Uint64(), length.Uint64(), getData(code, off, length.Uint64()))
	return nil, nil
}

// --- Block ---

// opBlockhash answers only for the 256 most recent complete blocks.
func opBlockhash(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	num := frame.Stack.Peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow || evm.Context.GetHash == nil {
		num.Clear()
		return nil, nil
	}
	var lower, upper uint64
	upper = evm.Context.BlockNumber
	if upper > 256 {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper {
		h := evm.Context.GetHash(num64)
		num.SetBytes(h[:])
	} else {
		num.Clear()
	}
	return nil, nil
}

func opCoinbase(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(addressToWord(evm.Context.Coinbase))
	return nil, nil
}

func opTimestamp(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(evm.Context.Time))
	return nil, nil
}

func opNumber(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(evm.Context.BlockNumber))
	return nil, nil
}

func opDifficulty(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	d := evm.Context.Difficulty
	if d == nil {
		d = new(uint256.Int)
	}
	frame.Stack.push(d)
	return nil, nil
}

func opGasLimit(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(evm.Context.GasLimit))
	return nil, nil
}

// --- Stack, memory, storage and flow ---

func opPop(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.pop()
	return nil, nil
}

func opMload(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	v := frame.Stack.Peek()
	offset := v.Uint64()
	v.SetBytes(frame.Memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	mStart, val := frame.Stack.pop(), frame.Stack.pop()
	frame.Memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	off, val := frame.Stack.pop(), frame.Stack.pop()
	frame.Memory.SetByte(off.Uint64(), byte(val.Uint64()))
	return nil, nil
}

// opSload reads zero for a key that was never written.
func opSload(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	loc := frame.Stack.Peek()
	val := evm.StateDB.GetState(frame.Contract.Address, wordToHash(loc))
	loc.SetBytes32(val[:])
	return nil, nil
}

// opSstore writes storage; gasSStore has already priced the transition.
// Clearing a slot credits SstoreRefund.
func opSstore(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	loc, val := frame.Stack.pop(), frame.Stack.pop()
	key := wordToHash(&loc)
	current := evm.StateDB.GetState(frame.Contract.Address, key)
	if !current.IsZero() && val.IsZero() {
		evm.StateDB.AddRefund(SstoreRefund)
	}
	evm.StateDB.SetState(frame.Contract.Address, key, wordToHash(&val))
	return nil, nil
}

func opJump(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	pos := frame.Stack.pop()
	if !frame.Contract.validJumpdest(&pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	pos, cond := frame.Stack.pop(), frame.Stack.pop()
	if cond.IsZero() {
		*pc++
		return nil, nil
	}
	if !frame.Contract.validJumpdest(&pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64()
	return nil, nil
}

func opJumpdest(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(uint64(frame.Memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	frame.Stack.push(new(uint256.Int).SetUint64(frame.Contract.Gas.Remaining()))
	return nil, nil
}

// makePush reads size immediate bytes after pc. Immediates cut short by
// the end of the code are right-padded with zeros.
func makePush(size uint64) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		var (
			code    = frame.Contract.Code
			codeLen = uint64(len(code))
			start   = min(codeLen, *pc+1)
			end     = min(codeLen, start+size)
		)
		frame.Stack.push(new(uint256.Int).SetBytes(padRight(code[start:end], int(size))))
		*pc += size + 1
		return nil, nil
	}
}

func makeDup(size int) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		frame.Stack.Dup(size)
		return nil, nil
	}
}

func makeSwap(size int) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		frame.Stack.Swap(size)
		return nil, nil
	}
}

func makeLog(size int) executionFunc {
	return func(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
		stack := frame.Stack
		mStart, mSize := stack.pop(), stack.pop()
		topics := make([]types.Hash, size)
		for i := 0; i < size; i++ {
			t := stack.pop()
			topics[i] = wordToHash(&t)
		}
		evm.StateDB.AddLog(&types.Log{
			Address:     frame.Contract.Address,
			Topics:      topics,
			Data:        frame.Memory.GetCopy(mStart.Uint64(), mSize.Uint64()),
			BlockNumber: evm.Context.BlockNumber,
		})
		return nil, nil
	}
}

// opCodeReplace stores the memory span as the new code of the executing
// account and pushes 1. The running frame keeps executing its old code.
func opCodeReplace(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset, size := frame.Stack.pop(), frame.Stack.Peek()
	code := frame.Memory.GetCopy(offset.Uint64(), size.Uint64())
	evm.StateDB.SetCode(frame.Contract.Address, code)
	size.SetOne()
	return nil, nil
}

// --- System ---

// opCreate hands all remaining gas to the init code and pushes the new
// address, or zero on failure.
func opCreate(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	var (
		value  = frame.Stack.pop()
		offset = frame.Stack.pop()
		size   = frame.Stack.Peek()
		input  = frame.Memory.GetCopy(offset.Uint64(), size.Uint64())
		gas    = frame.Contract.Gas.Remaining()
	)
	frame.Contract.Gas.Exhaust()

	_, addr, returnGas, err := evm.Create(frame.Contract.Address, input, gas, &value)
	if IsInternal(err) {
		return nil, err
	}
	if err != nil {
		size.Clear()
	} else {
		size.SetBytes(addr[:])
	}
	frame.Contract.Gas.Return(returnGas)
	return nil, nil
}

// callArgs pops the operands shared by the CALL family. The returned temp
// is the popped gas word, reused as the result slot.
type callArgs struct {
	temp, addr, value           uint256.Int
	inOffset, inSize, retOffset uint256.Int
	retSize                     uint256.Int
}

func popCallArgs(stack *Stack, hasValue bool) (a callArgs) {
	a.temp = stack.pop()
	a.addr = stack.pop()
	if hasValue {
		a.value = stack.pop()
	}
	a.inOffset, a.inSize = stack.pop(), stack.pop()
	a.retOffset, a.retSize = stack.pop(), stack.pop()
	return a
}

// finishCall folds a sub-call outcome into the calling frame: result flag,
// output copy (success only) and returned gas. Engine failures are passed
// up unchanged.
func finishCall(frame *Frame, a *callArgs, ret []byte, returnGas uint64, err error) error {
	if IsInternal(err) {
		return err
	}
	if err != nil {
		a.temp.Clear()
	} else {
		a.temp.SetOne()
		if size := a.retSize.Uint64(); size > 0 {
			frame.Memory.Set(a.retOffset.Uint64(), size, padRight(ret, int(size)))
		}
	}
	frame.Stack.push(&a.temp)
	frame.Contract.Gas.Return(returnGas)
	return nil
}

func opCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	a := popCallArgs(frame.Stack, true)
	gas := evm.callGasTemp
	if !a.value.IsZero() {
		gas += CallStipend
	}
	args := frame.Memory.GetPtr(a.inOffset.Uint64(), a.inSize.Uint64())
	ret, returnGas, err := evm.Call(frame.Contract.Address, wordToAddress(&a.addr), args, gas, &a.value)
	return nil, finishCall(frame, &a, ret, returnGas, err)
}

func opCallCode(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	a := popCallArgs(frame.Stack, true)
	gas := evm.callGasTemp
	if !a.value.IsZero() {
		gas += CallStipend
	}
	args := frame.Memory.GetPtr(a.inOffset.Uint64(), a.inSize.Uint64())
	ret, returnGas, err := evm.CallCode(frame.Contract.Address, wordToAddress(&a.addr), args, gas, &a.value)
	return nil, finishCall(frame, &a, ret, returnGas, err)
}

func opDelegateCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	a := popCallArgs(frame.Stack, false)
	args := frame.Memory.GetPtr(a.inOffset.Uint64(), a.inSize.Uint64())
	ret, returnGas, err := evm.DelegateCall(frame.Contract, wordToAddress(&a.addr), args, evm.callGasTemp)
	return nil, finishCall(frame, &a, ret, returnGas, err)
}

func opStaticCall(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	a := popCallArgs(frame.Stack, false)
	args := frame.Memory.GetPtr(a.inOffset.Uint64(), a.inSize.Uint64())
	ret, returnGas, err := evm.StaticCall(frame.Contract.Address, wordToAddress(&a.addr), args, evm.callGasTemp)
	return nil, finishCall(frame, &a, ret, returnGas, err)
}

func opReturn(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	offset, size := frame.Stack.pop(), frame.Stack.pop()
	return frame.Memory.GetCopy(offset.Uint64(), size.Uint64()), nil
}

func opStop(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, nil
}

// opSuicide moves the whole balance to the beneficiary and schedules the
// account for deletion. A contract naming itself burns its balance.
func opSuicide(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	beneficiary := frame.Stack.pop()
	self := frame.Contract.Address
	balance := evm.StateDB.GetBalance(self)
	evm.StateDB.AddBalance(wordToAddress(&beneficiary), balance)
	if !evm.StateDB.HasSelfDestructed(self) {
		evm.StateDB.AddRefund(SuicideRefund)
	}
	evm.StateDB.SelfDestruct(self)
	return nil, nil
}

func opUndefined(pc *uint64, evm *EVM, frame *Frame) ([]byte, error) {
	return nil, invalidOpCodeError(frame.Contract.GetOp(*pc), *pc)
}
