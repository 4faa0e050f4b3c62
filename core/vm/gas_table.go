package vm

import (
	gethmath "github.com/ethereum/go-ethereum/common/math"
)

// memoryGasCost returns the charge for expanding frame memory to
// newMemSize bytes. Memory is resized to exactly the billed size after the
// charge succeeds, so a second access to the same span costs nothing.
func memoryGasCost(mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	cost, ok := MemoryCost(uint64(mem.Len()), newMemSize)
	if !ok {
		return 0, ErrMemoryLimitExceeded
	}
	return cost, nil
}

func gasMemoryOnly(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	return memoryGasCost(frame.Memory, memorySize)
}

// memoryCopierGas charges memory expansion plus GasCopy per word of the
// size found at stack position stackpos.
func memoryCopierGas(stackpos int, perWord uint64) gasFunc {
	return func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
		gas, err := memoryGasCost(frame.Memory, memorySize)
		if err != nil {
			return 0, err
		}
		words, overflow := frame.Stack.Back(stackpos).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		if words, overflow = gethmath.SafeMul(toWordSize(words), perWord); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = gethmath.SafeAdd(gas, words); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallDataCopy = memoryCopierGas(2, GasCopy)
	gasCodeCopy     = memoryCopierGas(2, GasCopy)
	gasExtCodeCopy  = memoryCopierGas(3, GasCopy)
	gasSha3         = memoryCopierGas(1, GasSha3Word)
)

// gasExp charges per byte of the exponent once leading zeros are dropped.
func gasExp(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	expByteLen := uint64((frame.Stack.Back(1).BitLen() + 7) / 8)
	return expByteLen * GasExpByte, nil
}

// gasSStore picks one of three costs by comparing the stored value with
// the new one:
//
//	zero     -> non-zero  GasSstoreSet
//	non-zero -> zero      GasSstoreClear (refund credited by opSstore)
//	otherwise             GasSstoreReset
func gasSStore(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	var (
		y, x    = frame.Stack.Back(1), frame.Stack.Back(0)
		current = evm.StateDB.GetState(frame.Contract.Address, wordToHash(x))
	)
	switch {
	case current.IsZero() && !y.IsZero():
		return GasSstoreSet, nil
	case !current.IsZero() && y.IsZero():
		return GasSstoreClear, nil
	default:
		return GasSstoreReset, nil
	}
}

// makeGasLog prices LOGn. The data cost is checked against MaxGas before
// anything is added so a huge size cannot wrap the total.
func makeGasLog(n uint64) gasFunc {
	return func(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
		requestedSize, overflow := frame.Stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		dataCost, overflow := gethmath.SafeMul(requestedSize, GasLogData)
		if overflow || dataCost > MaxGas {
			return 0, ErrGasUintOverflow
		}

		gas, err := memoryGasCost(frame.Memory, memorySize)
		if err != nil {
			return 0, err
		}
		if gas, overflow = gethmath.SafeAdd(gas, n*GasLogTopic); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = gethmath.SafeAdd(gas, dataCost); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

// callCost prices the instruction part of a CALL-family opcode, then works
// out how much gas the callee receives and stores it in evm.callGasTemp.
// The returned charge includes that forwarded gas.
func callCost(evm *EVM, frame *Frame, memorySize uint64, newAccountCheck, valuePos int) (uint64, error) {
	var (
		stack          = frame.Stack
		gas            uint64
		transfersValue bool
		overflow       bool
	)
	if valuePos >= 0 {
		transfersValue = !stack.Back(valuePos).IsZero()
	}
	if newAccountCheck >= 0 {
		addr := wordToAddress(stack.Back(newAccountCheck))
		if _, isPrecompile := evm.precompile(addr); !isPrecompile && !evm.StateDB.Exist(addr) {
			gas += GasCallNewAccount
		}
	}
	if transfersValue {
		gas += GasCallValueTransfer
	}
	memoryGas, err := memoryGasCost(frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	if gas, overflow = gethmath.SafeAdd(gas, memoryGas); overflow {
		return 0, ErrGasUintOverflow
	}

	required := gas
	if transfersValue {
		required += CallStipend
	}
	requested, overflow := stack.Back(0).Uint64WithOverflow()
	evm.callGasTemp, err = callGas(frame.Contract.Gas.Remaining(), required, requested, overflow)
	if err != nil {
		return 0, err
	}
	if gas, overflow = gethmath.SafeAdd(gas, evm.callGasTemp); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCall(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	return callCost(evm, frame, memorySize, 1, 2)
}

// gasCallCode never charges for a new account: the code runs on the
// caller's own account.
func gasCallCode(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	return callCost(evm, frame, memorySize, -1, 2)
}

func gasDelegateCall(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	return callCost(evm, frame, memorySize, 1, -1)
}

func gasStaticCall(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	return callCost(evm, frame, memorySize, 1, -1)
}

// gasSuicide charges for creating the beneficiary when it does not exist.
func gasSuicide(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	beneficiary := wordToAddress(frame.Stack.Back(0))
	if !evm.StateDB.Exist(beneficiary) {
		return GasSuicideNewAccount, nil
	}
	return 0, nil
}

// gasCodeReplace charges GasReplaceData for every byte that overwrites
// existing code and GasCreateData for every byte beyond it. Replacing code
// before any has been stored, that is from init code, is refused as out of
// gas.
func gasCodeReplace(evm *EVM, frame *Frame, memorySize uint64) (uint64, error) {
	if evm.StateDB.GetCodeSize(frame.Contract.Address) == 0 {
		return 0, ErrCodeReplaceInit
	}
	gas, err := memoryGasCost(frame.Memory, memorySize)
	if err != nil {
		return 0, err
	}
	// The size fits in MaxMemorySize: memoryCodeReplace bounded it.
	newSize := frame.Stack.Back(1).Uint64()
	oldSize := uint64(len(frame.Contract.Code))
	if newSize <= oldSize {
		return gas + newSize*GasReplaceData, nil
	}
	return gas + oldSize*GasReplaceData + (newSize-oldSize)*GasCreateData, nil
}
