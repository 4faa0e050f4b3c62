package vm

import (
	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
)

// Message is a top-level invocation: a call when To is set, a contract
// creation otherwise. Intrinsic gas and fee settlement are the caller's
// concern; GasLimit is what the code may spend.
type Message struct {
	From     types.Address
	To       *types.Address
	Value    *uint256.Int
	GasLimit uint64
	Data     []byte
}

// ExecutionResult is the outcome of Execute.
type ExecutionResult struct {
	UsedGas         uint64
	Refund          uint64 // refund counter, uncapped
	ReturnData      []byte
	ContractAddress types.Address // set for creations
	Err             error         // the bytecode fault, nil on success
}

// Failed reports whether execution ended in a fault.
func (r *ExecutionResult) Failed() bool { return r.Err != nil }

// Execute runs msg to completion. A bytecode fault is reported in the
// result: every state change except the sender's creation nonce bump is
// undone and the whole gas limit is charged.
// An engine failure is returned as an error instead and the result is nil;
// the enclosing block must not be accepted.
func (evm *EVM) Execute(msg Message) (*ExecutionResult, error) {
	var (
		ret      []byte
		leftOver uint64
		err      error
		result   = new(ExecutionResult)
		snapshot = evm.StateDB.Snapshot()
	)
	if msg.To == nil {
		ret, result.ContractAddress, leftOver, err = evm.Create(msg.From, msg.Data, msg.GasLimit, msg.Value)
	} else {
		ret, leftOver, err = evm.Call(msg.From, *msg.To, msg.Data, msg.GasLimit, msg.Value)
	}
	if IsInternal(err) {
		evm.logger.Error("execution aborted", "from", msg.From, "err", err)
		return nil, err
	}

	if err != nil {
		nonce := evm.StateDB.GetNonce(msg.From)
		evm.StateDB.RevertToSnapshot(snapshot)
		if msg.To == nil && evm.StateDB.GetNonce(msg.From) != nonce {
			evm.StateDB.SetNonce(msg.From, nonce)
		}
		result.UsedGas = msg.GasLimit
		result.Err = err
	} else {
		result.UsedGas = msg.GasLimit - leftOver
		result.ReturnData = ret
		result.Refund = evm.StateDB.GetRefund()
	}
	evm.stats.execution(result.UsedGas)
	evm.logger.Debug("execution finished", "from", msg.From, "create", msg.To == nil,
		"gasUsed", result.UsedGas, "refund", result.Refund, "steps", evm.stepCount, "err", err)
	return result, nil
}
