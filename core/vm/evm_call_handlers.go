package vm

import (
	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
)

// Message calls. Each entry point checks depth and balance before touching
// state, takes a snapshot, runs the callee and reverts the snapshot on any
// fault. The gas handed back is what the callee did not spend: zero after
// an out-of-gas class fault, the unspent remainder after any other fault,
// and the full allowance when the call never started.

// Call runs the code at addr with caller as sender, moving value first.
func (evm *EVM) Call(caller, addr types.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, err error) {
	if value == nil {
		value = new(uint256.Int)
	}
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrDepth
	}
	if !evm.canTransfer(caller, value) {
		return nil, gas, ErrInsufficientBalance
	}
	if evm.depth == 0 && evm.Config.Tracer != nil {
		evm.Config.Tracer.CaptureStart(caller, addr, false, input, gas, value)
		defer func(startGas uint64) {
			evm.Config.Tracer.CaptureEnd(ret, startGas-leftOverGas, err)
		}(gas)
	}

	snapshot := evm.StateDB.Snapshot()
	p, isPrecompile := evm.precompile(addr)
	if !evm.StateDB.Exist(addr) {
		evm.StateDB.CreateAccount(addr)
	}
	evm.transfer(caller, addr, value)

	if isPrecompile {
		ret, gas, err = runPrecompile(p, input, gas)
	} else if code := evm.StateDB.GetCode(addr); len(code) > 0 {
		contract := evm.newContract(caller, addr, value, gas, KindCall)
		contract.SetCallCode(addr, evm.StateDB.GetCodeHash(addr), code)
		ret, err = evm.enter(contract, input)
		gas = contract.Gas.Remaining()
	}
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
	}
	return ret, gas, err
}

// CallCode runs the code at addr against the caller's own account: the
// caller is both sender and storage owner. value is checked against the
// caller's balance but does not move.
func (evm *EVM) CallCode(caller, addr types.Address, input []byte, gas uint64, value *uint256.Int) (ret []byte, leftOverGas uint64, err error) {
	if value == nil {
		value = new(uint256.Int)
	}
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrDepth
	}
	if !evm.canTransfer(caller, value) {
		return nil, gas, ErrInsufficientBalance
	}

	snapshot := evm.StateDB.Snapshot()
	if p, isPrecompile := evm.precompile(addr); isPrecompile {
		ret, gas, err = runPrecompile(p, input, gas)
	} else if code := evm.StateDB.GetCode(addr); len(code) > 0 {
		contract := evm.newContract(caller, caller, value, gas, KindCallCode)
		contract.SetCallCode(addr, evm.StateDB.GetCodeHash(addr), code)
		ret, err = evm.enter(contract, input)
		gas = contract.Gas.Remaining()
	}
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
	}
	return ret, gas, err
}

// DelegateCall runs the code at addr in the context of parent: sender,
// value and storage owner are all inherited.
func (evm *EVM) DelegateCall(parent *Contract, addr types.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, err error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrDepth
	}

	snapshot := evm.StateDB.Snapshot()
	if p, isPrecompile := evm.precompile(addr); isPrecompile {
		ret, gas, err = runPrecompile(p, input, gas)
	} else if code := evm.StateDB.GetCode(addr); len(code) > 0 {
		contract := evm.newContract(parent.CallerAddress, parent.Address, parent.Value, gas, KindDelegateCall)
		contract.SetCallCode(addr, evm.StateDB.GetCodeHash(addr), code)
		ret, err = evm.enter(contract, input)
		gas = contract.Gas.Remaining()
	}
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
	}
	return ret, gas, err
}

// StaticCall runs the code at addr with state modification forbidden for
// the callee and everything it calls.
func (evm *EVM) StaticCall(caller, addr types.Address, input []byte, gas uint64) (ret []byte, leftOverGas uint64, err error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrDepth
	}
	if !evm.readOnly {
		evm.readOnly = true
		defer func() { evm.readOnly = false }()
	}

	snapshot := evm.StateDB.Snapshot()
	if p, isPrecompile := evm.precompile(addr); isPrecompile {
		ret, gas, err = runPrecompile(p, input, gas)
	} else if code := evm.StateDB.GetCode(addr); len(code) > 0 {
		contract := evm.newContract(caller, addr, new(uint256.Int), gas, KindStaticCall)
		contract.SetCallCode(addr, evm.StateDB.GetCodeHash(addr), code)
		ret, err = evm.enter(contract, input)
		gas = contract.Gas.Remaining()
	}
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
	}
	return ret, gas, err
}

// newContract builds a callee contract that inherits the running script
// version.
func (evm *EVM) newContract(caller, addr types.Address, value *uint256.Int, gas uint64, kind CallKind) *Contract {
	contract := NewContract(caller, addr, value, gas)
	contract.Kind = kind
	contract.ScriptVersion = evm.scriptVersion
	return contract
}

// enter runs contract one level deeper.
func (evm *EVM) enter(contract *Contract, input []byte) ([]byte, error) {
	evm.depth++
	defer func() { evm.depth-- }()

	if contract.Kind == KindCreate {
		evm.stats.create(evm.depth)
	} else {
		evm.stats.call(evm.depth)
	}
	evm.logger.Debug("enter frame", "kind", contract.Kind, "to", contract.Address, "code", contract.CodeAddress,
		"gas", contract.Gas.Remaining(), "depth", evm.depth)
	return evm.Run(contract, input)
}

func (evm *EVM) canTransfer(from types.Address, value *uint256.Int) bool {
	return value.IsZero() || !evm.StateDB.GetBalance(from).Lt(value)
}

func (evm *EVM) transfer(from, to types.Address, value *uint256.Int) {
	if value.IsZero() {
		return
	}
	evm.StateDB.SubBalance(from, value)
	evm.StateDB.AddBalance(to, value)
}
