package vm

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
	"github.com/y0ke/rskj/crypto"
)

// CreateAddress returns the address of the contract created by caller
// with the given nonce: keccak256(rlp([caller, nonce]))[12:].
func CreateAddress(caller types.Address, nonce uint64) types.Address {
	data, _ := rlp.EncodeToBytes([]interface{}{caller, nonce})
	return types.BytesToAddress(crypto.Keccak256(data)[12:])
}

// Create deploys code as init code of a new contract. The caller's nonce is
// bumped even when creation fails. The endowment is moved before the init
// code runs and stays at the new address if it faults; only the init
// code's own changes are undone. On success the returned bytes become the
// contract code at GasCreateData per byte.
func (evm *EVM) Create(caller types.Address, code []byte, gas uint64, value *uint256.Int) (ret []byte, contractAddr types.Address, leftOverGas uint64, err error) {
	if value == nil {
		value = new(uint256.Int)
	}
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, types.Address{}, gas, ErrDepth
	}
	if !evm.canTransfer(caller, value) {
		return nil, types.Address{}, gas, ErrInsufficientBalance
	}
	nonce := evm.StateDB.GetNonce(caller)
	evm.StateDB.SetNonce(caller, nonce+1)
	contractAddr = CreateAddress(caller, nonce)

	if evm.depth == 0 && evm.Config.Tracer != nil {
		evm.Config.Tracer.CaptureStart(caller, contractAddr, true, code, gas, value)
		defer func(startGas uint64) {
			evm.Config.Tracer.CaptureEnd(ret, startGas-leftOverGas, err)
		}(gas)
	}

	if evm.StateDB.GetNonce(contractAddr) != 0 || evm.StateDB.GetCodeSize(contractAddr) != 0 {
		return nil, types.Address{}, 0, ErrContractAddressCollision
	}
	evm.StateDB.CreateAccount(contractAddr)
	evm.transfer(caller, contractAddr, value)

	snapshot := evm.StateDB.Snapshot()
	contract := evm.newContract(caller, contractAddr, value, gas, KindCreate)
	contract.SetCallCode(contractAddr, crypto.Keccak256Hash(code), code)

	ret, err = evm.enter(contract, nil)
	if err == nil {
		if contract.UseGas(uint64(len(ret)) * GasCreateData) {
			evm.StateDB.SetCode(contractAddr, ret)
		} else {
			err = ErrCodeStoreOutOfGas
		}
	}
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		if IsOutOfGas(err) {
			contract.Gas.Exhaust()
		}
		return ret, contractAddr, contract.Gas.Remaining(), err
	}
	return ret, contractAddr, contract.Gas.Remaining(), nil
}
