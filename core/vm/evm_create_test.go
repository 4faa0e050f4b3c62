package vm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

func TestCreateAddress(t *testing.T) {
	for _, nonce := range []uint64{0, 1, 127, 128, 1 << 20} {
		got := CreateAddress(originAddr, nonce)
		want := gethcrypto.CreateAddress(common.Address(originAddr), nonce)
		if !bytes.Equal(got[:], want[:]) {
			t.Fatalf("nonce %d: got %s, want %s", nonce, got, want.Hex())
		}
	}
}

// returnOneByte is init code that deploys the single byte 0x01.
const returnOneByte = "PUSH1 0x01 PUSH1 0x00 MSTORE8 PUSH1 0x01 PUSH1 0x00 RETURN"

func TestCreateDeploysCode(t *testing.T) {
	evm, db := newTestEVM(t)
	ret, addr, left, err := evm.Create(originAddr, mustAssemble(t, returnOneByte), 10000, nil)
	if err != nil {
		t.Fatal(err)
	}
	if addr != CreateAddress(originAddr, 0) {
		t.Fatalf("address = %s", addr)
	}
	if !bytes.Equal(ret, []byte{0x01}) || !bytes.Equal(db.GetCode(addr), []byte{0x01}) {
		t.Fatalf("ret = %x, code = %x", ret, db.GetCode(addr))
	}
	if left != 10000-18-GasCreateData {
		t.Fatalf("left = %d", left)
	}
	if db.GetNonce(originAddr) != 1 {
		t.Fatalf("sender nonce = %d, want 1", db.GetNonce(originAddr))
	}
}

func TestCreateCodeDepositOutOfGas(t *testing.T) {
	evm, db := newTestEVM(t)
	_, addr, left, err := evm.Create(originAddr, mustAssemble(t, returnOneByte), 100, nil)
	if !errors.Is(err, ErrCodeStoreOutOfGas) || left != 0 {
		t.Fatalf("err=%v left=%d", err, left)
	}
	if db.GetCodeSize(addr) != 0 {
		t.Fatal("code stored without paying for it")
	}
	if db.GetNonce(originAddr) != 1 {
		t.Fatal("sender nonce must be bumped even when creation fails")
	}
}

func TestCreateFailureKeepsEndowment(t *testing.T) {
	evm, db := newTestEVM(t)
	db.AddBalance(originAddr, uint256.NewInt(100))

	_, addr, left, err := evm.Create(originAddr, []byte{byte(PUSH1), 0x01, byte(PUSH1), 0x00, byte(SSTORE), 0xfe}, 50000, uint256.NewInt(30))
	if !errors.Is(err, ErrInvalidOpCode) {
		t.Fatalf("err = %v", err)
	}
	if left != 50000-6-GasSstoreSet {
		t.Fatalf("left = %d", left)
	}
	if db.GetBalance(addr).Uint64() != 30 || db.GetBalance(originAddr).Uint64() != 70 {
		t.Fatalf("balances = %v / %v", db.GetBalance(addr), db.GetBalance(originAddr))
	}
	if len(db.StorageKeys(addr)) != 0 {
		t.Fatal("init code storage survived its fault")
	}
}

func TestCreateCollision(t *testing.T) {
	evm, db := newTestEVM(t)
	db.SetCode(CreateAddress(originAddr, 0), []byte{0x01})

	_, _, left, err := evm.Create(originAddr, nil, 10000, nil)
	if !errors.Is(err, ErrContractAddressCollision) || left != 0 {
		t.Fatalf("err=%v left=%d", err, left)
	}
	if db.GetNonce(originAddr) != 1 {
		t.Fatal("sender nonce not bumped")
	}
}

func TestCreateOpcode(t *testing.T) {
	evm, db := newTestEVM(t)
	db.SetCode(contractAddr, mustAssemble(t, "PUSH1 0x00 PUSH1 0x00 PUSH1 0x00 CREATE PUSH1 0x00 SSTORE"))

	res, err := evm.Execute(Message{From: originAddr, To: &contractAddr, GasLimit: 100000})
	if err != nil || res.Failed() {
		t.Fatalf("err=%v res=%+v", err, res)
	}
	if got := wordToAddress(slot(db, contractAddr, 0)); got != CreateAddress(contractAddr, 0) {
		t.Fatalf("CREATE pushed %s", got)
	}
	if db.GetNonce(contractAddr) != 1 {
		t.Fatal("creator nonce not bumped")
	}
	// four pushes, CREATE and SSTORE; the empty init code returns all
	// forwarded gas.
	if res.UsedGas != 12+GasCreate+GasSstoreSet {
		t.Fatalf("gas used = %d", res.UsedGas)
	}
}

func TestExecuteCreation(t *testing.T) {
	evm, db := newTestEVM(t)
	res, err := evm.Execute(Message{From: originAddr, Data: mustAssemble(t, returnOneByte), GasLimit: 10000})
	if err != nil || res.Failed() {
		t.Fatalf("err=%v res=%+v", err, res)
	}
	if res.ContractAddress != CreateAddress(originAddr, 0) {
		t.Fatalf("contract address = %s", res.ContractAddress)
	}
	if !bytes.Equal(db.GetCode(res.ContractAddress), []byte{0x01}) {
		t.Fatal("code not deployed")
	}
	if res.UsedGas != 18+GasCreateData {
		t.Fatalf("gas used = %d", res.UsedGas)
	}
}

func TestCodeReplaceRefusedDuringInit(t *testing.T) {
	evm, db := newTestEVM(t)
	evm.Config.ScriptVersion = 1
	evm.scriptVersion = 1

	_, addr, left, err := evm.Create(originAddr, mustAssemble(t, "PUSH1 0x00 PUSH1 0x00 CODEREPLACE"), 50000, nil)
	if !errors.Is(err, ErrCodeReplaceInit) || left != 0 {
		t.Fatalf("err=%v left=%d", err, left)
	}
	if db.GetCodeSize(addr) != 0 {
		t.Fatal("code replaced during initialisation")
	}
}
