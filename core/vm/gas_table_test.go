package vm

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
)

func TestSstoreGas(t *testing.T) {
	key := types.Hash{}
	one := types.BytesToHash([]byte{1})
	tests := []struct {
		name     string
		stored   types.Hash
		src      string
		gas      uint64
		refund   uint64
		wantKeys int
	}{
		{"zero to non-zero", types.Hash{}, "PUSH1 0x01 PUSH1 0x00 SSTORE", 6 + GasSstoreSet, 0, 1},
		{"non-zero to non-zero", one, "PUSH1 0x02 PUSH1 0x00 SSTORE", 6 + GasSstoreReset, 0, 1},
		{"non-zero to zero", one, "PUSH1 0x00 PUSH1 0x00 SSTORE", 6 + GasSstoreClear, SstoreRefund, 0},
		{"zero to zero", types.Hash{}, "PUSH1 0x00 PUSH1 0x00 SSTORE", 6 + GasSstoreReset, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evm, db := newTestEVM(t)
			db.SetState(contractAddr, key, tt.stored)
			frame := runCode(t, evm, mustAssemble(t, tt.src), 100000)
			if frame.Err() != nil {
				t.Fatal(frame.Err())
			}
			if used := 100000 - frame.Contract.Gas.Remaining(); used != tt.gas {
				t.Fatalf("gas used = %d, want %d", used, tt.gas)
			}
			if db.GetRefund() != tt.refund {
				t.Fatalf("refund = %d, want %d", db.GetRefund(), tt.refund)
			}
			if n := len(db.StorageKeys(contractAddr)); n != tt.wantKeys {
				t.Fatalf("stored keys = %d, want %d", n, tt.wantKeys)
			}
		})
	}
}

func TestExpGas(t *testing.T) {
	evm, _ := newTestEVM(t)
	frame := runCode(t, evm, mustAssemble(t, "PUSH2 0x0100 PUSH1 0x02 EXP"), 1000)
	if frame.Err() != nil {
		t.Fatal(frame.Err())
	}
	if used := 1000 - frame.Contract.Gas.Remaining(); used != 6+GasExp+2*GasExpByte {
		t.Fatalf("gas used = %d", used)
	}
}

func TestCopyGas(t *testing.T) {
	evm, _ := newTestEVM(t)
	frame := runCode(t, evm, mustAssemble(t, "PUSH1 0x21 PUSH1 0x00 PUSH1 0x00 CALLDATACOPY"), 1000)
	if frame.Err() != nil {
		t.Fatal(frame.Err())
	}
	// three pushes, CALLDATACOPY 3, two words of memory, two words copied
	if used := 1000 - frame.Contract.Gas.Remaining(); used != 9+3+6+6 {
		t.Fatalf("gas used = %d", used)
	}
}

func TestLog(t *testing.T) {
	evm, db := newTestEVM(t)
	frame := runCode(t, evm, mustAssemble(t, "PUSH1 0x07 PUSH1 0x01 PUSH1 0x00 LOG1"), 1000)
	if frame.Err() != nil {
		t.Fatal(frame.Err())
	}
	if used := 1000 - frame.Contract.Gas.Remaining(); used != 9+GasLog+GasLogTopic+GasLogData+3 {
		t.Fatalf("gas used = %d", used)
	}
	logs := db.Logs()
	if len(logs) != 1 {
		t.Fatalf("logs = %d", len(logs))
	}
	l := logs[0]
	if l.Address != contractAddr || len(l.Topics) != 1 || l.Topics[0] != types.BytesToHash([]byte{7}) {
		t.Fatalf("log = %+v", l)
	}
	if len(l.Data) != 1 || l.Data[0] != 0 || l.BlockNumber != 100 {
		t.Fatalf("log data = %x block = %d", l.Data, l.BlockNumber)
	}
}

func TestLogHugeSizeIsOutOfGas(t *testing.T) {
	evm, _ := newTestEVM(t)
	frame := runCode(t, evm, mustAssemble(t, "PUSH8 0x4000000000000000 PUSH1 0x00 LOG0"), 100000)
	if !IsOutOfGas(frame.Err()) || frame.Contract.Gas.Remaining() != 0 {
		t.Fatalf("err=%v remaining=%d", frame.Err(), frame.Contract.Gas.Remaining())
	}
}

func TestSuicide(t *testing.T) {
	evm, db := newTestEVM(t)
	db.AddBalance(contractAddr, uint256.NewInt(50))
	code := mustAssemble(t, "PUSH20 "+calleeAddr.Hex()+" SUICIDE")

	frame := runCode(t, evm, code, 100000)
	if frame.Err() != nil {
		t.Fatal(frame.Err())
	}
	if used := 100000 - frame.Contract.Gas.Remaining(); used != 3+GasSuicideNewAccount {
		t.Fatalf("gas used = %d, want new-account surcharge", used)
	}
	if db.GetBalance(calleeAddr).Uint64() != 50 || !db.GetBalance(contractAddr).IsZero() {
		t.Fatal("balance not moved to the beneficiary")
	}
	if !db.HasSelfDestructed(contractAddr) {
		t.Fatal("account not scheduled for deletion")
	}

	// The beneficiary now exists and the refund is only paid once.
	frame = runCode(t, evm, code, 100000)
	if used := 100000 - frame.Contract.Gas.Remaining(); used != 3 {
		t.Fatalf("gas used = %d, want 3", used)
	}
	if db.GetRefund() != SuicideRefund {
		t.Fatalf("refund = %d, want %d", db.GetRefund(), SuicideRefund)
	}
}

func TestSuicideToSelfBurns(t *testing.T) {
	evm, db := newTestEVM(t)
	db.AddBalance(contractAddr, uint256.NewInt(50))
	frame := runCode(t, evm, mustAssemble(t, "ADDRESS SUICIDE"), 1000)
	if frame.Err() != nil {
		t.Fatal(frame.Err())
	}
	if !db.GetBalance(contractAddr).IsZero() {
		t.Fatalf("balance = %v, want burned", db.GetBalance(contractAddr))
	}
}

func TestCodeReplace(t *testing.T) {
	tests := []struct {
		name string
		size uint64
		gas  uint64
	}{
		// 13 bytes of code; a 1-byte replacement overwrites, a 32-byte one
		// overwrites 13 and adds 19.
		{"shrink", 1, 1 * GasReplaceData},
		{"grow", 32, 13*GasReplaceData + 19*GasCreateData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evm, db := newTestEVM(t)
			evm.Config.ScriptVersion = 1
			code := []byte{
				byte(PUSH1), 0x01, byte(PUSH1), 0x00, byte(MSTORE8),
				byte(PUSH1), byte(tt.size), byte(PUSH1), 0x00, byte(CODEREPLACE),
				byte(PUSH1), 0x00, byte(SSTORE),
			}
			db.SetCode(contractAddr, code)

			frame := runCode(t, evm, code, 100000)
			if frame.Err() != nil {
				t.Fatal(frame.Err())
			}
			want := 3 + 3 + 6 + 3 + 3 + GasCodeReplace + tt.gas + 3 + GasSstoreSet
			if used := 100000 - frame.Contract.Gas.Remaining(); used != want {
				t.Fatalf("gas used = %d, want %d", used, want)
			}
			stored := db.GetCode(contractAddr)
			if uint64(len(stored)) != tt.size || stored[0] != 0x01 {
				t.Fatalf("code = %x", stored)
			}
			if slot(db, contractAddr, 0).Uint64() != 1 {
				t.Fatal("CODEREPLACE did not push 1")
			}
		})
	}
}

func TestCodeReplaceWithoutStoredCode(t *testing.T) {
	evm, _ := newTestEVM(t)
	evm.Config.ScriptVersion = 1
	frame := runCode(t, evm, mustAssemble(t, "PUSH1 0x00 PUSH1 0x00 CODEREPLACE"), 100000)
	if !errors.Is(frame.Err(), ErrCodeReplaceInit) || frame.Contract.Gas.Remaining() != 0 {
		t.Fatalf("err=%v remaining=%d", frame.Err(), frame.Contract.Gas.Remaining())
	}
}
