package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
)

var (
	maxWord = new(uint256.Int).SetAllOne()
	minWord = new(uint256.Int).Lsh(uint256.NewInt(1), 255) // most negative signed word
)

func neg(x uint64) *uint256.Int {
	return new(uint256.Int).Neg(uint256.NewInt(x))
}

// execOp runs a single instruction body on a fresh frame. args[0] ends up
// on top of the stack.
func execOp(t *testing.T, op OpCode, args ...*uint256.Int) *uint256.Int {
	t.Helper()
	evm, _ := newTestEVM(t)
	frame := NewFrame(NewContract(originAddr, contractAddr, nil, 0), nil)
	for i := len(args) - 1; i >= 0; i-- {
		frame.Stack.push(args[i])
	}
	pc := uint64(0)
	if _, err := evm.jumpTable[op].execute(&pc, evm, frame); err != nil {
		t.Fatalf("%v: %v", op, err)
	}
	if frame.Stack.Len() != 1 {
		t.Fatalf("%v left %d words", op, frame.Stack.Len())
	}
	return frame.Stack.Peek()
}

func TestArithmetic(t *testing.T) {
	n := uint256.NewInt
	tests := []struct {
		name string
		op   OpCode
		args []*uint256.Int
		want *uint256.Int
	}{
		{"add wraps", ADD, []*uint256.Int{maxWord, n(1)}, n(0)},
		{"sub wraps", SUB, []*uint256.Int{n(0), n(1)}, maxWord},
		{"mul wraps", MUL, []*uint256.Int{minWord, n(2)}, n(0)},
		{"div", DIV, []*uint256.Int{n(7), n(2)}, n(3)},
		{"div by zero", DIV, []*uint256.Int{n(7), n(0)}, n(0)},
		{"sdiv", SDIV, []*uint256.Int{neg(8), n(3)}, neg(2)},
		{"sdiv min by -1", SDIV, []*uint256.Int{minWord, maxWord}, minWord},
		{"sdiv by zero", SDIV, []*uint256.Int{neg(8), n(0)}, n(0)},
		{"mod", MOD, []*uint256.Int{n(7), n(3)}, n(1)},
		{"mod by zero", MOD, []*uint256.Int{n(7), n(0)}, n(0)},
		{"smod keeps dividend sign", SMOD, []*uint256.Int{neg(8), n(3)}, neg(2)},
		{"smod by zero", SMOD, []*uint256.Int{neg(8), n(0)}, n(0)},
		{"addmod wide", ADDMOD, []*uint256.Int{maxWord, maxWord, n(7)}, n(2)},
		{"addmod zero modulus", ADDMOD, []*uint256.Int{n(1), n(2), n(0)}, n(0)},
		{"mulmod wide", MULMOD, []*uint256.Int{maxWord, maxWord, n(12)}, n(9)},
		{"mulmod zero modulus", MULMOD, []*uint256.Int{n(3), n(4), n(0)}, n(0)},
		{"exp", EXP, []*uint256.Int{n(3), n(4)}, n(81)},
		{"exp wraps", EXP, []*uint256.Int{n(2), n(256)}, n(0)},
		{"signextend negative byte", SIGNEXTEND, []*uint256.Int{n(0), n(0xff)}, maxWord},
		{"signextend positive byte", SIGNEXTEND, []*uint256.Int{n(0), n(0x7f)}, n(0x7f)},
		{"signextend past width", SIGNEXTEND, []*uint256.Int{n(31), n(0x80)}, n(0x80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := execOp(t, tt.op, tt.args...); !got.Eq(tt.want) {
				t.Fatalf("%v = %s, want %s", tt.op, got.Hex(), tt.want.Hex())
			}
		})
	}
}

func TestComparisonAndBitwise(t *testing.T) {
	n := uint256.NewInt
	tests := []struct {
		name string
		op   OpCode
		args []*uint256.Int
		want uint64
	}{
		{"lt", LT, []*uint256.Int{n(1), n(2)}, 1},
		{"lt unsigned", LT, []*uint256.Int{maxWord, n(0)}, 0},
		{"gt unsigned", GT, []*uint256.Int{maxWord, n(0)}, 1},
		{"slt signed", SLT, []*uint256.Int{maxWord, n(0)}, 1},
		{"sgt signed", SGT, []*uint256.Int{n(0), maxWord}, 1},
		{"eq", EQ, []*uint256.Int{n(5), n(5)}, 1},
		{"iszero", ISZERO, []*uint256.Int{n(0)}, 1},
		{"iszero nonzero", ISZERO, []*uint256.Int{n(3)}, 0},
		{"and", AND, []*uint256.Int{n(0b1100), n(0b1010)}, 0b1000},
		{"or", OR, []*uint256.Int{n(0b1100), n(0b1010)}, 0b1110},
		{"xor", XOR, []*uint256.Int{n(0b1100), n(0b1010)}, 0b0110},
		{"byte lowest", BYTE, []*uint256.Int{n(31), n(0xabff)}, 0xff},
		{"byte highest", BYTE, []*uint256.Int{n(0), n(0xff)}, 0},
		{"byte out of range", BYTE, []*uint256.Int{n(32), maxWord}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := execOp(t, tt.op, tt.args...)
			if !got.IsUint64() || got.Uint64() != tt.want {
				t.Fatalf("%v = %s, want %d", tt.op, got.Hex(), tt.want)
			}
		})
	}
	if got := execOp(t, NOT, uint256.NewInt(0)); !got.Eq(maxWord) {
		t.Fatalf("NOT 0 = %s", got.Hex())
	}
}

func TestPushTruncatedByEndOfCode(t *testing.T) {
	evm, _ := newTestEVM(t)
	frame := runCode(t, evm, []byte{byte(PUSH2), 0x01}, 100)
	if frame.Err() != nil {
		t.Fatal(frame.Err())
	}
	if got := frame.Stack.Peek().Uint64(); got != 0x0100 {
		t.Fatalf("PUSH2 01 = %#x, want 0x100", got)
	}
}

func TestJumpi(t *testing.T) {
	evm, _ := newTestEVM(t)
	// Jumps over the INVALID byte only when the condition holds.
	code := []byte{byte(PUSH1), 0x01, byte(PUSH1), 0x06, byte(JUMPI), 0xfe, byte(JUMPDEST), byte(PUSH1), 0x2a}
	frame := runCode(t, evm, code, 100)
	if frame.Err() != nil || frame.Stack.Peek().Uint64() != 0x2a {
		t.Fatalf("taken jump: err=%v", frame.Err())
	}
	code[1] = 0x00
	frame = runCode(t, evm, code, 100)
	if frame.Err() == nil {
		t.Fatal("fall-through should hit the invalid byte")
	}
}

func TestCallDataLoadPadsAndOverflows(t *testing.T) {
	evm, _ := newTestEVM(t)
	contract := NewContract(originAddr, contractAddr, nil, 1000)
	contract.SetCallCode(contractAddr, types.Hash{}, mustAssemble(t,
		"PUSH1 0x01 CALLDATALOAD PUSH32 0x0100000000000000000000000000000000000000000000000000000000000000 CALLDATALOAD CALLDATASIZE"))
	frame := NewFrame(contract, []byte{0x01, 0x02})
	if err := evm.Steps(frame, 0); err != nil {
		t.Fatal(err)
	}
	if frame.Stack.Peek().Uint64() != 2 {
		t.Fatal("CALLDATASIZE")
	}
	if !frame.Stack.Back(1).IsZero() {
		t.Fatal("huge offset should read zero")
	}
	want := new(uint256.Int).SetBytes(padRight([]byte{0x02}, 32))
	if !frame.Stack.Back(2).Eq(want) {
		t.Fatalf("CALLDATALOAD 1 = %s, want zero-padded 0x02", frame.Stack.Back(2).Hex())
	}
}

func TestEnvironment(t *testing.T) {
	evm, db := newTestEVM(t)
	db.AddBalance(calleeAddr, uint256.NewInt(77))
	db.SetCode(calleeAddr, []byte{1, 2, 3})
	tests := []struct {
		name string
		src  string
		want *uint256.Int
	}{
		{"address", "ADDRESS", addressToWord(contractAddr)},
		{"origin", "ORIGIN", addressToWord(originAddr)},
		{"caller", "CALLER", addressToWord(originAddr)},
		{"gasprice", "GASPRICE", uint256.NewInt(1)},
		{"coinbase", "COINBASE", addressToWord(evm.Context.Coinbase)},
		{"number", "NUMBER", uint256.NewInt(100)},
		{"timestamp", "TIMESTAMP", uint256.NewInt(1_600_000_000)},
		{"difficulty", "DIFFICULTY", uint256.NewInt(131072)},
		{"gaslimit", "GASLIMIT", uint256.NewInt(6_800_000)},
		{"balance", "PUSH20 " + calleeAddr.Hex() + " BALANCE", uint256.NewInt(77)},
		{"extcodesize", "PUSH20 " + calleeAddr.Hex() + " EXTCODESIZE", uint256.NewInt(3)},
		{"codesize", "CODESIZE", uint256.NewInt(1)},
		{"pc", "PUSH1 0x00 POP PC", uint256.NewInt(3)},
		{"blockhash recent", "PUSH1 0x63 BLOCKHASH", hashToWord(types.BytesToHash([]byte{0xbb, 99}))},
		{"blockhash current", "PUSH1 0x64 BLOCKHASH", uint256.NewInt(0)},
		{"blockhash genesis in window", "PUSH1 0x00 BLOCKHASH", hashToWord(types.BytesToHash([]byte{0xbb, 0}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := runCode(t, evm, mustAssemble(t, tt.src), 1000)
			if frame.Err() != nil {
				t.Fatal(frame.Err())
			}
			if got := frame.Stack.Peek(); !got.Eq(tt.want) {
				t.Fatalf("got %s, want %s", got.Hex(), tt.want.Hex())
			}
		})
	}
}

func TestCopyInstructions(t *testing.T) {
	evm, db := newTestEVM(t)
	db.SetCode(calleeAddr, []byte{0xaa, 0xbb})
	code := mustAssemble(t, "PUSH1 0x04 PUSH1 0x00 PUSH1 0x00 PUSH20 "+calleeAddr.Hex()+
		" EXTCODECOPY PUSH1 0x00 MLOAD")
	frame := runCode(t, evm, code, 1000)
	if frame.Err() != nil {
		t.Fatal(frame.Err())
	}
	want := new(uint256.Int).SetBytes(padRight([]byte{0xaa, 0xbb}, 32))
	if !frame.Stack.Peek().Eq(want) {
		t.Fatalf("EXTCODECOPY word = %s", frame.Stack.Peek().Hex())
	}

	code = mustAssemble(t, "PUSH1 0x02 PUSH1 0x00 PUSH1 0x00 CODECOPY PUSH1 0x00 MLOAD")
	frame = runCode(t, evm, code, 1000)
	want = new(uint256.Int).SetBytes(padRight(code[:2], 32))
	if frame.Err() != nil || !frame.Stack.Peek().Eq(want) {
		t.Fatalf("CODECOPY word = %s err=%v", frame.Stack.Peek().Hex(), frame.Err())
	}
}
