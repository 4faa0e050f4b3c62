package vm

import "testing"

func TestOpCodeNames(t *testing.T) {
	for op, want := range map[OpCode]string{
		SHA3: "SHA3", SUICIDE: "SUICIDE", DIFFICULTY: "DIFFICULTY",
		CODEREPLACE: "CODEREPLACE", HEADER: "HEADER", PUSH32: "PUSH32",
		OpCode(0xfe): "opcode 0xfe",
	} {
		if got := op.String(); got != want {
			t.Errorf("%#x: got %q, want %q", byte(op), got, want)
		}
	}
}

func TestStringToOpRoundTrip(t *testing.T) {
	for op, name := range opCodeNames {
		got, ok := StringToOp(name)
		if !ok || got != op {
			t.Errorf("StringToOp(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := StringToOp("PUSH0"); ok {
		t.Error("PUSH0 is not part of the instruction set")
	}
}

func TestPushSize(t *testing.T) {
	if PUSH1.PushSize() != 1 || PUSH32.PushSize() != 32 || ADD.PushSize() != 0 {
		t.Fatal("PushSize")
	}
	if !PUSH16.IsPush() || JUMPDEST.IsPush() {
		t.Fatal("IsPush")
	}
}
