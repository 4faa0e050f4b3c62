package vm

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/y0ke/rskj/log"
)

func TestStructLogTracer(t *testing.T) {
	evm, db := newTestEVM(t)
	tracer := NewStructLogTracer()
	evm.Config.Tracer = tracer
	db.SetCode(contractAddr, mustAssemble(t, "PUSH1 0x05 PUSH1 0x03 ADD PUSH1 0x00 MSTORE PUSH1 0x20 PUSH1 0x00 RETURN"))

	if _, _, err := evm.Call(originAddr, contractAddr, nil, 1000, nil); err != nil {
		t.Fatal(err)
	}
	if len(tracer.Logs) != 8 {
		t.Fatalf("%d steps, want 8", len(tracer.Logs))
	}
	add := tracer.Logs[2]
	if add.Op != ADD || add.Pc != 4 || add.GasCost != 3 || add.Depth != 1 || len(add.Stack) != 2 {
		t.Fatalf("ADD step = %+v", add)
	}
	if mstore := tracer.Logs[4]; mstore.GasCost != 6 || mstore.MemorySize != 0 {
		t.Fatalf("MSTORE step = %+v", mstore)
	}
	if tracer.GasUsed() != 24 || len(tracer.Output()) != 32 || tracer.Error() != nil {
		t.Fatalf("end: gas=%d out=%x err=%v", tracer.GasUsed(), tracer.Output(), tracer.Error())
	}
}

func TestStructLogTracerFault(t *testing.T) {
	evm, db := newTestEVM(t)
	tracer := NewStructLogTracer()
	evm.Config.Tracer = tracer
	db.SetCode(contractAddr, mustAssemble(t, "PUSH1 0x05 JUMP"))

	if _, _, err := evm.Call(originAddr, contractAddr, nil, 1000, nil); !errors.Is(err, ErrInvalidJump) {
		t.Fatalf("err = %v", err)
	}
	last := tracer.Logs[len(tracer.Logs)-1]
	if len(tracer.Logs) != 2 || last.Op != JUMP || !errors.Is(last.Err, ErrInvalidJump) {
		t.Fatalf("logs = %+v", tracer.Logs)
	}
	if !errors.Is(tracer.Error(), ErrInvalidJump) {
		t.Fatal("CaptureEnd did not see the fault")
	}
}

func TestDumpTracer(t *testing.T) {
	var buf bytes.Buffer
	evm, db := newTestEVM(t)
	evm.Config.Tracer = NewDumpTracer(log.NewWriter(&buf, slog.LevelDebug, false), true)
	db.SetCode(contractAddr, mustAssemble(t, "PUSH1 0x01 PUSH1 0x00 MSTORE"))

	if _, _, err := evm.Call(originAddr, contractAddr, nil, 1000, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"op=PUSH1", "op=MSTORE", "op=STOP", "stack=", "memory=", "gasUsed=12"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}
