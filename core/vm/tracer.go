package vm

import (
	"log/slog"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
	"github.com/y0ke/rskj/log"
)

// EVMLogger observes execution step by step. The engine calls it
// synchronously; implementations must not retain frame internals.
type EVMLogger interface {
	// CaptureStart is called when a top-level call or creation begins.
	CaptureStart(from, to types.Address, create bool, input []byte, gas uint64, value *uint256.Int)
	// CaptureState is called once per instruction after it has been
	// charged and before it executes.
	CaptureState(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error)
	// CaptureFault is called when an instruction halts its frame with a
	// fault.
	CaptureFault(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error)
	// CaptureEnd is called when the top-level call or creation returns.
	CaptureEnd(output []byte, gasUsed uint64, err error)
}

// StructLogEntry is a single step recorded by StructLogTracer.
type StructLogEntry struct {
	Pc         uint64
	Op         OpCode
	Gas        uint64
	GasCost    uint64
	Depth      int
	Stack      []uint256.Int
	MemorySize int
	Err        error
}

// StructLogTracer collects step-by-step execution logs.
type StructLogTracer struct {
	Logs    []StructLogEntry
	output  []byte
	err     error
	gasUsed uint64
}

// NewStructLogTracer returns a new StructLogTracer.
func NewStructLogTracer() *StructLogTracer {
	return &StructLogTracer{}
}

func (t *StructLogTracer) CaptureStart(from, to types.Address, create bool, input []byte, gas uint64, value *uint256.Int) {
}

// CaptureState records one step with a copy of the stack.
func (t *StructLogTracer) CaptureState(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error) {
	t.Logs = append(t.Logs, StructLogEntry{
		Pc:         pc,
		Op:         op,
		Gas:        gas,
		GasCost:    cost,
		Depth:      depth,
		Stack:      append([]uint256.Int(nil), frame.Stack.Data()...),
		MemorySize: frame.Memory.Len(),
		Err:        err,
	})
}

// CaptureFault attaches the fault to the step that raised it, or records
// a new step when the fault was raised before the step was captured.
func (t *StructLogTracer) CaptureFault(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error) {
	if n := len(t.Logs); n > 0 {
		last := &t.Logs[n-1]
		if last.Pc == pc && last.Depth == depth && last.Err == nil {
			last.Err = err
			return
		}
	}
	t.CaptureState(pc, op, gas, cost, frame, depth, err)
}

func (t *StructLogTracer) CaptureEnd(output []byte, gasUsed uint64, err error) {
	t.output = output
	t.gasUsed = gasUsed
	t.err = err
}

// Output returns the return data from the traced execution.
func (t *StructLogTracer) Output() []byte { return t.output }

// GasUsed returns the total gas consumed by the traced execution.
func (t *StructLogTracer) GasUsed() uint64 { return t.gasUsed }

// Error returns the error from the traced execution, if any.
func (t *StructLogTracer) Error() error { return t.err }

// DumpTracer writes one debug record per executed instruction to a
// logger. With Full set each record also carries the stack and memory.
type DumpTracer struct {
	Full   bool
	logger *log.Logger
}

// NewDumpTracer returns a DumpTracer writing to logger.
func NewDumpTracer(logger *log.Logger, full bool) *DumpTracer {
	return &DumpTracer{Full: full, logger: logger.Module("vmtrace")}
}

func (t *DumpTracer) CaptureStart(from, to types.Address, create bool, input []byte, gas uint64, value *uint256.Int) {
	t.logger.Debug("start", "from", from, "to", to, "create", create, "gas", gas, "value", value.Dec(), "input", hexutil.Encode(input))
}

func (t *DumpTracer) CaptureState(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error) {
	if !t.logger.Enabled(slog.LevelDebug) {
		return
	}
	args := []any{"address", frame.Contract.Address, "pc", pc, "op", op, "gas", gas, "cost", cost, "depth", depth}
	if t.Full {
		data := frame.Stack.Data()
		stack := make([]string, len(data))
		for i := range data {
			stack[i] = data[i].Hex()
		}
		args = append(args, "stack", stack, "memory", hexutil.Encode(frame.Memory.Data()))
	}
	t.logger.Debug("step", args...)
}

func (t *DumpTracer) CaptureFault(pc uint64, op OpCode, gas, cost uint64, frame *Frame, depth int, err error) {
	t.logger.Debug("fault", "address", frame.Contract.Address, "pc", pc, "op", op, "depth", depth, "err", err)
}

func (t *DumpTracer) CaptureEnd(output []byte, gasUsed uint64, err error) {
	t.logger.Debug("end", "output", hexutil.Encode(output), "gasUsed", gasUsed, "err", err)
}
