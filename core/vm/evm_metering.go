package vm

import (
	"errors"

	"github.com/y0ke/rskj/metrics"
)

// OpCategory classifies opcodes for execution profiling.
type OpCategory uint8

const (
	CategoryCompute OpCategory = iota // arithmetic, comparison, bitwise, SHA3
	CategoryStorage                   // SLOAD, SSTORE, CODEREPLACE
	CategoryCall                      // CALL family, CREATE, SUICIDE
	CategoryMemory                    // MLOAD, MSTORE, MSTORE8, MSIZE, copies
	CategorySystem                    // environment, block info, flow, logs
	numCategories
)

var categoryNames = [numCategories]string{
	CategoryCompute: "compute",
	CategoryStorage: "storage",
	CategoryCall:    "call",
	CategoryMemory:  "memory",
	CategorySystem:  "system",
}

func (c OpCategory) String() string {
	if c < numCategories {
		return categoryNames[c]
	}
	return "unknown"
}

// ClassifyOpCode returns the profiling category of op.
func ClassifyOpCode(op OpCode) OpCategory {
	switch {
	case op >= ADD && op <= SIGNEXTEND, op >= LT && op <= BYTE, op == SHA3:
		return CategoryCompute
	case op == SLOAD, op == SSTORE, op == CODEREPLACE:
		return CategoryStorage
	case op == CREATE, op == CALL, op == CALLCODE, op == DELEGATECALL, op == STATICCALL, op == SUICIDE:
		return CategoryCall
	case op == MLOAD, op == MSTORE, op == MSTORE8, op == MSIZE,
		op == CALLDATACOPY, op == CODECOPY, op == EXTCODECOPY:
		return CategoryMemory
	}
	return CategorySystem
}

// engineMetrics holds the registry handles the dispatch loop updates. A nil
// *engineMetrics records nothing.
type engineMetrics struct {
	registry *metrics.Registry

	steps      *metrics.Counter
	categories [numCategories]*metrics.Counter
	calls      *metrics.Counter
	creates    *metrics.Counter
	gasUsed    *metrics.Histogram
	maxDepth   *metrics.Gauge
}

func newEngineMetrics(r *metrics.Registry) *engineMetrics {
	if r == nil {
		return nil
	}
	m := &engineMetrics{
		registry: r,
		steps:    r.Counter("vm/steps"),
		calls:    r.Counter("vm/calls"),
		creates:  r.Counter("vm/creates"),
		gasUsed:  r.Histogram("vm/gas_used"),
		maxDepth: r.Gauge("vm/max_depth"),
	}
	for c := OpCategory(0); c < numCategories; c++ {
		m.categories[c] = r.Counter("vm/steps/" + c.String())
	}
	return m
}

func (m *engineMetrics) step(op OpCode) {
	if m == nil {
		return
	}
	m.steps.Inc()
	m.categories[ClassifyOpCode(op)].Inc()
}

func (m *engineMetrics) call(depth int) {
	if m == nil {
		return
	}
	m.calls.Inc()
	m.maxDepth.SetMax(int64(depth))
}

func (m *engineMetrics) create(depth int) {
	if m == nil {
		return
	}
	m.creates.Inc()
	m.maxDepth.SetMax(int64(depth))
}

func (m *engineMetrics) fault(err error) {
	if m == nil {
		return
	}
	m.registry.Counter("vm/faults/" + faultKind(err)).Inc()
}

func (m *engineMetrics) execution(gasUsed uint64) {
	if m == nil {
		return
	}
	m.gasUsed.Observe(float64(gasUsed))
}

// faultKind names the class of a frame fault for metrics.
func faultKind(err error) string {
	switch {
	case IsInternal(err):
		return "internal"
	case IsOutOfGas(err):
		return "out_of_gas"
	case errors.Is(err, ErrStackUnderflow):
		return "stack_underflow"
	case errors.Is(err, ErrStackOverflow):
		return "stack_overflow"
	case errors.Is(err, ErrInvalidJump):
		return "bad_jump"
	case errors.Is(err, ErrInvalidOpCode):
		return "bad_opcode"
	case errors.Is(err, ErrWriteProtection):
		return "write_protection"
	case errors.Is(err, ErrDepth):
		return "depth"
	case errors.Is(err, ErrInsufficientBalance):
		return "balance"
	case errors.Is(err, ErrContractAddressCollision):
		return "collision"
	}
	return "other"
}
