package vm

import (
	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
	"github.com/y0ke/rskj/log"
	"github.com/y0ke/rskj/metrics"
)

// GetHashFunc returns the hash of the block with the given number.
type GetHashFunc func(uint64) types.Hash

// BlockContext provides the engine with block-level information.
type BlockContext struct {
	GetHash     GetHashFunc
	Coinbase    types.Address
	BlockNumber uint64
	Time        uint64
	Difficulty  *uint256.Int
	GasLimit    uint64
}

// TxContext provides the engine with transaction-level information.
type TxContext struct {
	Origin   types.Address
	GasPrice *uint256.Int
}

// StateDB is the world state as seen by the engine. Every mutation must be
// journaled so that RevertToSnapshot can undo it; core/state.MemoryStateDB
// is the reference implementation.
type StateDB interface {
	CreateAccount(addr types.Address)
	GetBalance(addr types.Address) *uint256.Int
	AddBalance(addr types.Address, amount *uint256.Int)
	SubBalance(addr types.Address, amount *uint256.Int)
	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)
	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key types.Hash, value types.Hash)

	SelfDestruct(addr types.Address)
	HasSelfDestructed(addr types.Address) bool

	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	Snapshot() int
	RevertToSnapshot(id int)

	AddLog(log *types.Log)

	AddRefund(gas uint64)
	GetRefund() uint64
}

// Config holds engine configuration options.
type Config struct {
	Tracer        EVMLogger
	MaxCallDepth  int
	ScriptVersion uint8 // version of top-level frames
	Logger        *log.Logger
	Metrics       *metrics.Registry

	// Precompiles overrides the builtin contracts when non-nil.
	Precompiles map[types.Address]PrecompiledContract
}

// EVM executes contract code against a StateDB. An EVM is bound to one
// transaction and is not safe for concurrent use.
type EVM struct {
	Context   BlockContext
	TxContext TxContext
	Config    Config
	StateDB   StateDB

	jumpTable   *JumpTable
	precompiles map[types.Address]PrecompiledContract
	logger      *log.Logger
	stats       *engineMetrics

	depth         int
	readOnly      bool
	scriptVersion uint8

	// callGasTemp carries the callee allowance from a CALL-family gas
	// function to the instruction body.
	callGasTemp uint64

	stepCount uint64
}

// NewEVM returns an engine for one transaction.
func NewEVM(blockCtx BlockContext, txCtx TxContext, statedb StateDB, config Config) *EVM {
	if config.MaxCallDepth == 0 {
		config.MaxCallDepth = DefaultMaxCallDepth
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	precompiles := config.Precompiles
	if precompiles == nil {
		precompiles = PrecompiledContracts
	}
	return &EVM{
		Context:       blockCtx,
		TxContext:     txCtx,
		Config:        config,
		StateDB:       statedb,
		jumpTable:     &DefaultJumpTable,
		precompiles:   precompiles,
		logger:        logger.Module("vm"),
		stats:         newEngineMetrics(config.Metrics),
		scriptVersion: config.ScriptVersion,
	}
}

// precompile returns the precompiled contract at addr, if any.
func (evm *EVM) precompile(addr types.Address) (PrecompiledContract, bool) {
	p, ok := evm.precompiles[addr]
	return p, ok
}

// Depth returns the number of frames currently executing.
func (evm *EVM) Depth() int { return evm.depth }

// StepCount returns the number of instructions executed since the last
// reset, across all frames.
func (evm *EVM) StepCount() uint64 { return evm.stepCount }

// ResetStepCount zeroes the step counter.
func (evm *EVM) ResetStepCount() { evm.stepCount = 0 }

// Frame is the execution state of one contract invocation: program
// counter, stack, memory and the outcome once it halts.
type Frame struct {
	Contract *Contract
	Memory   *Memory
	Stack    *Stack

	pc      uint64
	stopped bool
	output  []byte
	err     error
}

// NewFrame prepares contract for execution with the given call data.
func NewFrame(contract *Contract, input []byte) *Frame {
	contract.Input = input
	return &Frame{
		Contract: contract,
		Memory:   NewMemory(),
		Stack:    NewStack(),
	}
}

// PC returns the program counter of the next instruction.
func (f *Frame) PC() uint64 { return f.pc }

// Stopped reports whether the frame has halted, normally or not.
func (f *Frame) Stopped() bool { return f.stopped }

// ReturnData returns the RETURN output of a frame that halted normally.
func (f *Frame) ReturnData() []byte { return f.output }

// Err returns the fault that halted the frame, or nil.
func (f *Frame) Err() error { return f.err }

// Run executes contract to completion and returns its output.
func (evm *EVM) Run(contract *Contract, input []byte) ([]byte, error) {
	frame := NewFrame(contract, input)
	if err := evm.Steps(frame, 0); err != nil {
		return nil, err
	}
	return frame.output, nil
}

// Steps executes up to maxSteps instructions of frame, or until it halts
// when maxSteps is zero. It returns the fault that halted the frame, if
// any; calling it on a stopped frame is a no-op that returns the same
// fault.
//
// Each step runs in a fixed order: opcode validity, stack bounds, static
// write check, constant gas, memory size, dynamic gas, memory growth and
// finally the instruction itself. A fault in any of these halts the frame;
// out-of-gas class faults forfeit all gas left to it.
func (evm *EVM) Steps(frame *Frame, maxSteps int) (err error) {
	if frame.stopped {
		return frame.err
	}
	var (
		contract = frame.Contract
		stack    = frame.Stack
		pc       = frame.pc
		op       OpCode
		gasCopy  uint64
		cost     uint64
	)
	prevVersion := evm.scriptVersion
	evm.scriptVersion = contract.ScriptVersion

	defer func() {
		evm.scriptVersion = prevVersion
		if r := recover(); r != nil {
			err = &InternalError{Op: op, PC: pc, Depth: evm.depth, Cause: r}
			evm.logger.Error("engine failure", "op", op, "pc", pc, "depth", evm.depth, "cause", r)
		}
		frame.pc = pc
		if err != nil {
			if IsOutOfGas(err) {
				contract.Gas.Exhaust()
			}
			frame.stopped, frame.output, frame.err = true, nil, err
			evm.stats.fault(err)
			if evm.Config.Tracer != nil {
				evm.Config.Tracer.CaptureFault(pc, op, gasCopy, cost, frame, evm.depth, err)
			}
		}
	}()

	for n := 0; maxSteps <= 0 || n < maxSteps; n++ {
		op = contract.GetOp(pc)
		operation := evm.jumpTable[op]
		gasCopy, cost = contract.Gas.Remaining(), 0

		if operation.undefined || operation.minVersion > contract.ScriptVersion {
			return invalidOpCodeError(op, pc)
		}
		if sLen := stack.Len(); sLen < operation.minStack {
			return ErrStackUnderflow
		} else if sLen > operation.maxStack {
			return ErrStackOverflow
		}
		if evm.readOnly && (operation.writes || (op == CALL && !stack.Back(2).IsZero())) {
			return ErrWriteProtection
		}
		if !contract.UseGas(operation.constantGas) {
			return ErrOutOfGas
		}

		var memorySize uint64
		if operation.memorySize != nil {
			memSize, overflow := operation.memorySize(stack)
			if overflow || memSize > MaxMemorySize {
				return ErrMemoryLimitExceeded
			}
			memorySize = toWordSize(memSize) * 32
		}
		if operation.dynamicGas != nil {
			dynamicCost, err := operation.dynamicGas(evm, frame, memorySize)
			if err != nil {
				return err
			}
			if !contract.UseGas(dynamicCost) {
				return ErrOutOfGas
			}
		}
		cost = gasCopy - contract.Gas.Remaining()

		if evm.Config.Tracer != nil {
			evm.Config.Tracer.CaptureState(pc, op, gasCopy, cost, frame, evm.depth, nil)
		}
		if memorySize > 0 {
			frame.Memory.Resize(memorySize)
		}

		res, err := operation.execute(&pc, evm, frame)
		evm.stepCount++
		evm.stats.step(op)
		if err != nil {
			return err
		}
		if operation.halts {
			frame.stopped, frame.output = true, res
			return nil
		}
		if !operation.jumps {
			pc++
		}
	}
	return nil
}
