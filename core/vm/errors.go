package vm

import (
	"errors"
	"fmt"
)

// Bytecode faults. Each one halts the current frame only; the parent frame
// observes a failed call.
var (
	ErrOutOfGas                 = errors.New("out of gas")
	ErrStackOverflow            = errors.New("stack overflow")
	ErrStackUnderflow           = errors.New("stack underflow")
	ErrInvalidJump              = errors.New("invalid jump destination")
	ErrInvalidOpCode            = errors.New("invalid opcode")
	ErrWriteProtection          = errors.New("write protection")
	ErrDepth                    = errors.New("max call depth exceeded")
	ErrInsufficientBalance      = errors.New("insufficient balance for transfer")
	ErrContractAddressCollision = errors.New("contract address collision")

	// Out-of-gas class faults. errors.Is(err, ErrOutOfGas) holds for each.
	ErrMemoryLimitExceeded = fmt.Errorf("%w: memory limit exceeded", ErrOutOfGas)
	ErrCodeStoreOutOfGas   = fmt.Errorf("%w: contract creation code storage", ErrOutOfGas)
	ErrGasUintOverflow     = fmt.Errorf("%w: gas uint64 overflow", ErrOutOfGas)
	ErrCodeReplaceInit     = fmt.Errorf("%w: code replace during initialisation", ErrOutOfGas)

	// ErrInternal marks a failure of the engine itself rather than of the
	// executed bytecode.
	ErrInternal = errors.New("internal engine error")
)

// IsOutOfGas reports whether err forfeits the frame's remaining gas.
func IsOutOfGas(err error) bool {
	return errors.Is(err, ErrOutOfGas)
}

// InternalError is raised when an instruction panics. It is never turned
// into a failed call: it unwinds every frame and must abort processing of
// the enclosing block.
type InternalError struct {
	Op    OpCode
	PC    uint64
	Depth int
	Cause any
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%v: %v at pc=%d depth=%d: %v", ErrInternal, e.Op, e.PC, e.Depth, e.Cause)
}

func (e *InternalError) Unwrap() error { return ErrInternal }

// IsInternal reports whether err carries an engine failure.
func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

// invalidOpCodeError returns ErrInvalidOpCode annotated with the offending
// byte and position.
func invalidOpCodeError(op OpCode, pc uint64) error {
	return fmt.Errorf("%w: %v at pc=%d", ErrInvalidOpCode, op, pc)
}
