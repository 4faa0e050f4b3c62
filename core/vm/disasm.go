package vm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Instruction is one decoded instruction of a code listing.
type Instruction struct {
	PC  uint64
	Op  OpCode
	Arg []byte // PUSH immediate, zero-padded when truncated by end of code
}

func (in Instruction) String() string {
	if in.Op.IsPush() {
		return fmt.Sprintf("%05d: %v %s", in.PC, in.Op, hexutil.Encode(in.Arg))
	}
	return fmt.Sprintf("%05d: %v", in.PC, in.Op)
}

// Disassemble decodes code into instructions. Unassigned bytes are listed
// under their raw value.
func Disassemble(code []byte) []Instruction {
	var out []Instruction
	for pc := uint64(0); pc < uint64(len(code)); pc++ {
		op := OpCode(code[pc])
		in := Instruction{PC: pc, Op: op}
		if n := uint64(op.PushSize()); n > 0 {
			start := min(uint64(len(code)), pc+1)
			end := min(uint64(len(code)), start+n)
			in.Arg = padRight(code[start:end], int(n))
			pc += n
		}
		out = append(out, in)
	}
	return out
}

var errMissingPushArg = errors.New("push without immediate")

// Assemble encodes a whitespace-separated mnemonic listing such as
// "PUSH1 0x05 PUSH1 0x03 ADD". PUSH immediates are hex and are
// left-padded to the width of the opcode.
func Assemble(src string) ([]byte, error) {
	var (
		code   []byte
		fields = strings.Fields(src)
	)
	for i := 0; i < len(fields); i++ {
		op, ok := StringToOp(strings.ToUpper(fields[i]))
		if !ok {
			return nil, fmt.Errorf("unknown mnemonic %q", fields[i])
		}
		code = append(code, byte(op))
		n := op.PushSize()
		if n == 0 {
			continue
		}
		if i+1 >= len(fields) {
			return nil, fmt.Errorf("%v: %w", op, errMissingPushArg)
		}
		i++
		arg := strings.TrimPrefix(strings.ToLower(fields[i]), "0x")
		if len(arg)%2 == 1 {
			arg = "0" + arg
		}
		b, err := hexutil.Decode("0x" + arg)
		if err != nil {
			return nil, fmt.Errorf("%v immediate %q: %w", op, fields[i], err)
		}
		if len(b) > n {
			return nil, fmt.Errorf("%v immediate %q wider than %d bytes", op, fields[i], n)
		}
		code = append(code, make([]byte, n-len(b))...)
		code = append(code, b...)
	}
	return code, nil
}
