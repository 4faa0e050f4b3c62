package vm

import "fmt"

// OpCode is a single bytecode instruction byte.
type OpCode byte

const (
	STOP       OpCode = 0x00
	ADD        OpCode = 0x01
	MUL        OpCode = 0x02
	SUB        OpCode = 0x03
	DIV        OpCode = 0x04
	SDIV       OpCode = 0x05
	MOD        OpCode = 0x06
	SMOD       OpCode = 0x07
	ADDMOD     OpCode = 0x08
	MULMOD     OpCode = 0x09
	EXP        OpCode = 0x0a
	SIGNEXTEND OpCode = 0x0b

	LT     OpCode = 0x10
	GT     OpCode = 0x11
	SLT    OpCode = 0x12
	SGT    OpCode = 0x13
	EQ     OpCode = 0x14
	ISZERO OpCode = 0x15
	AND    OpCode = 0x16
	OR     OpCode = 0x17
	XOR    OpCode = 0x18
	NOT    OpCode = 0x19
	BYTE   OpCode = 0x1a

	SHA3 OpCode = 0x20

	ADDRESS      OpCode = 0x30
	BALANCE      OpCode = 0x31
	ORIGIN       OpCode = 0x32
	CALLER       OpCode = 0x33
	CALLVALUE    OpCode = 0x34
	CALLDATALOAD OpCode = 0x35
	CALLDATASIZE OpCode = 0x36
	CALLDATACOPY OpCode = 0x37
	CODESIZE     OpCode = 0x38
	CODECOPY     OpCode = 0x39
	GASPRICE     OpCode = 0x3a
	EXTCODESIZE  OpCode = 0x3b
	EXTCODECOPY  OpCode = 0x3c

	BLOCKHASH  OpCode = 0x40
	COINBASE   OpCode = 0x41
	TIMESTAMP  OpCode = 0x42
	NUMBER     OpCode = 0x43
	DIFFICULTY OpCode = 0x44
	GASLIMIT   OpCode = 0x45

	POP      OpCode = 0x50
	MLOAD    OpCode = 0x51
	MSTORE   OpCode = 0x52
	MSTORE8  OpCode = 0x53
	SLOAD    OpCode = 0x54
	SSTORE   OpCode = 0x55
	JUMP     OpCode = 0x56
	JUMPI    OpCode = 0x57
	PC       OpCode = 0x58
	MSIZE    OpCode = 0x59
	GAS      OpCode = 0x5a
	JUMPDEST OpCode = 0x5b

	PUSH1  OpCode = 0x60
	PUSH2  OpCode = 0x61
	PUSH3  OpCode = 0x62
	PUSH4  OpCode = 0x63
	PUSH5  OpCode = 0x64
	PUSH6  OpCode = 0x65
	PUSH7  OpCode = 0x66
	PUSH8  OpCode = 0x67
	PUSH9  OpCode = 0x68
	PUSH10 OpCode = 0x69
	PUSH11 OpCode = 0x6a
	PUSH12 OpCode = 0x6b
	PUSH13 OpCode = 0x6c
	PUSH14 OpCode = 0x6d
	PUSH15 OpCode = 0x6e
	PUSH16 OpCode = 0x6f
	PUSH17 OpCode = 0x70
	PUSH18 OpCode = 0x71
	PUSH19 OpCode = 0x72
	PUSH20 OpCode = 0x73
	PUSH21 OpCode = 0x74
	PUSH22 OpCode = 0x75
	PUSH23 OpCode = 0x76
	PUSH24 OpCode = 0x77
	PUSH25 OpCode = 0x78
	PUSH26 OpCode = 0x79
	PUSH27 OpCode = 0x7a
	PUSH28 OpCode = 0x7b
	PUSH29 OpCode = 0x7c
	PUSH30 OpCode = 0x7d
	PUSH31 OpCode = 0x7e
	PUSH32 OpCode = 0x7f

	DUP1  OpCode = 0x80
	DUP2  OpCode = 0x81
	DUP3  OpCode = 0x82
	DUP4  OpCode = 0x83
	DUP5  OpCode = 0x84
	DUP6  OpCode = 0x85
	DUP7  OpCode = 0x86
	DUP8  OpCode = 0x87
	DUP9  OpCode = 0x88
	DUP10 OpCode = 0x89
	DUP11 OpCode = 0x8a
	DUP12 OpCode = 0x8b
	DUP13 OpCode = 0x8c
	DUP14 OpCode = 0x8d
	DUP15 OpCode = 0x8e
	DUP16 OpCode = 0x8f

	SWAP1  OpCode = 0x90
	SWAP2  OpCode = 0x91
	SWAP3  OpCode = 0x92
	SWAP4  OpCode = 0x93
	SWAP5  OpCode = 0x94
	SWAP6  OpCode = 0x95
	SWAP7  OpCode = 0x96
	SWAP8  OpCode = 0x97
	SWAP9  OpCode = 0x98
	SWAP10 OpCode = 0x99
	SWAP11 OpCode = 0x9a
	SWAP12 OpCode = 0x9b
	SWAP13 OpCode = 0x9c
	SWAP14 OpCode = 0x9d
	SWAP15 OpCode = 0x9e
	SWAP16 OpCode = 0x9f

	LOG0 OpCode = 0xa0
	LOG1 OpCode = 0xa1
	LOG2 OpCode = 0xa2
	LOG3 OpCode = 0xa3
	LOG4 OpCode = 0xa4

	// Chain-specific instructions.
	CODEREPLACE OpCode = 0xa8
	HEADER      OpCode = 0xa9 // reserved, never executable

	CREATE       OpCode = 0xf0
	CALL         OpCode = 0xf1
	CALLCODE     OpCode = 0xf2
	RETURN       OpCode = 0xf3
	DELEGATECALL OpCode = 0xf4
	STATICCALL   OpCode = 0xfa
	SUICIDE      OpCode = 0xff
)

var opCodeNames = func() map[OpCode]string {
	m := map[OpCode]string{
		STOP:       "STOP",
		ADD:        "ADD",
		MUL:        "MUL",
		SUB:        "SUB",
		DIV:        "DIV",
		SDIV:       "SDIV",
		MOD:        "MOD",
		SMOD:       "SMOD",
		ADDMOD:     "ADDMOD",
		MULMOD:     "MULMOD",
		EXP:        "EXP",
		SIGNEXTEND: "SIGNEXTEND",

		LT:     "LT",
		GT:     "GT",
		SLT:    "SLT",
		SGT:    "SGT",
		EQ:     "EQ",
		ISZERO: "ISZERO",
		AND:    "AND",
		OR:     "OR",
		XOR:    "XOR",
		NOT:    "NOT",
		BYTE:   "BYTE",
		SHA3:   "SHA3",

		ADDRESS:      "ADDRESS",
		BALANCE:      "BALANCE",
		ORIGIN:       "ORIGIN",
		CALLER:       "CALLER",
		CALLVALUE:    "CALLVALUE",
		CALLDATALOAD: "CALLDATALOAD",
		CALLDATASIZE: "CALLDATASIZE",
		CALLDATACOPY: "CALLDATACOPY",
		CODESIZE:     "CODESIZE",
		CODECOPY:     "CODECOPY",
		GASPRICE:     "GASPRICE",
		EXTCODESIZE:  "EXTCODESIZE",
		EXTCODECOPY:  "EXTCODECOPY",

		BLOCKHASH:  "BLOCKHASH",
		COINBASE:   "COINBASE",
		TIMESTAMP:  "TIMESTAMP",
		NUMBER:     "NUMBER",
		DIFFICULTY: "DIFFICULTY",
		GASLIMIT:   "GASLIMIT",

		POP:      "POP",
		MLOAD:    "MLOAD",
		MSTORE:   "MSTORE",
		MSTORE8:  "MSTORE8",
		SLOAD:    "SLOAD",
		SSTORE:   "SSTORE",
		JUMP:     "JUMP",
		JUMPI:    "JUMPI",
		PC:       "PC",
		MSIZE:    "MSIZE",
		GAS:      "GAS",
		JUMPDEST: "JUMPDEST",

		CODEREPLACE: "CODEREPLACE",
		HEADER:      "HEADER",

		CREATE:       "CREATE",
		CALL:         "CALL",
		CALLCODE:     "CALLCODE",
		RETURN:       "RETURN",
		DELEGATECALL: "DELEGATECALL",
		STATICCALL:   "STATICCALL",
		SUICIDE:      "SUICIDE",
	}
	for i := 0; i < 32; i++ {
		m[PUSH1+OpCode(i)] = fmt.Sprintf("PUSH%d", i+1)
	}
	for i := 0; i < 16; i++ {
		m[DUP1+OpCode(i)] = fmt.Sprintf("DUP%d", i+1)
		m[SWAP1+OpCode(i)] = fmt.Sprintf("SWAP%d", i+1)
	}
	for i := 0; i <= 4; i++ {
		m[LOG0+OpCode(i)] = fmt.Sprintf("LOG%d", i)
	}
	return m
}()

var stringToOp = func() map[string]OpCode {
	m := make(map[string]OpCode, len(opCodeNames))
	for op, name := range opCodeNames {
		m[name] = op
	}
	return m
}()

// String returns the mnemonic of the opcode.
func (op OpCode) String() string {
	if name, ok := opCodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("opcode 0x%x", byte(op))
}

// StringToOp returns the opcode for a mnemonic such as "PUSH1".
func StringToOp(name string) (OpCode, bool) {
	op, ok := stringToOp[name]
	return op, ok
}

// IsPush reports whether op is one of PUSH1..PUSH32.
func (op OpCode) IsPush() bool {
	return op >= PUSH1 && op <= PUSH32
}

// PushSize returns the immediate length of a PUSH opcode, or 0.
func (op OpCode) PushSize() int {
	if !op.IsPush() {
		return 0
	}
	return int(op-PUSH1) + 1
}
