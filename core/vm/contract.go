package vm

import (
	"github.com/holiman/uint256"
	"github.com/y0ke/rskj/core/types"
)

// CallKind distinguishes how a frame was entered. It decides which address
// owns storage, who appears as the caller and whether value moves.
type CallKind uint8

const (
	KindCall CallKind = iota
	KindCallCode
	KindDelegateCall
	KindStaticCall
	KindCreate
)

func (k CallKind) String() string {
	switch k {
	case KindCall:
		return "CALL"
	case KindCallCode:
		return "CALLCODE"
	case KindDelegateCall:
		return "DELEGATECALL"
	case KindStaticCall:
		return "STATICCALL"
	case KindCreate:
		return "CREATE"
	}
	return "UNKNOWN"
}

// Contract is the code-bearing half of a call frame: who is running which
// code, on whose storage, with what value and gas.
type Contract struct {
	CallerAddress types.Address
	Address       types.Address // storage owner, ADDRESS
	CodeAddress   types.Address // where Code was loaded from
	Code          []byte
	CodeHash      types.Hash
	Input         []byte
	Value         *uint256.Int
	Gas           GasMeter
	Kind          CallKind

	// ScriptVersion gates version-dependent instructions. Nested frames
	// inherit it from their parent.
	ScriptVersion uint8

	jumpdests []bool // lazily built JUMPDEST bitmap
}

// NewContract creates a contract frame for code running at addr.
func NewContract(caller, addr types.Address, value *uint256.Int, gas uint64) *Contract {
	if value == nil {
		value = new(uint256.Int)
	}
	return &Contract{
		CallerAddress: caller,
		Address:       addr,
		CodeAddress:   addr,
		Value:         value,
		Gas:           NewGasMeter(gas),
	}
}

// SetCallCode installs the code to run, loaded from codeAddr.
func (c *Contract) SetCallCode(codeAddr types.Address, hash types.Hash, code []byte) {
	c.Code = code
	c.CodeHash = hash
	c.CodeAddress = codeAddr
	c.jumpdests = nil
}

// GetOp returns the opcode at n. Reading past the end yields STOP.
func (c *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(c.Code)) {
		return OpCode(c.Code[n])
	}
	return STOP
}

// UseGas deducts gas and reports whether there was enough.
func (c *Contract) UseGas(gas uint64) bool {
	return c.Gas.Spend(gas) == nil
}

// validJumpdest reports whether dest is a JUMPDEST byte that is not part of
// a PUSH immediate.
func (c *Contract) validJumpdest(dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	if overflow || udest >= uint64(len(c.Code)) {
		return false
	}
	if OpCode(c.Code[udest]) != JUMPDEST {
		return false
	}
	if c.jumpdests == nil {
		c.jumpdests = analyzeJumpdests(c.Code)
	}
	return c.jumpdests[udest]
}

// analyzeJumpdests marks every JUMPDEST that is reachable as an
// instruction, skipping PUSH data.
func analyzeJumpdests(code []byte) []bool {
	dests := make([]bool, len(code))
	for i := 0; i < len(code); i++ {
		op := OpCode(code[i])
		if op == JUMPDEST {
			dests[i] = true
		}
		i += op.PushSize()
	}
	return dests
}
