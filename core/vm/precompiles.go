package vm

import (
	"crypto/sha256"
	"math/big"

	"github.com/y0ke/rskj/core/types"
	"github.com/y0ke/rskj/crypto"
	"golang.org/x/crypto/ripemd160"
)

// Precompiled contract prices: a base fee plus a fee per 32-byte word of
// input.
const (
	EcrecoverGas        uint64 = 3000
	Sha256BaseGas       uint64 = 60
	Sha256PerWordGas    uint64 = 12
	Ripemd160BaseGas    uint64 = 600
	Ripemd160PerWordGas uint64 = 120
	IdentityBaseGas     uint64 = 15
	IdentityPerWordGas  uint64 = 3
)

// PrecompiledContract is a native contract living at a fixed address.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// PrecompiledContracts is the builtin set at addresses 1 to 4.
var PrecompiledContracts = map[types.Address]PrecompiledContract{
	types.BytesToAddress([]byte{1}): &ecrecover{},
	types.BytesToAddress([]byte{2}): &sha256hash{},
	types.BytesToAddress([]byte{3}): &ripemd160hash{},
	types.BytesToAddress([]byte{4}): &dataCopy{},
}

// runPrecompile charges and runs p. When gas does not cover the price the
// call fails and the whole allowance is consumed.
func runPrecompile(p PrecompiledContract, input []byte, gas uint64) ([]byte, uint64, error) {
	gasCost := p.RequiredGas(input)
	if gas < gasCost {
		return nil, 0, ErrOutOfGas
	}
	output, err := p.Run(input)
	return output, gas - gasCost, err
}

func wordCount(n int) uint64 {
	return toWordSize(uint64(n))
}

// ecrecover returns the left-padded address that signed a hash, or empty
// output for any malformed signature.
type ecrecover struct{}

func (c *ecrecover) RequiredGas(input []byte) uint64 {
	return EcrecoverGas
}

func (c *ecrecover) Run(input []byte) ([]byte, error) {
	input = padRight(input, 128)

	hash := input[0:32]
	v := new(big.Int).SetBytes(input[32:64])
	r := new(big.Int).SetBytes(input[64:96])
	s := new(big.Int).SetBytes(input[96:128])

	if v.BitLen() > 8 {
		return nil, nil
	}
	vByte := byte(v.Uint64())
	if vByte != 27 && vByte != 28 {
		return nil, nil
	}
	if !crypto.ValidateSignatureValues(vByte-27, r, s, false) {
		return nil, nil
	}

	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[0:32])
	s.FillBytes(sig[32:64])
	sig[64] = vByte - 27

	pub, err := crypto.Ecrecover(hash, sig)
	if err != nil {
		return nil, nil
	}
	result := make([]byte, 32)
	copy(result[12:], crypto.Keccak256(pub[1:])[12:])
	return result, nil
}

type sha256hash struct{}

func (c *sha256hash) RequiredGas(input []byte) uint64 {
	return Sha256BaseGas + Sha256PerWordGas*wordCount(len(input))
}

func (c *sha256hash) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

type ripemd160hash struct{}

func (c *ripemd160hash) RequiredGas(input []byte) uint64 {
	return Ripemd160BaseGas + Ripemd160PerWordGas*wordCount(len(input))
}

// Run returns the 20-byte digest left-padded to 32 bytes.
func (c *ripemd160hash) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	result := make([]byte, 32)
	copy(result[12:], h.Sum(nil))
	return result, nil
}

// dataCopy is the identity function.
type dataCopy struct{}

func (c *dataCopy) RequiredGas(input []byte) uint64 {
	return IdentityBaseGas + IdentityPerWordGas*wordCount(len(input))
}

func (c *dataCopy) Run(input []byte) ([]byte, error) {
	return append([]byte(nil), input...), nil
}
