package crypto

import (
	"crypto/ecdsa"
	"errors"
	"math/big"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/y0ke/rskj/core/types"
)

// SignatureLength is the [R || S || V] signature size.
const SignatureLength = 65

var (
	errHashLength = errors.New("hash must be 32 bytes")
	errSigLength  = errors.New("signature must be 65 bytes [R || S || V]")
)

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return gethcrypto.GenerateKey()
}

// Sign produces a recoverable [R || S || V] signature with V in {0, 1}.
func Sign(hash []byte, prv *ecdsa.PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errHashLength
	}
	return gethcrypto.Sign(hash, prv)
}

// Ecrecover returns the 65-byte uncompressed public key that produced sig.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errHashLength
	}
	if len(sig) != SignatureLength {
		return nil, errSigLength
	}
	return gethcrypto.Ecrecover(hash, sig)
}

// ValidateSignatureValues checks r, s and the recovery id v. With homestead
// set, s must lie in the lower half of the curve order.
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r == nil || s == nil {
		return false
	}
	return gethcrypto.ValidateSignatureValues(v, r, s, homestead)
}

// PubkeyToAddress derives the account address: Keccak256(pubkey[1:])[12:].
func PubkeyToAddress(p ecdsa.PublicKey) types.Address {
	pub := gethcrypto.FromECDSAPub(&p)
	if pub == nil {
		return types.Address{}
	}
	return types.BytesToAddress(Keccak256(pub[1:])[12:])
}
