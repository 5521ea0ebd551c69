package ports

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer is the signing capability an identity supplies to the engine.
type Signer interface {
	// Address returns the address the signatures recover to
	Address() common.Address

	// SignDigest signs the keccak digest of an arbitrary payload and returns
	// the 65-byte signature hex-encoded
	SignDigest(payload []byte) (string, error)

	// SignTypedData produces a domain-scoped EIP-712 signature, hex-encoded
	SignTypedData(data apitypes.TypedData) (string, error)
}
