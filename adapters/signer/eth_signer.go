// Package signer implements the engine's signing capability over a raw
// secp256k1 private key.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/layer-3/clearport/ports"
)

// EthSigner signs payload digests and EIP-712 typed data with one private key.
type EthSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// New creates a signer from a parsed private key.
func New(key *ecdsa.PrivateKey) *EthSigner {
	return &EthSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// NewFromHex creates a signer from a hex private key, with or without the 0x prefix.
func NewFromHex(hexKey string) (*EthSigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return New(key), nil
}

// Address returns the address the signatures recover to.
func (s *EthSigner) Address() common.Address {
	return s.address
}

// SignDigest signs the keccak digest of the payload. The recovery id is
// shifted to the 27/28 convention the node expects.
func (s *EthSigner) SignDigest(payload []byte) (string, error) {
	digest := crypto.Keccak256(payload)

	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign digest: %w", err)
	}
	sig[64] += 27

	return hexutil.Encode(sig), nil
}

// SignTypedData hashes the typed data per EIP-712 and signs the result.
func (s *EthSigner) SignTypedData(data apitypes.TypedData) (string, error) {
	digest, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return "", fmt.Errorf("failed to hash typed data: %w", err)
	}

	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign typed data: %w", err)
	}
	sig[64] += 27

	return hexutil.Encode(sig), nil
}

var _ ports.Signer = (*EthSigner)(nil)
