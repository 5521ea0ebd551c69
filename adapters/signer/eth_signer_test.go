package signer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/wire"
)

const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestNewFromHex(t *testing.T) {
	s, err := NewFromHex(testKey)
	require.NoError(t, err)
	assert.Equal(t, testAddress, s.Address().Hex())

	// Without the 0x prefix.
	s, err = NewFromHex(testKey[2:])
	require.NoError(t, err)
	assert.Equal(t, testAddress, s.Address().Hex())

	_, err = NewFromHex("not-a-key")
	require.Error(t, err)
}

func TestSignDigestRecovers(t *testing.T) {
	s, err := NewFromHex(testKey)
	require.NoError(t, err)

	payload := []byte(`[1,"get_channels",{"participant":"0xabc"},1]`)
	sigHex, err := s.SignDigest(payload)
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	require.GreaterOrEqual(t, sig[64], byte(27))

	sig[64] -= 27
	pub, err := crypto.SigToPub(crypto.Keccak256(payload), sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), crypto.PubkeyToAddress(*pub))
}

func TestSignTypedDataRecovers(t *testing.T) {
	s, err := NewFromHex(testKey)
	require.NoError(t, err)

	policy := core.AuthPolicy{
		Challenge:   "c1",
		Scope:       "app.create",
		Wallet:      testAddress,
		Application: testAddress,
		Participant: testAddress,
		Expire:      1700000000,
		Allowances:  []core.Allowance{},
	}
	typedData := wire.PolicyTypedData("clearport", policy)

	sigHex, err := s.SignTypedData(typedData)
	require.NoError(t, err)

	sig, err := hexutil.Decode(sigHex)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	digest, _, err := apitypes.TypedDataAndHash(typedData)
	require.NoError(t, err)

	sig[64] -= 27
	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), crypto.PubkeyToAddress(*pub))
}
