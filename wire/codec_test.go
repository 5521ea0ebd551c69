package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/clearport/core"
)

func TestRequestEnvelope(t *testing.T) {
	req := NewRequest(MethodGetChannels, map[string]string{"participant": "0xabc"})

	env, err := req.Envelope("0xsig")
	require.NoError(t, err)

	var decoded struct {
		Req []json.RawMessage `json:"req"`
		Sig []string          `json:"sig"`
	}
	require.NoError(t, json.Unmarshal(env, &decoded))
	require.Len(t, decoded.Req, 4)
	assert.Equal(t, []string{"0xsig"}, decoded.Sig)

	var method string
	require.NoError(t, json.Unmarshal(decoded.Req[1], &method))
	assert.Equal(t, MethodGetChannels, method)
}

func TestRequestBodyIsStable(t *testing.T) {
	req := NewRequest(MethodAuthRequest, map[string]string{"wallet": "0xabc"})

	first, err := req.Body()
	require.NoError(t, err)
	second, err := req.Body()
	require.NoError(t, err)

	// The signed bytes and the envelope bytes must be identical.
	assert.Equal(t, first, second)

	env, err := req.Envelope()
	require.NoError(t, err)
	assert.Contains(t, string(env), string(first))
}

func TestDecodeFrame(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"res":[123,"auth_verify",[{"address":"0xabc"}],123]}`))
	require.NoError(t, err)
	assert.Equal(t, MethodAuthVerify, frame.Method)

	frame, err = DecodeFrame([]byte(`[123,"get_channels",[[]],123]`))
	require.NoError(t, err)
	assert.Equal(t, MethodGetChannels, frame.Method)

	_, err = DecodeFrame([]byte(`"not a frame"`))
	require.ErrorIs(t, err, core.ErrProtocol)

	_, err = DecodeFrame([]byte(`[1,2]`))
	require.ErrorIs(t, err, core.ErrProtocol)
}

func TestExtractChallengeFormats(t *testing.T) {
	// The three documented encodings must yield the identical value.
	arrayShaped := []byte(`[123,"auth_challenge",[{"challenge":"c1"}],123]`)
	resShaped := []byte(`{"res":[123,"auth_challenge",[{"challenge_message":"c1"}],123]}`)
	rawText := []byte(`c1`)

	assert.Equal(t, "c1", ExtractChallenge(arrayShaped))
	assert.Equal(t, "c1", ExtractChallenge(resShaped))
	assert.Equal(t, "c1", ExtractChallenge(rawText))
}

func TestExtractChallengeFallsBackToChallengeField(t *testing.T) {
	raw := []byte(`{"res":[123,"auth_challenge",{"challenge":"c2"},123]}`)
	assert.Equal(t, "c2", ExtractChallenge(raw))
}

func TestExtractChallengeMissing(t *testing.T) {
	raw := []byte(`{"res":[123,"auth_challenge",[{}],123]}`)
	assert.Empty(t, ExtractChallenge(raw))
}

func TestFrameErrorMessage(t *testing.T) {
	frame, err := DecodeFrame([]byte(`{"res":[1,"error",[{"error":"bad signature"}],1]}`))
	require.NoError(t, err)
	assert.Equal(t, "bad signature", frame.ErrorMessage())

	frame, err = DecodeFrame([]byte(`{"res":[1,"error",{"error":"nope"},1]}`))
	require.NoError(t, err)
	assert.Equal(t, "nope", frame.ErrorMessage())

	frame, err = DecodeFrame([]byte(`{"res":[1,"error","plain text",1]}`))
	require.NoError(t, err)
	assert.Equal(t, "plain text", frame.ErrorMessage())
}
