package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/wire"
)

func TestAuthenticate(t *testing.T) {
	conn := newMockConn()
	conn.responses[wire.MethodAuthChallenge] = mustFrame(t, wire.MethodAuthChallenge, `[{"challenge_message":"c1"}]`)
	conn.responses[wire.MethodAuthVerify] = mustFrame(t, wire.MethodAuthVerify, `[{"jwt_token":"tok"}]`)

	handshake := NewAuthHandshake("clearport", testToken, "app.create")
	result, err := handshake.Authenticate(context.Background(), conn, testSigner(t))
	require.NoError(t, err)
	assert.Equal(t, "tok", result.SessionToken)

	require.Len(t, conn.sent, 2)
	assert.Equal(t, wire.MethodAuthRequest, conn.sent[0].Method)
	assert.Equal(t, wire.MethodAuthVerify, conn.sent[1].Method)

	request, ok := conn.sent[0].Params.(wire.AuthRequestParams)
	require.True(t, ok)
	assert.Equal(t, testSender, request.Wallet)
	assert.Equal(t, testSender, request.Participant)
	assert.Empty(t, request.Allowances)

	verify, ok := conn.sent[1].Params.(wire.AuthVerifyParams)
	require.True(t, ok)
	assert.Equal(t, "c1", verify.Challenge)
}

func TestAuthenticateMissingChallenge(t *testing.T) {
	conn := newMockConn()
	conn.responses[wire.MethodAuthChallenge] = mustFrame(t, wire.MethodAuthChallenge, `[{}]`)

	handshake := NewAuthHandshake("clearport", testToken, "app.create")
	_, err := handshake.Authenticate(context.Background(), conn, testSigner(t))
	require.ErrorIs(t, err, core.ErrAuth)
	require.ErrorIs(t, err, core.ErrMissingChallenge)
}

func TestAuthenticateRejected(t *testing.T) {
	conn := newMockConn()
	conn.awaitErrs[wire.MethodAuthChallenge] = &wire.ServerError{Message: "unknown wallet"}

	handshake := NewAuthHandshake("clearport", testToken, "app.create")
	_, err := handshake.Authenticate(context.Background(), conn, testSigner(t))
	require.ErrorIs(t, err, core.ErrAuth)
	assert.Contains(t, err.Error(), "unknown wallet")
}
