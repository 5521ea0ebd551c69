package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/ports"
	"github.com/layer-3/clearport/wire"
)

// DefaultAuthTTL is how far in the future the signed policy expires.
const DefaultAuthTTL = 24 * time.Hour

// AuthHandshake drives the challenge/response sequence against the node.
type AuthHandshake struct {
	appName     string
	application string
	scope       string
	ttl         time.Duration
}

// NewAuthHandshake creates a handshake bound to one application identity.
func NewAuthHandshake(appName, application, scope string) *AuthHandshake {
	return &AuthHandshake{
		appName:     appName,
		application: application,
		scope:       scope,
		ttl:         DefaultAuthTTL,
	}
}

// AuthResult is what a successful handshake yields: the session token the
// node attached to its auth_verify response, if any, and its expiry.
type AuthResult struct {
	SessionToken string
	TokenExpiry  time.Time
}

// Authenticate runs the handshake to completion on the given connection.
func (h *AuthHandshake) Authenticate(ctx context.Context, conn ports.Conn, signer ports.Signer) (*AuthResult, error) {
	wallet := signer.Address().Hex()
	expire := time.Now().Add(h.ttl).Unix()

	req := wire.NewRequest(wire.MethodAuthRequest, wire.AuthRequestParams{
		Wallet:      wallet,
		Participant: wallet,
		AppName:     h.appName,
		Expire:      expire,
		Scope:       h.scope,
		Application: h.application,
		Allowances:  []core.Allowance{},
	})

	body, err := req.Body()
	if err != nil {
		return nil, err
	}
	sig, err := signer.SignDigest(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAuth, err)
	}
	if err := conn.Send(req, sig); err != nil {
		return nil, err
	}

	frame, err := conn.Await(ctx, wire.MethodAuthChallenge)
	if err != nil {
		return nil, authErr(err)
	}

	// The raw challenge is never signed bare; it is one field of the policy
	// covered by the typed-data signature.
	challenge := wire.ExtractChallenge(frame.Raw)
	if challenge == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrAuth, core.ErrMissingChallenge)
	}

	policy := core.AuthPolicy{
		Challenge:   challenge,
		Scope:       h.scope,
		Wallet:      wallet,
		Application: h.application,
		Participant: wallet,
		Expire:      expire,
		Allowances:  []core.Allowance{},
	}

	policySig, err := signer.SignTypedData(wire.PolicyTypedData(h.appName, policy))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAuth, err)
	}

	verify := wire.NewRequest(wire.MethodAuthVerify, wire.AuthVerifyParams{Challenge: challenge})
	if err := conn.Send(verify, policySig); err != nil {
		return nil, err
	}

	verified, err := conn.Await(ctx, wire.MethodAuthVerify)
	if err != nil {
		return nil, authErr(err)
	}

	result := &AuthResult{SessionToken: wire.ParseAuthVerified(verified.Params)}
	if result.SessionToken != "" {
		// The node signs this token; only its expiry claim is read here.
		var claims jwt.RegisteredClaims
		if _, _, err := jwt.NewParser().ParseUnverified(result.SessionToken, &claims); err == nil && claims.ExpiresAt != nil {
			result.TokenExpiry = claims.ExpiresAt.Time
		}
	}

	return result, nil
}

// authErr wraps exchange failures as auth failures, leaving timeout and
// connection errors classified as themselves.
func authErr(err error) error {
	var serverErr *wire.ServerError
	if errors.As(err, &serverErr) {
		return fmt.Errorf("%w: %s", core.ErrAuth, serverErr.Message)
	}
	return err
}
