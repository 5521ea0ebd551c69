package wire

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/layer-3/clearport/core"
)

// AuthRequestParams is the payload of an auth_request frame.
type AuthRequestParams struct {
	Wallet      string           `json:"wallet"`
	Participant string           `json:"participant"`
	AppName     string           `json:"app_name"`
	Expire      int64            `json:"expire"`
	Scope       string           `json:"scope"`
	Application string           `json:"application"`
	Allowances  []core.Allowance `json:"allowances"`
}

// AuthVerifyParams is the payload of an auth_verify frame; the typed-data
// signature over the policy travels in the envelope's sig slot.
type AuthVerifyParams struct {
	Challenge string `json:"challenge"`
}

// SessionRequest is the payload element of create_app_session and
// close_app_session frames.
type SessionRequest struct {
	AppSessionID string                  `json:"app_session_id,omitempty"`
	Definition   *core.SessionDefinition `json:"definition,omitempty"`
	Allocations  []core.Allocation       `json:"allocations"`
}

// ParseChannels decodes a get_channels payload. The node has emitted both a
// flat channel array and a nested one, and an object keyed by "channels".
func ParseChannels(params json.RawMessage) ([]core.Channel, error) {
	var flat []core.Channel
	if err := json.Unmarshal(params, &flat); err == nil {
		return flat, nil
	}

	var nested [][]core.Channel
	if err := json.Unmarshal(params, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	var keyed struct {
		Channels []core.Channel `json:"channels"`
	}
	if err := json.Unmarshal(params, &keyed); err == nil && keyed.Channels != nil {
		return keyed.Channels, nil
	}

	return nil, fmt.Errorf("%w: unrecognized channels payload", core.ErrProtocol)
}

// ParseSessionCreated extracts the app_session_id from a create_app_session
// response payload, accepting either an object or a one-element array.
func ParseSessionCreated(params json.RawMessage) (string, error) {
	var obj struct {
		AppSessionID string `json:"app_session_id"`
	}
	if err := json.Unmarshal(params, &obj); err == nil && obj.AppSessionID != "" {
		return obj.AppSessionID, nil
	}

	var list []struct {
		AppSessionID string `json:"app_session_id"`
	}
	if err := json.Unmarshal(params, &list); err == nil && len(list) > 0 && list[0].AppSessionID != "" {
		return list[0].AppSessionID, nil
	}

	return "", fmt.Errorf("%w: create_app_session response carries no app_session_id", core.ErrProtocol)
}

// ClosedAllocation is one settled allocation row as the node reports it,
// with the amount still in raw base units.
type ClosedAllocation struct {
	Participant string          `json:"participant"`
	Asset       string          `json:"asset"`
	Amount      decimal.Decimal `json:"amount"`
}

// ParseSessionClosed decodes a close_app_session response payload. A missing
// allocations field is reported via core.ErrMissingAllocations: the node
// completed the session but the response is structurally incomplete, which is
// a failure, not something to accept silently.
func ParseSessionClosed(params json.RawMessage) ([]ClosedAllocation, error) {
	body := params

	// Unwrap optional one-element array and "result" wrapper.
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		body = list[0]
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: unrecognized close_app_session payload", core.ErrProtocol)
	}
	if result, ok := fields["result"]; ok {
		if err := json.Unmarshal(result, &fields); err != nil {
			return nil, fmt.Errorf("%w: unrecognized close_app_session result", core.ErrProtocol)
		}
	}

	raw, ok := fields["allocations"]
	if !ok || string(raw) == "null" {
		return nil, core.ErrMissingAllocations
	}

	var allocations []ClosedAllocation
	if err := json.Unmarshal(raw, &allocations); err != nil {
		return nil, fmt.Errorf("%w: malformed allocations: %v", core.ErrProtocol, err)
	}

	return allocations, nil
}

// ParseAuthVerified extracts the session token from an auth_verify response
// payload, if the node attached one.
func ParseAuthVerified(params json.RawMessage) string {
	payloads := []json.RawMessage{params}

	var list []json.RawMessage
	if err := json.Unmarshal(params, &list); err == nil && len(list) > 0 {
		payloads = append(payloads, list[0])
	}

	for _, p := range payloads {
		var obj struct {
			JWTToken     string `json:"jwt_token"`
			SessionToken string `json:"session_token"`
		}
		if err := json.Unmarshal(p, &obj); err != nil {
			continue
		}
		if obj.JWTToken != "" {
			return obj.JWTToken
		}
		if obj.SessionToken != "" {
			return obj.SessionToken
		}
	}

	return ""
}

// ParseBalances decodes a get_ledger_balances payload.
func ParseBalances(params json.RawMessage) ([]core.Balance, error) {
	var flat []core.Balance
	if err := json.Unmarshal(params, &flat); err == nil {
		return flat, nil
	}

	var nested [][]core.Balance
	if err := json.Unmarshal(params, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}

	var keyed struct {
		LedgerBalances []core.Balance `json:"ledger_balances"`
	}
	if err := json.Unmarshal(params, &keyed); err == nil && keyed.LedgerBalances != nil {
		return keyed.LedgerBalances, nil
	}

	return nil, fmt.Errorf("%w: unrecognized ledger balances payload", core.ErrProtocol)
}
