// Package wire implements the settlement node's RPC envelope: outbound
// requests are positional JSON arrays wrapped in a "req" object and signed,
// inbound frames arrive as the mirrored "res" shape.
package wire

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/layer-3/clearport/core"
)

// Outbound and inbound method names.
const (
	MethodAuthRequest       = "auth_request"
	MethodAuthChallenge     = "auth_challenge"
	MethodAuthVerify        = "auth_verify"
	MethodGetChannels       = "get_channels"
	MethodCreateAppSession  = "create_app_session"
	MethodCloseAppSession   = "close_app_session"
	MethodGetLedgerBalances = "get_ledger_balances"
	MethodError             = "error"
)

// Request is one outbound protocol request. The wire form is
// {"req":[id,method,params,ts],"sig":["0x..."]} where the req array bytes are
// exactly what gets signed, so they are marshalled once and reused.
type Request struct {
	ID        uint64
	Method    string
	Params    any
	Timestamp uint64

	body json.RawMessage
}

// NewRequest builds a request stamped with the current wall clock.
func NewRequest(method string, params any) *Request {
	now := uint64(time.Now().UnixMilli())
	return &Request{
		ID:        now,
		Method:    method,
		Params:    params,
		Timestamp: now,
	}
}

// Body returns the canonical bytes of the positional request array. These are
// the bytes covered by the request signature.
func (r *Request) Body() ([]byte, error) {
	if r.body != nil {
		return r.body, nil
	}

	body, err := json.Marshal([]any{r.ID, r.Method, r.Params, r.Timestamp})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	r.body = body
	return body, nil
}

// Envelope wraps the request body and its signatures into the wire frame.
func (r *Request) Envelope(sigs ...string) ([]byte, error) {
	body, err := r.Body()
	if err != nil {
		return nil, err
	}

	if sigs == nil {
		sigs = []string{}
	}

	env := struct {
		Req json.RawMessage `json:"req"`
		Sig []string        `json:"sig"`
	}{Req: body, Sig: sigs}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	return data, nil
}

// Frame is one classified inbound message.
type Frame struct {
	Method string
	Params json.RawMessage
	Raw    []byte
}

// ServerError carries the error message the node attached to an "error" frame.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// DecodeFrame parses an inbound frame. Both the object shape
// {"res":[ts,method,payload,ts]} and the bare array shape are accepted.
func DecodeFrame(data []byte) (*Frame, error) {
	var wrapped struct {
		Res json.RawMessage `json:"res"`
	}

	body := json.RawMessage(data)
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Res) > 0 {
		body = wrapped.Res
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, fmt.Errorf("%w: frame is neither a res object nor an array", core.ErrProtocol)
	}
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: frame has %d elements, want at least 3", core.ErrProtocol, len(parts))
	}

	var method string
	if err := json.Unmarshal(parts[1], &method); err != nil {
		return nil, fmt.Errorf("%w: frame method is not a string", core.ErrProtocol)
	}

	return &Frame{Method: method, Params: parts[2], Raw: data}, nil
}

// ErrorMessage extracts the human-readable message from an error frame's
// payload, which arrives as {"error":...}, [{"error":...}], or a bare string.
func (f *Frame) ErrorMessage() string {
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(f.Params, &obj); err == nil && obj.Error != "" {
		return obj.Error
	}

	var list []struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(f.Params, &list); err == nil && len(list) > 0 && list[0].Error != "" {
		return list[0].Error
	}

	var s string
	if err := json.Unmarshal(f.Params, &s); err == nil && s != "" {
		return s
	}

	return string(f.Params)
}

// ExtractChallenge pulls the challenge value out of a raw auth_challenge
// frame. Three encodings are accepted, in order: an array-shaped response
// whose payload is an array of objects with a "challenge" field, a res frame
// whose payload carries "challenge_message" (or "challenge"), and finally the
// raw text itself. Returns the empty string when the frame matches a known
// shape but carries no challenge.
func ExtractChallenge(raw []byte) string {
	var bare []json.RawMessage
	if err := json.Unmarshal(raw, &bare); err == nil && len(bare) >= 3 {
		var objs []map[string]json.RawMessage
		if err := json.Unmarshal(bare[2], &objs); err == nil && len(objs) > 0 {
			if c := stringField(objs[0], "challenge"); c != "" {
				return c
			}
		}
	}

	if frame, err := DecodeFrame(raw); err == nil && frame.Method == MethodAuthChallenge {
		payloads := []json.RawMessage{frame.Params}

		var list []json.RawMessage
		if err := json.Unmarshal(frame.Params, &list); err == nil && len(list) > 0 {
			payloads = append(payloads, list[0])
		}

		for _, p := range payloads {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(p, &obj); err != nil {
				continue
			}
			if c := stringField(obj, "challenge_message"); c != "" {
				return c
			}
			if c := stringField(obj, "challenge"); c != "" {
				return c
			}
		}
		return ""
	}

	return string(raw)
}

func stringField(obj map[string]json.RawMessage, key string) string {
	raw, ok := obj[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
