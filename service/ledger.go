package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/ports"
	"github.com/layer-3/clearport/wire"
)

// SessionProtocol names the session protocol in every definition this engine
// creates.
const SessionProtocol = "nitroliterpc"

// SessionState is the ledger's position in the session lifecycle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateOpening
	StateOpen
	StateClosing
	StateSettled
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SessionLedger owns one application session's lifecycle: open with a
// provisional allocation, close with the final one. The close allocation is
// the economically binding result.
type SessionLedger struct {
	conn   ports.Conn
	signer ports.Signer

	state     SessionState
	sessionID string
	opened    []core.Allocation
}

// NewSessionLedger creates an idle ledger on the given connection.
func NewSessionLedger(conn ports.Conn, signer ports.Signer) *SessionLedger {
	return &SessionLedger{conn: conn, signer: signer}
}

// State returns the ledger's current lifecycle state.
func (l *SessionLedger) State() SessionState {
	return l.state
}

// SessionID returns the node-assigned session id once the session is open.
func (l *SessionLedger) SessionID() string {
	return l.sessionID
}

// Open creates the session with the full transferable amount allocated to the
// sender and zero to the receiver. The sender carries all voting weight, so it
// can close unilaterally.
func (l *SessionLedger) Open(ctx context.Context, sender, receiver string, amount decimal.Decimal) (string, error) {
	if l.state != StateIdle {
		return "", fmt.Errorf("%w: open in state %s", core.ErrSession, l.state)
	}

	definition := core.SessionDefinition{
		Protocol:     SessionProtocol,
		Participants: []string{sender, receiver},
		Weights:      []int64{100, 0},
		Quorum:       100,
		Challenge:    0,
		Nonce:        time.Now().UnixMilli(),
	}

	allocations := []core.Allocation{
		{Participant: sender, Asset: core.AssetSymbol, Amount: amount.String()},
		{Participant: receiver, Asset: core.AssetSymbol, Amount: "0"},
	}

	req := wire.NewRequest(wire.MethodCreateAppSession, []wire.SessionRequest{{
		Definition:  &definition,
		Allocations: allocations,
	}})

	l.state = StateOpening
	if err := l.send(req); err != nil {
		return "", l.fail(err)
	}

	frame, err := l.conn.Await(ctx, wire.MethodCreateAppSession)
	if err != nil {
		return "", l.fail(err)
	}

	sessionID, err := wire.ParseSessionCreated(frame.Params)
	if err != nil {
		return "", l.fail(err)
	}

	l.sessionID = sessionID
	l.opened = allocations
	l.state = StateOpen
	return sessionID, nil
}

// Close submits the final allocation with the full amount moved to the
// receiver. This is the atomic transfer step.
func (l *SessionLedger) Close(ctx context.Context, sender, receiver string, amount decimal.Decimal) ([]core.SettledAllocation, error) {
	if l.state != StateOpen {
		return nil, fmt.Errorf("%w: close in state %s", core.ErrSession, l.state)
	}

	allocations := []core.Allocation{
		{Participant: sender, Asset: core.AssetSymbol, Amount: "0"},
		{Participant: receiver, Asset: core.AssetSymbol, Amount: amount.String()},
	}

	// The session must settle exactly what it opened with, per asset. Whether
	// the node also enforces this against the channel's on-ledger balance is
	// not observable from this side; the local check is still authoritative
	// for what we are willing to submit.
	if err := checkConservation(l.opened, allocations); err != nil {
		return nil, l.fail(err)
	}

	req := wire.NewRequest(wire.MethodCloseAppSession, []wire.SessionRequest{{
		AppSessionID: l.sessionID,
		Allocations:  allocations,
	}})

	l.state = StateClosing
	if err := l.send(req); err != nil {
		return nil, l.fail(err)
	}

	frame, err := l.conn.Await(ctx, wire.MethodCloseAppSession)
	if err != nil {
		return nil, l.fail(err)
	}

	closed, err := wire.ParseSessionClosed(frame.Params)
	if err != nil {
		return nil, l.fail(err)
	}

	settled := make([]core.SettledAllocation, 0, len(closed))
	for _, a := range closed {
		role := core.RoleSender
		if strings.EqualFold(a.Participant, receiver) {
			role = core.RoleRecipient
		}
		settled = append(settled, core.SettledAllocation{
			Role:        role,
			Participant: a.Participant,
			Amount:      a.Amount,
			AssetAmount: a.Amount.Shift(-core.AssetDecimals),
		})
	}

	l.state = StateSettled
	return settled, nil
}

func (l *SessionLedger) send(req *wire.Request) error {
	body, err := req.Body()
	if err != nil {
		return err
	}
	sig, err := l.signer.SignDigest(body)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrSession, err)
	}
	return l.conn.Send(req, sig)
}

// fail moves the ledger to Failed and classifies the cause. Server rejections
// mentioning insufficient funds are surfaced as the distinguished error kind.
func (l *SessionLedger) fail(err error) error {
	l.state = StateFailed

	var serverErr *wire.ServerError
	if errors.As(err, &serverErr) {
		if strings.Contains(strings.ToLower(serverErr.Message), "insufficient funds") {
			return fmt.Errorf("%w: %s", core.ErrInsufficientFunds, serverErr.Message)
		}
		return fmt.Errorf("%w: %s", core.ErrSession, serverErr.Message)
	}
	return err
}

// checkConservation verifies the per-asset sums of two allocation sets match.
func checkConservation(opened, closing []core.Allocation) error {
	sums := func(allocations []core.Allocation) (map[string]decimal.Decimal, error) {
		totals := make(map[string]decimal.Decimal)
		for _, a := range allocations {
			amount, err := decimal.NewFromString(a.Amount)
			if err != nil {
				return nil, fmt.Errorf("%w: bad allocation amount %q", core.ErrSession, a.Amount)
			}
			totals[a.Asset] = totals[a.Asset].Add(amount)
		}
		return totals, nil
	}

	openTotals, err := sums(opened)
	if err != nil {
		return err
	}
	closeTotals, err := sums(closing)
	if err != nil {
		return err
	}

	for asset, total := range openTotals {
		if !closeTotals[asset].Equal(total) {
			return fmt.Errorf("%w: close would settle %s %s, session opened with %s",
				core.ErrSession, closeTotals[asset], asset, total)
		}
	}
	return nil
}
