package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/wire"
)

func TestLedgerLifecycle(t *testing.T) {
	conn := newMockConn()
	conn.responses[wire.MethodCreateAppSession] = mustFrame(t, wire.MethodCreateAppSession, `{"app_session_id":"s1"}`)
	conn.responses[wire.MethodCloseAppSession] = mustFrame(t, wire.MethodCloseAppSession,
		`{"allocations":[{"participant":"`+testSender+`","asset":"usdc","amount":"0"},{"participant":"`+testReceiver+`","asset":"usdc","amount":"100000"}]}`)

	ledger := NewSessionLedger(conn, testSigner(t))
	assert.Equal(t, StateIdle, ledger.State())

	amount := decimal.RequireFromString("0.1")
	sessionID, err := ledger.Open(context.Background(), testSender, testReceiver, amount)
	require.NoError(t, err)
	assert.Equal(t, "s1", sessionID)
	assert.Equal(t, StateOpen, ledger.State())

	// The open request reserves the full amount on the sender.
	require.Len(t, conn.sent, 1)
	open, ok := conn.sent[0].Params.([]wire.SessionRequest)
	require.True(t, ok)
	require.Len(t, open, 1)
	require.Len(t, open[0].Allocations, 2)
	assert.Equal(t, "0.1", open[0].Allocations[0].Amount)
	assert.Equal(t, "0", open[0].Allocations[1].Amount)
	assert.Equal(t, []int64{100, 0}, open[0].Definition.Weights)
	assert.Equal(t, int64(100), open[0].Definition.Quorum)
	assert.NotZero(t, open[0].Definition.Nonce)

	settled, err := ledger.Close(context.Background(), testSender, testReceiver, amount)
	require.NoError(t, err)
	assert.Equal(t, StateSettled, ledger.State())
	require.Len(t, settled, 2)
	assert.Equal(t, core.RoleRecipient, settled[1].Role)
	assert.True(t, settled[1].AssetAmount.Equal(amount))

	// The close request moves the full amount to the receiver.
	closeReq, ok := conn.sent[1].Params.([]wire.SessionRequest)
	require.True(t, ok)
	assert.Equal(t, "s1", closeReq[0].AppSessionID)
	assert.Equal(t, "0", closeReq[0].Allocations[0].Amount)
	assert.Equal(t, "0.1", closeReq[0].Allocations[1].Amount)
}

func TestLedgerOpenTwice(t *testing.T) {
	conn := newMockConn()
	conn.responses[wire.MethodCreateAppSession] = mustFrame(t, wire.MethodCreateAppSession, `{"app_session_id":"s1"}`)

	ledger := NewSessionLedger(conn, testSigner(t))
	_, err := ledger.Open(context.Background(), testSender, testReceiver, decimal.NewFromInt(1))
	require.NoError(t, err)

	_, err = ledger.Open(context.Background(), testSender, testReceiver, decimal.NewFromInt(1))
	require.ErrorIs(t, err, core.ErrSession)
}

func TestLedgerCloseBeforeOpen(t *testing.T) {
	ledger := NewSessionLedger(newMockConn(), testSigner(t))

	_, err := ledger.Close(context.Background(), testSender, testReceiver, decimal.NewFromInt(1))
	require.ErrorIs(t, err, core.ErrSession)
	assert.Equal(t, StateIdle, ledger.State())
}

func TestLedgerOpenRejectedFails(t *testing.T) {
	conn := newMockConn()
	conn.awaitErrs[wire.MethodCreateAppSession] = &wire.ServerError{Message: "insufficient funds"}

	ledger := NewSessionLedger(conn, testSigner(t))
	_, err := ledger.Open(context.Background(), testSender, testReceiver, decimal.NewFromInt(1))
	require.ErrorIs(t, err, core.ErrInsufficientFunds)
	assert.Equal(t, StateFailed, ledger.State())
}

func TestCheckConservation(t *testing.T) {
	opened := []core.Allocation{
		{Participant: testSender, Asset: "usdc", Amount: "0.1"},
		{Participant: testReceiver, Asset: "usdc", Amount: "0"},
	}

	balanced := []core.Allocation{
		{Participant: testSender, Asset: "usdc", Amount: "0"},
		{Participant: testReceiver, Asset: "usdc", Amount: "0.1"},
	}
	require.NoError(t, checkConservation(opened, balanced))

	inflated := []core.Allocation{
		{Participant: testSender, Asset: "usdc", Amount: "0"},
		{Participant: testReceiver, Asset: "usdc", Amount: "0.2"},
	}
	require.ErrorIs(t, checkConservation(opened, inflated), core.ErrSession)
}
