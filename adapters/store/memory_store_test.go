package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/clearport/core"
)

func TestMemoryStoreTransfers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	record := core.TransferRecord{
		ID:       "t1",
		Sender:   "0xA",
		Receiver: "0xB",
		Amount:   decimal.RequireFromString("0.1"),
		Status:   core.TransferStatusSettled,
	}
	require.NoError(t, s.SaveTransfer(ctx, record))

	loaded, err := s.GetTransfer(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, record.Sender, loaded.Sender)
	assert.True(t, loaded.Amount.Equal(record.Amount))

	_, err = s.GetTransfer(ctx, "missing")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryStoreBalancesExpire(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	balances := []core.Balance{{Asset: "usdc", Amount: decimal.NewFromInt(5)}}
	require.NoError(t, s.SetBalances(ctx, "0xA", balances, 20*time.Millisecond))

	loaded, err := s.GetBalances(ctx, "0xA")
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	time.Sleep(30 * time.Millisecond)

	_, err = s.GetBalances(ctx, "0xA")
	require.ErrorIs(t, err, core.ErrNotFound)
}
