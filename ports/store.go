package ports

import (
	"context"
	"time"

	"github.com/layer-3/clearport/core"
)

// Store persists transfer history and cached ledger balances
type Store interface {
	SaveTransfer(ctx context.Context, record core.TransferRecord) error
	GetTransfer(ctx context.Context, id string) (core.TransferRecord, error)

	SetBalances(ctx context.Context, wallet string, balances []core.Balance, ttl time.Duration) error
	GetBalances(ctx context.Context, wallet string) ([]core.Balance, error)
}
