package ports

import (
	"context"

	"github.com/layer-3/clearport/core"
)

// EventPublisher notifies other instances about settled transfers
type EventPublisher interface {
	PublishSettlement(ctx context.Context, record core.TransferRecord, result core.SettledTransfer) error
}
