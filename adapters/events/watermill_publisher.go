// Package events publishes settlement events through Watermill.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/ports"
)

// SettlementTopic is the topic settlement events are published to.
const SettlementTopic = "clearport.transfer.settled"

// SettlementEvent is the payload other instances receive when a transfer settles.
type SettlementEvent struct {
	TransferID string    `json:"transfer_id"`
	Sender     string    `json:"sender"`
	Receiver   string    `json:"receiver"`
	Amount     string    `json:"amount"`
	SessionID  string    `json:"session_id"`
	SettledAt  time.Time `json:"settled_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     SettlementTopic,
	}
}

// PublishSettlement publishes a transfer-settled event
func (p *WatermillPublisher) PublishSettlement(ctx context.Context, record core.TransferRecord, result core.SettledTransfer) error {
	event := SettlementEvent{
		TransferID: record.ID,
		Sender:     record.Sender,
		Receiver:   record.Receiver,
		Amount:     record.Amount.String(),
		SessionID:  result.SessionID,
		SettledAt:  result.SettledAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

var _ ports.EventPublisher = (*WatermillPublisher)(nil)
