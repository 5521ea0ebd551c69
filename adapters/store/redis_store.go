package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/ports"
)

// RedisStore is a Redis implementation of the Store interface
type RedisStore struct {
	client         *redis.Client
	transferPrefix string
	balancePrefix  string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:         client,
		transferPrefix: "clearport:transfer:",
		balancePrefix:  "clearport:balances:",
	}
}

// SaveTransfer records a transfer attempt in Redis
func (s *RedisStore) SaveTransfer(ctx context.Context, record core.TransferRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer record: %w", err)
	}

	if err := s.client.Set(ctx, s.transferPrefix+record.ID, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save transfer record: %w", err)
	}
	return nil
}

// GetTransfer retrieves a transfer record by id
func (s *RedisStore) GetTransfer(ctx context.Context, id string) (core.TransferRecord, error) {
	payload, err := s.client.Get(ctx, s.transferPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return core.TransferRecord{}, core.ErrNotFound
		}
		return core.TransferRecord{}, fmt.Errorf("failed to load transfer record: %w", err)
	}

	var record core.TransferRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return core.TransferRecord{}, fmt.Errorf("failed to unmarshal transfer record: %w", err)
	}
	return record, nil
}

// SetBalances caches a wallet's ledger balances with an expiry key
func (s *RedisStore) SetBalances(ctx context.Context, wallet string, balances []core.Balance, ttl time.Duration) error {
	payload, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("failed to marshal balances: %w", err)
	}

	if err := s.client.Set(ctx, s.balancePrefix+wallet, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache balances: %w", err)
	}
	return nil
}

// GetBalances returns cached balances, or ErrNotFound once the key expired
func (s *RedisStore) GetBalances(ctx context.Context, wallet string) ([]core.Balance, error) {
	payload, err := s.client.Get(ctx, s.balancePrefix+wallet).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}

	var balances []core.Balance
	if err := json.Unmarshal([]byte(payload), &balances); err != nil {
		return nil, fmt.Errorf("failed to unmarshal balances: %w", err)
	}
	return balances, nil
}

var _ ports.Store = (*RedisStore)(nil)
