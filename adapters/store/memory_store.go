// Package store provides the transfer-history and balance-cache adapters.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/clearport/core"
	"github.com/layer-3/clearport/ports"
)

// MemoryStore is an in-memory implementation of the Store interface,
// primarily intended for testing and single-instance deployments.
type MemoryStore struct {
	mu        sync.RWMutex
	transfers map[string]core.TransferRecord
	balances  map[string]cachedBalances
}

type cachedBalances struct {
	balances  []core.Balance
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transfers: make(map[string]core.TransferRecord),
		balances:  make(map[string]cachedBalances),
	}
}

// SaveTransfer records a transfer attempt
func (s *MemoryStore) SaveTransfer(ctx context.Context, record core.TransferRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transfers[record.ID] = record
	return nil
}

// GetTransfer retrieves a transfer record by id
func (s *MemoryStore) GetTransfer(ctx context.Context, id string) (core.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.transfers[id]
	if !ok {
		return core.TransferRecord{}, core.ErrNotFound
	}
	return record, nil
}

// SetBalances caches a wallet's ledger balances until the TTL elapses
func (s *MemoryStore) SetBalances(ctx context.Context, wallet string, balances []core.Balance, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[wallet] = cachedBalances{
		balances:  balances,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// GetBalances returns cached balances, or ErrNotFound once they have expired
func (s *MemoryStore) GetBalances(ctx context.Context, wallet string) ([]core.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cached, ok := s.balances[wallet]
	if !ok || time.Now().After(cached.expiresAt) {
		return nil, core.ErrNotFound
	}
	return cached.balances, nil
}

var _ ports.Store = (*MemoryStore)(nil)
