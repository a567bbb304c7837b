// Package core defines the ports between the dispatch services and their adapters.
package core

import (
	"context"
	"time"

	"github.com/target/ticketgate/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not concrete implementations.

// DispatchTx exposes the writes permitted while the gate row is locked.
// Both writes commit or roll back together.
type DispatchTx interface {
	InsertRecord(ctx context.Context, rec model.NewDispatchRecord) (*model.DispatchRecord, error)
	AdvanceConfig(ctx context.Context, adv model.AdvanceConfig) error
}

// LockedDispatchFunc runs with the gate row locked. Returning an error rolls back every write made through tx.
type LockedDispatchFunc func(ctx context.Context, cfg model.DispatchConfig, tx DispatchTx) error

// DispatchConfigRepository reads and serializes access to the single gate row.
type DispatchConfigRepository interface {
	Get(ctx context.Context) (*model.DispatchConfig, error)
	WithConfigLock(ctx context.Context, fn LockedDispatchFunc) error
}

// RecordRepository provides read access to the dispatch log.
type RecordRepository interface {
	List(ctx context.Context, opts model.RecordListOptions) ([]*model.DispatchRecord, error)
	Stats(ctx context.Context, filter model.RecordFilter) (*model.RecordStats, error)
	DailyTotals(ctx context.Context, filter model.RecordFilter) ([]model.DailyTotal, error)
	Latest(ctx context.Context) (*model.DispatchRecord, error)
}

// ChangeWaiter blocks until a committed dispatch is announced.
type ChangeWaiter interface {
	WaitForChange(ctx context.Context) error
}

// TicketNotifier delivers the external notification for one dispatch. One attempt, no retry.
type TicketNotifier interface {
	Notify(ctx context.Context, variant model.Variant, rate model.DeliveryRate) error
}

// CacheRepository defines the caching operations used for stats and trigger deduplication.
type CacheRepository interface {
	// Set stores a value with the given TTL. A zero TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns nil, nil when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) (bool, error)
	// SetIfNotExists atomically sets a key only if it doesn't already exist.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Health(ctx context.Context) error
}

// TimeProvider abstracts the clock for services.
type TimeProvider interface {
	Now() time.Time
}
