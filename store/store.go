/*
Package store persists the three source feeds the engine computes from.

PURPOSE:
  The engine itself is pure - it folds whatever records it is handed. This
  package owns those records: flock batches, death records, and feed bags.
  Derived data (timelines, feed periods, trends) is NEVER stored; reports
  recompute it from the source feeds on every request.

FEED BAG LIFECYCLE:
  A bag is created on purchase, mutated exactly once when marked depleted,
  and otherwise immutable until explicitly deleted. MarkDepleted on an
  already-depleted bag is rejected.

IMPLEMENTATIONS:
  - Memory (this package): in-memory, for tests and dev
  - sqlite subpackage: production SQLite
*/
package store

import (
	"context"
	"errors"

	"github.com/coopledger/feedcost/feed"
	"github.com/coopledger/feedcost/flock"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateID     = errors.New("record id already exists")
	ErrAlreadyDepleted = errors.New("feed bag already marked depleted")
)

// =============================================================================
// STORE - Source-of-record persistence
// =============================================================================

type Store interface {
	// Flock batches
	CreateBatch(ctx context.Context, b flock.Batch) error
	ListBatches(ctx context.Context) ([]flock.Batch, error)
	// DeactivateBatch retires a batch; its records stay but stop
	// contributing to the timeline.
	DeactivateBatch(ctx context.Context, id string) error

	// Death records
	CreateDeath(ctx context.Context, d flock.DeathRecord) error
	ListDeaths(ctx context.Context) ([]flock.DeathRecord, error)

	// Feed bags
	CreateFeedBag(ctx context.Context, b feed.Bag) error
	ListFeedBags(ctx context.Context) ([]feed.Bag, error)
	MarkDepleted(ctx context.Context, id string, at flock.TimePoint) error
	DeleteFeedBag(ctx context.Context, id string) error

	Close() error
}
