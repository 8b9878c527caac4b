package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopledger/feedcost/feed"
	"github.com/coopledger/feedcost/flock"
	"github.com/coopledger/feedcost/store"
)

func date(year int, month time.Month, day int) flock.TimePoint {
	return flock.NewTimePoint(year, month, day)
}

func TestMemory_BatchLifecycle(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	b := flock.Batch{ID: "b1", Name: "Layers", AcquiredAt: date(2024, time.January, 1), Hens: 10, Active: true}
	require.NoError(t, m.CreateBatch(ctx, b))
	assert.ErrorIs(t, m.CreateBatch(ctx, b), store.ErrDuplicateID)

	require.NoError(t, m.DeactivateBatch(ctx, "b1"))
	batches, err := m.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.False(t, batches[0].Active)

	assert.ErrorIs(t, m.DeactivateBatch(ctx, "missing"), store.ErrNotFound)
}

func TestMemory_BatchesSortedByAcquisition(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateBatch(ctx, flock.Batch{ID: "b2", AcquiredAt: date(2024, time.March, 1)}))
	require.NoError(t, m.CreateBatch(ctx, flock.Batch{ID: "b1", AcquiredAt: date(2024, time.January, 1)}))

	batches, err := m.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "b1", batches[0].ID)
}

func TestMemory_DeathsSortedByDate(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateDeath(ctx, flock.DeathRecord{BatchID: "b1", Date: date(2024, time.March, 1), Count: 2}))
	require.NoError(t, m.CreateDeath(ctx, flock.DeathRecord{BatchID: "b1", Date: date(2024, time.January, 1), Count: 1}))

	deaths, err := m.ListDeaths(ctx)
	require.NoError(t, err)
	require.Len(t, deaths, 2)
	assert.Equal(t, 1, deaths[0].Count)
}

func TestMemory_FeedBagDepletedExactlyOnce(t *testing.T) {
	// GIVEN: A stored open bag
	// WHEN: Marking it depleted twice
	// THEN: The second call is rejected, the bag keeps its first date

	m := store.NewMemory()
	ctx := context.Background()

	bag := feed.Bag{ID: "f1", Quantity: decimal.NewFromInt(50), OpenedAt: date(2024, time.January, 1)}
	require.NoError(t, m.CreateFeedBag(ctx, bag))

	require.NoError(t, m.MarkDepleted(ctx, "f1", date(2024, time.January, 11)))
	assert.ErrorIs(t, m.MarkDepleted(ctx, "f1", date(2024, time.January, 20)), store.ErrAlreadyDepleted)
	assert.ErrorIs(t, m.MarkDepleted(ctx, "missing", date(2024, time.January, 11)), store.ErrNotFound)

	bags, err := m.ListFeedBags(ctx)
	require.NoError(t, err)
	require.Len(t, bags, 1)
	require.NotNil(t, bags[0].DepletedAt)
	assert.True(t, bags[0].DepletedAt.Equal(date(2024, time.January, 11)))
}

func TestMemory_DeleteFeedBag(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateFeedBag(ctx, feed.Bag{ID: "f1", OpenedAt: date(2024, time.January, 1)}))
	require.NoError(t, m.DeleteFeedBag(ctx, "f1"))
	assert.ErrorIs(t, m.DeleteFeedBag(ctx, "f1"), store.ErrNotFound)

	bags, err := m.ListFeedBags(ctx)
	require.NoError(t, err)
	assert.Empty(t, bags)
}
