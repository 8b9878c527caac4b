package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopledger/feedcost/factory"
	"github.com/coopledger/feedcost/flock"
)

func TestBatch_DefaultsToActive(t *testing.T) {
	batch, err := factory.Batch(factory.BatchJSON{
		ID:              "b1",
		BatchName:       "Spring Layers",
		AcquisitionDate: "2024-01-01",
		HensCount:       10,
	})
	require.NoError(t, err)
	assert.True(t, batch.Active)
	assert.True(t, batch.AcquiredAt.Equal(flock.NewTimePoint(2024, time.January, 1)))
}

func TestBatch_ExplicitInactive(t *testing.T) {
	inactive := false
	batch, err := factory.Batch(factory.BatchJSON{
		ID:              "b1",
		BatchName:       "Old Flock",
		AcquisitionDate: "2023-05-01",
		IsActive:        &inactive,
	})
	require.NoError(t, err)
	assert.False(t, batch.Active)
}

func TestBatch_BadDateRejected(t *testing.T) {
	_, err := factory.Batch(factory.BatchJSON{ID: "b1", AcquisitionDate: "01/02/2024"})
	assert.Error(t, err)

	_, err = factory.Batch(factory.BatchJSON{ID: "b1"})
	assert.Error(t, err)
}

func TestFeedBag_MissingNumbersDefaultToZero(t *testing.T) {
	// GIVEN: A feed bag record with no quantity, price, or cost
	// WHEN: Converting
	// THEN: Everything defaults to zero so downstream math degrades, not NaNs

	bag, err := factory.FeedBag(factory.FeedBagJSON{ID: "f1", OpenedDate: "2024-01-01"})
	require.NoError(t, err)
	assert.True(t, bag.Quantity.IsZero())
	assert.True(t, bag.PricePerUnit.IsZero())
	assert.True(t, bag.Cost().IsZero())
	assert.Equal(t, factory.DefaultUnit, bag.Unit)
	assert.Nil(t, bag.DepletedAt)
}

func TestFeedBag_FullRecord(t *testing.T) {
	qty, price := 50.0, 2.5
	bag, err := factory.FeedBag(factory.FeedBagJSON{
		ID:           "f1",
		Brand:        "CluckCo",
		Type:         "grower mash",
		Quantity:     &qty,
		Unit:         "lb",
		PricePerUnit: &price,
		OpenedDate:   "2024-01-01",
		DepletedDate: "2024-01-15",
	})
	require.NoError(t, err)
	assert.Equal(t, "lb", bag.Unit)
	require.NotNil(t, bag.DepletedAt)
	assert.True(t, bag.DepletedAt.Equal(flock.NewTimePoint(2024, time.January, 15)))
	assert.Equal(t, "125", bag.Cost().String())
}

func TestParseDate_AcceptsBothForms(t *testing.T) {
	plain, err := factory.ParseDate("2024-03-10")
	require.NoError(t, err)

	rfc, err := factory.ParseDate("2024-03-10T14:30:00Z")
	require.NoError(t, err)

	// Same calendar day compares equal regardless of time-of-day.
	assert.True(t, plain.Equal(rfc))
}

func TestParseDate_TruncatesTimeOfDay(t *testing.T) {
	// GIVEN: An RFC 3339 timestamp mid-afternoon
	// WHEN: Parsing
	// THEN: The time of day is gone, so day arithmetic downstream only ever
	//       sees whole days

	tp, err := factory.ParseDate("2024-03-10T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), tp.Time)
	assert.Equal(t, 1, flock.DaysBetween(tp, flock.NewTimePoint(2024, time.March, 11)))
}

func TestDeath_CarriesCause(t *testing.T) {
	d, err := factory.Death(factory.DeathJSON{BatchID: "b1", Date: "2024-02-02", Count: 3, Cause: "fox"})
	require.NoError(t, err)
	assert.Equal(t, "fox", d.Cause)
	assert.Equal(t, 3, d.Count)
}
