package feed_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopledger/feedcost/feed"
	"github.com/coopledger/feedcost/flock"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) flock.TimePoint {
	return flock.NewTimePoint(year, month, day)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func depletedBag(id string, opened, depleted flock.TimePoint, quantity, cost string) feed.Bag {
	return feed.Bag{
		ID:         id,
		Brand:      "CluckCo",
		Type:       "layer pellets",
		Quantity:   dec(quantity),
		Unit:       "kg",
		TotalCost:  dec(cost),
		OpenedAt:   opened,
		DepletedAt: &depleted,
	}
}

// tenBirdFarm is the base fixture: 10 birds acquired 2024-01-01.
func tenBirdFarm(deaths ...flock.DeathRecord) feed.Allocator {
	batches := []flock.Batch{{
		ID:         "b1",
		Name:       "Spring Layers",
		AcquiredAt: date(2024, time.January, 1),
		Hens:       10,
		Active:     true,
	}}
	timeline := flock.BuildTimeline(flock.TimelineInput{Batches: batches, Deaths: deaths})
	return feed.Allocator{Timeline: timeline, Batches: batches, Deaths: deaths}
}

// approxEqual checks decimal equality within the reporting tolerance.
func approxEqual(t *testing.T, want, got decimal.Decimal, msg string) {
	t.Helper()
	diff := want.Sub(got).Abs()
	assert.True(t, diff.LessThan(dec("0.000001")),
		"%s: want %s, got %s (diff %s)", msg, want, got, diff)
}

// =============================================================================
// SIMPLE CASE - No population change during the bag
// =============================================================================

func TestAllocate_NoChanges_SinglePeriod(t *testing.T) {
	// GIVEN: 10 birds, a 50kg $100 bag open Jan 1 - Jan 11 (10 days)
	// WHEN: Allocating
	// THEN: One period, $100/10d/10birds = $1.00 per bird per day, $30/month

	allocator := tenBirdFarm()
	bag := depletedBag("bag1", date(2024, time.January, 1), date(2024, time.January, 11), "50", "100")

	periods := allocator.Allocate([]feed.Bag{bag})

	require.Len(t, periods, 1)
	p := periods[0]
	assert.False(t, p.HasPopulationChanges)
	assert.Empty(t, p.SubPeriods)
	assert.Equal(t, 10, p.Duration)
	assert.Equal(t, 10, p.FlockSize.Total)
	approxEqual(t, dec("1"), p.CostPerBirdPerDay, "cost per bird per day")
	approxEqual(t, dec("30"), p.CostPerBirdPerMonth, "cost per bird per month")
}

func TestAllocate_OpenBagExcluded(t *testing.T) {
	// GIVEN: A bag without a depleted date
	// WHEN: Allocating
	// THEN: It produces no period at all

	allocator := tenBirdFarm()
	open := feed.Bag{
		ID:        "bag-open",
		Quantity:  dec("25"),
		TotalCost: dec("60"),
		OpenedAt:  date(2024, time.January, 5),
	}

	periods := allocator.Allocate([]feed.Bag{open})
	assert.Empty(t, periods)
}

func TestAllocate_ZeroPopulationYieldsZeroRate(t *testing.T) {
	// GIVEN: An empty timeline (no birds ever recorded)
	// WHEN: Allocating a depleted bag
	// THEN: Rates are zero, not NaN or a division panic

	allocator := feed.Allocator{}
	bag := depletedBag("bag1", date(2024, time.January, 1), date(2024, time.January, 11), "50", "100")

	periods := allocator.Allocate([]feed.Bag{bag})

	require.Len(t, periods, 1)
	assert.True(t, periods[0].CostPerBirdPerDay.IsZero())
	assert.True(t, periods[0].CostPerBirdPerMonth.IsZero())
}

func TestAllocate_ChangeOnOpenDateIsNotACrossing(t *testing.T) {
	// GIVEN: The only population event falls exactly on the bag's open date
	// WHEN: Allocating
	// THEN: The simple path applies (changes are strictly after the open date)

	allocator := tenBirdFarm()
	bag := depletedBag("bag1", date(2024, time.January, 1), date(2024, time.January, 6), "20", "50")

	periods := allocator.Allocate([]feed.Bag{bag})

	require.Len(t, periods, 1)
	assert.False(t, periods[0].HasPopulationChanges)
	// $50 / 5 days / 10 birds
	approxEqual(t, dec("1"), periods[0].CostPerBirdPerDay, "cost per bird per day")
}

func TestBagCost_FallsBackToQuantityTimesPrice(t *testing.T) {
	bag := feed.Bag{Quantity: dec("25"), PricePerUnit: dec("2.4")}
	approxEqual(t, dec("60"), bag.Cost(), "derived cost")

	bag.TotalCost = dec("55")
	approxEqual(t, dec("55"), bag.Cost(), "recorded cost wins")
}

// =============================================================================
// CROSSING CASE - Consumption-based sub-period allocation
// =============================================================================

func TestAllocate_MidLifeDeath_SplitsByBirdDays(t *testing.T) {
	// GIVEN: 10 birds; 5 die Jan 6; bag $100 open Jan 1 - Jan 11
	// WHEN: Allocating
	// THEN: 50 + 25 = 75 bird-days, rate 100/75, costs $66.67 and $33.33

	deaths := []flock.DeathRecord{{BatchID: "b1", Date: date(2024, time.January, 6), Count: 5, Cause: "hawk attack"}}
	allocator := tenBirdFarm(deaths...)
	bag := depletedBag("bag1", date(2024, time.January, 1), date(2024, time.January, 11), "50", "100")

	periods := allocator.Allocate([]feed.Bag{bag})

	require.Len(t, periods, 1)
	p := periods[0]
	assert.True(t, p.HasPopulationChanges)
	require.Len(t, p.SubPeriods, 2)

	first, second := p.SubPeriods[0], p.SubPeriods[1]
	assert.Equal(t, 5, first.Duration)
	assert.Equal(t, 10, first.FlockSize.Total)
	assert.Equal(t, 5, second.Duration)
	assert.Equal(t, 5, second.FlockSize.Total)

	rate := dec("100").Div(dec("75"))
	approxEqual(t, rate, p.CostPerBirdPerDay, "uniform rate")
	approxEqual(t, rate.Mul(dec("50")), first.TotalCost, "first sub-period cost (~$66.67)")
	approxEqual(t, rate.Mul(dec("25")), second.TotalCost, "second sub-period cost (~$33.33)")
	approxEqual(t, dec("100"), first.TotalCost.Add(second.TotalCost), "costs sum to bag cost")
}

func TestAllocate_TimestampedDatesStillConserveDuration(t *testing.T) {
	// GIVEN: A bag whose opened/depleted carry a time of day, crossing a death
	// WHEN: Allocating
	// THEN: Durations come from calendar days alone - sub-periods sum to the
	//       parent and the rate is the same as for midnight dates

	deaths := []flock.DeathRecord{{BatchID: "b1", Date: date(2024, time.January, 6), Count: 5}}
	allocator := tenBirdFarm(deaths...)

	bag := depletedBag("bag1", date(2024, time.January, 1), date(2024, time.January, 11), "50", "100")
	bag.OpenedAt = flock.TimePoint{Time: time.Date(2024, time.January, 1, 14, 30, 0, 0, time.UTC)}
	at := flock.TimePoint{Time: time.Date(2024, time.January, 11, 14, 30, 0, 0, time.UTC)}
	bag.DepletedAt = &at

	periods := allocator.Allocate([]feed.Bag{bag})
	require.Len(t, periods, 1)
	p := periods[0]
	assert.Equal(t, 10, p.Duration)

	require.Len(t, p.SubPeriods, 2)
	durationSum := 0
	for _, sp := range p.SubPeriods {
		durationSum += sp.Duration
	}
	assert.Equal(t, p.Duration, durationSum)
	approxEqual(t, dec("100").Div(dec("75")), p.CostPerBirdPerDay, "uniform rate")
}

func TestAllocate_Conservation(t *testing.T) {
	// GIVEN: A bag crossing two population changes
	// WHEN: Allocating
	// THEN: Sub-period costs sum to the bag cost and durations to the bag
	//       duration, within tolerance

	deaths := []flock.DeathRecord{
		{BatchID: "b1", Date: date(2024, time.January, 4), Count: 2},
		{BatchID: "b1", Date: date(2024, time.January, 8), Count: 3},
	}
	allocator := tenBirdFarm(deaths...)
	bag := depletedBag("bag1", date(2024, time.January, 1), date(2024, time.January, 13), "50", "87.50")

	periods := allocator.Allocate([]feed.Bag{bag})
	require.Len(t, periods, 1)
	p := periods[0]
	require.Len(t, p.SubPeriods, 3)

	costSum := decimal.Zero
	quantitySum := decimal.Zero
	durationSum := 0
	for _, sp := range p.SubPeriods {
		costSum = costSum.Add(sp.TotalCost)
		quantitySum = quantitySum.Add(sp.TotalQuantity)
		durationSum += sp.Duration
	}
	approxEqual(t, p.TotalCost, costSum, "cost conservation")
	approxEqual(t, p.TotalQuantity, quantitySum, "quantity conservation")
	assert.Equal(t, p.Duration, durationSum)
}

func TestAllocate_UniformRateAcrossSubPeriods(t *testing.T) {
	// GIVEN: A crossing bag
	// WHEN: Allocating
	// THEN: Every sub-period carries exactly the parent's per-bird rates

	deaths := []flock.DeathRecord{{BatchID: "b1", Date: date(2024, time.January, 6), Count: 5}}
	allocator := tenBirdFarm(deaths...)
	bag := depletedBag("bag1", date(2024, time.January, 1), date(2024, time.January, 11), "50", "100")

	p := allocator.Allocate([]feed.Bag{bag})[0]
	for _, sp := range p.SubPeriods {
		assert.True(t, sp.CostPerBirdPerDay.Equal(p.CostPerBirdPerDay))
		assert.True(t, sp.CostPerBirdPerMonth.Equal(p.CostPerBirdPerMonth))
	}
}

func TestAllocate_ChangeOnDepletedDateCollapsesBoundary(t *testing.T) {
	// GIVEN: The population change lands exactly on the depleted date
	// WHEN: Allocating
	// THEN: The zero-length tail is skipped; one sub-period remains

	deaths := []flock.DeathRecord{{BatchID: "b1", Date: date(2024, time.January, 11), Count: 5}}
	allocator := tenBirdFarm(deaths...)
	bag := depletedBag("bag1", date(2024, time.January, 1), date(2024, time.January, 11), "50", "100")

	periods := allocator.Allocate([]feed.Bag{bag})
	require.Len(t, periods, 1)
	p := periods[0]
	assert.True(t, p.HasPopulationChanges)
	require.Len(t, p.SubPeriods, 1)
	assert.Equal(t, 10, p.SubPeriods[0].Duration)
}

func TestAllocate_FlockChangeDescriptors(t *testing.T) {
	// GIVEN: A death with a cause and a second acquisition inside the bag
	// WHEN: Allocating
	// THEN: Each crossing resolves to a human-readable descriptor

	batches := []flock.Batch{
		{ID: "b1", Name: "Spring Layers", AcquiredAt: date(2024, time.January, 1), Hens: 10, Active: true},
		{ID: "b2", Name: "Summer Chicks", AcquiredAt: date(2024, time.January, 8), Chicks: 6, Active: true},
	}
	deaths := []flock.DeathRecord{{BatchID: "b1", Date: date(2024, time.January, 5), Count: 2, Cause: "coccidiosis"}}
	timeline := flock.BuildTimeline(flock.TimelineInput{Batches: batches, Deaths: deaths})
	allocator := feed.Allocator{Timeline: timeline, Batches: batches, Deaths: deaths}

	bag := depletedBag("bag1", date(2024, time.January, 1), date(2024, time.January, 11), "50", "100")
	p := allocator.Allocate([]feed.Bag{bag})[0]

	require.Len(t, p.FlockChanges, 2)
	death, acq := p.FlockChanges[0], p.FlockChanges[1]
	assert.Equal(t, flock.KindDeath, death.Kind)
	assert.Equal(t, -2, death.Delta)
	assert.Contains(t, death.Description, "Lost 2 birds to coccidiosis")
	assert.Contains(t, death.Description, "Spring Layers")
	assert.Equal(t, flock.KindAcquisition, acq.Kind)
	assert.Equal(t, 6, acq.Delta)
	assert.Contains(t, acq.Description, "Acquired 6 birds")
}

func TestAllocate_SortedMostRecentFirst(t *testing.T) {
	allocator := tenBirdFarm()
	older := depletedBag("bag-old", date(2024, time.January, 1), date(2024, time.January, 11), "50", "100")
	newer := depletedBag("bag-new", date(2024, time.February, 1), date(2024, time.February, 11), "50", "100")

	periods := allocator.Allocate([]feed.Bag{older, newer})

	require.Len(t, periods, 2)
	assert.Equal(t, "bag-new", periods[0].Bag.ID)
	assert.Equal(t, "bag-old", periods[1].Bag.ID)
}
