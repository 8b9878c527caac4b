/*
allocator.go - Consumption-based feed-cost allocation

PURPOSE:
  For each depleted bag, find the population changes inside its life, cut
  the interval at every change, weight each slice by bird-days, and derive
  one uniform per-bird-per-day rate for the whole bag:

      rate = totalCost / totalBirdDays

  Sub-period cost and quantity then fall out as birdDays * rate. Holding
  the per-bird rate constant is the design decision: the absolute dollars
  attributed to a slice follow its population and length, while the cost
  per bird per day stays identical across slices by construction.

EDGE CASES:
  - A bag without a depleted date is skipped (consumption incomplete).
  - Zero population or zero bird-days yields zero rates, never a division
    error.
  - Boundary dates that collapse (sub-duration <= 0) are skipped, not
    emitted as zero-length slices.
*/
package feed

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/coopledger/feedcost/flock"
)

// Cost-per-bird-per-month uses a 30-day month.
var daysPerMonth = decimal.NewFromInt(30)

// =============================================================================
// ALLOCATOR
// =============================================================================

// Allocator holds the population timeline plus the source records needed to
// describe boundary crossings. It has no mutable state; Allocate is a pure
// function of the allocator and its argument.
type Allocator struct {
	Timeline []flock.Snapshot
	Batches  []flock.Batch
	Deaths   []flock.DeathRecord
}

// Allocate produces one Period per depleted bag, most recent first.
func (a *Allocator) Allocate(bags []Bag) []Period {
	var periods []Period
	for _, bag := range bags {
		if !bag.Depleted() {
			continue
		}
		periods = append(periods, a.allocateBag(bag))
	}

	sort.SliceStable(periods, func(i, j int) bool {
		return periods[i].Start.After(periods[j].Start)
	})
	return periods
}

func (a *Allocator) allocateBag(bag Bag) Period {
	opened := bag.OpenedAt
	depleted := *bag.DepletedAt
	duration := flock.DaysBetween(opened, depleted)
	size := flock.FlockSizeAt(a.Timeline, opened)
	cost := bag.Cost()

	period := Period{
		Bag:           bag,
		Start:         opened,
		End:           depleted,
		Duration:      duration,
		TotalCost:     cost,
		TotalQuantity: bag.Quantity,
		FlockSize:     size,
	}

	changes := flock.ChangesBetween(a.Timeline, opened, depleted)
	if len(changes) == 0 {
		period.CostPerBirdPerDay = uniformDailyRate(cost, duration, size.Total)
		period.CostPerBirdPerMonth = period.CostPerBirdPerDay.Mul(daysPerMonth)
		return period
	}

	slices := a.sliceBoundaries(opened, depleted, changes)

	totalBirdDays := int64(0)
	for _, s := range slices {
		totalBirdDays += s.birdDays
	}

	var costRate, feedRate decimal.Decimal
	if totalBirdDays > 0 {
		birdDays := decimal.NewFromInt(totalBirdDays)
		costRate = cost.Div(birdDays)
		feedRate = bag.Quantity.Div(birdDays)
	}

	period.HasPopulationChanges = true
	period.CostPerBirdPerDay = costRate
	period.CostPerBirdPerMonth = costRate.Mul(daysPerMonth)
	period.FlockChanges = a.describeChanges(changes)

	for _, s := range slices {
		birdDays := decimal.NewFromInt(s.birdDays)
		period.SubPeriods = append(period.SubPeriods, SubPeriod{
			Start:               s.start,
			End:                 s.end,
			Duration:            s.duration,
			TotalCost:           birdDays.Mul(costRate),
			TotalQuantity:       birdDays.Mul(feedRate),
			FlockSize:           s.size,
			CostPerBirdPerDay:   costRate,
			CostPerBirdPerMonth: costRate.Mul(daysPerMonth),
		})
	}
	return period
}

// uniformDailyRate is the no-crossing rate: cost / duration / flock total,
// zero when either divisor is.
func uniformDailyRate(cost decimal.Decimal, duration, flockTotal int) decimal.Decimal {
	if duration <= 0 || flockTotal <= 0 {
		return decimal.Zero
	}
	return cost.Div(decimal.NewFromInt(int64(duration))).Div(decimal.NewFromInt(int64(flockTotal)))
}

// =============================================================================
// BOUNDARY DECOMPOSITION
// =============================================================================

type span struct {
	start    flock.TimePoint
	end      flock.TimePoint
	duration int
	size     flock.Snapshot
	birdDays int64
}

// sliceBoundaries cuts [opened, depleted] at every change date and weighs
// each cut by bird-days. Duplicate boundaries produce zero-length cuts,
// which are dropped here.
func (a *Allocator) sliceBoundaries(opened, depleted flock.TimePoint, changes []flock.Snapshot) []span {
	boundaries := []flock.TimePoint{opened}
	for _, c := range changes {
		boundaries = append(boundaries, c.Date)
	}
	boundaries = append(boundaries, depleted)

	sort.SliceStable(boundaries, func(i, j int) bool {
		return boundaries[i].Before(boundaries[j])
	})
	boundaries = dedupeDates(boundaries)

	var slices []span
	for i := 0; i+1 < len(boundaries); i++ {
		start, end := boundaries[i], boundaries[i+1]
		dur := flock.DaysBetween(start, end)
		if dur <= 0 {
			continue
		}
		size := flock.FlockSizeAt(a.Timeline, start)
		slices = append(slices, span{
			start:    start,
			end:      end,
			duration: dur,
			size:     size,
			birdDays: int64(size.Total) * int64(dur),
		})
	}
	return slices
}

func dedupeDates(dates []flock.TimePoint) []flock.TimePoint {
	deduped := dates[:0]
	for _, d := range dates {
		if len(deduped) == 0 || !deduped[len(deduped)-1].Equal(d) {
			deduped = append(deduped, d)
		}
	}
	return deduped
}

// =============================================================================
// CHANGE DESCRIPTIONS
// =============================================================================

// describeChanges resolves each boundary crossing back to the acquisition
// or death records on that date.
func (a *Allocator) describeChanges(changes []flock.Snapshot) []FlockChange {
	byID := make(map[string]flock.Batch, len(a.Batches))
	for _, b := range a.Batches {
		byID[b.ID] = b
	}

	var described []FlockChange
	for _, change := range changes {
		for _, b := range a.Batches {
			if !b.Active || !b.AcquiredAt.Equal(change.Date) {
				continue
			}
			added := b.InitialSize().Total
			described = append(described, FlockChange{
				Date:        change.Date,
				Kind:        flock.KindAcquisition,
				Delta:       added,
				Description: fmt.Sprintf("Acquired %d birds (%s)", added, b.Name),
			})
		}
		for _, d := range a.Deaths {
			batch, ok := byID[d.BatchID]
			if !ok || !batch.Active || !d.Date.Equal(change.Date) {
				continue
			}
			desc := fmt.Sprintf("Lost %d birds (%s)", d.Count, batch.Name)
			if d.Cause != "" {
				desc = fmt.Sprintf("Lost %d birds to %s (%s)", d.Count, d.Cause, batch.Name)
			}
			described = append(described, FlockChange{
				Date:        change.Date,
				Kind:        flock.KindDeath,
				Delta:       -d.Count,
				Description: desc,
			})
		}
	}
	return described
}
