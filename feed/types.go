/*
Package feed attributes feed-bag cost to the birds that ate it.

PURPOSE:
  A feed bag has a fixed price and a life from opened to depleted. If the
  flock size changed while the bag was in use, splitting the cost evenly
  over days misstates the per-bird cost. This package decomposes each bag's
  life at every population change and distributes cost and quantity across
  the sub-intervals in proportion to bird-days consumed.

KEY CONCEPTS:
  - Bird-day: one bird present for one day, the weighting unit
  - Period: a bag's full open-to-depleted interval with derived figures
  - SubPeriod: one slice of a period between two population changes
  - Uniform rate: per-bird-per-day consumption is held constant across the
    whole bag, so every sub-period reports the same cost per bird per day
    while absolute dollars follow the population

DESIGN PRINCIPLES:
  1. Precision: money and quantity use decimal.Decimal, never float math.
  2. Degradation: zero population or zero duration yields zero rates, not
     division errors.
  3. Purity: allocation is a function of its inputs; derived periods are
     recomputed per report and never persisted.

SEE ALSO:
  - allocator.go: the decomposition and weighting
  - trends.go: monthly rollups over allocated periods
  - flock package: the population timeline this package queries
*/
package feed

import (
	"github.com/shopspring/decimal"

	"github.com/coopledger/feedcost/flock"
)

// =============================================================================
// BAG - A purchased feed bag's lifecycle
// =============================================================================

// Bag is a feed purchase. It is mutated exactly once in its life, when it is
// marked depleted; only depleted bags participate in allocation.
type Bag struct {
	ID           string
	Brand        string
	Type         string
	Quantity     decimal.Decimal
	Unit         string
	PricePerUnit decimal.Decimal
	// TotalCost is the recorded purchase price. Zero means unrecorded, in
	// which case Quantity * PricePerUnit is used.
	TotalCost  decimal.Decimal
	OpenedAt   flock.TimePoint
	DepletedAt *flock.TimePoint
}

func (b Bag) Depleted() bool { return b.DepletedAt != nil }

// Cost returns the money the bag actually cost.
func (b Bag) Cost() decimal.Decimal {
	if !b.TotalCost.IsZero() {
		return b.TotalCost
	}
	return b.Quantity.Mul(b.PricePerUnit)
}

// =============================================================================
// PERIOD - Derived allocation for one bag
// =============================================================================

// Period is the allocation result for one depleted bag. When the population
// changed during the bag's life, SubPeriods carries the decomposition and
// the top-level rates are the uniform rates every sub-period shares.
type Period struct {
	Bag                  Bag
	Start                flock.TimePoint
	End                  flock.TimePoint
	Duration             int
	TotalCost            decimal.Decimal
	TotalQuantity        decimal.Decimal
	FlockSize            flock.Snapshot
	CostPerBirdPerDay    decimal.Decimal
	CostPerBirdPerMonth  decimal.Decimal
	HasPopulationChanges bool
	FlockChanges         []FlockChange
	SubPeriods           []SubPeriod
}

// SubPeriod is one slice of a period between consecutive boundaries. It is
// never decomposed further.
type SubPeriod struct {
	Start               flock.TimePoint
	End                 flock.TimePoint
	Duration            int
	TotalCost           decimal.Decimal
	TotalQuantity       decimal.Decimal
	FlockSize           flock.Snapshot
	CostPerBirdPerDay   decimal.Decimal
	CostPerBirdPerMonth decimal.Decimal
}

// FlockChange describes one population change inside a period, resolved back
// to the acquisition or death record that caused it.
type FlockChange struct {
	Date        flock.TimePoint
	Kind        flock.EventKind
	Delta       int
	Description string
}
