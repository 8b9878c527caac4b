/*
Package factory converts JSON farm records into typed domain values.

PURPOSE:
  The three source feeds (flock batches, death records, feed bags) arrive
  as JSON - from the HTTP API or from exported farm data. This package is
  the single place that JSON shape is interpreted: dates are parsed, absent
  numbers default to zero, and the acquisition/death distinction is fixed
  at construction so nothing downstream ever inspects record shapes.

DEFAULTS:
  - isActive absent        -> active
  - quantity/price absent  -> 0 (degrades to zero cost, never NaN)
  - unit absent            -> "kg"
  - dates accept "2006-01-02" or RFC 3339

SEE ALSO:
  - flock/types.go, feed/types.go: the target types
  - api/handlers.go: the main caller
*/
package factory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coopledger/feedcost/feed"
	"github.com/coopledger/feedcost/flock"
)

const DefaultUnit = "kg"

// =============================================================================
// JSON RECORD SHAPES
// =============================================================================

// BatchJSON is a flock-batch acquisition record as it appears on the wire.
type BatchJSON struct {
	ID              string `json:"id"`
	BatchName       string `json:"batchName"`
	AcquisitionDate string `json:"acquisitionDate"`
	HensCount       int    `json:"hensCount"`
	RoostersCount   int    `json:"roostersCount"`
	ChicksCount     int    `json:"chicksCount"`
	BroodingCount   int    `json:"broodingCount"`
	InitialCount    int    `json:"initialCount"`
	IsActive        *bool  `json:"isActive"`
}

type DeathJSON struct {
	BatchID string `json:"batchId"`
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Cause   string `json:"cause"`
}

type FeedBagJSON struct {
	ID           string   `json:"id"`
	Brand        string   `json:"brand"`
	Type         string   `json:"type"`
	Quantity     *float64 `json:"quantity"`
	Unit         string   `json:"unit"`
	PricePerUnit *float64 `json:"pricePerUnit"`
	TotalCost    *float64 `json:"total_cost"`
	OpenedDate   string   `json:"openedDate"`
	DepletedDate string   `json:"depletedDate,omitempty"`
}

// =============================================================================
// CONVERSION
// =============================================================================

// Batch builds a flock.Batch, defaulting a missing isActive to true.
func Batch(in BatchJSON) (flock.Batch, error) {
	acquired, err := ParseDate(in.AcquisitionDate)
	if err != nil {
		return flock.Batch{}, fmt.Errorf("batch %s: %w", in.ID, err)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return flock.Batch{
		ID:           in.ID,
		Name:         in.BatchName,
		AcquiredAt:   acquired,
		Hens:         in.HensCount,
		Roosters:     in.RoostersCount,
		Chicks:       in.ChicksCount,
		Brooding:     in.BroodingCount,
		InitialCount: in.InitialCount,
		Active:       active,
	}, nil
}

func Death(in DeathJSON) (flock.DeathRecord, error) {
	date, err := ParseDate(in.Date)
	if err != nil {
		return flock.DeathRecord{}, fmt.Errorf("death record for batch %s: %w", in.BatchID, err)
	}
	return flock.DeathRecord{
		BatchID: in.BatchID,
		Date:    date,
		Count:   in.Count,
		Cause:   in.Cause,
	}, nil
}

// FeedBag builds a feed.Bag, defaulting absent quantity and price to zero.
func FeedBag(in FeedBagJSON) (feed.Bag, error) {
	opened, err := ParseDate(in.OpenedDate)
	if err != nil {
		return feed.Bag{}, fmt.Errorf("feed bag %s: %w", in.ID, err)
	}

	bag := feed.Bag{
		ID:           in.ID,
		Brand:        in.Brand,
		Type:         in.Type,
		Quantity:     optionalDecimal(in.Quantity),
		Unit:         in.Unit,
		PricePerUnit: optionalDecimal(in.PricePerUnit),
		TotalCost:    optionalDecimal(in.TotalCost),
		OpenedAt:     opened,
	}
	if bag.Unit == "" {
		bag.Unit = DefaultUnit
	}
	if in.DepletedDate != "" {
		depleted, err := ParseDate(in.DepletedDate)
		if err != nil {
			return feed.Bag{}, fmt.Errorf("feed bag %s: %w", in.ID, err)
		}
		bag.DepletedAt = &depleted
	}
	return bag, nil
}

func optionalDecimal(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}

// ParseDate accepts the two date forms farm records use.
func ParseDate(s string) (flock.TimePoint, error) {
	if s == "" {
		return flock.TimePoint{}, fmt.Errorf("missing date")
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return flock.FromTime(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return flock.TimePoint{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return flock.FromTime(t), nil
}
