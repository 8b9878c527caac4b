/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the HTTP surface. These decouple the domain types
  (which use decimal.Decimal and TimePoint) from the wire format (floats
  and "YYYY-MM-DD" strings) so charting and table code consumes plain
  numbers.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - Create*Request: request body types (the factory JSON shapes)

VALIDATION:
  Done in handlers; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: uses these types
  - factory/records.go: the request-side JSON shapes
*/
package api

import (
	"github.com/coopledger/feedcost/factory"
	"github.com/coopledger/feedcost/feed"
	"github.com/coopledger/feedcost/flock"
)

// Request bodies reuse the factory JSON shapes so the API and any bulk
// import path interpret records identically.
type (
	CreateBatchRequest   = factory.BatchJSON
	CreateDeathRequest   = factory.DeathJSON
	CreateFeedBagRequest = factory.FeedBagJSON
)

// DepleteRequest marks a feed bag empty. A missing date means "today".
type DepleteRequest struct {
	DepletedDate string `json:"depletedDate"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type BatchDTO struct {
	ID              string `json:"id"`
	BatchName       string `json:"batchName"`
	AcquisitionDate string `json:"acquisitionDate"`
	HensCount       int    `json:"hensCount"`
	RoostersCount   int    `json:"roostersCount"`
	ChicksCount     int    `json:"chicksCount"`
	BroodingCount   int    `json:"broodingCount"`
	InitialCount    int    `json:"initialCount"`
	IsActive        bool   `json:"isActive"`
}

type DeathDTO struct {
	BatchID string `json:"batchId"`
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Cause   string `json:"cause,omitempty"`
}

type FeedBagDTO struct {
	ID           string  `json:"id"`
	Brand        string  `json:"brand"`
	Type         string  `json:"type"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"pricePerUnit"`
	TotalCost    float64 `json:"totalCost"`
	OpenedDate   string  `json:"openedDate"`
	DepletedDate string  `json:"depletedDate,omitempty"`
}

type SnapshotDTO struct {
	Date     string `json:"date"`
	Hens     int    `json:"hens"`
	Roosters int    `json:"roosters"`
	Chicks   int    `json:"chicks"`
	Brooding int    `json:"brooding"`
	Total    int    `json:"total"`
}

type FlockChangeDTO struct {
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Delta       int    `json:"delta"`
	Description string `json:"description"`
}

type SubPeriodDTO struct {
	StartDate           string      `json:"startDate"`
	EndDate             string      `json:"endDate"`
	Duration            int         `json:"duration"`
	TotalCost           float64     `json:"totalCost"`
	TotalQuantity       float64     `json:"totalQuantity"`
	FlockSize           SnapshotDTO `json:"flockSize"`
	CostPerBirdPerDay   float64     `json:"costPerBirdPerDay"`
	CostPerBirdPerMonth float64     `json:"costPerBirdPerMonth"`
}

type FeedPeriodDTO struct {
	FeedBag              FeedBagDTO       `json:"feedBag"`
	StartDate            string           `json:"startDate"`
	EndDate              string           `json:"endDate"`
	Duration             int              `json:"duration"`
	TotalCost            float64          `json:"totalCost"`
	TotalQuantity        float64          `json:"totalQuantity"`
	FlockSize            SnapshotDTO      `json:"flockSize"`
	CostPerBirdPerDay    float64          `json:"costPerBirdPerDay"`
	CostPerBirdPerMonth  float64          `json:"costPerBirdPerMonth"`
	HasPopulationChanges bool             `json:"hasPopulationChanges"`
	FlockChanges         []FlockChangeDTO `json:"flockChanges,omitempty"`
	SubPeriods           []SubPeriodDTO   `json:"subPeriods,omitempty"`
}

type MonthlyTrendDTO struct {
	Month                  string  `json:"month"`
	AvgCostPerBirdPerMonth float64 `json:"avgCostPerBirdPerMonth"`
	AvgTotalCost           float64 `json:"avgTotalCost"`
	AvgFlockSize           float64 `json:"avgFlockSize"`
	PeriodCount            int     `json:"periodCount"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toBatchDTO(b flock.Batch) BatchDTO {
	return BatchDTO{
		ID:              b.ID,
		BatchName:       b.Name,
		AcquisitionDate: b.AcquiredAt.String(),
		HensCount:       b.Hens,
		RoostersCount:   b.Roosters,
		ChicksCount:     b.Chicks,
		BroodingCount:   b.Brooding,
		InitialCount:    b.InitialCount,
		IsActive:        b.Active,
	}
}

func toDeathDTO(d flock.DeathRecord) DeathDTO {
	return DeathDTO{
		BatchID: d.BatchID,
		Date:    d.Date.String(),
		Count:   d.Count,
		Cause:   d.Cause,
	}
}

func toFeedBagDTO(b feed.Bag) FeedBagDTO {
	dto := FeedBagDTO{
		ID:           b.ID,
		Brand:        b.Brand,
		Type:         b.Type,
		Quantity:     b.Quantity.InexactFloat64(),
		Unit:         b.Unit,
		PricePerUnit: b.PricePerUnit.InexactFloat64(),
		TotalCost:    b.Cost().InexactFloat64(),
		OpenedDate:   b.OpenedAt.String(),
	}
	if b.DepletedAt != nil {
		dto.DepletedDate = b.DepletedAt.String()
	}
	return dto
}

func toSnapshotDTO(s flock.Snapshot) SnapshotDTO {
	return SnapshotDTO{
		Date:     s.Date.String(),
		Hens:     s.Hens,
		Roosters: s.Roosters,
		Chicks:   s.Chicks,
		Brooding: s.Brooding,
		Total:    s.Total,
	}
}

func toFeedPeriodDTO(p feed.Period) FeedPeriodDTO {
	dto := FeedPeriodDTO{
		FeedBag:              toFeedBagDTO(p.Bag),
		StartDate:            p.Start.String(),
		EndDate:              p.End.String(),
		Duration:             p.Duration,
		TotalCost:            p.TotalCost.InexactFloat64(),
		TotalQuantity:        p.TotalQuantity.InexactFloat64(),
		FlockSize:            toSnapshotDTO(p.FlockSize),
		CostPerBirdPerDay:    p.CostPerBirdPerDay.InexactFloat64(),
		CostPerBirdPerMonth:  p.CostPerBirdPerMonth.InexactFloat64(),
		HasPopulationChanges: p.HasPopulationChanges,
	}
	for _, c := range p.FlockChanges {
		dto.FlockChanges = append(dto.FlockChanges, FlockChangeDTO{
			Date:        c.Date.String(),
			Kind:        string(c.Kind),
			Delta:       c.Delta,
			Description: c.Description,
		})
	}
	for _, sp := range p.SubPeriods {
		dto.SubPeriods = append(dto.SubPeriods, SubPeriodDTO{
			StartDate:           sp.Start.String(),
			EndDate:             sp.End.String(),
			Duration:            sp.Duration,
			TotalCost:           sp.TotalCost.InexactFloat64(),
			TotalQuantity:       sp.TotalQuantity.InexactFloat64(),
			FlockSize:           toSnapshotDTO(sp.FlockSize),
			CostPerBirdPerDay:   sp.CostPerBirdPerDay.InexactFloat64(),
			CostPerBirdPerMonth: sp.CostPerBirdPerMonth.InexactFloat64(),
		})
	}
	return dto
}

func toMonthlyTrendDTO(t feed.MonthlyFeedCost) MonthlyTrendDTO {
	return MonthlyTrendDTO{
		Month:                  t.Month,
		AvgCostPerBirdPerMonth: t.AvgCostPerBirdMonth.InexactFloat64(),
		AvgTotalCost:           t.AvgTotalCost.InexactFloat64(),
		AvgFlockSize:           t.AvgFlockSize.InexactFloat64(),
		PeriodCount:            t.PeriodCount,
	}
}
