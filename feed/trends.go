/*
trends.go - Monthly feed-cost rollups

PURPOSE:
  Buckets allocated periods by calendar month for trend charts. A period
  contributes its full figures to EVERY month it touches - a bag open from
  Jan 25 to Feb 5 counts in both January and February. That double counting
  is deliberate: each month's figure answers "what did feed cost per bird
  while bags were open this month", not "how much was spent this month".
*/
package feed

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/coopledger/feedcost/flock"
)

// MonthlyFeedCost is one month's averaged figures across the periods that
// touched it.
type MonthlyFeedCost struct {
	Month               string // "2006-01"
	MonthStart          flock.TimePoint
	AvgCostPerBirdMonth decimal.Decimal
	AvgTotalCost        decimal.Decimal
	AvgFlockSize        decimal.Decimal
	PeriodCount         int
}

// TrendFilter restricts the rollup to an inclusive month range. Nil bounds
// are open.
type TrendFilter struct {
	From *flock.TimePoint
	To   *flock.TimePoint
}

func (f TrendFilter) includes(month flock.TimePoint) bool {
	if f.From != nil && month.Before(flock.StartOfMonth(*f.From)) {
		return false
	}
	if f.To != nil && month.After(flock.StartOfMonth(*f.To)) {
		return false
	}
	return true
}

// MonthlyTrends groups periods into month buckets and averages their
// figures, sorted by month ascending.
func MonthlyTrends(periods []Period, filter TrendFilter) []MonthlyFeedCost {
	buckets := make(map[string][]Period)
	starts := make(map[string]flock.TimePoint)

	for _, p := range periods {
		month := flock.StartOfMonth(p.Start)
		last := flock.StartOfMonth(p.End)
		for !month.After(last) {
			if filter.includes(month) {
				key := month.MonthKey()
				buckets[key] = append(buckets[key], p)
				starts[key] = month
			}
			month = month.AddMonths(1)
		}
	}

	trends := make([]MonthlyFeedCost, 0, len(buckets))
	for key, bucket := range buckets {
		count := decimal.NewFromInt(int64(len(bucket)))
		var costPerBird, totalCost, flockSize decimal.Decimal
		for _, p := range bucket {
			costPerBird = costPerBird.Add(p.CostPerBirdPerMonth)
			totalCost = totalCost.Add(p.TotalCost)
			flockSize = flockSize.Add(decimal.NewFromInt(int64(p.FlockSize.Total)))
		}
		trends = append(trends, MonthlyFeedCost{
			Month:               key,
			MonthStart:          starts[key],
			AvgCostPerBirdMonth: costPerBird.Div(count),
			AvgTotalCost:        totalCost.Div(count),
			AvgFlockSize:        flockSize.Div(count),
			PeriodCount:         len(bucket),
		})
	}

	sort.Slice(trends, func(i, j int) bool { return trends[i].Month < trends[j].Month })
	return trends
}
