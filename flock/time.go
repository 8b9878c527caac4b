package flock

import "time"

// =============================================================================
// TIME POINT - Day-granularity point in time
// =============================================================================

// TimePoint is a calendar date. Farm records carry dates, not timestamps;
// construction truncates to the UTC day and comparisons normalize again, so
// two records entered at different hours of the same day compare equal and
// day arithmetic never sees a partial day.
type TimePoint struct {
	Time time.Time
}

func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates t to its calendar day. A timestamped input (RFC 3339
// records carry one) keeps its date and loses its time of day.
func FromTime(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }
func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, n, 0)} }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }

func (tp TimePoint) String() string { return tp.Time.Format("2006-01-02") }

// MonthKey returns the calendar-month bucket key, e.g. "2024-03".
func (tp TimePoint) MonthKey() string { return tp.Time.Format("2006-01") }

// =============================================================================
// TIME UTILITIES
// =============================================================================

// DaysBetween returns whole calendar days from one date to another. Both
// ends normalize to midnight, so a slice's length depends only on its dates -
// splitting an interval at any date yields halves that sum back to the whole.
func DaysBetween(from, to TimePoint) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

func StartOfMonth(tp TimePoint) TimePoint {
	return NewTimePoint(tp.Year(), tp.Month(), 1)
}
