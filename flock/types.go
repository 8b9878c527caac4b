/*
Package flock reconstructs a flock's population history from its source
records.

PURPOSE:
  A farm records two independent event streams: batches of birds acquired
  and deaths within those batches. Neither stream alone tells you how many
  birds were alive on a given date - that number is the fold of both streams
  in chronological order. This package merges the streams into population
  events and folds them into an ordered timeline of snapshots, which the
  feed package queries to weight feed-cost allocation by flock size.

KEY CONCEPTS:
  - FlockSize: category counts (hens, roosters, chicks, brooding) plus total
  - PopulationEvent: a tagged acquisition-or-death delta at a date
  - Snapshot: cumulative flock size immediately after an event
  - Timeline: date-ascending snapshots, one per distinct event date

DESIGN PRINCIPLES:
  1. Tagged events: whether an event is an acquisition or a death is decided
     when the event is built from its source record, never inferred later.
  2. Degradation over errors: missing batches and empty feeds produce zero
     or fallback snapshots, not failures. A report showing zero is
     acceptable; a report that crashes is not.
  3. Purity: building and querying the timeline has no side effects and no
     ambient "now" - the reference date is an explicit input.

SEE ALSO:
  - timeline.go: the fold and the FlockSizeAt query
  - feed/allocator.go: the downstream consumer
*/
package flock

// =============================================================================
// FLOCK SIZE - Category counts at a point in time
// =============================================================================

type FlockSize struct {
	Hens     int
	Roosters int
	Chicks   int
	Brooding int
	Total    int
}

// =============================================================================
// POPULATION EVENT - Tagged acquisition-or-death delta
// =============================================================================

type EventKind string

const (
	KindAcquisition EventKind = "acquisition"
	KindDeath       EventKind = "death"
)

// PopulationEvent is a single change to the flock. For acquisitions Delta
// carries per-category counts added; for deaths only Delta.Total is set and
// holds the number of birds removed (apportioned across categories during
// the fold, since death records do not say which category died).
type PopulationEvent struct {
	Date      TimePoint
	Kind      EventKind
	Delta     FlockSize
	BatchID   string
	BatchName string
	Cause     string
}

// =============================================================================
// SNAPSHOT - Cumulative state after applying events up to a date
// =============================================================================

type Snapshot struct {
	Date TimePoint
	FlockSize
}

// =============================================================================
// SOURCE RECORDS - The two input feeds plus the fallback profile
// =============================================================================

// Batch is a flock-batch acquisition record. The category counts are the
// batch's initial composition at acquisition, not its current (possibly
// already reduced) counts - deaths are applied separately through the death
// feed, and using current counts here would double-count them.
type Batch struct {
	ID         string
	Name       string
	AcquiredAt TimePoint
	Hens       int
	Roosters   int
	Chicks     int
	Brooding   int
	// InitialCount is the recorded total at acquisition. Zero means
	// unrecorded, in which case the category sum is used.
	InitialCount int
	Active       bool
}

// InitialSize returns the batch's composition at acquisition.
func (b Batch) InitialSize() FlockSize {
	total := b.InitialCount
	if total == 0 {
		total = b.Hens + b.Roosters + b.Chicks + b.Brooding
	}
	return FlockSize{
		Hens:     b.Hens,
		Roosters: b.Roosters,
		Chicks:   b.Chicks,
		Brooding: b.Brooding,
		Total:    total,
	}
}

// DeathRecord records birds lost from a batch on a date.
type DeathRecord struct {
	BatchID string
	Date    TimePoint
	Count   int
	Cause   string
}

// Profile is the flock's current composition, used only to synthesize a
// fallback snapshot when no events exist at all.
type Profile struct {
	Hens      int
	Roosters  int
	Chicks    int
	Brooding  int
	StartedAt *TimePoint
}

func (p Profile) Size() FlockSize {
	return FlockSize{
		Hens:     p.Hens,
		Roosters: p.Roosters,
		Chicks:   p.Chicks,
		Brooding: p.Brooding,
		Total:    p.Hens + p.Roosters + p.Chicks + p.Brooding,
	}
}
