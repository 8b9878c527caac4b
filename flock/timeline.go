/*
timeline.go - Population timeline fold and lookup

PURPOSE:
  Merges acquisition and death records into one chronological event list and
  folds it into an immutable snapshot timeline. The fold is a left-fold over
  sorted events: each step produces a new snapshot value, nothing is mutated
  after it is appended.

ORDERING:
  Events sort ascending by date. When an acquisition and a death share a
  date, the acquisition is applied first - a bird must exist before it can
  die. Events on the same date collapse into a single snapshot.

DEATH APPORTIONMENT:
  Death records carry only a total count. The fold spreads that count across
  categories in proportion to the current composition, using integer floor
  division, and clamps every category (and the total) at zero.

SEE ALSO:
  - types.go: event and snapshot definitions
*/
package flock

import "sort"

// =============================================================================
// TIMELINE INPUT
// =============================================================================

// TimelineInput carries the two source feeds plus the fallback profile.
// ReferenceDate dates the fallback snapshot when the profile has no start
// date; it is explicit so callers (and tests) control "now".
type TimelineInput struct {
	Batches       []Batch
	Deaths        []DeathRecord
	Profile       *Profile
	ReferenceDate TimePoint
}

// =============================================================================
// BUILD TIMELINE - The fold
// =============================================================================

// BuildTimeline produces the date-ascending population history. Inactive
// batches contribute nothing; death records whose batch is missing or
// inactive are dropped. With no events at all, a single snapshot is
// synthesized from the profile when one is available.
func BuildTimeline(in TimelineInput) []Snapshot {
	active := make(map[string]Batch, len(in.Batches))
	for _, b := range in.Batches {
		if b.Active {
			active[b.ID] = b
		}
	}

	var events []PopulationEvent
	for _, b := range in.Batches {
		if !b.Active {
			continue
		}
		events = append(events, PopulationEvent{
			Date:      b.AcquiredAt,
			Kind:      KindAcquisition,
			Delta:     b.InitialSize(),
			BatchID:   b.ID,
			BatchName: b.Name,
		})
	}
	for _, d := range in.Deaths {
		batch, ok := active[d.BatchID]
		if !ok {
			continue
		}
		events = append(events, PopulationEvent{
			Date:      d.Date,
			Kind:      KindDeath,
			Delta:     FlockSize{Total: d.Count},
			BatchID:   d.BatchID,
			BatchName: batch.Name,
			Cause:     d.Cause,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].Kind == KindAcquisition && events[j].Kind == KindDeath
		}
		return events[i].Date.Before(events[j].Date)
	})

	var timeline []Snapshot
	var current FlockSize
	for _, e := range events {
		switch e.Kind {
		case KindAcquisition:
			current = applyAcquisition(current, e.Delta)
		case KindDeath:
			current = applyDeath(current, e.Delta.Total)
		}

		snap := Snapshot{Date: e.Date, FlockSize: current}
		if n := len(timeline); n > 0 && timeline[n-1].Date.Equal(e.Date) {
			timeline[n-1] = snap
		} else {
			timeline = append(timeline, snap)
		}
	}

	if len(timeline) == 0 && in.Profile != nil {
		date := in.ReferenceDate
		if in.Profile.StartedAt != nil {
			date = *in.Profile.StartedAt
		}
		timeline = append(timeline, Snapshot{Date: date, FlockSize: in.Profile.Size()})
	}

	return timeline
}

func applyAcquisition(current, delta FlockSize) FlockSize {
	return FlockSize{
		Hens:     current.Hens + delta.Hens,
		Roosters: current.Roosters + delta.Roosters,
		Chicks:   current.Chicks + delta.Chicks,
		Brooding: current.Brooding + delta.Brooding,
		Total:    current.Total + delta.Total,
	}
}

func applyDeath(current FlockSize, count int) FlockSize {
	if count < 0 {
		count = -count
	}
	next := current
	if current.Total > 0 {
		next.Hens = clampZero(current.Hens - current.Hens*count/current.Total)
		next.Roosters = clampZero(current.Roosters - current.Roosters*count/current.Total)
		next.Chicks = clampZero(current.Chicks - current.Chicks*count/current.Total)
		next.Brooding = clampZero(current.Brooding - current.Brooding*count/current.Total)
	}
	next.Total = clampZero(current.Total - count)
	return next
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// =============================================================================
// QUERIES
// =============================================================================

// FlockSizeAt returns the snapshot in effect at a date: the latest snapshot
// dated on or before it. Dates before the first snapshot return the earliest
// one; an empty timeline returns a zero snapshot dated at the query date.
func FlockSizeAt(timeline []Snapshot, date TimePoint) Snapshot {
	for i := len(timeline) - 1; i >= 0; i-- {
		if timeline[i].Date.BeforeOrEqual(date) {
			return timeline[i]
		}
	}
	if len(timeline) > 0 {
		return timeline[0]
	}
	return Snapshot{Date: date}
}

// ChangesBetween returns snapshots dated strictly after start and on or
// before end - the population changes that fall inside a feed bag's life.
func ChangesBetween(timeline []Snapshot, start, end TimePoint) []Snapshot {
	var changes []Snapshot
	for _, s := range timeline {
		if s.Date.After(start) && s.Date.BeforeOrEqual(end) {
			changes = append(changes, s)
		}
	}
	return changes
}
