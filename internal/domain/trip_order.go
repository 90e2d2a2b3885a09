package domain

import (
	"sort"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/util"
)

// SortKey selects a display ordering for a trip list
type SortKey string

const (
	SortByPriority SortKey = "priority"
	SortByDate     SortKey = "date"
	SortByProgress SortKey = "progress"
	SortByCost     SortKey = "cost"
)

// SortTrips returns a stably ordered copy of trips. The input slice is never
// modified and an unknown key returns the trips in their original order.
func SortTrips(trips []Trip, key SortKey) []Trip {
	sorted := make([]Trip, len(trips))
	copy(sorted, trips)

	var less func(a, b Trip) bool
	switch key {
	case SortByPriority:
		less = priorityLess
	case SortByDate:
		less = travelDateLess
	case SortByProgress:
		less = func(a, b Trip) bool { return a.Progress.GreaterThan(b.Progress) }
	case SortByCost:
		less = func(a, b Trip) bool { return a.EstimatedCost.GreaterThan(b.EstimatedCost) }
	default:
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// priorityLess orders starred trips first, then by ascending priority
func priorityLess(a, b Trip) bool {
	if a.IsStarred != b.IsStarred {
		return a.IsStarred
	}
	return a.EffectivePriority() < b.EffectivePriority()
}

// travelDateLess orders by ascending travel date; trips without a parseable
// date go last.
func travelDateLess(a, b Trip) bool {
	ta, errA := util.ParseCalendarDate(a.TravelDate, time.UTC)
	tb, errB := util.ParseCalendarDate(b.TravelDate, time.UTC)
	switch {
	case errA != nil:
		return false
	case errB != nil:
		return true
	}
	return ta.Before(tb)
}

// PartitionTrips splits trips into active (progress < 100) and completed,
// preserving input order in both.
func PartitionTrips(trips []Trip) (active, completed []Trip) {
	active = make([]Trip, 0, len(trips))
	completed = make([]Trip, 0)
	for _, t := range trips {
		if t.IsCompleted() {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}
	return active, completed
}

// PrimaryTripIndex returns the index in trips of the active trip that absorbs
// undirected balance changes, or -1 when every trip is completed.
func PrimaryTripIndex(trips []Trip) int {
	best := -1
	for i, t := range trips {
		if t.IsCompleted() {
			continue
		}
		// strict comparison keeps the earliest trip among equals
		if best == -1 || priorityLess(t, trips[best]) {
			best = i
		}
	}
	return best
}

// PrimaryTrip returns the primary trip, if any
func PrimaryTrip(trips []Trip) (Trip, bool) {
	idx := PrimaryTripIndex(trips)
	if idx < 0 {
		return Trip{}, false
	}
	return trips[idx], true
}
