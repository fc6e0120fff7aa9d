package segment

import (
	"fmt"
	"sort"
)

// TypeAll matches every segment type in Filter.
const TypeAll Type = 0

// SortKey selects the listing order.
type SortKey string

const (
	ByTime     SortKey = "time"
	BySpeed    SortKey = "speed"
	ByDistance SortKey = "distance"
	ByDuration SortKey = "duration"
)

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case ByTime, BySpeed, ByDistance, ByDuration:
		return k, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// DefaultAscending is chronological for time and largest-first otherwise.
func DefaultAscending(key SortKey) bool {
	return key == ByTime
}

// Entry is a listed segment together with its index in detection order.
type Entry struct {
	Index int
	Segment
}

// Filter returns the segments of the given type, or all of them for TypeAll.
func Filter(segments []Segment, t Type) []Entry {
	entries := make([]Entry, 0, len(segments))
	for i, s := range segments {
		if t == TypeAll || s.Type == t {
			entries = append(entries, Entry{Index: i, Segment: s})
		}
	}
	return entries
}

// Sort orders entries in place. Ties keep detection order.
func Sort(entries []Entry, key SortKey, ascending bool) {
	value := func(e Entry) float64 {
		switch key {
		case BySpeed:
			return e.MaxSpeedKmh
		case ByDistance:
			return e.DistanceKm
		case ByDuration:
			return float64(e.DurationMs)
		default:
			return float64(e.StartTime.UnixMilli())
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if ascending {
			return value(entries[i]) < value(entries[j])
		}
		return value(entries[i]) > value(entries[j])
	})
}
