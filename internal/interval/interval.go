// Package interval implements half-open time intervals and overlap
// detection for calendar placement. Two intervals conflict iff they overlap
// under [start, end) semantics; intervals that touch at an endpoint do not
// conflict.
package interval

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when an interval would have a non-positive
// duration. A malformed interval is a construction-time error, never a
// silently accepted value.
var ErrInvalidRange = errors.New("interval: end must be after start")

// Interval is a half-open time range [Start, End) with End strictly after
// Start. Construct values through New so the invariant always holds.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New validates and returns an interval. It fails with ErrInvalidRange when
// end is not strictly after start.
func New(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, fmt.Errorf("%w: zero instant", ErrInvalidRange)
	}
	if !end.After(start) {
		return Interval{}, ErrInvalidRange
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns the positive length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two intervals overlap under half-open semantics.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// validate re-checks the invariant for intervals received from callers that
// may have constructed the struct directly.
func (iv Interval) validate() error {
	if !iv.End.After(iv.Start) {
		return ErrInvalidRange
	}
	return nil
}

// HasConflict reports whether the candidate overlaps any existing interval.
// Every input is validated independently; an invalid interval anywhere in
// the input is a fatal error, not an empty result.
func HasConflict(candidate Interval, existing []Interval) (bool, error) {
	conflicts, err := FindConflicts(candidate, existing)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}

// FindConflicts returns the subset of existing intervals that overlap the
// candidate, in input order. The scan is O(n); callers needing an interval
// tree can substitute one behind the same contract.
func FindConflicts(candidate Interval, existing []Interval) ([]Interval, error) {
	if err := candidate.validate(); err != nil {
		return nil, err
	}

	var conflicts []Interval
	for i, other := range existing {
		if err := other.validate(); err != nil {
			return nil, fmt.Errorf("existing interval %d: %w", i, err)
		}
		if candidate.Overlaps(other) {
			conflicts = append(conflicts, other)
		}
	}
	return conflicts, nil
}
