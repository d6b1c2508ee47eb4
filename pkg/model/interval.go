package model

import "fmt"

// OverlapPolicy decides whether two date ranges compete for the same calendar space.
type OverlapPolicy int

const (
	// Closed treats both endpoints as occupied: a range ending on day N conflicts
	// with one starting on day N, so same-day turnover is refused.
	Closed OverlapPolicy = iota
	// HalfOpen treats the end day as free, allowing check-out and check-in on the same day.
	HalfOpen
)

func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch s {
	case "", "closed":
		return Closed, nil
	case "half_open":
		return HalfOpen, nil
	default:
		return Closed, fmt.Errorf("unknown overlap mode %q (expected closed or half_open)", s)
	}
}

func (p OverlapPolicy) String() string {
	if p == HalfOpen {
		return "half_open"
	}
	return "closed"
}

// Overlaps is symmetric: p.Overlaps(a, b) == p.Overlaps(b, a).
func (p OverlapPolicy) Overlaps(a, b Interval) bool {
	if p == HalfOpen {
		return a.Start.Before(b.End) && b.Start.Before(a.End)
	}
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}

type Interval struct {
	Start Date `json:"start_date"`
	End   Date `json:"end_date"`
}

func NewInterval(start, end Date) Interval {
	return Interval{Start: start, End: end}
}

// Valid reports whether both bounds are present and End is strictly after Start.
func (i Interval) Valid() bool {
	return !i.Start.IsZero() && !i.End.IsZero() && i.End.After(i.Start)
}

func (i Interval) Nights() int {
	return i.Start.DaysUntil(i.End)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s]", i.Start, i.End)
}
