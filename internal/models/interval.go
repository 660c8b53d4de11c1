package models

import (
	"fmt"
	"time"

	"nannyhub/internal/types"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, fmt.Errorf("%w: start and end are required", types.ErrInvalidInterval)
	}
	if !end.After(start) {
		return Interval{}, fmt.Errorf(
			"%w: end %s must be after start %s",
			types.ErrInvalidInterval, end.Format(time.RFC3339), start.Format(time.RFC3339),
		)
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps is false for intervals that only touch.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
