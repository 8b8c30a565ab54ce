package date

import "fmt"

// Range represents a range of dates, boundaries included.
type Range struct{ From, To Date }

// NewRange returns the range [from, to], or an error if from is after to.
func NewRange(from, to Date) (Range, error) {
	if from.After(to) {
		return Range{}, fmt.Errorf("invalid range: %s is after %s", from, to)
	}
	return Range{From: from, To: to}, nil
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Days returns the number of calendar days in the range.
func (r Range) Days() int { return r.To.DaysSince(r.From) + 1 }

func (r Range) String() string { return fmt.Sprintf("[%s, %s]", r.From, r.To) }
