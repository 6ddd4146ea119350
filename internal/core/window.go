package core

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// WindowPolicy selects how a (start, end) pair is widened into a Window.
type WindowPolicy string

const (
	// PolicyThirdQuarter always resolves to July-September of the supplied years.
	PolicyThirdQuarter WindowPolicy = "q3"
	// PolicyFullYear resolves to January-December of the supplied years.
	PolicyFullYear WindowPolicy = "year"
	// PolicySuppliedQuarter resolves to the quarters containing the supplied months.
	PolicySuppliedQuarter WindowPolicy = "quarter"
)

var ErrMalformedDate = errors.New("malformed date")

// Window is an inclusive range of zero-padded ISO dates.
type Window struct {
	Start string
	End   string
}

// Contains reports whether dateKey lies within the window, both ends included.
// Comparison is lexicographic and relies on zero-padded YYYY-MM-DD keys.
func (w Window) Contains(dateKey string) bool {
	return w.Start <= dateKey && dateKey <= w.End
}

func (p WindowPolicy) IsValid() bool {
	switch p {
	case PolicyThirdQuarter, PolicyFullYear, PolicySuppliedQuarter:
		return true
	default:
		return false
	}
}

// Resolve converts raw start and end parameters into a Window.
// Both inputs must begin with a valid YYYY-MM prefix.
func (p WindowPolicy) Resolve(start, end string) (Window, error) {
	sy, sm, err := yearMonth(start)
	if err != nil {
		return Window{}, fmt.Errorf("start_date: %w", err)
	}
	ey, em, err := yearMonth(end)
	if err != nil {
		return Window{}, fmt.Errorf("end_date: %w", err)
	}

	switch p {
	case PolicyThirdQuarter:
		return Window{Start: dateKey(sy, 7, 1), End: dateKey(ey, 9, 30)}, nil
	case PolicyFullYear:
		return Window{Start: dateKey(sy, 1, 1), End: dateKey(ey, 12, 31)}, nil
	case PolicySuppliedQuarter:
		first := quarterFirstMonth(sm)
		last := quarterFirstMonth(em) + 2
		return Window{Start: dateKey(sy, first, 1), End: dateKey(ey, last, daysIn(ey, last))}, nil
	default:
		return Window{}, fmt.Errorf("unknown window policy %q", string(p))
	}
}

// QuarterWindow resolves the window used by the total items query.
func QuarterWindow(start, end string) (Window, error) {
	return PolicyThirdQuarter.Resolve(start, end)
}

// FullYearWindow resolves the window used by the percentage and ranking queries.
func FullYearWindow(start, end string) (Window, error) {
	return PolicyFullYear.Resolve(start, end)
}

func yearMonth(s string) (year, month int, err error) {
	if len(s) < 7 {
		return 0, 0, fmt.Errorf("%w: %q is shorter than YYYY-MM", ErrMalformedDate, s)
	}
	t, err := time.Parse("2006-01", s[:7])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t.Year(), int(t.Month()), nil
}

func quarterFirstMonth(month int) int {
	return ((month-1)/3)*3 + 1
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dateKey(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// ParseYear parses a four digit year parameter.
func ParseYear(s string) (int, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: year %q must have four digits", ErrMalformedDate, s)
	}
	y, err := strconv.Atoi(s)
	if err != nil || y < 0 {
		return 0, fmt.Errorf("%w: year %q", ErrMalformedDate, s)
	}
	return y, nil
}
