package daterange

import (
	"fmt"
	"sort"
	"time"
)

// ISOFormat is the date layout used everywhere frames and exports embed a date.
const ISOFormat = "2006-01-02"

// Parse parses a YYYY-MM-DD date string into a UTC time.
func Parse(date string) (time.Time, error) {
	parsed, err := time.Parse(ISOFormat, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %v", date, err)
	}
	return parsed, nil
}

// NextDay returns the date exactly one calendar day after the given
// YYYY-MM-DD date, in the same format. It is used to build the exclusive
// end of a one-day acquisition window.
func NextDay(date string) (string, error) {
	parsed, err := Parse(date)
	if err != nil {
		return "", err
	}
	return parsed.AddDate(0, 0, 1).Format(ISOFormat), nil
}

// Sequence returns the fixed-interval dates in the half-open range
// [start, end), stepping stepDays at a time. The start date is always the
// first element; end is never included.
func Sequence(start, end time.Time, stepDays int) ([]time.Time, error) {
	if stepDays <= 0 {
		return nil, fmt.Errorf("step must be positive, got %d days", stepDays)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", end.Format(ISOFormat), start.Format(ISOFormat))
	}

	var dates []time.Time
	for current := start; current.Before(end); current = current.AddDate(0, 0, stepDays) {
		dates = append(dates, current)
	}
	return dates, nil
}

func SortDates(dates []time.Time, asc bool) []time.Time {
	sort.Slice(dates, func(i, j int) bool {
		if asc {
			return dates[i].Before(dates[j])
		}
		return dates[i].After(dates[j])
	})
	return dates
}

func GetSortedKeys[T any](m map[time.Time]T, asc bool) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	return SortDates(keys, asc)
}
