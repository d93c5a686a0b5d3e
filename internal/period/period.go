// Package period resolves human period labels into concrete timestamp
// bounds anchored to Korea Standard Time (UTC+9), independent of the
// host timezone.
package period

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidBounds marks caller-supplied date bounds that fail to
// parse, so callers can tell bad input from infrastructure failures.
var ErrInvalidBounds = errors.New("invalid date bounds")

// KST is the fixed civil offset all work-date math is anchored to.
// A fixed zone is deliberate: host locale and tzdata must never leak
// into day/month/year field extraction.
var KST = time.FixedZone("KST", 9*60*60)

const (
	sqlLayout     = "2006-01-02 15:04:05"
	dateLayout    = "2006-01-02"
	displayLayout = "2006/01/02"
)

// Period selects a calendar-relative date range.
type Period string

const (
	Today     Period = "today"
	ThisWeek  Period = "this-week"
	LastWeek  Period = "last-week"
	ThisMonth Period = "this-month"
	LastMonth Period = "last-month"
	ThisYear  Period = "this-year"
	LastYear  Period = "last-year"
	Last3Days Period = "3-days-ago"
)

// DateRange is a half-open-in-spirit but inclusive-by-value pair of KST
// instants: Start at 00:00:00 and End at 23:59:59.999 of its day when
// period-derived. It is ephemeral and recomputed per request.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SQLStart formats the lower bound for store queries (second resolution).
func (r DateRange) SQLStart() string { return r.Start.In(KST).Format(sqlLayout) }

// SQLEnd formats the upper bound for store queries (second resolution).
func (r DateRange) SQLEnd() string { return r.End.In(KST).Format(sqlLayout) }

// DisplayStart formats the lower bound for humans (calendar day).
func (r DateRange) DisplayStart() string { return r.Start.In(KST).Format(displayLayout) }

// DisplayEnd formats the upper bound for humans (calendar day).
func (r DateRange) DisplayEnd() string { return r.End.In(KST).Format(displayLayout) }

// Resolve maps a period label and the current instant to KST bounds.
// Unknown labels fall back to Today. The function is pure: no I/O, no
// process-local time, and it cannot fail.
func Resolve(p Period, now time.Time) DateRange {
	today := now.In(KST)
	y, m, d := today.Date()

	start := startOfDay(y, m, d)
	end := endOfDay(y, m, d)

	switch p {
	case ThisWeek:
		// Monday through today; Sunday counts as day 7 of the week.
		wd := int(today.Weekday())
		if wd == 0 {
			start = startOfDay(y, m, d-6)
		} else {
			start = startOfDay(y, m, d-(wd-1))
		}
	case LastWeek:
		// Literal rule: start = today-(wd+6), end = today-wd with
		// Sunday=0. On a Sunday this block does NOT match the previous
		// Mon-Sun week; see the Sunday test pinning this behavior.
		wd := int(today.Weekday())
		start = startOfDay(y, m, d-(wd+6))
		end = endOfDay(y, m, d-wd)
	case ThisMonth:
		start = startOfDay(y, m, 1)
	case LastMonth:
		start = startOfDay(y, m-1, 1)
		end = endOfDay(y, m, 0) // day 0 normalizes to the last day of the previous month
	case ThisYear:
		start = startOfDay(y, time.January, 1)
	case LastYear:
		start = startOfDay(y-1, time.January, 1)
		end = endOfDay(y-1, time.December, 31)
	case Last3Days:
		start = startOfDay(y, m, d-3)
	}

	return DateRange{Start: start, End: end}
}

// ParseBounds builds a DateRange from caller-supplied timestamp strings,
// interpreted in KST. Accepts "YYYY-MM-DD HH:MM:SS" or a bare
// "YYYY-MM-DD" (expanded to start / end of that day).
func ParseBounds(startStr, endStr string) (DateRange, error) {
	start, err := parseBound(startStr, false)
	if err != nil {
		return DateRange{}, err
	}
	end, err := parseBound(endStr, true)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: start, End: end}, nil
}

func parseBound(s string, isEnd bool) (time.Time, error) {
	if t, err := time.ParseInLocation(sqlLayout, s, KST); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, KST)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBounds, s)
	}
	y, m, d := t.Date()
	if isEnd {
		return endOfDay(y, m, d), nil
	}
	return startOfDay(y, m, d), nil
}

func startOfDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, KST)
}

func endOfDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), KST)
}
