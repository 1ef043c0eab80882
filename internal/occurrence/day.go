package occurrence

import (
	"fmt"
	"strings"
	"time"

	"task_tracker/internal/domain"
)

// DayLayout is the wire format of calendar days.
const DayLayout = "2006-01-02"

var parseLayouts = []string{
	DayLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Day truncates t to its calendar day. The result is midnight UTC carrying the
// year, month and day t has in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar day of now as seen in loc (nil means now's own location).
func Today(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return Day(now)
}

// WallClock re-expresses the wall-clock time now shows in loc with a UTC zone.
// Completion stamps are stored this way, so their UTC date is the user's calendar day.
func WallClock(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	y, m, d := now.Date()
	hh, mm, ss := now.Clock()
	return time.Date(y, m, d, hh, mm, ss, now.Nanosecond(), time.UTC)
}

// StampDay returns the calendar day of a completion stamp. Stores may hand the
// stamp back in any zone; the day is always read in UTC.
func StampDay(t time.Time) time.Time {
	return Day(t.UTC())
}

// ParseDay accepts a date or a full timestamp and truncates it to the day.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, domain.InvalidRange("empty date")
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, domain.InvalidRange(fmt.Sprintf("date %q: use YYYY-MM-DD or RFC3339", s))
}

func FormatDay(t time.Time) string { return Day(t).Format(DayLayout) }

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// WeekStart returns the Sunday on or before d.
func WeekStart(d time.Time) time.Time {
	d = Day(d)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// MonthBounds returns the first and last calendar day of year/month.
func MonthBounds(year, month int) (first, last time.Time, err error) {
	if year < 1 || year > 9999 {
		return first, last, domain.InvalidRange(fmt.Sprintf("year %d out of range", year))
	}
	if month < 1 || month > 12 {
		return first, last, domain.InvalidRange(fmt.Sprintf("month %d out of range", month))
	}
	first = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last = time.Date(year, time.Month(month), DaysIn(year, time.Month(month)), 0, 0, 0, 0, time.UTC)
	return first, last, nil
}

// SpanDays counts the days in the inclusive range [from, to]; 0 if from is after to.
func SpanDays(from, to time.Time) int {
	from, to = Day(from), Day(to)
	if from.After(to) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}
