package awards

import (
	"time"

	"github.com/fortuna/accolade/internal/store"
)

// IsEndOfWeek reports whether d closes a Monday-to-Sunday week.
func IsEndOfWeek(d time.Time) bool {
	return d.Weekday() == time.Sunday
}

// IsEndOfMonth reports whether d is the last calendar day of its month.
func IsEndOfMonth(d time.Time) bool {
	return d.AddDate(0, 0, 1).Day() == 1
}

// WeekEnding is the seven-day period [d-6, d].
func WeekEnding(d time.Time) store.Period {
	end := dateOf(d)
	return store.Period{Start: end.AddDate(0, 0, -6), End: end}
}

// MonthThrough is the period from the first of d's month through d.
func MonthThrough(d time.Time) store.Period {
	end := dateOf(d)
	return store.Period{
		Start: time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:   end,
	}
}

// DayWindow spans the whole calendar day of d, to the last nanosecond.
func DayWindow(d time.Time) (time.Time, time.Time) {
	start := dateOf(d)
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
