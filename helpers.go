package cronexec

import (
	"time"
)

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// daysInYear returns 365 or 366.
func daysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// isoWeekday returns the ISO weekday (Monday=1, Sunday=7) of a civil date.
func isoWeekday(year int, month time.Month, day int) int {
	dow := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday()
	return (int(dow)+6)%7 + 1
}

// lastWeekdayOfMonth returns the day of the last weekday (Mon-Fri) of the month.
func lastWeekdayOfMonth(year int, month time.Month) int {
	d := daysIn(year, month)
	for isoWeekday(year, month, d) > 5 {
		d--
	}
	return d
}

// nthWeekdayOfMonth returns the day of the nth occurrence of an ISO weekday
// in a month, or false if the month has fewer occurrences.
func nthWeekdayOfMonth(year int, month time.Month, weekday, n int) (int, bool) {
	first := 1 + mod(weekday-isoWeekday(year, month, 1), 7)
	d := first + 7*(n-1)
	if d > daysIn(year, month) {
		return 0, false
	}
	return d, true
}

// lastWeekdayInMonth returns the day of the last occurrence of an ISO weekday.
func lastWeekdayInMonth(year int, month time.Month, weekday int) int {
	last := daysIn(year, month)
	return last - mod(isoWeekday(year, month, last)-weekday, 7)
}

// weekdayOccurrences returns every day of the month falling on an ISO weekday,
// starting from the first occurrence.
func weekdayOccurrences(year int, month time.Month, weekday int) []int {
	first, _ := nthWeekdayOfMonth(year, month, weekday, 1)
	last := daysIn(year, month)
	out := make([]int, 0, 5)
	for d := first; d <= last; d += 7 {
		out = append(out, d)
	}
	return out
}

// nearestWeekday moves a day of the month to the nearest weekday without
// leaving the month: Saturday goes to Friday, or to Monday the 3rd when the
// day is the 1st; Sunday goes to Monday when Monday is still in the month
// and is otherwise kept. Returns false when the day does not exist.
func nearestWeekday(year int, month time.Month, day int) (int, bool) {
	last := daysIn(year, month)
	if day > last {
		return 0, false
	}
	switch isoWeekday(year, month, day) {
	case 6:
		if day == 1 {
			return day + 2, true
		}
		return day - 1, true
	case 7:
		if day+1 <= last {
			return day + 1, true
		}
	}
	return day, true
}

// wallClock returns the instant at a civil date and time in loc. Out of
// range components are normalized as time.Date does.
//
// A wall time inside a DST gap does not exist. Forward searches resolve it
// past the gap, so 02:30 on a spring-forward night becomes 03:30; backward
// searches resolve it before the gap.
//
// A wall time inside a DST fold occurs twice. Forward searches take the
// earliest occurrence not before bound, backward searches the latest
// occurrence not after bound.
func wallClock(loc *time.Location, year int, month time.Month, day, hour, minute, second int, forward bool, bound time.Time) time.Time {
	want := time.Date(year, month, day, hour, minute, second, 0, time.UTC)
	t := time.Date(want.Year(), want.Month(), want.Day(), want.Hour(), want.Minute(), want.Second(), 0, loc)

	if got := civil(t); !got.Equal(want) {
		// time.Date picked one side of the gap; move to the side the
		// search direction needs.
		if gap := want.Sub(got); forward == (gap > 0) {
			return t.Add(gap)
		}
		return t
	}

	candidates := []time.Time{t}
	_, offset := t.Zone()
	for _, sample := range []time.Time{t.Add(-3 * time.Hour), t.Add(3 * time.Hour)} {
		_, other := sample.Zone()
		if other == offset {
			continue
		}
		alt := t.Add(time.Duration(offset-other) * time.Second)
		if civil(alt).Equal(want) && !alt.Equal(t) {
			candidates = append(candidates, alt)
		}
	}
	if len(candidates) == 1 {
		return t
	}
	if candidates[1].Before(candidates[0]) {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}
	if forward {
		for _, c := range candidates {
			if !c.Before(bound) {
				return c
			}
		}
		return candidates[len(candidates)-1]
	}
	for i := len(candidates) - 1; i >= 0; i-- {
		if !candidates[i].After(bound) {
			return candidates[i]
		}
	}
	return candidates[0]
}

// startOfDay returns the first instant of a civil date in loc.
func startOfDay(loc *time.Location, year int, month time.Month, day int) time.Time {
	return wallClock(loc, year, month, day, 0, 0, 0, true, time.Time{})
}

// civil reinterprets t's wall clock fields as UTC.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// startOfMinute truncates t to its minute on the absolute timeline.
func startOfMinute(t time.Time) time.Time {
	return t.Add(-time.Duration(t.Second())*time.Second - time.Duration(t.Nanosecond()))
}

// startOfHour truncates t to its hour on the absolute timeline.
func startOfHour(t time.Time) time.Time {
	return startOfMinute(t).Add(-time.Duration(t.Minute()) * time.Minute)
}
