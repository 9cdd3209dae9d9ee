// Package calendar provides ISO-week arithmetic used for week navigation and
// range queries. All functions are pure; week identifiers follow ISO-8601
// week numbering (week 1 is the week containing the year's first Thursday).
package calendar

import (
	"fmt"
	"regexp"
	"time"
)

// Range is a half-open time range [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the instant falls inside the half-open range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

var weekIDPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// StartOfWeek truncates t to midnight in its location and rolls it back to
// the configured first day of the week. Only Monday and Sunday policies are
// meaningful; any other weekday is treated as Monday.
func StartOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	if weekStart != time.Sunday {
		weekStart = time.Monday
	}

	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	day := int(midnight.Weekday())
	var diff int
	if weekStart == time.Monday {
		if day == 0 {
			diff = -6
		} else {
			diff = 1 - day
		}
	} else {
		diff = -day
	}
	return midnight.AddDate(0, 0, diff)
}

// EndOfWeek returns the exclusive end of the week containing t, seven days
// after StartOfWeek.
func EndOfWeek(t time.Time, weekStart time.Weekday) time.Time {
	return StartOfWeek(t, weekStart).AddDate(0, 0, 7)
}

// WeekID returns the ISO-8601 week label for t in the form YYYY-Www. The
// computation happens in UTC so local-timezone drift cannot move a date
// across a week boundary.
func WeekID(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// WeekRange resolves a YYYY-Www identifier to its half-open 7-day UTC range.
// Malformed identifiers and weeks outside 1..53 fall back to the current
// real-world week rather than failing; see WeekRangeAt for the tested form.
func WeekRange(weekID string) Range {
	return WeekRangeAt(weekID, time.Now())
}

// WeekRangeAt is WeekRange with an explicit reference instant for the
// fallback week, allowing the fallback policy to be exercised in tests.
func WeekRangeAt(weekID string, now time.Time) Range {
	match := weekIDPattern.FindStringSubmatch(weekID)
	if match == nil {
		return currentWeek(now)
	}

	var year, week int
	fmt.Sscanf(match[1], "%d", &year)
	fmt.Sscanf(match[2], "%d", &week)
	if week < 1 || week > 53 {
		return currentWeek(now)
	}

	// ISO week 1 always contains January 4th; anchor on the Monday of the
	// week containing it.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Start := jan4.AddDate(0, 0, -(weekday - 1))

	start := week1Start.AddDate(0, 0, (week-1)*7)
	return Range{Start: start, End: start.AddDate(0, 0, 7)}
}

func currentWeek(now time.Time) Range {
	start := StartOfWeek(now.UTC(), time.Monday)
	return Range{Start: start, End: start.AddDate(0, 0, 7)}
}
