package calendar

import (
	"fmt"
	"testing"
	"time"
)

func TestStartOfWeek_MondayPolicy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "midweek rolls back to monday",
			in:   time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC), // Thursday
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday belongs to the preceding monday",
			in:   time.Date(2024, 3, 17, 23, 59, 0, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "monday is already the start",
			in:   time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := StartOfWeek(tc.in, time.Monday)
			if !got.Equal(tc.want) {
				t.Fatalf("StartOfWeek(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestStartOfWeek_SundayPolicy(t *testing.T) {
	t.Parallel()

	in := time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC) // Thursday
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) // Sunday
	if got := StartOfWeek(in, time.Sunday); !got.Equal(want) {
		t.Fatalf("StartOfWeek = %v, want %v", got, want)
	}

	sunday := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	if got := StartOfWeek(sunday, time.Sunday); !got.Equal(want) {
		t.Fatalf("StartOfWeek on sunday = %v, want %v", got, want)
	}
}

func TestWeekID_ISOBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   time.Time
		want string
	}{
		// 2024-01-01 is a Monday and already ISO week 1.
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-W01"},
		// 2023-01-01 is a Sunday and belongs to ISO week 52 of 2022.
		{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), "2022-W52"},
		// 2021-01-01 is a Friday; week 1 of 2021 starts January 4th.
		{time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), "2020-W53"},
		{time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), "2021-W01"},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), "2025-W01"},
	}

	for _, tc := range cases {
		if got := WeekID(tc.in); got != tc.want {
			t.Errorf("WeekID(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWeekRangeAt_ValidIdentifiers(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	for week := 1; week <= 53; week++ {
		id := fmt.Sprintf("2024-W%02d", week)
		r := WeekRangeAt(id, now)
		if !r.End.Equal(r.Start.AddDate(0, 0, 7)) {
			t.Fatalf("%s: range is not seven days: %v .. %v", id, r.Start, r.End)
		}
		if r.Start.Weekday() != time.Monday {
			t.Fatalf("%s: range does not start on Monday: %v", id, r.Start)
		}
	}

	r := WeekRangeAt("2024-W01", now)
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !r.Start.Equal(want) {
		t.Fatalf("2024-W01 starts %v, want %v", r.Start, want)
	}
}

func TestWeekRangeAt_FallsBackToCurrentWeek(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC) // Thursday
	wantStart := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"2024-W99", "2024-W00", "garbage", "2024-W1", "24-W01", ""} {
		r := WeekRangeAt(id, now)
		if !r.Start.Equal(wantStart) || !r.End.Equal(wantStart.AddDate(0, 0, 7)) {
			t.Errorf("WeekRangeAt(%q) = %v .. %v, want current week %v", id, r.Start, r.End, wantStart)
		}
	}
}

func TestWeekID_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	// Walk a span covering several year boundaries and leap weeks.
	d := time.Date(2019, 12, 20, 13, 45, 0, 0, time.UTC)
	for i := 0; i < 900; i++ {
		id := WeekID(d)
		r := WeekRangeAt(id, now)
		if got := WeekID(r.Start); got != id {
			t.Fatalf("round trip broken for %v: WeekID=%s, WeekID(range start)=%s", d, id, got)
		}
		if !r.Contains(time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)) {
			t.Fatalf("range for %s does not contain %v", id, d)
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestRange_Contains(t *testing.T) {
	t.Parallel()

	r := Range{
		Start: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC),
	}

	if !r.Contains(r.Start) {
		t.Error("start instant should be inside the half-open range")
	}
	if r.Contains(r.End) {
		t.Error("end instant should be excluded from the half-open range")
	}
}
