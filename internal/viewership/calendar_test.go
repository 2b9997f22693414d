package viewership

import (
	"testing"
	"time"
)

// ms is a test helper returning the epoch milliseconds of a UTC instant.
func ms(year int, month time.Month, day, hour, min int) int64 {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC).UnixMilli()
}

func TestDayStart_UTC(t *testing.T) {
	ts := ms(2025, time.October, 17, 14, 35)
	want := ms(2025, time.October, 17, 0, 0)

	if got := DayStart(ts, 0); got != want {
		t.Errorf("DayStart(%d, 0) = %d, want %d", ts, got, want)
	}
}

func TestDayStart_AtMidnight(t *testing.T) {
	ts := ms(2025, time.October, 17, 0, 0)

	if got := DayStart(ts, 0); got != ts {
		t.Errorf("DayStart at exact midnight = %d, want %d", got, ts)
	}
}

func TestDayStart_PositiveOffset(t *testing.T) {
	// 23:30 UTC on the 17th is already 01:30 on the 18th at UTC+2.
	ts := ms(2025, time.October, 17, 23, 30)
	want := ms(2025, time.October, 17, 22, 0) // local midnight of the 18th

	if got := DayStart(ts, 120); got != want {
		t.Errorf("DayStart(%d, +120) = %d, want %d", ts, got, want)
	}
}

func TestDayStart_NegativeOffset(t *testing.T) {
	// 01:30 UTC on the 18th is still 20:30 on the 17th at UTC-5.
	ts := ms(2025, time.October, 18, 1, 30)
	want := ms(2025, time.October, 17, 5, 0) // local midnight of the 17th

	if got := DayStart(ts, -300); got != want {
		t.Errorf("DayStart(%d, -300) = %d, want %d", ts, got, want)
	}
}

func TestSplitSpan_SingleDay(t *testing.T) {
	start := ms(2025, time.October, 17, 2, 0)
	end := ms(2025, time.October, 17, 4, 0)

	parts := SplitSpan(start, end, 0)
	if len(parts) != 1 {
		t.Fatalf("Expected 1 part, got %d", len(parts))
	}
	if parts[0].Day != ms(2025, time.October, 17, 0, 0) {
		t.Errorf("Expected day start of Oct 17, got %d", parts[0].Day)
	}
	if parts[0].Duration != 2*60*60*1000 {
		t.Errorf("Expected 2h duration, got %d ms", parts[0].Duration)
	}
}

func TestSplitSpan_CrossesMidnight(t *testing.T) {
	start := ms(2025, time.October, 17, 23, 0)
	end := ms(2025, time.October, 18, 1, 30)

	parts := SplitSpan(start, end, 0)
	if len(parts) != 2 {
		t.Fatalf("Expected 2 parts, got %d", len(parts))
	}
	if parts[0].Duration != 60*60*1000 {
		t.Errorf("Expected 1h on first day, got %d ms", parts[0].Duration)
	}
	if parts[1].Duration != 90*60*1000 {
		t.Errorf("Expected 1.5h on second day, got %d ms", parts[1].Duration)
	}
	if parts[1].Day != ms(2025, time.October, 18, 0, 0) {
		t.Errorf("Expected second part on Oct 18, got %d", parts[1].Day)
	}
}

func TestSplitSpan_MultiDay(t *testing.T) {
	start := ms(2025, time.October, 16, 12, 0)
	end := ms(2025, time.October, 19, 6, 0)

	parts := SplitSpan(start, end, 0)
	if len(parts) != 4 {
		t.Fatalf("Expected 4 parts, got %d", len(parts))
	}

	var total int64
	for _, p := range parts {
		total += p.Duration
	}
	if total != end-start {
		t.Errorf("Part durations sum to %d, want %d", total, end-start)
	}
}

func TestSplitSpan_InvertedSpan(t *testing.T) {
	start := ms(2025, time.October, 17, 4, 0)
	end := ms(2025, time.October, 17, 2, 0)

	if parts := SplitSpan(start, end, 0); parts != nil {
		t.Errorf("Expected no parts for inverted span, got %d", len(parts))
	}
}

func TestSplitSpan_ZeroLengthSpan(t *testing.T) {
	ts := ms(2025, time.October, 17, 2, 0)

	if parts := SplitSpan(ts, ts, 0); parts != nil {
		t.Errorf("Expected no parts for zero-length span, got %d", len(parts))
	}
}

func TestSplitSpan_RespectsOffset(t *testing.T) {
	// 23:00-01:00 UTC stays within a single local day at UTC+2.
	start := ms(2025, time.October, 17, 23, 0)
	end := ms(2025, time.October, 18, 1, 0)

	parts := SplitSpan(start, end, 120)
	if len(parts) != 1 {
		t.Fatalf("Expected 1 part at UTC+2, got %d", len(parts))
	}
	if parts[0].Duration != 2*60*60*1000 {
		t.Errorf("Expected 2h duration, got %d ms", parts[0].Duration)
	}
}

func TestWeekStart_SundayStart(t *testing.T) {
	// 2025-10-17 is a Friday; its week starts Sunday 2025-10-12.
	day := ms(2025, time.October, 17, 0, 0)
	want := ms(2025, time.October, 12, 0, 0)

	if got := weekStart(day, 0); got != want {
		t.Errorf("weekStart(Oct 17) = %d, want %d (Oct 12)", got, want)
	}
}

func TestWeekStart_SundayIsItsOwnWeekStart(t *testing.T) {
	day := ms(2025, time.October, 12, 0, 0)

	if got := weekStart(day, 0); got != day {
		t.Errorf("weekStart(Sunday) = %d, want %d", got, day)
	}
}

func TestMonthStart_And_AddMonths(t *testing.T) {
	day := ms(2025, time.October, 17, 0, 0)
	oct := monthStart(day, 0)
	if oct != ms(2025, time.October, 1, 0, 0) {
		t.Errorf("monthStart = %d, want Oct 1", oct)
	}

	if got := addMonths(oct, -1, 0); got != ms(2025, time.September, 1, 0, 0) {
		t.Errorf("addMonths(-1) = %d, want Sep 1", got)
	}
	if got := addMonths(oct, 3, 0); got != ms(2026, time.January, 1, 0, 0) {
		t.Errorf("addMonths(+3) = %d, want Jan 1 2026", got)
	}
}

func TestFormatDay(t *testing.T) {
	if got := formatDay(ms(2025, time.October, 12, 0, 0), 0); got != "2025-10-12" {
		t.Errorf("formatDay = %q, want 2025-10-12", got)
	}
}
