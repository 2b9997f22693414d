// Package viewership implements the presence/viewership analytics engine:
// pure computations that fold a channel's history into per-day metrics,
// compact its sample array without changing those metrics, and aggregate
// days into display buckets.
package viewership

import "time"

// dayMillis is the length of one calendar day for fixed-offset timezones.
// Offsets are whole minutes with no DST, so every local day is exactly 24h.
const dayMillis = 24 * 60 * 60 * 1000

// DayPart is one day's share of a split interval.
type DayPart struct {
	// Day is the epoch millisecond of local midnight (see DayStart).
	Day int64
	// Duration is the portion of the interval falling on that day, in ms.
	Duration int64
}

// DayStart returns the epoch millisecond at local midnight of the day
// containing ts, for a timezone expressed as an offset in minutes from UTC.
// Every component uses this same function; cached results are invalid if it
// changes.
func DayStart(ts int64, tzOffsetMin int) int64 {
	shift := int64(tzOffsetMin) * 60 * 1000
	return floorDiv(ts+shift, dayMillis)*dayMillis - shift
}

// SplitSpan partitions [start, end) at local-midnight boundaries, returning
// one part per touched day in order. Inverted or zero-length spans yield no
// parts. Segment folding and sample folding both use this so a multi-day
// interval is attributed proportionally to each day it touches.
func SplitSpan(start, end int64, tzOffsetMin int) []DayPart {
	if end <= start {
		return nil
	}

	var parts []DayPart
	cur := start
	for cur < end {
		day := DayStart(cur, tzOffsetMin)
		next := day + dayMillis
		if next > end {
			next = end
		}
		parts = append(parts, DayPart{Day: day, Duration: next - cur})
		cur = next
	}
	return parts
}

// weekStart returns the day-start of the Sunday beginning the week that
// contains the given day-start.
func weekStart(dayStart int64, tzOffsetMin int) int64 {
	shift := int64(tzOffsetMin) * 60 * 1000
	localDay := floorDiv(dayStart+shift, dayMillis)
	// Day 0 (1970-01-01) was a Thursday, so day 3 was the first Sunday.
	sinceSunday := ((localDay-3)%7 + 7) % 7
	return dayStart - sinceSunday*dayMillis
}

// fixedZone returns the time.Location for a minute offset from UTC.
func fixedZone(tzOffsetMin int) *time.Location {
	if tzOffsetMin == 0 {
		return time.UTC
	}
	return time.FixedZone("", tzOffsetMin*60)
}

// monthStart returns the day-start of the first day of the month containing
// the given day-start.
func monthStart(dayStart int64, tzOffsetMin int) int64 {
	loc := fixedZone(tzOffsetMin)
	t := time.UnixMilli(dayStart).In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc).UnixMilli()
}

// addMonths shifts a month-start by delta calendar months.
func addMonths(monthStartMs int64, delta int, tzOffsetMin int) int64 {
	loc := fixedZone(tzOffsetMin)
	t := time.UnixMilli(monthStartMs).In(loc)
	return time.Date(t.Year(), t.Month()+time.Month(delta), 1, 0, 0, 0, 0, loc).UnixMilli()
}

// formatDay renders a day-start as its local calendar date (YYYY-MM-DD).
func formatDay(dayStart int64, tzOffsetMin int) string {
	return time.UnixMilli(dayStart).In(fixedZone(tzOffsetMin)).Format("2006-01-02")
}

// formatMonth renders a month-start as YYYY-MM.
func formatMonth(monthStartMs int64, tzOffsetMin int) string {
	return time.UnixMilli(monthStartMs).In(fixedZone(tzOffsetMin)).Format("2006-01")
}

// floorDiv divides rounding toward negative infinity, so pre-1970 timestamps
// still land on the correct day boundary.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
