package viewership

import (
	"errors"
	"time"

	"github.com/onnwee/airtime/internal/history"
)

// Period selects the calendar granularity of aggregation buckets.
type Period string

// Supported aggregation periods.
const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Usage errors. These indicate a bad request, not bad data; handlers map
// them to 4xx responses.
var (
	// ErrInvalidPeriod is returned for a period other than day, week or month.
	ErrInvalidPeriod = errors.New("period must be one of day, week, month")

	// ErrInvalidCount is returned when the requested bucket count is not positive.
	ErrInvalidCount = errors.New("count must be a positive integer")
)

// ParsePeriod validates a raw period string.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return Period(s), nil
	}
	return "", ErrInvalidPeriod
}

// Bucket is one display-ready aggregation period. Date and Epoch identify
// the anchor day the bucket is charted against; BucketStartEpoch and the
// range dates identify its true calendar span. The anchor is the most recent
// active day in the window, so a week with a single stream charts against
// the day it actually happened rather than an empty week start.
type Bucket struct {
	Date             string  `json:"date"`
	BucketLabel      string  `json:"bucketLabel"`
	RangeStartDate   string  `json:"rangeStartDate"`
	RangeEndDate     string  `json:"rangeEndDate"`
	BucketStartEpoch int64   `json:"bucketStartEpoch"`
	Epoch            int64   `json:"epoch"`
	Hours            float64 `json:"hours"`
	AvgViewers       float64 `json:"avgViewers"`
}

// Aggregate folds a history into the count most recent period buckets ending
// at wall-clock now, in chronological order (most recent last). Windows are
// pinned to the clock rather than the latest data point so a dormant
// channel's dashboard still ends at the current period.
func Aggregate(h history.History, period Period, count, tzOffsetMin int) ([]Bucket, error) {
	return AggregateAt(h, period, count, tzOffsetMin, time.Now())
}

// AggregateAt is Aggregate with an explicit reference time.
func AggregateAt(h history.History, period Period, count, tzOffsetMin int, now time.Time) ([]Bucket, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, ErrInvalidCount
	}

	metrics := DailyMetrics(h, tzOffsetMin)
	nowDay := DayStart(now.UnixMilli(), tzOffsetMin)

	buckets := make([]Bucket, 0, count)
	for k := count - 1; k >= 0; k-- {
		var start, end int64 // window span in ms, end exclusive
		var label string
		switch period {
		case PeriodDay:
			start = nowDay - int64(k)*dayMillis
			end = start + dayMillis
			label = formatDay(start, tzOffsetMin)
		case PeriodWeek:
			start = weekStart(nowDay, tzOffsetMin) - int64(k)*7*dayMillis
			end = start + 7*dayMillis
			label = formatDay(start, tzOffsetMin)
		case PeriodMonth:
			start = addMonths(monthStart(nowDay, tzOffsetMin), -k, tzOffsetMin)
			end = addMonths(start, 1, tzOffsetMin)
			label = formatMonth(start, tzOffsetMin)
		}
		buckets = append(buckets, windowBucket(metrics, start, end, label, tzOffsetMin))
	}
	return buckets, nil
}

// windowBucket sums a window's day metrics and picks its anchor day.
func windowBucket(metrics map[int64]DayMetric, start, end int64, label string, tzOffsetMin int) Bucket {
	var hours, weight, weightedViewers float64
	anchor := int64(-1)
	for day := start; day < end; day += dayMillis {
		m, ok := metrics[day]
		if !ok {
			continue
		}
		hours += m.Hours
		// Weight each day's average by its observed live time so
		// low-activity days don't bias the window figure.
		weight += m.LiveSeconds
		weightedViewers += m.AvgViewers * m.LiveSeconds
		if m.Hours > 0 {
			anchor = day // most recent active day wins
		}
	}

	avg := 0.0
	if weight > 0 {
		avg = weightedViewers / weight
	}
	if anchor < 0 {
		// Nothing happened in this window; chart it against its own start.
		anchor = start
	}

	return Bucket{
		Date:             formatDay(anchor, tzOffsetMin),
		BucketLabel:      label,
		RangeStartDate:   formatDay(start, tzOffsetMin),
		RangeEndDate:     formatDay(end-dayMillis, tzOffsetMin),
		BucketStartEpoch: start,
		Epoch:            anchor,
		Hours:            hours,
		AvgViewers:       avg,
	}
}
