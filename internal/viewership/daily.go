package viewership

import (
	"log/slog"
	"sort"

	"github.com/onnwee/airtime/internal/history"
)

// DayMetric is the derived statistic record for one calendar day. It is
// computed fresh on every read and never persisted.
type DayMetric struct {
	// Day is the tz-adjusted day start in epoch milliseconds.
	Day int64
	// Hours of confirmed liveness, derived from segments only.
	Hours float64
	// AvgViewers is the time-weighted average viewer count while live,
	// derived from samples only.
	AvgViewers float64
	// LiveSeconds is the total sample-observed live time backing AvgViewers.
	// Window aggregation weights each day's average by this figure.
	LiveSeconds float64
}

// DailyMetrics folds a history into one DayMetric per calendar day touched by
// any segment or live sample interval.
//
// Hours and AvgViewers are independent statistics computed from two different
// ground truths: segments say whether the stream was live, samples say how
// many watched while it was. They are allowed to disagree slightly on
// boundaries; neither is ever derived from the other.
//
// Malformed records are skipped so a single bad append cannot blank out a
// channel's entire history view.
func DailyMetrics(h history.History, tzOffsetMin int) map[int64]DayMetric {
	liveMs := make(map[int64]int64)
	viewerSeconds := make(map[int64]float64)
	liveSeconds := make(map[int64]float64)

	skippedSegments := 0
	for _, seg := range h.Segments {
		if !seg.Valid() {
			skippedSegments++
			continue
		}
		for _, part := range SplitSpan(seg.Start, seg.End, tzOffsetMin) {
			liveMs[part.Day] += part.Duration
		}
	}

	samples, skippedSamples := validSortedSamples(h.Samples)
	for i, s := range samples {
		if !s.Live {
			continue
		}
		// Zero-order hold: the observation is in effect until the next
		// sample. A trailing sample has no successor and contributes a
		// zero-length window; the compactor's boundary repair keeps such
		// tails from swallowing real live time.
		windowEnd := s.TS
		if i+1 < len(samples) {
			windowEnd = samples[i+1].TS
		}
		for _, part := range SplitSpan(s.TS, windowEnd, tzOffsetMin) {
			sec := float64(part.Duration) / 1000
			viewerSeconds[part.Day] += float64(s.Viewers) * sec
			liveSeconds[part.Day] += sec
		}
	}

	if skippedSegments > 0 || skippedSamples > 0 {
		slog.Warn("skipped malformed history records",
			"segments", skippedSegments,
			"samples", skippedSamples,
		)
	}

	metrics := make(map[int64]DayMetric, len(liveMs))
	for day, ms := range liveMs {
		m := metrics[day]
		m.Day = day
		m.Hours = float64(ms) / (60 * 60 * 1000)
		metrics[day] = m
	}
	for day, sec := range liveSeconds {
		m := metrics[day]
		m.Day = day
		m.LiveSeconds = sec
		if sec > 0 {
			m.AvgViewers = viewerSeconds[day] / sec
		}
		metrics[day] = m
	}
	return metrics
}

// validSortedSamples returns the well-formed samples ordered by timestamp,
// plus the number skipped. Both the metrics fold and the compactor filter
// through here so they agree on which neighbors define hold windows.
func validSortedSamples(samples []history.Sample) ([]history.Sample, int) {
	out := make([]history.Sample, 0, len(samples))
	skipped := 0
	for _, s := range samples {
		if !s.Valid() {
			skipped++
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TS < out[j].TS
	})
	return out, skipped
}
