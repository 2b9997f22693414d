package viewership

import (
	"sort"
	"time"

	"github.com/onnwee/airtime/internal/history"
)

// DefaultMaxInterval caps the gap between retained samples when no explicit
// interval is configured.
const DefaultMaxInterval = 15 * time.Minute

// CompactOptions configures sample compaction.
type CompactOptions struct {
	// MaxInterval is the longest allowed gap between two retained samples
	// inside a redundant run. Zero or negative selects DefaultMaxInterval.
	MaxInterval time.Duration
}

// CompactResult reports the sample counts before and after compaction.
type CompactResult struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// Compact shrinks a history's sample array while preserving every derived
// day metric. The input is not mutated; the caller receives a new History
// and is responsible for persisting it.
//
// A sample is dropped when it repeats the previous retained observation
// (same live flag, same viewer count) and dropping it still leaves the next
// sample within MaxInterval of the previous retained one, so redundant runs
// collapse to periodic checkpoints. Segments are never touched. After the
// walk, every segment end without a live=false sample at or after it gets a
// synthetic terminating sample, so the zero-order-hold model never extends a
// live window past a known segment boundary and never leaves a dangling live
// tail.
//
// Compacting an already-compacted history with the same options is a no-op.
func Compact(h history.History, opts CompactOptions) (history.History, CompactResult) {
	maxMs := opts.MaxInterval.Milliseconds()
	if maxMs <= 0 {
		maxMs = DefaultMaxInterval.Milliseconds()
	}

	samples, _ := validSortedSamples(h.Samples)

	retained := make([]history.Sample, 0, len(samples))
	for i, s := range samples {
		if len(retained) > 0 {
			last := retained[len(retained)-1]
			if s.Live == last.Live && s.Viewers == last.Viewers {
				// Redundant. Droppable unless keeping it is needed to cap
				// the gap to the next decision point. The final sample is
				// always retained: it bounds its predecessor's hold window,
				// so removing it would erase observed live time.
				if i+1 < len(samples) && samples[i+1].TS-last.TS <= maxMs {
					continue
				}
			}
		}
		retained = append(retained, s)
	}

	// Boundary repair: every segment end must be followed (at or after it)
	// by an offline sample, otherwise a live tail would hold past the end
	// of confirmed liveness.
	for _, seg := range h.Segments {
		if !seg.Valid() {
			continue
		}
		terminated := false
		for _, s := range retained {
			if s.TS >= seg.End && !s.Live {
				terminated = true
				break
			}
		}
		if !terminated {
			retained = append(retained, history.Sample{TS: seg.End, Live: false, Viewers: 0})
		}
	}

	// Synthetic samples may interleave with existing ones.
	sort.SliceStable(retained, func(i, j int) bool {
		return retained[i].TS < retained[j].TS
	})

	out := history.History{Samples: retained}
	if h.Segments != nil {
		out.Segments = make([]history.Segment, len(h.Segments))
		copy(out.Segments, h.Segments)
	}

	return out, CompactResult{Before: len(h.Samples), After: len(retained)}
}
