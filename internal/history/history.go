// Package history defines the per-channel presence/viewership record model.
// A channel's history is the raw material for all analytics: segments record
// when the stream was confirmed live, samples record point-in-time viewer
// observations.
package history

// Segment is a contiguous interval during which the stream was confirmed live.
// Timestamps are epoch milliseconds. Segments are logically append-only; they
// are never removed or altered by compaction.
type Segment struct {
	Start int64 `json:"start" cbor:"1,keyasint"`
	End   int64 `json:"end" cbor:"2,keyasint"`
}

// Valid reports whether the segment is well-formed: positive timestamps and
// End not before Start. Malformed segments are skipped by the analytics
// engine rather than failing the whole history.
func (s Segment) Valid() bool {
	return s.Start > 0 && s.End >= s.Start
}

// Sample is a point-in-time viewer observation. Its value applies from TS
// until the TS of the next sample (zero-order hold). Viewers is meaningful
// only while Live is true.
type Sample struct {
	TS      int64  `json:"ts" cbor:"1,keyasint"`
	Live    bool   `json:"live" cbor:"2,keyasint"`
	Viewers uint32 `json:"viewers" cbor:"3,keyasint"`
}

// Valid reports whether the sample has a usable timestamp.
func (s Sample) Valid() bool {
	return s.TS > 0
}

// History is the full recorded liveness history of one channel. Segments are
// authoritative for "was it live"; samples are authoritative for "how many
// viewers while live". The two are deliberately independent statistics and
// are never cross-derived.
type History struct {
	Segments []Segment `json:"segments" cbor:"1,keyasint"`
	Samples  []Sample  `json:"samples" cbor:"2,keyasint"`
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate shared state.
func (h History) Clone() History {
	c := History{}
	if h.Segments != nil {
		c.Segments = make([]Segment, len(h.Segments))
		copy(c.Segments, h.Segments)
	}
	if h.Samples != nil {
		c.Samples = make([]Sample, len(h.Samples))
		copy(c.Samples, h.Samples)
	}
	return c
}

// Empty reports whether the history contains no records at all.
func (h History) Empty() bool {
	return len(h.Segments) == 0 && len(h.Samples) == 0
}
