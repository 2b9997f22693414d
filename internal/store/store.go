// Package store persists each channel's presence/viewership history blob.
// The analytics engine itself performs no I/O; stores own the
// read-modify-write cycle and serialize it per channel.
package store

import (
	"context"
	"errors"

	"github.com/onnwee/airtime/internal/history"
)

// Store errors.
var (
	// ErrMalformedSegment is returned when an appended segment fails shape validation.
	ErrMalformedSegment = errors.New("segment is malformed")

	// ErrMalformedSample is returned when an appended sample fails shape validation.
	ErrMalformedSample = errors.New("sample is malformed")
)

// Store is the persistence interface for per-channel histories.
//
// Load returns an empty history for a channel that has never been written;
// histories come into existence on first append. Update applies fn to the
// channel's current history and persists the result; implementations
// serialize Update calls per channel, so fn runs with exclusive ownership of
// the value it receives.
type Store interface {
	Load(ctx context.Context, channelID string) (history.History, error)
	Save(ctx context.Context, channelID string, h history.History) error
	Update(ctx context.Context, channelID string, fn func(history.History) (history.History, error)) error

	// Channels lists every channel with a persisted history, sorted.
	Channels(ctx context.Context) ([]string, error)
}

// AppendSegment validates and appends one live segment to a channel's
// history. Shape validation only; provenance is the poller's problem.
func AppendSegment(ctx context.Context, s Store, channelID string, seg history.Segment) error {
	if !seg.Valid() {
		return ErrMalformedSegment
	}
	return s.Update(ctx, channelID, func(h history.History) (history.History, error) {
		h.Segments = append(h.Segments, seg)
		return h, nil
	})
}

// AppendSample validates and appends one viewer sample to a channel's history.
func AppendSample(ctx context.Context, s Store, channelID string, sample history.Sample) error {
	if !sample.Valid() {
		return ErrMalformedSample
	}
	return s.Update(ctx, channelID, func(h history.History) (history.History, error) {
		h.Samples = append(h.Samples, sample)
		return h, nil
	})
}
