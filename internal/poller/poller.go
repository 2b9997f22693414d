package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/onnwee/airtime/internal/channel"
	"github.com/onnwee/airtime/internal/history"
	"github.com/onnwee/airtime/internal/live"
	"github.com/onnwee/airtime/internal/store"
	"github.com/onnwee/airtime/internal/tracing"
	"github.com/onnwee/airtime/internal/viewership"
)

// Status is a point-in-time observation of a channel.
type Status struct {
	Live    bool
	Viewers uint32
}

// StatusSource reports the current status of a channel.
type StatusSource interface {
	Status(ctx context.Context, channelID string) (Status, error)
}

// Archiver exports a channel's history snapshot to cold storage.
type Archiver interface {
	Export(ctx context.Context, channelID string, h history.History) error
}

// Options configures a Poller.
type Options struct {
	// Interval between poll cycles.
	Interval time.Duration

	// CompactEvery is the number of poll cycles between compactions.
	// Zero disables periodic compaction.
	CompactEvery int

	// CompactMaxInterval is passed through to the compactor.
	CompactMaxInterval time.Duration
}

// Poller samples channel status on a fixed interval and appends the
// observations to each channel's history.
type Poller struct {
	source      StatusSource
	store       store.Store
	channels    channel.Repository
	broadcaster *live.Broadcaster
	archiver    Archiver
	metrics     *Metrics
	logger      *slog.Logger
	opts        Options

	ticks int

	timeNow func() time.Time
}

// New creates a Poller. broadcaster and archiver may be nil.
func New(source StatusSource, st store.Store, channels channel.Repository, broadcaster *live.Broadcaster, archiver Archiver, metrics *Metrics, logger *slog.Logger, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.CompactMaxInterval <= 0 {
		opts.CompactMaxInterval = viewership.DefaultMaxInterval
	}
	return &Poller{
		source:      source,
		store:       st,
		channels:    channels,
		broadcaster: broadcaster,
		archiver:    archiver,
		metrics:     metrics,
		logger:      logger,
		opts:        opts,
		timeNow:     time.Now,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	p.logger.Info("poller started",
		"interval", p.opts.Interval.String(),
		"compact_every", p.opts.CompactEvery,
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs a single poll cycle over all enabled channels.
func (p *Poller) Poll(ctx context.Context) {
	start := p.timeNow()

	channels, err := p.channels.ListEnabled()
	if err != nil {
		p.logger.Error("failed to list channels", "error", err)
		p.metrics.IncPolls(StatusFailure)
		return
	}

	now := start.UnixMilli()
	for _, ch := range channels {
		if err := p.pollChannel(ctx, ch.ID, now); err != nil {
			p.logger.Error("poll failed", "channel_id", ch.ID, "error", err)
			p.metrics.IncPolls(StatusFailure)
			continue
		}
		p.metrics.IncPolls(StatusSuccess)
	}

	p.ticks++
	if p.opts.CompactEvery > 0 && p.ticks%p.opts.CompactEvery == 0 {
		p.compactAll(ctx, channels)
	}

	p.metrics.ObservePollDuration(p.timeNow().Sub(start).Seconds())
}

// pollChannel fetches the channel status and records it.
func (p *Poller) pollChannel(ctx context.Context, channelID string, now int64) error {
	status, err := p.source.Status(ctx, channelID)
	if err != nil {
		return fmt.Errorf("status fetch: %w", err)
	}

	err = p.store.Update(ctx, channelID, func(h history.History) (history.History, error) {
		return p.record(h, now, status), nil
	})
	if err != nil {
		return fmt.Errorf("history update: %w", err)
	}
	p.metrics.IncSamplesAppended()

	if p.broadcaster != nil {
		p.broadcaster.Broadcast(&live.ViewerUpdate{
			ChannelID: channelID,
			TS:        now,
			Live:      status.Live,
			Viewers:   status.Viewers,
		})
	}
	return nil
}

// record appends the observation to the history and maintains segments.
// A live observation extends the last segment when the gap since its end is
// small enough to be a missed tick or two; otherwise it opens a new segment.
// This keeps segment handling stateless across poller restarts.
func (p *Poller) record(h history.History, now int64, status Status) history.History {
	viewers := status.Viewers
	if !status.Live {
		viewers = 0
	}
	h.Samples = append(h.Samples, history.Sample{TS: now, Live: status.Live, Viewers: viewers})

	if status.Live {
		gapTolerance := 2 * p.opts.Interval.Milliseconds()
		n := len(h.Segments)
		if n > 0 && now-h.Segments[n-1].End <= gapTolerance && now >= h.Segments[n-1].End {
			h.Segments[n-1].End = now
		} else {
			h.Segments = append(h.Segments, history.Segment{Start: now, End: now})
		}
	}
	return h
}

// compactAll compacts every channel's history.
// The pre-compaction history is archived first, so the raw samples that
// compaction drops survive in cold storage.
func (p *Poller) compactAll(ctx context.Context, channels []*channel.Channel) {
	ctx, endSpan := tracing.StartSpan(ctx, "compact_histories")
	defer endSpan(nil)

	opts := viewership.CompactOptions{MaxInterval: p.opts.CompactMaxInterval}

	for _, ch := range channels {
		var result viewership.CompactResult
		var snapshot history.History

		err := p.store.Update(ctx, ch.ID, func(h history.History) (history.History, error) {
			snapshot = h.Clone()
			compacted, res := viewership.Compact(h, opts)
			result = res
			return compacted, nil
		})
		if err != nil {
			p.logger.Error("compaction failed", "channel_id", ch.ID, "error", err)
			continue
		}

		dropped := result.Before - result.After
		p.metrics.ObserveCompaction(dropped)
		p.logger.Debug("history compacted",
			"channel_id", ch.ID,
			"before", result.Before,
			"after", result.After,
		)

		if p.archiver != nil {
			if err := p.archiver.Export(ctx, ch.ID, snapshot); err != nil {
				p.logger.Error("archive export failed", "channel_id", ch.ID, "error", err)
			}
		}
	}
}
