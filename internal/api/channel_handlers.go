package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/airtime/internal/auth"
	"github.com/onnwee/airtime/internal/cache"
	"github.com/onnwee/airtime/internal/channel"
	"github.com/onnwee/airtime/internal/history"
	"github.com/onnwee/airtime/internal/live"
	"github.com/onnwee/airtime/internal/middleware"
	"github.com/onnwee/airtime/internal/store"
	"github.com/onnwee/airtime/internal/viewership"
)

// AnalyticsResponse is the body for GET /v1/channels/{id}/analytics.
type AnalyticsResponse struct {
	ChannelID string              `json:"channelId"`
	Period    string              `json:"period"`
	TzOffset  int                 `json:"tzOffsetMin"`
	Buckets   []viewership.Bucket `json:"buckets"`
}

// AppendSegmentRequest is the body for POST /v1/channels/{id}/history/segments.
type AppendSegmentRequest struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// AppendSampleRequest is the body for POST /v1/channels/{id}/history/samples.
type AppendSampleRequest struct {
	TS      int64  `json:"ts"`
	Live    bool   `json:"live"`
	Viewers uint32 `json:"viewers"`
}

// ChannelHandlers holds dependencies for channel HTTP handlers.
type ChannelHandlers struct {
	store       store.Store
	channels    channel.Repository
	jwt         *auth.JWTService
	broadcaster *live.Broadcaster
	compactOpts viewership.CompactOptions
	upgrader    websocket.Upgrader

	// channelCache holds recent channel lookups so analytics polling does
	// not hit the repository on every request.
	channelCache *cache.Cache[channel.Channel]

	// timeNow is injectable for deterministic aggregation tests.
	timeNow func() time.Time
}

// NewChannelHandlers creates a new ChannelHandlers instance.
func NewChannelHandlers(
	st store.Store,
	channels channel.Repository,
	jwt *auth.JWTService,
	broadcaster *live.Broadcaster,
	compactOpts viewership.CompactOptions,
) *ChannelHandlers {
	return &ChannelHandlers{
		store:       st,
		channels:    channels,
		jwt:         jwt,
		broadcaster: broadcaster,
		compactOpts: compactOpts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		channelCache: cache.New[channel.Channel](30 * time.Second),
		timeNow:      time.Now,
	}
}

// Route dispatches /v1/channels/{id} and its subresources.
func (h *ChannelHandlers) Route(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rest := strings.TrimPrefix(r.URL.Path, "/v1/channels/")
	if rest == r.URL.Path || rest == "" {
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}

	parts := strings.Split(rest, "/")
	channelID := parts[0]
	if channelID == "" {
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}

	switch {
	case len(parts) == 1:
		h.getChannel(w, r, channelID)
	case len(parts) == 2 && parts[1] == "analytics":
		h.analytics(w, r, channelID)
	case len(parts) == 2 && parts[1] == "live":
		h.liveFeed(w, r, channelID)
	case len(parts) == 3 && parts[1] == "history" && parts[2] == "segments":
		h.appendSegment(w, r, channelID)
	case len(parts) == 3 && parts[1] == "history" && parts[2] == "samples":
		h.appendSample(w, r, channelID)
	case len(parts) == 3 && parts[1] == "history" && parts[2] == "compact":
		h.compact(w, r, channelID)
	default:
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
	}
}

// authorize validates the bearer token and its channel grant.
// Returns false after writing the error response when access is denied.
func (h *ChannelHandlers) authorize(w http.ResponseWriter, r *http.Request, channelID string, needWrite bool) bool {
	ctx := r.Context()

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return false
	}

	claims, err := h.jwt.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Invalid or expired token")
		return false
	}

	if !claims.AllowsChannel(channelID) {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Token is not valid for this channel")
		return false
	}
	if needWrite && !claims.AllowsWrite() {
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Token does not grant ingest access")
		return false
	}

	middleware.SetChannelID(ctx, channelID)
	return true
}

// resolveChannel loads the channel or writes a 404.
func (h *ChannelHandlers) resolveChannel(w http.ResponseWriter, r *http.Request, channelID string) (*channel.Channel, bool) {
	if cached, ok := h.channelCache.Get(channelID); ok {
		return &cached, true
	}

	ch, err := h.channels.GetByID(channelID)
	if err != nil {
		if errors.Is(err, channel.ErrChannelNotFound) {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeChannelNotFound, "Channel not found")
			return nil, false
		}
		slog.ErrorContext(r.Context(), "channel lookup failed", "channel_id", channelID, "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load channel")
		return nil, false
	}

	h.channelCache.Set(channelID, *ch)
	return ch, true
}

// getChannel handles GET /v1/channels/{id}.
func (h *ChannelHandlers) getChannel(w http.ResponseWriter, r *http.Request, channelID string) {
	if r.Method != http.MethodGet {
		WriteError(w, r.Context(), http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	if !h.authorize(w, r, channelID, false) {
		return
	}
	ch, ok := h.resolveChannel(w, r, channelID)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, ch)
}

// analytics handles GET /v1/channels/{id}/analytics.
func (h *ChannelHandlers) analytics(w http.ResponseWriter, r *http.Request, channelID string) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	if !h.authorize(w, r, channelID, false) {
		return
	}
	ch, ok := h.resolveChannel(w, r, channelID)
	if !ok {
		return
	}

	q := r.URL.Query()

	period, err := viewership.ParsePeriod(defaultString(q.Get("period"), string(viewership.PeriodDay)))
	if err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "period must be day, week, or month")
		return
	}

	count := 7
	if raw := q.Get("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil {
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "count must be an integer")
			return
		}
	}

	tzOffset := ch.TzOffsetMin
	if raw := q.Get("tz"); raw != "" {
		tzOffset, err = strconv.Atoi(raw)
		if err != nil {
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "tz must be an offset in minutes")
			return
		}
	}

	hist, err := h.store.Load(ctx, channelID)
	if err != nil {
		slog.ErrorContext(ctx, "history load failed", "channel_id", channelID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load history")
		return
	}

	buckets, err := viewership.AggregateAt(hist, period, count, tzOffset, h.timeNow())
	if err != nil {
		// Engine usage errors map to 400; anything else is unexpected.
		if errors.Is(err, viewership.ErrInvalidPeriod) || errors.Is(err, viewership.ErrInvalidCount) {
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		slog.ErrorContext(ctx, "aggregation failed", "channel_id", channelID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to aggregate history")
		return
	}

	writeJSON(w, r, http.StatusOK, AnalyticsResponse{
		ChannelID: channelID,
		Period:    string(period),
		TzOffset:  tzOffset,
		Buckets:   buckets,
	})
}

// appendSegment handles POST /v1/channels/{id}/history/segments.
func (h *ChannelHandlers) appendSegment(w http.ResponseWriter, r *http.Request, channelID string) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	if !h.authorize(w, r, channelID, true) {
		return
	}
	if _, ok := h.resolveChannel(w, r, channelID); !ok {
		return
	}

	var req AppendSegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	seg := history.Segment{Start: req.Start, End: req.End}
	if err := store.AppendSegment(ctx, h.store, channelID, seg); err != nil {
		if errors.Is(err, store.ErrMalformedSegment) {
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "segment must satisfy 0 < start <= end")
			return
		}
		slog.ErrorContext(ctx, "segment append failed", "channel_id", channelID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to append segment")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// appendSample handles POST /v1/channels/{id}/history/samples.
func (h *ChannelHandlers) appendSample(w http.ResponseWriter, r *http.Request, channelID string) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	if !h.authorize(w, r, channelID, true) {
		return
	}
	if _, ok := h.resolveChannel(w, r, channelID); !ok {
		return
	}

	var req AppendSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	sample := history.Sample{TS: req.TS, Live: req.Live, Viewers: req.Viewers}
	if err := store.AppendSample(ctx, h.store, channelID, sample); err != nil {
		if errors.Is(err, store.ErrMalformedSample) {
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "sample must have a positive timestamp")
			return
		}
		slog.ErrorContext(ctx, "sample append failed", "channel_id", channelID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to append sample")
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast(&live.ViewerUpdate{
			ChannelID: channelID,
			TS:        sample.TS,
			Live:      sample.Live,
			Viewers:   sample.Viewers,
		})
	}

	w.WriteHeader(http.StatusAccepted)
}

// compact handles POST /v1/channels/{id}/history/compact.
func (h *ChannelHandlers) compact(w http.ResponseWriter, r *http.Request, channelID string) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	if !h.authorize(w, r, channelID, true) {
		return
	}
	if _, ok := h.resolveChannel(w, r, channelID); !ok {
		return
	}

	var result viewership.CompactResult
	err := h.store.Update(ctx, channelID, func(hist history.History) (history.History, error) {
		compacted, res := viewership.Compact(hist, h.compactOpts)
		result = res
		return compacted, nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "compaction failed", "channel_id", channelID, "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to compact history")
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// liveFeed handles GET /v1/channels/{id}/live by upgrading to a websocket
// subscribed to the channel's viewer updates.
func (h *ChannelHandlers) liveFeed(w http.ResponseWriter, r *http.Request, channelID string) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}
	if !h.authorize(w, r, channelID, false) {
		return
	}
	if _, ok := h.resolveChannel(w, r, channelID); !ok {
		return
	}
	if h.broadcaster == nil {
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Live feed is not enabled")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		slog.WarnContext(ctx, "websocket upgrade failed", "channel_id", channelID, "error", err)
		return
	}

	h.broadcaster.Subscribe(channelID, conn)

	// Reader loop detects disconnects; inbound messages are ignored.
	go func() {
		defer func() {
			h.broadcaster.Unsubscribe(conn)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
