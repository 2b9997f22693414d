package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

// channelIDKey is the context key for the channel ID holder.
type channelIDKey struct{}

// errorCodeKey is the context key for the error code holder.
type errorCodeKey struct{}

// stringHolder lets handlers publish a value to the logging middleware
// without threading a derived context back up the chain.
type stringHolder struct {
	mu  sync.Mutex
	val string
}

func (h *stringHolder) set(val string) {
	h.mu.Lock()
	h.val = val
	h.mu.Unlock()
}

func (h *stringHolder) get() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.val
}

func setHolder(ctx context.Context, key any, val string) context.Context {
	if holder, ok := ctx.Value(key).(*stringHolder); ok {
		holder.set(val)
		return ctx
	}
	return context.WithValue(ctx, key, &stringHolder{val: val})
}

func getHolder(ctx context.Context, key any) string {
	if holder, ok := ctx.Value(key).(*stringHolder); ok {
		return holder.get()
	}
	return ""
}

// SetChannelID stores the channel ID in the context.
// Handlers call this once they have resolved the channel from the path.
// When the Logging middleware is installed the value is written through to it,
// so the returned context does not need to reach the middleware.
func SetChannelID(ctx context.Context, id string) context.Context {
	return setHolder(ctx, channelIDKey{}, id)
}

// GetChannelID retrieves the channel ID from context. Returns empty string if not present.
func GetChannelID(ctx context.Context) string {
	return getHolder(ctx, channelIDKey{})
}

// SetErrorCode stores an error code in the context.
// This should be called by handlers when returning error responses.
// When the Logging middleware is installed the code is written through to it,
// so the returned context does not need to reach the middleware.
func SetErrorCode(ctx context.Context, code string) context.Context {
	return setHolder(ctx, errorCodeKey{}, code)
}

// GetErrorCode retrieves the error code from context. Returns empty string if not present.
func GetErrorCode(ctx context.Context) string {
	return getHolder(ctx, errorCodeKey{})
}

// responseWriter wraps http.ResponseWriter to capture status code and response size.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
// Only the first call sets the status code; subsequent calls are ignored
// to match http.ResponseWriter behavior where only the first status is sent.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// newResponseWriter creates a new responseWriter with default 200 status.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// NewLogger creates an slog.Logger based on the environment.
// In production (env == "production"), it returns a JSON handler.
// Otherwise, it returns a text handler for development.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}
	return slog.New(handler)
}

// Logging is a middleware that logs HTTP requests with structured fields.
// It captures: method, path, status, latency (ms), request ID, channel ID
// (if present), response size, and error_code (for error responses).
//
// Note: If a handler panics, the log entry will not be written. To ensure logging
// even on panics, place a recovery middleware outside of the logging middleware.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Install holders so handlers can publish the channel ID and
			// error code for this log entry via SetChannelID/SetErrorCode.
			ctx := r.Context()
			if _, ok := ctx.Value(errorCodeKey{}).(*stringHolder); !ok {
				ctx = context.WithValue(ctx, errorCodeKey{}, &stringHolder{})
			}
			if _, ok := ctx.Value(channelIDKey{}).(*stringHolder); !ok {
				ctx = context.WithValue(ctx, channelIDKey{}, &stringHolder{})
			}
			r = r.WithContext(ctx)

			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			latency := time.Since(start).Milliseconds()

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Int64("latency_ms", latency),
				slog.Int("size", rw.size),
			}

			if requestID := GetRequestID(r.Context()); requestID != "" {
				attrs = append(attrs, slog.String("request_id", requestID))
			}

			if channelID := GetChannelID(r.Context()); channelID != "" {
				attrs = append(attrs, slog.String("channel_id", channelID))
			}

			// Add error code for error responses (4xx and 5xx)
			if rw.statusCode >= 400 {
				if errorCode := GetErrorCode(r.Context()); errorCode != "" {
					attrs = append(attrs, slog.String("error_code", errorCode))
				}
			}

			if rw.statusCode >= 500 {
				logger.LogAttrs(r.Context(), slog.LevelError, "request completed", attrs...)
			} else if rw.statusCode >= 400 {
				logger.LogAttrs(r.Context(), slog.LevelWarn, "request completed", attrs...)
			} else {
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
			}
		})
	}
}
