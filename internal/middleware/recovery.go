package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"confidant/internal/httputil"
)

// Recovery converts handler panics into 500 problem responses. A panic
// inside a streaming handler may fire after the response already started;
// in that case no status line is left to send and the connection is simply
// cut, which SSE clients treat as a dropped stream.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := &writeTracker{ResponseWriter: w}

			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic in handler",
						"method", r.Method,
						"path", r.URL.Path,
						"error", err,
						"stack", string(debug.Stack()),
					)

					if !ww.wrote {
						httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
					}
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// writeTracker remembers whether the wrapped response has been written to.
type writeTracker struct {
	http.ResponseWriter
	wrote bool
}

func (t *writeTracker) WriteHeader(code int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *writeTracker) Write(b []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(b)
}

// Flush passes through so SSE handlers still see a flushable connection.
func (t *writeTracker) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
