package rest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/accolade/internal/logger"
	"github.com/fortuna/accolade/internal/metrics"
)

type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func requestID(incoming string) string {
	if requestIDPattern.MatchString(incoming) {
		return incoming
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

// routeName is the matched mux template so metrics do not explode on ids.
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// RecoveryMiddleware turns a panic into a 500.
func RecoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithFields(map[string]interface{}{
						"panic": fmt.Sprint(rec),
						"path":  r.URL.Path,
						"stack": string(debug.Stack()),
					}).Error("recovered from panic")
					respondError(w, http.StatusInternalServerError, "internal server error", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs every request with its status and duration and
// records request metrics.
func LoggingMiddleware(log *logger.Logger, rec *metrics.Recorder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := requestID(r.Header.Get("X-Request-ID"))
			w.Header().Set("X-Request-ID", reqID)

			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			route := routeName(r)
			rec.RecordHTTPRequest(r.Method, route, ww.status, duration)

			entry := log.WithFields(map[string]interface{}{
				"request_id":  reqID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       route,
				"status":      ww.status,
				"duration_ms": duration.Milliseconds(),
			})
			if ww.status >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Debug("request complete")
		})
	}
}

// CORSMiddleware allows read access from any origin.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
