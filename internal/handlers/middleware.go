package handlers

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"weather-station-api/internal/models"
	"weather-station-api/pkg/logging"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestIDMiddleware mints a request ID and stores it in the context so
// every log line of the request carries it.
func (h *APIHandler) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), logging.RequestIDKey, uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware opens cross-origin access for read-only requests only.
func (h *APIHandler) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records per-request counters and durations.
func (h *APIHandler) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		h.metrics.APIRequestDuration.WithLabelValues(r.URL.Path).Observe(duration.Seconds())
		h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(rec.status))

		h.logger.Debug(r.Context(), "[API_REQUEST] Request served", logging.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": duration.Milliseconds(),
		})
	})
}

// authFromRequest gathers the credential material of a request: the session
// cookie, the API key header, the canonicalised peer IP and the User-Agent.
func authFromRequest(r *http.Request) *models.AuthMaterial {
	m := &models.AuthMaterial{
		APIKey:    r.Header.Get("X-API-KEY"),
		UserAgent: r.Header.Get("User-Agent"),
		PeerIP:    peerIP(r.RemoteAddr),
	}

	if c, err := r.Cookie("sessiontoken"); err == nil {
		m.SessionToken = c.Value
	}

	return m
}

// peerIP canonicalises a RemoteAddr: the port is stripped and IPv4-mapped
// IPv6 addresses are unwrapped to plain IPv4.
func peerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return "0.0.0.0"
	}

	if v4 := ip.To4(); v4 != nil {
		return v4.String()
	}

	return ip.String()
}
