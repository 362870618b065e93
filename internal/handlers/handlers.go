// Package handlers wires the URL patterns to the resource services: it
// extracts auth material and typed parameters from the request, decodes JSON
// bodies, invokes one service per request and maps the outcome code to an
// HTTP response.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"weather-station-api/internal/services"
	"weather-station-api/pkg/logging"
	"weather-station-api/pkg/metrics"
)

// MaxBodySize bounds JSON request bodies.
const MaxBodySize = 16384

// APIHandler handles all REST endpoints
type APIHandler struct {
	users    *services.UserService
	sessions *services.SessionService
	stations *services.StationService
	apiKeys  *services.APIKeyService
	weather  *services.WeatherService
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(
	users *services.UserService,
	sessions *services.SessionService,
	stations *services.StationService,
	apiKeys *services.APIKeyService,
	weather *services.WeatherService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *APIHandler {
	return &APIHandler{
		users:    users,
		sessions: sessions,
		stations: stations,
		apiKeys:  apiKeys,
		weather:  weather,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// RegisterRoutes registers all API routes
func (h *APIHandler) RegisterRoutes(router *mux.Router) {
	router.Use(h.requestIDMiddleware)
	router.Use(h.corsMiddleware)
	router.Use(h.metricsMiddleware)

	router.HandleFunc("/users", h.CreateUser).Methods("POST")
	router.HandleFunc("/users", h.ListUsers).Methods("GET")
	router.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	router.HandleFunc("/users/{id}", h.PatchUser).Methods("PATCH")
	router.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")

	router.HandleFunc("/users/{id}/sessions", h.CreateSession).Methods("POST")
	router.HandleFunc("/users/{id}/sessions", h.ListSessions).Methods("GET")
	router.HandleFunc("/users/{id}/sessions/{sessionUUID}", h.GetSession).Methods("GET")
	router.HandleFunc("/users/{id}/sessions/{sessionUUID}", h.DeleteSession).Methods("DELETE")

	router.HandleFunc("/users/{id}/api-keys", h.CreateAPIKey).Methods("POST")
	router.HandleFunc("/users/{id}/api-keys", h.ListAPIKeys).Methods("GET")
	router.HandleFunc("/users/{id}/api-keys/{keyId}", h.GetAPIKey).Methods("GET")
	router.HandleFunc("/users/{id}/api-keys/{keyId}", h.DeleteAPIKey).Methods("DELETE")

	router.HandleFunc("/stations", h.CreateStation).Methods("POST")
	router.HandleFunc("/stations", h.ListStations).Methods("GET")
	router.HandleFunc("/stations/{stationRef}", h.GetStation).Methods("GET")
	router.HandleFunc("/stations/{stationRef}/weather-data", h.GetWeatherData).Methods("GET")

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(h.notFound)
}

// HealthCheck handles GET /health
func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]string{"status": "healthy"}, http.StatusOK)
}

func (h *APIHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, map[string]string{"error": "Resource not found"}, http.StatusNotFound)
}

// httpStatus maps a service outcome to an HTTP status. Success depends on
// the method: POST creates, DELETE has no content, everything else is 200.
func httpStatus(code services.Status, method string) int {
	if code == services.StatusOK {
		switch method {
		case http.MethodPost:
			return http.StatusCreated
		case http.MethodDelete:
			return http.StatusNoContent
		default:
			return http.StatusOK
		}
	}

	switch code {
	case services.StatusInvalidParams:
		return http.StatusBadRequest
	case services.StatusAuthError:
		return http.StatusUnauthorized
	case services.StatusForbidden:
		return http.StatusForbidden
	case services.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// statusMessage is the frozen error body text per outcome.
func statusMessage(code services.Status) string {
	switch code {
	case services.StatusInvalidParams:
		return "Invalid parameters"
	case services.StatusAuthError:
		return "Authentication error"
	case services.StatusForbidden:
		return "Forbidden"
	case services.StatusNotFound:
		return "Resource not found"
	case services.StatusDBError:
		return "Database error"
	case services.StatusJSONError:
		return "Json parsing error"
	case services.StatusMemoryError:
		return "Memory error"
	default:
		return "Internal server error"
	}
}

// sendJSON sends a JSON response
func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil && statusCode != http.StatusNoContent {
		json.NewEncoder(w).Encode(data)
	}
}

// sendStatus terminates the request with the outcome's HTTP mapping. On
// success the payload is written; on failure the frozen {"error": ...} body.
func (h *APIHandler) sendStatus(w http.ResponseWriter, r *http.Request, code services.Status, payload interface{}) {
	status := httpStatus(code, r.Method)

	if code == services.StatusOK {
		h.sendJSON(w, payload, status)
		return
	}

	if code == services.StatusDBError || code == services.StatusJSONError || code == services.StatusMemoryError {
		h.metrics.RecordAPIError(code.String(), r.URL.Path)
	}

	h.sendJSON(w, map[string]string{"error": statusMessage(code)}, status)
}

// decodeBody JSON-decodes a bounded request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return false
	}
	return true
}
