package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"weather-station-api/internal/models"
	"weather-station-api/internal/query"
	"weather-station-api/internal/services"
	"weather-station-api/pkg/validate"
)

// stationRef extracts and syntax-checks the {stationRef} path parameter,
// which accepts a UUID or a station name.
func stationRef(r *http.Request) (string, bool) {
	ref := mux.Vars(r)["stationRef"]
	if validate.UUID(ref) || validate.Name(ref) {
		return ref, true
	}
	return "", false
}

// CreateStation handles POST /stations
func (h *APIHandler) CreateStation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStationRequest
	if !decodeBody(w, r, &req) {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	station, code := h.stations.Create(r.Context(), req.Name, req.Lon, req.Lat,
		req.Altitude, authFromRequest(r))
	h.sendStatus(w, r, code, station)
}

// ListStations handles GET /stations
func (h *APIHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations, code := h.stations.List(r.Context(), nil)
	h.sendStatus(w, r, code, stations)
}

// GetStation handles GET /stations/{stationRef}
func (h *APIHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	ref, ok := stationRef(r)
	if !ok {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	station, code := h.stations.List(r.Context(), &ref)
	h.sendStatus(w, r, code, station)
}

// GetWeatherData handles GET /stations/{stationRef}/weather-data with the
// query parameters granularity, start_time, end_time, timezone and fields
// (a comma-separated field list folded into the projection bitmask).
func (h *APIHandler) GetWeatherData(w http.ResponseWriter, r *http.Request) {
	ref, ok := stationRef(r)
	if !ok {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	params := r.URL.Query()
	granularity := params.Get("granularity")
	startTime := params.Get("start_time")
	endTime := params.Get("end_time")
	timezone := params.Get("timezone")
	fieldsCSV := params.Get("fields")

	if granularity == "" || timezone == "" || fieldsCSV == "" {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}
	if !validate.Timestamp(startTime) || !validate.Timestamp(endTime) {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	fields, ok := query.ParseFields(fieldsCSV)
	if !ok {
		h.sendStatus(w, r, services.StatusInvalidParams, nil)
		return
	}

	data, code := h.weather.List(r.Context(), fields, granularity, ref, timezone, startTime, endTime)
	h.sendStatus(w, r, code, data)
}
