package services

import (
	"context"
	"fmt"

	"weather-station-api/internal/auth"
	"weather-station-api/internal/models"
	"weather-station-api/pkg/codec"
	"weather-station-api/pkg/database"
	"weather-station-api/pkg/logging"
	"weather-station-api/pkg/metrics"
	"weather-station-api/pkg/validate"
)

// StationService handles weather station operations
type StationService struct {
	pool    *database.Pool
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStationService creates a new station service
func NewStationService(pool *database.Pool, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StationService {
	return &StationService{
		pool:    pool,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Create registers a station owned by the session's user. The INSERT...SELECT
// enforces the per-user quota atomically: zero rows inserted means the quota
// was exhausted and the caller gets StatusForbidden. max_stations = -1 lifts
// the quota.
func (s *StationService) Create(ctx context.Context, name string, lon, lat, alt float64, authData *models.AuthMaterial) (interface{}, Status) {
	if authData == nil || authData.SessionToken == "" || name == "" {
		return nil, StatusAuthError
	}

	if !validate.Name(name) {
		return nil, StatusInvalidParams
	}

	conn := s.pool.Acquire()
	defer s.pool.Release(conn)

	userUUID, ok := auth.UserUUIDForToken(ctx, conn, authData.SessionToken)
	s.metrics.RecordCredentialOp("resolve_session_user", ok)
	if !ok {
		return nil, StatusAuthError
	}

	location := fmt.Sprintf("SRID=4326;POINTZ(%f %f %f)", lon, lat, alt)

	rows, err := conn.QueryxContext(ctx, "stations_create",
		`WITH new_station AS (
		   INSERT INTO stations.stations (user_id, name, location)
		   SELECT u.user_id, $1, ST_GeogFromText($2)
		   FROM auth.users u
		   WHERE u.uuid::text = $3
		     AND (u.max_stations = -1 OR (SELECT COUNT(*)
		         FROM stations.stations s
		         WHERE s.user_id = u.user_id AND s.deleted_at IS NULL) < u.max_stations)
		   RETURNING uuid, name,
		             ST_X(location::geometry) AS lon,
		             ST_Y(location::geometry) AS lat,
		             COALESCE(ST_Z(location::geometry), 0) AS alt
		 )
		 SELECT uuid, name, lon, lat, alt FROM new_station;`,
		name, location, userUUID)
	if err != nil {
		return nil, StatusDBError
	}
	defer rows.Close()

	result, err := codec.RowsToJSON(rows, true)
	if err != nil {
		return nil, StatusJSONError
	}
	if isEmpty(result) {
		return nil, StatusForbidden
	}

	s.logger.Info(ctx, "[STATIONS_CREATE] Station created", logging.Fields{
		"name":      name,
		"user_uuid": userUUID,
	})

	return result, StatusOK
}

// List returns the non-deleted stations, narrowed to one station (returned
// as an object) when stationRef is given. The endpoint is public.
func (s *StationService) List(ctx context.Context, stationRef *string) (interface{}, Status) {
	conn := s.pool.Acquire()
	defer s.pool.Release(conn)

	rows, err := conn.QueryxContext(ctx, "stations_list",
		`SELECT
		 uuid,
		 name,
		 ST_X(location::geometry) AS lon,
		 ST_Y(location::geometry) AS lat,
		 COALESCE(ST_Z(location::geometry), 0) AS alt
		 FROM stations.stations
		 WHERE deleted_at IS NULL
		 AND ($1::text IS NULL OR uuid::text = $1 OR name = $1);`,
		stationRef)
	if err != nil {
		return nil, StatusDBError
	}
	defer rows.Close()

	result, err := codec.RowsToJSON(rows, stationRef != nil)
	if err != nil {
		return nil, StatusJSONError
	}
	if isEmpty(result) {
		return nil, StatusForbidden
	}

	return result, StatusOK
}
