package services

import (
	"context"

	"weather-station-api/internal/auth"
	"weather-station-api/internal/models"
	"weather-station-api/pkg/codec"
	"weather-station-api/pkg/database"
	"weather-station-api/pkg/logging"
	"weather-station-api/pkg/metrics"
	"weather-station-api/pkg/validate"
)

// APIKeyService handles API key lifecycle operations
type APIKeyService struct {
	pool    *database.Pool
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAPIKeyService creates a new API key service
func NewAPIKeyService(pool *database.Pool, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *APIKeyService {
	return &APIKeyService{
		pool:    pool,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Create mints an API key bound to the referenced user and station and
// returns the key record including the plaintext, which is visible exactly
// once here. Only the hash is stored.
func (s *APIKeyService) Create(ctx context.Context, userRef, name, keyType, stationRef string, authData *models.AuthMaterial) (interface{}, Status) {
	if authData == nil || authData.SessionToken == "" {
		return nil, StatusAuthError
	}
	if name == "" || keyType == "" || stationRef == "" || !validate.Name(name) {
		return nil, StatusInvalidParams
	}
	if !models.APIKeyType(keyType).Valid() {
		return nil, StatusInvalidParams
	}

	conn := s.pool.Acquire()
	defer s.pool.Release(conn)

	ref := userRef
	ok := auth.ValidateSession(ctx, conn, &ref, authData.SessionToken)
	s.metrics.RecordCredentialOp("validate_session", ok)
	if !ok {
		return nil, StatusAuthError
	}

	pair, err := auth.MintToken()
	if err != nil {
		return nil, StatusMemoryError
	}

	rows, err := conn.QueryxContext(ctx, "api_key_create",
		`INSERT INTO auth.api_keys (user_id, name, api_key, api_key_type, station_id, expires_at)
		 SELECT
		   u.user_id,
		   $3,
		   $4,
		   $5,
		   s.station_id,
		   NULL
		 FROM auth.users u
		 JOIN stations.stations s ON s.user_id = u.user_id
		 WHERE (u.uuid::text = $1 OR u.username = $1)
		   AND (s.uuid::text = $2 OR s.name = $2)
		 RETURNING
		   uuid,
		   name,
		   api_key_type,
		   created_at,
		   expires_at,
		   $2::text AS station_uuid,
		   $6::text AS api_key;`,
		userRef, stationRef, name, pair.Hash, keyType, pair.Token)
	if err != nil {
		return nil, StatusDBError
	}
	defer rows.Close()

	result, err := codec.RowsToJSON(rows, true)
	if err != nil {
		return nil, StatusJSONError
	}
	if isEmpty(result) {
		return nil, StatusNotFound
	}

	s.logger.Info(ctx, "[API_KEY_CREATE] API key created", logging.Fields{
		"user_ref":     userRef,
		"station_ref":  stationRef,
		"api_key_type": keyType,
	})

	return result, StatusOK
}

// List returns the active API keys of the referenced user, narrowed to a
// single key (returned as an object) when keyRef is given.
func (s *APIKeyService) List(ctx context.Context, userRef string, keyRef *string, authData *models.AuthMaterial) (interface{}, Status) {
	if authData == nil || authData.SessionToken == "" {
		return nil, StatusAuthError
	}
	if userRef == "" {
		return nil, StatusInvalidParams
	}

	conn := s.pool.Acquire()
	defer s.pool.Release(conn)

	ref := userRef
	ok := auth.ValidateSession(ctx, conn, &ref, authData.SessionToken)
	s.metrics.RecordCredentialOp("validate_session", ok)
	if !ok {
		return nil, StatusAuthError
	}

	rows, err := conn.QueryxContext(ctx, "api_key_list",
		`SELECT
		        k.uuid,
		        k.name,
		        k.api_key_type,
		        s.name AS station_id,
		        k.created_at,
		        k.expires_at,
		        k.revoked_at
		 FROM auth.api_keys k
		 JOIN auth.users u ON k.user_id = u.user_id
		 LEFT JOIN stations.stations s ON k.station_id = s.station_id
		 WHERE (k.expires_at IS NULL OR k.expires_at > NOW())
		   AND k.revoked_at IS NULL
		   AND (u.uuid::text = $1::text OR u.username::text = $1::text)
		   AND ($2::text IS NULL OR k.uuid::text = $2::text OR k.name::text = $2::text)`,
		userRef, keyRef)
	if err != nil {
		return nil, StatusDBError
	}
	defer rows.Close()

	result, err := codec.RowsToJSON(rows, keyRef != nil)
	if err != nil {
		return nil, StatusJSONError
	}
	if isEmpty(result) {
		return nil, StatusNotFound
	}

	return result, StatusOK
}

// Delete revokes the named API key.
func (s *APIKeyService) Delete(ctx context.Context, userRef, keyRef string, authData *models.AuthMaterial) Status {
	if authData == nil || authData.SessionToken == "" {
		return StatusAuthError
	}
	if userRef == "" || keyRef == "" {
		return StatusInvalidParams
	}

	conn := s.pool.Acquire()
	defer s.pool.Release(conn)

	ref := userRef
	ok := auth.ValidateSession(ctx, conn, &ref, authData.SessionToken)
	s.metrics.RecordCredentialOp("validate_session", ok)
	if !ok {
		return StatusAuthError
	}

	_, err := conn.ExecContext(ctx, "api_key_delete",
		`UPDATE auth.api_keys
		 SET revoked_at = now()
		 WHERE (uuid::text = $1 OR name = $1);`,
		keyRef)
	if err != nil {
		return StatusDBError
	}

	s.logger.Info(ctx, "[API_KEY_DELETE] API key revoked", logging.Fields{
		"key_ref": keyRef,
	})

	return StatusOK
}
