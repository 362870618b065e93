package services

import (
	"context"

	"weather-station-api/internal/auth"
	"weather-station-api/internal/models"
	"weather-station-api/pkg/codec"
	"weather-station-api/pkg/database"
	"weather-station-api/pkg/logging"
	"weather-station-api/pkg/metrics"
)

// DefaultSessionMaxAge is the lifetime of a freshly created session in
// seconds.
const DefaultSessionMaxAge = 3600

// SessionService handles session lifecycle operations
type SessionService struct {
	pool    *database.Pool
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSessionService creates a new session service
func NewSessionService(pool *database.Pool, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SessionService {
	return &SessionService{
		pool:    pool,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Create authenticates the password of the referenced user, mints a session
// token, stores its hash together with the client IP and User-Agent, and
// returns the session record plus the plaintext token for cookie emission.
// The plaintext never touches storage.
func (s *SessionService) Create(ctx context.Context, userRef, password string, maxAge int, authData *models.AuthMaterial) (interface{}, string, Status) {
	if userRef == "" || password == "" {
		return nil, "", StatusAuthError
	}

	conn := s.pool.Acquire()
	defer s.pool.Release(conn)

	ok := auth.ValidatePassword(ctx, conn, userRef, password)
	s.metrics.RecordCredentialOp("validate_password", ok)
	if !ok {
		return nil, "", StatusAuthError
	}

	pair, err := auth.MintToken()
	if err != nil {
		return nil, "", StatusMemoryError
	}

	var peerIP, userAgent string
	if authData != nil {
		peerIP = authData.PeerIP
		userAgent = authData.UserAgent
	}

	_, err = conn.ExecContext(ctx, "sessions_create",
		`INSERT INTO auth.user_sessions
		 (user_id, session_token, expires_at, ip_address, user_agent)
		 SELECT u.user_id, $1, now() + $3 * interval '1 second', $4, $5
		 FROM auth.users u
		 WHERE u.uuid::text = $2 OR u.username = $2;`,
		pair.Hash, userRef, maxAge, peerIP, userAgent)
	if err != nil {
		return nil, "", StatusDBError
	}

	rows, err := conn.QueryxContext(ctx, "sessions_reselect",
		`SELECT uuid, created_at, last_seen_at, expires_at, reauth_at, ip_address, user_agent
		 FROM auth.user_sessions
		 WHERE session_token = $1`,
		pair.Hash)
	if err != nil {
		return nil, "", StatusDBError
	}
	defer rows.Close()

	result, err := codec.RowsToJSON(rows, true)
	if err != nil {
		return nil, "", StatusJSONError
	}
	if isEmpty(result) {
		return nil, "", StatusNotFound
	}

	s.logger.Info(ctx, "[SESSIONS_CREATE] Session created", logging.Fields{
		"user_ref": userRef,
		"peer_ip":  peerIP,
	})

	return result, pair.Token, StatusOK
}

// List returns the active sessions of the referenced user, narrowed to a
// single session (returned as an object) when sessionUUID is given.
func (s *SessionService) List(ctx context.Context, userRef string, sessionUUID *string, authData *models.AuthMaterial) (interface{}, Status) {
	if authData == nil || authData.SessionToken == "" || userRef == "" {
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

	rows, err := conn.QueryxContext(ctx, "sessions_list",
		`SELECT s.created_at,
		 s.last_seen_at, s.expires_at, s.reauth_at, s.ip_address,
		 s.user_agent, s.uuid
		 FROM auth.user_sessions s
		 JOIN auth.users u ON s.user_id = u.user_id
		 WHERE s.expires_at > NOW()
		   AND s.revoked_at IS NULL
		   AND (u.uuid::text = $1::text OR u.username = $1::text)
		   AND ($2::text IS NULL OR s.uuid::text = $2::text)`,
		userRef, sessionUUID)
	if err != nil {
		return nil, StatusDBError
	}
	defer rows.Close()

	result, err := codec.RowsToJSON(rows, sessionUUID != nil)
	if err != nil {
		return nil, StatusJSONError
	}
	if isEmpty(result) {
		return nil, StatusNotFound
	}

	return result, StatusOK
}

// Delete revokes the named session. Revocation is idempotent.
func (s *SessionService) Delete(ctx context.Context, userRef, sessionUUID string, authData *models.AuthMaterial) Status {
	if authData == nil || authData.SessionToken == "" {
		return StatusAuthError
	}

	conn := s.pool.Acquire()
	defer s.pool.Release(conn)

	ref := userRef
	ok := auth.ValidateSession(ctx, conn, &ref, authData.SessionToken)
	s.metrics.RecordCredentialOp("validate_session", ok)
	if !ok {
		return StatusAuthError
	}

	_, err := conn.ExecContext(ctx, "sessions_delete",
		`UPDATE auth.user_sessions
		 SET revoked_at = now()
		 WHERE (uuid::text = $1);`,
		sessionUUID)
	if err != nil {
		return StatusDBError
	}

	s.logger.Info(ctx, "[SESSIONS_DELETE] Session revoked", logging.Fields{
		"session_uuid": sessionUUID,
	})

	return StatusOK
}
