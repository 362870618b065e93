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

// UserService handles user account operations
type UserService struct {
	pool    *database.Pool
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewUserService creates a new user service
func NewUserService(pool *database.Pool, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *UserService {
	return &UserService{
		pool:    pool,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const userColumns = "uuid, username, email, created_at, max_stations, is_admin"

// List returns the users visible to the session. A nil userRef lists every
// user and requires admin scope (an active non-admin session gets
// StatusNotFound); a concrete ref returns that single user as an object.
// Soft-deleted rows are excluded.
func (s *UserService) List(ctx context.Context, userRef *string, authData *models.AuthMaterial) (interface{}, Status) {
	if authData == nil || authData.SessionToken == "" {
		return nil, StatusAuthError
	}

	conn := s.pool.Acquire()
	defer s.pool.Release(conn)

	ok := auth.ValidateSession(ctx, conn, userRef, authData.SessionToken)
	s.metrics.RecordCredentialOp("validate_session", ok)
	if !ok {
		if userRef == nil {
			if _, active := auth.UserUUIDForToken(ctx, conn, authData.SessionToken); active {
				return nil, StatusNotFound
			}
		}
		return nil, StatusAuthError
	}

	rows, err := conn.QueryxContext(ctx, "users_list",
		`SELECT `+userColumns+` FROM auth.users
		 WHERE deleted_at IS NULL
		 AND ($1::text IS NULL OR uuid::text = $1::text OR username = $1::text);`,
		userRef)
	if err != nil {
		return nil, StatusDBError
	}
	defer rows.Close()

	result, err := codec.RowsToJSON(rows, userRef != nil)
	if err != nil {
		return nil, StatusJSONError
	}
	if isEmpty(result) {
		return nil, StatusNotFound
	}

	return result, StatusOK
}

// Create validates, hashes the password, inserts the account and returns the
// created user object. Uniqueness violations surface as StatusDBError.
func (s *UserService) Create(ctx context.Context, username, email, password string) (interface{}, Status) {
	if username == "" || email == "" || password == "" {
		return nil, StatusInvalidParams
	}
	if !validate.Name(username) || !validate.Email(email) {
		return nil, StatusInvalidParams
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, StatusMemoryError
	}

	conn := s.pool.Acquire()
	defer s.pool.Release(conn)

	_, err = conn.ExecContext(ctx, "users_create",
		`INSERT INTO auth.users (username, email, password)
		 VALUES ($1, $2, $3);`,
		username, email, hashed)
	if err != nil {
		return nil, StatusDBError
	}

	rows, err := conn.QueryxContext(ctx, "users_reselect",
		`SELECT `+userColumns+` FROM auth.users
		 WHERE username = $1;`,
		username)
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

	s.logger.Info(ctx, "[USERS_CREATE] User created", logging.Fields{
		"username": username,
	})

	return result, StatusOK
}

// Delete soft-deletes the referenced user.
func (s *UserService) Delete(ctx context.Context, userRef string, authData *models.AuthMaterial) Status {
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

	_, err := conn.ExecContext(ctx, "users_delete",
		`UPDATE auth.users
		 SET deleted_at = now()
		 WHERE (uuid::text = $1 OR username = $1)
		 AND deleted_at IS NULL;`,
		userRef)
	if err != nil {
		return StatusDBError
	}

	s.logger.Info(ctx, "[USERS_DELETE] User soft-deleted", logging.Fields{
		"user_ref": userRef,
	})

	return StatusOK
}

// Patch partially updates a user. Username, email and password are
// self-scope; max_stations and is_admin apply only under an admin session
// and are silently ignored otherwise. A password change requires the old
// password to verify. Every active session of the user is revoked after a
// successful update.
func (s *UserService) Patch(ctx context.Context, userRef string, req *models.PatchUserRequest, authData *models.AuthMaterial) (interface{}, Status) {
	if authData == nil || authData.SessionToken == "" {
		return nil, StatusAuthError
	}
	if userRef == "" || req == nil {
		return nil, StatusInvalidParams
	}

	if req.Username != nil && !validate.Name(*req.Username) {
		return nil, StatusInvalidParams
	}
	if req.Email != nil && !validate.Email(*req.Email) {
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

	var hashedPassword *string
	if req.OldPassword != nil || req.Password != nil {
		if req.OldPassword == nil || req.Password == nil {
			return nil, StatusAuthError
		}
		if !auth.ValidatePassword(ctx, conn, userRef, *req.OldPassword) {
			return nil, StatusAuthError
		}
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, StatusMemoryError
		}
		hashedPassword = &hashed
	}

	var maxStations *int
	var isAdmin *bool
	if auth.ValidateAdminSession(ctx, conn, authData.SessionToken) {
		maxStations = req.MaxStations
		isAdmin = req.IsAdmin
	}

	rows, err := conn.QueryxContext(ctx, "users_patch",
		`UPDATE auth.users
		 SET username = COALESCE($2, username),
		     email = COALESCE($3, email),
		     max_stations = COALESCE($4, max_stations),
		     is_admin = COALESCE($5, is_admin),
		     password = COALESCE($6, password)
		 WHERE uuid::text = $1 OR username = $1
		 RETURNING uuid::text, username, email, max_stations, is_admin, created_at, deleted_at;`,
		userRef, req.Username, req.Email, maxStations, isAdmin, hashedPassword)
	if err != nil {
		return nil, StatusDBError
	}

	result, err := codec.RowsToJSON(rows, true)
	rows.Close()
	if err != nil {
		return nil, StatusJSONError
	}
	if isEmpty(result) {
		return nil, StatusNotFound
	}

	// The patch may have changed the identity or password; force every
	// active session of the user to re-authenticate.
	_, err = conn.ExecContext(ctx, "users_patch_revoke_sessions",
		`UPDATE auth.user_sessions
		 SET revoked_at = NOW()
		 WHERE user_id = (SELECT user_id FROM auth.users WHERE uuid::text = $1 OR username = $1)
		 AND revoked_at IS NULL;`,
		userRef)
	if err != nil {
		return nil, StatusDBError
	}

	s.logger.Info(ctx, "[USERS_PATCH] User updated, sessions revoked", logging.Fields{
		"user_ref": userRef,
	})

	return result, StatusOK
}
