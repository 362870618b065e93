package auth

import (
	"context"

	"weather-station-api/pkg/database"
)

// validateSessionQuery succeeds iff the token's session is active, its user
// is not soft-deleted, and either the user reference is null and the session
// belongs to an admin, or the reference matches the session's user by UUID
// or username, or the session's user is an admin.
const validateSessionQuery = `
	SELECT 1
	FROM auth.user_sessions s
	JOIN auth.users u ON s.user_id = u.user_id
	WHERE s.session_token = $1
	  AND s.expires_at > NOW()
	  AND s.revoked_at IS NULL
	  AND u.deleted_at IS NULL
	  AND (
	        ($2::text IS NULL AND u.is_admin = true)
	        OR ($2::text IS NOT NULL AND (
	              u.is_admin = true
	              OR u.uuid::text = $2::text
	              OR u.username = $2::text
	        ))
	      )`

// ValidateSession checks a transport-form session token against userRef.
// A nil userRef demands admin scope; otherwise the session must belong to
// the referenced user (by UUID or username) or to an admin.
func ValidateSession(ctx context.Context, conn *database.Conn, userRef *string, tokenB64 string) bool {
	hashB64, ok := HashToken(tokenB64)
	if !ok {
		return false
	}

	var one int
	err := conn.GetContext(ctx, "validate_session", &one, validateSessionQuery, hashB64, userRef)
	return err == nil
}

// ValidateAdminSession checks that the token belongs to an active admin
// session.
func ValidateAdminSession(ctx context.Context, conn *database.Conn, tokenB64 string) bool {
	return ValidateSession(ctx, conn, nil, tokenB64)
}

// ValidatePassword fetches the stored hash of the user referenced by UUID or
// username and verifies plaintext against it.
func ValidatePassword(ctx context.Context, conn *database.Conn, userRef, plaintext string) bool {
	if userRef == "" || plaintext == "" {
		return false
	}

	var encodedHash string
	err := conn.GetContext(ctx, "fetch_password_hash", &encodedHash,
		`SELECT password
		 FROM auth.users
		 WHERE uuid::text = $1
		 OR username = $1`,
		userRef)
	if err != nil {
		return false
	}

	return VerifyPassword(plaintext, encodedHash)
}

// UserUUIDForToken resolves the UUID of the user owning a session token.
// Returns false when the token is malformed or matches no active session.
func UserUUIDForToken(ctx context.Context, conn *database.Conn, tokenB64 string) (string, bool) {
	hashB64, ok := HashToken(tokenB64)
	if !ok {
		return "", false
	}

	var userUUID string
	err := conn.GetContext(ctx, "user_for_token", &userUUID,
		`SELECT u.uuid AS user_uuid
		 FROM auth.user_sessions s
		 JOIN auth.users u ON s.user_id = u.user_id
		 WHERE s.session_token = $1
		   AND s.expires_at > NOW()
		   AND s.revoked_at IS NULL
		   AND u.deleted_at IS NULL`,
		hashB64)
	if err != nil {
		return "", false
	}

	return userUUID, true
}
