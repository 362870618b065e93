package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"weather-station-api/internal/auth"
	"weather-station-api/internal/models"
)

func mintTestToken(t *testing.T) string {
	t.Helper()
	pair, err := auth.MintToken()
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}
	return pair.Token
}

func TestUsersCreate(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)

	mock.ExpectExec(`INSERT INTO auth\.users`).
		WithArgs("alice", "alice@x.io", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT uuid, username, email, created_at, max_stations, is_admin FROM auth\.users`).
		WithArgs("alice").
		WillReturnRows(userRows().AddRow("123e4567-e89b-12d3-a456-426614174000",
			"alice", "alice@x.io", "2024-06-01T00:00:00Z", int64(1), false))

	result, code := svc.Create(context.Background(), "alice", "alice@x.io", "pw-abcdef")
	if code != StatusOK {
		t.Fatalf("Create() status = %v, want OK", code)
	}

	obj, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("Create() result type = %T, want object", result)
	}
	if obj["username"] != "alice" {
		t.Errorf("username = %v, want alice", obj["username"])
	}
	if obj["is_admin"] != false {
		t.Errorf("is_admin = %v, want false", obj["is_admin"])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUsersCreateInvalidParams(t *testing.T) {
	pool, _ := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@x.io", "pw"},
		{"empty email", "alice", "", "pw"},
		{"empty password", "alice", "a@x.io", ""},
		{"bad username", "a!", "a@x.io", "pw"},
		{"bad email", "alice", "not-an-email", "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, code := svc.Create(context.Background(), tt.username, tt.email, tt.password); code != StatusInvalidParams {
				t.Errorf("Create() status = %v, want InvalidParams", code)
			}
		})
	}
}

func TestUsersCreateDuplicate(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)

	mock.ExpectExec(`INSERT INTO auth\.users`).
		WillReturnError(sql.ErrConnDone)

	if _, code := svc.Create(context.Background(), "alice", "alice@x.io", "pw-abcdef"); code != StatusDBError {
		t.Errorf("Create() status = %v, want DBError on driver error", code)
	}
}

func TestUsersListRequiresToken(t *testing.T) {
	pool, _ := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)

	if _, code := svc.List(context.Background(), nil, &models.AuthMaterial{}); code != StatusAuthError {
		t.Errorf("List() without token status = %v, want AuthError", code)
	}
	if _, code := svc.List(context.Background(), nil, nil); code != StatusAuthError {
		t.Errorf("List() without auth status = %v, want AuthError", code)
	}
}

func TestUsersListSingleUser(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)
	token := mintTestToken(t)

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sessionRow())
	mock.ExpectQuery(`FROM auth\.users`).
		WillReturnRows(userRows().AddRow("123e4567-e89b-12d3-a456-426614174000",
			"alice", "alice@x.io", "2024-06-01T00:00:00Z", int64(1), false))

	ref := "alice"
	result, code := svc.List(context.Background(), &ref, &models.AuthMaterial{SessionToken: token})
	if code != StatusOK {
		t.Fatalf("List() status = %v, want OK", code)
	}

	if _, ok := result.(map[string]interface{}); !ok {
		t.Errorf("singleton lookup should return an object, got %T", result)
	}
}

func TestUsersListSoftDeletedNotFound(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)
	token := mintTestToken(t)

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sessionRow())
	mock.ExpectQuery(`FROM auth\.users`).WillReturnRows(userRows())

	ref := "ghost"
	if _, code := svc.List(context.Background(), &ref, &models.AuthMaterial{SessionToken: token}); code != StatusNotFound {
		t.Errorf("List() of deleted user status = %v, want NotFound", code)
	}
}

func TestUsersListInvalidSession(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)
	token := mintTestToken(t)

	mock.ExpectQuery(`SELECT 1`).WillReturnError(sql.ErrNoRows)

	if _, code := svc.List(context.Background(), nil, &models.AuthMaterial{SessionToken: token}); code != StatusAuthError {
		t.Errorf("List() with unknown session status = %v, want AuthError", code)
	}
}

func TestUsersDelete(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)
	token := mintTestToken(t)

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sessionRow())
	mock.ExpectExec(`UPDATE auth\.users`).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if code := svc.Delete(context.Background(), "alice", &models.AuthMaterial{SessionToken: token}); code != StatusOK {
		t.Errorf("Delete() status = %v, want OK", code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func patchedUserRows() *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("uuid").OfType("VARCHAR", ""),
		sqlmock.NewColumn("username").OfType("VARCHAR", ""),
		sqlmock.NewColumn("email").OfType("VARCHAR", ""),
		sqlmock.NewColumn("max_stations").OfType("INT4", int64(0)),
		sqlmock.NewColumn("is_admin").OfType("BOOL", false),
		sqlmock.NewColumn("created_at").OfType("TIMESTAMPTZ", ""),
		sqlmock.NewColumn("deleted_at").OfType("TIMESTAMPTZ", "").Nullable(true),
	)
}

// TestUsersPatchRevokesSessions checks the revocation statement runs after a
// successful partial update.
func TestUsersPatchRevokesSessions(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)
	token := mintTestToken(t)

	newEmail := "new@x.io"

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sessionRow())
	// Admin scope probe fails for a regular user.
	mock.ExpectQuery(`SELECT 1`).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`UPDATE auth\.users`).
		WithArgs("alice", nil, newEmail, nil, nil, nil).
		WillReturnRows(patchedUserRows().AddRow("123e4567-e89b-12d3-a456-426614174000",
			"alice", newEmail, int64(1), false, "2024-06-01T00:00:00Z", nil))
	mock.ExpectExec(`UPDATE auth\.user_sessions`).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 2))

	result, code := svc.Patch(context.Background(), "alice",
		&models.PatchUserRequest{Email: &newEmail},
		&models.AuthMaterial{SessionToken: token})
	if code != StatusOK {
		t.Fatalf("Patch() status = %v, want OK", code)
	}

	obj := result.(map[string]interface{})
	if obj["email"] != newEmail {
		t.Errorf("email = %v, want %v", obj["email"], newEmail)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("session revocation did not run: %v", err)
	}
}

func TestUsersPatchPasswordRequiresOldPassword(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)
	token := mintTestToken(t)

	newPass := "new-password"

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sessionRow())

	_, code := svc.Patch(context.Background(), "alice",
		&models.PatchUserRequest{Password: &newPass},
		&models.AuthMaterial{SessionToken: token})
	if code != StatusAuthError {
		t.Errorf("Patch() with new password but no old password status = %v, want AuthError", code)
	}
}

func TestUsersPatchWrongOldPassword(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewUserService(pool, testLogger(), testMetrics)
	token := mintTestToken(t)

	oldPass := "wrong"
	newPass := "new-password"

	storedHash, err := auth.HashPassword("pw-abcdef")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sessionRow())
	mock.ExpectQuery(`SELECT password`).
		WillReturnRows(sqlmock.NewRows([]string{"password"}).AddRow(storedHash))

	_, code := svc.Patch(context.Background(), "alice",
		&models.PatchUserRequest{OldPassword: &oldPass, Password: &newPass},
		&models.AuthMaterial{SessionToken: token})
	if code != StatusAuthError {
		t.Errorf("Patch() with wrong old password status = %v, want AuthError", code)
	}
}
