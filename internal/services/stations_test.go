package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"weather-station-api/internal/models"
)

func stationRows() *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("uuid").OfType("UUID", ""),
		sqlmock.NewColumn("name").OfType("VARCHAR", ""),
		sqlmock.NewColumn("lon").OfType("FLOAT8", 0.0),
		sqlmock.NewColumn("lat").OfType("FLOAT8", 0.0),
		sqlmock.NewColumn("alt").OfType("FLOAT8", 0.0),
	)
}

func TestStationsCreate(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewStationService(pool, testLogger(), testMetrics)
	token := mintTestToken(t)

	mock.ExpectQuery(`SELECT u\.uuid AS user_uuid`).
		WillReturnRows(sqlmock.NewRows([]string{"user_uuid"}).
			AddRow("123e4567-e89b-12d3-a456-426614174000"))
	mock.ExpectQuery(`INSERT INTO stations\.stations`).
		WillReturnRows(stationRows().AddRow("423e4567-e89b-12d3-a456-426614174000",
			"garden", -3.7038, 40.4168, 657.0))

	result, code := svc.Create(context.Background(), "garden", -3.7038, 40.4168, 657.0,
		&models.AuthMaterial{SessionToken: token})
	if code != StatusOK {
		t.Fatalf("Create() status = %v, want OK", code)
	}

	obj := result.(map[string]interface{})
	if obj["name"] != "garden" {
		t.Errorf("name = %v, want garden", obj["name"])
	}
	if obj["lat"] != 40.4168 {
		t.Errorf("lat = %v, want 40.4168", obj["lat"])
	}
	if obj["alt"] != 657.0 {
		t.Errorf("alt = %v, want 657.0", obj["alt"])
	}
}

// TestStationsCreateQuotaExhausted: the quota CTE inserts nothing when the
// owner already holds max_stations stations, which surfaces as Forbidden.
func TestStationsCreateQuotaExhausted(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewStationService(pool, testLogger(), testMetrics)
	token := mintTestToken(t)

	mock.ExpectQuery(`SELECT u\.uuid AS user_uuid`).
		WillReturnRows(sqlmock.NewRows([]string{"user_uuid"}).
			AddRow("123e4567-e89b-12d3-a456-426614174000"))
	mock.ExpectQuery(`INSERT INTO stations\.stations`).
		WillReturnRows(stationRows())

	if _, code := svc.Create(context.Background(), "garden2", -3.7, 40.4, 657.0,
		&models.AuthMaterial{SessionToken: token}); code != StatusForbidden {
		t.Errorf("Create() over quota status = %v, want Forbidden", code)
	}
}

func TestStationsCreateInvalidName(t *testing.T) {
	pool, _ := newTestPool(t)
	svc := NewStationService(pool, testLogger(), testMetrics)
	token := mintTestToken(t)

	if _, code := svc.Create(context.Background(), "bad name!", 0, 0, 0,
		&models.AuthMaterial{SessionToken: token}); code != StatusInvalidParams {
		t.Errorf("Create() with invalid name status = %v, want InvalidParams", code)
	}
}

func TestStationsCreateRequiresSession(t *testing.T) {
	pool, _ := newTestPool(t)
	svc := NewStationService(pool, testLogger(), testMetrics)

	if _, code := svc.Create(context.Background(), "garden", 0, 0, 0, nil); code != StatusAuthError {
		t.Errorf("Create() without session status = %v, want AuthError", code)
	}
}

func TestStationsList(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewStationService(pool, testLogger(), testMetrics)

	mock.ExpectQuery(`FROM stations\.stations`).
		WillReturnRows(stationRows().
			AddRow("423e4567-e89b-12d3-a456-426614174000", "garden", -3.7038, 40.4168, 657.0).
			AddRow("523e4567-e89b-12d3-a456-426614174000", "roof", -3.70, 40.41, 660.0))

	result, code := svc.List(context.Background(), nil)
	if code != StatusOK {
		t.Fatalf("List() status = %v, want OK", code)
	}

	arr, ok := result.([]map[string]interface{})
	if !ok || len(arr) != 2 {
		t.Errorf("List() = %T, want array of 2", result)
	}
}

func TestStationsListSingleton(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewStationService(pool, testLogger(), testMetrics)

	mock.ExpectQuery(`FROM stations\.stations`).
		WillReturnRows(stationRows().
			AddRow("423e4567-e89b-12d3-a456-426614174000", "garden", -3.7038, 40.4168, 657.0))

	ref := "garden"
	result, code := svc.List(context.Background(), &ref)
	if code != StatusOK {
		t.Fatalf("List() status = %v, want OK", code)
	}

	if _, ok := result.(map[string]interface{}); !ok {
		t.Errorf("singleton station lookup should return an object, got %T", result)
	}
}

func TestStationsListEmptyIsForbidden(t *testing.T) {
	pool, mock := newTestPool(t)
	svc := NewStationService(pool, testLogger(), testMetrics)

	mock.ExpectQuery(`FROM stations\.stations`).WillReturnRows(stationRows())

	ref := "missing"
	if _, code := svc.List(context.Background(), &ref); code != StatusForbidden {
		t.Errorf("List() of missing station status = %v, want Forbidden", code)
	}
}
