package services

import (
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"weather-station-api/pkg/database"
	"weather-station-api/pkg/logging"
	"weather-station-api/pkg/metrics"
)

// testMetrics is shared across the package; promauto metrics register once
// per test binary.
var testMetrics = metrics.NewCollector("services_test")

func testLogger() *logging.StructuredLogger {
	l := logging.NewStructuredLogger("test", "0", logging.FatalLevel)
	l.SetOutput(io.Discard)
	return l
}

// newTestPool builds a single-slot pool over a sqlmock-backed database. The
// regexp query matcher lets expectations name queries by fragment.
func newTestPool(t *testing.T) (*database.Pool, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")

	pool, err := database.NewWithDB(db, 1, testLogger(), testMetrics)
	if err != nil {
		t.Fatalf("NewWithDB() error = %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool, mock
}

func sessionRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"?column?"}).AddRow(1)
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("uuid").OfType("UUID", ""),
		sqlmock.NewColumn("username").OfType("VARCHAR", ""),
		sqlmock.NewColumn("email").OfType("VARCHAR", ""),
		sqlmock.NewColumn("created_at").OfType("TIMESTAMPTZ", ""),
		sqlmock.NewColumn("max_stations").OfType("INT4", int64(0)),
		sqlmock.NewColumn("is_admin").OfType("BOOL", false),
	)
}
