package services

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"weather-station-api/internal/query"
	"weather-station-api/pkg/codec"
	"weather-station-api/pkg/database"
	"weather-station-api/pkg/logging"
	"weather-station-api/pkg/metrics"
)

// WeatherService answers historical weather queries. It drives the query
// composer: static reads from the pre-aggregated summary tables when the
// requested timezone is observationally identical to the server default over
// the range, dynamic aggregation over the raw table otherwise.
type WeatherService struct {
	pool            *database.Pool
	logger          *logging.StructuredLogger
	metrics         *metrics.Collector
	defaultTimezone string
}

// NewWeatherService creates a new weather service
func NewWeatherService(pool *database.Pool, defaultTimezone string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *WeatherService {
	return &WeatherService{
		pool:            pool,
		logger:          logger,
		metrics:         metricsCollector,
		defaultTimezone: defaultTimezone,
	}
}

// List returns the readings of a station over [startTime, endTime] at the
// requested granularity, projecting only the columns selected by fields.
func (s *WeatherService) List(ctx context.Context, fields query.Fields, granularityStr, stationRef, timezone, startTime, endTime string) (interface{}, Status) {
	if timezone == "" || startTime == "" || endTime == "" || granularityStr == "" || stationRef == "" {
		return nil, StatusInvalidParams
	}
	if fields < 0 {
		return nil, StatusInvalidParams
	}

	timer := time.Now()
	defer func() {
		s.metrics.WeatherQueryDuration.Observe(time.Since(timer).Seconds())
	}()

	conn := s.pool.Acquire()
	defer s.pool.Release(conn)

	// Pooled sessions keep the previous borrower's zone, so every weather
	// query re-sets it before anything else. The zone literal goes through
	// quote_literal to defeat injection.
	var escapedTz string
	if err := conn.GetContext(ctx, "quote_timezone", &escapedTz, "SELECT quote_literal($1);", timezone); err != nil {
		return nil, StatusDBError
	}

	if escapedTz != "" {
		if _, err := conn.ExecContext(ctx, "set_timezone", "SET TIME ZONE "+escapedTz+";"); err != nil {
			return nil, StatusDBError
		}
	}

	granularity := query.ParseGranularity(granularityStr)

	sameTimezone := query.SameOffsetDuringRange(startTime, endTime, timezone, s.defaultTimezone)

	var rows *sqlx.Rows
	var err error

	if !sameTimezone && granularity != query.GranularityRaw {
		s.metrics.RecordWeatherQueryPath("dynamic", granularity.String())
		q := query.BuildDynamic(fields)
		rows, err = conn.QueryxContext(ctx, "weather_dynamic", q,
			stationRef, startTime, endTime, granularity.String())
	} else {
		s.metrics.RecordWeatherQueryPath("static", granularity.String())
		q := query.BuildStatic(fields, granularity)
		rows, err = conn.QueryxContext(ctx, "weather_static", q,
			stationRef, startTime, endTime)
	}
	if err != nil {
		return nil, StatusDBError
	}
	defer rows.Close()

	result, err := codec.RowsToJSON(rows, false)
	if err != nil {
		return nil, StatusJSONError
	}
	if isEmpty(result) {
		return nil, StatusForbidden
	}

	s.logger.Debug(ctx, "[WEATHER_LIST] Weather query served", logging.Fields{
		"station_ref": stationRef,
		"granularity": granularity.String(),
		"timezone":    timezone,
		"static_path": sameTimezone || granularity == query.GranularityRaw,
	})

	return result, StatusOK
}
