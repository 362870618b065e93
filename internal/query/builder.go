package query

import "strings"

// fragment pairs a bitmask bit with the SQL it projects. The tables below
// are iterated in order, so the projection order is fixed and deterministic.
type fragment struct {
	bit  Fields
	expr string
}

var rawFragments = []fragment{
	{DataTemp, " temperature,"},
	{DataHumidity, " humidity,"},
	{DataPressure, " pressure,"},
	{DataLux, " lux,"},
	{DataUVI, " uvi,"},
	{DataWindSpeed, " wind_speed,"},
	{DataWindDirection, " wind_direction,"},
	{DataGustSpeed, " gust_speed,"},
	{DataGustDirection, " gust_direction,"},
	{DataRainfall, " rainfall,"},
	{DataSolarIrradiance, " solar_irradiance,"},
}

// summaryFragments are the columns every summary table carries.
var summaryFragments = []fragment{
	{SummaryAvgTemperature, " avg_temperature,"},
	{SummaryAvgHumidity, " avg_humidity,"},
	{SummaryAvgPressure, " avg_pressure,"},
	{SummarySumRainfall, " sum_rainfall,"},
	{SummaryStddevRainfall, " stddev_rainfall,"},
	{SummaryAvgWindSpeed, " avg_wind_speed,"},
	{SummaryAvgWindDirection, " avg_wind_direction,"},
	{SummaryStddevWindSpeed, " stddev_wind_speed,"},
	{SummaryMaxGustSpeed, " max_gust_speed,"},
	{SummaryMaxGustDirection, " max_gust_direction,"},
	{SummaryAvgLux, " avg_lux,"},
	{SummaryAvgUVI, " avg_uvi,"},
	{SummaryAvgSolarIrradiance, " avg_solar_irradiance,"},
}

// extremaFragments exist only in the daily, monthly and yearly tables.
var extremaFragments = []fragment{
	{SummaryMaxTemperature, " max_temperature,"},
	{SummaryMinTemperature, " min_temperature,"},
	{SummaryStddevTemperature, " stddev_temperature,"},
	{SummaryMaxHumidity, " max_humidity,"},
	{SummaryMinHumidity, " min_humidity,"},
	{SummaryStddevHumidity, " stddev_humidity,"},
	{SummaryMaxPressure, " max_pressure,"},
	{SummaryMinPressure, " min_pressure,"},
	{SummaryMaxLux, " max_lux,"},
	{SummaryMaxUVI, " max_uvi,"},
}

// dynamicFragments aggregate the raw table into generated buckets, producing
// the same column names as the summary tables.
var dynamicFragments = []fragment{
	{SummaryAvgTemperature, " AVG(wd.temperature) AS avg_temperature,"},
	{SummaryMaxTemperature, " MAX(wd.temperature) AS max_temperature,"},
	{SummaryMinTemperature, " MIN(wd.temperature) AS min_temperature,"},
	{SummaryStddevTemperature, " STDDEV(wd.temperature) AS stddev_temperature,"},
	{SummaryAvgHumidity, " AVG(wd.humidity) AS avg_humidity,"},
	{SummaryMaxHumidity, " MAX(wd.humidity) AS max_humidity,"},
	{SummaryMinHumidity, " MIN(wd.humidity) AS min_humidity,"},
	{SummaryStddevHumidity, " STDDEV(wd.humidity) AS stddev_humidity,"},
	{SummaryAvgPressure, " AVG(wd.pressure) AS avg_pressure,"},
	{SummaryMaxPressure, " MAX(wd.pressure) AS max_pressure,"},
	{SummaryMinPressure, " MIN(wd.pressure) AS min_pressure,"},
	{SummarySumRainfall, " SUM(wd.rainfall) AS sum_rainfall,"},
	{SummaryStddevRainfall, " STDDEV(wd.rainfall) AS stddev_rainfall,"},
	{SummaryAvgWindSpeed, " AVG(wd.wind_speed) AS avg_wind_speed,"},
	// Vector-sum mean of the wind direction, weighted by wind speed. NULL
	// when the bucket holds no wind observations.
	{SummaryAvgWindDirection, " MOD( " +
		"CAST(DEGREES( " +
		"  ATAN2( " +
		"    SUM(CAST(wd.wind_speed AS numeric) * SIN(RADIANS(CAST(wd.wind_direction AS numeric)))), " +
		"    SUM(CAST(wd.wind_speed AS numeric) * COS(RADIANS(CAST(wd.wind_direction AS numeric)))) " +
		"  ) " +
		") AS numeric) + 360, 360 " +
		") AS avg_wind_direction,"},
	{SummaryStddevWindSpeed, " STDDEV(wd.wind_speed) AS stddev_wind_speed,"},
	{SummaryWindRun, " SUM(wd.wind_speed * EXTRACT(EPOCH FROM (upper(wd.time_range) - " +
		"lower(wd.time_range)))) AS wind_run,"},
	{SummaryMaxGustSpeed, " MAX(wd.gust_speed) AS max_gust_speed,"},
	// Direction of the strongest gust in the bucket, not the numeric
	// maximum of directions.
	{SummaryMaxGustDirection, " (SELECT wd2.gust_direction FROM weather.weather_data wd2 WHERE " +
		"wd2.station_id = d.station_id AND wd2.time_range && d.time_range ORDER " +
		"BY wd2.gust_speed DESC LIMIT 1) AS max_gust_direction,"},
	{SummaryMaxLux, " MAX(wd.lux) AS max_lux,"},
	{SummaryAvgLux, " AVG(wd.lux) AS avg_lux,"},
	{SummaryMaxUVI, " MAX(wd.uvi) AS max_uvi,"},
	{SummaryAvgUVI, " AVG(wd.uvi) AS avg_uvi,"},
	{SummaryAvgSolarIrradiance, " AVG(wd.solar_irradiance) AS avg_solar_irradiance,"},
}

var staticTables = map[Granularity]string{
	GranularityRaw:   "weather.weather_data",
	GranularityHour:  "weather.weather_hourly_summary",
	GranularityDay:   "weather.weather_daily_summary",
	GranularityMonth: "weather.weather_monthly_summary",
	GranularityYear:  "weather.weather_yearly_summary",
}

const dynamicBase = `WITH params AS (
    SELECT
        (SELECT station_id FROM stations.stations WHERE name = $1 OR uuid::text = $1) AS station_id,
        $2::timestamp AS start_ts,
        $3::timestamp AS end_ts,
        $4::text AS granularity
),
time_ranges AS (
    SELECT
        station_id,
        granularity,
        tstzrange(
            ts,
            ts + (
                CASE granularity
                    WHEN 'hour' THEN interval '1 hour'
                    WHEN 'day' THEN interval '1 day'
                    WHEN 'week' THEN interval '1 week'
                    WHEN 'month' THEN interval '1 month'
                    WHEN 'year' THEN interval '1 year'
                END
            )
        ) AS time_range
    FROM params,
    generate_series(
        date_trunc(granularity, start_ts),
        date_trunc(granularity, end_ts),
        CASE granularity
            WHEN 'hour' THEN interval '1 hour'
            WHEN 'day' THEN interval '1 day'
            WHEN 'week' THEN interval '1 week'
            WHEN 'month' THEN interval '1 month'
            WHEN 'year' THEN interval '1 year'
        END
    ) AS ts
)
SELECT lower(d.time_range) AS period_start, upper(d.time_range) AS period_end, d.granularity,`

const dynamicEnd = ` FROM time_ranges d
LEFT JOIN weather.weather_data wd
   ON wd.station_id = d.station_id
   AND wd.time_range && d.time_range
GROUP BY d.station_id, d.time_range, d.granularity
ORDER BY d.time_range;`

// BuildStatic composes the query against the pre-aggregated table for the
// granularity (or the raw table for GranularityRaw). Parameters:
// $1 station ref, $2 start, $3 end.
func BuildStatic(fields Fields, granularity Granularity) string {
	var b strings.Builder

	b.WriteString("SELECT lower(time_range) AS period_start, upper(time_range) AS period_end,")

	if granularity == GranularityRaw {
		appendFragments(&b, fields, rawFragments)
	} else {
		appendFragments(&b, fields, summaryFragments)
	}

	if granularity == GranularityDay {
		appendFragments(&b, fields, []fragment{{SummaryWindRun, " wind_run,"}})
	}

	if granularity == GranularityDay || granularity == GranularityMonth || granularity == GranularityYear {
		appendFragments(&b, fields, extremaFragments)
	}

	query := strings.TrimSuffix(b.String(), ",")

	return query + " FROM " + staticTables[granularity] + `
WHERE station_id = (SELECT station_id FROM stations.stations WHERE name = $1 OR uuid::text = $1)
    AND time_range && tstzrange($2, $3)
ORDER BY lower(time_range);`
}

// BuildDynamic composes the on-the-fly aggregation over the raw table for
// ranges where the requested timezone diverges from the server default.
// Parameters: $1 station ref, $2 start, $3 end, $4 granularity.
func BuildDynamic(fields Fields) string {
	var b strings.Builder

	b.WriteString(dynamicBase)
	appendFragments(&b, fields, dynamicFragments)

	return strings.TrimSuffix(b.String(), ",") + dynamicEnd
}

func appendFragments(b *strings.Builder, fields Fields, table []fragment) {
	for _, f := range table {
		if fields&f.bit != 0 {
			b.WriteString(f.expr)
		}
	}
}
