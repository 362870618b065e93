// Package query composes the weather-data SQL. A field bitmask drives the
// projection, the granularity selects the source table, and a timezone
// equivalence test decides between the pre-aggregated summary tables and
// on-the-fly aggregation over the raw table.
package query

import "strings"

// Granularity selects the aggregation bucket width of a weather query.
type Granularity int

const (
	GranularityRaw Granularity = iota
	GranularityHour
	GranularityDay
	GranularityMonth
	GranularityYear
)

// String returns the wire form of the granularity.
func (g Granularity) String() string {
	switch g {
	case GranularityRaw:
		return "raw"
	case GranularityDay:
		return "day"
	case GranularityMonth:
		return "month"
	case GranularityYear:
		return "year"
	default:
		return "hour"
	}
}

// ParseGranularity maps the wire form to a Granularity. Unknown strings
// default to hour.
func ParseGranularity(s string) Granularity {
	switch s {
	case "raw":
		return GranularityRaw
	case "day":
		return GranularityDay
	case "month":
		return GranularityMonth
	case "year":
		return GranularityYear
	default:
		return GranularityHour
	}
}

// Fields is a bitmask of projected columns. Raw-table bits and summary bits
// share the integer; the granularity decides which enumeration applies.
type Fields int

// Raw-table column bits.
const (
	DataTemp Fields = 1 << iota
	DataHumidity
	DataPressure
	DataLux
	DataUVI
	DataWindSpeed
	DataWindDirection
	DataGustSpeed
	DataGustDirection
	DataRainfall
	DataSolarIrradiance
)

// Summary column bits.
const (
	SummaryAvgTemperature Fields = 1 << iota
	SummaryMaxTemperature
	SummaryMinTemperature
	SummaryStddevTemperature
	SummaryAvgHumidity
	SummaryMaxHumidity
	SummaryMinHumidity
	SummaryStddevHumidity
	SummaryAvgPressure
	SummaryMaxPressure
	SummaryMinPressure
	SummarySumRainfall
	SummaryStddevRainfall
	SummaryAvgWindSpeed
	SummaryAvgWindDirection
	SummaryStddevWindSpeed
	SummaryWindRun
	SummaryMaxGustSpeed
	SummaryMaxGustDirection
	SummaryAvgLux
	SummaryMaxLux
	SummaryAvgUVI
	SummaryMaxUVI
	SummaryAvgSolarIrradiance
)

var fieldNames = map[string]Fields{
	"temperature":          DataTemp,
	"humidity":             DataHumidity,
	"pressure":             DataPressure,
	"lux":                  DataLux,
	"uvi":                  DataUVI,
	"wind_speed":           DataWindSpeed,
	"wind_direction":       DataWindDirection,
	"gust_speed":           DataGustSpeed,
	"gust_direction":       DataGustDirection,
	"rainfall":             DataRainfall,
	"solar_irradiance":     DataSolarIrradiance,
	"avg_temperature":      SummaryAvgTemperature,
	"max_temperature":      SummaryMaxTemperature,
	"min_temperature":      SummaryMinTemperature,
	"stddev_temperature":   SummaryStddevTemperature,
	"avg_humidity":         SummaryAvgHumidity,
	"max_humidity":         SummaryMaxHumidity,
	"min_humidity":         SummaryMinHumidity,
	"stddev_humidity":      SummaryStddevHumidity,
	"avg_pressure":         SummaryAvgPressure,
	"max_pressure":         SummaryMaxPressure,
	"min_pressure":         SummaryMinPressure,
	"sum_rainfall":         SummarySumRainfall,
	"stddev_rainfall":      SummaryStddevRainfall,
	"avg_wind_speed":       SummaryAvgWindSpeed,
	"avg_wind_direction":   SummaryAvgWindDirection,
	"stddev_wind_speed":    SummaryStddevWindSpeed,
	"wind_run":             SummaryWindRun,
	"max_gust_speed":       SummaryMaxGustSpeed,
	"max_gust_direction":   SummaryMaxGustDirection,
	"avg_lux":              SummaryAvgLux,
	"max_lux":              SummaryMaxLux,
	"avg_uvi":              SummaryAvgUVI,
	"max_uvi":              SummaryMaxUVI,
	"avg_solar_irradiance": SummaryAvgSolarIrradiance,
}

// ParseField maps a single field name to its bit, returning -1 for unknown
// names.
func ParseField(name string) Fields {
	if f, ok := fieldNames[name]; ok {
		return f
	}
	return -1
}

// ParseFields folds a comma-separated field list into a bitmask. Unknown
// names invalidate the whole list.
func ParseFields(csv string) (Fields, bool) {
	if csv == "" {
		return 0, false
	}

	var mask Fields
	for _, name := range strings.Split(csv, ",") {
		f := ParseField(strings.TrimSpace(name))
		if f < 0 {
			return 0, false
		}
		mask |= f
	}
	return mask, true
}
