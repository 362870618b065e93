// Package codec converts SQL result sets into the JSON shapes the API
// returns. Column values are typed by the database type of each column so
// booleans and numerics survive as JSON booleans and numbers instead of
// strings.
package codec

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

// RowsToJSON drains rows into a JSON-encodable value.
//
// An empty result yields an empty array. Multiple rows yield an array of
// objects keyed by column name. Exactly one row with canBeObject set yields
// the bare object, which lets singleton lookups return {...} while list
// endpoints always return [...].
func RowsToJSON(rows *sqlx.Rows, canBeObject bool) (interface{}, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}

	out := []map[string]interface{}{}

	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		obj := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			obj[names[i]] = coerce(raw[i], c.DatabaseTypeName())
		}
		out = append(out, obj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	if len(out) == 1 && canBeObject {
		return out[0], nil
	}

	// Empty results stay an empty array regardless of canBeObject.
	return out, nil
}

// coerce maps a scanned driver value to its JSON representation using the
// column's database type: booleans to bool, int2/int4/int8 to integers,
// float4/float8 to numbers, anything else to a string. NULL stays nil.
func coerce(v interface{}, dbType string) interface{} {
	if v == nil {
		return nil
	}

	switch dbType {
	case "BOOL", "BOOLEAN":
		return toBool(v)
	case "INT2", "INT4", "INT8":
		return toInt(v)
	case "FLOAT4", "FLOAT8":
		return toFloat(v)
	default:
		return toString(v)
	}
}

func toBool(v interface{}) interface{} {
	switch b := v.(type) {
	case bool:
		return b
	case []byte:
		return string(b) == "t" || string(b) == "true"
	case string:
		return b == "t" || b == "true"
	default:
		return v
	}
}

func toInt(v interface{}) interface{} {
	switch n := v.(type) {
	case int64:
		return n
	case []byte:
		i, err := strconv.ParseInt(string(n), 10, 64)
		if err != nil {
			return string(n)
		}
		return i
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return n
		}
		return i
	default:
		return v
	}
}

func toFloat(v interface{}) interface{} {
	switch f := v.(type) {
	case float64:
		return f
	case []byte:
		x, err := strconv.ParseFloat(string(f), 64)
		if err != nil {
			return string(f)
		}
		return x
	case string:
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return f
		}
		return x
	case int64:
		return float64(f)
	default:
		return v
	}
}

func toString(v interface{}) interface{} {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", s)
	}
}
