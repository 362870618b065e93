// Package services implements the resource operations of the API. Every
// operation borrows one pooled connection, runs its SQL, converts the result
// through the codec and returns a Status from the closed outcome set below.
package services

// Status is the outcome code of a service operation.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidParams
	StatusAuthError
	StatusNotFound
	StatusForbidden
	StatusDBError
	StatusMemoryError
	StatusJSONError
)

// String returns a short identifier for logging.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidParams:
		return "invalid_params"
	case StatusAuthError:
		return "auth_error"
	case StatusNotFound:
		return "not_found"
	case StatusForbidden:
		return "forbidden"
	case StatusDBError:
		return "db_error"
	case StatusMemoryError:
		return "memory_error"
	case StatusJSONError:
		return "json_error"
	default:
		return "unknown"
	}
}

// isEmpty reports whether a codec result carries no rows.
func isEmpty(v interface{}) bool {
	arr, ok := v.([]map[string]interface{})
	return ok && len(arr) == 0
}
