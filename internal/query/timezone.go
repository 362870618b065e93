package query

import (
	"time"
)

// timestampLayout matches the request timestamp format.
const timestampLayout = "2006-01-02T15:04:05"

// SameOffsetDuringRange reports whether tz1 and tz2 are observationally
// identical over [start, end]: the total UTC offset of both zones is sampled
// in one-day steps and must agree at every sampled instant. The day step is
// an accepted approximation; the zones this service targets transition on
// day boundaries.
func SameOffsetDuringRange(startStr, endStr, tz1, tz2 string) bool {
	if startStr == "" || endStr == "" || tz1 == "" || tz2 == "" {
		return false
	}

	if tz1 == tz2 {
		return true
	}

	loc1, err := time.LoadLocation(tz1)
	if err != nil {
		return false
	}
	loc2, err := time.LoadLocation(tz2)
	if err != nil {
		return false
	}

	start, err := time.ParseInLocation(timestampLayout, startStr, loc1)
	if err != nil {
		return false
	}
	end, err := time.ParseInLocation(timestampLayout, endStr, loc1)
	if err != nil {
		return false
	}

	for t := start; !t.After(end); t = t.Add(24 * time.Hour) {
		_, offset1 := t.In(loc1).Zone()
		_, offset2 := t.In(loc2).Zone()
		if offset1 != offset2 {
			return false
		}
	}

	return true
}
