package query

import "testing"

func TestSameOffsetDuringRange(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		tz1   string
		tz2   string
		want  bool
	}{
		{
			name:  "identical zone names",
			start: "2024-06-01T00:00:00", end: "2024-06-30T00:00:00",
			tz1: "Europe/Madrid", tz2: "Europe/Madrid",
			want: true,
		},
		{
			name:  "identical unknown names short-circuit",
			start: "2024-06-01T00:00:00", end: "2024-06-02T00:00:00",
			tz1: "Nowhere/Invalid", tz2: "Nowhere/Invalid",
			want: true,
		},
		{
			name:  "madrid and paris share offsets",
			start: "2024-01-01T00:00:00", end: "2024-12-31T00:00:00",
			tz1: "Europe/Madrid", tz2: "Europe/Paris",
			want: true,
		},
		{
			name:  "madrid and new york always differ",
			start: "2024-06-01T00:00:00", end: "2024-06-10T00:00:00",
			tz1: "Europe/Madrid", tz2: "America/New_York",
			want: false,
		},
		{
			name:  "london equals utc in winter",
			start: "2024-01-10T00:00:00", end: "2024-01-20T00:00:00",
			tz1: "Europe/London", tz2: "UTC",
			want: true,
		},
		{
			name:  "london diverges from utc in summer",
			start: "2024-06-01T00:00:00", end: "2024-06-10T00:00:00",
			tz1: "Europe/London", tz2: "UTC",
			want: false,
		},
		{
			name:  "divergence inside the range",
			start: "2024-03-20T00:00:00", end: "2024-04-05T00:00:00",
			tz1: "Europe/London", tz2: "UTC",
			want: false,
		},
		{
			name:  "unloadable zone",
			start: "2024-06-01T00:00:00", end: "2024-06-02T00:00:00",
			tz1: "Nowhere/Invalid", tz2: "UTC",
			want: false,
		},
		{
			name:  "bad timestamp",
			start: "2024-06-01", end: "2024-06-02T00:00:00",
			tz1: "UTC", tz2: "Europe/London",
			want: false,
		},
		{
			name:  "empty inputs",
			start: "", end: "", tz1: "", tz2: "",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SameOffsetDuringRange(tt.start, tt.end, tt.tz1, tt.tz2)
			if got != tt.want {
				t.Errorf("SameOffsetDuringRange(%q, %q, %q, %q) = %v, want %v",
					tt.start, tt.end, tt.tz1, tt.tz2, got, tt.want)
			}
		})
	}
}
