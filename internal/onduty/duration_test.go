package onduty

import "testing"

func TestDurationDays(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want int
	}{
		{"single day", "2024-01-01", "2024-01-01", 1},
		{"three days", "2024-01-01", "2024-01-03", 3},
		{"inverted range clamps to zero", "2024-01-05", "2024-01-01", 0},
		{"across month boundary", "2024-01-30", "2024-02-02", 4},
		{"across leap day", "2024-02-28", "2024-03-01", 3},
		{"blank from", "", "2024-01-01", 0},
		{"blank to", "2024-01-01", "", 0},
		{"garbage input", "not-a-date", "2024-01-01", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DurationDays(tc.from, tc.to); got != tc.want {
				t.Errorf("DurationDays(%q, %q) = %d, want %d", tc.from, tc.to, got, tc.want)
			}
		})
	}
}
