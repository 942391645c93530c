package fiscal

import (
	"testing"
	"time"
)

func TestYear(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{"january falls in ending year", time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), 2025},
		{"june 30 closes the year", time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC), 2025},
		{"july 1 opens the next year", time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), 2026},
		{"december belongs to next year", time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), 2025},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Year(tt.date); got != tt.want {
				t.Errorf("Year(%v) = %d, want %d", tt.date, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{25, 2025},
		{2025, 2025},
		{99, 2099},
		{1999, 1999},
	}
	for _, tt := range tests {
		if got := Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRange(t *testing.T) {
	start, end := Range(2025)
	wantStart := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, time.June, 30, 23, 59, 59, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("Range(2025) start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("Range(2025) end = %v, want %v", end, wantEnd)
	}
	if Year(start) != 2025 || Year(end) != 2025 {
		t.Errorf("Range(2025) bounds map to FY%d and FY%d, want both 2025", Year(start), Year(end))
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		fy   int
		want string
	}{
		{2025, "2024-25"},
		{25, "2024-25"},
		{2000, "1999-00"},
	}
	for _, tt := range tests {
		if got := Label(tt.fy); got != tt.want {
			t.Errorf("Label(%d) = %q, want %q", tt.fy, got, tt.want)
		}
	}
}
