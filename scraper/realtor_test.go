package scraper

import "testing"

func TestRealtorSoldDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"$450,000\nSold 3/1/2024\n123 Main St", "2024-03-01"},
		{"SOLD - 12/31/2023", "2023-12-31"},
		{"Sold on 1/5/2024 for $300,000", "2024-01-05"},
		{"$450,000\n123 Main St", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := realtorSoldDate(tt.in); got != tt.want {
			t.Errorf("realtorSoldDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
