package scraper

import "testing"

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		nil_ bool
	}{
		{"$300,000", 300000, false},
		{"$1,250,000 ", 1250000, false},
		{"Sold for $425000", 425000, false},
		{"950", 950, false},
		{"", 0, true},
		{"Call for price", 0, true},
	}
	for _, tt := range tests {
		got := ParsePrice(tt.in)
		if tt.nil_ {
			if got != nil {
				t.Errorf("ParsePrice(%q) = %d, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("ParsePrice(%q) = %v, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"3/1/2024", "2024-03-01"},
		{"03-15-2024", "2024-03-15"},
		{"2024-03-01", "2024-03-01"},
		{"March 1, 2024", "2024-03-01"},
		{"Mar 1, 2024", "2024-03-01"},
		{" 12/31/2023 ", "2023-12-31"},
		{"", ""},
		// Unparseable input comes back verbatim, never lost.
		{"sometime last spring", "sometime last spring"},
	}
	for _, tt := range tests {
		if got := ParseDate(tt.in); got != tt.want {
			t.Errorf("ParseDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSynthesizeParcelID(t *testing.T) {
	a := SynthesizeParcelID("123 Ocean Dr, Miami Beach FL")
	b := SynthesizeParcelID("123 Ocean Dr, Miami Beach FL")
	c := SynthesizeParcelID("456 Collins Ave, Miami Beach FL")

	if a != b {
		t.Error("same address must synthesize the same parcel id")
	}
	if a == c {
		t.Error("different addresses must synthesize different parcel ids")
	}
	if len(a) != 12 {
		t.Errorf("parcel id length = %d, want 12", len(a))
	}
}

func TestParseCityStateZip(t *testing.T) {
	tests := []struct {
		in                    string
		city, state, zipCode string
	}{
		{"Miami, FL 33139", "Miami", "FL", "33139"},
		{"Miami Beach, FL", "Miami Beach", "FL", ""},
		{"Chicago", "Chicago", "", ""},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		city, state, zip := parseCityStateZip(tt.in)
		if city != tt.city || state != tt.state || zip != tt.zipCode {
			t.Errorf("parseCityStateZip(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.in, city, state, zip, tt.city, tt.state, tt.zipCode)
		}
	}
}
