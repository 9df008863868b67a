package services

import (
	"strings"
	"testing"

	"propwatch/models"
)

func TestRenderStats(t *testing.T) {
	stats := models.Stats{
		TotalRecords: 42,
		Notified:     40,
		ByCounty:     map[string]int64{"redfin": 30, "miami_dade": 12},
		ByType:       map[string]int64{"sale": 35, "foreclosure": 7},
	}

	out := RenderStats(stats)
	for _, want := range []string{"Total records", "42", "miami_dade", "foreclosure"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatsEmptyStore(t *testing.T) {
	out := RenderStats(models.Stats{})
	if !strings.Contains(out, "Total records") {
		t.Errorf("empty store should still render the totals table:\n%s", out)
	}
	if strings.Contains(out, "County") {
		t.Error("no group tables expected for an empty store")
	}
}
