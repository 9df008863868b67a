package storage

import (
	"strings"
	"testing"
)

func TestRebindPostgresPlaceholders(t *testing.T) {
	pg := &Store{postgres: true}

	got := pg.rebind(`UPDATE properties SET last_seen = ? WHERE id = ?`)
	want := `UPDATE properties SET last_seen = $1 WHERE id = $2`
	if got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}

	lite := &Store{}
	query := `SELECT id FROM properties WHERE county = ?`
	if got := lite.rebind(query); got != query {
		t.Errorf("sqlite rebind must be a no-op, got %q", got)
	}
}

// Every parameter in the conflict lookup sits inside a comparison, so the
// Postgres planner can resolve its type. A parameter used only in an
// "IS NULL" test cannot be prepared.
func TestConflictLookupParametersAreComparisons(t *testing.T) {
	pg := &Store{postgres: true}

	lookup := pg.rebind(
		`SELECT id FROM properties
		 WHERE county = ? AND parcel_id = ? AND record_type = ?
		   AND COALESCE(sale_date, '') = COALESCE(?, '')`)

	if strings.Contains(lookup, "?") {
		t.Errorf("unrebound placeholder in %q", lookup)
	}
	for _, frag := range []string{"$1", "$2", "$3", "COALESCE($4, '')"} {
		if !strings.Contains(lookup, frag) {
			t.Errorf("lookup missing %q: %q", frag, lookup)
		}
	}
	if strings.Contains(lookup, "IS NULL") {
		t.Errorf("lookup must not type-test a bare parameter: %q", lookup)
	}
}
