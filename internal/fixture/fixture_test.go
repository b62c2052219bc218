package fixture_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/trailhunt-ai/trailhunt/engine/internal/fixture"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadHypotheses(t *testing.T) {
	path := writeFile(t, "hypotheses.json", `[
		{"id": "H1", "name": "Failed logins", "hypothesis": "An attacker is brute forcing console logins"},
		{"id": "H2", "name": "Root usage", "hypothesis": "Someone is using the root account"}
	]`)

	hs, err := fixture.LoadHypotheses(path)
	if err != nil {
		t.Fatalf("LoadHypotheses: %v", err)
	}
	if len(hs) != 2 {
		t.Fatalf("len = %d, want 2", len(hs))
	}
	if hs[0].ID != "H1" || hs[0].Name != "Failed logins" {
		t.Errorf("first hypothesis = %+v", hs[0])
	}
	if hs[1].Text != "Someone is using the root account" {
		t.Errorf("Text = %q", hs[1].Text)
	}
}

func TestLoadHypotheses_MissingRequiredField(t *testing.T) {
	path := writeFile(t, "hypotheses.json", `[{"id": "H1", "name": "No hypothesis text"}]`)

	if _, err := fixture.LoadHypotheses(path); err == nil {
		t.Fatal("LoadHypotheses should reject an entry without hypothesis text")
	}
}

func TestLoadHypotheses_NotAnArray(t *testing.T) {
	path := writeFile(t, "hypotheses.json", `{"id": "H1"}`)

	if _, err := fixture.LoadHypotheses(path); err == nil {
		t.Fatal("LoadHypotheses should reject a non-array document")
	}
}

func TestLoadGeneratedQueries_ToleratesMissingSQL(t *testing.T) {
	path := writeFile(t, "queries.json", `[
		{"hypothesis_id": "H1", "hypothesis_name": "Failed logins", "sql_query": "SELECT 1"},
		{"hypothesis_id": "H2", "hypothesis_name": "No query yet"}
	]`)

	qs, err := fixture.LoadGeneratedQueries(path)
	if err != nil {
		t.Fatalf("LoadGeneratedQueries: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("len = %d, want 2", len(qs))
	}
	if qs[1].SQLQuery != "" {
		t.Errorf("SQLQuery = %q, want empty", qs[1].SQLQuery)
	}
}

func TestParseOutcomes(t *testing.T) {
	data := []byte(`[
		{"H1": [
			{"eventID": "e1", "count": 42, "flag": true, "note": null},
			{"eventID": "e2"}
		]},
		{"H2": []}
	]`)

	out, err := fixture.ParseOutcomes(data)
	if err != nil {
		t.Fatalf("ParseOutcomes: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}

	h1 := out["H1"]
	if h1.Len() != 2 {
		t.Fatalf("H1 rows = %d, want 2", h1.Len())
	}

	// Columns are the sorted union over all rows.
	wantCols := []string{"count", "eventID", "flag", "note"}
	if len(h1.Columns) != len(wantCols) {
		t.Fatalf("columns = %v, want %v", h1.Columns, wantCols)
	}
	for i := range wantCols {
		if h1.Columns[i] != wantCols[i] {
			t.Errorf("Columns[%d] = %q, want %q", i, h1.Columns[i], wantCols[i])
		}
	}

	row := h1.Rows[0]
	if v := row["count"]; v == nil || *v != "42" {
		t.Errorf("count = %v, want \"42\"", v)
	}
	if v := row["flag"]; v == nil || *v != "true" {
		t.Errorf("flag = %v, want \"true\"", v)
	}
	if row["note"] != nil {
		t.Errorf("null value should stay nil")
	}

	if !out["H2"].Empty() {
		t.Errorf("H2 should be empty")
	}
}

func TestParseOutcomes_NumberFidelity(t *testing.T) {
	// Large identifiers must keep their literal form, not scientific notation.
	data := []byte(`[{"H1": [{"userIdentityaccountId": 811596193553}]}]`)

	out, err := fixture.ParseOutcomes(data)
	if err != nil {
		t.Fatalf("ParseOutcomes: %v", err)
	}
	v := out["H1"].Rows[0]["userIdentityaccountId"]
	if v == nil || *v != "811596193553" {
		t.Errorf("account id = %v, want literal \"811596193553\"", v)
	}
}

func TestParseOutcomes_RejectsMultiKeyEntry(t *testing.T) {
	data := []byte(`[{"H1": [], "H2": []}]`)

	if _, err := fixture.ParseOutcomes(data); err == nil {
		t.Fatal("ParseOutcomes should reject entries with more than one key")
	}
}

func TestParseOutcomes_RejectsNonArrayRows(t *testing.T) {
	data := []byte(`[{"H1": {"eventID": "e1"}}]`)

	if _, err := fixture.ParseOutcomes(data); err == nil {
		t.Fatal("ParseOutcomes should reject non-array row containers")
	}
}

func TestLoadOutcomes_MissingFile(t *testing.T) {
	if _, err := fixture.LoadOutcomes(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("LoadOutcomes should fail for a missing file")
	}
}
