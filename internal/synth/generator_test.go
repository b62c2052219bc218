package synth

import (
	"encoding/csv"
	"sort"
	"strings"
	"testing"
)

func TestGenerateDataset_CountAndOrder(t *testing.T) {
	events := NewGenerator(42).GenerateDataset(100, false, 0)

	if len(events) != 100 {
		t.Fatalf("len = %d, want 100", len(events))
	}

	if !sort.SliceIsSorted(events, func(i, j int) bool {
		return events[i]["eventTime"] < events[j]["eventTime"]
	}) {
		t.Error("events should be sorted by eventTime")
	}

	for i, e := range events {
		if e["eventID"] == "" {
			t.Fatalf("event %d missing eventID", i)
		}
		if e["eventName"] == "StopLogging" || e["eventName"] == "DeleteTrail" {
			t.Errorf("benign dataset contains disruption event %q", e["eventName"])
		}
	}
}

func TestGenerateDataset_Deterministic(t *testing.T) {
	a := NewGenerator(7).GenerateDataset(50, true, 0.2)
	b := NewGenerator(7).GenerateDataset(50, true, 0.2)

	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		for _, col := range Columns {
			if col == "eventID" {
				// eventIDs are fresh UUIDs, not derived from the seed.
				continue
			}
			if a[i][col] != b[i][col] {
				t.Fatalf("event %d column %s differs: %q vs %q", i, col, a[i][col], b[i][col])
			}
		}
	}
}

func TestGenerateDataset_IncludesThreats(t *testing.T) {
	events := NewGenerator(42).GenerateDataset(500, true, 0.2)

	counts := map[string]int{}
	for _, e := range events {
		counts[e["eventName"]]++
	}

	// With 100 threat slots spread over 10 types, each scenario contributes
	// roughly 10 events; the distinctive names must show up.
	if counts["StopLogging"]+counts["DeleteTrail"] == 0 {
		t.Error("no disruption events generated")
	}
	if counts["CreateAccessKey"] == 0 {
		t.Error("no access key events generated")
	}
	if counts["GetSecretValue"] == 0 {
		t.Error("no secrets access events generated")
	}
}

func TestWriteCSV(t *testing.T) {
	events := NewGenerator(42).GenerateDataset(20, true, 0.5)

	var sb strings.Builder
	if err := WriteCSV(&sb, events); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	r := csv.NewReader(strings.NewReader(sb.String()))
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}

	if len(records) != 21 {
		t.Fatalf("rows = %d, want 21 (header + 20)", len(records))
	}
	if len(records[0]) != len(Columns) {
		t.Fatalf("header width = %d, want %d", len(records[0]), len(Columns))
	}
	for i, col := range Columns {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}
}
