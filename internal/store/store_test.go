package store_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/trailhunt-ai/trailhunt/engine/internal/store"
)

const sampleCSV = `eventID,eventTime,eventName,sourceIPAddress,errorCode
e1,2023-01-01T00:00:00Z,ConsoleLogin,1.2.3.4,
e2,2023-01-02T00:00:00Z,ConsoleLogin,5.6.7.8,Failed
e3,2023-01-03T00:00:00Z,RunInstances,9.9.9.9,
`

func openSample(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_LoadsAllRecords(t *testing.T) {
	s := openSample(t)

	if s.Records() != 3 {
		t.Errorf("Records = %d, want 3", s.Records())
	}

	cols := s.Columns()
	want := []string{"eventID", "eventTime", "eventName", "sourceIPAddress", "errorCode"}
	if len(cols) != len(want) {
		t.Fatalf("Columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("Columns[%d] = %q, want %q", i, cols[i], want[i])
		}
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := store.Open(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("Open should fail for a missing file")
	}
}

func TestExecute_ValidQuery(t *testing.T) {
	s := openSample(t)

	ok, result, errText := s.Execute("SELECT * FROM cloudtrail_logs WHERE eventName = 'ConsoleLogin'")
	if !ok {
		t.Fatalf("Execute failed: %s", errText)
	}
	if result.Len() != 2 {
		t.Errorf("rows = %d, want 2", result.Len())
	}
}

func TestExecute_EmptyFieldsAreNull(t *testing.T) {
	s := openSample(t)

	ok, result, errText := s.Execute("SELECT * FROM cloudtrail_logs WHERE errorCode IS NULL")
	if !ok {
		t.Fatalf("Execute failed: %s", errText)
	}
	if result.Len() != 2 {
		t.Errorf("rows with NULL errorCode = %d, want 2", result.Len())
	}
	for _, r := range result.Rows {
		if r["errorCode"] != nil {
			t.Errorf("errorCode should be nil, got %q", *r["errorCode"])
		}
	}
}

func TestExecute_SyntaxError(t *testing.T) {
	s := openSample(t)

	ok, result, errText := s.Execute("SELEKT * FORM cloudtrail_logs")
	if ok {
		t.Fatal("Execute should report failure for a syntax error")
	}
	if errText == "" {
		t.Error("error text should be non-empty")
	}
	if !result.Empty() {
		t.Errorf("failed query should return an empty table, got %d rows", result.Len())
	}
}

func TestExecute_UnknownColumn(t *testing.T) {
	s := openSample(t)

	ok, _, errText := s.Execute("SELECT nonexistent FROM cloudtrail_logs")
	if ok {
		t.Fatal("Execute should report failure for an unknown column")
	}
	if !strings.Contains(errText, "nonexistent") {
		t.Errorf("error text should name the column, got %q", errText)
	}
}

func TestExecute_AfterClose(t *testing.T) {
	s := openSample(t)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Close again is a no-op.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	ok, _, errText := s.Execute("SELECT * FROM cloudtrail_logs")
	if ok {
		t.Fatal("Execute on closed store should fail")
	}
	if errText != store.ErrClosed.Error() {
		t.Errorf("error = %q, want %q", errText, store.ErrClosed.Error())
	}
}

func TestExecute_ProjectionKeepsQueryColumns(t *testing.T) {
	s := openSample(t)

	ok, result, errText := s.Execute("SELECT eventID, eventName FROM cloudtrail_logs LIMIT 1")
	if !ok {
		t.Fatalf("Execute failed: %s", errText)
	}
	if len(result.Columns) != 2 || result.Columns[0] != "eventID" || result.Columns[1] != "eventName" {
		t.Errorf("Columns = %v, want [eventID eventName]", result.Columns)
	}
}
