package eval_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/trailhunt-ai/trailhunt/engine/internal/eval"
	"github.com/trailhunt-ai/trailhunt/engine/internal/store"
	"github.com/trailhunt-ai/trailhunt/engine/internal/table"
	"github.com/trailhunt-ai/trailhunt/engine/pkg/types"
)

const datasetCSV = `eventID,eventTime,eventName,sourceIPAddress,userIdentityuserName,errorCode
e1,2023-01-01T00:00:00Z,ConsoleLogin,1.2.3.4,admin,Failed
e2,2023-01-02T00:00:00Z,ConsoleLogin,5.6.7.8,admin,
e3,2023-01-03T00:00:00Z,RunInstances,9.9.9.9,miner,
e4,2023-01-04T00:00:00Z,GetCallerIdentity,9.9.9.9,recon,
`

func ptr(s string) *string { return &s }

func newEvaluator(t *testing.T) *eval.Evaluator {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.csv")
	if err := os.WriteFile(path, []byte(datasetCSV), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	s, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return eval.New(s, nil)
}

// expectedRow builds an expected-outcome row identified by eventID plus the
// other identity columns the dataset carries.
func expectedRow(id, time, name, ip, user string) table.Row {
	return table.Row{
		"eventID":              ptr(id),
		"eventTime":            ptr(time),
		"eventName":            ptr(name),
		"sourceIPAddress":      ptr(ip),
		"userIdentityuserName": ptr(user),
	}
}

func TestEvaluateHypothesis_PerfectMatch(t *testing.T) {
	e := newEvaluator(t)

	expected := table.New("eventID", "eventTime", "eventName", "sourceIPAddress", "userIdentityuserName")
	expected.Append(expectedRow("e1", "2023-01-01T00:00:00Z", "ConsoleLogin", "1.2.3.4", "admin"))

	result := e.EvaluateHypothesis("H1", "Failed logins",
		"SELECT eventID, eventTime, eventName, sourceIPAddress, userIdentityuserName FROM cloudtrail_logs WHERE errorCode = 'Failed'",
		expected)

	if !result.QueryValid {
		t.Fatalf("query should be valid, error: %s", result.QueryError)
	}
	if result.Precision != 1 || result.Recall != 1 || result.F1Score != 1 {
		t.Errorf("got P=%f R=%f F1=%f, want all 1.0", result.Precision, result.Recall, result.F1Score)
	}
	if result.OverallScore != 1 {
		t.Errorf("OverallScore = %f, want 1.0", result.OverallScore)
	}
	if result.Notes != "Found 1 records, expected 1" {
		t.Errorf("Notes = %q", result.Notes)
	}
}

func TestEvaluateHypothesis_InvalidQuery(t *testing.T) {
	e := newEvaluator(t)

	expected := table.New("eventID")
	expected.Append(table.Row{"eventID": ptr("e1")})

	result := e.EvaluateHypothesis("H1", "Broken", "SELECT FROM WHERE", expected)

	if result.QueryValid {
		t.Fatal("query should be invalid")
	}
	if result.QueryError == "" {
		t.Error("QueryError should be set")
	}
	if result.OverallScore != 0 {
		t.Errorf("OverallScore = %f, want 0", result.OverallScore)
	}
	if result.ExpectedCount != 1 || result.ActualCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", result.ExpectedCount, result.ActualCount)
	}
	if result.Notes != "Query execution failed" {
		t.Errorf("Notes = %q", result.Notes)
	}
}

func TestEvaluateHypothesis_OverallScoreWeights(t *testing.T) {
	e := newEvaluator(t)

	// Expected: e1 and e2. Query returns e1 only: P=1, R=0.5, F1=2/3.
	expected := table.New("eventID", "eventTime", "eventName", "sourceIPAddress", "userIdentityuserName")
	expected.Append(expectedRow("e1", "2023-01-01T00:00:00Z", "ConsoleLogin", "1.2.3.4", "admin"))
	expected.Append(expectedRow("e2", "2023-01-02T00:00:00Z", "ConsoleLogin", "5.6.7.8", "admin"))

	result := e.EvaluateHypothesis("H1", "Partial",
		"SELECT eventID, eventTime, eventName, sourceIPAddress, userIdentityuserName FROM cloudtrail_logs WHERE eventID = 'e1'",
		expected)

	if !result.QueryValid {
		t.Fatalf("query should be valid, error: %s", result.QueryError)
	}
	want := 0.3*1.0 + 0.3*0.5 + 0.4*(2.0/3.0)
	if math.Abs(result.OverallScore-want) > 1e-9 {
		t.Errorf("OverallScore = %f, want %f", result.OverallScore, want)
	}
	if result.MissingRecords != 1 || result.ExtraRecords != 0 {
		t.Errorf("Missing=%d Extra=%d, want 1/0", result.MissingRecords, result.ExtraRecords)
	}
}

func TestEvaluateBatch_MixedResults(t *testing.T) {
	e := newEvaluator(t)

	queries := []types.GeneratedQuery{
		{
			HypothesisID:   "H1",
			HypothesisName: "Failed logins",
			SQLQuery:       "SELECT eventID, eventTime, eventName, sourceIPAddress, userIdentityuserName FROM cloudtrail_logs WHERE errorCode = 'Failed'",
		},
		{
			HypothesisID:   "H2",
			HypothesisName: "Broken query",
			SQLQuery:       "SELECT FROM nothing",
		},
	}

	outcomes := map[string]*table.Table{
		"H1": func() *table.Table {
			tb := table.New("eventID", "eventTime", "eventName", "sourceIPAddress", "userIdentityuserName")
			tb.Append(expectedRow("e1", "2023-01-01T00:00:00Z", "ConsoleLogin", "1.2.3.4", "admin"))
			return tb
		}(),
	}

	report := e.EvaluateBatch(queries, outcomes)

	if report.TotalHypotheses != 2 {
		t.Errorf("TotalHypotheses = %d, want 2", report.TotalHypotheses)
	}
	if report.SuccessfulQueries != 1 || report.FailedQueries != 1 {
		t.Errorf("successful/failed = %d/%d, want 1/1", report.SuccessfulQueries, report.FailedQueries)
	}

	// Valid-only averages: the single valid query scored P=R=F1=1.
	if report.AvgPrecision != 1 || report.AvgRecall != 1 || report.AvgF1 != 1 {
		t.Errorf("averages = %f/%f/%f, want all 1.0", report.AvgPrecision, report.AvgRecall, report.AvgF1)
	}

	// Overall average spans all evaluations: (1.0 + 0.0) / 2.
	if math.Abs(report.AvgOverallScore-0.5) > 1e-9 {
		t.Errorf("AvgOverallScore = %f, want 0.5", report.AvgOverallScore)
	}

	if report.SuccessRate() != 0.5 {
		t.Errorf("SuccessRate = %f, want 0.5", report.SuccessRate())
	}
}

func TestEvaluateBatch_MissingOutcomeMeansExpectNothing(t *testing.T) {
	e := newEvaluator(t)

	queries := []types.GeneratedQuery{
		{
			HypothesisID:   "H9",
			HypothesisName: "No expectation, no results",
			SQLQuery:       "SELECT * FROM cloudtrail_logs WHERE eventName = 'DeleteTrail'",
		},
	}

	report := e.EvaluateBatch(queries, map[string]*table.Table{})

	res := report.HypothesisResults[0]
	if !res.QueryValid {
		t.Fatalf("query should be valid: %s", res.QueryError)
	}
	// Both sides empty: trivially perfect.
	if res.Precision != 1 || res.Recall != 1 || res.F1Score != 1 {
		t.Errorf("got P=%f R=%f F1=%f, want all 1.0", res.Precision, res.Recall, res.F1Score)
	}
}

func TestEvaluateBatch_EmptyExpectedNonEmptyActual(t *testing.T) {
	e := newEvaluator(t)

	queries := []types.GeneratedQuery{
		{
			HypothesisID:   "H8",
			HypothesisName: "Over-broad query",
			SQLQuery:       "SELECT * FROM cloudtrail_logs",
		},
	}

	report := e.EvaluateBatch(queries, map[string]*table.Table{})

	res := report.HypothesisResults[0]
	if !res.QueryValid {
		t.Fatalf("query should be valid: %s", res.QueryError)
	}
	if res.Precision != 0 || res.Recall != 1 || res.F1Score != 0 {
		t.Errorf("got P=%f R=%f F1=%f, want 0/1/0", res.Precision, res.Recall, res.F1Score)
	}
	if res.ExtraRecords != 4 {
		t.Errorf("ExtraRecords = %d, want 4", res.ExtraRecords)
	}
}

func TestEvaluateBatch_EmptyQueryList(t *testing.T) {
	e := newEvaluator(t)

	report := e.EvaluateBatch(nil, map[string]*table.Table{})

	if report.TotalHypotheses != 0 {
		t.Errorf("TotalHypotheses = %d, want 0", report.TotalHypotheses)
	}
	if report.AvgOverallScore != 0 || report.AvgPrecision != 0 {
		t.Errorf("averages should be 0 for an empty batch")
	}
}
