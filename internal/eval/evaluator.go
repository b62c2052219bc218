// Package eval drives hypothesis evaluation: execute the generated query
// against the store, normalize both result tables, compare key sets, and fold
// per-hypothesis scores into a batch report.
package eval

import (
	"fmt"
	"log/slog"

	"github.com/trailhunt-ai/trailhunt/engine/internal/metrics"
	"github.com/trailhunt-ai/trailhunt/engine/internal/store"
	"github.com/trailhunt-ai/trailhunt/engine/internal/table"
	"github.com/trailhunt-ai/trailhunt/engine/pkg/types"
)

// Evaluator scores generated queries against expected outcomes. It exclusively
// owns its store for the duration of its lifetime and evaluates hypotheses
// strictly sequentially: the store holds one session, so queries must not
// overlap.
type Evaluator struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates an evaluator over an opened store.
func New(s *store.Store, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{store: s, logger: logger}
}

// EvaluateHypothesis produces one evaluation from one generated query and its
// expected result table. A query that fails to execute yields an invalid
// evaluation carrying the error text and an overall score of 0.0; no
// comparison is attempted.
func (e *Evaluator) EvaluateHypothesis(id, name, sqlQuery string, expected *table.Table) *types.HypothesisEvaluation {
	ok, actual, errText := e.store.Execute(sqlQuery)
	if !ok {
		return &types.HypothesisEvaluation{
			HypothesisID:   id,
			HypothesisName: name,
			QueryValid:     false,
			QueryError:     errText,
			ExpectedCount:  expected.Len(),
			ActualCount:    0,
			OverallScore:   0.0,
			Notes:          "Query execution failed",
		}
	}

	c := metrics.Compare(table.Normalize(expected), table.Normalize(actual))

	overall := types.WeightPrecision*c.Precision +
		types.WeightRecall*c.Recall +
		types.WeightF1*c.F1

	return &types.HypothesisEvaluation{
		HypothesisID:   id,
		HypothesisName: name,
		QueryValid:     true,
		ExpectedCount:  expected.Len(),
		ActualCount:    actual.Len(),
		Precision:      c.Precision,
		Recall:         c.Recall,
		F1Score:        c.F1,
		ExactMatchRate: c.ExactMatchRate,
		MissingRecords: c.Missing,
		ExtraRecords:   c.Extra,
		OverallScore:   overall,
		Notes:          fmt.Sprintf("Found %d records, expected %d", actual.Len(), expected.Len()),
	}
}

// EvaluateBatch evaluates each generated query in input order against the
// outcome looked up by hypothesis id. A hypothesis with no recorded expectation
// is evaluated against an empty table ("expect nothing"), not treated as an
// error. Average precision/recall/F1 are computed over valid evaluations only;
// the average overall score is computed over all evaluations, so a single
// non-executing query drags it down.
func (e *Evaluator) EvaluateBatch(queries []types.GeneratedQuery, outcomes map[string]*table.Table) *types.EvaluationReport {
	results := make([]types.HypothesisEvaluation, 0, len(queries))
	var successful, failed int

	for _, q := range queries {
		expected, ok := outcomes[q.HypothesisID]
		if !ok {
			expected = table.New()
		}

		e.logger.Info("evaluating hypothesis", "id", q.HypothesisID, "name", q.HypothesisName)

		result := e.EvaluateHypothesis(q.HypothesisID, q.HypothesisName, q.SQLQuery, expected)
		results = append(results, *result)

		if result.QueryValid {
			successful++
		} else {
			failed++
			e.logger.Warn("query execution failed", "id", q.HypothesisID, "err", truncate(result.QueryError, 200))
		}
	}

	var sumP, sumR, sumF1, sumOverall float64
	for _, r := range results {
		sumOverall += r.OverallScore
		if r.QueryValid {
			sumP += r.Precision
			sumR += r.Recall
			sumF1 += r.F1Score
		}
	}

	report := &types.EvaluationReport{
		TotalHypotheses:   len(results),
		SuccessfulQueries: successful,
		FailedQueries:     failed,
		HypothesisResults: results,
		Iteration:         1,
	}
	if successful > 0 {
		report.AvgPrecision = sumP / float64(successful)
		report.AvgRecall = sumR / float64(successful)
		report.AvgF1 = sumF1 / float64(successful)
	}
	if len(results) > 0 {
		report.AvgOverallScore = sumOverall / float64(len(results))
	}

	return report
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
