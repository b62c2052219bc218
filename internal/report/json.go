// Package report renders evaluation reports as JSON, Markdown, and console
// summaries.
package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"

	"github.com/trailhunt-ai/trailhunt/engine/pkg/types"
)

// JSONReport is the machine-readable report artifact other tooling consumes.
type JSONReport struct {
	Version     string                       `json:"version"`
	RunID       string                       `json:"run_id"`
	GeneratedAt string                       `json:"generated_at"`
	Summary     JSONSummary                  `json:"summary"`
	Results     []types.HypothesisEvaluation `json:"results"`
}

// JSONSummary holds the aggregate counts and averages.
type JSONSummary struct {
	TotalHypotheses   int     `json:"total_hypotheses"`
	SuccessfulQueries int     `json:"successful_queries"`
	FailedQueries     int     `json:"failed_queries"`
	AvgPrecision      float64 `json:"avg_precision"`
	AvgRecall         float64 `json:"avg_recall"`
	AvgF1             float64 `json:"avg_f1"`
	AvgOverallScore   float64 `json:"avg_overall_score"`
	Iteration         int     `json:"iteration"`
	Improvements      string  `json:"improvements,omitempty"`
}

// GenerateJSON serializes an evaluation report with run metadata.
func GenerateJSON(r *types.EvaluationReport) ([]byte, error) {
	artifact := JSONReport{
		Version:     "1.0",
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Summary: JSONSummary{
			TotalHypotheses:   r.TotalHypotheses,
			SuccessfulQueries: r.SuccessfulQueries,
			FailedQueries:     r.FailedQueries,
			AvgPrecision:      r.AvgPrecision,
			AvgRecall:         r.AvgRecall,
			AvgF1:             r.AvgF1,
			AvgOverallScore:   r.AvgOverallScore,
			Iteration:         r.Iteration,
			Improvements:      r.Improvements,
		},
		Results: r.HypothesisResults,
	}

	out, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return out, nil
}
