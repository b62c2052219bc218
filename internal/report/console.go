package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/trailhunt-ai/trailhunt/engine/pkg/types"
)

var rule = strings.Repeat("=", 80)

// WriteSummary writes a plain-text evaluation summary to w.
func WriteSummary(w io.Writer, r *types.EvaluationReport) {
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "EVALUATION SUMMARY")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nTotal Hypotheses: %d\n", r.TotalHypotheses)
	fmt.Fprintf(w, "Successful Queries: %d\n", r.SuccessfulQueries)
	fmt.Fprintf(w, "Failed Queries: %d\n", r.FailedQueries)
	fmt.Fprintln(w, "\nAverage Metrics:")
	fmt.Fprintf(w, "  Precision: %.3f\n", r.AvgPrecision)
	fmt.Fprintf(w, "  Recall:    %.3f\n", r.AvgRecall)
	fmt.Fprintf(w, "  F1 Score:  %.3f\n", r.AvgF1)
	fmt.Fprintf(w, "  Overall:   %.3f\n", r.AvgOverallScore)

	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "PER-HYPOTHESIS RESULTS")
	fmt.Fprintln(w, rule)

	for i := range r.HypothesisResults {
		res := &r.HypothesisResults[i]
		status := "✓"
		if !res.QueryValid {
			status = "✗"
		}
		fmt.Fprintf(w, "\n%s [%s] %s\n", status, res.HypothesisID, res.HypothesisName)

		if res.QueryValid {
			fmt.Fprintf(w, "   Expected: %d, Actual: %d\n", res.ExpectedCount, res.ActualCount)
			fmt.Fprintf(w, "   P=%.2f R=%.2f F1=%.2f Score=%.2f\n",
				res.Precision, res.Recall, res.F1Score, res.OverallScore)
			if res.MissingRecords > 0 || res.ExtraRecords > 0 {
				fmt.Fprintf(w, "   Missing: %d, Extra: %d\n", res.MissingRecords, res.ExtraRecords)
			}
		} else {
			fmt.Fprintf(w, "   Error: %s\n", clip(res.QueryError, 100))
		}
	}

	fmt.Fprintf(w, "\n%s\n", rule)
}
