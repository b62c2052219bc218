package report

import (
	"fmt"
	"io"

	"github.com/trailhunt-ai/trailhunt/engine/pkg/types"
)

// Assessment tiers by F1 score.
const (
	tierExcellent = 0.9
	tierGood      = 0.7
	tierModerate  = 0.5
)

// WriteMarkdown writes a detailed Markdown evaluation report to w.
func WriteMarkdown(w io.Writer, r *types.EvaluationReport) error {
	if _, err := fmt.Fprint(w, "# Evaluation Report - AI Threat Hunting Query Generation\n\n"); err != nil {
		return err
	}

	if _, err := fmt.Fprint(w, "## Summary\n\n"); err != nil {
		return err
	}
	fmt.Fprintf(w, "**Iteration:** %d\n\n", r.Iteration)
	fmt.Fprintf(w, "- **Total Hypotheses:** %d\n", r.TotalHypotheses)
	fmt.Fprintf(w, "- **Successful Queries:** %d\n", r.SuccessfulQueries)
	fmt.Fprintf(w, "- **Failed Queries:** %d\n", r.FailedQueries)
	fmt.Fprintf(w, "- **Success Rate:** %.1f%%\n\n", r.SuccessRate()*100)

	fmt.Fprint(w, "### Overall Metrics\n\n")
	fmt.Fprint(w, "| Metric | Score |\n")
	fmt.Fprint(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| Precision | %.3f |\n", r.AvgPrecision)
	fmt.Fprintf(w, "| Recall | %.3f |\n", r.AvgRecall)
	fmt.Fprintf(w, "| F1 Score | %.3f |\n", r.AvgF1)
	fmt.Fprintf(w, "| Overall Score | %.3f |\n\n", r.AvgOverallScore)

	fmt.Fprint(w, "## Per-Hypothesis Results\n\n")
	for i := range r.HypothesisResults {
		res := &r.HypothesisResults[i]
		writeHypothesisSection(w, res)
	}

	writeFailureAnalysis(w, r)
	writeRecommendations(w, r)

	return nil
}

func writeHypothesisSection(w io.Writer, res *types.HypothesisEvaluation) {
	icon := "✅"
	if !res.QueryValid {
		icon = "❌"
	}
	fmt.Fprintf(w, "### %s [%s] %s\n\n", icon, res.HypothesisID, res.HypothesisName)

	if !res.QueryValid {
		fmt.Fprint(w, "**Error:** Query execution failed\n\n")
		fmt.Fprintf(w, "```\n%s\n```\n\n", res.QueryError)
		return
	}

	fmt.Fprint(w, "**Metrics:**\n")
	fmt.Fprintf(w, "- Expected Records: %d\n", res.ExpectedCount)
	fmt.Fprintf(w, "- Actual Records: %d\n", res.ActualCount)
	fmt.Fprintf(w, "- Precision: %.3f\n", res.Precision)
	fmt.Fprintf(w, "- Recall: %.3f\n", res.Recall)
	fmt.Fprintf(w, "- F1 Score: %.3f\n", res.F1Score)
	fmt.Fprintf(w, "- Overall Score: %.3f\n\n", res.OverallScore)

	if res.MissingRecords > 0 || res.ExtraRecords > 0 {
		fmt.Fprint(w, "**Discrepancies:**\n")
		fmt.Fprintf(w, "- Missing Records: %d\n", res.MissingRecords)
		fmt.Fprintf(w, "- Extra Records: %d\n\n", res.ExtraRecords)
	}

	switch {
	case res.F1Score >= tierExcellent:
		fmt.Fprint(w, "**Assessment:** Excellent performance ✨\n\n")
	case res.F1Score >= tierGood:
		fmt.Fprint(w, "**Assessment:** Good performance ✓\n\n")
	case res.F1Score >= tierModerate:
		fmt.Fprint(w, "**Assessment:** Moderate performance ⚠️\n\n")
	default:
		fmt.Fprint(w, "**Assessment:** Needs improvement ⚠️⚠️\n\n")
	}
}

func writeFailureAnalysis(w io.Writer, r *types.EvaluationReport) {
	var failed []*types.HypothesisEvaluation
	for i := range r.HypothesisResults {
		if !r.HypothesisResults[i].QueryValid {
			failed = append(failed, &r.HypothesisResults[i])
		}
	}
	if len(failed) == 0 {
		return
	}

	fmt.Fprint(w, "## Failure Analysis\n\n")
	fmt.Fprintf(w, "The following %d queries failed to execute:\n\n", len(failed))
	for _, res := range failed {
		fmt.Fprintf(w, "- **%s**: %s\n", res.HypothesisID, res.HypothesisName)
		fmt.Fprintf(w, "  - Error: %s\n\n", clip(res.QueryError, 200))
	}
}

func writeRecommendations(w io.Writer, r *types.EvaluationReport) {
	fmt.Fprint(w, "## Recommendations\n\n")

	var low []*types.HypothesisEvaluation
	for i := range r.HypothesisResults {
		res := &r.HypothesisResults[i]
		if res.QueryValid && res.F1Score < tierGood {
			low = append(low, res)
		}
	}
	if len(low) > 0 {
		fmt.Fprint(w, "### Queries Needing Improvement\n\n")
		for _, res := range low {
			fmt.Fprintf(w, "- **%s**: %s (F1=%.2f)\n", res.HypothesisID, res.HypothesisName, res.F1Score)
		}
		fmt.Fprint(w, "\n")
	}

	if r.AvgF1 < 0.8 {
		fmt.Fprint(w, "### General Improvements\n\n")
		fmt.Fprint(w, "- Review and refine prompt engineering strategies\n")
		fmt.Fprint(w, "- Add more examples for low-performing hypothesis types\n")
		fmt.Fprint(w, "- Implement query validation before execution\n")
		fmt.Fprint(w, "- Consider multi-step reasoning for complex hypotheses\n\n")
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
