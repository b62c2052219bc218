package types

// Per-hypothesis evaluation states. PENDING and EXECUTING are transient;
// VALID and INVALID are terminal.
const (
	StatusPending   = "pending"
	StatusExecuting = "executing"
	StatusValid     = "valid"
	StatusInvalid   = "invalid"
)

// Overall score weights. F1 is weighted highest: precision or recall alone can
// be gamed by returning everything or nothing.
const (
	WeightPrecision = 0.3
	WeightRecall    = 0.3
	WeightF1        = 0.4
)

// HypothesisEvaluation is the scored outcome for a single hypothesis.
// Constructed once per evaluation run and never mutated afterwards.
type HypothesisEvaluation struct {
	HypothesisID   string `json:"hypothesis_id"`
	HypothesisName string `json:"hypothesis_name"`

	QueryValid bool   `json:"query_valid"`
	QueryError string `json:"query_error,omitempty"`

	ExpectedCount int `json:"expected_count"`
	ActualCount   int `json:"actual_count"`

	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`

	ExactMatchRate   float64 `json:"exact_match_rate"`
	PartialMatchRate float64 `json:"partial_match_rate"`

	MissingRecords int `json:"missing_records"`
	ExtraRecords   int `json:"extra_records"`

	OverallScore float64 `json:"overall_score"`

	Notes string `json:"notes,omitempty"`
}

// Status returns the terminal state of the evaluation.
func (e *HypothesisEvaluation) Status() string {
	if e.QueryValid {
		return StatusValid
	}
	return StatusInvalid
}

// EvaluationReport aggregates a batch of hypothesis evaluations.
// Immutable once returned by the batch aggregator.
type EvaluationReport struct {
	TotalHypotheses   int `json:"total_hypotheses"`
	SuccessfulQueries int `json:"successful_queries"`
	FailedQueries     int `json:"failed_queries"`

	// Averages over valid evaluations only.
	AvgPrecision float64 `json:"avg_precision"`
	AvgRecall    float64 `json:"avg_recall"`
	AvgF1        float64 `json:"avg_f1"`

	// Average over all evaluations; failed queries contribute 0.0.
	AvgOverallScore float64 `json:"avg_overall_score"`

	HypothesisResults []HypothesisEvaluation `json:"hypothesis_results"`

	Iteration    int    `json:"iteration"`
	Improvements string `json:"improvements,omitempty"`
}

// SuccessRate returns the fraction of hypotheses whose query executed.
func (r *EvaluationReport) SuccessRate() float64 {
	if r.TotalHypotheses == 0 {
		return 0
	}
	return float64(r.SuccessfulQueries) / float64(r.TotalHypotheses)
}
