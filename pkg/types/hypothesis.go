package types

// Hypothesis is a natural-language claim about a pattern of interest in the
// event log. Loaded from the hypotheses file, consumed by query generation.
type Hypothesis struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"hypothesis"`
}

// QueryExplanation is the structured reasoning returned by the generation
// provider alongside a query.
type QueryExplanation struct {
	Interpretation string   `json:"interpretation"`
	Reasoning      string   `json:"reasoning"`
	Assumptions    []string `json:"assumptions"`
	Confidence     float64  `json:"confidence"`
	KeyFields      []string `json:"key_fields"`
}

// GeneratedQuery is the output of the generation collaborator. The evaluation
// engine consumes only HypothesisID, HypothesisName and SQLQuery; the rest is
// carried through for the persisted queries artifact.
type GeneratedQuery struct {
	HypothesisID   string           `json:"hypothesis_id"`
	HypothesisName string           `json:"hypothesis_name"`
	HypothesisText string           `json:"hypothesis_text,omitempty"`
	SQLQuery       string           `json:"sql_query"`
	Explanation    QueryExplanation `json:"explanation"`
}
