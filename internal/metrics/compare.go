// Package metrics computes set-based correctness metrics between an expected
// and an actual result table. Identity is the derived record key, not
// positional row equality, so column layout and row order never affect scores.
package metrics

import "github.com/trailhunt-ai/trailhunt/engine/internal/table"

// Comparison holds the set-based metrics for one expected/actual pair.
type Comparison struct {
	TruePositives int

	// Missing is |expectedKeys − actualKeys| (false negatives).
	Missing int
	// Extra is |actualKeys − expectedKeys| (false positives).
	Extra int

	Precision      float64
	Recall         float64
	F1             float64
	ExactMatchRate float64
}

// Compare derives the key sets of both tables and computes precision, recall,
// F1 and exact-match rate over their intersection. Duplicate keys collapse:
// duplicate-row handling is "any wins", never counted twice.
//
// Empty-table policy:
//   - both empty: trivially correct, all metrics 1.0
//   - expected empty, actual non-empty: precision 0, recall 1, f1 0 — recall is
//     defined as perfect when nothing was expected. Deliberate quirk carried
//     over from the established scoring behavior; see DESIGN.md before changing.
//   - expected non-empty, actual empty: total miss, all metrics 0
func Compare(expected, actual *table.Table) Comparison {
	if expected.Empty() && actual.Empty() {
		return Comparison{Precision: 1, Recall: 1, F1: 1, ExactMatchRate: 1}
	}

	if expected.Empty() {
		return Comparison{Recall: 1, Extra: actual.Len()}
	}

	if actual.Empty() {
		return Comparison{Missing: expected.Len()}
	}

	expectedKeys := expected.KeySet()
	actualKeys := actual.KeySet()

	var truePositives int
	for k := range expectedKeys {
		if _, ok := actualKeys[k]; ok {
			truePositives++
		}
	}
	falsePositives := len(actualKeys) - truePositives
	falseNegatives := len(expectedKeys) - truePositives

	c := Comparison{
		TruePositives: truePositives,
		Missing:       falseNegatives,
		Extra:         falsePositives,
	}

	if truePositives+falsePositives > 0 {
		c.Precision = float64(truePositives) / float64(truePositives+falsePositives)
	}
	if truePositives+falseNegatives > 0 {
		c.Recall = float64(truePositives) / float64(truePositives+falseNegatives)
	}
	if c.Precision+c.Recall > 0 {
		c.F1 = 2 * c.Precision * c.Recall / (c.Precision + c.Recall)
	}
	if len(expectedKeys) > 0 {
		c.ExactMatchRate = float64(truePositives) / float64(len(expectedKeys))
	}

	return c
}
