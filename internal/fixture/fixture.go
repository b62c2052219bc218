// Package fixture loads the input artifacts of an evaluation run: the
// hypotheses file, the expected-outcomes file, and previously generated
// queries. Files are validated against a JSON schema before decoding so a
// malformed artifact fails loudly at startup instead of mid-batch.
package fixture

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/segmentio/encoding/json"

	"github.com/trailhunt-ai/trailhunt/engine/internal/table"
	"github.com/trailhunt-ai/trailhunt/engine/pkg/types"
)

const hypothesesSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "name", "hypothesis"],
		"properties": {
			"id": {"type": "string"},
			"name": {"type": "string"},
			"hypothesis": {"type": "string"}
		}
	}
}`

const outcomesSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"minProperties": 1,
		"maxProperties": 1,
		"additionalProperties": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`

const queriesSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["hypothesis_id", "hypothesis_name"],
		"properties": {
			"hypothesis_id": {"type": "string"},
			"hypothesis_name": {"type": "string"},
			"sql_query": {"type": "string"}
		}
	}
}`

// LoadHypotheses reads and validates the hypotheses file: an array of
// {id, name, hypothesis} objects.
func LoadHypotheses(path string) ([]types.Hypothesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hypotheses %s: %w", path, err)
	}
	if err := validate(data, "hypotheses.schema.json", hypothesesSchema); err != nil {
		return nil, fmt.Errorf("hypotheses %s: %w", path, err)
	}

	var out []types.Hypothesis
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode hypotheses %s: %w", path, err)
	}
	return out, nil
}

// LoadGeneratedQueries reads a previously persisted generated-queries file.
// A missing or empty sql_query is deliberately tolerated here: it fails at
// execution time and downgrades that one hypothesis, not the whole run.
func LoadGeneratedQueries(path string) ([]types.GeneratedQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queries %s: %w", path, err)
	}
	if err := validate(data, "queries.schema.json", queriesSchema); err != nil {
		return nil, fmt.Errorf("queries %s: %w", path, err)
	}

	var out []types.GeneratedQuery
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode queries %s: %w", path, err)
	}
	return out, nil
}

// LoadOutcomes reads the expected-outcomes file: a sequence of single-key
// mappings {hypothesisId: [rowObject, ...]}.
func LoadOutcomes(path string) (map[string]*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read outcomes %s: %w", path, err)
	}
	out, err := ParseOutcomes(data)
	if err != nil {
		return nil, fmt.Errorf("outcomes %s: %w", path, err)
	}
	return out, nil
}

// ParseOutcomes validates and decodes expected-outcomes JSON into a mapping
// from hypothesis id to result table. Row values are canonicalized to text to
// match the all-text store: numbers keep their literal form, booleans become
// "true"/"false", null stays null.
func ParseOutcomes(data []byte) (map[string]*table.Table, error) {
	if err := validate(data, "outcomes.schema.json", outcomesSchema); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw []map[string][]map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode outcomes: %w", err)
	}

	out := make(map[string]*table.Table, len(raw))
	for _, entry := range raw {
		for id, rows := range entry {
			out[id] = tableFromRows(rows)
		}
	}
	return out, nil
}

// tableFromRows builds a table from decoded row objects. Columns are the
// sorted union of all field names.
func tableFromRows(rows []map[string]any) *table.Table {
	colSet := make(map[string]struct{})
	for _, r := range rows {
		for k := range r {
			colSet[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(colSet))
	for k := range colSet {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	t := table.New(cols...)
	for _, r := range rows {
		row := make(table.Row, len(r))
		for k, v := range r {
			row[k] = textValue(v)
		}
		t.Append(row)
	}
	return t
}

// textValue converts a decoded JSON value to its text form, or nil for null.
func textValue(v any) *string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return &x
	case json.Number:
		s := x.String()
		return &s
	case bool:
		s := "false"
		if x {
			s = "true"
		}
		return &s
	default:
		s := fmt.Sprint(x)
		return &s
	}
}

// validate checks data against the given schema document.
func validate(data []byte, name, rawSchema string) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(rawSchema))
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile(name)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
