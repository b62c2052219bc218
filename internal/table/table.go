// Package table holds the in-memory result-table representation shared by the
// store, the comparator and the fixture loader, plus the normalization and
// record-identity logic that makes independently produced tables comparable.
package table

import (
	"sort"
	"strings"
)

// Priority fields used for record identity, in fixed order. The dataset has no
// true primary key, so identity is a heuristic over these well-known columns.
var identityFields = []string{
	"eventID",
	"eventTime",
	"eventName",
	"sourceIPAddress",
	"userIdentityuserName",
}

// Row is one event record: field name to value. A nil value is SQL NULL.
type Row map[string]*string

// Clone returns a shallow copy of the row (values are immutable strings).
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sequence of rows with an ordered column list. Two tables
// of different provenance (expected fixture vs. query output) never share row
// or column order.
type Table struct {
	Columns []string
	Rows    []Row
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Append adds a row to the table.
func (t *Table) Append(r Row) {
	t.Rows = append(t.Rows, r)
}

// RecordKey derives the identity string for a row: "field:value" segments
// joined by "|" over the priority fields that are present and non-null, in
// their fixed order. If none of the priority fields are present, every
// non-null field participates instead, sorted by field name so the key is a
// pure function of row contents.
func RecordKey(r Row) string {
	parts := make([]string, 0, len(identityFields))
	for _, field := range identityFields {
		if v, ok := r[field]; ok && v != nil {
			parts = append(parts, field+":"+*v)
		}
	}

	if len(parts) == 0 {
		fields := make([]string, 0, len(r))
		for k, v := range r {
			if v != nil {
				fields = append(fields, k)
			}
		}
		sort.Strings(fields)
		for _, k := range fields {
			parts = append(parts, k+":"+*r[k])
		}
	}

	return strings.Join(parts, "|")
}

// KeySet returns the set of record keys over all rows. Duplicate keys collapse,
// so duplicate rows count once.
func (t *Table) KeySet() map[string]struct{} {
	keys := make(map[string]struct{}, t.Len())
	for _, r := range t.Rows {
		keys[RecordKey(r)] = struct{}{}
	}
	return keys
}
