// Package store loads a delimited event dataset into an in-memory SQLite table
// and executes ad hoc SQL strings against it. Generated queries are untrusted
// text, so execution failures are returned as values and never cross the
// boundary as panics or errors that could abort a batch.
package store

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/trailhunt-ai/trailhunt/engine/internal/table"
)

// TableName is the name generated queries address the dataset by.
const TableName = "cloudtrail_logs"

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// insertBatchSize rows are inserted per transaction during load.
const insertBatchSize = 500

// Store owns a single SQLite session holding the loaded dataset. It is
// exclusively owned by one evaluator for its lifetime; evaluation is
// sequential, so no locking is needed.
type Store struct {
	db      *sql.DB
	columns []string
	records int
}

// Open creates an in-memory store and loads the CSV dataset at dataPath.
// Every column is loaded as TEXT: fields like account identifiers mix numeric
// and sentinel-string content, and type inference would reject them.
func Open(dataPath string) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory SQLite database exists per connection; cap the pool at one
	// so every statement sees the same table. This is also the store's
	// concurrency contract: one session per instance.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.load(dataPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("load dataset %s: %w", dataPath, err)
	}
	return s, nil
}

// load reads the CSV at path and populates the dataset table.
func (s *Store) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return errors.New("empty header row")
	}
	s.columns = append([]string(nil), header...)

	cols := make([]string, len(header))
	placeholders := make([]string, len(header))
	for i, name := range header {
		cols[i] = quoteIdent(name) + " TEXT"
		placeholders[i] = "?"
	}

	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", TableName, strings.Join(cols, ", "))
	if _, err := s.db.Exec(createStmt); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	insertStmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", TableName, strings.Join(placeholders, ", "))

	var tx *sql.Tx
	var stmt *sql.Stmt
	inBatch := 0

	flush := func() error {
		if tx == nil {
			return nil
		}
		stmt.Close()
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		tx, stmt, inBatch = nil, nil, 0
		return nil
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if tx != nil {
				tx.Rollback()
			}
			return fmt.Errorf("read record: %w", err)
		}

		if tx == nil {
			tx, err = s.db.Begin()
			if err != nil {
				return fmt.Errorf("begin batch: %w", err)
			}
			stmt, err = tx.Prepare(insertStmt)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("prepare insert: %w", err)
			}
		}

		args := make([]any, len(record))
		for i, v := range record {
			// Empty CSV fields load as NULL, matching how the source
			// dataset represents absent values.
			if v == "" {
				args[i] = nil
			} else {
				args[i] = v
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert record %d: %w", s.records+1, err)
		}
		s.records++
		inBatch++

		if inBatch >= insertBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

// Execute runs a query string against the loaded table. It never propagates an
// execution failure: syntax errors, unknown columns and unknown tables come
// back as (false, empty table, message) so one malformed generated query can
// never abort batch evaluation.
func (s *Store) Execute(query string) (bool, *table.Table, string) {
	if s.db == nil {
		return false, table.New(), ErrClosed.Error()
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return false, table.New(), err.Error()
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return false, table.New(), err.Error()
	}

	t := table.New(cols...)
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return false, table.New(), err.Error()
		}

		r := make(table.Row, len(cols))
		for i, c := range cols {
			if vals[i].Valid {
				v := vals[i].String
				r[c] = &v
			} else {
				r[c] = nil
			}
		}
		t.Append(r)
	}
	if err := rows.Err(); err != nil {
		return false, table.New(), err.Error()
	}

	return true, t, ""
}

// Records returns the number of dataset rows loaded.
func (s *Store) Records() int {
	return s.records
}

// Columns returns the dataset header columns in file order.
func (s *Store) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Close releases the underlying session. Safe to call multiple times;
// subsequent Execute calls fail with ErrClosed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return db.Close()
}

// quoteIdent quotes a column name as a SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
