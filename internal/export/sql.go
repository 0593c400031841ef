package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"  // postgres driver
	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/hxia920/PSID/internal/panel"
	"github.com/hxia920/PSID/internal/table"
)

// Dialect selects the SQL export target.
type Dialect string

const (
	DialectDuckDB   Dialect = "duckdb"
	DialectPostgres Dialect = "postgres"
)

// Open opens a connection for the given dialect. DuckDB takes a file path
// (empty for in-memory); Postgres takes a connection string.
func Open(d Dialect, dsn string) (*sql.DB, error) {
	switch d {
	case DialectDuckDB:
		return sql.Open("duckdb", dsn)
	case DialectPostgres:
		return sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported export dialect %q", d)
	}
}

// SQLWriter writes the panel into one database table, creating it first.
type SQLWriter struct {
	DB      *sql.DB
	Table   string
	Dialect Dialect
}

// Write creates the target table and bulk-inserts all panel rows inside a
// single transaction.
func (w *SQLWriter) Write(ctx context.Context, p *panel.Panel) error {
	if w.Table == "" {
		w.Table = "panel"
	}

	if _, err := w.DB.ExecContext(ctx, w.createSQL(p)); err != nil {
		return fmt.Errorf("creating table %s: %w", w.Table, err)
	}

	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning export transaction: %w", err)
	}

	insert := w.insertSQL(p)
	args := make([]any, 5+len(p.Concepts))
	for _, row := range p.Rows {
		args[0] = row.Person.Interview1968
		args[1] = row.Person.PersonNumber
		args[2] = row.Wave
		args[3] = cellArg(row.Family)
		args[4] = row.Role.String()
		for i, c := range p.Concepts {
			args[5+i] = cellArg(row.Values[c])
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting row for %s wave %d: %w", row.Person, row.Wave, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing export: %w", err)
	}
	return nil
}

func (w *SQLWriter) createSQL(p *panel.Panel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (", w.Table)
	b.WriteString("id1968 INTEGER NOT NULL, pnum INTEGER NOT NULL, wave INTEGER NOT NULL, inum INTEGER, role TEXT NOT NULL")
	for _, c := range p.Concepts {
		fmt.Fprintf(&b, ", %q DOUBLE PRECISION", c)
	}
	b.WriteString(", PRIMARY KEY (id1968, pnum, wave))")
	return b.String()
}

func (w *SQLWriter) insertSQL(p *panel.Panel) string {
	cols := append(append([]string(nil), keyColumns...), p.Concepts...)
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
		if w.Dialect == DialectPostgres {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		w.Table, strings.Join(quoted, ", "), strings.Join(marks, ", "))
}

func cellArg(v table.Value) any {
	if v.IsNull() {
		return nil
	}
	return v.Float
}
