// Package export hands the validated panel to downstream collaborators:
// a CSV stream, or a database table in DuckDB or Postgres. The engine never
// persists anything itself; these writers are the output boundary.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/hxia920/PSID/internal/panel"
	"github.com/hxia920/PSID/internal/table"
)

// Fixed leading columns of every export, before the concept columns.
var keyColumns = []string{"id1968", "pnum", "wave", "inum", "role"}

// WriteCSV writes the panel as CSV with a header row. Null cells are empty
// fields.
func WriteCSV(w io.Writer, p *panel.Panel) error {
	cw := csv.NewWriter(w)

	header := append(append([]string(nil), keyColumns...), p.Concepts...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	rec := make([]string, len(header))
	for _, row := range p.Rows {
		rec[0] = strconv.Itoa(row.Person.Interview1968)
		rec[1] = strconv.Itoa(row.Person.PersonNumber)
		rec[2] = strconv.Itoa(row.Wave)
		rec[3] = formatCell(row.Family)
		rec[4] = row.Role.String()
		for i, c := range p.Concepts {
			rec[5+i] = formatCell(row.Values[c])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row for %s wave %d: %w", row.Person, row.Wave, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v table.Value) string {
	if v.IsNull() {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}
