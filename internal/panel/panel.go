// Package panel defines the engine's output: the long-format panel keyed by
// (permanent person key, wave year), and the validator that gates it.
package panel

import (
	"github.com/hxia920/PSID/internal/ident"
	"github.com/hxia920/PSID/internal/rolepolicy"
	"github.com/hxia920/PSID/internal/table"
)

// Row is one person-wave observation. Values maps concept names to cells; a
// null cell means the concept was not collected that wave or does not apply
// to the person's role. Rows are created during the merge and never mutated
// after validation.
type Row struct {
	Person ident.PersonKey
	Wave   int
	Family table.Value
	Role   rolepolicy.Role
	Values map[string]table.Value
}

// Panel is the full long panel, stacked in declared wave order.
type Panel struct {
	Waves    []int
	Concepts []string
	Rows     []Row
}

// Len returns the number of person-wave rows.
func (p *Panel) Len() int {
	return len(p.Rows)
}
