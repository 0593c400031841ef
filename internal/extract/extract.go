// Package extract projects one wave's raw table into canonical concept
// columns using the variable map. The projection is pure: no raw data is
// modified, and a concept not collected that wave becomes an all-null
// column rather than an error.
package extract

import (
	"fmt"

	"github.com/hxia920/PSID/internal/rolepolicy"
	"github.com/hxia920/PSID/internal/table"
	"github.com/hxia920/PSID/internal/varmap"
)

// Role-qualified concepts carry a per-role suffix between extraction and the
// role reshape, and nowhere else.
const (
	refSuffix     = "@ref"
	partnerSuffix = "@partner"
)

// RoleColumn returns the internal column name for a role-qualified concept's
// per-role value.
func RoleColumn(concept string, role rolepolicy.Role) string {
	if role == rolepolicy.Partner {
		return concept + partnerSuffix
	}
	return concept + refSuffix
}

// MissingRawColumnError reports a raw column the variable map claims but the
// actual wave data lacks: the declared schema disagrees with reality, which
// is fatal for the run.
type MissingRawColumnError struct {
	Wave    int
	Concept string
	Column  string
}

func (e *MissingRawColumnError) Error() string {
	return fmt.Sprintf("wave %d: concept %q expects raw column %q, not present in data",
		e.Wave, e.Concept, e.Column)
}

// Extract resolves each requested concept for the wave and projects the raw
// table into a wide table of canonical columns. Role-qualified concepts emit
// one suffixed column per role for the reshaper to consume.
func Extract(raw *table.Table, wave int, m *varmap.Map, concepts []string) (*table.Table, error) {
	out := table.New(raw.Len())

	for _, concept := range concepts {
		src, collected, err := m.Resolve(concept, wave)
		if err != nil {
			return nil, err
		}

		if m.RoleQualified(concept) {
			for _, role := range rolepolicy.Roles {
				name := RoleColumn(concept, role)
				rawName := ""
				if collected {
					rawName = src.ByRole[role]
				}
				col, err := project(raw, wave, concept, rawName)
				if err != nil {
					return nil, err
				}
				if err := out.AddColumn(name, col); err != nil {
					return nil, err
				}
			}
			continue
		}

		rawName := ""
		if collected {
			rawName = src.Column
		}
		col, err := project(raw, wave, concept, rawName)
		if err != nil {
			return nil, err
		}
		if err := out.AddColumn(concept, col); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// project returns the raw column's values, or an all-null column when the
// concept has no raw name for this wave.
func project(raw *table.Table, wave int, concept, rawName string) ([]table.Value, error) {
	if rawName == "" {
		return table.NullColumn(raw.Len()), nil
	}
	col, ok := raw.Column(rawName)
	if !ok {
		return nil, &MissingRawColumnError{Wave: wave, Concept: concept, Column: rawName}
	}
	return col, nil
}
