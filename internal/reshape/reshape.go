// Package reshape converts wide family-wave tables, whose columns encode
// (concept, role) pairs, into long tables with one row per (family, role).
// This is the step that makes family-level data joinable against
// individual-level data, which is already one row per person.
package reshape

import (
	"fmt"

	"github.com/hxia920/PSID/internal/extract"
	"github.com/hxia920/PSID/internal/rolepolicy"
	"github.com/hxia920/PSID/internal/table"
)

// RoleColumn is the discriminant column name in reshaped long tables.
const RoleColumn = "role"

// Split emits up to one row per role for each family-row of the wide table.
// A role is emitted only when its discriminating relationship code is valid
// for the wave; families with a single valid role yield a single row, and
// invalid codes yield none. This narrowing is intentional, not row loss.
//
// keyConcept names the family key column (not role-qualified); relConcept is
// the role-qualified discriminant; seqConcept optionally names a
// role-qualified sequence-number concept for waves that carry one. concepts
// lists the role-qualified value concepts to carry into the long table.
func Split(wide *table.Table, wave int, keyConcept, relConcept, seqConcept string, concepts []string) (*table.Table, error) {
	if !wide.HasColumn(keyConcept) {
		return nil, fmt.Errorf("wave %d: reshape input lacks key column %q", wave, keyConcept)
	}

	names := make([]string, 0, len(concepts)+2)
	names = append(names, keyConcept, RoleColumn)
	names = append(names, concepts...)
	out := table.NewBuilder(names...)

	for i := 0; i < wide.Len(); i++ {
		key := wide.Cell(i, keyConcept)
		for _, role := range rolepolicy.Roles {
			rel := wide.Cell(i, extract.RoleColumn(relConcept, role))

			var got rolepolicy.Role
			if seqConcept != "" {
				seq := wide.Cell(i, extract.RoleColumn(seqConcept, role))
				got = rolepolicy.Classify(wave, rel, seq)
			} else {
				got = rolepolicy.CodeRole(wave, rel)
			}
			if got != role {
				continue
			}

			row := make([]table.Value, 0, len(names))
			row = append(row, key, role.Cell())
			for _, c := range concepts {
				row = append(row, wide.Cell(i, extract.RoleColumn(c, role)))
			}
			if err := out.Append(row...); err != nil {
				return nil, err
			}
		}
	}

	return out.Table(), nil
}
