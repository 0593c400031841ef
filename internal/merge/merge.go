// Package merge joins each wave's individual-level long rows against that
// wave's family-level long table on (family key, role), then stacks all
// waves into the final panel. Joins are strictly key-based; row position
// never carries meaning.
package merge

import (
	"fmt"

	"github.com/hxia920/PSID/internal/panel"
	"github.com/hxia920/PSID/internal/reshape"
	"github.com/hxia920/PSID/internal/rolepolicy"
	"github.com/hxia920/PSID/internal/table"
)

// RoleJoinAmbiguityError reports more than one family row for a single
// (family key, role) within a wave. That breaks the many-individuals-to-one-
// family join and indicates a reshape defect upstream, so it is fatal.
type RoleJoinAmbiguityError struct {
	Wave   int
	Family int
	Role   rolepolicy.Role
}

func (e *RoleJoinAmbiguityError) Error() string {
	return fmt.Sprintf("wave %d: multiple family rows for family %d role %s",
		e.Wave, e.Family, e.Role)
}

type famRole struct {
	family int
	role   rolepolicy.Role
}

// JoinWave attaches family-level concept values to each individual row.
//
// Family rows with no matching individual are discarded: a family with no
// resolved role match contributes nothing that wave. Individual rows with no
// matching family row are always kept, with null family concepts; the
// person's presence that wave is established by individual-level data alone.
// The second return counts individual rows that found a family match.
func JoinWave(wave int, individuals []panel.Row, family *table.Table, keyConcept string, concepts []string) ([]panel.Row, int, error) {
	index := make(map[famRole]int, family.Len())
	for i := 0; i < family.Len(); i++ {
		key := family.Cell(i, keyConcept)
		role := rolepolicy.FromCell(family.Cell(i, reshape.RoleColumn))
		if key.IsNull() || role == rolepolicy.None {
			continue
		}
		fr := famRole{family: key.Int(), role: role}
		if _, dup := index[fr]; dup {
			return nil, 0, &RoleJoinAmbiguityError{Wave: wave, Family: fr.family, Role: fr.role}
		}
		index[fr] = i
	}

	matched := 0
	for r := range individuals {
		row := &individuals[r]
		found := -1
		if !row.Family.IsNull() && row.Role != rolepolicy.None {
			if i, ok := index[famRole{family: row.Family.Int(), role: row.Role}]; ok {
				found = i
				matched++
			}
		}
		for _, c := range concepts {
			if found >= 0 {
				row.Values[c] = family.Cell(found, c)
			} else {
				row.Values[c] = table.Null
			}
		}
	}

	return individuals, matched, nil
}

// Stack assembles per-wave rows into the final panel, in declared wave
// order. Waves with no rows contribute nothing.
func Stack(waves []int, byWave map[int][]panel.Row, concepts []string) *panel.Panel {
	p := &panel.Panel{
		Waves:    append([]int(nil), waves...),
		Concepts: append([]string(nil), concepts...),
	}
	for _, w := range waves {
		p.Rows = append(p.Rows, byWave[w]...)
	}
	return p
}
