package panel

import (
	"fmt"
	"strings"

	"github.com/hxia920/PSID/internal/ident"
)

// maxSampleRows bounds the offending-row sample in a validation failure, so
// a broken multi-million-row panel still produces a readable report.
const maxSampleRows = 10

// RowRef identifies an offending row in a validation report.
type RowRef struct {
	Person ident.PersonKey
	Wave   int
}

func (r RowRef) String() string {
	return fmt.Sprintf("(%s, %d)", r.Person, r.Wave)
}

// ValidationError names the first violated invariant plus a bounded sample
// of the rows that violate it.
type ValidationError struct {
	Check  string
	Detail string
	Sample []RowRef
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "panel validation failed [%s]: %s", e.Check, e.Detail)
	if len(e.Sample) > 0 {
		refs := make([]string, len(e.Sample))
		for i, r := range e.Sample {
			refs[i] = r.String()
		}
		fmt.Fprintf(&b, "; sample: %s", strings.Join(refs, " "))
	}
	return b.String()
}

// Validation check names.
const (
	CheckKeyUniqueness   = "key_uniqueness"
	CheckConceptCoverage = "concept_coverage"
	CheckWaveMembership  = "wave_membership"
	CheckOrphanKeys      = "orphan_keys"
)

// Validate enforces the panel invariants in order, short-circuiting on the
// first violation:
//
//  1. (person, wave) is unique across the panel.
//  2. Every declared concept appears in every row, null or not.
//  3. No row carries a wave outside the declared sequence.
//  4. Every person key has at least one row with a real observation.
func Validate(p *Panel) error {
	if err := checkKeyUniqueness(p); err != nil {
		return err
	}
	if err := checkConceptCoverage(p); err != nil {
		return err
	}
	if err := checkWaveMembership(p); err != nil {
		return err
	}
	return checkOrphanKeys(p)
}

type personWave struct {
	person ident.PersonKey
	wave   int
}

func checkKeyUniqueness(p *Panel) error {
	seen := make(map[personWave]bool, len(p.Rows))
	var sample []RowRef
	for _, row := range p.Rows {
		pw := personWave{person: row.Person, wave: row.Wave}
		if seen[pw] && len(sample) < maxSampleRows {
			sample = append(sample, RowRef{Person: row.Person, Wave: row.Wave})
		}
		seen[pw] = true
	}
	if len(sample) > 0 {
		return &ValidationError{
			Check:  CheckKeyUniqueness,
			Detail: "duplicate (person, wave) keys",
			Sample: sample,
		}
	}
	return nil
}

func checkConceptCoverage(p *Panel) error {
	for _, row := range p.Rows {
		for _, c := range p.Concepts {
			if _, ok := row.Values[c]; !ok {
				return &ValidationError{
					Check:  CheckConceptCoverage,
					Detail: fmt.Sprintf("concept %q missing from row", c),
					Sample: []RowRef{{Person: row.Person, Wave: row.Wave}},
				}
			}
		}
	}
	return nil
}

func checkWaveMembership(p *Panel) error {
	declared := make(map[int]bool, len(p.Waves))
	for _, w := range p.Waves {
		declared[w] = true
	}
	var sample []RowRef
	for _, row := range p.Rows {
		if !declared[row.Wave] && len(sample) < maxSampleRows {
			sample = append(sample, RowRef{Person: row.Person, Wave: row.Wave})
		}
	}
	if len(sample) > 0 {
		return &ValidationError{
			Check:  CheckWaveMembership,
			Detail: "rows carry waves outside the declared sequence",
			Sample: sample,
		}
	}
	return nil
}

// checkOrphanKeys guards against an upstream key-resolution bug producing
// keys with no actual observations: every person must have at least one row
// with at least one non-null concept value.
func checkOrphanKeys(p *Panel) error {
	observed := make(map[ident.PersonKey]bool)
	firstRow := make(map[ident.PersonKey]RowRef)
	for _, row := range p.Rows {
		if _, ok := firstRow[row.Person]; !ok {
			firstRow[row.Person] = RowRef{Person: row.Person, Wave: row.Wave}
		}
		if observed[row.Person] {
			continue
		}
		for _, v := range row.Values {
			if !v.IsNull() {
				observed[row.Person] = true
				break
			}
		}
	}
	var sample []RowRef
	for person, ref := range firstRow {
		if !observed[person] {
			sample = append(sample, ref)
			if len(sample) >= maxSampleRows {
				break
			}
		}
	}
	if len(sample) > 0 {
		return &ValidationError{
			Check:  CheckOrphanKeys,
			Detail: "person keys with no non-null observation in any wave",
			Sample: sample,
		}
	}
	return nil
}
