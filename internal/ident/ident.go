// Package ident defines the three identifier tiers of the panel: the
// permanent person key, the wave-specific family key, and the per-wave
// sequence position. It also keeps the exclusion tally: rows dropped for
// missing identifiers are counted with a reason, never silently absorbed.
package ident

import (
	"fmt"
	"sync"

	"github.com/hxia920/PSID/internal/table"
)

// Canonical concept names the pipeline requires from the individual-level
// variable map.
const (
	ConceptInterview1968 = "id1968"
	ConceptPersonNumber  = "pnum"
	ConceptFamily        = "inum"
	ConceptSequence      = "seqnum"
	ConceptRelation      = "rel"
)

// Required lists the individual-level concepts the pipeline cannot run
// without.
var Required = []string{
	ConceptInterview1968,
	ConceptPersonNumber,
	ConceptFamily,
	ConceptSequence,
	ConceptRelation,
}

// PersonKey identifies a person for their entire presence in the dataset:
// the 1968 interview number plus the 1968 person number. It never changes,
// even as the person's family key does.
type PersonKey struct {
	Interview1968 int
	PersonNumber  int
}

func (k PersonKey) String() string {
	return fmt.Sprintf("%d_%d", k.Interview1968, k.PersonNumber)
}

// MissingIdentifierError reports a row whose permanent-key fields are null.
// The row is excluded and tallied; the run continues.
type MissingIdentifierError struct {
	Wave  int
	Row   int
	Field string
}

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("wave %d row %d: identifier field %q is null", e.Wave, e.Row, e.Field)
}

// PermanentKey builds the permanent person key from the 1968 fixed fields.
func PermanentKey(wave, row int, interview, person table.Value) (PersonKey, error) {
	if interview.IsNull() {
		return PersonKey{}, &MissingIdentifierError{Wave: wave, Row: row, Field: ConceptInterview1968}
	}
	if person.IsNull() {
		return PersonKey{}, &MissingIdentifierError{Wave: wave, Row: row, Field: ConceptPersonNumber}
	}
	return PersonKey{Interview1968: interview.Int(), PersonNumber: person.Int()}, nil
}

// Exclusion records one row dropped during identifier resolution or role
// gating.
type Exclusion struct {
	Wave   int
	Row    int
	Reason string
}

// Exclusion reasons.
const (
	ReasonMissingIdentifier = "missing_identifier"
	ReasonNoHouseholdRole   = "no_household_role"
)

// Tally accumulates exclusions across concurrent wave workers.
type Tally struct {
	mu         sync.Mutex
	exclusions []Exclusion
}

// Exclude records one dropped row.
func (t *Tally) Exclude(wave, row int, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exclusions = append(t.exclusions, Exclusion{Wave: wave, Row: row, Reason: reason})
}

// Count returns the total number of excluded rows.
func (t *Tally) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.exclusions)
}

// CountWave returns the number of rows excluded in one wave.
func (t *Tally) CountWave(wave int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.exclusions {
		if e.Wave == wave {
			n++
		}
	}
	return n
}

// ByReason returns exclusion counts keyed by reason.
func (t *Tally) ByReason() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int)
	for _, e := range t.exclusions {
		out[e.Reason]++
	}
	return out
}
