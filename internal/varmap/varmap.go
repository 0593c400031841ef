// Package varmap holds the declarative variable map: for every tracked
// concept, which raw column carries it in which wave. The map is built once
// from configuration, validated for conflicting claims, and read-only
// afterwards, so it is safe to share across concurrent wave workers.
package varmap

import (
	"fmt"
	"sort"

	"github.com/hxia920/PSID/internal/rolepolicy"
)

// Source is the raw-column resolution of one concept in one wave. Exactly
// one of Column or ByRole is populated, depending on whether the concept is
// role-qualified.
type Source struct {
	Column string
	ByRole map[rolepolicy.Role]string
}

// Concept describes one canonical variable and its wave-specific raw names.
type Concept struct {
	Name          string
	RoleQualified bool
	byWave        map[int]Source
}

// Waves returns the waves this concept was collected in, ascending.
func (c *Concept) Waves() []int {
	waves := make([]int, 0, len(c.byWave))
	for w := range c.byWave {
		waves = append(waves, w)
	}
	sort.Ints(waves)
	return waves
}

// Map is an immutable set of concepts keyed by canonical name.
type Map struct {
	concepts map[string]*Concept
	names    []string
}

// UnknownConceptError reports a lookup of a concept that was never declared.
type UnknownConceptError struct {
	Concept string
}

func (e *UnknownConceptError) Error() string {
	return fmt.Sprintf("unknown concept %q", e.Concept)
}

// ConflictingMappingError reports two concepts claiming the same raw column
// in the same wave. Raised at build time, before any wave is processed.
type ConflictingMappingError struct {
	Wave     int
	Column   string
	Concepts [2]string
}

func (e *ConflictingMappingError) Error() string {
	return fmt.Sprintf("wave %d: concepts %q and %q both map to raw column %q",
		e.Wave, e.Concepts[0], e.Concepts[1], e.Column)
}

// ColumnSpec is one wave's raw-column declaration. Plain concepts use
// Column; role-qualified concepts use Ref and Partner.
type ColumnSpec struct {
	Column  string `koanf:"column" yaml:"column,omitempty"`
	Ref     string `koanf:"ref" yaml:"ref,omitempty"`
	Partner string `koanf:"partner" yaml:"partner,omitempty"`
}

// ConceptSpec is the configuration form of a concept.
type ConceptSpec struct {
	Name          string             `koanf:"name"`
	RoleQualified bool               `koanf:"role_qualified"`
	Waves         map[int]ColumnSpec `koanf:"waves"`
}

// New builds a Map from concept specs, validating that no raw column is
// claimed twice within a wave.
func New(specs []ConceptSpec) (*Map, error) {
	m := &Map{concepts: make(map[string]*Concept)}

	// claims tracks column ownership per wave for conflict detection.
	claims := make(map[int]map[string]string)
	claim := func(wave int, column, concept string) error {
		if column == "" {
			return nil
		}
		if claims[wave] == nil {
			claims[wave] = make(map[string]string)
		}
		if prev, taken := claims[wave][column]; taken && prev != concept {
			return &ConflictingMappingError{
				Wave:     wave,
				Column:   column,
				Concepts: [2]string{prev, concept},
			}
		}
		claims[wave][column] = concept
		return nil
	}

	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("concept with empty name")
		}
		if _, dup := m.concepts[spec.Name]; dup {
			return nil, fmt.Errorf("concept %q declared twice", spec.Name)
		}

		c := &Concept{
			Name:          spec.Name,
			RoleQualified: spec.RoleQualified,
			byWave:        make(map[int]Source, len(spec.Waves)),
		}
		for wave, cols := range spec.Waves {
			var src Source
			if spec.RoleQualified {
				src.ByRole = make(map[rolepolicy.Role]string, 2)
				if cols.Ref != "" {
					src.ByRole[rolepolicy.Reference] = cols.Ref
				}
				if cols.Partner != "" {
					src.ByRole[rolepolicy.Partner] = cols.Partner
				}
				if len(src.ByRole) == 0 {
					return nil, fmt.Errorf("concept %q wave %d: role-qualified entry declares no role columns", spec.Name, wave)
				}
				for _, col := range src.ByRole {
					if err := claim(wave, col, spec.Name); err != nil {
						return nil, err
					}
				}
			} else {
				if cols.Column == "" {
					return nil, fmt.Errorf("concept %q wave %d: missing column name", spec.Name, wave)
				}
				src.Column = cols.Column
				if err := claim(wave, src.Column, spec.Name); err != nil {
					return nil, err
				}
			}
			c.byWave[wave] = src
		}

		m.concepts[spec.Name] = c
		m.names = append(m.names, spec.Name)
	}

	return m, nil
}

// Resolve returns the raw-column source for a concept in a wave. The second
// return is false when the concept was not collected that wave, which is not
// an error. Undeclared concepts return an UnknownConceptError.
func (m *Map) Resolve(concept string, wave int) (Source, bool, error) {
	c, ok := m.concepts[concept]
	if !ok {
		return Source{}, false, &UnknownConceptError{Concept: concept}
	}
	src, collected := c.byWave[wave]
	return src, collected, nil
}

// Has reports whether the concept is declared.
func (m *Map) Has(concept string) bool {
	_, ok := m.concepts[concept]
	return ok
}

// RoleQualified reports whether a declared concept is role-qualified.
// Undeclared concepts report false.
func (m *Map) RoleQualified(concept string) bool {
	c, ok := m.concepts[concept]
	return ok && c.RoleQualified
}

// Concepts returns the declared concept names in declaration order.
func (m *Map) Concepts() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Get returns a declared concept.
func (m *Map) Get(name string) (*Concept, bool) {
	c, ok := m.concepts[name]
	return c, ok
}
