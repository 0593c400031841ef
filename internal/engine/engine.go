// Package engine orchestrates the panel build: per-wave extraction,
// reshaping, and identifier resolution run concurrently over a read-only
// variable map, followed by a strictly ordered fold into the final panel
// and validation before anything is returned.
package engine

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/hxia920/PSID/internal/ident"
	"github.com/hxia920/PSID/internal/state"
	"github.com/hxia920/PSID/internal/varmap"
	"github.com/hxia920/PSID/internal/wave"
)

// Config holds everything a pipeline run needs. The engine has no implicit
// working state: paths, waves, and mappings all arrive here.
type Config struct {
	// Waves is the declared wave sequence, in output order. The sequence is
	// configuration, never inferred from data.
	Waves []int
	// Mapping is the loaded variable map pair.
	Mapping *varmap.Maps
	// Loader supplies raw wave tables.
	Loader wave.Loader
	// Store records run history and exclusion tallies (optional).
	Store *state.Store
	// Workers bounds per-wave concurrency. Defaults to GOMAXPROCS.
	Workers int
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Engine builds the long panel from per-wave raw tables.
type Engine struct {
	waves   []int
	maps    *varmap.Maps
	loader  wave.Loader
	store   *state.Store
	workers int
	logger  *slog.Logger

	// Concept lists derived once at construction.
	indExtract []string // individual concepts to extract per wave
	indValues  []string // individual concepts carried into panel values
	famExtract []string // family concepts to extract per wave
	famValues  []string // family concepts carried into panel values
	famSeq     string   // family-side sequence concept, "" if none declared
	concepts   []string // declared panel concept columns
}

// New validates the configuration and derives the concept lists. Every
// concept the pipeline stages reference must be pre-declared in the mapping,
// so misconfiguration fails here, before any wave is touched.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Waves) == 0 {
		return nil, fmt.Errorf("no waves declared")
	}
	if cfg.Mapping == nil {
		return nil, fmt.Errorf("no variable mapping supplied")
	}
	if cfg.Loader == nil {
		return nil, fmt.Errorf("no wave loader supplied")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for _, c := range ident.Required {
		if !cfg.Mapping.Individual.Has(c) {
			return nil, &varmap.UnknownConceptError{Concept: c}
		}
	}

	e := &Engine{
		waves:   append([]int(nil), cfg.Waves...),
		maps:    cfg.Mapping,
		loader:  cfg.Loader,
		store:   cfg.Store,
		workers: cfg.Workers,
		logger:  logger,
	}
	if e.workers <= 0 {
		e.workers = runtime.GOMAXPROCS(0)
	}

	required := make(map[string]bool, len(ident.Required))
	for _, c := range ident.Required {
		required[c] = true
	}
	e.indExtract = cfg.Mapping.Individual.Concepts()
	for _, c := range e.indExtract {
		if !required[c] {
			e.indValues = append(e.indValues, c)
		}
	}

	if fam := cfg.Mapping.Family.Concepts(); len(fam) > 0 {
		if !cfg.Mapping.Family.Has(ident.ConceptFamily) {
			return nil, &varmap.UnknownConceptError{Concept: ident.ConceptFamily}
		}
		if !cfg.Mapping.Family.Has(ident.ConceptRelation) {
			return nil, &varmap.UnknownConceptError{Concept: ident.ConceptRelation}
		}
		e.famExtract = fam
		for _, c := range fam {
			// The reshaper reads every family concept except the key through
			// its per-role columns, so a flat declaration would resolve to
			// nothing but nulls. Fail construction instead.
			if c != ident.ConceptFamily && !cfg.Mapping.Family.RoleQualified(c) {
				return nil, fmt.Errorf("family concept %q must be role-qualified", c)
			}
			switch c {
			case ident.ConceptFamily, ident.ConceptRelation:
			case ident.ConceptSequence:
				e.famSeq = c
			default:
				e.famValues = append(e.famValues, c)
			}
		}
	}

	e.concepts = append(append([]string(nil), e.indValues...), e.famValues...)

	logger.Debug("engine initialized",
		"waves", len(e.waves),
		"individual_concepts", len(e.indExtract),
		"family_concepts", len(e.famExtract),
		"workers", e.workers)

	return e, nil
}

// Waves returns the declared wave sequence.
func (e *Engine) Waves() []int {
	out := make([]int, len(e.waves))
	copy(out, e.waves)
	return out
}

// Concepts returns the declared panel concept columns.
func (e *Engine) Concepts() []string {
	out := make([]string, len(e.concepts))
	copy(out, e.concepts)
	return out
}
