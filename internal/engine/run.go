package engine

// run.go - per-wave pipeline execution and the ordered fold into the panel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hxia920/PSID/internal/extract"
	"github.com/hxia920/PSID/internal/ident"
	"github.com/hxia920/PSID/internal/merge"
	"github.com/hxia920/PSID/internal/panel"
	"github.com/hxia920/PSID/internal/reshape"
	"github.com/hxia920/PSID/internal/rolepolicy"
	"github.com/hxia920/PSID/internal/state"
	"github.com/hxia920/PSID/internal/table"
)

// waveResult is one wave's contribution to the panel.
type waveResult struct {
	wave  int
	rows  []panel.Row
	stats state.WaveStats
}

// Run executes the full pipeline: a concurrent map over waves, an ordered
// fold into the panel, and validation. The first fatal error cancels the
// remaining wave workers; per-row identifier gaps are tallied, not fatal.
// The returned run record is nil when no state store is configured.
func (e *Engine) Run(ctx context.Context) (*panel.Panel, *state.Run, error) {
	e.logger.Info("starting panel build", "waves", len(e.waves))

	var run *state.Run
	if e.store != nil {
		var err error
		run, err = e.store.CreateRun()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create run: %w", err)
		}
	}

	p, tally, results, err := e.build(ctx)
	if err != nil {
		e.logger.Error("panel build failed", "error", err)
		e.completeRun(run, state.RunStatusFailed, err.Error(), nil, 0, 0)
		return nil, e.reload(run), err
	}

	excluded := tally.Count()
	e.logger.Info("panel build completed", "rows", p.Len(), "excluded", excluded)
	e.completeRun(run, state.RunStatusCompleted, "", results, p.Len(), excluded)
	return p, e.reload(run), nil
}

func (e *Engine) build(ctx context.Context) (*panel.Panel, *ident.Tally, []*waveResult, error) {
	ind, err := e.loader.Individual(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading individual data: %w", err)
	}

	tally := &ident.Tally{}
	results := make([]*waveResult, len(e.waves))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, w := range e.waves {
		g.Go(func() error {
			res, err := e.buildWave(gctx, w, ind, tally)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}

	// The fold serializes on declared wave order for deterministic output.
	byWave := make(map[int][]panel.Row, len(results))
	for _, res := range results {
		byWave[res.wave] = res.rows
	}
	p := merge.Stack(e.waves, byWave, e.concepts)

	if err := panel.Validate(p); err != nil {
		return nil, nil, nil, err
	}
	return p, tally, results, nil
}

// buildWave runs extraction, reshaping, identifier resolution, and the
// family join for one wave. Pure over its inputs apart from the shared
// exclusion tally.
func (e *Engine) buildWave(ctx context.Context, wv int, ind *table.Table, tally *ident.Tally) (*waveResult, error) {
	e.logger.Debug("building wave", "wave", wv)

	famLong, err := e.buildFamily(ctx, wv)
	if err != nil {
		return nil, err
	}

	indWide, err := extract.Extract(ind, wv, e.maps.Individual, e.indExtract)
	if err != nil {
		return nil, err
	}

	rows := make([]panel.Row, 0, indWide.Len())
	for r := 0; r < indWide.Len(); r++ {
		key, err := ident.PermanentKey(wv, r,
			indWide.Cell(r, ident.ConceptInterview1968),
			indWide.Cell(r, ident.ConceptPersonNumber))
		if err != nil {
			tally.Exclude(wv, r, ident.ReasonMissingIdentifier)
			continue
		}

		role := rolepolicy.Classify(wv,
			indWide.Cell(r, ident.ConceptRelation),
			indWide.Cell(r, ident.ConceptSequence))
		if role == rolepolicy.None {
			tally.Exclude(wv, r, ident.ReasonNoHouseholdRole)
			continue
		}

		values := make(map[string]table.Value, len(e.concepts))
		for _, c := range e.indValues {
			values[c] = indWide.Cell(r, c)
		}
		rows = append(rows, panel.Row{
			Person: key,
			Wave:   wv,
			Family: indWide.Cell(r, ident.ConceptFamily),
			Role:   role,
			Values: values,
		})
	}

	rows, matched, err := e.joinFamily(wv, rows, famLong)
	if err != nil {
		return nil, err
	}

	res := &waveResult{
		wave: wv,
		rows: rows,
		stats: state.WaveStats{
			Wave:        wv,
			Individuals: len(rows),
			FamilyRows:  famLong.Len(),
			Matched:     matched,
			Excluded:    tally.CountWave(wv),
		},
	}
	e.logger.Debug("wave built",
		"wave", wv,
		"individuals", res.stats.Individuals,
		"family_rows", res.stats.FamilyRows,
		"matched", res.stats.Matched,
		"excluded", res.stats.Excluded)
	return res, nil
}

// buildFamily extracts and reshapes one wave's family file into the long
// (family, role) table. Returns an empty table when no family concepts are
// declared.
func (e *Engine) buildFamily(ctx context.Context, wv int) (*table.Table, error) {
	if len(e.famExtract) == 0 {
		return table.New(0), nil
	}

	famRaw, err := e.loader.Family(ctx, wv)
	if err != nil {
		return nil, fmt.Errorf("loading family data for wave %d: %w", wv, err)
	}
	famWide, err := extract.Extract(famRaw, wv, e.maps.Family, e.famExtract)
	if err != nil {
		return nil, err
	}
	return reshape.Split(famWide, wv, ident.ConceptFamily, ident.ConceptRelation, e.famSeq, e.famValues)
}

// joinFamily attaches family values to the individual rows.
func (e *Engine) joinFamily(wv int, rows []panel.Row, famLong *table.Table) ([]panel.Row, int, error) {
	return merge.JoinWave(wv, rows, famLong, ident.ConceptFamily, e.famValues)
}

// completeRun records the run outcome and per-wave statistics. Recording
// failures are logged, never escalated over the pipeline's own result.
func (e *Engine) completeRun(run *state.Run, status, errMsg string, results []*waveResult, rowsOut, excluded int) {
	if e.store == nil || run == nil {
		return
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		if err := e.store.RecordWaveStats(run.ID, res.stats); err != nil {
			e.logger.Error("failed to record wave stats", "wave", res.stats.Wave, "error", err)
		}
	}
	if err := e.store.CompleteRun(run.ID, status, errMsg, len(e.waves), rowsOut, excluded); err != nil {
		e.logger.Error("failed to complete run record", "run_id", run.ID, "error", err)
	}
}

// reload refreshes the run record after completion.
func (e *Engine) reload(run *state.Run) *state.Run {
	if e.store == nil || run == nil {
		return nil
	}
	fresh, err := e.store.GetRun(run.ID)
	if err != nil {
		return run
	}
	return fresh
}
