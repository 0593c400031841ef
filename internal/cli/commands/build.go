package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hxia920/PSID/internal/cli/config"
	"github.com/hxia920/PSID/internal/engine"
	"github.com/hxia920/PSID/internal/export"
	"github.com/hxia920/PSID/internal/panel"
	"github.com/hxia920/PSID/internal/state"
	"github.com/hxia920/PSID/internal/varmap"
	"github.com/hxia920/PSID/internal/wave"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	Format string
	Out    string
	DSN    string
	Table  string
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the long panel from the raw wave files",
		Long: `Run the full pipeline: load the variable mapping, extract and reshape
each wave, resolve identifiers, merge across waves, validate, and export.`,
		Example: `  # Build with the configured export target
  psid build

  # Build into a DuckDB file
  psid build --format duckdb --out panel.duckdb

  # Build into Postgres
  psid build --format postgres --dsn "postgres://localhost/psid"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "Export format (csv|duckdb|postgres)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output path for csv/duckdb export")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "Connection string for postgres export")
	cmd.Flags().StringVar(&opts.Table, "table", "", "Destination table for database export")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *BuildOptions) error {
	cfg := getConfig()
	log := getLogger()

	exp := cfg.Export
	if opts.Format != "" {
		exp.Format = opts.Format
	}
	if opts.Out != "" {
		exp.Path = opts.Out
	}
	if opts.DSN != "" {
		exp.DSN = opts.DSN
	}
	if opts.Table != "" {
		exp.Table = opts.Table
	}

	maps, err := varmap.Load(cfg.MappingFile)
	if err != nil {
		return fmt.Errorf("failed to load variable mapping: %w", err)
	}

	store := state.NewStore(log)
	if err := store.Open(cfg.StatePath); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(); err != nil {
		return err
	}

	eng, err := engine.New(engine.Config{
		Waves:   cfg.Waves,
		Mapping: maps,
		Loader:  wave.NewCSVLoader(cfg.DataDir),
		Store:   store,
		Workers: cfg.Workers,
		Logger:  log,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	p, run, err := eng.Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := exportPanel(cmd.Context(), p, exp); err != nil {
		return err
	}

	printRunSummary(cmd, store, run, time.Since(start), exp)
	return nil
}

func exportPanel(ctx context.Context, p *panel.Panel, exp config.Export) error {
	switch exp.Format {
	case "csv":
		f, err := os.Create(exp.Path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exp.Path, err)
		}
		defer func() { _ = f.Close() }()
		return export.WriteCSV(f, p)
	case "duckdb", "postgres":
		dialect := export.Dialect(exp.Format)
		dsn := exp.DSN
		if dialect == export.DialectDuckDB {
			dsn = exp.Path
		}
		db, err := export.Open(dialect, dsn)
		if err != nil {
			return fmt.Errorf("failed to open export target: %w", err)
		}
		defer func() { _ = db.Close() }()
		w := &export.SQLWriter{DB: db, Table: exp.Table, Dialect: dialect}
		return w.Write(ctx, p)
	default:
		return fmt.Errorf("unknown export format %q", exp.Format)
	}
}

func printRunSummary(cmd *cobra.Command, store *state.Store, run *state.Run, elapsed time.Duration, exp config.Export) {
	if run == nil {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Wave", "Individuals", "Family rows", "Matched", "Excluded"})
	if stats, err := store.GetWaveStats(run.ID); err == nil {
		for _, ws := range stats {
			t.AppendRow(table.Row{ws.Wave, ws.Individuals, ws.FamilyRows, ws.Matched, ws.Excluded})
		}
	}
	t.AppendFooter(table.Row{"total", run.RowsOut, "", "", run.RowsExcluded})
	t.Render()

	target := exp.Path
	if exp.Format == "postgres" {
		target = exp.DSN
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Panel written to %s (%s) in %s\n", target, exp.Format, elapsed.Round(time.Millisecond))
}
