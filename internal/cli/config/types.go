// Package config loads the CLI configuration with the precedence
// defaults < psid.yaml < PSID_* environment variables < flags.
package config

// Config is the resolved pipeline configuration.
type Config struct {
	// DataDir holds the raw wave files (fam<year>.csv, ind.csv).
	DataDir string `koanf:"data_dir"`
	// MappingFile is the variable-mapping YAML.
	MappingFile string `koanf:"mapping"`
	// StatePath is the run-history SQLite database.
	StatePath string `koanf:"state_path"`
	// Waves is the declared wave sequence in output order.
	Waves []int `koanf:"waves"`
	// Workers bounds per-wave concurrency (0 = GOMAXPROCS).
	Workers int `koanf:"workers"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
	// Export selects the panel output target.
	Export Export `koanf:"export"`
}

// Export configures the panel writer.
type Export struct {
	// Format is csv, duckdb, or postgres.
	Format string `koanf:"format"`
	// Path is the output file for csv and duckdb targets.
	Path string `koanf:"path"`
	// DSN is the connection string for the postgres target.
	DSN string `koanf:"dsn"`
	// Table is the destination table for database targets.
	Table string `koanf:"table"`
}

// DefaultWaves is the survey's collection years: annual 1968-1997, biennial
// 1999 onward.
func DefaultWaves() []int {
	var waves []int
	for y := 1968; y <= 1997; y++ {
		waves = append(waves, y)
	}
	for y := 1999; y <= 2019; y += 2 {
		waves = append(waves, y)
	}
	return waves
}
