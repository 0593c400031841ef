// Package commands implements the psid subcommands.
package commands

import (
	"log/slog"

	"github.com/hxia920/PSID/internal/cli/config"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

// Setup stores the resolved configuration and logger for the command
// implementations. Called once by the root command before any subcommand
// runs.
func Setup(c *config.Config, l *slog.Logger) {
	cfg = c
	logger = l
}

func getConfig() *config.Config {
	return cfg
}

func getLogger() *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
