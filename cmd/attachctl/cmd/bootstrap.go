package cmd

import (
	"os"

	"github.com/medsport/attachments/internal/app"
	"github.com/medsport/attachments/internal/config"
	"github.com/medsport/attachments/internal/logger"
)

// loadConfig reads the same environment as the server. Logs go to stderr so
// command output stays pipeable.
func loadConfig() *config.Config {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), logger.Options{Output: os.Stderr, SentryDSN: cfg.SentryDSN})
	return cfg
}

// openApp wires the full service stack, applying pending migrations.
func openApp() (*app.App, error) {
	return app.New(loadConfig())
}
