// Command conductor is the process entry point for the task-orchestration
// facade: it wires the sqlite-backed repositories, the auth validator, the
// context engine, the hint engine, and the embedded event bus into an
// internal/orchestration.Facade and exposes its six Manage* methods through
// a single urfave/cli command per entity, keeping process bootstrap here
// and all wiring in internal/app.New().
package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/denkhaus/conductor/internal/app"
	"github.com/denkhaus/conductor/internal/logger"
)

// Version, commit, and build date are set by ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	application, err := app.New(version, commit, date)
	if err != nil {
		logger.GetLogger().Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	if err := application.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
