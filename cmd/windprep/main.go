package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gefpower/windprep/internal/app"
	"github.com/gefpower/windprep/internal/support/logger"
)

// embeddedConfig embeds the application's YAML configuration file, used to
// load configuration at startup.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// migrationsFS bundles the run metadata schema migrations into the binary.
//
//go:embed all:resources/migrations
var migrationsFS embed.FS

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handling for graceful shutdown (e.g., Ctrl+C)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the pipeline...", sig)
		cancel()
	}()

	// Path to the .env file; defaults to ".env" when unset.
	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	app.RunApplication(ctx, envFilePath, embeddedConfig, migrationsFS)
}
