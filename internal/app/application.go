// Package app assembles the windprep application with uber-fx.
package app

import (
	"context"
	"embed"
	"io/fs"

	"go.uber.org/fx"

	"github.com/gefpower/windprep/internal/core/config"
	"github.com/gefpower/windprep/internal/metrics"
	"github.com/gefpower/windprep/internal/pipeline"
	repoprovider "github.com/gefpower/windprep/internal/repository/provider"
	"github.com/gefpower/windprep/internal/support/logger"
)

// migrationsDirPath is the path of the migration SQL files inside the
// embedded filesystem.
const migrationsDirPath = "resources/migrations"

// RunApplication sets up and runs the preprocessing application using
// uber-fx. It returns once all configured datasets have been processed or
// the context is cancelled.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, migrationsFS embed.FS) {
	app := fx.New(
		fx.Supply(
			embeddedConfig,
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
			fx.Annotate(
				migrationsFS,
				fx.As(new(fs.FS)),
				fx.ResultTags(`name:"migrationFS"`),
			),
			fx.Annotate(migrationsDirPath, fx.ResultTags(`name:"migrationsDirPath"`)),
			fx.Annotate(
				appCtx,
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
		),

		logger.Module,
		config.Module,
		metrics.Module,
		repoprovider.Module,
		pipeline.Module,

		fx.Invoke(fx.Annotate(startPipeline, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // shutdowner fx.Shutdowner
			"",              // runner *pipeline.Runner
			`name:"appCtx"`, // appCtx context.Context
		))),
	)

	app.Run()

	if app.Err() != nil {
		logger.Fatalf("Application run failed: %v", app.Err())
	}
}

// startPipeline is invoked by Fx to run the pipeline once the dependency
// graph is up, then request shutdown.
func startPipeline(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	runner *pipeline.Runner,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				exitCode := 0
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in pipeline execution: %v", r)
						exitCode = 1
					}
					if err := shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				if err := runner.Run(appCtx); err != nil {
					logger.Errorf("Pipeline finished with errors: %v", err)
					exitCode = 1
					return
				}
				logger.Infof("Pipeline finished successfully.")
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}
