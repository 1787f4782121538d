// Package provider integrates run metadata persistence into the
// application's dependency graph using Fx. It selects the GORM-backed
// repository when the configuration names a metadata database, and the
// in-memory repository otherwise.
package provider

import (
	"context"
	"io/fs"

	"go.uber.org/fx"

	"github.com/gefpower/windprep/internal/core/config"
	"github.com/gefpower/windprep/internal/repository"
	"github.com/gefpower/windprep/internal/repository/gormrepo"
	"github.com/gefpower/windprep/internal/repository/inmemory"
	"github.com/gefpower/windprep/internal/support/exception"
	"github.com/gefpower/windprep/internal/support/logger"
)

// RepositoryParams collects the dependencies for NewRunRepository.
type RepositoryParams struct {
	fx.In

	Config            *config.Config
	MigrationFS       fs.FS  `name:"migrationFS" optional:"true"`
	MigrationsDirPath string `name:"migrationsDirPath" optional:"true"`
}

// NewRunRepository builds the RunRepository selected by the configuration.
// When a metadata database is configured its schema migrations are applied
// before the repository is handed out.
func NewRunRepository(params RepositoryParams) (repository.RunRepository, error) {
	ref := params.Config.Windprep.Batch.MetadataDBRef
	if ref == "" {
		logger.Debugf("No metadata database configured; using in-memory run repository.")
		return inmemory.NewInMemoryRunRepository(), nil
	}

	dbCfg, ok := params.Config.Windprep.Databases[ref]
	if !ok {
		return nil, exception.NewConfigError("repository_provider", "metadata database '%s' not found in databases config", ref)
	}

	repo, err := gormrepo.NewGormRunRepository(dbCfg)
	if err != nil {
		return nil, err
	}

	if params.MigrationFS != nil {
		if err := repo.Migrate(context.Background(), params.MigrationFS, params.MigrationsDirPath); err != nil {
			_ = repo.Close()
			return nil, err
		}
	}
	return repo, nil
}

// Module is an Fx module that provides the configured RunRepository and
// closes it on shutdown.
var Module = fx.Options(
	fx.Provide(NewRunRepository),
	fx.Invoke(func(lc fx.Lifecycle, repo repository.RunRepository) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return repo.Close()
			},
		})
	}),
)
