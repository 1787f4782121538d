// Package gormrepo provides a GORM-backed implementation of RunRepository.
package gormrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gefpower/windprep/internal/core/config"
	"github.com/gefpower/windprep/internal/core/model"
	"github.com/gefpower/windprep/internal/repository"
	"github.com/gefpower/windprep/internal/support/exception"
	"github.com/gefpower/windprep/internal/support/logger"
)

const moduleName = "run_repository"

// GormRunRepository persists PipelineRun records through GORM.
type GormRunRepository struct {
	db     *gorm.DB
	dbType string
}

// NewGormRunRepository opens a GORM connection for the given database config
// and returns a repository bound to it.
func NewGormRunRepository(dbCfg config.DatabaseConfig) (*GormRunRepository, error) {
	factory, err := GetDialectorFactory(dbCfg.Type)
	if err != nil {
		return nil, exception.NewRepositoryError(moduleName, "failed to resolve dialector: %v", err)
	}
	dialector, err := factory(dbCfg)
	if err != nil {
		return nil, exception.NewRepositoryError(moduleName, "failed to build dialector for '%s': %v", dbCfg.Type, err)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, exception.NewRepositoryError(moduleName, "failed to open %s connection: %v", dbCfg.Type, err)
	}
	logger.Infof("Established run metadata DB connection (%s)", dbCfg.Type)
	return &GormRunRepository{db: db, dbType: dbCfg.Type}, nil
}

// NewGormRunRepositoryWithDB wraps an existing GORM handle. Used by tests.
func NewGormRunRepositoryWithDB(db *gorm.DB, dbType string) *GormRunRepository {
	return &GormRunRepository{db: db, dbType: dbType}
}

// DB exposes the underlying GORM handle for migration wiring.
func (r *GormRunRepository) DB() *gorm.DB {
	return r.db
}

// Type returns the configured database type.
func (r *GormRunRepository) Type() string {
	return r.dbType
}

// SaveRun persists a new PipelineRun.
func (r *GormRunRepository) SaveRun(ctx context.Context, run *model.PipelineRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return exception.NewRepositoryError(moduleName, "failed to save run %s: %v", run.ID, err)
	}
	return nil
}

// UpdateRun updates an existing PipelineRun.
func (r *GormRunRepository) UpdateRun(ctx context.Context, run *model.PipelineRun) error {
	result := r.db.WithContext(ctx).Model(&model.PipelineRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"status":       run.Status,
			"rows_in":      run.RowsIn,
			"rows_out":     run.RowsOut,
			"failures":     run.Failures,
			"completed_at": run.CompletedAt,
			"updated_at":   run.UpdatedAt,
		})
	if result.Error != nil {
		return exception.NewRepositoryError(moduleName, "failed to update run %s: %v", run.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return exception.NewRepositoryError(moduleName, "run %s not found for update", run.ID)
	}
	return nil
}

// FindRunByID retrieves a PipelineRun by its ID.
func (r *GormRunRepository) FindRunByID(ctx context.Context, id string) (*model.PipelineRun, error) {
	var run model.PipelineRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrRunNotFound
	}
	if err != nil {
		return nil, exception.NewRepositoryError(moduleName, "failed to find run %s: %v", id, err)
	}
	return &run, nil
}

// FindRunsByDataset retrieves all runs for a dataset, newest first.
func (r *GormRunRepository) FindRunsByDataset(ctx context.Context, dataset string) ([]*model.PipelineRun, error) {
	var runs []*model.PipelineRun
	err := r.db.WithContext(ctx).
		Where("dataset = ?", dataset).
		Order("started_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, exception.NewRepositoryError(moduleName, "failed to list runs for dataset %s: %v", dataset, err)
	}
	return runs, nil
}

// Close closes the underlying database connection.
func (r *GormRunRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return exception.NewRepositoryError(moduleName, "failed to get underlying sql.DB: %v", err)
	}
	return sqlDB.Close()
}
