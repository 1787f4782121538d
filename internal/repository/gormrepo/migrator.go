package gormrepo

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/gefpower/windprep/internal/support/exception"
	"github.com/gefpower/windprep/internal/support/logger"
)

// migrationsTable is the bookkeeping table golang-migrate maintains.
const migrationsTable = "windprep_schema_migrations"

// Migrate applies all pending schema migrations from migrationFS to the
// repository's database. migrationFS is expected to hold up/down SQL pairs
// under path, in golang-migrate's naming convention.
func (r *GormRunRepository) Migrate(ctx context.Context, migrationFS fs.FS, path string) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return exception.NewRepositoryError(moduleName, "failed to get underlying sql.DB: %v", err)
	}

	sourceDriver, err := iofs.New(migrationFS, path)
	if err != nil {
		return exception.NewRepositoryError(moduleName, "failed to create iofs source driver for path %s: %v", path, err)
	}

	dbDriver, err := databaseDriver(r.dbType, sqlDB)
	if err != nil {
		return exception.NewRepositoryError(moduleName, "failed to create database driver: %v", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, r.dbType, dbDriver)
	if err != nil {
		return exception.NewRepositoryError(moduleName, "failed to create migrate instance: %v", err)
	}
	defer m.Close()

	logger.Infof("Applying schema migrations (DB: %s, Path: %s)", r.dbType, path)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return exception.NewRepositoryError(moduleName, "migration failed (DB: %s, Path: %s): %v", r.dbType, path, err)
	}
	logger.Infof("Schema migrations up to date.")
	return nil
}

// databaseDriver retrieves a migrate/v4 driver for the database type.
func databaseDriver(dbType string, sqlDB *sql.DB) (database.Driver, error) {
	switch dbType {
	case "postgres":
		return postgres.WithInstance(sqlDB, &postgres.Config{
			MigrationsTable: migrationsTable,
		})
	case "mysql":
		return mysql.WithInstance(sqlDB, &mysql.Config{
			MigrationsTable: migrationsTable,
		})
	case "sqlite":
		return sqlite.WithInstance(sqlDB, &sqlite.Config{
			MigrationsTable: migrationsTable,
		})
	default:
		return nil, exception.NewRepositoryError(moduleName, "unsupported database type for migration: %s", dbType)
	}
}
