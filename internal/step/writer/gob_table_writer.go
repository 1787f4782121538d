package writer

import (
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/gefpower/windprep/internal/domain/entity"
	"github.com/gefpower/windprep/internal/support/exception"
	"github.com/gefpower/windprep/internal/support/logger"
)

const gobModuleName = "gob_writer"

// GobTableWriterConfig holds the configuration for GobTableWriter.
type GobTableWriterConfig struct {
	// OutputDir is the directory the serialized tables are written into.
	OutputDir string `mapstructure:"outputDir"`
}

// GobTableWriter serializes a WideTable with encoding/gob, keeping the
// hierarchical (field, zone) column keys intact for same-ecosystem
// downstream consumers.
type GobTableWriter struct {
	config *GobTableWriterConfig
	// now is the clock used for filename stamping; replaced in tests.
	now func() time.Time
}

// NewGobTableWriter creates a GobTableWriter from a property map.
func NewGobTableWriter(properties map[string]interface{}) (*GobTableWriter, error) {
	var config GobTableWriterConfig
	if err := mapstructure.Decode(properties, &config); err != nil {
		return nil, exception.NewConfigError(gobModuleName, "failed to decode properties", err)
	}
	if config.OutputDir == "" {
		return nil, exception.NewConfigError(gobModuleName, "'outputDir' property is required")
	}
	return &GobTableWriter{config: &config, now: time.Now}, nil
}

// Write serializes the table to `<outputDir>/<prefix>_pp_<stamp>.gob` and
// returns the path written. All failures are WriteErrors.
func (w *GobTableWriter) Write(ctx context.Context, prefix string, table *entity.WideTable) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if err := os.MkdirAll(w.config.OutputDir, 0o755); err != nil {
		return "", exception.NewWriteError(gobModuleName, "failed to create output directory '%s'", w.config.OutputDir, err)
	}

	path := filepath.Join(w.config.OutputDir, stampedFileName(prefix, "gob", w.now()))
	file, err := os.Create(path)
	if err != nil {
		return "", exception.NewWriteError(gobModuleName, "failed to create '%s'", path, err)
	}

	if err := gob.NewEncoder(file).Encode(table); err != nil {
		file.Close()
		return "", exception.NewWriteError(gobModuleName, "failed to encode table to '%s'", path, err)
	}
	if err := file.Close(); err != nil {
		return "", exception.NewWriteError(gobModuleName, "failed to close '%s'", path, err)
	}

	logger.Infof("GobTableWriter: wrote %d rows x %d columns to %s.", table.NumRows(), len(table.Columns), path)
	return path, nil
}

// ReadGobTable loads a table previously written by GobTableWriter. Used by
// downstream tooling and tests.
func ReadGobTable(path string) (*entity.WideTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, exception.NewWriteError(gobModuleName, "failed to open '%s'", path, err)
	}
	defer file.Close()

	var table entity.WideTable
	if err := gob.NewDecoder(file).Decode(&table); err != nil {
		return nil, exception.NewWriteError(gobModuleName, "failed to decode '%s'", path, err)
	}
	return &table, nil
}

var _ TableWriter = (*GobTableWriter)(nil)
