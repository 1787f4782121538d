package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	parquetwriter "github.com/xitongsys/parquet-go/writer"

	"github.com/gefpower/windprep/internal/domain/entity"
	"github.com/gefpower/windprep/internal/support/exception"
	"github.com/gefpower/windprep/internal/support/logger"
)

const parquetModuleName = "parquet_writer"

// ParquetTableWriterConfig holds the configuration for ParquetTableWriter.
type ParquetTableWriterConfig struct {
	// OutputDir is the directory the Parquet files are written into.
	OutputDir string `mapstructure:"outputDir"`
	// CompressionType is the Parquet compression codec ("SNAPPY", "GZIP",
	// "NONE"). Defaults to SNAPPY.
	CompressionType string `mapstructure:"compressionType"`
}

// ParquetTableWriter writes a flattened table as a Parquet file with flat
// string column names, for cross-ecosystem consumers. The table handed to
// Write must already be flat (see reshape.Flatten); a hierarchical key left
// in the schema is rejected as a WriteError rather than silently flattened
// here, keeping the renaming step in one place.
type ParquetTableWriter struct {
	config *ParquetTableWriterConfig
	now    func() time.Time
}

// NewParquetTableWriter creates a ParquetTableWriter from a property map.
func NewParquetTableWriter(properties map[string]interface{}) (*ParquetTableWriter, error) {
	var config ParquetTableWriterConfig
	if err := mapstructure.Decode(properties, &config); err != nil {
		return nil, exception.NewConfigError(parquetModuleName, "failed to decode properties", err)
	}
	if config.OutputDir == "" {
		return nil, exception.NewConfigError(parquetModuleName, "'outputDir' property is required")
	}
	if config.CompressionType == "" {
		config.CompressionType = "SNAPPY"
	}
	return &ParquetTableWriter{config: &config, now: time.Now}, nil
}

// Write serializes the table to `<outputDir>/<prefix>_pp_<stamp>.parquet`
// and returns the path written.
func (w *ParquetTableWriter) Write(ctx context.Context, prefix string, table *entity.FlatTable) (path string, err error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	codec, err := compressionCodec(w.config.CompressionType)
	if err != nil {
		return "", exception.NewConfigError(parquetModuleName, "invalid compression type '%s'", w.config.CompressionType, err)
	}

	schema, err := parquetSchema(table)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.config.OutputDir, 0o755); err != nil {
		return "", exception.NewWriteError(parquetModuleName, "failed to create output directory '%s'", w.config.OutputDir, err)
	}
	path = filepath.Join(w.config.OutputDir, stampedFileName(prefix, "parquet", w.now()))

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return "", exception.NewWriteError(parquetModuleName, "failed to create '%s'", path, err)
	}

	pw, err := parquetwriter.NewCSVWriter(schema, fw, 4)
	if err != nil {
		fw.Close()
		return "", exception.NewWriteError(parquetModuleName, "failed to create Parquet writer for '%s'", path, err)
	}
	pw.CompressionType = codec

	// The parquet library panics on some malformed writes; convert to an
	// error like the rest of the sink failures.
	defer func() {
		if r := recover(); r != nil {
			err = exception.NewWriteError(parquetModuleName, "Parquet writer panicked for '%s': %v", path, r)
			fw.Close()
		}
	}()

	for i := 0; i < table.NumRows(); i++ {
		rec := make([]interface{}, len(table.Columns))
		for j, c := range table.Columns {
			switch c.Kind {
			case entity.ColumnInt:
				rec[j] = int32(c.Ints[i])
			case entity.ColumnString:
				rec[j] = c.Strings[i]
			default:
				rec[j] = c.Floats[i]
			}
		}
		if err := pw.Write(rec); err != nil {
			fw.Close()
			return "", exception.NewWriteError(parquetModuleName, "failed to write row %d to '%s'", i, path, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return "", exception.NewWriteError(parquetModuleName, "failed to finalize '%s'", path, err)
	}
	if err := fw.Close(); err != nil {
		return "", exception.NewWriteError(parquetModuleName, "failed to close '%s'", path, err)
	}

	logger.Infof("ParquetTableWriter: wrote %d rows x %d columns to %s (%s).",
		table.NumRows(), len(table.Columns), path, strings.ToUpper(w.config.CompressionType))
	return path, nil
}

// parquetSchema builds the CSV-writer schema metadata from the table's flat
// column names and kinds.
func parquetSchema(table *entity.FlatTable) ([]string, error) {
	schema := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		if c.Key.Zone != 0 {
			return nil, exception.NewWriteError(parquetModuleName,
				"column (%s, %d) still carries a hierarchical key; flatten the table first", c.Key.Field, c.Key.Zone)
		}
		switch c.Kind {
		case entity.ColumnInt:
			schema[i] = fmt.Sprintf("name=%s, type=INT32", c.Key.Field)
		case entity.ColumnString:
			schema[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY", c.Key.Field)
		default:
			schema[i] = fmt.Sprintf("name=%s, type=DOUBLE", c.Key.Field)
		}
	}
	return schema, nil
}

// compressionCodec maps the configured compression string to a Parquet codec.
func compressionCodec(compressionType string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(compressionType) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}

var _ TableWriter = (*ParquetTableWriter)(nil)
