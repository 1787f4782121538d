// Package writer provides the two output sinks of the windprep pipeline:
// a Go-native gob serialization that preserves hierarchical column keys,
// and a Parquet file with flat string column names for cross-ecosystem
// consumers. Both stamp the write time into the output filename.
package writer

import (
	"context"
	"fmt"
	"time"

	"github.com/gefpower/windprep/internal/domain/entity"
)

// TableWriter is a single output sink for a reshaped table. Implementations
// classify their failures as WriteError so the pipeline can report and
// continue rather than abort.
type TableWriter interface {
	// Write serializes the table under the given dataset prefix and returns
	// the path of the file written.
	Write(ctx context.Context, prefix string, table *entity.WideTable) (string, error)
}

// stampedFileName renders the output filename convention
// `<prefix>_pp_<YYYY_MM_DD_HH_MM_SS>.<ext>` for the given write time.
func stampedFileName(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_pp_%s.%s", prefix, now.Format("2006_01_02_15_04_05"), ext)
}
