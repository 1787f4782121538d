package reshape

import (
	"github.com/gefpower/windprep/internal/domain/entity"
	"github.com/gefpower/windprep/internal/support/logger"
)

// Flatten converts a table's hierarchical (field, zone) column keys into
// flat string names for output formats without hierarchical headers:
// "field_zone", or "field" alone for zoneless keys. Columns for fields
// named in targetFields are ordered first; all other columns keep their
// relative order.
//
// Flatten is idempotent: a table that is already flat has only zoneless
// keys, each of which flattens to itself, and target reordering has already
// been applied, so a second application is a no-op.
//
// The returned table shares value storage with the input; neither table may
// be mutated afterwards. The pipeline only flattens immediately before
// serialization, where this holds.
func Flatten(table *entity.WideTable, targetFields map[string]bool) *entity.FlatTable {
	flat := &entity.FlatTable{Timestamps: table.Timestamps}

	var targets, predictors []*entity.Column
	for _, c := range table.Columns {
		renamed := &entity.Column{
			Key:     entity.ColumnKey{Field: c.Key.String()},
			Kind:    c.Kind,
			Floats:  c.Floats,
			Ints:    c.Ints,
			Strings: c.Strings,
		}
		if targetFields[c.Key.Field] {
			targets = append(targets, renamed)
		} else {
			predictors = append(predictors, renamed)
		}
	}
	flat.Columns = append(targets, predictors...)

	logger.Debugf("Flatten: renamed %d columns (%d target-first).", len(flat.Columns), len(targets))
	return flat
}
