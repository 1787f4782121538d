package reshape_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gefpower/windprep/internal/domain/entity"
	"github.com/gefpower/windprep/internal/reshape"
)

var targetOnly = map[string]bool{entity.FieldTargetVar: true}

func TestFlatten_JoinsFieldAndZone(t *testing.T) {
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 2, 1, 2)
	table, err := reshape.Process(rows, reshape.Options{RollingWindow: 3, Zones: []int{1, 2}})
	require.NoError(t, err)

	flat := reshape.Flatten(table, targetOnly)

	assert.Equal(t, table.NumRows(), flat.NumRows())
	assert.Len(t, flat.Columns, len(table.Columns))
	for _, c := range flat.Columns {
		assert.Zero(t, c.Key.Zone, "flattened column %q must be zoneless", c.Key.Field)
	}
	assert.Contains(t, flat.ColumnNames(), "U10_1")
	assert.Contains(t, flat.ColumnNames(), "U10_rm3_2")
	assert.Contains(t, flat.ColumnNames(), "dayofyear")
}

func TestFlatten_OrdersTargetColumnsFirst(t *testing.T) {
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 2, 1, 2)
	table, err := reshape.Process(rows, reshape.Options{RollingWindow: 1, Zones: []int{1, 2}})
	require.NoError(t, err)

	flat := reshape.Flatten(table, targetOnly)

	names := flat.ColumnNames()
	assert.Equal(t, []string{"TARGETVAR_1", "TARGETVAR_2"}, names[:2])
	// Non-target columns keep their relative order.
	assert.Equal(t, "U10_1", names[2])
}

func TestFlatten_IsIdempotent(t *testing.T) {
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 3, 1, 2)
	table, err := reshape.Process(rows, reshape.Options{RollingWindow: 3, Zones: []int{1, 2}})
	require.NoError(t, err)

	once := reshape.Flatten(table, targetOnly)
	twice := reshape.Flatten(once, targetOnly)

	assert.Equal(t, once.ColumnNames(), twice.ColumnNames())
	assert.Equal(t, once, twice)
}

func TestFlatten_PreservesValues(t *testing.T) {
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 2, 1)
	table, err := reshape.Process(rows, reshape.Options{RollingWindow: 1, Zones: []int{1}})
	require.NoError(t, err)

	flat := reshape.Flatten(table, targetOnly)

	hierarchical := table.Column(entity.ColumnKey{Field: entity.FieldV100, Zone: 1})
	flattened := flat.Column(entity.ColumnKey{Field: "V100_1"})
	require.NotNil(t, hierarchical)
	require.NotNil(t, flattened)
	assert.Equal(t, hierarchical.Floats, flattened.Floats)
	assert.Equal(t, hierarchical.Kind, flattened.Kind)
}
