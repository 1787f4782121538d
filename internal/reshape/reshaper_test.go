package reshape_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gefpower/windprep/internal/domain/entity"
	"github.com/gefpower/windprep/internal/reshape"
	"github.com/gefpower/windprep/internal/support/exception"
)

// obs builds a raw observation with a target value; the wind components are
// derived from the zone and hour so every cell is distinct.
func obs(ts time.Time, zone int) entity.RawObservation {
	base := float64(zone*100 + ts.Hour())
	return entity.RawObservation{
		ID:        "row",
		ZoneID:    zone,
		Timestamp: ts,
		TargetVar: base / 1000,
		HasTarget: true,
		U10:       base + 1,
		V10:       base + 2,
		U100:      base + 3,
		V100:      base + 4,
	}
}

// hourlyRows builds count hourly timestamps for the given zones, one
// observation per (timestamp, zone) pair.
func hourlyRows(start time.Time, count int, zones ...int) []entity.RawObservation {
	var rows []entity.RawObservation
	for i := 0; i < count; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		for _, z := range zones {
			rows = append(rows, obs(ts, z))
		}
	}
	return rows
}

func TestProcess_PivotsZonesIntoOneRowPerTimestamp(t *testing.T) {
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 3, 1, 2)

	table, err := reshape.Process(rows, reshape.Options{RollingWindow: 1, Zones: []int{1, 2}})
	require.NoError(t, err)

	assert.Equal(t, 3, table.NumRows())
	// 5 pivoted fields x 2 zones + 3 calendar columns.
	assert.Len(t, table.Columns, 13)
	assert.Equal(t, []string{
		"TARGETVAR_1", "TARGETVAR_2",
		"U10_1", "U10_2",
		"V10_1", "V10_2",
		"U100_1", "U100_2",
		"V100_1", "V100_2",
		"year", "dayofyear", "hour",
	}, table.ColumnNames())

	// Zone 2 at the second timestamp (02:00): base = 202.
	u10 := table.Column(entity.ColumnKey{Field: entity.FieldU10, Zone: 2})
	require.NotNil(t, u10)
	assert.Equal(t, 203.0, u10.Floats[1])
}

func TestProcess_SortsTimestampsAscending(t *testing.T) {
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 4, 1)
	// Reverse the input order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	table, err := reshape.Process(rows, reshape.Options{RollingWindow: 1, Zones: []int{1}})
	require.NoError(t, err)

	require.Equal(t, 4, table.NumRows())
	for i := 1; i < len(table.Timestamps); i++ {
		assert.True(t, table.Timestamps[i-1].Before(table.Timestamps[i]),
			"timestamps must be ascending")
	}
	hours := table.Column(entity.ColumnKey{Field: entity.FieldHour})
	require.NotNil(t, hours)
	assert.Equal(t, []int64{1, 2, 3, 4}, hours.Ints)
}

func TestProcess_DuplicatePairKeepsLastOccurrence(t *testing.T) {
	ts := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	first := obs(ts, 1)
	second := obs(ts, 1)
	second.U10 = 999

	table, err := reshape.Process([]entity.RawObservation{first, second},
		reshape.Options{RollingWindow: 1, Zones: []int{1}})
	require.NoError(t, err)

	require.Equal(t, 1, table.NumRows())
	u10 := table.Column(entity.ColumnKey{Field: entity.FieldU10, Zone: 1})
	require.NotNil(t, u10)
	assert.Equal(t, 999.0, u10.Floats[0])
}

func TestProcess_ZoneOutsideRangeIsSchemaError(t *testing.T) {
	ts := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	for _, zone := range []int{0, 11, -3} {
		_, err := reshape.Process([]entity.RawObservation{obs(ts, zone)},
			reshape.Options{RollingWindow: 1})
		require.Error(t, err)
		assert.True(t, exception.IsSchema(err), "zone %d should be a schema error", zone)
	}
}

func TestProcess_MissingZoneAtTimestampIsSchemaError(t *testing.T) {
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 2, 1, 2)
	// Drop zone 2 at the second timestamp.
	trimmed := rows[:0]
	for _, r := range rows {
		if r.ZoneID == 2 && r.Timestamp.Hour() == 2 {
			continue
		}
		trimmed = append(trimmed, r)
	}

	_, err := reshape.Process(trimmed, reshape.Options{RollingWindow: 1, Zones: []int{1, 2}})
	require.Error(t, err)
	assert.True(t, exception.IsSchema(err))
	assert.False(t, exception.IsParse(err))
}

func TestProcess_FiltersZonesOutsideWhitelist(t *testing.T) {
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 2, 1, 2, 3)

	table, err := reshape.Process(rows, reshape.Options{RollingWindow: 1, Zones: []int{1, 3}})
	require.NoError(t, err)

	assert.Nil(t, table.Column(entity.ColumnKey{Field: entity.FieldU10, Zone: 2}))
	assert.NotNil(t, table.Column(entity.ColumnKey{Field: entity.FieldU10, Zone: 1}))
	assert.NotNil(t, table.Column(entity.ColumnKey{Field: entity.FieldU10, Zone: 3}))
}

func TestProcess_RollingMeanColumns(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 4, 1)
	for i := range rows {
		rows[i].U10 = float64(2 * (i + 1)) // 2, 4, 6, 8
	}

	table, err := reshape.Process(rows, reshape.Options{RollingWindow: 3, Zones: []int{1}})
	require.NoError(t, err)

	smoothed := table.Column(entity.ColumnKey{Field: "U10_rm3", Zone: 1})
	require.NotNil(t, smoothed, "expected U10_rm3 column")
	assert.Equal(t, []float64{2, 3, 4, 6}, smoothed.Floats)

	// Raw columns are retained alongside the smoothed ones.
	raw := table.Column(entity.ColumnKey{Field: entity.FieldU10, Zone: 1})
	require.NotNil(t, raw)
	assert.Equal(t, []float64{2, 4, 6, 8}, raw.Floats)

	// Every wind quantity gets a smoothed column; the target does not.
	for _, field := range entity.WindFields {
		assert.NotNil(t, table.Column(entity.ColumnKey{Field: field + "_rm3", Zone: 1}))
	}
	assert.Nil(t, table.Column(entity.ColumnKey{Field: "TARGETVAR_rm3", Zone: 1}))
}

func TestProcess_RollingWindowOneAddsNoColumns(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 3, 1)

	withSmoothing, err := reshape.Process(rows, reshape.Options{RollingWindow: 3, Zones: []int{1}})
	require.NoError(t, err)
	without, err := reshape.Process(rows, reshape.Options{RollingWindow: 1, Zones: []int{1}})
	require.NoError(t, err)

	assert.Len(t, without.Columns, len(withSmoothing.Columns)-len(entity.WindFields))
	for _, name := range without.ColumnNames() {
		assert.NotContains(t, name, "_rm")
	}
}

func TestProcess_CalendarColumnsAreLeapAware(t *testing.T) {
	cases := []struct {
		ts        time.Time
		year      int64
		dayOfYear int64
		hour      int64
	}{
		{time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC), 2024, 61, 13},
		{time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), 2023, 60, 0},
		{time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), 2024, 1, 1},
		{time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC), 2023, 365, 23},
	}
	for _, c := range cases {
		table, err := reshape.Process([]entity.RawObservation{obs(c.ts, 1)},
			reshape.Options{RollingWindow: 1, Zones: []int{1}})
		require.NoError(t, err)

		assert.Equal(t, c.year, table.Column(entity.ColumnKey{Field: entity.FieldYear}).Ints[0])
		assert.Equal(t, c.dayOfYear, table.Column(entity.ColumnKey{Field: entity.FieldDayOfYear}).Ints[0])
		assert.Equal(t, c.hour, table.Column(entity.ColumnKey{Field: entity.FieldHour}).Ints[0])
	}
}

func TestProcess_KeepIDColumn(t *testing.T) {
	ts := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	row1 := obs(ts, 1)
	row1.ID = "17"
	row2 := obs(ts, 2)
	row2.ID = "18"

	table, err := reshape.Process([]entity.RawObservation{row1, row2},
		reshape.Options{RollingWindow: 1, KeepIDColumn: true, Zones: []int{1, 2}})
	require.NoError(t, err)

	id1 := table.Column(entity.ColumnKey{Field: entity.FieldID, Zone: 1})
	require.NotNil(t, id1)
	assert.Equal(t, entity.ColumnString, id1.Kind)
	assert.Equal(t, []string{"17"}, id1.Strings)

	id2 := table.Column(entity.ColumnKey{Field: entity.FieldID, Zone: 2})
	require.NotNil(t, id2)
	assert.Equal(t, []string{"18"}, id2.Strings)

	// Default drops the ID entirely.
	dropped, err := reshape.Process([]entity.RawObservation{row1, row2},
		reshape.Options{RollingWindow: 1, Zones: []int{1, 2}})
	require.NoError(t, err)
	assert.Nil(t, dropped.Column(entity.ColumnKey{Field: entity.FieldID, Zone: 1}))
}

func TestProcess_OmitsTargetColumnsWhenInputHasNoTarget(t *testing.T) {
	ts := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	row := obs(ts, 1)
	row.TargetVar = 0
	row.HasTarget = false

	table, err := reshape.Process([]entity.RawObservation{row},
		reshape.Options{RollingWindow: 1, Zones: []int{1}})
	require.NoError(t, err)

	assert.Nil(t, table.Column(entity.ColumnKey{Field: entity.FieldTargetVar, Zone: 1}))
	assert.NotNil(t, table.Column(entity.ColumnKey{Field: entity.FieldU10, Zone: 1}))
}

func TestProcess_NonHourlyCadenceWarnsButSucceeds(t *testing.T) {
	// Irregular input still produces output: gaps are warned about, never
	// rejected, and every distinct timestamp keeps its row.
	timestamps := []time.Time{
		time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC), // 4-hour gap
	}
	var rows []entity.RawObservation
	for _, ts := range timestamps {
		rows = append(rows, obs(ts, 1))
	}

	table, err := reshape.Process(rows, reshape.Options{RollingWindow: 3, Zones: []int{1}})
	require.NoError(t, err)

	assert.Equal(t, 3, table.NumRows())
	assert.Equal(t, timestamps, table.Timestamps)

	// The rolling mean simply spans the gap.
	smoothed := table.Column(entity.ColumnKey{Field: "U10_rm3", Zone: 1})
	require.NotNil(t, smoothed)
	raw := table.Column(entity.ColumnKey{Field: entity.FieldU10, Zone: 1})
	require.NotNil(t, raw)
	assert.InDelta(t, (raw.Floats[0]+raw.Floats[1]+raw.Floats[2])/3, smoothed.Floats[2], 1e-12)
}

func TestProcess_IsDeterministic(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := hourlyRows(start, 5, 1, 2, 3)

	first, err := reshape.Process(rows, reshape.Options{RollingWindow: 3, Zones: []int{1, 2, 3}})
	require.NoError(t, err)
	second, err := reshape.Process(rows, reshape.Options{RollingWindow: 3, Zones: []int{1, 2, 3}})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDefaultOptions(t *testing.T) {
	opts := reshape.DefaultOptions()
	assert.Equal(t, 3, opts.RollingWindow)
	assert.False(t, opts.KeepIDColumn)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, opts.Zones)
}
