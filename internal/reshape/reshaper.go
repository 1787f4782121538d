// Package reshape implements the core transformation of the windprep
// pipeline: pivoting long-layout per-zone observations into a wide
// one-row-per-timestamp table, deriving calendar features, and optionally
// smoothing the wind features with a trailing rolling mean. It also provides
// the column-name flattening used for interop output.
package reshape

import (
	"sort"
	"strconv"
	"time"

	"github.com/gefpower/windprep/internal/domain/entity"
	"github.com/gefpower/windprep/internal/support/exception"
	"github.com/gefpower/windprep/internal/support/logger"
)

const moduleName = "reshaper"

// Options controls a single Process invocation.
type Options struct {
	// RollingWindow is the trailing window size for the wind-feature moving
	// average. Values <= 1 disable smoothing entirely (no columns added).
	RollingWindow int
	// KeepIDColumn retains the source ID field as per-zone columns instead
	// of dropping it.
	KeepIDColumn bool
	// Zones is the zone whitelist. Every listed zone must be present at
	// every timestamp; observations for unlisted (but valid) zones are
	// filtered out.
	Zones []int
}

// DefaultOptions returns the standard options: rolling window 3, ID dropped,
// all ten zones.
func DefaultOptions() Options {
	zones := make([]int, 0, entity.MaxZoneID)
	for z := entity.MinZoneID; z <= entity.MaxZoneID; z++ {
		zones = append(zones, z)
	}
	return Options{
		RollingWindow: 3,
		KeepIDColumn:  false,
		Zones:         zones,
	}
}

// Process pivots the given observations into a WideTable. It is pure apart
// from diagnostic logging: identical inputs produce identical tables.
//
// Rows are grouped by timestamp and keyed by zone; the output has one row
// per distinct timestamp, sorted ascending, with hierarchical (field, zone)
// column keys. Calendar columns (year, dayofyear, hour) replace the raw
// timestamp in the column schema. With RollingWindow > 1, each wind quantity
// additionally gets a `{field}_rm{N}` trailing simple-moving-average column
// per zone, alongside the raw column.
//
// A zone id outside 1..10 or a whitelisted zone missing from any timestamp
// group yields a SchemaError. Duplicate (timestamp, zone) pairs resolve to
// the last occurrence in input order, with a warning. Non-hourly deltas
// between consecutive timestamps are warned about, never rejected.
func Process(rows []entity.RawObservation, opts Options) (*entity.WideTable, error) {
	if len(opts.Zones) == 0 {
		opts.Zones = DefaultOptions().Zones
	}
	zones := append([]int(nil), opts.Zones...)
	sort.Ints(zones)

	logger.Infof("Reshaper: processing %d raw observations (rollingWindow=%d, keepID=%t, zones=%v).",
		len(rows), opts.RollingWindow, opts.KeepIDColumn, zones)

	whitelist := make(map[int]bool, len(zones))
	for _, z := range zones {
		whitelist[z] = true
	}

	// Group rows by timestamp, keyed by zone. Duplicate (timestamp, zone)
	// pairs resolve to the last occurrence in input order.
	groups := make(map[time.Time]map[int]entity.RawObservation)
	hasTarget := false
	duplicates := 0
	filtered := 0
	for _, row := range rows {
		if row.ZoneID < entity.MinZoneID || row.ZoneID > entity.MaxZoneID {
			return nil, exception.NewSchemaError(moduleName,
				"zone id %d at %s outside valid range %d..%d",
				row.ZoneID, row.Timestamp.Format(time.RFC3339), entity.MinZoneID, entity.MaxZoneID)
		}
		if !whitelist[row.ZoneID] {
			filtered++
			continue
		}
		if row.HasTarget {
			hasTarget = true
		}
		group, ok := groups[row.Timestamp]
		if !ok {
			group = make(map[int]entity.RawObservation, len(zones))
			groups[row.Timestamp] = group
		}
		if _, dup := group[row.ZoneID]; dup {
			duplicates++
		}
		group[row.ZoneID] = row
	}
	if filtered > 0 {
		logger.Debugf("Reshaper: filtered %d observations for zones outside the whitelist.", filtered)
	}
	if duplicates > 0 {
		logger.Warnf("Reshaper: %d duplicate (timestamp, zone) pairs in input; kept the last occurrence of each.", duplicates)
	}

	// Sort output rows by ascending timestamp.
	timestamps := make([]time.Time, 0, len(groups))
	for ts := range groups {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i].Before(timestamps[j]) })

	// Every whitelisted zone must be present at every timestamp.
	for _, ts := range timestamps {
		group := groups[ts]
		for _, z := range zones {
			if _, ok := group[z]; !ok {
				return nil, exception.NewSchemaError(moduleName,
					"timestamp %s is missing zone %d", ts.Format(time.RFC3339), z)
			}
		}
	}

	checkHourlyCadence(timestamps)

	table := &entity.WideTable{Timestamps: timestamps}

	if opts.KeepIDColumn {
		logger.Infof("Reshaper: retaining ID field as per-zone columns.")
		for _, z := range zones {
			values := make([]string, len(timestamps))
			for i, ts := range timestamps {
				values[i] = groups[ts][z].ID
			}
			table.AddColumn(&entity.Column{
				Key:     entity.ColumnKey{Field: entity.FieldID, Zone: z},
				Kind:    entity.ColumnString,
				Strings: values,
			})
		}
	} else {
		logger.Debugf("Reshaper: dropping ID field.")
	}

	// Target first, then the raw wind quantities, zone-major within a field.
	if hasTarget {
		addPivotedColumn(table, groups, zones, entity.FieldTargetVar, func(o entity.RawObservation) float64 { return o.TargetVar })
	}
	addPivotedColumn(table, groups, zones, entity.FieldU10, func(o entity.RawObservation) float64 { return o.U10 })
	addPivotedColumn(table, groups, zones, entity.FieldV10, func(o entity.RawObservation) float64 { return o.V10 })
	addPivotedColumn(table, groups, zones, entity.FieldU100, func(o entity.RawObservation) float64 { return o.U100 })
	addPivotedColumn(table, groups, zones, entity.FieldV100, func(o entity.RawObservation) float64 { return o.V100 })

	if opts.RollingWindow > 1 {
		addRollingMeanColumns(table, zones, opts.RollingWindow)
	} else {
		logger.Debugf("Reshaper: rolling window %d <= 1, skipping smoothing.", opts.RollingWindow)
	}

	addCalendarColumns(table)

	logger.Infof("Reshaper: produced %d rows x %d columns from %d distinct timestamps.",
		table.NumRows(), len(table.Columns), len(timestamps))
	return table, nil
}

// addPivotedColumn appends one float column per zone for the given field.
func addPivotedColumn(
	table *entity.WideTable,
	groups map[time.Time]map[int]entity.RawObservation,
	zones []int,
	field string,
	value func(entity.RawObservation) float64,
) {
	for _, z := range zones {
		values := make([]float64, len(table.Timestamps))
		for i, ts := range table.Timestamps {
			values[i] = value(groups[ts][z])
		}
		table.AddColumn(&entity.Column{
			Key:    entity.ColumnKey{Field: field, Zone: z},
			Kind:   entity.ColumnFloat,
			Floats: values,
		})
	}
}

// addRollingMeanColumns appends a `{field}_rm{window}` column for each wind
// quantity and zone, computed as the trailing simple moving average over at
// most `window` observations (fewer at the start of the series, minimum 1).
// The raw columns are retained alongside.
func addRollingMeanColumns(table *entity.WideTable, zones []int, window int) {
	for _, field := range entity.WindFields {
		smoothed := rollingFieldName(field, window)
		for _, z := range zones {
			raw := table.Column(entity.ColumnKey{Field: field, Zone: z})
			table.AddColumn(&entity.Column{
				Key:    entity.ColumnKey{Field: smoothed, Zone: z},
				Kind:   entity.ColumnFloat,
				Floats: rollingMean(raw.Floats, window),
			})
		}
	}
	logger.Debugf("Reshaper: added rolling-mean columns (window=%d) for %v.", window, entity.WindFields)
}

// rollingMean computes the trailing simple moving average of values with the
// given window, using however many observations are available at the start
// of the series.
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// addCalendarColumns derives year, dayofyear (1-based, leap-aware) and hour
// (0-23) from the row timestamps. The raw timestamp leaves the column schema
// here; row order stays recorded in table.Timestamps.
func addCalendarColumns(table *entity.WideTable) {
	years := make([]int64, len(table.Timestamps))
	days := make([]int64, len(table.Timestamps))
	hours := make([]int64, len(table.Timestamps))
	for i, ts := range table.Timestamps {
		years[i] = int64(ts.Year())
		days[i] = int64(ts.YearDay())
		hours[i] = int64(ts.Hour())
	}
	table.AddColumn(&entity.Column{Key: entity.ColumnKey{Field: entity.FieldYear}, Kind: entity.ColumnInt, Ints: years})
	table.AddColumn(&entity.Column{Key: entity.ColumnKey{Field: entity.FieldDayOfYear}, Kind: entity.ColumnInt, Ints: days})
	table.AddColumn(&entity.Column{Key: entity.ColumnKey{Field: entity.FieldHour}, Kind: entity.ColumnInt, Ints: hours})
}

// checkHourlyCadence warns when consecutive timestamps do not differ by
// exactly one hour. The strict assertion from the original preprocessing is
// deliberately a warning: irregular input still produces output.
func checkHourlyCadence(timestamps []time.Time) {
	anomalies := 0
	var first time.Time
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i].Sub(timestamps[i-1]) != time.Hour {
			if anomalies == 0 {
				first = timestamps[i]
			}
			anomalies++
		}
	}
	if anomalies > 0 {
		logger.Warnf("Reshaper: %d consecutive timestamp deltas are not exactly one hour (first at %s).",
			anomalies, first.Format(time.RFC3339))
	}
}

// rollingFieldName builds the smoothed-column field name, e.g. "U10_rm3".
func rollingFieldName(field string, window int) string {
	return field + "_rm" + strconv.Itoa(window)
}
