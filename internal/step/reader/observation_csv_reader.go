// Package reader provides the CSV input side of the windprep pipeline.
package reader

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gefpower/windprep/internal/domain/entity"
	"github.com/gefpower/windprep/internal/support/exception"
	"github.com/gefpower/windprep/internal/support/logger"
)

const moduleName = "reader"

// timestampLayout matches the source format `YYYYMMDD h:mm`. The hour field
// of the reference layout accepts both one- and two-digit hours.
const timestampLayout = "20060102 15:04"

// ObservationCSVReader reads long-layout wind telemetry rows from a CSV
// stream with the fixed header ID, ZONEID, TIMESTAMP, TARGETVAR, U10, V10,
// U100, V100. The ID and TARGETVAR columns may be absent (test-time input
// has no target); blank numeric cells are substituted per the reader's
// missing-value policy.
type ObservationCSVReader struct {
	src io.Reader
	// missingPolicy governs blank numeric cells. Defaults to zero-fill.
	missingPolicy entity.MissingValuePolicy

	csvReader *csv.Reader
	// columnIndex maps a canonical field name to its position in the header,
	// -1 when the column is absent.
	columnIndex map[string]int
	rowsRead    int
}

// NewObservationCSVReader creates a reader over src. Open must be called
// before Read.
func NewObservationCSVReader(src io.Reader) *ObservationCSVReader {
	return &ObservationCSVReader{
		src:           src,
		missingPolicy: entity.MissingValueZeroFill,
	}
}

// Open consumes and validates the header row. A missing required column
// yields a SchemaError.
func (r *ObservationCSVReader) Open(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.csvReader = csv.NewReader(r.src)
	r.csvReader.TrimLeadingSpace = true

	header, err := r.csvReader.Read()
	if err != nil {
		return exception.NewSchemaError(moduleName, "failed to read CSV header", err)
	}

	r.columnIndex = map[string]int{
		entity.FieldID:        -1,
		entity.FieldZoneID:    -1,
		entity.FieldTimestamp: -1,
		entity.FieldTargetVar: -1,
		entity.FieldU10:       -1,
		entity.FieldV10:       -1,
		entity.FieldU100:      -1,
		entity.FieldV100:      -1,
	}
	for i, name := range header {
		canonical := strings.ToUpper(strings.TrimSpace(name))
		if _, known := r.columnIndex[canonical]; known {
			r.columnIndex[canonical] = i
		} else {
			logger.Warnf("ObservationCSVReader: ignoring unknown column '%s'.", name)
		}
	}

	// ID and TARGETVAR are optional; everything else is required.
	for _, required := range []string{
		entity.FieldZoneID, entity.FieldTimestamp,
		entity.FieldU10, entity.FieldV10, entity.FieldU100, entity.FieldV100,
	} {
		if r.columnIndex[required] < 0 {
			return exception.NewSchemaError(moduleName, "input is missing required column %s", required)
		}
	}

	r.rowsRead = 0
	logger.Debugf("ObservationCSVReader: header validated (ID present: %t, TARGETVAR present: %t).",
		r.columnIndex[entity.FieldID] >= 0, r.columnIndex[entity.FieldTargetVar] >= 0)
	return nil
}

// Read returns the next observation, or io.EOF when the input is exhausted.
func (r *ObservationCSVReader) Read(ctx context.Context) (*entity.RawObservation, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	record, err := r.csvReader.Read()
	if err == io.EOF {
		logger.Debugf("ObservationCSVReader: finished after %d data rows.", r.rowsRead)
		return nil, io.EOF
	}
	if err != nil {
		return nil, exception.NewSchemaError(moduleName, "malformed CSV row %d", r.rowsRead+2, err)
	}
	r.rowsRead++

	obs := &entity.RawObservation{}

	if idx := r.columnIndex[entity.FieldID]; idx >= 0 && idx < len(record) {
		obs.ID = strings.TrimSpace(record[idx])
	}

	zoneCell := r.cell(record, entity.FieldZoneID)
	zone, err := strconv.Atoi(zoneCell)
	if err != nil {
		return nil, exception.NewParseError(moduleName, "row %d: invalid zone id '%s'", r.rowsRead+1, zoneCell, err)
	}
	obs.ZoneID = zone

	tsCell := r.cell(record, entity.FieldTimestamp)
	ts, err := time.Parse(timestampLayout, tsCell)
	if err != nil {
		return nil, exception.NewParseError(moduleName, "row %d: invalid timestamp '%s'", r.rowsRead+1, tsCell, err)
	}
	obs.Timestamp = ts

	if idx := r.columnIndex[entity.FieldTargetVar]; idx >= 0 && idx < len(record) {
		cell := strings.TrimSpace(record[idx])
		if cell != "" {
			target, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, exception.NewParseError(moduleName, "row %d: invalid TARGETVAR '%s'", r.rowsRead+1, cell, err)
			}
			obs.TargetVar = target
			obs.HasTarget = true
		} else {
			// A blank target cell substitutes like the wind fields but does
			// not count as an observed value.
			obs.TargetVar = r.missingPolicy.Fill()
		}
	}

	for _, wind := range []struct {
		field string
		dst   *float64
	}{
		{entity.FieldU10, &obs.U10},
		{entity.FieldV10, &obs.V10},
		{entity.FieldU100, &obs.U100},
		{entity.FieldV100, &obs.V100},
	} {
		cell := r.cell(record, wind.field)
		if cell == "" {
			// No interpolation.
			*wind.dst = r.missingPolicy.Fill()
			continue
		}
		value, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, exception.NewParseError(moduleName, "row %d: invalid %s '%s'", r.rowsRead+1, wind.field, cell, err)
		}
		*wind.dst = value
	}

	return obs, nil
}

// Close releases the reader. The underlying source is owned by the caller.
func (r *ObservationCSVReader) Close(ctx context.Context) error {
	r.csvReader = nil
	return nil
}

// ReadAll drains the reader into a slice, running Open first. It is the
// whole-dataset entry point used by the pipeline, which materializes the
// full input before transforming.
func (r *ObservationCSVReader) ReadAll(ctx context.Context) ([]entity.RawObservation, error) {
	if err := r.Open(ctx); err != nil {
		return nil, err
	}
	defer r.Close(ctx)

	var rows []entity.RawObservation
	for {
		obs, err := r.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, *obs)
	}
	logger.Infof("ObservationCSVReader: read %d observations.", len(rows))
	return rows, nil
}

// cell returns the trimmed value of the named column in record, or "" when
// the column is absent or the record is short.
func (r *ObservationCSVReader) cell(record []string, field string) string {
	idx := r.columnIndex[field]
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
