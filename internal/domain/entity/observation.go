// Package entity defines the data model of the windprep pipeline: the raw
// long-layout observation rows read from CSV and the wide, column-oriented
// table produced by the reshaper.
package entity

import "time"

// Canonical field names. The measurement fields match the input CSV header;
// calendar fields are derived and therefore lowercase.
const (
	FieldID        = "ID"
	FieldZoneID    = "ZONEID"
	FieldTimestamp = "TIMESTAMP"
	FieldTargetVar = "TARGETVAR"
	FieldU10       = "U10"
	FieldV10       = "V10"
	FieldU100      = "U100"
	FieldV100      = "V100"

	FieldYear      = "year"
	FieldDayOfYear = "dayofyear"
	FieldHour      = "hour"
)

// WindFields lists the four wind-measurement quantities, in output order.
// These are the quantities eligible for rolling-mean smoothing.
var WindFields = []string{FieldU10, FieldV10, FieldU100, FieldV100}

// MinZoneID and MaxZoneID bound the valid zone identifier range. A zone id
// outside this range is a schema violation regardless of the configured
// whitelist.
const (
	MinZoneID = 1
	MaxZoneID = 10
)

// MissingValuePolicy names the policy applied to absent or blank numeric
// fields in the input. Only zero-fill is implemented; the name exists so the
// policy is explicit at call sites and swappable later.
type MissingValuePolicy int

const (
	// MissingValueZeroFill replaces absent or blank numeric values with 0.0.
	// Note this conflates "missing" with "observed zero", which is accepted
	// for this domain.
	MissingValueZeroFill MissingValuePolicy = iota
)

// Fill returns the substitute for an absent or blank numeric value under
// the policy.
func (p MissingValuePolicy) Fill() float64 {
	// MissingValueZeroFill is the only implemented policy.
	return 0
}

// RawObservation is one row of the long-layout input: a single zone's wind
// vector components (and, for training data, the power target) at one
// timestamp. Each (Timestamp, ZoneID) pair is unique in valid input.
type RawObservation struct {
	// ID is the optional row identifier from the source file.
	ID string
	// ZoneID identifies the turbine zone, 1..10.
	ZoneID int
	// Timestamp is the observation time, hourly cadence.
	Timestamp time.Time
	// TargetVar is the normalized power output. Only present in training
	// data; HasTarget distinguishes a true zero from an absent value.
	TargetVar float64
	// HasTarget reports whether the source row carried a TARGETVAR value.
	HasTarget bool

	// Wind vector components at 10m and 100m.
	U10  float64
	V10  float64
	U100 float64
	V100 float64
}
