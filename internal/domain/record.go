package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MeasurementType identifies which observation a record carries.
type MeasurementType string

const (
	Rainfall MeasurementType = "rainfall"
	TMax     MeasurementType = "t_max"
	TMin     MeasurementType = "t_min"
)

// ParseMeasurementType validates a caller-supplied measurement type string.
func ParseMeasurementType(s string) (MeasurementType, bool) {
	switch MeasurementType(s) {
	case Rainfall, TMax, TMin:
		return MeasurementType(s), true
	default:
		return "", false
	}
}

// Sibling returns the complementary temperature type used for cross-field
// consistency checks, or "" for rainfall.
func (t MeasurementType) Sibling() MeasurementType {
	switch t {
	case TMax:
		return TMin
	case TMin:
		return TMax
	default:
		return ""
	}
}

// ValueKind tags the three states a normalized measurement value can be in.
type ValueKind string

const (
	// ValueNumeric is a successfully parsed number.
	ValueNumeric ValueKind = "numeric"
	// ValueMissing is an explicitly reported "no data" submission.
	ValueMissing ValueKind = "missing"
	// ValueUnparsed is text that failed numeric parse but was accepted anyway.
	ValueUnparsed ValueKind = "unparsed"
)

// MeasurementValue is the tagged union stored for a record's value.
// Number is meaningful only when Kind is ValueNumeric; Raw only when Kind is
// ValueUnparsed.
type MeasurementValue struct {
	Kind   ValueKind
	Number float64
	Raw    string
}

// NumericValue builds a numeric measurement value.
func NumericValue(n float64) MeasurementValue {
	return MeasurementValue{Kind: ValueNumeric, Number: n}
}

// MissingValue builds the missing sentinel.
func MissingValue() MeasurementValue {
	return MeasurementValue{Kind: ValueMissing}
}

// UnparsedValue keeps the original text of a value that failed numeric parse.
func UnparsedValue(raw string) MeasurementValue {
	return MeasurementValue{Kind: ValueUnparsed, Raw: raw}
}

// DisplayString coerces the value to text for the outbound boundary. The
// downstream platform cannot represent a non-numeric sentinel, so every value
// crosses the wire as a string in list and duplicate responses.
func (v MeasurementValue) DisplayString() string {
	switch v.Kind {
	case ValueNumeric:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case ValueMissing:
		return "NaN"
	default:
		return v.Raw
	}
}

// MarshalJSON encodes the union at the wire boundary: numbers as JSON
// numbers, everything else as a string (JSON has no NaN literal).
func (v MeasurementValue) MarshalJSON() ([]byte, error) {
	if v.Kind == ValueNumeric {
		return json.Marshal(v.Number)
	}
	return json.Marshal(v.DisplayString())
}

// UnmarshalJSON is the inverse of MarshalJSON. The string "NaN" maps back to
// the missing sentinel; any other string is treated as unparsed text.
func (v *MeasurementValue) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = NumericValue(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("measurement value must be a number or string: %w", err)
	}
	if strings.EqualFold(s, "NaN") {
		*v = MissingValue()
		return nil
	}
	*v = UnparsedValue(s)
	return nil
}

// ClimateRecord is the sole persisted entity: one measurement submitted by
// one contact for one station and date. Immutable after creation except for
// the confirmation and obsolescence fields, which are merged in place.
type ClimateRecord struct {
	UUID                  string           `json:"uuid"`
	ContactUUID           string           `json:"contact_uuid"`
	StationName           string           `json:"station_name"`
	Date                  string           `json:"date"`
	MeasurementType       MeasurementType  `json:"measurement_type"`
	MeasurementValue      MeasurementValue `json:"measurement_value"`
	IsMissing             bool             `json:"is_missing"`
	IsObsolete            bool             `json:"is_obsolete"`
	IsConfirmed           bool             `json:"is_confirmed"`
	ObsoletedBy           string           `json:"obsoleted_by,omitempty"`
	SubmissionTimestamp   time.Time        `json:"submission_timestamp"`
	ConfirmationTimestamp *time.Time       `json:"confirmation_timestamp,omitempty"`
}

// RecordEvent is the audit feed payload published when a record changes state.
type RecordEvent struct {
	Action     string        `json:"action"` // "recorded", "confirmed", or "superseded"
	Record     ClimateRecord `json:"record"`
	OccurredAt time.Time     `json:"occurred_at"`
}
