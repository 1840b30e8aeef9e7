package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Advisory warning texts. These are user-facing strings relayed verbatim by
// the platform, so they are part of the contract.
const (
	WarnNotANumber  = "Value is not a number."
	WarnNegativeRain = "Rainfall value must be non-negative."
)

// missingTokens are the observer-reported "no data" spellings, compared after
// trimming and lowercasing.
var missingTokens = map[string]struct{}{
	"m":       {},
	"na":      {},
	"nan":     {},
	"missing": {},
}

// NormalizeValue parses raw measurement text into a tagged value. It returns
// a non-empty warning only for a parse failure; the unparsed value is still
// returned (and persisted by the caller) in that case.
func NormalizeValue(raw string) (MeasurementValue, string) {
	if _, ok := missingTokens[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return MissingValue(), ""
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return UnparsedValue(raw), WarnNotANumber
	}
	return NumericValue(n), ""
}

// CheckRainfall returns an advisory warning for a negative rainfall value.
func CheckRainfall(value float64) string {
	if value < 0 {
		return WarnNegativeRain
	}
	return ""
}

// CheckTemperaturePair compares a numeric temperature against the live
// sibling record for the same contact and date. A nil sibling, or a sibling
// whose value is not numeric, produces no warning; the tag check replaces the
// NaN-skip in earlier systems.
func CheckTemperaturePair(t MeasurementType, value float64, sibling *ClimateRecord) string {
	if sibling == nil || sibling.MeasurementValue.Kind != ValueNumeric {
		return ""
	}
	other := sibling.MeasurementValue.Number
	switch {
	case t == TMax && value < other:
		return fmt.Sprintf("t_max (%s) < t_min (%s) for this date", formatNumber(value), formatNumber(other))
	case t == TMin && value > other:
		return fmt.Sprintf("t_min (%s) > t_max (%s) for this date", formatNumber(value), formatNumber(other))
	default:
		return ""
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}
