package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected MeasurementValue
		warning  string
	}{
		{"plain number", "23.5", NumericValue(23.5), ""},
		{"integer", "30", NumericValue(30), ""},
		{"negative number", "-5", NumericValue(-5), ""},
		{"padded number", "  12.0 ", NumericValue(12), ""},
		{"missing token m", "m", MissingValue(), ""},
		{"missing token NA", "NA", MissingValue(), ""},
		{"missing token NaN", "NaN", MissingValue(), ""},
		{"missing token MISSING", "MISSING", MissingValue(), ""},
		{"missing token padded", "  na  ", MissingValue(), ""},
		{"unparsable text", "twenty", UnparsedValue("twenty"), WarnNotANumber},
		{"empty string", "", UnparsedValue(""), WarnNotANumber},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			value, warning := NormalizeValue(tc.raw)
			assert.Equal(t, tc.expected, value)
			assert.Equal(t, tc.warning, warning)
		})
	}
}

func TestCheckRainfall(t *testing.T) {
	assert.Equal(t, WarnNegativeRain, CheckRainfall(-5))
	assert.Empty(t, CheckRainfall(0))
	assert.Empty(t, CheckRainfall(12.5))
}

func TestCheckTemperaturePair(t *testing.T) {
	sibling := func(v MeasurementValue) *ClimateRecord {
		return &ClimateRecord{MeasurementValue: v}
	}

	t.Run("t_max below t_min warns with both values", func(t *testing.T) {
		warning := CheckTemperaturePair(TMax, 20, sibling(NumericValue(30)))
		require.NotEmpty(t, warning)
		assert.Equal(t, "t_max (20) < t_min (30) for this date", warning)
	})

	t.Run("t_min above t_max warns", func(t *testing.T) {
		warning := CheckTemperaturePair(TMin, 31.5, sibling(NumericValue(28)))
		assert.Equal(t, "t_min (31.5) > t_max (28) for this date", warning)
	})

	t.Run("consistent pair", func(t *testing.T) {
		assert.Empty(t, CheckTemperaturePair(TMax, 30, sibling(NumericValue(20))))
		assert.Empty(t, CheckTemperaturePair(TMin, 20, sibling(NumericValue(30))))
	})

	t.Run("equal values do not warn", func(t *testing.T) {
		assert.Empty(t, CheckTemperaturePair(TMax, 25, sibling(NumericValue(25))))
		assert.Empty(t, CheckTemperaturePair(TMin, 25, sibling(NumericValue(25))))
	})

	t.Run("no sibling", func(t *testing.T) {
		assert.Empty(t, CheckTemperaturePair(TMax, 20, nil))
	})

	t.Run("missing sibling value skipped by tag", func(t *testing.T) {
		assert.Empty(t, CheckTemperaturePair(TMax, 20, sibling(MissingValue())))
	})

	t.Run("unparsed sibling value skipped by tag", func(t *testing.T) {
		assert.Empty(t, CheckTemperaturePair(TMin, 40, sibling(UnparsedValue("hot"))))
	})
}

func TestMeasurementTypeSibling(t *testing.T) {
	assert.Equal(t, TMin, TMax.Sibling())
	assert.Equal(t, TMax, TMin.Sibling())
	assert.Equal(t, MeasurementType(""), Rainfall.Sibling())
}
