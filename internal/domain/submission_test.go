package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func fullSubmission() Submission {
	return Submission{
		ContactUUID:      strPtr("contact-1"),
		StationName:      strPtr("Mlomba"),
		Date:             strPtr("2024-01-15"),
		MeasurementType:  strPtr("rainfall"),
		MeasurementValue: strPtr("12.5"),
	}
}

func TestSubmissionValidate(t *testing.T) {
	t.Run("complete submission", func(t *testing.T) {
		vs, err := fullSubmission().Validate()
		require.NoError(t, err)
		assert.Equal(t, "contact-1", vs.ContactUUID)
		assert.Equal(t, "Mlomba", vs.StationName)
		assert.Equal(t, "2024-01-15", vs.Date)
		assert.Equal(t, Rainfall, vs.MeasurementType)
		assert.Equal(t, "12.5", vs.RawValue)
	})

	t.Run("missing fields reported by name", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Submission)
			errMsg string
		}{
			{"contact_uuid", func(s *Submission) { s.ContactUUID = nil }, "Missing contact_uuid"},
			{"station_name", func(s *Submission) { s.StationName = nil }, "Missing station_name"},
			{"date", func(s *Submission) { s.Date = nil }, "Missing date"},
			{"measurement_type", func(s *Submission) { s.MeasurementType = nil }, "Missing measurement_type"},
			{"measurement_value", func(s *Submission) { s.MeasurementValue = nil }, "Missing measurement_value"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				sub := fullSubmission()
				tc.mutate(&sub)
				_, err := sub.Validate()
				require.Error(t, err)
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tc.errMsg, verr.Error())
			})
		}
	})

	t.Run("invalid measurement type", func(t *testing.T) {
		sub := fullSubmission()
		sub.MeasurementType = strPtr("humidity")
		_, err := sub.Validate()
		require.Error(t, err)
		assert.Equal(t, `Invalid measurement type "humidity"`, err.Error())
	})

	t.Run("empty string counts as present", func(t *testing.T) {
		sub := fullSubmission()
		sub.StationName = strPtr("")
		_, err := sub.Validate()
		assert.NoError(t, err)
	})
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &NotFoundError{UUID: "abc-123"}
	assert.Equal(t, "No entry with UUID abc-123 found.", err.Error())
}
