package domain

// Submission is the inbound field-value mapping for record and update
// operations. Pointer fields distinguish "absent" from "present but empty",
// matching the free-form payloads the platform sends.
type Submission struct {
	ContactUUID      *string `json:"contact_uuid"`
	StationName      *string `json:"station_name"`
	Date             *string `json:"date"`
	MeasurementType  *string `json:"measurement_type"`
	MeasurementValue *string `json:"measurement_value"`
}

// ValidSubmission is a Submission that passed validation, with the
// measurement type resolved to its enum.
type ValidSubmission struct {
	ContactUUID     string
	StationName     string
	Date            string
	MeasurementType MeasurementType
	RawValue        string
}

// Validate checks required-field presence and the measurement type enum.
// Fields are checked in a fixed order so the reported error is deterministic.
func (s Submission) Validate() (ValidSubmission, error) {
	required := []struct {
		name  string
		value *string
	}{
		{"contact_uuid", s.ContactUUID},
		{"station_name", s.StationName},
		{"date", s.Date},
		{"measurement_type", s.MeasurementType},
		{"measurement_value", s.MeasurementValue},
	}
	for _, f := range required {
		if f.value == nil {
			return ValidSubmission{}, NewMissingFieldError(f.name)
		}
	}

	mt, ok := ParseMeasurementType(*s.MeasurementType)
	if !ok {
		return ValidSubmission{}, NewInvalidTypeError(*s.MeasurementType)
	}

	return ValidSubmission{
		ContactUUID:     *s.ContactUUID,
		StationName:     *s.StationName,
		Date:            *s.Date,
		MeasurementType: mt,
		RawValue:        *s.MeasurementValue,
	}, nil
}
