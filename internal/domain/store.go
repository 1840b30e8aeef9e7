package domain

import (
	"context"
	"time"
)

// RecordFilter selects records by equality on optional fields. Nil fields
// match everything. LiveOnly restricts to non-obsolete records.
type RecordFilter struct {
	ContactUUID     *string
	Date            *string
	MeasurementType *MeasurementType
	LiveOnly        bool
}

// RecordPatch is a partial update merged onto an existing record. Only the
// confirmation and obsolescence fields are ever mutated after creation.
type RecordPatch struct {
	IsConfirmed           *bool
	ConfirmationTimestamp *time.Time
	IsObsolete            *bool
	ObsoletedBy           *string
}

// RecordStore is the narrow persistence contract the lifecycle engine
// requires: a document store keyed by UUID with equality queries in
// submission order. No multi-document transaction is assumed; callers get
// read-your-writes per key and nothing more.
type RecordStore interface {
	// Create persists a new record under its UUID.
	Create(ctx context.Context, rec ClimateRecord) error

	// Get returns the record with the given UUID, and whether it exists.
	Get(ctx context.Context, uuid string) (ClimateRecord, bool, error)

	// Merge applies a partial update to an existing record. Merging a UUID
	// that does not exist is a silent no-op; callers check existence first.
	Merge(ctx context.Context, uuid string, patch RecordPatch) error

	// Query returns matching records in ascending submission order. A
	// positive tailLimit keeps only the most recent tailLimit records
	// (still returned ascending).
	Query(ctx context.Context, filter RecordFilter, tailLimit int) ([]ClimateRecord, error)

	// Ping reports whether the store is reachable, for readiness checks.
	Ping(ctx context.Context) error
}
