// Package lifecycle implements the climate record state machine: accept,
// deduplicate, confirm, retrieve, supersede, and list submissions.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IDEMSInternational/epicsa-climate-records/internal/domain"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// DefaultListLimit is how many entries list_recent returns when the caller
// does not supply a usable limit.
const DefaultListLimit = 10

// EventPublisher publishes record lifecycle events to the audit feed.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.RecordEvent) error
}

// Engine orchestrates validation, duplicate resolution, consistency checks,
// and persistence. It holds no mutable state of its own; every operation is
// an independent request-response unit against the store.
type Engine struct {
	store   domain.RecordStore
	events  EventPublisher // nil disables the audit feed
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	newID   func() string
}

// NewEngine creates an Engine. Pass a nil events publisher to disable the
// audit feed.
func NewEngine(store domain.RecordStore, events EventPublisher, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Engine {
	return &Engine{
		store:   store,
		events:  events,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
		newID:   uuid.NewString,
	}
}

// RecordResult is the outcome of a record or update operation.
type RecordResult struct {
	UUID    string
	Warning string

	// Existing is set when a live duplicate short-circuited the submission.
	// The remaining fields echo the existing record, its value coerced to a
	// display string.
	Existing        bool
	ExistingValue   string
	MeasurementType domain.MeasurementType
	Date            string
}

// RecentEntries is the outcome of a list_recent operation: numbered
// human-readable lines plus the parallel list of record UUIDs.
type RecentEntries struct {
	Text  string
	UUIDs []string
}

// CheckReadiness reports whether the backing store is reachable.
func (e *Engine) CheckReadiness(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// Record validates and persists a new submission, answering with the
// existing live record instead when one matches the same contact, date, and
// measurement type.
func (e *Engine) Record(ctx context.Context, sub domain.Submission) (RecordResult, error) {
	return e.record(ctx, sub, true)
}

// record is the shared write path. The duplicate check and the write are not
// atomic: two concurrent submissions for the same triple can both pass the
// check and both persist. That race is an accepted property of the store
// contract, not something this layer locks away.
func (e *Engine) record(ctx context.Context, sub domain.Submission, checkExisting bool) (RecordResult, error) {
	vs, err := sub.Validate()
	if err != nil {
		return RecordResult{}, err
	}

	if checkExisting {
		existing, err := e.findLive(ctx, vs.ContactUUID, vs.Date, vs.MeasurementType)
		if err != nil {
			return RecordResult{}, err
		}
		if existing != nil {
			e.metrics.DuplicatesSuppressed.Inc()
			e.logger.Info("duplicate suppressed",
				"contact_uuid", vs.ContactUUID, "date", vs.Date,
				"measurement_type", vs.MeasurementType, "uuid", existing.UUID)
			return RecordResult{
				UUID:            existing.UUID,
				Existing:        true,
				ExistingValue:   existing.MeasurementValue.DisplayString(),
				MeasurementType: existing.MeasurementType,
				Date:            existing.Date,
			}, nil
		}
	}

	value, warning := domain.NormalizeValue(vs.RawValue)
	if warning == "" && value.Kind == domain.ValueNumeric {
		warning, err = e.checkConsistency(ctx, vs, value.Number)
		if err != nil {
			return RecordResult{}, err
		}
	}

	rec := domain.ClimateRecord{
		UUID:                e.newID(),
		ContactUUID:         vs.ContactUUID,
		StationName:         vs.StationName,
		Date:                vs.Date,
		MeasurementType:     vs.MeasurementType,
		MeasurementValue:    value,
		IsMissing:           value.Kind == domain.ValueMissing,
		SubmissionTimestamp: e.clock.Now().UTC(),
	}
	if err := e.store.Create(ctx, rec); err != nil {
		return RecordResult{}, fmt.Errorf("create record: %w", err)
	}

	e.metrics.RecordsCreated.Inc()
	if warning != "" {
		e.metrics.Warnings.WithLabelValues(warningReason(warning)).Inc()
	}
	e.publish(ctx, "recorded", rec)

	return RecordResult{UUID: rec.UUID, Warning: warning}, nil
}

// checkConsistency produces at most one advisory warning for a numeric value.
func (e *Engine) checkConsistency(ctx context.Context, vs domain.ValidSubmission, value float64) (string, error) {
	if vs.MeasurementType == domain.Rainfall {
		return domain.CheckRainfall(value), nil
	}
	sibling, err := e.findLive(ctx, vs.ContactUUID, vs.Date, vs.MeasurementType.Sibling())
	if err != nil {
		return "", err
	}
	return domain.CheckTemperaturePair(vs.MeasurementType, value, sibling), nil
}

// findLive resolves the live record for (contact, date, type), or nil.
// First match wins; no tie-break is defined when a race has left more than
// one live duplicate.
func (e *Engine) findLive(ctx context.Context, contactUUID, date string, mt domain.MeasurementType) (*domain.ClimateRecord, error) {
	recs, err := e.store.Query(ctx, domain.RecordFilter{
		ContactUUID:     &contactUUID,
		Date:            &date,
		MeasurementType: &mt,
		LiveOnly:        true,
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("query live records: %w", err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// Confirm marks an existing record as confirmed by its submitter.
func (e *Engine) Confirm(ctx context.Context, recordUUID string) error {
	rec, found, err := e.store.Get(ctx, recordUUID)
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}
	if !found {
		return &domain.NotFoundError{UUID: recordUUID}
	}

	confirmed := true
	now := e.clock.Now().UTC()
	if err := e.store.Merge(ctx, recordUUID, domain.RecordPatch{
		IsConfirmed:           &confirmed,
		ConfirmationTimestamp: &now,
	}); err != nil {
		return fmt.Errorf("merge confirmation: %w", err)
	}

	e.metrics.Confirmations.Inc()
	rec.IsConfirmed = true
	rec.ConfirmationTimestamp = &now
	e.publish(ctx, "confirmed", rec)
	return nil
}

// Retrieve returns the full record for a UUID.
func (e *Engine) Retrieve(ctx context.Context, recordUUID string) (domain.ClimateRecord, error) {
	rec, found, err := e.store.Get(ctx, recordUUID)
	if err != nil {
		return domain.ClimateRecord{}, fmt.Errorf("get record: %w", err)
	}
	if !found {
		return domain.ClimateRecord{}, &domain.NotFoundError{UUID: recordUUID}
	}
	return rec, nil
}

// Update supersedes an existing record: a replacement is always written
// (bypassing the duplicate check), then the old record is flagged obsolete
// and linked forward. If the old record cannot be updated the new write is
// NOT rolled back; the result carries a warning instead. Forward progress
// beats strict consistency here.
func (e *Engine) Update(ctx context.Context, oldUUID string, sub domain.Submission) (RecordResult, error) {
	res, err := e.record(ctx, sub, false)
	if err != nil {
		return res, err
	}

	old, found, err := e.store.Get(ctx, oldUUID)
	if err != nil {
		res.Warning = "New entry written, but " + err.Error()
		return res, nil
	}
	if !found {
		staleErr := &domain.NotFoundError{UUID: oldUUID}
		res.Warning = "New entry written, but " + staleErr.Error()
		return res, nil
	}

	obsolete := true
	if err := e.store.Merge(ctx, oldUUID, domain.RecordPatch{
		IsObsolete:  &obsolete,
		ObsoletedBy: &res.UUID,
	}); err != nil {
		res.Warning = "New entry written, but " + err.Error()
		return res, nil
	}

	e.metrics.Supersessions.Inc()
	old.IsObsolete = true
	old.ObsoletedBy = res.UUID
	e.publish(ctx, "superseded", old)
	return res, nil
}

// ListRecent returns up to limit most recent live records for a contact,
// oldest-first within the returned window.
func (e *Engine) ListRecent(ctx context.Context, contactUUID string, limit int) (RecentEntries, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	recs, err := e.store.Query(ctx, domain.RecordFilter{
		ContactUUID: &contactUUID,
		LiveOnly:    true,
	}, limit)
	if err != nil {
		return RecentEntries{}, fmt.Errorf("query recent records: %w", err)
	}

	var text strings.Builder
	uuids := make([]string, 0, len(recs))
	for i, rec := range recs {
		fmt.Fprintf(&text, "%d. %s: %s = %s\n", i+1, rec.Date, rec.MeasurementType, rec.MeasurementValue.DisplayString())
		uuids = append(uuids, rec.UUID)
	}
	return RecentEntries{Text: text.String(), UUIDs: uuids}, nil
}

// publish sends an audit event, best-effort. Publish failures never fail the
// operation that triggered them.
func (e *Engine) publish(ctx context.Context, action string, rec domain.ClimateRecord) {
	if e.events == nil {
		return
	}
	event := domain.RecordEvent{Action: action, Record: rec, OccurredAt: e.clock.Now().UTC()}
	if err := e.events.Publish(ctx, event); err != nil {
		e.metrics.AuditPublishFailures.Inc()
		e.logger.Warn("audit publish failed", "action", action, "uuid", rec.UUID, "error", err)
	}
}

func warningReason(warning string) string {
	switch {
	case warning == domain.WarnNotANumber:
		return "parse"
	case warning == domain.WarnNegativeRain:
		return "rainfall_sign"
	default:
		return "temperature_order"
	}
}
