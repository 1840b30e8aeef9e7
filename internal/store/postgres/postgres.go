// Package postgres provides a Postgres-backed RecordStore using the pgx
// stdlib driver. The schema is applied on startup; submission order is a
// serial column so tail-limited queries do not depend on timestamp ties.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/IDEMSInternational/epicsa-climate-records/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion.
var _ domain.RecordStore = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS climate_records (
	uuid                   TEXT PRIMARY KEY,
	contact_uuid           TEXT NOT NULL,
	station_name           TEXT NOT NULL,
	date                   TEXT NOT NULL,
	measurement_type       TEXT NOT NULL,
	value_kind             TEXT NOT NULL,
	value_number           DOUBLE PRECISION,
	value_raw              TEXT,
	is_missing             BOOLEAN NOT NULL DEFAULT FALSE,
	is_obsolete            BOOLEAN NOT NULL DEFAULT FALSE,
	is_confirmed           BOOLEAN NOT NULL DEFAULT FALSE,
	obsoleted_by           TEXT,
	submission_seq         BIGINT GENERATED ALWAYS AS IDENTITY,
	submission_timestamp   TIMESTAMPTZ NOT NULL,
	confirmation_timestamp TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS climate_records_contact_idx
	ON climate_records (contact_uuid, is_obsolete, submission_seq);
CREATE INDEX IF NOT EXISTS climate_records_triple_idx
	ON climate_records (contact_uuid, date, measurement_type, is_obsolete);
`

const recordColumns = `uuid, contact_uuid, station_name, date, measurement_type,
	value_kind, value_number, value_raw,
	is_missing, is_obsolete, is_confirmed, obsoleted_by,
	submission_timestamp, confirmation_timestamp`

// Store persists climate records in Postgres.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection pool for the given DSN and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Create(ctx context.Context, rec domain.ClimateRecord) error {
	var number sql.NullFloat64
	var raw sql.NullString
	switch rec.MeasurementValue.Kind {
	case domain.ValueNumeric:
		number = sql.NullFloat64{Float64: rec.MeasurementValue.Number, Valid: true}
	case domain.ValueUnparsed:
		raw = sql.NullString{String: rec.MeasurementValue.Raw, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO climate_records (
			uuid, contact_uuid, station_name, date, measurement_type,
			value_kind, value_number, value_raw,
			is_missing, is_obsolete, is_confirmed, obsoleted_by,
			submission_timestamp, confirmation_timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rec.UUID, rec.ContactUUID, rec.StationName, rec.Date, rec.MeasurementType,
		rec.MeasurementValue.Kind, number, raw,
		rec.IsMissing, rec.IsObsolete, rec.IsConfirmed, nullString(rec.ObsoletedBy),
		rec.SubmissionTimestamp, rec.ConfirmationTimestamp,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, uuid string) (domain.ClimateRecord, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM climate_records WHERE uuid = $1`, uuid)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return domain.ClimateRecord{}, false, nil
	}
	if err != nil {
		return domain.ClimateRecord{}, false, fmt.Errorf("select record: %w", err)
	}
	return rec, true, nil
}

// Merge applies the patch via a single UPDATE. An unknown UUID matches zero
// rows, which satisfies the silent no-op contract.
func (s *Store) Merge(ctx context.Context, uuid string, patch domain.RecordPatch) error {
	var sets []string
	args := []any{uuid}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.IsConfirmed != nil {
		add("is_confirmed", *patch.IsConfirmed)
	}
	if patch.ConfirmationTimestamp != nil {
		add("confirmation_timestamp", *patch.ConfirmationTimestamp)
	}
	if patch.IsObsolete != nil {
		add("is_obsolete", *patch.IsObsolete)
	}
	if patch.ObsoletedBy != nil {
		add("obsoleted_by", *patch.ObsoletedBy)
	}
	if len(sets) == 0 {
		return nil
	}

	query := `UPDATE climate_records SET ` + strings.Join(sets, ", ") + ` WHERE uuid = $1`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("merge record: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, filter domain.RecordFilter, tailLimit int) ([]domain.ClimateRecord, error) {
	var where []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.ContactUUID != nil {
		add("contact_uuid = $%d", *filter.ContactUUID)
	}
	if filter.Date != nil {
		add("date = $%d", *filter.Date)
	}
	if filter.MeasurementType != nil {
		add("measurement_type = $%d", *filter.MeasurementType)
	}
	if filter.LiveOnly {
		where = append(where, "is_obsolete = FALSE")
	}

	query := `SELECT ` + recordColumns + ` FROM climate_records`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if tailLimit > 0 {
		// Most recent n, fetched newest-first and reversed to ascending.
		query += fmt.Sprintf(` ORDER BY submission_seq DESC LIMIT %d`, tailLimit)
	} else {
		query += ` ORDER BY submission_seq ASC`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var recs []domain.ClimateRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	if tailLimit > 0 {
		for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
			recs[i], recs[j] = recs[j], recs[i]
		}
	}
	return recs, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.ClimateRecord, error) {
	var rec domain.ClimateRecord
	var kind string
	var number sql.NullFloat64
	var raw sql.NullString
	var obsoletedBy sql.NullString
	var confirmedAt sql.NullTime

	err := row.Scan(
		&rec.UUID, &rec.ContactUUID, &rec.StationName, &rec.Date, &rec.MeasurementType,
		&kind, &number, &raw,
		&rec.IsMissing, &rec.IsObsolete, &rec.IsConfirmed, &obsoletedBy,
		&rec.SubmissionTimestamp, &confirmedAt,
	)
	if err != nil {
		return domain.ClimateRecord{}, err
	}

	switch domain.ValueKind(kind) {
	case domain.ValueNumeric:
		rec.MeasurementValue = domain.NumericValue(number.Float64)
	case domain.ValueMissing:
		rec.MeasurementValue = domain.MissingValue()
	default:
		rec.MeasurementValue = domain.UnparsedValue(raw.String)
	}
	if obsoletedBy.Valid {
		rec.ObsoletedBy = obsoletedBy.String
	}
	if confirmedAt.Valid {
		ts := confirmedAt.Time
		rec.ConfirmationTimestamp = &ts
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
