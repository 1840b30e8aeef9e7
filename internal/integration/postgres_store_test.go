//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IDEMSInternational/epicsa-climate-records/internal/domain"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/lifecycle"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/observability"
	"github.com/IDEMSInternational/epicsa-climate-records/internal/store/postgres"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startPostgres launches a throwaway Postgres container and returns a DSN.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("epicsa_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func strPtr(s string) *string { return &s }

func submission(contact, date, mt, value string) domain.Submission {
	return domain.Submission{
		ContactUUID:      strPtr(contact),
		StationName:      strPtr("Mlomba"),
		Date:             strPtr(date),
		MeasurementType:  strPtr(mt),
		MeasurementValue: strPtr(value),
	}
}

// TestPostgresStoreContract exercises the RecordStore contract against real
// Postgres: create, point-read, merge semantics, and tail-limited queries.
func TestPostgresStoreContract(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)
	store, err := postgres.NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(ctx))

	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	for i := 1; i <= 12; i++ {
		rec := domain.ClimateRecord{
			UUID:                fmt.Sprintf("rec-%02d", i),
			ContactUUID:         "c1",
			StationName:         "Mlomba",
			Date:                fmt.Sprintf("2024-01-%02d", i),
			MeasurementType:     domain.Rainfall,
			MeasurementValue:    domain.NumericValue(float64(i)),
			SubmissionTimestamp: now.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.Create(ctx, rec))
	}

	t.Run("point read round-trips the value union", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, domain.ClimateRecord{
			UUID: "rec-missing", ContactUUID: "c2", StationName: "Mlomba",
			Date: "2024-01-15", MeasurementType: domain.TMin,
			MeasurementValue: domain.MissingValue(), IsMissing: true,
			SubmissionTimestamp: now,
		}))
		require.NoError(t, store.Create(ctx, domain.ClimateRecord{
			UUID: "rec-unparsed", ContactUUID: "c2", StationName: "Mlomba",
			Date: "2024-01-16", MeasurementType: domain.TMin,
			MeasurementValue:    domain.UnparsedValue("cold"),
			SubmissionTimestamp: now,
		}))

		rec, found, err := store.Get(ctx, "rec-missing")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, domain.MissingValue(), rec.MeasurementValue)
		assert.True(t, rec.IsMissing)

		rec, found, err = store.Get(ctx, "rec-unparsed")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, domain.UnparsedValue("cold"), rec.MeasurementValue)

		_, found, err = store.Get(ctx, "ghost")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("merge patches only the given fields", func(t *testing.T) {
		confirmed := true
		ts := now.Add(24 * time.Hour)
		require.NoError(t, store.Merge(ctx, "rec-01", domain.RecordPatch{
			IsConfirmed:           &confirmed,
			ConfirmationTimestamp: &ts,
		}))

		rec, _, err := store.Get(ctx, "rec-01")
		require.NoError(t, err)
		assert.True(t, rec.IsConfirmed)
		require.NotNil(t, rec.ConfirmationTimestamp)
		assert.True(t, ts.Equal(*rec.ConfirmationTimestamp))
		assert.False(t, rec.IsObsolete)

		// Unknown UUID is a silent no-op.
		assert.NoError(t, store.Merge(ctx, "ghost", domain.RecordPatch{IsConfirmed: &confirmed}))
	})

	t.Run("tail-limited query is ascending", func(t *testing.T) {
		contact := "c1"
		recs, err := store.Query(ctx, domain.RecordFilter{ContactUUID: &contact, LiveOnly: true}, 10)
		require.NoError(t, err)
		require.Len(t, recs, 10)
		assert.Equal(t, "rec-03", recs[0].UUID)
		assert.Equal(t, "rec-12", recs[9].UUID)
	})

	t.Run("equality filters", func(t *testing.T) {
		contact := "c1"
		date := "2024-01-05"
		mt := domain.Rainfall
		recs, err := store.Query(ctx, domain.RecordFilter{
			ContactUUID: &contact, Date: &date, MeasurementType: &mt, LiveOnly: true,
		}, 0)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "rec-05", recs[0].UUID)
	})
}

// TestLifecycleOnPostgres runs the full record lifecycle against real
// Postgres: record, duplicate suppression, supersession, and list_recent.
func TestLifecycleOnPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := startPostgres(ctx, t)
	store, err := postgres.NewStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine := lifecycle.NewEngine(store, nil, discardLogger(),
		observability.NewMetricsForTesting(), clockwork.NewRealClock())

	first, err := engine.Record(ctx, submission("c1", "2024-01-15", "t_min", "18"))
	require.NoError(t, err)
	require.NotEmpty(t, first.UUID)

	dup, err := engine.Record(ctx, submission("c1", "2024-01-15", "t_min", "21"))
	require.NoError(t, err)
	assert.True(t, dup.Existing)
	assert.Equal(t, first.UUID, dup.UUID)

	inconsistent, err := engine.Record(ctx, submission("c1", "2024-01-15", "t_max", "12"))
	require.NoError(t, err)
	assert.Contains(t, inconsistent.Warning, "t_max (12) < t_min (18)")

	replacement, err := engine.Update(ctx, first.UUID, submission("c1", "2024-01-15", "t_min", "8"))
	require.NoError(t, err)
	assert.Empty(t, replacement.Warning)

	old, err := engine.Retrieve(ctx, first.UUID)
	require.NoError(t, err)
	assert.True(t, old.IsObsolete)
	assert.Equal(t, replacement.UUID, old.ObsoletedBy)

	entries, err := engine.ListRecent(ctx, "c1", 10)
	require.NoError(t, err)
	assert.Len(t, entries.UUIDs, 2)
	assert.NotContains(t, entries.UUIDs, first.UUID)
	assert.Contains(t, entries.UUIDs, replacement.UUID)
}
