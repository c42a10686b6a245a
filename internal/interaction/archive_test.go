package interaction

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

func TestArchiverArchive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	a := newArchiverWithExec(mock, logging.Default())

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []UserInteraction{record("u1", base), record("u1", base.Add(time.Hour))}
	for _, in := range records {
		mock.ExpectExec("INSERT INTO interaction_archive").
			WithArgs(in.ID, "u1", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	if err := a.Archive(context.Background(), records); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestArchiverPurgeUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	a := newArchiverWithExec(mock, logging.Default())

	mock.ExpectExec("DELETE FROM interaction_archive").
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	removed, err := a.PurgeUser(context.Background(), "u1")
	if err != nil || removed != 3 {
		t.Fatalf("PurgeUser = %d, %v", removed, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestEnforcerArchivesBeforeDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	e, store, policies := newTestEnforcer(t, now)
	e.WithArchiver(newArchiverWithExec(mock, logging.Default()))
	ctx := context.Background()

	if err := policies.SetRetention(ctx, "u1", policy.RetentionPolicy{
		DataType: "interaction", RetentionDays: 7, AutoDelete: true, ArchiveBeforeDelete: true,
	}); err != nil {
		t.Fatalf("SetRetention: %v", err)
	}

	stale := record("u1", now.AddDate(0, 0, -10))
	fresh := record("u1", now.AddDate(0, 0, -1))
	for _, in := range []UserInteraction{stale, fresh} {
		if err := store.Append(ctx, in); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	mock.ExpectExec("INSERT INTO interaction_archive").
		WithArgs(stale.ID, "u1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	removed, err := e.Apply(ctx, "u1")
	if err != nil || removed != 1 {
		t.Fatalf("Apply = %d, %v", removed, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("only the expiring record may be archived: %v", err)
	}
}
