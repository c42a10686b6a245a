package interaction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

type pgxExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Archiver writes expiring records to Postgres before retention deletes
// them. Records reaching the archive have already been sanitized, so the
// archive never holds raw content.
type Archiver struct {
	db     pgxExecer
	logger *logging.Logger
}

func NewArchiver(pool *pgxpool.Pool, logger *logging.Logger) *Archiver {
	if pool == nil {
		return nil
	}
	return newArchiverWithExec(pool, logger)
}

func newArchiverWithExec(db pgxExecer, logger *logging.Logger) *Archiver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Archiver{db: db, logger: logger.WithComponent("archive")}
}

// Archive inserts records into the archive table. Re-archiving the same
// record is a no-op, which keeps retention passes idempotent.
func (a *Archiver) Archive(ctx context.Context, records []UserInteraction) error {
	if a == nil || len(records) == 0 {
		return nil
	}
	query := `
		INSERT INTO interaction_archive (id, user_id, record, archived_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	archivedAt := time.Now().UTC()
	for _, in := range records {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("interaction: marshal archive record: %w", err)
		}
		if _, err := a.db.Exec(ctx, query, in.ID, in.UserID, data, archivedAt); err != nil {
			return fmt.Errorf("interaction: archive record %s: %w", in.ID, err)
		}
	}
	a.logger.Info("records archived", "count", len(records))
	return nil
}

// PurgeUser removes a user's archived records, for full erasure requests.
func (a *Archiver) PurgeUser(ctx context.Context, userID string) (int, error) {
	if a == nil {
		return 0, nil
	}
	ct, err := a.db.Exec(ctx, `DELETE FROM interaction_archive WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("interaction: purge archive for %s: %w", userID, err)
	}
	return int(ct.RowsAffected()), nil
}
