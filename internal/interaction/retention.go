package interaction

import (
	"context"
	"fmt"
	"time"

	"github.com/hearthlabs/hearth-assistant/internal/policy"
	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

// Enforcer applies per-user retention windows to the interaction store.
type Enforcer struct {
	store    Store
	policies policy.Store
	archiver *Archiver
	logger   *logging.Logger
	clock    func() time.Time
}

func NewEnforcer(store Store, policies policy.Store, logger *logging.Logger) *Enforcer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Enforcer{
		store:    store,
		policies: policies,
		logger:   logger.WithComponent("retention"),
		clock:    time.Now,
	}
}

// WithArchiver enables archive-before-delete for users whose retention
// policy requests it.
func (e *Enforcer) WithArchiver(a *Archiver) *Enforcer {
	e.archiver = a
	return e
}

// Apply purges one user's expired records. It is idempotent and safe to call
// on every capture.
func (e *Enforcer) Apply(ctx context.Context, userID string) (int, error) {
	rp, err := e.policies.RetentionFor(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("interaction: retention policy for %s: %w", userID, err)
	}
	if !rp.AutoDelete {
		return 0, nil
	}
	cutoff := e.clock().UTC().AddDate(0, 0, -rp.RetentionDays)
	if rp.ArchiveBeforeDelete && e.archiver != nil {
		expiring, err := e.store.ListRange(ctx, userID, TimeRange{End: cutoff.Add(-time.Millisecond)})
		if err != nil {
			return 0, err
		}
		// Nothing is deleted unless the archive write succeeded.
		if err := e.archiver.Archive(ctx, expiring); err != nil {
			return 0, err
		}
	}
	removed, err := e.store.PurgeBefore(ctx, userID, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		e.logger.Info("retention purge",
			"user_id", userID,
			"removed", removed,
			"retention_days", rp.RetentionDays)
	}
	return removed, nil
}

// Sweep applies retention for every known user. Per-user failures are logged
// and do not stop the sweep.
func (e *Enforcer) Sweep(ctx context.Context) (int, error) {
	users, err := e.store.Users(ctx)
	if err != nil {
		return 0, fmt.Errorf("interaction: list users for sweep: %w", err)
	}
	total := 0
	for _, userID := range users {
		removed, err := e.Apply(ctx, userID)
		if err != nil {
			e.logger.Warn("sweep skipped user", "user_id", userID, "error", err)
			continue
		}
		total += removed
	}
	return total, nil
}

// Run sweeps on the given interval until ctx is cancelled.
func (e *Enforcer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("retention sweeper started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("retention sweeper stopped")
			return
		case <-ticker.C:
			if removed, err := e.Sweep(ctx); err != nil {
				e.logger.Error("retention sweep failed", "error", err)
			} else if removed > 0 {
				e.logger.Info("retention sweep complete", "removed", removed)
			}
		}
	}
}
