package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LokalDeals/lokaldeals_api/internal/repository"
)

// ReconcileWorker sweeps identity rows left behind by failed registrations.
// Registration writes the identity first and the company second; when the
// company write fails and the compensating revoke also fails, a company-role
// user with no company row remains. The worker deletes such rows once they
// are older than the grace period, so an in-flight registration is never
// swept mid-way.
type ReconcileWorker struct {
	users    *repository.UserRepository
	interval time.Duration
	grace    time.Duration
}

// NewReconcileWorker constructs a ReconcileWorker.
func NewReconcileWorker(users *repository.UserRepository, interval, grace time.Duration) *ReconcileWorker {
	return &ReconcileWorker{users: users, interval: interval, grace: grace}
}

// Start begins the periodic sweep loop until context is canceled.
func (w *ReconcileWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Dur("grace", w.grace).Msg("Starting reconcile worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Reconcile worker stopped")
			return
		}
	}
}

func (w *ReconcileWorker) run(ctx context.Context) {
	cutoff := time.Now().Add(-w.grace)
	deleted, err := w.users.DeleteOrphanedBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep orphaned identities")
		return
	}
	if deleted > 0 {
		log.Info().Int64("count", deleted).Msg("Swept orphaned identities")
	}
}
