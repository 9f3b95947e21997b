package jobs

import (
	"context"
	"fmt"

	"github.com/dvloznov/tally-ledger/internal/ledger"
	"github.com/dvloznov/tally-ledger/internal/logger"
)

// Reconciler is the ledger capability a reconcile job needs.
type Reconciler interface {
	RecalculateOutstanding(ctx context.Context, partner string, year int) error
}

// ReconcileHandler runs reconcile jobs against r.
func ReconcileHandler(r Reconciler) JobHandler {
	return func(ctx context.Context, job *ReconcileJob) error {
		log := logger.FromContext(ctx)
		log.Info().
			Str("job_id", job.JobID).
			Str("partner", job.Partner).
			Int("year", job.Year).
			Int("attempt", job.RetryCount+1).
			Msg("Processing reconcile job")

		if err := r.RecalculateOutstanding(ctx, job.Partner, job.Year); err != nil {
			return fmt.Errorf("ReconcileHandler: job %s: %w", job.JobID, err)
		}
		return nil
	}
}

// Retryable reports whether a failed reconcile attempt may succeed later.
// Bad input such as an unknown partner never will.
func Retryable(err error) bool {
	return !ledger.IsCallerError(err)
}
