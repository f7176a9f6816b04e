package worker

import (
	"context"
	"time"

	"github.com/praxishealth/praxis-api/internal/repository"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

type AuditCleanupConfig struct {
	// RetentionDays is how long trail rows are kept before pruning.
	RetentionDays int
	Interval      time.Duration
}

// AuditCleanupWorker prunes audit rows past the retention window.
type AuditCleanupWorker struct {
	repo   repository.AuditRepository
	config AuditCleanupConfig
	logger *logger.Logger
}

func NewAuditCleanupWorker(repo repository.AuditRepository, config AuditCleanupConfig, logger *logger.Logger) *AuditCleanupWorker {
	if config.RetentionDays <= 0 {
		// Clinical records commonly carry a six year retention floor
		config.RetentionDays = 6 * 365
	}
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	return &AuditCleanupWorker{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.logger.Info("starting audit cleanup worker", "retention_days", w.config.RetentionDays)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down audit cleanup worker")
			return
		case <-ticker.C:
			if err := w.prune(ctx); err != nil {
				w.logger.Error(err, "audit cleanup failed")
			}
		}
	}
}

func (w *AuditCleanupWorker) prune(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -w.config.RetentionDays)
	deleted, err := w.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		w.logger.Info("pruned audit logs", "count", deleted)
	}
	return nil
}
