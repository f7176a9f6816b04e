package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

type fakeAuditRepo struct {
	logs []*model.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, log *model.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ *model.AuditFilters) ([]*model.AuditLog, int, error) {
	return r.logs, len(r.logs), nil
}

func (r *fakeAuditRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []*model.AuditLog
	var deleted int64
	for _, l := range r.logs {
		if l.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return deleted, nil
}

func auditRow(age time.Duration) *model.AuditLog {
	return &model.AuditLog{
		ID:        uuid.New(),
		ActorID:   uuid.New(),
		Action:    model.AuditActionRead,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestPruneDeletesRowsPastRetention(t *testing.T) {
	repo := &fakeAuditRepo{}
	w := NewAuditCleanupWorker(repo, AuditCleanupConfig{RetentionDays: 30}, logger.NewLogger(nil))

	stale := auditRow(45 * 24 * time.Hour)
	fresh := auditRow(24 * time.Hour)
	require.NoError(t, repo.Create(context.Background(), stale))
	require.NoError(t, repo.Create(context.Background(), fresh))

	require.NoError(t, w.prune(context.Background()))

	require.Len(t, repo.logs, 1)
	assert.Equal(t, fresh.ID, repo.logs[0].ID)
}

func TestCleanupDefaultsToSixYearRetention(t *testing.T) {
	w := NewAuditCleanupWorker(&fakeAuditRepo{}, AuditCleanupConfig{}, logger.NewLogger(nil))
	assert.Equal(t, 6*365, w.config.RetentionDays)
	assert.Equal(t, 24*time.Hour, w.config.Interval)
}
