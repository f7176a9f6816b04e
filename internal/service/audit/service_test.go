package audit

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/pkg/logger"
	"github.com/praxishealth/praxis-api/pkg/security"
)

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []*model.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, log *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, filters *model.AuditFilters) ([]*model.AuditLog, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AuditLog
	for _, l := range r.logs {
		if filters.EntityType != "" && l.EntityType != filters.EntityType {
			continue
		}
		if filters.ActorID != nil && l.ActorID != *filters.ActorID {
			continue
		}
		copied := *l
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (r *fakeAuditRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
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

func newTestService(t *testing.T) (*Service, *fakeAuditRepo) {
	enc, err := security.NewAESEncryptorFromSecret("test-audit-secret")
	require.NoError(t, err)
	repo := &fakeAuditRepo{}
	return NewService(repo, enc, logger.NewLogger(nil)), repo
}

func TestRecordSealsDetailAtRest(t *testing.T) {
	svc, repo := newTestService(t)
	entityID := uuid.New()

	err := svc.Record(context.Background(), &Entry{
		ActorID:    uuid.New(),
		ActorRole:  "clinician",
		Action:     model.AuditActionUpdate,
		EntityType: model.AuditEntityPatient,
		EntityID:   &entityID,
		Detail:     map[string]interface{}{"path": "/api/v1/patients/" + entityID.String()},
		IPAddress:  "10.0.0.1",
	})
	require.NoError(t, err)

	require.Len(t, repo.logs, 1)
	stored := repo.logs[0]
	assert.Equal(t, model.AuditActionUpdate, stored.Action)
	assert.NotEmpty(t, stored.Detail)
	assert.False(t, bytes.Contains(stored.Detail, []byte("patients")))
}

func TestRecordWithoutDetail(t *testing.T) {
	svc, repo := newTestService(t)

	err := svc.Record(context.Background(), &Entry{
		ActorID:    uuid.New(),
		Action:     model.AuditActionRead,
		EntityType: model.AuditEntityNote,
	})
	require.NoError(t, err)
	require.Len(t, repo.logs, 1)
	assert.Empty(t, repo.logs[0].Detail)
}

func TestListOpensDetail(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Record(context.Background(), &Entry{
		ActorID:    uuid.New(),
		Action:     model.AuditActionCreate,
		EntityType: model.AuditEntityAppointment,
		Detail:     map[string]interface{}{"status": float64(201)},
	}))

	logs, total, err := svc.List(context.Background(), &model.AuditFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	assert.JSONEq(t, `{"status":201}`, string(logs[0].Detail))
}

func TestListSurvivesUnreadableDetail(t *testing.T) {
	svc, repo := newTestService(t)

	repo.logs = append(repo.logs, &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    uuid.New(),
		Action:     model.AuditActionRead,
		EntityType: model.AuditEntityPatient,
		Detail:     []byte("not a valid ciphertext"),
		CreatedAt:  time.Now(),
	})

	logs, _, err := svc.List(context.Background(), &model.AuditFilters{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Empty(t, logs[0].Detail)
}

func TestListFiltersByEntityType(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Record(context.Background(), &Entry{
		ActorID: uuid.New(), Action: model.AuditActionCreate, EntityType: model.AuditEntityPatient,
	}))
	require.NoError(t, svc.Record(context.Background(), &Entry{
		ActorID: uuid.New(), Action: model.AuditActionCreate, EntityType: model.AuditEntityNote,
	}))

	logs, total, err := svc.List(context.Background(), &model.AuditFilters{EntityType: model.AuditEntityNote})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditEntityNote, logs[0].EntityType)
}

func TestRecordAsyncEventuallyWrites(t *testing.T) {
	svc, repo := newTestService(t)

	svc.RecordAsync(&Entry{
		ActorID:    uuid.New(),
		Action:     model.AuditActionDelete,
		EntityType: model.AuditEntityPatient,
	})

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.logs) == 1
	}, time.Second, 10*time.Millisecond)
}
