package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxishealth/praxis-api/internal/model"
	auditsvc "github.com/praxishealth/praxis-api/internal/service/audit"
	"github.com/praxishealth/praxis-api/pkg/logger"
	"github.com/praxishealth/praxis-api/pkg/security"
)

type recordingAuditRepo struct {
	mu   sync.Mutex
	logs []*model.AuditLog
}

func (r *recordingAuditRepo) Create(_ context.Context, log *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *recordingAuditRepo) List(_ context.Context, _ *model.AuditFilters) ([]*model.AuditLog, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs, len(r.logs), nil
}

func (r *recordingAuditRepo) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *recordingAuditRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs)
}

func auditTestRouter(t *testing.T, repo *recordingAuditRepo, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	enc, err := security.NewAESEncryptorFromSecret("middleware-test")
	require.NoError(t, err)
	svc := auditsvc.NewService(repo, enc, logger.NewLogger(nil))
	mw := NewAuditMiddleware(svc)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(ContextUserID, userID)
			c.Set(ContextUserRole, "clinician")
		}
	})
	group := engine.Group("", mw.Log(model.AuditEntityPatient))
	group.PUT("/patients/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	group.GET("/patients/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	return engine
}

func TestAuditMiddlewareRecordsMutation(t *testing.T) {
	repo := &recordingAuditRepo{}
	userID := uuid.New()
	engine := auditTestRouter(t, repo, userID)
	patientID := uuid.New()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/patients/"+patientID.String(), nil)
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 10*time.Millisecond)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	entry := repo.logs[0]
	assert.Equal(t, userID, entry.ActorID)
	assert.Equal(t, "clinician", entry.ActorRole)
	assert.Equal(t, model.AuditActionUpdate, entry.Action)
	assert.Equal(t, model.AuditEntityPatient, entry.EntityType)
	require.NotNil(t, entry.EntityID)
	assert.Equal(t, patientID, *entry.EntityID)
}

func TestAuditMiddlewareSkipsFailedRequests(t *testing.T) {
	repo := &recordingAuditRepo{}
	engine := auditTestRouter(t, repo, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/patients/missing", nil)
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, repo.count())
}

func TestAuditMiddlewareSkipsAnonymousRequests(t *testing.T) {
	repo := &recordingAuditRepo{}
	engine := auditTestRouter(t, repo, uuid.Nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/patients/"+uuid.NewString(), nil)
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, repo.count())
}
