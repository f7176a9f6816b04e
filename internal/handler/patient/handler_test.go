package patient

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxishealth/praxis-api/internal/model"
	patientsvc "github.com/praxishealth/praxis-api/internal/service/patient"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
	pkgvalidator "github.com/praxishealth/praxis-api/pkg/validator"
)

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	copied := *p
	return &copied, nil
}

func (r *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.patients, id)
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	var out []*model.Patient
	for _, p := range r.patients {
		if filters.ClinicID != uuid.Nil && p.ClinicID != filters.ClinicID {
			continue
		}
		if filters.Status != "" && p.Status != filters.Status {
			continue
		}
		if filters.SearchTerm != "" && !strings.Contains(strings.ToLower(p.LastName), strings.ToLower(filters.SearchTerm)) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *fakePatientRepo) FindByNameAndDOB(_ context.Context, _ uuid.UUID, _ string, _ time.Time) (*model.Patient, error) {
	return nil, apperrors.NotFound("patient", nil)
}

type fakeOutboxRepo struct{}

func (r *fakeOutboxRepo) Create(_ context.Context, _ *model.OutboxEvent) error { return nil }

func (r *fakeOutboxRepo) GetPendingWithLock(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) BeginTx(_ context.Context) (*sql.Tx, error) { return nil, nil }

func (r *fakeOutboxRepo) UpdateStatusTx(_ context.Context, _ *sql.Tx, _ uuid.UUID, _ string, _ *string, _ *time.Time) error {
	return nil
}

func (r *fakeOutboxRepo) MoveToDeadLetter(_ context.Context, _ *sql.Tx, _ *model.OutboxEvent) error {
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func setupRouter(t *testing.T) (*gin.Engine, *fakePatientRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, pkgvalidator.RegisterCustom())

	repo := newFakePatientRepo()
	svc := patientsvc.NewService(repo, &fakeOutboxRepo{}, logger.NewLogger(nil))
	handler := NewHandler(svc)

	engine := gin.New()
	handler.RegisterRoutes(engine.Group("/api/v1"))
	return engine, repo
}

func doRequest(engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCreatePatientEndpoint(t *testing.T) {
	engine, repo := setupRouter(t)

	w := doRequest(engine, http.MethodPost, "/api/v1/patients", gin.H{
		"clinic_id":     uuid.New().String(),
		"first_name":    "Jane",
		"last_name":     "Doe",
		"email":         "jane.doe@example.com",
		"date_of_birth": "1990-03-14T00:00:00Z",
		"emergency_contact": gin.H{
			"name":         "John Doe",
			"relationship": "spouse",
			"phone":        "555-0100",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    model.Patient `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Jane", resp.Data.FirstName)
	assert.Equal(t, "active", resp.Data.Status)
	require.NotNil(t, resp.Data.EmergencyContact)
	assert.Equal(t, "spouse", resp.Data.EmergencyContact.Relationship)

	stored, ok := repo.patients[resp.Data.ID]
	require.True(t, ok)
	assert.Contains(t, stored.EmergencyContactJSON, "spouse")
}

func TestCreatePatientValidation(t *testing.T) {
	engine, _ := setupRouter(t)

	// Missing email
	w := doRequest(engine, http.MethodPost, "/api/v1/patients", gin.H{
		"clinic_id":     uuid.New().String(),
		"first_name":    "Jane",
		"last_name":     "Doe",
		"date_of_birth": "1990-03-14T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Phone that cannot be a phone number
	w = doRequest(engine, http.MethodPost, "/api/v1/patients", gin.H{
		"clinic_id":     uuid.New().String(),
		"first_name":    "Jane",
		"last_name":     "Doe",
		"email":         "jane.doe@example.com",
		"phone":         "call me maybe",
		"date_of_birth": "1990-03-14T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPatientNotFound(t *testing.T) {
	engine, _ := setupRouter(t)

	w := doRequest(engine, http.MethodGet, "/api/v1/patients/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(engine, http.MethodGet, "/api/v1/patients/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAndDeletePatient(t *testing.T) {
	engine, repo := setupRouter(t)

	create := doRequest(engine, http.MethodPost, "/api/v1/patients", gin.H{
		"clinic_id":     uuid.New().String(),
		"first_name":    "Jane",
		"last_name":     "Doe",
		"email":         "jane.doe@example.com",
		"date_of_birth": "1990-03-14T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, create.Code)

	var created struct {
		Data model.Patient `json:"data"`
	}
	require.NoError(t, json.Unmarshal(create.Body.Bytes(), &created))
	id := created.Data.ID

	w := doRequest(engine, http.MethodPut, "/api/v1/patients/"+id.String(), gin.H{
		"phone":  "555-0199",
		"status": "inactive",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "555-0199", repo.patients[id].Phone)
	assert.Equal(t, "inactive", repo.patients[id].Status)

	w = doRequest(engine, http.MethodDelete, "/api/v1/patients/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, ok := repo.patients[id]
	assert.False(t, ok)
}

func TestListPatientsFiltersAndPaginates(t *testing.T) {
	engine, _ := setupRouter(t)

	clinicID := uuid.New()
	for i := 0; i < 3; i++ {
		w := doRequest(engine, http.MethodPost, "/api/v1/patients", gin.H{
			"clinic_id":     clinicID.String(),
			"first_name":    "Patient",
			"last_name":     fmt.Sprintf("Number%d", i),
			"email":         fmt.Sprintf("p%d@example.com", i),
			"date_of_birth": "1990-03-14T00:00:00Z",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doRequest(engine, http.MethodGet, "/api/v1/patients?clinic_id="+clinicID.String()+"&page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Data       []model.Patient `json:"data"`
			Pagination struct {
				Page     int `json:"page"`
				PageSize int `json:"page_size"`
				Total    int `json:"total"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Data, 3)
	assert.Equal(t, 3, resp.Data.Pagination.Total)
	assert.Equal(t, 10, resp.Data.Pagination.PageSize)

	// Search narrows the result
	w = doRequest(engine, http.MethodGet, "/api/v1/patients?clinic_id="+clinicID.String()+"&search=number1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Data, 1)
}
