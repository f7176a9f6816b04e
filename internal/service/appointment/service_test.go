package appointment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxishealth/praxis-api/internal/model"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	r.appointments[a.ID] = a
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	r.appointments[a.ID] = a
	return nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range r.appointments {
		if filters.ClinicianID != uuid.Nil && a.ClinicianID != filters.ClinicianID {
			continue
		}
		if !filters.StartDate.IsZero() && a.EndTime.Before(filters.StartDate) {
			continue
		}
		if !filters.EndDate.IsZero() && a.StartTime.After(filters.EndDate) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) CheckConflicts(_ context.Context, clinicianID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	for _, a := range r.appointments {
		if a.ClinicianID != clinicianID {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.Status == model.AppointmentStatusCancelled || a.Status == model.AppointmentStatusNoShow {
			continue
		}
		if start.Before(a.EndTime) && a.StartTime.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeAppointmentRepo) ListForReminder(_ context.Context, _, _ time.Time) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) MarkReminderSent(_ context.Context, _ uuid.UUID) error {
	return nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (r *fakeOutboxRepo) Create(_ context.Context, e *model.OutboxEvent) error {
	r.events = append(r.events, e)
	return nil
}

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

func newTestService() (*Service, *fakeAppointmentRepo, *fakeOutboxRepo) {
	repo := newFakeAppointmentRepo()
	outbox := &fakeOutboxRepo{}
	return NewService(repo, outbox, logger.NewLogger(nil)), repo, outbox
}

func createRequest(clinicianID uuid.UUID, start, end time.Time) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		ClinicID:    uuid.New().String(),
		ClinicianID: clinicianID.String(),
		PatientID:   uuid.New().String(),
		Type:        "regular",
		StartTime:   start,
		EndTime:     end,
		Reason:      "checkup",
	}
}

func TestCreateAppointment(t *testing.T) {
	svc, _, outbox := newTestService()
	clinicianID := uuid.New()
	start := time.Now().Add(24 * time.Hour)

	appointment, err := svc.Create(context.Background(), createRequest(clinicianID, start, start.Add(30*time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, appointment.Status)
	assert.Equal(t, clinicianID, appointment.ClinicianID)

	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventAppointmentCreated, outbox.events[0].EventType)
}

func TestCreateAppointmentRejectsPast(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Now().Add(-time.Hour)

	_, err := svc.Create(context.Background(), createRequest(uuid.New(), start, start.Add(30*time.Minute)))
	require.Error(t, err)
}

func TestCreateAppointmentDetectsConflict(t *testing.T) {
	svc, _, _ := newTestService()
	clinicianID := uuid.New()
	start := time.Now().Add(24 * time.Hour)

	_, err := svc.Create(context.Background(), createRequest(clinicianID, start, start.Add(time.Hour)))
	require.NoError(t, err)

	// Overlapping slot for the same clinician
	_, err = svc.Create(context.Background(), createRequest(clinicianID, start.Add(30*time.Minute), start.Add(90*time.Minute)))
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)

	// Same slot, different clinician is fine
	_, err = svc.Create(context.Background(), createRequest(uuid.New(), start, start.Add(time.Hour)))
	require.NoError(t, err)
}

func TestStatusTransitions(t *testing.T) {
	svc, repo, _ := newTestService()
	clinicianID := uuid.New()
	start := time.Now().Add(24 * time.Hour)

	appointment, err := svc.Create(context.Background(), createRequest(clinicianID, start, start.Add(time.Hour)))
	require.NoError(t, err)

	confirmed := model.AppointmentStatusConfirmed
	_, err = svc.Update(context.Background(), appointment.ID, &model.UpdateAppointmentRequest{Status: &confirmed})
	require.NoError(t, err)

	checkedIn := model.AppointmentStatusCheckedIn
	_, err = svc.Update(context.Background(), appointment.ID, &model.UpdateAppointmentRequest{Status: &checkedIn})
	require.NoError(t, err)

	inProgress := model.AppointmentStatusInProgress
	_, err = svc.Update(context.Background(), appointment.ID, &model.UpdateAppointmentRequest{Status: &inProgress})
	require.NoError(t, err)

	completed := model.AppointmentStatusCompleted
	updated, err := svc.Update(context.Background(), appointment.ID, &model.UpdateAppointmentRequest{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, updated.Status)

	// Completed is terminal
	cancelled := model.AppointmentStatusCancelled
	_, err = svc.Update(context.Background(), appointment.ID, &model.UpdateAppointmentRequest{Status: &cancelled})
	require.Error(t, err)

	stored, _ := repo.Get(context.Background(), appointment.ID)
	assert.Equal(t, model.AppointmentStatusCompleted, stored.Status)
}

func TestInvalidTransitionScheduledToCompleted(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Now().Add(24 * time.Hour)

	appointment, err := svc.Create(context.Background(), createRequest(uuid.New(), start, start.Add(time.Hour)))
	require.NoError(t, err)

	completed := model.AppointmentStatusCompleted
	_, err = svc.Update(context.Background(), appointment.ID, &model.UpdateAppointmentRequest{Status: &completed})
	require.Error(t, err)
}

func TestCancelRecordsReason(t *testing.T) {
	svc, _, outbox := newTestService()
	start := time.Now().Add(24 * time.Hour)

	appointment, err := svc.Create(context.Background(), createRequest(uuid.New(), start, start.Add(time.Hour)))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), appointment.ID, "patient request")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, "patient request", *cancelled.CancelReason)

	require.Len(t, outbox.events, 2)
	assert.Equal(t, model.EventAppointmentCancelled, outbox.events[1].EventType)
}

func TestAvailabilitySkipsBookedSlots(t *testing.T) {
	svc, repo, _ := newTestService()
	clinicianID := uuid.New()

	dayStart := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	dayEnd := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	booked := &model.Appointment{
		Base:        model.Base{ID: uuid.New()},
		ClinicianID: clinicianID,
		StartTime:   dayStart.Add(30 * time.Minute),
		EndTime:     dayStart.Add(60 * time.Minute),
		Status:      model.AppointmentStatusScheduled,
	}
	require.NoError(t, repo.Create(context.Background(), booked))

	slots, err := svc.Availability(context.Background(), clinicianID, dayStart, dayEnd, 30*time.Minute)
	require.NoError(t, err)

	// Four half-hour slots in two hours, one booked
	require.Len(t, slots, 3)
	for _, slot := range slots {
		assert.False(t, slot.Start.Equal(booked.StartTime))
	}
}

func TestAvailabilityIgnoresCancelled(t *testing.T) {
	svc, repo, _ := newTestService()
	clinicianID := uuid.New()

	dayStart := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	dayEnd := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	cancelled := &model.Appointment{
		Base:        model.Base{ID: uuid.New()},
		ClinicianID: clinicianID,
		StartTime:   dayStart,
		EndTime:     dayStart.Add(30 * time.Minute),
		Status:      model.AppointmentStatusCancelled,
	}
	require.NoError(t, repo.Create(context.Background(), cancelled))

	slots, err := svc.Availability(context.Background(), clinicianID, dayStart, dayEnd, 30*time.Minute)
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}
