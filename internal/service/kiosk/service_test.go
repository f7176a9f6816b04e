package kiosk

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxishealth/praxis-api/internal/model"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
	"github.com/praxishealth/praxis-api/pkg/metrics"
	"github.com/praxishealth/praxis-api/pkg/sse"
)

// Shared across tests; promauto registers on the default registry and
// double registration panics.
var testMetrics = metrics.NewMetrics("praxis_test", "kiosk")

type fakeCheckinRepo struct {
	checkins map[uuid.UUID]*model.Checkin
	nextPos  int
}

func newFakeCheckinRepo() *fakeCheckinRepo {
	return &fakeCheckinRepo{checkins: make(map[uuid.UUID]*model.Checkin)}
}

func (r *fakeCheckinRepo) Create(_ context.Context, c *model.Checkin) error {
	r.nextPos++
	c.Position = r.nextPos
	c.CheckedInAt = time.Now()
	r.checkins[c.ID] = c
	return nil
}

func (r *fakeCheckinRepo) Get(_ context.Context, id uuid.UUID) (*model.Checkin, error) {
	c, ok := r.checkins[id]
	if !ok {
		return nil, apperrors.NotFound("check-in", nil)
	}
	copied := *c
	return &copied, nil
}

func (r *fakeCheckinRepo) Update(_ context.Context, c *model.Checkin) error {
	r.checkins[c.ID] = c
	return nil
}

func (r *fakeCheckinRepo) ListWaiting(_ context.Context, clinicID uuid.UUID) ([]*model.Checkin, error) {
	var out []*model.Checkin
	for _, c := range r.checkins {
		if c.ClinicID == clinicID && c.Status == model.CheckinStatusWaiting {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

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
	return p, nil
}

func (r *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.patients, id)
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, int, error) {
	return nil, 0, nil
}

func (r *fakePatientRepo) FindByNameAndDOB(_ context.Context, clinicID uuid.UUID, lastName string, dob time.Time) (*model.Patient, error) {
	for _, p := range r.patients {
		if p.ClinicID == clinicID && strings.EqualFold(p.LastName, lastName) && p.DateOfBirth.Equal(dob) {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("patient", nil)
}

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

func (r *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (r *fakeAppointmentRepo) CheckConflicts(_ context.Context, _ uuid.UUID, _, _ time.Time, _ *uuid.UUID) (bool, error) {
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

type fixture struct {
	svc          *Service
	checkins     *fakeCheckinRepo
	patients     *fakePatientRepo
	appointments *fakeAppointmentRepo
	outbox       *fakeOutboxRepo
}

func newFixture() *fixture {
	f := &fixture{
		checkins:     newFakeCheckinRepo(),
		patients:     newFakePatientRepo(),
		appointments: newFakeAppointmentRepo(),
		outbox:       &fakeOutboxRepo{},
	}
	f.svc = NewService(f.checkins, f.patients, f.appointments, f.outbox, sse.NewBroadcaster(), testMetrics, logger.NewLogger(nil))
	return f
}

func (f *fixture) addPatient(clinicID uuid.UUID, first, last string, dob time.Time) *model.Patient {
	p := &model.Patient{
		Base:        model.Base{ID: uuid.New()},
		ClinicID:    clinicID,
		FirstName:   first,
		LastName:    last,
		DateOfBirth: dob,
	}
	_ = f.patients.Create(context.Background(), p)
	return p
}

func sptr(s string) *string { return &s }

func TestCheckInByPatientID(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	patient := f.addPatient(clinicID, "Jane", "Doe", time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC))

	checkin, err := f.svc.CheckIn(context.Background(), &model.CheckinRequest{
		ClinicID:  clinicID.String(),
		PatientID: sptr(patient.ID.String()),
	})
	require.NoError(t, err)
	assert.Equal(t, patient.ID, checkin.PatientID)
	assert.Equal(t, model.CheckinStatusWaiting, checkin.Status)
	assert.Equal(t, 1, checkin.Position)

	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventCheckinCreated, f.outbox.events[0].EventType)
}

func TestCheckInByAppointmentBumpsStatus(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	patient := f.addPatient(clinicID, "Jane", "Doe", time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC))

	appointment := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		ClinicID:  clinicID,
		PatientID: patient.ID,
		Status:    model.AppointmentStatusConfirmed,
	}
	require.NoError(t, f.appointments.Create(context.Background(), appointment))

	checkin, err := f.svc.CheckIn(context.Background(), &model.CheckinRequest{
		ClinicID:      clinicID.String(),
		AppointmentID: sptr(appointment.ID.String()),
	})
	require.NoError(t, err)
	assert.Equal(t, patient.ID, checkin.PatientID)
	require.NotNil(t, checkin.AppointmentID)

	stored, _ := f.appointments.Get(context.Background(), appointment.ID)
	assert.Equal(t, model.AppointmentStatusCheckedIn, stored.Status)
}

func TestCheckInByNameAndDOB(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	dob := time.Date(1985, 7, 2, 0, 0, 0, 0, time.UTC)
	patient := f.addPatient(clinicID, "Sam", "Rivera", dob)

	checkin, err := f.svc.CheckIn(context.Background(), &model.CheckinRequest{
		ClinicID:    clinicID.String(),
		LastName:    sptr("rivera"),
		DateOfBirth: &dob,
	})
	require.NoError(t, err)
	assert.Equal(t, patient.ID, checkin.PatientID)
}

func TestCheckInRequiresIdentifier(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CheckIn(context.Background(), &model.CheckinRequest{
		ClinicID: uuid.New().String(),
	})
	require.Error(t, err)
}

func TestQueueShowsInitialsOnly(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	patient := f.addPatient(clinicID, "Jane", "Doe", time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC))

	_, err := f.svc.CheckIn(context.Background(), &model.CheckinRequest{
		ClinicID:  clinicID.String(),
		PatientID: sptr(patient.ID.String()),
	})
	require.NoError(t, err)

	queue, err := f.svc.Queue(context.Background(), clinicID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "J.D.", queue[0].Initials)
	assert.NotContains(t, queue[0].Initials, "Jane")
}

func TestCallNextTakesLowestPosition(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	first := f.addPatient(clinicID, "Jane", "Doe", time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC))
	second := f.addPatient(clinicID, "Sam", "Rivera", time.Date(1985, 7, 2, 0, 0, 0, 0, time.UTC))

	a, err := f.svc.CheckIn(context.Background(), &model.CheckinRequest{
		ClinicID:  clinicID.String(),
		PatientID: sptr(first.ID.String()),
	})
	require.NoError(t, err)
	_, err = f.svc.CheckIn(context.Background(), &model.CheckinRequest{
		ClinicID:  clinicID.String(),
		PatientID: sptr(second.ID.String()),
	})
	require.NoError(t, err)

	called, err := f.svc.CallNext(context.Background(), clinicID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, called.ID)
	assert.Equal(t, model.CheckinStatusCalled, called.Status)
	require.NotNil(t, called.CalledAt)

	// Next call picks the remaining entry
	next, err := f.svc.CallNext(context.Background(), clinicID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, next.ID)

	_, err = f.svc.CallNext(context.Background(), clinicID)
	require.Error(t, err)
}

func TestCompleteIsIdempotentError(t *testing.T) {
	f := newFixture()
	clinicID := uuid.New()
	patient := f.addPatient(clinicID, "Jane", "Doe", time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC))

	checkin, err := f.svc.CheckIn(context.Background(), &model.CheckinRequest{
		ClinicID:  clinicID.String(),
		PatientID: sptr(patient.ID.String()),
	})
	require.NoError(t, err)

	done, err := f.svc.Complete(context.Background(), checkin.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CheckinStatusDone, done.Status)

	_, err = f.svc.Complete(context.Background(), checkin.ID)
	require.Error(t, err)
}

func TestMakeInitials(t *testing.T) {
	assert.Equal(t, "J.D.", makeInitials("Jane", "Doe"))
	assert.Equal(t, "J.", makeInitials("Jane", ""))
	assert.Equal(t, "D.", makeInitials("", "Doe"))
	assert.Equal(t, "", makeInitials("", ""))

	// Initials are taken per rune, not per byte.
	assert.Equal(t, "Á.G.", makeInitials("Álvaro", "García"))
	assert.Equal(t, "Ø.Æ.", makeInitials("øystein", "ærlig"))
	assert.True(t, utf8.ValidString(makeInitials("Álvaro", "García")))
}
