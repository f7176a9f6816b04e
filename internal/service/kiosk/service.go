package kiosk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
	"github.com/praxishealth/praxis-api/pkg/metrics"
	"github.com/praxishealth/praxis-api/pkg/sse"
)

const queueCacheTTL = 5 * time.Second

type Service struct {
	repo            repository.CheckinRepository
	patientRepo     repository.PatientRepository
	appointmentRepo repository.AppointmentRepository
	outboxRepo      repository.OutboxRepository
	broadcaster     *sse.Broadcaster
	cache           *gocache.Cache
	metrics         *metrics.Metrics
	logger          *logger.Logger
}

func NewService(
	repo repository.CheckinRepository,
	patientRepo repository.PatientRepository,
	appointmentRepo repository.AppointmentRepository,
	outboxRepo repository.OutboxRepository,
	broadcaster *sse.Broadcaster,
	m *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:            repo,
		patientRepo:     patientRepo,
		appointmentRepo: appointmentRepo,
		outboxRepo:      outboxRepo,
		broadcaster:     broadcaster,
		cache:           gocache.New(queueCacheTTL, time.Minute),
		metrics:         m,
		logger:          logger,
	}
}

// CheckIn registers a walk-up at the kiosk. The patient is resolved from an
// appointment ID, a patient ID, or a last name plus date of birth, in that
// order of preference.
func (s *Service) CheckIn(ctx context.Context, req *model.CheckinRequest) (*model.Checkin, error) {
	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinic id", err)
	}

	checkin := &model.Checkin{
		ID:       uuid.New(),
		ClinicID: clinicID,
		Status:   model.CheckinStatusWaiting,
	}

	switch {
	case req.AppointmentID != nil:
		apptID, err := uuid.Parse(*req.AppointmentID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid appointment id", err)
		}
		appointment, err := s.appointmentRepo.Get(ctx, apptID)
		if err != nil {
			return nil, err
		}
		checkin.PatientID = appointment.PatientID
		checkin.AppointmentID = &appointment.ID

		// Best effort; a failed status bump does not block the check-in
		if appointment.Status == model.AppointmentStatusScheduled || appointment.Status == model.AppointmentStatusConfirmed {
			appointment.Status = model.AppointmentStatusCheckedIn
			if err := s.appointmentRepo.Update(ctx, appointment); err != nil {
				s.logger.Error(err, "failed to mark appointment checked in", "appointment_id", appointment.ID.String())
			}
		}

	case req.PatientID != nil:
		patientID, err := uuid.Parse(*req.PatientID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid patient id", err)
		}
		patient, err := s.patientRepo.Get(ctx, patientID)
		if err != nil {
			return nil, err
		}
		checkin.PatientID = patient.ID

	case req.LastName != nil && req.DateOfBirth != nil:
		patient, err := s.patientRepo.FindByNameAndDOB(ctx, clinicID, *req.LastName, *req.DateOfBirth)
		if err != nil {
			return nil, apperrors.NotFound("patient", err)
		}
		checkin.PatientID = patient.ID

	default:
		return nil, apperrors.BadRequest("provide an appointment id, patient id, or last name and date of birth", nil)
	}

	if err := s.repo.Create(ctx, checkin); err != nil {
		return nil, fmt.Errorf("failed to create check-in: %w", err)
	}

	s.metrics.CheckinTotal.WithLabelValues(clinicID.String()).Inc()
	s.emitCreated(ctx, checkin)
	s.refreshQueue(ctx, clinicID)
	return checkin, nil
}

// Queue returns the public waiting-room view. Results are cached briefly
// since displays poll aggressively.
func (s *Service) Queue(ctx context.Context, clinicID uuid.UUID) ([]model.QueueEntry, error) {
	key := "queue:" + clinicID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]model.QueueEntry), nil
	}

	entries, err := s.buildQueue(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, entries, queueCacheTTL)
	return entries, nil
}

// CallNext moves the lowest-position waiting entry to called.
func (s *Service) CallNext(ctx context.Context, clinicID uuid.UUID) (*model.Checkin, error) {
	waiting, err := s.repo.ListWaiting(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting check-ins: %w", err)
	}
	if len(waiting) == 0 {
		return nil, apperrors.NotFound("waiting check-in", nil)
	}

	next := waiting[0]
	now := time.Now()
	next.Status = model.CheckinStatusCalled
	next.CalledAt = &now
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to call next check-in: %w", err)
	}

	s.refreshQueue(ctx, clinicID)
	return next, nil
}

// Complete marks a called entry as done.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*model.Checkin, error) {
	checkin, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if checkin.Status == model.CheckinStatusDone {
		return nil, apperrors.Conflict("check-in is already completed", nil)
	}

	checkin.Status = model.CheckinStatusDone
	if err := s.repo.Update(ctx, checkin); err != nil {
		return nil, fmt.Errorf("failed to complete check-in: %w", err)
	}

	s.refreshQueue(ctx, checkin.ClinicID)
	return checkin, nil
}

// Broadcaster exposes the SSE fan-out hub for the stream handler.
func (s *Service) Broadcaster() *sse.Broadcaster {
	return s.broadcaster
}

func (s *Service) buildQueue(ctx context.Context, clinicID uuid.UUID) ([]model.QueueEntry, error) {
	waiting, err := s.repo.ListWaiting(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting check-ins: %w", err)
	}

	entries := make([]model.QueueEntry, 0, len(waiting))
	for _, c := range waiting {
		initials := ""
		if patient, err := s.patientRepo.Get(ctx, c.PatientID); err == nil {
			initials = makeInitials(patient.FirstName, patient.LastName)
		}
		entries = append(entries, model.QueueEntry{
			CheckinID: c.ID,
			Position:  c.Position,
			Initials:  initials,
			Status:    c.Status,
		})
	}

	s.metrics.QueueDepth.WithLabelValues(clinicID.String()).Set(float64(len(entries)))
	return entries, nil
}

// refreshQueue rebuilds the queue snapshot and pushes it to connected
// displays.
func (s *Service) refreshQueue(ctx context.Context, clinicID uuid.UUID) {
	entries, err := s.buildQueue(ctx, clinicID)
	if err != nil {
		s.logger.Error(err, "failed to rebuild queue", "clinic_id", clinicID.String())
		return
	}
	s.cache.Set("queue:"+clinicID.String(), entries, queueCacheTTL)

	payload, err := json.Marshal(map[string]interface{}{
		"clinic_id": clinicID,
		"queue":     entries,
	})
	if err != nil {
		s.logger.Error(err, "failed to marshal queue update")
		return
	}
	s.broadcaster.Broadcast(string(payload))
}

func (s *Service) emitCreated(ctx context.Context, checkin *model.Checkin) {
	data, err := json.Marshal(checkin)
	if err != nil {
		s.logger.Error(err, "failed to marshal outbox payload", "event_type", model.EventCheckinCreated)
		return
	}
	evt := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventCheckinCreated,
		Payload:   data,
		Status:    string(model.OutboxStatusPending),
	}
	if err := s.outboxRepo.Create(ctx, evt); err != nil {
		s.logger.Error(err, "failed to record outbox event", "event_type", model.EventCheckinCreated)
	}
}

func makeInitials(first, last string) string {
	var b strings.Builder
	if r, _ := utf8.DecodeRuneInString(first); r != utf8.RuneError {
		b.WriteString(strings.ToUpper(string(r)))
		b.WriteString(".")
	}
	if r, _ := utf8.DecodeRuneInString(last); r != utf8.RuneError {
		b.WriteString(strings.ToUpper(string(r)))
		b.WriteString(".")
	}
	return b.String()
}
