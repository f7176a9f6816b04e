package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

// validTransitions encodes the appointment state machine. A status maps to
// the set of statuses it may move to.
var validTransitions = map[model.AppointmentStatus][]model.AppointmentStatus{
	model.AppointmentStatusScheduled: {
		model.AppointmentStatusConfirmed,
		model.AppointmentStatusCheckedIn,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	},
	model.AppointmentStatusConfirmed: {
		model.AppointmentStatusCheckedIn,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	},
	model.AppointmentStatusCheckedIn: {
		model.AppointmentStatusInProgress,
		model.AppointmentStatusCancelled,
	},
	model.AppointmentStatusInProgress: {
		model.AppointmentStatusCompleted,
	},
}

type Service struct {
	repo       repository.AppointmentRepository
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(repo repository.AppointmentRepository, outboxRepo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinic id", err)
	}
	clinicianID, err := uuid.Parse(req.ClinicianID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinician id", err)
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient id", err)
	}

	if req.StartTime.Before(time.Now()) {
		return nil, apperrors.BadRequest("appointment cannot start in the past", nil)
	}

	conflict, err := s.repo.CheckConflicts(ctx, clinicianID, req.StartTime, req.EndTime, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check conflicts: %w", err)
	}
	if conflict {
		return nil, apperrors.Conflict("clinician already booked for this time", nil)
	}

	appointment := &model.Appointment{
		Base:        model.Base{ID: uuid.New()},
		ClinicID:    clinicID,
		ClinicianID: clinicianID,
		PatientID:   patientID,
		Type:        model.AppointmentType(req.Type),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      model.AppointmentStatusScheduled,
		Reason:      req.Reason,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.emitEvent(ctx, model.EventAppointmentCreated, appointment)
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StartTime != nil || req.EndTime != nil {
		start := appointment.StartTime
		end := appointment.EndTime
		if req.StartTime != nil {
			start = *req.StartTime
		}
		if req.EndTime != nil {
			end = *req.EndTime
		}
		if !end.After(start) {
			return nil, apperrors.BadRequest("end time must be after start time", nil)
		}

		conflict, err := s.repo.CheckConflicts(ctx, appointment.ClinicianID, start, end, &appointment.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check conflicts: %w", err)
		}
		if conflict {
			return nil, apperrors.Conflict("clinician already booked for this time", nil)
		}
		appointment.StartTime = start
		appointment.EndTime = end
	}

	if req.Status != nil && *req.Status != appointment.Status {
		if err := s.transition(appointment, *req.Status); err != nil {
			return nil, err
		}
		if *req.Status == model.AppointmentStatusCancelled {
			appointment.CancelReason = req.CancelReason
		}
	}

	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	s.emitEvent(ctx, model.EventAppointmentUpdated, appointment)
	return appointment, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.transition(appointment, model.AppointmentStatusCancelled); err != nil {
		return nil, err
	}
	appointment.CancelReason = &reason

	if err := s.repo.Update(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.emitEvent(ctx, model.EventAppointmentCancelled, appointment)
	return appointment, nil
}

// Availability returns open slots of the given duration on a clinician's
// calendar between dayStart and dayEnd.
func (s *Service) Availability(ctx context.Context, clinicianID uuid.UUID, dayStart, dayEnd time.Time, slotDuration time.Duration) ([]model.TimeSlot, error) {
	if slotDuration <= 0 {
		slotDuration = 30 * time.Minute
	}

	booked, err := s.repo.List(ctx, &model.AppointmentFilters{
		ClinicianID: clinicianID,
		StartDate:   dayStart,
		EndDate:     dayEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	var slots []model.TimeSlot
	for cursor := dayStart; !cursor.Add(slotDuration).After(dayEnd); cursor = cursor.Add(slotDuration) {
		slotEnd := cursor.Add(slotDuration)
		if overlapsAny(cursor, slotEnd, booked) {
			continue
		}
		slots = append(slots, model.TimeSlot{Start: cursor, End: slotEnd})
	}
	return slots, nil
}

func (s *Service) transition(a *model.Appointment, to model.AppointmentStatus) error {
	for _, allowed := range validTransitions[a.Status] {
		if allowed == to {
			a.Status = to
			return nil
		}
	}
	return apperrors.BadRequest(
		fmt.Sprintf("cannot change appointment from %s to %s", a.Status, to), nil)
}

func (s *Service) emitEvent(ctx context.Context, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error(err, "failed to marshal outbox payload", "event_type", eventType)
		return
	}
	evt := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   data,
		Status:    string(model.OutboxStatusPending),
	}
	if err := s.outboxRepo.Create(ctx, evt); err != nil {
		s.logger.Error(err, "failed to record outbox event", "event_type", eventType)
	}
}

func overlapsAny(start, end time.Time, appointments []*model.Appointment) bool {
	for _, a := range appointments {
		if a.Status == model.AppointmentStatusCancelled || a.Status == model.AppointmentStatusNoShow {
			continue
		}
		if start.Before(a.EndTime) && a.StartTime.Before(end) {
			return true
		}
	}
	return false
}
