package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/email"
	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	"github.com/praxishealth/praxis-api/internal/sms"
	"github.com/praxishealth/praxis-api/pkg/logger"
	"github.com/praxishealth/praxis-api/pkg/messaging"
)

// EventChannel is the broker channel carrying all domain events.
const EventChannel = "praxis.events"

// Service listens on the event channel and dispatches notifications.
// Dispatch failures are logged, not retried; the outbox already retried
// publishing.
type Service struct {
	broker      messaging.Broker
	emailSvc    email.Service
	smsSender   sms.Sender
	patientRepo repository.PatientRepository
	userRepo    repository.UserRepository
	logger      *logger.Logger
}

func NewService(
	broker messaging.Broker,
	emailSvc email.Service,
	smsSender sms.Sender,
	patientRepo repository.PatientRepository,
	userRepo repository.UserRepository,
	logger *logger.Logger,
) *Service {
	return &Service{
		broker:      broker,
		emailSvc:    emailSvc,
		smsSender:   smsSender,
		patientRepo: patientRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// Start subscribes to the event channel and dispatches until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	messages, err := s.broker.Subscribe(ctx, EventChannel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to event channel: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-messages:
				if !ok {
					return
				}
				s.dispatch(ctx, raw)
			}
		}
	}()
	return nil
}

func (s *Service) dispatch(ctx context.Context, raw []byte) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.logger.Error(err, "failed to decode event message")
		return
	}

	switch msg.Type {
	case model.EventAppointmentReminder:
		s.handleReminder(ctx, msg.Payload)
	case model.EventAppointmentCancelled:
		s.handleCancellation(ctx, msg.Payload)
	default:
		// Other event types have no notification side effect
	}
}

type reminderPayload struct {
	AppointmentID uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patient_id"`
	ClinicianID   uuid.UUID `json:"clinician_id"`
	StartTime     time.Time `json:"start_time"`
}

func (s *Service) handleReminder(ctx context.Context, payload json.RawMessage) {
	var p reminderPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Error(err, "failed to decode reminder payload")
		return
	}

	patient, err := s.patientRepo.Get(ctx, p.PatientID)
	if err != nil {
		s.logger.Error(err, "failed to load patient for reminder", "patient_id", p.PatientID.String())
		return
	}

	clinicianName := "your clinician"
	if clinician, err := s.userRepo.Get(ctx, p.ClinicianID); err == nil {
		clinicianName = fmt.Sprintf("Dr. %s %s", clinician.FirstName, clinician.LastName)
	}

	when := p.StartTime.Format("Monday, Jan 2 at 3:04 PM")
	if patient.Email != "" {
		patientName := patient.FirstName + " " + patient.LastName
		if err := s.emailSvc.SendAppointmentReminder(ctx, patient.Email, patientName, when, clinicianName); err != nil {
			s.logger.Error(err, "failed to send reminder email", "patient_id", patient.ID.String())
		}
	}
	if patient.Phone != "" {
		body := fmt.Sprintf("Reminder: your appointment with %s is on %s.", clinicianName, when)
		if err := s.smsSender.Send(ctx, patient.Phone, body); err != nil {
			s.logger.Error(err, "failed to send reminder SMS", "patient_id", patient.ID.String())
		}
	}
}

type cancellationPayload struct {
	AppointmentID uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patient_id"`
	StartTime     time.Time `json:"start_time"`
	CancelReason  *string   `json:"cancel_reason"`
}

func (s *Service) handleCancellation(ctx context.Context, payload json.RawMessage) {
	var p cancellationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.logger.Error(err, "failed to decode cancellation payload")
		return
	}

	patient, err := s.patientRepo.Get(ctx, p.PatientID)
	if err != nil {
		s.logger.Error(err, "failed to load patient for cancellation notice", "patient_id", p.PatientID.String())
		return
	}
	if patient.Email == "" {
		return
	}

	when := p.StartTime.Format("Monday, Jan 2 at 3:04 PM")
	body := fmt.Sprintf(
		`<p>Your appointment on %s has been cancelled.</p>
		<p>Please contact the clinic to reschedule.</p>`, when)
	if err := s.emailSvc.SendCustom(ctx, patient.Email, "Appointment cancelled", body); err != nil {
		s.logger.Error(err, "failed to send cancellation email", "patient_id", patient.ID.String())
	}
}
