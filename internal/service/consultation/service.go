package consultation

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

// Join codes avoid 0/O and 1/I to survive being read over the phone.
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const joinCodeLength = 6

type Service struct {
	repo            repository.ConsultationRepository
	appointmentRepo repository.AppointmentRepository
	outboxRepo      repository.OutboxRepository
	logger          *logger.Logger
}

func NewService(
	repo repository.ConsultationRepository,
	appointmentRepo repository.AppointmentRepository,
	outboxRepo repository.OutboxRepository,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:            repo,
		appointmentRepo: appointmentRepo,
		outboxRepo:      outboxRepo,
		logger:          logger,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateConsultationRequest) (*model.Consultation, error) {
	appointmentID, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid appointment id", err)
	}

	appointment, err := s.appointmentRepo.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Type != model.AppointmentTypeTelehealth {
		return nil, apperrors.BadRequest("consultations require a telehealth appointment", nil)
	}
	if appointment.Status == model.AppointmentStatusCancelled || appointment.Status == model.AppointmentStatusCompleted {
		return nil, apperrors.Conflict("appointment is no longer open", nil)
	}

	code, err := generateJoinCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate join code: %w", err)
	}

	consultation := &model.Consultation{
		Base:          model.Base{ID: uuid.New()},
		AppointmentID: appointment.ID,
		ClinicianID:   appointment.ClinicianID,
		PatientID:     appointment.PatientID,
		JoinCode:      code,
		Status:        model.ConsultationStatusWaiting,
	}

	if err := s.repo.Create(ctx, consultation); err != nil {
		return nil, fmt.Errorf("failed to create consultation: %w", err)
	}
	return consultation, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	return s.repo.Get(ctx, id)
}

// Join adds a participant by code. The session moves to active when the
// clinician joins; patients joining first wait.
func (s *Service) Join(ctx context.Context, req *model.JoinConsultationRequest) (*model.Consultation, *model.ConsultationParticipant, error) {
	consultation, err := s.repo.GetByJoinCode(ctx, req.JoinCode)
	if err != nil {
		return nil, nil, apperrors.NotFound("consultation", err)
	}
	if consultation.Status == model.ConsultationStatusEnded {
		return nil, nil, apperrors.Conflict("consultation has ended", nil)
	}

	participant := &model.ConsultationParticipant{
		ID:             uuid.New(),
		ConsultationID: consultation.ID,
		Role:           req.Role,
		DisplayName:    req.DisplayName,
		JoinedAt:       time.Now(),
	}
	if err := s.repo.AddParticipant(ctx, participant); err != nil {
		return nil, nil, fmt.Errorf("failed to add participant: %w", err)
	}

	if req.Role == "clinician" && consultation.Status == model.ConsultationStatusWaiting {
		now := time.Now()
		consultation.Status = model.ConsultationStatusActive
		consultation.StartedAt = &now
		if err := s.repo.Update(ctx, consultation); err != nil {
			return nil, nil, fmt.Errorf("failed to activate consultation: %w", err)
		}
	}

	return consultation, participant, nil
}

func (s *Service) Leave(ctx context.Context, participantID uuid.UUID) error {
	return s.repo.MarkParticipantLeft(ctx, participantID, time.Now())
}

func (s *Service) End(ctx context.Context, id uuid.UUID, clinicianID uuid.UUID) (*model.Consultation, error) {
	consultation, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if consultation.Status == model.ConsultationStatusEnded {
		return nil, apperrors.Conflict("consultation already ended", nil)
	}
	if consultation.ClinicianID != clinicianID {
		return nil, apperrors.Forbidden("only the assigned clinician may end the consultation")
	}

	now := time.Now()
	consultation.Status = model.ConsultationStatusEnded
	consultation.EndedAt = &now
	if err := s.repo.Update(ctx, consultation); err != nil {
		return nil, fmt.Errorf("failed to end consultation: %w", err)
	}

	// Everyone still in the room is marked as left
	participants, err := s.repo.ListParticipants(ctx, consultation.ID)
	if err != nil {
		s.logger.Error(err, "failed to list participants on end", "consultation_id", consultation.ID.String())
	} else {
		for _, p := range participants {
			if p.LeftAt == nil {
				if err := s.repo.MarkParticipantLeft(ctx, p.ID, now); err != nil {
					s.logger.Error(err, "failed to mark participant left", "participant_id", p.ID.String())
				}
			}
		}
	}

	s.emitEnded(ctx, consultation)
	return consultation, nil
}

func (s *Service) Participants(ctx context.Context, id uuid.UUID) ([]*model.ConsultationParticipant, error) {
	return s.repo.ListParticipants(ctx, id)
}

func (s *Service) emitEnded(ctx context.Context, c *model.Consultation) {
	data, err := json.Marshal(map[string]interface{}{
		"consultation_id": c.ID,
		"appointment_id":  c.AppointmentID,
		"patient_id":      c.PatientID,
		"ended_at":        c.EndedAt,
	})
	if err != nil {
		s.logger.Error(err, "failed to marshal outbox payload", "event_type", model.EventConsultationEnded)
		return
	}
	evt := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventConsultationEnded,
		Payload:   data,
		Status:    string(model.OutboxStatusPending),
	}
	if err := s.outboxRepo.Create(ctx, evt); err != nil {
		s.logger.Error(err, "failed to record outbox event", "event_type", model.EventConsultationEnded)
	}
}

func generateJoinCode() (string, error) {
	code := make([]byte, joinCodeLength)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
