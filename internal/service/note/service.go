package note

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/ai"
	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

const soapSystemPrompt = `You are a clinical documentation assistant. Given a consultation transcript, produce a SOAP note as a JSON object with exactly these string fields: "subjective", "objective", "assessment", "plan". Use only information present in the transcript. Respond with the JSON object only.`

type soapDraft struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}

type Service struct {
	repo           repository.NoteRepository
	transcriptRepo repository.TranscriptRepository
	outboxRepo     repository.OutboxRepository
	chat           *ai.ChatClient
	logger         *logger.Logger
}

func NewService(
	repo repository.NoteRepository,
	transcriptRepo repository.TranscriptRepository,
	outboxRepo repository.OutboxRepository,
	chat *ai.ChatClient,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:           repo,
		transcriptRepo: transcriptRepo,
		outboxRepo:     outboxRepo,
		chat:           chat,
		logger:         logger,
	}
}

func (s *Service) Create(ctx context.Context, clinicianID uuid.UUID, req *model.CreateNoteRequest) (*model.MedicalNote, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient id", err)
	}

	note := &model.MedicalNote{
		Base:        model.Base{ID: uuid.New()},
		PatientID:   patientID,
		ClinicianID: clinicianID,
		Version:     1,
		Subjective:  req.Subjective,
		Objective:   req.Objective,
		Assessment:  req.Assessment,
		Plan:        req.Plan,
		Status:      model.NoteStatusDraft,
	}
	if req.AppointmentID != nil {
		apptID, err := uuid.Parse(*req.AppointmentID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid appointment id", err)
		}
		note.AppointmentID = &apptID
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

// Generate drafts a SOAP note from a consultation transcript. The draft is
// stored unsigned and carries the model name for provenance.
func (s *Service) Generate(ctx context.Context, clinicianID uuid.UUID, req *model.GenerateNoteRequest) (*model.MedicalNote, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient id", err)
	}

	raw, err := s.chat.Complete(ctx, soapSystemPrompt, req.Transcript)
	if err != nil {
		return nil, apperrors.Unavailable("note generation", err)
	}

	var draft soapDraft
	if err := json.Unmarshal([]byte(extractJSON(raw)), &draft); err != nil {
		s.logger.Error(err, "model returned malformed draft")
		return nil, apperrors.Unavailable("note generation", err)
	}

	transcript := &model.Transcript{
		Base:      model.Base{ID: uuid.New()},
		PatientID: &patientID,
		Text:      req.Transcript,
		Provider:  "manual",
	}
	if err := s.transcriptRepo.Create(ctx, transcript); err != nil {
		return nil, fmt.Errorf("failed to store transcript: %w", err)
	}

	note := &model.MedicalNote{
		Base:         model.Base{ID: uuid.New()},
		PatientID:    patientID,
		ClinicianID:  clinicianID,
		Version:      1,
		Subjective:   draft.Subjective,
		Objective:    draft.Objective,
		Assessment:   draft.Assessment,
		Plan:         draft.Plan,
		Status:       model.NoteStatusDraft,
		GeneratedBy:  s.chat.Model(),
		TranscriptID: &transcript.ID,
	}
	if req.AppointmentID != nil {
		apptID, err := uuid.Parse(*req.AppointmentID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid appointment id", err)
		}
		note.AppointmentID = &apptID
	}

	if err := s.repo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.MedicalNote, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.NoteFilters) ([]*model.MedicalNote, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, clinicianID uuid.UUID, req *model.UpdateNoteRequest) (*model.MedicalNote, error) {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.Status == model.NoteStatusSigned {
		return nil, apperrors.Conflict("signed notes cannot be edited, create an amendment", nil)
	}
	if note.ClinicianID != clinicianID {
		return nil, apperrors.Forbidden("only the authoring clinician may edit a note")
	}

	if req.Subjective != nil {
		note.Subjective = *req.Subjective
	}
	if req.Objective != nil {
		note.Objective = *req.Objective
	}
	if req.Assessment != nil {
		note.Assessment = *req.Assessment
	}
	if req.Plan != nil {
		note.Plan = *req.Plan
	}

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return note, nil
}

func (s *Service) Sign(ctx context.Context, id uuid.UUID, clinicianID uuid.UUID) (*model.MedicalNote, error) {
	note, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if note.Status == model.NoteStatusSigned {
		return nil, apperrors.Conflict("note is already signed", nil)
	}
	if note.ClinicianID != clinicianID {
		return nil, apperrors.Forbidden("only the authoring clinician may sign a note")
	}

	now := time.Now()
	note.Status = model.NoteStatusSigned
	note.SignedAt = &now

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to sign note: %w", err)
	}

	s.emitSigned(ctx, note)
	return note, nil
}

// Amend creates a new draft version referencing a signed note. The original
// is left untouched.
func (s *Service) Amend(ctx context.Context, id uuid.UUID, clinicianID uuid.UUID, req *model.UpdateNoteRequest) (*model.MedicalNote, error) {
	original, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if original.Status != model.NoteStatusSigned {
		return nil, apperrors.BadRequest("only signed notes can be amended", nil)
	}

	count, err := s.repo.CountAmendments(ctx, original.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count amendments: %w", err)
	}

	amendment := &model.MedicalNote{
		Base:          model.Base{ID: uuid.New()},
		PatientID:     original.PatientID,
		ClinicianID:   clinicianID,
		AppointmentID: original.AppointmentID,
		AmendsNoteID:  &original.ID,
		Version:       original.Version + count + 1,
		Subjective:    original.Subjective,
		Objective:     original.Objective,
		Assessment:    original.Assessment,
		Plan:          original.Plan,
		Status:        model.NoteStatusDraft,
		TranscriptID:  original.TranscriptID,
	}

	if req.Subjective != nil {
		amendment.Subjective = *req.Subjective
	}
	if req.Objective != nil {
		amendment.Objective = *req.Objective
	}
	if req.Assessment != nil {
		amendment.Assessment = *req.Assessment
	}
	if req.Plan != nil {
		amendment.Plan = *req.Plan
	}

	if err := s.repo.Create(ctx, amendment); err != nil {
		return nil, fmt.Errorf("failed to create amendment: %w", err)
	}
	return amendment, nil
}

func (s *Service) emitSigned(ctx context.Context, note *model.MedicalNote) {
	data, err := json.Marshal(map[string]interface{}{
		"note_id":      note.ID,
		"patient_id":   note.PatientID,
		"clinician_id": note.ClinicianID,
		"signed_at":    note.SignedAt,
	})
	if err != nil {
		s.logger.Error(err, "failed to marshal outbox payload", "event_type", model.EventNoteSigned)
		return
	}
	evt := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventNoteSigned,
		Payload:   data,
		Status:    string(model.OutboxStatusPending),
	}
	if err := s.outboxRepo.Create(ctx, evt); err != nil {
		s.logger.Error(err, "failed to record outbox event", "event_type", model.EventNoteSigned)
	}
}

// extractJSON trims markdown code fences some models wrap around JSON.
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}
