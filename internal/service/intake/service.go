package intake

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/ai"
	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

const summaryPrompt = `You are a clinical intake assistant. Summarize the following patient intake responses into a short paragraph a clinician can scan before the visit. Flag any answers that mention current medications, allergies, or urgent symptoms. Respond with plain text only.`

type Service struct {
	repo   repository.IntakeRepository
	chat   *ai.ChatClient
	logger *logger.Logger
}

func NewService(repo repository.IntakeRepository, chat *ai.ChatClient, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		chat:   chat,
		logger: logger,
	}
}

func (s *Service) CreateForm(ctx context.Context, req *model.CreateIntakeFormRequest) (*model.IntakeForm, error) {
	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinic id", err)
	}

	form := &model.IntakeForm{
		Base:      model.Base{ID: uuid.New()},
		ClinicID:  clinicID,
		Title:     req.Title,
		Questions: req.Questions,
		Active:    true,
	}
	if err := s.repo.CreateForm(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to create intake form: %w", err)
	}
	return form, nil
}

func (s *Service) GetForm(ctx context.Context, id uuid.UUID) (*model.IntakeForm, error) {
	return s.repo.GetForm(ctx, id)
}

func (s *Service) ListForms(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*model.IntakeForm, error) {
	return s.repo.ListForms(ctx, clinicID, activeOnly)
}

func (s *Service) DeactivateForm(ctx context.Context, id uuid.UUID) (*model.IntakeForm, error) {
	form, err := s.repo.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	form.Active = false
	if err := s.repo.UpdateForm(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to deactivate intake form: %w", err)
	}
	return form, nil
}

// Submit stores a response and kicks off summarization inline. A failed
// summary leaves the response in submitted state for a later retry.
func (s *Service) Submit(ctx context.Context, formID uuid.UUID, req *model.SubmitIntakeRequest) (*model.IntakeResponse, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid patient id", err)
	}

	form, err := s.repo.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if !form.Active {
		return nil, apperrors.Conflict("intake form is no longer active", nil)
	}

	resp := &model.IntakeResponse{
		Base:      model.Base{ID: uuid.New()},
		FormID:    form.ID,
		PatientID: patientID,
		Answers:   req.Answers,
		Status:    model.IntakeResponseStatusSubmitted,
	}
	if err := s.repo.CreateResponse(ctx, resp); err != nil {
		return nil, fmt.Errorf("failed to store intake response: %w", err)
	}

	if err := s.summarize(ctx, resp); err != nil {
		s.logger.Error(err, "failed to summarize intake response", "response_id", resp.ID.String())
	}
	return resp, nil
}

func (s *Service) GetResponse(ctx context.Context, id uuid.UUID) (*model.IntakeResponse, error) {
	return s.repo.GetResponse(ctx, id)
}

func (s *Service) ListResponses(ctx context.Context, formID uuid.UUID) ([]*model.IntakeResponse, error) {
	return s.repo.ListResponses(ctx, formID)
}

// Summarize regenerates the summary for a stored response.
func (s *Service) Summarize(ctx context.Context, id uuid.UUID) (*model.IntakeResponse, error) {
	resp, err := s.repo.GetResponse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.summarize(ctx, resp); err != nil {
		return nil, apperrors.Unavailable("intake summarization", err)
	}
	return resp, nil
}

func (s *Service) summarize(ctx context.Context, resp *model.IntakeResponse) error {
	summary, err := s.chat.Complete(ctx, summaryPrompt, string(resp.Answers))
	if err != nil {
		return err
	}

	resp.Summary = summary
	resp.Status = model.IntakeResponseStatusSummarized
	if err := s.repo.UpdateResponse(ctx, resp); err != nil {
		return fmt.Errorf("failed to store summary: %w", err)
	}
	return nil
}
