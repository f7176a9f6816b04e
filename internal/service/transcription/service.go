package transcription

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

// maxAudioBytes caps uploads at 25 MB, enough for a long consultation at
// speech bitrates.
const maxAudioBytes = 25 << 20

type Service struct {
	repo   repository.TranscriptRepository
	stt    *ai.TranscriptionClient
	logger *logger.Logger
}

func NewService(repo repository.TranscriptRepository, stt *ai.TranscriptionClient, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		stt:    stt,
		logger: logger,
	}
}

// Transcribe runs speech-to-text on an audio upload and stores the result.
func (s *Service) Transcribe(ctx context.Context, patientID *uuid.UUID, audio []byte, contentType string) (*model.Transcript, error) {
	if len(audio) == 0 {
		return nil, apperrors.BadRequest("empty audio upload", nil)
	}
	if len(audio) > maxAudioBytes {
		return nil, apperrors.BadRequest("audio upload exceeds 25MB limit", nil)
	}

	result, err := s.stt.Transcribe(ctx, audio, contentType)
	if err != nil {
		return nil, apperrors.Unavailable("transcription", err)
	}

	transcript := &model.Transcript{
		Base:       model.Base{ID: uuid.New()},
		PatientID:  patientID,
		Text:       result.Text,
		Confidence: result.Confidence,
		Provider:   "deepgram",
		DurationMS: result.DurationMS,
	}
	if err := s.repo.Create(ctx, transcript); err != nil {
		return nil, fmt.Errorf("failed to store transcript: %w", err)
	}
	return transcript, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Transcript, error) {
	return s.repo.Get(ctx, id)
}
