package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	"github.com/praxishealth/praxis-api/pkg/logger"
	"github.com/praxishealth/praxis-api/pkg/security"
)

// Entry is one action to be written to the trail.
type Entry struct {
	ActorID    uuid.UUID
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Detail     interface{}
	IPAddress  string
	UserAgent  string
}

// Service writes and reads the audit trail. Detail payloads are sealed
// before they hit the database and opened on the way out.
type Service struct {
	repo   repository.AuditRepository
	enc    security.Encryptor
	logger *logger.Logger
}

func NewService(repo repository.AuditRepository, enc security.Encryptor, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		enc:    enc,
		logger: logger,
	}
}

func (s *Service) Record(ctx context.Context, e *Entry) error {
	log := &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		CreatedAt:  time.Now(),
	}

	if e.Detail != nil {
		plain, err := json.Marshal(e.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal audit detail: %w", err)
		}
		sealed, err := s.enc.Encrypt(plain)
		if err != nil {
			return fmt.Errorf("failed to seal audit detail: %w", err)
		}
		log.Detail = sealed
	}

	return s.repo.Create(ctx, log)
}

// RecordAsync writes the entry off the request path. A failed write is
// logged, never surfaced to the caller.
func (s *Service) RecordAsync(e *Entry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Record(ctx, e); err != nil {
			s.logger.Error(err, "failed to record audit entry",
				"action", e.Action,
				"entity_type", e.EntityType)
		}
	}()
}

func (s *Service) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, int, error) {
	logs, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	for _, log := range logs {
		if len(log.Detail) == 0 {
			continue
		}
		plain, err := s.enc.Decrypt(log.Detail)
		if err != nil {
			// An unreadable detail should not hide the rest of the row
			s.logger.Error(err, "failed to open audit detail", "log_id", log.ID.String())
			log.Detail = nil
			continue
		}
		log.Detail = plain
	}
	return logs, total, nil
}
