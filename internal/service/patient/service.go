package patient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

type Service struct {
	repo       repository.PatientRepository
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(repo repository.PatientRepository, outboxRepo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid clinic id", err)
	}

	patient := &model.Patient{
		Base:        model.Base{ID: uuid.New()},
		ClinicID:    clinicID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Address:     req.Address,
		Status:      string(model.PatientStatusActive),
	}
	patient.EmergencyContact = req.Emergency
	patient.InsuranceInfo = req.Insurance

	if err := marshalJSONFields(patient); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.emitEvent(ctx, model.EventPatientCreated, patient)
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONFields(patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONFields(patient); err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		patient.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		patient.LastName = *req.LastName
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = *req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.Status != nil {
		patient.Status = *req.Status
	}
	if req.Emergency != nil {
		patient.EmergencyContact = req.Emergency
	}
	if req.Insurance != nil {
		patient.InsuranceInfo = req.Insurance
	}

	if err := marshalJSONFields(patient); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	s.emitEvent(ctx, model.EventPatientUpdated, patient)
	return patient, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	s.emitEvent(ctx, model.EventPatientDeleted, map[string]interface{}{
		"id":        patient.ID,
		"clinic_id": patient.ClinicID,
	})
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error) {
	filters.Normalize()

	patients, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}
	for _, p := range patients {
		if err := unmarshalJSONFields(p); err != nil {
			return nil, 0, err
		}
	}
	return patients, total, nil
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

func marshalJSONFields(p *model.Patient) error {
	if p.EmergencyContact != nil {
		data, err := json.Marshal(p.EmergencyContact)
		if err != nil {
			return apperrors.BadRequest("invalid emergency contact", err)
		}
		p.EmergencyContactJSON = string(data)
	}
	if p.InsuranceInfo != nil {
		data, err := json.Marshal(p.InsuranceInfo)
		if err != nil {
			return apperrors.BadRequest("invalid insurance info", err)
		}
		p.InsuranceInfoJSON = string(data)
	}
	return nil
}

func unmarshalJSONFields(p *model.Patient) error {
	if p.EmergencyContactJSON != "" {
		var ec model.EmergencyContact
		if err := json.Unmarshal([]byte(p.EmergencyContactJSON), &ec); err != nil {
			return fmt.Errorf("failed to decode emergency contact: %w", err)
		}
		p.EmergencyContact = &ec
	}
	if p.InsuranceInfoJSON != "" {
		var ii model.InsuranceInfo
		if err := json.Unmarshal([]byte(p.InsuranceInfoJSON), &ii); err != nil {
			return fmt.Errorf("failed to decode insurance info: %w", err)
		}
		p.InsuranceInfo = &ii
	}
	return nil
}
