package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
)

type consultationRepository struct {
	db *sqlx.DB
}

func NewConsultationRepository(db *sqlx.DB) repository.ConsultationRepository {
	return &consultationRepository{db: db}
}

func (r *consultationRepository) Create(ctx context.Context, c *model.Consultation) error {
	query := `
		INSERT INTO consultations (
			id, appointment_id, clinician_id, patient_id, join_code,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.AppointmentID,
		c.ClinicianID,
		c.PatientID,
		c.JoinCode,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	query := `SELECT * FROM consultations WHERE id = $1 AND deleted_at IS NULL`
	var c model.Consultation
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("consultation", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return &c, nil
}

func (r *consultationRepository) GetByJoinCode(ctx context.Context, code string) (*model.Consultation, error) {
	query := `SELECT * FROM consultations WHERE join_code = $1 AND deleted_at IS NULL`
	var c model.Consultation
	err := r.db.GetContext(ctx, &c, query, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("consultation", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation by join code: %w", err)
	}
	return &c, nil
}

func (r *consultationRepository) Update(ctx context.Context, c *model.Consultation) error {
	query := `
		UPDATE consultations
		SET status = $1, started_at = $2, ended_at = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	c.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, c.Status, c.StartedAt, c.EndedAt, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update consultation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("consultation", nil)
	}
	return nil
}

func (r *consultationRepository) AddParticipant(ctx context.Context, p *model.ConsultationParticipant) error {
	query := `
		INSERT INTO consultation_participants (id, consultation_id, role, display_name, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.ConsultationID, p.Role, p.DisplayName, p.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *consultationRepository) MarkParticipantLeft(ctx context.Context, participantID uuid.UUID, at time.Time) error {
	query := `UPDATE consultation_participants SET left_at = $1 WHERE id = $2 AND left_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, at, participantID)
	return err
}

func (r *consultationRepository) ListParticipants(ctx context.Context, consultationID uuid.UUID) ([]*model.ConsultationParticipant, error) {
	query := `
		SELECT * FROM consultation_participants
		WHERE consultation_id = $1
		ORDER BY joined_at ASC
	`
	var participants []*model.ConsultationParticipant
	if err := r.db.SelectContext(ctx, &participants, query, consultationID); err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}
