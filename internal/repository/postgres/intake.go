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

type intakeRepository struct {
	db *sqlx.DB
}

func NewIntakeRepository(db *sqlx.DB) repository.IntakeRepository {
	return &intakeRepository{db: db}
}

func (r *intakeRepository) CreateForm(ctx context.Context, form *model.IntakeForm) error {
	query := `
		INSERT INTO intake_forms (id, clinic_id, title, questions, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	form.CreatedAt = time.Now()
	form.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		form.ID, form.ClinicID, form.Title, form.Questions, form.Active,
		form.CreatedAt, form.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create intake form: %w", err)
	}
	return nil
}

func (r *intakeRepository) GetForm(ctx context.Context, id uuid.UUID) (*model.IntakeForm, error) {
	query := `SELECT * FROM intake_forms WHERE id = $1 AND deleted_at IS NULL`
	var form model.IntakeForm
	err := r.db.GetContext(ctx, &form, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("intake form", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intake form: %w", err)
	}
	return &form, nil
}

func (r *intakeRepository) ListForms(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*model.IntakeForm, error) {
	query := `SELECT * FROM intake_forms WHERE clinic_id = $1 AND deleted_at IS NULL`
	if activeOnly {
		query += " AND active = TRUE"
	}
	query += " ORDER BY created_at DESC"

	var forms []*model.IntakeForm
	if err := r.db.SelectContext(ctx, &forms, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list intake forms: %w", err)
	}
	return forms, nil
}

func (r *intakeRepository) UpdateForm(ctx context.Context, form *model.IntakeForm) error {
	query := `
		UPDATE intake_forms
		SET title = $1, questions = $2, active = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	form.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, form.Title, form.Questions, form.Active, form.UpdatedAt, form.ID)
	if err != nil {
		return fmt.Errorf("failed to update intake form: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("intake form", nil)
	}
	return nil
}

func (r *intakeRepository) CreateResponse(ctx context.Context, resp *model.IntakeResponse) error {
	query := `
		INSERT INTO intake_responses (id, form_id, patient_id, answers, summary, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	resp.CreatedAt = time.Now()
	resp.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		resp.ID, resp.FormID, resp.PatientID, resp.Answers, resp.Summary, resp.Status,
		resp.CreatedAt, resp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create intake response: %w", err)
	}
	return nil
}

func (r *intakeRepository) GetResponse(ctx context.Context, id uuid.UUID) (*model.IntakeResponse, error) {
	query := `SELECT * FROM intake_responses WHERE id = $1 AND deleted_at IS NULL`
	var resp model.IntakeResponse
	err := r.db.GetContext(ctx, &resp, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("intake response", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intake response: %w", err)
	}
	return &resp, nil
}

func (r *intakeRepository) UpdateResponse(ctx context.Context, resp *model.IntakeResponse) error {
	query := `
		UPDATE intake_responses
		SET summary = $1, status = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`
	resp.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, resp.Summary, resp.Status, resp.UpdatedAt, resp.ID)
	if err != nil {
		return fmt.Errorf("failed to update intake response: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("intake response", nil)
	}
	return nil
}

func (r *intakeRepository) ListResponses(ctx context.Context, formID uuid.UUID) ([]*model.IntakeResponse, error) {
	query := `
		SELECT * FROM intake_responses
		WHERE form_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	var responses []*model.IntakeResponse
	if err := r.db.SelectContext(ctx, &responses, query, formID); err != nil {
		return nil, fmt.Errorf("failed to list intake responses: %w", err)
	}
	return responses, nil
}
