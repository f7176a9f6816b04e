package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
)

type labResultRepository struct {
	db *sqlx.DB
}

func NewLabResultRepository(db *sqlx.DB) repository.LabResultRepository {
	return &labResultRepository{db: db}
}

func (r *labResultRepository) Create(ctx context.Context, result *model.LabResult) error {
	query := `
		INSERT INTO lab_results (
			id, patient_id, name, value, unit, ref_min, ref_max,
			category, tested_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	result.CreatedAt = time.Now()
	result.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		result.ID,
		result.PatientID,
		result.Name,
		result.Value,
		result.Unit,
		result.RefMin,
		result.RefMax,
		result.Category,
		result.TestedAt,
		result.CreatedAt,
		result.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lab result: %w", err)
	}
	return nil
}

func (r *labResultRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.LabResult, error) {
	query := `
		SELECT * FROM lab_results
		WHERE patient_id = $1 AND deleted_at IS NULL
		ORDER BY tested_at DESC
	`
	var results []*model.LabResult
	if err := r.db.SelectContext(ctx, &results, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list lab results: %w", err)
	}
	return results, nil
}

func (r *labResultRepository) ListForBiomarker(ctx context.Context, patientID uuid.UUID, biomarker string, since time.Time) ([]*model.LabResult, error) {
	query := `
		SELECT * FROM lab_results
		WHERE patient_id = $1
		AND LOWER(name) = LOWER($2)
		AND tested_at >= $3
		AND deleted_at IS NULL
		ORDER BY tested_at ASC
	`
	var results []*model.LabResult
	if err := r.db.SelectContext(ctx, &results, query, patientID, biomarker, since); err != nil {
		return nil, fmt.Errorf("failed to list biomarker history: %w", err)
	}
	return results, nil
}
