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

type checkinRepository struct {
	db *sqlx.DB
}

func NewCheckinRepository(db *sqlx.DB) repository.CheckinRepository {
	return &checkinRepository{db: db}
}

func (r *checkinRepository) Create(ctx context.Context, checkin *model.Checkin) error {
	// Position comes from MAX(position)+1 in the same statement. Two
	// concurrent check-ins can still read the same max; the caller should
	// treat a duplicate-position insert as retryable.
	query := `
		INSERT INTO checkins (id, clinic_id, patient_id, appointment_id, position, status, checked_in_at)
		VALUES (
			$1, $2, $3, $4,
			COALESCE((SELECT MAX(position) FROM checkins WHERE clinic_id = $2 AND checked_in_at::date = CURRENT_DATE), 0) + 1,
			$5, $6
		)
		RETURNING position
	`
	checkin.CheckedInAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		checkin.ID,
		checkin.ClinicID,
		checkin.PatientID,
		checkin.AppointmentID,
		checkin.Status,
		checkin.CheckedInAt,
	).Scan(&checkin.Position)
	if err != nil {
		return fmt.Errorf("failed to create checkin: %w", err)
	}
	return nil
}

func (r *checkinRepository) Get(ctx context.Context, id uuid.UUID) (*model.Checkin, error) {
	query := `SELECT * FROM checkins WHERE id = $1`
	var checkin model.Checkin
	err := r.db.GetContext(ctx, &checkin, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("checkin", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkin: %w", err)
	}
	return &checkin, nil
}

func (r *checkinRepository) Update(ctx context.Context, checkin *model.Checkin) error {
	query := `UPDATE checkins SET status = $1, called_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, checkin.Status, checkin.CalledAt, checkin.ID)
	if err != nil {
		return fmt.Errorf("failed to update checkin: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("checkin", nil)
	}
	return nil
}

func (r *checkinRepository) ListWaiting(ctx context.Context, clinicID uuid.UUID) ([]*model.Checkin, error) {
	query := `
		SELECT * FROM checkins
		WHERE clinic_id = $1
		AND status IN ('waiting', 'called')
		AND checked_in_at::date = CURRENT_DATE
		ORDER BY position ASC
	`
	var checkins []*model.Checkin
	if err := r.db.SelectContext(ctx, &checkins, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list waiting checkins: %w", err)
	}
	return checkins, nil
}
