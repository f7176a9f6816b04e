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

type noteRepository struct {
	db *sqlx.DB
}

func NewNoteRepository(db *sqlx.DB) repository.NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *model.MedicalNote) error {
	query := `
		INSERT INTO medical_notes (
			id, patient_id, clinician_id, appointment_id, amends_note_id,
			version, subjective, objective, assessment, plan, status,
			generated_by, transcript_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	note.CreatedAt = time.Now()
	note.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		note.ID,
		note.PatientID,
		note.ClinicianID,
		note.AppointmentID,
		note.AmendsNoteID,
		note.Version,
		note.Subjective,
		note.Objective,
		note.Assessment,
		note.Plan,
		note.Status,
		note.GeneratedBy,
		note.TranscriptID,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *noteRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalNote, error) {
	query := `SELECT * FROM medical_notes WHERE id = $1 AND deleted_at IS NULL`
	var note model.MedicalNote
	err := r.db.GetContext(ctx, &note, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("note", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &note, nil
}

func (r *noteRepository) Update(ctx context.Context, note *model.MedicalNote) error {
	// Only drafts are updatable; signing sets signed_at through the same path
	query := `
		UPDATE medical_notes
		SET subjective = $1, objective = $2, assessment = $3, plan = $4,
			status = $5, signed_at = $6, updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
	`
	note.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		note.Subjective,
		note.Objective,
		note.Assessment,
		note.Plan,
		note.Status,
		note.SignedAt,
		note.UpdatedAt,
		note.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("note", nil)
	}
	return nil
}

func (r *noteRepository) List(ctx context.Context, filters *model.NoteFilters) ([]*model.MedicalNote, error) {
	query := `SELECT * FROM medical_notes WHERE deleted_at IS NULL`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.ClinicianID != uuid.Nil {
		query += fmt.Sprintf(" AND clinician_id = $%d", argCount)
		args = append(args, filters.ClinicianID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}
	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND created_at <= $%d", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	var notes []*model.MedicalNote
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

func (r *noteRepository) CountAmendments(ctx context.Context, noteID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM medical_notes WHERE amends_note_id = $1 AND deleted_at IS NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, noteID); err != nil {
		return 0, fmt.Errorf("failed to count amendments: %w", err)
	}
	return count, nil
}

type transcriptRepository struct {
	db *sqlx.DB
}

func NewTranscriptRepository(db *sqlx.DB) repository.TranscriptRepository {
	return &transcriptRepository{db: db}
}

func (r *transcriptRepository) Create(ctx context.Context, t *model.Transcript) error {
	query := `
		INSERT INTO transcripts (id, patient_id, text, confidence, provider, duration_ms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.PatientID, t.Text, t.Confidence, t.Provider, t.DurationMS, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}
	return nil
}

func (r *transcriptRepository) Get(ctx context.Context, id uuid.UUID) (*model.Transcript, error) {
	query := `SELECT * FROM transcripts WHERE id = $1`
	var t model.Transcript
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("transcript", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return &t, nil
}
