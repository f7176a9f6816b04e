package note

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxishealth/praxis-api/internal/model"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

type fakeNoteRepo struct {
	notes map[uuid.UUID]*model.MedicalNote
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{notes: make(map[uuid.UUID]*model.MedicalNote)}
}

func (r *fakeNoteRepo) Create(_ context.Context, n *model.MedicalNote) error {
	r.notes[n.ID] = n
	return nil
}

func (r *fakeNoteRepo) Get(_ context.Context, id uuid.UUID) (*model.MedicalNote, error) {
	n, ok := r.notes[id]
	if !ok {
		return nil, apperrors.NotFound("note", nil)
	}
	copied := *n
	return &copied, nil
}

func (r *fakeNoteRepo) Update(_ context.Context, n *model.MedicalNote) error {
	r.notes[n.ID] = n
	return nil
}

func (r *fakeNoteRepo) List(_ context.Context, _ *model.NoteFilters) ([]*model.MedicalNote, error) {
	return nil, nil
}

func (r *fakeNoteRepo) CountAmendments(_ context.Context, noteID uuid.UUID) (int, error) {
	count := 0
	for _, n := range r.notes {
		if n.AmendsNoteID != nil && *n.AmendsNoteID == noteID {
			count++
		}
	}
	return count, nil
}

type fakeOutboxRepo struct {
	events []*model.OutboxEvent
}

func (r *fakeOutboxRepo) Create(_ context.Context, e *model.OutboxEvent) error {
	r.events = append(r.events, e)
	return nil
}

func (r *fakeOutboxRepo) GetPendingWithLock(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) BeginTx(_ context.Context) (*sql.Tx, error) { return nil, nil }

func (r *fakeOutboxRepo) UpdateStatusTx(_ context.Context, _ *sql.Tx, _ uuid.UUID, _ string, _ *string, _ *time.Time) error {
	return nil
}

func (r *fakeOutboxRepo) MoveToDeadLetter(_ context.Context, _ *sql.Tx, _ *model.OutboxEvent) error {
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func newTestService() (*Service, *fakeNoteRepo, *fakeOutboxRepo) {
	repo := newFakeNoteRepo()
	outbox := &fakeOutboxRepo{}
	return NewService(repo, nil, outbox, nil, logger.NewLogger(nil)), repo, outbox
}

func sptr(s string) *string { return &s }

func TestCreateNote(t *testing.T) {
	svc, _, _ := newTestService()
	clinicianID := uuid.New()

	note, err := svc.Create(context.Background(), clinicianID, &model.CreateNoteRequest{
		PatientID:  uuid.New().String(),
		Subjective: "Patient reports headaches",
		Assessment: "Tension headache",
	})
	require.NoError(t, err)
	assert.Equal(t, model.NoteStatusDraft, note.Status)
	assert.Equal(t, 1, note.Version)
	assert.Equal(t, clinicianID, note.ClinicianID)
}

func TestUpdateRejectsSignedNote(t *testing.T) {
	svc, _, _ := newTestService()
	clinicianID := uuid.New()

	note, err := svc.Create(context.Background(), clinicianID, &model.CreateNoteRequest{
		PatientID: uuid.New().String(),
	})
	require.NoError(t, err)

	_, err = svc.Sign(context.Background(), note.ID, clinicianID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), note.ID, clinicianID, &model.UpdateNoteRequest{
		Plan: sptr("changed"),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestUpdateRejectsOtherClinician(t *testing.T) {
	svc, _, _ := newTestService()
	author := uuid.New()

	note, err := svc.Create(context.Background(), author, &model.CreateNoteRequest{
		PatientID: uuid.New().String(),
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), note.ID, uuid.New(), &model.UpdateNoteRequest{
		Plan: sptr("changed"),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestSignSetsTimestampAndEmits(t *testing.T) {
	svc, _, outbox := newTestService()
	clinicianID := uuid.New()

	note, err := svc.Create(context.Background(), clinicianID, &model.CreateNoteRequest{
		PatientID: uuid.New().String(),
	})
	require.NoError(t, err)

	signed, err := svc.Sign(context.Background(), note.ID, clinicianID)
	require.NoError(t, err)
	assert.Equal(t, model.NoteStatusSigned, signed.Status)
	require.NotNil(t, signed.SignedAt)

	require.Len(t, outbox.events, 1)
	assert.Equal(t, model.EventNoteSigned, outbox.events[0].EventType)

	// Signing twice is an error
	_, err = svc.Sign(context.Background(), note.ID, clinicianID)
	require.Error(t, err)
}

func TestSignRejectsOtherClinician(t *testing.T) {
	svc, _, _ := newTestService()
	author := uuid.New()

	note, err := svc.Create(context.Background(), author, &model.CreateNoteRequest{
		PatientID: uuid.New().String(),
	})
	require.NoError(t, err)

	_, err = svc.Sign(context.Background(), note.ID, uuid.New())
	require.Error(t, err)
}

func TestAmendVersionsSequentially(t *testing.T) {
	svc, _, _ := newTestService()
	clinicianID := uuid.New()

	note, err := svc.Create(context.Background(), clinicianID, &model.CreateNoteRequest{
		PatientID:  uuid.New().String(),
		Subjective: "original subjective",
		Plan:       "original plan",
	})
	require.NoError(t, err)
	_, err = svc.Sign(context.Background(), note.ID, clinicianID)
	require.NoError(t, err)

	first, err := svc.Amend(context.Background(), note.ID, clinicianID, &model.UpdateNoteRequest{
		Plan: sptr("revised plan"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Version)
	assert.Equal(t, model.NoteStatusDraft, first.Status)
	require.NotNil(t, first.AmendsNoteID)
	assert.Equal(t, note.ID, *first.AmendsNoteID)
	assert.Equal(t, "original subjective", first.Subjective)
	assert.Equal(t, "revised plan", first.Plan)

	second, err := svc.Amend(context.Background(), note.ID, clinicianID, &model.UpdateNoteRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, second.Version)

	// The signed original is untouched
	stored, err := svc.Get(context.Background(), note.ID)
	require.NoError(t, err)
	assert.Equal(t, "original plan", stored.Plan)
	assert.Equal(t, 1, stored.Version)
}

func TestAmendRequiresSignedNote(t *testing.T) {
	svc, _, _ := newTestService()
	clinicianID := uuid.New()

	note, err := svc.Create(context.Background(), clinicianID, &model.CreateNoteRequest{
		PatientID: uuid.New().String(),
	})
	require.NoError(t, err)

	_, err = svc.Amend(context.Background(), note.ID, clinicianID, &model.UpdateNoteRequest{})
	require.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	plain := `{"subjective":"s"}`
	assert.Equal(t, plain, extractJSON(plain))
	assert.Equal(t, plain, extractJSON("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, extractJSON("```\n"+plain+"\n```"))
	assert.Equal(t, plain, extractJSON("  "+plain+"  "))
}
