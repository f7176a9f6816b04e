package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type TokenRepository interface {
	Store(ctx context.Context, token *model.Token) error
	Get(ctx context.Context, token, tokenType string) (*model.Token, error)
	Delete(ctx context.Context, token string) error
	DeleteForUser(ctx context.Context, userID uuid.UUID, tokenType string) error
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, int, error)
	FindByNameAndDOB(ctx context.Context, clinicID uuid.UUID, lastName string, dob time.Time) (*model.Patient, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, appointment *model.Appointment) error
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	CheckConflicts(ctx context.Context, clinicianID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	ListForReminder(ctx context.Context, windowStart, windowEnd time.Time) ([]*model.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

type NoteRepository interface {
	Create(ctx context.Context, note *model.MedicalNote) error
	Get(ctx context.Context, id uuid.UUID) (*model.MedicalNote, error)
	Update(ctx context.Context, note *model.MedicalNote) error
	List(ctx context.Context, filters *model.NoteFilters) ([]*model.MedicalNote, error)
	CountAmendments(ctx context.Context, noteID uuid.UUID) (int, error)
}

type TranscriptRepository interface {
	Create(ctx context.Context, t *model.Transcript) error
	Get(ctx context.Context, id uuid.UUID) (*model.Transcript, error)
}

type ConsultationRepository interface {
	Create(ctx context.Context, c *model.Consultation) error
	Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
	GetByJoinCode(ctx context.Context, code string) (*model.Consultation, error)
	Update(ctx context.Context, c *model.Consultation) error
	AddParticipant(ctx context.Context, p *model.ConsultationParticipant) error
	MarkParticipantLeft(ctx context.Context, participantID uuid.UUID, at time.Time) error
	ListParticipants(ctx context.Context, consultationID uuid.UUID) ([]*model.ConsultationParticipant, error)
}

type IntakeRepository interface {
	CreateForm(ctx context.Context, form *model.IntakeForm) error
	GetForm(ctx context.Context, id uuid.UUID) (*model.IntakeForm, error)
	ListForms(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*model.IntakeForm, error)
	UpdateForm(ctx context.Context, form *model.IntakeForm) error
	CreateResponse(ctx context.Context, resp *model.IntakeResponse) error
	GetResponse(ctx context.Context, id uuid.UUID) (*model.IntakeResponse, error)
	UpdateResponse(ctx context.Context, resp *model.IntakeResponse) error
	ListResponses(ctx context.Context, formID uuid.UUID) ([]*model.IntakeResponse, error)
}

type CheckinRepository interface {
	Create(ctx context.Context, checkin *model.Checkin) error
	Get(ctx context.Context, id uuid.UUID) (*model.Checkin, error)
	Update(ctx context.Context, checkin *model.Checkin) error
	ListWaiting(ctx context.Context, clinicID uuid.UUID) ([]*model.Checkin, error)
}

type LabResultRepository interface {
	Create(ctx context.Context, result *model.LabResult) error
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.LabResult, error)
	ListForBiomarker(ctx context.Context, patientID uuid.UUID, biomarker string, since time.Time) ([]*model.LabResult, error)
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, int, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	BeginTx(ctx context.Context) (*sql.Tx, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, status string, errorMessage *string, retryAt *time.Time) error
	MoveToDeadLetter(ctx context.Context, tx *sql.Tx, evt *model.OutboxEvent) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
