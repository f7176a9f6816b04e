package model

import (
	"time"

	"github.com/google/uuid"
)

type NoteStatus string

const (
	NoteStatusDraft  NoteStatus = "draft"
	NoteStatusSigned NoteStatus = "signed"
)

// MedicalNote is a SOAP-format clinical note. Signed notes are immutable;
// corrections are recorded as amendments referencing the original.
type MedicalNote struct {
	Base
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	ClinicianID   uuid.UUID  `db:"clinician_id" json:"clinician_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	AmendsNoteID  *uuid.UUID `db:"amends_note_id" json:"amends_note_id,omitempty"`
	Version       int        `db:"version" json:"version"`

	Subjective string `db:"subjective" json:"subjective"`
	Objective  string `db:"objective" json:"objective"`
	Assessment string `db:"assessment" json:"assessment"`
	Plan       string `db:"plan" json:"plan"`

	Status   NoteStatus `db:"status" json:"status"`
	SignedAt *time.Time `db:"signed_at" json:"signed_at,omitempty"`

	// Provenance for AI-generated drafts
	GeneratedBy  string  `db:"generated_by" json:"generated_by,omitempty"`
	TranscriptID *uuid.UUID `db:"transcript_id" json:"transcript_id,omitempty"`
}

type CreateNoteRequest struct {
	PatientID     string  `json:"patient_id" binding:"required,uuid"`
	AppointmentID *string `json:"appointment_id" binding:"omitempty,uuid"`
	Subjective    string  `json:"subjective"`
	Objective     string  `json:"objective"`
	Assessment    string  `json:"assessment"`
	Plan          string  `json:"plan"`
}

type UpdateNoteRequest struct {
	Subjective *string `json:"subjective"`
	Objective  *string `json:"objective"`
	Assessment *string `json:"assessment"`
	Plan       *string `json:"plan"`
}

type GenerateNoteRequest struct {
	PatientID     string  `json:"patient_id" binding:"required,uuid"`
	AppointmentID *string `json:"appointment_id" binding:"omitempty,uuid"`
	Transcript    string  `json:"transcript" binding:"required"`
}

type NoteFilters struct {
	PatientID   uuid.UUID
	ClinicianID uuid.UUID
	Status      NoteStatus
	StartDate   time.Time
	EndDate     time.Time
}

// Transcript is the stored output of a speech-to-text run
type Transcript struct {
	Base
	PatientID  *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	Text       string     `db:"text" json:"text"`
	Confidence float64    `db:"confidence" json:"confidence"`
	Provider   string     `db:"provider" json:"provider"`
	DurationMS int64      `db:"duration_ms" json:"duration_ms"`
}
