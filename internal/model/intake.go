package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// IntakeForm is a questionnaire template. Questions are stored as a JSON
// document: [{"id": "...", "text": "...", "type": "text|choice|voice", ...}]
type IntakeForm struct {
	Base
	ClinicID  uuid.UUID       `db:"clinic_id" json:"clinic_id"`
	Title     string          `db:"title" json:"title"`
	Questions json.RawMessage `db:"questions" json:"questions"`
	Active    bool            `db:"active" json:"active"`
}

type IntakeResponseStatus string

const (
	IntakeResponseStatusSubmitted  IntakeResponseStatus = "submitted"
	IntakeResponseStatusSummarized IntakeResponseStatus = "summarized"
)

// IntakeResponse holds a patient's answers plus an optional AI summary.
type IntakeResponse struct {
	Base
	FormID    uuid.UUID            `db:"form_id" json:"form_id"`
	PatientID uuid.UUID            `db:"patient_id" json:"patient_id"`
	Answers   json.RawMessage      `db:"answers" json:"answers"`
	Summary   string               `db:"summary" json:"summary,omitempty"`
	Status    IntakeResponseStatus `db:"status" json:"status"`
}

type CreateIntakeFormRequest struct {
	ClinicID  string          `json:"clinic_id" binding:"required,uuid"`
	Title     string          `json:"title" binding:"required"`
	Questions json.RawMessage `json:"questions" binding:"required"`
}

type SubmitIntakeRequest struct {
	PatientID string          `json:"patient_id" binding:"required,uuid"`
	Answers   json.RawMessage `json:"answers" binding:"required"`
}
