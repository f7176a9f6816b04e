package model

import (
	"time"

	"github.com/google/uuid"
)

type ConsultationStatus string

const (
	ConsultationStatusWaiting ConsultationStatus = "waiting"
	ConsultationStatusActive  ConsultationStatus = "active"
	ConsultationStatusEnded   ConsultationStatus = "ended"
)

// Consultation is the server-side record of a telemedicine session.
// Media signaling happens in the browser; this tracks lifecycle only.
type Consultation struct {
	Base
	AppointmentID uuid.UUID          `db:"appointment_id" json:"appointment_id"`
	ClinicianID   uuid.UUID          `db:"clinician_id" json:"clinician_id"`
	PatientID     uuid.UUID          `db:"patient_id" json:"patient_id"`
	JoinCode      string             `db:"join_code" json:"join_code"`
	Status        ConsultationStatus `db:"status" json:"status"`
	StartedAt     *time.Time         `db:"started_at" json:"started_at,omitempty"`
	EndedAt       *time.Time         `db:"ended_at" json:"ended_at,omitempty"`
}

type ConsultationParticipant struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	ConsultationID uuid.UUID  `db:"consultation_id" json:"consultation_id"`
	Role           string     `db:"role" json:"role"`
	DisplayName    string     `db:"display_name" json:"display_name"`
	JoinedAt       time.Time  `db:"joined_at" json:"joined_at"`
	LeftAt         *time.Time `db:"left_at" json:"left_at,omitempty"`
}

type CreateConsultationRequest struct {
	AppointmentID string `json:"appointment_id" binding:"required,uuid"`
}

type JoinConsultationRequest struct {
	JoinCode    string `json:"join_code" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Role        string `json:"role" binding:"required,oneof=clinician patient"`
}
