package model

import (
	"time"

	"github.com/google/uuid"
)

type CheckinStatus string

const (
	CheckinStatusWaiting CheckinStatus = "waiting"
	CheckinStatusCalled  CheckinStatus = "called"
	CheckinStatusDone    CheckinStatus = "done"
)

// Checkin is a kiosk queue entry. Position is assigned per clinic at
// insert time and re-read, never recomputed client-side.
type Checkin struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	ClinicID      uuid.UUID     `db:"clinic_id" json:"clinic_id"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id"`
	AppointmentID *uuid.UUID    `db:"appointment_id" json:"appointment_id,omitempty"`
	Position      int           `db:"position" json:"position"`
	Status        CheckinStatus `db:"status" json:"status"`
	CheckedInAt   time.Time     `db:"checked_in_at" json:"checked_in_at"`
	CalledAt      *time.Time    `db:"called_at" json:"called_at,omitempty"`
}

type CheckinRequest struct {
	ClinicID      string  `json:"clinic_id" binding:"required,uuid"`
	AppointmentID *string `json:"appointment_id" binding:"omitempty,uuid"`
	PatientID     *string `json:"patient_id" binding:"omitempty,uuid"`

	// Fallback lookup when the patient has no appointment ID at hand
	LastName    *string    `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

// QueueEntry is the public shape pushed to waiting-room displays.
// Patient names are reduced to initials.
type QueueEntry struct {
	CheckinID uuid.UUID     `json:"checkin_id"`
	Position  int           `json:"position"`
	Initials  string        `json:"initials"`
	Status    CheckinStatus `json:"status"`
}
