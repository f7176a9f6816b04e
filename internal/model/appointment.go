package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusCheckedIn  AppointmentStatus = "checked_in"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

type AppointmentType string

const (
	AppointmentTypeRegular    AppointmentType = "regular"
	AppointmentTypeFollowup   AppointmentType = "followup"
	AppointmentTypeTelehealth AppointmentType = "telehealth"
	AppointmentTypeEmergency  AppointmentType = "emergency"
)

type Appointment struct {
	Base
	ClinicID     uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	ClinicianID  uuid.UUID         `db:"clinician_id" json:"clinician_id"`
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	Type         AppointmentType   `db:"type" json:"type"`
	StartTime    time.Time         `db:"start_time" json:"start_time"`
	EndTime      time.Time         `db:"end_time" json:"end_time"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Reason       string            `db:"reason" json:"reason,omitempty"`
	Notes        string            `db:"notes" json:"notes,omitempty"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	ReminderSent bool              `db:"reminder_sent" json:"-"`
}

type CreateAppointmentRequest struct {
	ClinicID    string    `json:"clinic_id" binding:"required,uuid"`
	ClinicianID string    `json:"clinician_id" binding:"required,uuid"`
	PatientID   string    `json:"patient_id" binding:"required,uuid"`
	Type        string    `json:"type" binding:"required,oneof=regular followup telehealth emergency"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required,gtfield=StartTime"`
	Reason      string    `json:"reason" binding:"max=1000"`
}

type UpdateAppointmentRequest struct {
	StartTime    *time.Time         `json:"start_time"`
	EndTime      *time.Time         `json:"end_time"`
	Status       *AppointmentStatus `json:"status"`
	Notes        *string            `json:"notes"`
	CancelReason *string            `json:"cancel_reason"`
}

// TimeSlot is an open interval on a clinician's calendar
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AppointmentFilters struct {
	ClinicID    uuid.UUID
	ClinicianID uuid.UUID
	PatientID   uuid.UUID
	Status      AppointmentStatus
	StartDate   time.Time
	EndDate     time.Time
}
