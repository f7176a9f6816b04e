package model

import (
	"time"

	"github.com/google/uuid"
)

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
	PatientStatusArchived PatientStatus = "archived"
)

type Patient struct {
	Base
	ClinicID    uuid.UUID `db:"clinic_id" json:"clinic_id"`
	FirstName   string    `db:"first_name" json:"first_name"`
	LastName    string    `db:"last_name" json:"last_name"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone,omitempty"`
	DateOfBirth time.Time `db:"date_of_birth" json:"date_of_birth"`
	Gender      string    `db:"gender" json:"gender,omitempty"`
	Address     string    `db:"address" json:"address,omitempty"`
	Status      string    `db:"status" json:"status"`

	// Stored as JSON columns, marshalled in the service layer
	EmergencyContactJSON string `db:"emergency_contact" json:"-"`
	InsuranceInfoJSON    string `db:"insurance_info" json:"-"`

	EmergencyContact *EmergencyContact `db:"-" json:"emergency_contact,omitempty"`
	InsuranceInfo    *InsuranceInfo    `db:"-" json:"insurance_info,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type InsuranceInfo struct {
	Provider     string     `json:"provider"`
	PolicyNumber string     `json:"policy_number"`
	GroupNumber  string     `json:"group_number,omitempty"`
	ValidUntil   *time.Time `json:"valid_until,omitempty"`
}

type CreatePatientRequest struct {
	ClinicID    string            `json:"clinic_id" binding:"required,uuid"`
	FirstName   string            `json:"first_name" binding:"required"`
	LastName    string            `json:"last_name" binding:"required"`
	Email       string            `json:"email" binding:"required,email"`
	Phone       string            `json:"phone" binding:"omitempty,phone"`
	DateOfBirth time.Time         `json:"date_of_birth" binding:"required"`
	Gender      string            `json:"gender"`
	Address     string            `json:"address"`
	Emergency   *EmergencyContact `json:"emergency_contact"`
	Insurance   *InsuranceInfo    `json:"insurance_info"`
}

type UpdatePatientRequest struct {
	FirstName   *string           `json:"first_name"`
	LastName    *string           `json:"last_name"`
	Email       *string           `json:"email" binding:"omitempty,email"`
	Phone       *string           `json:"phone" binding:"omitempty,phone"`
	DateOfBirth *time.Time        `json:"date_of_birth"`
	Gender      *string           `json:"gender"`
	Address     *string           `json:"address"`
	Status      *string           `json:"status" binding:"omitempty,oneof=active inactive archived"`
	Emergency   *EmergencyContact `json:"emergency_contact"`
	Insurance   *InsuranceInfo    `json:"insurance_info"`
}

type PatientFilters struct {
	ClinicID   uuid.UUID
	Status     string
	SearchTerm string
	Pagination
}
