package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records who touched which record. Detail is sealed at rest
// because request metadata can carry patient information.
type AuditLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ActorID    uuid.UUID       `db:"actor_id" json:"actor_id"`
	ActorRole  string          `db:"actor_role" json:"actor_role"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   *uuid.UUID      `db:"entity_id" json:"entity_id,omitempty"`
	Detail     json.RawMessage `db:"detail" json:"detail,omitempty"`
	IPAddress  string          `db:"ip_address" json:"ip_address"`
	UserAgent  string          `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

const (
	AuditActionCreate = "create"
	AuditActionRead   = "read"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

const (
	AuditEntityPatient      = "patient"
	AuditEntityAppointment  = "appointment"
	AuditEntityNote         = "note"
	AuditEntityConsultation = "consultation"
	AuditEntityIntake       = "intake"
	AuditEntityCheckin      = "checkin"
	AuditEntityUser         = "user"
)

type AuditFilters struct {
	ActorID    *uuid.UUID
	EntityType string
	EntityID   *uuid.UUID
	Action     string
	From       *time.Time
	To         *time.Time
	Pagination
}
