package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	auditsvc "github.com/praxishealth/praxis-api/internal/service/audit"
)

type AuditMiddleware struct {
	auditSvc *auditsvc.Service
}

func NewAuditMiddleware(auditSvc *auditsvc.Service) *AuditMiddleware {
	return &AuditMiddleware{auditSvc: auditSvc}
}

// Log records every request on the group it wraps, with the action
// derived from the method. Failed requests are not recorded.
func (m *AuditMiddleware) Log(entityType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		claimed, exists := c.Get(ContextUserID)
		if !exists {
			return
		}
		actorID, ok := claimed.(uuid.UUID)
		if !ok {
			return
		}

		action := model.AuditActionRead
		switch c.Request.Method {
		case "POST":
			action = model.AuditActionCreate
		case "PUT", "PATCH":
			action = model.AuditActionUpdate
		case "DELETE":
			action = model.AuditActionDelete
		}

		var entityID *uuid.UUID
		if id, err := uuid.Parse(c.Param("id")); err == nil {
			entityID = &id
		}

		m.auditSvc.RecordAsync(&auditsvc.Entry{
			ActorID:    actorID,
			ActorRole:  c.GetString(ContextUserRole),
			Action:     action,
			EntityType: entityType,
			EntityID:   entityID,
			Detail: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"status": c.Writer.Status(),
			},
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
	}
}
