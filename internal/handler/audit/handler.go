package audit

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	auditsvc "github.com/praxishealth/praxis-api/internal/service/audit"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/httputil"
)

type Handler struct {
	service *auditsvc.Service
}

func NewHandler(service *auditsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	audit := r.Group("/audit")
	{
		audit.GET("/logs", h.List)
		audit.GET("/logs/entity/:type/:id", h.ListForEntity)
	}
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AuditFilters{
		EntityType: c.Query("entity_type"),
		Action:     c.Query("action"),
	}
	if actorID, err := uuid.Parse(c.Query("actor_id")); err == nil {
		filters.ActorID = &actorID
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filters.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filters.To = &to
	}
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid pagination", err))
		return
	}
	filters.Normalize()

	logs, total, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, logs, filters.Page, filters.PageSize, total)
}

func (h *Handler) ListForEntity(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid entity id", err))
		return
	}

	filters := &model.AuditFilters{
		EntityType: c.Param("type"),
		EntityID:   &entityID,
	}
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid pagination", err))
		return
	}
	filters.Normalize()

	logs, total, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, logs, filters.Page, filters.PageSize, total)
}
