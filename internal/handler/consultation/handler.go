package consultation

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/middleware"
	"github.com/praxishealth/praxis-api/internal/model"
	consultationsvc "github.com/praxishealth/praxis-api/internal/service/consultation"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/httputil"
)

type Handler struct {
	service *consultationsvc.Service
}

func NewHandler(service *consultationsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	consultations := r.Group("/consultations")
	{
		consultations.POST("", h.Create)
		consultations.GET("/:id", h.Get)
		consultations.GET("/:id/participants", h.Participants)
		consultations.POST("/:id/end", h.End)
	}
}

// RegisterPublicRoutes adds the join endpoints patients reach without an
// account.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	consultations := r.Group("/consultations")
	{
		consultations.POST("/join", h.Join)
		consultations.POST("/participants/:id/leave", h.Leave)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	consultation, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, consultation)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid consultation id", err))
		return
	}

	consultation, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, consultation)
}

func (h *Handler) Join(c *gin.Context) {
	var req model.JoinConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	consultation, participant, err := h.service.Join(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{
		"consultation": consultation,
		"participant":  participant,
	})
}

func (h *Handler) Leave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid participant id", err))
		return
	}

	if err := h.service.Leave(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"left": true})
}

func (h *Handler) End(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid consultation id", err))
		return
	}

	clinicianID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	consultation, err := h.service.End(c.Request.Context(), id, clinicianID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, consultation)
}

func (h *Handler) Participants(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid consultation id", err))
		return
	}

	participants, err := h.service.Participants(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, participants)
}
