package intake

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	intakesvc "github.com/praxishealth/praxis-api/internal/service/intake"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/httputil"
)

type Handler struct {
	service *intakesvc.Service
}

func NewHandler(service *intakesvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	intake := r.Group("/intake")
	{
		intake.POST("/forms", h.CreateForm)
		intake.GET("/forms", h.ListForms)
		intake.POST("/forms/:id/deactivate", h.DeactivateForm)
		intake.GET("/forms/:id/responses", h.ListResponses)
		intake.GET("/responses/:id", h.GetResponse)
		intake.POST("/responses/:id/summarize", h.Summarize)
	}
}

// RegisterPublicRoutes adds the endpoints patients use from the kiosk or a
// pre-visit link.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	intake := r.Group("/intake")
	{
		intake.GET("/forms/:id", h.GetForm)
		intake.POST("/forms/:id/responses", h.Submit)
	}
}

func (h *Handler) CreateForm(c *gin.Context) {
	var req model.CreateIntakeFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	form, err := h.service.CreateForm(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, form)
}

func (h *Handler) GetForm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid form id", err))
		return
	}

	form, err := h.service.GetForm(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, form)
}

func (h *Handler) ListForms(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid clinic id", err))
		return
	}
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "true"))

	forms, err := h.service.ListForms(c.Request.Context(), clinicID, activeOnly)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, forms)
}

func (h *Handler) DeactivateForm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid form id", err))
		return
	}

	form, err := h.service.DeactivateForm(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, form)
}

func (h *Handler) Submit(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid form id", err))
		return
	}

	var req model.SubmitIntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), formID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, resp)
}

func (h *Handler) GetResponse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid response id", err))
		return
	}

	resp, err := h.service.GetResponse(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}

func (h *Handler) ListResponses(c *gin.Context) {
	formID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid form id", err))
		return
	}

	responses, err := h.service.ListResponses(c.Request.Context(), formID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, responses)
}

func (h *Handler) Summarize(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid response id", err))
		return
	}

	resp, err := h.service.Summarize(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, resp)
}
