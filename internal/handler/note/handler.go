package note

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/middleware"
	"github.com/praxishealth/praxis-api/internal/model"
	notesvc "github.com/praxishealth/praxis-api/internal/service/note"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/httputil"
)

type Handler struct {
	service *notesvc.Service
}

func NewHandler(service *notesvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notes := r.Group("/notes")
	{
		notes.POST("", h.Create)
		notes.POST("/generate", h.Generate)
		notes.GET("", h.List)
		notes.GET("/:id", h.Get)
		notes.PUT("/:id", h.Update)
		notes.POST("/:id/sign", h.Sign)
		notes.POST("/:id/amend", h.Amend)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	clinicianID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	note, err := h.service.Create(c.Request.Context(), clinicianID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, note)
}

func (h *Handler) Generate(c *gin.Context) {
	var req model.GenerateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	clinicianID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	note, err := h.service.Generate(c.Request.Context(), clinicianID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, note)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid note id", err))
		return
	}

	note, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, note)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.NoteFilters{
		Status: model.NoteStatus(c.Query("status")),
	}
	if patientID, err := uuid.Parse(c.Query("patient_id")); err == nil {
		filters.PatientID = patientID
	}
	if clinicianID, err := uuid.Parse(c.Query("clinician_id")); err == nil {
		filters.ClinicianID = clinicianID
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filters.StartDate = from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filters.EndDate = to
	}

	notes, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, notes)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid note id", err))
		return
	}

	var req model.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	clinicianID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	note, err := h.service.Update(c.Request.Context(), id, clinicianID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, note)
}

func (h *Handler) Sign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid note id", err))
		return
	}

	clinicianID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	note, err := h.service.Sign(c.Request.Context(), id, clinicianID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, note)
}

func (h *Handler) Amend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid note id", err))
		return
	}

	var req model.UpdateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	clinicianID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	amendment, err := h.service.Amend(c.Request.Context(), id, clinicianID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, amendment)
}
