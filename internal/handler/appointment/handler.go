package appointment

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	appointmentsvc "github.com/praxishealth/praxis-api/internal/service/appointment"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/httputil"
)

type Handler struct {
	service *appointmentsvc.Service
}

func NewHandler(service *appointmentsvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.Create)
		appointments.GET("", h.List)
		appointments.GET("/availability", h.Availability)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id", h.Update)
		appointments.POST("/:id/cancel", h.Cancel)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	appointment, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appointment)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment id", err))
		return
	}

	appointment, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) List(c *gin.Context) {
	filters := &model.AppointmentFilters{
		Status: model.AppointmentStatus(c.Query("status")),
	}
	if clinicID, err := uuid.Parse(c.Query("clinic_id")); err == nil {
		filters.ClinicID = clinicID
	}
	if clinicianID, err := uuid.Parse(c.Query("clinician_id")); err == nil {
		filters.ClinicianID = clinicianID
	}
	if patientID, err := uuid.Parse(c.Query("patient_id")); err == nil {
		filters.PatientID = patientID
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filters.StartDate = from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filters.EndDate = to
	}

	appointments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment id", err))
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	appointment, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid appointment id", err))
		return
	}

	var req struct {
		Reason string `json:"reason" binding:"required,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	appointment, err := h.service.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) Availability(c *gin.Context) {
	clinicianID, err := uuid.Parse(c.Query("clinician_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid clinician id", err))
		return
	}

	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid date, expected YYYY-MM-DD", err))
		return
	}

	slotMinutes := 30
	if v := c.Query("slot_minutes"); v != "" {
		if parsed, err := time.ParseDuration(v + "m"); err == nil && parsed > 0 {
			slotMinutes = int(parsed.Minutes())
		}
	}

	// Working hours 08:00-18:00 local time
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, time.Local)
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), 18, 0, 0, 0, time.Local)

	slots, err := h.service.Availability(c.Request.Context(), clinicianID, dayStart, dayEnd, time.Duration(slotMinutes)*time.Minute)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}
