package kiosk

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	kiosksvc "github.com/praxishealth/praxis-api/internal/service/kiosk"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/httputil"
)

type Handler struct {
	service *kiosksvc.Service
}

func NewHandler(service *kiosksvc.Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes adds the endpoints the kiosk device and waiting-room
// displays use; neither authenticates.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	kiosk := r.Group("/kiosk")
	{
		kiosk.POST("/checkin", h.CheckIn)
		kiosk.GET("/queue", h.Queue)
		kiosk.GET("/queue/stream", h.QueueStream)
	}
}

// RegisterRoutes adds the staff-facing queue controls.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	kiosk := r.Group("/kiosk")
	{
		kiosk.POST("/queue/call-next", h.CallNext)
		kiosk.POST("/checkins/:id/complete", h.Complete)
	}
}

func (h *Handler) CheckIn(c *gin.Context) {
	var req model.CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	checkin, err := h.service.CheckIn(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, checkin)
}

func (h *Handler) Queue(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid clinic id", err))
		return
	}

	queue, err := h.service.Queue(c.Request.Context(), clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, queue)
}

// QueueStream pushes queue updates over SSE to waiting-room displays.
func (h *Handler) QueueStream(c *gin.Context) {
	if _, err := uuid.Parse(c.Query("clinic_id")); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid clinic id", err))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	client := make(chan string, 8)
	h.service.Broadcaster().Register(client)
	defer h.service.Broadcaster().Unregister(client)

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("queue", msg)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *Handler) CallNext(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Query("clinic_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid clinic id", err))
		return
	}

	checkin, err := h.service.CallNext(c.Request.Context(), clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, checkin)
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid check-in id", err))
		return
	}

	checkin, err := h.service.Complete(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, checkin)
}
