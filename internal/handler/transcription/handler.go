package transcription

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	transcriptionsvc "github.com/praxishealth/praxis-api/internal/service/transcription"
	voicesvc "github.com/praxishealth/praxis-api/internal/service/voice"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/httputil"
)

type Handler struct {
	service  *transcriptionsvc.Service
	voiceSvc *voicesvc.Service
}

func NewHandler(service *transcriptionsvc.Service, voiceSvc *voicesvc.Service) *Handler {
	return &Handler{
		service:  service,
		voiceSvc: voiceSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	transcriptions := r.Group("/transcriptions")
	{
		transcriptions.POST("", h.Transcribe)
		transcriptions.GET("/:id", h.Get)
	}
	r.POST("/voice-commands", h.MatchCommand)
}

// Transcribe accepts a multipart audio upload under the "audio" field.
func (h *Handler) Transcribe(c *gin.Context) {
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("missing audio upload", err))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("failed to read audio upload", err))
		return
	}

	var patientID *uuid.UUID
	if raw := c.PostForm("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid patient id", err))
			return
		}
		patientID = &id
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}

	transcript, err := h.service.Transcribe(c.Request.Context(), patientID, audio, contentType)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, transcript)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid transcript id", err))
		return
	}

	transcript, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, transcript)
}

func (h *Handler) MatchCommand(c *gin.Context) {
	var req model.VoiceCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}
	httputil.RespondWithSuccess(c, h.voiceSvc.Match(&req))
}
