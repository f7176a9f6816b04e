package analytics

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	analyticssvc "github.com/praxishealth/praxis-api/internal/service/analytics"
	apperrors "github.com/praxishealth/praxis-api/pkg/errors"
	"github.com/praxishealth/praxis-api/pkg/httputil"
)

type Handler struct {
	service *analyticssvc.Service
}

func NewHandler(service *analyticssvc.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	analytics := r.Group("/analytics")
	{
		analytics.POST("/lab-results", h.RecordResult)
		analytics.GET("/lab-results", h.ListResults)
		analytics.POST("/analyze-labs", h.AnalyzeLabs)
		analytics.POST("/detect-outliers", h.DetectOutliers)
		analytics.POST("/biomarker-trends", h.BiomarkerTrends)
		analytics.POST("/risk-assessment", h.RiskAssessment)
		analytics.POST("/generate-insights", h.GenerateInsights)
	}
}

func (h *Handler) RecordResult(c *gin.Context) {
	var req model.CreateLabResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	result, err := h.service.RecordResult(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, result)
}

func (h *Handler) ListResults(c *gin.Context) {
	patientID, err := uuid.Parse(c.Query("patient_id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid patient id", err))
		return
	}

	results, err := h.service.ListResults(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, results)
}

func (h *Handler) AnalyzeLabs(c *gin.Context) {
	var req model.LabAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}
	httputil.RespondWithSuccess(c, h.service.AnalyzeLabs(req.LabValues))
}

func (h *Handler) DetectOutliers(c *gin.Context) {
	var req model.LabAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}
	httputil.RespondWithSuccess(c, h.service.DetectOutliers(req.LabValues))
}

func (h *Handler) BiomarkerTrends(c *gin.Context) {
	var req model.TrendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}

	analysis, err := h.service.BiomarkerTrends(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, analysis)
}

func (h *Handler) RiskAssessment(c *gin.Context) {
	var req model.LabAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}
	httputil.RespondWithSuccess(c, h.service.AssessRisk(req.LabValues))
}

func (h *Handler) GenerateInsights(c *gin.Context) {
	var req model.LabAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request", err))
		return
	}
	httputil.RespondWithSuccess(c, h.service.GenerateInsights(req.LabValues))
}
