package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/praxishealth/praxis-api/internal/config"
	"github.com/praxishealth/praxis-api/internal/model"
	analyticshandler "github.com/praxishealth/praxis-api/internal/handler/analytics"
	appointmenthandler "github.com/praxishealth/praxis-api/internal/handler/appointment"
	audithandler "github.com/praxishealth/praxis-api/internal/handler/audit"
	authhandler "github.com/praxishealth/praxis-api/internal/handler/auth"
	consultationhandler "github.com/praxishealth/praxis-api/internal/handler/consultation"
	healthhandler "github.com/praxishealth/praxis-api/internal/handler/health"
	intakehandler "github.com/praxishealth/praxis-api/internal/handler/intake"
	kioskhandler "github.com/praxishealth/praxis-api/internal/handler/kiosk"
	notehandler "github.com/praxishealth/praxis-api/internal/handler/note"
	patienthandler "github.com/praxishealth/praxis-api/internal/handler/patient"
	prometheushandler "github.com/praxishealth/praxis-api/internal/handler/prometheus"
	transcriptionhandler "github.com/praxishealth/praxis-api/internal/handler/transcription"
	"github.com/praxishealth/praxis-api/internal/middleware"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

type Handlers struct {
	Auth          *authhandler.Handler
	Patient       *patienthandler.Handler
	Appointment   *appointmenthandler.Handler
	Note          *notehandler.Handler
	Consultation  *consultationhandler.Handler
	Intake        *intakehandler.Handler
	Kiosk         *kioskhandler.Handler
	Analytics     *analyticshandler.Handler
	Transcription *transcriptionhandler.Handler
	Audit         *audithandler.Handler
	Health        *healthhandler.Handler
}

type Router struct {
	engine *gin.Engine
}

func NewRouter(
	cfg *config.Config,
	log *logger.Logger,
	authMW *middleware.AuthMiddleware,
	auditMW *middleware.AuditMiddleware,
	handlers Handlers,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	promHandler := prometheushandler.New()

	engine.Use(
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Logger(log),
		promHandler.Middleware(),
		middleware.Timeout(time.Duration(cfg.Server.TimeoutSeconds)*time.Second),
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	)

	handlers.Health.RegisterRoutes(engine)
	engine.GET("/metrics", promHandler.Handler())

	api := engine.Group("/api/v1")

	// Open endpoints: auth flows, consultation joins, kiosk devices, and
	// intake links
	handlers.Auth.RegisterRoutes(api)
	handlers.Consultation.RegisterPublicRoutes(api)
	handlers.Kiosk.RegisterPublicRoutes(api)
	handlers.Intake.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(authMW.Authenticate())
	{
		handlers.Auth.RegisterProtectedRoutes(protected)
		handlers.Patient.RegisterRoutes(protected.Group("", auditMW.Log(model.AuditEntityPatient)))
		handlers.Appointment.RegisterRoutes(protected.Group("", auditMW.Log(model.AuditEntityAppointment)))
		handlers.Consultation.RegisterRoutes(protected.Group("", auditMW.Log(model.AuditEntityConsultation)))
		handlers.Intake.RegisterRoutes(protected.Group("", auditMW.Log(model.AuditEntityIntake)))
		handlers.Kiosk.RegisterRoutes(protected.Group("", auditMW.Log(model.AuditEntityCheckin)))
		handlers.Analytics.RegisterRoutes(protected)

		clinicianOnly := protected.Group("")
		clinicianOnly.Use(authMW.RequireRole("clinician", "admin"))
		{
			handlers.Note.RegisterRoutes(clinicianOnly.Group("", auditMW.Log(model.AuditEntityNote)))
			handlers.Transcription.RegisterRoutes(clinicianOnly)
		}

		adminOnly := protected.Group("")
		adminOnly.Use(authMW.RequireRole("admin"))
		{
			handlers.Audit.RegisterRoutes(adminOnly)
		}
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
