package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/praxishealth/praxis-api/internal/ai"
	"github.com/praxishealth/praxis-api/internal/config"
	"github.com/praxishealth/praxis-api/internal/email"
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
	transcriptionhandler "github.com/praxishealth/praxis-api/internal/handler/transcription"
	"github.com/praxishealth/praxis-api/internal/middleware"
	"github.com/praxishealth/praxis-api/internal/repository/postgres"
	"github.com/praxishealth/praxis-api/internal/router"
	analyticssvc "github.com/praxishealth/praxis-api/internal/service/analytics"
	appointmentsvc "github.com/praxishealth/praxis-api/internal/service/appointment"
	auditsvc "github.com/praxishealth/praxis-api/internal/service/audit"
	authsvc "github.com/praxishealth/praxis-api/internal/service/auth"
	consultationsvc "github.com/praxishealth/praxis-api/internal/service/consultation"
	intakesvc "github.com/praxishealth/praxis-api/internal/service/intake"
	kiosksvc "github.com/praxishealth/praxis-api/internal/service/kiosk"
	notesvc "github.com/praxishealth/praxis-api/internal/service/note"
	patientsvc "github.com/praxishealth/praxis-api/internal/service/patient"
	transcriptionsvc "github.com/praxishealth/praxis-api/internal/service/transcription"
	voicesvc "github.com/praxishealth/praxis-api/internal/service/voice"
	"github.com/praxishealth/praxis-api/pkg/auth"
	"github.com/praxishealth/praxis-api/pkg/logger"
	"github.com/praxishealth/praxis-api/pkg/metrics"
	"github.com/praxishealth/praxis-api/pkg/security"
	"github.com/praxishealth/praxis-api/pkg/sse"
	"github.com/praxishealth/praxis-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Log.Pretty,
	})

	if err := validator.RegisterCustom(); err != nil {
		log.Fatal(err, "failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	m := metrics.NewMetrics("praxis", "api")

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	noteRepo := postgres.NewNoteRepository(db)
	transcriptRepo := postgres.NewTranscriptRepository(db)
	consultationRepo := postgres.NewConsultationRepository(db)
	intakeRepo := postgres.NewIntakeRepository(db)
	checkinRepo := postgres.NewCheckinRepository(db)
	labRepo := postgres.NewLabResultRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// External clients
	aiTimeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	chatClient := ai.NewChatClient(ai.ChatClientConfig{
		APIKey:  cfg.AI.OpenAIKey,
		Model:   cfg.AI.OpenAIModel,
		Timeout: aiTimeout,
	}, m)
	sttClient := ai.NewTranscriptionClient(ai.TranscriptionClientConfig{
		APIKey:  cfg.AI.DeepgramKey,
		Timeout: aiTimeout,
	}, m)
	emailSvc := email.NewSMTPService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		BaseURL:  cfg.SMTP.BaseURL,
	})
	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(0)
	auditEncryptor, err := security.NewAESEncryptorFromSecret(cfg.Audit.EncryptionSecret)
	if err != nil {
		log.Fatal(err, "failed to build audit encryptor")
	}

	// Services
	authService := authsvc.NewService(userRepo, tokenRepo, jwtSvc, emailSvc, hasher, log)
	patientService := patientsvc.NewService(patientRepo, outboxRepo, log)
	appointmentService := appointmentsvc.NewService(appointmentRepo, outboxRepo, log)
	noteService := notesvc.NewService(noteRepo, transcriptRepo, outboxRepo, chatClient, log)
	consultationService := consultationsvc.NewService(consultationRepo, appointmentRepo, outboxRepo, log)
	intakeService := intakesvc.NewService(intakeRepo, chatClient, log)
	kioskService := kiosksvc.NewService(checkinRepo, patientRepo, appointmentRepo, outboxRepo, sse.NewBroadcaster(), m, log)
	analyticsService := analyticssvc.NewService(labRepo, log)
	transcriptionService := transcriptionsvc.NewService(transcriptRepo, sttClient, log)
	voiceService := voicesvc.NewService()
	auditService := auditsvc.NewService(auditRepo, auditEncryptor, log)

	authMW := middleware.NewAuthMiddleware(jwtSvc)
	auditMW := middleware.NewAuditMiddleware(auditService)

	r := router.NewRouter(cfg, log, authMW, auditMW, router.Handlers{
		Auth:          authhandler.NewHandler(authService),
		Patient:       patienthandler.NewHandler(patientService),
		Appointment:   appointmenthandler.NewHandler(appointmentService),
		Note:          notehandler.NewHandler(noteService),
		Consultation:  consultationhandler.NewHandler(consultationService),
		Intake:        intakehandler.NewHandler(intakeService),
		Kiosk:         kioskhandler.NewHandler(kioskService),
		Analytics:     analyticshandler.NewHandler(analyticsService),
		Transcription: transcriptionhandler.NewHandler(transcriptionService, voiceService),
		Audit:         audithandler.NewHandler(auditService),
		Health:        healthhandler.NewHandler(db, redisClient),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: 2 * time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
}
