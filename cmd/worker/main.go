package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/praxishealth/praxis-api/internal/config"
	"github.com/praxishealth/praxis-api/internal/email"
	"github.com/praxishealth/praxis-api/internal/repository/postgres"
	notificationsvc "github.com/praxishealth/praxis-api/internal/service/notification"
	"github.com/praxishealth/praxis-api/internal/sms"
	"github.com/praxishealth/praxis-api/pkg/logger"
	"github.com/praxishealth/praxis-api/pkg/messaging/redis"
	"github.com/praxishealth/praxis-api/pkg/metrics"
	"github.com/praxishealth/praxis-api/pkg/worker"
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

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	redisURL := fmt.Sprintf("redis://:%s@%s/%d", cfg.Redis.Password, cfg.Redis.Addr, cfg.Redis.DB)
	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          redisURL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}, &log.ZL)
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("praxis", "worker")

	outboxRepo := postgres.NewOutboxRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	userRepo := postgres.NewUserRepository(db)

	emailSvc := email.NewSMTPService(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		BaseURL:  cfg.SMTP.BaseURL,
	})
	smsSender := sms.NewTwilioSender(sms.Config{
		AccountSID: cfg.SMS.AccountSID,
		AuthToken:  cfg.SMS.AuthToken,
		From:       cfg.SMS.From,
	}, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    cfg.Outbox.RetryDelay,
		RetainFor:     cfg.Outbox.RetainFor,
	}, log, m)

	reminderWorker := worker.NewReminderWorker(appointmentRepo, outboxRepo, worker.ReminderConfig{}, log)

	auditCleanup := worker.NewAuditCleanupWorker(auditRepo, worker.AuditCleanupConfig{
		RetentionDays: cfg.Audit.RetentionDays,
		Interval:      cfg.Audit.CleanupInterval,
	}, log)

	notifier := notificationsvc.NewService(broker, emailSvc, smsSender, patientRepo, userRepo, log)
	if err := notifier.Start(ctx); err != nil {
		log.Fatal(err, "failed to start notification consumer")
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		outboxProcessor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		reminderWorker.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		auditCleanup.Start(ctx)
	}()

	startHealthServer(log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down workers")
	cancel()
	wg.Wait()
}

func startHealthServer(log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			log.Error(err, "health server failed")
		}
	}()
}
