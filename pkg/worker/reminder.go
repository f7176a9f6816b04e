package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	"github.com/praxishealth/praxis-api/pkg/logger"
)

type ReminderConfig struct {
	// LeadTime is how far ahead of the start time reminders go out.
	LeadTime     time.Duration
	PollInterval time.Duration
}

// ReminderWorker finds upcoming appointments and queues reminder events
// through the outbox. The notification consumer does the actual sending.
type ReminderWorker struct {
	appointmentRepo repository.AppointmentRepository
	outboxRepo      repository.OutboxRepository
	config          ReminderConfig
	logger          *logger.Logger
}

func NewReminderWorker(
	appointmentRepo repository.AppointmentRepository,
	outboxRepo repository.OutboxRepository,
	config ReminderConfig,
	logger *logger.Logger,
) *ReminderWorker {
	if config.LeadTime <= 0 {
		config.LeadTime = 24 * time.Hour
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 15 * time.Minute
	}
	return &ReminderWorker{
		appointmentRepo: appointmentRepo,
		outboxRepo:      outboxRepo,
		config:          config,
		logger:          logger,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.logger.Info("starting reminder worker")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("shutting down reminder worker")
			return
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				w.logger.Error(err, "reminder sweep failed")
			}
		}
	}
}

func (w *ReminderWorker) sweep(ctx context.Context) error {
	now := time.Now()
	appointments, err := w.appointmentRepo.ListForReminder(ctx, now, now.Add(w.config.LeadTime))
	if err != nil {
		return fmt.Errorf("failed to list appointments for reminder: %w", err)
	}

	for _, a := range appointments {
		if err := w.queueReminder(ctx, a); err != nil {
			w.logger.Error(err, "failed to queue reminder", "appointment_id", a.ID.String())
			continue
		}
		if err := w.appointmentRepo.MarkReminderSent(ctx, a.ID); err != nil {
			w.logger.Error(err, "failed to mark reminder sent", "appointment_id", a.ID.String())
		}
	}
	return nil
}

func (w *ReminderWorker) queueReminder(ctx context.Context, a *model.Appointment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal appointment: %w", err)
	}
	return w.outboxRepo.Create(ctx, &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: model.EventAppointmentReminder,
		Payload:   payload,
		Status:    string(model.OutboxStatusPending),
	})
}
