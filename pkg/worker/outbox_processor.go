package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/praxishealth/praxis-api/internal/model"
	"github.com/praxishealth/praxis-api/internal/repository"
	"github.com/praxishealth/praxis-api/pkg/logger"
	"github.com/praxishealth/praxis-api/pkg/messaging"
	"github.com/praxishealth/praxis-api/pkg/metrics"
)

// EventChannel must match the channel the notification consumer subscribes
// to.
const EventChannel = "praxis.events"

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	RetainFor     time.Duration
}

// OutboxProcessor drains the outbox table and publishes events to the
// broker. Rows are claimed with row locks so multiple workers can run.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 5
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 30 * time.Second
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	var cleanup <-chan time.Time
	if p.config.RetainFor > 0 {
		cleanupTicker := time.NewTicker(time.Hour)
		defer cleanupTicker.Stop()
		cleanup = cleanupTicker.C
	}

	p.logger.Info("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("shutting down outbox processor")
			return
		case <-ticker.C:
			if err := p.processBatch(ctx); err != nil {
				p.logger.Error(err, "failed to process outbox batch")
			}
		case <-cleanup:
			deleted, err := p.repo.DeleteProcessedBefore(ctx, time.Now().Add(-p.config.RetainFor))
			if err != nil {
				p.logger.Error(err, "failed to prune processed events")
			} else if deleted > 0 {
				p.logger.Info("pruned processed events", "count", deleted)
			}
		}
	}
}

func (p *OutboxProcessor) processBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.GetPendingWithLock(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
		return fmt.Errorf("failed to get pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType)
		}
	}
	return nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	err := p.broker.Publish(ctx, EventChannel, messaging.Message{
		Type:    event.EventType,
		Payload: event.Payload,
	})
	if err == nil {
		p.metrics.OutboxEventsProcessed.Inc()
		return p.updateStatus(ctx, event, string(model.OutboxStatusProcessed), nil, nil)
	}

	if event.RetryCount+1 >= p.config.RetryAttempts {
		p.metrics.OutboxEventsFailed.Inc()
		return p.deadLetter(ctx, event, err)
	}

	p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
	errStr := err.Error()
	retryAt := time.Now().Add(p.config.RetryDelay)
	return p.updateStatus(ctx, event, string(model.OutboxStatusRetry), &errStr, &retryAt)
}

func (p *OutboxProcessor) updateStatus(ctx context.Context, event *model.OutboxEvent, status string, errMsg *string, retryAt *time.Time) error {
	tx, err := p.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	if err := p.repo.UpdateStatusTx(ctx, tx, event.ID, status, errMsg, retryAt); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update event status: %w", err)
	}
	return tx.Commit()
}

// deadLetter moves an exhausted event out of the hot table so it stops
// being picked up.
func (p *OutboxProcessor) deadLetter(ctx context.Context, event *model.OutboxEvent, cause error) error {
	tx, err := p.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	errStr := cause.Error()
	event.ErrorMessage = &errStr
	if err := p.repo.MoveToDeadLetter(ctx, tx, event); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to move event to dead letter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	p.logger.Warn("event moved to dead letter",
		"event_id", event.ID.String(),
		"event_type", event.EventType,
		"error", errStr)
	return nil
}
