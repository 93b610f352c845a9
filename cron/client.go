package cron

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"reservely/config"

	"github.com/hibiken/asynq"
)

// RedisOpt returns the asynq connection settings for the job queue DB.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisJobQueueDB,
	}
}

// AsynqJobScheduler implements the booking engine's JobScheduler on top of
// a durable redis-backed queue, so scheduled work survives process
// restarts.
type AsynqJobScheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewAsynqJobScheduler constructs the scheduler from app config.
func NewAsynqJobScheduler() *AsynqJobScheduler {
	opt := RedisOpt()
	return &AsynqJobScheduler{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
	}
}

// ScheduleAutoComplete enqueues the booking's auto-complete job at
// endTime + delay. Cancel-then-enqueue semantics: rescheduling replaces
// any job already keyed to the booking, never leaving two live jobs.
func (s *AsynqJobScheduler) ScheduleAutoComplete(ctx context.Context, bookingID string, endTime time.Time, delayHours int) error {
	if err := s.CancelAutoComplete(ctx, bookingID); err != nil {
		return err
	}

	fireAt := FireAt(endTime, delayHours)
	task, opts, err := NewAutoCompleteTask(bookingID, fireAt)
	if err != nil {
		return fmt.Errorf("failed to build auto-complete task: %w", err)
	}
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue auto-complete for booking %s: %w", bookingID, err)
	}
	log.Printf("[JobScheduler] Scheduled %s to fire at %s (queue=%s)", info.ID, fireAt.Format(time.RFC3339), info.Queue)
	return nil
}

// CancelAutoComplete removes the booking's job if one exists. A missing
// job (already fired, already cancelled, or never scheduled) is a no-op.
func (s *AsynqJobScheduler) CancelAutoComplete(ctx context.Context, bookingID string) error {
	err := s.inspector.DeleteTask(QueueName, AutoCompleteTaskID(bookingID))
	if err == nil {
		return nil
	}
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("failed to cancel auto-complete for booking %s: %w", bookingID, err)
}

// Close releases the underlying queue connections.
func (s *AsynqJobScheduler) Close() error {
	return s.client.Close()
}
