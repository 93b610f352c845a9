package cron

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"reservely/config"
	availabilityRepo "reservely/database/repository/availability"
	"reservely/services/booking"
	"reservely/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitWorker runs the async job worker in background.
func InitWorker(bookingSvc booking.BookingService, slots availabilityRepo.AvailabilityRepository) {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				QueueName: 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(reportJobFailure),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAutoComplete, handleAutoComplete(bookingSvc))
	mux.HandleFunc(TypeExtendRecurring, handleExtendRecurring(slots))
	mux.HandleFunc(TypeCleanupPast, handleCleanupPast(slots))

	// Start async worker with retry logic
	go func() {
		log.Println("[Worker] Starting async job worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Worker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[Worker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

// reportJobFailure surfaces jobs that exhausted their retry budget to the
// operational-visibility channel instead of dropping them silently.
func reportJobFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried >= maxRetry {
		utils.GetMetrics().JobsFailed.WithLabelValues(task.Type()).Inc()
		utils.GetLogger().Error("job failed permanently; retry budget exhausted",
			zap.String("task", task.Type()),
			zap.ByteString("payload", task.Payload()),
			zap.Error(err),
		)
		return
	}
	utils.GetLogger().Warn("job failed; will retry with backoff",
		zap.String("task", task.Type()),
		zap.Int("retried", retried),
		zap.Int("max_retry", maxRetry),
		zap.Error(err),
	)
}

func handleAutoComplete(svc booking.BookingService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p AutoCompletePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[AutoCompleteHandler] Invalid payload: %v", err)
			return err
		}

		log.Printf("[AutoCompleteHandler] Firing auto-complete for booking %s", p.BookingID)

		err := svc.AutoComplete(ctx, p.BookingID)
		if err != nil {
			var notFound *booking.NotFoundError
			if errors.As(err, &notFound) {
				// Nothing to retry against.
				log.Printf("[AutoCompleteHandler] Booking %s gone; dropping job", p.BookingID)
				return nil
			}
			log.Printf("[AutoCompleteHandler] Failed: %v", err)
		}
		return err
	}
}

// handleExtendRecurring keeps every active template materialized out to a
// fixed target window of now + horizon weeks. The window is absolute, not
// relative to existing slots, so re-runs and catch-up runs converge on the
// same set of occurrences; the unique occurrence index dedups the overlap.
func handleExtendRecurring(slots availabilityRepo.AvailabilityRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		horizon := config.AppConfig.RecurringHorizonWeeks
		templates, err := slots.ActiveTemplates(ctx)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		target := now.AddDate(0, 0, 7*horizon)
		log.Printf("[ExtendRecurring] Extending %d active templates out to %s", len(templates), target.Format("2006-01-02"))

		for i := range templates {
			tpl := templates[i]

			latest, err := slots.LatestOccurrence(ctx, tpl.ID)
			if err != nil {
				return err
			}
			base := latest
			if base.Before(now) {
				base = now
			}

			for date := nextWeekday(base, tpl.Weekday); date.Before(target); date = date.AddDate(0, 0, 7) {
				if _, err := slots.MaterializeRecurringInstance(ctx, &tpl, date); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func handleCleanupPast(slots availabilityRepo.AvailabilityRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		retention := time.Duration(config.AppConfig.SlotRetentionDays) * 24 * time.Hour
		olderThan := time.Now().UTC().Add(-retention)

		deleted, err := slots.DeleteStaleUnbooked(ctx, olderThan)
		if err != nil {
			return err
		}
		log.Printf("[CleanupPast] Purged %d stale unbooked slots older than %s", deleted, olderThan.Format("2006-01-02"))
		return nil
	}
}

// nextWeekday returns the first date strictly after t that falls on the
// given weekday.
func nextWeekday(t time.Time, weekday time.Weekday) time.Time {
	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	for date.Weekday() != weekday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}
