package cron

import (
	"log"

	"github.com/hibiken/asynq"
)

// Cron specs for the maintenance jobs, fixed at startup.
const (
	// Mondays at 03:00: extend recurring availability windows.
	extendRecurringSpec = "0 3 * * 1"
	// Every day at 02:30: purge stale never-booked slots.
	cleanupPastSpec = "30 2 * * *"
)

// InitPeriodicScheduler registers the weekly and daily maintenance jobs
// and runs the scheduler in background. Missing a run is safe: the next
// run catches up, and per-occurrence dedup prevents double-processing.
func InitPeriodicScheduler() *asynq.Scheduler {
	scheduler := asynq.NewScheduler(RedisOpt(), &asynq.SchedulerOpts{})

	if _, err := scheduler.Register(extendRecurringSpec, NewExtendRecurringTask(), asynq.Queue(QueueName)); err != nil {
		log.Fatalf("[PeriodicScheduler] Failed to register %s: %v", TypeExtendRecurring, err)
	}
	if _, err := scheduler.Register(cleanupPastSpec, NewCleanupPastTask(), asynq.Queue(QueueName)); err != nil {
		log.Fatalf("[PeriodicScheduler] Failed to register %s: %v", TypeCleanupPast, err)
	}

	go func() {
		log.Println("[PeriodicScheduler] Starting periodic job scheduler...")
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[PeriodicScheduler] Failed to run: %v", err)
		}
	}()
	return scheduler
}
