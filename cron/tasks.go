package cron

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names on the scheduled-job surface.
const (
	TypeAutoComplete    = "auto-complete-booking"
	TypeExtendRecurring = "extend-recurring"
	TypeCleanupPast     = "cleanup-past"
)

// QueueName is the queue all booking engine jobs run on.
const QueueName = "bookings"

const maxJobRetries = 5

// AutoCompletePayload carries the target booking of a one-shot
// auto-complete job.
type AutoCompletePayload struct {
	BookingID string `json:"booking_id"`
}

// AutoCompleteTaskID derives the unique job key for a booking. Keying jobs
// this way guarantees at most one live auto-complete job per booking.
func AutoCompleteTaskID(bookingID string) string {
	return fmt.Sprintf("booking:%s:auto-complete", bookingID)
}

// FireAt computes when the auto-complete job should run.
func FireAt(endTime time.Time, delayHours int) time.Time {
	return endTime.Add(time.Duration(delayHours) * time.Hour)
}

// NewAutoCompleteTask builds the one-shot job for a booking. ProcessAt in
// the past fires as soon as a worker picks it up, which still satisfies
// "no earlier than".
func NewAutoCompleteTask(bookingID string, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(AutoCompletePayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAutoComplete, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.TaskID(AutoCompleteTaskID(bookingID)),
		asynq.Queue(QueueName),
		asynq.MaxRetry(maxJobRetries),
	}
	return task, opts, nil
}

// NewExtendRecurringTask builds the weekly rolling-window extension job.
func NewExtendRecurringTask() *asynq.Task {
	return asynq.NewTask(TypeExtendRecurring, nil)
}

// NewCleanupPastTask builds the daily stale-slot purge job.
func NewCleanupPastTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupPast, nil)
}
