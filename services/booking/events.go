package booking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"reservely/utils"
)

// dispatchTask is one independent fire-and-forget side effect (a
// notification send, an event emission).
type dispatchTask struct {
	name string
	fn   func(ctx context.Context) error
}

// dispatchAll runs every task concurrently, waits for all of them, and
// logs failures. One failing task never cancels the others, and no
// failure here propagates to the caller: bookings that are already
// persisted must not be rolled back by a notification problem.
func dispatchAll(parent context.Context, tasks []dispatchTask) {
	ctx, cancel := context.WithTimeout(parent, 15*time.Second)
	defer cancel()

	logger := utils.GetLogger()

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(t dispatchTask) {
			defer wg.Done()
			if err := t.fn(ctx); err != nil {
				logger.Warn("dispatch task failed",
					zap.String("task", t.name),
					zap.Error(err),
				)
				return
			}
			utils.GetMetrics().NotificationsSent.Inc()
		}(task)
	}
	wg.Wait()
}

// dispatchAsync detaches the fan-out from the request, giving the tasks
// their own deadline.
func dispatchAsync(tasks []dispatchTask) {
	go dispatchAll(context.Background(), tasks)
}
