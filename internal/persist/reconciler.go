package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/labstack/gommon/log"
)

// StartReconciler schedules w.Reconcile every interval.  The returned
// scheduler must be shut down by the caller.
func StartReconciler(w *Writer, every time.Duration, logger *log.Logger) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), every)
			defer cancel()
			w.Reconcile(ctx)
		}),
		gocron.WithName("reconcile-divergences"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule reconcile: %w", err)
	}
	s.Start()
	logger.Infof("reconciler scheduled every %s", every)
	return s, nil
}
