package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sellerdesk/recond/internal/cache"
	"github.com/sellerdesk/recond/internal/engine"
)

var Module = fx.Module("worker",
	fx.Provide(cache.NewTTLCache[string, engine.Report]),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

// runWorker schedules RunOnce with gocron; singleton mode stops a slow run
// from overlapping the next tick.
func runWorker(lc fx.Lifecycle, w *Worker, log *zap.Logger) error {
	if !w.enabled {
		log.Named("worker.reconcile").Info("reconciliation worker disabled")
		return nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := w.RunOnce(ctx); err != nil {
				w.log.Warn("reconciliation run failed", zap.Error(err))
			}
		}),
		gocron.WithName("reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			return scheduler.Shutdown()
		},
	})
	return nil
}
