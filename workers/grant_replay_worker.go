// workers/grant_replay_worker.go
package workers

import (
	"context"
	"fmt"
	"time"

	"battle-pass-service/services"
	"battle-pass-service/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// GrantReplayWorker re-delivers benefit grants that are still pending after their claim
// committed, e.g. because the benefit service was down at claim time.
type GrantReplayWorker struct {
	dispatcher *services.GrantDispatcher
	interval   time.Duration
	batch      int
	log        *logrus.Entry
	scheduler  gocron.Scheduler
}

func NewGrantReplayWorker(dispatcher *services.GrantDispatcher, interval time.Duration, batch int, log *logrus.Entry) *GrantReplayWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 100
	}
	return &GrantReplayWorker{
		dispatcher: dispatcher,
		interval:   interval,
		batch:      batch,
		log:        log,
	}
}

// RunOnce replays one batch of pending grants.
func (w *GrantReplayWorker) RunOnce(ctx context.Context) (delivered, failed int, err error) {
	ctx, runID := utils.EnsureRequestID(ctx)
	log := w.log.WithField("request_id", runID)

	delivered, failed, err = w.dispatcher.ReplayPending(ctx, w.batch)
	if err != nil {
		log.WithError(err).Error("[REPLAY] batch failed")
		return delivered, failed, err
	}
	if delivered+failed > 0 {
		log.WithFields(logrus.Fields{
			"delivered": delivered,
			"failed":    failed,
		}).Info("[REPLAY] batch done")
	}
	return delivered, failed, nil
}

// Start schedules RunOnce every interval, starting immediately. Overlapping runs are skipped.
func (w *GrantReplayWorker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			_, _, _ = w.RunOnce(ctx)
		}),
		gocron.WithName("grant-replay"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to schedule grant replay: %w", err)
	}

	sched.Start()
	w.scheduler = sched
	w.log.WithField("interval", w.interval.String()).Info("[REPLAY] worker started")
	return nil
}

// Stop waits for a running batch to finish and stops the schedule.
func (w *GrantReplayWorker) Stop() error {
	if w.scheduler == nil {
		return nil
	}
	err := w.scheduler.Shutdown()
	w.scheduler = nil
	return err
}
