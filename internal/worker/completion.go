package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type completer interface {
	CompleteElapsed(ctx context.Context, now time.Time) (int, error)
}

// CompletionSweep periodically marks confirmed appointments whose end has
// passed as completed.
type CompletionSweep struct {
	svc      completer
	schedule string
	timeout  time.Duration
	log      *slog.Logger
	now      func() time.Time
	cron     *cron.Cron
}

func NewCompletionSweep(svc completer, schedule string, timeout time.Duration, log *slog.Logger) *CompletionSweep {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	log = log.With("component", "worker.completion")
	return &CompletionSweep{
		svc:      svc,
		schedule: schedule,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: log})),
		),
	}
}

// RunOnce performs a single sweep.
func (w *CompletionSweep) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	n, err := w.svc.CompleteElapsed(ctx, w.now())
	if err != nil {
		return 0, fmt.Errorf("completion sweep: %w", err)
	}
	if n > 0 {
		w.log.InfoContext(ctx, "appointments completed", "count", n)
	} else {
		w.log.DebugContext(ctx, "no appointments to complete")
	}
	return n, nil
}

// Start schedules the sweep and returns immediately. Runs stop being
// scheduled once ctx is done.
func (w *CompletionSweep) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		if _, err := w.RunOnce(ctx); err != nil {
			w.log.ErrorContext(ctx, "completion sweep failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", w.schedule, err)
	}
	w.cron.Start()
	w.log.Info("completion sweep scheduled", "schedule", w.schedule)

	go func() {
		<-ctx.Done()
		w.cron.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to
// expire.
func (w *CompletionSweep) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		w.log.Warn("completion sweep still running at shutdown")
	}
}

type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{"err", err}, keysAndValues...)...)
}
