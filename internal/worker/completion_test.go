package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeCompleter struct {
	completeFn func(ctx context.Context, now time.Time) (int, error)
}

func (f *fakeCompleter) CompleteElapsed(ctx context.Context, now time.Time) (int, error) {
	return f.completeFn(ctx, now)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompletionSweep_RunOnce(t *testing.T) {
	fixed := time.Date(2026, 1, 5, 18, 0, 0, 0, time.UTC)
	var gotNow time.Time
	var hadDeadline bool
	f := &fakeCompleter{completeFn: func(ctx context.Context, now time.Time) (int, error) {
		gotNow = now
		_, hadDeadline = ctx.Deadline()
		return 3, nil
	}}

	w := NewCompletionSweep(f, "@every 1m", time.Second, quietLogger())
	w.now = func() time.Time { return fixed }

	n, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if n != 3 {
		t.Fatalf("completed = %d, want 3", n)
	}
	if !gotNow.Equal(fixed) {
		t.Fatalf("now = %v, want %v", gotNow, fixed)
	}
	if !hadDeadline {
		t.Fatalf("sweep must run under a deadline")
	}
}

func TestCompletionSweep_RunOnceWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeCompleter{completeFn: func(ctx context.Context, now time.Time) (int, error) {
		return 0, boom
	}}
	w := NewCompletionSweep(f, "@every 1m", 0, quietLogger())

	if _, err := w.RunOnce(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestCompletionSweep_StartRejectsBadSchedule(t *testing.T) {
	f := &fakeCompleter{completeFn: func(ctx context.Context, now time.Time) (int, error) { return 0, nil }}
	w := NewCompletionSweep(f, "every so often", time.Second, quietLogger())

	if err := w.Start(context.Background()); err == nil {
		t.Fatalf("expected schedule parse error")
	}
}

func TestCompletionSweep_StartAndStop(t *testing.T) {
	f := &fakeCompleter{completeFn: func(ctx context.Context, now time.Time) (int, error) { return 0, nil }}
	w := NewCompletionSweep(f, "*/5 * * * *", time.Second, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if len(w.cron.Entries()) != 1 {
		t.Fatalf("entries = %d, want 1", len(w.cron.Entries()))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	w.Stop(stopCtx)
}
