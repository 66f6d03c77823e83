package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"syscall"
	"testing"
	"time"
)

func quietHandler(timeout time.Duration, opts ...Option) *Handler {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewHandler(timeout, opts...)
}

func TestHandler_Done_NotClosedInitially(t *testing.T) {
	h := quietHandler(time.Second)

	select {
	case <-h.Done():
		t.Fatal("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_Trigger_RunsHooksInReverse(t *testing.T) {
	h := quietHandler(time.Second, WithSignals())

	var mu sync.Mutex
	var order []string
	record := func(name string) Hook {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	h.OnShutdown("storage", record("storage"))
	h.OnShutdown("tracer", record("tracer"))
	h.OnShutdown("http", record("http"))

	h.Trigger("test")
	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	want := []string{"http", "tracer", "storage"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait")
	}
}

func TestHandler_Wait_JoinsHookErrors(t *testing.T) {
	h := quietHandler(time.Second, WithSignals())

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	called := false
	h.OnShutdown("a", func(context.Context) error { return errA })
	h.OnShutdown("ok", func(context.Context) error { called = true; return nil })
	h.OnShutdown("b", func(context.Context) error { return errB })

	h.Trigger("test")
	err := h.Wait(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("Wait() error = %v, want both hook errors", err)
	}
	if !called {
		t.Error("a failing hook must not stop later hooks")
	}
}

func TestHandler_Wait_ContextCanceled(t *testing.T) {
	h := quietHandler(time.Second, WithSignals())

	var deadline time.Time
	h.OnShutdown("flush", func(ctx context.Context) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		deadline, _ = ctx.Deadline()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if deadline.IsZero() {
		t.Error("hook context should carry the shutdown deadline")
	}
}

func TestHandler_Wait_Timeout(t *testing.T) {
	h := quietHandler(20*time.Millisecond, WithSignals())

	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	h.Trigger("test")
	err := h.Wait(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := quietHandler(time.Second, WithSignals(syscall.SIGUSR1))

	ran := make(chan struct{})
	h.OnShutdown("flush", func(context.Context) error {
		close(ran)
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()

	// Give signal.Notify time to register before raising.
	time.Sleep(20 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after signal")
	}
	<-ran
}

func TestHandler_Trigger_KeepsFirstReason(t *testing.T) {
	h := quietHandler(time.Second, WithSignals())

	h.Trigger("first")
	h.Trigger("second")

	if got := <-h.trigger; got != "first" {
		t.Errorf("trigger reason = %q, want %q", got, "first")
	}
}
