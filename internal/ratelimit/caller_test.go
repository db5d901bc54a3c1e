package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type sleepRecorder struct {
	calls []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func newTestCaller() (*Caller, *sleepRecorder) {
	rec := &sleepRecorder{}
	c := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.Sleep = rec.sleep
	return c, rec
}

func TestCallFloodWaitOnceThenSuccess(t *testing.T) {
	c, rec := newTestCaller()
	calls := 0
	err := c.Call(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return FloodWait(2*time.Second, errors.New("FLOOD_WAIT_2"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("sleeps = %d, want 1", len(rec.calls))
	}
	if want := 2*time.Second + DefaultFloodExtra; rec.calls[0] != want {
		t.Errorf("slept %s, want %s", rec.calls[0], want)
	}
}

func TestCallFloodWaitIsNotCapped(t *testing.T) {
	c, rec := newTestCaller()
	calls := 0
	err := c.Call(context.Background(), func(ctx context.Context) error {
		calls++
		if calls <= 20 {
			return FloodWait(time.Second, nil)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if len(rec.calls) != 20 {
		t.Errorf("sleeps = %d, want 20", len(rec.calls))
	}
}

func TestCallTransientExceedsRetries(t *testing.T) {
	c, rec := newTestCaller()
	cause := errors.New("RPC_CALL_FAIL")
	calls := 0
	err := c.Call(context.Background(), func(ctx context.Context) error {
		calls++
		return Transient(cause)
	})
	if !errors.Is(err, cause) {
		t.Fatalf("Call() error = %v, want %v", err, cause)
	}
	if calls != DefaultMaxRetries+1 {
		t.Errorf("calls = %d, want %d", calls, DefaultMaxRetries+1)
	}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second, 8 * time.Second}
	if len(rec.calls) != len(want) {
		t.Fatalf("sleeps = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("sleep[%d] = %s, want %s", i, rec.calls[i], want[i])
		}
	}
}

func TestCallTransientRecovers(t *testing.T) {
	c, rec := newTestCaller()
	retries := 0
	c.OnRetry = func(attempt int, err error) { retries = attempt }
	calls := 0
	err := c.Call(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Transient(errors.New("timeout"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if retries != 2 || len(rec.calls) != 2 {
		t.Errorf("retries = %d, sleeps = %d, want 2 and 2", retries, len(rec.calls))
	}
}

func TestCallFatalPropagatesImmediately(t *testing.T) {
	c, rec := newTestCaller()
	fatal := errors.New("CHAT_ADMIN_REQUIRED")
	calls := 0
	err := c.Call(context.Background(), func(ctx context.Context) error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("Call() error = %v, want %v", err, fatal)
	}
	if calls != 1 || len(rec.calls) != 0 {
		t.Errorf("calls = %d, sleeps = %d, want 1 and 0", calls, len(rec.calls))
	}
}

func TestCallCancelledDuringWait(t *testing.T) {
	c := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Call(ctx, func(ctx context.Context) error {
		return FloodWait(time.Hour, nil)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Call() error = %v, want context.Canceled", err)
	}
}

func TestDo(t *testing.T) {
	c, _ := newTestCaller()
	calls := 0
	v, err := Do(context.Background(), c, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", FloodWait(0, nil)
		}
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("Do() = %q, %v", v, err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, OutcomeOk},
		{FloodWait(time.Second, nil), OutcomeRateLimited},
		{Transient(errors.New("x")), OutcomeTransient},
		{errors.New("x"), OutcomeFatal},
	}
	for _, tt := range tests {
		if got := Classify(tt.err).Kind; got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestPacer(t *testing.T) {
	p := Pacer{Base: 300 * time.Millisecond, Jitter: 200 * time.Millisecond}
	for i := 0; i < 50; i++ {
		d := p.Delay()
		if d < 300*time.Millisecond || d >= 500*time.Millisecond {
			t.Fatalf("Delay() = %s out of range", d)
		}
	}
	if (Pacer{}).Delay() != 0 {
		t.Error("zero pacer must not delay")
	}
	rec := &sleepRecorder{}
	p.Sleep = rec.sleep
	if err := p.Pace(context.Background()); err != nil || len(rec.calls) != 1 {
		t.Errorf("Pace() = %v, sleeps %d", err, len(rec.calls))
	}
}
