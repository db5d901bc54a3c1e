package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"invitebot/entity"
)

type fakeLister struct {
	mu    sync.Mutex
	calls int
	fn    func(call int) ([]entity.InviteLink, error)
}

func (f *fakeLister) GetAllLinks(_ context.Context, _ bool) ([]entity.InviteLink, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fn(call)
}

func (f *fakeLister) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type upsert struct {
	links  []entity.InviteLink
	chatId string
	owner  *int64
}

type fakeStore struct {
	mu      sync.Mutex
	upserts []upsert
}

func (f *fakeStore) UpsertMany(_ context.Context, links []entity.InviteLink, chatId string, ownerId *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, upsert{links, chatId, ownerId})
	return nil
}

func (f *fakeStore) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSyncNowWritesWithoutOwner(t *testing.T) {
	lister := &fakeLister{fn: func(int) ([]entity.InviteLink, error) {
		return []entity.InviteLink{{Link: "a"}, {Link: "b"}}, nil
	}}
	store := &fakeStore{}
	s := New(lister, store, Config{ChatId: -1001234}, discard())

	if err := s.SyncNow(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.Count() != 1 {
		t.Fatalf("upserts = %d, want 1", store.Count())
	}
	got := store.upserts[0]
	if got.owner != nil {
		t.Errorf("owner = %v, want nil", *got.owner)
	}
	if got.chatId != "-1001234" {
		t.Errorf("chat = %q", got.chatId)
	}
	if len(got.links) != 2 {
		t.Errorf("links = %d, want 2", len(got.links))
	}
	res := s.LastResult()
	if res.RunId == "" || res.Links != 2 || res.Error != "" {
		t.Errorf("result = %+v", res)
	}
}

func TestSyncNowErrorsAreContained(t *testing.T) {
	tests := []struct {
		name string
		fn   func(int) ([]entity.InviteLink, error)
	}{
		{"error", func(int) ([]entity.InviteLink, error) { return nil, errors.New("provider down") }},
		{"panic", func(int) ([]entity.InviteLink, error) { panic("boom") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			s := New(&fakeLister{fn: tt.fn}, store, Config{}, discard())
			if err := s.SyncNow(context.Background()); err == nil {
				t.Error("expected error")
			}
			if store.Count() != 0 {
				t.Error("nothing must be written after a failed listing")
			}
			if s.LastResult().Error == "" {
				t.Error("result must carry the error")
			}
		})
	}
}

func TestLoopSurvivesFailedPass(t *testing.T) {
	lister := &fakeLister{fn: func(call int) ([]entity.InviteLink, error) {
		if call == 1 {
			return nil, errors.New("transient")
		}
		return []entity.InviteLink{{Link: "a"}}, nil
	}}
	store := &fakeStore{}
	s := New(lister, store, Config{Interval: 10 * time.Millisecond}, discard())

	s.Start(context.Background())
	waitFor(t, func() bool { return store.Count() >= 1 })
	s.Stop()

	if lister.Calls() < 2 {
		t.Errorf("calls = %d, want the loop to go on after a failure", lister.Calls())
	}
	if s.State() != StateStopped {
		t.Errorf("state = %v, want stopped", s.State())
	}
}

func TestStopDuringSleep(t *testing.T) {
	lister := &fakeLister{fn: func(int) ([]entity.InviteLink, error) { return nil, nil }}
	store := &fakeStore{}
	s := New(lister, store, Config{Interval: time.Hour}, discard())

	s.Start(context.Background())
	waitFor(t, func() bool { return s.State() == StateSleeping })

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not interrupt the sleep")
	}

	calls, writes := lister.Calls(), store.Count()
	time.Sleep(30 * time.Millisecond)
	if lister.Calls() != calls || store.Count() != writes {
		t.Error("sync ran after Stop returned")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestStartIsIdempotentAndParentCancelStops(t *testing.T) {
	lister := &fakeLister{fn: func(int) ([]entity.InviteLink, error) { return nil, nil }}
	s := New(lister, &fakeStore{}, Config{Interval: time.Hour}, discard())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	s.Start(ctx)
	waitFor(t, func() bool { return s.State() == StateSleeping })
	cancel()
	waitFor(t, func() bool { return s.State() == StateStopped })
	s.Stop()

	if lister.Calls() != 1 {
		t.Errorf("calls = %d, want a single loop", lister.Calls())
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		StateIdle:     "idle",
		StateSyncing:  "syncing",
		StateSleeping: "sleeping",
		StateStopped:  "stopped",
		State(42):     "unknown",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d: %q, want %q", state, got, want)
		}
	}
}
