// Package scheduler runs the periodic reconciliation of invite link statistics.
//
// One pass lists every link of the target chat and merges it into the store
// without an owner. A failed pass is logged and the loop carries on; the next
// pass repairs whatever the failed one missed.
package scheduler

import (
	"context"
	"fmt"
	"invitebot/entity"
	"invitebot/lib/sl"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultInterval = 300 * time.Second

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSyncing
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateSyncing:
		return "syncing"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type Lister interface {
	GetAllLinks(ctx context.Context, includeRevoked bool) ([]entity.InviteLink, error)
}

type Store interface {
	UpsertMany(ctx context.Context, links []entity.InviteLink, chatId string, ownerId *int64) error
}

type Config struct {
	ChatId         int64
	Interval       time.Duration
	IncludeRevoked bool
}

type Scheduler struct {
	lister Lister
	store  Store
	conf   Config
	log    *slog.Logger

	mu      sync.Mutex // guards state, cancel, done
	state   State
	cancel  context.CancelFunc
	done    chan struct{}
	passMu  sync.Mutex // one pass at a time, loop or on demand
	lastRun Result
}

// Result describes the latest finished pass.
type Result struct {
	RunId    string        `json:"run_id"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Links    int           `json:"links"`
	Error    string        `json:"error,omitempty"`
}

func New(lister Lister, store Store, conf Config, log *slog.Logger) *Scheduler {
	if conf.Interval <= 0 {
		conf.Interval = DefaultInterval
	}
	return &Scheduler{
		lister: lister,
		store:  store,
		conf:   conf,
		log:    log.With(sl.Module("scheduler")),
		state:  StateIdle,
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Status() string {
	return s.State().String()
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	stateGauge.Set(float64(state))
}

func (s *Scheduler) LastResult() Result {
	s.passMu.Lock()
	defer s.passMu.Unlock()
	return s.lastRun
}

// Start launches the loop in a goroutine. The loop stops when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.state = StateRunning
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.Run(ctx)
	}()
}

// Stop cancels the loop and waits until it has finished, so no write
// reaches the store after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run syncs immediately, then every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.With(
		slog.Duration("interval", s.conf.Interval),
		slog.Int64("chat_id", s.conf.ChatId),
		slog.Bool("include_revoked", s.conf.IncludeRevoked),
	).Info("started")
	defer func() {
		s.setState(StateStopped)
		s.log.Info("stopped")
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		s.setState(StateSyncing)
		_ = s.SyncNow(ctx)

		s.setState(StateSleeping)
		timer := time.NewTimer(s.conf.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Debug("stop requested while sleeping")
			return
		case <-timer.C:
		}
	}
}

// SyncNow runs one pass. Errors are logged and returned; panics are recovered.
func (s *Scheduler) SyncNow(ctx context.Context) (err error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	result := Result{
		RunId:   uuid.NewString(),
		Started: time.Now(),
	}
	log := s.log.With(slog.String("run_id", result.RunId))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sync panic: %v", r)
		}
		result.Duration = time.Since(result.Started)
		if err != nil {
			result.Error = err.Error()
			log.Error("sync failed", sl.Err(err))
		}
		s.lastRun = result
		observePass(result, err)
	}()

	links, err := s.lister.GetAllLinks(ctx, s.conf.IncludeRevoked)
	if err != nil {
		return fmt.Errorf("get links: %w", err)
	}
	result.Links = len(links)
	log.With(slog.Int("count", len(links))).Info("links received")

	if err = s.store.UpsertMany(ctx, links, strconv.FormatInt(s.conf.ChatId, 10), nil); err != nil {
		return fmt.Errorf("save links: %w", err)
	}
	log.With(slog.Duration("took", time.Since(result.Started))).Info("links saved")
	return nil
}
