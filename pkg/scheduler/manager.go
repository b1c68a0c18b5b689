package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

var (
	ErrAlreadyRunning = errors.New("another dbbs scheduler instance is already running")
	ErrNotStarted     = errors.New("scheduler not started")
	ErrBadInterval    = errors.New("schedule interval must be positive")
)

// RunFunc performs one scheduled job.
type RunFunc func(ctx context.Context) error

// Manager runs a job immediately and then on every tick. A file lock keeps a
// second scheduler on the same host from running the job concurrently.
type Manager struct {
	interval time.Duration
	lock     *flock.Flock
	run      RunFunc
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(interval time.Duration, lockPath string, run RunFunc, logger *zap.Logger) (*Manager, error) {
	if interval <= 0 {
		return nil, ErrBadInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		interval: interval,
		lock:     flock.New(lockPath),
		run:      run,
		logger:   logger,
	}, nil
}

// Start acquires the lock and launches the loop. The loop stops on Stop or
// when ctx is done.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		return errors.New("scheduler already started")
	}

	ok, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	m.logger.Info("scheduler started",
		zap.Duration("interval", m.interval),
		zap.String("lock", m.lock.Path()))
	go m.loop(loopCtx, m.done)
	return nil
}

func (m *Manager) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runOnce(ctx)
	for {
		select {
		case <-ticker.C:
			m.runOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) runOnce(ctx context.Context) {
	start := time.Now()
	if err := m.run(ctx); err != nil {
		m.logger.Error("scheduled run failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	m.logger.Info("scheduled run finished", zap.Duration("duration", time.Since(start)))
}

// Done is closed once the loop has exited.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Stop ends the loop, waits for an in-flight run, and releases the lock.
func (m *Manager) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if done == nil {
		return ErrNotStarted
	}

	cancel()
	<-done
	if err := m.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	m.logger.Info("scheduler stopped")
	return nil
}
