package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/errandly/errandly/internal/dao"
	"github.com/errandly/errandly/internal/logging"
	"github.com/errandly/errandly/internal/metrics"
)

// Locker gates one sweep pass at a time across replicas. A nil-safe no-op
// implementation is used when no coordination backend is configured.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

type NoopLocker struct{}

func (NoopLocker) TryLock(ctx context.Context) (bool, error) { return true, nil }
func (NoopLocker) Unlock(ctx context.Context) error          { return nil }

type SweeperConfig struct {
	Interval   time.Duration
	Expiration time.Duration
	BatchLimit int
	// Parallelism bounds concurrent expirations within one pass.
	Parallelism int
}

// Sweeper cancels accepted tasks whose executor went silent past the
// expiration duration. It owns its own ticker lifecycle and an injected
// clock, so tests run a single pass against a fake time source.
type Sweeper struct {
	taskDao dao.TaskDao
	locker  Locker

	interval    time.Duration
	expiration  time.Duration
	batchLimit  int
	parallelism int

	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSweeper(cfg SweeperConfig, taskDao dao.TaskDao, locker Locker) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 24 * time.Hour
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 500
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if locker == nil {
		locker = NoopLocker{}
	}
	return &Sweeper{
		taskDao:     taskDao,
		locker:      locker,
		interval:    cfg.Interval,
		expiration:  cfg.Expiration,
		batchLimit:  cfg.BatchLimit,
		parallelism: cfg.Parallelism,
		now:         time.Now,
	}
}

// SetClock substitutes the wall-clock source, for tests.
func (s *Sweeper) SetClock(now func() time.Time) { s.now = now }

func (s *Sweeper) Start() {
	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				s.tick(loopCtx)
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) tick(ctx context.Context) {
	acquired, err := s.locker.TryLock(ctx)
	if err != nil {
		logging.Errorf(ctx, "sweeper lock: %v", err)
		return
	}
	if !acquired {
		return // another replica is sweeping
	}
	defer func() {
		if err := s.locker.Unlock(ctx); err != nil {
			logging.Errorf(ctx, "sweeper unlock: %v", err)
		}
	}()
	if err := s.Sweep(ctx); err != nil {
		logging.Errorf(ctx, "sweep finished with errors: %v", err)
	}
}

// Sweep runs one expiration pass. Tasks are expired independently; one
// failure never aborts the rest, the pass is idempotent, and a task
// concurrently canceled or completed simply loses the conditional update
// and is skipped.
func (s *Sweeper) Sweep(ctx context.Context) error {
	started := s.now()
	cutoff := started.Add(-s.expiration)
	tasks, err := s.taskDao.ListAcceptedBefore(ctx, cutoff, s.batchLimit)
	if err != nil {
		return fmt.Errorf("list expired candidates: %w", err)
	}
	if len(tasks) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		errs error
	)
	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for _, t := range tasks {
		g.Go(func() error {
			done, err := s.taskDao.MarkExpired(ctx, t.ID, cutoff, s.now())
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("expire task %d: %w", t.ID, err))
				mu.Unlock()
				return nil
			}
			if !done {
				// Lost to a concurrent complete/cancel; nothing to do.
				return nil
			}
			metrics.TasksExpired.Inc()
			logging.Infof(ctx, "task expired id=%d accepted_at=%s", t.ID, t.AcceptedTime.Format(time.RFC3339))
			return nil
		})
	}
	_ = g.Wait()
	metrics.SweepDuration.Observe(s.now().Sub(started).Seconds())
	return errs
}
