package sched

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/xlog"
)

const (
	defaultWorkerPoolSize = 8
	defaultInterval       = 500 * time.Millisecond
)

// Scheduler drives the step chains of animated operations one
// operation at a time. Submitting a new operation cancels the
// current one, the new one starts after the current one has
// drained.
type Scheduler struct {
	name     string
	locks    *LockTable
	pool     *ants.Pool
	logger   xlog.XLogger
	stats    *schedulerStats
	interval atomic.Int64
	closed   atomic.Bool
	lock     sync.Mutex
	last     *Token
	wg       sync.WaitGroup
}

type schedulerOption struct {
	name        string
	interval    time.Duration
	poolSize    int
	logger      xlog.XLogger
	enableStats bool
	intervalSet bool
}

type SchedulerOption func(opt *schedulerOption)

func WithSchedulerName(name string) SchedulerOption {
	return func(opt *schedulerOption) {
		if len(strings.TrimSpace(name)) <= 0 {
			panic("scheduler's name must not be empty or blank")
		}
		opt.name = name
	}
}

// WithSchedulerInterval sets the pause between two steps, zero
// runs the steps back to back.
func WithSchedulerInterval(interval time.Duration) SchedulerOption {
	return func(opt *schedulerOption) {
		opt.interval = max(interval, 0)
		opt.intervalSet = true
	}
}

func WithSchedulerWorkerPoolSize(size int) SchedulerOption {
	return func(opt *schedulerOption) {
		opt.poolSize = size
	}
}

func WithSchedulerLogger(logger xlog.XLogger) SchedulerOption {
	return func(opt *schedulerOption) {
		opt.logger = logger
	}
}

func WithSchedulerStats() SchedulerOption {
	return func(opt *schedulerOption) {
		opt.enableStats = true
	}
}

func NewScheduler(opts ...SchedulerOption) (*Scheduler, error) {
	opt := &schedulerOption{}
	for _, o := range opts {
		if o != nil {
			o(opt)
		}
	}
	if opt.name == "" {
		opt.name = "xtree"
	}
	if !opt.intervalSet {
		opt.interval = defaultInterval
	}
	if opt.poolSize < 2 {
		opt.poolSize = defaultWorkerPoolSize
	}
	if opt.logger == nil {
		opt.logger = xlog.NewNopXLogger()
	}

	s := &Scheduler{
		name:   opt.name,
		locks:  NewLockTable(),
		logger: opt.logger,
	}
	s.interval.Store(int64(opt.interval))
	if opt.enableStats {
		s.stats = newSchedulerStats(opt.name)
	}
	p, err := ants.NewPool(opt.poolSize,
		ants.WithPreAlloc(true),
		ants.WithLogger(xlog.NewAntsXLogger(opt.logger)),
	)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[sched] create worker pool")
	}
	s.pool = p
	return s, nil
}

func (s *Scheduler) Locks() *LockTable {
	return s.locks
}

// Busy reports whether an operation holds the lock.
func (s *Scheduler) Busy() bool {
	return s.locks.IsAnyLocked()
}

func (s *Scheduler) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SetInterval applies from the next pause on.
func (s *Scheduler) SetInterval(interval time.Duration) {
	s.interval.Store(int64(max(interval, 0)))
}

func (s *Scheduler) Submit(ctx context.Context, op Operation) (*Token, error) {
	if s.closed.Load() {
		return nil, ErrSchedulerClosed
	}
	if op.First == nil {
		return nil, ErrEmptyOperation
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s.lock.Lock()
	tok := s.locks.Acquire(op.Category)
	prev := s.last
	s.last = tok
	s.wg.Add(1)
	s.lock.Unlock()

	s.stats.IncreaseOpStartedCount(op.Name)
	if err := s.pool.Submit(func() {
		defer s.wg.Done()
		if prev != nil {
			<-prev.Finished()
		}
		s.run(ctx, tok, op)
	}); err != nil {
		err = infra.WrapErrorStackWithMessage(err, "[sched] submit "+op.Name)
		s.locks.clear(tok)
		s.finish(tok, op, Failed, err, time.Now())
		s.wg.Done()
		return nil, err
	}
	return tok, nil
}

func (s *Scheduler) run(ctx context.Context, tok *Token, op Operation) {
	start := time.Now()
	outcome, err := s.drive(withToken(ctx, tok), tok, op.First)
	s.locks.clear(tok)
	s.finish(tok, op, outcome, err, start)
}

func (s *Scheduler) finish(tok *Token, op Operation, outcome Outcome, err error, start time.Time) {
	if op.OnFinish != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.ErrorStack(infra.NewErrorStack(fmt.Sprint(r)), "[sched] operation finish hook panic",
						zap.String("op", op.Name),
					)
				}
			}()
			op.OnFinish(outcome, err)
		}()
	}
	elapsed := time.Since(start).Milliseconds()
	s.stats.IncreaseOpFinishedCount(op.Name, outcome)
	s.stats.RecordOpDuration(op.Name, elapsed)
	switch outcome {
	case Failed:
		s.logger.ErrorStack(err, "[sched] operation failed",
			zap.String("op", op.Name),
			zap.Uint64("token", tok.ID()),
		)
	default:
		s.logger.Debug("[sched] operation finished",
			zap.String("op", op.Name),
			zap.Uint64("token", tok.ID()),
			zap.String("outcome", outcome.String()),
			zap.Int64("elapsedMs", elapsed),
		)
	}
	tok.finish(outcome, err)
}

// drive runs the chain. A step is never interrupted, the token
// and the context are checked between two steps.
func (s *Scheduler) drive(ctx context.Context, tok *Token, step Step) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, err = Failed, infra.NewErrorStack(fmt.Sprintf("[sched] step panic: %v", r))
		}
	}()
	for step != nil {
		if !tok.Held() || ctx.Err() != nil {
			return Cancelled, nil
		}
		next, err := step(ctx)
		s.stats.IncreaseStepCount()
		switch {
		case errors.Is(err, ErrOperationCancelled), errors.Is(err, context.Canceled):
			return Cancelled, nil
		case err != nil:
			return Failed, err
		case next == nil:
			return Done, nil
		}
		step = next
		if !s.pause(ctx, tok) {
			return Cancelled, nil
		}
	}
	return Done, nil
}

func (s *Scheduler) pause(ctx context.Context, tok *Token) bool {
	interval := s.Interval()
	if interval <= 0 {
		return tok.Held()
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return tok.Held()
	case <-tok.Done():
	case <-ctx.Done():
	}
	return false
}

// Wait blocks until every submitted operation finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) CancelAll() {
	s.locks.CancelAll()
}

func (s *Scheduler) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.CancelAll()
	s.wg.Wait()
	s.pool.Release()
}
