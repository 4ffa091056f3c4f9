package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/domain/model"
)

// SweepFacade exposes the subset of application functionality required by the sweeper.
type SweepFacade interface {
	ExpiredAttempts(ctx context.Context, limit int) ([]model.OrderPayment, error)
	UnadvancedAttempts(ctx context.Context, limit int) ([]model.OrderPayment, error)
	FailExpired(ctx context.Context, attempt model.OrderPayment) error
	CompleteAdvancement(ctx context.Context, attempt model.OrderPayment) error
}

type jobKind int

const (
	jobExpired jobKind = iota
	jobAdvance
)

type job struct {
	kind    jobKind
	attempt model.OrderPayment
}

// Sweeper periodically fails abandoned pending attempts and applies resolved
// attempts whose order update a crash or a dropped job interrupted. Claimed attempts are handled by a
// fixed pool of workers.
type Sweeper struct {
	facade    SweepFacade
	interval  time.Duration
	batchSize int
	workers   int
	logger    *zap.Logger

	jobs   chan job
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewSweeper constructs the sweeper worker pool.
func NewSweeper(facade SweepFacade, interval time.Duration, batchSize, workers int, logger *zap.Logger) *Sweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Sweeper{
		facade:    facade,
		interval:  interval,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger.Named("sweeper"),
		jobs:      make(chan job, batchSize*workers),
	}
}

// Start launches background processing.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(runCtx)
	}

	s.wg.Add(1)
	go s.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Sweeper) dispatch(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.jobs)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.facade.ExpiredAttempts(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("expire pending attempts failed", zap.Error(err))
	}
	for _, a := range expired {
		if !s.enqueue(ctx, job{kind: jobExpired, attempt: a}) {
			return
		}
	}

	unadvanced, err := s.facade.UnadvancedAttempts(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("list unadvanced attempts failed", zap.Error(err))
		return
	}
	for _, a := range unadvanced {
		if !s.enqueue(ctx, job{kind: jobAdvance, attempt: a}) {
			return
		}
	}
}

func (s *Sweeper) enqueue(ctx context.Context, j job) bool {
	select {
	case <-ctx.Done():
		return false
	case s.jobs <- j:
		return true
	}
}

func (s *Sweeper) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-s.jobs:
			if !ok {
				return
			}
			s.handle(ctx, j)
		}
	}
}

func (s *Sweeper) handle(ctx context.Context, j job) {
	var err error
	switch j.kind {
	case jobExpired:
		err = s.facade.FailExpired(ctx, j.attempt)
	case jobAdvance:
		err = s.facade.CompleteAdvancement(ctx, j.attempt)
	}
	if err != nil {
		s.logger.Error("sweep job failed",
			zap.String("reference", j.attempt.Reference),
			zap.Int64("order_id", j.attempt.OrderID),
			zap.Error(err),
		)
	}
}
