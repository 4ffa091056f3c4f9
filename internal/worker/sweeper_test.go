package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/polkiloo/orderpay/internal/domain/model"
	testhelpers "github.com/polkiloo/orderpay/internal/test"
)

func waitFor(t *testing.T, facade *testhelpers.SweepFacadeStub, done func() bool) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		facade.Lock()
		ok := done()
		facade.Unlock()
		if ok {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timeout waiting for sweep")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNewSweeperDefaults(t *testing.T) {
	s := NewSweeper(&testhelpers.SweepFacadeStub{}, time.Second, 0, 0, zap.NewNop())
	if s.batchSize != 1 {
		t.Fatalf("expected batch size default to 1, got %d", s.batchSize)
	}
	if s.workers != 1 {
		t.Fatalf("expected workers default to 1, got %d", s.workers)
	}
}

func TestSweeperDispatchesBothKinds(t *testing.T) {
	facade := &testhelpers.SweepFacadeStub{
		Expired:    [][]model.OrderPayment{{{Reference: "A"}, {Reference: "B"}}},
		Unadvanced: [][]model.OrderPayment{{{Reference: "C"}}},
	}
	s := NewSweeper(facade, 5*time.Millisecond, 10, 2, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	waitFor(t, facade, func() bool { return len(facade.Failed) == 2 && len(facade.Advanced) == 1 })
	s.Stop()

	facade.Lock()
	defer facade.Unlock()
	if facade.Advanced[0] != "C" {
		t.Fatalf("expected C to be advanced, got %v", facade.Advanced)
	}
}

func TestSweeperLogsFailedJobs(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	facade := &testhelpers.SweepFacadeStub{
		Expired: [][]model.OrderPayment{{{Reference: "A", OrderID: 9}}},
		FailFn: func(context.Context, model.OrderPayment) error {
			return errors.New("db down")
		},
	}
	s := NewSweeper(facade, 5*time.Millisecond, 1, 1, zap.New(core))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	deadline := time.After(time.Second)
	for logs.FilterMessage("sweep job failed").Len() == 0 {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for failure log")
		case <-time.After(5 * time.Millisecond):
		}
	}
	s.Stop()

	entry := logs.FilterMessage("sweep job failed").All()[0]
	if entry.ContextMap()["reference"] != "A" || entry.ContextMap()["order_id"] != int64(9) {
		t.Fatalf("unexpected log fields %v", entry.ContextMap())
	}
}

func TestSweeperStopsWithoutWork(t *testing.T) {
	s := NewSweeper(&testhelpers.SweepFacadeStub{}, time.Hour, 1, 3, zap.NewNop())
	s.Start(context.Background())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	s.Stop()
}
