package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/polkiloo/orderpay/internal/config"
	testhelpers "github.com/polkiloo/orderpay/internal/test"
	"github.com/polkiloo/orderpay/internal/worker"
)

func newTestSweeper() *worker.Sweeper {
	return worker.NewSweeper(&testhelpers.SweepFacadeStub{}, 10*time.Millisecond, 1, 1, zap.NewNop())
}

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{RunAddress: ":9999"}
	router := gin.New()
	server := newHTTPServer(serverParams{Config: cfg, Router: router})
	if server.Addr != ":9999" {
		t.Fatalf("expected address :9999, got %q", server.Addr)
	}
	if server.Handler != router {
		t.Fatalf("expected handler to be router")
	}
	if server.ReadHeaderTimeout <= 0 {
		t.Fatalf("expected read header timeout")
	}
}

func TestNewSweeperUsesConfig(t *testing.T) {
	sweeper := newSweeper(workerParams{
		Facade: &testhelpers.SweepFacadeStub{},
		Config: &config.Config{SweepInterval: 15 * time.Second, SweepBatch: 3, WorkerPoolSize: 4},
		Logger: zap.NewNop(),
	})
	if sweeper == nil {
		t.Fatal("expected sweeper instance")
	}
}

func TestRegisterLifecycleStartStop(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	core, logs := observer.New(zapcore.InfoLevel)
	server := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	cfg := &config.Config{ShutdownTimeout: 100 * time.Millisecond}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     zap.New(core),
		Server:     server,
		Sweeper:    newTestSweeper(),
		Config:     cfg,
	})

	if len(recorder.Hooks) != 1 {
		t.Fatalf("expected one hook registered, got %d", len(recorder.Hooks))
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := recorder.Start(ctx); err != nil {
		t.Fatalf("on start failed: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = recorder.Stop(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected on stop to finish")
	}

	if logs.FilterMessage("orderpay stopped").Len() != 1 {
		t.Fatalf("expected stop to be logged")
	}
	if shutdowner.Calls() != 0 {
		t.Fatalf("expected no shutdown request on clean stop")
	}
}

func TestRegisterLifecycleShutdownOnServerError(t *testing.T) {
	recorder := &testhelpers.LifecycleRecorder{}
	shutdowner := &testhelpers.ShutdownerStub{Called: make(chan struct{}, 1)}
	server := &http.Server{Addr: "bad addr"}

	registerLifecycle(lifecycleParams{
		Lifecycle:  recorder,
		Shutdowner: shutdowner,
		Logger:     zap.NewNop(),
		Server:     server,
		Sweeper:    newTestSweeper(),
		Config:     &config.Config{ShutdownTimeout: time.Second},
	})

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("on start returned error: %v", err)
	}

	select {
	case <-shutdowner.Called:
	case <-time.After(time.Second):
		t.Fatal("expected shutdown to be triggered on server error")
	}

	if shutdowner.Calls() != 1 {
		t.Fatalf("expected one shutdown request, got %d", shutdowner.Calls())
	}
	_ = recorder.Stop(context.Background())
}
