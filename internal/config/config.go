package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress      string
	DatabaseURI     string
	LogLevel        string
	ShutdownTimeout time.Duration

	GatewayTimeout    time.Duration
	AttemptStaleAfter time.Duration
	PendingExpiry     time.Duration
	SweepInterval     time.Duration
	SweepBatch        int
	WorkerPoolSize    int
	RetryPolicy       string

	AdminTokenHash string
	NodeID         int64
	TracingEnabled bool

	CBEBaseURL   string
	CBESecret    string
	CBEReturnURL string

	TelebirrBaseURL   string
	TelebirrShortCode string
	TelebirrAppKey    string
}

const (
	defaultRunAddress        = ":8080"
	defaultLogLevel          = "info"
	defaultShutdownTimeout   = 10 * time.Second
	defaultGatewayTimeout    = 10 * time.Second
	defaultAttemptStaleAfter = 15 * time.Minute
	defaultPendingExpiry     = 30 * time.Minute
	defaultSweepInterval     = 30 * time.Second
	defaultSweepBatch        = 50
	defaultWorkerPoolSize    = 2
	defaultNodeID            = 1
	defaultRetryPolicy       = "retryable && attempts < 3"
)

// Load parses configuration from .env, flags and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:        getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:       getString(lookup, "DATABASE_URI", ""),
		LogLevel:          getString(lookup, "LOG_LEVEL", defaultLogLevel),
		ShutdownTimeout:   getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		GatewayTimeout:    getDuration(lookup, "GATEWAY_TIMEOUT", defaultGatewayTimeout),
		AttemptStaleAfter: getDuration(lookup, "ATTEMPT_STALE_AFTER", defaultAttemptStaleAfter),
		PendingExpiry:     getDuration(lookup, "PENDING_EXPIRY", defaultPendingExpiry),
		SweepInterval:     getDuration(lookup, "SWEEP_INTERVAL", defaultSweepInterval),
		SweepBatch:        getInt(lookup, "SWEEP_BATCH", defaultSweepBatch),
		WorkerPoolSize:    getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		RetryPolicy:       getString(lookup, "RETRY_POLICY", defaultRetryPolicy),
		AdminTokenHash:    getString(lookup, "ADMIN_TOKEN_HASH", ""),
		NodeID:            int64(getInt(lookup, "NODE_ID", defaultNodeID)),
		TracingEnabled:    getBool(lookup, "TRACING_ENABLED", false),
		CBEBaseURL:        getString(lookup, "CBE_BASE_URL", ""),
		CBESecret:         getString(lookup, "CBE_SECRET", ""),
		CBEReturnURL:      getString(lookup, "CBE_RETURN_URL", ""),
		TelebirrBaseURL:   getString(lookup, "TELEBIRR_BASE_URL", ""),
		TelebirrShortCode: getString(lookup, "TELEBIRR_SHORT_CODE", ""),
		TelebirrAppKey:    getString(lookup, "TELEBIRR_APP_KEY", ""),
	}

	flags := flag.NewFlagSet("orderpay", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	var (
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
		gatewayTimeoutStr  = cfg.GatewayTimeout.String()
		staleAfterStr      = cfg.AttemptStaleAfter.String()
		pendingExpiryStr   = cfg.PendingExpiry.String()
		sweepIntervalStr   = cfg.SweepInterval.String()
	)

	flags.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	flags.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	flags.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	flags.StringVar(&gatewayTimeoutStr, "gateway-timeout", gatewayTimeoutStr, "Timeout for a single gateway call")
	flags.StringVar(&staleAfterStr, "stale-after", staleAfterStr, "Age after which a pending attempt may be retried")
	flags.StringVar(&pendingExpiryStr, "pending-expiry", pendingExpiryStr, "Age after which the sweeper fails a pending attempt")
	flags.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between ledger sweeps")
	flags.IntVar(&cfg.SweepBatch, "sweep-batch", cfg.SweepBatch, "Maximum attempts per sweep")
	flags.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent sweep workers")
	flags.StringVar(&cfg.RetryPolicy, "retry-policy", cfg.RetryPolicy, "Expression deciding whether a declined payment may be retried")
	flags.Int64Var(&cfg.NodeID, "node-id", cfg.NodeID, "Node id for order number generation")
	flags.BoolVar(&cfg.TracingEnabled, "tracing", cfg.TracingEnabled, "Export traces to stdout")

	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
		def  time.Duration
	}{
		{"shutdown timeout", shutdownTimeoutStr, &cfg.ShutdownTimeout, defaultShutdownTimeout},
		{"gateway timeout", gatewayTimeoutStr, &cfg.GatewayTimeout, defaultGatewayTimeout},
		{"stale after", staleAfterStr, &cfg.AttemptStaleAfter, defaultAttemptStaleAfter},
		{"pending expiry", pendingExpiryStr, &cfg.PendingExpiry, defaultPendingExpiry},
		{"sweep interval", sweepIntervalStr, &cfg.SweepInterval, defaultSweepInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		if v <= 0 {
			v = d.def
		}
		*d.dst = v
	}

	secrets := []struct {
		env string
		dst *string
	}{
		{"CBE_SECRET_FILE", &cfg.CBESecret},
		{"TELEBIRR_APP_KEY_FILE", &cfg.TelebirrAppKey},
		{"ADMIN_TOKEN_HASH_FILE", &cfg.AdminTokenHash},
	}
	for _, s := range secrets {
		if path, ok := lookup(s.env); ok && path != "" {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", strings.ToLower(s.env), err)
			}
			*s.dst = strings.TrimSpace(string(content))
		}
	}

	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = defaultSweepBatch
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.RetryPolicy == "" {
		cfg.RetryPolicy = defaultRetryPolicy
	}

	if cfg.NodeID < 0 || cfg.NodeID > 1023 {
		return nil, fmt.Errorf("node id must be within 0..1023")
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
