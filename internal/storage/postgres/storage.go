package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/repository"
)

const uniqueViolation = "23505"

// pgxPool is the subset of *pgxpool.Pool used by Storage.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// querier is implemented by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *zap.Logger
}

type orderRepository struct {
	storage *Storage
}

type paymentRepository struct {
	storage *Storage
}

var _ repository.Factory = (*Storage)(nil)

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *zap.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger.Named("postgres")}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	storage.logger.Info("storage ready", zap.String("host", cfg.ConnConfig.Host))

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) Orders() repository.OrderRepository {
	return &orderRepository{storage: s}
}

func (s *Storage) Payments() repository.PaymentRepository {
	return &paymentRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
            id BIGSERIAL PRIMARY KEY,
            number TEXT UNIQUE NOT NULL,
            stage TEXT NOT NULL,
            held_from TEXT,
            payment_status TEXT NOT NULL,
            refund_status TEXT NOT NULL,
            subtotal NUMERIC(14,2) NOT NULL,
            discount_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
            delivery_fee NUMERIC(14,2) NOT NULL DEFAULT 0,
            additional_charges NUMERIC(14,2) NOT NULL DEFAULT 0,
            total_amount NUMERIC(14,2) NOT NULL CHECK (total_amount > 0),
            currency TEXT NOT NULL,
            ordered_at TIMESTAMPTZ NOT NULL,
            payment_confirmed_at TIMESTAMPTZ,
            completed_at TIMESTAMPTZ,
            cancelled_at TIMESTAMPTZ,
            refund_initiated_at TIMESTAMPTZ,
            refund_completed_at TIMESTAMPTZ,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS order_items (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            provider_product_ref TEXT NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            unit_price NUMERIC(14,2) NOT NULL,
            stage TEXT NOT NULL,
            paid BOOLEAN NOT NULL DEFAULT FALSE,
            paid_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS order_payments (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id),
            reference TEXT UNIQUE NOT NULL,
            gateway TEXT NOT NULL,
            variant TEXT NOT NULL DEFAULT '',
            gateway_reference TEXT,
            status TEXT NOT NULL,
            failure_reason TEXT NOT NULL DEFAULT '',
            init_request BYTEA,
            init_response BYTEA,
            webhook_payload BYTEA,
            amount NUMERIC(14,2) NOT NULL,
            currency TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            init_requested_at TIMESTAMPTZ,
            resolved_at TIMESTAMPTZ,
            order_advanced_at TIMESTAMPTZ
        )`,
		`CREATE TABLE IF NOT EXISTS order_tracking_events (
            id BIGSERIAL PRIMARY KEY,
            order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
            order_item_id BIGINT REFERENCES order_items(id) ON DELETE SET NULL,
            sequence INTEGER NOT NULL,
            type TEXT NOT NULL,
            stage TEXT NOT NULL,
            occurred_at TIMESTAMPTZ NOT NULL,
            location TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL,
            customer_visible BOOLEAN NOT NULL,
            active BOOLEAN NOT NULL,
            UNIQUE (order_id, sequence)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_order_payments_pending ON order_payments(order_id, gateway) WHERE status = 'PENDING'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_order_payments_success ON order_payments(order_id) WHERE status = 'SUCCESS'`,
		`CREATE INDEX IF NOT EXISTS idx_order_payments_sweep ON order_payments(status, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// WithinTransaction executes function inside transaction boundary.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// Ping verifies database connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// mapError translates driver errors into domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domainErrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", domainErrors.ErrAlreadyExists, pgErr.ConstraintName)
	}
	return err
}
