package repository

import (
	"context"
	"time"

	"github.com/polkiloo/orderpay/internal/domain/model"
)

// PaymentRepository is the append-only payment attempt ledger.
type PaymentRepository interface {
	GetByReference(ctx context.Context, reference string) (*model.OrderPayment, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.OrderPayment, error)
	// RecordExchange stores the raw initiation traffic and the gateway reference.
	// Each value is written once; later calls never overwrite it.
	RecordExchange(ctx context.Context, reference string, request, response []byte, gatewayReference string, at time.Time) error
	// RecordWebhook stores a raw callback payload once, whatever the attempt status.
	RecordWebhook(ctx context.Context, reference string, payload []byte) error
	// Resolve moves a PENDING attempt to a terminal status. It reports false when
	// the attempt was already terminal.
	Resolve(ctx context.Context, res model.Resolution) (bool, error)
	// ExpireStale resolves PENDING attempts created before cutoff as FAILED and returns them.
	ExpireStale(ctx context.Context, cutoff time.Time, limit int, at time.Time) ([]model.OrderPayment, error)
	// Unsettled lists terminal attempts resolved before cutoff whose result was
	// never applied to the order. Rows locked by an order update are skipped.
	Unsettled(ctx context.Context, cutoff time.Time, limit int) ([]model.OrderPayment, error)
}
