package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/model"
)

const paymentColumns = `id, order_id, reference, gateway, variant, gateway_reference, status, failure_reason,
       init_request, init_response, webhook_payload, amount, currency,
       created_at, init_requested_at, resolved_at, order_advanced_at`

func scanPayment(row pgx.Row) (model.OrderPayment, error) {
	var p model.OrderPayment
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Reference, &p.Gateway, &p.Variant, &p.GatewayReference, &p.Status, &p.FailureReason,
		&p.InitRequest, &p.InitResponse, &p.WebhookPayload, &p.Amount, &p.Currency,
		&p.CreatedAt, &p.InitRequestedAt, &p.ResolvedAt, &p.OrderAdvancedAt,
	)
	return p, err
}

func listPayments(ctx context.Context, q querier, query string, args ...any) ([]model.OrderPayment, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.OrderPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *paymentRepository) GetByReference(ctx context.Context, reference string) (*model.OrderPayment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM order_payments WHERE reference=$1`
	p, err := scanPayment(r.storage.pool.QueryRow(ctx, query, reference))
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *paymentRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.OrderPayment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM order_payments WHERE order_id=$1 ORDER BY created_at, id`
	return listPayments(ctx, r.storage.pool, query, orderID)
}

func (r *paymentRepository) RecordExchange(ctx context.Context, reference string, request, response []byte, gatewayReference string, at time.Time) error {
	const query = `UPDATE order_payments
                   SET init_request = COALESCE(init_request, $2),
                       init_requested_at = CASE WHEN init_request IS NULL AND $2::bytea IS NOT NULL THEN $5 ELSE init_requested_at END,
                       init_response = COALESCE(init_response, $3),
                       gateway_reference = COALESCE(gateway_reference, NULLIF($4, ''))
                   WHERE reference=$1`
	tag, err := r.storage.pool.Exec(ctx, query, reference, request, response, gatewayReference, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAttemptNotFound
	}
	return nil
}

func (r *paymentRepository) RecordWebhook(ctx context.Context, reference string, payload []byte) error {
	const query = `UPDATE order_payments SET webhook_payload = COALESCE(webhook_payload, $2) WHERE reference=$1`
	tag, err := r.storage.pool.Exec(ctx, query, reference, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAttemptNotFound
	}
	return nil
}

func (r *paymentRepository) Resolve(ctx context.Context, res model.Resolution) (bool, error) {
	tag, err := r.storage.pool.Exec(ctx, resolveQuery, resolveArgs(res)...)
	if err != nil {
		return false, mapError(err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var status model.PaymentStatus
	err = r.storage.pool.QueryRow(ctx, `SELECT status FROM order_payments WHERE reference=$1`, res.Reference).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, domainErrors.ErrAttemptNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// ExpireStale fails a batch of old pending attempts. Rows locked by a
// concurrent resolution are skipped and picked up by a later sweep.
func (r *paymentRepository) ExpireStale(ctx context.Context, cutoff time.Time, limit int, at time.Time) ([]model.OrderPayment, error) {
	const query = `UPDATE order_payments
                   SET status='FAILED', failure_reason=$3, resolved_at=$4
                   WHERE id IN (
                       SELECT id FROM order_payments
                       WHERE status='PENDING' AND created_at < $1
                       ORDER BY created_at
                       LIMIT $2
                       FOR UPDATE SKIP LOCKED
                   ) AND status='PENDING'
                   RETURNING ` + paymentColumns
	return listPayments(ctx, r.storage.pool, query, cutoff, limit, model.FailureReasonExpired, at)
}

func (r *paymentRepository) Unsettled(ctx context.Context, cutoff time.Time, limit int) ([]model.OrderPayment, error) {
	const query = `SELECT ` + paymentColumns + ` FROM order_payments
                   WHERE status IN ('SUCCESS', 'FAILED') AND order_advanced_at IS NULL AND resolved_at < $1
                   ORDER BY resolved_at
                   LIMIT $2
                   FOR UPDATE SKIP LOCKED`
	return listPayments(ctx, r.storage.pool, query, cutoff, limit)
}

const resolveQuery = `UPDATE order_payments
                      SET status=$2, failure_reason=$3, resolved_at=$4,
                          gateway_reference = COALESCE(gateway_reference, NULLIF($5, '')),
                          webhook_payload = COALESCE(webhook_payload, $6),
                          order_advanced_at = CASE WHEN $7::boolean THEN $4 ELSE order_advanced_at END
                      WHERE reference=$1 AND status='PENDING'`

func resolveArgs(res model.Resolution) []any {
	return []any{res.Reference, res.Status, res.FailureReason, res.ResolvedAt, res.GatewayReference, res.WebhookPayload, res.Settled}
}

// resolveLocked applies a resolution inside an order update. Losing the
// compare-and-set aborts the whole update.
func resolveLocked(ctx context.Context, tx pgx.Tx, res model.Resolution) error {
	tag, err := tx.Exec(ctx, resolveQuery, resolveArgs(res)...)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var status model.PaymentStatus
	err = tx.QueryRow(ctx, `SELECT status FROM order_payments WHERE reference=$1`, res.Reference).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domainErrors.ErrAttemptNotFound
	}
	if err != nil {
		return err
	}
	return &domainErrors.AlreadyResolvedError{Reference: res.Reference, Status: string(status)}
}

func insertPayment(ctx context.Context, tx pgx.Tx, orderID int64, p *model.OrderPayment) error {
	const query = `INSERT INTO order_payments (order_id, reference, gateway, variant, status, amount, currency)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)
                   RETURNING id, created_at`
	err := tx.QueryRow(ctx, query, orderID, p.Reference, p.Gateway, p.Variant, p.Status, p.Amount, p.Currency).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	p.OrderID = orderID
	return nil
}
