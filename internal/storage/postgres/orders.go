package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/domain/repository"
)

const orderColumns = `id, number, stage, held_from, payment_status, refund_status,
       subtotal, discount_amount, delivery_fee, additional_charges, total_amount, currency,
       ordered_at, payment_confirmed_at, completed_at, cancelled_at,
       refund_initiated_at, refund_completed_at, updated_at`

const itemColumns = `id, order_id, provider_product_ref, quantity, unit_price, stage, paid, paid_at`

const eventColumns = `id, order_id, order_item_id, sequence, type, stage, occurred_at,
       location, description, customer_visible, active`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.Number, &o.Stage, &o.HeldFrom, &o.PaymentStatus, &o.RefundStatus,
		&o.Subtotal, &o.DiscountAmount, &o.DeliveryFee, &o.AdditionalCharges, &o.TotalAmount, &o.Currency,
		&o.OrderedAt, &o.PaymentConfirmedAt, &o.CompletedAt, &o.CancelledAt,
		&o.RefundInitiatedAt, &o.RefundCompletedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order, events []model.TrackingEvent) (*model.Order, error) {
	const insertOrder = `INSERT INTO orders (number, stage, payment_status, refund_status,
                         subtotal, discount_amount, delivery_fee, additional_charges, total_amount, currency, ordered_at)
                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
                         RETURNING id, updated_at`
	const insertItem = `INSERT INTO order_items (order_id, provider_product_ref, quantity, unit_price, stage, paid)
                        VALUES ($1, $2, $3, $4, $5, $6)
                        RETURNING id`

	stored := order.Clone()
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertOrder,
			stored.Number, stored.Stage, stored.PaymentStatus, stored.RefundStatus,
			stored.Subtotal, stored.DiscountAmount, stored.DeliveryFee, stored.AdditionalCharges, stored.TotalAmount,
			stored.Currency, stored.OrderedAt,
		).Scan(&stored.ID, &stored.UpdatedAt)
		if err != nil {
			return mapError(err)
		}

		for i := range stored.Items {
			it := &stored.Items[i]
			it.OrderID = stored.ID
			if err := tx.QueryRow(ctx, insertItem, stored.ID, it.ProviderProductRef, it.Quantity, it.UnitPrice, it.Stage, it.Paid).Scan(&it.ID); err != nil {
				return err
			}
		}

		for _, ev := range events {
			ev.OrderID = stored.ID
			if _, err := appendEvent(ctx, tx, ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return loadOrder(ctx, r.storage.pool, `SELECT `+orderColumns+` FROM orders WHERE number=$1`, number)
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	return loadOrder(ctx, r.storage.pool, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

// Update locks the order row, runs fn and writes the resulting change in one transaction.
func (r *orderRepository) Update(ctx context.Context, orderID int64, fn repository.OrderUpdateFunc) (*model.Order, error) {
	var updated *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		order, err := loadOrder(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, orderID)
		if err != nil {
			return err
		}
		attempts, err := listPayments(ctx, tx, `SELECT `+paymentColumns+` FROM order_payments WHERE order_id=$1 ORDER BY created_at, id`, orderID)
		if err != nil {
			return err
		}

		before := order.Clone()
		change, err := fn(order, attempts)
		if err != nil {
			return err
		}

		for _, res := range change.Resolutions {
			if err := resolveLocked(ctx, tx, res); err != nil {
				return err
			}
		}
		if na := change.NewAttempt; na != nil {
			if err := insertPayment(ctx, tx, orderID, na); err != nil {
				return err
			}
		}
		for _, id := range change.Advanced {
			const markAdvanced = `UPDATE order_payments SET order_advanced_at=NOW() WHERE id=$1 AND order_advanced_at IS NULL`
			if _, err := tx.Exec(ctx, markAdvanced, id); err != nil {
				return err
			}
		}
		if err := saveOrder(ctx, tx, before, order); err != nil {
			return err
		}
		for _, ev := range change.Events {
			ev.OrderID = orderID
			if _, err := appendEvent(ctx, tx, ev); err != nil {
				return err
			}
		}
		updated = order
		return nil
	})
	if err != nil {
		var resolved *domainErrors.AlreadyResolvedError
		if errors.As(err, &resolved) {
			r.storage.logger.Debug("order update lost resolution race",
				zap.Int64("order_id", orderID),
				zap.String("reference", resolved.Reference),
			)
		}
		return nil, err
	}
	return updated, nil
}

func (r *orderRepository) Timeline(ctx context.Context, orderID int64) ([]model.TrackingEvent, error) {
	const query = `SELECT ` + eventColumns + ` FROM order_tracking_events WHERE order_id=$1 ORDER BY sequence`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.TrackingEvent
	for rows.Next() {
		var ev model.TrackingEvent
		if err := rows.Scan(&ev.ID, &ev.OrderID, &ev.OrderItemID, &ev.Sequence, &ev.Type, &ev.Stage, &ev.OccurredAt,
			&ev.Location, &ev.Description, &ev.CustomerVisible, &ev.Active); err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func loadOrder(ctx context.Context, q querier, query string, arg any) (*model.Order, error) {
	order, err := scanOrder(q.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	items, err := loadItems(ctx, q, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func loadItems(ctx context.Context, q querier, orderID int64) ([]model.OrderItem, error) {
	const query = `SELECT ` + itemColumns + ` FROM order_items WHERE order_id=$1 ORDER BY id`
	rows, err := q.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProviderProductRef, &it.Quantity, &it.UnitPrice, &it.Stage, &it.Paid, &it.PaidAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// saveOrder writes the mutable order columns and the items that changed.
func saveOrder(ctx context.Context, tx pgx.Tx, before, after *model.Order) error {
	const updateOrder = `UPDATE orders SET stage=$2, held_from=$3, payment_status=$4, refund_status=$5,
                         payment_confirmed_at=$6, completed_at=$7, cancelled_at=$8,
                         refund_initiated_at=$9, refund_completed_at=$10, updated_at=NOW()
                         WHERE id=$1
                         RETURNING updated_at`
	err := tx.QueryRow(ctx, updateOrder,
		after.ID, after.Stage, after.HeldFrom, after.PaymentStatus, after.RefundStatus,
		after.PaymentConfirmedAt, after.CompletedAt, after.CancelledAt,
		after.RefundInitiatedAt, after.RefundCompletedAt,
	).Scan(&after.UpdatedAt)
	if err != nil {
		return mapError(err)
	}

	const updateItem = `UPDATE order_items SET stage=$2, paid=$3, paid_at=$4 WHERE id=$1`
	for _, it := range after.Items {
		prev, ok := before.Item(it.ID)
		if ok && prev.Stage == it.Stage && prev.Paid == it.Paid {
			continue
		}
		if _, err := tx.Exec(ctx, updateItem, it.ID, it.Stage, it.Paid, it.PaidAt); err != nil {
			return fmt.Errorf("update item %d: %w", it.ID, err)
		}
	}

	// Items dropped from the order are deleted; their events stay, inactive
	// and detached by the foreign key.
	const (
		detachEvents = `UPDATE order_tracking_events SET active=FALSE WHERE order_item_id=$1 AND active`
		deleteItem   = `DELETE FROM order_items WHERE id=$1 AND order_id=$2`
	)
	for _, prev := range before.Items {
		if _, ok := after.Item(prev.ID); ok {
			continue
		}
		if _, err := tx.Exec(ctx, detachEvents, prev.ID); err != nil {
			return fmt.Errorf("detach item %d events: %w", prev.ID, err)
		}
		if _, err := tx.Exec(ctx, deleteItem, prev.ID, after.ID); err != nil {
			return fmt.Errorf("delete item %d: %w", prev.ID, err)
		}
	}
	return nil
}

// appendEvent supersedes active events in the same scope and appends ev with
// the next sequence number. Callers hold the order row lock.
func appendEvent(ctx context.Context, tx pgx.Tx, ev model.TrackingEvent) (int64, error) {
	if ev.Active {
		const supersede = `UPDATE order_tracking_events SET active=FALSE
                           WHERE order_id=$1 AND active AND order_item_id IS NOT DISTINCT FROM $2`
		if _, err := tx.Exec(ctx, supersede, ev.OrderID, ev.OrderItemID); err != nil {
			return 0, err
		}
	}

	const insertEvent = `INSERT INTO order_tracking_events
                         (order_id, order_item_id, sequence, type, stage, occurred_at, location, description, customer_visible, active)
                         SELECT $1, $2, COALESCE(MAX(sequence), 0) + 1, $3, $4, $5, $6, $7, $8, $9
                         FROM order_tracking_events WHERE order_id=$1
                         RETURNING id`
	var id int64
	err := tx.QueryRow(ctx, insertEvent,
		ev.OrderID, ev.OrderItemID, ev.Type, ev.Stage, ev.OccurredAt,
		ev.Location, ev.Description, ev.CustomerVisible, ev.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	return id, nil
}
