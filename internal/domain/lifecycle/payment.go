package lifecycle

import (
	"time"

	"github.com/polkiloo/orderpay/internal/domain/model"
)

// ConfirmPayment records a successful payment on the order: payment status,
// the first confirmation time, paid items and the PENDING -> PAYMENT_CONFIRMED
// step. Orders already past PENDING keep their stage. Calling it again is a no-op.
func ConfirmPayment(o *model.Order, at time.Time) Result {
	res := Result{From: o.Stage, To: o.Stage}

	if o.PaymentStatus != model.PaymentStatusSuccess {
		o.PaymentStatus = model.PaymentStatusSuccess
		res.Changed = true
	}
	if o.PaymentConfirmedAt == nil {
		o.PaymentConfirmedAt = timePtr(at)
		res.Changed = true
	}

	for i := range o.Items {
		it := &o.Items[i]
		if !it.Paid {
			it.Paid = true
			it.PaidAt = timePtr(at)
			res.Changed = true
		}
		if it.Stage == model.StagePending {
			it.Stage = model.StagePaymentConfirmed
			res.Changed = true
		}
	}

	if o.Stage == model.StagePending {
		tr, err := Transition(o, model.StagePaymentConfirmed, at, Note{})
		if err == nil && tr.Changed {
			res.To = tr.To
			res.Events = append(res.Events, tr.Events...)
		}
	}
	if o.Stage == model.StageOnHold && o.HeldFrom != nil && *o.HeldFrom == model.StagePending {
		resume := model.StagePaymentConfirmed
		o.HeldFrom = &resume
		res.Changed = true
	}
	if res.Changed {
		o.UpdatedAt = at
	}
	return res
}

// ApplyPaymentFailure marks the order payment FAILED unless another attempt is
// still PENDING or already SUCCESS. attempts must reflect the committed ledger.
func ApplyPaymentFailure(o *model.Order, attempts []model.OrderPayment, at time.Time, reason string) Result {
	res := Result{From: o.Stage, To: o.Stage}
	if o.PaymentStatus != model.PaymentStatusPending {
		return res
	}
	for _, a := range attempts {
		if a.Status == model.PaymentStatusPending || a.Status == model.PaymentStatusSuccess {
			return res
		}
	}

	o.PaymentStatus = model.PaymentStatusFailed
	o.UpdatedAt = at
	res.Changed = true
	res.Events = append(res.Events, model.TrackingEvent{
		OrderID:         o.ID,
		Type:            model.EventPaymentFailed,
		Stage:           o.Stage,
		OccurredAt:      at,
		Description:     reason,
		CustomerVisible: false,
	})
	return res
}

// ReopenPayment moves a FAILED order payment back to PENDING before a new attempt.
func ReopenPayment(o *model.Order, at time.Time) bool {
	if o.PaymentStatus != model.PaymentStatusFailed {
		return false
	}
	o.PaymentStatus = model.PaymentStatusPending
	o.UpdatedAt = at
	return true
}
