package lifecycle

import (
	"time"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/model"
)

// TransitionItem moves one item along the fulfillment path and reconciles the
// order stage afterwards: all items delivered moves the order to DELIVERED,
// a mix of delivered and outstanding items moves it to PARTIALLY_DELIVERED.
func TransitionItem(o *model.Order, itemID int64, to model.Stage, at time.Time, note Note) (Result, error) {
	it, ok := o.Item(itemID)
	if !ok {
		return Result{}, domainErrors.ErrNotFound
	}
	res := Result{From: it.Stage, To: it.Stage}
	if it.Stage == to {
		return res, nil
	}
	if err := itemEdgeAllowed(o, it.Stage, to); err != nil {
		return res, &domainErrors.TransitionError{From: string(it.Stage), To: string(to), Err: err}
	}

	it.Stage = to
	o.UpdatedAt = at
	id := it.ID
	res.To = to
	res.Changed = true
	res.Events = append(res.Events, newEvent(o, &id, to, at, note))

	if follow, ok := orderFollowUp(o); ok {
		orderRes, err := Transition(o, follow, at, Note{})
		if err == nil && orderRes.Changed {
			res.Events = append(res.Events, orderRes.Events...)
		}
	}
	return res, nil
}

func itemEdgeAllowed(o *model.Order, from, to model.Stage) error {
	if !to.Valid() || from.Terminal() {
		return domainErrors.ErrIllegalTransition
	}
	if o.Stage.Terminal() || o.Stage == model.StageOnHold {
		return domainErrors.ErrIllegalTransition
	}
	if to == model.StageCancelled {
		return nil
	}
	toRank, ok := happyRank[to]
	if !ok {
		return domainErrors.ErrIllegalTransition
	}
	fromRank, ok := happyRank[from]
	if !ok {
		return domainErrors.ErrIllegalTransition
	}
	if !(from == model.StageCustomsHeld && to == model.StageCustomsCleared) && toRank <= fromRank {
		return domainErrors.ErrIllegalTransition
	}
	if toRank >= happyRank[model.StagePaymentConfirmed] && o.PaymentStatus != model.PaymentStatusSuccess {
		return domainErrors.ErrPaymentRequired
	}
	return nil
}

func orderFollowUp(o *model.Order) (model.Stage, bool) {
	var delivered, outstanding int
	for _, it := range o.Items {
		switch {
		case it.Stage == model.StageDelivered:
			delivered++
		case !it.Stage.Terminal():
			outstanding++
		}
	}
	switch {
	case delivered > 0 && outstanding == 0:
		return model.StageDelivered, true
	case delivered > 0 && outstanding > 0 && o.Stage != model.StagePartiallyDelivered:
		return model.StagePartiallyDelivered, true
	default:
		return "", false
	}
}
