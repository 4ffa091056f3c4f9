// Package lifecycle holds the order stage graph. Every function here is pure:
// it mutates only the order passed in and returns the tracking events to append.
package lifecycle

import (
	"time"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/model"
)

// Note carries optional free text attached to the produced tracking event.
type Note struct {
	Location    string
	Description string
	// Visible overrides the per-stage customer visibility when set.
	Visible *bool
}

// Result describes the effect of a guarded transition.
type Result struct {
	From    model.Stage
	To      model.Stage
	Changed bool
	Events  []model.TrackingEvent
}

var happyRank = map[model.Stage]int{
	model.StagePending:                     0,
	model.StagePaymentConfirmed:            1,
	model.StageProcessing:                  2,
	model.StageOrderedOnProvider:           3,
	model.StageProviderConfirmed:           4,
	model.StageShippedFromProvider:         5,
	model.StageInInternationalTransit:      6,
	model.StageArrivedInDestinationCountry: 7,
	model.StageInCustoms:                   8,
	model.StageCustomsCleared:              9,
	model.StageCustomsHeld:                 9,
	model.StageAtLocalHub:                  10,
	model.StageOutForLocalDelivery:         11,
	model.StageDelivered:                   12,
}

var returnNext = map[model.Stage]model.Stage{
	model.StageReturnRequested: model.StageReturnInTransit,
	model.StageReturnInTransit: model.StageReturned,
	model.StageReturned:        model.StageRefundInitiated,
	model.StageRefundInitiated: model.StageRefunded,
}

// CanTransition checks the guard for moving the order to target without mutating it.
func CanTransition(o *model.Order, to model.Stage) error {
	from := o.Stage
	if from == to {
		return nil
	}
	if err := edgeAllowed(o, from, to); err != nil {
		return &domainErrors.TransitionError{From: string(from), To: string(to), Err: err}
	}
	if requiresPayment(to) && o.PaymentStatus != model.PaymentStatusSuccess {
		return &domainErrors.TransitionError{From: string(from), To: string(to), Err: domainErrors.ErrPaymentRequired}
	}
	return nil
}

// Transition moves the order to target. Moving to the current stage is a no-op.
// A rejected transition leaves the order untouched.
func Transition(o *model.Order, to model.Stage, at time.Time, note Note) (Result, error) {
	res := Result{From: o.Stage, To: o.Stage}
	if o.Stage == to {
		return res, nil
	}
	if err := CanTransition(o, to); err != nil {
		return res, err
	}

	from := o.Stage
	applyStage(o, from, to, at)
	cascadeItems(o, to, at)

	res.To = to
	res.Changed = true
	res.Events = append(res.Events, newEvent(o, nil, to, at, note))
	return res, nil
}

func edgeAllowed(o *model.Order, from, to model.Stage) error {
	if !to.Valid() || !from.Valid() {
		return domainErrors.ErrIllegalTransition
	}
	if from.Terminal() {
		return domainErrors.ErrIllegalTransition
	}

	switch to {
	case model.StageCancelled, model.StageFailed, model.StageOnHold:
		return nil
	}

	if from == model.StageOnHold {
		if o.HeldFrom != nil && *o.HeldFrom == to {
			return nil
		}
		return domainErrors.ErrIllegalTransition
	}

	switch to.Category() {
	case model.CategoryReturn:
		if to == model.StageReturnRequested {
			if from.Category() == model.CategoryReturn {
				return domainErrors.ErrIllegalTransition
			}
			return nil
		}
		if returnNext[from] == to {
			return nil
		}
		return domainErrors.ErrIllegalTransition
	case model.CategoryClosed:
		// only REFUNDED remains here: CANCELLED and FAILED were handled above
		if returnNext[from] == to {
			return nil
		}
		return domainErrors.ErrIllegalTransition
	case model.CategoryPartial:
		if from.Category() == model.CategoryReturn {
			return domainErrors.ErrIllegalTransition
		}
		if !itemsDiverge(o) {
			return domainErrors.ErrIllegalTransition
		}
		return nil
	}

	toRank, ok := happyRank[to]
	if !ok {
		return domainErrors.ErrIllegalTransition
	}
	if from == model.StagePartiallyDelivered {
		if to == model.StageDelivered {
			return nil
		}
		return domainErrors.ErrIllegalTransition
	}
	fromRank, ok := happyRank[from]
	if !ok {
		return domainErrors.ErrIllegalTransition
	}
	if from == model.StageCustomsHeld && to == model.StageCustomsCleared {
		return nil
	}
	if toRank <= fromRank {
		return domainErrors.ErrIllegalTransition
	}
	return nil
}

func requiresPayment(to model.Stage) bool {
	switch to.Category() {
	case model.CategoryFulfillment, model.CategoryMoving, model.CategoryDelivered,
		model.CategoryPartial, model.CategoryReturn:
		return true
	case model.CategoryClosed:
		return to == model.StageRefunded
	default:
		return false
	}
}

func itemsDiverge(o *model.Order) bool {
	var delivered, outstanding int
	for _, it := range o.Items {
		switch {
		case it.Stage == model.StageDelivered:
			delivered++
		case !it.Stage.Terminal():
			outstanding++
		}
	}
	return delivered > 0 && outstanding > 0
}

func applyStage(o *model.Order, from, to model.Stage, at time.Time) {
	if from == model.StageOnHold {
		o.HeldFrom = nil
	}
	o.Stage = to
	o.UpdatedAt = at

	switch to {
	case model.StageOnHold:
		held := from
		o.HeldFrom = &held
	case model.StageDelivered:
		if o.CompletedAt == nil {
			o.CompletedAt = timePtr(at)
		}
	case model.StageCancelled:
		if o.CancelledAt == nil {
			o.CancelledAt = timePtr(at)
		}
	case model.StageReturnRequested:
		o.RefundStatus = model.RefundStatusRequested
	case model.StageRefundInitiated:
		o.RefundStatus = model.RefundStatusProcessing
		if o.RefundInitiatedAt == nil {
			o.RefundInitiatedAt = timePtr(at)
		}
	case model.StageRefunded:
		o.RefundStatus = model.RefundStatusFull
		if o.RefundCompletedAt == nil {
			o.RefundCompletedAt = timePtr(at)
		}
	}
}

// cascadeItems drags lagging items along with order level progress.
func cascadeItems(o *model.Order, to model.Stage, at time.Time) {
	toRank, onHappyPath := happyRank[to]
	for i := range o.Items {
		it := &o.Items[i]
		if it.Stage.Terminal() {
			continue
		}
		switch {
		case to == model.StageCancelled || to == model.StageFailed:
			it.Stage = to
		case onHappyPath:
			if rank, ok := happyRank[it.Stage]; ok && rank < toRank {
				it.Stage = to
				if !it.Paid && o.PaymentStatus == model.PaymentStatusSuccess {
					it.Paid = true
					it.PaidAt = timePtr(at)
				}
			}
		}
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
