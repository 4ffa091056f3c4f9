package lifecycle

import (
	"time"

	"github.com/polkiloo/orderpay/internal/domain/model"
)

// CustomerVisible reports whether a stage change is shown on the customer tracking page.
func CustomerVisible(s model.Stage) bool {
	switch s {
	case model.StagePending, model.StagePaymentConfirmed, model.StageProcessing,
		model.StageShippedFromProvider, model.StageInInternationalTransit,
		model.StageArrivedInDestinationCountry, model.StageInCustoms, model.StageCustomsCleared,
		model.StageCustomsHeld, model.StageAtLocalHub, model.StageOutForLocalDelivery,
		model.StageDelivered, model.StagePartiallyDelivered, model.StageCancelled, model.StageFailed,
		model.StageReturnRequested, model.StageReturnInTransit, model.StageReturned,
		model.StageRefundInitiated, model.StageRefunded:
		return true
	case model.StageOrderedOnProvider, model.StageProviderConfirmed, model.StageOnHold:
		return false
	default:
		return false
	}
}

// Describe returns the default tracking text for a stage.
func Describe(s model.Stage) string {
	switch s {
	case model.StagePending:
		return "Order placed, awaiting payment"
	case model.StagePaymentConfirmed:
		return "Payment confirmed"
	case model.StageProcessing:
		return "Order is being processed"
	case model.StageOrderedOnProvider:
		return "Order placed with supplier"
	case model.StageProviderConfirmed:
		return "Supplier confirmed the order"
	case model.StageShippedFromProvider:
		return "Shipped by supplier"
	case model.StageInInternationalTransit:
		return "In international transit"
	case model.StageArrivedInDestinationCountry:
		return "Arrived in destination country"
	case model.StageInCustoms:
		return "In customs"
	case model.StageCustomsCleared:
		return "Cleared customs"
	case model.StageCustomsHeld:
		return "Held at customs"
	case model.StageAtLocalHub:
		return "At local hub"
	case model.StageOutForLocalDelivery:
		return "Out for delivery"
	case model.StageDelivered:
		return "Delivered"
	case model.StagePartiallyDelivered:
		return "Partially delivered"
	case model.StageCancelled:
		return "Order cancelled"
	case model.StageFailed:
		return "Order could not be completed"
	case model.StageOnHold:
		return "Order on hold"
	case model.StageReturnRequested:
		return "Return requested"
	case model.StageReturnInTransit:
		return "Return in transit"
	case model.StageReturned:
		return "Return received"
	case model.StageRefundInitiated:
		return "Refund initiated"
	case model.StageRefunded:
		return "Refunded"
	default:
		return string(s)
	}
}

// Placed builds the first timeline entry of a new order.
func Placed(o *model.Order, at time.Time) model.TrackingEvent {
	return newEvent(o, nil, o.Stage, at, Note{})
}

// Milestone builds a logistics event that does not change the stage.
func Milestone(o *model.Order, itemID *int64, at time.Time, note Note) model.TrackingEvent {
	ev := newEvent(o, itemID, o.Stage, at, note)
	ev.Type = model.EventMilestone
	return ev
}

// newEvent builds a timeline entry; only customer visible entries become active.
func newEvent(o *model.Order, itemID *int64, stage model.Stage, at time.Time, note Note) model.TrackingEvent {
	visible := CustomerVisible(stage)
	if note.Visible != nil {
		visible = *note.Visible
	}
	desc := note.Description
	if desc == "" {
		desc = Describe(stage)
	}
	return model.TrackingEvent{
		OrderID:         o.ID,
		OrderItemID:     itemID,
		Type:            string(stage),
		Stage:           stage,
		OccurredAt:      at,
		Location:        note.Location,
		Description:     desc,
		CustomerVisible: visible,
		Active:          visible,
	}
}

// Supersede marks earlier active events in the same scope inactive when next is active.
// Events are ordered by sequence. It returns the indexes that were deactivated.
func Supersede(events []model.TrackingEvent, next model.TrackingEvent) []int {
	if !next.Active {
		return nil
	}
	var changed []int
	for i := range events {
		if events[i].Active && sameScope(events[i].OrderItemID, next.OrderItemID) {
			events[i].Active = false
			changed = append(changed, i)
		}
	}
	return changed
}

func sameScope(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CustomerTimeline filters the events a customer may see.
func CustomerTimeline(events []model.TrackingEvent) []model.TrackingEvent {
	out := make([]model.TrackingEvent, 0, len(events))
	for _, ev := range events {
		if ev.CustomerVisible {
			out = append(out, ev)
		}
	}
	return out
}
