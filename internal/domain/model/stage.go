package model

// Stage is a position in the order and item fulfillment graph.
type Stage string

const (
	StagePending                     Stage = "PENDING"
	StagePaymentConfirmed            Stage = "PAYMENT_CONFIRMED"
	StageProcessing                  Stage = "PROCESSING"
	StageOrderedOnProvider           Stage = "ORDERED_ON_PROVIDER"
	StageProviderConfirmed           Stage = "PROVIDER_CONFIRMED"
	StageShippedFromProvider         Stage = "SHIPPED_FROM_PROVIDER"
	StageInInternationalTransit      Stage = "IN_INTERNATIONAL_TRANSIT"
	StageArrivedInDestinationCountry Stage = "ARRIVED_IN_DESTINATION_COUNTRY"
	StageInCustoms                   Stage = "IN_CUSTOMS"
	StageCustomsCleared              Stage = "CUSTOMS_CLEARED"
	StageCustomsHeld                 Stage = "CUSTOMS_HELD"
	StageAtLocalHub                  Stage = "AT_LOCAL_HUB"
	StageOutForLocalDelivery         Stage = "OUT_FOR_LOCAL_DELIVERY"
	StageDelivered                   Stage = "DELIVERED"
	StagePartiallyDelivered          Stage = "PARTIALLY_DELIVERED"
	StageCancelled                   Stage = "CANCELLED"
	StageFailed                      Stage = "FAILED"
	StageOnHold                      Stage = "ON_HOLD"
	StageReturnRequested             Stage = "RETURN_REQUESTED"
	StageReturnInTransit             Stage = "RETURN_IN_TRANSIT"
	StageReturned                    Stage = "RETURNED"
	StageRefundInitiated             Stage = "REFUND_INITIATED"
	StageRefunded                    Stage = "REFUNDED"
)

// StageCategory groups stages by the kind of progress they represent.
type StageCategory int

const (
	CategoryUnknown StageCategory = iota
	CategoryAwaitingPayment
	CategoryFulfillment
	CategoryMoving
	CategoryDelivered
	CategoryPartial
	CategoryHold
	CategoryReturn
	CategoryClosed
)

// Stages lists every known stage in typical progression order.
var Stages = []Stage{
	StagePending,
	StagePaymentConfirmed,
	StageProcessing,
	StageOrderedOnProvider,
	StageProviderConfirmed,
	StageShippedFromProvider,
	StageInInternationalTransit,
	StageArrivedInDestinationCountry,
	StageInCustoms,
	StageCustomsCleared,
	StageCustomsHeld,
	StageAtLocalHub,
	StageOutForLocalDelivery,
	StageDelivered,
	StagePartiallyDelivered,
	StageCancelled,
	StageFailed,
	StageOnHold,
	StageReturnRequested,
	StageReturnInTransit,
	StageReturned,
	StageRefundInitiated,
	StageRefunded,
}

// Category maps a stage to its category. Unknown values map to CategoryUnknown.
func (s Stage) Category() StageCategory {
	switch s {
	case StagePending:
		return CategoryAwaitingPayment
	case StagePaymentConfirmed, StageProcessing, StageOrderedOnProvider, StageProviderConfirmed:
		return CategoryFulfillment
	case StageShippedFromProvider, StageInInternationalTransit, StageArrivedInDestinationCountry,
		StageInCustoms, StageCustomsCleared, StageCustomsHeld, StageAtLocalHub, StageOutForLocalDelivery:
		return CategoryMoving
	case StageDelivered:
		return CategoryDelivered
	case StagePartiallyDelivered:
		return CategoryPartial
	case StageOnHold:
		return CategoryHold
	case StageReturnRequested, StageReturnInTransit, StageReturned, StageRefundInitiated:
		return CategoryReturn
	case StageCancelled, StageFailed, StageRefunded:
		return CategoryClosed
	default:
		return CategoryUnknown
	}
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s.Category() != CategoryUnknown
}

// Terminal reports whether no further transition is expected from s.
func (s Stage) Terminal() bool {
	switch s.Category() {
	case CategoryDelivered, CategoryClosed:
		return true
	default:
		return false
	}
}

// Moving reports whether goods are physically on the way.
func (s Stage) Moving() bool {
	return s.Category() == CategoryMoving
}
