package lifecycle

import "github.com/polkiloo/orderpay/internal/domain/model"

// DeriveCustomerStatus projects the order onto the simplified customer status.
func DeriveCustomerStatus(o *model.Order) model.CustomerStatus {
	return Derive(o.Stage, o.PaymentStatus, o.RefundStatus, o.ItemStages())
}

// Derive applies the priority rules in order; the first match wins.
func Derive(stage model.Stage, payment model.PaymentStatus, refund model.RefundStatus, items []model.Stage) model.CustomerStatus {
	if stage == model.StageCancelled || stage == model.StageFailed {
		return model.CustomerStatusCancelled
	}
	if refund == model.RefundStatusFull {
		return model.CustomerStatusRefunded
	}
	if payment == model.PaymentStatusPending {
		return model.CustomerStatusUnpaid
	}
	if allDelivered(items) {
		return model.CustomerStatusDelivered
	}
	for _, s := range items {
		if s.Moving() {
			return model.CustomerStatusShipped
		}
	}
	return model.CustomerStatusProcessing
}

func allDelivered(items []model.Stage) bool {
	if len(items) == 0 {
		return false
	}
	for _, s := range items {
		if s != model.StageDelivered {
			return false
		}
	}
	return true
}
