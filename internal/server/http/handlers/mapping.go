package handlers

import (
	"github.com/polkiloo/orderpay/internal/domain/lifecycle"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/server/http/dto"
)

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		Number:             o.Number,
		Stage:              string(o.Stage),
		CustomerStatus:     string(lifecycle.DeriveCustomerStatus(o)),
		PaymentStatus:      string(o.PaymentStatus),
		RefundStatus:       string(o.RefundStatus),
		Subtotal:           o.Subtotal.StringFixed(model.MoneyScale),
		DiscountAmount:     o.DiscountAmount.StringFixed(model.MoneyScale),
		DeliveryFee:        o.DeliveryFee.StringFixed(model.MoneyScale),
		AdditionalCharges:  o.AdditionalCharges.StringFixed(model.MoneyScale),
		TotalAmount:        o.TotalAmount.StringFixed(model.MoneyScale),
		Currency:           o.Currency,
		OrderedAt:          o.OrderedAt,
		PaymentConfirmedAt: o.PaymentConfirmedAt,
		CompletedAt:        o.CompletedAt,
		CancelledAt:        o.CancelledAt,
		Items:              make([]dto.OrderItemResponse, 0, len(o.Items)),
	}
	if o.HeldFrom != nil {
		resp.HeldFrom = string(*o.HeldFrom)
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ID:                 it.ID,
			ProviderProductRef: it.ProviderProductRef,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice.StringFixed(model.MoneyScale),
			Stage:              string(it.Stage),
			Paid:               it.Paid,
			PaidAt:             it.PaidAt,
		})
	}
	return resp
}

func toInitiationResponse(r model.PaymentInitiationResult) dto.PaymentInitiationResponse {
	return dto.PaymentInitiationResponse{
		Success:      r.Success,
		OrderNumber:  r.OrderNumber,
		Reference:    r.Reference,
		Gateway:      r.Gateway,
		RedirectURL:  r.RedirectURL,
		Instructions: r.Instructions,
		NextAction:   string(r.NextAction),
		Message:      r.Message,
	}
}

func toPaymentResponse(p model.OrderPayment) dto.PaymentResponse {
	resp := dto.PaymentResponse{
		Reference:       p.Reference,
		Gateway:         p.Gateway,
		Variant:         p.Variant,
		Status:          string(p.Status),
		FailureReason:   p.FailureReason,
		Amount:          p.Amount.StringFixed(model.MoneyScale),
		Currency:        p.Currency,
		CreatedAt:       p.CreatedAt,
		ResolvedAt:      p.ResolvedAt,
		OrderAdvancedAt: p.OrderAdvancedAt,
	}
	if p.GatewayReference != nil {
		resp.GatewayReference = *p.GatewayReference
	}
	return resp
}

func toEventResponses(events []model.TrackingEvent) []dto.TrackingEventResponse {
	out := make([]dto.TrackingEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, dto.TrackingEventResponse{
			Sequence:        ev.Sequence,
			ItemID:          ev.OrderItemID,
			Type:            ev.Type,
			Stage:           string(ev.Stage),
			OccurredAt:      ev.OccurredAt,
			Location:        ev.Location,
			Description:     ev.Description,
			CustomerVisible: ev.CustomerVisible,
			Active:          ev.Active,
		})
	}
	return out
}
