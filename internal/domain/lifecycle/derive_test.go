package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polkiloo/orderpay/internal/domain/model"
)

func TestDerivePriorityOrder(t *testing.T) {
	cases := []struct {
		name    string
		stage   model.Stage
		payment model.PaymentStatus
		refund  model.RefundStatus
		items   []model.Stage
		want    model.CustomerStatus
	}{
		{"cancelled beats refund", model.StageCancelled, model.PaymentStatusSuccess, model.RefundStatusFull, nil, model.CustomerStatusCancelled},
		{"failed stage", model.StageFailed, model.PaymentStatusPending, model.RefundStatusNone, nil, model.CustomerStatusCancelled},
		{"full refund beats unpaid", model.StageRefunded, model.PaymentStatusPending, model.RefundStatusFull, nil, model.CustomerStatusRefunded},
		{"partial refund is not refunded", model.StageReturned, model.PaymentStatusSuccess, model.RefundStatusPartial, []model.Stage{model.StageDelivered}, model.CustomerStatusDelivered},
		{"unpaid", model.StagePending, model.PaymentStatusPending, model.RefundStatusNone, []model.Stage{model.StagePending}, model.CustomerStatusUnpaid},
		{"all delivered", model.StageDelivered, model.PaymentStatusSuccess, model.RefundStatusNone, []model.Stage{model.StageDelivered, model.StageDelivered}, model.CustomerStatusDelivered},
		{"one moving", model.StagePartiallyDelivered, model.PaymentStatusSuccess, model.RefundStatusNone, []model.Stage{model.StageDelivered, model.StageOutForLocalDelivery}, model.CustomerStatusShipped},
		{"customs held is moving", model.StageCustomsHeld, model.PaymentStatusSuccess, model.RefundStatusNone, []model.Stage{model.StageCustomsHeld}, model.CustomerStatusShipped},
		{"fulfillment", model.StageProcessing, model.PaymentStatusSuccess, model.RefundStatusNone, []model.Stage{model.StageProcessing}, model.CustomerStatusProcessing},
		{"failed payment falls through", model.StagePending, model.PaymentStatusFailed, model.RefundStatusNone, []model.Stage{model.StagePending}, model.CustomerStatusProcessing},
		{"no items", model.StageProcessing, model.PaymentStatusSuccess, model.RefundStatusNone, nil, model.CustomerStatusProcessing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Derive(tc.stage, tc.payment, tc.refund, tc.items))
		})
	}
}

func TestDeriveIsPure(t *testing.T) {
	items := []model.Stage{model.StageAtLocalHub, model.StageDelivered}
	first := Derive(model.StagePartiallyDelivered, model.PaymentStatusSuccess, model.RefundStatusNone, items)
	second := Derive(model.StagePartiallyDelivered, model.PaymentStatusSuccess, model.RefundStatusNone, items)
	assert.Equal(t, first, second)
	assert.Equal(t, []model.Stage{model.StageAtLocalHub, model.StageDelivered}, items)
}

func TestDeriveCustomerStatusUsesOrderStageWithoutItems(t *testing.T) {
	o := &model.Order{Stage: model.StageInInternationalTransit, PaymentStatus: model.PaymentStatusSuccess, RefundStatus: model.RefundStatusNone}
	assert.Equal(t, model.CustomerStatusShipped, DeriveCustomerStatus(o))
	o.Stage = model.StageDelivered
	assert.Equal(t, model.CustomerStatusDelivered, DeriveCustomerStatus(o))
}

func TestCustomerVisibilityCoversAllStages(t *testing.T) {
	hidden := map[model.Stage]bool{
		model.StageOrderedOnProvider: true,
		model.StageProviderConfirmed: true,
		model.StageOnHold:            true,
	}
	for _, s := range model.Stages {
		assert.Equal(t, !hidden[s], CustomerVisible(s), "stage %s", s)
		assert.NotEqual(t, string(s), Describe(s), "stage %s needs a description", s)
	}
	assert.Equal(t, "X", Describe(model.Stage("X")))
}

func TestSupersedeAndCustomerTimeline(t *testing.T) {
	item := int64(7)
	events := []model.TrackingEvent{
		{Sequence: 1, Active: true, CustomerVisible: true},
		{Sequence: 2, Active: true, CustomerVisible: true, OrderItemID: &item},
		{Sequence: 3, Active: false, CustomerVisible: false},
	}
	changed := Supersede(events, model.TrackingEvent{Active: true})
	assert.Equal(t, []int{0}, changed)
	assert.False(t, events[0].Active)
	assert.True(t, events[1].Active)

	assert.Nil(t, Supersede(events, model.TrackingEvent{Active: false}))

	other := int64(7)
	changed = Supersede(events, model.TrackingEvent{Active: true, OrderItemID: &other})
	assert.Equal(t, []int{1}, changed)

	visible := CustomerTimeline(events)
	assert.Len(t, visible, 2)
}

func TestMilestoneKeepsStage(t *testing.T) {
	o := paidOrder(model.StageInInternationalTransit)
	ev := Milestone(o, nil, now, Note{Location: "Dubai", Description: "Transit hub scan"})
	assert.Equal(t, model.EventMilestone, ev.Type)
	assert.Equal(t, model.StageInInternationalTransit, ev.Stage)
	assert.Equal(t, "Dubai", ev.Location)
	assert.True(t, ev.Active)
	assert.Equal(t, model.StageInInternationalTransit, o.Stage)
}
