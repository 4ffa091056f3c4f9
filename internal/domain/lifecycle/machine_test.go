package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/model"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func paidOrder(stage model.Stage) *model.Order {
	return &model.Order{
		ID:            1,
		Number:        "ORD-1",
		Stage:         stage,
		PaymentStatus: model.PaymentStatusSuccess,
		RefundStatus:  model.RefundStatusNone,
		Items: []model.OrderItem{
			{ID: 10, OrderID: 1, Quantity: 1, Stage: stage, Paid: true},
			{ID: 11, OrderID: 1, Quantity: 2, Stage: stage, Paid: true},
		},
	}
}

func TestTransitionHappyPath(t *testing.T) {
	o := paidOrder(model.StagePaymentConfirmed)
	path := []model.Stage{
		model.StageProcessing,
		model.StageOrderedOnProvider,
		model.StageProviderConfirmed,
		model.StageShippedFromProvider,
		model.StageInInternationalTransit,
		model.StageArrivedInDestinationCountry,
		model.StageInCustoms,
		model.StageCustomsHeld,
		model.StageCustomsCleared,
		model.StageAtLocalHub,
		model.StageOutForLocalDelivery,
		model.StageDelivered,
	}
	for _, stage := range path {
		res, err := Transition(o, stage, now, Note{})
		require.NoError(t, err, "to %s", stage)
		require.True(t, res.Changed)
		require.Len(t, res.Events, 1)
		assert.Equal(t, string(stage), res.Events[0].Type)
	}
	assert.Equal(t, model.StageDelivered, o.Stage)
	require.NotNil(t, o.CompletedAt)
	for _, it := range o.Items {
		assert.Equal(t, model.StageDelivered, it.Stage)
	}
}

func TestTransitionSameStageIsNoop(t *testing.T) {
	o := paidOrder(model.StageProcessing)
	res, err := Transition(o, model.StageProcessing, now, Note{})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, res.Events)
}

func TestTransitionRejectsBackwardsAndTerminal(t *testing.T) {
	o := paidOrder(model.StageAtLocalHub)
	_, err := Transition(o, model.StageProcessing, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)
	assert.Equal(t, model.StageAtLocalHub, o.Stage)

	o = paidOrder(model.StageCustomsCleared)
	_, err = Transition(o, model.StageCustomsHeld, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)

	for _, terminal := range []model.Stage{model.StageDelivered, model.StageCancelled, model.StageFailed, model.StageRefunded} {
		o = paidOrder(terminal)
		_, err = Transition(o, model.StageOnHold, now, Note{})
		require.ErrorIs(t, err, domainErrors.ErrIllegalTransition, "from %s", terminal)
	}

	o = paidOrder(model.StageProcessing)
	_, err = Transition(o, model.Stage("BOGUS"), now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)
}

func TestTransitionRequiresPayment(t *testing.T) {
	o := paidOrder(model.StagePending)
	o.PaymentStatus = model.PaymentStatusPending

	for _, to := range []model.Stage{model.StagePaymentConfirmed, model.StageProcessing, model.StageShippedFromProvider, model.StageReturnRequested} {
		_, err := Transition(o, to, now, Note{})
		var te *domainErrors.TransitionError
		require.True(t, errors.As(err, &te), "to %s", to)
		require.ErrorIs(t, err, domainErrors.ErrPaymentRequired)
	}
	assert.Equal(t, model.StagePending, o.Stage)

	_, err := Transition(o, model.StageCancelled, now, Note{})
	require.NoError(t, err)
	require.NotNil(t, o.CancelledAt)
	for _, it := range o.Items {
		assert.Equal(t, model.StageCancelled, it.Stage)
	}
}

func TestOnHoldResumesOnlyToHeldStage(t *testing.T) {
	o := paidOrder(model.StageInCustoms)
	_, err := Transition(o, model.StageOnHold, now, Note{})
	require.NoError(t, err)
	require.NotNil(t, o.HeldFrom)
	assert.Equal(t, model.StageInCustoms, *o.HeldFrom)

	_, err = Transition(o, model.StageAtLocalHub, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)

	_, err = Transition(o, model.StageInCustoms, now, Note{})
	require.NoError(t, err)
	assert.Nil(t, o.HeldFrom)
	assert.Equal(t, model.StageInCustoms, o.Stage)

	_, err = Transition(o, model.StageOnHold, now, Note{})
	require.NoError(t, err)
	_, err = Transition(o, model.StageFailed, now, Note{})
	require.NoError(t, err)
	assert.Nil(t, o.HeldFrom)
}

func TestReturnAndRefundPath(t *testing.T) {
	o := paidOrder(model.StageOutForLocalDelivery)
	steps := []model.Stage{
		model.StageReturnRequested,
		model.StageReturnInTransit,
		model.StageReturned,
		model.StageRefundInitiated,
		model.StageRefunded,
	}
	wantRefund := []model.RefundStatus{
		model.RefundStatusRequested,
		model.RefundStatusRequested,
		model.RefundStatusRequested,
		model.RefundStatusProcessing,
		model.RefundStatusFull,
	}
	for i, stage := range steps {
		_, err := Transition(o, stage, now, Note{})
		require.NoError(t, err, "to %s", stage)
		assert.Equal(t, wantRefund[i], o.RefundStatus)
	}
	require.NotNil(t, o.RefundInitiatedAt)
	require.NotNil(t, o.RefundCompletedAt)
	assert.Equal(t, model.CustomerStatusRefunded, DeriveCustomerStatus(o))
}

func TestReturnPathCannotSkip(t *testing.T) {
	o := paidOrder(model.StageReturnRequested)
	_, err := Transition(o, model.StageRefunded, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)
	_, err = Transition(o, model.StageDelivered, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)
	o = paidOrder(model.StageReturnInTransit)
	_, err = Transition(o, model.StageReturnRequested, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)
}

func TestPartiallyDeliveredRequiresDivergence(t *testing.T) {
	o := paidOrder(model.StageAtLocalHub)
	_, err := Transition(o, model.StagePartiallyDelivered, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)

	o.Items[0].Stage = model.StageDelivered
	_, err = Transition(o, model.StagePartiallyDelivered, now, Note{})
	require.NoError(t, err)

	_, err = Transition(o, model.StageAtLocalHub, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)

	_, err = Transition(o, model.StageDelivered, now, Note{})
	require.NoError(t, err)
	assert.Equal(t, model.StageDelivered, o.Items[1].Stage)
}

func TestTransitionEventsCarryNote(t *testing.T) {
	o := paidOrder(model.StageProcessing)
	hidden := false
	res, err := Transition(o, model.StageShippedFromProvider, now, Note{Location: "Shenzhen", Description: "handed to carrier", Visible: &hidden})
	require.NoError(t, err)
	ev := res.Events[0]
	assert.Equal(t, "Shenzhen", ev.Location)
	assert.Equal(t, "handed to carrier", ev.Description)
	assert.False(t, ev.CustomerVisible)
	assert.False(t, ev.Active)

	res, err = Transition(o, model.StageInInternationalTransit, now, Note{})
	require.NoError(t, err)
	ev = res.Events[0]
	assert.Equal(t, Describe(model.StageInInternationalTransit), ev.Description)
	assert.True(t, ev.CustomerVisible)
	assert.True(t, ev.Active)
	assert.Nil(t, ev.OrderItemID)
}

func TestTransitionItemReconcilesOrder(t *testing.T) {
	o := paidOrder(model.StageOutForLocalDelivery)

	res, err := TransitionItem(o, 10, model.StageDelivered, now, Note{})
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	require.NotNil(t, res.Events[0].OrderItemID)
	assert.Equal(t, int64(10), *res.Events[0].OrderItemID)
	assert.Equal(t, model.StagePartiallyDelivered, o.Stage)

	res, err = TransitionItem(o, 11, model.StageDelivered, now, Note{})
	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, model.StageDelivered, o.Stage)
	assert.Equal(t, model.CustomerStatusDelivered, DeriveCustomerStatus(o))
}

func TestTransitionItemGuards(t *testing.T) {
	o := paidOrder(model.StageProcessing)
	_, err := TransitionItem(o, 99, model.StageDelivered, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrNotFound)

	res, err := TransitionItem(o, 10, model.StageProcessing, now, Note{})
	require.NoError(t, err)
	assert.False(t, res.Changed)

	_, err = TransitionItem(o, 10, model.StagePending, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)

	o.PaymentStatus = model.PaymentStatusPending
	_, err = TransitionItem(o, 10, model.StageShippedFromProvider, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrPaymentRequired)

	o = paidOrder(model.StageOnHold)
	_, err = TransitionItem(o, 10, model.StageAtLocalHub, now, Note{})
	require.ErrorIs(t, err, domainErrors.ErrIllegalTransition)
}

func TestConfirmPaymentIsIdempotent(t *testing.T) {
	o := &model.Order{
		ID:            1,
		Stage:         model.StagePending,
		PaymentStatus: model.PaymentStatusPending,
		Items:         []model.OrderItem{{ID: 1, Stage: model.StagePending}, {ID: 2, Stage: model.StagePending}},
	}
	res := ConfirmPayment(o, now)
	require.True(t, res.Changed)
	require.Len(t, res.Events, 1)
	assert.Equal(t, model.StagePaymentConfirmed, o.Stage)
	assert.Equal(t, model.PaymentStatusSuccess, o.PaymentStatus)
	require.NotNil(t, o.PaymentConfirmedAt)
	for _, it := range o.Items {
		assert.True(t, it.Paid)
		assert.Equal(t, model.StagePaymentConfirmed, it.Stage)
	}

	confirmedAt := *o.PaymentConfirmedAt
	again := ConfirmPayment(o, now.Add(time.Hour))
	assert.False(t, again.Changed)
	assert.Empty(t, again.Events)
	assert.Equal(t, confirmedAt, *o.PaymentConfirmedAt)
}

func TestConfirmPaymentKeepsAdvancedOrClosedStage(t *testing.T) {
	o := paidOrder(model.StageProcessing)
	o.PaymentStatus = model.PaymentStatusFailed
	res := ConfirmPayment(o, now)
	assert.True(t, res.Changed)
	assert.Empty(t, res.Events)
	assert.Equal(t, model.StageProcessing, o.Stage)

	o = paidOrder(model.StageCancelled)
	o.PaymentStatus = model.PaymentStatusPending
	ConfirmPayment(o, now)
	assert.Equal(t, model.StageCancelled, o.Stage)
	assert.Equal(t, model.PaymentStatusSuccess, o.PaymentStatus)

	held := model.StagePending
	o = &model.Order{Stage: model.StageOnHold, HeldFrom: &held, PaymentStatus: model.PaymentStatusPending}
	ConfirmPayment(o, now)
	require.NotNil(t, o.HeldFrom)
	assert.Equal(t, model.StagePaymentConfirmed, *o.HeldFrom)
}

func TestApplyPaymentFailure(t *testing.T) {
	o := &model.Order{ID: 1, Stage: model.StagePending, PaymentStatus: model.PaymentStatusPending}

	res := ApplyPaymentFailure(o, []model.OrderPayment{
		{Status: model.PaymentStatusFailed},
		{Status: model.PaymentStatusPending},
	}, now, "declined")
	assert.False(t, res.Changed)
	assert.Equal(t, model.PaymentStatusPending, o.PaymentStatus)

	res = ApplyPaymentFailure(o, []model.OrderPayment{{Status: model.PaymentStatusFailed}}, now, "declined")
	assert.True(t, res.Changed)
	assert.Equal(t, model.PaymentStatusFailed, o.PaymentStatus)
	require.Len(t, res.Events, 1)
	assert.Equal(t, model.EventPaymentFailed, res.Events[0].Type)
	assert.False(t, res.Events[0].CustomerVisible)

	o = &model.Order{PaymentStatus: model.PaymentStatusSuccess}
	res = ApplyPaymentFailure(o, nil, now, "late")
	assert.False(t, res.Changed)
	assert.Equal(t, model.PaymentStatusSuccess, o.PaymentStatus)
}

func TestReopenPayment(t *testing.T) {
	o := &model.Order{PaymentStatus: model.PaymentStatusFailed}
	assert.True(t, ReopenPayment(o, now))
	assert.Equal(t, model.PaymentStatusPending, o.PaymentStatus)
	assert.False(t, ReopenPayment(o, now))
}
