package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStageCategoryIsExhaustive(t *testing.T) {
	for _, s := range Stages {
		if !s.Valid() {
			t.Fatalf("stage %s has no category", s)
		}
	}
	if Stage("BOGUS").Valid() {
		t.Fatal("unknown stage must not be valid")
	}
}

func TestStageTerminal(t *testing.T) {
	terminal := map[Stage]bool{
		StageDelivered: true,
		StageCancelled: true,
		StageFailed:    true,
		StageRefunded:  true,
	}
	for _, s := range Stages {
		if s.Terminal() != terminal[s] {
			t.Fatalf("stage %s: expected terminal=%v", s, terminal[s])
		}
	}
}

func TestStageMoving(t *testing.T) {
	moving := []Stage{
		StageShippedFromProvider, StageInInternationalTransit, StageArrivedInDestinationCountry,
		StageInCustoms, StageCustomsCleared, StageCustomsHeld, StageAtLocalHub, StageOutForLocalDelivery,
	}
	for _, s := range moving {
		if !s.Moving() {
			t.Fatalf("expected %s to be moving", s)
		}
	}
	for _, s := range []Stage{StagePending, StageProcessing, StageDelivered, StageReturnInTransit} {
		if s.Moving() {
			t.Fatalf("did not expect %s to be moving", s)
		}
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	if PaymentStatusPending.Terminal() {
		t.Fatal("pending is not terminal")
	}
	if !PaymentStatusSuccess.Terminal() || !PaymentStatusFailed.Terminal() {
		t.Fatal("success and failed are terminal")
	}
}

func TestRoundMoneyHalfUp(t *testing.T) {
	cases := map[string]string{
		"10.005":  "10.01",
		"10.004":  "10",
		"0.125":   "0.13",
		"1000":    "1000",
		"99.9951": "100",
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		if err != nil {
			t.Fatalf("parse %s: %v", in, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseMoney("abc"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOrderTotal(t *testing.T) {
	total := OrderTotal(
		decimal.RequireFromString("950.50"),
		decimal.RequireFromString("50.50"),
		decimal.RequireFromString("75"),
		decimal.RequireFromString("25.004"),
	)
	if !total.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("unexpected total %s", total)
	}
}

func TestOrderItemStagesFallsBackToOrderStage(t *testing.T) {
	o := &Order{Stage: StageProcessing}
	if got := o.ItemStages(); len(got) != 1 || got[0] != StageProcessing {
		t.Fatalf("unexpected stages %v", got)
	}
	o.Items = []OrderItem{{ID: 1, Stage: StageDelivered}, {ID: 2, Stage: StageAtLocalHub}}
	if got := o.ItemStages(); len(got) != 2 || got[1] != StageAtLocalHub {
		t.Fatalf("unexpected stages %v", got)
	}
	if it, ok := o.Item(2); !ok || it.Stage != StageAtLocalHub {
		t.Fatal("expected item lookup")
	}
	if _, ok := o.Item(3); ok {
		t.Fatal("unexpected item")
	}
}

func TestOrderCloneDetachesItems(t *testing.T) {
	o := &Order{ID: 1, Items: []OrderItem{{ID: 1, Stage: StagePending}}}
	c := o.Clone()
	c.Items[0].Stage = StageDelivered
	if o.Items[0].Stage != StagePending {
		t.Fatal("clone must not share items")
	}
	o.Events = []TrackingEvent{{ID: 1, OrderID: 1}}
	if c := o.Clone(); len(c.Events) != 1 || &c.Events[0] == &o.Events[0] {
		t.Fatal("clone must copy events")
	}
	var nilOrder *Order
	if nilOrder.Clone() != nil {
		t.Fatal("nil clone must be nil")
	}
}
