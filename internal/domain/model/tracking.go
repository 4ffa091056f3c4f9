package model

import "time"

// Milestone codes recorded by logistics collaborators without changing stage.
const (
	EventPaymentFailed = "PAYMENT_FAILED"
	EventMilestone     = "MILESTONE"
)

// TrackingEvent is an append-only fact on the order timeline.
// Only Active is ever toggled, when a newer event supersedes it.
type TrackingEvent struct {
	ID              int64
	OrderID         int64
	OrderItemID     *int64
	Type            string
	Stage           Stage
	OccurredAt      time.Time
	Location        string
	Description     string
	CustomerVisible bool
	Active          bool
	Sequence        int
}
