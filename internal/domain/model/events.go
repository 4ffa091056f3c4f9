package model

import "time"

// PaymentResolved is published after an attempt reaches a terminal status.
type PaymentResolved struct {
	OrderNumber string
	Reference   string
	Gateway     string
	Status      PaymentStatus
	Reason      string
	At          time.Time
}

// StageChanged is published after an order or item stage change commits.
type StageChanged struct {
	OrderNumber string
	ItemID      *int64
	From        Stage
	To          Stage
	At          time.Time
}
