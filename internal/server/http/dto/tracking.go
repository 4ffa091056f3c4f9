package dto

import "time"

// TrackingEventResponse is one timeline entry.
type TrackingEventResponse struct {
	Sequence        int       `json:"sequence"`
	ItemID          *int64    `json:"itemId,omitempty"`
	Type            string    `json:"type"`
	Stage           string    `json:"stage"`
	OccurredAt      time.Time `json:"occurredAt"`
	Location        string    `json:"location,omitempty"`
	Description     string    `json:"description"`
	CustomerVisible bool      `json:"customerVisible"`
	Active          bool      `json:"active"`
}

// TrackingResponse is the customer tracking page.
type TrackingResponse struct {
	OrderNumber string                  `json:"orderNumber"`
	Status      string                  `json:"status"`
	Events      []TrackingEventResponse `json:"events"`
}

// StageRequest moves an order or item to a new stage.
type StageRequest struct {
	Stage       string `json:"stage" binding:"required"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Visible     *bool  `json:"customerVisible"`
}

// MilestoneRequest records a logistics milestone.
type MilestoneRequest struct {
	ItemID      *int64 `json:"itemId"`
	Location    string `json:"location"`
	Description string `json:"description" binding:"required"`
	Visible     *bool  `json:"customerVisible"`
}
