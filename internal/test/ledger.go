package test

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/lifecycle"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/domain/repository"
)

// Ledger is an in-memory implementation of the order and payment
// repositories. It enforces the same constraints as the postgres schema:
// one pending attempt per order and gateway, one successful attempt per
// order, compare-and-set resolution and write-once raw payloads.
type Ledger struct {
	mu sync.Mutex

	orders   map[int64]*model.Order
	byNumber map[string]int64
	attempts []*model.OrderPayment
	events   map[int64][]model.TrackingEvent

	nextOrder   int64
	nextItem    int64
	nextAttempt int64
	nextEvent   int64

	// Now stamps CreatedAt of new attempts; defaults to time.Now.
	Now func() time.Time
	// BeforeResolve runs outside the lock before every Resolve.
	BeforeResolve func(res model.Resolution)
	// Updates counts committed order updates.
	Updates int
}

// NewLedger constructs an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		orders:   make(map[int64]*model.Order),
		byNumber: make(map[string]int64),
		events:   make(map[int64][]model.TrackingEvent),
		Now:      time.Now,
	}
}

var (
	_ repository.OrderRepository   = (*Ledger)(nil)
	_ repository.PaymentRepository = (*Ledger)(nil)
	_ repository.Factory           = (*Ledger)(nil)
)

// Orders returns the ledger as an order repository.
func (l *Ledger) Orders() repository.OrderRepository { return l }

// Payments returns the ledger as a payment repository.
func (l *Ledger) Payments() repository.PaymentRepository { return l }

// Create stores the order with fresh ids.
func (l *Ledger) Create(_ context.Context, order *model.Order, events []model.TrackingEvent) (*model.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byNumber[order.Number]; ok {
		return nil, domainErrors.ErrAlreadyExists
	}
	l.nextOrder++
	stored := order.Clone()
	stored.ID = l.nextOrder
	for i := range stored.Items {
		l.nextItem++
		stored.Items[i].ID = l.nextItem
		stored.Items[i].OrderID = stored.ID
	}
	l.orders[stored.ID] = stored
	l.byNumber[stored.Number] = stored.ID
	for _, ev := range events {
		ev.OrderID = stored.ID
		l.appendEvent(ev)
	}
	return stored.Clone(), nil
}

// GetByNumber returns a copy of the order.
func (l *Ledger) GetByNumber(_ context.Context, number string) (*model.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.byNumber[number]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return l.orders[id].Clone(), nil
}

// GetByID returns a copy of the order.
func (l *Ledger) GetByID(_ context.Context, id int64) (*model.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return o.Clone(), nil
}

// Update runs fn with the ledger locked and applies the change atomically.
func (l *Ledger) Update(_ context.Context, orderID int64, fn repository.OrderUpdateFunc) (*model.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, ok := l.orders[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	working := stored.Clone()
	change, err := fn(working, l.listByOrder(orderID))
	if err != nil {
		return nil, err
	}

	for _, res := range change.Resolutions {
		a := l.find(res.Reference)
		if a == nil {
			return nil, domainErrors.ErrAttemptNotFound
		}
		if a.Status != model.PaymentStatusPending {
			return nil, &domainErrors.AlreadyResolvedError{Reference: a.Reference, Status: string(a.Status)}
		}
	}
	if na := change.NewAttempt; na != nil {
		for _, a := range l.attempts {
			if a.OrderID != orderID {
				continue
			}
			resolvedHere := false
			for _, res := range change.Resolutions {
				resolvedHere = resolvedHere || res.Reference == a.Reference
			}
			if a.Status == model.PaymentStatusPending && a.Gateway == na.Gateway && !resolvedHere {
				return nil, domainErrors.ErrAlreadyExists
			}
		}
	}

	for _, res := range change.Resolutions {
		l.resolve(l.find(res.Reference), res)
	}
	if na := change.NewAttempt; na != nil {
		l.nextAttempt++
		na.ID = l.nextAttempt
		na.OrderID = orderID
		na.CreatedAt = l.Now()
		stored := *na
		l.attempts = append(l.attempts, &stored)
	}
	for _, id := range change.Advanced {
		for _, a := range l.attempts {
			if a.ID == id && a.OrderAdvancedAt == nil {
				at := l.Now()
				a.OrderAdvancedAt = &at
			}
		}
	}
	for _, ev := range change.Events {
		ev.OrderID = orderID
		l.appendEvent(ev)
	}
	l.orders[orderID] = working
	l.Updates++
	return working.Clone(), nil
}

// Timeline returns the order events in sequence order.
func (l *Ledger) Timeline(_ context.Context, orderID int64) ([]model.TrackingEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.orders[orderID]; !ok {
		return nil, domainErrors.ErrNotFound
	}
	return append([]model.TrackingEvent(nil), l.events[orderID]...), nil
}

// GetByReference returns a copy of the attempt.
func (l *Ledger) GetByReference(_ context.Context, reference string) (*model.OrderPayment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.find(reference)
	if a == nil {
		return nil, domainErrors.ErrNotFound
	}
	c := *a
	return &c, nil
}

// ListByOrder returns the order attempts in creation order.
func (l *Ledger) ListByOrder(_ context.Context, orderID int64) ([]model.OrderPayment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listByOrder(orderID), nil
}

// RecordExchange stores initiation traffic once.
func (l *Ledger) RecordExchange(_ context.Context, reference string, request, response []byte, gatewayReference string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.find(reference)
	if a == nil {
		return domainErrors.ErrAttemptNotFound
	}
	if a.InitRequest == nil && request != nil {
		a.InitRequest = request
		a.InitRequestedAt = &at
	}
	if a.InitResponse == nil && response != nil {
		a.InitResponse = response
	}
	if a.GatewayReference == nil && gatewayReference != "" {
		ref := gatewayReference
		a.GatewayReference = &ref
	}
	return nil
}

// RecordWebhook stores a callback payload once.
func (l *Ledger) RecordWebhook(_ context.Context, reference string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.find(reference)
	if a == nil {
		return domainErrors.ErrAttemptNotFound
	}
	if a.WebhookPayload == nil {
		a.WebhookPayload = payload
	}
	return nil
}

// Resolve applies res when the attempt is still PENDING.
func (l *Ledger) Resolve(_ context.Context, res model.Resolution) (bool, error) {
	if l.BeforeResolve != nil {
		l.BeforeResolve(res)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.find(res.Reference)
	if a == nil {
		return false, domainErrors.ErrAttemptNotFound
	}
	if a.Status != model.PaymentStatusPending {
		return false, nil
	}
	if res.Status == model.PaymentStatusSuccess {
		for _, other := range l.attempts {
			if other.OrderID == a.OrderID && other.Status == model.PaymentStatusSuccess {
				return false, domainErrors.ErrAlreadyExists
			}
		}
	}
	l.resolve(a, res)
	return true, nil
}

// ExpireStale fails pending attempts created before cutoff.
func (l *Ledger) ExpireStale(_ context.Context, cutoff time.Time, limit int, at time.Time) ([]model.OrderPayment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.OrderPayment
	for _, a := range l.attempts {
		if len(out) >= limit {
			break
		}
		if a.Status != model.PaymentStatusPending || !a.CreatedAt.Before(cutoff) {
			continue
		}
		l.resolve(a, model.Resolution{
			Reference:     a.Reference,
			Status:        model.PaymentStatusFailed,
			FailureReason: model.FailureReasonExpired,
			ResolvedAt:    at,
		})
		out = append(out, *a)
	}
	return out, nil
}

// Unsettled lists terminal attempts whose result never reached the order.
func (l *Ledger) Unsettled(_ context.Context, cutoff time.Time, limit int) ([]model.OrderPayment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.OrderPayment
	for _, a := range l.attempts {
		if len(out) >= limit {
			break
		}
		if a.Status != model.PaymentStatusPending && a.OrderAdvancedAt == nil && a.ResolvedAt != nil && a.ResolvedAt.Before(cutoff) {
			out = append(out, *a)
		}
	}
	return out, nil
}

// Age moves the creation and resolution time of an attempt into the past.
func (l *Ledger) Age(reference string, by time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a := l.find(reference); a != nil {
		a.CreatedAt = a.CreatedAt.Add(-by)
		if a.ResolvedAt != nil {
			at := a.ResolvedAt.Add(-by)
			a.ResolvedAt = &at
		}
	}
}

// ClearAdvancement simulates a crash between resolution and order advancement.
func (l *Ledger) ClearAdvancement(reference string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a := l.find(reference); a != nil {
		a.OrderAdvancedAt = nil
	}
}

func (l *Ledger) resolve(a *model.OrderPayment, res model.Resolution) {
	a.Status = res.Status
	a.FailureReason = res.FailureReason
	at := res.ResolvedAt
	a.ResolvedAt = &at
	if res.Settled && a.OrderAdvancedAt == nil {
		settled := at
		a.OrderAdvancedAt = &settled
	}
	if a.GatewayReference == nil && res.GatewayReference != "" {
		ref := res.GatewayReference
		a.GatewayReference = &ref
	}
	if a.WebhookPayload == nil && res.WebhookPayload != nil {
		a.WebhookPayload = res.WebhookPayload
	}
}

func (l *Ledger) find(reference string) *model.OrderPayment {
	for _, a := range l.attempts {
		if a.Reference == reference {
			return a
		}
	}
	return nil
}

func (l *Ledger) listByOrder(orderID int64) []model.OrderPayment {
	var out []model.OrderPayment
	for _, a := range l.attempts {
		if a.OrderID == orderID {
			out = append(out, *a)
		}
	}
	return out
}

func (l *Ledger) appendEvent(ev model.TrackingEvent) {
	events := l.events[ev.OrderID]
	lifecycle.Supersede(events, ev)
	l.nextEvent++
	ev.ID = l.nextEvent
	ev.Sequence = len(events) + 1
	l.events[ev.OrderID] = append(events, ev)
}
