package test

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/orderpay/internal/domain/model"
)

// SampleOrder builds a small unpaid order.
func SampleOrder() *model.Order {
	return &model.Order{
		ID:            1,
		Number:        "ORD-1",
		Stage:         model.StagePending,
		PaymentStatus: model.PaymentStatusPending,
		RefundStatus:  model.RefundStatusNone,
		Subtotal:      decimal.RequireFromString("100"),
		TotalAmount:   decimal.RequireFromString("100"),
		Currency:      "ETB",
		OrderedAt:     time.Unix(0, 0).UTC(),
		Items: []model.OrderItem{{
			ID: 1, OrderID: 1, ProviderProductRef: "SKU-1", Quantity: 1,
			UnitPrice: decimal.RequireFromString("100"), Stage: model.StagePending,
		}},
	}
}

// SweepFacadeStub mimics sweeper interactions with the application facade.
type SweepFacadeStub struct {
	Expired    [][]model.OrderPayment
	Unadvanced [][]model.OrderPayment
	FailFn     func(context.Context, model.OrderPayment) error

	mu              sync.Mutex
	expiredCalls    int
	unadvancedCalls int
	Failed          []string
	Advanced        []string
}

// Lock exposes internal mutex for external synchronization.
func (s *SweepFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *SweepFacadeStub) Unlock() { s.mu.Unlock() }

// ExpiredAttempts returns batches from the configured queue.
func (s *SweepFacadeStub) ExpiredAttempts(context.Context, int) ([]model.OrderPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiredCalls++
	if s.expiredCalls <= len(s.Expired) {
		return s.Expired[s.expiredCalls-1], nil
	}
	return nil, nil
}

// UnadvancedAttempts returns batches from the configured queue.
func (s *SweepFacadeStub) UnadvancedAttempts(context.Context, int) ([]model.OrderPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unadvancedCalls++
	if s.unadvancedCalls <= len(s.Unadvanced) {
		return s.Unadvanced[s.unadvancedCalls-1], nil
	}
	return nil, nil
}

// FailExpired records the reference.
func (s *SweepFacadeStub) FailExpired(ctx context.Context, attempt model.OrderPayment) error {
	if s.FailFn != nil {
		if err := s.FailFn(ctx, attempt); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failed = append(s.Failed, attempt.Reference)
	return nil
}

// CompleteAdvancement records the reference.
func (s *SweepFacadeStub) CompleteAdvancement(_ context.Context, attempt model.OrderPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Advanced = append(s.Advanced, attempt.Reference)
	return nil
}
