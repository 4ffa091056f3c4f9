package test

import (
	"context"

	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/domain/repository"
)

// PaymentRepositoryStub overrides selected ledger calls. Methods without an
// override fall through to the embedded repository.
type PaymentRepositoryStub struct {
	repository.PaymentRepository

	GetByReferenceFn func(context.Context, string) (*model.OrderPayment, error)
	ResolveFn        func(context.Context, model.Resolution) (bool, error)
}

// GetByReference delegates to override when configured.
func (s *PaymentRepositoryStub) GetByReference(ctx context.Context, reference string) (*model.OrderPayment, error) {
	if s.GetByReferenceFn != nil {
		return s.GetByReferenceFn(ctx, reference)
	}
	return s.PaymentRepository.GetByReference(ctx, reference)
}

// Resolve delegates to override when configured.
func (s *PaymentRepositoryStub) Resolve(ctx context.Context, res model.Resolution) (bool, error) {
	if s.ResolveFn != nil {
		return s.ResolveFn(ctx, res)
	}
	return s.PaymentRepository.Resolve(ctx, res)
}

// OrderRepositoryStub overrides selected order repository calls.
type OrderRepositoryStub struct {
	repository.OrderRepository

	GetByNumberFn func(context.Context, string) (*model.Order, error)
	UpdateFn      func(context.Context, int64, repository.OrderUpdateFunc) (*model.Order, error)
}

// GetByNumber delegates to override when configured.
func (s *OrderRepositoryStub) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	if s.GetByNumberFn != nil {
		return s.GetByNumberFn(ctx, number)
	}
	return s.OrderRepository.GetByNumber(ctx, number)
}

// Update delegates to override when configured.
func (s *OrderRepositoryStub) Update(ctx context.Context, orderID int64, fn repository.OrderUpdateFunc) (*model.Order, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, orderID, fn)
	}
	return s.OrderRepository.Update(ctx, orderID, fn)
}
