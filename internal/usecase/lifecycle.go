package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/orderpay/internal/domain/errors"
	"github.com/polkiloo/orderpay/internal/domain/lifecycle"
	"github.com/polkiloo/orderpay/internal/domain/model"
	"github.com/polkiloo/orderpay/internal/domain/repository"
	"github.com/polkiloo/orderpay/internal/notify"
)

// StageCommand moves an order, or one of its items, to a new stage.
type StageCommand struct {
	OrderNumber string
	ItemID      *int64
	Stage       model.Stage
	Note        lifecycle.Note
}

// MilestoneCommand records a logistics fact without changing the stage.
type MilestoneCommand struct {
	OrderNumber string
	ItemID      *int64
	Note        lifecycle.Note
}

// LifecycleUseCase drives fulfillment and logistics stage changes.
type LifecycleUseCase struct {
	orders    repository.OrderRepository
	publisher notify.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewLifecycleUseCase constructs LifecycleUseCase.
func NewLifecycleUseCase(orders repository.OrderRepository, publisher notify.Publisher, logger *zap.Logger) *LifecycleUseCase {
	return &LifecycleUseCase{
		orders:    orders,
		publisher: publisher,
		logger:    logger.Named("lifecycle"),
		now:       time.Now,
	}
}

// Transition applies a guarded stage change. Moving to the current stage
// succeeds without producing events.
func (u *LifecycleUseCase) Transition(ctx context.Context, cmd StageCommand) (*model.Order, error) {
	current, err := findOrder(ctx, u.orders, cmd.OrderNumber)
	if err != nil {
		return nil, err
	}

	var res lifecycle.Result
	order, err := u.orders.Update(ctx, current.ID, func(o *model.Order, _ []model.OrderPayment) (repository.OrderChange, error) {
		var err error
		if cmd.ItemID != nil {
			res, err = lifecycle.TransitionItem(o, *cmd.ItemID, cmd.Stage, u.now(), cmd.Note)
		} else {
			res, err = lifecycle.Transition(o, cmd.Stage, u.now(), cmd.Note)
		}
		if err != nil {
			return repository.OrderChange{}, err
		}
		return repository.OrderChange{Events: res.Events}, nil
	})
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		return order, nil
	}

	u.logger.Info("stage changed",
		zap.String("order", order.Number),
		zap.Int64p("item", cmd.ItemID),
		zap.String("from", string(res.From)),
		zap.String("to", string(res.To)),
	)
	u.publisher.StageChanged(ctx, model.StageChanged{
		OrderNumber: order.Number,
		ItemID:      cmd.ItemID,
		From:        res.From,
		To:          res.To,
		At:          u.now(),
	})
	return order, nil
}

// RecordMilestone appends a logistics event at the current stage.
func (u *LifecycleUseCase) RecordMilestone(ctx context.Context, cmd MilestoneCommand) (model.TrackingEvent, error) {
	current, err := findOrder(ctx, u.orders, cmd.OrderNumber)
	if err != nil {
		return model.TrackingEvent{}, err
	}

	var ev model.TrackingEvent
	_, err = u.orders.Update(ctx, current.ID, func(o *model.Order, _ []model.OrderPayment) (repository.OrderChange, error) {
		if cmd.ItemID != nil {
			if _, ok := o.Item(*cmd.ItemID); !ok {
				return repository.OrderChange{}, domainErrors.ErrNotFound
			}
		}
		ev = lifecycle.Milestone(o, cmd.ItemID, u.now(), cmd.Note)
		return repository.OrderChange{Events: []model.TrackingEvent{ev}}, nil
	})
	if err != nil {
		return model.TrackingEvent{}, err
	}
	return ev, nil
}
