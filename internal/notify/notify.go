// Package notify hands committed payment and stage facts to downstream consumers.
package notify

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/orderpay/internal/domain/model"
)

// Publisher receives facts after the producing transaction commits.
// Implementations must not block the caller for long.
type Publisher interface {
	PaymentResolved(ctx context.Context, ev model.PaymentResolved)
	StageChanged(ctx context.Context, ev model.StageChanged)
}

// LogPublisher writes facts to the structured log.
type LogPublisher struct {
	log *zap.Logger
}

// NewLogPublisher creates a publisher backed by logger.
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{log: logger.Named("notify")}
}

func (p *LogPublisher) PaymentResolved(_ context.Context, ev model.PaymentResolved) {
	p.log.Info("payment resolved",
		zap.String("order", ev.OrderNumber),
		zap.String("reference", ev.Reference),
		zap.String("gateway", ev.Gateway),
		zap.String("status", string(ev.Status)),
		zap.String("reason", ev.Reason),
		zap.Time("at", ev.At),
	)
}

func (p *LogPublisher) StageChanged(_ context.Context, ev model.StageChanged) {
	fields := []zap.Field{
		zap.String("order", ev.OrderNumber),
		zap.String("from", string(ev.From)),
		zap.String("to", string(ev.To)),
		zap.Time("at", ev.At),
	}
	if ev.ItemID != nil {
		fields = append(fields, zap.Int64("item", *ev.ItemID))
	}
	p.log.Info("stage changed", fields...)
}

// Module provides the default publisher.
var Module = fx.Provide(
	fx.Annotate(NewLogPublisher, fx.As(new(Publisher))),
)
