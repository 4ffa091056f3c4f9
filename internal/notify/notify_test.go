package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/polkiloo/orderpay/internal/domain/model"
)

func TestLogPublisherWritesFacts(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewLogPublisher(zap.New(core))
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	p.PaymentResolved(context.Background(), model.PaymentResolved{
		OrderNumber: "ORD-1",
		Reference:   "REF",
		Gateway:     "cbe",
		Status:      model.PaymentStatusSuccess,
		At:          at,
	})
	item := int64(9)
	p.StageChanged(context.Background(), model.StageChanged{
		OrderNumber: "ORD-1",
		ItemID:      &item,
		From:        model.StageAtLocalHub,
		To:          model.StageDelivered,
		At:          at,
	})

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "payment resolved", entries[0].Message)
	assert.Equal(t, "SUCCESS", entries[0].ContextMap()["status"])
	assert.Equal(t, "notify", entries[0].LoggerName)
	assert.Equal(t, "stage changed", entries[1].Message)
	assert.Equal(t, int64(9), entries[1].ContextMap()["item"])
}
