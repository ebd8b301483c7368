package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-commerce-backend/internal/orders"
)

// OrderStore is the slice of the orders store the worker needs: a plain
// read plus the duplicate-safe conditional status transition.
type OrderStore interface {
	OrderByID(ctx context.Context, id string) (*orders.Order, error)
	UpdateStatusIf(ctx context.Context, id, expected, next string) error
}

// ConfirmMetrics records confirmed orders.
type ConfirmMetrics interface {
	OrderConfirmed(ctx context.Context) error
}

// Processor consumes order-created events and moves each order from
// pending to confirmed exactly once, however many times the message is
// delivered.
type Processor struct {
	store   OrderStore
	metrics ConfirmMetrics
	log     logrus.FieldLogger
}

// NewProcessor creates a worker processor.
func NewProcessor(store OrderStore, metrics ConfirmMetrics, log logrus.FieldLogger) *Processor {
	return &Processor{store: store, metrics: metrics, log: log}
}

// Handle receives an SQS batch event and processes each message.
// Returning an error makes the runtime redeliver the batch, eventually
// parking poison messages on the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.WithError(err).Error("worker error")
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg OrderMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return errors.Wrap(err, "invalid message body")
	}

	log := p.log.WithFields(logrus.Fields{
		"order_id":       msg.OrderID,
		"correlation_id": msg.CorrelationID,
	})
	log.Info("received order event")

	err := p.store.UpdateStatusIf(ctx, msg.OrderID, orders.StatusPending, orders.StatusConfirmed)
	if errors.Is(err, orders.ErrStatusMismatch) {
		// The order moved on without us: confirmed by a competing
		// delivery, cancelled by the customer, or already deleted.
		// All of those swallow the duplicate.
		order, getErr := p.store.OrderByID(ctx, msg.OrderID)
		if errors.Is(getErr, orders.ErrNotFound) {
			log.Warn("order deleted before confirmation")
			return nil
		}
		if getErr != nil {
			return errors.Wrap(getErr, "re-read order after mismatch")
		}
		log.WithField("status", order.Status).Info("order already past pending")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "confirm order")
	}

	if err := p.metrics.OrderConfirmed(ctx); err != nil {
		log.WithError(err).Warn("failed to record confirm metric")
	}

	log.Info("order confirmed")
	return nil
}
