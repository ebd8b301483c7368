package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/shopspring/decimal"
)

// Metrics publishes order counters to CloudWatch. Failures are for the
// caller to log and ignore; metrics never fail a request.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
	nowFunc    func() time.Time
}

// NewMetrics returns a Metrics emitter bound to a namespace.
func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		CloudWatch: cw,
		Namespace:  namespace,
		nowFunc:    time.Now,
	}
}

// OrderPlaced records one placed order and its total amount.
func (m *Metrics) OrderPlaced(ctx context.Context, total decimal.Decimal) error {
	amount, _ := total.Float64()
	return m.put(ctx,
		datum("OrdersPlaced", 1, cwtypes.StandardUnitCount, m.nowFunc()),
		datum("OrderAmount", amount, cwtypes.StandardUnitNone, m.nowFunc()),
	)
}

// OrderConfirmed records one order confirmed by the worker.
func (m *Metrics) OrderConfirmed(ctx context.Context) error {
	return m.put(ctx, datum("OrdersConfirmed", 1, cwtypes.StandardUnitCount, m.nowFunc()))
}

// OrderDeleted records one order deletion (restock).
func (m *Metrics) OrderDeleted(ctx context.Context) error {
	return m.put(ctx, datum("OrdersDeleted", 1, cwtypes.StandardUnitCount, m.nowFunc()))
}

func (m *Metrics) put(ctx context.Context, data ...cwtypes.MetricDatum) error {
	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &m.Namespace,
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}

func datum(name string, value float64, unit cwtypes.StandardUnit, at time.Time) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: &name,
		Value:      &value,
		Unit:       unit,
		Timestamp:  &at,
	}
}
