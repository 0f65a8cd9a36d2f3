package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the engine's instruments. A nil *Metrics records nothing.
type Metrics struct {
	reconciliations     metric.Int64Counter
	ledgerSize          metric.Int64Histogram
	aggregationFailures metric.Int64Counter
}

// NewMetrics registers the use case instruments on meter. Through the
// Prometheus exporter they surface as loanbook_reconciliations_total,
// loanbook_reconciliation_payments and loanbook_aggregation_failures_total.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	reconciliations, err := meter.Int64Counter("loanbook.reconciliations",
		metric.WithDescription("Ledger replays performed, by operation."))
	if err != nil {
		return nil, fmt.Errorf("reconciliations counter: %w", err)
	}
	ledgerSize, err := meter.Int64Histogram("loanbook.reconciliation.payments",
		metric.WithDescription("Payments replayed per reconciliation."),
		metric.WithUnit("{payment}"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 12, 24, 60, 120, 360))
	if err != nil {
		return nil, fmt.Errorf("ledger size histogram: %w", err)
	}
	aggregationFailures, err := meter.Int64Counter("loanbook.aggregation.failures",
		metric.WithDescription("Loans left out of a portfolio summary because they could not be reconciled."))
	if err != nil {
		return nil, fmt.Errorf("aggregation failures counter: %w", err)
	}
	return &Metrics{
		reconciliations:     reconciliations,
		ledgerSize:          ledgerSize,
		aggregationFailures: aggregationFailures,
	}, nil
}

func (m *Metrics) reconciled(ctx context.Context, operation string, payments int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.reconciliations.Add(ctx, 1, attrs)
	m.ledgerSize.Record(ctx, int64(payments), attrs)
}

func (m *Metrics) aggregationFailed(ctx context.Context, failures int) {
	if m == nil || failures == 0 {
		return
	}
	m.aggregationFailures.Add(ctx, int64(failures))
}
