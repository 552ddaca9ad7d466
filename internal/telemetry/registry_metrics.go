package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	statusTransitionCounter metric.Int64Counter
	editDecisionCounter     metric.Int64Counter
	resolveDuration         metric.Float64Histogram
	resolvePrunedCounter    metric.Int64Counter
	resortRecordCounter     metric.Int64Counter
)

// InitRegistryMetrics registers the registry instruments on the global
// meter provider. Recorders are no-ops until this has run.
func InitRegistryMetrics() error {
	meter := otel.Meter("badbeatmods.registry")

	var err error
	statusTransitionCounter, err = meter.Int64Counter(
		"registry.status.transitions",
		metric.WithDescription("Status changes applied to projects and versions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return err
	}

	editDecisionCounter, err = meter.Int64Counter(
		"registry.edit.decisions",
		metric.WithDescription("Edits applied directly, queued, approved or denied"),
		metric.WithUnit("{edit}"),
	)
	if err != nil {
		return err
	}

	resolveDuration, err = meter.Float64Histogram(
		"registry.resolve.duration",
		metric.WithDescription("Duration of dependency resolution"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	resolvePrunedCounter, err = meter.Int64Counter(
		"registry.resolve.pruned",
		metric.WithDescription("Projects dropped for unmet dependencies"),
		metric.WithUnit("{project}"),
	)
	if err != nil {
		return err
	}

	resortRecordCounter, err = meter.Int64Counter(
		"registry.resort.records",
		metric.WithDescription("Versions processed by game-version re-sort sweeps"),
		metric.WithUnit("{version}"),
	)
	return err
}

func RecordStatusTransition(ctx context.Context, table, from, to string) {
	if statusTransitionCounter != nil {
		statusTransitionCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("table", table),
			attribute.String("from", from),
			attribute.String("to", to),
		))
	}
}

func RecordEditDecision(ctx context.Context, table, decision string) {
	if editDecisionCounter != nil {
		editDecisionCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("table", table),
			attribute.String("decision", decision),
		))
	}
}

func RecordResolve(ctx context.Context, mode string, durationMs float64, pruned int) {
	if resolveDuration != nil {
		resolveDuration.Record(ctx, durationMs, metric.WithAttributes(attribute.String("mode", mode)))
	}
	if resolvePrunedCounter != nil && pruned > 0 {
		resolvePrunedCounter.Add(ctx, int64(pruned), metric.WithAttributes(attribute.String("mode", mode)))
	}
}

func RecordResortRecord(ctx context.Context, ok bool) {
	if resortRecordCounter != nil {
		status := "success"
		if !ok {
			status = "error"
		}
		resortRecordCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}
