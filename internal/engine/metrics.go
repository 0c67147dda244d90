package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"recipe-runner/backend/pkg/models"
)

// runMetrics instruments the run lifecycle. Instrument creation errors are
// ignored; with no meter provider installed these are no-ops.
type runMetrics struct {
	started  metric.Int64Counter
	finished metric.Int64Counter
	duration metric.Float64Histogram
}

func newRunMetrics() *runMetrics {
	meter := otel.Meter("recipe-runner/engine")

	started, _ := meter.Int64Counter("recipe_runs_started_total",
		metric.WithDescription("Number of recipe runs started"))
	finished, _ := meter.Int64Counter("recipe_runs_finished_total",
		metric.WithDescription("Number of recipe runs finished, by status"))
	duration, _ := meter.Float64Histogram("recipe_run_duration_seconds",
		metric.WithDescription("Wall-clock duration of finished recipe runs"),
		metric.WithUnit("s"))

	return &runMetrics{started: started, finished: finished, duration: duration}
}

func (m *runMetrics) runStarted(ctx context.Context, recipeID string) {
	m.started.Add(ctx, 1, metric.WithAttributes(attribute.String("recipe_id", recipeID)))
}

func (m *runMetrics) runFinished(ctx context.Context, run *models.RunRecord) {
	attrs := metric.WithAttributes(
		attribute.String("recipe_id", run.RecipeID),
		attribute.String("status", string(run.Status)),
	)
	m.finished.Add(ctx, 1, attrs)
	if seconds, ok := run.DurationSeconds(); ok {
		m.duration.Record(ctx, seconds, attrs)
	}
}
