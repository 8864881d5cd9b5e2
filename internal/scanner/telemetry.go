package scanner

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("configaudit.scanner")
	meter  = otel.Meter("configaudit.scanner")
)

var (
	runTotal    metric.Int64Counter
	runDuration metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error
		runTotal, err = meter.Int64Counter(
			"scanner_runs_total",
			metric.WithDescription("Execuções de ferramentas externas por resultado"),
		)
		if err != nil {
			metricsErr = err
			return
		}
		runDuration, err = meter.Float64Histogram(
			"scanner_run_duration_seconds",
			metric.WithDescription("Duração das execuções de ferramentas externas"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func startRunSpan(ctx context.Context, cmd Command) (context.Context, trace.Span) {
	return tracer.Start(ctx, "scanner.Run",
		trace.WithAttributes(
			attribute.String("scanner.tool", cmd.Tool),
			attribute.String("scanner.bin", cmd.Bin),
			attribute.Int("scanner.args", len(cmd.Args)),
		),
	)
}

// finishRun fecha o span e registra as métricas. outcome é "ok", "exit",
// "timeout" ou "error".
func finishRun(ctx context.Context, span trace.Span, tool, outcome string, exitCode int, elapsed time.Duration, err error) {
	span.SetAttributes(
		attribute.String("scanner.outcome", outcome),
		attribute.Int("scanner.exit_code", exitCode),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	span.End()

	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	)
	runTotal.Add(ctx, 1, attrs)
	runDuration.Record(ctx, elapsed.Seconds(), attrs)
}
