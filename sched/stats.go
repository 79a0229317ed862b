package sched

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	SchedulerStatsName = "xtree/sched"
)

type schedulerStats struct {
	runningCounter  atomic.Int64
	opStartedCount  metric.Int64Counter
	opFinishedCount metric.Int64Counter
	stepCount       metric.Int64Counter
	opDurations     metric.Int64Histogram
	opRunning       metric.Int64ObservableGauge
}

func (stats *schedulerStats) IncreaseOpStartedCount(name string) {
	if stats == nil {
		return
	}
	stats.runningCounter.Add(1)
	stats.opStartedCount.Add(context.Background(), 1,
		metric.WithAttributeSet(attribute.NewSet(attribute.String("xtree.sched.op.name", name))),
	)
}

func (stats *schedulerStats) IncreaseOpFinishedCount(name string, outcome Outcome) {
	if stats == nil {
		return
	}
	stats.runningCounter.Add(-1)
	as := attribute.NewSet(
		attribute.String("xtree.sched.op.name", name),
		attribute.String("xtree.sched.op.outcome", outcome.String()),
	)
	stats.opFinishedCount.Add(context.Background(), 1, metric.WithAttributeSet(as))
}

func (stats *schedulerStats) IncreaseStepCount() {
	if stats == nil {
		return
	}
	stats.stepCount.Add(context.Background(), 1)
}

func (stats *schedulerStats) RecordOpDuration(name string, durationMs int64) {
	if stats == nil {
		return
	}
	as := attribute.NewSet(attribute.String("xtree.sched.op.name", name))
	stats.opDurations.Record(context.Background(), durationMs, metric.WithAttributeSet(as))
}

func newSchedulerStats(name string) *schedulerStats {
	meterName := fmt.Sprintf("%s/%s", SchedulerStatsName, name)
	stats := &schedulerStats{
		opStartedCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xtree.sched.op.started",
				metric.WithDescription("The number of animated operations started."),
			),
		),
		opFinishedCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xtree.sched.op.finished",
				metric.WithDescription("The number of animated operations finished, by outcome."),
			),
		),
		stepCount: lo.Must[metric.Int64Counter](otel.Meter(meterName).
			Int64Counter(
				"xtree.sched.step.executed",
				metric.WithDescription("The number of steps executed."),
			),
		),
		opDurations: lo.Must[metric.Int64Histogram](otel.Meter(meterName).
			Int64Histogram(
				"xtree.sched.op.duration",
				metric.WithDescription("The duration of an animated operation. In milliseconds."),
				metric.WithUnit("ms"),
			),
		),
	}
	stats.opRunning = lo.Must[metric.Int64ObservableGauge](otel.Meter(meterName).
		Int64ObservableGauge(
			"xtree.sched.op.running",
			metric.WithDescription("The number of operations submitted and not finished yet."),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(stats.runningCounter.Load())
				return nil
			}),
		),
	)
	return stats
}
