package telemetry

import (
	"context"
	"log/slog"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

var meter = Meter("feedbacknotifier.process")
var cpuGauge, _ = meter.Float64Gauge("process.cpu_usage")
var rssGauge, _ = meter.Int64Gauge("process.rss_mb")

// RecordProcessStats takes a single sample of this process' cpu and memory
// usage, meant to be called right before exiting.
func RecordProcessStats(ctx context.Context) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		slog.DebugContext(ctx, "failed to inspect process", "err", err)
		return
	}

	cpuUsage, err := proc.CPUPercentWithContext(ctx)
	if err == nil {
		cpuGauge.Record(ctx, cpuUsage)
	} else {
		slog.DebugContext(ctx, "failed to read cpu usage", "err", err)
	}

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err == nil {
		rssGauge.Record(ctx, int64(mem.RSS/1_000_000))
	} else {
		slog.DebugContext(ctx, "failed to read memory usage", "err", err)
		return
	}

	slog.DebugContext(ctx, "process stats", "cpu_percent", cpuUsage, "rss_bytes", mem.RSS)
}
