package analyzer

import (
	"context"
	"log/slog"
	"time"

	"github.com/illenko/redisdoctor/internal/snapshot"
	"github.com/illenko/redisdoctor/pkg/models"
)

// WatchOptions configure the repeating analysis loop.
type WatchOptions struct {
	Interval time.Duration
	// Baseline seeds the first iteration's diff; comparison mode loads
	// it from a snapshot file. Later iterations chain on each other.
	Baseline *snapshot.Snapshot
	OnReport func(report *models.Report, deltas []models.DeltaRow)
}

// Watch repeats the analysis until ctx is cancelled. Iteration failures
// are logged and skipped; the previous baseline is only replaced by a
// fully built report.
func (a *Analyzer) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	slog.Info("watch started", "interval", opts.Interval)

	baseline := opts.Baseline
	for {
		baseline = a.watchIteration(ctx, baseline, opts.OnReport)

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("watch stopped")
			return nil
		case <-timer.C:
		}
	}
}

// watchIteration runs one analysis pass and returns the baseline for
// the next pass: the new report's snapshot on success, the old baseline
// untouched on failure.
func (a *Analyzer) watchIteration(ctx context.Context, baseline *snapshot.Snapshot,
	onReport func(*models.Report, []models.DeltaRow)) *snapshot.Snapshot {

	if err := a.probe.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return baseline
		}
		slog.Warn("liveness probe failed, reconnecting", "error", err)
		if err := a.probe.Reconnect(ctx); err != nil {
			slog.Error("reconnect failed, skipping iteration", "error", err)
			return baseline
		}
		// Reconnect succeeded: the iteration proceeds normally.
	}

	report, err := a.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("analysis failed", "error", err)
		}
		return baseline
	}

	current := snapshot.FromReport(report)
	var deltas []models.DeltaRow
	if baseline != nil {
		deltas = ComputeDeltas(current, baseline)
	}
	if onReport != nil {
		onReport(report, deltas)
	}
	return current
}
