package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/illenko/redisdoctor/internal/analyzer"
	"github.com/illenko/redisdoctor/internal/config"
	"github.com/illenko/redisdoctor/internal/metrics"
	"github.com/illenko/redisdoctor/internal/render"
	"github.com/illenko/redisdoctor/internal/snapshot"
	"github.com/illenko/redisdoctor/pkg/models"
)

var (
	watchInterval    time.Duration
	watchBaseline    string
	watchMetricsAddr string
	watchSampleSize  int
	watchSkipSample  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Repeat the analysis on an interval",
	Long: `Runs the analysis repeatedly, diffing each report against the
previous one. A failed liveness probe triggers one reconnect attempt
before the iteration runs. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 0, "time between iterations (default 5s)")
	watchCmd.Flags().StringVar(&watchBaseline, "baseline", "", "snapshot file to diff the first iteration against")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9121)")
	watchCmd.Flags().IntVar(&watchSampleSize, "sample-size", 0, "keys to sample (default 1000)")
	watchCmd.Flags().BoolVar(&watchSkipSample, "skip-sampling", false, "skip the keyspace sampling check")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	conn, err := resolveConnection(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := connect(ctx, conn, cfg.Timeouts)
	if err != nil {
		return err
	}
	defer client.Close()

	interval := watchInterval
	if interval <= 0 {
		interval = cfg.Watch.Interval
	}
	metricsAddr := watchMetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Watch.MetricsAddr
	}
	if metricsAddr != "" {
		go metrics.Serve(ctx, metricsAddr)
	}

	var baseline *snapshot.Snapshot
	if watchBaseline != "" {
		baseline, err = snapshot.Load(watchBaseline)
		if err != nil {
			slog.Warn("ignoring baseline snapshot", "path", watchBaseline, "error", err)
			baseline = nil
		}
	}

	a := analyzer.New(client, analyzer.Config{
		Addr:         conn.Addr,
		SampleSize:   sampleSize(cfg, watchSampleSize),
		SkipSampling: watchSkipSample || cfg.Sampling.Skip,
		Thresholds:   thresholdsFrom(cfg),
	})
	renderer := render.New(os.Stdout, jsonOut)

	return a.Watch(ctx, analyzer.WatchOptions{
		Interval: interval,
		Baseline: baseline,
		OnReport: func(report *models.Report, deltas []models.DeltaRow) {
			recs := analyzer.BuildRecommendations(report.Sections())
			if err := renderer.Report(report, deltas, recs); err != nil {
				slog.Error("render failed", "error", err)
			}
			if metricsAddr != "" {
				metrics.ObserveReport(report, time.Since(report.Timestamp))
			}
		},
	})
}
