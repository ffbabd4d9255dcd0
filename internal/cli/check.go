package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/illenko/redisdoctor/internal/analyzer"
	"github.com/illenko/redisdoctor/internal/config"
	"github.com/illenko/redisdoctor/internal/render"
	"github.com/illenko/redisdoctor/internal/snapshot"
	"github.com/illenko/redisdoctor/pkg/models"
)

var (
	checkBaseline    string
	checkSnapshotOut string
	checkSampleSize  int
	checkSkipSample  bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one health analysis and exit",
	Long: `Runs every health check once and prints the report. The exit code
reflects the outcome: 0 healthy, 1 at least one warning, 2 at least one
critical finding.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkBaseline, "baseline", "", "snapshot file to diff the report against")
	checkCmd.Flags().StringVar(&checkSnapshotOut, "snapshot-out", "", "write the report as a snapshot file")
	checkCmd.Flags().IntVar(&checkSampleSize, "sample-size", 0, "keys to sample (default 1000)")
	checkCmd.Flags().BoolVar(&checkSkipSample, "skip-sampling", false, "skip the keyspace sampling check")
}

func runCheck(cmd *cobra.Command, args []string) error {
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

	a := analyzer.New(client, analyzer.Config{
		Addr:         conn.Addr,
		SampleSize:   sampleSize(cfg, checkSampleSize),
		SkipSampling: checkSkipSample || cfg.Sampling.Skip,
		Thresholds:   thresholdsFrom(cfg),
	})

	report, err := a.Run(ctx)
	if err != nil {
		return err
	}

	var deltas []models.DeltaRow
	if checkBaseline != "" {
		if base, err := snapshot.Load(checkBaseline); err != nil {
			// A broken baseline never blocks the primary analysis.
			slog.Warn("ignoring baseline snapshot", "path", checkBaseline, "error", err)
		} else {
			deltas = analyzer.ComputeDeltas(snapshot.FromReport(report), base)
		}
	}
	recs := analyzer.BuildRecommendations(report.Sections())

	if err := render.New(os.Stdout, jsonOut).Report(report, deltas, recs); err != nil {
		return err
	}
	if checkSnapshotOut != "" {
		if err := snapshot.Save(checkSnapshotOut, snapshot.FromReport(report)); err != nil {
			return err
		}
		slog.Info("snapshot written", "path", checkSnapshotOut)
	}

	exitCode = analyzer.ExitCode(report.Status())
	return nil
}

func sampleSize(cfg *config.Config, flag int) int {
	if flag > 0 {
		return flag
	}
	return cfg.Sampling.SampleSize
}
