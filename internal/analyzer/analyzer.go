// Package analyzer orchestrates the health checks into a single report
// and drives the single-run, watch and comparison execution modes.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/illenko/redisdoctor/internal/checks"
	"github.com/illenko/redisdoctor/internal/redis"
	"github.com/illenko/redisdoctor/pkg/models"
)

type Config struct {
	Addr         string
	SampleSize   int
	SkipSampling bool
	Thresholds   checks.Thresholds
}

type Analyzer struct {
	probe redis.Probe
	cfg   Config

	memory      checks.Check
	performance checks.Check
	connections checks.Check
	replication checks.Check
	keys        checks.Check
}

func New(probe redis.Probe, cfg Config) *Analyzer {
	return &Analyzer{
		probe:       probe,
		cfg:         cfg,
		memory:      checks.NewMemoryCheck(probe, cfg.Thresholds),
		performance: checks.NewPerformanceCheck(probe, cfg.Thresholds),
		connections: checks.NewConnectionsCheck(probe, cfg.Thresholds),
		replication: checks.NewReplicationCheck(probe, cfg.Thresholds),
		keys:        checks.NewKeysCheck(probe, cfg.Thresholds, cfg.SampleSize),
	}
}

// Run performs one full analysis. Only the initial identity probe is
// fatal; individual check failures degrade their own section.
func (a *Analyzer) Run(ctx context.Context) (*models.Report, error) {
	start := time.Now()

	server, err := a.probe.InfoSection(ctx, "server")
	if err != nil {
		return nil, fmt.Errorf("server identity probe: %w", err)
	}
	report := &models.Report{
		Timestamp:      start,
		ServerIdentity: a.identity(server),
	}

	// The four cheap checks run together; sampling waits for them so a
	// slow keyspace walk cannot starve the fast feedback.
	mandatory := []checks.Check{a.memory, a.performance, a.connections, a.replication}
	results := make([]models.Section, len(mandatory))
	var wg sync.WaitGroup
	for i, chk := range mandatory {
		wg.Add(1)
		go func(i int, chk checks.Check) {
			defer wg.Done()
			results[i] = runCheck(ctx, chk)
		}(i, chk)
	}
	wg.Wait()

	report.Memory = results[0]
	report.Performance = results[1]
	report.Connections = results[2]
	report.Replication = results[3]

	if !a.cfg.SkipSampling {
		section := runCheck(ctx, a.keys)
		report.KeyPatterns = &section
	}

	for _, section := range report.Sections() {
		switch section.Status {
		case models.SeverityWarning:
			report.Summary.WarningCount++
		case models.SeverityCritical:
			report.Summary.CriticalCount++
		}
	}

	slog.Debug("analysis complete",
		"duration", time.Since(start),
		"warnings", report.Summary.WarningCount,
		"criticals", report.Summary.CriticalCount)
	return report, nil
}

// runCheck converts a failing or panicking check into a critical
// section with a single explanatory finding.
func runCheck(ctx context.Context, chk checks.Check) (section models.Section) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("check panicked", "check", chk.Name(), "panic", r)
			section = failedSection(section.Title, chk.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	section, err := chk.Run(ctx)
	if err != nil {
		slog.Warn("check failed", "check", chk.Name(), "error", err)
		return failedSection(section.Title, chk.Name(), err)
	}
	return section
}

func failedSection(title, fallback string, err error) models.Section {
	if title == "" {
		title = fallback
	}
	section := models.Section{Title: title, Status: models.SeverityOK}
	section.AddFinding(models.SeverityCritical, fmt.Sprintf("check failed: %v", err))
	return section
}

func (a *Analyzer) identity(server map[string]string) string {
	version := redis.FieldStr(server, "redis_version", "unknown")
	mode := redis.FieldStr(server, "redis_mode", "standalone")
	uptime := time.Duration(redis.FieldInt(server, "uptime_in_seconds")) * time.Second
	return fmt.Sprintf("%s (redis %s, %s, up %s)", a.cfg.Addr, version, mode, uptime)
}

// ExitCode maps the overall report severity onto the process outcome:
// 0 clean, 1 warnings, 2 criticals.
func ExitCode(status models.Severity) int {
	switch status {
	case models.SeverityCritical:
		return 2
	case models.SeverityWarning:
		return 1
	default:
		return 0
	}
}
