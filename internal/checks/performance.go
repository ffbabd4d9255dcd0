package checks

import (
	"context"
	"fmt"

	"github.com/illenko/redisdoctor/internal/redis"
	"github.com/illenko/redisdoctor/pkg/models"
)

const slowEntryLimit = 10

type PerformanceCheck struct {
	probe      redis.Probe
	thresholds Thresholds
}

func NewPerformanceCheck(probe redis.Probe, thresholds Thresholds) *PerformanceCheck {
	return &PerformanceCheck{probe: probe, thresholds: thresholds}
}

func (c *PerformanceCheck) Name() string { return "performance" }

func (c *PerformanceCheck) Run(ctx context.Context) (models.Section, error) {
	section := newSection("Performance")

	info, err := c.probe.InfoSection(ctx, "stats")
	if err != nil {
		return section, fmt.Errorf("info stats: %w", err)
	}

	hits := redis.FieldInt(info, "keyspace_hits")
	misses := redis.FieldInt(info, "keyspace_misses")
	opsPerSec := redis.FieldInt(info, "instantaneous_ops_per_sec")
	rejected := redis.FieldInt(info, "rejected_connections")
	evicted := redis.FieldInt(info, "evicted_keys")

	section.Metrics["ops_per_sec"] = float64(opsPerSec)
	section.Metrics["total_commands"] = redis.FieldFloat(info, "total_commands_processed")
	section.Metrics["evicted_keys"] = float64(evicted)

	if hits+misses > 0 {
		hitRate := float64(hits) / float64(hits+misses) * 100
		section.Metrics["hit_rate_pct"] = hitRate
		switch {
		case hitRate < c.thresholds.HitRateCritPct:
			section.AddFinding(models.SeverityCritical,
				fmt.Sprintf("cache hit rate is %.1f%%", hitRate))
		case hitRate < c.thresholds.HitRateWarnPct:
			section.AddFinding(models.SeverityWarning,
				fmt.Sprintf("cache hit rate is %.1f%%", hitRate))
		}
	} else {
		section.AddFinding(models.SeverityOK, "no keyspace reads recorded yet, hit rate not available")
	}

	if rejected > 0 {
		section.AddFinding(models.SeverityWarning,
			fmt.Sprintf("%d connections rejected since startup", rejected))
	}

	c.checkSlowlog(ctx, &section)
	return section, nil
}

func (c *PerformanceCheck) checkSlowlog(ctx context.Context, section *models.Section) {
	count, err := c.probe.SlowCount(ctx)
	if err != nil {
		if redis.IsUnsupported(err) {
			// Restricted SLOWLOG is a soft degradation, not a failure.
			section.Metrics["slowlog_count"] = 0
			section.AddFinding(models.SeverityOK, "SLOWLOG is not available on this server, skipping slow query check")
			return
		}
		section.AddFinding(models.SeverityWarning, fmt.Sprintf("could not read slowlog length: %v", err))
		return
	}

	section.Metrics["slowlog_count"] = float64(count)
	switch {
	case count >= c.thresholds.SlowlogCrit:
		section.AddFinding(models.SeverityCritical,
			fmt.Sprintf("slowlog contains %d entries", count))
	case count >= c.thresholds.SlowlogWarn:
		section.AddFinding(models.SeverityWarning,
			fmt.Sprintf("slowlog contains %d entries", count))
	}

	if count == 0 {
		return
	}
	entries, err := c.probe.SlowEntries(ctx, slowEntryLimit)
	if err != nil || len(entries) == 0 {
		return
	}
	slowest := entries[0]
	for _, e := range entries[1:] {
		if e.Duration > slowest.Duration {
			slowest = e
		}
	}
	section.Details["slowest_command"] = fmt.Sprintf("%s (%s)", slowest.Command, slowest.Duration)
}
