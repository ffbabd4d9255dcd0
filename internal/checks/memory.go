package checks

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/illenko/redisdoctor/internal/redis"
	"github.com/illenko/redisdoctor/pkg/models"
)

type MemoryCheck struct {
	probe      redis.Probe
	thresholds Thresholds
}

func NewMemoryCheck(probe redis.Probe, thresholds Thresholds) *MemoryCheck {
	return &MemoryCheck{probe: probe, thresholds: thresholds}
}

func (c *MemoryCheck) Name() string { return "memory" }

func (c *MemoryCheck) Run(ctx context.Context) (models.Section, error) {
	section := newSection("Memory")

	info, err := c.probe.InfoSection(ctx, "memory")
	if err != nil {
		return section, fmt.Errorf("info memory: %w", err)
	}

	used := redis.FieldInt(info, "used_memory")
	peak := redis.FieldInt(info, "used_memory_peak")
	rss := redis.FieldInt(info, "used_memory_rss")
	maxMemory := redis.FieldInt(info, "maxmemory")
	fragRatio := redis.FieldFloat(info, "mem_fragmentation_ratio")

	section.Metrics["used_memory_bytes"] = float64(used)
	section.Metrics["used_memory_peak_bytes"] = float64(peak)
	section.Metrics["used_memory_rss_bytes"] = float64(rss)
	section.Metrics["maxmemory_bytes"] = float64(maxMemory)
	section.Metrics["fragmentation_ratio"] = fragRatio
	section.Details["maxmemory_policy"] = redis.FieldStr(info, "maxmemory_policy", "unknown")

	if maxMemory > 0 {
		utilization := float64(used) / float64(maxMemory) * 100
		section.Metrics["memory_utilization_pct"] = utilization
		switch {
		case utilization >= c.thresholds.MemoryUtilizationCritPct:
			section.AddFinding(models.SeverityCritical,
				fmt.Sprintf("memory utilization at %.1f%% of maxmemory (%s of %s)",
					utilization, humanize.IBytes(uint64(used)), humanize.IBytes(uint64(maxMemory))))
		case utilization >= c.thresholds.MemoryUtilizationWarnPct:
			section.AddFinding(models.SeverityWarning,
				fmt.Sprintf("memory utilization at %.1f%% of maxmemory", utilization))
		}
	} else {
		section.AddFinding(models.SeverityOK,
			"maxmemory is not set; the server can grow until the OS intervenes")
	}

	if used >= c.thresholds.FragmentationFloorBytes && fragRatio > 0 {
		switch {
		case fragRatio >= c.thresholds.FragmentationCrit:
			section.AddFinding(models.SeverityCritical,
				fmt.Sprintf("memory fragmentation ratio is %.2f", fragRatio))
		case fragRatio >= c.thresholds.FragmentationWarn:
			section.AddFinding(models.SeverityWarning,
				fmt.Sprintf("memory fragmentation ratio is %.2f", fragRatio))
		}
	}

	return section, nil
}
