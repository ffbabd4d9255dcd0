// Package checks contains the independent health evaluators. Each one
// reads from the probe and produces a single report section; a returned
// error is downgraded by the analyzer, never fatal.
package checks

import (
	"context"

	"github.com/illenko/redisdoctor/pkg/models"
)

type Check interface {
	Name() string
	Run(ctx context.Context) (models.Section, error)
}

// Thresholds are the fixed limits the evaluators judge against. They are
// passed explicitly into every check so tests can override them.
type Thresholds struct {
	MemoryUtilizationWarnPct float64
	MemoryUtilizationCritPct float64
	FragmentationWarn        float64
	FragmentationCrit        float64
	// Fragmentation ratio is noise on near-empty instances; it is only
	// judged once used memory exceeds this floor.
	FragmentationFloorBytes int64

	HitRateWarnPct float64 // below is a warning
	HitRateCritPct float64 // below is critical
	SlowlogWarn    int64
	SlowlogCrit    int64

	ClientUsageWarnPct float64
	ClientUsageCritPct float64
	ClientIdleSeconds  int64

	NoTTLWarnPct  float64
	ReplicaLagSec int64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MemoryUtilizationWarnPct: 75,
		MemoryUtilizationCritPct: 90,
		FragmentationWarn:        1.5,
		FragmentationCrit:        2.0,
		FragmentationFloorBytes:  10 * 1024 * 1024,
		HitRateWarnPct:           80,
		HitRateCritPct:           50,
		SlowlogWarn:              10,
		SlowlogCrit:              50,
		ClientUsageWarnPct:       80,
		ClientUsageCritPct:       95,
		ClientIdleSeconds:        3600,
		NoTTLWarnPct:             50,
		ReplicaLagSec:            10,
	}
}

func newSection(title string) models.Section {
	return models.Section{
		Title:   title,
		Status:  models.SeverityOK,
		Metrics: make(map[string]float64),
		Details: make(map[string]string),
	}
}
