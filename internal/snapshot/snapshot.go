// Package snapshot serializes a completed report into the flat document
// used as a comparison baseline. The schema is additive-only so a file
// written by an older build stays readable.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/illenko/redisdoctor/pkg/models"
)

type Snapshot struct {
	Timestamp      time.Time          `json:"timestamp"`
	ServerIdentity string             `json:"server_identity,omitempty"`
	Metrics        map[string]float64 `json:"metrics"`
	Summary        models.Summary     `json:"summary"`
}

// FromReport flattens section metrics into "<section>.<metric>" keys.
func FromReport(r *models.Report) *Snapshot {
	metrics := make(map[string]float64)
	flatten := func(name string, s *models.Section) {
		for k, v := range s.Metrics {
			metrics[name+"."+k] = v
		}
	}
	flatten("memory", &r.Memory)
	flatten("performance", &r.Performance)
	flatten("connections", &r.Connections)
	if r.KeyPatterns != nil {
		flatten("keys", r.KeyPatterns)
	}
	flatten("replication", &r.Replication)

	metrics["summary.warning_count"] = float64(r.Summary.WarningCount)
	metrics["summary.critical_count"] = float64(r.Summary.CriticalCount)

	return &Snapshot{
		Timestamp:      r.Timestamp,
		ServerIdentity: r.ServerIdentity,
		Metrics:        metrics,
		Summary:        r.Summary,
	}
}

func Save(path string, s *Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("malformed snapshot %s: %w", path, err)
	}
	if s.Metrics == nil {
		return nil, fmt.Errorf("malformed snapshot %s: no metrics", path)
	}
	return &s, nil
}
