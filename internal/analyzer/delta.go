package analyzer

import (
	"github.com/illenko/redisdoctor/internal/snapshot"
	"github.com/illenko/redisdoctor/pkg/models"
)

type deltaMetric struct {
	label          string
	key            string
	higherIsBetter bool
}

// The compared metric set and its order are fixed so two runs always
// produce the same table.
var deltaMetrics = []deltaMetric{
	{"Used Memory", "memory.used_memory_bytes", false},
	{"Fragmentation Ratio", "memory.fragmentation_ratio", false},
	{"Memory Utilization %", "memory.memory_utilization_pct", false},
	{"Hit Rate %", "performance.hit_rate_pct", true},
	{"Ops/sec", "performance.ops_per_sec", true},
	{"Slowlog Entries", "performance.slowlog_count", false},
	{"Connected Clients", "connections.connected_clients", false},
	{"Warnings", "summary.warning_count", false},
	{"Criticals", "summary.critical_count", false},
}

// ComputeDeltas compares two snapshots metric by metric. Metrics absent
// on either side produce no row.
func ComputeDeltas(current, previous *snapshot.Snapshot) []models.DeltaRow {
	if current == nil || previous == nil {
		return nil
	}

	var rows []models.DeltaRow
	for _, m := range deltaMetrics {
		cur, okCur := current.Metrics[m.key]
		prev, okPrev := previous.Metrics[m.key]
		if !okCur || !okPrev {
			continue
		}

		row := models.DeltaRow{
			Label:    m.label,
			Previous: prev,
			Current:  cur,
		}
		switch {
		case cur == prev:
			row.Direction = models.DirectionUnchanged
		case cur > prev:
			row.Direction = models.DirectionUp
			row.IsImprovement = m.higherIsBetter
		default:
			row.Direction = models.DirectionDown
			row.IsImprovement = !m.higherIsBetter
		}
		rows = append(rows, row)
	}
	return rows
}
