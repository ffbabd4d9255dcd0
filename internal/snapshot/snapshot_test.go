package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illenko/redisdoctor/pkg/models"
)

func testReport() *models.Report {
	r := &models.Report{
		Timestamp:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		ServerIdentity: "localhost:6379 (redis 7.2.4)",
		Memory: models.Section{
			Title:   "Memory",
			Status:  models.SeverityWarning,
			Metrics: map[string]float64{"used_memory_bytes": 1024, "fragmentation_ratio": 1.3},
		},
		Performance: models.Section{
			Title:   "Performance",
			Status:  models.SeverityOK,
			Metrics: map[string]float64{"hit_rate_pct": 92.5},
		},
		Summary: models.Summary{WarningCount: 1},
	}
	return r
}

func TestFromReportFlattensMetrics(t *testing.T) {
	s := FromReport(testReport())

	assert.Equal(t, 1024.0, s.Metrics["memory.used_memory_bytes"])
	assert.Equal(t, 92.5, s.Metrics["performance.hit_rate_pct"])
	assert.Equal(t, 1.0, s.Metrics["summary.warning_count"])
	assert.Equal(t, 0.0, s.Metrics["summary.critical_count"])
	assert.Equal(t, 1, s.Summary.WarningCount)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	original := FromReport(testReport())

	require.NoError(t, Save(path, original))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, original.Metrics, loaded.Metrics)
	assert.Equal(t, original.Summary, loaded.Summary)
	assert.True(t, original.Timestamp.Equal(loaded.Timestamp))
}

func TestLoadMalformedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "malformed snapshot")
}

func TestLoadSnapshotWithoutMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timestamp":"2026-08-01T12:00:00Z"}`), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "no metrics")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
