package checks

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illenko/redisdoctor/pkg/models"
)

func clientsProbe(connected, blocked int64, maxClients string) *fakeProbe {
	probe := &fakeProbe{
		info: map[string]map[string]string{
			"clients": {
				"connected_clients": fmt.Sprintf("%d", connected),
				"blocked_clients":   fmt.Sprintf("%d", blocked),
			},
		},
		configValues: map[string]string{},
	}
	if maxClients != "" {
		probe.configValues["maxclients"] = maxClients
	}
	return probe
}

func TestConnectionsCheckUsage(t *testing.T) {
	tests := []struct {
		name      string
		connected int64
		want      models.Severity
	}{
		{"healthy", 10, models.SeverityOK},
		{"warning at 80 percent", 80, models.SeverityWarning},
		{"critical at 95 percent", 95, models.SeverityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewConnectionsCheck(clientsProbe(tt.connected, 0, "100"), DefaultThresholds())
			section, err := check.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, section.Status)
		})
	}
}

func TestConnectionsCheckBlockedClients(t *testing.T) {
	check := NewConnectionsCheck(clientsProbe(10, 3, "10000"), DefaultThresholds())
	section, err := check.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SeverityWarning, section.Status)
	assert.Equal(t, 3.0, section.Metrics["blocked_clients"])
}

func TestConnectionsCheckConfigUnavailable(t *testing.T) {
	// CONFIG GET restricted: usage falls back to the default limit.
	check := NewConnectionsCheck(clientsProbe(50, 0, ""), DefaultThresholds())
	section, err := check.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SeverityOK, section.Status)
	assert.Equal(t, float64(fallbackMaxClients), section.Metrics["maxclients"])
}

func TestConnectionsCheckIdleClients(t *testing.T) {
	probe := clientsProbe(3, 0, "10000")
	probe.clients = []string{
		"id=1 addr=10.0.0.1:50000 idle=7200 flags=N",
		"id=2 addr=10.0.0.2:50001 idle=10 flags=N",
		"id=3 addr=10.0.0.3:50002 idle=4000 flags=N",
	}
	check := NewConnectionsCheck(probe, DefaultThresholds())
	section, err := check.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2.0, section.Metrics["idle_clients"])
	assert.Equal(t, models.SeverityOK, section.Status, "idle clients are informational only")
}
