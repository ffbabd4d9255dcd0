package checks

import (
	"context"
	"fmt"
	"strconv"

	"github.com/illenko/redisdoctor/internal/redis"
	"github.com/illenko/redisdoctor/pkg/models"
)

const fallbackMaxClients = 10000

type ConnectionsCheck struct {
	probe      redis.Probe
	thresholds Thresholds
}

func NewConnectionsCheck(probe redis.Probe, thresholds Thresholds) *ConnectionsCheck {
	return &ConnectionsCheck{probe: probe, thresholds: thresholds}
}

func (c *ConnectionsCheck) Name() string { return "connections" }

func (c *ConnectionsCheck) Run(ctx context.Context) (models.Section, error) {
	section := newSection("Connections")

	info, err := c.probe.InfoSection(ctx, "clients")
	if err != nil {
		return section, fmt.Errorf("info clients: %w", err)
	}

	connected := redis.FieldInt(info, "connected_clients")
	blocked := redis.FieldInt(info, "blocked_clients")
	section.Metrics["connected_clients"] = float64(connected)
	section.Metrics["blocked_clients"] = float64(blocked)

	maxClients := int64(fallbackMaxClients)
	if v, err := c.probe.ConfigValue(ctx, "maxclients"); err == nil {
		if n, perr := strconv.ParseInt(v, 10, 64); perr == nil && n > 0 {
			maxClients = n
		}
	} else if redis.IsUnsupported(err) {
		section.AddFinding(models.SeverityOK,
			fmt.Sprintf("CONFIG GET is not available, assuming maxclients=%d", fallbackMaxClients))
	}
	section.Metrics["maxclients"] = float64(maxClients)

	usage := float64(connected) / float64(maxClients) * 100
	section.Metrics["client_usage_pct"] = usage
	switch {
	case usage >= c.thresholds.ClientUsageCritPct:
		section.AddFinding(models.SeverityCritical,
			fmt.Sprintf("%d of %d client connections in use (%.1f%%)", connected, maxClients, usage))
	case usage >= c.thresholds.ClientUsageWarnPct:
		section.AddFinding(models.SeverityWarning,
			fmt.Sprintf("%d of %d client connections in use (%.1f%%)", connected, maxClients, usage))
	}

	if blocked > 0 {
		section.AddFinding(models.SeverityWarning,
			fmt.Sprintf("%d clients blocked on blocking commands", blocked))
	}

	c.checkIdleClients(ctx, &section)
	return section, nil
}

func (c *ConnectionsCheck) checkIdleClients(ctx context.Context, section *models.Section) {
	records, err := c.probe.ListClients(ctx)
	if err != nil {
		// CLIENT LIST may be restricted; the counters above still stand.
		return
	}
	var idle int
	for _, record := range records {
		n, err := strconv.ParseInt(redis.ClientField(record, "idle"), 10, 64)
		if err == nil && n >= c.thresholds.ClientIdleSeconds {
			idle++
		}
	}
	section.Metrics["idle_clients"] = float64(idle)
	if idle > 0 {
		section.AddFinding(models.SeverityOK,
			fmt.Sprintf("%d clients idle for over an hour", idle))
	}
}
