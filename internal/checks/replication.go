package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/illenko/redisdoctor/internal/redis"
	"github.com/illenko/redisdoctor/pkg/models"
)

type ReplicationCheck struct {
	probe      redis.Probe
	thresholds Thresholds
}

func NewReplicationCheck(probe redis.Probe, thresholds Thresholds) *ReplicationCheck {
	return &ReplicationCheck{probe: probe, thresholds: thresholds}
}

func (c *ReplicationCheck) Name() string { return "replication" }

func (c *ReplicationCheck) Run(ctx context.Context) (models.Section, error) {
	section := newSection("Replication & Persistence")

	info, err := c.probe.InfoSection(ctx, "replication")
	if err != nil {
		return section, fmt.Errorf("info replication: %w", err)
	}

	role := redis.FieldStr(info, "role", "unknown")
	section.Details["role"] = role

	switch role {
	case "master":
		c.checkReplicas(info, &section)
	case "slave", "replica":
		if redis.FieldStr(info, "master_link_status", "up") == "down" {
			section.AddFinding(models.SeverityCritical, "link to the master is down")
		}
		if lag := redis.FieldInt(info, "master_last_io_seconds_ago"); lag > c.thresholds.ReplicaLagSec {
			section.AddFinding(models.SeverityWarning,
				fmt.Sprintf("no traffic from master for %ds", lag))
		}
	}

	c.checkPersistence(ctx, &section)
	return section, nil
}

func (c *ReplicationCheck) checkReplicas(info map[string]string, section *models.Section) {
	replicas := redis.FieldInt(info, "connected_slaves")
	section.Metrics["connected_replicas"] = float64(replicas)

	// Per-replica lines look like
	// slave0:ip=10.0.0.2,port=6379,state=online,offset=4201,lag=0
	for i := int64(0); i < replicas; i++ {
		record, ok := info[fmt.Sprintf("slave%d", i)]
		if !ok {
			continue
		}
		fields := make(map[string]string)
		for _, part := range strings.Split(record, ",") {
			if k, v, ok := strings.Cut(part, "="); ok {
				fields[k] = v
			}
		}
		state := redis.FieldStr(fields, "state", "unknown")
		if state != "online" {
			section.AddFinding(models.SeverityCritical,
				fmt.Sprintf("replica %s:%s is %s", fields["ip"], fields["port"], state))
			continue
		}
		if lag, err := strconv.ParseInt(fields["lag"], 10, 64); err == nil && lag > c.thresholds.ReplicaLagSec {
			section.AddFinding(models.SeverityWarning,
				fmt.Sprintf("replica %s:%s lags %ds behind", fields["ip"], fields["port"], lag))
		}
	}
}

func (c *ReplicationCheck) checkPersistence(ctx context.Context, section *models.Section) {
	info, err := c.probe.InfoSection(ctx, "persistence")
	if err != nil {
		section.AddFinding(models.SeverityWarning,
			fmt.Sprintf("could not read persistence info: %v", err))
		return
	}

	aofEnabled := redis.FieldInt(info, "aof_enabled") == 1
	section.Details["aof"] = boolWord(aofEnabled)

	if redis.FieldStr(info, "rdb_last_bgsave_status", "ok") != "ok" {
		section.AddFinding(models.SeverityCritical, "last RDB background save failed")
	}
	if aofEnabled && redis.FieldStr(info, "aof_last_write_status", "ok") != "ok" {
		section.AddFinding(models.SeverityCritical, "last AOF write failed")
	}

	rdbScheduled := true
	if v, err := c.probe.ConfigValue(ctx, "save"); err == nil {
		rdbScheduled = strings.TrimSpace(v) != ""
	}
	if !aofEnabled && !rdbScheduled {
		section.AddFinding(models.SeverityWarning,
			"no persistence configured: AOF is off and RDB snapshots are disabled")
	}
}

func boolWord(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
