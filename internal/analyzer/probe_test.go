package analyzer

import (
	"context"
	"fmt"

	"github.com/illenko/redisdoctor/internal/redis"
)

// fakeProbe serves a healthy single instance unless individual sections
// or probes are overridden.
type fakeProbe struct {
	infoErr map[string]error

	pingErrs     []error // consumed one per Ping call
	pingCalls    int
	reconnectErr error
	reconnects   int
	closed       bool
}

func healthyInfo() map[string]map[string]string {
	return map[string]map[string]string{
		"server": {
			"redis_version":     "7.2.4",
			"redis_mode":        "standalone",
			"uptime_in_seconds": "86400",
		},
		"memory": {
			"used_memory":             "1048576",
			"maxmemory":               "104857600",
			"mem_fragmentation_ratio": "1.05",
			"maxmemory_policy":        "allkeys-lru",
		},
		"stats": {
			"keyspace_hits":             "9000",
			"keyspace_misses":           "1000",
			"instantaneous_ops_per_sec": "250",
			"total_commands_processed":  "100000",
		},
		"clients": {
			"connected_clients": "5",
			"blocked_clients":   "0",
		},
		"replication": {
			"role":             "master",
			"connected_slaves": "0",
		},
		"persistence": {
			"aof_enabled":            "1",
			"rdb_last_bgsave_status": "ok",
			"aof_last_write_status":  "ok",
		},
		"keyspace": {
			"db0": "keys=2,expires=2,avg_ttl=1000",
		},
	}
}

func (f *fakeProbe) InfoSection(ctx context.Context, section string) (map[string]string, error) {
	if err := f.infoErr[section]; err != nil {
		return nil, err
	}
	if m, ok := healthyInfo()[section]; ok {
		return m, nil
	}
	return map[string]string{}, nil
}

func (f *fakeProbe) ScanCursor(ctx context.Context, cursor uint64, pageSize int64) (uint64, []string, error) {
	return 0, []string{"user:1", "user:2"}, nil
}

func (f *fakeProbe) PipelineFetch(ctx context.Context, keys []string) ([]redis.KeyInfo, error) {
	infos := make([]redis.KeyInfo, len(keys))
	for i, key := range keys {
		infos[i] = redis.KeyInfo{Key: key, Type: "string", Encoding: "embstr", SizeBytes: 64, TTLSeconds: 600}
	}
	return infos, nil
}

func (f *fakeProbe) ListClients(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeProbe) ConfigValue(ctx context.Context, name string) (string, error) {
	switch name {
	case "maxclients":
		return "10000", nil
	case "save":
		return "3600 1", nil
	}
	return "", fmt.Errorf("%w: CONFIG GET %s", redis.ErrUnsupported, name)
}

func (f *fakeProbe) SlowEntries(ctx context.Context, limit int64) ([]redis.SlowEntry, error) {
	return nil, nil
}

func (f *fakeProbe) SlowCount(ctx context.Context) (int64, error) { return 0, nil }
func (f *fakeProbe) DBSize(ctx context.Context) (int64, error)    { return 2, nil }

func (f *fakeProbe) Ping(ctx context.Context) error {
	f.pingCalls++
	if len(f.pingErrs) > 0 {
		err := f.pingErrs[0]
		f.pingErrs = f.pingErrs[1:]
		return err
	}
	return nil
}

func (f *fakeProbe) Reconnect(ctx context.Context) error {
	f.reconnects++
	return f.reconnectErr
}

func (f *fakeProbe) Close() error {
	f.closed = true
	return nil
}
