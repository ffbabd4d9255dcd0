package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/illenko/redisdoctor/internal/checks"
	"github.com/illenko/redisdoctor/internal/config"
	"github.com/illenko/redisdoctor/internal/redis"
)

// resolveConnection merges the config-file connection with flag
// overrides. Flags always win.
func resolveConnection(cfg *config.Config) (config.ConnectionConfig, error) {
	conn, err := cfg.Resolve(connectionName)
	if err != nil {
		return config.ConnectionConfig{}, err
	}
	if flagAddr != "" {
		conn.Addr = flagAddr
	}
	if flagPassword != "" {
		conn.Password = flagPassword
	}
	if flagDB != 0 {
		conn.DB = flagDB
	}
	return conn, nil
}

// connect establishes the single adapter connection for the process.
// Authentication failures re-prompt for a password indefinitely; any
// other connection failure is fatal to the caller.
func connect(ctx context.Context, conn config.ConnectionConfig, timeouts config.TimeoutsConfig) (*redis.Client, error) {
	for {
		client, err := redis.NewClient(ctx, redis.Config{
			Addr:           conn.Addr,
			Username:       conn.Username,
			Password:       conn.Password,
			DB:             conn.DB,
			TLS:            conn.TLS,
			DialTimeout:    timeouts.Dial,
			CommandTimeout: timeouts.Command,
		})
		if err == nil {
			return client, nil
		}
		if !redis.IsAuth(err) || !canPrompt() {
			return nil, err
		}

		password, promptErr := promptPassword(conn.Addr)
		if promptErr != nil {
			return nil, err
		}
		conn.Password = password
	}
}

// canPrompt reports whether interactive prompting is allowed: never in
// JSON mode, and only on a real terminal.
func canPrompt() bool {
	return !jsonOut && term.IsTerminal(int(os.Stdin.Fd()))
}

func promptPassword(addr string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s: ", addr)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// thresholdsFrom overlays non-zero config values on the defaults.
func thresholdsFrom(cfg *config.Config) checks.Thresholds {
	t := checks.DefaultThresholds()
	o := cfg.Thresholds
	if o.MemoryUtilizationWarnPct > 0 {
		t.MemoryUtilizationWarnPct = o.MemoryUtilizationWarnPct
	}
	if o.MemoryUtilizationCritPct > 0 {
		t.MemoryUtilizationCritPct = o.MemoryUtilizationCritPct
	}
	if o.FragmentationWarn > 0 {
		t.FragmentationWarn = o.FragmentationWarn
	}
	if o.FragmentationCrit > 0 {
		t.FragmentationCrit = o.FragmentationCrit
	}
	if o.HitRateWarnPct > 0 {
		t.HitRateWarnPct = o.HitRateWarnPct
	}
	if o.HitRateCritPct > 0 {
		t.HitRateCritPct = o.HitRateCritPct
	}
	if o.SlowlogWarn > 0 {
		t.SlowlogWarn = o.SlowlogWarn
	}
	if o.SlowlogCrit > 0 {
		t.SlowlogCrit = o.SlowlogCrit
	}
	if o.ClientUsageWarnPct > 0 {
		t.ClientUsageWarnPct = o.ClientUsageWarnPct
	}
	if o.ClientUsageCritPct > 0 {
		t.ClientUsageCritPct = o.ClientUsageCritPct
	}
	if o.NoTTLWarnPct > 0 {
		t.NoTTLWarnPct = o.NoTTLWarnPct
	}
	return t
}
