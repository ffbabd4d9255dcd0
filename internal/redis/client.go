package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// KeyInfo is the per-key result of one pipelined fetch. Missing is set
// when the key vanished (or a per-key command failed) between scan and
// fetch; such keys keep zero/unknown defaults.
type KeyInfo struct {
	Key        string
	Type       string
	SizeBytes  int64
	TTLSeconds int64 // -1 means no expiry
	Encoding   string
	Missing    bool
}

// SlowEntry is one slow-log record.
type SlowEntry struct {
	Duration time.Duration
	Command  string
}

// Probe is the read-only command surface the health checks consume.
type Probe interface {
	InfoSection(ctx context.Context, section string) (map[string]string, error)
	ScanCursor(ctx context.Context, cursor uint64, pageSize int64) (uint64, []string, error)
	PipelineFetch(ctx context.Context, keys []string) ([]KeyInfo, error)
	ListClients(ctx context.Context) ([]string, error)
	ConfigValue(ctx context.Context, name string) (string, error)
	SlowEntries(ctx context.Context, limit int64) ([]SlowEntry, error)
	SlowCount(ctx context.Context) (int64, error)
	DBSize(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Close() error
}

type Config struct {
	Addr     string
	Username string
	Password string
	DB       int
	TLS      bool

	DialTimeout    time.Duration
	CommandTimeout time.Duration
}

// Client implements Probe on top of a pooled go-redis connection. The
// pool multiplexes the concurrent checks over one logical connection.
type Client struct {
	cfg Config
	rdb *goredis.Client
}

// NewClient connects and pings the target to fail fast on bad addresses
// or credentials.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 5 * time.Second
	}

	c := &Client{cfg: cfg}
	c.rdb = newRDB(cfg)

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.rdb.Close()
		return nil, classify(err)
	}
	return c, nil
}

func newRDB(cfg Config) *goredis.Client {
	opts := &goredis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.CommandTimeout,
		WriteTimeout: cfg.CommandTimeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return goredis.NewClient(opts)
}

// Addr returns the configured server address.
func (c *Client) Addr() string { return c.cfg.Addr }

func (c *Client) cmdContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.cfg.CommandTimeout)
}

func (c *Client) InfoSection(ctx context.Context, section string) (map[string]string, error) {
	ctx, cancel := c.cmdContext(ctx)
	defer cancel()
	raw, err := c.rdb.Info(ctx, section).Result()
	if err != nil {
		return nil, classify(err)
	}
	return ParseInfo(raw), nil
}

func (c *Client) ScanCursor(ctx context.Context, cursor uint64, pageSize int64) (uint64, []string, error) {
	ctx, cancel := c.cmdContext(ctx)
	defer cancel()
	keys, next, err := c.rdb.Scan(ctx, cursor, "*", pageSize).Result()
	if err != nil {
		return 0, nil, classify(err)
	}
	return next, keys, nil
}

func (c *Client) PipelineFetch(ctx context.Context, keys []string) ([]KeyInfo, error) {
	ctx, cancel := c.cmdContext(ctx)
	defer cancel()

	pipe := c.rdb.Pipeline()
	typeCmds := make([]*goredis.StatusCmd, len(keys))
	sizeCmds := make([]*goredis.IntCmd, len(keys))
	ttlCmds := make([]*goredis.DurationCmd, len(keys))
	encCmds := make([]*goredis.StringCmd, len(keys))
	for i, key := range keys {
		typeCmds[i] = pipe.Type(ctx, key)
		sizeCmds[i] = pipe.MemoryUsage(ctx, key, 0)
		ttlCmds[i] = pipe.TTL(ctx, key)
		encCmds[i] = pipe.ObjectEncoding(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != goredis.Nil {
		if classified := classify(err); IsConn(classified) || IsAuth(classified) {
			return nil, classified
		}
		// Per-key errors (expired keys, restricted subcommands) are
		// handled leniently below; results stay in submission order.
	}

	infos := make([]KeyInfo, len(keys))
	for i, key := range keys {
		infos[i] = decodeKeyInfo(key, typeCmds[i], sizeCmds[i], ttlCmds[i], encCmds[i])
	}
	return infos, nil
}

func decodeKeyInfo(key string, typeCmd *goredis.StatusCmd, sizeCmd *goredis.IntCmd,
	ttlCmd *goredis.DurationCmd, encCmd *goredis.StringCmd) KeyInfo {
	info := KeyInfo{Key: key, Type: "unknown", Encoding: "unknown", TTLSeconds: -1}

	keyType, err := typeCmd.Result()
	if err != nil || keyType == "none" {
		info.Missing = true
		return info
	}
	info.Type = keyType

	if size, err := sizeCmd.Result(); err == nil {
		info.SizeBytes = size
	} else {
		info.Missing = true
	}
	if ttl, err := ttlCmd.Result(); err == nil && ttl >= 0 {
		info.TTLSeconds = int64(ttl.Seconds())
	}
	if enc, err := encCmd.Result(); err == nil {
		info.Encoding = enc
	}
	return info
}

func (c *Client) ListClients(ctx context.Context) ([]string, error) {
	ctx, cancel := c.cmdContext(ctx)
	defer cancel()
	raw, err := c.rdb.ClientList(ctx).Result()
	if err != nil {
		return nil, classify(err)
	}
	var records []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			records = append(records, line)
		}
	}
	return records, nil
}

func (c *Client) ConfigValue(ctx context.Context, name string) (string, error) {
	ctx, cancel := c.cmdContext(ctx)
	defer cancel()
	values, err := c.rdb.ConfigGet(ctx, name).Result()
	if err != nil {
		return "", classify(err)
	}
	if v, ok := values[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: CONFIG GET %s returned nothing", ErrUnsupported, name)
}

func (c *Client) SlowEntries(ctx context.Context, limit int64) ([]SlowEntry, error) {
	ctx, cancel := c.cmdContext(ctx)
	defer cancel()
	logs, err := c.rdb.SlowLogGet(ctx, limit).Result()
	if err != nil {
		return nil, classify(err)
	}
	entries := make([]SlowEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, SlowEntry{
			Duration: l.Duration,
			Command:  strings.Join(l.Args, " "),
		})
	}
	return entries, nil
}

func (c *Client) SlowCount(ctx context.Context) (int64, error) {
	ctx, cancel := c.cmdContext(ctx)
	defer cancel()
	n, err := c.rdb.Do(ctx, "slowlog", "len").Int64()
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (c *Client) DBSize(ctx context.Context) (int64, error) {
	ctx, cancel := c.cmdContext(ctx)
	defer cancel()
	n, err := c.rdb.DBSize(ctx).Result()
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.cmdContext(ctx)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return classify(err)
	}
	return nil
}

// Reconnect drops the current pool and dials a fresh one.
func (c *Client) Reconnect(ctx context.Context) error {
	c.rdb.Close()
	c.rdb = newRDB(c.cfg)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return classify(err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
