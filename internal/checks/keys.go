package checks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/illenko/redisdoctor/internal/redis"
	"github.com/illenko/redisdoctor/pkg/models"
)

const (
	DefaultSampleSize = 1000

	scanPageSize     = 100
	fetchBatchSize   = 50
	topKeyLimit      = 20
	prefixGroupLimit = 15
)

// KeysCheck samples the keyspace through a cursor scan and aggregates
// per-key metadata into bounded distributions. It never issues a
// blocking full listing and never retains the whole sample after
// aggregation.
type KeysCheck struct {
	probe      redis.Probe
	thresholds Thresholds
	sampleSize int
}

func NewKeysCheck(probe redis.Probe, thresholds Thresholds, sampleSize int) *KeysCheck {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &KeysCheck{probe: probe, thresholds: thresholds, sampleSize: sampleSize}
}

func (c *KeysCheck) Name() string { return "keys" }

func (c *KeysCheck) Run(ctx context.Context) (models.Section, error) {
	section := newSection("Key Patterns")

	info, err := c.probe.InfoSection(ctx, "keyspace")
	if err != nil {
		return section, fmt.Errorf("info keyspace: %w", err)
	}
	totalKeys := redis.KeyspaceTotal(info)
	section.Metrics["total_keys"] = float64(totalKeys)

	if totalKeys == 0 {
		section.Sample = &models.SampleSummary{}
		section.AddFinding(models.SeverityOK, "keyspace is empty, nothing to sample")
		return section, nil
	}

	keys, err := c.scanKeys(ctx)
	if err != nil {
		return section, err
	}
	if len(keys) > c.sampleSize {
		// Scan pages are fixed-size and may overshoot the target.
		keys = keys[:c.sampleSize]
	}

	agg := newSampleAggregator()
	for start := 0; start < len(keys); start += fetchBatchSize {
		end := start + fetchBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		infos, err := c.probe.PipelineFetch(ctx, keys[start:end])
		if err != nil {
			return section, fmt.Errorf("pipeline fetch: %w", err)
		}
		for _, ki := range infos {
			agg.add(ki)
		}
	}

	summary := agg.summarize()
	summary.TotalKeys = totalKeys
	summary.SampledKeys = len(keys)
	section.Sample = summary
	section.Metrics["keys_sampled"] = float64(len(keys))

	if len(keys) > 0 {
		noTTLPct := float64(summary.TTLBuckets[models.TTLBucketNone]) / float64(len(keys)) * 100
		section.Metrics["no_ttl_pct"] = noTTLPct
		if noTTLPct >= c.thresholds.NoTTLWarnPct {
			section.AddFinding(models.SeverityWarning,
				fmt.Sprintf("%.1f%% of sampled keys have no TTL", noTTLPct))
		}
	}

	return section, nil
}

// scanKeys walks the cursor until exhaustion or until enough keys were
// collected. SCAN bounds per-call work on the server; KEYS would not.
func (c *KeysCheck) scanKeys(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		next, page, err := c.probe.ScanCursor(ctx, cursor, scanPageSize)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		keys = append(keys, page...)
		cursor = next
		if cursor == 0 || len(keys) >= c.sampleSize {
			return keys, nil
		}
	}
}

type prefixAgg struct {
	count int
	bytes int64
}

// sampleAggregator streams per-key results into bounded summaries. Keys
// whose fetch failed keep their place in the raw sample count but are
// left out of every distribution.
type sampleAggregator struct {
	typeCounts map[string]int
	typeBytes  map[string]int64
	encodings  map[string]int
	ttlBuckets map[string]int
	prefixes   map[string]*prefixAgg
	top        []models.SampledKey
}

func newSampleAggregator() *sampleAggregator {
	return &sampleAggregator{
		typeCounts: make(map[string]int),
		typeBytes:  make(map[string]int64),
		encodings:  make(map[string]int),
		ttlBuckets: make(map[string]int),
		prefixes:   make(map[string]*prefixAgg),
	}
}

func (a *sampleAggregator) add(ki redis.KeyInfo) {
	if ki.Missing {
		return
	}

	a.typeCounts[ki.Type]++
	a.typeBytes[ki.Type] += ki.SizeBytes
	a.encodings[ki.Encoding]++
	a.ttlBuckets[ttlBucket(ki.TTLSeconds)]++

	prefix := keyPrefix(ki.Key)
	group, ok := a.prefixes[prefix]
	if !ok {
		group = &prefixAgg{}
		a.prefixes[prefix] = group
	}
	group.count++
	group.bytes += ki.SizeBytes

	a.top = append(a.top, models.SampledKey{Key: ki.Key, Type: ki.Type, SizeBytes: ki.SizeBytes})
	if len(a.top) > topKeyLimit*4 {
		a.compactTop()
	}
}

// compactTop keeps the candidate list bounded while preserving the
// original encounter order among equal sizes.
func (a *sampleAggregator) compactTop() {
	sort.SliceStable(a.top, func(i, j int) bool {
		return a.top[i].SizeBytes > a.top[j].SizeBytes
	})
	if len(a.top) > topKeyLimit {
		a.top = a.top[:topKeyLimit]
	}
}

func (a *sampleAggregator) summarize() *models.SampleSummary {
	a.compactTop()

	groups := make([]models.PrefixGroup, 0, len(a.prefixes))
	for prefix, g := range a.prefixes {
		groups = append(groups, models.PrefixGroup{
			Prefix:     prefix,
			KeyCount:   g.count,
			TotalBytes: g.bytes,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].TotalBytes != groups[j].TotalBytes {
			return groups[i].TotalBytes > groups[j].TotalBytes
		}
		return groups[i].Prefix < groups[j].Prefix
	})
	if len(groups) > prefixGroupLimit {
		groups = groups[:prefixGroupLimit]
	}

	return &models.SampleSummary{
		TypeCounts:   a.typeCounts,
		TypeBytes:    a.typeBytes,
		Encodings:    a.encodings,
		TTLBuckets:   a.ttlBuckets,
		TopKeys:      a.top,
		PrefixGroups: groups,
	}
}

func ttlBucket(ttlSeconds int64) string {
	switch {
	case ttlSeconds < 0:
		return models.TTLBucketNone
	case ttlSeconds < 3600:
		return models.TTLBucketHour
	case ttlSeconds < 24*3600:
		return models.TTLBucketDay
	case ttlSeconds < 7*24*3600:
		return models.TTLBucketWeek
	default:
		return models.TTLBucketLonger
	}
}

// keyPrefix is the identifier up to the first namespace separator, or
// the whole identifier when there is none.
func keyPrefix(key string) string {
	if prefix, _, ok := strings.Cut(key, ":"); ok {
		return prefix
	}
	return key
}
