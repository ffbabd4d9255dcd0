package checks

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illenko/redisdoctor/internal/redis"
	"github.com/illenko/redisdoctor/pkg/models"
)

// sampleFixture builds a probe holding total keys split into scan pages
// of 100, with noTTL of them carrying no expiry.
func sampleFixture(total, noTTL int) *fakeProbe {
	probe := &fakeProbe{
		info: map[string]map[string]string{
			"keyspace": {"db0": fmt.Sprintf("keys=%d,expires=%d,avg_ttl=0", total, total-noTTL)},
		},
		keyInfos: make(map[string]redis.KeyInfo),
	}

	var page []string
	for i := 0; i < total; i++ {
		key := fmt.Sprintf("session:%04d", i)
		ttl := int64(-1)
		if i >= noTTL {
			ttl = 600
		}
		probe.keyInfos[key] = redis.KeyInfo{
			Key: key, Type: "string", Encoding: "embstr",
			SizeBytes: int64(100 + i), TTLSeconds: ttl,
		}
		page = append(page, key)
		if len(page) == 100 {
			probe.scanPages = append(probe.scanPages, page)
			page = nil
		}
	}
	if len(page) > 0 {
		probe.scanPages = append(probe.scanPages, page)
	}
	return probe
}

func TestKeysCheckEmptyKeyspace(t *testing.T) {
	probe := &fakeProbe{
		info: map[string]map[string]string{"keyspace": {}},
	}
	check := NewKeysCheck(probe, DefaultThresholds(), 100)
	section, err := check.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SeverityOK, section.Status)
	require.Len(t, section.Findings, 1)
	assert.Contains(t, section.Findings[0].Message, "empty")
	assert.Zero(t, probe.scanCalls, "empty keyspace must not be scanned")
}

func TestKeysCheckNoTTLWarning(t *testing.T) {
	probe := sampleFixture(1000, 600)
	check := NewKeysCheck(probe, DefaultThresholds(), 1000)
	section, err := check.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SeverityWarning, section.Status)
	require.Len(t, section.Findings, 1)
	assert.Contains(t, section.Findings[0].Message, "60.0%")
	assert.InDelta(t, 60.0, section.Metrics["no_ttl_pct"], 0.01)
}

func TestKeysCheckTTLBucketsSumToSampleSize(t *testing.T) {
	probe := sampleFixture(500, 120)
	check := NewKeysCheck(probe, DefaultThresholds(), 500)
	section, err := check.Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, section.Sample)
	var sum int
	for _, n := range section.Sample.TTLBuckets {
		sum += n
	}
	assert.Equal(t, section.Sample.SampledKeys, sum)
}

func TestKeysCheckTruncatesOvershoot(t *testing.T) {
	// Pages of 100 overshoot a 150-key target.
	probe := sampleFixture(300, 0)
	check := NewKeysCheck(probe, DefaultThresholds(), 150)
	section, err := check.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 150, section.Sample.SampledKeys)
	assert.Equal(t, 2, probe.scanCalls, "scan should stop once enough keys were collected")
}

func TestKeysCheckTopKeys(t *testing.T) {
	probe := sampleFixture(100, 0)
	check := NewKeysCheck(probe, DefaultThresholds(), 100)
	section, err := check.Run(context.Background())
	require.NoError(t, err)

	top := section.Sample.TopKeys
	require.Len(t, top, 20)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].SizeBytes, top[i].SizeBytes,
			"top keys must be sorted by descending size")
	}
	// Largest fixture key is session:0099 at 199 bytes.
	assert.Equal(t, "session:0099", top[0].Key)

	probe = sampleFixture(5, 0)
	check = NewKeysCheck(probe, DefaultThresholds(), 100)
	section, err = check.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, section.Sample.TopKeys, 5)
}

func TestKeysCheckPrefixGroups(t *testing.T) {
	probe := &fakeProbe{
		info: map[string]map[string]string{
			"keyspace": {"db0": "keys=4,expires=0,avg_ttl=0"},
		},
		scanPages: [][]string{{"user:1", "user:2", "cache:big", "plainkey"}},
		keyInfos: map[string]redis.KeyInfo{
			"user:1":    {Key: "user:1", Type: "hash", Encoding: "listpack", SizeBytes: 100, TTLSeconds: -1},
			"user:2":    {Key: "user:2", Type: "hash", Encoding: "listpack", SizeBytes: 150, TTLSeconds: -1},
			"cache:big": {Key: "cache:big", Type: "string", Encoding: "raw", SizeBytes: 5000, TTLSeconds: 60},
			"plainkey":  {Key: "plainkey", Type: "string", Encoding: "embstr", SizeBytes: 10, TTLSeconds: -1},
		},
	}
	check := NewKeysCheck(probe, DefaultThresholds(), 10)
	section, err := check.Run(context.Background())
	require.NoError(t, err)

	groups := section.Sample.PrefixGroups
	require.Len(t, groups, 3)
	assert.Equal(t, "cache", groups[0].Prefix)
	assert.Equal(t, int64(5000), groups[0].TotalBytes)
	assert.Equal(t, "user", groups[1].Prefix)
	assert.Equal(t, 2, groups[1].KeyCount)
	assert.Equal(t, "plainkey", groups[2].Prefix, "keys without a separator group under themselves")
}

func TestKeysCheckMissingKeysStayInRawCount(t *testing.T) {
	probe := &fakeProbe{
		info: map[string]map[string]string{
			"keyspace": {"db0": "keys=3,expires=0,avg_ttl=0"},
		},
		// "gone" is absent from keyInfos, so the fake reports it missing
		// the way a key expiring mid-scan would be.
		scanPages: [][]string{{"a:1", "gone", "a:2"}},
		keyInfos: map[string]redis.KeyInfo{
			"a:1": {Key: "a:1", Type: "string", Encoding: "embstr", SizeBytes: 10, TTLSeconds: 30},
			"a:2": {Key: "a:2", Type: "string", Encoding: "embstr", SizeBytes: 20, TTLSeconds: 30},
		},
	}
	check := NewKeysCheck(probe, DefaultThresholds(), 10)
	section, err := check.Run(context.Background())
	require.NoError(t, err)

	sample := section.Sample
	assert.Equal(t, 3, sample.SampledKeys, "failed fetches still count toward the raw sample")
	assert.Equal(t, 2, sample.TypeCounts["string"])
	assert.NotContains(t, sample.TypeCounts, "unknown", "failed fetches are dropped from distributions")
	var ttlSum int
	for _, n := range sample.TTLBuckets {
		ttlSum += n
	}
	assert.Equal(t, 2, ttlSum)
	assert.Len(t, sample.TopKeys, 2)
}
