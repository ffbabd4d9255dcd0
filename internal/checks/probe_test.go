package checks

import (
	"context"
	"fmt"

	"github.com/illenko/redisdoctor/internal/redis"
)

// fakeProbe is an in-memory Probe used by the evaluator tests.
type fakeProbe struct {
	info    map[string]map[string]string
	infoErr map[string]error

	scanPages [][]string
	scanCalls int
	scanErr   error

	keyInfos    map[string]redis.KeyInfo
	pipelineErr error

	clients    []string
	clientsErr error

	configValues map[string]string
	configErr    error

	slowCount    int64
	slowCountErr error
	slowEntries  []redis.SlowEntry
}

func (f *fakeProbe) InfoSection(ctx context.Context, section string) (map[string]string, error) {
	if err := f.infoErr[section]; err != nil {
		return nil, err
	}
	if m, ok := f.info[section]; ok {
		return m, nil
	}
	return map[string]string{}, nil
}

func (f *fakeProbe) ScanCursor(ctx context.Context, cursor uint64, pageSize int64) (uint64, []string, error) {
	f.scanCalls++
	if f.scanErr != nil {
		return 0, nil, f.scanErr
	}
	if int(cursor) >= len(f.scanPages) {
		return 0, nil, nil
	}
	page := f.scanPages[cursor]
	next := cursor + 1
	if int(next) >= len(f.scanPages) {
		next = 0
	}
	return next, page, nil
}

func (f *fakeProbe) PipelineFetch(ctx context.Context, keys []string) ([]redis.KeyInfo, error) {
	if f.pipelineErr != nil {
		return nil, f.pipelineErr
	}
	infos := make([]redis.KeyInfo, len(keys))
	for i, key := range keys {
		if ki, ok := f.keyInfos[key]; ok {
			infos[i] = ki
		} else {
			infos[i] = redis.KeyInfo{Key: key, Type: "unknown", Encoding: "unknown", TTLSeconds: -1, Missing: true}
		}
	}
	return infos, nil
}

func (f *fakeProbe) ListClients(ctx context.Context) ([]string, error) {
	return f.clients, f.clientsErr
}

func (f *fakeProbe) ConfigValue(ctx context.Context, name string) (string, error) {
	if f.configErr != nil {
		return "", f.configErr
	}
	if v, ok := f.configValues[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: CONFIG GET %s returned nothing", redis.ErrUnsupported, name)
}

func (f *fakeProbe) SlowEntries(ctx context.Context, limit int64) ([]redis.SlowEntry, error) {
	return f.slowEntries, nil
}

func (f *fakeProbe) SlowCount(ctx context.Context) (int64, error) {
	return f.slowCount, f.slowCountErr
}

func (f *fakeProbe) DBSize(ctx context.Context) (int64, error) {
	var total int64
	for range f.keyInfos {
		total++
	}
	return total, nil
}

func (f *fakeProbe) Ping(ctx context.Context) error      { return nil }
func (f *fakeProbe) Reconnect(ctx context.Context) error { return nil }
func (f *fakeProbe) Close() error                        { return nil }
