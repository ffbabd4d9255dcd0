package analyzer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illenko/redisdoctor/internal/snapshot"
	"github.com/illenko/redisdoctor/pkg/models"
)

func TestWatchIterationChainsBaseline(t *testing.T) {
	a := newTestAnalyzer(&fakeProbe{}, true)

	var reports int
	first := a.watchIteration(context.Background(), nil, func(r *models.Report, deltas []models.DeltaRow) {
		reports++
		assert.Empty(t, deltas, "no baseline on the first iteration")
	})
	require.NotNil(t, first)

	second := a.watchIteration(context.Background(), first, func(r *models.Report, deltas []models.DeltaRow) {
		reports++
		assert.NotEmpty(t, deltas, "second iteration diffs against the first")
	})
	require.NotNil(t, second)
	assert.Equal(t, 2, reports)
}

func TestWatchIterationReconnectsOnce(t *testing.T) {
	// Liveness probe fails once, reconnect succeeds: the iteration must
	// still complete and produce a full report.
	probe := &fakeProbe{pingErrs: []error{fmt.Errorf("connection reset")}}
	a := newTestAnalyzer(probe, true)

	var got *models.Report
	baseline := a.watchIteration(context.Background(), nil, func(r *models.Report, deltas []models.DeltaRow) {
		got = r
	})

	assert.Equal(t, 1, probe.reconnects)
	require.NotNil(t, got, "iteration must not be skipped after a successful reconnect")
	require.NotNil(t, baseline)
	assert.Len(t, got.Sections(), 4)
}

func TestWatchIterationKeepsBaselineOnFailure(t *testing.T) {
	probe := &fakeProbe{
		pingErrs:     []error{fmt.Errorf("connection reset")},
		reconnectErr: fmt.Errorf("still down"),
	}
	a := newTestAnalyzer(probe, true)

	old := &snapshot.Snapshot{Metrics: map[string]float64{"memory.used_memory_bytes": 1}}
	next := a.watchIteration(context.Background(), old, func(r *models.Report, deltas []models.DeltaRow) {
		t.Fatal("no report expected when reconnect fails")
	})

	assert.Same(t, old, next, "a failed iteration must not replace the baseline")
}

func TestWatchStopsOnCancel(t *testing.T) {
	a := newTestAnalyzer(&fakeProbe{}, true)

	ctx, cancel := context.WithCancel(context.Background())
	var iterations int
	done := make(chan error, 1)
	go func() {
		done <- a.Watch(ctx, WatchOptions{
			Interval: 10 * time.Millisecond,
			OnReport: func(r *models.Report, deltas []models.DeltaRow) {
				iterations++
				if iterations == 2 {
					cancel()
				}
			},
		})
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, iterations, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancellation")
	}
}
