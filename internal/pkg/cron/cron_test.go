package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_RecordsOutcome(t *testing.T) {
	s := New(nil)
	fail := true
	s.Register(Job{Name: "sweep", Interval: time.Hour, Fn: func(context.Context) error {
		if fail {
			return errors.New("db down")
		}
		return nil
	}})

	require.NoError(t, s.Run(context.Background(), "sweep"))
	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, OutcomeFailed, items[0].Outcome)
	assert.Equal(t, "db down", items[0].Error)
	assert.Equal(t, 1, items[0].Runs)
	assert.NotNil(t, items[0].LastRunAt)

	fail = false
	require.NoError(t, s.Run(context.Background(), "sweep"))
	assert.Equal(t, OutcomeOK, s.List()[0].Outcome)
	assert.Empty(t, s.List()[0].Error)
	assert.Equal(t, 2, s.List()[0].Runs)

	assert.Error(t, s.Run(context.Background(), "missing"))
}

func TestStart_RunsOnStartAndStops(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	s.Register(Job{Name: "tick", Interval: 10 * time.Millisecond, RunOnStart: true, Fn: func(context.Context) error {
		runs.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()
	s.Wait()
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestList_SortedByName(t *testing.T) {
	s := New(nil)
	noop := func(context.Context) error { return nil }
	s.Register(Job{Name: "b", Interval: time.Hour, Fn: noop})
	s.Register(Job{Name: "a", Interval: time.Hour, Fn: noop})

	items := s.List()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].Name)
	assert.Equal(t, OutcomeNever, items[1].Outcome)
	assert.Equal(t, "1h0m0s", items[1].Interval)
}
