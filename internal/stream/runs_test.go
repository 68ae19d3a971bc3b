// ABOUTME: Tests for the TTL- and capacity-bounded run accumulator table.

package stream

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunTable_CreateGetRemove(t *testing.T) {
	table := newRunTable(time.Minute, 8)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	run := table.create("r1", now)
	run.text = "hello"

	got := table.get("r1", now)
	require.NotNil(t, got)
	assert.Equal(t, "hello", got.text)

	removed := table.remove("r1")
	require.NotNil(t, removed)
	assert.Equal(t, "hello", removed.text)
	assert.Nil(t, table.get("r1", now))
	assert.Nil(t, table.remove("r1"))
	assert.Equal(t, 0, table.size())
}

func TestRunTable_GetExpiresStaleRun(t *testing.T) {
	table := newRunTable(time.Minute, 8)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	table.create("r1", now)

	assert.NotNil(t, table.get("r1", now.Add(time.Minute)))
	assert.Nil(t, table.get("r1", now.Add(time.Minute+time.Nanosecond)))
	assert.Equal(t, 0, table.size(), "expired run is removed on access")
}

func TestRunTable_TouchRefreshesTTL(t *testing.T) {
	table := newRunTable(time.Minute, 8)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	run := table.create("r1", now)
	table.touch(run, now.Add(50*time.Second))

	assert.NotNil(t, table.get("r1", now.Add(100*time.Second)))
}

func TestRunTable_SweepEvictsAllExpired(t *testing.T) {
	table := newRunTable(time.Minute, 8)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	table.create("old1", now)
	table.create("old2", now)
	fresh := table.create("fresh", now)
	table.touch(fresh, now.Add(2*time.Minute))

	evicted := table.sweep(now.Add(2 * time.Minute))
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 1, table.size())
	assert.NotNil(t, table.get("fresh", now.Add(2*time.Minute)))
}

func TestRunTable_CapacityEvictsOldestFirst(t *testing.T) {
	table := newRunTable(time.Hour, 3)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		table.create(fmt.Sprintf("r%d", i), now)
	}
	// r1 gets touched, moving it behind r2 in eviction order.
	table.touch(table.get("r1", now), now)

	table.create("r4", now)

	assert.Equal(t, 3, table.size())
	assert.Nil(t, table.get("r2", now), "oldest untouched run is evicted")
	assert.NotNil(t, table.get("r1", now))
	assert.NotNil(t, table.get("r3", now))
	assert.NotNil(t, table.get("r4", now))
}

func TestRunTable_ZeroTTLNeverExpires(t *testing.T) {
	table := newRunTable(0, 8)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	table.create("r1", now)
	assert.NotNil(t, table.get("r1", now.Add(24*time.Hour)))
	assert.Equal(t, 0, table.sweep(now.Add(24*time.Hour)))
}
