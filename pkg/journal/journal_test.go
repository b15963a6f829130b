package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordFillsDefaults(t *testing.T) {
	j := openTest(t)

	x := 412.5
	e, err := j.Record(context.Background(), Event{Kind: KindCommand, Frame: 7, Pan: 61.2, TargetX: &x})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())

	events, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, KindCommand, got.Kind)
	assert.Equal(t, uint64(7), got.Frame)
	assert.Equal(t, 61.2, got.Pan)
	require.NotNil(t, got.TargetX)
	assert.Equal(t, 412.5, *got.TargetX)
	assert.True(t, got.CreatedAt.Equal(e.CreatedAt))
}

func TestJournal_RecentNewestFirst(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	base := time.Unix(1000, 0)
	for i := 0; i < 5; i++ {
		_, err := j.Record(ctx, Event{
			Kind:      KindCommand,
			Frame:     uint64(i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	events, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, uint64(4), events[0].Frame)
	assert.Equal(t, uint64(3), events[1].Frame)
	assert.Equal(t, uint64(2), events[2].Frame)
}

func TestJournal_NilTarget(t *testing.T) {
	j := openTest(t)

	_, err := j.Record(context.Background(), Event{Kind: KindStop, Frame: 16})
	require.NoError(t, err)

	events, err := j.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].TargetX)
	assert.Equal(t, 0.0, events[0].Pan)
}

func TestJournal_CountByKind(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	for _, k := range []Kind{KindCommand, KindCommand, KindStop, KindPassGesture, KindCommand} {
		_, err := j.Record(ctx, Event{Kind: k})
		require.NoError(t, err)
	}

	counts, err := j.CountByKind(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[Kind]int{KindCommand: 3, KindStop: 1, KindPassGesture: 1}, counts)
}

func TestJournal_RequiresKind(t *testing.T) {
	j := openTest(t)
	_, err := j.Record(context.Background(), Event{Frame: 1})
	assert.Error(t, err)
}

func TestJournal_ReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turret.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	_, err = j.Record(ctx, Event{Kind: KindPassGesture, Frame: 3})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	// Migrations are idempotent on an existing database
	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	events, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, KindPassGesture, events[0].Kind)
}
