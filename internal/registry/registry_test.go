package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/ferry/types"
)

func cursors(ids ...types.PartitionID) []*types.Cursor {
	out := make([]*types.Cursor, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.NewCursor(id, 0))
	}

	return out
}

func TestRegistry_StartSession(t *testing.T) {
	r := New()
	p0 := types.PartitionID{Topic: "t1", Index: 0}
	p1 := types.PartitionID{Topic: "t1", Index: 1}

	require.NoError(t, r.StartSession(cursors(p0, p1)))
	assert.True(t, r.Active())
	assert.Equal(t, 2, r.PartitionCount())
	assert.Equal(t, 2, r.UnresolvedCount())

	t.Run("double start fails", func(t *testing.T) {
		err := r.StartSession(cursors(p0))
		require.ErrorIs(t, err, types.ErrSessionActive)
	})

	t.Run("restart after end succeeds", func(t *testing.T) {
		r.EndSession()
		require.NoError(t, r.StartSession(cursors(p0)))
		assert.Equal(t, 1, r.PartitionCount())
	})
}

func TestRegistry_EndSession_Idempotent(t *testing.T) {
	r := New()
	require.NoError(t, r.StartSession(cursors(types.PartitionID{Topic: "t", Index: 0})))

	r.EndSession()
	r.EndSession()

	assert.False(t, r.Active())
	assert.Equal(t, 0, r.PartitionCount())
	assert.Equal(t, 0, r.UnresolvedCount())
}

func TestRegistry_MarkUnresolved(t *testing.T) {
	r := New()
	p0 := types.PartitionID{Topic: "t", Index: 0}
	p1 := types.PartitionID{Topic: "t", Index: 1}
	stranger := types.PartitionID{Topic: "other", Index: 9}

	require.NoError(t, r.StartSession(cursors(p0, p1)))
	r.Resolve(p0)
	r.Resolve(p1)
	require.Equal(t, 0, r.UnresolvedCount())

	t.Run("adds known partitions", func(t *testing.T) {
		assert.Equal(t, 1, r.MarkUnresolved(p0))
		assert.Equal(t, 1, r.UnresolvedCount())
	})

	t.Run("already unresolved is not re-added", func(t *testing.T) {
		assert.Equal(t, 0, r.MarkUnresolved(p0))
	})

	t.Run("unknown partition ignored", func(t *testing.T) {
		assert.Equal(t, 0, r.MarkUnresolved(stranger))
		assert.Equal(t, 1, r.UnresolvedCount())
	})

	t.Run("no-op without session", func(t *testing.T) {
		r.EndSession()
		assert.Equal(t, 0, r.MarkUnresolved(p0))
		assert.Equal(t, 0, r.UnresolvedCount())
	})
}

func TestRegistry_Cursor(t *testing.T) {
	r := New()
	p0 := types.PartitionID{Topic: "t", Index: 0}
	require.NoError(t, r.StartSession([]*types.Cursor{types.NewCursor(p0, 77)}))

	cur, err := r.Cursor(p0)
	require.NoError(t, err)
	assert.Equal(t, int64(77), cur.Offset())

	_, err = r.Cursor(types.PartitionID{Topic: "t", Index: 1})
	require.ErrorIs(t, err, types.ErrUnknownPartition)
}

func TestRegistry_AwaitUnresolved_WakesOnMark(t *testing.T) {
	r := New()
	p0 := types.PartitionID{Topic: "t", Index: 0}
	require.NoError(t, r.StartSession(cursors(p0)))
	r.Resolve(p0)

	got := make(chan []types.PartitionID, 1)
	go func() {
		ids, ok := r.AwaitUnresolved()
		if ok {
			got <- ids
		}
	}()

	// Give the waiter time to block, then wake it.
	time.Sleep(20 * time.Millisecond)
	r.MarkUnresolved(p0)

	select {
	case ids := <-got:
		require.Equal(t, []types.PartitionID{p0}, ids)
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitUnresolved did not wake after MarkUnresolved")
	}
}

func TestRegistry_AwaitUnresolved_UnblocksOnClose(t *testing.T) {
	r := New()
	require.NoError(t, r.StartSession(nil))

	done := make(chan bool, 1)
	go func() {
		_, ok := r.AwaitUnresolved()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	r.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitUnresolved did not observe Close")
	}
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	r := New()
	p0 := types.PartitionID{Topic: "t", Index: 0}
	p1 := types.PartitionID{Topic: "t", Index: 1}
	require.NoError(t, r.StartSession(cursors(p0, p1)))

	snap := r.UnresolvedSnapshot()
	require.Len(t, snap, 2)

	// Mutating the live set must not affect the snapshot.
	r.Resolve(p0)
	r.Resolve(p1)
	assert.Len(t, snap, 2)
	assert.Equal(t, 0, r.UnresolvedCount())
}
