package collision

import (
	"testing"

	"github.com/mattsta/govarint/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
	require.Empty(t, tracker.Keys())
}

func TestTracker_Track_Success(t *testing.T) {
	tracker := NewTracker()

	err := tracker.Track("stock.nasdaq.aapl", 0x1234567890abcdef)
	require.NoError(t, err)
	require.Equal(t, 1, tracker.Count())
	require.False(t, tracker.HasCollision())
	require.Equal(t, []string{"stock.nasdaq.aapl"}, tracker.Keys())

	err = tracker.Track("stock.nyse.aapl", 0xfedcba0987654321)
	require.NoError(t, err)
	require.Equal(t, 2, tracker.Count())
	require.False(t, tracker.HasCollision())
}

func TestTracker_Track_EmptyKey(t *testing.T) {
	tracker := NewTracker()

	err := tracker.Track("", 0x1234567890abcdef)

	require.ErrorIs(t, err, errs.ErrEmptyInput)
	require.Equal(t, 0, tracker.Count())
}

func TestTracker_Track_Collision(t *testing.T) {
	tracker := NewTracker()

	err := tracker.Track("stock.a", 0x1234567890abcdef)
	require.NoError(t, err)
	require.False(t, tracker.HasCollision())

	// Different key, same hash: tracked anyway, collision flag set.
	err = tracker.Track("stock.b", 0x1234567890abcdef)
	require.NoError(t, err)
	require.True(t, tracker.HasCollision())
	require.Equal(t, 2, tracker.Count())
	require.Equal(t, []string{"stock.a", "stock.b"}, tracker.Keys())
}

func TestTracker_Track_Duplicate(t *testing.T) {
	tracker := NewTracker()

	err := tracker.Track("stock.a", 0x1234567890abcdef)
	require.NoError(t, err)

	err = tracker.Track("stock.a", 0x1234567890abcdef)
	require.ErrorIs(t, err, errs.ErrAlreadyTracked)
	require.False(t, tracker.HasCollision())
	require.Equal(t, 1, tracker.Count())
}

func TestTracker_Forget(t *testing.T) {
	tracker := NewTracker()

	require.NoError(t, tracker.Track("stock.a", 0x0001))
	require.NoError(t, tracker.Track("stock.b", 0x0002))

	tracker.Forget("stock.a", 0x0001)

	require.Equal(t, 1, tracker.Count())
	require.Equal(t, []string{"stock.b"}, tracker.Keys())

	// The forgotten hash can be reused without tripping the collision flag.
	require.NoError(t, tracker.Track("stock.c", 0x0001))
	require.False(t, tracker.HasCollision())
}

func TestTracker_Keys_PreservesOrder(t *testing.T) {
	tracker := NewTracker()

	entries := []struct {
		key  string
		hash uint64
	}{
		{"stock.a", 0x0001},
		{"stock.b", 0x0002},
		{"stock.c", 0x0003},
		{"stock.d", 0x0004},
	}

	for _, e := range entries {
		require.NoError(t, tracker.Track(e.key, e.hash))
	}

	keys := tracker.Keys()
	require.Len(t, keys, 4)
	require.Equal(t, "stock.a", keys[0])
	require.Equal(t, "stock.b", keys[1])
	require.Equal(t, "stock.c", keys[2])
	require.Equal(t, "stock.d", keys[3])
}

func TestTracker_Reset(t *testing.T) {
	tracker := NewTracker()

	_ = tracker.Track("stock.a", 0x1234567890abcdef)
	_ = tracker.Track("stock.b", 0xfedcba0987654321)
	require.Equal(t, 2, tracker.Count())

	tracker.Reset()

	require.Equal(t, 0, tracker.Count())
	require.False(t, tracker.HasCollision())
	require.Empty(t, tracker.Keys())

	err := tracker.Track("stock.c", 0x1111111111111111)
	require.NoError(t, err)
	require.Equal(t, 1, tracker.Count())
	require.Equal(t, []string{"stock.c"}, tracker.Keys())
}

func TestTracker_Reset_PreservesCapacity(t *testing.T) {
	tracker := NewTracker()

	for i := 0; i < 100; i++ {
		_ = tracker.Track("stock.repeat", uint64(i))
	}

	initialCap := cap(tracker.keys)

	tracker.Reset()

	require.Equal(t, 0, len(tracker.keys))
	require.GreaterOrEqual(t, cap(tracker.keys), initialCap)
}

func TestTracker_HasCollision_Persists(t *testing.T) {
	tracker := NewTracker()

	_ = tracker.Track("stock.a", 0x1234567890abcdef)
	require.False(t, tracker.HasCollision())

	_ = tracker.Track("stock.b", 0x1234567890abcdef)
	require.True(t, tracker.HasCollision())

	_ = tracker.Track("stock.c", 0xfedcba0987654321)
	require.True(t, tracker.HasCollision())
}
