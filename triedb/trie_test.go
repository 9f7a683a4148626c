package triedb

import (
	"testing"

	"github.com/mattsta/govarint/internal/errs"
	"github.com/stretchr/testify/require"
)

func ids(subs []Subscriber) []uint64 {
	out := make([]uint64, len(subs))
	for i, s := range subs {
		out[i] = s.ID
	}

	return out
}

func TestAdd_ExactMatch(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.nasdaq.aapl", 1, "AAPL"))

	result := tr.Match("stock.nasdaq.aapl")
	require.Len(t, result, 1)
	require.Equal(t, uint64(1), result[0].ID)
	require.Equal(t, "AAPL", result[0].Name)
}

func TestAdd_EmptyPatternRejected(t *testing.T) {
	tr := New()

	err := tr.Add("", 1, "x")
	require.ErrorIs(t, err, errs.ErrEmptyInput)
}

func TestMatch_NoSubscribers(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.nasdaq.aapl", 1, "AAPL"))
	require.Empty(t, tr.Match("stock.nasdaq.msft"))
}

func TestMatch_StarWildcard(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.nasdaq.aapl", 1, "AAPL"))
	require.NoError(t, tr.Add("stock.*.aapl", 10, "X"))

	result := tr.Match("stock.nyse.aapl")
	require.Len(t, result, 1)
	require.Equal(t, uint64(10), result[0].ID)

	result = tr.Match("stock.nasdaq.aapl")
	require.ElementsMatch(t, []uint64{1, 10}, ids(result))
}

func TestMatch_HashWildcard(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.#", 20, "All"))

	require.ElementsMatch(t, []uint64{20}, ids(tr.Match("stock")))
	require.ElementsMatch(t, []uint64{20}, ids(tr.Match("stock.nasdaq")))

	result := tr.Match("stock.nasdaq.aapl")
	require.Contains(t, ids(result), uint64(20))
}

func TestMatch_DeduplicatesSubscribers(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.*.aapl", 1, "A"))
	require.NoError(t, tr.Add("stock.#", 1, "A"))

	result := tr.Match("stock.nasdaq.aapl")
	require.Len(t, result, 1)
	require.Equal(t, uint64(1), result[0].ID)
}

func TestAdd_SamePatternSameID_UpdatesName(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.a", 1, "first"))
	require.NoError(t, tr.Add("stock.a", 1, "second"))

	result := tr.Match("stock.a")
	require.Len(t, result, 1)
	require.Equal(t, "second", result[0].Name)

	require.Equal(t, 1, tr.Stats().Subscribers)
}

func TestRemove_DropsAllSubscribers(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.a", 1, "one"))
	require.NoError(t, tr.Add("stock.a", 2, "two"))

	require.NoError(t, tr.Remove("stock.a"))
	require.Empty(t, tr.Match("stock.a"))
	require.Equal(t, 0, tr.Stats().Subscribers)
}

func TestRemove_NotFound(t *testing.T) {
	tr := New()

	err := tr.Remove("stock.a")
	require.ErrorIs(t, err, errs.ErrPatternNotFound)
}

func TestUnsubscribe_RemovesOneSubscriber(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.a", 1, "one"))
	require.NoError(t, tr.Add("stock.a", 2, "two"))

	require.NoError(t, tr.Unsubscribe("stock.a", 1))

	result := tr.Match("stock.a")
	require.Len(t, result, 1)
	require.Equal(t, uint64(2), result[0].ID)
}

func TestUnsubscribe_LastSubscriberClearsPattern(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.a", 1, "one"))
	require.NoError(t, tr.Unsubscribe("stock.a", 1))

	require.Empty(t, tr.Match("stock.a"))
	require.Empty(t, tr.List())
}

func TestUnsubscribe_UnknownID(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.a", 1, "one"))

	err := tr.Unsubscribe("stock.a", 99)
	require.ErrorIs(t, err, errs.ErrPatternNotFound)
}

func TestList_FirstAddedOrder(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.a", 1, "one"))
	require.NoError(t, tr.Add("stock.b", 2, "two"))
	require.NoError(t, tr.Add("stock.c", 3, "three"))

	require.Equal(t, []string{"stock.a", "stock.b", "stock.c"}, tr.List())
}

func TestStats_CountsNodesPatternsSubscribers(t *testing.T) {
	tr := New()

	require.NoError(t, tr.Add("stock.a", 1, "one"))
	require.NoError(t, tr.Add("stock.b", 2, "two"))

	stats := tr.Stats()
	require.Equal(t, 2, stats.Patterns)
	require.Equal(t, 2, stats.Subscribers)
	require.Greater(t, stats.Nodes, 2)
}
