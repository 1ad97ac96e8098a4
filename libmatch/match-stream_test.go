package libmatch_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomatch-systems/gomatch/gomatch"
	"github.com/gomatch-systems/gomatch/libmatch"
)

func feedStream(tuples ...gomatch.Tuple) *libmatch.MatchStream {
	stream := libmatch.NewMatchStream()
	go func() {
		for _, m := range tuples {
			stream.PushMatch(m)
		}
		stream.Close()
	}()
	return stream
}

func TestStreamDedupe(t *testing.T) {
	out := feedStream(
		gomatch.Tuple{2, 1},
		gomatch.Tuple{0, 3},
		gomatch.Tuple{2, 1},
		gomatch.Tuple{0, 3},
		gomatch.Tuple{1, 1},
	).Dedupe()

	// Survivors re-emit in canonical lexicographic order
	want := []gomatch.Tuple{{0, 3}, {1, 1}, {2, 1}}
	for _, w := range want {
		m := out.PullMatch()
		require.True(t, m.IsEqual(w), "got %v, want %v", m, w)
	}
	require.Zero(t, out.PullAll())
}

func TestStreamPrint(t *testing.T) {
	var buf bytes.Buffer

	n := feedStream(
		gomatch.Tuple{0, 1, 2},
		gomatch.Tuple{3, 1, 2},
	).Print(&buf, "match").PullAll()
	require.Equal(t, 2, n)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "match,000001,0,1,2", lines[0])
	require.Equal(t, "match,000002,3,1,2", lines[1])
}

func TestTupleSetFilter(t *testing.T) {
	set := libmatch.NewTupleSet()
	defer set.Close()

	sig := gomatch.QuerySig{2, 1, 2, 2, 3}

	// AddTo with a TupleSet dedupes in arrival order, no buffering
	out := feedStream(
		gomatch.Tuple{2, 1},
		gomatch.Tuple{2, 1},
		gomatch.Tuple{0, 3},
		gomatch.Tuple{2, 1},
	).AddTo(set, sig)

	require.True(t, out.PullMatch().IsEqual(gomatch.Tuple{2, 1}))
	require.True(t, out.PullMatch().IsEqual(gomatch.Tuple{0, 3}))
	require.Zero(t, out.PullAll())

	// A different signature namespaces the same tuple independently
	require.True(t, set.TryAddMatch(gomatch.QuerySig{2, 9, 9, 9, 9}, gomatch.Tuple{2, 1}))
}

func TestSliceStream(t *testing.T) {
	slice, err := runMatch(t,
		"1>2",
		"1>2, 1>3, 1>4",
		libmatch.DefaultSliceOpts)
	require.NoError(t, err)
	defer slice.Reclaim()

	got := slice.Stream().Dedupe().PullAll()
	require.Equal(t, 3, got)
}

func TestSliceContextCancel(t *testing.T) {
	Q := libmatch.NewGraph(nil)
	G := libmatch.NewGraph(nil)
	defer Q.Reclaim()
	defer G.Reclaim()

	require.NoError(t, Q.InitFromString("1>2"))
	require.NoError(t, G.InitFromString("1>2"))

	mask := libmatch.ComputeBitmask(Q, G)
	slice, err := libmatch.NewSlice(Q, G, mask, libmatch.DefaultSliceOpts)
	require.NoError(t, err)
	defer slice.Reclaim()

	// A pre-canceled context may still complete a tiny run before the first
	// poll; it must never hang or corrupt state either way.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = slice.Run(ctx)
}
