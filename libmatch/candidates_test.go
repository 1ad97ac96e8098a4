package libmatch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomatch-systems/gomatch/gomatch"
	"github.com/gomatch-systems/gomatch/libmatch"
)

func TestComputeBitmaskDegreeFilter(t *testing.T) {
	Q := libmatch.NewGraph(nil)
	G := libmatch.NewGraph(nil)
	defer Q.Reclaim()
	defer G.Reclaim()

	// Query node 1 needs out-degree >= 2
	require.NoError(t, Q.InitFromString("1>2, 1>3"))
	// Data: node 1 has out-degree 2, node 4 only 1
	require.NoError(t, G.InitFromString("1>2, 1>3, 4>2"))

	mask := libmatch.ComputeBitmask(Q, G)

	require.True(t, mask.Has(0, 0))  // data node 1 can image query node 1
	require.False(t, mask.Has(3, 0)) // data node 4 cannot: out-degree too low
	require.True(t, mask.Has(1, 1))  // sinks image sinks
	require.True(t, mask.Has(1, 2))
	require.False(t, mask.Has(0, 1)) // data node 1 has in-degree 0 < 1
}

func TestComputeBitmaskLabelFilter(t *testing.T) {
	Q := libmatch.NewGraph(nil)
	G := libmatch.NewGraph(nil)
	defer Q.Reclaim()
	defer G.Reclaim()

	require.NoError(t, Q.InitFromString("1:a>2:b"))

	// Data interns "b" before "a": ordinal translation must still line up names.
	require.NoError(t, G.InitFromString("1:b<2:a, 3:a>4:b"))

	mask := libmatch.ComputeBitmask(Q, G)

	for v := int32(0); v < G.NodeCount; v++ {
		wantSrc := G.LabelName(G.Labels[v]) == "a" && G.OutDegree(v) >= 1
		require.Equal(t, wantSrc, mask.Has(gomatch.NodeID(v), 0), "node %d as query src", v)
	}
}

func TestLabelCandidatesMatchesBruteForce(t *testing.T) {
	Q := libmatch.NewGraph(nil)
	G := libmatch.NewGraph(nil)
	defer Q.Reclaim()
	defer G.Reclaim()

	require.NoError(t, Q.InitFromString("1>2, 2>3"))
	require.NoError(t, G.InitFromString("1>2, 2>3, 3>4, 4>1, 2>4"))

	mask := libmatch.ComputeBitmask(Q, G)

	Nq := int64(Q.EdgeCount)
	Ne := int64(G.EdgeCount)
	labels := make([]uint64, Nq*Ne)
	libmatch.LabelCandidates(Q, G, mask, labels, 3)

	for q := int64(0); q < Nq; q++ {
		for e := int64(0); e < Ne; e++ {
			want := uint64(0)
			if mask.Has(gomatch.NodeID(G.Froms[e]), gomatch.NodeID(Q.Froms[q])) &&
				mask.Has(gomatch.NodeID(G.Tos[e]), gomatch.NodeID(Q.Tos[q])) {
				want = 1
			}
			require.Equal(t, want, labels[q*Ne+e], "cell q=%d e=%d", q, e)
		}
	}

	// The full-edge-count loop domain must touch every cell: none may retain
	// a stale value from a prior run of the buffer.
	for i := range labels {
		labels[i] = 7
	}
	libmatch.LabelCandidates(Q, G, mask, labels, 1)
	for i, hit := range labels {
		require.Less(t, hit, uint64(2), "cell %d not overwritten", i)
	}
}
