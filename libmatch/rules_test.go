package libmatch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomatch-systems/gomatch/libmatch"
)

func TestTriangleRuleTable(t *testing.T) {
	Q := libmatch.NewGraph(nil)
	defer Q.Reclaim()

	// Query edges sort to (0,1), (1,2), (2,0)
	require.NoError(t, Q.InitFromString("1>2, 2>3, 3>1"))

	rt := libmatch.NewRuleTable(Q)

	// Edge 1 vs edge 0: its source is edge 0's destination; its destination
	// touches neither endpoint.
	r := rt.At(1, 0)
	require.Equal(t, libmatch.RuleEqDst, r.Src)
	require.Equal(t, libmatch.RuleDisjoint, r.Dst)

	// Edge 2 vs edge 0: source disjoint, destination is edge 0's source
	r = rt.At(2, 0)
	require.Equal(t, libmatch.RuleDisjoint, r.Src)
	require.Equal(t, libmatch.RuleEqSrc, r.Dst)

	// Edge 2 vs edge 1: source is edge 1's destination
	r = rt.At(2, 1)
	require.Equal(t, libmatch.RuleEqDst, r.Src)
	require.Equal(t, libmatch.RuleDisjoint, r.Dst)
}

func TestRuleCodeAdmits(t *testing.T) {
	// Earlier edge runs 4 -> 7
	require.True(t, libmatch.RuleEqSrc.Admits(4, 4, 7))
	require.False(t, libmatch.RuleEqSrc.Admits(7, 4, 7))

	require.True(t, libmatch.RuleEqDst.Admits(7, 4, 7))
	require.False(t, libmatch.RuleEqDst.Admits(4, 4, 7))

	require.True(t, libmatch.RuleDisjoint.Admits(5, 4, 7))
	require.False(t, libmatch.RuleDisjoint.Admits(4, 4, 7))
	require.False(t, libmatch.RuleDisjoint.Admits(7, 4, 7))
}
