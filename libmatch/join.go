package libmatch

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gomatch-systems/gomatch/gomatch"
)

// ctxCheckStride is how many tuples a join worker evaluates between context polls.
const ctxCheckStride = 4096

// SpaceSize returns the combination-space size: the product of every query edge's
// candidate-segment length.  Returns ErrSpaceOverflow if the product exceeds int64.
func SpaceSize(pos []int64) (int64, error) {
	total := int64(1)
	for q := range pos {
		start, end := SegmentSpan(pos, q)
		L := end - start
		if L == 0 {
			return 0, nil
		}
		if total > math.MaxInt64/L {
			return 0, gomatch.ErrSpaceOverflow
		}
		total *= L
	}
	return total, nil
}

// DecodeIndex recovers the mixed-radix digits of x for the given segment lengths,
// last query edge first: dst[q] = position within segment q.  The decode is a
// bijection over [0, Π segLens): re-encoding the digits reproduces x exactly.
func DecodeIndex(x int64, segLens []int64, dst []int64) {
	for q := len(segLens) - 1; q >= 0; q-- {
		dst[q] = x % segLens[q]
		x /= segLens[q]
	}
}

type joinRun struct {
	G     *Graph
	rules *RuleTable
	cands []uint64
	seg0  []int64 // segment start per query edge
	segN  []int64 // segment length per query edge
	out   []gomatch.EdgeID

	matchCount int64 // atomic; its fetch-add return value is the reserved output slot
	truncated  int32 // atomic flag
}

// evalTuple decodes tuple index x into one candidate edge per query edge, then
// validates each edge against all earlier-placed edges.  On acceptance the match
// is written to the output slot reserved by a single fetch-and-add.
func (jr *joinRun) evalTuple(x int64, pick []gomatch.EdgeID) {
	Nq := len(pick)

	for q := Nq - 1; q >= 0; q-- {
		k := x % jr.segN[q]
		x /= jr.segN[q]
		pick[q] = gomatch.EdgeID(jr.cands[jr.seg0[q]+k])
	}

	for i := 1; i < Nq; i++ {
		ei := pick[i]
		ui, vi := jr.G.Froms[ei], jr.G.Tos[ei]

		for j := 0; j < i; j++ {
			ej := pick[j]
			if ei == ej {
				return // no data edge may serve two query-edge roles
			}
			uj, vj := jr.G.Froms[ej], jr.G.Tos[ej]

			rule := jr.rules.At(int32(i), int32(j))
			if !rule.Src.Admits(ui, uj, vj) || !rule.Dst.Admits(vi, uj, vj) {
				return
			}
		}
	}

	slot := atomic.AddInt64(&jr.matchCount, 1) - 1
	at := slot * int64(Nq)
	if at+int64(Nq) > int64(len(jr.out)) {
		atomic.StoreInt32(&jr.truncated, 1)
		return
	}
	copy(jr.out[at:], pick)
}

// RunJoin enumerates the Cartesian product of per-query-edge candidate segments,
// emitting every structurally valid match into out (query-edge-count edge ids per
// match).  Workers grid-stride over tuple indices; each index is decoded, validated,
// and possibly emitted independently, so output order is completion order.
//
// Returns the total number of accepted matches (which can exceed the provisioned
// capacity), whether the output buffer was truncated, and any setup or cancellation
// error.
func RunJoin(ctx context.Context, G *Graph, rules *RuleTable, cands []uint64, pos []int64, out []gomatch.EdgeID, numWorkers int) (matchCount int64, truncated bool, err error) {
	Nq := len(pos)

	total, err := SpaceSize(pos)
	if err != nil || total == 0 {
		return 0, false, err
	}

	jr := &joinRun{
		G:     G,
		rules: rules,
		cands: cands,
		seg0:  make([]int64, Nq),
		segN:  make([]int64, Nq),
		out:   out,
	}
	for q := 0; q < Nq; q++ {
		start, end := SegmentSpan(pos, q)
		jr.seg0[q] = start
		jr.segN[q] = end - start
	}

	if numWorkers < 1 {
		numWorkers = 1
	}

	grp, ctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		x0 := int64(w)
		grp.Go(func() error {
			pick := make(gomatch.Tuple, Nq)
			sinceCheck := 0
			for x := x0; x < total; x += int64(numWorkers) {
				jr.evalTuple(x, pick)
				if sinceCheck++; sinceCheck >= ctxCheckStride {
					sinceCheck = 0
					if err := ctx.Err(); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}

	err = grp.Wait()
	return atomic.LoadInt64(&jr.matchCount), atomic.LoadInt32(&jr.truncated) != 0, err
}
