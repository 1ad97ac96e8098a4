package libmatch

import (
	"sync"

	"github.com/gomatch-systems/gomatch/gomatch"
)

// parallelFor runs body(i) for every i in [0, count) across numWorkers goroutines.
// Each worker owns the stride class i ≡ w (mod numWorkers), so index domains are disjoint.
func parallelFor(numWorkers int, count int64, body func(i int64)) {
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(i int64) {
			defer wg.Done()
			for ; i < count; i += int64(numWorkers) {
				body(i)
			}
		}(int64(w))
	}
	wg.Wait()
}

// ComputeBitmask marks, for every data node, which query nodes it can stand in for:
// equal labels, and out/in degree at least that of the query node.
//
// This is the upstream feasibility stage; the core passes consume any caller-supplied mask.
func ComputeBitmask(Q, G *Graph) gomatch.Bitmask {
	mask := make(gomatch.Bitmask, G.NodeCount)

	// In-degrees are not CSR-resident, so tally both graphs' once up front.
	qIn := make([]int32, Q.NodeCount)
	for _, to := range Q.Tos[:Q.EdgeCount] {
		qIn[to]++
	}
	gIn := make([]int32, G.NodeCount)
	for _, to := range G.Tos[:G.EdgeCount] {
		gIn[to]++
	}

	// Label ordinals are interned per graph; translate Q's into G's ordinal
	// space (-1 when no data node carries the label, admitting nothing).
	qToG := make([]int32, Q.NodeCount)
	for qv := int32(0); qv < Q.NodeCount; qv++ {
		qToG[qv] = G.LabelOrdinal(Q.LabelName(Q.Labels[qv]))
	}

	for v := int32(0); v < G.NodeCount; v++ {
		for qv := int32(0); qv < Q.NodeCount; qv++ {
			if G.Labels[v] != qToG[qv] {
				continue
			}
			if G.OutDegree(v) < Q.OutDegree(qv) || gIn[v] < qIn[qv] {
				continue
			}
			mask.Set(gomatch.NodeID(v), gomatch.NodeID(qv))
		}
	}

	return mask
}

// LabelCandidates marks which data edges are label-consistent candidates for each query edge:
// labels[q*Ne+e] is 1 iff the mask admits e's source as an image of q's source query node
// and e's destination as an image of q's destination query node.
//
// The loop domain is every data edge (the full edge count, not a row-offset bound).
// Each (data edge, query edge) cell is independent, so the pass is a flat parallel-for.
func LabelCandidates(Q, G *Graph, mask gomatch.Bitmask, labels []uint64, numWorkers int) {
	Ne := int64(G.EdgeCount)
	Nq := int64(Q.EdgeCount)

	parallelFor(numWorkers, Ne, func(e int64) {
		from := gomatch.NodeID(G.Froms[e])
		to := gomatch.NodeID(G.Tos[e])

		for q := int64(0); q < Nq; q++ {
			hit := uint64(0)
			if mask.Has(from, gomatch.NodeID(Q.Froms[q])) &&
				mask.Has(to, gomatch.NodeID(Q.Tos[q])) {
				hit = 1
			}
			labels[q*Ne+e] = hit
		}
	})
}
