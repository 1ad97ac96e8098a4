package libmatch

// PackCandidates scans the label array and emits the tagged candidate array:
// entry = q*Ne + e for every (query edge q, data edge e) with a set label, grouped
// by query edge in ascending order.  This is the sort/pack stage between labeling
// and compaction; generating q-major yields the sorted order the compactor assumes.
//
// pos[0] is set to the total candidate count (it is reused as the segment-0 bound
// once CompactSegments runs).
func PackCandidates(labels []uint64, Nq, Ne int64, cands []uint64, pos []int64) []uint64 {
	cands = cands[:0]
	for q := int64(0); q < Nq; q++ {
		row := labels[q*Ne : (q+1)*Ne]
		for e, hit := range row {
			if hit != 0 {
				cands = append(cands, uint64(q*Ne+int64(e)))
			}
		}
	}

	for i := range pos {
		pos[i] = 0
	}
	if len(pos) > 0 {
		pos[0] = int64(len(cands))
	}
	return cands
}

// CompactSegments converts the tagged candidate array into per-query-edge exclusive
// upper bounds in pos[] and strips the tags in place.
//
// On entry pos[0] holds the total candidate count.  The pass is split in two with a
// full barrier between them: a read-only boundary-detection sweep, then a write-only
// de-tag sweep.  A single fused sweep would let one worker read a neighbor's entry
// after another worker already stripped its tag.
func CompactSegments(cands []uint64, pos []int64, Ne int64, numWorkers int) {
	total := int64(0)
	if len(pos) > 0 {
		total = pos[0]
		pos[0] = 0
	}
	if total > int64(len(cands)) {
		panic("candidate count exceeds candidate array")
	}
	cands = cands[:total]

	// Pass 1: group boundaries.  Position i closes the run of tag t = cands[i]/Ne
	// when it is the last position or the next entry carries a different tag.
	parallelFor(numWorkers, total, func(i int64) {
		tag := int64(cands[i] / uint64(Ne))
		if i+1 == total || tag != int64(cands[i+1]/uint64(Ne)) {
			pos[tag] = i + 1
		}
	})

	// Pass 2: strip tags.
	parallelFor(numWorkers, total, func(i int64) {
		cands[i] %= uint64(Ne)
	})

	// Query edges with no candidates never got a bound; forward fill so that
	// segment q always occupies [pos[q-1], pos[q]).
	for q := 1; q < len(pos); q++ {
		if pos[q] < pos[q-1] {
			pos[q] = pos[q-1]
		}
	}
}

// SegmentSpan returns the candidate sub-range of query edge q.
func SegmentSpan(pos []int64, q int) (start, end int64) {
	if q > 0 {
		start = pos[q-1]
	}
	return start, pos[q]
}
