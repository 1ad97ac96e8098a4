package libmatch

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/plan-systems/klog"

	"github.com/gomatch-systems/gomatch/gomatch"
)

// SliceOpts sizes a matching run.
type SliceOpts struct {
	NumWorkers int   // parallel workers per pass; 0 denotes GOMAXPROCS
	MaxMatches int64 // output buffer capacity in matches; overflow sets the truncated flag
}

var DefaultSliceOpts = SliceOpts{
	MaxMatches: 1 << 16,
}

// Slice owns every buffer of one matching run: the label array, the tagged
// candidate array, the segment offset table, the rule table, and the output
// match buffer.  All are sized from graph dimensions at construction and live
// until Reclaim().  No external mutation is permitted while a run is active.
type Slice struct {
	Q    *Graph
	G    *Graph
	mask gomatch.Bitmask
	opts SliceOpts

	labels []uint64
	cands  []uint64
	pos    []int64
	rules  *RuleTable
	out    []gomatch.EdgeID

	matchCount int64
	truncated  bool
	ran        bool
}

var slicePool = sync.Pool{
	New: func() interface{} {
		return new(Slice)
	},
}

// NewSlice stages a matching run for the given query and data graphs.
// The mask is the node-candidacy input; see ComputeBitmask for the default
// upstream feasibility stage.
func NewSlice(Q, G *Graph, mask gomatch.Bitmask, opts SliceOpts) (*Slice, error) {
	if Q.EdgeCount < 1 || Q.EdgeCount > gomatch.MaxQueryEdges || Q.NodeCount > gomatch.MaxQueryNodes {
		return nil, gomatch.ErrGraphTooLarge
	}
	if int32(len(mask)) != G.NodeCount {
		return nil, gomatch.ErrBadNodeID
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = runtime.GOMAXPROCS(0)
	}
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = DefaultSliceOpts.MaxMatches
	}

	Nq := int64(Q.EdgeCount)
	Ne := int64(G.EdgeCount)

	s := slicePool.Get().(*Slice)
	s.Q = Q
	s.G = G
	s.mask = mask
	s.opts = opts
	s.matchCount = 0
	s.truncated = false
	s.ran = false

	s.labels = dimUint64(s.labels, Nq*Ne)
	s.cands = s.cands[:0]
	s.pos = dimInt64(s.pos, Nq)
	s.out = dimEdgeIDs(s.out, opts.MaxMatches*Nq)
	s.rules = NewRuleTable(Q)

	return s, nil
}

func dimUint64(buf []uint64, n int64) []uint64 {
	if int64(cap(buf)) < n {
		return make([]uint64, n)
	}
	return buf[:n]
}

func dimInt64(buf []int64, n int64) []int64 {
	if int64(cap(buf)) < n {
		return make([]int64, n)
	}
	return buf[:n]
}

func dimEdgeIDs(buf []gomatch.EdgeID, n int64) []gomatch.EdgeID {
	if int64(cap(buf)) < n {
		return make([]gomatch.EdgeID, n)
	}
	return buf[:n]
}

// Run drives the full pipeline: Label -> Pack -> Compact -> Join.
// Each pass runs to completion before the next starts; that barrier is the
// only cross-stage ordering guarantee the passes rely on.
func (s *Slice) Run(ctx context.Context) error {
	t0 := time.Now()
	Nq := int64(s.Q.EdgeCount)
	Ne := int64(s.G.EdgeCount)

	LabelCandidates(s.Q, s.G, s.mask, s.labels, s.opts.NumWorkers)
	s.cands = PackCandidates(s.labels, Nq, Ne, s.cands, s.pos)
	CompactSegments(s.cands, s.pos, Ne, s.opts.NumWorkers)

	count, truncated, err := RunJoin(ctx, s.G, s.rules, s.cands, s.pos, s.out, s.opts.NumWorkers)
	s.matchCount = count
	s.truncated = truncated
	s.ran = err == nil

	klog.V(2).Infof("join: %d candidates, %d matches in %v", len(s.cands), count, time.Since(t0))
	if err != nil {
		return err
	}
	if truncated {
		return gomatch.ErrResultTruncated
	}
	return nil
}

// MatchCount returns the total number of accepted matches.
// When Truncated() is set this exceeds the number of stored matches.
func (s *Slice) MatchCount() int64 {
	return s.matchCount
}

// StoredMatches returns how many matches are readable from the output buffer.
func (s *Slice) StoredMatches() int64 {
	if s.matchCount > s.opts.MaxMatches {
		return s.opts.MaxMatches
	}
	return s.matchCount
}

func (s *Slice) Truncated() bool {
	return s.truncated
}

// Match returns the i-th stored match as a view into the output buffer.
// The returned Tuple is read-only and valid until Reclaim().
func (s *Slice) Match(i int64) gomatch.Tuple {
	if !s.ran {
		panic("Match() before Run()")
	}
	Nq := int64(s.Q.EdgeCount)
	return gomatch.Tuple(s.out[i*Nq : (i+1)*Nq])
}

// CopyBitmask performs a blocking copy of the node-candidacy mask for downstream reporting.
func (s *Slice) CopyBitmask(dst gomatch.Bitmask) gomatch.Bitmask {
	return s.mask.CopyTo(dst)
}

// Pos exposes the segment offset table (read-only; for diagnostics and tests).
func (s *Slice) Pos() []int64 {
	return s.pos
}

// Candidates exposes the de-tagged candidate array (read-only; for diagnostics and tests).
func (s *Slice) Candidates() []uint64 {
	return s.cands
}

// ReportMatches logs the final match counter.  Purely observational.
func (s *Slice) ReportMatches() {
	klog.Infof("matches: %d (stored %d, truncated=%v)", s.matchCount, s.StoredMatches(), s.truncated)
}

// Reclaim recycles this Slice's buffers into a pool for reuse.
// Caller asserts that no more references to this instance (or its match views) persist.
func (s *Slice) Reclaim() {
	if s != nil {
		s.Q = nil
		s.G = nil
		s.mask = nil
		s.rules = nil
		slicePool.Put(s)
	}
}
