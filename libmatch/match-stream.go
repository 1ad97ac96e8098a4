package libmatch

import (
	"fmt"
	"io"
	"strings"

	"github.com/emirpasic/gods/trees/redblacktree"

	"github.com/gomatch-systems/gomatch/gomatch"
)

// MatchStream carries accepted match Tuples through a processing chain.
// Ownership of each Tuple travels with it.
type MatchStream struct {
	Outlet chan gomatch.Tuple
}

func NewMatchStream() *MatchStream {
	return &MatchStream{
		Outlet: make(chan gomatch.Tuple, 1),
	}
}

func (stream *MatchStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *MatchStream) PushMatch(m gomatch.Tuple) {
	stream.Outlet <- m.Clone()
}

func (stream *MatchStream) PullMatch() gomatch.Tuple {
	return <-stream.Outlet
}

func (stream *MatchStream) PullAll() int {
	count := 0
	for range stream.Outlet {
		count++
	}
	return count
}

// Stream emits every stored match of a completed run.
func (s *Slice) Stream() *MatchStream {
	next := NewMatchStream()

	go func() {
		N := s.StoredMatches()
		for i := int64(0); i < N; i++ {
			next.Outlet <- s.Match(i).Clone()
		}
		next.Close()
	}()

	return next
}

func (stream *MatchStream) Print(out io.Writer, label string) *MatchStream {
	next := NewMatchStream()

	go func() {
		buf := strings.Builder{}
		buf.Grow(128)

		count := 0
		for m := range stream.Outlet {
			if len(label) > 0 {
				buf.WriteString(label)
			}
			count++
			fmt.Fprintf(&buf, ",%06d,", count)
			m.WriteAsString(&buf)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- m
		}
		next.Close()
	}()

	return next
}

// AddTo forwards only matches newly added to the target (e.g. a catalog).
func (stream *MatchStream) AddTo(target gomatch.MatchAdder, sig gomatch.QuerySig) *MatchStream {
	next := NewMatchStream()

	go func() {
		for m := range stream.Outlet {
			if target.TryAddMatch(sig, m) {
				next.Outlet <- m
			}
		}
		next.Close()
	}()

	return next
}

// Dedupe drops repeated tuples and re-emits the survivors in canonical
// (lexicographic) order once the inlet closes.
func (stream *MatchStream) Dedupe() *MatchStream {
	next := NewMatchStream()

	go func() {
		uniques := redblacktree.Tree{
			Comparator: func(A, B interface{}) int {
				return gomatch.TupleComparator(A.(gomatch.Tuple), B.(gomatch.Tuple))
			},
		}

		for m := range stream.Outlet {
			if _, found := uniques.Get(m); !found {
				uniques.Put(m, nil)
			}
		}

		itr := uniques.Iterator()
		for itr.Next() {
			next.Outlet <- itr.Key().(gomatch.Tuple)
		}
		next.Close()
	}()

	return next
}

// SelectFromCatalog streams stored matches meeting the selection criteria.
func SelectFromCatalog(cat gomatch.Catalog, sel gomatch.MatchSelector) *MatchStream {
	next := NewMatchStream()

	onHit := make(chan gomatch.Tuple, 4)

	go func() {
		cat.Select(sel, onHit)
		close(onHit)
	}()

	go func() {
		for m := range onHit {
			if sel.SelectsTuple(m) {
				next.Outlet <- m
			}
		}
		next.Close()
	}()

	return next
}
