package gomatch

import (
	"errors"
)

const (

	// MaxQueryNodes is the max possible number of query graph nodes.
	// The node-candidacy Bitmask dedicates one bit per query node, so this is also the mask word width.
	MaxQueryNodes = 32

	// MaxQueryEdges is the max number of query edges the engine will accept.
	MaxQueryEdges = 3 * MaxQueryNodes / 2
)

// NodeID is a zero-based node index within a Graph.
type NodeID int32

// EdgeID is a zero-based edge index within a Graph.
type EdgeID int32

// Label is a node label ordinal.  Two nodes match only if their Labels are equal.
type Label int32

// Tuple is one accepted match: exactly one data EdgeID per query edge, in query-edge order.
type Tuple []EdgeID

// QuerySig is a canonical binary signature of a query graph's topology and labeling.
// It prefixes every catalog key so that matches for different queries never collide.
type QuerySig []byte

// Errors
var (
	ErrUnmarshal       = errors.New("unmarshal failed")
	ErrBadCatalogParam = errors.New("bad catalog param")
	ErrBadGraphExpr    = errors.New("bad graph expr")
	ErrBadNodeID       = errors.New("bad graph node ID")
	ErrBadEdgeID       = errors.New("bad graph edge ID")
	ErrGraphTooLarge   = errors.New("query graph exceeds engine limits")
	ErrSpaceOverflow   = errors.New("combination space exceeds int64 range")
	ErrResultTruncated = errors.New("match buffer capacity exceeded; results truncated")
)

// OnMatchHit is a callback channel used to return match Tuples meeting a set of selection criteria.
// Ownership of a Tuple travels through the channel.
type OnMatchHit chan<- Tuple

// CatalogContext is a container for open / active Catalog instances.
type CatalogContext interface {

	// Attaches the given Catalog to this context.
	AttachCatalog(cat Catalog)

	// Detaches the given Catalog from this context.
	DetachCatalog(cat Catalog)

	// Closes all open catalogs to be closed then closes.
	Close()

	// Signals when Close() completed and all open Catalogs have been closed
	Done() <-chan struct{}
}

// CatalogOpts specifies params for opening a match Catalog
type CatalogOpts struct {
	DbPathName string // omit for an in-memory db
	ReadOnly   bool   // open in read-only mode
}

type MatchAdder interface {

	// Tries to add the given match tuple for the given query signature.
	// If true is returned, the match was not present and was added.
	TryAddMatch(sig QuerySig, m Tuple) bool
}

// Catalog wraps a database of accepted match Tuples, keyed by query signature.
type Catalog interface {
	MatchAdder

	// Returns true if this catalog was opened for read-only access.
	IsReadOnly() bool

	// NumMatches returns the number of matches stored for a given query edge count.
	// An out of bounds edge count returns 0.
	NumMatches(forEdgeCount byte) int64

	// Select fires the given callback with each stored Tuple that meets the selection criteria.
	Select(sel MatchSelector, onHit OnMatchHit)

	Close() error
}

// MatchSelector is an operator that either selects a given stored match or not.
type MatchSelector struct {
	Sig          QuerySig // non-nil selects only matches recorded for this query signature
	MinEdgeCount byte     // lower query-edge-count bound (inclusive)
	MaxEdgeCount byte     // upper query-edge-count bound (inclusive; 0 denotes no bound)
}

// SelectsTuple is a convenience function used to see if a Tuple is selected according to a MatchSelector.
func (sel *MatchSelector) SelectsTuple(m Tuple) bool {
	Nq := byte(len(m))
	if Nq < sel.MinEdgeCount {
		return false
	}
	if sel.MaxEdgeCount > 0 && Nq > sel.MaxEdgeCount {
		return false
	}
	return true
}

// DefaultMatchSelector selects all stored matches.
var DefaultMatchSelector = MatchSelector{
	MinEdgeCount: 1,
	MaxEdgeCount: MaxQueryEdges,
}

// Bitmask holds the node-candidacy words, one per data node.
// Bit q of word i set means data node i is a feasible image of query node q.
type Bitmask []uint32

func (mask Bitmask) Set(node NodeID, queryNode NodeID) {
	mask[node] |= 1 << uint32(queryNode)
}

func (mask Bitmask) Has(node NodeID, queryNode NodeID) bool {
	return mask[node]&(1<<uint32(queryNode)) != 0
}

// CopyTo performs a blocking copy of this mask into dst, growing dst as needed.
// This is the host-retrieval hook for downstream reporting.
func (mask Bitmask) CopyTo(dst Bitmask) Bitmask {
	dst = append(dst[:0], mask...)
	return dst
}
