package libmatch

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/gomatch-systems/gomatch/gomatch"
)

// Graph is an immutable directed graph in compressed sparse row form.
// RowOffsets has NodeCount+1 entries; edge e runs Froms[e] -> Tos[e], and the
// edges of node v occupy [RowOffsets[v], RowOffsets[v+1]) sorted by source.
type Graph struct {
	NodeCount  int32
	EdgeCount  int32
	RowOffsets []int32
	Froms      []int32
	Tos        []int32
	Labels     []int32 // one per node

	labelTab   map[string]int32
	labelNames []string // labelNames[ord-1] is the name of ordinal ord
	dirty      bool
}

func NewGraph(Xsrc *Graph) *Graph {
	X := graphPool.Get().(*Graph)
	X.Init(Xsrc)
	return X
}

func (X *Graph) Init(Xsrc *Graph) {
	if X == Xsrc {
		return
	}

	if Xsrc == nil {
		X.NodeCount = 0
		X.EdgeCount = 0
		X.RowOffsets = X.RowOffsets[:0]
		X.Froms = X.Froms[:0]
		X.Tos = X.Tos[:0]
		X.Labels = X.Labels[:0]
		X.labelTab = nil
		X.labelNames = X.labelNames[:0]
		X.dirty = false
		return
	}
	X.NodeCount = Xsrc.NodeCount
	X.EdgeCount = Xsrc.EdgeCount
	X.RowOffsets = append(X.RowOffsets[:0], Xsrc.RowOffsets...)
	X.Froms = append(X.Froms[:0], Xsrc.Froms...)
	X.Tos = append(X.Tos[:0], Xsrc.Tos...)
	X.Labels = append(X.Labels[:0], Xsrc.Labels...)
	X.labelTab = nil
	X.labelNames = append(X.labelNames[:0], Xsrc.labelNames...)
	X.dirty = Xsrc.dirty
}

func (X *Graph) Reclaim() {
	if X != nil {
		graphPool.Put(X)
	}
}

var graphPool = sync.Pool{
	New: func() interface{} {
		return new(Graph)
	},
}

// Ends returns the source and destination node of the given edge.
func (X *Graph) Ends(e gomatch.EdgeID) (from, to int32) {
	return X.Froms[e], X.Tos[e]
}

func (X *Graph) addNode(label int32) int32 {
	X.Labels = append(X.Labels, label)
	X.NodeCount++
	X.dirty = true
	return X.NodeCount - 1
}

func (X *Graph) addEdge(from, to int32) {
	X.Froms = append(X.Froms, from)
	X.Tos = append(X.Tos, to)
	X.EdgeCount++
	X.dirty = true
}

// labelOrd interns a label string, issuing ordinals in order of first appearance.
// The empty label is always ordinal 0.
func (X *Graph) labelOrd(name string) int32 {
	if name == "" {
		return 0
	}
	if X.labelTab == nil {
		X.labelTab = make(map[string]int32)
	}
	if ord, ok := X.labelTab[name]; ok {
		return ord
	}
	ord := int32(len(X.labelTab)) + 1
	X.labelTab[name] = ord
	X.labelNames = append(X.labelNames, name)
	return ord
}

// LabelName returns the name behind a label ordinal ("" for the empty label).
func (X *Graph) LabelName(ord int32) string {
	if ord == 0 {
		return ""
	}
	return X.labelNames[ord-1]
}

// LabelOrdinal returns this graph's ordinal for the given label name,
// or -1 if no node of this graph carries it.
func (X *Graph) LabelOrdinal(name string) int32 {
	if name == "" {
		return 0
	}
	for i, n := range X.labelNames {
		if n == name {
			return int32(i) + 1
		}
	}
	return -1
}

// canonicalizeLabels re-issues label ordinals in node-id order, so equal
// labeled graphs written with runs in any order carry identical label arrays
// (and hence identical signatures).
func (X *Graph) canonicalizeLabels() {
	if len(X.labelNames) < 2 {
		return
	}

	oldNames := X.labelNames
	remap := make([]int32, len(oldNames)+1)
	X.labelNames = make([]string, 0, len(oldNames))

	for v := range X.Labels {
		old := X.Labels[v]
		if old == 0 {
			continue
		}
		if remap[old] == 0 {
			X.labelNames = append(X.labelNames, oldNames[old-1])
			remap[old] = int32(len(X.labelNames))
		}
		X.Labels[v] = remap[old]
	}
	X.labelTab = nil
}

// buildCSR sorts the edge arrays by source node and fills RowOffsets.
// Edge ids after this call are the post-sort positions.
func (X *Graph) buildCSR() {
	if !X.dirty {
		return
	}

	type edge struct{ from, to int32 }
	edges := make([]edge, X.EdgeCount)
	for i := range edges {
		edges[i] = edge{X.Froms[i], X.Tos[i]}
	}
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].from != edges[j].from {
			return edges[i].from < edges[j].from
		}
		return edges[i].to < edges[j].to
	})
	for i, ei := range edges {
		X.Froms[i] = ei.from
		X.Tos[i] = ei.to
	}

	X.RowOffsets = append(X.RowOffsets[:0], make([]int32, X.NodeCount+1)...)
	for _, ei := range edges {
		X.RowOffsets[ei.from+1]++
	}
	for v := int32(0); v < X.NodeCount; v++ {
		X.RowOffsets[v+1] += X.RowOffsets[v]
	}

	X.canonicalizeLabels()
	X.dirty = false
}

// OutDegree returns the number of edges leaving node v.
func (X *Graph) OutDegree(v int32) int32 {
	return X.RowOffsets[v+1] - X.RowOffsets[v]
}

// InDegree counts the edges arriving at node v.
// CSR rows are keyed by source, so this is a scan of Tos.
func (X *Graph) InDegree(v int32) int32 {
	deg := int32(0)
	for _, to := range X.Tos[:X.EdgeCount] {
		if to == v {
			deg++
		}
	}
	return deg
}

// QuerySig appends a canonical signature of this graph's topology and labeling:
//
//	EdgeCount (byte)
//	<per edge> varint(from+1), varint(to+1)
//	<per node> varint(label+1)
//
// Every field is offset by one so the signature never contains a NUL byte
// (catalog keys use a double-NUL separator after the signature).
func (X *Graph) QuerySig(in []byte) gomatch.QuerySig {
	var scrap [binary.MaxVarintLen64]byte

	sig := append(in, byte(X.EdgeCount))
	for i := int32(0); i < X.EdgeCount; i++ {
		n := binary.PutUvarint(scrap[:], uint64(X.Froms[i])+1)
		sig = append(sig, scrap[:n]...)
		n = binary.PutUvarint(scrap[:], uint64(X.Tos[i])+1)
		sig = append(sig, scrap[:n]...)
	}
	for v := int32(0); v < X.NodeCount; v++ {
		n := binary.PutUvarint(scrap[:], uint64(X.Labels[v])+1)
		sig = append(sig, scrap[:n]...)
	}
	return sig
}

func (X *Graph) WriteAsString(out io.Writer) {
	fmt.Fprintf(out, "n=%d,e=%d,\"", X.NodeCount, X.EdgeCount)
	for i := int32(0); i < X.EdgeCount; i++ {
		if i > 0 {
			fmt.Fprint(out, ",")
		}
		fmt.Fprintf(out, "%d>%d", X.Froms[i]+1, X.Tos[i]+1)
	}
	fmt.Fprint(out, "\"")
}
