package gomatch

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// TupleLSM is a canonical binary encoding of a Tuple: one varint per data-edge id, in query-edge order.
type TupleLSM []byte

type TupleLSMBuf [MaxQueryEdges * binary.MaxVarintLen32]byte

// AppendTupleLSM appends a canonical binary encoding of m to the given buffer.
func (m Tuple) AppendTupleLSM(out []byte) TupleLSM {
	var scrap [binary.MaxVarintLen64]byte

	for _, ei := range m {
		n := binary.PutUvarint(scrap[:], uint64(ei))
		out = append(out, scrap[:n]...)
	}

	return out
}

// InitFromTupleLSM assigns this Tuple from an encoding made by AppendTupleLSM().
// If maxEdges > 0, reading stops after that many edge ids.
func (m *Tuple) InitFromTupleLSM(lsm TupleLSM, maxEdges int) error {
	out := (*m)[:0]
	rdr := bytes.NewReader(lsm)

	for {
		ei, err := binary.ReadUvarint(rdr)
		if err != nil {
			if err == io.EOF {
				break
			}
			return ErrUnmarshal
		}
		out = append(out, EdgeID(ei))
		if maxEdges > 0 && len(out) >= maxEdges {
			break
		}
	}

	*m = out
	return nil
}

// IsEqual returns if two tuples choose the same data edge for every query edge.
func (m Tuple) IsEqual(other Tuple) bool {
	if len(m) != len(other) {
		return false
	}
	for i, ei := range m {
		if ei != other[i] {
			return false
		}
	}
	return true
}

func (m Tuple) Clone() Tuple {
	return append(Tuple{}, m...)
}

func (m Tuple) WriteAsString(out io.Writer) {
	for i, ei := range m {
		if i > 0 {
			fmt.Fprint(out, ",")
		}
		fmt.Fprintf(out, "%d", ei)
	}
}

// TupleComparator orders tuples lexicographically by edge id, shorter tuples first on ties.
func TupleComparator(A, B Tuple) int {
	lenB := len(B)

	for i, ai := range A {
		if lenB == i {
			return 1
		}
		d := int(ai) - int(B[i])
		if d != 0 {
			return d
		}
	}

	if len(A) < lenB {
		return -1
	}
	return 0
}

// CatalogState is the persisted header record of a match catalog.
type CatalogState struct {
	MajorVers  int32
	MinorVers  int32
	NumMatches []uint64 // indexed by query edge count (one-based)
}

// Marshal appends a binary encoding of this state to the given buffer.
func (st *CatalogState) Marshal(out []byte) []byte {
	var scrap [binary.MaxVarintLen64]byte

	n := binary.PutVarint(scrap[:], int64(st.MajorVers))
	out = append(out, scrap[:n]...)
	n = binary.PutVarint(scrap[:], int64(st.MinorVers))
	out = append(out, scrap[:n]...)

	n = binary.PutUvarint(scrap[:], uint64(len(st.NumMatches)))
	out = append(out, scrap[:n]...)
	for _, Ni := range st.NumMatches {
		n = binary.PutUvarint(scrap[:], Ni)
		out = append(out, scrap[:n]...)
	}

	return out
}

func (st *CatalogState) Unmarshal(in []byte) error {
	rdr := bytes.NewReader(in)

	major, err := binary.ReadVarint(rdr)
	if err != nil {
		return ErrUnmarshal
	}
	minor, err := binary.ReadVarint(rdr)
	if err != nil {
		return ErrUnmarshal
	}
	count, err := binary.ReadUvarint(rdr)
	if err != nil || count > MaxQueryEdges+1 {
		return ErrUnmarshal
	}

	st.MajorVers = int32(major)
	st.MinorVers = int32(minor)
	st.NumMatches = make([]uint64, count)
	for i := range st.NumMatches {
		Ni, err := binary.ReadUvarint(rdr)
		if err != nil {
			return ErrUnmarshal
		}
		st.NumMatches[i] = Ni
	}

	return nil
}
