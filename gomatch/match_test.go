package gomatch_test

import (
	"testing"

	"github.com/gomatch-systems/gomatch/gomatch"
)

func TestTupleLSMRoundTrip(t *testing.T) {
	tuples := []gomatch.Tuple{
		{0},
		{0, 1, 2},
		{5, 0, 300},
		{1 << 30, 7, 7},
	}

	var buf gomatch.TupleLSMBuf
	for _, m := range tuples {
		lsm := m.AppendTupleLSM(buf[:0])

		var got gomatch.Tuple
		if err := got.InitFromTupleLSM(lsm, 0); err != nil {
			t.Fatal(err)
		}
		if !got.IsEqual(m) {
			t.Fatalf("round trip: got %v, want %v", got, m)
		}
	}
}

func TestTupleLSMMaxEdges(t *testing.T) {
	m := gomatch.Tuple{4, 5, 6, 7}
	lsm := m.AppendTupleLSM(nil)

	var got gomatch.Tuple
	if err := got.InitFromTupleLSM(lsm, 2); err != nil {
		t.Fatal(err)
	}
	if !got.IsEqual(gomatch.Tuple{4, 5}) {
		t.Fatalf("got %v", got)
	}
}

func TestTupleComparator(t *testing.T) {
	cases := []struct {
		A, B gomatch.Tuple
		sign int
	}{
		{gomatch.Tuple{0, 1, 2}, gomatch.Tuple{0, 1, 2}, 0},
		{gomatch.Tuple{0, 1, 2}, gomatch.Tuple{0, 1, 3}, -1},
		{gomatch.Tuple{2}, gomatch.Tuple{1, 9}, 1},
		{gomatch.Tuple{1}, gomatch.Tuple{1, 0}, -1},
		{gomatch.Tuple{1, 0}, gomatch.Tuple{1}, 1},
	}

	sign := func(d int) int {
		switch {
		case d < 0:
			return -1
		case d > 0:
			return 1
		}
		return 0
	}

	for _, c := range cases {
		if got := sign(gomatch.TupleComparator(c.A, c.B)); got != c.sign {
			t.Fatalf("cmp(%v, %v): got %d, want %d", c.A, c.B, got, c.sign)
		}
	}
}

func TestCatalogStateRoundTrip(t *testing.T) {
	st := gomatch.CatalogState{
		MajorVers:  2024,
		MinorVers:  1,
		NumMatches: make([]uint64, gomatch.MaxQueryEdges+1),
	}
	st.NumMatches[1] = 3
	st.NumMatches[3] = 1 << 40

	var got gomatch.CatalogState
	if err := got.Unmarshal(st.Marshal(nil)); err != nil {
		t.Fatal(err)
	}
	if got.MajorVers != st.MajorVers || got.MinorVers != st.MinorVers {
		t.Fatalf("vers: got %d.%d", got.MajorVers, got.MinorVers)
	}
	if len(got.NumMatches) != len(st.NumMatches) {
		t.Fatalf("len: got %d", len(got.NumMatches))
	}
	for i := range st.NumMatches {
		if got.NumMatches[i] != st.NumMatches[i] {
			t.Fatalf("NumMatches[%d]: got %d", i, got.NumMatches[i])
		}
	}
}

func TestCatalogStateUnmarshalRejectsJunk(t *testing.T) {
	var st gomatch.CatalogState
	if err := st.Unmarshal([]byte{0x80}); err != gomatch.ErrUnmarshal {
		t.Fatal("expected ErrUnmarshal")
	}
}

func TestBitmask(t *testing.T) {
	mask := make(gomatch.Bitmask, 3)
	mask.Set(1, 0)
	mask.Set(1, 31)
	mask.Set(2, 5)

	if !mask.Has(1, 0) || !mask.Has(1, 31) || !mask.Has(2, 5) {
		t.Fatal("set bits not readable")
	}
	if mask.Has(0, 0) || mask.Has(1, 5) {
		t.Fatal("unset bits read back set")
	}

	cp := mask.CopyTo(nil)
	if len(cp) != len(mask) || cp[1] != mask[1] {
		t.Fatal("CopyTo mismatch")
	}
}
