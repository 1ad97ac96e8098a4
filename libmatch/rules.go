package libmatch

// RuleCode constrains one endpoint of a later-placed query edge against an earlier one.
type RuleCode int8

const (
	// RuleDisjoint: the query graph shares no vertex here, so the endpoint must not
	// coincide with either endpoint of the earlier edge's image.
	RuleDisjoint RuleCode = iota

	// RuleEqSrc: the endpoint must equal the earlier edge image's source.
	RuleEqSrc

	// RuleEqDst: the endpoint must equal the earlier edge image's destination.
	RuleEqDst
)

// Rule is the adjacency constraint for one ordered query-edge pair:
// Src governs the later edge's source endpoint, Dst its destination.
type Rule struct {
	Src RuleCode
	Dst RuleCode
}

// RuleTable holds one Rule per ordered query-edge pair (earlier j, later i), j < i,
// at triangular index i*(i-1)/2 + j.  It is derived purely from query topology with
// the query-edge order fixed beforehand.
type RuleTable struct {
	Nq    int32
	Rules []Rule
}

// NewRuleTable builds the adjacency rule table for the given query graph.
// The processing order is the query's edge order 0..Nq-1 as indexed.
func NewRuleTable(Q *Graph) *RuleTable {
	Nq := Q.EdgeCount
	rt := &RuleTable{
		Nq:    Nq,
		Rules: make([]Rule, Nq*(Nq-1)/2),
	}

	for i := int32(1); i < Nq; i++ {
		si, di := Q.Froms[i], Q.Tos[i]
		for j := int32(0); j < i; j++ {
			sj, dj := Q.Froms[j], Q.Tos[j]
			rt.Rules[i*(i-1)/2+j] = Rule{
				Src: endpointRule(si, sj, dj),
				Dst: endpointRule(di, sj, dj),
			}
		}
	}
	return rt
}

func endpointRule(node, earlierSrc, earlierDst int32) RuleCode {
	switch node {
	case earlierSrc:
		return RuleEqSrc
	case earlierDst:
		return RuleEqDst
	}
	return RuleDisjoint
}

// At returns the rule constraining later edge i against earlier edge j (j < i).
func (rt *RuleTable) At(i, j int32) Rule {
	return rt.Rules[i*(i-1)/2+j]
}

// Admits reports whether an endpoint value satisfies the given code against the
// earlier edge image's endpoints.
func (code RuleCode) Admits(node, earlierSrc, earlierDst int32) bool {
	switch code {
	case RuleEqSrc:
		return node == earlierSrc
	case RuleEqDst:
		return node == earlierDst
	}
	return node != earlierSrc && node != earlierDst
}
