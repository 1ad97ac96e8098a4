package libmatch

import (
	"github.com/alecthomas/participle/v2"

	"github.com/gomatch-systems/gomatch/gomatch"
)

type GraphExpr struct {
	Runs []*EdgeRun `(@@ ("," @@)*)?`
}

type EdgeRun struct {
	StartVtx *Vtx   `@@`
	Hops     []*Hop `@@*`
}

type Hop struct {
	Dir    string `@( ">" | "<" )`
	EndVtx *Vtx   `@@`
}

type Vtx struct {
	ID    int64  `@Int`
	Label string `( ":" @Ident )?`
}

var parseGraphExpr = participle.MustBuild[GraphExpr]()

type graphBuilder struct {
	X *Graph
}

// tallyVtx maps the expression's one-based node id directly to node id-1,
// growing the node table as needed.  A node's label is set by its first
// labeled mention; a later conflicting label is an error.
func (Xb *graphBuilder) tallyVtx(vtx *Vtx) (int32, error) {
	if vtx.ID < 1 {
		return 0, gomatch.ErrBadNodeID
	}

	v := int32(vtx.ID - 1)
	for Xb.X.NodeCount <= v {
		Xb.X.addNode(0)
	}
	if vtx.Label != "" {
		ord := Xb.X.labelOrd(vtx.Label)
		if Xb.X.Labels[v] == 0 {
			Xb.X.Labels[v] = ord
		} else if Xb.X.Labels[v] != ord {
			return 0, gomatch.ErrBadGraphExpr
		}
	}
	return v, nil
}

func (Xb *graphBuilder) applyRun(run *EdgeRun) error {
	onVtx, err := Xb.tallyVtx(run.StartVtx)
	if err != nil {
		return err
	}

	for _, hop := range run.Hops {
		nextVtx, err := Xb.tallyVtx(hop.EndVtx)
		if err != nil {
			return err
		}

		switch hop.Dir {
		case ">":
			Xb.X.addEdge(onVtx, nextVtx)
		case "<":
			Xb.X.addEdge(nextVtx, onVtx)
		}
		onVtx = nextVtx
	}

	return nil
}

// InitFromString assigns this Graph from an edge-run expression such as
// "1>2>3, 3>1" or "1:a>2:b, 2<3:a".  Expression node ids are one-based;
// node i of the graph is expression id i+1.
func (X *Graph) InitFromString(graphExpr string) error {
	X.Init(nil)

	Xexpr, err := parseGraphExpr.ParseString("", graphExpr)
	if err != nil {
		return err
	}

	Xb := graphBuilder{
		X: X,
	}

	for _, run := range Xexpr.Runs {
		if err = Xb.applyRun(run); err != nil {
			return err
		}
	}

	X.buildCSR()
	return nil
}
