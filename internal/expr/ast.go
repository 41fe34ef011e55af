package expr

type node interface{}

type (
	literalNode struct{ val any }
	nameNode    struct{ id string }
	listNode    struct{ elems []node }
	tupleNode   struct{ elems []node }
	dictNode    struct{ keys, vals []node }

	unaryNode struct {
		op string
		x  node
	}
	binaryNode struct {
		op   string
		l, r node
	}
	// boolNode is a short-circuiting "and"/"or".
	boolNode struct {
		op   string
		l, r node
	}
	notNode     struct{ x node }
	compareNode struct {
		first node
		ops   []string
		rest  []node
	}
	condNode struct{ cond, then, els node }
	callNode struct {
		fn     node
		args   []node
		kwargs []kwarg
	}
	indexNode struct{ x, index node }
	sliceNode struct{ x, lo, hi, step node }
)

type kwarg struct {
	name string
	val  node
}

// walk visits n and its children depth first.
func walk(n node, fn func(node)) {
	if n == nil {
		return
	}
	fn(n)
	switch t := n.(type) {
	case *listNode:
		for _, e := range t.elems {
			walk(e, fn)
		}
	case *tupleNode:
		for _, e := range t.elems {
			walk(e, fn)
		}
	case *dictNode:
		for i := range t.keys {
			walk(t.keys[i], fn)
			walk(t.vals[i], fn)
		}
	case *unaryNode:
		walk(t.x, fn)
	case *binaryNode:
		walk(t.l, fn)
		walk(t.r, fn)
	case *boolNode:
		walk(t.l, fn)
		walk(t.r, fn)
	case *notNode:
		walk(t.x, fn)
	case *compareNode:
		walk(t.first, fn)
		for _, r := range t.rest {
			walk(r, fn)
		}
	case *condNode:
		walk(t.then, fn)
		walk(t.cond, fn)
		walk(t.els, fn)
	case *callNode:
		walk(t.fn, fn)
		for _, a := range t.args {
			walk(a, fn)
		}
		for _, kw := range t.kwargs {
			walk(kw.val, fn)
		}
	case *indexNode:
		walk(t.x, fn)
		walk(t.index, fn)
	case *sliceNode:
		walk(t.x, fn)
		walk(t.lo, fn)
		walk(t.hi, fn)
		walk(t.step, fn)
	}
}
