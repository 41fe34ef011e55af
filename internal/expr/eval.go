package expr

import (
	"fmt"
)

type evaluator struct {
	vars map[string]any
}

// lookup resolves core helpers first, then context variables, then math.
func (ev *evaluator) lookup(id string) (any, error) {
	if v, ok := coreBuiltins[id]; ok {
		return v, nil
	}
	if v, ok := ev.vars[id]; ok {
		return v, nil
	}
	if v, ok := mathBuiltins[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("name '%s' is not defined", id)
}

func (ev *evaluator) eval(n node) (any, error) {
	switch t := n.(type) {
	case *literalNode:
		return t.val, nil
	case *nameNode:
		return ev.lookup(t.id)
	case *listNode:
		out, err := ev.evalAll(t.elems)
		return List(out), err
	case *tupleNode:
		out, err := ev.evalAll(t.elems)
		return Tuple(out), err
	case *dictNode:
		d := NewDict()
		for i := range t.keys {
			k, err := ev.eval(t.keys[i])
			if err != nil {
				return nil, err
			}
			v, err := ev.eval(t.vals[i])
			if err != nil {
				return nil, err
			}
			if err := d.Set(k, v); err != nil {
				return nil, err
			}
		}
		return d, nil
	case *unaryNode:
		x, err := ev.eval(t.x)
		if err != nil {
			return nil, err
		}
		return unary(t.op, x)
	case *binaryNode:
		l, err := ev.eval(t.l)
		if err != nil {
			return nil, err
		}
		r, err := ev.eval(t.r)
		if err != nil {
			return nil, err
		}
		return arith(t.op, l, r)
	case *boolNode:
		l, err := ev.eval(t.l)
		if err != nil {
			return nil, err
		}
		if (t.op == "or") == truthy(l) {
			return l, nil
		}
		return ev.eval(t.r)
	case *notNode:
		x, err := ev.eval(t.x)
		if err != nil {
			return nil, err
		}
		return !truthy(x), nil
	case *compareNode:
		return ev.compare(t)
	case *condNode:
		c, err := ev.eval(t.cond)
		if err != nil {
			return nil, err
		}
		if truthy(c) {
			return ev.eval(t.then)
		}
		return ev.eval(t.els)
	case *callNode:
		return ev.call(t)
	case *indexNode:
		x, err := ev.eval(t.x)
		if err != nil {
			return nil, err
		}
		i, err := ev.eval(t.index)
		if err != nil {
			return nil, err
		}
		return index(x, i)
	case *sliceNode:
		x, err := ev.eval(t.x)
		if err != nil {
			return nil, err
		}
		bounds := make([]any, 3)
		for i, b := range []node{t.lo, t.hi, t.step} {
			if b == nil {
				continue
			}
			if bounds[i], err = ev.eval(b); err != nil {
				return nil, err
			}
		}
		return slice(x, bounds[0], bounds[1], bounds[2])
	}
	return nil, fmt.Errorf("unsupported expression node %T", n)
}

func (ev *evaluator) evalAll(nodes []node) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		v, err := ev.eval(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (ev *evaluator) compare(t *compareNode) (any, error) {
	left, err := ev.eval(t.first)
	if err != nil {
		return nil, err
	}
	for i, op := range t.ops {
		right, err := ev.eval(t.rest[i])
		if err != nil {
			return nil, err
		}
		ok, err := compareOp(op, left, right)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		left = right
	}
	return true, nil
}

func (ev *evaluator) call(t *callNode) (any, error) {
	fn, err := ev.eval(t.fn)
	if err != nil {
		return nil, err
	}
	b, ok := fn.(*Builtin)
	if !ok {
		return nil, fmt.Errorf("'%s' object is not callable", typeName(fn))
	}
	args, err := ev.evalAll(t.args)
	if err != nil {
		return nil, err
	}
	var kw map[string]any
	if len(t.kwargs) > 0 {
		kw = make(map[string]any, len(t.kwargs))
		for _, k := range t.kwargs {
			if _, dup := kw[k.name]; dup {
				return nil, fmt.Errorf("keyword argument repeated: %s", k.name)
			}
			v, err := ev.eval(k.val)
			if err != nil {
				return nil, err
			}
			kw[k.name] = v
		}
	}
	return b.invoke(args, kw)
}
