package typeset

// IsFullyStatic reports whether no Any occurs anywhere in t, including tuple
// elements, callable parameters and result, and intersection negatives.
func (c *Checker) IsFullyStatic(t Type) bool {
	switch v := t.(type) {
	case AnyType:
		return false
	case TupleType:
		for _, elem := range v.Elements {
			if !c.IsFullyStatic(elem) {
				return false
			}
		}
	case CallableType:
		for _, param := range v.Params {
			if !c.IsFullyStatic(param) {
				return false
			}
		}
		return c.IsFullyStatic(v.Result)
	case UnionType:
		for _, member := range v.Members {
			if !c.IsFullyStatic(member) {
				return false
			}
		}
	case IntersectionType:
		for _, member := range v.Positive {
			if !c.IsFullyStatic(member) {
				return false
			}
		}
		for _, member := range v.Negative {
			if !c.IsFullyStatic(member) {
				return false
			}
		}
	}
	return true
}

// IsSubtypeOf is the universally quantified reading of set inclusion: it
// holds iff every materialization of s is included in every materialization
// of t. Gradual operands are replaced by their worst-case bounds; fully
// static operands pass through unchanged.
func (c *Checker) IsSubtypeOf(s, t Type) bool {
	return c.verdict("subtype", s, t,
		c.staticSubtype(c.TopMaterialization(s), c.BottomMaterialization(t)))
}

// IsAssignableTo is the gradual relation: it holds iff some materialization
// of s is included in some materialization of t.
func (c *Checker) IsAssignableTo(s, t Type) bool {
	return c.verdict("assignable", s, t,
		c.staticSubtype(c.BottomMaterialization(s), c.TopMaterialization(t)))
}

// IsDisjointFrom reports that no fully static value inhabits both s and t,
// under every materialization of gradual operands. Any is disjoint only
// from Never.
func (c *Checker) IsDisjointFrom(s, t Type) bool {
	return c.verdict("disjoint", s, t, c.disjoint(s, t))
}

// staticSubtype decides set inclusion on fully static operands. Any is
// rejected outright: gradual operands must be materialized first.
func (c *Checker) staticSubtype(s, t Type) bool {
	if _, ok := s.(NeverType); ok {
		return c.verdict("never-left", s, t, true)
	}
	if _, ok := t.(ObjectType); ok {
		return c.verdict("object-right", s, t, true)
	}
	if _, ok := s.(AnyType); ok {
		return c.verdict("gradual-left", s, t, false)
	}
	if _, ok := t.(AnyType); ok {
		return c.verdict("gradual-right", s, t, false)
	}
	if _, ok := t.(NeverType); ok {
		return c.verdict("never-right", s, t, false)
	}
	if union, ok := s.(UnionType); ok {
		for _, member := range union.Members {
			if !c.staticSubtype(member, t) {
				return c.verdict("union-left", s, t, false)
			}
		}
		return c.verdict("union-left", s, t, true)
	}
	if union, ok := t.(UnionType); ok {
		for _, member := range union.Members {
			if c.staticSubtype(s, member) {
				return c.verdict("union-right", s, t, true)
			}
		}
		return c.verdict("union-right", s, t, false)
	}
	if inter, ok := t.(IntersectionType); ok {
		for _, p := range inter.Positive {
			if !c.staticSubtype(s, p) {
				return c.verdict("intersection-right", s, t, false)
			}
		}
		for _, n := range inter.Negative {
			if !c.disjoint(s, n) {
				return c.verdict("negation-right", s, t, false)
			}
		}
		return c.verdict("intersection-right", s, t, true)
	}
	if inter, ok := s.(IntersectionType); ok {
		for _, p := range inter.Positive {
			if c.staticSubtype(p, t) {
				return c.verdict("intersection-left", s, t, true)
			}
		}
		return c.verdict("intersection-left", s, t, false)
	}
	return c.atomSubtype(s, t)
}

func (c *Checker) atomSubtype(s, t Type) bool {
	switch left := s.(type) {
	case LiteralType:
		switch right := t.(type) {
		case LiteralType:
			return c.verdict("literal", s, t, left.Key() == right.Key())
		case InstanceType:
			return c.verdict("literal-widen", s, t, c.classSubtype(left.ClassName(), right.Class.Name))
		}
		return c.verdict("literal", s, t, false)
	case InstanceType:
		if right, ok := t.(InstanceType); ok {
			return c.verdict("nominal", s, t, c.classSubtype(left.Class.Name, right.Class.Name))
		}
		return c.verdict("nominal", s, t, false)
	case TupleType:
		switch right := t.(type) {
		case TupleType:
			if len(left.Elements) != len(right.Elements) {
				return c.verdict("tuple-length", s, t, false)
			}
			for i, elem := range left.Elements {
				if !c.staticSubtype(elem, right.Elements[i]) {
					return c.verdict("tuple-elementwise", s, t, false)
				}
			}
			return c.verdict("tuple-elementwise", s, t, true)
		case InstanceType:
			return c.verdict("tuple-nominal", s, t, c.classSubtype("tuple", right.Class.Name))
		}
		return c.verdict("tuple", s, t, false)
	case CallableType:
		right, ok := t.(CallableType)
		if !ok {
			return c.verdict("callable", s, t, false)
		}
		if len(left.Params) != len(right.Params) {
			return c.verdict("callable-arity", s, t, false)
		}
		for i, param := range right.Params {
			// Parameters are contravariant.
			if !c.staticSubtype(param, left.Params[i]) {
				return c.verdict("callable-params", s, t, false)
			}
		}
		return c.verdict("callable-result", s, t, c.staticSubtype(left.Result, right.Result))
	}
	return c.verdict("atom", s, t, false)
}

// classSubtype resolves nominal inclusion through the MRO, falling back to
// the numeric promotion chain.
func (c *Checker) classSubtype(sub, super string) bool {
	if c.reg.IsSubclass(sub, super) {
		return true
	}
	return c.reg.Promotes(sub, super)
}

func (c *Checker) disjoint(s, t Type) bool {
	if _, ok := s.(NeverType); ok {
		return true
	}
	if _, ok := t.(NeverType); ok {
		return true
	}
	if _, ok := s.(AnyType); ok {
		return false
	}
	if _, ok := t.(AnyType); ok {
		return false
	}
	if _, ok := s.(ObjectType); ok {
		return false
	}
	if _, ok := t.(ObjectType); ok {
		return false
	}
	if union, ok := s.(UnionType); ok {
		for _, member := range union.Members {
			if !c.disjoint(member, t) {
				return false
			}
		}
		return true
	}
	if union, ok := t.(UnionType); ok {
		for _, member := range union.Members {
			if !c.disjoint(s, member) {
				return false
			}
		}
		return true
	}
	if inter, ok := s.(IntersectionType); ok {
		return c.intersectionDisjoint(inter, t)
	}
	if inter, ok := t.(IntersectionType); ok {
		return c.intersectionDisjoint(inter, s)
	}
	return c.atomsDisjoint(s, t)
}

// intersectionDisjoint: the intersection excludes t when any positive
// already excludes it, or when t sits entirely inside a negated region.
func (c *Checker) intersectionDisjoint(inter IntersectionType, t Type) bool {
	for _, p := range inter.Positive {
		if c.disjoint(p, t) {
			return true
		}
	}
	for _, n := range inter.Negative {
		if c.staticSubtype(c.TopMaterialization(t), c.BottomMaterialization(n)) {
			return true
		}
	}
	return false
}

func (c *Checker) atomsDisjoint(s, t Type) bool {
	switch left := s.(type) {
	case LiteralType:
		switch right := t.(type) {
		case LiteralType:
			return left.Key() != right.Key()
		case InstanceType:
			return c.classesDisjoint(left.ClassName(), right.Class.Name)
		case TupleType:
			return true
		case CallableType:
			return true
		}
	case InstanceType:
		switch right := t.(type) {
		case LiteralType:
			return c.classesDisjoint(right.ClassName(), left.Class.Name)
		case InstanceType:
			return c.classesDisjoint(left.Class.Name, right.Class.Name)
		case TupleType:
			return c.classesDisjoint("tuple", left.Class.Name)
		case CallableType:
			// A subclass may define __call__, so instances are never
			// excluded from the callables.
			return false
		}
	case TupleType:
		switch right := t.(type) {
		case LiteralType:
			return true
		case InstanceType:
			return c.classesDisjoint("tuple", right.Class.Name)
		case TupleType:
			if len(left.Elements) != len(right.Elements) {
				return true
			}
			for i, elem := range left.Elements {
				if c.disjoint(elem, right.Elements[i]) {
					return true
				}
			}
			return false
		case CallableType:
			return true
		}
	case CallableType:
		switch t.(type) {
		case LiteralType, TupleType:
			return true
		case CallableType:
			// Callables are never disjoint from each other.
			return false
		case InstanceType:
			return false
		}
	}
	return false
}

// classesDisjoint decides nominal disjointness: related classes (subclass or
// promotion, either direction) are never disjoint; otherwise a final class
// admits no join, and distinct solid bases are layout-incompatible. Plain
// non-final, non-solid classes are never disjoint since multiple inheritance
// may join them.
func (c *Checker) classesDisjoint(a, b string) bool {
	if c.reg.IsSubclass(a, b) || c.reg.IsSubclass(b, a) {
		return false
	}
	if c.reg.Promotes(a, b) || c.reg.Promotes(b, a) {
		return false
	}
	if c.reg.IsFinal(a) || c.reg.IsFinal(b) {
		return true
	}
	solidA, okA := c.reg.SolidBase(a)
	solidB, okB := c.reg.SolidBase(b)
	if okA && okB && solidA != solidB {
		return true
	}
	return false
}
