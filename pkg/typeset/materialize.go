package typeset

// TopMaterialization replaces every Any in t by its widest fully static
// bound: object at positive polarity, Never where polarity has flipped
// (callable parameters, intersection negatives). Fully static input is
// returned unchanged. The result is always fully static, so materializing
// twice is the identity.
func (c *Checker) TopMaterialization(t Type) Type {
	if c.IsFullyStatic(t) {
		return t
	}
	return c.materialize(t, true)
}

// BottomMaterialization replaces every Any in t by its narrowest fully
// static bound: Never at positive polarity, object where polarity has
// flipped.
func (c *Checker) BottomMaterialization(t Type) Type {
	if c.IsFullyStatic(t) {
		return t
	}
	return c.materialize(t, false)
}

func (c *Checker) materialize(t Type, top bool) Type {
	switch v := t.(type) {
	case AnyType:
		if top {
			return Object
		}
		return Never
	case TupleType:
		elems := make([]Type, len(v.Elements))
		for i, elem := range v.Elements {
			elems[i] = c.materialize(elem, top)
		}
		return TupleType{Elements: elems}
	case CallableType:
		params := make([]Type, len(v.Params))
		for i, param := range v.Params {
			// Contravariant position: polarity flips.
			params[i] = c.materialize(param, !top)
		}
		return CallableType{Params: params, Result: c.materialize(v.Result, top)}
	case UnionType:
		members := make([]Type, len(v.Members))
		for i, member := range v.Members {
			members[i] = c.materialize(member, top)
		}
		return c.Union(members...)
	case IntersectionType:
		parts := make([]Type, 0, len(v.Positive)+len(v.Negative))
		for _, p := range v.Positive {
			parts = append(parts, c.materialize(p, top))
		}
		for _, n := range v.Negative {
			// Negated position: polarity flips.
			parts = append(parts, c.Negate(c.materialize(n, !top)))
		}
		return c.Intersect(parts...)
	default:
		return t
	}
}
