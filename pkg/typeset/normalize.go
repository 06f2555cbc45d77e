package typeset

import "sort"

// Union builds the normalized union of members: nested unions are flattened,
// Never is dropped, object absorbs everything, fully static members subsumed
// by another member are dropped, Literal[True] | Literal[False] collapses to
// bool, and T | ~T collapses to object for fully static T.
func (c *Checker) Union(members ...Type) Type {
	var flat []Type
	if sawObject := flattenUnion(members, &flat); sawObject {
		return Object
	}
	flat = dedupeByKey(flat)
	flat = c.collapseBoolLiterals(flat)

	// T | ~T = object: a negation-only member whose negated types are each
	// covered by some other member leaves no value out of the union.
	for _, member := range flat {
		inter, ok := member.(IntersectionType)
		if !ok || len(inter.Positive) != 0 || len(inter.Negative) == 0 {
			continue
		}
		covered := true
		for _, negated := range inter.Negative {
			if !c.IsFullyStatic(negated) || !c.coveredByOther(negated, flat, member) {
				covered = false
				break
			}
		}
		if covered {
			return Object
		}
	}

	flat = c.dropSubsumedMembers(flat)

	switch len(flat) {
	case 0:
		return Never
	case 1:
		return flat[0]
	}
	sortByKey(flat)
	return UnionType{Members: flat}
}

func flattenUnion(members []Type, out *[]Type) bool {
	for _, member := range members {
		switch v := member.(type) {
		case nil:
		case NeverType:
		case ObjectType:
			return true
		case UnionType:
			if flattenUnion(v.Members, out) {
				return true
			}
		default:
			*out = append(*out, member)
		}
	}
	return false
}

func (c *Checker) collapseBoolLiterals(members []Type) []Type {
	trueAt, falseAt := -1, -1
	for i, member := range members {
		lit, ok := member.(LiteralType)
		if !ok || lit.Kind != LiteralBool {
			continue
		}
		if lit.BoolValue {
			trueAt = i
		} else {
			falseAt = i
		}
	}
	if trueAt < 0 || falseAt < 0 {
		return members
	}
	kept := make([]Type, 0, len(members)-1)
	for i, member := range members {
		if i == trueAt || i == falseAt {
			continue
		}
		kept = append(kept, member)
	}
	return dedupeByKey(append(kept, c.Bool()))
}

func (c *Checker) coveredByOther(t Type, members []Type, self Type) bool {
	for _, member := range members {
		if SameType(member, self) {
			continue
		}
		if c.IsFullyStatic(member) && c.staticSubtype(t, member) {
			return true
		}
	}
	return false
}

// dropSubsumedMembers removes any fully static member that another fully
// static member already contains. Mutually subsuming members keep the first.
func (c *Checker) dropSubsumedMembers(members []Type) []Type {
	kept := make([]Type, 0, len(members))
	for i, member := range members {
		subsumed := false
		for j, other := range members {
			if i == j || !c.IsFullyStatic(member) || !c.IsFullyStatic(other) {
				continue
			}
			if !c.staticSubtype(member, other) {
				continue
			}
			if c.staticSubtype(other, member) {
				if j < i {
					subsumed = true
					break
				}
				continue
			}
			subsumed = true
			break
		}
		if !subsumed {
			kept = append(kept, member)
		}
	}
	return kept
}

// conjunct is one factor of an intersection while it is being normalized.
type conjunct struct {
	t       Type
	negated bool
}

// Intersect builds the normalized intersection of members. Nested
// intersections are flattened, object is identity, Never annihilates, unions
// distribute (the result is kept in disjunctive normal form), disjoint
// positives annihilate, positives subsumed by a negative annihilate,
// negatives disjoint from a positive are dropped, and subsumption keeps the
// narrowest positives and widest negatives.
func (c *Checker) Intersect(members ...Type) Type {
	var conjuncts []conjunct
	for _, member := range members {
		if member == nil {
			continue
		}
		if !c.expandConjunct(member, &conjuncts) {
			return Never
		}
	}
	conjuncts = dedupeConjuncts(conjuncts)

	// DNF: distribute over the first union factor and recurse.
	for i, cj := range conjuncts {
		union, ok := cj.t.(UnionType)
		if !ok || cj.negated {
			continue
		}
		alternatives := make([]Type, 0, len(union.Members))
		for _, alt := range union.Members {
			parts := make([]Type, 0, len(conjuncts))
			for j, other := range conjuncts {
				switch {
				case j == i:
					parts = append(parts, alt)
				case other.negated:
					parts = append(parts, IntersectionType{Negative: []Type{other.t}})
				default:
					parts = append(parts, other.t)
				}
			}
			alternatives = append(alternatives, c.Intersect(parts...))
		}
		return c.Union(alternatives...)
	}

	var positives, negatives []Type
	for _, cj := range conjuncts {
		if cj.negated {
			negatives = append(negatives, cj.t)
		} else {
			positives = append(positives, cj.t)
		}
	}

	// Disjoint positives leave no common value.
	for i, p := range positives {
		for _, q := range positives[i+1:] {
			if c.disjoint(p, q) {
				return Never
			}
		}
	}
	// T & ~T and every positive swallowed by a negative.
	for _, p := range positives {
		for _, n := range negatives {
			if c.IsFullyStatic(p) && c.IsFullyStatic(n) && c.staticSubtype(p, n) {
				return Never
			}
		}
	}
	// A negative disjoint from a positive excludes nothing.
	if len(positives) > 0 {
		kept := negatives[:0]
		for _, n := range negatives {
			excluded := false
			for _, p := range positives {
				if c.disjoint(p, n) {
					excluded = true
					break
				}
			}
			if !excluded {
				kept = append(kept, n)
			}
		}
		negatives = kept
	}

	positives = c.keepNarrowest(positives)
	negatives = c.keepWidest(negatives)

	if len(positives) == 0 && len(negatives) == 0 {
		return Object
	}
	if len(positives) == 1 && len(negatives) == 0 {
		return positives[0]
	}
	sortByKey(positives)
	sortByKey(negatives)
	return IntersectionType{Positive: positives, Negative: negatives}
}

// expandConjunct flattens one intersection factor into conjuncts. Returns
// false when the factor annihilates the whole intersection.
func (c *Checker) expandConjunct(t Type, out *[]conjunct) bool {
	switch v := t.(type) {
	case ObjectType:
	case NeverType:
		return false
	case IntersectionType:
		for _, p := range v.Positive {
			if !c.expandConjunct(p, out) {
				return false
			}
		}
		for _, n := range v.Negative {
			switch n.(type) {
			case InstanceType, LiteralType, TupleType, CallableType:
				*out = append(*out, conjunct{t: n, negated: true})
			case NeverType:
				// ~Never = object, identity.
			case ObjectType:
				return false
			default:
				if !c.expandConjunct(c.Negate(n), out) {
					return false
				}
			}
		}
	default:
		*out = append(*out, conjunct{t: t})
	}
	return true
}

func dedupeConjuncts(conjuncts []conjunct) []conjunct {
	seen := make(map[string]bool, len(conjuncts))
	kept := conjuncts[:0]
	for _, cj := range conjuncts {
		key := cj.t.Key()
		if cj.negated {
			key = "!" + key
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, cj)
	}
	return kept
}

// keepNarrowest drops a positive when another positive is already at least
// as narrow.
func (c *Checker) keepNarrowest(positives []Type) []Type {
	kept := make([]Type, 0, len(positives))
	for i, p := range positives {
		redundant := false
		for j, q := range positives {
			if i == j || !c.IsFullyStatic(p) || !c.IsFullyStatic(q) {
				continue
			}
			if !c.staticSubtype(q, p) {
				continue
			}
			if c.staticSubtype(p, q) {
				if j < i {
					redundant = true
					break
				}
				continue
			}
			redundant = true
			break
		}
		if !redundant {
			kept = append(kept, p)
		}
	}
	return kept
}

// keepWidest drops a negative when another negative already excludes at
// least as much.
func (c *Checker) keepWidest(negatives []Type) []Type {
	kept := make([]Type, 0, len(negatives))
	for i, n := range negatives {
		redundant := false
		for j, m := range negatives {
			if i == j || !c.IsFullyStatic(n) || !c.IsFullyStatic(m) {
				continue
			}
			if !c.staticSubtype(n, m) {
				continue
			}
			if c.staticSubtype(m, n) {
				if j < i {
					redundant = true
					break
				}
				continue
			}
			redundant = true
			break
		}
		if !redundant {
			kept = append(kept, n)
		}
	}
	return kept
}

// Negate computes the set complement: ~~T = T, De Morgan over unions and
// intersections, ~Never = object, ~object = Never, and ~Any = Any (negation
// of the dynamic type is still the dynamic type). Negating an atom wraps it
// in a negation-only intersection.
func (c *Checker) Negate(t Type) Type {
	switch v := t.(type) {
	case NeverType:
		return Object
	case ObjectType:
		return Never
	case AnyType:
		return Any
	case UnionType:
		parts := make([]Type, len(v.Members))
		for i, member := range v.Members {
			parts[i] = c.Negate(member)
		}
		return c.Intersect(parts...)
	case IntersectionType:
		parts := make([]Type, 0, len(v.Positive)+len(v.Negative))
		for _, p := range v.Positive {
			parts = append(parts, c.Negate(p))
		}
		// ~~n = n.
		parts = append(parts, v.Negative...)
		return c.Union(parts...)
	default:
		return IntersectionType{Negative: []Type{t}}
	}
}

func dedupeByKey(members []Type) []Type {
	seen := make(map[string]bool, len(members))
	kept := members[:0]
	for _, member := range members {
		key := member.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, member)
	}
	return kept
}

func sortByKey(members []Type) {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Key() < members[j].Key()
	})
}
