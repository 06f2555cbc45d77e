package typeset

import "strings"

// Display renders a type in canonical Python-flavoured syntax. Normalized
// values render deterministically and re-parse to an equivalent value.
func Display(t Type) string {
	return render(t, false)
}

// render walks the structure; operand is true when the rendering appears
// inside a union, intersection, or negation, where callables need
// parentheses to disambiguate.
func render(t Type, operand bool) string {
	switch v := t.(type) {
	case nil:
		return "<nil>"
	case NeverType:
		return "Never"
	case ObjectType:
		return "object"
	case AnyType:
		return "Any"
	case InstanceType:
		if v.Class.Name == "NoneType" {
			return "None"
		}
		return v.Class.Name
	case LiteralType:
		return "Literal[" + v.ValueString() + "]"
	case TupleType:
		if len(v.Elements) == 0 {
			return "tuple[]"
		}
		parts := make([]string, len(v.Elements))
		for i, elem := range v.Elements {
			parts[i] = render(elem, false)
		}
		return "tuple[" + strings.Join(parts, ", ") + "]"
	case CallableType:
		parts := make([]string, len(v.Params))
		for i, param := range v.Params {
			parts[i] = render(param, false)
		}
		rendered := "(" + strings.Join(parts, ", ") + ") -> " + render(v.Result, false)
		if operand {
			return "(" + rendered + ")"
		}
		return rendered
	case UnionType:
		parts := make([]string, len(v.Members))
		for i, member := range v.Members {
			parts[i] = render(member, true)
		}
		return strings.Join(parts, " | ")
	case IntersectionType:
		parts := make([]string, 0, len(v.Positive)+len(v.Negative))
		for _, p := range v.Positive {
			parts = append(parts, render(p, true))
		}
		for _, n := range v.Negative {
			parts = append(parts, "~"+render(n, true))
		}
		return strings.Join(parts, " & ")
	}
	return "<unknown>"
}
