package registry

// builtinClasses mirrors the shape of the CPython builtins the algebra cares
// about. Solid marks layout-anchored classes: user classes may subclass them,
// but no instance can carry two distinct solid layouts at once. bool extends
// int and is final; NoneType is final with no subclasses.
func builtinClasses() []*Class {
	classes := []*Class{
		{Name: "object"},
		{Name: "int", Bases: []string{"object"}, Solid: true},
		{Name: "bool", Bases: []string{"int"}, Final: true},
		{Name: "float", Bases: []string{"object"}, Solid: true},
		{Name: "complex", Bases: []string{"object"}, Solid: true},
		{Name: "str", Bases: []string{"object"}, Solid: true},
		{Name: "bytes", Bases: []string{"object"}, Solid: true},
		{Name: "bytearray", Bases: []string{"object"}, Solid: true},
		{Name: "NoneType", Bases: []string{"object"}, Final: true},
		{Name: "BaseException", Bases: []string{"object"}, Solid: true},
		{Name: "Exception", Bases: []string{"BaseException"}},
		{Name: "list", Bases: []string{"object"}, Solid: true},
		{Name: "dict", Bases: []string{"object"}, Solid: true},
		{Name: "set", Bases: []string{"object"}, Solid: true},
		{Name: "frozenset", Bases: []string{"object"}, Solid: true},
		{Name: "tuple", Bases: []string{"object"}, Solid: true},
		{Name: "type", Bases: []string{"object"}, Solid: true},
	}
	for _, cls := range classes {
		cls.Module = "builtins"
	}
	return classes
}
