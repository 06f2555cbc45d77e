package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typelab/pkg/registry"
)

func register(t *testing.T, r *registry.Registry, classes ...*registry.Class) {
	t.Helper()
	for _, cls := range classes {
		require.NoError(t, r.Register(cls), "register %s", cls.Name)
	}
}

func TestMRODiamond(t *testing.T) {
	r := registry.New()
	register(t, r,
		&registry.Class{Name: "A"},
		&registry.Class{Name: "B", Bases: []string{"A"}},
		&registry.Class{Name: "C", Bases: []string{"A"}},
		&registry.Class{Name: "D", Bases: []string{"B", "C"}},
	)
	mro, err := r.MRO("D")
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "B", "C", "A", "object"}, mro)
}

func TestMROFallsBackOnInconsistentHierarchy(t *testing.T) {
	r := registry.New()
	register(t, r,
		&registry.Class{Name: "A"},
		&registry.Class{Name: "B"},
		&registry.Class{Name: "X", Bases: []string{"A", "B"}},
		&registry.Class{Name: "Y", Bases: []string{"B", "A"}},
		&registry.Class{Name: "Z", Bases: []string{"X", "Y"}},
	)
	// X and Y order A and B inconsistently, so C3 has no solution and the
	// registry falls back to depth-first order.
	mro, err := r.MRO("Z")
	require.NoError(t, err)
	assert.Equal(t, []string{"Z", "X", "A", "B", "Y", "object"}, mro)
}

func TestMROCycle(t *testing.T) {
	r := registry.New()
	// Bases resolve lazily, so a cycle only surfaces at linearization time.
	register(t, r, &registry.Class{Name: "C", Bases: []string{"D"}})
	register(t, r, &registry.Class{Name: "D", Bases: []string{"C"}})
	_, err := r.MRO("C")
	assert.Error(t, err)
}

func TestMROUnknownClass(t *testing.T) {
	r := registry.New()
	_, err := r.MRO("Ghost")
	assert.ErrorIs(t, err, registry.ErrClassNotFound)
}

func TestRegisterIdempotentAndConflicting(t *testing.T) {
	r := registry.New()
	cls := &registry.Class{Name: "Animal", Bases: []string{"object"}}
	require.NoError(t, r.Register(cls))
	require.NoError(t, r.Register(cls), "identical re-registration must be a no-op")

	conflict := &registry.Class{Name: "Animal", Bases: []string{"object"}, Final: true}
	assert.ErrorIs(t, r.Register(conflict), registry.ErrClassConflict)
}

func TestRegisterDefaultsToObjectBase(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register(&registry.Class{Name: "Animal"}))
	cls, err := r.Lookup("Animal")
	require.NoError(t, err)
	assert.Equal(t, []string{"object"}, cls.Bases)
}

func TestIsSubclass(t *testing.T) {
	r := registry.New()
	register(t, r,
		&registry.Class{Name: "Animal"},
		&registry.Class{Name: "Dog", Bases: []string{"Animal"}},
	)
	assert.True(t, r.IsSubclass("Dog", "Animal"))
	assert.True(t, r.IsSubclass("Dog", "object"))
	assert.True(t, r.IsSubclass("Dog", "Dog"))
	assert.False(t, r.IsSubclass("Animal", "Dog"))
	assert.True(t, r.IsSubclass("bool", "int"))
	assert.False(t, r.IsSubclass("int", "bool"))
}

func TestPromotes(t *testing.T) {
	r := registry.New()
	assert.True(t, r.Promotes("int", "float"))
	assert.True(t, r.Promotes("int", "complex"))
	assert.True(t, r.Promotes("bool", "float"), "bool promotes through int")
	assert.True(t, r.Promotes("bool", "complex"))
	assert.False(t, r.Promotes("float", "int"))
	assert.False(t, r.Promotes("str", "float"))
	assert.False(t, r.Promotes("complex", "float"))
}

func TestSolidBase(t *testing.T) {
	r := registry.New()
	register(t, r,
		&registry.Class{Name: "Animal"},
		&registry.Class{Name: "MyInt", Bases: []string{"int"}},
	)

	base, ok := r.SolidBase("bool")
	require.True(t, ok)
	assert.Equal(t, "int", base)

	base, ok = r.SolidBase("MyInt")
	require.True(t, ok)
	assert.Equal(t, "int", base)

	base, ok = r.SolidBase("Exception")
	require.True(t, ok)
	assert.Equal(t, "BaseException", base)

	_, ok = r.SolidBase("Animal")
	assert.False(t, ok, "plain classes have no layout anchor")
}

func TestSubclasses(t *testing.T) {
	r := registry.New()
	register(t, r,
		&registry.Class{Name: "Animal"},
		&registry.Class{Name: "Dog", Bases: []string{"Animal"}},
		&registry.Class{Name: "Cat", Bases: []string{"Animal"}},
		&registry.Class{Name: "Puppy", Bases: []string{"Dog"}},
	)
	assert.Equal(t, []string{"Cat", "Dog", "Puppy"}, r.Subclasses("Animal"))
	assert.Equal(t, []string{"Puppy"}, r.Subclasses("Dog"))
	assert.Empty(t, r.Subclasses("Puppy"))
}

func TestIsFinal(t *testing.T) {
	r := registry.New()
	assert.True(t, r.IsFinal("bool"))
	assert.True(t, r.IsFinal("NoneType"))
	assert.False(t, r.IsFinal("int"))
	assert.False(t, r.IsFinal("Ghost"))
}
