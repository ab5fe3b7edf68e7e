package aclsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func entitySet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = Entity{Name: n, Fingerprint: n}
	}
	return s
}

func TestDiffCreateModifyDelete(t *testing.T) {
	current := Set{
		"keep":     {Name: "keep", Fingerprint: "v1"},
		"changing": {Name: "changing", Fingerprint: "v1"},
		"gone":     {Name: "gone", Fingerprint: "v1"},
	}
	desired := Set{
		"keep":     {Name: "keep", Fingerprint: "v1"},
		"changing": {Name: "changing", Fingerprint: "v2"},
		"new":      {Name: "new", Fingerprint: "v1"},
	}

	plan := Diff(current, desired)
	assert.Contains(t, plan.Create, "new")
	assert.Contains(t, plan.Modify, "changing")
	assert.Contains(t, plan.Delete, "gone")
	assert.NotContains(t, plan.Create, "keep")
	assert.NotContains(t, plan.Modify, "keep")
	assert.NotContains(t, plan.Delete, "keep")
}

func TestDiffIsIdempotent(t *testing.T) {
	desired := entitySet("a", "b", "c")
	plan := Diff(desired, desired)
	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Modify)
	assert.Empty(t, plan.Delete)
}

func TestSetAlgebraOperators(t *testing.T) {
	a := entitySet("x", "y")
	b := entitySet("y", "z")

	assert.Equal(t, []string{"x"}, a.NotIn(b).Names())
	assert.Equal(t, []string{"y"}, a.AlsoIn(b).Names())
	assert.Equal(t, []string{"y"}, a.EqualTo(b).Names())
	assert.Equal(t, []string{"x"}, a.BelongingTo([]string{"x", "nonexistent"}).Names())
}
