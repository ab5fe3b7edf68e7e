package aclsync

import "sort"

// Entity is anything reconcilable by name with a value comparable for
// equality: a broker client, group, or role, or a store policy.
type Entity struct {
	Name string
	// Fingerprint is a canonical string representation of the entity's
	// content; two entities with the same Name are considered equal
	// when their Fingerprints match.
	Fingerprint string
}

// Set is a named collection of entities keyed by name.
type Set map[string]Entity

// NotIn returns the entities in s whose name is absent from other
// entirely — present in s, gone from other.
func (s Set) NotIn(other Set) Set {
	out := make(Set)
	for name, e := range s {
		if _, ok := other[name]; !ok {
			out[name] = e
		}
	}
	return out
}

// AlsoIn returns the entities in s whose name is also present in
// other, regardless of whether the content matches.
func (s Set) AlsoIn(other Set) Set {
	out := make(Set)
	for name, e := range s {
		if _, ok := other[name]; ok {
			out[name] = e
		}
	}
	return out
}

// EqualTo returns the subset of s that is present in other with an
// identical fingerprint — i.e. genuinely unchanged.
func (s Set) EqualTo(other Set) Set {
	out := make(Set)
	for name, e := range s {
		if o, ok := other[name]; ok && o.Fingerprint == e.Fingerprint {
			out[name] = e
		}
	}
	return out
}

// BelongingTo filters s to the entities whose name appears in names.
func (s Set) BelongingTo(names []string) Set {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := make(Set)
	for name, e := range s {
		if want[name] {
			out[name] = e
		}
	}
	return out
}

// Names returns the sorted entity names in s. Reconciliation plans are
// built from these, never from map iteration order, so command
// ordering stays deterministic across runs.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Plan is the outcome of diffing a desired Set against the currently
// applied Set: which entities to create, modify in place, and delete.
type Plan struct {
	Create Set
	Modify Set
	Delete Set
}

// Diff computes the create/modify/delete plan to move current to
// desired. Running Diff again with desired as both current and desired
// yields an empty Plan — the idempotence invariant.
func Diff(current, desired Set) Plan {
	unchanged := desired.EqualTo(current)
	modify := make(Set)
	for name, e := range desired.AlsoIn(current) {
		if _, ok := unchanged[name]; !ok {
			modify[name] = e
		}
	}
	return Plan{
		Create: desired.NotIn(current),
		Modify: modify,
		Delete: current.NotIn(desired),
	}
}
