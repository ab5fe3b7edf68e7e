package acl

import (
	"testing"

	"github.com/seguro-platform/scheduler/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestMergeStrings(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []string
		expected []string
	}{
		{"disjoint", []string{"a"}, []string{"b"}, []string{"a", "b"}},
		{"overlap preserves first-seen order", []string{"a", "b"}, []string{"b", "c"}, []string{"a", "b", "c"}},
		{"empty a", nil, []string{"a"}, []string{"a"}},
		{"empty both", nil, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MergeStrings(tt.a, tt.b))
		})
	}
}

func TestMergeClientUnionsGroupsAndRoles(t *testing.T) {
	a := types.Client{Groups: []string{"g1"}, Roles: []string{"r1"}}
	b := types.Client{Groups: []string{"g2"}, Roles: []string{"r1", "r2"}}
	merged := MergeClient(a, b)
	assert.Equal(t, []string{"g1", "g2"}, merged.Groups)
	assert.Equal(t, []string{"r1", "r2"}, merged.Roles)
}

func TestMergeRoleDedupesStatementsByValue(t *testing.T) {
	a := types.Role{Store: []types.StoreStatement{
		{Effect: types.EffectAllow, Actions: []types.StoreAction{types.StoreActionGetObject}, Object: "foo/*"},
	}}
	b := types.Role{Store: []types.StoreStatement{
		{Effect: types.EffectAllow, Actions: []types.StoreAction{types.StoreActionGetObject}, Object: "foo/*"},
		{Effect: types.EffectAllow, Actions: []types.StoreAction{types.StoreActionPutObject}, Object: "foo/*"},
	}}
	merged := MergeRole(a, b)
	assert.Len(t, merged.Store, 2)
}

func TestMergeAllIsOrderDeterministic(t *testing.T) {
	doc1 := types.AccessControlList{
		Clients: map[string]types.Client{"alice": {Roles: []string{"r1"}}},
	}
	doc2 := types.AccessControlList{
		Clients: map[string]types.Client{"alice": {Roles: []string{"r2"}}},
	}
	merged := MergeAll([]types.AccessControlList{doc1, doc2})
	assert.Equal(t, []string{"r1", "r2"}, merged.Clients["alice"].Roles)

	reversed := MergeAll([]types.AccessControlList{doc2, doc1})
	assert.Equal(t, []string{"r2", "r1"}, reversed.Clients["alice"].Roles)
}

func TestResolveRolesWalksGroupsAndDetectsDangling(t *testing.T) {
	acl := types.AccessControlList{
		Clients: map[string]types.Client{
			"alice": {Groups: []string{"ops"}, Roles: []string{"direct"}},
			"bob":   {Groups: []string{"missing-group"}},
		},
		Groups: map[string]types.Group{
			"ops": {Roles: []string{"admin"}},
		},
		Roles: map[string]types.Role{
			"direct": {},
			"admin":  {},
		},
	}

	roles, err := ResolveRoles(acl, "alice")
	assert.NoError(t, err)
	assert.Equal(t, []string{"direct", "admin"}, roles)

	_, err = ResolveRoles(acl, "bob")
	assert.Error(t, err)
}

func TestResolveStoreStatementsDeduped(t *testing.T) {
	stmt := types.StoreStatement{Effect: types.EffectAllow, Actions: []types.StoreAction{types.StoreActionAny}, Object: "data/*"}
	acl := types.AccessControlList{
		Clients: map[string]types.Client{"alice": {Roles: []string{"r1", "r2"}}},
		Roles: map[string]types.Role{
			"r1": {Store: []types.StoreStatement{stmt}},
			"r2": {Store: []types.StoreStatement{stmt}},
		},
	}
	stmts, err := ResolveStoreStatements(acl, "alice")
	assert.NoError(t, err)
	assert.Len(t, stmts, 1)
}
