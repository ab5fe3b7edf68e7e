package acl

import "github.com/seguro-platform/scheduler/pkg/types"

// MergeStrings unions two string lists, preserving the order elements
// were first seen across a then b and dropping duplicates.
func MergeStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// MergeClient unions two Client entries' group and role references.
func MergeClient(a, b types.Client) types.Client {
	return types.Client{
		Groups: MergeStrings(a.Groups, b.Groups),
		Roles:  MergeStrings(a.Roles, b.Roles),
	}
}

// MergeGroup unions two Group entries' role references.
func MergeGroup(a, b types.Group) types.Group {
	return types.Group{Roles: MergeStrings(a.Roles, b.Roles)}
}

// MergeRole unions two Role entries' broker and store statement lists,
// deduplicating by value and preserving first-seen order.
func MergeRole(a, b types.Role) types.Role {
	return types.Role{
		Broker: mergeBrokerStatements(a.Broker, b.Broker),
		Store:  mergeStoreStatements(a.Store, b.Store),
	}
}

func mergeBrokerStatements(a, b []types.BrokerStatement) []types.BrokerStatement {
	out := make([]types.BrokerStatement, 0, len(a)+len(b))
	for _, s := range append(append([]types.BrokerStatement{}, a...), b...) {
		if !containsBrokerStatement(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func containsBrokerStatement(list []types.BrokerStatement, s types.BrokerStatement) bool {
	for _, existing := range list {
		if statementEqual(existing, s) {
			return true
		}
	}
	return false
}

func statementEqual(a, b types.BrokerStatement) bool {
	if a.Effect != b.Effect || a.Topic != b.Topic || a.Priority != b.Priority {
		return false
	}
	if len(a.Actions) != len(b.Actions) {
		return false
	}
	for i := range a.Actions {
		if a.Actions[i] != b.Actions[i] {
			return false
		}
	}
	return true
}

func mergeStoreStatements(a, b []types.StoreStatement) []types.StoreStatement {
	out := make([]types.StoreStatement, 0, len(a)+len(b))
	for _, s := range append(append([]types.StoreStatement{}, a...), b...) {
		if !containsStoreStatement(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func containsStoreStatement(list []types.StoreStatement, s types.StoreStatement) bool {
	for _, existing := range list {
		if storeStatementEqual(existing, s) {
			return true
		}
	}
	return false
}

func storeStatementEqual(a, b types.StoreStatement) bool {
	if a.Effect != b.Effect || a.Object != b.Object {
		return false
	}
	if len(a.Actions) != len(b.Actions) || len(a.Condition) != len(b.Condition) {
		return false
	}
	for i := range a.Actions {
		if a.Actions[i] != b.Actions[i] {
			return false
		}
	}
	for k, v := range a.Condition {
		if b.Condition[k] != v {
			return false
		}
	}
	return true
}

// Merge folds other into a, producing a new AccessControlList. Merging
// is order-deterministic: entities present in both are merged via their
// own Merge* function; entities present in only one pass through
// unchanged. Callers fold a sorted-by-name list of documents through
// Merge to get a reproducible effective ACL (spec invariant: "ACL
// merging is order-deterministic by object key").
func Merge(a, b types.AccessControlList) types.AccessControlList {
	out := types.AccessControlList{
		Clients: make(map[string]types.Client, len(a.Clients)+len(b.Clients)),
		Groups:  make(map[string]types.Group, len(a.Groups)+len(b.Groups)),
		Roles:   make(map[string]types.Role, len(a.Roles)+len(b.Roles)),
	}
	for name, c := range a.Clients {
		out.Clients[name] = c
	}
	for name, c := range b.Clients {
		if existing, ok := out.Clients[name]; ok {
			out.Clients[name] = MergeClient(existing, c)
		} else {
			out.Clients[name] = c
		}
	}
	for name, g := range a.Groups {
		out.Groups[name] = g
	}
	for name, g := range b.Groups {
		if existing, ok := out.Groups[name]; ok {
			out.Groups[name] = MergeGroup(existing, g)
		} else {
			out.Groups[name] = g
		}
	}
	for name, r := range a.Roles {
		out.Roles[name] = r
	}
	for name, r := range b.Roles {
		if existing, ok := out.Roles[name]; ok {
			out.Roles[name] = MergeRole(existing, r)
		} else {
			out.Roles[name] = r
		}
	}
	return out
}

// MergeAll folds a slice of AccessControlList documents, in the order
// given, into one effective list. Callers are responsible for sorting
// the input by document key first, per the determinism invariant.
func MergeAll(docs []types.AccessControlList) types.AccessControlList {
	out := types.AccessControlList{
		Clients: map[string]types.Client{},
		Groups:  map[string]types.Group{},
		Roles:   map[string]types.Role{},
	}
	for _, d := range docs {
		out = Merge(out, d)
	}
	return out
}
