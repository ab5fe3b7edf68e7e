package acl

import (
	"fmt"

	"github.com/seguro-platform/scheduler/pkg/types"
)

// ErrDanglingReference is wrapped into the error returned by Resolve*
// when a client or group references a role or group that does not
// exist in the ACL.
type ErrDanglingReference struct {
	From string
	Kind string // "role" or "group"
	Name string
}

func (e *ErrDanglingReference) Error() string {
	return fmt.Sprintf("%s references unknown %s %q", e.From, e.Kind, e.Name)
}

// ResolveRoles walks a client's direct roles plus the roles of every
// group it belongs to, returning the deduplicated, first-seen-ordered
// list of role names effective for that client. It errors on any
// dangling role or group reference, matching the original's refusal to
// silently skip a misconfigured ACL.
func ResolveRoles(acl types.AccessControlList, clientName string) ([]string, error) {
	client, ok := acl.Clients[clientName]
	if !ok {
		return nil, fmt.Errorf("unknown client %q", clientName)
	}

	var roleNames []string
	seen := make(map[string]bool)
	addRole := func(name string) error {
		if _, ok := acl.Roles[name]; !ok {
			return &ErrDanglingReference{From: clientName, Kind: "role", Name: name}
		}
		if !seen[name] {
			seen[name] = true
			roleNames = append(roleNames, name)
		}
		return nil
	}

	for _, r := range client.Roles {
		if err := addRole(r); err != nil {
			return nil, err
		}
	}
	for _, groupName := range client.Groups {
		group, ok := acl.Groups[groupName]
		if !ok {
			return nil, &ErrDanglingReference{From: clientName, Kind: "group", Name: groupName}
		}
		for _, r := range group.Roles {
			if err := addRole(r); err != nil {
				return nil, err
			}
		}
	}
	return roleNames, nil
}

// ResolveStoreStatements returns the effective, deduplicated list of
// store statements for a client, in role-resolution order.
func ResolveStoreStatements(acl types.AccessControlList, clientName string) ([]types.StoreStatement, error) {
	roleNames, err := ResolveRoles(acl, clientName)
	if err != nil {
		return nil, err
	}
	var out []types.StoreStatement
	for _, roleName := range roleNames {
		role := acl.Roles[roleName]
		for _, st := range role.Store {
			if !containsStoreStatement(out, st) {
				out = append(out, st)
			}
		}
	}
	return out, nil
}

// ResolveBrokerStatements returns the effective, deduplicated list of
// broker statements for a client, in role-resolution order.
func ResolveBrokerStatements(acl types.AccessControlList, clientName string) ([]types.BrokerStatement, error) {
	roleNames, err := ResolveRoles(acl, clientName)
	if err != nil {
		return nil, err
	}
	var out []types.BrokerStatement
	for _, roleName := range roleNames {
		role := acl.Roles[roleName]
		for _, st := range role.Broker {
			if !containsBrokerStatement(out, st) {
				out = append(out, st)
			}
		}
	}
	return out, nil
}
