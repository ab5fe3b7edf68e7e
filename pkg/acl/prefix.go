package acl

import "github.com/seguro-platform/scheduler/pkg/types"

// Prefix rewrites every client, group, and role name in doc (and every
// internal reference to one) with "stem-" prepended, so that two
// catalog documents defining the same bare name never collide when
// merged: a role named "reader" in a.yaml and in b.yaml becomes
// "a-reader" and "b-reader" respectively.
func Prefix(doc types.AccessControlList, stem string) types.AccessControlList {
	out := types.AccessControlList{
		Clients: make(map[string]types.Client, len(doc.Clients)),
		Groups:  make(map[string]types.Group, len(doc.Groups)),
		Roles:   make(map[string]types.Role, len(doc.Roles)),
	}
	for name, c := range doc.Clients {
		out.Clients[prefixName(stem, name)] = types.Client{
			Groups: prefixNames(stem, c.Groups),
			Roles:  prefixNames(stem, c.Roles),
		}
	}
	for name, g := range doc.Groups {
		out.Groups[prefixName(stem, name)] = types.Group{
			Roles: prefixNames(stem, g.Roles),
		}
	}
	for name, r := range doc.Roles {
		out.Roles[prefixName(stem, name)] = r
	}
	return out
}

func prefixName(stem, name string) string {
	return stem + "-" + name
}

func prefixNames(stem string, names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = prefixName(stem, n)
	}
	return out
}
