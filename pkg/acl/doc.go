// Package acl implements the access-control-list model: Client, Group,
// and Role documents and the order-deterministic merge that folds many
// catalog entries into one effective AccessControlList.
package acl
