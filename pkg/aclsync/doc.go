// Package aclsync reconciles a merged AccessControlList against the
// MQTT broker's dynamic-security plugin and the object store's IAM
// policy admin API. Both reconcilers compute a create/modify/delete
// command set via set algebra over the desired and currently-applied
// state, then apply it so that a second run against an unchanged ACL
// issues no commands (idempotence).
package aclsync
