// Package events implements an in-memory pub/sub broker for job
// lifecycle events (created, started, stopped, removed, ACL
// reconciled), consumed by the admin API's StreamEvents RPC.
package events
