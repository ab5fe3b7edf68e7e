// Package api implements the scheduler's admin gRPC surface: read-only
// job/trigger introspection, a lifecycle event stream, and one RPC to
// kick off an ad hoc ACL reconcile. Every RPC is served over mTLS and
// guarded by ReadOnlyInterceptor except TriggerACLReconcile, which is
// the surface's single write path.
package api
