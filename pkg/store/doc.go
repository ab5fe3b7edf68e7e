// Package store wraps an S3-compatible object store (MinIO) with the
// catalog-watching semantics the scheduler and ACL reconciler need: a
// lexicographic initial listing followed by a live bucket-notification
// subscription, exposed as a single interruptible event stream.
package store
