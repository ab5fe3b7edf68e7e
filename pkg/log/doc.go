// Package log provides structured logging via zerolog, with
// component-scoped child loggers (WithComponent, WithJobName) used
// across the scheduler, compose backend, and ACL reconciler.
package log
