// Package job implements a single scheduled workload: its trigger
// wiring (store watchers, wall-clock schedules, lifecycle events) and
// the invocation contract — building a JobInfo and handing it to the
// compose backend as an overlay — each time a trigger fires.
package job
