// Package scheduler watches the job catalog in the object store and
// keeps a set of in-process job supervisors (pkg/job) in sync with it.
//
// Start subscribes to Created/Modified/Removed events under
// config/jobs/ (replaying existing keys as synthetic Created events),
// and for each event either replaces the named job's definition or
// tears it down. A job's name is derived from its catalog key via
// jobNameFromKey, which slugifies the basename so catalog keys with
// spaces or mixed case map to a stable container/log identifier.
//
// The Scheduler owns no retry or backoff logic of its own: a job
// definition that fails to fetch or parse is logged and dropped,
// leaving the previous (or no) running job in place until the catalog
// object is corrected. A definition that parses but fails to render or
// schedule is also logged and dropped, but the previous job of that
// name has already been stopped and removed by then, so none remains.
package scheduler
