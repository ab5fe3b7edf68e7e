// Package types defines the catalog and ACL data model shared by the
// scheduler, the compose backend, and the ACL reconciler: JobSpec and
// its Trigger variants, JobInfo/TriggerInfo passed into launched
// containers, and the AccessControlList model merged across documents.
package types
