// Package proto defines the admin API's request/response messages and
// its gRPC service descriptor. There is no .proto/protoc step here:
// messages are marshaled with the jsonCodec in codec.go rather than
// the standard protobuf wire codec, since the wire-format descriptors
// protoc would normally generate aren't something this package
// hand-writes. See doc.go.
package proto

import "time"

// JobSummary is one entry in ListJobsResponse.
type JobSummary struct {
	Name         string   `json:"name"`
	TriggerIDs   []string `json:"trigger_ids"`
	ContainerImg string   `json:"container_image"`
}

type ListJobsRequest struct{}

type ListJobsResponse struct {
	Jobs []JobSummary `json:"jobs"`
}

type GetJobRequest struct {
	Name string `json:"name"`
}

type GetJobResponse struct {
	Job      JobSummary `json:"job"`
	SpecYAML string     `json:"spec_yaml"`
}

type TriggerSummary struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Summary string `json:"summary"`
}

type ListTriggersRequest struct {
	JobName string `json:"job_name"`
}

type ListTriggersResponse struct {
	Triggers []TriggerSummary `json:"triggers"`
}

type StreamEventsRequest struct{}

// Event mirrors pkg/events.Event for wire transport.
type Event struct {
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Timestamp time.Time `json:"timestamp"`
}

type TriggerACLReconcileRequest struct{}

type TriggerACLReconcileResponse struct {
	ExitCode int    `json:"exit_code"`
	Summary  string `json:"summary"`
}
