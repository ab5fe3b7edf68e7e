package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"gopkg.in/yaml.v3"

	"github.com/seguro-platform/scheduler/pkg/aclsync"
	adminproto "github.com/seguro-platform/scheduler/pkg/api/proto"
	"github.com/seguro-platform/scheduler/pkg/events"
	"github.com/seguro-platform/scheduler/pkg/log"
	"github.com/seguro-platform/scheduler/pkg/scheduler"
	"github.com/seguro-platform/scheduler/pkg/security"
	"github.com/seguro-platform/scheduler/pkg/store"
	"github.com/seguro-platform/scheduler/pkg/types"
)

// Reconcilers bundles the two ACL reconcile halves the TriggerACLReconcile
// RPC drives, plus what it needs to load the catalog.
type Reconcilers struct {
	Store          *store.Client
	Broker         *aclsync.BrokerReconciler
	StoreRec       *aclsync.StoreReconciler
	CatalogPrefix  string
	IgnoredClients []string
}

// Server implements adminproto.AdminServer: a read-mostly introspection
// surface over a live Scheduler, backed by its events.Broker for
// StreamEvents.
type Server struct {
	sched  *scheduler.Scheduler
	broker *events.Broker
	recon  Reconcilers

	grpc *grpc.Server
}

// NewServer builds an mTLS-secured admin API server.
func NewServer(sched *scheduler.Scheduler, broker *events.Broker, recon Reconcilers, certFile, keyFile, caFile string) (*Server, error) {
	cert, err := security.LoadClientCertificate(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("loading admin API certificate: %w", err)
	}
	caPool, err := security.LoadCACertPool(caFile)
	if err != nil {
		return nil, fmt.Errorf("loading admin API CA pool: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{*cert},
		ClientCAs:    caPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
	}

	s := &Server{
		sched:  sched,
		broker: broker,
		recon:  recon,
		grpc:   grpc.NewServer(grpc.Creds(credentials.NewTLS(tlsConfig)), grpc.UnaryInterceptor(ReadOnlyInterceptor())),
	}
	adminproto.RegisterAdminServer(s.grpc, s)
	return s, nil
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	log.WithComponent("api").Info().Str("addr", addr).Msg("admin API listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the gRPC server.
func (s *Server) Stop() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

// ListJobs returns every live job name with its trigger ids.
func (s *Server) ListJobs(ctx context.Context, _ *adminproto.ListJobsRequest) (*adminproto.ListJobsResponse, error) {
	names := s.sched.Jobs()
	out := &adminproto.ListJobsResponse{Jobs: make([]adminproto.JobSummary, 0, len(names))}
	for _, name := range names {
		j, ok := s.sched.GetJob(name)
		if !ok {
			continue
		}
		spec := j.Spec()
		out.Jobs = append(out.Jobs, adminproto.JobSummary{
			Name:         name,
			TriggerIDs:   triggerIDs(spec),
			ContainerImg: spec.Container.Image,
		})
	}
	return out, nil
}

// GetJob returns one job's full catalog entry, re-rendered as YAML.
func (s *Server) GetJob(ctx context.Context, req *adminproto.GetJobRequest) (*adminproto.GetJobResponse, error) {
	j, ok := s.sched.GetJob(req.Name)
	if !ok {
		return nil, fmt.Errorf("job %q not found", req.Name)
	}
	spec := j.Spec()
	data, err := yaml.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("rendering job spec: %w", err)
	}
	return &adminproto.GetJobResponse{
		Job: adminproto.JobSummary{
			Name:         req.Name,
			TriggerIDs:   triggerIDs(spec),
			ContainerImg: spec.Container.Image,
		},
		SpecYAML: string(data),
	}, nil
}

// ListTriggers returns every trigger declared on one job.
func (s *Server) ListTriggers(ctx context.Context, req *adminproto.ListTriggersRequest) (*adminproto.ListTriggersResponse, error) {
	j, ok := s.sched.GetJob(req.JobName)
	if !ok {
		return nil, fmt.Errorf("job %q not found", req.JobName)
	}
	spec := j.Spec()
	out := &adminproto.ListTriggersResponse{}
	for id, t := range spec.Triggers {
		out.Triggers = append(out.Triggers, adminproto.TriggerSummary{
			ID:      id,
			Kind:    string(t.Kind),
			Summary: triggerSummary(t),
		})
	}
	return out, nil
}

// StreamEvents forwards every lifecycle event published on the
// scheduler's broker until the client disconnects.
func (s *Server) StreamEvents(_ *adminproto.StreamEventsRequest, stream adminproto.Admin_StreamEventsServer) error {
	sub := s.broker.Subscribe()
	defer s.broker.Unsubscribe(sub)

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-sub:
			if !ok {
				return nil
			}
			if err := stream.Send(&adminproto.Event{
				Type:      evt.Type,
				Subject:   evt.Subject,
				Timestamp: evt.Timestamp,
			}); err != nil {
				return err
			}
		}
	}
}

// TriggerACLReconcile runs one ACL reconcile pass against the broker
// and the object store, returning the same bitmask exit code the
// acl-syncer CLI would.
func (s *Server) TriggerACLReconcile(ctx context.Context, _ *adminproto.TriggerACLReconcileRequest) (*adminproto.TriggerACLReconcileResponse, error) {
	code := aclsync.RunOnce(ctx, s.recon.Store, s.recon.Broker, s.recon.StoreRec, s.recon.CatalogPrefix, s.recon.IgnoredClients)
	s.broker.Publish(string(types.EventACLReconciled), fmt.Sprintf("exit_code=%d", code))

	summary := "converged"
	switch code {
	case aclsync.ExitBrokerFailed:
		summary = "broker reconcile failed"
	case aclsync.ExitStoreFailed:
		summary = "store reconcile failed"
	case aclsync.ExitBrokerFailed | aclsync.ExitStoreFailed:
		summary = "broker and store reconcile failed"
	}
	return &adminproto.TriggerACLReconcileResponse{ExitCode: code, Summary: summary}, nil
}

// triggerIDs returns a job spec's trigger ids in no particular order.
func triggerIDs(spec types.JobSpec) []string {
	ids := make([]string, 0, len(spec.Triggers))
	for id := range spec.Triggers {
		ids = append(ids, id)
	}
	return ids
}

// triggerSummary renders a one-line human description of a trigger,
// dispatching on its tagged Kind.
func triggerSummary(t types.Trigger) string {
	switch t.Kind {
	case types.TriggerKindStore:
		if t.Store == nil {
			return "store trigger"
		}
		return fmt.Sprintf("store %s under %s", t.Store.Type, t.Store.Prefix)
	case types.TriggerKindSchedule:
		if t.Schedule == nil {
			return "schedule trigger"
		}
		return fmt.Sprintf("every %d %s", t.Schedule.Interval, t.Schedule.Unit)
	case types.TriggerKindEvent:
		if t.Event == nil {
			return "event trigger"
		}
		return fmt.Sprintf("on %s", t.Event.Type)
	default:
		return string(t.Kind)
	}
}
