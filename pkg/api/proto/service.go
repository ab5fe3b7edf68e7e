package proto

import (
	"context"

	"google.golang.org/grpc"
)

// AdminServer is the admin/introspection service every scheduler
// instance exposes over mTLS: read-only job/trigger introspection, an
// event stream, and one write RPC to kick off an ACL reconcile.
type AdminServer interface {
	ListJobs(context.Context, *ListJobsRequest) (*ListJobsResponse, error)
	GetJob(context.Context, *GetJobRequest) (*GetJobResponse, error)
	ListTriggers(context.Context, *ListTriggersRequest) (*ListTriggersResponse, error)
	StreamEvents(*StreamEventsRequest, Admin_StreamEventsServer) error
	TriggerACLReconcile(context.Context, *TriggerACLReconcileRequest) (*TriggerACLReconcileResponse, error)
}

// Admin_StreamEventsServer is the server-side stream handle for
// StreamEvents, analogous to a protoc-gen-go-grpc server-streaming
// interface.
type Admin_StreamEventsServer interface {
	Send(*Event) error
	grpc.ServerStream
}

type adminStreamEventsServer struct {
	grpc.ServerStream
}

func (s *adminStreamEventsServer) Send(e *Event) error {
	return s.ServerStream.SendMsg(e)
}

func _Admin_StreamEvents_Handler(srv any, stream grpc.ServerStream) error {
	m := new(StreamEventsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(AdminServer).StreamEvents(m, &adminStreamEventsServer{stream})
}

func _Admin_ListJobs_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListJobsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).ListJobs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/scheduler.Admin/ListJobs"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).ListJobs(ctx, req.(*ListJobsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Admin_GetJob_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetJobRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).GetJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/scheduler.Admin/GetJob"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).GetJob(ctx, req.(*GetJobRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Admin_ListTriggers_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListTriggersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).ListTriggers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/scheduler.Admin/ListTriggers"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).ListTriggers(ctx, req.(*ListTriggersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Admin_TriggerACLReconcile_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(TriggerACLReconcileRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).TriggerACLReconcile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/scheduler.Admin/TriggerACLReconcile"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).TriggerACLReconcile(ctx, req.(*TriggerACLReconcileRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AdminServiceDesc is the grpc.ServiceDesc RegisterAdminServer uses.
var AdminServiceDesc = grpc.ServiceDesc{
	ServiceName: "scheduler.Admin",
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListJobs", Handler: _Admin_ListJobs_Handler},
		{MethodName: "GetJob", Handler: _Admin_GetJob_Handler},
		{MethodName: "ListTriggers", Handler: _Admin_ListTriggers_Handler},
		{MethodName: "TriggerACLReconcile", Handler: _Admin_TriggerACLReconcile_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamEvents", Handler: _Admin_StreamEvents_Handler, ServerStreams: true},
	},
	Metadata: "scheduler/admin.proto",
}

// RegisterAdminServer registers srv with s.
func RegisterAdminServer(s grpc.ServiceRegistrar, srv AdminServer) {
	s.RegisterService(&AdminServiceDesc, srv)
}

// AdminClient is the admin API's client-side surface.
type AdminClient interface {
	ListJobs(ctx context.Context, in *ListJobsRequest, opts ...grpc.CallOption) (*ListJobsResponse, error)
	GetJob(ctx context.Context, in *GetJobRequest, opts ...grpc.CallOption) (*GetJobResponse, error)
	ListTriggers(ctx context.Context, in *ListTriggersRequest, opts ...grpc.CallOption) (*ListTriggersResponse, error)
	StreamEvents(ctx context.Context, in *StreamEventsRequest, opts ...grpc.CallOption) (Admin_StreamEventsClient, error)
	TriggerACLReconcile(ctx context.Context, in *TriggerACLReconcileRequest, opts ...grpc.CallOption) (*TriggerACLReconcileResponse, error)
}

type adminClient struct {
	cc grpc.ClientConnInterface
}

// NewAdminClient wraps a ClientConn as an AdminClient.
func NewAdminClient(cc grpc.ClientConnInterface) AdminClient {
	return &adminClient{cc}
}

func (c *adminClient) ListJobs(ctx context.Context, in *ListJobsRequest, opts ...grpc.CallOption) (*ListJobsResponse, error) {
	out := new(ListJobsResponse)
	if err := c.cc.Invoke(ctx, "/scheduler.Admin/ListJobs", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminClient) GetJob(ctx context.Context, in *GetJobRequest, opts ...grpc.CallOption) (*GetJobResponse, error) {
	out := new(GetJobResponse)
	if err := c.cc.Invoke(ctx, "/scheduler.Admin/GetJob", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminClient) ListTriggers(ctx context.Context, in *ListTriggersRequest, opts ...grpc.CallOption) (*ListTriggersResponse, error) {
	out := new(ListTriggersResponse)
	if err := c.cc.Invoke(ctx, "/scheduler.Admin/ListTriggers", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *adminClient) TriggerACLReconcile(ctx context.Context, in *TriggerACLReconcileRequest, opts ...grpc.CallOption) (*TriggerACLReconcileResponse, error) {
	out := new(TriggerACLReconcileResponse)
	if err := c.cc.Invoke(ctx, "/scheduler.Admin/TriggerACLReconcile", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Admin_StreamEventsClient is the client-side stream handle for
// StreamEvents.
type Admin_StreamEventsClient interface {
	Recv() (*Event, error)
	grpc.ClientStream
}

type adminStreamEventsClient struct {
	grpc.ClientStream
}

func (x *adminStreamEventsClient) Recv() (*Event, error) {
	m := new(Event)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *adminClient) StreamEvents(ctx context.Context, in *StreamEventsRequest, opts ...grpc.CallOption) (Admin_StreamEventsClient, error) {
	stream, err := c.cc.NewStream(ctx, &AdminServiceDesc.Streams[0], "/scheduler.Admin/StreamEvents", opts...)
	if err != nil {
		return nil, err
	}
	x := &adminStreamEventsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
