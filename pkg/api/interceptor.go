package api

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ReadOnlyInterceptor rejects every RPC except the read-only
// introspection methods (List*, Get*, and the StreamEvents stream) and
// TriggerACLReconcile, the admin API's one mutating RPC, which is let
// through as the single write exception.
func ReadOnlyInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !isReadOnlyMethod(info.FullMethod) && !strings.HasSuffix(info.FullMethod, "/TriggerACLReconcile") {
			return nil, status.Errorf(
				codes.PermissionDenied,
				"%s is not a read-only method", info.FullMethod,
			)
		}
		return handler(ctx, req)
	}
}

// isReadOnlyMethod reports whether a gRPC method name is read-only.
func isReadOnlyMethod(method string) bool {
	parts := strings.Split(method, "/")
	if len(parts) < 2 {
		return false
	}
	methodName := parts[len(parts)-1]

	readOnlyPrefixes := []string{"List", "Get"}
	for _, prefix := range readOnlyPrefixes {
		if strings.HasPrefix(methodName, prefix) {
			return true
		}
	}

	return methodName == "StreamEvents"
}
