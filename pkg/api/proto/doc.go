// Package proto declares the admin service's messages and its
// grpc.ServiceDesc by hand, in the shape protoc-gen-go and
// protoc-gen-go-grpc would otherwise emit from a .proto file. Wire
// encoding uses a JSON codec (codec.go) rather than the protobuf wire
// format, since there is no protoc invocation in this build to
// produce the descriptor-backed message types the standard codec
// requires.
package proto
