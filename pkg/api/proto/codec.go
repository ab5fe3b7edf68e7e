package proto

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements encoding.Codec by marshaling messages as JSON
// rather than the protobuf wire format. Registering it under the name
// "proto" (grpc-go's default content-subtype) makes every Admin RPC in
// this process use it without per-call options, since client and
// server are the same binary's own codec registry.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "proto"
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
