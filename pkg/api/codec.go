package api

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// CodecName is the Connect codec name for the JSON wire format.
const CodecName = "json"

// jsonCodec encodes the plain Go messages of this package with encoding/json.
// It replaces Connect's built-in "json" codec, which only accepts protobuf
// messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

// WithJSON returns the option that installs the JSON codec on a handler or client.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
