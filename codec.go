package relaymux

import "encoding/json"

// Codec maps application values to and from wire bytes. A decode error is
// expected to surface as a returned error; the runtime swallows it and
// drops the frame rather than propagating it.
type Codec interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte, out any) error
}

// JSONCodec is the default codec: UTF-8 JSON, grounded on
// webitel-im-delivery-service/internal/handler/marshaller/ws, which
// json.Marshals a tagged struct for WebSocket delivery.
type JSONCodec struct{}

func (JSONCodec) Encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

func (JSONCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

// DefaultCodec is the zero-configuration Codec used when none is supplied.
var DefaultCodec Codec = JSONCodec{}
