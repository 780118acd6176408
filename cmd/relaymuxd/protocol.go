package main

// echoRouteKey is the stable 16-bit route key the demo server/client agree
// on out of band — for this harness that assignment is just a shared
// constant, the simplest possible agreement.
const echoRouteKey = 0x0001

// echoRequest/echoResponse are the demo's JSON payloads, carried by the
// default codec (codec.go's JSONCodec).
type echoRequest struct {
	Value string `json:"value"`
}

type echoResponse struct {
	Value string `json:"value"`
}
