package relaymux

import "time"

// Config carries the protocol's tunable deadlines and default codec.
// Grounded on smux's own Config/DefaultConfig/VerifyConfig pattern
// (session.go's config *Config field, config.Version,
// config.MaxReceiveBuffer).
type Config struct {
	// AckDeadline bounds how long a sender waits for a MSG's ACK before
	// cancelling the session (default 5s).
	AckDeadline time.Duration
	// ClientSilentDeadline bounds the responder's tolerance for inter-MSG
	// silence before declaring the session dead (default 30s).
	ClientSilentDeadline time.Duration
	// ServerSilentDeadline is the symmetric deadline observed by the
	// initiator (default 30s).
	ServerSilentDeadline time.Duration
	// Codec overrides DefaultCodec.
	Codec Codec
}

// DefaultConfig returns the default deadlines and the JSON
// codec.
func DefaultConfig() *Config {
	return &Config{
		AckDeadline:          5 * time.Second,
		ClientSilentDeadline: 30 * time.Second,
		ServerSilentDeadline: 30 * time.Second,
		Codec:                DefaultCodec,
	}
}

// VerifyConfig replaces zero or negative deadlines and a nil Codec with
// the defaults, mirroring smux's VerifyConfig(*Config) gate before a
// Session is constructed.
func VerifyConfig(c *Config) *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.AckDeadline <= 0 {
		out.AckDeadline = d.AckDeadline
	}
	if out.ClientSilentDeadline <= 0 {
		out.ClientSilentDeadline = d.ClientSilentDeadline
	}
	if out.ServerSilentDeadline <= 0 {
		out.ServerSilentDeadline = d.ServerSilentDeadline
	}
	if out.Codec == nil {
		out.Codec = d.Codec
	}
	return &out
}

// RouteOverride allows a single route to override the session-wide
// deadlines.
type RouteOverride struct {
	AckDeadline          time.Duration
	ClientSilentDeadline time.Duration
	ServerSilentDeadline time.Duration
}

// resolve merges a possibly-partial RouteOverride over the base Config.
func (o *RouteOverride) resolve(base *Config) *Config {
	if o == nil {
		return base
	}
	out := *base
	if o.AckDeadline > 0 {
		out.AckDeadline = o.AckDeadline
	}
	if o.ClientSilentDeadline > 0 {
		out.ClientSilentDeadline = o.ClientSilentDeadline
	}
	if o.ServerSilentDeadline > 0 {
		out.ServerSilentDeadline = o.ServerSilentDeadline
	}
	return &out
}
