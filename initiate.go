package relaymux

import (
	"log/slog"
	"sync"
)

// Initiate opens outbound sessions for one route key: each Start call
// allocates a fresh nonce, a fresh Service from newService, and runs
// connect on a new session Task.
type Initiate[I, E any] struct {
	key        uint16
	cfg        *Config
	override   *RouteOverride
	newService func() *Service[I, E]
	validate   func(E) bool
	logger     *slog.Logger

	nonceMu sync.Mutex
	nonce   uint16
}

// NewInitiate constructs an Initiate for key, backed by newService.
func NewInitiate[I, E any](key uint16, cfg *Config, newService func() *Service[I, E]) *Initiate[I, E] {
	return &Initiate[I, E]{key: key, cfg: VerifyConfig(cfg), newService: newService, logger: slog.Default()}
}

// WithLogger overrides the Initiate's logger.
func (n *Initiate[I, E]) WithLogger(logger *slog.Logger) *Initiate[I, E] {
	n.logger = logger
	return n
}

// WithValidate installs a boundary validator applied to every decoded
// inbound value before it reaches the Service.
func (n *Initiate[I, E]) WithValidate(fn func(E) bool) *Initiate[I, E] {
	n.validate = fn
	return n
}

// WithOverride installs a per-route deadline override.
func (n *Initiate[I, E]) WithOverride(o *RouteOverride) *Initiate[I, E] {
	n.override = o
	return n
}

// nextNonce allocates the next nonce from this Initiate's 16-bit modular
// counter, skipping 0 (reserved for a session not yet assigned a nonce).
func (n *Initiate[I, E]) nextNonce() uint16 {
	n.nonceMu.Lock()
	defer n.nonceMu.Unlock()
	n.nonce++
	if n.nonce == 0 {
		n.nonce = 1
	}
	return n.nonce
}

// Start opens a new session on its own multiplexed handle of sock (connect
// drops that handle, not sock, when the session ends): it allocates a nonce, builds a
// Service, wires it to the wire via mapServiceHandler, and runs connect on
// a fresh session Task. Returns the session Task and the Service so the
// caller can LoadInternal/TakeExternal — pull/push stay hidden inside the
// wiring.
func (n *Initiate[I, E]) Start(sock Socket) (*Task, *Service[I, E]) {
	nonce := n.nextNonce()
	cfg := n.override.resolve(n.cfg)

	task := NewTask()
	svc := n.newService()
	go func() {
		<-task.Done()
		svc.Drop()
	}()

	pull, push, once := mapServiceHandler(task, svc, cfg.Codec, n.validate, n.logger)
	go connect(task, sock.Multiplex(), n.key, nonce, cfg.AckDeadline, cfg.ServerSilentDeadline, pull, push, once, n.logger)

	return task, svc
}
