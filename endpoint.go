package relaymux

import "log/slog"

// mapServiceHandler adapts a Service[I,E] into the raw-byte PullFunc/PushFunc
// pair streamLoop/listenLoop drive, via codec. pull encodes each value
// Internal() yields; encode failures are logged and skipped rather than
// terminating the stream. push decodes and validates each inbound payload
// before handing it to External(), silently dropping anything that fails
// either step (decode failure or validation failure) or that arrives
// already marked terminal by the caller. The third return reports whether
// svc is once-shaped, so a caller's listenLoop knows to stop after the
// first delivered message instead of waiting on further ones that will
// never come.
func mapServiceHandler[I, E any](task *Task, svc *Service[I, E], codec Codec, validate func(E) bool, logger *slog.Logger) (PullFunc, PushFunc, bool) {
	pull := func() ([]byte, bool, error) {
		for {
			v, ok, err := svc.Internal(task)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, nil
			}
			b, encErr := codec.Encode(v)
			if encErr != nil {
				logger.Warn("relaymux: encode failed, dropping outbound value", "error", encErr)
				continue
			}
			return b, true, nil
		}
	}

	push := func(payload []byte, err error) {
		if err != nil {
			return
		}
		var v E
		if decErr := codec.Decode(payload, &v); decErr != nil {
			logger.Debug("relaymux: decode failed, dropping frame", "error", decErr)
			return
		}
		if validate != nil && !validate(v) {
			logger.Debug("relaymux: validation failed, dropping frame")
			return
		}
		svc.External(v)
	}

	return pull, push, svc.shape == shapeOnce
}

// Endpoint accepts inbound sessions for one route key: each
// accepted session gets a fresh Service from newService, wired to the wire
// via mapServiceHandler, and torn down when its session Task resolves.
type Endpoint[I, E any] struct {
	key        uint16
	cfg        *Config
	override   *RouteOverride
	newService func() *Service[I, E]
	validate   func(E) bool
	onSession  func(task *Task, svc *Service[I, E])
	logger     *slog.Logger
}

// NewEndpoint constructs an Endpoint for key, backed by newService (typically
// one of the shape constructors in route.go).
func NewEndpoint[I, E any](key uint16, cfg *Config, newService func() *Service[I, E]) *Endpoint[I, E] {
	return &Endpoint[I, E]{key: key, cfg: VerifyConfig(cfg), newService: newService, logger: slog.Default()}
}

// WithLogger overrides the Endpoint's logger.
func (e *Endpoint[I, E]) WithLogger(logger *slog.Logger) *Endpoint[I, E] {
	e.logger = logger
	return e
}

// WithValidate installs a boundary validator applied to every decoded
// inbound value before it reaches the Service.
func (e *Endpoint[I, E]) WithValidate(fn func(E) bool) *Endpoint[I, E] {
	e.validate = fn
	return e
}

// WithOverride installs a per-route deadline override.
func (e *Endpoint[I, E]) WithOverride(o *RouteOverride) *Endpoint[I, E] {
	e.override = o
	return e
}

// WithHandler installs the application callback invoked once per accepted
// session, on its own goroutine, with that session's Task and Service —
// the only way application code reaches a session's Service, since Start
// otherwise keeps Service creation and protocol wiring entirely internal.
// fn should loop on svc.TakeExternal/LoadInternal until task.Done(); a nil
// handler leaves sessions silently accepted and immediately idle (useful
// for liveness-only routes, e.g. a monitored one-way stream).
func (e *Endpoint[I, E]) WithHandler(fn func(task *Task, svc *Service[I, E])) *Endpoint[I, E] {
	e.onSession = fn
	return e
}

// Start resolves a root Task wired to sock.Closed() and begins accepting
// sessions for e.key on sock. Returns the
// root Task; cancelling it stops accepting further sessions (in-flight
// sessions are subtasks and are cancelled transitively).
func (e *Endpoint[I, E]) Start(sock Socket) *Task {
	task := NewTask()
	go func() {
		select {
		case <-sock.Closed():
			task.Cancel("socket closed")
		case <-task.Done():
		}
	}()

	cfg := e.override.resolve(e.cfg)
	createHandle := func(sessionTask *Task) (PullFunc, PushFunc) {
		svc := e.newService()
		go func() {
			<-sessionTask.Done()
			svc.Drop()
		}()
		if e.onSession != nil {
			go e.onSession(sessionTask, svc)
		}
		pull, push, _ := mapServiceHandler(sessionTask, svc, cfg.Codec, e.validate, e.logger)
		return pull, push
	}

	go channel(task, sock, e.key, cfg.AckDeadline, cfg.ClientSilentDeadline, createHandle, e.logger)
	return task
}
