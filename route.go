package relaymux

import "sync"

// Router owns the set of stable route keys multiplexed over one Socket and
// coordinates server-side start-up: it rejects duplicate keys
// (ErrDuplicateKey) and routes bound against a different router
// (ErrForeignRouter). It does not check that every server-side route whose
// key was reserved has been bound: Start runs only the routes bound so
// far. Go has no generic methods, so the five typed route
// constructors below are free functions taking *Router rather than methods
// on it.
type Router struct {
	mu      sync.Mutex
	keys    map[uint16]bool
	pending []func(sock Socket) *Task
	started bool
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{keys: make(map[uint16]bool)}
}

func (r *Router) reserveKey(key uint16) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrRouterStarted
	}
	if r.keys[key] {
		return ErrDuplicateKey
	}
	r.keys[key] = true
	return nil
}

func (r *Router) bindServer(start func(sock Socket) *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, start)
}

// Start launches every bound server-side route's Endpoint.Start against
// sock, one accept loop per route key, all broadcasting from the same
// VirtualSocket. Returns each route's root Task in registration order. A
// second call is a no-op returning nil (ErrRouterStarted from reserveKey
// prevents registering further routes first).
func (r *Router) Start(sock Socket) []*Task {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	starters := r.pending
	r.mu.Unlock()

	tasks := make([]*Task, 0, len(starters))
	for _, start := range starters {
		tasks = append(tasks, start(sock))
	}
	return tasks
}

// Route is the one-shot binding handle shared by the five server-side route
// constructors: a given Route object cannot be bound twice.
// Client-side (Send*) constructors skip this ceremony: an Initiate is
// reusable across many Start calls, one per outbound session, so there is
// no single "bind" moment to guard.
type Route struct {
	router *Router
	mu     sync.Mutex
	bound  bool
	start  func(sock Socket) *Task
}

// Bind registers this route's accept loop with r, to run once r.Start is
// called. Fails if already bound to any router, or if r is not the router
// this route's key was reserved against.
func (route *Route) Bind(r *Router) error {
	route.mu.Lock()
	defer route.mu.Unlock()
	if route.bound {
		return ErrRouteAlreadyBound
	}
	if route.router != r {
		return ErrForeignRouter
	}
	route.bound = true
	r.bindServer(route.start)
	return nil
}

// SendRecv / RecvSend — unary request/reply, once shape.
func SendRecv[I, E any](r *Router, key uint16, cfg *Config) (*Initiate[I, E], error) {
	if err := r.reserveKey(key); err != nil {
		return nil, err
	}
	return NewInitiate[I, E](key, cfg, func() *Service[I, E] { return NewOnceService[I, E]() }), nil
}

func RecvSend[I, E any](r *Router, key uint16, cfg *Config) (*Endpoint[I, E], *Route, error) {
	if err := r.reserveKey(key); err != nil {
		return nil, nil, err
	}
	ep := NewEndpoint[I, E](key, cfg, func() *Service[I, E] { return NewOnceService[I, E]() })
	route := &Route{router: r, start: func(sock Socket) *Task { return ep.Start(sock) }}
	return ep, route, nil
}

// SendChannel / RecvChannel — sequenced request/reply pairs, many shape with
// equal in/out capacity n.
func SendChannel[I, E any](r *Router, key uint16, cfg *Config, n int) (*Initiate[I, E], error) {
	if err := r.reserveKey(key); err != nil {
		return nil, err
	}
	return NewInitiate[I, E](key, cfg, func() *Service[I, E] { return NewManyService[I, E](n, n) }), nil
}

func RecvChannel[I, E any](r *Router, key uint16, cfg *Config, n int) (*Endpoint[I, E], *Route, error) {
	if err := r.reserveKey(key); err != nil {
		return nil, nil, err
	}
	ep := NewEndpoint[I, E](key, cfg, func() *Service[I, E] { return NewManyService[I, E](n, n) })
	route := &Route{router: r, start: func(sock Socket) *Task { return ep.Start(sock) }}
	return ep, route, nil
}

// SendStream / RecvStream — one-way, no reply: the sender's
// external (reply) queue and the receiver's internal (outbound) queue are
// both size 0.
func SendStream[I, E any](r *Router, key uint16, cfg *Config, capacity int) (*Initiate[I, E], error) {
	if err := r.reserveKey(key); err != nil {
		return nil, err
	}
	return NewInitiate[I, E](key, cfg, func() *Service[I, E] { return NewManyService[I, E](capacity, 0) }), nil
}

func RecvStream[I, E any](r *Router, key uint16, cfg *Config, capacity int) (*Endpoint[I, E], *Route, error) {
	if err := r.reserveKey(key); err != nil {
		return nil, nil, err
	}
	ep := NewEndpoint[I, E](key, cfg, func() *Service[I, E] { return NewManyService[I, E](0, capacity) })
	route := &Route{router: r, start: func(sock Socket) *Task { return ep.Start(sock) }}
	return ep, route, nil
}

// SendListen / RecvListen — one input, many outputs: the
// sender's internal (request) queue is capacity 1, its external (reply
// stream) queue is buffer; the receiver mirrors this.
func SendListen[I, E any](r *Router, key uint16, cfg *Config, buffer int) (*Initiate[I, E], error) {
	if err := r.reserveKey(key); err != nil {
		return nil, err
	}
	return NewInitiate[I, E](key, cfg, func() *Service[I, E] { return NewManyService[I, E](1, buffer) }), nil
}

func RecvListen[I, E any](r *Router, key uint16, cfg *Config, buffer int) (*Endpoint[I, E], *Route, error) {
	if err := r.reserveKey(key); err != nil {
		return nil, nil, err
	}
	ep := NewEndpoint[I, E](key, cfg, func() *Service[I, E] { return NewManyService[I, E](buffer, 1) })
	route := &Route{router: r, start: func(sock Socket) *Task { return ep.Start(sock) }}
	return ep, route, nil
}

// SendDuplex / RecvDuplex — independent bidirectional streams with
// capacities {send, recv}; the receiver's queues mirror the
// sender's, swapped.
func SendDuplex[I, E any](r *Router, key uint16, cfg *Config, send, recv int) (*Initiate[I, E], error) {
	if err := r.reserveKey(key); err != nil {
		return nil, err
	}
	return NewInitiate[I, E](key, cfg, func() *Service[I, E] { return NewManyService[I, E](send, recv) }), nil
}

func RecvDuplex[I, E any](r *Router, key uint16, cfg *Config, send, recv int) (*Endpoint[I, E], *Route, error) {
	if err := r.reserveKey(key); err != nil {
		return nil, nil, err
	}
	ep := NewEndpoint[I, E](key, cfg, func() *Service[I, E] { return NewManyService[I, E](recv, send) })
	route := &Route{router: r, start: func(sock Socket) *Task { return ep.Start(sock) }}
	return ep, route, nil
}
