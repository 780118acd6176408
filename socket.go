package relaymux

import (
	"errors"
	"log/slog"
	"sync"
)

// errTaskCancelledRecv is the literal rejection surfaced by Recv when its
// Task is cancelled mid-wait.
var errTaskCancelledRecv = errors.New("Task cancelled")

// defaultInboxBacklog bounds each multiplex handle's backlog of frames
// nobody is currently waiting on. The outbox's buffering capacity before
// a transport sink connects is configured per-VirtualSocket
// (defaultOutboxCapacity below).
const (
	defaultInboxBacklog   = 256
	defaultOutboxCapacity = 256
)

// Socket is the transport-facing boundary abstraction. Concrete transports
// (WebSocket, TCP, in-memory) are expected to produce one of these per
// connection; VirtualSocket is the only implementation relaymux provides
// directly.
type Socket interface {
	// Send enqueues bytes for transmission; it never blocks the caller.
	Send(b []byte)
	// Recv awaits the next inbound frame for which pred returns true,
	// cancellable by task. Multiple Recv calls may be outstanding
	// concurrently on the same handle (the responder's stream and listen
	// loops share one session handle); each incoming frame is
	// tried, in registration order, against pending predicates.
	Recv(task *Task, pred func([]byte) bool) ([]byte, error)
	// Multiplex returns a sibling handle sharing the outbox but with its
	// own inbox receiving a copy of every inbound frame.
	Multiplex() Socket
	// Drop releases this handle's inbox; if it was the last live handle,
	// the outbox is dropped too and Closed resolves.
	Drop()
	// Closed resolves when this handle (or its last surviving sibling) is
	// dropped.
	Closed() <-chan struct{}
}

// recvWaiter is one outstanding predicate-filtered Recv call.
type recvWaiter struct {
	pred   func([]byte) bool
	result chan recvResult
}

type recvResult struct {
	value     []byte
	dropped   bool
	cancelled bool
}

// inbox is a predicate-dispatch mailbox: incoming frames are matched, in
// FIFO waiter-registration order, against every pending Recv predicate;
// a frame nobody currently wants is buffered for a future Recv to claim.
// This is the generalization of smux's single-stream pushBytes/
// notifyReadEvent fan-out (session.go recvLoop cmdPSH) to many concurrent,
// differently-filtered consumers sharing one handle.
type inbox struct {
	mu      sync.Mutex
	backlog [][]byte
	waiters []*recvWaiter
	dropped bool
}

func newInbox() *inbox {
	return &inbox{}
}

// deliver tries frame against pending waiters (first match wins, removed
// from the waiter list); if none match, frame is appended to the backlog,
// dropping the oldest entry with a warning if the backlog is full.
func (b *inbox) deliver(frame []byte, logger *slog.Logger) {
	b.mu.Lock()
	if b.dropped {
		b.mu.Unlock()
		return
	}
	for i, w := range b.waiters {
		if w.pred(frame) {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			b.mu.Unlock()
			w.result <- recvResult{value: frame}
			return
		}
	}
	if len(b.backlog) >= defaultInboxBacklog {
		b.backlog = b.backlog[1:]
		logger.Warn("relaymux: inbox backlog full, dropping oldest unclaimed frame")
	}
	b.backlog = append(b.backlog, frame)
	b.mu.Unlock()
}

// recv scans the backlog for an immediate match, else registers a waiter.
// It returns either a ready channel (backlog hit or already dropped) or a
// live waiter plus its channel.
func (b *inbox) recv(pred func([]byte) bool) (w *recvWaiter, ch chan recvResult) {
	b.mu.Lock()
	for i, f := range b.backlog {
		if pred(f) {
			b.backlog = append(b.backlog[:i], b.backlog[i+1:]...)
			b.mu.Unlock()
			done := make(chan recvResult, 1)
			done <- recvResult{value: f}
			return nil, done
		}
	}
	if b.dropped {
		b.mu.Unlock()
		done := make(chan recvResult, 1)
		done <- recvResult{dropped: true}
		return nil, done
	}
	w = &recvWaiter{pred: pred, result: make(chan recvResult, 1)}
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()
	return w, w.result
}

// cancel unregisters w if still pending. Returns false if a concurrent
// deliver already claimed it (the caller must then read the already-sent
// result rather than discard it).
func (b *inbox) cancel(w *recvWaiter) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ww := range b.waiters {
		if ww == w {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// drop marks the inbox terminal and rejects every pending waiter.
func (b *inbox) drop() {
	b.mu.Lock()
	if b.dropped {
		b.mu.Unlock()
		return
	}
	b.dropped = true
	waiters := b.waiters
	b.waiters = nil
	b.mu.Unlock()
	for _, w := range waiters {
		w.result <- recvResult{dropped: true}
	}
}

// vsocketCore is the shared state behind a family of VirtualSocket
// multiplex siblings: one outbox, N inboxes. Grounded on smux's
// streams map[uint32]*stream + streamLock fan-out in session.go's
// recvLoop, generalized from per-stream-id routing to per-handle
// broadcast routing.
type vsocketCore struct {
	mu      sync.Mutex
	outbox  *ConnectableQueue[[]byte]
	inboxes map[*VirtualSocket]*inbox
	logger  *slog.Logger
}

// VirtualSocket multiplexes one underlying transport connection into many
// logical consumer handles. NewVirtualSocket returns the
// first handle; call Multiplex for additional siblings.
type VirtualSocket struct {
	core      *vsocketCore
	inbox     *inbox
	closed    chan struct{}
	closeOnce sync.Once
}

// NewVirtualSocket constructs a fresh VirtualSocket family and returns its
// first handle. logger may be nil (defaults to slog.Default()).
func NewVirtualSocket(logger *slog.Logger) *VirtualSocket {
	if logger == nil {
		logger = slog.Default()
	}
	core := &vsocketCore{
		outbox:  NewConnectableQueue[[]byte](defaultOutboxCapacity),
		inboxes: make(map[*VirtualSocket]*inbox),
		logger:  logger,
	}
	return newVsocketHandle(core)
}

func newVsocketHandle(core *vsocketCore) *VirtualSocket {
	v := &VirtualSocket{
		core:   core,
		inbox:  newInbox(),
		closed: make(chan struct{}),
	}
	core.mu.Lock()
	core.inboxes[v] = v.inbox
	core.mu.Unlock()
	return v
}

// Deliver pushes inbound bytes into every live inbox (broadcast fan-out).
// Transport adapters call this once per inbound binary frame.
func (v *VirtualSocket) Deliver(b []byte) {
	v.core.mu.Lock()
	boxes := make([]*inbox, 0, len(v.core.inboxes))
	for _, ib := range v.core.inboxes {
		boxes = append(boxes, ib)
	}
	v.core.mu.Unlock()

	for _, ib := range boxes {
		ib.deliver(b, v.core.logger)
	}
}

// ConnectOutbox wires the outbox's push-through sink (the transport
// adapter's send function). Buffered bytes drain in FIFO order.
func (v *VirtualSocket) ConnectOutbox(sink func([]byte)) error {
	return v.core.outbox.ConnectPush(sink)
}

// Send enqueues bytes for transmission; never blocks the caller.
func (v *VirtualSocket) Send(b []byte) {
	if ok, err := v.core.outbox.Push(b); !ok && err == nil {
		v.core.logger.Warn("relaymux: outbox full, dropping outbound frame")
	}
}

// Recv awaits the next inbound frame matching pred, cancellable by task.
// Frames that don't match any currently-pending predicate are buffered,
// not discarded, so a later Recv (by this or another concurrent caller on
// the same handle) can still claim them: a mismatched frame is skipped
// from one predicate's point of view, not lost from the handle.
func (v *VirtualSocket) Recv(task *Task, pred func([]byte) bool) ([]byte, error) {
	w, ch := v.inbox.recv(pred)
	if w == nil {
		r := <-ch
		if r.dropped {
			return nil, ErrSocketDropped
		}
		return r.value, nil
	}

	select {
	case r := <-ch:
		if r.dropped {
			return nil, ErrSocketDropped
		}
		return r.value, nil
	case <-task.Done():
		if v.inbox.cancel(w) {
			return nil, errTaskCancelledRecv
		}
		r := <-ch
		if r.dropped {
			return nil, ErrSocketDropped
		}
		return r.value, nil
	case <-v.closed:
		if v.inbox.cancel(w) {
			return nil, ErrSocketDropped
		}
		r := <-ch
		if r.dropped {
			return nil, ErrSocketDropped
		}
		return r.value, nil
	}
}

// Multiplex returns a sibling handle sharing the outbox but with its own
// inbox, atomically registered so no inbound frame is missed between
// registration and the first Recv.
func (v *VirtualSocket) Multiplex() Socket {
	return newVsocketHandle(v.core)
}

// Drop releases this handle's inbox. If no inboxes remain, the outbox is
// dropped too (cascade-drop) and every handle's Closed resolves.
func (v *VirtualSocket) Drop() {
	v.closeOnce.Do(func() {
		v.core.mu.Lock()
		delete(v.core.inboxes, v)
		remaining := len(v.core.inboxes)
		v.core.mu.Unlock()

		v.inbox.drop()
		close(v.closed)

		if remaining == 0 {
			v.core.outbox.Drop()
		}
	})
}

// DropAll drops every inbox and the outbox simultaneously — used by a
// transport adapter when the underlying connection closes.
func (v *VirtualSocket) DropAll() {
	v.core.mu.Lock()
	handles := make([]*VirtualSocket, 0, len(v.core.inboxes))
	for h := range v.core.inboxes {
		handles = append(handles, h)
	}
	v.core.mu.Unlock()

	for _, h := range handles {
		h.Drop()
	}
}

// Closed resolves when this handle is dropped.
func (v *VirtualSocket) Closed() <-chan struct{} {
	return v.closed
}
