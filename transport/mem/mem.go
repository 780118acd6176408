// Package mem provides an in-memory Socket pair for tests. It is the
// simplest possible transport adapter: two VirtualSockets whose outboxes
// are cross-connected directly to each other's Deliver, with no
// serialization or I/O in between.
package mem

import (
	"log/slog"

	"github.com/relaymux/relaymux"
)

// NewPair returns two VirtualSockets wired so that bytes sent on one are
// delivered to the other, and vice versa — the in-memory analogue of two
// ends of a WebSocket connection. Dropping the handle a (or b) that
// NewPair returns tears the other side down with DropAll, the way closing
// one end of a real transport ends both.
func NewPair(logger *slog.Logger) (a, b *relaymux.VirtualSocket) {
	a = relaymux.NewVirtualSocket(logger)
	b = relaymux.NewVirtualSocket(logger)

	// ConnectPush can fail only if already connected or waiters are queued;
	// neither is possible on a freshly constructed VirtualSocket.
	_ = a.ConnectOutbox(b.Deliver)
	_ = b.ConnectOutbox(a.Deliver)

	go func() {
		<-a.Closed()
		b.DropAll()
	}()
	go func() {
		<-b.Closed()
		a.DropAll()
	}()

	return a, b
}
