// Package ws adapts a gorilla/websocket connection to the relaymux.Socket
// contract. Grounded on
// webitel-im-delivery-service/internal/handler/ws/delivery.go's upgrade +
// read-pump shape, adjusted for relaymux's binary-frame wire protocol:
// where the delivery service marshals one JSON event per TextMessage, this
// adapter ignores TextMessage entirely and treats every BinaryMessage as
// one opaque relaymux frame.
package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/relaymux/relaymux"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Accept upgrades r/w to a WebSocket connection and returns a VirtualSocket
// driven by it. connID is a uuid-tagged correlation id used only for log
// lines, never a protocol field — callers that want their own id scheme
// can log it themselves and ignore the second return.
func Accept(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*relaymux.VirtualSocket, uuid.UUID, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, uuid.UUID{}, err
	}
	connID := uuid.New()
	logger = logger.With("conn_id", connID)
	return serve(conn, logger), connID, nil
}

// Dial opens a client WebSocket connection to url and returns a
// VirtualSocket driven by it.
func Dial(url string, logger *slog.Logger) (*relaymux.VirtualSocket, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return serve(conn, logger), nil
}

// serve wires conn's read pump into sock.Deliver, conn's write path from
// sock's outbox, and conn close into sock.DropAll — the three adapter
// responsibilities names.
func serve(conn *websocket.Conn, logger *slog.Logger) *relaymux.VirtualSocket {
	sock := relaymux.NewVirtualSocket(logger)

	if err := sock.ConnectOutbox(func(b []byte) {
		if err := conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
			logger.Warn("relaymux/ws: write failed", "error", err)
		}
	}); err != nil {
		logger.Error("relaymux/ws: outbox connect failed", "error", err)
	}

	go func() {
		defer conn.Close()
		defer sock.DropAll()
		for {
			typ, data, err := conn.ReadMessage()
			if err != nil {
				logger.Debug("relaymux/ws: read pump ended", "error", err)
				return
			}
			if typ != websocket.BinaryMessage {
				continue
			}
			sock.Deliver(data)
		}
	}()

	go func() {
		<-sock.Closed()
		conn.Close()
	}()

	return sock
}
