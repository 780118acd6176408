// Package tcp adapts a framed net.Conn to the relaymux.Socket contract,
// supplementing WebSocket and in-memory transports with smux's own native
// transport: smux itself is a net.Conn multiplexer. Unlike WebSocket or
// the in-memory pair, a raw TCP connection carries no message boundaries,
// so this adapter prefixes every relaymux frame with a 4-byte big-endian
// length — the byte-stream framing layer relaymux's own wire format
// deliberately omits because it assumes a message-oriented transport
// underneath.
package tcp

import (
	"encoding/binary"
	"io"
	"log/slog"
	"net"

	"github.com/sagernet/sing/common/bufio"

	"github.com/relaymux/relaymux"
)

const lengthPrefixSize = 4

// maxFrameSize bounds a single inbound frame, guarding the read pump against
// an unbounded length prefix from a misbehaving peer.
const maxFrameSize = 1 << 20

// Serve wires conn's read pump into a new VirtualSocket's inbox, its write
// path from the VirtualSocket's outbox (via sagernet/sing's vectorised
// writer when conn supports scatter-gather, mirroring smux's
// sendLoop), and conn close into dropAll.
func Serve(conn net.Conn, logger *slog.Logger) *relaymux.VirtualSocket {
	if logger == nil {
		logger = slog.Default()
	}
	sock := relaymux.NewVirtualSocket(logger)

	bw, vectorised := bufio.CreateVectorisedWriter(conn)
	lenBuf := make([]byte, lengthPrefixSize)

	if err := sock.ConnectOutbox(func(b []byte) {
		binary.BigEndian.PutUint32(lenBuf, uint32(len(b)))
		var err error
		if vectorised {
			_, err = bufio.WriteVectorised(bw, [][]byte{lenBuf, b})
		} else {
			buf := make([]byte, lengthPrefixSize+len(b))
			copy(buf, lenBuf)
			copy(buf[lengthPrefixSize:], b)
			_, err = conn.Write(buf)
		}
		if err != nil {
			logger.Warn("relaymux/tcp: write failed", "error", err)
		}
	}); err != nil {
		logger.Error("relaymux/tcp: outbox connect failed", "error", err)
	}

	go func() {
		defer conn.Close()
		defer sock.DropAll()
		hdr := make([]byte, lengthPrefixSize)
		for {
			if _, err := io.ReadFull(conn, hdr); err != nil {
				logger.Debug("relaymux/tcp: read pump ended", "error", err)
				return
			}
			n := binary.BigEndian.Uint32(hdr)
			if n > maxFrameSize {
				logger.Warn("relaymux/tcp: frame exceeds maximum size, closing", "size", n)
				return
			}
			body := make([]byte, n)
			if _, err := io.ReadFull(conn, body); err != nil {
				logger.Debug("relaymux/tcp: read pump ended", "error", err)
				return
			}
			sock.Deliver(body)
		}
	}()

	go func() {
		<-sock.Closed()
		conn.Close()
	}()

	return sock
}
