package relaymux

import (
	"log/slog"
	"time"
)

// connect implements initiator half of session establishment.
// sock is the session's main multiplexed handle — already carrying the
// route's key and the nonce this Initiate allocated. pull/push are the
// codec-adapted byte-level callbacks an Initiate wires from its Service via
// mapServiceHandler; connect itself never touches the codec or Service
// directly. once marks a request/reply route: the local stream exhausting
// (request sent and ACK'd) says nothing about whether the reply has
// arrived, so connect waits for listenLoop to observe it before resolving
// and tearing down, rather than racing the reply with its own teardown.
// Grounded on smux's OpenStream (send SYN, await the peer's registration)
// generalized to the INIT/ACK/TERM handshake.
func connect(task *Task, sock Socket, key, nonce uint16, ackDeadline, serverSilentDeadline time.Duration, pull PullFunc, push PushFunc, once bool, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	sendStep := newAtomicStep(0)
	initStep := sendStep.Next()

	sigSub := task.Subtask()
	sigSub.Deadline(ackDeadline, "sig init")
	sock.Send(BrandFrame(FrameSignal, key, nonce, BrandSignal(initStep, SignalInit)))
	if _, err := sock.Recv(sigSub, ackPredicate(key, nonce, initStep)); err != nil {
		reason, ok := sigSub.IsCancelled()
		if !ok {
			reason = err.Error()
		}
		task.Cancel(reason)
		sock.Drop()
		return
	}
	sigSub.Cleanup("sig init acked")

	listenSock := sock.Multiplex()
	recvStep := newAtomicStep(0)

	listenDone := make(chan struct{})
	go func() {
		listenLoop(task, listenSock, key, nonce, recvStep, serverSilentDeadline, push, once)
		close(listenDone)
	}()

	streamErr := streamLoop(task, sock, key, nonce, sendStep, ackDeadline, pull)

	if once {
		<-listenDone
	}

	if streamErr == nil {
		task.Cleanup("connect stream finished")
	} else {
		task.Cancel(streamErr.Error())
	}

	termStep := sendStep.Next()
	sock.Send(BrandFrame(FrameSignal, key, nonce, BrandSignal(termStep, SignalTerm)))

	listenSock.Drop()
	sock.Drop()
	<-listenDone

	logger.Debug("relaymux: connect session ended", "key", key, "nonce", nonce)
}
