package relaymux

import (
	"log/slog"
	"time"
)

// channel implements the responder half of session establishment: a poll
// loop accepting one session per iteration. Grounded on smux's recvLoop
// cmdSYN handling (accept, register, hand off), generalized so each
// iteration owns its own multiplexed socket and Task instead of
// registering into a shared streams map — relaymux sessions don't share
// mutable state across accepts, each gets an independent Service via
// createHandle. INITs are read from mainSock itself, whose inbox exists
// from the socket's creation, so an INIT that arrives before the loop
// starts or while the previous session is still being set up waits in
// that inbox's backlog instead of being missed.
//
// channel runs until parentTask resolves; each accepted session is handled
// on its own goroutine so a slow or long-lived session never blocks
// subsequent accepts (concurrent multiplexed sessions on one Endpoint must
// not cross-talk or serialize against each other).
func channel(parentTask *Task, mainSock Socket, key uint16, ackDeadline, clientSilentDeadline time.Duration, createHandle func(*Task) (PullFunc, PushFunc), logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	for {
		if _, cancelled := parentTask.IsCancelled(); cancelled {
			return
		}

		sessionTask := parentTask.Subtask()
		pull, push := createHandle(sessionTask)

		initSub := sessionTask.Subtask()
		initSub.Deadline(clientSilentDeadline, "sig init")
		raw, err := mainSock.Recv(initSub, initPredicate(key))
		if err != nil {
			reason, ok := initSub.IsCancelled()
			if !ok {
				reason = err.Error()
			}
			sessionTask.Cancel(reason)
			if _, parentDone := parentTask.IsCancelled(); parentDone || err == ErrSocketDropped {
				return
			}
			continue
		}
		initSub.Cleanup("sig init received")
		sessionSock := mainSock.Multiplex()

		hdr, payload, _ := MatchFrame(nil, raw)
		initStep, _, _ := MatchSignal(nil, payload)
		nonce := hdr.Nonce

		go acceptSession(sessionTask, sessionSock, key, nonce, initStep, ackDeadline, clientSilentDeadline, pull, push, logger)
	}
}

// acceptSession runs steps 4–7 for one already-matched INIT:
// ACK it, launch listen/stream on independent per-direction counters, watch
// for TERM on a third multiplexed handle, and tear down on either stream
// exhaustion or TERM receipt.
func acceptSession(sessionTask *Task, sessionSock Socket, key, nonce uint16, initStep uint32, ackDeadline, clientSilentDeadline time.Duration, pull PullFunc, push PushFunc, logger *slog.Logger) {
	listenStep := newAtomicStep(initStep + 1)
	sessionSock.Send(BrandFrame(FrameAck, key, nonce, BrandStep(initStep, nil)))

	termSock := sessionSock.Multiplex()
	termDone := make(chan struct{})
	go func() {
		if _, err := termSock.Recv(sessionTask, termPredicate(key, nonce)); err == nil {
			sessionTask.Cleanup("channel term received")
		}
		close(termDone)
	}()

	listenDone := make(chan struct{})
	go func() {
		listenLoop(sessionTask, sessionSock, key, nonce, listenStep, clientSilentDeadline, push, false)
		close(listenDone)
	}()

	sendStep := newAtomicStep(0)
	if streamErr := streamLoop(sessionTask, sessionSock, key, nonce, sendStep, ackDeadline, pull); streamErr == nil {
		sessionTask.Cleanup("channel stream finished")
	} else {
		sessionTask.Cancel(streamErr.Error())
	}

	<-listenDone
	termSock.Drop()
	sessionSock.Drop()
	<-termDone

	logger.Debug("relaymux: channel session ended", "key", key, "nonce", nonce)
}

// initPredicate matches a SIG INIT frame for key with any nonce (a new
// session's nonce is not known until the frame arrives) at the fixed step 0
// every fresh sender-side counter starts from.
func initPredicate(key uint16) func([]byte) bool {
	typ := FrameSignal
	initStep := uint32(0)
	return func(raw []byte) bool {
		_, payload, ok := MatchFrame(&framePartial{Type: &typ, Key: &key}, raw)
		if !ok {
			return false
		}
		_, code, ok := MatchSignal(&initStep, payload)
		return ok && code == SignalInit
	}
}

// termPredicate matches a SIG TERM frame for (key, nonce) at any step.
func termPredicate(key, nonce uint16) func([]byte) bool {
	typ := FrameSignal
	return func(raw []byte) bool {
		_, payload, ok := MatchFrame(&framePartial{Type: &typ, Key: &key, Nonce: &nonce}, raw)
		if !ok {
			return false
		}
		_, code, ok := MatchSignal(nil, payload)
		return ok && code == SignalTerm
	}
}
