package relaymux

import (
	"errors"
	"time"
)

// PushFunc delivers an inbound payload (or a terminal error) to the
// consumer. err is non-nil at most once, on the final call, when listen's
// receive fails (deadline, cancellation or a dropped socket). A loop that
// stops because its task had already resolved, or a once loop that has
// delivered its message, ends without an error call.
type PushFunc func(payload []byte, err error)

// listenLoop implements listen: the receiver side. It claims
// the next expected step, arms a subtask racing recv(MSG, step) against
// silentDeadline, and on match pushes the payload to the consumer before
// emitting the step's ACK — a consumer-visible delivery must never be
// outraced by its own ACK. Mirrors smux's recvLoop pump, generalized
// from a raw read to a Task-scoped Recv plus an explicit ACK emission per
// step. once stops the loop after the first successfully pushed message,
// for request/reply routes where exactly one reply is ever expected; other
// shapes pass once=false and loop until cancelled, errored, or timed out.
func listenLoop(task *Task, sock Socket, key, nonce uint16, steps *atomicStep, silentDeadline time.Duration, push PushFunc, once bool) error {
	for {
		if _, cancelled := task.IsCancelled(); cancelled {
			return task.Err()
		}

		step := steps.Next()
		sub := task.Subtask()
		sub.Deadline(silentDeadline, "listen")

		raw, err := sock.Recv(sub, msgPredicate(key, nonce, step))
		if err != nil {
			reason, ok := sub.IsCancelled()
			if !ok {
				reason = err.Error()
			}
			push(nil, errors.New(reason))
			task.Cancel(reason)
			return task.Err()
		}
		sub.Cleanup("msg received")

		_, msgPayload, _ := MatchFrame(nil, raw)
		_, body, _ := MatchStep(&step, msgPayload)

		push(body, nil)
		sock.Send(BrandFrame(FrameAck, key, nonce, BrandStep(step, nil)))

		if once {
			return nil
		}
	}
}

// msgPredicate matches a MSG frame for (key, nonce, step).
func msgPredicate(key, nonce uint16, step uint32) func([]byte) bool {
	typ := FrameMsg
	return func(raw []byte) bool {
		_, payload, ok := MatchFrame(&framePartial{Type: &typ, Key: &key, Nonce: &nonce}, raw)
		if !ok {
			return false
		}
		_, _, ok = MatchStep(&step, payload)
		return ok
	}
}
