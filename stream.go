package relaymux

import "time"

// PullFunc supplies the next outbound payload for stream. ok=false with
// err=nil signals normal exhaustion (pull has nothing left, terminate
// normally); err!=nil signals an abnormal source failure (e.g. the
// session Task resolved while the backing Service was waiting for a
// value), which streamLoop propagates as its own return rather than
// treating as a clean end-of-stream. It has the same three-value shape as
// Service.Internal; mapServiceHandler adapts one to the other by encoding
// each value with the codec.
type PullFunc func() (payload []byte, ok bool, err error)

// streamLoop implements stream: the sender side. It claims
// the next step, arms a subtask racing recv(ACK, step) against ackDeadline,
// emits MSG, and awaits the ACK before pulling the next payload. It
// returns nil on normal exhaustion (pull returned ok=false, err=nil), the
// pull error verbatim on abnormal exhaustion, or a non-nil error carrying
// the cancel reason on ACK timeout/cancellation — mirrors smux's
// sendLoop pump (session.go), generalized from a raw goroutine channel
// read to a Task-scoped Recv.
func streamLoop(task *Task, sock Socket, key, nonce uint16, steps *atomicStep, ackDeadline time.Duration, pull PullFunc) error {
	for {
		if _, cancelled := task.IsCancelled(); cancelled {
			return task.Err()
		}

		payload, ok, err := pull()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		step := steps.Next()
		sub := task.Subtask()
		sub.Deadline(ackDeadline, "send ack")

		sock.Send(BrandFrame(FrameMsg, key, nonce, BrandStep(step, payload)))

		_, err = sock.Recv(sub, ackPredicate(key, nonce, step))
		if err != nil {
			reason, ok := sub.IsCancelled()
			if !ok {
				reason = err.Error()
			}
			task.Cancel(reason)
			return task.Err()
		}
		sub.Cleanup("ack received")
	}
}

// ackPredicate matches an ACK frame for (key, nonce, step).
func ackPredicate(key, nonce uint16, step uint32) func([]byte) bool {
	typ := FrameAck
	return func(raw []byte) bool {
		_, body, ok := MatchFrame(&framePartial{Type: &typ, Key: &key, Nonce: &nonce}, raw)
		if !ok {
			return false
		}
		_, _, ok = MatchStep(&step, body)
		return ok
	}
}
