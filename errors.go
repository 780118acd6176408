package relaymux

import "errors"

// Sentinel errors for the queue, task, protocol and route layers.
var (
	// ErrQueueDropped is returned by any CircularQueue/ConnectableQueue
	// operation issued after drop().
	ErrQueueDropped = errors.New("relaymux: queue dropped")

	// ErrAlreadyConnected is returned by ConnectableQueue.ConnectPush when a
	// sink is already wired, or when waiters are queued at connect time.
	ErrAlreadyConnected = errors.New("relaymux: queue already connected")

	// ErrConnectedTake names a Take on a connected ConnectableQueue; Take
	// itself reports that case as a dropped result, not as this error.
	ErrConnectedTake = errors.New("relaymux: take not allowed on connected queue")

	// ErrTaskCancelled is the generic error surfaced by Task.Err() once the
	// task has resolved with a cancel/cleanup reason.
	ErrTaskCancelled = errors.New("relaymux: task cancelled")

	// ErrSocketDropped is returned by Socket operations after Drop/DropAll.
	ErrSocketDropped = errors.New("relaymux: socket dropped")

	// ErrInvalidFrame names malformed frame input; the frame codec's Match
	// functions report malformed input as ok=false, not as this error.
	ErrInvalidFrame = errors.New("relaymux: invalid frame")

	// ErrSendFailed names a send that could not be delivered (queue full,
	// session dead); Service.LoadInternal reports that case by returning
	// false, not as this error.
	ErrSendFailed = errors.New("relaymux: send failed")

	// ErrDecodeFailed marks a codec decode failure; the frame carrying it is
	// dropped rather than propagated.
	ErrDecodeFailed = errors.New("relaymux: decode failed")

	// ErrValidationFailed marks an application-level schema rejection.
	ErrValidationFailed = errors.New("relaymux: validation failed")

	// ErrRouteAlreadyBound is raised when a Route is bound a second time.
	ErrRouteAlreadyBound = errors.New("relaymux: route already bound")

	// ErrDuplicateKey is raised when two routes on one Router share a key.
	ErrDuplicateKey = errors.New("relaymux: duplicate route key")

	// ErrForeignRouter is returned by Route.Bind when the route's key was
	// reserved on a different Router.
	ErrForeignRouter = errors.New("relaymux: route bound to a different router")

	// ErrRouterNotStarted / ErrRouterStarted guard Router lifecycle.
	ErrRouterStarted    = errors.New("relaymux: router already started")
	ErrRouterNotStarted = errors.New("relaymux: router not started")

	// ErrNonceExhausted mirrors smux's ErrGoAway: the 16-bit nonce
	// space allocated by an Initiate has wrapped.
	ErrNonceExhausted = errors.New("relaymux: session nonce space exhausted")
)
