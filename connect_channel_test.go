package relaymux_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaymux/relaymux"
	"github.com/relaymux/relaymux/transport/mem"
)

type echoReq struct{ Value int }
type echoResp struct{ Value int }

// TestUnaryRoundTripDoublesValue is scenario A: a single
// request/reply exchange over a RecvSend route and a once-shaped Initiate,
// doubling the request value, with the client's session Task resolving
// via cleanup.
func TestUnaryRoundTripDoublesValue(t *testing.T) {
	router := relaymux.NewRouter()
	cfg := relaymux.DefaultConfig()
	cfg.AckDeadline = time.Second
	cfg.ClientSilentDeadline = time.Second
	cfg.ServerSilentDeadline = time.Second

	ep, route, err := relaymux.RecvSend[echoResp, echoReq](router, 1, cfg)
	require.NoError(t, err)
	ep.WithHandler(func(task *relaymux.Task, svc *relaymux.Service[echoResp, echoReq]) {
		req, err := svc.TakeExternal(task)
		if err != nil {
			return
		}
		svc.LoadInternal(echoResp{Value: req.Value * 2})
	})
	require.NoError(t, route.Bind(router))

	initiate := relaymux.NewInitiate[echoReq, echoResp](1, cfg, func() *relaymux.Service[echoReq, echoResp] {
		return relaymux.NewOnceService[echoReq, echoResp]()
	})

	clientSock, serverSock := mem.NewPair(nil)

	serverTasks := router.Start(serverSock)
	require.Len(t, serverTasks, 1)

	clientTask, clientSvc := initiate.Start(clientSock)
	clientSvc.LoadInternal(echoReq{Value: 21})
	clientSvc.CloseInternal()

	reply, err := clientSvc.TakeExternal(clientTask)
	require.NoError(t, err)
	assert.Equal(t, 42, reply.Value)

	select {
	case <-clientTask.Done():
	case <-time.After(time.Second):
		t.Fatal("client session never resolved")
	}
	reason, ok := clientTask.IsCancelled()
	require.True(t, ok)
	assert.Equal(t, "cleanup: connect stream finished", reason)
}

// TestInitSignalTimeoutCancelsInitiator is scenario B: nobody
// ever answers the SIG INIT, so the initiator's session cancels with a
// "timeout: sig init" reason once ackDeadline elapses.
func TestInitSignalTimeoutCancelsInitiator(t *testing.T) {
	cfg := relaymux.DefaultConfig()
	cfg.AckDeadline = 50 * time.Millisecond

	initiate := relaymux.NewInitiate[echoReq, echoResp](1, cfg, func() *relaymux.Service[echoReq, echoResp] {
		return relaymux.NewOnceService[echoReq, echoResp]()
	})

	clientSock, _ := mem.NewPair(nil)
	task, _ := initiate.Start(clientSock)

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("initiator never timed out waiting for SIG ack")
	}
	reason, ok := task.IsCancelled()
	require.True(t, ok)
	assert.Equal(t, "timeout: sig init", reason)
}

// TestConcurrentMultiplexedSessionsDoNotCrossTalk is scenario D:
// two Initiates with distinct nonces against one Endpoint resolve
// independently with no value crossing between sessions.
func TestConcurrentMultiplexedSessionsDoNotCrossTalk(t *testing.T) {
	router := relaymux.NewRouter()
	cfg := relaymux.DefaultConfig()
	cfg.AckDeadline = time.Second
	cfg.ClientSilentDeadline = time.Second
	cfg.ServerSilentDeadline = time.Second

	ep, route, err := relaymux.RecvSend[echoResp, echoReq](router, 1, cfg)
	require.NoError(t, err)
	ep.WithHandler(func(task *relaymux.Task, svc *relaymux.Service[echoResp, echoReq]) {
		req, err := svc.TakeExternal(task)
		if err != nil {
			return
		}
		svc.LoadInternal(echoResp{Value: req.Value * 2})
	})
	require.NoError(t, route.Bind(router))

	initiate := relaymux.NewInitiate[echoReq, echoResp](1, cfg, func() *relaymux.Service[echoReq, echoResp] {
		return relaymux.NewOnceService[echoReq, echoResp]()
	})

	clientSock, serverSock := mem.NewPair(nil)
	router.Start(serverSock)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task, svc := initiate.Start(clientSock)
			svc.LoadInternal(echoReq{Value: i})
			svc.CloseInternal()
			reply, err := svc.TakeExternal(task)
			if err != nil {
				results[i] = -1
				return
			}
			results[i] = reply.Value
		}(i)
	}
	wg.Wait()

	for i, v := range results {
		assert.Equal(t, i*2, v, fmt.Sprintf("session %d saw a cross-talked reply", i))
	}
}
