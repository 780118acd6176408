package relaymux

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskCancelIsStableAndOnceOnly(t *testing.T) {
	task := NewTask()

	assert.True(t, task.Cancel("first"))
	assert.False(t, task.Cancel("second"))

	reason, ok := task.IsCancelled()
	require.True(t, ok)
	assert.Equal(t, "first", reason)

	reason2, ok2 := task.IsCancelled()
	assert.True(t, ok2)
	assert.Equal(t, reason, reason2)

	select {
	case <-task.Done():
	default:
		t.Fatal("Done() should be closed after Cancel")
	}
}

func TestTaskCleanupPrefixesReason(t *testing.T) {
	task := NewTask()
	task.Cleanup("normal exit")
	reason, ok := task.IsCancelled()
	require.True(t, ok)
	assert.Equal(t, "cleanup: normal exit", reason)
}

func TestSubtaskCancelsOnParentResolve(t *testing.T) {
	parent := NewTask()
	child := parent.Subtask()

	parent.Cancel("parent down")

	select {
	case <-child.Done():
	case <-time.After(time.Second):
		t.Fatal("subtask did not observe parent cancellation")
	}
	reason, ok := child.IsCancelled()
	require.True(t, ok)
	assert.Equal(t, "parent cancelled: parent down", reason)
}

func TestTaskDeadlineCancelsWithTimeoutPrefix(t *testing.T) {
	task := NewTask()
	task.Deadline(20*time.Millisecond, "no response")

	select {
	case <-task.Done():
	case <-time.After(time.Second):
		t.Fatal("deadline never fired")
	}
	reason, _ := task.IsCancelled()
	assert.Equal(t, "timeout: no response", reason)
}

func TestTaskDeadlineForeverIsNoop(t *testing.T) {
	task := NewTask()
	task.Deadline(Forever, "ignored")

	select {
	case <-task.Done():
		t.Fatal("Forever deadline must not resolve the task")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestWrapReturnsFnResult(t *testing.T) {
	parent := NewTask()
	h := Wrap(parent, func(sub *Task) (int, error) {
		return 42, nil
	})
	v, err := h.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestWrapCancelledByHandle(t *testing.T) {
	parent := NewTask()
	started := make(chan struct{})
	h := Wrap(parent, func(sub *Task) (int, error) {
		close(started)
		<-sub.Done()
		return 0, sub.Err()
	})
	<-started
	h.Cancel("give up")
	_, err := h.Wait()
	assert.Error(t, err)
}

func TestTaskPollStopsOnCancel(t *testing.T) {
	task := NewTask()
	var calls int
	task.Poll(func(t *Task) bool {
		calls++
		if calls == 3 {
			t.Cancel("done polling")
		}
		return true
	})
	assert.Equal(t, 3, calls)
}
