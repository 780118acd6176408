package relaymux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnceServiceLoadTakeSingleValue(t *testing.T) {
	svc := NewOnceService[int, string]()
	task := NewTask()

	assert.True(t, svc.LoadInternal(5))
	assert.False(t, svc.LoadInternal(6), "a second Load on a once shape must fail")

	v, ok, err := svc.Internal(task)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, v)

	_, ok, err = svc.Internal(task)
	require.NoError(t, err)
	assert.False(t, ok, "a second Take on a once shape must report no value")
}

func TestOnceServiceExternalRoundTrip(t *testing.T) {
	svc := NewOnceService[int, string]()
	task := NewTask()

	assert.True(t, svc.External("hi"))
	v, err := svc.TakeExternal(task)
	require.NoError(t, err)
	assert.Equal(t, "hi", v)
}

func TestManyServiceFullQueueRejectsLoad(t *testing.T) {
	svc := NewManyService[int, int](1, 1)
	assert.True(t, svc.LoadInternal(1))
	assert.False(t, svc.LoadInternal(2), "pushing past capacity with no waiter must fail")
}

func TestManyServiceFIFOOrdering(t *testing.T) {
	svc := NewManyService[int, int](4, 4)
	task := NewTask()

	svc.LoadInternal(1)
	svc.LoadInternal(2)

	v, ok, err := svc.Internal(task)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok, err = svc.Internal(task)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestManyServiceCloseInternalExhausts(t *testing.T) {
	svc := NewManyService[int, int](2, 2)
	task := NewTask()
	svc.CloseInternal()

	_, ok, err := svc.Internal(task)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestServiceDropTearsDownBothSides(t *testing.T) {
	svc := NewManyService[int, int](2, 2)
	task := NewTask()
	svc.Drop()

	_, ok, err := svc.Internal(task)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.TakeExternal(task)
	assert.ErrorIs(t, err, ErrQueueDropped)
}

func TestOnceServiceDropTearsDownBothSides(t *testing.T) {
	svc := NewOnceService[int, int]()
	task := NewTask()
	svc.Drop()

	_, ok, err := svc.Internal(task)
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.TakeExternal(task)
	assert.ErrorIs(t, err, ErrQueueDropped)
}
