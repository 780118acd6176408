package relaymux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFrameWireExactness is scenario F: for a MSG frame with
// key=1, nonce=4, step=1, body [0x00], the emitted bytes are exactly
// 0x02, 0x00, 0x01, 0x00, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00.
func TestFrameWireExactness(t *testing.T) {
	raw := BrandFrame(FrameMsg, 1, 4, BrandStep(1, []byte{0x00}))
	want := []byte{0x02, 0x00, 0x01, 0x00, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00}
	assert.Equal(t, want, raw)
}

func TestMatchFramePartial(t *testing.T) {
	raw := BrandFrame(FrameAck, 0xDEAD, 7, nil)

	hdr, body, ok := MatchFrame(nil, raw)
	require.True(t, ok)
	assert.Equal(t, FrameAck, hdr.Type)
	assert.Equal(t, uint16(0xDEAD), hdr.Key)
	assert.Equal(t, uint16(7), hdr.Nonce)
	assert.Empty(t, body)

	msgType := FrameMsg
	_, _, ok = MatchFrame(&framePartial{Type: &msgType}, raw)
	assert.False(t, ok, "ACK frame must not match a MSG-constrained partial")

	wrongKey := uint16(1)
	_, _, ok = MatchFrame(&framePartial{Key: &wrongKey}, raw)
	assert.False(t, ok)
}

func TestMatchFrameRejectsShortOrInvalidType(t *testing.T) {
	_, _, ok := MatchFrame(nil, []byte{0x02, 0x00})
	assert.False(t, ok)

	_, _, ok = MatchFrame(nil, []byte{0xFF, 0x00, 0x00, 0x00, 0x00})
	assert.False(t, ok)
}

func TestSignalBrandMatchRoundTrip(t *testing.T) {
	payload := BrandSignal(9, SignalInit)
	step, code, ok := MatchSignal(nil, payload)
	require.True(t, ok)
	assert.Equal(t, uint32(9), step)
	assert.Equal(t, SignalInit, code)

	wantStep := uint32(9)
	_, _, ok = MatchSignal(&wantStep, payload)
	assert.True(t, ok)

	wrongStep := uint32(10)
	_, _, ok = MatchSignal(&wrongStep, payload)
	assert.False(t, ok)
}

func TestStepBrandMatchRoundTrip(t *testing.T) {
	payload := BrandStep(3, []byte("body"))
	step, body, ok := MatchStep(nil, payload)
	require.True(t, ok)
	assert.Equal(t, uint32(3), step)
	assert.Equal(t, []byte("body"), body)

	wantStep := uint32(3)
	_, _, ok = MatchStep(&wantStep, payload)
	assert.True(t, ok)
}

func TestAtomicStepNextAndClone(t *testing.T) {
	s := newAtomicStep(0)
	assert.Equal(t, uint32(0), s.Next())
	assert.Equal(t, uint32(1), s.Next())

	clone := s.Clone()
	assert.Equal(t, s.Current(), clone.Current())

	clone.Next()
	assert.NotEqual(t, s.Current(), clone.Current(), "clone must advance independently")
}
