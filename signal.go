package relaymux

import "encoding/binary"

// SignalCode is the 1-byte code following the step prefix of a SIG frame's
// payload.
type SignalCode uint8

const (
	SignalInit SignalCode = 0
	SignalTerm SignalCode = 1
)

// stepSize is the width of the little-endian step prefix shared by SIG,
// MSG and ACK payloads.
const stepSize = 4

// BrandSignal encodes a SIG payload: 4-byte little-endian step followed by
// the 1-byte signal code.
func BrandSignal(step uint32, code SignalCode) []byte {
	out := make([]byte, stepSize+1)
	binary.LittleEndian.PutUint32(out[:stepSize], step)
	out[stepSize] = byte(code)
	return out
}

// MatchSignal parses a SIG payload. If want is non-nil, the parsed step
// must equal *want or MatchSignal fails.
func MatchSignal(want *uint32, payload []byte) (step uint32, code SignalCode, ok bool) {
	if len(payload) < stepSize+1 {
		return 0, 0, false
	}
	step = binary.LittleEndian.Uint32(payload[:stepSize])
	if want != nil && *want != step {
		return 0, 0, false
	}
	return step, SignalCode(payload[stepSize]), true
}
