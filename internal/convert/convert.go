// Package convert implements the format-conversion stage: raw interleaved
// PCM of several widths, read straight out of the ring buffer, converted to
// normalized float32.
package convert

import (
	"encoding/binary"
	"math"
)

// SampleType tags the on-the-wire PCM layout a channel's raw bytes follow.
type SampleType int

const (
	// Unknown emits silence; it stands for a type the upstream reports
	// that this shim doesn't recognize.
	Unknown SampleType = iota
	Int16LE
	Int24LE
	Int32LE
	Float32LE
	Float64LE
)

// scale constants, reciprocals of the signed integer range's upper bound.
const (
	int16Scale = 1.0 / 32768.0            // 2^-15
	int24Scale = 1.0 / 8388608.0          // 2^-23
	int32Scale = 1.0 / 2147483648.0       // 2^-31
)

// ByteWidth returns the number of raw bytes one sample of this type
// occupies: 2, 3, 4, 4, 8 for int16/int24/int32/float32/float64, or 0 for
// an unrecognized type.
func (t SampleType) ByteWidth() int {
	switch t {
	case Int16LE:
		return 2
	case Int24LE:
		return 3
	case Int32LE, Float32LE:
		return 4
	case Float64LE:
		return 8
	default:
		return 0
	}
}

// Convert decodes n samples of raw little-endian PCM of the given type into
// out[:n]. raw must hold at least n*t.ByteWidth() bytes for recognized
// types; an unrecognized type zero-fills out instead of reading raw at all.
func Convert(raw []byte, t SampleType, out []float32, n int) {
	switch t {
	case Int16LE:
		for i := 0; i < n; i++ {
			s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
			out[i] = float32(s) * int16Scale
		}
	case Int24LE:
		for i := 0; i < n; i++ {
			b0, b1, b2 := raw[i*3], raw[i*3+1], raw[i*3+2]
			// Assemble into the upper 24 bits of an int32, then sign-extend
			// by arithmetic shift right 8 — matches the original packed
			// little-endian layout exactly.
			packed := int32(b2)<<24 | int32(b1)<<16 | int32(b0)<<8
			out[i] = float32(packed>>8) * int24Scale
		}
	case Int32LE:
		convertInt32(raw, out, n)
	case Float32LE:
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint32(raw[i*4:])
			out[i] = math.Float32frombits(bits)
		}
	case Float64LE:
		for i := 0; i < n; i++ {
			bits := binary.LittleEndian.Uint64(raw[i*8:])
			out[i] = float32(math.Float64frombits(bits))
		}
	default:
		for i := 0; i < n; i++ {
			out[i] = 0
		}
	}
}

// convertInt32 decodes 8 samples per iteration where possible. This is
// manual loop unrolling, not a SIMD intrinsic (Go has no portable
// equivalent to the original's AVX2 _mm256 path) but it follows the same
// 8-wide grouping and must match the scalar reference bit for bit.
func convertInt32(raw []byte, out []float32, n int) {
	i := 0
	for ; i+8 <= n; i += 8 {
		for j := 0; j < 8; j++ {
			s := int32(binary.LittleEndian.Uint32(raw[(i+j)*4:]))
			out[i+j] = float32(s) * int32Scale
		}
	}
	for ; i < n; i++ {
		s := int32(binary.LittleEndian.Uint32(raw[i*4:]))
		out[i] = float32(s) * int32Scale
	}
}
