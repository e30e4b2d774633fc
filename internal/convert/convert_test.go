package convert

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestByteWidthPerSampleType(t *testing.T) {
	cases := map[SampleType]int{
		Int16LE:   2,
		Int24LE:   3,
		Int32LE:   4,
		Float32LE: 4,
		Float64LE: 8,
		Unknown:   0,
	}
	for st, want := range cases {
		if got := st.ByteWidth(); got != want {
			t.Errorf("%v.ByteWidth() = %d, want %d", st, got, want)
		}
	}
}

func TestConvertInt16RoundTrip(t *testing.T) {
	raw := make([]byte, 2*3)
	samples := []int16{0, 16384, -32768}
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	out := make([]float32, 3)
	Convert(raw, Int16LE, out, 3)
	for i, s := range samples {
		want := float32(s) / 32768.0
		if out[i] != want {
			t.Errorf("sample %d: got %v want %v", i, out[i], want)
		}
	}
}

func TestConvertInt24SignExtension(t *testing.T) {
	// -1 in 24-bit two's complement: 0xFFFFFF little-endian.
	raw := []byte{0xFF, 0xFF, 0xFF}
	out := make([]float32, 1)
	Convert(raw, Int24LE, out, 1)
	if out[0] != -1.0/8388608.0 {
		t.Fatalf("got %v, want %v", out[0], -1.0/8388608.0)
	}

	// Max positive 24-bit value: 0x7FFFFF.
	raw2 := []byte{0xFF, 0xFF, 0x7F}
	out2 := make([]float32, 1)
	Convert(raw2, Int24LE, out2, 1)
	want := float32(8388607) / 8388608.0
	if out2[0] != want {
		t.Fatalf("got %v, want %v", out2[0], want)
	}
}

func TestConvertInt32RoundTrip(t *testing.T) {
	raw := make([]byte, 4*9) // exercise both the 8-wide and scalar tail paths
	samples := make([]int32, 9)
	samples[0] = math.MinInt32
	samples[1] = math.MaxInt32
	for i := 2; i < 9; i++ {
		samples[i] = int32(i * 1000)
	}
	for i, s := range samples {
		binary.LittleEndian.PutUint32(raw[i*4:], uint32(s))
	}
	out := make([]float32, 9)
	Convert(raw, Int32LE, out, 9)
	for i, s := range samples {
		want := float32(s) / 2147483648.0
		if out[i] != want {
			t.Errorf("sample %d: got %v want %v", i, out[i], want)
		}
	}
}

func TestConvertFloat32IsVerbatim(t *testing.T) {
	raw := make([]byte, 4*2)
	vals := []float32{0.25, -0.75}
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	out := make([]float32, 2)
	Convert(raw, Float32LE, out, 2)
	for i, v := range vals {
		if out[i] != v {
			t.Errorf("sample %d: got %v want %v", i, out[i], v)
		}
	}
}

func TestConvertFloat64Narrows(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, math.Float64bits(0.5))
	out := make([]float32, 1)
	Convert(raw, Float64LE, out, 1)
	if out[0] != 0.5 {
		t.Fatalf("got %v, want 0.5", out[0])
	}
}

func TestConvertUnknownEmitsSilence(t *testing.T) {
	out := []float32{1, 2, 3}
	Convert(nil, Unknown, out, 3)
	for i, v := range out {
		if v != 0 {
			t.Errorf("sample %d = %v, want 0 (silence)", i, v)
		}
	}
}
