package driver

import "unsafe"

// float32SliceAsBytes exposes the backing storage of samples as a byte
// slice of the same length in bytes, without copying — this is how a real
// ASIO backend hands the host direct write access to its buffer halves
// through BufferInfo.Buffers, and the Virtual backend must do the same so
// the producer's memcpy-only contract (§4.5) holds for it too.
func float32SliceAsBytes(samples []float32) []byte {
	if len(samples) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*4)
}
