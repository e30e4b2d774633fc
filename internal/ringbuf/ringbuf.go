// Package ringbuf implements the single-producer/single-consumer byte FIFO
// that carries raw interleaved samples from the buffer-switch producer to
// the renderer thread.
package ringbuf

import "sync/atomic"

// cacheLinePad is sized to separate the write and read counters onto their
// own cache lines so the producer and consumer never false-share, the same
// idiom the pack's maypok86/otter ring buffer uses
// ([CacheLineSize - unsafe.Sizeof(atomic.Uint64{})]byte).
const cacheLinePad = 64 - 8

// Ring is a fixed-capacity, power-of-two-sized byte FIFO. Exactly one
// goroutine may call Push; exactly one (possibly different) goroutine may
// call Pop. AvailableRead, AvailableWrite and FillSize may be called from
// either side.
type Ring struct {
	buf  []byte
	mask uint64

	write atomic.Uint64
	_     [cacheLinePad]byte
	read  atomic.Uint64
	_     [cacheLinePad]byte

	drops atomic.Uint64
}

// New creates a ring buffer of at least the requested capacity, rounded up
// to the next power of two so index wraps can use a bitmask instead of a
// modulo on the hot path.
func New(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1
	}
	capacity = nextPowerOfTwo(capacity)
	return &Ring{
		buf:  make([]byte, capacity),
		mask: uint64(capacity - 1),
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Cap returns the buffer's capacity in bytes.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// AvailableRead returns the number of bytes currently queued for Pop.
func (r *Ring) AvailableRead() int {
	w := r.write.Load()
	rd := r.read.Load()
	return int(w - rd)
}

// AvailableWrite returns the number of free bytes Push could currently
// accept without dropping.
func (r *Ring) AvailableWrite() int {
	return len(r.buf) - r.AvailableRead()
}

// FillSize is an alias for AvailableRead, named to match the fill-level
// query the virtual clock loop's drift correction reads.
func (r *Ring) FillSize() int {
	return r.AvailableRead()
}

// DroppedPushes returns the number of Push calls that were rejected outright
// because the buffer could not fit the whole write (overrun count).
func (r *Ring) DroppedPushes() uint64 {
	return r.drops.Load()
}

// Push copies src into the ring and publishes the new write index. If the
// free space is smaller than len(src), the entire write is dropped — no
// partial push — so a caller's frame-aligned chunk is never split across an
// overrun boundary. Producer-only.
func (r *Ring) Push(src []byte) bool {
	n := len(src)
	if n == 0 {
		return true
	}
	w := r.write.Load()
	rd := r.read.Load()
	if len(r.buf)-int(w-rd) < n {
		r.drops.Add(1)
		return false
	}

	start := int(w & r.mask)
	tail := len(r.buf) - start
	if tail >= n {
		copy(r.buf[start:], src)
	} else {
		copy(r.buf[start:], src[:tail])
		copy(r.buf[:n-tail], src[tail:])
	}

	r.write.Store(w + uint64(n))
	return true
}

// Pop copies up to len(dst) queued bytes into dst, publishes the new read
// index, and returns the number of bytes copied. Consumer-only.
func (r *Ring) Pop(dst []byte) int {
	w := r.write.Load()
	rd := r.read.Load()
	fill := int(w - rd)
	if fill == 0 {
		return 0
	}

	n := len(dst)
	if n > fill {
		n = fill
	}
	if n == 0 {
		return 0
	}

	start := int(rd & r.mask)
	tail := len(r.buf) - start
	if tail >= n {
		copy(dst, r.buf[start:start+n])
	} else {
		copy(dst, r.buf[start:])
		copy(dst[tail:], r.buf[:n-tail])
	}

	r.read.Store(rd + uint64(n))
	return n
}
