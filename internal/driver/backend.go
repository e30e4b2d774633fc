// Package driver implements the driver façade (C8): it bridges the
// upstream host's calls to either a virtual backend (synthesized clock and
// silence) or a proxy backend (a real hardware driver forwarded 1:1), and
// owns the producer side of the audio path — the buffer-switch handler
// that duplicates output samples into the ring buffers the renderer drains.
package driver

import (
	"github.com/agalue/delta-cast-shim/internal/convert"
	"github.com/agalue/delta-cast-shim/internal/ringbuf"
)

// ChannelInfo describes one channel as reported by GetChannelInfo.
type ChannelInfo struct {
	Channel int
	IsInput bool
	Type    convert.SampleType
	Name    string
	Active  bool
}

// ClockSource describes one entry from GetClockSources.
type ClockSource struct {
	Index   int
	Name    string
	Current bool
}

// BufferInfo mirrors one requested channel's buffer allocation: which
// channel it is, whether it's an input, and the two double-buffer halves
// the backend allocated for it. Non-owned output channels have nil
// Buffers entries.
type BufferInfo struct {
	IsInput    bool
	ChannelNum int
	Buffers    [2][]byte
}

// Callbacks is the set of upstream entry points a backend invokes on every
// buffer switch and control event. A Backend never calls these directly
// except through the closures it was handed in CreateBuffers — there is no
// process-wide singleton (see DESIGN.md's resolution of the Design Notes
// global-pointer question): the façade's own Callbacks close over the
// *Driver they belong to.
type Callbacks struct {
	BufferSwitch         func(index int32, directProcess bool)
	BufferSwitchTimeInfo func(index int32, processNow bool)
	SampleRateDidChange  func(rate float64)
	Message              func(selector, value int64, opt float64) int64
}

// Backend is the capability set both a virtual and a proxy implementor
// provide: lifecycle, configuration queries, buffer lifecycle, and control
// extras. The façade exposes the same query, control and buffer methods
// upstream and forwards them to whichever backend is attached, so a host
// cannot tell a Virtual backend from a Proxy-wrapped real driver; its own
// Init takes a Config rather than a system handle, so the façade is not
// itself a Backend.
type Backend interface {
	Init(sysHandle uintptr) error
	Start() error
	Stop() error

	DriverName() string
	DriverVersion() int
	ErrorMessage() string

	GetBufferSize() (min, max, preferred, granularity int)
	GetSampleRate() (float64, error)
	SetSampleRate(rate float64) error
	GetChannels() (numInputs, numOutputs int)
	GetChannelInfo(channel int, isInput bool) (ChannelInfo, error)
	GetSamplePosition() (samples int64, timestampNanos int64)
	GetLatencies() (input, output int)
	CanSampleRate(rate float64) bool
	GetClockSources() []ClockSource
	SetClockSource(index int) error

	CreateBuffers(infos []BufferInfo, blockSize int, cb Callbacks) error
	DisposeBuffers() error

	ControlPanel() error
	Future(selector int64, opt any) (any, error)
	OutputReady() error
}

// RenderConfig bundles everything a Renderer needs to drive the downstream
// shared-mode audio endpoint, independent of any concrete implementation.
type RenderConfig struct {
	RingL           *ringbuf.Ring
	RingR           *ringbuf.Ring
	SampleType      convert.SampleType
	InputSampleRate float64
	DeviceID        string
	PreRollFrames   int
}

// Renderer drains the per-channel ring buffers and plays them through a
// downstream audio endpoint (C7). Start must not block the caller; Stop
// must be safe to call even if Start failed or was never called.
type Renderer interface {
	Start(cfg RenderConfig) error
	Stop()
}
