package driver

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/agalue/delta-cast-shim/internal/convert"
	"github.com/agalue/delta-cast-shim/internal/ringbuf"
)

// ringCapacityBytes is the fixed capacity each per-channel ring buffer is
// created with at driver construction, before any endpoint is known. It
// comfortably exceeds endpoint_buffer_frames × 4 samples for any endpoint
// period this shim is likely to meet (see DESIGN.md).
const ringCapacityBytes = 1 << 20 // 1 MiB per channel, ~5.5s of one float32 channel at 48kHz

// latencyThresholds maps the four latency-mode presets to ring-buffer
// pre-roll thresholds in frames.
var latencyThresholds = [4]int{16384, 8192, 4096, 2048}

// Mode selects which backend the façade constructs at Init.
type Mode int

const (
	ModeVirtual Mode = iota
	ModeProxy
)

// Config carries everything Init needs to choose and configure a backend.
type Config struct {
	Mode             Mode
	VirtualSampleRate float64
	DeviceID         string
	LatencyMode      int
	// DiscoverRealBackend, if set, is consulted in ModeProxy to obtain the
	// real driver handle identified by TargetCLSID/TargetWasapiID. Real
	// hardware discovery is an external collaborator (see spec's scope
	// note on the proxy passthrough); when nil or it returns an error the
	// façade falls back to a virtual backend.
	DiscoverRealBackend func(targetCLSID, targetWasapiID string) (Backend, error)
	TargetCLSID      string
	TargetWasapiID   string
}

// Driver is the façade (C8): it bridges upstream calls to either a Virtual
// backend's synthesized clock or a Proxy backend forwarding to real
// hardware, and owns the producer side of the audio path (C5).
type Driver struct {
	mu sync.Mutex

	backend     Backend
	cfg         Config
	newRenderer func(RenderConfig) Renderer
	renderer    Renderer

	ringL *ringbuf.Ring
	ringR *ringbuf.Ring

	hostCallbacks Callbacks
	bufferInfos   []BufferInfo
	outL, outR    int
	sampleType    convert.SampleType
	blockSize     int

	lastIndex      int32
	haveLastIndex  bool
	overrunCount   atomic.Uint64

	started bool
}

// NewDriver constructs a façade with fresh per-channel ring buffers.
// newRenderer builds the concrete C7 implementation the façade will drive
// at Start; it is injected so internal/driver never imports a concrete
// renderer package.
func NewDriver(newRenderer func(RenderConfig) Renderer) *Driver {
	return &Driver{
		ringL:       ringbuf.New(ringCapacityBytes),
		ringR:       ringbuf.New(ringCapacityBytes),
		newRenderer: newRenderer,
		outL:        -1,
		outR:        -1,
		sampleType:  convert.Int32LE,
	}
}

// Init reads configuration and attaches either a Virtual or Proxy backend,
// falling back to Virtual if Proxy discovery is unavailable or fails.
func (d *Driver) Init(cfg Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cfg = cfg

	if cfg.Mode == ModeProxy && cfg.DiscoverRealBackend != nil {
		real, err := cfg.DiscoverRealBackend(cfg.TargetCLSID, cfg.TargetWasapiID)
		if err == nil && real != nil {
			d.backend = NewProxyBackend(real)
			return d.backend.Init(0)
		}
	}

	vb := NewVirtualBackend(d.ringR)
	if cfg.VirtualSampleRate != 0 {
		if err := vb.SetSampleRate(cfg.VirtualSampleRate); err != nil {
			return fmt.Errorf("driver: init virtual backend: %w", err)
		}
	}
	d.backend = vb
	return d.backend.Init(0)
}

// CreateBuffers installs the façade's own callbacks ahead of the backend's,
// delegates allocation, then fixes (outL, outR) from the first one or two
// non-input channels and the first output channel's sample type.
func (d *Driver) CreateBuffers(infos []BufferInfo, blockSize int, hostCallbacks Callbacks) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.backend == nil {
		return ErrNoBackend
	}
	if d.bufferInfos != nil {
		return ErrBuffersExist
	}

	d.hostCallbacks = hostCallbacks
	d.blockSize = blockSize
	d.haveLastIndex = false

	internal := Callbacks{
		BufferSwitch:         d.onBufferSwitch,
		BufferSwitchTimeInfo: d.onBufferSwitchTimeInfo,
		SampleRateDidChange:  hostCallbacks.SampleRateDidChange,
		Message:              hostCallbacks.Message,
	}

	if err := d.backend.CreateBuffers(infos, blockSize, internal); err != nil {
		return fmt.Errorf("driver: create buffers: %w", err)
	}
	d.bufferInfos = infos

	d.outL, d.outR = -1, -1
	for i := range infos {
		if infos[i].IsInput {
			continue
		}
		if d.outL == -1 {
			d.outL = i
		} else if d.outR == -1 {
			d.outR = i
			break
		}
	}
	if d.outL == -1 {
		return fmt.Errorf("driver: no output channels allocated")
	}
	if d.outR == -1 {
		d.outR = d.outL // mono source: duplicate L into R at producer time
	}

	if ci, err := d.backend.GetChannelInfo(infos[d.outL].ChannelNum, false); err == nil {
		d.sampleType = ci.Type
	} else {
		d.sampleType = convert.Int32LE
	}

	return nil
}

// Start resolves the latency-mode pre-roll threshold, starts the renderer
// against the two ring buffers, then starts the backend — so the renderer
// is already draining before the producer can push its first block.
func (d *Driver) Start() error {
	d.mu.Lock()
	if d.backend == nil {
		d.mu.Unlock()
		return ErrNoBackend
	}
	if d.bufferInfos == nil {
		d.mu.Unlock()
		return ErrNoBuffers
	}

	mode := d.cfg.LatencyMode
	if mode < 0 || mode > 3 {
		mode = 2
	}
	threshold := latencyThresholds[mode]

	rc := RenderConfig{
		RingL:           d.ringL,
		RingR:           d.ringR,
		SampleType:      d.sampleType,
		InputSampleRate: d.currentSampleRateLocked(),
		DeviceID:        d.cfg.DeviceID,
		PreRollFrames:   threshold,
	}
	renderer := d.renderer
	if renderer == nil && d.newRenderer != nil {
		renderer = d.newRenderer(rc)
		d.renderer = renderer
	}
	d.started = true
	d.mu.Unlock()

	if renderer != nil {
		if err := renderer.Start(rc); err != nil {
			return fmt.Errorf("driver: start renderer: %w", err)
		}
	}
	return d.backend.Start()
}

func (d *Driver) currentSampleRateLocked() float64 {
	rate, err := d.backend.GetSampleRate()
	if err != nil || rate == 0 {
		return 48000
	}
	return rate
}

// Stop mirrors Start in reverse: backend first, then renderer.
func (d *Driver) Stop() error {
	d.mu.Lock()
	backend := d.backend
	renderer := d.renderer
	d.started = false
	d.mu.Unlock()

	var firstErr error
	if backend != nil {
		if err := backend.Stop(); err != nil {
			firstErr = err
		}
	}
	if renderer != nil {
		renderer.Stop()
	}
	return firstErr
}

// DisposeBuffers mirrors CreateBuffers in reverse.
func (d *Driver) DisposeBuffers() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.backend == nil {
		return ErrNoBackend
	}
	d.bufferInfos = nil
	d.outL, d.outR = -1, -1
	return d.backend.DisposeBuffers()
}

// OverrunCount reports how many buffer-switch blocks the producer dropped
// because the ring buffer had insufficient free space.
func (d *Driver) OverrunCount() uint64 { return d.overrunCount.Load() }

func (d *Driver) onBufferSwitch(index int32, directProcess bool) {
	if d.hostCallbacks.BufferSwitch != nil {
		d.hostCallbacks.BufferSwitch(index, directProcess)
	}
	d.copyToRing(index)
}

func (d *Driver) onBufferSwitchTimeInfo(index int32, processNow bool) {
	if d.hostCallbacks.BufferSwitchTimeInfo != nil {
		d.hostCallbacks.BufferSwitchTimeInfo(index, processNow)
	}
	d.copyToRing(index)
}

// --- verbatim forwarding to the backend ---

func (d *Driver) DriverName() string   { return d.backend.DriverName() }
func (d *Driver) DriverVersion() int   { return d.backend.DriverVersion() }
func (d *Driver) ErrorMessage() string { return d.backend.ErrorMessage() }

func (d *Driver) GetBufferSize() (min, max, preferred, granularity int) {
	return d.backend.GetBufferSize()
}
func (d *Driver) GetSampleRate() (float64, error)  { return d.backend.GetSampleRate() }
func (d *Driver) SetSampleRate(rate float64) error { return d.backend.SetSampleRate(rate) }
func (d *Driver) GetChannels() (int, int)          { return d.backend.GetChannels() }
func (d *Driver) GetChannelInfo(channel int, isInput bool) (ChannelInfo, error) {
	return d.backend.GetChannelInfo(channel, isInput)
}
func (d *Driver) GetSamplePosition() (int64, int64) { return d.backend.GetSamplePosition() }
func (d *Driver) GetLatencies() (int, int)          { return d.backend.GetLatencies() }
func (d *Driver) CanSampleRate(rate float64) bool   { return d.backend.CanSampleRate(rate) }
func (d *Driver) GetClockSources() []ClockSource    { return d.backend.GetClockSources() }
func (d *Driver) SetClockSource(index int) error    { return d.backend.SetClockSource(index) }
func (d *Driver) ControlPanel() error               { return d.backend.ControlPanel() }
func (d *Driver) Future(selector int64, opt any) (any, error) {
	return d.backend.Future(selector, opt)
}
func (d *Driver) OutputReady() error { return d.backend.OutputReady() }
