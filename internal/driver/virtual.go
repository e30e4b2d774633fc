package driver

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agalue/delta-cast-shim/internal/clock"
	"github.com/agalue/delta-cast-shim/internal/convert"
)

// virtualSampleRates are the only rates the synthesized clock advertises.
var virtualSampleRates = []float64{44100, 48000, 88200, 96000, 176400, 192000, 352800, 384000}

const (
	virtualChannels        = 2
	virtualBufferSizeMin   = 128
	virtualBufferSizeMax   = 2048
	virtualBufferSizePref  = 256
	virtualGuardBandHigh   = 0.9
	virtualGuardBandLow    = 0.1
	virtualPeriodNudge     = 10 * time.Microsecond
	virtualClockSourceName = "Internal Virtual Clock"
)

// fillGauge is the minimal view of a ring buffer the virtual clock loop
// needs to drive its drift correction. *ringbuf.Ring satisfies it.
type fillGauge interface {
	FillSize() int
	Cap() int
}

// VirtualBackend synthesizes its own periodic buffer-switch cadence instead
// of forwarding to real hardware. It is paired with a fill gauge — in
// practice the façade's right-channel ring buffer — so its clock loop can
// apply the drift correction described by the downstream fill level.
type VirtualBackend struct {
	sampleRate float64
	blockSize  int
	gauge      fillGauge

	mu        sync.Mutex
	buffers   [2][virtualChannels][]float32 // [dblIdx][channel] sample storage
	callbacks Callbacks

	samplePos atomic.Int64
	running   atomic.Bool
	cancel    chan struct{}
	wg        sync.WaitGroup
}

// NewVirtualBackend constructs a Virtual backend. gauge supplies the fill
// level the clock loop corrects drift against; it is typically the
// right-channel ring buffer the façade owns.
func NewVirtualBackend(gauge fillGauge) *VirtualBackend {
	return &VirtualBackend{
		sampleRate: 48000,
		blockSize:  virtualBufferSizePref,
		gauge:      gauge,
	}
}

func (v *VirtualBackend) Init(uintptr) error { return nil }

func (v *VirtualBackend) Start() error {
	if v.running.Swap(true) {
		return nil
	}
	v.cancel = make(chan struct{})
	v.wg.Add(1)
	go v.clockLoop()
	return nil
}

func (v *VirtualBackend) Stop() error {
	if !v.running.Swap(false) {
		return nil
	}
	close(v.cancel)
	v.wg.Wait()
	return nil
}

func (v *VirtualBackend) DriverName() string    { return "Virtual Clock Driver" }
func (v *VirtualBackend) DriverVersion() int    { return 1 }
func (v *VirtualBackend) ErrorMessage() string  { return "" }

func (v *VirtualBackend) GetBufferSize() (min, max, preferred, granularity int) {
	return virtualBufferSizeMin, virtualBufferSizeMax, virtualBufferSizePref, 1
}

func (v *VirtualBackend) GetSampleRate() (float64, error) { return v.sampleRate, nil }

func (v *VirtualBackend) SetSampleRate(rate float64) error {
	if !v.CanSampleRate(rate) {
		return ErrUnsupportedRate
	}
	v.sampleRate = rate
	if v.callbacks.SampleRateDidChange != nil {
		v.callbacks.SampleRateDidChange(rate)
	}
	return nil
}

func (v *VirtualBackend) GetChannels() (numInputs, numOutputs int) { return 0, virtualChannels }

func (v *VirtualBackend) GetChannelInfo(channel int, isInput bool) (ChannelInfo, error) {
	if isInput || channel < 0 || channel >= virtualChannels {
		return ChannelInfo{}, ErrInvalidChannel
	}
	name := "Virtual Left"
	if channel == 1 {
		name = "Virtual Right"
	}
	return ChannelInfo{Channel: channel, IsInput: false, Type: convert.Float32LE, Name: name, Active: true}, nil
}

func (v *VirtualBackend) GetSamplePosition() (samples int64, timestampNanos int64) {
	return v.samplePos.Load(), time.Now().UnixNano()
}

func (v *VirtualBackend) GetLatencies() (input, output int) { return 0, v.blockSize }

func (v *VirtualBackend) CanSampleRate(rate float64) bool {
	for _, r := range virtualSampleRates {
		if r == rate {
			return true
		}
	}
	return false
}

func (v *VirtualBackend) GetClockSources() []ClockSource {
	return []ClockSource{{Index: 0, Name: virtualClockSourceName, Current: true}}
}

func (v *VirtualBackend) SetClockSource(index int) error {
	if index != 0 {
		return ErrInvalidChannel
	}
	return nil
}

func (v *VirtualBackend) CreateBuffers(infos []BufferInfo, blockSize int, cb Callbacks) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.blockSize = blockSize
	v.callbacks = cb
	for dbl := 0; dbl < 2; dbl++ {
		for ch := 0; ch < virtualChannels; ch++ {
			v.buffers[dbl][ch] = make([]float32, blockSize)
		}
	}

	for i := range infos {
		if infos[i].IsInput || infos[i].ChannelNum < 0 || infos[i].ChannelNum >= virtualChannels {
			continue
		}
		ch := infos[i].ChannelNum
		for dbl := 0; dbl < 2; dbl++ {
			infos[i].Buffers[dbl] = float32SliceAsBytes(v.buffers[dbl][ch])
		}
	}
	return nil
}

func (v *VirtualBackend) DisposeBuffers() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.buffers = [2][virtualChannels][]float32{}
	v.callbacks = Callbacks{}
	return nil
}

func (v *VirtualBackend) ControlPanel() error              { return ErrNotPresent }
func (v *VirtualBackend) Future(int64, any) (any, error)   { return nil, ErrNotPresent }
func (v *VirtualBackend) OutputReady() error                { return nil }

// clockLoop is C6: it runs for the lifetime of the backend, synthesizing a
// periodic buffer switch at ideal_period = block_size / sample_rate,
// nudging the period by ±10µs whenever the downstream fill level strays
// outside the [10%, 90%] guard band.
func (v *VirtualBackend) clockLoop() {
	defer v.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	idealPeriod := time.Duration(float64(v.blockSize) / v.sampleRate * float64(time.Second))
	wakeupTime := clock.Now()
	dblIdx := int32(0)

	for {
		select {
		case <-v.cancel:
			return
		default:
		}

		period := idealPeriod
		if v.gauge != nil {
			capacity := v.gauge.Cap()
			if capacity > 0 {
				fill := float64(v.gauge.FillSize()) / float64(capacity)
				if fill > virtualGuardBandHigh {
					period += virtualPeriodNudge
				} else if fill < virtualGuardBandLow {
					period -= virtualPeriodNudge
				}
			}
		}

		wakeupTime = wakeupTime.Add(period)
		now := clock.Now()
		if wakeupTime.Before(now) {
			wakeupTime = now
		}
		clock.WaitUntil(wakeupTime)

		v.mu.Lock()
		for ch := 0; ch < virtualChannels; ch++ {
			buf := v.buffers[dblIdx][ch]
			for i := range buf {
				buf[i] = 0
			}
		}
		cb := v.callbacks.BufferSwitch
		v.mu.Unlock()

		if cb != nil {
			cb(dblIdx, false)
		}

		v.samplePos.Add(int64(v.blockSize))
		dblIdx = 1 - dblIdx
	}
}
