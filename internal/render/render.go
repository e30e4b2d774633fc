// Package render implements the renderer loop (C7): it drains the two
// per-channel ring buffers the producer fills, converts and resamples
// them, and drives a real shared-mode audio endpoint through malgo
// (github.com/gen2brain/malgo), whose per-period Data callback stands in
// for the enumerate → activate → initialize-with-event → get-buffer →
// release-buffer sequence a WASAPI renderer performs explicitly.
package render

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/gen2brain/malgo"

	"github.com/agalue/delta-cast-shim/internal/convert"
	"github.com/agalue/delta-cast-shim/internal/driver"
	"github.com/agalue/delta-cast-shim/internal/resample"
	"github.com/agalue/delta-cast-shim/internal/ringbuf"
)

// renderChannels is the endpoint channel count this renderer always
// negotiates: stereo, matching the façade's fixed L/R ring pair.
const renderChannels = 2

// minScratchFrames is the floor on scratch buffer sizing, matching the
// original renderer's max(4096, endpoint_frames*4) rule.
const minScratchFrames = 4096

// Engine is the malgo-backed Renderer. It satisfies driver.Renderer purely
// by method shape, so internal/driver never imports this package.
type Engine struct {
	mu  sync.Mutex
	ctx *malgo.AllocatedContext
	dev *malgo.Device

	ringL, ringR *ringbuf.Ring
	sampleType   convert.SampleType
	resamplerL   resample.Resampler
	resamplerR   resample.Resampler

	scratchRawL   []byte
	scratchRawR   []byte
	scratchConvL  []float32
	scratchConvR  []float32
	scratchOutL   []float32
	scratchOutR   []float32

	preRollBytes int
	primed       atomic.Bool
	lastL, lastR atomic.Uint32 // concealment hold, bit patterns of float32
	framesOut    atomic.Int64
	underruns    atomic.Uint64
}

// NewEngine constructs an idle renderer. Call Start to attach it to a live
// endpoint.
func NewEngine() *Engine { return &Engine{} }

// Start implements driver.Renderer. It resolves the requested device (or
// the system default), negotiates a stereo float32 mix format at a 10ms
// period, configures both resamplers, and starts the audio client.
func (e *Engine) Start(cfg driver.RenderConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ringL = cfg.RingL
	e.ringR = cfg.RingR
	e.sampleType = cfg.SampleType
	e.preRollBytes = cfg.PreRollFrames * cfg.SampleType.ByteWidth()
	e.primed.Store(false)

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("render: init audio context: %w", err)
	}
	e.ctx = ctx

	deviceID := resolveDeviceID(ctx, cfg.DeviceID)

	mixRate := nativeSampleRate()

	e.resamplerL.Setup(cfg.InputSampleRate, float64(mixRate))
	e.resamplerR.Setup(cfg.InputSampleRate, float64(mixRate))

	estFrames := int(float64(mixRate) * 0.010)
	scratchFrames := minScratchFrames
	if estFrames*4 > scratchFrames {
		scratchFrames = estFrames * 4
	}
	e.scratchRawL = make([]byte, scratchFrames*cfg.SampleType.ByteWidth())
	e.scratchRawR = make([]byte, scratchFrames*cfg.SampleType.ByteWidth())
	e.scratchConvL = make([]float32, scratchFrames)
	e.scratchConvR = make([]float32, scratchFrames)
	e.scratchOutL = make([]float32, scratchFrames)
	e.scratchOutR = make([]float32, scratchFrames)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = renderChannels
	deviceConfig.SampleRate = mixRate
	deviceConfig.PeriodSizeInMilliseconds = 10
	if deviceID != nil {
		deviceConfig.Playback.DeviceID = deviceID
	}

	callbacks := malgo.DeviceCallbacks{
		Data: e.onData,
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		e.ctx = nil
		return fmt.Errorf("render: init playback device: %w", err)
	}
	e.dev = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		ctx.Uninit()
		ctx.Free()
		e.dev = nil
		e.ctx = nil
		return fmt.Errorf("render: start playback device: %w", err)
	}

	log.Printf("🔊 renderer started: mix_rate=%dHz channels=%d device=%q", mixRate, renderChannels, cfg.DeviceID)
	return nil
}

// Stop tears the endpoint down. Safe to call more than once or after a
// failed Start.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dev != nil {
		e.dev.Uninit()
		e.dev = nil
	}
	if e.ctx != nil {
		e.ctx.Uninit()
		e.ctx.Free()
		e.ctx = nil
	}
}

// UnderrunCount reports how many periods the renderer served with zero or
// partial data because the ring buffers ran dry.
func (e *Engine) UnderrunCount() uint64 { return e.underruns.Load() }

// onData is the renderer loop body (C7 main-loop), invoked once per audio
// period by the backend's event-driven scheduler.
func (e *Engine) onData(pOutput, _ []byte, framecount uint32) {
	framesNeeded := int(framecount)
	if framesNeeded == 0 {
		return
	}

	if !e.primed.Load() {
		if e.ringL.FillSize() < e.preRollBytes {
			zeroStereo(pOutput, framesNeeded)
			return
		}
		e.primed.Store(true)
	}

	sampleBytes := e.sampleType.ByteWidth()
	if sampleBytes == 0 {
		zeroStereo(pOutput, framesNeeded)
		return
	}

	ratio := e.resamplerL.Ratio()
	samplesToRead := int(math.Ceil(float64(framesNeeded)*ratio)) + 2
	samplesAvail := e.ringL.AvailableRead() / sampleBytes
	if samplesToRead > samplesAvail {
		samplesToRead = samplesAvail
	}
	if samplesToRead > len(e.scratchConvL) {
		samplesToRead = len(e.scratchConvL)
	}

	if samplesToRead <= 0 {
		e.underruns.Add(1)
		zeroStereo(pOutput, framesNeeded)
		return
	}

	rawBytes := samplesToRead * sampleBytes
	rawL := e.scratchRawL[:rawBytes]
	gotL := e.ringL.Pop(rawL)
	nL := gotL / sampleBytes
	convert.Convert(rawL, e.sampleType, e.scratchConvL[:nL], nL)

	rawR := e.scratchRawR[:rawBytes]
	gotR := e.ringR.Pop(rawR)
	nR := gotR / sampleBytes
	convert.Convert(rawR, e.sampleType, e.scratchConvR[:nR], nR)

	generatedL := e.resamplerL.Process(e.scratchConvL[:nL], e.scratchOutL[:framesNeeded])
	generatedR := e.resamplerR.Process(e.scratchConvR[:nR], e.scratchOutR[:framesNeeded])

	written := generatedL
	if generatedR < written {
		written = generatedR
	}
	if written < framesNeeded {
		e.underruns.Add(1)
	}

	for i := 0; i < written; i++ {
		writeStereoFrame(pOutput, i, e.scratchOutL[i], e.scratchOutR[i])
	}
	// Sample-and-hold concealment: repeat the last written frame rather
	// than dropping to silence for a single-period dropout.
	holdL := math.Float32frombits(e.lastL.Load())
	holdR := math.Float32frombits(e.lastR.Load())
	if written > 0 {
		holdL = e.scratchOutL[written-1]
		holdR = e.scratchOutR[written-1]
		e.lastL.Store(math.Float32bits(holdL))
		e.lastR.Store(math.Float32bits(holdR))
	}
	for i := written; i < framesNeeded; i++ {
		writeStereoFrame(pOutput, i, holdL, holdR)
	}

	e.framesOut.Add(int64(framesNeeded))
}

func zeroStereo(out []byte, frames int) {
	need := frames * renderChannels * 4
	if need > len(out) {
		need = len(out)
	}
	for i := range out[:need] {
		out[i] = 0
	}
}

func writeStereoFrame(out []byte, frame int, l, r float32) {
	off := frame * renderChannels * 4
	if off+8 > len(out) {
		return
	}
	binary.LittleEndian.PutUint32(out[off:], math.Float32bits(l))
	binary.LittleEndian.PutUint32(out[off+4:], math.Float32bits(r))
}

// resolveDeviceID enumerates playback endpoints and returns the pointer
// malgo expects for the device matching id by name, or nil (system
// default) if id is empty or no match is found.
func resolveDeviceID(ctx *malgo.AllocatedContext, id string) unsafe.Pointer {
	if id == "" {
		return nil
	}
	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil
	}
	for i := range infos {
		if infos[i].Name() == id {
			return infos[i].ID.Pointer()
		}
	}
	return nil
}

// nativeSampleRate asks miniaudio for its default playback config and
// reads back the rate it would pick, falling back to 48kHz.
func nativeSampleRate() uint32 {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	if cfg.SampleRate > 0 {
		return cfg.SampleRate
	}
	return 48000
}
