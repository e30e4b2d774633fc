package driver

import (
	"errors"
	"testing"
)

var errNoHardware = errors.New("no hardware present")

// fakeRenderer lets driver tests exercise Start/Stop wiring without a real
// audio endpoint.
type fakeRenderer struct {
	startCfg RenderConfig
	started  bool
	stopped  bool
}

func (f *fakeRenderer) Start(cfg RenderConfig) error {
	f.startCfg = cfg
	f.started = true
	return nil
}

func (f *fakeRenderer) Stop() { f.stopped = true }

func newTestDriver(t *testing.T) (*Driver, *fakeRenderer) {
	t.Helper()
	fr := &fakeRenderer{}
	d := NewDriver(func(RenderConfig) Renderer { return fr })
	if err := d.Init(Config{Mode: ModeVirtual, VirtualSampleRate: 48000, LatencyMode: 2}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return d, fr
}

// makeStereoBufferInfos builds two non-input float32 channel slots with
// fresh double-buffer storage, mimicking what a backend's CreateBuffers
// would populate.
func makeStereoBufferInfos(blockSize int) []BufferInfo {
	mk := func(ch int) BufferInfo {
		bi := BufferInfo{IsInput: false, ChannelNum: ch}
		bi.Buffers[0] = make([]byte, blockSize*4)
		bi.Buffers[1] = make([]byte, blockSize*4)
		return bi
	}
	return []BufferInfo{mk(0), mk(1)}
}

func TestCreateBuffersFixesOutputChannelIndices(t *testing.T) {
	d, _ := newTestDriver(t)
	infos := makeStereoBufferInfos(256)
	if err := d.CreateBuffers(infos, 256, Callbacks{}); err != nil {
		t.Fatalf("CreateBuffers: %v", err)
	}
	if d.outL != 0 || d.outR != 1 {
		t.Fatalf("outL=%d outR=%d, want 0,1", d.outL, d.outR)
	}
}

func TestCreateBuffersDuplicatesMonoIntoR(t *testing.T) {
	d, _ := newTestDriver(t)
	mono := []BufferInfo{{IsInput: false, ChannelNum: 0}}
	mono[0].Buffers[0] = make([]byte, 256*4)
	mono[0].Buffers[1] = make([]byte, 256*4)

	if err := d.CreateBuffers(mono, 256, Callbacks{}); err != nil {
		t.Fatalf("CreateBuffers: %v", err)
	}
	if d.outL != 0 || d.outR != 0 {
		t.Fatalf("expected outL==outR==0 for a mono source, got %d,%d", d.outL, d.outR)
	}
}

func TestProducerDedupesRepeatedIndex(t *testing.T) {
	d, _ := newTestDriver(t)
	infos := makeStereoBufferInfos(64)
	if err := d.CreateBuffers(infos, 64, Callbacks{}); err != nil {
		t.Fatalf("CreateBuffers: %v", err)
	}
	for i := range infos[0].Buffers[0] {
		infos[0].Buffers[0][i] = byte(i + 1)
	}

	d.onBufferSwitch(0, false)
	d.onBufferSwitch(0, false) // repeated index must be ignored

	want := 64 * d.sampleType.ByteWidth()
	if got := d.ringL.FillSize(); got != want {
		t.Fatalf("ringL fill = %d, want %d (dedupe should have suppressed the second call)", got, want)
	}
}

func TestProducerPushesDistinctIndices(t *testing.T) {
	d, _ := newTestDriver(t)
	infos := makeStereoBufferInfos(64)
	if err := d.CreateBuffers(infos, 64, Callbacks{}); err != nil {
		t.Fatalf("CreateBuffers: %v", err)
	}

	d.onBufferSwitch(0, false)
	d.onBufferSwitch(1, false)

	want := 2 * 64 * d.sampleType.ByteWidth()
	if got := d.ringL.FillSize(); got != want {
		t.Fatalf("ringL fill = %d, want %d", got, want)
	}
}

func TestProducerCountsOverrunWhenRingIsFull(t *testing.T) {
	d, _ := newTestDriver(t)
	const bytesPerSample = 4 // VirtualBackend always reports float32-le
	blockSize := ringCapacityBytes / bytesPerSample // a single push fills the ring exactly
	infos := makeStereoBufferInfos(blockSize)
	if err := d.CreateBuffers(infos, blockSize, Callbacks{}); err != nil {
		t.Fatalf("CreateBuffers: %v", err)
	}

	d.onBufferSwitch(0, false)
	if d.OverrunCount() != 0 {
		t.Fatalf("first push should not overrun, got count %d", d.OverrunCount())
	}
	d.onBufferSwitch(1, false)
	if d.OverrunCount() != 1 {
		t.Fatalf("second push into a full ring should overrun exactly once, got %d", d.OverrunCount())
	}
}

func TestHostCallbackInvokedBeforeProducer(t *testing.T) {
	d, _ := newTestDriver(t)
	infos := makeStereoBufferInfos(32)

	var seen []string
	hostCB := Callbacks{
		BufferSwitch: func(index int32, direct bool) {
			seen = append(seen, "host")
		},
	}
	if err := d.CreateBuffers(infos, 32, hostCB); err != nil {
		t.Fatalf("CreateBuffers: %v", err)
	}

	d.onBufferSwitch(0, false)
	seen = append(seen, "producer-ran")

	if len(seen) != 2 || seen[0] != "host" || seen[1] != "producer-ran" {
		t.Fatalf("unexpected call order: %v", seen)
	}
	if d.ringL.FillSize() == 0 {
		t.Fatal("producer should have pushed into ringL after the host callback ran")
	}
}

func TestStartWiresRendererWithLatencyPreRoll(t *testing.T) {
	d, fr := newTestDriver(t)
	infos := makeStereoBufferInfos(256)
	if err := d.CreateBuffers(infos, 256, Callbacks{}); err != nil {
		t.Fatalf("CreateBuffers: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if !fr.started {
		t.Fatal("renderer was not started")
	}
	if fr.startCfg.PreRollFrames != latencyThresholds[2] {
		t.Fatalf("PreRollFrames = %d, want %d", fr.startCfg.PreRollFrames, latencyThresholds[2])
	}
}

func TestInitFallsBackToVirtualWhenProxyDiscoveryFails(t *testing.T) {
	fr := &fakeRenderer{}
	d := NewDriver(func(RenderConfig) Renderer { return fr })
	cfg := Config{
		Mode: ModeProxy,
		DiscoverRealBackend: func(clsid, wasapiID string) (Backend, error) {
			return nil, errNoHardware
		},
	}
	if err := d.Init(cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, ok := d.backend.(*VirtualBackend); !ok {
		t.Fatalf("expected fallback to VirtualBackend, got %T", d.backend)
	}
}
