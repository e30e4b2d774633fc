package driver

// ProxyBackend forwards every call 1:1 to a real backend discovered by
// identifier (a hardware driver, reached through whatever transport a
// concrete implementation wires up). It exists so the façade can treat
// "forward to real hardware" and "synthesize a virtual clock" as the same
// Backend shape, never branching on mode after construction.
type ProxyBackend struct {
	target Backend
}

// NewProxyBackend wraps target so it can be attached to the façade as an
// ordinary Backend.
func NewProxyBackend(target Backend) *ProxyBackend {
	return &ProxyBackend{target: target}
}

func (p *ProxyBackend) Init(sysHandle uintptr) error { return p.target.Init(sysHandle) }
func (p *ProxyBackend) Start() error                 { return p.target.Start() }
func (p *ProxyBackend) Stop() error                   { return p.target.Stop() }

func (p *ProxyBackend) DriverName() string   { return p.target.DriverName() }
func (p *ProxyBackend) DriverVersion() int   { return p.target.DriverVersion() }
func (p *ProxyBackend) ErrorMessage() string { return p.target.ErrorMessage() }

func (p *ProxyBackend) GetBufferSize() (min, max, preferred, granularity int) {
	return p.target.GetBufferSize()
}
func (p *ProxyBackend) GetSampleRate() (float64, error)   { return p.target.GetSampleRate() }
func (p *ProxyBackend) SetSampleRate(rate float64) error  { return p.target.SetSampleRate(rate) }
func (p *ProxyBackend) GetChannels() (int, int)           { return p.target.GetChannels() }
func (p *ProxyBackend) GetChannelInfo(channel int, isInput bool) (ChannelInfo, error) {
	return p.target.GetChannelInfo(channel, isInput)
}
func (p *ProxyBackend) GetSamplePosition() (int64, int64) { return p.target.GetSamplePosition() }
func (p *ProxyBackend) GetLatencies() (int, int)          { return p.target.GetLatencies() }
func (p *ProxyBackend) CanSampleRate(rate float64) bool   { return p.target.CanSampleRate(rate) }
func (p *ProxyBackend) GetClockSources() []ClockSource    { return p.target.GetClockSources() }
func (p *ProxyBackend) SetClockSource(index int) error    { return p.target.SetClockSource(index) }

func (p *ProxyBackend) CreateBuffers(infos []BufferInfo, blockSize int, cb Callbacks) error {
	return p.target.CreateBuffers(infos, blockSize, cb)
}
func (p *ProxyBackend) DisposeBuffers() error { return p.target.DisposeBuffers() }

func (p *ProxyBackend) ControlPanel() error                 { return p.target.ControlPanel() }
func (p *ProxyBackend) Future(selector int64, opt any) (any, error) {
	return p.target.Future(selector, opt)
}
func (p *ProxyBackend) OutputReady() error { return p.target.OutputReady() }
