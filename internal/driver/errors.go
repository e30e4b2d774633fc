package driver

import "errors"

var (
	// ErrNotPresent is returned by optional backend operations (ControlPanel,
	// Future) a given backend doesn't implement.
	ErrNotPresent = errors.New("driver: operation not supported by this backend")
	// ErrNoBackend is returned when the façade is asked to act before a
	// backend has been attached via Init.
	ErrNoBackend = errors.New("driver: no backend attached")
	// ErrInvalidChannel is returned by GetChannelInfo for an out-of-range
	// channel index.
	ErrInvalidChannel = errors.New("driver: invalid channel index")
	// ErrUnsupportedRate is returned by SetSampleRate for a rate CanSampleRate
	// rejects.
	ErrUnsupportedRate = errors.New("driver: unsupported sample rate")
	// ErrBuffersExist is returned by CreateBuffers if buffers are already
	// allocated; the host must DisposeBuffers first.
	ErrBuffersExist = errors.New("driver: buffers already created")
	// ErrNoBuffers is returned by Start if CreateBuffers has not been
	// called yet.
	ErrNoBuffers = errors.New("driver: no buffers created")
)
