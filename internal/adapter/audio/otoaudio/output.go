// Package otoaudio provides an AudioOutput backed by the oto device library.
package otoaudio

import (
	"encoding/binary"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/tejashwikalptaru/sidtune/internal/domain"
	"github.com/tejashwikalptaru/sidtune/internal/ports"
)

// bytesPerSample for FormatSignedInt16LE
const bytesPerSample = 2

// Output plays PCM pulled from a ports.PCMSource through an oto player.
//
// The player calls Read from oto's own goroutine whenever the device needs data.
// The source is swapped in and out through an atomic pointer, so Read never locks.
//
// Thread-safety: control methods are serialized with a mutex; Read is lock-free.
type Output struct {
	logger *slog.Logger

	ctx    *oto.Context
	player *oto.Player

	sampleRate int
	channels   int

	source  atomic.Pointer[ports.PCMSource]
	scratch []int16 // owned by the oto goroutine

	mu      sync.Mutex
	running bool
	closed  bool
}

// NewOutput opens the default audio device.
// bufferSize is the device buffer duration; zero lets oto pick.
func NewOutput(sampleRate, channels int, bufferSize time.Duration) (*Output, error) {
	if channels < domain.MinChannels || channels > domain.MaxChannels {
		return nil, domain.NewValidationError("channels", channels, domain.ErrInvalidChannelCount)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, domain.NewEngineError("open", -1, "failed to create oto context", err)
	}
	<-ready

	o := &Output{
		logger:     slog.Default(),
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
	}

	// Pre-allocate for a generous device buffer so Read does not allocate in steady state
	o.scratch = make([]int16, 8192*channels)
	o.player = ctx.NewPlayer(o)

	return o, nil
}

// SetLogger sets the logger for this output.
// This should be called after construction before using the output.
func (o *Output) SetLogger(logger *slog.Logger) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logger = logger
}

// Start begins playback from src.
func (o *Output) Start(src ports.PCMSource) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return domain.ErrNotInitialized
	}
	if o.running {
		return domain.ErrAlreadyRunning
	}

	o.source.Store(&src)
	o.player.Play()
	o.running = true

	o.logger.Debug("oto output started",
		slog.Int("sample_rate", o.sampleRate),
		slog.Int("channels", o.channels))
	return nil
}

// Stop pauses the player and detaches the source.
func (o *Output) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return domain.ErrNotRunning
	}

	o.player.Pause()
	o.source.Store(nil)
	o.running = false

	o.logger.Debug("oto output stopped")
	return nil
}

// Close releases the player and suspends the device.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}
	o.closed = true
	o.running = false
	o.source.Store(nil)

	if err := o.player.Close(); err != nil {
		return domain.NewEngineError("close", -1, "failed to close oto player", err)
	}
	if err := o.ctx.Suspend(); err != nil {
		return domain.NewEngineError("suspend", -1, "failed to suspend oto context", err)
	}
	return nil
}

// SampleRate returns the device sample rate.
func (o *Output) SampleRate() int {
	return o.sampleRate
}

// Channels returns the device channel count.
func (o *Output) Channels() int {
	return o.channels
}

// Read implements io.Reader for the oto player.
// It always fills p completely; silence is written while no source is attached.
func (o *Output) Read(p []byte) (int, error) {
	src := o.source.Load()
	if src == nil {
		clear(p)
		return len(p), nil
	}

	frames := len(p) / (bytesPerSample * o.channels)
	samples := frames * o.channels

	// This should rarely happen after the first few callbacks
	if len(o.scratch) < samples {
		o.scratch = make([]int16, samples)
	}
	buf := o.scratch[:samples]

	(*src).Process(buf, frames)

	encode(p, buf)
	clear(p[samples*bytesPerSample:])
	return len(p), nil
}

// encode writes samples as little-endian 16-bit PCM into p.
func encode(p []byte, samples []int16) {
	for i, s := range samples {
		binary.LittleEndian.PutUint16(p[i*bytesPerSample:], uint16(s))
	}
}

// Verify that Output implements the AudioOutput interface
var _ ports.AudioOutput = (*Output)(nil)
