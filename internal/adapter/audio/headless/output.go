// Package headless provides an AudioOutput that needs no audio device.
// A ticker stands in for the device callback, which makes it usable in CI and tests.
package headless

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/sidtune/internal/domain"
	"github.com/tejashwikalptaru/sidtune/internal/ports"
)

// Output pulls one period of audio from the source on every tick and discards it.
//
// Thread-safety: This implementation is thread-safe.
type Output struct {
	logger *slog.Logger

	sampleRate int
	channels   int
	period     time.Duration
	frames     int
	buf        []int16

	pulls atomic.Uint64

	mu      sync.Mutex
	running bool
	closed  bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewOutput creates a headless output that pulls period worth of frames per tick.
func NewOutput(sampleRate, channels int, period time.Duration) (*Output, error) {
	if channels < domain.MinChannels || channels > domain.MaxChannels {
		return nil, domain.NewValidationError("channels", channels, domain.ErrInvalidChannelCount)
	}

	format := domain.StreamFormat{SampleRate: sampleRate, Channels: channels}
	frames := format.FramesFor(period)
	if frames <= 0 {
		return nil, domain.NewValidationError("period", period, domain.ErrInvalidLength)
	}

	return &Output{
		logger:     slog.Default(),
		sampleRate: sampleRate,
		channels:   channels,
		period:     period,
		frames:     frames,
		buf:        make([]int16, frames*channels),
	}, nil
}

// SetLogger sets the logger for this output.
// This should be called after construction before using the output.
func (o *Output) SetLogger(logger *slog.Logger) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logger = logger
}

// Start begins pulling from src on a background goroutine.
func (o *Output) Start(src ports.PCMSource) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return domain.ErrNotInitialized
	}
	if o.running {
		return domain.ErrAlreadyRunning
	}

	o.stop = make(chan struct{})
	o.running = true
	o.wg.Add(1)
	go o.pullLoop(src, o.stop)

	o.logger.Debug("headless output started",
		slog.Int("frames_per_tick", o.frames),
		slog.Duration("period", o.period))
	return nil
}

// Stop stops the pull loop and waits for the in-flight callback to finish.
func (o *Output) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return domain.ErrNotRunning
	}

	close(o.stop)
	o.wg.Wait()
	o.running = false

	o.logger.Debug("headless output stopped", slog.Uint64("pulls", o.pulls.Load()))
	return nil
}

// Close stops the output if needed. It cannot be started again.
func (o *Output) Close() error {
	o.mu.Lock()
	running := o.running
	o.mu.Unlock()

	if running {
		if err := o.Stop(); err != nil {
			return err
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

// SampleRate returns the configured sample rate.
func (o *Output) SampleRate() int {
	return o.sampleRate
}

// Channels returns the configured channel count.
func (o *Output) Channels() int {
	return o.channels
}

// FramesPerPull returns the number of frames requested per tick.
func (o *Output) FramesPerPull() int {
	return o.frames
}

// Pulls returns how many times the source has been called.
func (o *Output) Pulls() uint64 {
	return o.pulls.Load()
}

// Pull calls the source once, exactly as a tick would.
// It is meant for driving the pipeline deterministically while stopped.
// The returned slice is reused by the next pull.
func (o *Output) Pull(src ports.PCMSource) ([]int16, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return nil, domain.ErrAlreadyRunning
	}

	src.Process(o.buf, o.frames)
	o.pulls.Add(1)
	return o.buf, nil
}

func (o *Output) pullLoop(src ports.PCMSource, stop <-chan struct{}) {
	defer o.wg.Done()

	ticker := time.NewTicker(o.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			src.Process(o.buf, o.frames)
			o.pulls.Add(1)
		}
	}
}

// Verify that Output implements the AudioOutput interface
var _ ports.AudioOutput = (*Output)(nil)
