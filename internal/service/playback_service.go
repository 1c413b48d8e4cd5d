// Package service provides the orchestration layer of the sidtune player.
package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/sidtune/internal/domain"
	"github.com/tejashwikalptaru/sidtune/internal/pipeline"
	"github.com/tejashwikalptaru/sidtune/internal/ports"
)

// PlaybackConfig contains settings for the playback service.
type PlaybackConfig struct {
	// VisualizationLength is the visualization window in samples (interleaved)
	VisualizationLength int

	// MonitorInterval is how often pipeline counters are checked for starvation
	MonitorInterval time.Duration
}

// DefaultPlaybackConfig returns a 2048-sample window checked four times per second.
func DefaultPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		VisualizationLength: 2048,
		MonitorInterval:     250 * time.Millisecond,
	}
}

// PlaybackService owns the audio pipeline: engine, mixer, visualization ring and output.
// It starts and stops the output and watches the callback counters.
//
// The control methods are thread-safe via sync.RWMutex. None of them is ever called
// from the audio callback, and the callback never takes the mutex.
type PlaybackService struct {
	// Dependencies (injected)
	logger *slog.Logger
	engine ports.SynthEngine
	output ports.AudioOutput
	bus    ports.EventBus

	// Pipeline
	mixer  *pipeline.Mixer
	ring   *pipeline.Ring
	stream *pipeline.Stream
	format domain.StreamFormat

	// State
	status          domain.PlaybackStatus
	shutdown        bool
	monitorInterval time.Duration
	lastStarved     uint64

	// Concurrency control
	mu          sync.RWMutex
	stopMonitor chan struct{}
	monitorWg   sync.WaitGroup
}

// NewPlaybackService builds the pipeline for the given engine and output.
// The output must use the engine's channel layout.
func NewPlaybackService(
	logger *slog.Logger,
	engine ports.SynthEngine,
	output ports.AudioOutput,
	bus ports.EventBus,
	cfg PlaybackConfig,
) (*PlaybackService, error) {
	if output.Channels() != engine.Channels() {
		return nil, domain.NewServiceError("PlaybackService", "new",
			"output has a different channel count than the engine", domain.ErrFormatMismatch)
	}

	mixer, err := pipeline.NewMixer(engine)
	if err != nil {
		return nil, domain.NewServiceError("PlaybackService", "new", "failed to create mixer", err)
	}

	ring, err := pipeline.NewRing(cfg.VisualizationLength)
	if err != nil {
		return nil, domain.NewServiceError("PlaybackService", "new", "failed to create visualization ring", err)
	}

	interval := cfg.MonitorInterval
	if interval <= 0 {
		interval = DefaultPlaybackConfig().MonitorInterval
	}

	s := &PlaybackService{
		logger: logger,
		engine: engine,
		output: output,
		bus:    bus,
		mixer:  mixer,
		ring:   ring,
		stream: pipeline.NewStream(mixer, ring),
		format: domain.StreamFormat{
			SampleRate: output.SampleRate(),
			Channels:   mixer.Channels(),
			Chips:      mixer.Chips(),
		},
		monitorInterval: interval,
	}

	logger.Debug("playback service initialized",
		slog.String("format", s.format.String()),
		slog.Float64("volume_factor", float64(mixer.Volume())),
		slog.Int("visualization_length", ring.Len()))

	return s, nil
}

// Start starts the output pulling from the pipeline.
func (s *PlaybackService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return domain.ErrNotInitialized
	}
	if s.status == domain.StatusPlaying {
		return domain.ErrAlreadyRunning
	}

	if err := s.output.Start(s.stream); err != nil {
		s.logger.Debug("failed to start output", slog.Any("error", err))
		return domain.NewServiceError("PlaybackService", "start", "failed to start output", err)
	}

	s.status = domain.StatusPlaying
	s.lastStarved = s.stream.Stats().StarvedCallbacks
	s.startMonitor()

	s.logger.Info("playback started", slog.String("format", s.format.String()))
	s.bus.Publish(domain.NewPlaybackStartedEvent(s.format))

	return nil
}

// Stop stops the output. The mixer keeps its position, so a later Start resumes
// exactly where the stream left off.
func (s *PlaybackService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusPlaying {
		return domain.ErrNotRunning
	}
	return s.stopInternal()
}

// stopInternal stops the output and the monitor (caller must hold lock).
// The output goes first so the monitor's final check sees the final counters.
func (s *PlaybackService) stopInternal() error {
	err := s.output.Stop()
	s.stopMonitorRoutine()
	s.status = domain.StatusStopped

	stats := s.stream.Stats()
	s.logger.Info("playback stopped",
		slog.Uint64("callbacks", stats.Callbacks),
		slog.Uint64("frames", stats.FramesDelivered),
		slog.Uint64("starved", stats.StarvedCallbacks))
	s.bus.Publish(domain.NewPlaybackStoppedEvent(stats))

	if err != nil {
		return domain.NewServiceError("PlaybackService", "stop", "failed to stop output", err)
	}
	return nil
}

// Status returns the current playback status.
func (s *PlaybackService) Status() domain.PlaybackStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Format returns the stream format delivered to the output.
func (s *PlaybackService) Format() domain.StreamFormat {
	return s.format
}

// Stats returns the audio callback counters.
func (s *PlaybackService) Stats() domain.PipelineStats {
	return s.stream.Stats()
}

// Visualization returns the read side of the visualization ring.
func (s *PlaybackService) Visualization() ports.SnapshotReader {
	return s.ring
}

// Source returns the PCM source the output pulls from.
func (s *PlaybackService) Source() ports.PCMSource {
	return s.stream
}

// Shutdown stops playback if needed. The service cannot be started afterwards.
func (s *PlaybackService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return nil
	}
	s.shutdown = true

	if s.status == domain.StatusPlaying {
		return s.stopInternal()
	}
	return nil
}

// startMonitor starts the goroutine that reports starved callbacks (caller must hold lock).
func (s *PlaybackService) startMonitor() {
	stop := make(chan struct{})
	s.stopMonitor = stop
	s.monitorWg.Add(1)

	go func() {
		defer s.monitorWg.Done()
		ticker := time.NewTicker(s.monitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.checkStarvation()
			}
		}
	}()
}

// stopMonitorRoutine stops the monitor and waits for it (caller must hold lock).
// The monitor never takes the service mutex, so waiting here cannot deadlock.
func (s *PlaybackService) stopMonitorRoutine() {
	if s.stopMonitor == nil {
		return
	}
	close(s.stopMonitor)
	s.stopMonitor = nil
	s.monitorWg.Wait()

	// Report anything that happened since the last tick
	s.checkStarvation()
}

// checkStarvation publishes an event when callbacks were padded with silence since the
// previous check. Only the monitor goroutine or a lock holder with the monitor
// stopped calls this, so lastStarved needs no further guarding.
func (s *PlaybackService) checkStarvation() {
	total := s.stream.Stats().StarvedCallbacks
	if total <= s.lastStarved {
		return
	}

	delta := total - s.lastStarved
	s.lastStarved = total

	s.logger.Warn("engine starved, output padded with silence",
		slog.Uint64("callbacks", delta),
		slog.Uint64("total", total))
	s.bus.Publish(domain.NewEngineStarvedEvent(delta, total))
}
