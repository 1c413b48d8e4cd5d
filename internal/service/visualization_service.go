package service

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tejashwikalptaru/sidtune/internal/domain"
	"github.com/tejashwikalptaru/sidtune/internal/ports"
)

// VisualizationService polls the visualization ring on its own timer, independent of
// the audio callback, and turns each snapshot into peak and RMS levels for display.
//
// Thread-safety: This implementation is thread-safe.
type VisualizationService struct {
	// Dependencies (injected)
	logger *slog.Logger
	reader ports.SnapshotReader
	bus    ports.EventBus

	interval time.Duration

	// snapshot is reused for every poll; pollMu serializes polls
	snapshot []int16
	pollMu   sync.Mutex

	// State
	latest  domain.VisualizationFrame
	running bool
	mu      sync.RWMutex
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewVisualizationService creates a poller for the given snapshot reader.
func NewVisualizationService(
	logger *slog.Logger,
	reader ports.SnapshotReader,
	bus ports.EventBus,
	interval time.Duration,
) *VisualizationService {
	if interval <= 0 {
		interval = 33 * time.Millisecond // ~30 fps
	}

	s := &VisualizationService{
		logger:   logger,
		reader:   reader,
		bus:      bus,
		interval: interval,
		snapshot: make([]int16, reader.Len()),
	}

	logger.Debug("visualization service initialized",
		slog.Int("window", reader.Len()),
		slog.Duration("interval", interval))

	return s
}

// Start begins periodic polling.
func (s *VisualizationService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return domain.ErrAlreadyRunning
	}

	s.stop = make(chan struct{})
	s.running = true
	s.wg.Add(1)
	go s.pollLoop(s.stop)

	return nil
}

// Stop stops polling and waits for the poller to exit.
func (s *VisualizationService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	close(s.stop)
	s.running = false
	s.mu.Unlock()

	// Poll takes mu to store its frame, so wait without holding it
	s.wg.Wait()
	return nil
}

// Shutdown stops polling if it is running.
func (s *VisualizationService) Shutdown() error {
	if err := s.Stop(); err != nil && !errors.Is(err, domain.ErrNotRunning) {
		return err
	}
	return nil
}

// Latest returns the most recent frame.
func (s *VisualizationService) Latest() domain.VisualizationFrame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Poll takes one snapshot, stores it as the latest frame and publishes it.
// A reader with no complete window yet yields a frame with zero samples.
func (s *VisualizationService) Poll() domain.VisualizationFrame {
	s.pollMu.Lock()
	n := s.reader.Read(s.snapshot)
	peak, rms := Levels(s.snapshot[:n])
	s.pollMu.Unlock()

	frame := domain.VisualizationFrame{
		Samples:    n,
		Peak:       peak,
		RMS:        rms,
		CapturedAt: time.Now(),
	}

	s.mu.Lock()
	s.latest = frame
	s.mu.Unlock()

	s.bus.Publish(domain.NewVisualizationUpdatedEvent(frame))
	return frame
}

func (s *VisualizationService) pollLoop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Poll()
		}
	}
}

// Levels returns the peak and RMS of samples, both normalized to 0..1.
func Levels(samples []int16) (peak, rms float64) {
	if len(samples) == 0 {
		return 0, 0
	}

	var maxAbs int32
	var sumSquares float64
	for _, s := range samples {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		maxAbs = max(maxAbs, v)
		sumSquares += float64(s) * float64(s)
	}

	const fullScale = -math.MinInt16
	peak = math.Min(float64(maxAbs)/fullScale, 1)
	rms = math.Sqrt(sumSquares/float64(len(samples))) / fullScale
	return peak, rms
}
