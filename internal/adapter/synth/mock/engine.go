// Package mock provides a scripted implementation of the SynthEngine interface.
// This is used for testing the pipeline without a real synthesis library.
package mock

import (
	"sync"

	"github.com/tejashwikalptaru/sidtune/internal/ports"
)

// Engine is a mock synthesis engine.
// Each Play call produces the next chunk length from a script and fills every chip
// buffer with a deterministic pattern, so tests can predict the mixed output.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Configuration
	chips    int
	channels int
	buffers  [][]int16

	// Behavior configuration (for testing edge cases)
	script    []int
	scriptPos int
	constant  bool
	value     int16
	stalled   bool

	// State
	produced   int // frames produced so far, drives the sample pattern
	playCalls  int
	lastCycles uint32

	mu sync.Mutex
}

// NewEngine creates a new mock engine with the given layout.
// capacity is the length of each chip buffer, and by default every Play fills it.
func NewEngine(chips, channels, capacity int) *Engine {
	buffers := make([][]int16, chips)
	for i := range buffers {
		buffers[i] = make([]int16, capacity)
	}

	return &Engine{
		chips:    chips,
		channels: channels,
		buffers:  buffers,
		script:   []int{capacity},
	}
}

// SetChunkScript sets the chunk lengths returned by successive Play calls.
// The script repeats once exhausted. Lengths larger than the buffer are clamped.
func (e *Engine) SetChunkScript(lengths ...int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(lengths) == 0 {
		lengths = []int{e.capacity()}
	}
	e.script = append([]int(nil), lengths...)
	e.scriptPos = 0
}

// SetConstant makes every chip output the same value on every frame.
func (e *Engine) SetConstant(value int16) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.constant = true
	e.value = value
}

// SetStalled makes Play return 0 until cleared (for testing starvation).
func (e *Engine) SetStalled(stalled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stalled = stalled
}

// InstalledChips returns the configured chip count.
func (e *Engine) InstalledChips() int {
	return e.chips
}

// Channels returns the configured channel count.
func (e *Engine) Channels() int {
	return e.channels
}

// ChipBuffers returns the per-chip buffers.
func (e *Engine) ChipBuffers() [][]int16 {
	return e.buffers
}

// Play produces the next scripted chunk.
func (e *Engine) Play(cycles uint32) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.playCalls++
	e.lastCycles = cycles

	if e.stalled {
		return 0
	}

	n := e.script[e.scriptPos%len(e.script)]
	e.scriptPos++
	n = max(0, min(n, e.capacity()))

	for chip, buf := range e.buffers {
		for i := 0; i < n; i++ {
			if e.constant {
				buf[i] = e.value
			} else {
				buf[i] = SampleAt(chip, e.produced+i)
			}
		}
	}
	e.produced += n

	return n
}

// PlayCalls returns the number of Play calls so far (for testing).
func (e *Engine) PlayCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playCalls
}

// LastCycles returns the cycle budget of the most recent Play call (for testing).
func (e *Engine) LastCycles() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCycles
}

// FramesProduced returns the total number of frames produced (for testing).
func (e *Engine) FramesProduced() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.produced
}

func (e *Engine) capacity() int {
	if len(e.buffers) == 0 {
		return 0
	}
	return len(e.buffers[0])
}

// SampleAt is the pattern value the engine writes for a chip at an absolute frame.
// Values stay well inside the 16-bit range so sums of three chips never clip.
func SampleAt(chip, frame int) int16 {
	return int16((frame*37+chip*4099)%16001 - 8000)
}

// Verify that Engine implements the SynthEngine interface
var _ ports.SynthEngine = (*Engine)(nil)
