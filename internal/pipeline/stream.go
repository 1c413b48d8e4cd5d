package pipeline

import (
	"sync/atomic"

	"github.com/tejashwikalptaru/sidtune/internal/domain"
	"github.com/tejashwikalptaru/sidtune/internal/ports"
)

// Stream is the PCMSource an audio output pulls from.
// Every callback mixes fresh engine audio into the output buffer and pushes the same
// samples into the visualization ring.
type Stream struct {
	mixer *Mixer
	ring  *Ring

	callbacks atomic.Uint64
	frames    atomic.Uint64
	starved   atomic.Uint64
}

// NewStream connects a mixer to a visualization ring.
func NewStream(mixer *Mixer, ring *Ring) *Stream {
	return &Stream{
		mixer: mixer,
		ring:  ring,
	}
}

// Process implements ports.PCMSource.
func (s *Stream) Process(out []int16, frames int) int {
	want := s.mixer.samplesFor(len(out), frames)
	mixed := s.mixer.FillBuffer(out, frames)

	s.ring.Write(out[:want])

	s.callbacks.Add(1)
	s.frames.Add(uint64(want / s.mixer.channels))
	if mixed < want {
		s.starved.Add(1)
	}
	return mixed
}

// Stats returns a snapshot of the callback counters.
func (s *Stream) Stats() domain.PipelineStats {
	return domain.PipelineStats{
		Callbacks:        s.callbacks.Load(),
		FramesDelivered:  s.frames.Load(),
		StarvedCallbacks: s.starved.Load(),
	}
}

// Verify that Stream implements the PCMSource interface
var _ ports.PCMSource = (*Stream)(nil)

// Verify that Ring implements the SnapshotReader interface
var _ ports.SnapshotReader = (*Ring)(nil)
