package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/sidtune/internal/adapter/synth/mock"
	"github.com/tejashwikalptaru/sidtune/internal/domain"
)

func newTestStream(t *testing.T, chips, channels, window int) (*Stream, *Ring, *mock.Engine) {
	t.Helper()
	m, engine := newTestMixer(t, chips, channels, 32)
	ring := newTestRing(t, window)
	return NewStream(m, ring), ring, engine
}

func TestStream_ProcessFeedsRing(t *testing.T) {
	s, ring, _ := newTestStream(t, 2, 2, 64)
	out := make([]int16, 64)

	n := s.Process(out, 32)
	require.Equal(t, 64, n)

	snapshot := make([]int16, 64)
	require.Equal(t, 64, ring.Read(snapshot))
	assert.Equal(t, out, snapshot)
}

func TestStream_Stats(t *testing.T) {
	s, _, engine := newTestStream(t, 1, 2, 16)
	out := make([]int16, 40)

	s.Process(out, 20)
	s.Process(out, 5)

	engine.SetStalled(true)
	n := s.Process(out, 10)
	assert.Less(t, n, 20)

	assert.Equal(t, domain.PipelineStats{
		Callbacks:        3,
		FramesDelivered:  35,
		StarvedCallbacks: 1,
	}, s.Stats())
}

func TestStream_StarvedCallbackStillFeedsSilence(t *testing.T) {
	s, ring, engine := newTestStream(t, 3, 1, 8)
	engine.SetStalled(true)
	out := filled(8)

	assert.Equal(t, 0, s.Process(out, 8))

	snapshot := filled(8)
	require.Equal(t, 8, ring.Read(snapshot))
	assert.Equal(t, make([]int16, 8), snapshot)
}

func TestStream_DoesNotAllocate(t *testing.T) {
	s, _, _ := newTestStream(t, 3, 2, 2048)
	out := make([]int16, 1024)

	allocs := testing.AllocsPerRun(100, func() {
		s.Process(out, 512)
	})
	assert.Zero(t, allocs)
}
