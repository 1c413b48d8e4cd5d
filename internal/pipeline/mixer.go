// Package pipeline implements the real-time audio production path: the Mixer that
// downmixes per-chip engine output into interleaved 16-bit PCM, the visualization Ring
// that publishes the most recent complete window to a reader on another goroutine, and
// the Stream that ties both to an audio output callback.
//
// Nothing in this package allocates, locks or logs on the audio path.
package pipeline

import (
	"math"

	"github.com/tejashwikalptaru/sidtune/internal/domain"
	"github.com/tejashwikalptaru/sidtune/internal/ports"
)

// CycleBudget is the number of engine cycles run per production call.
// That is roughly 3 ms of emulated time at a 1 MHz chip clock and under 1 ms at the
// 3.58 MHz PSG clock.
const CycleBudget uint32 = 3000

// Mixer pulls chunks from a synthesis engine and sums its chips into the output layout.
//
// Thread-safety: a Mixer is owned by the audio callback goroutine. FillBuffer must not
// be called concurrently.
type Mixer struct {
	engine ports.SynthEngine

	// chips are borrowed from the engine; contents are valid until the next Play
	chips    [][]int16
	capacity int // shortest chip buffer, upper bound for a chunk

	channels int
	volume   float32

	// cursor into the current chunk; the only state that survives between calls
	position int
	length   int
}

// NewMixer creates a mixer for the given engine.
// Chip and channel counts are queried once and frozen, as is the volume factor.
func NewMixer(engine ports.SynthEngine) (*Mixer, error) {
	chips := engine.InstalledChips()
	if chips < domain.MinChips || chips > domain.MaxChips {
		return nil, domain.NewValidationError("chips", chips, domain.ErrInvalidChipCount)
	}

	channels := engine.Channels()
	if channels < domain.MinChannels || channels > domain.MaxChannels {
		return nil, domain.NewValidationError("channels", channels, domain.ErrInvalidChannelCount)
	}

	buffers := engine.ChipBuffers()
	if len(buffers) < chips {
		return nil, domain.NewValidationError("chip_buffers", len(buffers), domain.ErrMissingChipBuffer)
	}
	buffers = buffers[:chips]

	capacity := len(buffers[0])
	for _, buf := range buffers[1:] {
		capacity = min(capacity, len(buf))
	}
	if capacity == 0 {
		return nil, domain.NewValidationError("chip_buffers", 0, domain.ErrInvalidLength)
	}

	return &Mixer{
		engine:   engine,
		chips:    buffers,
		capacity: capacity,
		channels: channels,
		volume:   VolumeFactor(chips),
	}, nil
}

// VolumeFactor returns the equal-power normalization for the given chip count:
// 1 for one chip, 1/√2 for two and 1/√3 for three.
func VolumeFactor(chips int) float32 {
	if chips <= 1 {
		return 1
	}
	return float32(1 / math.Sqrt(float64(chips)))
}

// Chips returns the number of chips being mixed.
func (m *Mixer) Chips() int {
	return len(m.chips)
}

// Channels returns the number of interleaved output channels.
func (m *Mixer) Channels() int {
	return m.channels
}

// Volume returns the frozen volume factor.
func (m *Mixer) Volume() float32 {
	return m.volume
}

// Pending returns the number of frames of the current chunk not yet consumed.
func (m *Mixer) Pending() int {
	return m.length - m.position
}

// FillBuffer writes exactly frames*channels interleaved samples into out and
// returns how many of them carry engine audio.
//
// The engine is asked for a new chunk whenever the previous one is used up; a chunk
// that does not fit is resumed on the next call. If the engine produces nothing the
// rest of the request is filled with silence and the call returns early instead of
// spinning. If out is shorter than requested, only whole frames that fit are written.
func (m *Mixer) FillBuffer(out []int16, frames int) int {
	want := m.samplesFor(len(out), frames)

	n := 0
	for n < want {
		if m.length == 0 {
			m.position = 0
			m.length = min(m.engine.Play(CycleBudget), m.capacity)
			if m.length <= 0 {
				m.length = 0
				break
			}
		}

		for m.position < m.length && n < want {
			s := m.mix(m.position)
			for ch := 0; ch < m.channels; ch++ {
				out[n+ch] = s
			}
			n += m.channels
			m.position++
		}

		if m.position >= m.length {
			m.position = 0
			m.length = 0
		}
	}

	clear(out[n:want])
	return n
}

// samplesFor returns the number of samples a FillBuffer call will write.
func (m *Mixer) samplesFor(outLen, frames int) int {
	if frames <= 0 {
		return 0
	}
	want := frames * m.channels
	if want > outLen {
		want = outLen - outLen%m.channels
	}
	return want
}

// mix sums one frame across all chips.
// The first chip is truncated, the others are rounded, accumulated in 32 bits.
func (m *Mixer) mix(pos int) int16 {
	sum := int32(float32(m.chips[0][pos]) * m.volume)
	for _, buf := range m.chips[1:] {
		sum += int32(math.Round(float64(float32(buf[pos]) * m.volume)))
	}
	return clip(sum)
}

// clip saturates a 32-bit sum to the 16-bit range.
func clip(x int32) int16 {
	return int16(max(min(x, math.MaxInt16), math.MinInt16))
}
