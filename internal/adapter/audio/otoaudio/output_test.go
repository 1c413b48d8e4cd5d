package otoaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/sidtune/internal/ports"
)

// rampSource writes 1, 2, 3... and reports every sample as mixed.
type rampSource struct {
	calls  int
	frames int
}

func (r *rampSource) Process(out []int16, frames int) int {
	r.calls++
	r.frames = frames
	for i := range out {
		out[i] = int16(i + 1)
	}
	return len(out)
}

// newTestOutput builds an Output without opening a device; only Read is usable.
func newTestOutput(channels int, src ports.PCMSource) *Output {
	o := &Output{
		channels: channels,
		scratch:  make([]int16, 16),
	}
	if src != nil {
		o.source.Store(&src)
	}
	return o
}

func TestRead_SilenceWithoutSource(t *testing.T) {
	o := newTestOutput(2, nil)
	p := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	n, err := o.Read(p)

	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, make([]byte, 8), p)
}

func TestRead_EncodesLittleEndian(t *testing.T) {
	src := &rampSource{}
	o := newTestOutput(2, src)
	p := make([]byte, 8)

	n, err := o.Read(p)

	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, 2, src.frames)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0}, p)
}

func TestRead_PartialFrameIsSilence(t *testing.T) {
	src := &rampSource{}
	o := newTestOutput(2, src)
	p := []byte{9, 9, 9, 9, 9, 9}

	n, err := o.Read(p)

	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, 1, src.frames)
	assert.Equal(t, []byte{1, 0, 2, 0, 0, 0}, p)
}

func TestRead_GrowsScratch(t *testing.T) {
	src := &rampSource{}
	o := newTestOutput(1, src)
	p := make([]byte, 64)

	_, err := o.Read(p)

	require.NoError(t, err)
	assert.Equal(t, 32, src.frames)
	assert.GreaterOrEqual(t, len(o.scratch), 32)
	assert.Equal(t, []byte{32, 0}, p[62:])
}

func TestEncode_NegativeSamples(t *testing.T) {
	p := make([]byte, 6)

	encode(p, []int16{-1, -32768, 32767})

	assert.Equal(t, []byte{0xff, 0xff, 0x00, 0x80, 0xff, 0x7f}, p)
}
