// Package domain contains core models of the sidtune player with no external dependencies.
package domain

import (
	"fmt"
	"time"
)

// Chip and channel limits accepted by the mixer.
const (
	MinChips    = 1
	MaxChips    = 3
	MinChannels = 1
	MaxChannels = 2
)

// StreamFormat describes the interleaved 16-bit PCM stream delivered to the output device.
type StreamFormat struct {
	// SampleRate is the output rate in Hz (e.g., 44100)
	SampleRate int

	// Channels is 1 (mono) or 2 (interleaved stereo)
	Channels int

	// Chips is the number of synthesis chips summed into each frame
	Chips int
}

// FrameDuration returns how long the given number of frames plays for.
func (f StreamFormat) FrameDuration(frames int) time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// FramesFor returns the number of frames that cover the given duration.
func (f StreamFormat) FramesFor(d time.Duration) int {
	return int(int64(d) * int64(f.SampleRate) / int64(time.Second))
}

// String implements fmt.Stringer.
func (f StreamFormat) String() string {
	return fmt.Sprintf("%dHz/%dch/%dchip", f.SampleRate, f.Channels, f.Chips)
}

// PlaybackStatus represents the current state of the audio pipeline.
type PlaybackStatus int

const (
	// StatusStopped indicates the output is not pulling audio.
	StatusStopped PlaybackStatus = iota

	// StatusPlaying indicates the output is actively pulling audio.
	StatusPlaying
)

// String returns a string representation of the playback status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusStopped:
		return "Stopped"
	case StatusPlaying:
		return "Playing"
	default:
		return "Unknown"
	}
}

// PipelineStats are counters maintained by the audio callback.
type PipelineStats struct {
	// Callbacks is the number of times the output pulled audio
	Callbacks uint64

	// FramesDelivered is the number of frames handed to the output device
	FramesDelivered uint64

	// StarvedCallbacks counts callbacks padded with silence because the engine produced nothing
	StarvedCallbacks uint64
}

// VisualizationFrame is a summary of one visualization snapshot.
type VisualizationFrame struct {
	// Samples is the snapshot length, 0 before the first complete window
	Samples int

	// Peak is the largest absolute sample normalized to 0..1
	Peak float64

	// RMS is the root-mean-square level normalized to 0..1
	RMS float64

	// CapturedAt is when the snapshot was read
	CapturedAt time.Time
}
