// Package ports define interfaces for dependency inversion.
// These interfaces keep the audio pipeline independent of the synthesis library and
// the output device backend.
package ports

// SynthEngine is the external synthesis engine the mixer pulls audio from.
//
// The engine owns its per-chip sample buffers. The mixer borrows them once and reads
// them between production calls; the contents are only valid until the next Play.
//
// Implementations are driven from a single goroutine (the audio callback) and need no
// internal locking for the methods below.
type SynthEngine interface {
	// InstalledChips returns how many chips are emulated (1-3).
	InstalledChips() int

	// Channels returns the output channel count the engine was configured for (1 or 2).
	Channels() int

	// ChipBuffers returns one sample buffer per installed chip.
	// The slices stay valid for the lifetime of the engine.
	ChipBuffers() [][]int16

	// Play runs the engine for the given number of emulated cycles and returns the
	// number of frames now available at the start of every chip buffer.
	Play(cycles uint32) int
}

// PCMSource produces interleaved signed 16-bit PCM on demand.
// This is what an AudioOutput pulls from inside its real-time callback.
type PCMSource interface {
	// Process fills out[:frames*channels] and returns the number of samples that
	// carry engine audio. Any remainder has been padded with silence.
	// Process must not allocate or block.
	Process(out []int16, frames int) int
}

// AudioOutput is the interface for audio output backends.
// This abstracts the device library (oto) and allows for headless testing.
//
// Implementations must be thread-safe for the control methods.
type AudioOutput interface {
	// Start begins pulling audio from src on the backend's own goroutine.
	//
	// Returns domain.ErrAlreadyRunning if the output is already started.
	Start(src PCMSource) error

	// Stop stops pulling audio. No new callback starts once Stop returns; the output
	// may be started again later with the same or another source.
	//
	// Returns domain.ErrNotRunning if the output was not started.
	Stop() error

	// Close releases the device. The output cannot be restarted afterwards.
	Close() error

	// SampleRate returns the device sample rate in Hz.
	SampleRate() int

	// Channels returns the device channel count.
	Channels() int
}

// SnapshotReader is the read side of the visualization ring.
type SnapshotReader interface {
	// Read copies the latest complete window into dst and returns its length,
	// or 0 if no complete window exists yet.
	Read(dst []int16) int

	// Len returns the window length.
	Len() int
}
