// Package psg provides a SynthEngine backed by SN76489 programmable sound generators.
// Each installed chip is an emulated SN76489 whose tone channels are programmed once
// with a fixed set of voices; Play clocks every chip by the same cycle budget.
package psg

import (
	"math"

	"github.com/user-none/go-chip-sn76489"

	"github.com/tejashwikalptaru/sidtune/internal/domain"
	"github.com/tejashwikalptaru/sidtune/internal/ports"
)

// NTSCClock is the SN76489 clock of NTSC Master System and Genesis consoles in Hz.
const NTSCClock = 3579545

// Register limits of the chip.
const (
	maxVoices      = 3 // tone channels per chip
	maxToneReg     = 0x3FF
	maxAttenuation = 0x0F
)

// Voice is one tone channel of a chip.
type Voice struct {
	// Frequency in Hz; zero or negative leaves the channel silent
	Frequency float64

	// Attenuation in 2 dB steps, 0 is loudest and 15 is off
	Attenuation uint8
}

// Config contains configuration for creating a PSG engine.
type Config struct {
	// Chips is the number of emulated chips (1-3)
	Chips int

	// Channels is the output channel count (1 or 2)
	Channels int

	// SampleRate is the output sample rate in Hz
	SampleRate int

	// ClockHz is the chip input clock in Hz
	ClockHz int

	// Variant selects the TI or Sega noise and tone-zero behavior
	Variant sn76489.Config

	// Voices holds up to three voices per chip; chips without an entry stay silent
	Voices [][]Voice

	// Amplitude is the peak-to-peak swing of one voice at full volume
	Amplitude int16

	// MaxCycles bounds a single Play call and sizes the chip buffers
	MaxCycles uint32
}

// DefaultConfig returns three chips playing an A minor chord at 44.1 kHz.
func DefaultConfig() Config {
	return Config{
		Chips:      3,
		Channels:   2,
		SampleRate: 44100,
		ClockHz:    NTSCClock,
		Variant:    sn76489.Sega,
		Voices: [][]Voice{
			{{Frequency: 220.0}},
			{{Frequency: 261.63, Attenuation: 2}},
			{{Frequency: 329.63, Attenuation: 2}},
		},
		Amplitude: 8000,
		MaxCycles: 60000,
	}
}

// Engine is the SN76489 implementation of the SynthEngine interface.
//
// Thread-safety: Play must only be called from one goroutine.
type Engine struct {
	channels  int
	maxCycles uint32

	chips []*sn76489.SN76489

	// centers removes the DC offset of the chip's unipolar output, per chip
	centers []float32
	buffers [][]int16
}

// NewEngine creates the chips and programs their voices.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Chips < domain.MinChips || cfg.Chips > domain.MaxChips {
		return nil, domain.NewValidationError("chips", cfg.Chips, domain.ErrInvalidChipCount)
	}
	if cfg.Channels < domain.MinChannels || cfg.Channels > domain.MaxChannels {
		return nil, domain.NewValidationError("channels", cfg.Channels, domain.ErrInvalidChannelCount)
	}
	if cfg.SampleRate <= 0 {
		return nil, domain.NewValidationError("sample_rate", cfg.SampleRate, domain.ErrInvalidLength)
	}
	if cfg.ClockHz <= 0 {
		return nil, domain.NewValidationError("clock_hz", cfg.ClockHz, domain.ErrInvalidLength)
	}
	if cfg.MaxCycles == 0 {
		return nil, domain.NewValidationError("max_cycles", cfg.MaxCycles, domain.ErrInvalidLength)
	}
	for _, voices := range cfg.Voices {
		if len(voices) > maxVoices {
			return nil, domain.NewValidationError("voices", len(voices), domain.ErrInvalidVoice)
		}
		for _, v := range voices {
			if v.Attenuation > maxAttenuation {
				return nil, domain.NewValidationError("attenuation", v.Attenuation, domain.ErrInvalidVoice)
			}
		}
	}

	// the chip's fractional clock counter can yield one sample more than the floor
	capacity := int(uint64(cfg.MaxCycles)*uint64(cfg.SampleRate)/uint64(cfg.ClockHz)) + 2

	e := &Engine{
		channels:  cfg.Channels,
		maxCycles: cfg.MaxCycles,
		chips:     make([]*sn76489.SN76489, cfg.Chips),
		centers:   make([]float32, cfg.Chips),
		buffers:   make([][]int16, cfg.Chips),
	}

	gain := float32(cfg.Amplitude)
	volumes := sn76489.GetVolumeTable()
	for i := range e.chips {
		chip := sn76489.New(cfg.ClockHz, cfg.SampleRate, capacity, cfg.Variant)
		chip.SetGain(gain)

		var level float32
		if i < len(cfg.Voices) {
			for ch, v := range cfg.Voices[i] {
				if v.Frequency <= 0 {
					continue
				}
				program(chip, uint8(ch), ToneRegister(cfg.ClockHz, v.Frequency), v.Attenuation)
				level += volumes[v.Attenuation]
			}
		}

		e.chips[i] = chip
		e.centers[i] = level * gain / 2
		e.buffers[i] = make([]int16, capacity)
	}

	return e, nil
}

// ToneRegister returns the 10-bit divider that makes a tone channel play freq.
func ToneRegister(clockHz int, freq float64) uint16 {
	n := math.Round(float64(clockHz) / (32 * freq))
	return uint16(max(1, min(n, maxToneReg)))
}

// program latches a tone divider and a volume into one tone channel.
func program(chip *sn76489.SN76489, ch uint8, tone uint16, attenuation uint8) {
	chip.Write(0x80 | ch<<5 | uint8(tone&0x0F))
	chip.Write(uint8(tone>>4) & 0x3F)
	chip.Write(0x90 | ch<<5 | attenuation&maxAttenuation)
}

// InstalledChips returns the number of chips.
func (e *Engine) InstalledChips() int {
	return len(e.chips)
}

// Channels returns the output channel count.
func (e *Engine) Channels() int {
	return e.channels
}

// ChipBuffers returns the per-chip sample buffers.
func (e *Engine) ChipBuffers() [][]int16 {
	return e.buffers
}

// Play clocks every chip by cycles and returns the number of frames produced.
func (e *Engine) Play(cycles uint32) int {
	cycles = min(cycles, e.maxCycles)

	n := len(e.buffers[0])
	for i, chip := range e.chips {
		chip.GenerateSamples(int(cycles))
		mixed, count := chip.GetBuffer()

		out := e.buffers[i]
		count = min(count, len(out))
		center := e.centers[i]
		for j := 0; j < count; j++ {
			out[j] = int16(mixed[j] - center)
		}
		n = min(n, count)
	}

	return n
}

// Verify that Engine implements the SynthEngine interface
var _ ports.SynthEngine = (*Engine)(nil)
