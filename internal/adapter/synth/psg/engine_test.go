package psg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user-none/go-chip-sn76489"

	"github.com/tejashwikalptaru/sidtune/internal/domain"
)

func singleVoiceConfig(v Voice) Config {
	return Config{
		Chips:      1,
		Channels:   1,
		SampleRate: 44100,
		ClockHz:    NTSCClock,
		Variant:    sn76489.Sega,
		Voices:     [][]Voice{{v}},
		Amplitude:  2000,
		MaxCycles:  60000,
	}
}

func TestNewEngine_Defaults(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 3, e.InstalledChips())
	assert.Equal(t, 2, e.Channels())
	require.Len(t, e.ChipBuffers(), 3)

	// 60000 cycles at the NTSC clock is 739 samples at 44.1 kHz, plus headroom
	for _, buf := range e.ChipBuffers() {
		assert.Len(t, buf, 741)
	}
}

func TestNewEngine_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no chips", func(c *Config) { c.Chips = 0 }, domain.ErrInvalidChipCount},
		{"too many chips", func(c *Config) { c.Chips = 4 }, domain.ErrInvalidChipCount},
		{"no channels", func(c *Config) { c.Channels = 0 }, domain.ErrInvalidChannelCount},
		{"surround", func(c *Config) { c.Channels = 6 }, domain.ErrInvalidChannelCount},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, domain.ErrInvalidLength},
		{"zero clock", func(c *Config) { c.ClockHz = 0 }, domain.ErrInvalidLength},
		{"zero max cycles", func(c *Config) { c.MaxCycles = 0 }, domain.ErrInvalidLength},
		{"four voices", func(c *Config) { c.Voices = [][]Voice{make([]Voice, 4)} }, domain.ErrInvalidVoice},
		{"attenuation", func(c *Config) { c.Voices = [][]Voice{{{Frequency: 440, Attenuation: 16}}} }, domain.ErrInvalidVoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			e, err := NewEngine(cfg)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewEngine_ProgramsRegisters(t *testing.T) {
	e, err := NewEngine(singleVoiceConfig(Voice{Frequency: 440, Attenuation: 4}))
	require.NoError(t, err)

	chip := e.chips[0]
	assert.Equal(t, uint16(254), chip.GetToneReg(0))
	assert.Equal(t, uint8(4), chip.GetVolume(0))
	assert.Equal(t, uint8(0x0F), chip.GetVolume(1), "unused channels stay silent")
	assert.Equal(t, uint8(0x0F), chip.GetVolume(3), "noise stays silent")
}

func TestToneRegister(t *testing.T) {
	assert.Equal(t, uint16(254), ToneRegister(NTSCClock, 440))
	assert.Equal(t, uint16(1023), ToneRegister(NTSCClock, 20), "low notes clamp to the 10-bit range")
	assert.Equal(t, uint16(1), ToneRegister(NTSCClock, 200000))
}

func TestPlay_FramesFollowCycleBudget(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	const calls = 100
	total := 0
	for i := 0; i < calls; i++ {
		n := e.Play(3000)
		assert.True(t, n == 36 || n == 37, "call %d produced %d frames", i, n)
		total += n
	}

	expected := float64(calls) * 3000 * 44100 / NTSCClock
	assert.InDelta(t, expected, float64(total), 1)
}

func TestPlay_SquareWaveIsCentered(t *testing.T) {
	e, err := NewEngine(singleVoiceConfig(Voice{Frequency: 440}))
	require.NoError(t, err)

	n := e.Play(60000)
	require.Greater(t, n, 700)

	var high, low int
	for _, s := range e.ChipBuffers()[0][:n] {
		switch s {
		case 1000:
			high++
		case -1000:
			low++
		default:
			t.Fatalf("unexpected sample %d", s)
		}
	}
	assert.Positive(t, high)
	assert.Positive(t, low)
}

func TestPlay_SilentChips(t *testing.T) {
	cfg := singleVoiceConfig(Voice{Frequency: 440, Attenuation: 15})
	cfg.Chips = 2
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	n := e.Play(10000)
	require.Positive(t, n)

	for chip, buf := range e.ChipBuffers() {
		assert.Equal(t, make([]int16, n), buf[:n], "chip %d", chip)
	}
}

func TestPlay_ClampsToMaxCycles(t *testing.T) {
	cfg := singleVoiceConfig(Voice{Frequency: 440})
	cfg.MaxCycles = 3000
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	assert.LessOrEqual(t, e.Play(1_000_000), 37)
}

func TestPlay_ZeroCycles(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 0, e.Play(0))
}

func TestPlay_DoesNotAllocate(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	allocs := testing.AllocsPerRun(50, func() {
		e.Play(3000)
	})
	assert.Zero(t, allocs)
}
