package pattern

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_FrameCount(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		format  Format
	}{
		{
			name:    "Single tone at 8kHz mono",
			pattern: Pattern{Tone(1.0, 440)},
			format:  Format{SampleRate: 8000, BitDepth: 16, Channels: 1},
		},
		{
			name:    "Flood at 44.1kHz stereo",
			pattern: Flood,
			format:  Format{SampleRate: 44100, BitDepth: 16, Channels: 2},
		},
		{
			name:    "Earthquake at 48kHz 24-bit",
			pattern: Earthquake,
			format:  Format{SampleRate: 48000, BitDepth: 24, Channels: 2},
		},
		{
			name:    "Placeholder at 22.05kHz 32-bit mono",
			pattern: Placeholder,
			format:  Format{SampleRate: 22050, BitDepth: 32, Channels: 1},
		},
		{
			name:    "Fractional durations round down",
			pattern: Pattern{Silence(0.0001), Tone(0.9999, 500)},
			format:  Format{SampleRate: 44100, BitDepth: 16, Channels: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcm, err := Synthesize(tt.pattern, tt.format, DefaultAmplitude)
			require.NoError(t, err)

			assert.Equal(t, tt.pattern.Frames(tt.format)*tt.format.FrameSize(), len(pcm))
		})
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	f := Format{SampleRate: 44100, BitDepth: 16, Channels: 2}

	a, err := Synthesize(Earthquake, f, DefaultAmplitude)
	require.NoError(t, err)
	b, err := Synthesize(Earthquake, f, DefaultAmplitude)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a, b), "identical inputs must produce byte-identical output")
}

func TestSynthesize_SilenceIsZero(t *testing.T) {
	f := Format{SampleRate: 8000, BitDepth: 16, Channels: 2}

	pcm, err := Synthesize(Pattern{Silence(0.5)}, f, DefaultAmplitude)
	require.NoError(t, err)
	require.Len(t, pcm, 4000*f.FrameSize())

	for i, b := range pcm {
		require.Zerof(t, b, "byte %d not zero", i)
	}
}

func TestSynthesize_ToneMatchesFormula(t *testing.T) {
	f := Format{SampleRate: 1000, BitDepth: 16, Channels: 1}
	const freq, amplitude = 100.0, 0.75

	pcm, err := Synthesize(Pattern{Tone(0.1, freq)}, f, amplitude)
	require.NoError(t, err)
	require.Len(t, pcm, 200)

	peak := amplitude * 32767
	for i := 0; i < 100; i++ {
		want := int16(peak * math.Sin(2*math.Pi*freq*float64(i)/1000))
		got := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		require.Equalf(t, want, got, "sample %d", i)
	}
}

func TestSynthesize_SweepEndpoints(t *testing.T) {
	f := Format{SampleRate: 1000, BitDepth: 16, Channels: 1}
	const f0, f1, amplitude = 200.0, 800.0, 0.75
	seg := Sweep(0.1, f0, f1) // 100 frames

	pcm, err := Synthesize(Pattern{seg}, f, amplitude)
	require.NoError(t, err)
	require.Len(t, pcm, 200)

	peak := amplitude * 32767
	n := 100.0
	for i := 0; i < 100; i++ {
		freq := f0 + (f1-f0)*float64(i)/(n-1)
		want := int16(peak * math.Sin(2*math.Pi*freq*float64(i)/1000))
		got := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		require.Equalf(t, want, got, "sample %d", i)
	}

	// Frequency interpolation hits the exact endpoints.
	assert.Equal(t, f0, f0+(f1-f0)*0/(n-1))
	assert.Equal(t, f1, f0+(f1-f0)*(n-1)/(n-1))
}

func TestSynthesize_SweepEqualFrequenciesMatchesTone(t *testing.T) {
	f := Format{SampleRate: 8000, BitDepth: 16, Channels: 2}

	sweep, err := Synthesize(Pattern{Sweep(0.25, 600, 600)}, f, DefaultAmplitude)
	require.NoError(t, err)
	tone, err := Synthesize(Pattern{Tone(0.25, 600)}, f, DefaultAmplitude)
	require.NoError(t, err)

	assert.Equal(t, tone, sweep)
}

func TestSynthesize_SingleSampleSweep(t *testing.T) {
	// One-frame segment: the interpolation divisor must not be zero.
	f := Format{SampleRate: 1000, BitDepth: 16, Channels: 1}

	pcm, err := Synthesize(Pattern{Sweep(0.001, 400, 900)}, f, DefaultAmplitude)
	require.NoError(t, err)
	assert.Len(t, pcm, 2)
}

func TestSynthesize_ChannelFanOut(t *testing.T) {
	f := Format{SampleRate: 8000, BitDepth: 16, Channels: 4}

	pcm, err := Synthesize(Pattern{Sweep(0.1, 300, 700)}, f, DefaultAmplitude)
	require.NoError(t, err)

	for off := 0; off < len(pcm); off += f.FrameSize() {
		first := pcm[off : off+2]
		for ch := 1; ch < f.Channels; ch++ {
			require.Equal(t, first, pcm[off+ch*2:off+ch*2+2], "channels must carry the same signal")
		}
	}
}

func TestSynthesize_AmplitudeHeadroom(t *testing.T) {
	f := Format{SampleRate: 44100, BitDepth: 16, Channels: 1}

	pcm, err := Synthesize(Flood, f, 0.75)
	require.NoError(t, err)

	limit := int16(math.Ceil(0.75 * 32767))
	for i := 0; i < len(pcm); i += 2 {
		v := int16(binary.LittleEndian.Uint16(pcm[i:]))
		if v < 0 {
			v = -v
		}
		require.LessOrEqual(t, v, limit)
	}
}

func TestSynthesize_InvalidInputs(t *testing.T) {
	valid := Format{SampleRate: 44100, BitDepth: 16, Channels: 2}

	tests := []struct {
		name      string
		format    Format
		amplitude float64
	}{
		{"Zero sample rate", Format{SampleRate: 0, BitDepth: 16, Channels: 2}, 0.75},
		{"Unsupported bit depth", Format{SampleRate: 44100, BitDepth: 8, Channels: 2}, 0.75},
		{"Zero channels", Format{SampleRate: 44100, BitDepth: 16, Channels: 0}, 0.75},
		{"Zero amplitude", valid, 0},
		{"Amplitude above full scale", valid, 1.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Synthesize(Flood, tt.format, tt.amplitude)
			assert.Error(t, err)
		})
	}
}

func TestBuiltin(t *testing.T) {
	p, ok := Builtin("flood")
	require.True(t, ok)
	assert.Equal(t, Flood, p)

	p, ok = Builtin("earthquake")
	require.True(t, ok)
	assert.Equal(t, Earthquake, p)

	_, ok = Builtin("tsunami")
	assert.False(t, ok)
}
