package pattern

import (
	"math"

	"github.com/cockroachdb/errors"
)

// DefaultAmplitude scales peak output to 75% of full scale, leaving
// headroom so no sample can wrap around.
const DefaultAmplitude = 0.75

// Synthesize renders the pattern to raw PCM frames in the given format.
// The mono signal is fanned out identically to every channel. Identical
// inputs always produce byte-identical output.
func Synthesize(p Pattern, f Format, amplitude float64) ([]byte, error) {
	if err := validateFormat(f); err != nil {
		return nil, err
	}
	if amplitude <= 0 || amplitude > 1 {
		return nil, errors.Newf("amplitude must be in (0, 1], got %v", amplitude)
	}

	width := f.BitDepth / 8
	limit := int64(1)<<(f.BitDepth-1) - 1
	peak := float64(limit) * amplitude

	buf := make([]byte, 0, p.Frames(f)*f.FrameSize())
	frame := make([]byte, f.FrameSize())

	for _, seg := range p {
		n := int(seg.Seconds * float64(f.SampleRate))
		for i := 0; i < n; i++ {
			var val int64
			if seg.Kind != KindSilence {
				t := float64(i) / float64(f.SampleRate)
				freq := seg.From
				if seg.Kind == KindSweep {
					// Guard against division by zero for single-sample segments.
					freq = seg.From + (seg.To-seg.From)*float64(i)/math.Max(1, float64(n-1))
				}
				val = clip(int64(peak*math.Sin(2*math.Pi*freq*t)), limit)
			}
			for ch := 0; ch < f.Channels; ch++ {
				putSample(frame[ch*width:], val, width)
			}
			buf = append(buf, frame...)
		}
	}

	return buf, nil
}

func validateFormat(f Format) error {
	if f.SampleRate <= 0 {
		return errors.Newf("sample rate must be positive, got %d", f.SampleRate)
	}
	switch f.BitDepth {
	case 16, 24, 32:
	default:
		return errors.Newf("unsupported bit depth %d", f.BitDepth)
	}
	if f.Channels < 1 {
		return errors.Newf("channel count must be positive, got %d", f.Channels)
	}
	return nil
}

func clip(v, limit int64) int64 {
	if v > limit {
		return limit
	}
	if v < -limit-1 {
		return -limit - 1
	}
	return v
}

// putSample writes a signed little-endian sample of the given byte width.
func putSample(dst []byte, v int64, width int) {
	for b := 0; b < width; b++ {
		dst[b] = byte(v >> (8 * b))
	}
}
