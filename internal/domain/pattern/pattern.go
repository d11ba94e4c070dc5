// Package pattern defines alarm signal patterns and their synthesis to PCM audio.
package pattern

// Kind identifies the type of a pattern segment.
type Kind int

const (
	KindSilence Kind = iota // No output
	KindTone                // Constant frequency
	KindSweep               // Linear frequency sweep
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSilence:
		return "silence"
	case KindTone:
		return "tone"
	case KindSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// Segment is one piece of a pattern: a span of silence, a constant tone,
// or a linear sweep between two frequencies.
type Segment struct {
	Kind    Kind
	Seconds float64
	From    float64 // Start frequency in Hz (zero for silence)
	To      float64 // End frequency in Hz (equal to From for tones)
}

// Silence returns a silent segment.
func Silence(seconds float64) Segment {
	return Segment{Kind: KindSilence, Seconds: seconds}
}

// Tone returns a constant-frequency segment.
func Tone(seconds, freq float64) Segment {
	return Segment{Kind: KindTone, Seconds: seconds, From: freq, To: freq}
}

// Sweep returns a segment whose frequency moves linearly from one value to another.
func Sweep(seconds, from, to float64) Segment {
	return Segment{Kind: KindSweep, Seconds: seconds, From: from, To: to}
}

// Pattern is an ordered sequence of segments.
type Pattern []Segment

// Built-in alarm patterns.
var (
	// Flood is a slow rise-and-fall wail.
	Flood = Pattern{
		Sweep(1.2, 450, 1000),
		Sweep(1.2, 1000, 450),
	}

	// Earthquake is three short rising whoops followed by a long pause.
	Earthquake = Pattern{
		Sweep(0.5, 600, 1600), Silence(0.15),
		Sweep(0.5, 600, 1600), Silence(0.15),
		Sweep(0.5, 600, 1600), Silence(1.2),
	}

	// Placeholder is the stand-in sound for the custom mode before any upload.
	Placeholder = Pattern{
		Tone(1.0, 800),
		Silence(0.3),
	}
)

// Builtin returns the built-in pattern with the given name.
func Builtin(name string) (Pattern, bool) {
	switch name {
	case "flood":
		return Flood, true
	case "earthquake":
		return Earthquake, true
	default:
		return nil, false
	}
}

// Format describes the PCM layout the synthesizer emits and the transcoder
// normalizes uploads to. Loop and announcement audio share one format so
// they are acoustically consistent on the output device.
type Format struct {
	SampleRate int
	BitDepth   int // Bits per sample: 16, 24 or 32, signed little-endian
	Channels   int
}

// DefaultFormat is CD-rate stereo 16-bit, matching the original deployment.
var DefaultFormat = Format{SampleRate: 44100, BitDepth: 16, Channels: 2}

// FrameSize returns the number of bytes per frame (one sample per channel).
func (f Format) FrameSize() int {
	return f.BitDepth / 8 * f.Channels
}

// Frames returns the exact number of frames the pattern synthesizes to at
// the format's sample rate: per segment, duration times rate rounded down.
func (p Pattern) Frames(f Format) int {
	total := 0
	for _, seg := range p {
		total += int(seg.Seconds * float64(f.SampleRate))
	}
	return total
}
