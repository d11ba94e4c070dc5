// Package gpio wires hardware buttons and the status LED to the controller
// through the Linux GPIO character device.
package gpio

import (
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	gpiocdev "github.com/warthog618/go-gpiocdev"
)

// Config holds GPIO wiring. Pin numbers are BCM line offsets on the chip.
type Config struct {
	Chip     string
	StartPin int // Toggle playback
	ModePin  int // Cycle modes
	LEDPin   int // Status indicator; negative disables it
	Debounce time.Duration
}

// Buttons holds the requested input lines.
type Buttons struct {
	lines []*gpiocdev.Line
}

// AttachButtons requests the two input lines and invokes the callbacks on
// button presses. Buttons are wired active-low with the internal pull-up,
// like the original hardware.
func AttachButtons(config Config, onToggle, onModeAdvance func()) (*Buttons, error) {
	b := &Buttons{}

	for _, in := range []struct {
		pin  int
		name string
		fn   func()
	}{
		{config.StartPin, "start", onToggle},
		{config.ModePin, "mode", onModeAdvance},
	} {
		fn := in.fn
		name := in.name
		line, err := gpiocdev.RequestLine(config.Chip, in.pin,
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithDebounce(config.Debounce),
			gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
				zlog.Debug().Str("button", name).Msg("button pressed")
				fn()
			}),
		)
		if err != nil {
			b.Close()
			return nil, errors.Wrapf(err, "request %s button on %s line %d", in.name, config.Chip, in.pin)
		}
		b.lines = append(b.lines, line)
	}

	return b, nil
}

// Close releases the input lines.
func (b *Buttons) Close() {
	for _, l := range b.lines {
		_ = l.Close()
	}
	b.lines = nil
}

// LED drives the status indicator line. It implements siren.Indicator.
type LED struct {
	line *gpiocdev.Line
}

// NewLED requests the indicator output line, initially off.
func NewLED(chip string, pin int) (*LED, error) {
	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, errors.Wrapf(err, "request LED on %s line %d", chip, pin)
	}
	return &LED{line: line}, nil
}

// Set switches the indicator on or off.
func (l *LED) Set(on bool) {
	v := 0
	if on {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		zlog.Warn().Err(err).Msg("failed to set status LED")
	}
}

// Close turns the indicator off and releases the line.
func (l *LED) Close() {
	_ = l.line.SetValue(0)
	_ = l.line.Close()
}

// NopIndicator is used when no LED is wired.
type NopIndicator struct{}

// Set does nothing.
func (NopIndicator) Set(bool) {}
