package pattern

import (
	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
)

// segmentSettings is the wire shape of one segment in a config file.
type segmentSettings struct {
	Type    string  `mapstructure:"type"`
	Seconds float64 `mapstructure:"seconds"`
	Freq    float64 `mapstructure:"freq"` // tone only
	From    float64 `mapstructure:"from"` // sweep only
	To      float64 `mapstructure:"to"`   // sweep only
}

// DecodeSegments builds a pattern from config-supplied segment maps, e.g.
//
//	- {type: sweep, seconds: 1.2, from: 450, to: 1000}
//	- {type: silence, seconds: 0.15}
func DecodeSegments(raw []map[string]any) (Pattern, error) {
	if len(raw) == 0 {
		return nil, errors.New("pattern has no segments")
	}

	p := make(Pattern, 0, len(raw))
	for i, m := range raw {
		var s segmentSettings
		if err := mapstructure.Decode(m, &s); err != nil {
			return nil, errors.Wrapf(err, "segment %d", i)
		}
		if s.Seconds <= 0 {
			return nil, errors.Newf("segment %d: seconds must be positive", i)
		}

		switch s.Type {
		case "silence":
			p = append(p, Silence(s.Seconds))
		case "tone":
			if s.Freq <= 0 {
				return nil, errors.Newf("segment %d: tone requires a positive freq", i)
			}
			p = append(p, Tone(s.Seconds, s.Freq))
		case "sweep":
			if s.From <= 0 || s.To <= 0 {
				return nil, errors.Newf("segment %d: sweep requires positive from/to frequencies", i)
			}
			p = append(p, Sweep(s.Seconds, s.From, s.To))
		default:
			return nil, errors.Newf("segment %d: unknown type %q", i, s.Type)
		}
	}

	return p, nil
}
