// Package main provides an offline renderer for alarm pattern WAV files.
// It writes the same assets the daemon would provision lazily, which is
// handy for listening to a pattern before deploying it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/zainalm/sirenbox/internal/domain/mode"
	"github.com/zainalm/sirenbox/internal/domain/pattern"
	"github.com/zainalm/sirenbox/internal/infra/config"
	"github.com/zainalm/sirenbox/internal/infra/logger"
)

var (
	app        = kingpin.New("sirenbox-patterngen", "Render alarm patterns to WAV files")
	configPath = app.Flag("config", "Path to config file (optional; defaults apply without it)").String()
	outDir     = app.Flag("out", "Output directory").Default(".").String()
	names      = app.Arg("modes", "Mode names to render (default: all pattern-backed modes)").Strings()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(logger.Config{Level: "info"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := loadConfig()
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Fatal().Msgf("%v", err)
	}
}

func loadConfig() (*config.Config, error) {
	if *configPath != "" {
		return config.Load(*configPath)
	}
	return config.Default()
}

func run(cfg *config.Config) error {
	modes, err := cfg.BuildModes()
	if err != nil {
		return err
	}

	selected, err := selectModes(modes, *names)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	for _, m := range selected {
		data, err := pattern.RenderWAV(m.Pattern, cfg.Format(), cfg.Audio.Amplitude)
		if err != nil {
			return fmt.Errorf("render %s: %w", m.Name, err)
		}
		out := filepath.Join(*outDir, m.Name+".wav")
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		zlog.Info().Str("mode", m.Name).Str("path", out).Int("bytes", len(data)).Msg("rendered")
	}

	return nil
}

// selectModes filters to the requested pattern-backed modes, or all of
// them when no names are given. The custom mode has no pattern to render.
func selectModes(modes []mode.Mode, names []string) ([]mode.Mode, error) {
	if len(names) == 0 {
		out := make([]mode.Mode, 0, len(modes))
		for _, m := range modes {
			if !m.Custom() {
				out = append(out, m)
			}
		}
		return out, nil
	}

	byName := make(map[string]mode.Mode, len(modes))
	for _, m := range modes {
		byName[m.Name] = m
	}

	out := make([]mode.Mode, 0, len(names))
	for _, name := range names {
		m, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown mode %q", name)
		}
		if m.Custom() {
			return nil, fmt.Errorf("mode %q is upload-backed and has no pattern", name)
		}
		out = append(out, m)
	}
	return out, nil
}
