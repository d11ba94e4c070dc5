// Package main provides the siren controller daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/zainalm/sirenbox/internal/api/rest"
	"github.com/zainalm/sirenbox/internal/app/announce"
	"github.com/zainalm/sirenbox/internal/app/assets"
	"github.com/zainalm/sirenbox/internal/app/siren"
	"github.com/zainalm/sirenbox/internal/domain/mode"
	"github.com/zainalm/sirenbox/internal/infra/alsa"
	"github.com/zainalm/sirenbox/internal/infra/config"
	"github.com/zainalm/sirenbox/internal/infra/ffmpeg"
	"github.com/zainalm/sirenbox/internal/infra/gpio"
	"github.com/zainalm/sirenbox/internal/infra/logger"
)

var (
	app        = kingpin.New("sirenbox-server", "sirenbox siren controller daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// list-modes command
	listModesCmd = app.Command("list-modes", "List configured alarm modes and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the daemon (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	loggerConfig.File = *logfile
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == listModesCmd.FullCommand() {
		printModes(cfg)
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main daemon logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	modes, err := cfg.BuildModes()
	if err != nil {
		return fmt.Errorf("failed to build modes: %w", err)
	}
	registry, err := mode.NewRegistry(modes)
	if err != nil {
		return fmt.Errorf("failed to create mode registry: %w", err)
	}

	transcoder, err := ffmpeg.NewTranscoder(ffmpeg.Config{
		Command: cfg.Transcoder.Command,
		Format:  cfg.Format(),
		Timeout: cfg.TranscodeTimeout(),
	})
	if err != nil {
		return fmt.Errorf("failed to create transcoder: %w", err)
	}

	store := assets.NewManager(assets.Config{
		AudioDir:   cfg.Audio.Dir,
		UploadsDir: cfg.UploadsDir(),
		CustomPath: cfg.CustomAssetPath(),
		Format:     cfg.Format(),
		Amplitude:  cfg.Audio.Amplitude,
	}, transcoder)
	if err := store.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create asset directories: %w", err)
	}

	player := alsa.NewPlayer(alsa.Config{
		Command: cfg.Player.Command,
		Args:    cfg.Player.Args,
		Loops:   cfg.Player.Loops,
	})

	// Hardware indicator; fall back to a no-op when GPIO is off or broken.
	var indicator siren.Indicator = gpio.NopIndicator{}
	if cfg.GPIO.Enabled && cfg.GPIO.LEDPin >= 0 {
		led, err := gpio.NewLED(cfg.GPIO.Chip, cfg.GPIO.LEDPin)
		if err != nil {
			zlog.Warn().Err(err).Msg("status LED unavailable, continuing without it")
		} else {
			indicator = led
			defer led.Close()
		}
	}

	controller := siren.NewController(registry, player, store, indicator, siren.Config{
		RestartGap: cfg.RestartGap(),
	})
	defer controller.Shutdown()

	pipeline := announce.NewPipeline(controller, player, transcoder, cfg.UploadsDir())

	// Hardware buttons are optional: the daemon still serves HTTP without them.
	if cfg.GPIO.Enabled {
		buttons, err := gpio.AttachButtons(gpio.Config{
			Chip:     cfg.GPIO.Chip,
			StartPin: cfg.GPIO.StartPin,
			ModePin:  cfg.GPIO.ModePin,
			Debounce: cfg.Debounce(),
		}, controller.HandleToggleEvent, controller.HandleModeAdvanceEvent)
		if err != nil {
			zlog.Warn().Err(err).Msg("hardware buttons unavailable, continuing without them")
		} else {
			defer buttons.Close()
			zlog.Info().
				Int("start_pin", cfg.GPIO.StartPin).
				Int("mode_pin", cfg.GPIO.ModePin).
				Msg("hardware buttons attached")
		}
	}

	mux := http.NewServeMux()
	rest.NewHandler(controller, pipeline, store, cfg.Server.StaticDir).Register(mux)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		var err error
		if cfg.Server.TLSCert != "" && cfg.Server.TLSKey != "" {
			err = server.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}

// printModes prints the configured alarm modes.
func printModes(cfg *config.Config) {
	modes, err := cfg.BuildModes()
	if err != nil {
		zlog.Fatal().Msgf("Failed to build modes: %v", err)
	}

	fmt.Println("Configured modes:")
	for _, m := range modes {
		source := "built-in pattern"
		if m.Custom() {
			source = "uploaded audio"
		} else if len(m.Pattern) > 0 {
			source = fmt.Sprintf("pattern (%d segments)", len(m.Pattern))
		}
		fmt.Printf("  %-12s %-24s %s\n", m.Name, source, m.AssetPath)
	}
}
