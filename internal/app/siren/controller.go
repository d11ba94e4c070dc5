package siren

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/zainalm/sirenbox/internal/domain/mode"
)

// Handle is a killable external playback process.
type Handle interface {
	// Kill terminates the playback process and everything it spawned.
	// Best-effort: the process may already be gone.
	Kill()
}

// Player starts external playback processes.
type Player interface {
	// PlayLoop starts looping playback of the file and returns immediately.
	PlayLoop(path string) (Handle, error)
	// PlayOnce plays the file a single time, blocking until it finishes.
	PlayOnce(ctx context.Context, path string) error
}

// Indicator is the status lamp driven by the controller.
type Indicator interface {
	Set(on bool)
}

// Provisioner materializes missing mode assets before playback.
type Provisioner interface {
	Ensure(m mode.Mode) error
	HasCustom() bool
}

// Config holds controller configuration.
type Config struct {
	RestartGap time.Duration // Pause between stop and start when swapping loops
}

// Controller owns the single playback state and the external process handle
// it wraps. Every state-mutating operation runs under one exclusive section,
// so at most one playback process exists at any instant.
type Controller struct {
	mu sync.Mutex

	modes       *mode.Registry
	player      Player
	provisioner Provisioner
	indicator   Indicator
	config      Config

	state    State
	loopMode mode.Mode // Valid only while state == StateLooping
	handle   Handle
}

// NewController creates a controller in the idle state.
func NewController(modes *mode.Registry, player Player, provisioner Provisioner, indicator Indicator, config Config) *Controller {
	return &Controller{
		modes:       modes,
		player:      player,
		provisioner: provisioner,
		indicator:   indicator,
		config:      config,
		state:       StateIdle,
	}
}

// Start begins looping playback of the current mode. It is a no-op unless
// the controller is idle. If the playback process cannot be spawned the
// state stays idle.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked()
}

func (c *Controller) startLocked() error {
	if c.state != StateIdle {
		return nil
	}

	m := c.modes.Current()
	if err := c.spawnLocked(m); err != nil {
		return err
	}
	c.state = StateLooping
	c.loopMode = m
	zlog.Info().Str("mode", m.Name).Msg("siren started")
	return nil
}

// Stop terminates looping playback. It is a no-op unless a loop is active.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.state != StateLooping {
		return
	}
	c.killLocked()
	c.state = StateIdle
	zlog.Info().Msg("siren stopped")
}

// Toggle stops the loop if one is active, otherwise starts it.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateLooping {
		c.stopLocked()
		return nil
	}
	return c.startLocked()
}

// SwitchMode advances to the next mode. If a loop was active it is
// restarted on the new mode; a brief gap between the two is tolerated.
func (c *Controller) SwitchMode() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.modes.Advance()
	zlog.Info().Str("mode", m.Name).Msg("mode switched")

	if c.state != StateLooping {
		return nil
	}

	c.killLocked()
	c.state = StateIdle
	c.pauseLocked()

	if err := c.spawnLocked(m); err != nil {
		return err
	}
	c.state = StateLooping
	c.loopMode = m
	return nil
}

// RestartIfCurrent restarts the loop when the named mode is the one
// looping, so a replaced asset takes effect immediately.
func (c *Controller) RestartIfCurrent(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateLooping || c.loopMode.Name != name {
		return nil
	}

	m := c.loopMode
	c.killLocked()
	c.state = StateIdle
	c.pauseLocked()

	if err := c.spawnLocked(m); err != nil {
		return err
	}
	c.state = StateLooping
	c.loopMode = m
	return nil
}

// Suspend stops any active loop in preparation for an announcement and
// enters the announcing state. It returns the mode to resume afterwards,
// or nil if no loop was active.
func (c *Controller) Suspend() *mode.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	var paused *mode.Mode
	if c.state == StateLooping {
		m := c.loopMode
		c.killLocked()
		paused = &m
		zlog.Info().Str("mode", m.Name).Msg("siren suspended for announcement")
	}
	c.state = StateAnnouncing
	return paused
}

// Resume leaves the announcing state, restarting the loop that Suspend
// stopped. Resume failures are logged, not surfaced: the announcement
// caller already has their answer.
func (c *Controller) Resume(paused *mode.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAnnouncing {
		return
	}
	c.state = StateIdle

	if paused == nil {
		return
	}
	if err := c.spawnLocked(*paused); err != nil {
		zlog.Error().Err(err).Str("mode", paused.Name).Msg("failed to resume siren after announcement")
		return
	}
	c.state = StateLooping
	c.loopMode = *paused
	zlog.Info().Str("mode", paused.Name).Msg("siren resumed after announcement")
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		Mode:         c.modes.Current().Name,
		Running:      c.state == StateLooping,
		Modes:        c.modes.Names(),
		CustomExists: c.provisioner.HasCustom(),
	}
}

// Shutdown forces the controller back to idle, terminating any playback
// process. Called on daemon exit.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.killLocked()
	c.state = StateIdle
	zlog.Info().Msg("playback controller shut down")
}

// spawnLocked provisions the mode's asset and starts the looping playback
// process. On failure no handle is retained. Must be called with lock held.
func (c *Controller) spawnLocked(m mode.Mode) error {
	if err := c.provisioner.Ensure(m); err != nil {
		return errors.Wrapf(err, "provision asset for mode %s", m.Name)
	}

	h, err := c.player.PlayLoop(m.AssetPath)
	if err != nil {
		return errors.Wrapf(err, "start looping playback for mode %s", m.Name)
	}

	c.handle = h
	c.indicator.Set(true)
	return nil
}

// killLocked terminates the playback process group and clears the
// indicator. Best-effort idempotent cleanup. Must be called with lock held.
func (c *Controller) killLocked() {
	if c.handle != nil {
		c.handle.Kill()
		c.handle = nil
	}
	c.indicator.Set(false)
}

// pauseLocked waits out the restart gap between a kill and the next spawn,
// giving the audio device time to settle.
func (c *Controller) pauseLocked() {
	if c.config.RestartGap > 0 {
		time.Sleep(c.config.RestartGap)
	}
}
