// Package alsa drives the external ALSA playback engine (aplay).
package alsa

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/zainalm/sirenbox/internal/app/siren"
)

// Config holds player configuration.
type Config struct {
	Command string   // Player binary, e.g. "aplay"
	Args    []string // Fixed arguments, e.g. ["-q"]
	Loops   int      // Repeat count passed to --loop for looping playback
}

// Player spawns aplay processes. Loop playback runs detached in its own
// process group so the whole tree can be terminated; one-shot playback
// blocks until the process exits.
type Player struct {
	config Config
}

// NewPlayer creates a player.
func NewPlayer(config Config) *Player {
	return &Player{config: config}
}

// PlayLoop starts looping playback of the file and returns a killable
// handle without waiting.
func (p *Player) PlayLoop(path string) (siren.Handle, error) {
	args := append(append([]string{}, p.config.Args...), fmt.Sprintf("--loop=%d", p.config.Loops), path)

	cmd := exec.Command(p.config.Command, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "spawn %s", p.config.Command)
	}

	h := &handle{cmd: cmd}
	// Reap the child whenever it exits, kill or not.
	go func() {
		err := cmd.Wait()
		zlog.Debug().Err(err).Int("pid", cmd.Process.Pid).Msg("loop playback process exited")
	}()

	zlog.Debug().Int("pid", cmd.Process.Pid).Str("path", path).Msg("loop playback started")
	return h, nil
}

// PlayOnce plays the file a single time, blocking until playback finishes
// or the context is cancelled.
func (p *Player) PlayOnce(ctx context.Context, path string) error {
	args := append(append([]string{}, p.config.Args...), path)

	cmd := exec.CommandContext(ctx, p.config.Command, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}

	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "play %s", path)
	}
	return nil
}

// handle wraps a looping playback process.
type handle struct {
	once sync.Once
	cmd  *exec.Cmd
}

// Kill terminates the playback process group with SIGTERM. The player may
// have forked children, so the signal goes to the whole group. Errors are
// swallowed: the process being gone already is success.
func (h *handle) Kill() {
	h.once.Do(func() {
		if err := syscall.Kill(-h.cmd.Process.Pid, syscall.SIGTERM); err != nil {
			zlog.Debug().Err(err).Int("pid", h.cmd.Process.Pid).Msg("loop playback process already gone")
		}
	})
}
