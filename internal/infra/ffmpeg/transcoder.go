// Package ffmpeg normalizes arbitrary audio blobs to the canonical PCM WAV
// format via the external ffmpeg binary.
package ffmpeg

import (
	"context"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/zainalm/sirenbox/internal/domain/pattern"
)

// Config holds transcoder configuration.
type Config struct {
	Command string         // Transcoder binary, e.g. "ffmpeg"
	Format  pattern.Format // Target sample rate, bit depth and channel count
	Timeout time.Duration  // Hard limit per invocation; zero disables it
}

// Transcoder shells out to ffmpeg. A wedged invocation is terminated with
// its whole process group once the timeout elapses, so a bad upload cannot
// park the announcement path forever.
type Transcoder struct {
	config Config
}

// NewTranscoder creates a transcoder.
func NewTranscoder(config Config) (*Transcoder, error) {
	if _, err := codecFor(config.Format.BitDepth); err != nil {
		return nil, err
	}
	return &Transcoder{config: config}, nil
}

// Transcode converts src into a PCM WAV at dst in the configured format.
// On failure dst is not usable and the caller's prior asset is untouched.
func (t *Transcoder) Transcode(ctx context.Context, src, dst string) error {
	if t.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Timeout)
		defer cancel()
	}

	codec, err := codecFor(t.config.Format.BitDepth)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, t.config.Command, buildArgs(src, dst, t.config.Format, codec)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "transcode %s", src)
	}

	zlog.Debug().Str("src", src).Str("dst", dst).Dur("took", time.Since(start)).Msg("transcoded")
	return nil
}

func buildArgs(src, dst string, f pattern.Format, codec string) []string {
	return []string{
		"-y",
		"-i", src,
		"-ac", strconv.Itoa(f.Channels),
		"-ar", strconv.Itoa(f.SampleRate),
		"-acodec", codec,
		dst,
	}
}

// codecFor maps a bit depth to the ffmpeg PCM codec name.
func codecFor(bitDepth int) (string, error) {
	switch bitDepth {
	case 16:
		return "pcm_s16le", nil
	case 24:
		return "pcm_s24le", nil
	case 32:
		return "pcm_s32le", nil
	default:
		return "", errors.Newf("no PCM codec for bit depth %d", bitDepth)
	}
}
