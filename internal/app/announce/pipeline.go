// Package announce orchestrates one-shot live announcements that preempt
// the siren loop.
package announce

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/zainalm/sirenbox/internal/app/siren"
)

// Transcoder converts an arbitrary audio file to the canonical PCM WAV format.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// Pipeline plays incoming announcements: it pauses any active loop,
// transcodes the blob, plays it once, and resumes the prior loop. Its own
// mutex guarantees at most one announcement proceeds at a time; it is
// always acquired before the controller's, never after.
type Pipeline struct {
	mu sync.Mutex

	controller *siren.Controller
	player     siren.Player
	transcoder Transcoder
	uploadsDir string
}

// NewPipeline creates an announcement pipeline.
func NewPipeline(controller *siren.Controller, player siren.Player, transcoder Transcoder, uploadsDir string) *Pipeline {
	return &Pipeline{
		controller: controller,
		player:     player,
		transcoder: transcoder,
		uploadsDir: uploadsDir,
	}
}

// Announce plays the blob once, blocking until playback completes. The
// returned error reflects only the announcement outcome: whatever happens,
// a loop that was active beforehand is restarted and temporary artifacts
// are removed.
func (p *Pipeline) Announce(ctx context.Context, blob io.Reader, filename string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	paused := p.controller.Suspend()
	defer p.controller.Resume(paused)

	base := filepath.Join(p.uploadsDir, "announce_"+uuid.NewString())
	src := base + extension(filename)
	wav := base + ".wav"
	defer removeQuietly(src)
	defer removeQuietly(wav)

	if err := saveBlob(src, blob); err != nil {
		return errors.Wrap(err, "save announcement")
	}
	if err := p.transcoder.Transcode(ctx, src, wav); err != nil {
		return errors.Wrap(err, "transcode announcement")
	}

	zlog.Info().Str("file", filename).Msg("playing announcement")
	if err := p.player.PlayOnce(ctx, wav); err != nil {
		return errors.Wrap(err, "play announcement")
	}
	return nil
}

// extension returns the uploaded file's extension, defaulting to the
// browser recorder's container format.
func extension(filename string) string {
	if ext := filepath.Ext(filepath.Base(filename)); ext != "" && ext != "." && !strings.ContainsAny(ext, `/\`) {
		return ext
	}
	return ".webm"
}

func saveBlob(path string, blob io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, blob); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		zlog.Warn().Err(err).Str("path", path).Msg("failed to remove temporary file")
	}
}
