// Package assets materializes mode audio files and accepts custom uploads.
package assets

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

	"github.com/zainalm/sirenbox/internal/domain/mode"
	"github.com/zainalm/sirenbox/internal/domain/pattern"
)

// Transcoder converts an arbitrary audio file to the canonical PCM WAV format.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string) error
}

// Config holds asset store configuration.
type Config struct {
	AudioDir   string
	UploadsDir string
	CustomPath string // Asset file backing the custom mode
	Format     pattern.Format
	Amplitude  float64
}

// Manager is the asset provisioner: it lazily synthesizes missing built-in
// pattern files and replaces the custom asset on accepted uploads.
type Manager struct {
	mu         sync.Mutex
	config     Config
	transcoder Transcoder
}

// NewManager creates an asset manager.
func NewManager(config Config, transcoder Transcoder) *Manager {
	return &Manager{config: config, transcoder: transcoder}
}

// EnsureDirs creates the audio and uploads directories.
func (m *Manager) EnsureDirs() error {
	for _, dir := range []string{m.config.AudioDir, m.config.UploadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}
	return nil
}

// Ensure synthesizes the mode's asset file if it does not exist yet. The
// custom mode gets a placeholder tone until an upload replaces it.
// Idempotent: once the file exists this is a no-op.
func (m *Manager) Ensure(md mode.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if fileExists(md.AssetPath) {
		return nil
	}
	if err := m.EnsureDirs(); err != nil {
		return err
	}

	p := md.Pattern
	if p == nil {
		p = pattern.Placeholder
	}

	data, err := pattern.RenderWAV(p, m.config.Format, m.config.Amplitude)
	if err != nil {
		return errors.Wrapf(err, "synthesize pattern for mode %s", md.Name)
	}
	if err := m.writeAtomic(md.AssetPath, data); err != nil {
		return errors.Wrapf(err, "write asset for mode %s", md.Name)
	}

	zlog.Info().Str("mode", md.Name).Str("path", md.AssetPath).Msg("provisioned mode asset")
	return nil
}

// HasCustom reports whether an asset file exists for the custom mode.
func (m *Manager) HasCustom() bool {
	return fileExists(m.config.CustomPath)
}

// AcceptUpload transcodes the blob and atomically replaces the custom
// asset. On transcode failure the previous asset is left untouched.
func (m *Manager) AcceptUpload(ctx context.Context, blob io.Reader, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.EnsureDirs(); err != nil {
		return err
	}

	id := uuid.NewString()
	src := filepath.Join(m.config.UploadsDir, "upload_"+id+extension(filename))
	dst := filepath.Join(m.config.UploadsDir, "upload_"+id+".wav")
	defer removeQuietly(src)
	defer removeQuietly(dst)

	if err := saveBlob(src, blob); err != nil {
		return errors.Wrap(err, "save upload")
	}
	if err := m.transcoder.Transcode(ctx, src, dst); err != nil {
		return errors.Wrap(err, "transcode upload")
	}
	if err := os.Rename(dst, m.config.CustomPath); err != nil {
		return errors.Wrap(err, "replace custom asset")
	}

	zlog.Info().Str("file", filename).Str("path", m.config.CustomPath).Msg("custom asset replaced")
	return nil
}

// writeAtomic writes to a temporary sibling and renames it over the
// target, so a half-written asset is never visible.
func (m *Manager) writeAtomic(path string, data []byte) error {
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		removeQuietly(tmp)
		return err
	}
	return nil
}

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

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		zlog.Warn().Err(err).Str("path", path).Msg("failed to remove temporary file")
	}
}
