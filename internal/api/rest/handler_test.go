package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zainalm/sirenbox/internal/app/announce"
	"github.com/zainalm/sirenbox/internal/app/assets"
	"github.com/zainalm/sirenbox/internal/app/siren"
	"github.com/zainalm/sirenbox/internal/domain/mode"
	"github.com/zainalm/sirenbox/internal/domain/pattern"
)

type fakeHandle struct{ killed bool }

func (h *fakeHandle) Kill() { h.killed = true }

type fakePlayer struct {
	mu      sync.Mutex
	handles []*fakeHandle
	looped  []string
}

func (p *fakePlayer) PlayLoop(path string) (siren.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := &fakeHandle{}
	p.handles = append(p.handles, h)
	p.looped = append(p.looped, path)
	return h, nil
}

func (p *fakePlayer) PlayOnce(ctx context.Context, path string) error { return nil }

type fakeTranscoder struct {
	err error
}

func (f *fakeTranscoder) Transcode(ctx context.Context, src, dst string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dst, []byte("wav"), 0o644)
}

type testEnv struct {
	server     *httptest.Server
	player     *fakePlayer
	transcoder *fakeTranscoder
	dir        string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	registry, err := mode.NewRegistry([]mode.Mode{
		{Name: "flood", AssetPath: filepath.Join(dir, "flood.wav"), Pattern: pattern.Flood},
		{Name: "earthquake", AssetPath: filepath.Join(dir, "earthquake.wav"), Pattern: pattern.Earthquake},
		{Name: mode.CustomName, AssetPath: filepath.Join(dir, "custom.wav")},
	})
	require.NoError(t, err)

	transcoder := &fakeTranscoder{}
	store := assets.NewManager(assets.Config{
		AudioDir:   dir,
		UploadsDir: filepath.Join(dir, "uploads"),
		CustomPath: filepath.Join(dir, "custom.wav"),
		Format:     pattern.Format{SampleRate: 8000, BitDepth: 16, Channels: 1},
		Amplitude:  pattern.DefaultAmplitude,
	}, transcoder)

	player := &fakePlayer{}
	controller := siren.NewController(registry, player, store, nopIndicator{}, siren.Config{})
	pipeline := announce.NewPipeline(controller, player, transcoder, filepath.Join(dir, "uploads"))

	mux := http.NewServeMux()
	NewHandler(controller, pipeline, store, dir).Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	t.Cleanup(controller.Shutdown)

	return &testEnv{server: server, player: player, transcoder: transcoder, dir: dir}
}

type nopIndicator struct{}

func (nopIndicator) Set(bool) {}

func (e *testEnv) post(t *testing.T, path string) (int, siren.Status) {
	t.Helper()
	resp, err := http.Post(e.server.URL+path, "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var st siren.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return resp.StatusCode, st
}

func (e *testEnv) status(t *testing.T) siren.Status {
	t.Helper()
	resp, err := http.Get(e.server.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st siren.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func (e *testEnv) postFile(t *testing.T, path, filename string, content []byte) (int, result) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.server.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var res result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return resp.StatusCode, res
}

// TestControlFlow walks the full operator scenario: start on flood, switch
// to earthquake mid-loop, stop, then a failed custom upload.
func TestControlFlow(t *testing.T) {
	env := newTestEnv(t)

	st := env.status(t)
	assert.Equal(t, "flood", st.Mode)
	assert.False(t, st.Running)
	assert.Equal(t, []string{"flood", "earthquake", "custom"}, st.Modes)
	assert.False(t, st.CustomExists)

	code, st := env.post(t, "/api/start")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "flood", st.Mode)
	assert.True(t, st.Running)
	require.Len(t, env.player.handles, 1)
	firstHandle := env.player.handles[0]

	code, st = env.post(t, "/api/next_mode")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "earthquake", st.Mode)
	assert.True(t, st.Running)
	require.Len(t, env.player.handles, 2, "switching modes mid-loop must use a fresh playback process")
	assert.True(t, firstHandle.killed)

	code, st = env.post(t, "/api/stop")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "earthquake", st.Mode)
	assert.False(t, st.Running)

	// A failing transcode must reject the upload and leave custom_exists alone.
	env.transcoder.err = errors.New("ffmpeg failed")
	code, res := env.postFile(t, "/api/upload", "clip.mp3", []byte("not audio"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.False(t, res.OK)
	assert.NotEmpty(t, res.Error)
	assert.False(t, env.status(t).CustomExists)
}

func TestUpload_Success(t *testing.T) {
	env := newTestEnv(t)

	code, res := env.postFile(t, "/api/upload", "clip.mp3", []byte("audio"))
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.OK)
	assert.True(t, env.status(t).CustomExists)
}

func TestUpload_RestartsCustomLoop(t *testing.T) {
	env := newTestEnv(t)

	// Advance to custom and start looping it.
	env.post(t, "/api/next_mode")
	env.post(t, "/api/next_mode")
	code, st := env.post(t, "/api/start")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "custom", st.Mode)
	require.True(t, st.Running)
	before := len(env.player.handles)

	code, res := env.postFile(t, "/api/upload", "clip.mp3", []byte("audio"))
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.OK)

	assert.Len(t, env.player.handles, before+1, "replacing the custom asset mid-loop must restart playback")
	assert.True(t, env.status(t).Running)
}

func TestUpload_NoFile(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/api/upload", "application/json", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnnounce_EndsWhereItStarted(t *testing.T) {
	env := newTestEnv(t)

	// Idle system stays idle.
	code, res := env.postFile(t, "/api/announce", "live.webm", []byte("speech"))
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.OK)
	assert.False(t, env.status(t).Running)

	// Looping system comes back to the same mode.
	env.post(t, "/api/start")
	code, res = env.postFile(t, "/api/announce", "live.webm", []byte("speech"))
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.OK)
	st := env.status(t)
	assert.True(t, st.Running)
	assert.Equal(t, "flood", st.Mode)
}

func TestIndex_ServesStaticFrontend(t *testing.T) {
	env := newTestEnv(t)
	// The test env points staticDir at the temp audio dir; give it a page.
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "index.html"), []byte("<html>siren</html>"), 0o644))

	resp, err := http.Get(env.server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
