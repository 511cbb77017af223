package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/webdesk/backend/internal/shared/types"
)

const chessManifest = `
id: chess
name: Chess
category: games
default_size:
  width: 640
  height: 640
min_size:
  width: 480
  height: 480
resizable: true
maximizable: false
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	manifests := filepath.Join(dir, "apps")
	require.NoError(t, os.MkdirAll(manifests, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(manifests, "chess.app.yaml"), []byte(chessManifest), 0o644))

	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Desktop.ManifestsDir = manifests
	cfg.Session.PrefsPath = filepath.Join(dir, "preferences.json")
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return srv, ts
}

func get(t *testing.T, url string) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Desktop.ViewportWidth = 0

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestServerSeedsRegistry(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	assert.Equal(t, "healthy", get(t, ts.URL+"/health")["status"])

	chess := get(t, ts.URL+"/apps/chess")["app"].(map[string]interface{})
	assert.Equal(t, "Chess", chess["name"])
	get(t, ts.URL+"/apps/terminal")
}

func TestLaunchRunsHooksAndSyncsLocation(t *testing.T) {
	srv, ts := newTestServer(t, testConfig(t))

	resp, err := http.Post(ts.URL+"/apps/notes/launch", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result types.LaunchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	srv.launcher.Wait()
	assert.Equal(t, []string{"file-explorer"}, srv.hooks.Warmed())

	loc := get(t, ts.URL+"/location")["location"].(string)
	assert.True(t, strings.HasPrefix(loc, "/apps/notes?windowId="+result.WindowID), loc)
	assert.Equal(t, 1, srv.windows.Count())
}

func TestStreamReceivesLocation(t *testing.T) {
	srv, ts := newTestServer(t, testConfig(t))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() types.WSMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg types.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	first := read()
	assert.Equal(t, "location", first.Type)
	assert.Equal(t, "/", first.URL)

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: "navigate", URL: "/apps/terminal"}))

	// Lifecycle events and the pushed location arrive before the reply
	seen := map[string]bool{}
	for !seen["navigated"] {
		msg := read()
		seen[msg.Type] = true
	}
	assert.True(t, seen["lifecycle"])
	assert.True(t, seen["location"])
	assert.Equal(t, 1, srv.windows.Count())
}

func TestStreamClientCanVetoClose(t *testing.T) {
	_, ts := newTestServer(t, testConfig(t))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() types.WSMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg types.WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}
	assert.Equal(t, "location", read().Type)

	resp, err := http.Post(ts.URL+"/apps/notes/launch", "application/json", nil)
	require.NoError(t, err)
	var launched types.LaunchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&launched))
	resp.Body.Close()

	closeWindow := func(query string) <-chan int {
		status := make(chan int, 1)
		go func() {
			req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/windows/"+launched.WindowID+query, nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				status <- 0
				return
			}
			resp.Body.Close()
			status <- resp.StatusCode
		}()
		return status
	}

	// Answer every close confirmation with a veto
	deny := false
	answered := make(chan struct{}, 1)
	go func() {
		for {
			var msg types.WSMessage
			if conn.SetReadDeadline(time.Now().Add(5*time.Second)) != nil || conn.ReadJSON(&msg) != nil {
				return
			}
			if msg.Type == "confirm_close" && msg.WindowID == launched.WindowID {
				_ = conn.WriteJSON(types.WSMessage{Type: "close_reply", ID: msg.ID, Allow: &deny})
				answered <- struct{}{}
			}
		}
	}()

	assert.Equal(t, http.StatusConflict, <-closeWindow(""))
	select {
	case <-answered:
	case <-time.After(2 * time.Second):
		t.Fatal("stream was never asked to confirm the close")
	}

	assert.Equal(t, http.StatusOK, <-closeWindow("?force=true"))
}

func TestCloseSavesPreferences(t *testing.T) {
	cfg := testConfig(t)
	srv, ts := newTestServer(t, cfg)

	resp, err := http.Post(ts.URL+"/apps/terminal/launch", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, srv.Close())
	assert.FileExists(t, cfg.Session.PrefsPath)
	assert.NoError(t, srv.Close(), "closing twice is safe")
}

func TestPreferencesInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Session.RedisURL = "redis://" + mr.Addr()

	srv, ts := newTestServer(t, cfg)
	resp, err := http.Post(ts.URL+"/apps/terminal/launch", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, srv.Close())
	assert.True(t, mr.Exists(cfg.Session.RedisKey))
	assert.NoFileExists(t, cfg.Session.PrefsPath)
}

func TestPreferencesFallBackToFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.RedisURL = "redis://127.0.0.1:1"

	srv, ts := newTestServer(t, cfg)
	resp, err := http.Post(ts.URL+"/apps/terminal/launch", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	require.NoError(t, srv.Close())
	assert.FileExists(t, cfg.Session.PrefsPath)
}

func TestGlobalRateLimitSharesOneBucket(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Global = true
	cfg.RateLimit.RequestsPerSecond = 1
	cfg.RateLimit.Burst = 1
	_, ts := newTestServer(t, cfg)

	status := func() int {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusOK, status())
	assert.Equal(t, http.StatusTooManyRequests, status())
}
