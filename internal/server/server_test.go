package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/weave/internal/animation"
	"github.com/conneroisu/weave/internal/assembly"
	"github.com/conneroisu/weave/internal/config"
	"github.com/conneroisu/weave/internal/layout"
	"github.com/conneroisu/weave/internal/logging"
	"github.com/conneroisu/weave/internal/mapper"
	"github.com/conneroisu/weave/internal/registry"
	"github.com/conneroisu/weave/internal/types"
	"github.com/conneroisu/weave/internal/ui"
)

func testServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
		cfg.Server.Host = "localhost"
	}

	reg := registry.NewComponentRegistry()
	ui.RegisterDefaults(reg)

	engine := assembly.New(assembly.Config{
		Registry: reg,
		Layout:   layout.NewEngine(nil),
		Executor: animation.NewInstantExecutor(),
		Logger:   logging.NewMemoryLogger(),
	})

	m := mapper.New(mapper.DefaultRules(mapper.Tuning{}), mapper.Config{
		Logger: logging.NewMemoryLogger(),
	})

	s := New(cfg, logging.NewMemoryLogger(), reg, engine, m)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestIsAllowedOrigin_DefaultList(t *testing.T) {
	s := testServer(t, nil)

	// No configured origins: local development only
	assert.True(t, s.isAllowedOrigin(""))
	assert.True(t, s.isAllowedOrigin("http://localhost:3000"))
	assert.True(t, s.isAllowedOrigin("http://127.0.0.1:8080"))
	assert.False(t, s.isAllowedOrigin("https://evil.example.com"))
}

func TestIsAllowedOrigin_ConfiguredList(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"https://app.example.com"}
	s := testServer(t, cfg)

	assert.True(t, s.isAllowedOrigin("https://app.example.com"))
	assert.False(t, s.isAllowedOrigin("https://other.example.com"))
	assert.False(t, s.isAllowedOrigin("http://localhost:3000"))
}

func TestIsAllowedOrigin_Wildcard(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"*"}
	s := testServer(t, cfg)

	assert.True(t, s.isAllowedOrigin("https://anywhere.example.com"))
}

func TestHandleWebSocket_RejectsForbiddenOrigin(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/ws", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["active_components"])
	assert.Equal(t, "default", body["layout"])
}

func TestHandleComponents(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/components")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listings []componentListing
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listings))
	require.Len(t, listings, 8)

	byName := make(map[string]componentListing, len(listings))
	for _, l := range listings {
		byName[l.Name] = l
	}
	require.Contains(t, byName, "FilterPanel")
	assert.Contains(t, byName["FilterPanel"].Areas, "sidebar")
	require.Contains(t, byName, "WelcomeHero")
	assert.NotEmpty(t, byName["WelcomeHero"].Description)
}

func TestHandleRender(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/render/WelcomeHero?title=Hello")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Hello")
}

func TestHandleRender_UnknownComponent(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/render/MysteryWidget")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleRender_MissingName(t *testing.T) {
	s := testServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/render/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitIntent_AppliesThroughWorker(t *testing.T) {
	s := testServer(t, nil)
	go s.runIntentWorker()

	require.NoError(t, s.SubmitIntent(types.Intent{Type: "greeting", Confidence: 0.9}))

	// The worker maps the intent and applies the resulting instruction
	deadline := time.After(3 * time.Second)
	for s.engine.ActiveCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("intent was not applied")
		case <-time.After(10 * time.Millisecond):
		}
	}
	assert.Equal(t, 2, s.engine.ActiveCount())
	assert.Equal(t, "centered", s.engine.LayoutKey())
}

func TestSubmitIntent_AfterShutdown(t *testing.T) {
	s := testServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	assert.Error(t, s.SubmitIntent(types.Intent{Type: "greeting", Confidence: 0.9}))
}

func TestReplaceMapper(t *testing.T) {
	s := testServer(t, nil)

	replacement := mapper.New(nil, mapper.Config{Logger: logging.NewMemoryLogger()})
	s.ReplaceMapper(replacement)

	assert.Same(t, replacement, s.currentMapper())
}

func TestProcessIntent_FallbackForUnknownType(t *testing.T) {
	s := testServer(t, nil)

	s.processIntent(types.Intent{Type: "gibberish", Confidence: 0.99})

	// The fallback instruction mounts the help panel
	snapshot := s.engine.Snapshot()
	require.Len(t, snapshot.Components, 1)
	assert.Equal(t, "HelpPanel", snapshot.Components[0].Type)
	assert.Equal(t, "centered", snapshot.Layout)
}

func TestEngineSnapshotsReachBroadcastChannel(t *testing.T) {
	s := testServer(t, nil)

	s.processIntent(types.Intent{Type: "greeting", Confidence: 0.9})

	select {
	case data := <-s.broadcast:
		var state types.AssemblyState
		require.NoError(t, json.Unmarshal(data, &state))
		assert.Len(t, state.Components, 2)
		assert.Equal(t, "centered", state.Layout)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot reached the broadcast channel")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	s := testServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, s.Shutdown(ctx))
}
