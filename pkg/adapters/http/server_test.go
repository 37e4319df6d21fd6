package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/rewind"
	rewindhttp "github.com/aretw0/rewind/pkg/adapters/http"
	"github.com/aretw0/rewind/pkg/session"
)

const playerConfig = `{
	"id": "player",
	"config": {
		"initial": "idle",
		"states": {
			"idle":    {"transitions": {"play": "playing"}},
			"playing": {"transitions": {"pause": "paused", "stop": "idle"}},
			"paused":  {"transitions": {"play": "playing", "stop": "idle"}}
		}
	}
}`

func newServer(t *testing.T) (http.Handler, *rewindhttp.StreamManager) {
	t.Helper()
	streams := rewindhttp.NewStreamManager()
	mgr := session.NewManager(nil, session.WithMachineOptions(rewind.WithLifecycleHooks(streams.Hooks())))
	h := rewindhttp.NewHandler(mgr,
		rewindhttp.WithStreams(streams),
		rewindhttp.WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		})),
	)
	return h, streams
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeMachine(t *testing.T, w *httptest.ResponseRecorder) rewindhttp.Machine {
	t.Helper()
	var m rewindhttp.Machine
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestServer_Lifecycle(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, "POST", "/machines", playerConfig)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decodeMachine(t, w)
	assert.Equal(t, "player", m.ID)
	assert.Equal(t, "idle", m.Current)
	assert.Equal(t, []string{"idle"}, m.History)

	t.Run("Trigger", func(t *testing.T) {
		w := do(t, h, "POST", "/machines/player/trigger", `{"event":"play"}`)
		require.Equal(t, http.StatusOK, w.Code)
		m := decodeMachine(t, w)
		assert.Equal(t, "playing", m.Current)
		assert.Equal(t, 1, m.Position)
		assert.True(t, m.CanUndo)
	})

	t.Run("TriggerUnknownEvent", func(t *testing.T) {
		w := do(t, h, "POST", "/machines/player/trigger", `{"event":"eject"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "no such transition")
	})

	t.Run("TriggerOversizedEvent", func(t *testing.T) {
		w := do(t, h, "POST", "/machines/player/trigger", `{"event":"`+strings.Repeat("x", 2000)+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ChangeUnknownState", func(t *testing.T) {
		w := do(t, h, "POST", "/machines/player/change", `{"state":"rewinding"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "no such state")
	})

	t.Run("UndoRedo", func(t *testing.T) {
		w := do(t, h, "POST", "/machines/player/undo", "")
		require.Equal(t, http.StatusOK, w.Code)
		m := decodeMachine(t, w)
		require.NotNil(t, m.Moved)
		assert.True(t, *m.Moved)
		assert.Equal(t, "idle", m.Current)

		w = do(t, h, "POST", "/machines/player/undo", "")
		m = decodeMachine(t, w)
		assert.False(t, *m.Moved)

		w = do(t, h, "POST", "/machines/player/redo", "")
		m = decodeMachine(t, w)
		assert.True(t, *m.Moved)
		assert.Equal(t, "playing", m.Current)
	})

	t.Run("Change", func(t *testing.T) {
		w := do(t, h, "POST", "/machines/player/change", `{"state":"paused"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"idle", "playing", "paused"}, decodeMachine(t, w).History)
	})

	t.Run("Reset", func(t *testing.T) {
		w := do(t, h, "POST", "/machines/player/reset", "")
		m := decodeMachine(t, w)
		assert.Equal(t, "idle", m.Current)
		assert.Equal(t, 3, m.Position)
	})

	t.Run("States", func(t *testing.T) {
		w := do(t, h, "GET", "/machines/player/states", "")
		require.Equal(t, http.StatusOK, w.Code)
		var list rewindhttp.StateList
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(t, []string{"idle", "playing", "paused"}, list.States)

		w = do(t, h, "GET", "/machines/player/states?event=stop", "")
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(t, []string{"playing", "paused"}, list.States)
	})

	t.Run("Graph", func(t *testing.T) {
		w := do(t, h, "GET", "/machines/player/graph", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "graph TD")
		assert.Contains(t, w.Body.String(), "class idle current")
	})

	t.Run("Clear", func(t *testing.T) {
		w := do(t, h, "POST", "/machines/player/clear", "")
		m := decodeMachine(t, w)
		assert.Equal(t, "idle", m.Current)
		assert.Empty(t, m.History)
		assert.Equal(t, 0, m.Position)
	})

	t.Run("List", func(t *testing.T) {
		w := do(t, h, "GET", "/machines", "")
		var list rewindhttp.MachineList
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Equal(t, []string{"player"}, list.Machines)
	})

	t.Run("Delete", func(t *testing.T) {
		w := do(t, h, "DELETE", "/machines/player", "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = do(t, h, "GET", "/machines/player", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_CreateErrors(t *testing.T) {
	h, _ := newServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"InvalidJSON", `{`, http.StatusBadRequest},
		{"MissingConfig", `{"id":"x"}`, http.StatusBadRequest},
		{"StrictDangling", `{"id":"y","strict":true,"config":{"initial":"a","states":{"a":{"transitions":{"go":"nowhere"}}}}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", "/machines", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}

	t.Run("Duplicate", func(t *testing.T) {
		require.Equal(t, http.StatusCreated, do(t, h, "POST", "/machines", playerConfig).Code)
		assert.Equal(t, http.StatusConflict, do(t, h, "POST", "/machines", playerConfig).Code)
	})

	t.Run("LooseDangling", func(t *testing.T) {
		w := do(t, h, "POST", "/machines", `{"id":"loose","config":{"initial":"a","states":{"a":{"transitions":{"go":"nowhere"}}}}}`)
		require.Equal(t, http.StatusCreated, w.Code)

		w = do(t, h, "POST", "/machines/loose/trigger", `{"event":"go"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "no such state")
	})
}

func TestServer_NotFound(t *testing.T) {
	h, _ := newServer(t)
	for _, path := range []string{"/machines/ghost/undo", "/machines/ghost/reset"} {
		assert.Equal(t, http.StatusNotFound, do(t, h, "POST", path, "").Code, path)
	}
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/machines/ghost/states", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/machines/ghost/events", "").Code)
}

func TestServer_EventsNeedStreams(t *testing.T) {
	h := rewindhttp.NewHandler(session.NewManager(nil))

	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/machines", playerConfig).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, "GET", "/machines/player/events", "").Code)
}

func TestServer_Meta(t *testing.T) {
	h, _ := newServer(t)

	w := do(t, h, "GET", "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", "")
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "rewind-http", info["app"])
	assert.Equal(t, "0.3.0", info["api_version"])

	w = do(t, h, "GET", "/openapi.yaml", "")
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	w = do(t, h, "GET", "/metrics", "")
	assert.Equal(t, "metrics", w.Body.String())
}

func TestGetSpec(t *testing.T) {
	doc, err := rewindhttp.GetSpec()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/machines/{id}/trigger"))
}

func TestSubscribeEvents(t *testing.T) {
	h, streams := newServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, "POST", "/machines", playerConfig).Code)

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/machines/player/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	// Wait until the subscription is registered before mutating.
	require.Eventually(t, func() bool { return streams.Subscribers("player") == 1 }, 2*time.Second, 10*time.Millisecond)

	w := do(t, h, "POST", "/machines/player/trigger", `{"event":"play"}`)
	require.Equal(t, http.StatusOK, w.Code)

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			break
		}
	}
	assert.Contains(t, line, `"to":"playing"`)
	assert.Contains(t, line, `"op":"trigger"`)
}
