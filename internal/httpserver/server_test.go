package httpserver

import (
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
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/robalobadob/pidro/internal/archive"
	"github.com/robalobadob/pidro/internal/game"
	"github.com/robalobadob/pidro/internal/provider"
	"github.com/robalobadob/pidro/internal/store"
	"github.com/robalobadob/pidro/internal/table"
	"github.com/robalobadob/pidro/internal/workers"
)

type fixture struct {
	srv  *httptest.Server
	repo archive.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	repo, err := archive.Open(ctx, "sqlite://:memory:")
	require.NoError(t, err)

	records := make(chan archive.Record, 8)
	w := workers.NewArchiveWorker(workers.NewArchiveWorkerOptions{Repository: repo, RecordChan: records})
	go w.Start(ctx)

	st := store.NewMemoryStore()
	var defaults game.Roster
	for i := range defaults {
		defaults[i] = game.Player{Name: game.Seat(i).Position(), Kind: game.KindHuman}
	}
	s := New(Options{
		Store: st,
		Factory: &table.Factory{
			DefaultSeats: defaults,
			Backends:     map[string]provider.Backend{"lua": provider.NewLua("")},
			Policy:       provider.DefaultPolicy(),
			DealSalt:     "test",
			Archive:      records,
		},
		Archive:   repo,
		JWTSecret: "test-secret",
	})
	srv := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		srv.Close()
		st.Close()
		cancel()
		_ = repo.Close(context.Background())
	})
	return &fixture{srv: srv, repo: repo}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func (f *fixture) createTable(t *testing.T, body any) string {
	t.Helper()
	res, out := f.do(t, http.MethodPost, "/tables", "", body)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	id, _ := out["tableId"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	res, out := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "application/json; charset=utf-8", res.Header.Get("Content-Type"))

	res, out = f.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "not_found", out["error"])
}

func TestCreateTableValidation(t *testing.T) {
	f := newFixture(t)
	res, _ := f.do(t, http.MethodPost, "/tables", "", map[string]any{"seats": []string{"human", "human"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = f.do(t, http.MethodPost, "/tables", "", map[string]any{"seats": []string{"human", "gemini", "human", "lua"}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = f.do(t, http.MethodGet, "/tables/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestHumanSeatFlow(t *testing.T) {
	f := newFixture(t)
	id := f.createTable(t, map[string]any{"seats": []string{"human", "lua", "lua", "lua"}, "passcode": "secret-pass"})
	base := "/tables/" + id

	res, _ := f.do(t, http.MethodPost, base+"/seats/east/claim", "", map[string]string{"passcode": "secret-pass"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "bot seats cannot be claimed")

	res, _ = f.do(t, http.MethodPost, base+"/seats/north/claim", "", map[string]string{"passcode": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, claim := f.do(t, http.MethodPost, base+"/seats/north/claim", "", map[string]string{"passcode": "secret-pass"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	token, _ := claim["token"].(string)
	require.NotEmpty(t, token)

	res, _ = f.do(t, http.MethodGet, base+"/seats/0/view", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	res, _ = f.do(t, http.MethodGet, base+"/seats/2/view", token, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	res, _ = f.do(t, http.MethodGet, base+"/seats/0/view", token, nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode, "no hand yet")

	res, _ = f.do(t, http.MethodPost, base+"/deal", "", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	// West bids first (South deals); wait until North is asked.
	var view map[string]any
	require.Eventually(t, func() bool {
		_, view = f.do(t, http.MethodGet, base+"/seats/0/view", token, nil)
		legal, _ := view["legal"].([]any)
		return len(legal) > 0
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "North", view["position"])

	// The view can list legal moves a moment before the human request is
	// parked; until then submissions are refused as out of turn.
	require.Eventually(t, func() bool {
		res, out := f.do(t, http.MethodPost, base+"/seats/0/move", token, map[string]string{"move": "99"})
		return res.StatusCode == http.StatusConflict && out["error"] == "illegal_move" && out["reason"] == game.ReasonNotLegal
	}, 3*time.Second, 10*time.Millisecond)

	res, _ = f.do(t, http.MethodPost, base+"/seats/0/move", token, map[string]string{"move": "pass"})
	assert.Equal(t, http.StatusAccepted, res.StatusCode)

	res, out := f.do(t, http.MethodPost, base+"/deal", "", nil)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, "hand_in_progress", out["error"])

	res, out = f.do(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "South", out["dealer"])
}

func TestBotTableHistory(t *testing.T) {
	f := newFixture(t)
	id := f.createTable(t, map[string]any{"seats": []string{"lua", "lua", "lua", "lua"}})
	base := "/tables/" + id

	res, _ := f.do(t, http.MethodPost, base+"/deal", "", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var hands []archive.Record
	require.Eventually(t, func() bool {
		res, err := http.Get(f.srv.URL + base + "/history")
		if err != nil {
			return false
		}
		defer res.Body.Close()
		hands = nil
		_ = json.NewDecoder(res.Body).Decode(&hands)
		return len(hands) == 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, hands[0].Hand)
	assert.NotEmpty(t, hands[0].Log)

	res, err := http.Get(f.srv.URL + base + "/log")
	require.NoError(t, err)
	defer res.Body.Close()
	var entries []game.LogEntry
	require.NoError(t, json.NewDecoder(res.Body).Decode(&entries))
	assert.Len(t, entries, len(hands[0].Log))

	res2, state := f.do(t, http.MethodGet, base+"/state", "", nil)
	require.Equal(t, http.StatusOK, res2.StatusCode)
	assert.Equal(t, string(game.PhaseHandComplete), state["phase"])
}

func TestObserverStream(t *testing.T) {
	f := newFixture(t)
	id := f.createTable(t, nil)
	base := "/tables/" + id

	res, _ := f.do(t, http.MethodPost, base+"/deal", "", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + base + "/ws"
	c, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	var u game.Update
	require.NoError(t, wsjson.Read(ctx, c, &u))
	assert.Equal(t, UpdateSnapshot, u.Kind)
	require.NotNil(t, u.State)
	assert.Equal(t, 1, u.State.Hand)
	assert.Equal(t, game.Seat(3), u.State.CurrentTurn)
}
