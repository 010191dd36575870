package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/hanoi/internal/config"
	"github.com/robalobadob/hanoi/internal/daily"
	"github.com/robalobadob/hanoi/internal/hanoi"
	"github.com/robalobadob/hanoi/internal/records"
	"github.com/robalobadob/hanoi/internal/session"
	"github.com/robalobadob/hanoi/internal/store"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type testEnv struct {
	srv    *Server
	ts     *httptest.Server
	client *http.Client
	clock  *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "hanoi.db")

	db, err := records.Open(cfg.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, records.Migrate(db))

	clk := &testClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	s := New(cfg, store.NewMemoryStore(), records.NewRepo(db))
	s.now = clk.now
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{srv: s, ts: ts, client: &http.Client{Jar: jar}, clock: clk}
}

// do sends body as JSON (when non-nil) and decodes the response into out
// (when non-nil). It returns the status code.
func (e *testEnv) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := e.client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (e *testEnv) newGame(t *testing.T, req newGameReq) newGameRes {
	t.Helper()
	var res newGameRes
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/game/new", req, &res))
	require.NotEmpty(t, res.GameID)
	return res
}

func (e *testEnv) move(t *testing.T, id string, from, to int) moveRes {
	t.Helper()
	var res moveRes
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/game/"+id+"/move", map[string]int{"from": from, "to": to}, &res))
	return res
}

var classicThree = []hanoi.Move{
	{From: 0, To: 2}, {From: 0, To: 1}, {From: 2, To: 1}, {From: 0, To: 2},
	{From: 1, To: 0}, {From: 1, To: 2}, {From: 0, To: 2},
}

func TestHealthAndNotFound(t *testing.T) {
	e := newTestEnv(t)

	var ok map[string]bool
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/health", nil, &ok))
	assert.True(t, ok["ok"])

	var nf map[string]string
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/nope", nil, &nf))
	assert.Equal(t, "not_found", nf["error"])

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/game/missing", nil, nil))
}

func TestSolveGameAndLeaderboard(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, newGameReq{})
	assert.Equal(t, [][]int{{3, 2, 1}, {}, {}}, g.View.Pegs)
	assert.Equal(t, hanoi.StatePlaying, g.View.State)

	var last moveRes
	for _, m := range classicThree {
		last = e.move(t, g.GameID, m.From, m.To)
		require.True(t, last.OK)
	}
	assert.Equal(t, hanoi.StateWon, last.View.State)
	assert.Equal(t, 7, last.View.Moves)
	assert.True(t, last.View.Display.WinVisible)
	assert.False(t, last.View.Display.Running)

	// Nothing moves once won.
	after := e.move(t, g.GameID, 2, 0)
	assert.False(t, after.OK)
	assert.Equal(t, 7, after.View.Moves)

	var lb struct {
		Disks int             `json:"disks"`
		Top   []records.LBRow `json:"top"`
	}
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/leaderboard?disks=3", nil, &lb))
	require.Len(t, lb.Top, 1)
	assert.Equal(t, "guest", lb.Top[0].Username)
	assert.Equal(t, 7, lb.Top[0].Moves)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/leaderboard?disks=x", nil, nil))
}

func TestRejectedMovesAndBadInput(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, newGameReq{Disks: 4})

	res := e.move(t, g.GameID, 1, 0) // empty source
	assert.False(t, res.OK)
	assert.Equal(t, 0, res.View.Moves)
	assert.Equal(t, g.View.Pegs, res.View.Pegs)

	require.True(t, e.move(t, g.GameID, 0, 1).OK)
	res = e.move(t, g.GameID, 0, 1) // larger onto smaller
	assert.False(t, res.OK)
	assert.Equal(t, 1, res.View.Moves)

	assert.Equal(t, http.StatusBadRequest,
		e.do(t, http.MethodPost, "/game/"+g.GameID+"/move", map[string]int{"from": 0}, nil))
	assert.Equal(t, http.StatusBadRequest,
		e.do(t, http.MethodPost, "/game/new", newGameReq{Disks: 99}, nil))
}

func TestRestartResetsGame(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, newGameReq{})
	require.True(t, e.move(t, g.GameID, 0, 2).OK)

	var v session.View
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/game/"+g.GameID+"/restart", nil, &v))
	assert.Equal(t, 0, v.Moves)
	assert.Equal(t, 0, v.Display.Moves)
	assert.Equal(t, [][]int{{3, 2, 1}, {}, {}}, v.Pegs)
}

func TestRewardCooldown(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, newGameReq{})
	path := "/game/" + g.GameID + "/reward"
	for _, m := range classicThree[:2] {
		require.True(t, e.move(t, g.GameID, m.From, m.To).OK)
	}

	var res rewardRes
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, path, rewardReq{Completed: true}, &res))
	assert.True(t, res.Rewarded)
	assert.Equal(t, 0, res.View.Display.Moves, "floored at zero")
	assert.Equal(t, 2, res.View.Moves, "engine count untouched")
	assert.False(t, res.Status.Ready)

	assert.Equal(t, http.StatusTooManyRequests, e.do(t, http.MethodPost, path, rewardReq{Completed: true}, &res))
	assert.False(t, res.Rewarded)

	// A skipped view redeems nothing and leaves the reward ready.
	g2 := e.newGame(t, newGameReq{})
	path2 := "/game/" + g2.GameID + "/reward"
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, path2, rewardReq{}, &res))
	assert.False(t, res.Rewarded)
	assert.True(t, res.Status.Ready)

	// A failed show redeems nothing and starts the retry wait.
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, path2, rewardReq{Failed: true}, &res))
	assert.False(t, res.Rewarded)
	assert.False(t, res.Status.Ready)
	assert.Positive(t, res.Status.ReadyIn)
}

func TestHint(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, newGameReq{})

	var m hanoi.Move
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/game/"+g.GameID+"/hint", nil, &m))
	assert.Equal(t, hanoi.Move{From: 0, To: 2}, m)

	for _, m := range classicThree {
		e.move(t, g.GameID, m.From, m.To)
	}
	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodGet, "/game/"+g.GameID+"/hint", nil, nil))
}

func TestAuthFlowAndStats(t *testing.T) {
	e := newTestEnv(t)
	creds := credentials{Username: "peg_master", Password: "hunter22"}

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/auth/me", nil, nil))
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/auth/signup", creds, nil))
	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, "/auth/signup", creds, nil))

	var me authUser
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/auth/me", nil, &me))
	assert.Equal(t, "peg_master", me.Username)

	g := e.newGame(t, newGameReq{})
	for _, m := range classicThree {
		require.True(t, e.move(t, g.GameID, m.From, m.To).OK)
	}

	var stats struct {
		GamesPlayed int            `json:"gamesPlayed"`
		Wins        int            `json:"wins"`
		Streak      int            `json:"streak"`
		Best        []records.Best `json:"best"`
	}
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/stats/me", nil, &stats))
	assert.Equal(t, 1, stats.GamesPlayed)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Streak)
	require.Len(t, stats.Best, 1)
	assert.Equal(t, records.Best{Disks: 3, Moves: 7, ElapsedMs: stats.Best[0].ElapsedMs}, stats.Best[0])

	var games []records.Game
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/games/mine", nil, &games))
	require.Len(t, games, 1)
	assert.Equal(t, records.StatusWon, games[0].Status)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/auth/me", nil, nil))

	assert.Equal(t, http.StatusUnauthorized,
		e.do(t, http.MethodPost, "/auth/login", credentials{Username: "peg_master", Password: "wrong-one"}, nil))
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/auth/login", creds, nil))
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/auth/me", nil, nil))
}

func TestRestartAfterWinDoesNotRecreditStats(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, http.StatusOK,
		e.do(t, http.MethodPost, "/auth/signup", credentials{Username: "replayer", Password: "hunter22"}, nil))

	g := e.newGame(t, newGameReq{Disks: 1})
	for i := 0; i < 3; i++ {
		res := e.move(t, g.GameID, 0, 2)
		require.True(t, res.OK)
		require.Equal(t, hanoi.StateWon, res.View.State)
		require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/game/"+g.GameID+"/restart", nil, nil))
	}

	var stats struct {
		GamesPlayed int `json:"gamesPlayed"`
		Wins        int `json:"wins"`
		Streak      int `json:"streak"`
	}
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/stats/me", nil, &stats))
	assert.Equal(t, 1, stats.GamesPlayed)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Streak)
	assert.LessOrEqual(t, stats.Wins, stats.GamesPlayed)
}

func TestLoginClaimsGuestGames(t *testing.T) {
	e := newTestEnv(t)
	e.newGame(t, newGameReq{})
	require.Equal(t, http.StatusOK,
		e.do(t, http.MethodPost, "/auth/signup", credentials{Username: "late_joiner", Password: "hunter22"}, nil))

	var games []records.Game
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/games/mine", nil, &games))
	assert.Len(t, games, 1)
}

func TestDailyFlow(t *testing.T) {
	e := newTestEnv(t)
	day := e.clock.now()

	var start dailyNewRes
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/daily/new", nil, &start))
	require.NotEmpty(t, start.GameID)
	require.NotNil(t, start.View)
	assert.Equal(t, "2026-03-14", start.Date)
	assert.False(t, start.Played)

	// Same player, same day: same session.
	var again dailyNewRes
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/daily/new", nil, &again))
	assert.Equal(t, start.GameID, again.GameID)

	// Everyone gets the same layout for the day.
	eng, err := hanoi.New(daily.Config(day, e.srv.cfg.Daily.Salt, e.srv.cfg.Game.Pegs))
	require.NoError(t, err)
	assert.Equal(t, eng.Snapshot().Pegs, start.View.Pegs)

	assert.Equal(t, http.StatusConflict, e.do(t, http.MethodPost, "/daily/move",
		map[string]any{"gameId": "someone-else", "from": 0, "to": 1}, nil))

	solution := eng.Solve()
	require.NotEmpty(t, solution)
	var res moveRes
	for _, m := range solution {
		require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/daily/move",
			map[string]any{"gameId": start.GameID, "from": m.From, "to": m.To}, &res))
		require.True(t, res.OK)
	}
	assert.Equal(t, hanoi.StateWon, res.View.State)

	var done dailyNewRes
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/daily/new", nil, &done))
	assert.True(t, done.Played)
	assert.Empty(t, done.GameID)

	var lb dailyLBRes
	require.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/daily/leaderboard", nil, &lb))
	assert.Equal(t, "2026-03-14", lb.Date)
	require.Len(t, lb.Top, 1)
	assert.Equal(t, len(solution), lb.Top[0].Moves)
}

func TestSweepForgetsDailySession(t *testing.T) {
	e := newTestEnv(t)
	day := e.clock.now()

	var start dailyNewRes
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, "/daily/new", nil, &start))

	e.clock.set(day.Add(48 * time.Hour))
	assert.Equal(t, 1, e.srv.sweep(context.Background()))
	e.srv.daily.mu.Lock()
	assert.Empty(t, e.srv.daily.sessions)
	e.srv.daily.mu.Unlock()
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/game/"+start.GameID, nil, nil))
}

func TestWebSocketStream(t *testing.T) {
	e := newTestEnv(t)
	g := e.newGame(t, newGameReq{Disks: 1})

	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/game/" + g.GameID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello wsReply
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)
	require.NotNil(t, hello.View)
	assert.Equal(t, g.GameID, hello.View.ID)

	require.NoError(t, conn.WriteJSON(wsCommand{Type: "move", From: 1, To: 0}))
	var rejected wsReply
	require.NoError(t, conn.ReadJSON(&rejected))
	assert.Equal(t, "rejected", rejected.Type)

	// Moves over HTTP reach the stream too.
	require.True(t, e.move(t, g.GameID, 0, 2).OK)

	var ev session.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, session.EventMove, ev.Type)
	assert.Equal(t, 1, ev.View.Moves)

	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, session.EventWin, ev.Type)
	assert.Equal(t, hanoi.StateWon, ev.View.State)
}
