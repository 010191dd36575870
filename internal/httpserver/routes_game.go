// internal/httpserver/routes_game.go
//
// HTTP routes for regular Hanoi games.
//   - POST /game/new          → start a game {disks, shuffle, seed}
//   - GET  /game/{id}         → current view
//   - POST /game/{id}/move    → {from, to}; a rejected move is 200 with ok=false
//   - POST /game/{id}/restart → rebuild the layout, zero the counters
//   - GET  /game/{id}/reward  → rewarded-ad readiness
//   - POST /game/{id}/reward  → {completed, failed}; a completed view takes 5
//     off the displayed moves
//   - GET  /game/{id}/hint    → next move of a solution
//   - GET  /game/{id}/ws      → WebSocket event stream (and move input)
//   - GET  /leaderboard       → best ordered-start wins for ?disks=N

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hanoi/internal/daily"
	"github.com/robalobadob/hanoi/internal/events"
	"github.com/robalobadob/hanoi/internal/hanoi"
	"github.com/robalobadob/hanoi/internal/records"
	"github.com/robalobadob/hanoi/internal/rewards"
	"github.com/robalobadob/hanoi/internal/session"
	"github.com/robalobadob/hanoi/internal/store"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Get("/game/{id}", s.withSession(s.handleGetGame))
	r.Post("/game/{id}/move", s.withSession(s.handleMove))
	r.Post("/game/{id}/restart", s.withSession(s.handleRestart))
	r.Get("/game/{id}/reward", s.withSession(s.handleRewardStatus))
	r.Post("/game/{id}/reward", s.withSession(s.handleReward))
	r.Get("/game/{id}/hint", s.withSession(s.handleHint))
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession resolves {id} from the live store or answers 404.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found")
				return
			}
			log.Error().Err(err).Msg("load session")
			writeError(w, http.StatusInternalServerError, "load_failed")
			return
		}
		h(w, r, sess)
	}
}

// newGameReq is the payload for POST /game/new. Zero fields use defaults.
type newGameReq struct {
	Disks   int    `json:"disks"`
	Shuffle bool   `json:"shuffle"`
	Seed    uint64 `json:"seed"`
}

type newGameRes struct {
	GameID string       `json:"gameId"`
	View   session.View `json:"view"`
}

// handleNewGame creates a live session and a games row for its owner.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json")
			return
		}
	}
	if req.Disks == 0 {
		req.Disks = s.cfg.Game.DefaultDisks
	}
	if req.Disks < 1 || req.Disks > s.cfg.Game.MaxDisks {
		writeError(w, http.StatusBadRequest, "disks must be 1–"+strconv.Itoa(s.cfg.Game.MaxDisks))
		return
	}

	cfg := hanoi.Config{Pegs: s.cfg.Game.Pegs, Disks: req.Disks, Shuffle: req.Shuffle, Seed: req.Seed}
	owner, userID, anonID := s.owner(w, r)
	sess, err := session.New(cfg, session.Options{Owner: owner, Now: s.now})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}

	if err := s.repo.StartGame(r.Context(), records.Game{
		ID: sess.ID, UserID: userID, AnonymousID: anonID,
		Pegs: cfg.Pegs, Disks: cfg.Disks, Shuffle: cfg.Shuffle,
	}); err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("insert game row")
	}

	log.Info().Str("gameId", sess.ID).Int("disks", cfg.Disks).Bool("shuffle", cfg.Shuffle).Msg("game started")
	writeJSON(w, http.StatusOK, newGameRes{GameID: sess.ID, View: sess.View()})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, sess.View())
}

// moveReq is the payload for POST /game/{id}/move.
type moveReq struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

type moveRes struct {
	OK   bool         `json:"ok"`
	View session.View `json:"view"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.From == nil || req.To == nil {
		writeError(w, http.StatusBadRequest, "from and to are required")
		return
	}
	v, ok := s.applyMove(r.Context(), sess, *req.From, *req.To)
	writeJSON(w, http.StatusOK, moveRes{OK: ok, View: v})
}

// applyMove runs a move and persists its effects. Shared by HTTP and
// WebSocket input.
func (s *Server) applyMove(ctx context.Context, sess *session.Session, from, to int) (session.View, bool) {
	v, ok := sess.Move(from, to)
	if !ok {
		return v, false
	}
	if sess.Daily == "" {
		if err := s.repo.RecordProgress(ctx, sess.ID, v.Moves); err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("record progress")
		}
	}
	if v.State == hanoi.StateWon && sess.ClaimRecord() {
		s.recordWin(ctx, sess, v)
	}
	return v, true
}

// recordWin stores a finished game: daily results for daily sessions,
// the games table otherwise.
func (s *Server) recordWin(ctx context.Context, sess *session.Session, v session.View) {
	l := log.With().Str("gameId", sess.ID).Int("moves", v.Moves).Int64("elapsedMs", v.Display.ElapsedMs).Logger()
	if sess.Daily != "" {
		err := daily.NewStore(s.repo.DB()).InsertResult(ctx, daily.Result{
			UserID: sess.Owner, Date: sess.Daily, Disks: v.Disks, Moves: v.Moves, ElapsedMs: v.Display.ElapsedMs,
		})
		if err != nil {
			l.Warn().Err(err).Msg("insert daily result")
			return
		}
		l.Info().Str("date", sess.Daily).Msg("daily solved")
		return
	}
	if err := s.repo.FinishGame(ctx, sess.ID, v.Moves, v.Display.ElapsedMs); err != nil {
		l.Warn().Err(err).Msg("finish game")
		return
	}
	l.Info().Msg("game solved")
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, s.restart(r.Context(), sess))
}

// restart rebuilds a session. The games row is only reset while still in
// play; a won row keeps its first result.
func (s *Server) restart(ctx context.Context, sess *session.Session) session.View {
	v := sess.Restart()
	if sess.Daily == "" {
		if err := s.repo.RestartGame(ctx, sess.ID); err != nil {
			log.Warn().Err(err).Str("gameId", sess.ID).Msg("restart game row")
		}
	}
	return v
}

func (s *Server) handleRewardStatus(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	writeJSON(w, http.StatusOK, s.rewards.Status(sess.ID))
}

// rewardReq reports one ad view: completed, skipped (neither flag), or
// failed to show.
type rewardReq struct {
	Completed bool `json:"completed"`
	Failed    bool `json:"failed"`
}

func (q rewardReq) outcome() rewards.Outcome {
	switch {
	case q.Failed:
		return rewards.Failed
	case q.Completed:
		return rewards.Completed
	default:
		return rewards.Skipped
	}
}

type rewardRes struct {
	Rewarded bool           `json:"rewarded"`
	Status   rewards.Status `json:"status"`
	View     session.View   `json:"view"`
}

// handleReward redeems a rewarded-ad view reported by the client.
func (s *Server) handleReward(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req rewardReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	err := s.rewards.Redeem(sess.ID, req.outcome(), func() { sess.Reward() })
	res := rewardRes{Rewarded: err == nil, Status: s.rewards.Status(sess.ID), View: sess.View()}
	switch {
	case err == nil, errors.Is(err, rewards.ErrSkipped), errors.Is(err, rewards.ErrFailed):
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, rewards.ErrNotReady):
		writeJSON(w, http.StatusTooManyRequests, res)
	default:
		writeError(w, http.StatusInternalServerError, "reward_failed")
	}
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	m, ok := sess.Hint()
	if !ok {
		writeError(w, http.StatusConflict, "game_over")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleLeaderboard returns the best wins for ?disks=N (default configured disks).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	disks := s.cfg.Game.DefaultDisks
	if q := r.URL.Query().Get("disks"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_disks")
			return
		}
		disks = n
	}
	rows, err := s.repo.Leaderboard(r.Context(), disks, 20)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"disks": disks, "top": rows})
}

// ------------------------------ WebSocket ----------------------------------

func (s *Server) newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == s.cfg.ClientOrigin
		},
	}
}

// wsCommand is an inbound frame: {"type":"move","from":0,"to":2},
// {"type":"restart"} or {"type":"view"}.
type wsCommand struct {
	Type string `json:"type"`
	From int    `json:"from"`
	To   int    `json:"to"`
}

type wsReply struct {
	Type  string        `json:"type"`
	Error string        `json:"error,omitempty"`
	View  *session.View `json:"view,omitempty"`
}

// handleStream upgrades to WebSocket and streams the game's events. Clients
// may also send moves over the same socket; accepted moves arrive as
// broadcast events, rejected ones as a "rejected" reply to the sender only.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade")
		return
	}

	hub := s.hubs.Hub(sess)
	c := events.NewClient(hub, conn)
	if !hub.Register(c) {
		conn.Close()
		return
	}
	view := sess.View()
	if msg, err := json.Marshal(wsReply{Type: "hello", View: &view}); err == nil {
		c.Reply(msg)
	}

	go c.WritePump()
	go c.ReadPump(func(c *events.Client, raw []byte) {
		s.handleCommand(sess, c, raw)
	})
}

func (s *Server) handleCommand(sess *session.Session, c *events.Client, raw []byte) {
	var cmd wsCommand
	reply := func(rep wsReply) {
		if msg, err := json.Marshal(rep); err == nil {
			c.Reply(msg)
		}
	}
	if err := json.Unmarshal(raw, &cmd); err != nil {
		reply(wsReply{Type: "error", Error: "bad_json"})
		return
	}
	ctx := context.Background()
	switch cmd.Type {
	case "move":
		if v, ok := s.applyMove(ctx, sess, cmd.From, cmd.To); !ok {
			reply(wsReply{Type: "rejected", View: &v})
		}
	case "restart":
		s.restart(ctx, sess)
	case "view":
		v := sess.View()
		reply(wsReply{Type: "view", View: &v})
	default:
		reply(wsReply{Type: "error", Error: "unknown_command"})
	}
}
