// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's puzzle (creates or reuses session)
//   - POST /daily/move        → {gameId, from, to} on today's puzzle
//   - GET  /daily/leaderboard → top 20 results for today (or ?date=YYYY-MM-DD)
//
// Everyone gets the same shuffled layout for a date (seeded from date + salt).
// A player may restart freely; only the first win of the day is recorded.
// Live daily sessions sit in the shared session store, so the /game/{id}
// routes (view, restart, reward, hint, ws) work on them too.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hanoi/internal/daily"
	"github.com/robalobadob/hanoi/internal/session"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	salt     string
	sessions map[string]*session.Session // keyed by owner|date
	mu       sync.Mutex                  // guards sessions
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.repo.DB()),
		salt:     s.cfg.Daily.Salt,
		sessions: make(map[string]*session.Session),
	}
	s.daily = dd
	r.Post("/daily/new", dd.handleNew)
	r.Post("/daily/move", dd.handleMove)
	r.Get("/daily/leaderboard", dd.handleLeaderboard)
}

func dailyKey(owner, date string) string { return owner + "|" + date }

// forget drops a swept session from the daily index.
func (d *dailyServer) forget(sess *session.Session) {
	if d == nil || sess.Daily == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	key := dailyKey(sess.Owner, sess.Daily)
	if cur, ok := d.sessions[key]; ok && cur == sess {
		delete(d.sessions, key)
	}
}

// -----------------------------------------------------------------------------
// /daily/new

// dailyNewRes is returned by /daily/new.
type dailyNewRes struct {
	GameID string        `json:"gameId"`
	Date   string        `json:"date"`
	Played bool          `json:"played"`
	View   *session.View `json:"view,omitempty"`
}

// handleNew creates or reuses today's session for the caller.
//   - A recorded result for today → Played=true, no session.
//   - Otherwise the live session (existing or new) and its view.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid, _, _ := d.srv.owner(w, r)
	now := d.srv.now()
	date := daily.DateKey(now)

	played, err := d.store.AlreadyPlayed(r.Context(), uid, date)
	if err != nil {
		log.Warn().Err(err).Str("user", uid).Msg("daily already played")
	}
	if played {
		writeJSON(w, http.StatusOK, dailyNewRes{Date: date, Played: true})
		return
	}

	key := dailyKey(uid, date)
	d.mu.Lock()
	sess, ok := d.sessions[key]
	if !ok {
		sess, err = session.New(daily.Config(now, d.salt, d.srv.cfg.Game.Pegs), session.Options{
			Owner: uid,
			Daily: date,
			Now:   d.srv.now,
		})
		if err != nil {
			d.mu.Unlock()
			log.Error().Err(err).Msg("daily session")
			writeError(w, http.StatusInternalServerError, "daily_unavailable")
			return
		}
		d.sessions[key] = sess
	}
	d.mu.Unlock()

	if err := d.srv.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save daily session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	if !ok {
		log.Info().Str("gameId", sess.ID).Str("date", date).Int("disks", sess.Config().Disks).Msg("daily started")
	}
	v := sess.View()
	writeJSON(w, http.StatusOK, dailyNewRes{GameID: sess.ID, Date: date, View: &v})
}

// -----------------------------------------------------------------------------
// /daily/move

// dailyMoveReq is the request payload for /daily/move.
type dailyMoveReq struct {
	GameID string `json:"gameId"`
	From   *int   `json:"from"`
	To     *int   `json:"to"`
}

// handleMove applies a move to the caller's session for today.
// A gameId from another day or another player is a 409.
func (d *dailyServer) handleMove(w http.ResponseWriter, r *http.Request) {
	uid, _, _ := d.srv.owner(w, r)

	var p dailyMoveReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.GameID == "" || p.From == nil || p.To == nil {
		writeError(w, http.StatusBadRequest, "gameId, from and to are required")
		return
	}

	date := daily.DateKey(d.srv.now())
	d.mu.Lock()
	sess, ok := d.sessions[dailyKey(uid, date)]
	d.mu.Unlock()
	if !ok || sess.ID != p.GameID {
		writeError(w, http.StatusConflict, "no_session")
		return
	}

	v, moved := d.srv.applyMove(r.Context(), sess, *p.From, *p.To)
	writeJSON(w, http.StatusOK, moveRes{OK: moved, View: v})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// dailyLBRes is returned by /daily/leaderboard.
type dailyLBRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, dailyLBRes{Date: date, Top: rows})
}
