package records

import (
	"context"
	"database/sql"
	"time"
)

// Game statuses stored in games.status.
const (
	StatusPlaying   = "playing"
	StatusWon       = "won"
	StatusAbandoned = "abandoned"
)

// Game is one row of the games table.
type Game struct {
	ID          string `json:"id"`
	UserID      string `json:"-"`
	AnonymousID string `json:"-"`
	Pegs        int    `json:"pegs"`
	Disks       int    `json:"disks"`
	Shuffle     bool   `json:"shuffle"`
	Status      string `json:"status"`
	Moves       int    `json:"moves"`
	ElapsedMs   int64  `json:"elapsedMs"`
	StartedAt   string `json:"startedAt"`
	FinishedAt  string `json:"finishedAt,omitempty"`
}

// StartGame records a new game for its owner. For a signed-in user any
// game still marked playing is abandoned first, which breaks the win
// streak, and games_played is bumped.
func (r *Repo) StartGame(ctx context.Context, g Game) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if g.StartedAt == "" {
		g.StartedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if g.UserID != "" {
		res, err := tx.ExecContext(ctx, `UPDATE games SET status=? WHERE user_id=? AND status=?`,
			StatusAbandoned, g.UserID, StatusPlaying)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE users SET streak=0 WHERE id=?`, g.UserID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET games_played = games_played + 1 WHERE id=?`, g.UserID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO games (id, user_id, anonymous_id, pegs, disks, shuffle, status, started_at)
	                                  VALUES (?,?,?,?,?,?,?,?)`,
		g.ID, nullable(g.UserID), nullable(g.AnonymousID), g.Pegs, g.Disks, g.Shuffle, StatusPlaying, g.StartedAt); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordProgress stores the current move count of a game in play.
func (r *Repo) RecordProgress(ctx context.Context, id string, moves int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE games SET moves=? WHERE id=? AND status=?`, moves, id, StatusPlaying)
	return err
}

// RestartGame zeroes the progress of a game still in play. Won and
// abandoned rows are final and left alone.
func (r *Repo) RestartGame(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE games SET moves=0, elapsed_ms=0 WHERE id=? AND status=?`,
		id, StatusPlaying)
	return err
}

// FinishGame marks a game in play as won and bumps the owner's wins and
// streak. A row that is already won or abandoned is left as is, so a game
// is credited at most once.
func (r *Repo) FinishGame(ctx context.Context, id string, moves int, elapsedMs int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var userID sql.NullString
	if err := tx.QueryRowContext(ctx, `SELECT user_id FROM games WHERE id=?`, id).Scan(&userID); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE games SET status=?, moves=?, elapsed_ms=?, finished_at=? WHERE id=? AND status=?`,
		StatusWon, moves, elapsedMs, time.Now().UTC().Format(time.RFC3339), id, StatusPlaying)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n != 1 {
		return err
	}
	if userID.Valid {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET wins = wins + 1, streak = streak + 1 WHERE id=?`, userID.String); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClaimAnonGames transfers anonymous games to a user account after auth.
func (r *Repo) ClaimAnonGames(ctx context.Context, anonID, userID string) (int64, error) {
	if anonID == "" || userID == "" {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UserGames lists a user's most recent games.
func (r *Repo) UserGames(ctx context.Context, userID string, limit int) ([]Game, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, pegs, disks, shuffle, status, moves, elapsed_ms, started_at, COALESCE(finished_at,'')
	                                     FROM games WHERE user_id=? ORDER BY started_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Game{}
	for rows.Next() {
		g := Game{UserID: userID}
		if err := rows.Scan(&g.ID, &g.Pegs, &g.Disks, &g.Shuffle, &g.Status, &g.Moves, &g.ElapsedMs, &g.StartedAt, &g.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Best is a user's best result for one disk count.
type Best struct {
	Disks     int   `json:"disks"`
	Moves     int   `json:"moves"`
	ElapsedMs int64 `json:"elapsedMs"`
}

// BestResults returns a user's fewest moves and fastest time per disk count.
func (r *Repo) BestResults(ctx context.Context, userID string) ([]Best, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT disks, MIN(moves), MIN(elapsed_ms)
	                                     FROM games WHERE user_id=? AND status=?
	                                     GROUP BY disks ORDER BY disks`, userID, StatusWon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Best{}
	for rows.Next() {
		var b Best
		if err := rows.Scan(&b.Disks, &b.Moves, &b.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LBRow is one leaderboard line.
type LBRow struct {
	Username  string `json:"username"`
	Moves     int    `json:"moves"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Leaderboard ranks won, ordered-start games of one disk count by fewest
// moves, then fastest. Guests appear as "guest".
func (r *Repo) Leaderboard(ctx context.Context, disks, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT COALESCE(u.username,'guest'), g.moves, g.elapsed_ms
	                                     FROM games g LEFT JOIN users u ON u.id = g.user_id
	                                     WHERE g.disks=? AND g.status=? AND g.shuffle=0
	                                     ORDER BY g.moves ASC, g.elapsed_ms ASC, g.finished_at ASC
	                                     LIMIT ?`, disks, StatusWon, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var lb LBRow
		if err := rows.Scan(&lb.Username, &lb.Moves, &lb.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, lb)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
