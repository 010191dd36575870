// internal/session/session.go
//
// Session binds one hanoi.Engine to one presenter.Presenter and serializes
// access to both. HTTP handlers and WebSocket pumps run on many goroutines;
// the session mutex gives the engine the single owner it expects.
//
// Wiring is explicit: New builds the engine, builds the presenter, and
// subscribes the presenter plus an event relay to the engine. Nothing is
// registered globally.
//
// Elapsed time is driven by the injected clock: every access ticks the
// presenter by the wall time since the previous access.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/hanoi/internal/hanoi"
	"github.com/robalobadob/hanoi/internal/presenter"
)

// Event types pushed to sinks.
const (
	EventMove  = "move"
	EventWin   = "win"
	EventReset = "reset"
)

// Event is a notification emitted after the engine changed.
type Event struct {
	Type   string `json:"type"`
	GameID string `json:"gameId"`
	View   View   `json:"view"`
}

// Sink receives events. Publish is called with the session lock held, so it
// must not block or call back into the session.
type Sink interface {
	Publish(Event)
}

// Options tune a new session. Zero values pick defaults.
type Options struct {
	ID    string           // defaults to a random UUID
	Owner string           // user or anonymous id, informational
	Daily string           // YYYY-MM-DD for daily challenge sessions
	Now   func() time.Time // defaults to time.Now
}

// View is the combined engine + presenter state returned to clients.
type View struct {
	ID string `json:"gameId"`
	hanoi.Snapshot
	Display presenter.View `json:"display"`
}

// Session is safe for concurrent use.
type Session struct {
	ID        string
	Owner     string
	Daily     string
	CreatedAt time.Time

	mu       sync.Mutex
	engine   *hanoi.Engine
	pres     *presenter.Presenter
	now      func() time.Time
	last     time.Time
	sinks    []Sink
	recorded bool
}

// New builds a session around a fresh engine.
func New(cfg hanoi.Config, opts Options) (*Session, error) {
	eng, err := hanoi.New(cfg)
	if err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	s := &Session{
		ID:     opts.ID,
		Owner:  opts.Owner,
		Daily:  opts.Daily,
		engine: eng,
		pres:   presenter.New(),
		now:    opts.Now,
	}
	s.CreatedAt = s.now()
	s.last = s.CreatedAt
	eng.Subscribe(s.pres)
	eng.Subscribe(relay{s})
	return s, nil
}

// Config returns the engine configuration.
func (s *Session) Config() hanoi.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Config()
}

// Subscribe adds an event sink.
func (s *Session) Subscribe(k Sink) {
	if k == nil {
		return
	}
	s.mu.Lock()
	s.sinks = append(s.sinks, k)
	s.mu.Unlock()
}

// Unsubscribe removes a previously added sink.
func (s *Session) Unsubscribe(k Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, x := range s.sinks {
		if x == k {
			s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
			return
		}
	}
}

// Move applies a move request. ok is false for rejected moves, in which
// case nothing changed.
func (s *Session) Move(from, to int) (v View, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()
	ok = s.engine.TryMove(from, to)
	return s.view(), ok
}

// Restart rebuilds the layout and resets counters and the clock.
func (s *Session) Restart() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Restart()
	s.last = s.now()
	s.recorded = false
	return s.view()
}

// Reward applies the rewarded-ad bonus to the displayed move count.
func (s *Session) Reward() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()
	s.pres.Reward()
	return s.view()
}

// View returns the current state, advancing the clock first.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()
	return s.view()
}

// Hint returns the next move of a solution from the current layout.
func (s *Session) Hint() (hanoi.Move, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.NextMove()
}

// ClaimRecord returns true exactly once per won game, so the caller
// persists each result a single time.
func (s *Session) ClaimRecord() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.State() != hanoi.StateWon || s.recorded {
		return false
	}
	s.recorded = true
	return true
}

func (s *Session) tick() {
	now := s.now()
	s.pres.Tick(now.Sub(s.last))
	s.last = now
}

func (s *Session) view() View {
	return View{ID: s.ID, Snapshot: s.engine.Snapshot(), Display: s.pres.View()}
}

func (s *Session) publish(kind string) {
	if len(s.sinks) == 0 {
		return
	}
	ev := Event{Type: kind, GameID: s.ID, View: s.view()}
	for _, k := range s.sinks {
		k.Publish(ev)
	}
}

// relay forwards engine notifications to the session sinks. The presenter
// is subscribed before the relay, so views in events are already updated.
type relay struct{ s *Session }

func (r relay) OnMoveMade(int) { r.s.publish(EventMove) }
func (r relay) OnWin(int)      { r.s.publish(EventWin) }
func (r relay) OnReset()       { r.s.publish(EventReset) }
