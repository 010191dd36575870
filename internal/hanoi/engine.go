// internal/hanoi/engine.go
//
// Game engine for a single Tower-of-Hanoi session.
// Responsibilities:
//   - Build N disks and seed the initial layout (ordered or shuffled).
//   - Validate and apply moves (top disk only, never onto a smaller disk).
//   - Track state transitions: setup → playing → won.
//   - Notify subscribed listeners about moves, wins, and restarts.
//
// Notes:
//   - The terminal peg is always the last one.
//   - Win detection compares the terminal peg's disk count to the total;
//     CanPlace keeps every stack ordered, so a full terminal peg is solved.
//   - Illegal moves are rejected with false, never an error.
package hanoi

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

const (
	DefaultPegs  = 3
	DefaultDisks = 3
	MaxDisks     = 20
)

// ErrInvalidConfig is returned by New for unusable peg/disk counts.
var ErrInvalidConfig = errors.New("invalid game config")

// Config is fixed for the lifetime of an Engine, restarts included.
type Config struct {
	Pegs    int    `json:"pegs" yaml:"pegs"`
	Disks   int    `json:"disks" yaml:"disks"`
	Shuffle bool   `json:"shuffle" yaml:"shuffle"`
	Seed    uint64 `json:"seed,omitempty" yaml:"seed"` // 0 draws a fresh layout per setup
}

// DefaultConfig is three pegs, three disks, ordered start.
func DefaultConfig() Config {
	return Config{Pegs: DefaultPegs, Disks: DefaultDisks}
}

// Validate checks peg and disk bounds.
func (c Config) Validate() error {
	if c.Pegs < 3 {
		return fmt.Errorf("%w: need at least 3 pegs, got %d", ErrInvalidConfig, c.Pegs)
	}
	if c.Disks < 1 || c.Disks > MaxDisks {
		return fmt.Errorf("%w: disks must be 1–%d, got %d", ErrInvalidConfig, MaxDisks, c.Disks)
	}
	return nil
}

// Engine owns the pegs and disks of one game. It is not safe for concurrent
// use; wrap it (see package session) when several goroutines share a game.
type Engine struct {
	cfg       Config
	pegs      []*Peg
	disks     []*Disk
	moves     int
	state     State
	listeners []Listener
}

// New validates cfg, builds the layout, and returns a playing engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg}
	e.pegs = make([]*Peg, cfg.Pegs)
	for i := range e.pegs {
		e.pegs[i] = NewPeg(i)
	}
	e.setup()
	return e, nil
}

// Subscribe registers l for move/win/reset notifications.
func (e *Engine) Subscribe(l Listener) {
	if l == nil {
		return
	}
	e.listeners = append(e.listeners, l)
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// State reports the current lifecycle state. A zero Engine reports setup.
func (e *Engine) State() State {
	if e.state == "" {
		return StateSetup
	}
	return e.state
}

// Moves returns the number of accepted moves since the last setup.
func (e *Engine) Moves() int { return e.moves }

// Peg returns the peg at index i, or nil when out of range.
func (e *Engine) Peg(i int) *Peg {
	if i < 0 || i >= len(e.pegs) {
		return nil
	}
	return e.pegs[i]
}

// FinalPeg is the terminal peg: the last one.
func (e *Engine) FinalPeg() *Peg {
	if len(e.pegs) == 0 {
		return nil
	}
	return e.pegs[len(e.pegs)-1]
}

// TryMove moves the top disk of peg from onto peg to.
// Returns false with no state change when the engine is not playing, an
// index is out of range, from == to, from is empty, or the destination top
// is smaller than the moving disk.
func (e *Engine) TryMove(from, to int) bool {
	if e.state != StatePlaying || from == to {
		return false
	}
	src, dst := e.Peg(from), e.Peg(to)
	if src == nil || dst == nil {
		return false
	}
	moving := src.Peek()
	if moving == nil || !dst.CanPlace(moving) {
		return false
	}

	src.Pop()
	dst.PushTop(moving)
	e.moves++
	for _, l := range e.listeners {
		l.OnMoveMade(e.moves)
	}
	e.checkWin()
	return true
}

// Restart drops every disk and rebuilds the layout from the same config.
func (e *Engine) Restart() {
	if len(e.pegs) == 0 {
		return
	}
	e.setup()
	for _, l := range e.listeners {
		l.OnReset()
	}
}

// Snapshot copies the current layout and counters.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Pegs:  make([][]int, len(e.pegs)),
		Disks: len(e.disks),
		Moves: e.moves,
		State: e.State(),
		Final: len(e.pegs) - 1,
	}
	for i, p := range e.pegs {
		s.Pegs[i] = p.Sizes()
	}
	return s
}

// Solve returns a legal move sequence that finishes the puzzle from the
// current layout. For an ordered start it is the optimal 2^N-1 sequence.
// Returns nil unless the engine is playing.
func (e *Engine) Solve() []Move {
	if e.state != StatePlaying {
		return nil
	}
	n := len(e.disks)
	pos := e.positions()
	final := len(e.pegs) - 1

	var out []Move
	var place func(k, target int)
	place = func(k, target int) {
		if k == 0 {
			return
		}
		if pos[k] == target {
			place(k-1, target)
			return
		}
		src := pos[k]
		spare := e.spare(src, target)
		place(k-1, spare)
		out = append(out, Move{From: src, To: target})
		pos[k] = target
		place(k-1, target)
	}
	place(n, final)
	return out
}

// NextMove returns the first move Solve would return, without building the
// whole sequence. ok is false unless the engine is playing.
func (e *Engine) NextMove() (m Move, ok bool) {
	if e.state != StatePlaying {
		return Move{}, false
	}
	pos := e.positions()
	var first func(k, target int) (Move, bool)
	first = func(k, target int) (Move, bool) {
		for k > 0 && pos[k] == target {
			k--
		}
		if k == 0 {
			return Move{}, false
		}
		if m, ok := first(k-1, e.spare(pos[k], target)); ok {
			return m, true
		}
		return Move{From: pos[k], To: target}, true
	}
	return first(len(e.disks), len(e.pegs)-1)
}

// positions maps disk size to peg index.
func (e *Engine) positions() []int {
	pos := make([]int, len(e.disks)+1)
	for _, p := range e.pegs {
		for _, d := range p.stack {
			pos[d.Size] = p.Index
		}
	}
	return pos
}

// spare returns the lowest peg index that is neither a nor b.
func (e *Engine) spare(a, b int) int {
	for i := range e.pegs {
		if i != a && i != b {
			return i
		}
	}
	return -1
}

// setup rebuilds disks and layout, then enters playing.
func (e *Engine) setup() {
	e.state = StateSetup
	for _, p := range e.pegs {
		p.Clear()
	}
	e.disks = e.disks[:0]
	e.moves = 0

	// Largest first: disks[0] has size N.
	for size := e.cfg.Disks; size >= 1; size-- {
		e.disks = append(e.disks, &Disk{Size: size})
	}

	if e.cfg.Shuffle {
		e.deal(e.rng())
	} else {
		// Smallest first so each PushBottom slides a larger disk underneath.
		for i := len(e.disks) - 1; i >= 0; i-- {
			e.pegs[0].PushBottom(e.disks[i])
		}
	}
	e.state = StatePlaying
}

// deal spreads disks over random pegs, largest first, so every stack is
// ordered by construction. The largest disk never starts on the terminal
// peg, which keeps a shuffled start from being already won.
func (e *Engine) deal(r *rand.Rand) {
	last := len(e.pegs) - 1
	for i, d := range e.disks {
		n := len(e.pegs)
		if i == 0 {
			n = last
		}
		e.pegs[r.IntN(n)].PushTop(d)
	}
}

func (e *Engine) rng() *rand.Rand {
	if e.cfg.Seed != 0 {
		return rand.New(rand.NewPCG(e.cfg.Seed, e.cfg.Seed^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (e *Engine) checkWin() {
	final := e.FinalPeg()
	if final == nil || final.Count() != len(e.disks) {
		return
	}
	e.state = StateWon
	for _, l := range e.listeners {
		l.OnWin(e.moves)
	}
}
