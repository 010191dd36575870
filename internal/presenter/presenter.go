// internal/presenter/presenter.go
//
// Derived display state for a Hanoi game: move counter, elapsed time, and
// the win summary. The presenter never touches pegs; it only listens to the
// engine (hanoi.Listener) and to the frame clock (Tick).
//
// The reward hook lowers the displayed move count; it cannot resurrect a
// finished game or restart the timer.
package presenter

import (
	"fmt"
	"time"
)

// RewardMoves is how many moves a completed rewarded ad takes off the counter.
const RewardMoves = 5

// View is what a client renders.
type View struct {
	Moves      int           `json:"moves"`
	Elapsed    time.Duration `json:"-"`
	ElapsedMs  int64         `json:"elapsedMs"`
	Clock      string        `json:"clock"` // MM:SS
	Running    bool          `json:"running"`
	WinVisible bool          `json:"won"`
}

// Presenter tracks the counters shown to the player.
type Presenter struct {
	moves   int
	elapsed time.Duration
	running bool
	won     bool
}

// New returns a presenter in its reset state.
func New() *Presenter {
	p := &Presenter{}
	p.Reset()
	return p
}

// Reset zeroes the counters, restarts the timer and hides the win panel.
func (p *Presenter) Reset() {
	p.moves = 0
	p.elapsed = 0
	p.running = true
	p.won = false
}

// Tick advances the timer while the game is running.
func (p *Presenter) Tick(dt time.Duration) {
	if !p.running || dt <= 0 {
		return
	}
	p.elapsed += dt
}

// OnMoveMade implements hanoi.Listener.
func (p *Presenter) OnMoveMade(int) { p.moves++ }

// OnWin implements hanoi.Listener: freeze the timer and show the summary.
func (p *Presenter) OnWin(int) {
	p.running = false
	p.won = true
}

// OnReset implements hanoi.Listener.
func (p *Presenter) OnReset() { p.Reset() }

// Reward takes RewardMoves off the displayed count, floored at zero.
func (p *Presenter) Reward() {
	p.moves -= RewardMoves
	if p.moves < 0 {
		p.moves = 0
	}
}

// Moves is the displayed move count.
func (p *Presenter) Moves() int { return p.moves }

// Elapsed is the accumulated play time.
func (p *Presenter) Elapsed() time.Duration { return p.elapsed }

// View snapshots the display state.
func (p *Presenter) View() View {
	return View{
		Moves:      p.moves,
		Elapsed:    p.elapsed,
		ElapsedMs:  p.elapsed.Milliseconds(),
		Clock:      FormatClock(p.elapsed),
		Running:    p.running,
		WinVisible: p.won,
	}
}

// FormatClock renders d as MM:SS. Minutes wrap at the hour like the
// in-game timer label.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", (total/60)%60, total%60)
}
