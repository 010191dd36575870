// internal/hanoi/types.go
//
// Core type definitions for the Tower-of-Hanoi engine.
// Defines:
//   - State: lifecycle of a single game (setup → playing → won).
//   - Move: a request to move the top disk between two pegs.
//   - Listener: receiver of move/win/reset notifications.
//   - Snapshot: read-only view of pegs and counters.

package hanoi

// State is the coarse lifecycle of an Engine.
type State string

const (
	StateSetup   State = "setup"
	StatePlaying State = "playing"
	StateWon     State = "won"
)

// Move identifies a source and destination peg by index.
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Listener receives engine notifications. Calls happen synchronously on the
// goroutine that mutated the engine.
type Listener interface {
	// OnMoveMade fires after every accepted move with the new move count.
	OnMoveMade(moves int)
	// OnWin fires once, right after the move that completed the puzzle.
	OnWin(moves int)
	// OnReset fires after Restart has rebuilt the layout.
	OnReset()
}

// Snapshot is a copy of the engine state, safe to hand to other goroutines.
type Snapshot struct {
	Pegs  [][]int `json:"pegs"`  // disk sizes per peg, bottom → top
	Disks int     `json:"disks"` // total disk count
	Moves int     `json:"moves"` // accepted moves since setup
	State State   `json:"state"`
	Final int     `json:"final"` // index of the terminal peg
}
