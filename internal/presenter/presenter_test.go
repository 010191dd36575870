package presenter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRewardFloorsAtZero(t *testing.T) {
	tests := []struct {
		before, after int
	}{
		{3, 0},
		{10, 5},
		{5, 0},
		{0, 0},
		{6, 1},
	}
	for _, tt := range tests {
		p := New()
		for i := 0; i < tt.before; i++ {
			p.OnMoveMade(i + 1)
		}
		p.Reward()
		assert.Equal(t, tt.after, p.Moves(), "reward at %d", tt.before)
	}
}

func TestRewardDoesNotResurrectWin(t *testing.T) {
	p := New()
	for i := 0; i < 10; i++ {
		p.OnMoveMade(i + 1)
	}
	p.OnWin(10)
	p.Reward()

	v := p.View()
	assert.Equal(t, 5, v.Moves)
	assert.True(t, v.WinVisible)
	assert.False(t, v.Running)
}

func TestTimerFreezesOnWin(t *testing.T) {
	p := New()
	p.Tick(1500 * time.Millisecond)
	p.Tick(-time.Second)
	assert.Equal(t, 1500*time.Millisecond, p.Elapsed())

	p.OnWin(7)
	p.Tick(time.Minute)
	assert.Equal(t, 1500*time.Millisecond, p.Elapsed())
}

func TestResetClearsEverything(t *testing.T) {
	p := New()
	p.OnMoveMade(1)
	p.Tick(3 * time.Second)
	p.OnWin(1)

	p.OnReset()

	v := p.View()
	assert.Equal(t, 0, v.Moves)
	assert.Equal(t, int64(0), v.ElapsedMs)
	assert.Equal(t, "00:00", v.Clock)
	assert.True(t, v.Running)
	assert.False(t, v.WinVisible)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "00:59", FormatClock(59*time.Second+900*time.Millisecond))
	assert.Equal(t, "02:05", FormatClock(125*time.Second))
	assert.Equal(t, "00:01", FormatClock(time.Hour+time.Second))
	assert.Equal(t, "00:00", FormatClock(-time.Second))
}
