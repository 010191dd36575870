package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/hanoi/internal/hanoi"
)

// Disk counts a daily puzzle can draw from.
const (
	MinDisks = 3
	MaxDisks = 7
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic, non-zero seed for a date using HMAC(salt, YYYY-MM-DD).
func Seed(date time.Time, salt string) uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as the seed; 0 means "unseeded" to the engine
	n := binary.BigEndian.Uint64(sum[:8])
	if n == 0 {
		n = 1
	}
	return n
}

// Config returns the shuffled puzzle everyone plays on date.
func Config(date time.Time, salt string, pegs int) hanoi.Config {
	seed := Seed(date, salt)
	disks := MinDisks + int(seed%uint64(MaxDisks-MinDisks+1))
	return hanoi.Config{Pegs: pegs, Disks: disks, Shuffle: true, Seed: seed}
}
