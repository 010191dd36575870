// internal/rewards/rewards.go
//
// Rewarded-ad bookkeeping for Hanoi games.
//
// The ad network itself lives on the client; the server only decides
// whether a reported view may be redeemed. Each key (a game id) has a
// readiness deadline:
//   - a completed view is redeemed, then the key cools down for Reload;
//   - a skipped view redeems nothing and the key stays ready;
//   - a failed show redeems nothing and the key retries after Retry.
//
// Readiness is computed from timestamps on demand, so there is no polling
// goroutine per key.
package rewards

import (
	"errors"
	"sync"
	"time"
)

const (
	DefaultReload = 10 * time.Second
	DefaultRetry  = 5 * time.Second
)

var (
	ErrNotReady = errors.New("reward not ready")
	ErrSkipped  = errors.New("reward not completed")
	ErrFailed   = errors.New("reward failed to show")
)

// Outcome is what the client reports about one ad view.
type Outcome int

const (
	Completed Outcome = iota
	Skipped
	Failed
)

// Status is the readiness of one key.
type Status struct {
	Ready   bool  `json:"ready"`
	ReadyIn int64 `json:"readyInMs"`
}

// Ledger tracks reward readiness per key. Safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	reload  time.Duration
	retry   time.Duration
	now     func() time.Time
	readyAt map[string]time.Time
}

// NewLedger builds a ledger. Non-positive durations fall back to defaults;
// a nil now uses time.Now.
func NewLedger(reload, retry time.Duration, now func() time.Time) *Ledger {
	if reload <= 0 {
		reload = DefaultReload
	}
	if retry <= 0 {
		retry = DefaultRetry
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{reload: reload, retry: retry, now: now, readyAt: make(map[string]time.Time)}
}

// Status reports whether key can be redeemed now.
func (l *Ledger) Status(key string) Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	wait := l.readyAt[key].Sub(l.now())
	if wait <= 0 {
		return Status{Ready: true}
	}
	return Status{ReadyIn: wait.Milliseconds()}
}

// Redeem records an ad outcome for key. It returns nil only when the key
// was ready and the view completed; apply is then called before the
// cooldown starts. apply may be nil.
func (l *Ledger) Redeem(key string, o Outcome, apply func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Before(l.readyAt[key]) {
		return ErrNotReady
	}
	switch o {
	case Completed:
		if apply != nil {
			apply()
		}
		l.readyAt[key] = now.Add(l.reload)
		return nil
	case Failed:
		l.readyAt[key] = now.Add(l.retry)
		return ErrFailed
	default:
		return ErrSkipped
	}
}

// Forget drops the key, e.g. when its game is evicted.
func (l *Ledger) Forget(key string) {
	l.mu.Lock()
	delete(l.readyAt, key)
	l.mu.Unlock()
}
