package signup

import (
	"strings"
	"sync"
	"time"
)

// Throttle limits confirmations to one per address per cooldown.
type Throttle struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
	clock    func() time.Time
}

func NewThrottle(cooldown time.Duration) *Throttle {
	return &Throttle{last: make(map[string]time.Time), cooldown: cooldown, clock: time.Now}
}

func (t *Throttle) Allow(email string) bool {
	if t == nil || t.cooldown <= 0 {
		return true
	}
	key := strings.ToLower(strings.TrimSpace(email))
	now := t.clock().UTC()
	t.mu.Lock()
	defer t.mu.Unlock()
	if ts, ok := t.last[key]; ok {
		if now.Sub(ts) < t.cooldown {
			return false
		}
	}
	t.last[key] = now
	return true
}

// Forget clears an address so a failed delivery can be retried at once.
func (t *Throttle) Forget(email string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, strings.ToLower(strings.TrimSpace(email)))
}
