// Package replay is an optional nonce-replay guard, off by default
// (spec.md's Authenticate does not require nonce tracking). Hosts
// that want it wire a *Guard into their own pipeline alongside
// dlgauth.Handle; this package does not call into the dlgauth package
// and dlgauth does not call into it.
//
// Grounded on web/hawkHandler.go's hawkNonceNotFound: two rotating
// bloom filters, so memory for seen nonces is bounded instead of
// growing forever.
package replay

import (
	"sync"
	"time"

	"github.com/willf/bloom"
)

// Guard tracks (id, ts, nonce) triples recently seen, to reject a
// replayed Hawk request even though its signature is otherwise valid.
type Guard struct {
	prev *bloom.BloomFilter
	now  *bloom.BloomFilter

	halflife   time.Duration
	lastRotate time.Time
	mu         sync.Mutex
}

// NewGuard builds a Guard sized for approximately expectedPerHalflife
// distinct nonces per rotation window (20 bits per nonce, 5 hash
// functions), giving each filter a false-positive rate of about 1 in
// 2000 at that load.
func NewGuard(expectedPerHalflife uint, halflife time.Duration) *Guard {
	m := expectedPerHalflife * 20
	return &Guard{
		prev:       bloom.New(m, 5),
		now:        bloom.New(m, 5),
		halflife:   halflife,
		lastRotate: time.Now(),
	}
}

// Seen reports whether (id, ts, nonce) has already been recorded, and
// records it if not. A true result means the caller should treat the
// request as a replay.
func (g *Guard) Seen(id string, ts int64, nonce string) bool {
	key := id + "\x00" + time.Unix(ts, 0).UTC().String() + "\x00" + nonce

	g.mu.Lock()
	defer g.mu.Unlock()

	if now := time.Now(); now.Sub(g.lastRotate) > g.halflife {
		g.now, g.prev = g.prev, g.now
		g.now.ClearAll()
		g.lastRotate = now
	}

	if g.now.TestString(key) || g.prev.TestString(key) {
		return true
	}
	g.now.AddString(key)
	return false
}
