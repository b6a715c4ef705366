// Package dedup scarta i messaggi già visti entro una finestra di TTL.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	max  int
	seq  uint64
	seen map[string]entry
	now  func() time.Time
}

type entry struct {
	exp time.Time
	seq uint64 // ordine di inserimento, per gli exp uguali
}

func New(ttl time.Duration, max int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if max <= 0 {
		max = 10000
	}
	return &Deduper{ttl: ttl, max: max, seen: make(map[string]entry, max), now: time.Now}
}

// Key is the hex sha256 of a payload, for messages without an ID.
func Key(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ShouldProcess reports whether id was not seen within the TTL and records it.
// An empty id is always processed.
func (d *Deduper) ShouldProcess(id string) bool {
	if id == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if e, ok := d.seen[id]; ok && now.Before(e.exp) {
		return false
	}
	d.seq++
	d.seen[id] = entry{exp: now.Add(d.ttl), seq: d.seq}
	if len(d.seen) > d.max {
		d.evict(now, id)
	}
	return true
}

// evict drops expired entries first, then the oldest ones until under max.
// keep is the id just recorded and is never evicted.
func (d *Deduper) evict(now time.Time, keep string) {
	for k, e := range d.seen {
		if !now.Before(e.exp) {
			delete(d.seen, k)
		}
	}
	for len(d.seen) > d.max {
		var (
			oldest string
			first  entry
			found  bool
		)
		for k, e := range d.seen {
			if k == keep {
				continue
			}
			if !found || e.exp.Before(first.exp) || (e.exp.Equal(first.exp) && e.seq < first.seq) {
				oldest, first, found = k, e, true
			}
		}
		if !found {
			return
		}
		delete(d.seen, oldest)
	}
}

func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
