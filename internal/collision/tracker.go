// Package collision tracks keys alongside an externally-supplied hash,
// detecting when two distinct keys land on the same hash value.
package collision

import "github.com/mattsta/govarint/internal/errs"

// Tracker maps hashes to the first key seen for that hash, and keeps an
// ordered list of every key tracked. It does not refuse a colliding key —
// the caller still needs it — it only raises HasCollision so the caller can
// decide how to handle the rare case.
type Tracker struct {
	index        map[uint64]string // hash -> first key seen for that hash
	keys         []string          // ordered list of every tracked key
	hasCollision bool
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{index: make(map[uint64]string)}
}

// Track records key under hash. Re-tracking the exact same (key, hash) pair
// returns ErrAlreadyTracked without modifying state. A different key
// landing on a hash already in use sets the collision flag but is tracked
// anyway — the caller still needs both keys represented.
func (t *Tracker) Track(key string, hash uint64) error {
	if key == "" {
		return errs.ErrEmptyInput
	}

	if existing, ok := t.index[hash]; ok {
		if existing == key {
			return errs.ErrAlreadyTracked
		}

		t.hasCollision = true
	} else {
		t.index[hash] = key
	}

	t.keys = append(t.keys, key)

	return nil
}

// Forget removes key from the tracker. If key was the hash's recorded
// owner, the hash entry is cleared too.
func (t *Tracker) Forget(key string, hash uint64) {
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)

			break
		}
	}

	if t.index[hash] == key {
		delete(t.index, hash)
	}
}

// HasCollision reports whether any two distinct keys tracked so far share a
// hash value.
func (t *Tracker) HasCollision() bool { return t.hasCollision }

// Keys returns every tracked key in first-seen order.
func (t *Tracker) Keys() []string { return t.keys }

// Count returns the number of tracked keys.
func (t *Tracker) Count() int { return len(t.keys) }

// Reset clears all tracked keys and the collision flag, retaining the
// underlying slice's capacity for reuse.
func (t *Tracker) Reset() {
	for k := range t.index {
		delete(t.index, k)
	}

	t.keys = t.keys[:0]
	t.hasCollision = false
}
