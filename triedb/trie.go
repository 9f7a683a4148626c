package triedb

import (
	"sort"
	"strings"
	"sync"

	"github.com/mattsta/govarint/internal/collision"
	"github.com/mattsta/govarint/internal/errs"
	"github.com/mattsta/govarint/internal/hash"
	"github.com/mattsta/govarint/internal/options"
)

// Trie is a pattern-matching routing table. A Trie is safe for concurrent
// use; every exported method takes the trie-wide lock for its duration.
type Trie struct {
	mu          sync.RWMutex
	arena       *arena
	patterns    *collision.Tracker
	subscribers int
	cfg         *Config
}

// New creates an empty Trie.
func New(opts ...options.Option[*Config]) *Trie {
	cfg := defaultConfig()
	_ = options.Apply(cfg, opts...)

	return &Trie{
		arena:    newArena(),
		patterns: collision.NewTracker(),
		cfg:      cfg,
	}
}

func splitSegments(pattern string) []string {
	return strings.Split(pattern, ".")
}

// Add inserts pattern (creating any missing path nodes) and attaches a
// subscriber to its terminal node. Re-adding the same (pattern, id) updates
// the subscriber's name in place. SUBSCRIBE uses this same call.
func (t *Trie) Add(pattern string, id uint64, name string) error {
	if pattern == "" {
		return errs.ErrEmptyInput
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.ensurePath(pattern)
	subs := t.arena.nodes[idx].subscribers

	for i := range subs {
		if subs[i].ID == id {
			subs[i].Name = name

			return nil
		}
	}

	t.arena.nodes[idx].subscribers = append(subs, Subscriber{ID: id, Name: name})
	t.arena.nodes[idx].terminal = true
	t.subscribers++

	// A colliding pattern hash never blocks routing or LIST/Stats: Track
	// still records the pattern and only raises HasCollision for an
	// operator to notice.
	_ = t.patterns.Track(pattern, hash.ID(pattern))

	return nil
}

// ensurePath walks/creates the node chain for pattern and returns the
// terminal node's arena index. Every statement re-indexes through
// t.arena.nodes rather than caching a *node across a call to alloc, since
// alloc may reallocate the backing array.
func (t *Trie) ensurePath(pattern string) int32 {
	idx := rootIndex

	for _, seg := range splitSegments(pattern) {
		switch segmentKindOf(seg) {
		case segmentStar:
			if t.arena.nodes[idx].starChild == noChild {
				t.arena.nodes[idx].starChild = t.arena.alloc(seg, segmentStar)
			}

			idx = t.arena.nodes[idx].starChild
		case segmentHash:
			if t.arena.nodes[idx].hashChild == noChild {
				t.arena.nodes[idx].hashChild = t.arena.alloc(seg, segmentHash)
			}

			idx = t.arena.nodes[idx].hashChild
		default:
			if t.arena.nodes[idx].children == nil {
				t.arena.nodes[idx].children = make(map[string]int32)
			}

			child, ok := t.arena.nodes[idx].children[seg]
			if !ok {
				child = t.arena.alloc(seg, segmentLiteral)
				t.arena.nodes[idx].children[seg] = child
			}

			idx = child
		}
	}

	return idx
}

// lookupPath walks pattern's node chain without creating anything.
func (t *Trie) lookupPath(pattern string) (int32, bool) {
	idx := rootIndex

	for _, seg := range splitSegments(pattern) {
		node := t.arena.at(idx)

		switch segmentKindOf(seg) {
		case segmentStar:
			if node.starChild == noChild {
				return 0, false
			}

			idx = node.starChild
		case segmentHash:
			if node.hashChild == noChild {
				return 0, false
			}

			idx = node.hashChild
		default:
			child, ok := node.children[seg]
			if !ok {
				return 0, false
			}

			idx = child
		}
	}

	return idx, true
}

// Remove deletes pattern entirely, dropping every subscriber attached to
// it. Returns ErrPatternNotFound if pattern carries no subscribers.
func (t *Trie) Remove(pattern string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.lookupPath(pattern)
	if !ok {
		return errs.ErrPatternNotFound
	}

	node := t.arena.at(idx)
	if !node.terminal {
		return errs.ErrPatternNotFound
	}

	t.subscribers -= len(node.subscribers)
	node.subscribers = nil
	node.terminal = false
	t.patterns.Forget(pattern, hash.ID(pattern))

	return nil
}

// Unsubscribe removes one subscriber id from pattern, leaving the pattern
// and any remaining subscribers in place. Returns ErrPatternNotFound if the
// pattern, or that subscriber id within it, isn't present.
func (t *Trie) Unsubscribe(pattern string, id uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.lookupPath(pattern)
	if !ok {
		return errs.ErrPatternNotFound
	}

	node := t.arena.at(idx)
	for i := range node.subscribers {
		if node.subscribers[i].ID == id {
			node.subscribers = append(node.subscribers[:i], node.subscribers[i+1:]...)
			t.subscribers--

			if len(node.subscribers) == 0 {
				node.terminal = false
				t.patterns.Forget(pattern, hash.ID(pattern))
			}

			return nil
		}
	}

	return errs.ErrPatternNotFound
}

// Match returns every subscriber whose pattern matches input, deduplicated
// by subscriber id and sorted by id for deterministic output.
func (t *Trie) Match(input string) []Subscriber {
	t.mu.RLock()
	defer t.mu.RUnlock()

	seen := make(map[uint64]string)
	t.matchNode(rootIndex, splitSegments(input), seen)

	result := make([]Subscriber, 0, len(seen))
	for id, name := range seen {
		result = append(result, Subscriber{ID: id, Name: name})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result
}

func (t *Trie) matchNode(idx int32, segments []string, seen map[uint64]string) {
	node := t.arena.at(idx)

	if len(segments) == 0 {
		if node.terminal {
			for _, s := range node.subscribers {
				seen[s.ID] = s.Name
			}
		}

		// "#" also matches zero segments.
		if node.hashChild != noChild {
			t.matchNode(node.hashChild, segments, seen)
		}

		return
	}

	head, rest := segments[0], segments[1:]

	if child, ok := node.children[head]; ok {
		t.matchNode(child, rest, seen)
	}

	if node.starChild != noChild {
		t.matchNode(node.starChild, rest, seen)
	}

	if node.hashChild != noChild {
		for i := 0; i <= len(segments); i++ {
			t.matchNode(node.hashChild, segments[i:], seen)
		}
	}
}

// List returns every pattern currently carrying at least one subscriber, in
// first-added order.
func (t *Trie) List() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]string(nil), t.patterns.Keys()...)
}

// Stats summarizes the trie's current size.
type Stats struct {
	Patterns    int
	Subscribers int
	Nodes       int
}

// Stats reports the trie's current pattern, subscriber, and node counts.
func (t *Trie) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Stats{
		Patterns:    t.patterns.Count(),
		Subscribers: t.subscribers,
		Nodes:       t.arena.len(),
	}
}
