// Package triedb implements a routing trie for AMQP-style pattern matching:
// dot-separated patterns where "*" matches exactly one segment and "#"
// matches zero or more, each terminal pattern carrying a set of (id, name)
// subscribers.
//
// Nodes live in a single owned arena (a []node slice) addressed by index
// rather than pointer, so the whole trie can be serialized or discarded
// without a pointer-graph walk. REMOVE/UNSUBSCRIBE clear a node's terminal
// state in place; nodes are never physically freed, which keeps every
// previously-handed-out index valid for the arena's lifetime.
package triedb
