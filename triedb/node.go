package triedb

// segmentKind distinguishes a literal route segment from the two wildcard
// kinds the matching engine understands.
type segmentKind uint8

const (
	segmentLiteral segmentKind = iota
	segmentStar                // "*" matches exactly one segment
	segmentHash                // "#" matches zero or more segments
)

// noChild marks the absence of a star/hash child in a node.
const noChild = int32(-1)

// Subscriber is an (id, name) pair attached to a terminal pattern node.
type Subscriber struct {
	ID   uint64
	Name string
}

// node is one trie node, stored by value in an arena slice. Children are
// referenced by arena index rather than pointer: the arena slice is the
// only thing that owns node memory, so growing it never requires walking
// or rewriting a pointer graph.
type node struct {
	segment     string
	kind        segmentKind
	terminal    bool
	children    map[string]int32 // literal children, keyed by segment text
	starChild   int32
	hashChild   int32
	subscribers []Subscriber
}

func newNode(segment string, kind segmentKind) node {
	return node{
		segment:   segment,
		kind:      kind,
		starChild: noChild,
		hashChild: noChild,
	}
}

// arena owns every node in a trie. Nodes are appended, never removed:
// Remove/Unsubscribe clear a node's terminal state and subscriber list but
// leave the node itself in place, so every previously-returned child index
// stays valid for the life of the trie.
type arena struct {
	nodes []node
}

// rootIndex is always the trie's root node; newArena allocates it first.
const rootIndex int32 = 0

func newArena() *arena {
	return &arena{nodes: []node{newNode("", segmentLiteral)}}
}

// alloc appends a new node and returns its index. Appending may reallocate
// the backing array, so callers must not hold a *node across a call to
// alloc — re-index through arena.nodes[idx] instead.
func (a *arena) alloc(segment string, kind segmentKind) int32 {
	a.nodes = append(a.nodes, newNode(segment, kind))

	return int32(len(a.nodes) - 1)
}

func (a *arena) at(idx int32) *node {
	return &a.nodes[idx]
}

func (a *arena) len() int {
	return len(a.nodes)
}

func segmentKindOf(segment string) segmentKind {
	switch segment {
	case "*":
		return segmentStar
	case "#":
		return segmentHash
	default:
		return segmentLiteral
	}
}
