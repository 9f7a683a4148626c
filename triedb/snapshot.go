package triedb

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/mattsta/govarint/blockcompress"
	"github.com/mattsta/govarint/internal/errs"
	"github.com/mattsta/govarint/internal/hash"
	"github.com/mattsta/govarint/internal/options"
	"github.com/mattsta/govarint/internal/varint"
)

const (
	snapshotMagic        = "TRIE"
	snapshotVersion  byte = 1
	maxSnapshotBytes      = 16 * 1024 * 1024
)

// SaveSnapshot serializes the trie's full pattern/subscriber state:
// 4-byte magic, 1-byte version, 1-byte compression type, then the
// pattern/node/subscriber counts and a recursive node encoding starting at
// the root, compressed as a unit via the codec named by t.cfg.compression
// (blockcompress.CompressionNone by default; see WithCompression).
func (t *Trie) SaveSnapshot() ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var body bytes.Buffer
	body.Write(varint.AppendTagged(nil, uint64(t.patterns.Count())))
	body.Write(varint.AppendTagged(nil, uint64(t.arena.len())))
	body.Write(varint.AppendTagged(nil, uint64(t.subscribers)))

	t.writeNode(&body, rootIndex)

	codec, err := blockcompress.Get(t.cfg.compression)
	if err != nil {
		return nil, err
	}

	compressed, err := codec.Compress(body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("triedb: compressing snapshot: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(snapshotMagic)
	out.WriteByte(snapshotVersion)
	out.WriteByte(byte(t.cfg.compression))
	out.Write(compressed)

	if out.Len() > t.cfg.maxSnapshotSize {
		return nil, errs.ErrSnapshotTooLarge
	}

	return out.Bytes(), nil
}

// childIndices returns idx's children in a stable order (literal children
// sorted by segment text, then star, then hash) so two saves of an
// unchanged trie produce byte-identical output.
func (t *Trie) childIndices(idx int32) []int32 {
	n := t.arena.at(idx)

	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]int32, 0, len(keys)+2)
	for _, k := range keys {
		out = append(out, n.children[k])
	}

	if n.starChild != noChild {
		out = append(out, n.starChild)
	}

	if n.hashChild != noChild {
		out = append(out, n.hashChild)
	}

	return out
}

func (t *Trie) writeNode(buf *bytes.Buffer, idx int32) {
	n := t.arena.at(idx)

	var flags byte
	if n.terminal {
		flags |= 0x01
	}

	flags |= byte(n.kind) << 1
	buf.WriteByte(flags)

	buf.Write(varint.AppendTagged(nil, uint64(len(n.segment))))
	buf.WriteString(n.segment)

	buf.Write(varint.AppendTagged(nil, uint64(len(n.subscribers))))
	for _, s := range n.subscribers {
		buf.Write(varint.AppendTagged(nil, s.ID))
		buf.Write(varint.AppendTagged(nil, uint64(len(s.Name))))
		buf.WriteString(s.Name)
	}

	children := t.childIndices(idx)
	buf.Write(varint.AppendTagged(nil, uint64(len(children))))
	for _, c := range children {
		t.writeNode(buf, c)
	}
}

// LoadSnapshot rebuilds a Trie from bytes produced by SaveSnapshot. Unknown
// magic, version, or compression type refuses the load without mutating
// any existing state (the caller receives a fresh Trie only on success).
// The snapshot's own compression-type byte selects the decompression
// codec; any compression option passed in opts only affects snapshots the
// returned Trie saves afterward.
func LoadSnapshot(data []byte, opts ...options.Option[*Config]) (*Trie, error) {
	cfg := defaultConfig()
	_ = options.Apply(cfg, opts...)

	if len(data) > cfg.maxSnapshotSize {
		return nil, errs.ErrSnapshotTooLarge
	}

	if len(data) < len(snapshotMagic)+1 {
		return nil, errs.ErrTruncated
	}

	if string(data[:len(snapshotMagic)]) != snapshotMagic {
		return nil, errs.ErrBadMagic
	}

	cursor := len(snapshotMagic)
	version := data[cursor]
	cursor++

	if version != snapshotVersion {
		return nil, errs.ErrBadVersion
	}

	if len(data) < cursor+1 {
		return nil, errs.ErrTruncated
	}

	compressionType := blockcompress.CompressionType(data[cursor])
	cursor++

	codec, err := blockcompress.Get(compressionType)
	if err != nil {
		return nil, err
	}

	data, err = codec.Decompress(data[cursor:])
	if err != nil {
		return nil, fmt.Errorf("triedb: decompressing snapshot: %w", err)
	}

	cursor = 0

	_, n := varint.GetTagged(data[cursor:]) // pattern_count, informational
	if n == varint.InvalidWidth {
		return nil, errs.ErrTruncated
	}
	cursor += n

	nodeCount, n := varint.GetTagged(data[cursor:])
	if n == varint.InvalidWidth {
		return nil, errs.ErrTruncated
	}
	cursor += n

	_, n = varint.GetTagged(data[cursor:]) // subscriber_count, informational
	if n == varint.InvalidWidth {
		return nil, errs.ErrTruncated
	}
	cursor += n

	trie := New(opts...)
	trie.arena = &arena{nodes: make([]node, 0, nodeCount+1)}

	if _, _, err := trie.readNode(data[cursor:], nil); err != nil {
		return nil, err
	}

	return trie, nil
}

// readNode decodes one node (and recursively its children) from the front
// of data. ancestorPath is the list of segments from the root down to but
// not including this node; it is used to reconstruct each terminal node's
// full pattern string for the registry Add populates on the live path.
//
// Every mutation re-indexes through t.arena.nodes[idx] rather than caching
// a *node across the recursive call into a child, since that call may
// grow the arena and reallocate its backing array.
func (t *Trie) readNode(data []byte, ancestorPath []string) (int32, int, error) {
	if len(data) < 1 {
		return 0, 0, errs.ErrTruncated
	}

	flags := data[0]
	terminal := flags&0x01 != 0
	kind := segmentKind((flags >> 1) & 0x03)
	cursor := 1

	segment, n, err := readLengthPrefixedString(data[cursor:])
	if err != nil {
		return 0, 0, err
	}
	cursor += n

	subCount, n := varint.GetTagged(data[cursor:])
	if n == varint.InvalidWidth {
		return 0, 0, errs.ErrTruncated
	}
	cursor += n

	subs := make([]Subscriber, 0, subCount)
	for i := uint64(0); i < subCount; i++ {
		id, n := varint.GetTagged(data[cursor:])
		if n == varint.InvalidWidth {
			return 0, 0, errs.ErrTruncated
		}
		cursor += n

		name, n, err := readLengthPrefixedString(data[cursor:])
		if err != nil {
			return 0, 0, err
		}
		cursor += n

		subs = append(subs, Subscriber{ID: id, Name: name})
	}

	path := ancestorPath
	if segment != "" {
		path = append(append([]string(nil), ancestorPath...), segment)
	}

	idx := t.arena.alloc(segment, kind)
	t.arena.nodes[idx].terminal = terminal
	t.arena.nodes[idx].subscribers = subs

	if terminal {
		pattern := strings.Join(path, ".")
		_ = t.patterns.Track(pattern, hash.ID(pattern))
		t.subscribers += len(subs)
	}

	childCount, n := varint.GetTagged(data[cursor:])
	if n == varint.InvalidWidth {
		return 0, 0, errs.ErrTruncated
	}
	cursor += n

	for i := uint64(0); i < childCount; i++ {
		childIdx, consumed, err := t.readNode(data[cursor:], path)
		if err != nil {
			return 0, 0, err
		}
		cursor += consumed

		childKind := t.arena.nodes[childIdx].kind
		childSegment := t.arena.nodes[childIdx].segment

		switch childKind {
		case segmentStar:
			t.arena.nodes[idx].starChild = childIdx
		case segmentHash:
			t.arena.nodes[idx].hashChild = childIdx
		default:
			if t.arena.nodes[idx].children == nil {
				t.arena.nodes[idx].children = make(map[string]int32)
			}

			t.arena.nodes[idx].children[childSegment] = childIdx
		}
	}

	return idx, cursor, nil
}

func readLengthPrefixedString(data []byte) (string, int, error) {
	length, n := varint.GetTagged(data)
	if n == varint.InvalidWidth {
		return "", 0, errs.ErrTruncated
	}

	if uint64(len(data)-n) < length {
		return "", 0, errs.ErrTruncated
	}

	return string(data[n : n+int(length)]), n + int(length), nil
}
