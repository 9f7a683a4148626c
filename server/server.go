// Package server implements the pattern-matching service that sits on top
// of triedb: a goroutine-per-connection TCP listener speaking the
// length-framed wire protocol in triedb/proto.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattsta/govarint/internal/options"
	"github.com/mattsta/govarint/triedb"
	"github.com/mattsta/govarint/triedb/proto"
	"github.com/mattsta/govarint/wire/frame"
)

// Config holds a Server's tunables.
type Config struct {
	Port      int
	AuthToken string
	SavePath  string
	Logger    *log.Logger

	// RateLimit bounds commands processed per connection per 1-second
	// window; additional commands in that window get RATE_LIMITED instead
	// of being processed. The window is fixed, not sliding: it restarts
	// with the first command that arrives more than a second after the
	// current window began. Zero selects DefaultRateLimit (see New).
	RateLimit int
}

// DefaultRateLimit matches the flood threshold a well-behaved client never
// approaches in normal operation.
const DefaultRateLimit = 1000

// Server accepts connections and dispatches framed requests against a
// shared Trie.
type Server struct {
	trie      *triedb.Trie
	cfg       Config
	logger    *log.Logger
	startTime time.Time

	connCount atomic.Int64
	cmdCount  atomic.Int64
}

// New creates a Server backed by trie. A nil Logger in cfg falls back to
// log.Default(); a zero RateLimit falls back to DefaultRateLimit.
func New(trie *triedb.Trie, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
	}

	return &Server{
		trie:      trie,
		cfg:       cfg,
		logger:    cfg.Logger,
		startTime: time.Now(),
	}
}

// ListenAndServe opens a TCP listener on cfg.Port and serves it until ctx
// is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	defer ln.Close()

	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is canceled or Accept fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup

	for {
		conn, err := ln.Accept()
		if err != nil {
			wg.Wait()

			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("server: accept: %w", err)
		}

		s.connCount.Add(1)

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// connState tracks per-connection session data: auth status and the
// fixed rate-limit window. Neither field is shared across goroutines, so
// it carries no lock of its own (consistent with the single-threaded-per-
// connection session model).
type connState struct {
	authenticated bool
	windowStart   time.Time
	windowCount   int
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	state := &connState{authenticated: s.cfg.AuthToken == "", windowStart: time.Now()}
	reader := bufio.NewReader(conn)

	for {
		body, err := frame.Read(reader, 0)
		if err != nil {
			return
		}

		respBody := s.dispatch(state, body)

		if err := frame.Write(conn, respBody); err != nil {
			return
		}
	}
}

func (s *Server) rateLimited(state *connState) bool {
	now := time.Now()
	if now.Sub(state.windowStart) > time.Second {
		state.windowStart = now
		state.windowCount = 0
	}

	state.windowCount++

	return state.windowCount > s.cfg.RateLimit
}

func (s *Server) dispatch(state *connState, body []byte) []byte {
	s.cmdCount.Add(1)

	cmd, cur, err := proto.DecodeCommand(body)
	if err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	if s.rateLimited(state) {
		return proto.EncodeResponse(proto.StatusRateLimited, nil)
	}

	if !state.authenticated && cmd != proto.CmdAuth && cmd != proto.CmdPing {
		return proto.EncodeResponse(proto.StatusAuthRequired, nil)
	}

	switch cmd {
	case proto.CmdPing:
		return proto.EncodeResponse(proto.StatusOK, nil)
	case proto.CmdAuth:
		return s.handleAuth(state, cur)
	case proto.CmdAdd, proto.CmdSubscribe:
		return s.handleAdd(cur)
	case proto.CmdRemove:
		return s.handleRemove(cur)
	case proto.CmdUnsubscribe:
		return s.handleUnsubscribe(cur)
	case proto.CmdMatch:
		return s.handleMatch(cur)
	case proto.CmdList:
		return s.handleList()
	case proto.CmdStats:
		return s.handleStats()
	case proto.CmdSave:
		return s.handleSave()
	default:
		return proto.EncodeResponse(proto.StatusInvalidCmd, nil)
	}
}

func (s *Server) handleAuth(state *connState, cur *proto.Cursor) []byte {
	token, err := cur.String()
	if err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	if token != s.cfg.AuthToken {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	state.authenticated = true

	return proto.EncodeResponse(proto.StatusOK, nil)
}

func (s *Server) handleAdd(cur *proto.Cursor) []byte {
	pattern, err := cur.String()
	if err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	id, err := cur.Varint()
	if err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	name, err := cur.String()
	if err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	if err := s.trie.Add(pattern, id, name); err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	return proto.EncodeResponse(proto.StatusOK, nil)
}

func (s *Server) handleRemove(cur *proto.Cursor) []byte {
	pattern, err := cur.String()
	if err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	if err := s.trie.Remove(pattern); err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	return proto.EncodeResponse(proto.StatusOK, nil)
}

func (s *Server) handleUnsubscribe(cur *proto.Cursor) []byte {
	pattern, err := cur.String()
	if err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	id, err := cur.Varint()
	if err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	if err := s.trie.Unsubscribe(pattern, id); err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	return proto.EncodeResponse(proto.StatusOK, nil)
}

func (s *Server) handleMatch(cur *proto.Cursor) []byte {
	input, err := cur.String()
	if err != nil {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	subs := s.trie.Match(input)

	return proto.EncodeResponse(proto.StatusOK, func(w *proto.Writer) {
		w.Varint(uint64(len(subs)))
		for _, sub := range subs {
			w.Varint(sub.ID).String(sub.Name)
		}
	})
}

func (s *Server) handleList() []byte {
	patterns := s.trie.List()

	return proto.EncodeResponse(proto.StatusOK, func(w *proto.Writer) {
		w.Varint(uint64(len(patterns)))
		for _, p := range patterns {
			w.String(p)
		}
	})
}

func (s *Server) handleStats() []byte {
	stats := s.trie.Stats()
	uptime := time.Since(s.startTime)

	return proto.EncodeResponse(proto.StatusOK, func(w *proto.Writer) {
		w.Varint(uint64(stats.Patterns)).
			Varint(uint64(stats.Subscribers)).
			Varint(uint64(stats.Nodes)).
			Varint(uint64(s.connCount.Load())).
			Varint(uint64(s.cmdCount.Load())).
			Varint(uint64(uptime.Seconds()))
	})
}

func (s *Server) handleSave() []byte {
	if s.cfg.SavePath == "" {
		return proto.EncodeResponse(proto.StatusError, nil)
	}

	data, err := s.trie.SaveSnapshot()
	if err != nil {
		s.logger.Printf("server: snapshot failed: %v", err)

		return proto.EncodeResponse(proto.StatusError, nil)
	}

	if err := os.WriteFile(s.cfg.SavePath, data, 0o644); err != nil {
		s.logger.Printf("server: writing snapshot to %s failed: %v", s.cfg.SavePath, err)

		return proto.EncodeResponse(proto.StatusError, nil)
	}

	return proto.EncodeResponse(proto.StatusOK, nil)
}

// LoadOrNew loads a Trie from path if it exists and is non-empty, or
// returns a fresh Trie if path is empty or does not yet exist. opts
// configure the returned Trie (e.g. triedb.WithCompression for the
// snapshots it writes going forward); a snapshot already on disk is
// decompressed using the codec it was saved with regardless of opts.
func LoadOrNew(path string, opts ...options.Option[*triedb.Config]) (*triedb.Trie, error) {
	if path == "" {
		return triedb.New(opts...), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return triedb.New(opts...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("server: reading snapshot %s: %w", path, err)
	}

	if len(data) == 0 {
		return triedb.New(opts...), nil
	}

	trie, err := triedb.LoadSnapshot(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("server: loading snapshot %s: %w", path, err)
	}

	return trie, nil
}
