package integration

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/mattsta/govarint/server"
	"github.com/mattsta/govarint/triedb"
	"github.com/mattsta/govarint/triedb/proto"
	"github.com/mattsta/govarint/wire/frame"
	"github.com/stretchr/testify/require"
)

type harness struct {
	ln     net.Listener
	srv    *server.Server
	conn   net.Conn
	reader *bufio.Reader
	cancel context.CancelFunc
}

func newHarness(t *testing.T, cfg server.Config) *harness {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.New(triedb.New(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx, ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)

	h := &harness{ln: ln, srv: srv, conn: conn, reader: bufio.NewReader(conn), cancel: cancel}
	t.Cleanup(func() {
		cancel()
		conn.Close()
		ln.Close()
	})

	return h
}

func (h *harness) send(t *testing.T, body []byte) (proto.Status, *proto.Cursor) {
	t.Helper()

	require.NoError(t, frame.Write(h.conn, body))

	resp, err := frame.Read(h.reader, 0)
	require.NoError(t, err)

	status, cur, err := proto.DecodeStatus(resp)
	require.NoError(t, err)

	return status, cur
}

// Scenario 1: connect, send PING, expect an OK frame with an empty body.
func TestIntegration_Ping(t *testing.T) {
	h := newHarness(t, server.Config{})

	status, cur := h.send(t, proto.EncodeRequest(proto.CmdPing, nil))
	require.Equal(t, proto.StatusOK, status)
	require.True(t, cur.Done())
}

// Scenario 2: ADD a literal pattern, then MATCH the same literal string.
func TestIntegration_AddAndExactMatch(t *testing.T) {
	h := newHarness(t, server.Config{})

	status, _ := h.send(t, proto.EncodeRequest(proto.CmdAdd, func(w *proto.Writer) {
		w.String("stock.nasdaq.aapl").Varint(1).String("AAPL")
	}))
	require.Equal(t, proto.StatusOK, status)

	status, cur := h.send(t, proto.EncodeRequest(proto.CmdMatch, func(w *proto.Writer) {
		w.String("stock.nasdaq.aapl")
	}))
	require.Equal(t, proto.StatusOK, status)

	count, err := cur.Varint()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	id, err := cur.Varint()
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)

	name, err := cur.String()
	require.NoError(t, err)
	require.Equal(t, "AAPL", name)
}

// Scenario 3: a single-segment "*" wildcard matches any one segment in that position.
func TestIntegration_StarWildcard(t *testing.T) {
	h := newHarness(t, server.Config{})

	h.send(t, proto.EncodeRequest(proto.CmdAdd, func(w *proto.Writer) {
		w.String("stock.*.aapl").Varint(10).String("AnyExchangeAAPL")
	}))

	status, cur := h.send(t, proto.EncodeRequest(proto.CmdMatch, func(w *proto.Writer) {
		w.String("stock.nyse.aapl")
	}))
	require.Equal(t, proto.StatusOK, status)

	count, err := cur.Varint()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	status, cur = h.send(t, proto.EncodeRequest(proto.CmdMatch, func(w *proto.Writer) {
		w.String("stock.nyse.nasdaq.aapl")
	}))
	require.Equal(t, proto.StatusOK, status)

	count, err = cur.Varint()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)
}

// Scenario 4: a "#" wildcard matches zero or more trailing segments.
func TestIntegration_HashWildcard(t *testing.T) {
	h := newHarness(t, server.Config{})

	h.send(t, proto.EncodeRequest(proto.CmdAdd, func(w *proto.Writer) {
		w.String("stock.#").Varint(20).String("AllStock")
	}))

	status, cur := h.send(t, proto.EncodeRequest(proto.CmdMatch, func(w *proto.Writer) {
		w.String("stock")
	}))
	require.Equal(t, proto.StatusOK, status)

	count, err := cur.Varint()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	id, err := cur.Varint()
	require.NoError(t, err)
	require.Equal(t, uint64(20), id)

	status, cur = h.send(t, proto.EncodeRequest(proto.CmdMatch, func(w *proto.Writer) {
		w.String("stock.nasdaq.aapl.level2")
	}))
	require.Equal(t, proto.StatusOK, status)

	count, err = cur.Varint()
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)
}

// Scenario 5: SAVE persists the trie to disk; a fresh Trie loaded from that
// file after the server restarts sees the same patterns via LIST.
func TestIntegration_SaveAndRestartPersistence(t *testing.T) {
	dir := t.TempDir()
	savePath := dir + "/snapshot.bin"

	h := newHarness(t, server.Config{SavePath: savePath})

	h.send(t, proto.EncodeRequest(proto.CmdAdd, func(w *proto.Writer) {
		w.String("stock.nasdaq.aapl").Varint(1).String("AAPL")
	}))
	h.send(t, proto.EncodeRequest(proto.CmdAdd, func(w *proto.Writer) {
		w.String("stock.nyse.ibm").Varint(2).String("IBM")
	}))

	status, _ := h.send(t, proto.EncodeRequest(proto.CmdSave, nil))
	require.Equal(t, proto.StatusOK, status)

	h.cancel()
	h.conn.Close()
	h.ln.Close()

	trie, err := server.LoadOrNew(savePath)
	require.NoError(t, err)

	ln2, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln2.Close()

	srv2 := server.New(trie, server.Config{SavePath: savePath})
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	go srv2.Serve(ctx2, ln2)

	conn2, err := net.Dial("tcp", ln2.Addr().String())
	require.NoError(t, err)
	defer conn2.Close()

	reader2 := bufio.NewReader(conn2)

	require.NoError(t, frame.Write(conn2, proto.EncodeRequest(proto.CmdList, nil)))
	resp, err := frame.Read(reader2, 0)
	require.NoError(t, err)

	status2, cur2, err := proto.DecodeStatus(resp)
	require.NoError(t, err)
	require.Equal(t, proto.StatusOK, status2)

	count, err := cur2.Varint()
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)
}

// Scenario 6: a connection sending more commands than the per-second limit
// allows receives RATE_LIMITED once the window is exceeded.
func TestIntegration_RateLimitFlood(t *testing.T) {
	h := newHarness(t, server.Config{RateLimit: 50})

	sawRateLimited := false

	for i := 0; i < 200; i++ {
		status, _ := h.send(t, proto.EncodeRequest(proto.CmdPing, nil))
		if status == proto.StatusRateLimited {
			sawRateLimited = true

			break
		}
	}

	require.True(t, sawRateLimited, "expected at least one RATE_LIMITED response under flood")
}

func TestIntegration_GracefulShutdownClosesConnections(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := server.New(triedb.New(), server.Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}
