// Command trieclient is a scripting-friendly client for the pattern-matching
// subscription service: it sends one request per invocation and prints the
// decoded response.
//
// Usage:
//
//	trieclient [options] <command> [args...]
//
// Commands:
//
//	ping
//	add <pattern> <id> <name>
//	remove <pattern>
//	subscribe <pattern> <id> <name>
//	unsubscribe <pattern> <id>
//	match <input>
//	list
//	stats
//	save
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/mattsta/govarint/triedb/proto"
	"github.com/mattsta/govarint/wire/frame"
)

func main() {
	fs := flag.NewFlagSet("trieclient", flag.ExitOnError)

	addr := fs.String("addr", "127.0.0.1:9999", "Server address")
	auth := fs.String("auth", "", "Auth token to send before the command")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: trieclient [options] <command> [args...]

Commands:
  ping
  add <pattern> <id> <name>
  remove <pattern>
  subscribe <pattern> <id> <name>
  unsubscribe <pattern> <id>
  match <input>
  list
  stats
  save

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)

	if *auth != "" {
		if err := roundTrip(conn, reader, proto.EncodeRequest(proto.CmdAuth, func(w *proto.Writer) {
			w.String(*auth)
		})); err != nil {
			fmt.Fprintf(os.Stderr, "auth: %v\n", err)
			os.Exit(1)
		}
	}

	body, err := buildRequest(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := roundTrip(conn, reader, body); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRequest(args []string) ([]byte, error) {
	switch args[0] {
	case "ping":
		return proto.EncodeRequest(proto.CmdPing, nil), nil
	case "add", "subscribe":
		if len(args) != 4 {
			return nil, fmt.Errorf("%s requires <pattern> <id> <name>", args[0])
		}

		id, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", args[2], err)
		}

		cmd := proto.CmdAdd
		if args[0] == "subscribe" {
			cmd = proto.CmdSubscribe
		}

		return proto.EncodeRequest(cmd, func(w *proto.Writer) {
			w.String(args[1]).Varint(id).String(args[3])
		}), nil
	case "remove":
		if len(args) != 2 {
			return nil, fmt.Errorf("remove requires <pattern>")
		}

		return proto.EncodeRequest(proto.CmdRemove, func(w *proto.Writer) {
			w.String(args[1])
		}), nil
	case "unsubscribe":
		if len(args) != 3 {
			return nil, fmt.Errorf("unsubscribe requires <pattern> <id>")
		}

		id, err := strconv.ParseUint(args[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", args[2], err)
		}

		return proto.EncodeRequest(proto.CmdUnsubscribe, func(w *proto.Writer) {
			w.String(args[1]).Varint(id)
		}), nil
	case "match":
		if len(args) != 2 {
			return nil, fmt.Errorf("match requires <input>")
		}

		return proto.EncodeRequest(proto.CmdMatch, func(w *proto.Writer) {
			w.String(args[1])
		}), nil
	case "list":
		return proto.EncodeRequest(proto.CmdList, nil), nil
	case "stats":
		return proto.EncodeRequest(proto.CmdStats, nil), nil
	case "save":
		return proto.EncodeRequest(proto.CmdSave, nil), nil
	default:
		return nil, fmt.Errorf("unknown command: %s", args[0])
	}
}

func roundTrip(conn net.Conn, reader *bufio.Reader, body []byte) error {
	if err := frame.Write(conn, body); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	resp, err := frame.Read(reader, 0)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	return printResponse(resp)
}

func printResponse(resp []byte) error {
	status, cur, err := proto.DecodeStatus(resp)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	fmt.Println(status)

	if rest := cur.Remaining(); len(rest) > 0 {
		fmt.Printf("% x\n", rest)
	}

	return nil
}
