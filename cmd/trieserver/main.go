// Command trieserver runs the pattern-matching subscription service: a TCP
// listener that accepts ADD/MATCH/SUBSCRIBE-style requests over the framed
// wire protocol and routes them against an in-memory trie.
//
// Usage:
//
//	trieserver [options]
//
// Options:
//
//	-port int        Listen port (default 9999)
//	-auth string     Require this token via the AUTH command before any
//	                 other command is accepted
//	-save string     Snapshot file path; loaded at startup if present,
//	                 written on SAVE commands and on graceful shutdown
//	-rate-limit int  Max commands per connection per second (default 1000)
//	-compression string
//	                 Snapshot compression: none, lz4, s2, zstd (default none)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattsta/govarint/blockcompress"
	"github.com/mattsta/govarint/server"
	"github.com/mattsta/govarint/triedb"
)

func main() {
	fs := flag.NewFlagSet("trieserver", flag.ExitOnError)

	port := fs.Int("port", 9999, "Listen port")
	auth := fs.String("auth", "", "Require this token via AUTH before other commands")
	save := fs.String("save", "", "Snapshot file path")
	rateLimit := fs.Int("rate-limit", server.DefaultRateLimit, "Max commands per connection per second")
	compression := fs.String("compression", "none", "Snapshot compression: none, lz4, s2, zstd")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: trieserver [options]

Run the pattern-matching subscription service.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "trieserver: ", log.LstdFlags)

	compressionType, err := parseCompression(*compression)
	if err != nil {
		logger.Printf("startup failed: %v", err)
		os.Exit(1)
	}

	trie, err := server.LoadOrNew(*save, triedb.WithCompression(compressionType))
	if err != nil {
		logger.Printf("startup failed: %v", err)
		os.Exit(1)
	}

	srv := server.New(trie, server.Config{
		Port:      *port,
		AuthToken: *auth,
		SavePath:  *save,
		Logger:    logger,
		RateLimit: *rateLimit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Printf("listening on :%d", *port)

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Printf("server stopped: %v", err)
		os.Exit(1)
	}

	if *save != "" {
		data, err := trie.SaveSnapshot()
		if err == nil {
			err = os.WriteFile(*save, data, 0o644)
		}
		if err != nil {
			logger.Printf("saving snapshot on shutdown failed: %v", err)
			os.Exit(1)
		}
	}

	logger.Printf("shut down cleanly")
}

func parseCompression(name string) (blockcompress.CompressionType, error) {
	switch name {
	case "none", "":
		return blockcompress.CompressionNone, nil
	case "lz4":
		return blockcompress.CompressionLZ4, nil
	case "s2":
		return blockcompress.CompressionS2, nil
	case "zstd":
		return blockcompress.CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown -compression value %q (want none, lz4, s2, or zstd)", name)
	}
}
