// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/nishisan-dev/go-resp-kv/internal/config"
	"github.com/nishisan-dev/go-resp-kv/internal/logging"
	"github.com/nishisan-dev/go-resp-kv/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to server config file (defaults to a standalone master on :6379)")
	port := flag.Int("port", 0, "override the configured listen port (0 keeps the config/default port)")
	replicaOf := flag.String("replicaof", "", `"<host> <port>" of a master to replicate from, e.g. "127.0.0.1 6379"`)
	flag.Parse()

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *port != 0 {
		cfg.Server.Listen = fmt.Sprintf("0.0.0.0:%d", *port)
	}
	if *replicaOf != "" {
		parsed, err := parseReplicaOf(*replicaOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -replicaof: %v\n", err)
			os.Exit(1)
		}
		cfg.ReplicaOf = parsed
	}

	logger, closer := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	defer closer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := server.Run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func parseReplicaOf(raw string) (*config.ReplicaOfConfig, error) {
	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return nil, fmt.Errorf(`expected "<host> <port>", got %q`, raw)
	}
	port, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", fields[1], err)
	}
	return &config.ReplicaOfConfig{Host: fields[0], Port: uint16(port)}, nil
}
