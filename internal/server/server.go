// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package server accepts RESP connections, drives each one through the
// Frame/Command pipeline, and promotes PSYNC connections to replication
// followers.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/nishisan-dev/go-resp-kv/internal/command"
	"github.com/nishisan-dev/go-resp-kv/internal/config"
	"github.com/nishisan-dev/go-resp-kv/internal/conn"
	"github.com/nishisan-dev/go-resp-kv/internal/replication"
	"github.com/nishisan-dev/go-resp-kv/internal/resp"
	"github.com/nishisan-dev/go-resp-kv/internal/serverinfo"
	"github.com/nishisan-dev/go-resp-kv/internal/store"
)

// Run initializes the store, identity, publisher and (if configured) the
// replicator, then blocks accepting RESP connections until ctx is
// cancelled.
func Run(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.Server.Listen, err)
	}
	defer ln.Close()

	logger.Info("server listening", "address", cfg.Server.Listen)

	return RunWithListener(ctx, ln, cfg, logger)
}

// RunWithListener is Run with an already-bound listener, split out so
// tests can bind to an ephemeral port.
func RunWithListener(ctx context.Context, ln net.Listener, cfg *config.ServerConfig, logger *slog.Logger) error {
	st := store.New()
	info := buildInfo(cfg)
	info.WriteTo(st)

	pub := replication.NewPublisher(logger, cfg.Snapshot.RateBytesPerSec, cfg.Snapshot.BurstBytes)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		if err := st.RunSweep(sweepCtx, cfg.Sweep.Schedule, logger); err != nil {
			logger.Error("sweep goroutine exited", "error", err)
		}
	}()

	if info.Replication.IsReplica() {
		r := replication.NewReplicator(info.Replication.MasterAddress(), info.SelfPort, st, logger)
		go func() {
			if err := r.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("replicator exited", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		ln.Close()
	}()

	consecutiveErrors := 0
	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				logger.Info("server shutdown complete")
				return nil
			default:
				consecutiveErrors++
				logger.Error("accepting connection", "error", err, "consecutive_errors", consecutiveErrors)
				if consecutiveErrors > 5 {
					delay := time.Duration(consecutiveErrors) * 100 * time.Millisecond
					if delay > 5*time.Second {
						delay = 5 * time.Second
					}
					time.Sleep(delay)
				}
				continue
			}
		}

		consecutiveErrors = 0
		go handleConnection(nc, st, pub, logger)
	}
}

func buildInfo(cfg *config.ServerConfig) serverinfo.Info {
	info := serverinfo.Default()
	if host, portStr, err := net.SplitHostPort(cfg.Server.Listen); err == nil {
		if host != "" {
			info.SelfHost = host
		}
		if port, err := strconv.ParseUint(portStr, 10, 16); err == nil {
			info.SelfPort = uint16(port)
		}
	}
	if cfg.ReplicaOf != nil {
		info.Replication.Role = "slave"
		info.Replication.ReplicaOfHost = cfg.ReplicaOf.Host
		info.Replication.ReplicaOfPort = cfg.ReplicaOf.Port
		info.Replication.HasReplicaOfPeer = true
	}
	return info
}

// handleConnection drives one client connection through the Frame/Command
// pipeline until it disconnects, errors, or is promoted to a replication
// follower by PSYNC — at which point this goroutine returns without ever
// reading from the connection again, per the protocol's design limit: a
// promoted connection only ever receives further writes from the
// Publisher.
func handleConnection(nc net.Conn, st *store.Store, pub *replication.Publisher, logger *slog.Logger) {
	c := conn.New(nc, false)
	log := logger.With("remote_addr", nc.RemoteAddr().String())

	for {
		frame, ok, err := c.ReadFrame()
		if err != nil {
			if !errors.Is(err, conn.ErrConnectionReset) {
				log.Error("reading frame", "error", err)
			}
			nc.Close()
			return
		}
		if !ok {
			nc.Close()
			return
		}

		cmd, err := command.FromFrame(frame)
		if err != nil {
			log.Warn("rejecting malformed command", "error", err)
			if werr := c.WriteFrame(resp.Error(fmt.Sprintf("ERR %s", err))); werr != nil {
				nc.Close()
				return
			}
			continue
		}

		if err := cmd.Apply(command.ApplyContext{Store: st, Conn: c, Publisher: pub, Respond: true}); err != nil {
			log.Error("applying command", "error", err)
			nc.Close()
			return
		}

		if promoter, ok := cmd.(command.FollowerPromoter); ok && promoter.PromoteAfterApply() {
			if err := pub.AddFollower(c, st); err != nil {
				log.Error("promoting connection to follower", "error", err)
				nc.Close()
			}
			return
		}
	}
}
