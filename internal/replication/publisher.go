// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package replication implements the leader-side follower registry
// (Publisher) and the follower-side handshake and apply loop (Replicator).
package replication

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/time/rate"

	"github.com/nishisan-dev/go-resp-kv/internal/command"
	"github.com/nishisan-dev/go-resp-kv/internal/conn"
	"github.com/nishisan-dev/go-resp-kv/internal/resp"
	"github.com/nishisan-dev/go-resp-kv/internal/store"
)

const (
	// defaultSnapshotRateBytesPerSec caps the leader's outbound bandwidth
	// for any single follower's initial snapshot transfer.
	defaultSnapshotRateBytesPerSec = 8 * 1024 * 1024
	defaultSnapshotBurstBytes      = 64 * 1024
)

// Publisher is the leader's follower registry. It is constructed once by
// internal/server and threaded explicitly into every connection handler
// and into command.ApplyContext — never a package-level global.
type Publisher struct {
	mu        sync.Mutex
	followers []*conn.Conn

	logger *slog.Logger

	snapshotRateBytesPerSec float64
	snapshotBurstBytes      int
}

// NewPublisher constructs an empty Publisher. A nil logger disables
// dead-follower logging. rateBytesPerSec and burstBytes control the
// token-bucket limiter used by AddFollower; a zero value for either falls
// back to the package default.
func NewPublisher(logger *slog.Logger, rateBytesPerSec, burstBytes int) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if rateBytesPerSec == 0 {
		rateBytesPerSec = defaultSnapshotRateBytesPerSec
	}
	if burstBytes == 0 {
		burstBytes = defaultSnapshotBurstBytes
	}
	return &Publisher{
		logger:                  logger,
		snapshotRateBytesPerSec: float64(rateBytesPerSec),
		snapshotBurstBytes:      burstBytes,
	}
}

// AddFollower sends c the current store snapshot as an RdbFile frame,
// through a per-follower token-bucket limiter so one large initial
// transfer cannot starve the leader's other followers or clients, then
// registers c so future Publish calls reach it.
func (p *Publisher) AddFollower(c *conn.Conn, st *store.Store) error {
	var encoded bytes.Buffer
	if err := resp.WriteFrame(&encoded, resp.RdbFile(st.Snapshot())); err != nil {
		return fmt.Errorf("replication: encoding snapshot frame: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(p.snapshotRateBytesPerSec), p.snapshotBurstBytes)
	limited := &rateLimitedWriter{dst: c, limiter: limiter, ctx: context.Background(), burst: p.snapshotBurstBytes}
	if _, err := io.Copy(limited, &encoded); err != nil {
		return fmt.Errorf("replication: sending snapshot to follower: %w", err)
	}
	if err := c.Flush(); err != nil {
		return fmt.Errorf("replication: flushing snapshot to follower: %w", err)
	}

	p.mu.Lock()
	p.followers = append(p.followers, c)
	p.mu.Unlock()
	return nil
}

// Publish broadcasts action to every registered follower, in registration
// order, so that the order followers observe mutations in matches the
// order they were applied on the leader. The mutex is held across the
// whole fan-out to preserve that ordering; acceptable because the
// follower count is expected to stay small.
func (p *Publisher) Publish(action command.PublishAction) error {
	frame := publishActionFrame(action)

	p.mu.Lock()
	defer p.mu.Unlock()

	alive := p.followers[:0]
	var firstErr error
	for _, f := range p.followers {
		if err := f.WriteFrame(frame); err != nil {
			p.logger.Warn("dropping follower after write failure", "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		alive = append(alive, f)
	}
	p.followers = alive
	return firstErr
}

func publishActionFrame(action command.PublishAction) resp.Frame {
	elems := []resp.Frame{
		// Lower-case to match the original leader implementation's literal
		// replay frame; command.FromFrame dispatches case-insensitively so
		// this has no behavioral effect on the follower.
		resp.BulkString("set"),
		resp.BulkBytes(action.Key),
		resp.BulkBytes(action.Value),
	}
	if action.HasTTL {
		elems = append(elems, resp.BulkString("PX"), resp.BulkString(strconv.FormatUint(action.TTLMillis, 10)))
	}
	return resp.NewArray(elems...)
}

// rateLimitedWriter throttles Write calls to limiter's token rate,
// chunking at burst so a single large Write cannot block waiting for the
// entire bucket to refill at once.
type rateLimitedWriter struct {
	dst     io.Writer
	limiter *rate.Limiter
	ctx     context.Context
	burst   int
}

func (w *rateLimitedWriter) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := written + w.burst
		if end > len(p) {
			end = len(p)
		}
		chunk := p[written:end]
		if err := w.limiter.WaitN(w.ctx, len(chunk)); err != nil {
			return written, fmt.Errorf("replication: waiting for rate limiter: %w", err)
		}
		n, err := w.dst.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
