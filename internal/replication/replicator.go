// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package replication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/nishisan-dev/go-resp-kv/internal/command"
	"github.com/nishisan-dev/go-resp-kv/internal/conn"
	"github.com/nishisan-dev/go-resp-kv/internal/resp"
	"github.com/nishisan-dev/go-resp-kv/internal/store"
)

// state names the Replicator's handshake progress, logged at every
// transition so a stuck follower is diagnosable from its log alone.
type state string

const (
	stateConnect           state = "Connect"
	statePingSent          state = "S0:PingSent"
	stateListeningPortSent state = "S1:ListeningPortSent"
	stateCapaSent          state = "S2:CapaSent"
	statePsyncSent         state = "S3:PsyncSent"
	stateAwaitingSnapshot  state = "S4:AwaitingSnapshot"
	stateApplying          state = "S5:Applying"
)

// Replicator drives a follower's replication handshake against a leader
// and then applies every command the leader streams afterward.
type Replicator struct {
	leaderAddr string
	selfPort   uint16
	store      *store.Store
	logger     *slog.Logger
}

// NewReplicator constructs a Replicator that will dial leaderAddr and
// replicate into st. selfPort is advertised to the leader via REPLCONF
// listening-port.
func NewReplicator(leaderAddr string, selfPort uint16, st *store.Store, logger *slog.Logger) *Replicator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Replicator{leaderAddr: leaderAddr, selfPort: selfPort, store: st, logger: logger}
}

// Run dials the leader, performs the handshake, and then applies commands
// until ctx is cancelled or the connection drops. It blocks.
func (r *Replicator) Run(ctx context.Context) error {
	log := r.logger.With("leader", r.leaderAddr)
	log.Info("dialing leader", "state", stateConnect)

	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "tcp", r.leaderAddr)
	if err != nil {
		log.Error("failed to connect to leader", "state", stateConnect, "error", err)
		return fmt.Errorf("replication: dialing leader %s: %w", r.leaderAddr, err)
	}
	defer nc.Close()

	go func() {
		<-ctx.Done()
		nc.Close()
	}()

	c := conn.New(nc, true)

	if err := r.handshake(c, log); err != nil {
		return err
	}

	return r.applyLoop(ctx, c, log)
}

func (r *Replicator) handshake(c *conn.Conn, log *slog.Logger) error {
	steps := []struct {
		name  state
		frame resp.Frame
	}{
		{statePingSent, resp.NewArray(resp.BulkString("PING"))},
		{stateListeningPortSent, resp.NewArray(
			resp.BulkString("REPLCONF"), resp.BulkString("listening-port"), resp.BulkString(fmt.Sprint(r.selfPort)),
		)},
		{stateCapaSent, resp.NewArray(
			resp.BulkString("REPLCONF"), resp.BulkString("capa"), resp.BulkString("psync2"),
		)},
		{statePsyncSent, resp.NewArray(
			resp.BulkString("PSYNC"), resp.BulkString("?"), resp.BulkString("-1"),
		)},
	}

	for _, step := range steps {
		log.Info("handshake step", "state", step.name)
		if err := c.WriteFrame(step.frame); err != nil {
			log.Error("handshake write failed", "state", step.name, "error", err)
			return fmt.Errorf("replication: handshake %s: %w", step.name, err)
		}
		reply, ok, err := c.ReadFrame()
		if err != nil {
			log.Error("handshake read failed", "state", step.name, "error", err)
			return fmt.Errorf("replication: handshake %s: %w", step.name, err)
		}
		if !ok {
			log.Error("leader closed connection during handshake", "state", step.name)
			return fmt.Errorf("replication: handshake %s: leader closed connection", step.name)
		}
		if reply.Kind == resp.KindError {
			log.Error("leader rejected handshake step", "state", step.name, "error", reply.Err)
			return fmt.Errorf("replication: handshake %s: leader error: %s", step.name, reply.Err)
		}
	}

	log.Info("awaiting snapshot", "state", stateAwaitingSnapshot)
	snapshotFrame, ok, err := c.ReadFrame()
	if err != nil {
		log.Error("failed reading snapshot frame", "state", stateAwaitingSnapshot, "error", err)
		return fmt.Errorf("replication: reading snapshot: %w", err)
	}
	if !ok {
		log.Error("leader closed connection before sending snapshot", "state", stateAwaitingSnapshot)
		return errors.New("replication: leader closed connection before sending snapshot")
	}
	if snapshotFrame.Kind != resp.KindBulk {
		log.Error("expected snapshot bulk frame", "state", stateAwaitingSnapshot, "kind", snapshotFrame.Kind)
		return fmt.Errorf("replication: expected snapshot bulk frame, got kind %d", snapshotFrame.Kind)
	}
	if err := store.LoadSnapshot(snapshotFrame.Bulk); err != nil {
		log.Error("snapshot failed validation", "state", stateAwaitingSnapshot, "error", err)
		return fmt.Errorf("replication: validating snapshot: %w", err)
	}

	log.Info("handshake complete, applying stream", "state", stateApplying)
	return nil
}

func (r *Replicator) applyLoop(ctx context.Context, c *conn.Conn, log *slog.Logger) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		frame, ok, err := c.ReadFrame()
		if err != nil {
			log.Error("apply loop read failed", "state", stateApplying, "error", err)
			return fmt.Errorf("replication: apply loop: %w", err)
		}
		if !ok {
			log.Info("leader closed connection", "state", stateApplying)
			return nil
		}

		cmd, err := command.FromFrame(frame)
		if err != nil {
			log.Warn("dropping unparsable replicated frame", "state", stateApplying, "error", err)
			continue
		}
		if err := cmd.Apply(command.ApplyContext{Store: r.store, Conn: c, Respond: false}); err != nil {
			log.Warn("dropping failed replicated command", "state", stateApplying, "error", err)
		}
	}
}
