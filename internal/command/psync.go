// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package command

import (
	"fmt"

	"github.com/nishisan-dev/go-resp-kv/internal/resp"
	"github.com/nishisan-dev/go-resp-kv/internal/serverinfo"
)

// PsyncCommand begins the replication handshake. Its two arguments
// (replication id and offset, conventionally "?" and "-1" on a fresh
// follower) are accepted but unused: this server always does a full
// resync, never a partial one.
//
// Apply only writes the +FULLRESYNC line. The snapshot itself is sent by
// the Publisher once the server loop hands the connection over via
// AddFollower, immediately after Apply returns successfully.
type PsyncCommand struct {
	promoted bool
}

func parsePsync(p *argParser) (Command, error) {
	if _, err := p.nextBulk(); err != nil {
		return nil, fmt.Errorf("command: PSYNC: replication id: %w", err)
	}
	if _, err := p.nextBulk(); err != nil {
		return nil, fmt.Errorf("command: PSYNC: offset: %w", err)
	}
	return &PsyncCommand{}, nil
}

func (c *PsyncCommand) Apply(ctx ApplyContext) error {
	info, err := serverinfo.FromStore(ctx.Store)
	if err != nil {
		return fmt.Errorf("command: PSYNC: %w", err)
	}
	if info.Replication.IsReplica() {
		if ctx.Respond {
			if err := ctx.Conn.WriteFrame(resp.Error("ERR PSYNC is only supported on a master server")); err != nil {
				return err
			}
		}
		c.promoted = false
		return nil
	}

	if ctx.Respond {
		line := fmt.Sprintf("FULLRESYNC %s 0", info.Replication.MasterReplID)
		if err := ctx.Conn.WriteFrame(resp.Simple(line)); err != nil {
			return err
		}
	}
	c.promoted = true
	return nil
}

// PromoteAfterApply reports whether Apply produced a successful
// +FULLRESYNC, and the connection should now be handed to the Publisher.
func (c *PsyncCommand) PromoteAfterApply() bool {
	return c.promoted
}
