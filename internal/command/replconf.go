// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package command

import (
	"strings"

	"github.com/nishisan-dev/go-resp-kv/internal/resp"
)

// ReplConfCommand carries one of the replication handshake's configuration
// exchanges: "listening-port <port>", "capa <capability>", or "GETACK *".
// Every subcommand except GETACK replies +OK; GETACK replies with the
// literal offset 0, since this server never tracks a real byte offset.
type ReplConfCommand struct {
	IsGetAck bool
}

func parseReplConf(p *argParser) (Command, error) {
	cmd := &ReplConfCommand{}
	if sub, ok := p.peekBulk(); ok && strings.EqualFold(string(sub), "GETACK") {
		cmd.IsGetAck = true
	}
	// REPLCONF's subcommand shape is variadic (listening-port/capa carry a
	// value, GETACK carries "*"); drain whatever remains rather than
	// modelling each subcommand's arity individually.
	for !p.drained() {
		p.skip()
	}
	return cmd, nil
}

func (c *ReplConfCommand) Apply(ctx ApplyContext) error {
	if !ctx.Respond {
		return nil
	}
	if c.IsGetAck {
		return ctx.Conn.WriteFrame(resp.NewArray(
			resp.BulkString("REPLCONF"),
			resp.BulkString("ACK"),
			resp.BulkString("0"),
		))
	}
	return ctx.Conn.WriteFrame(resp.OK())
}
