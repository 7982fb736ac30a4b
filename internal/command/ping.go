// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package command

import "github.com/nishisan-dev/go-resp-kv/internal/resp"

// PingCommand replies +PONG, or echoes Message back as a bulk reply when the
// client supplied one. It never mutates the store.
type PingCommand struct {
	Message    []byte
	HasMessage bool
}

func parsePing(p *argParser) (Command, error) {
	msg, ok := p.peekBulk()
	if !ok {
		return &PingCommand{}, nil
	}
	p.skip()
	return &PingCommand{Message: msg, HasMessage: true}, nil
}

func (c *PingCommand) Apply(ctx ApplyContext) error {
	if !ctx.Respond {
		return nil
	}
	if c.HasMessage {
		return ctx.Conn.WriteFrame(resp.BulkBytes(c.Message))
	}
	return ctx.Conn.WriteFrame(resp.Simple("PONG"))
}
