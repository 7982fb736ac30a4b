// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package command

import (
	"fmt"

	"github.com/nishisan-dev/go-resp-kv/internal/resp"
)

// EchoCommand replies with its single argument, verbatim.
type EchoCommand struct {
	Message []byte
}

func parseEcho(p *argParser) (Command, error) {
	msg, err := p.nextBulk()
	if err != nil {
		return nil, fmt.Errorf("command: ECHO: %w", err)
	}
	return &EchoCommand{Message: msg}, nil
}

func (c *EchoCommand) Apply(ctx ApplyContext) error {
	if !ctx.Respond {
		return nil
	}
	return ctx.Conn.WriteFrame(resp.BulkBytes(c.Message))
}
