// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package command

import (
	"fmt"

	"github.com/nishisan-dev/go-resp-kv/internal/resp"
)

// GetCommand looks up a key and replies with its value, or a null bulk if
// absent or expired.
type GetCommand struct {
	Key []byte
}

func parseGet(p *argParser) (Command, error) {
	key, err := p.nextBulk()
	if err != nil {
		return nil, fmt.Errorf("command: GET: %w", err)
	}
	return &GetCommand{Key: key}, nil
}

func (c *GetCommand) Apply(ctx ApplyContext) error {
	if !ctx.Respond {
		return nil
	}
	v, ok := ctx.Store.Get(c.Key)
	if !ok {
		return ctx.Conn.WriteFrame(resp.Null())
	}
	return ctx.Conn.WriteFrame(resp.BulkBytes(v))
}
