// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package command

import (
	"fmt"

	"github.com/nishisan-dev/go-resp-kv/internal/resp"
)

// UnknownCommand is produced for any command name FromFrame does not
// recognise. It always replies with an error, never mutates anything, and
// never publishes.
type UnknownCommand struct {
	Name string
}

func (c *UnknownCommand) Apply(ctx ApplyContext) error {
	if !ctx.Respond {
		return nil
	}
	return ctx.Conn.WriteFrame(resp.Error(fmt.Sprintf("ERR unknown command '%s'", c.Name)))
}
