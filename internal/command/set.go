// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nishisan-dev/go-resp-kv/internal/resp"
	"github.com/nishisan-dev/go-resp-kv/internal/store"
)

// SetCommand stores a key/value pair, optionally with a PX expiry in
// milliseconds. It is the only mutating command and therefore the only one
// that publishes itself to the follower registry.
type SetCommand struct {
	Key       []byte
	Value     []byte
	HasTTL    bool
	TTLMillis uint64
}

func parseSet(p *argParser) (Command, error) {
	key, err := p.nextBulk()
	if err != nil {
		return nil, fmt.Errorf("command: SET: %w", err)
	}
	value, err := p.nextBulk()
	if err != nil {
		return nil, fmt.Errorf("command: SET: %w", err)
	}

	cmd := &SetCommand{Key: key, Value: value}

	if opt, ok := p.peekBulk(); ok && strings.EqualFold(string(opt), "PX") {
		p.skip()
		millisArg, err := p.nextBulk()
		if err != nil {
			return nil, fmt.Errorf("command: SET PX: %w", err)
		}
		millis, err := strconv.ParseUint(string(millisArg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("command: SET PX: invalid expiry %q: %w", millisArg, err)
		}
		cmd.HasTTL = true
		cmd.TTLMillis = millis
	}
	return cmd, nil
}

func (c *SetCommand) Apply(ctx ApplyContext) error {
	ttl := store.DefaultExpiry
	if c.HasTTL {
		ttl = time.Duration(c.TTLMillis) * time.Millisecond
	}
	ctx.Store.Set(c.Key, c.Value, ttl)

	if ctx.Publisher != nil {
		if err := ctx.Publisher.Publish(PublishAction{
			Key:       c.Key,
			Value:     c.Value,
			HasTTL:    c.HasTTL,
			TTLMillis: c.TTLMillis,
		}); err != nil {
			return fmt.Errorf("command: SET: publishing to followers: %w", err)
		}
	}

	if !ctx.Respond {
		return nil
	}
	return ctx.Conn.WriteFrame(resp.OK())
}
