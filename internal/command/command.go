// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package command parses a RESP frame into a typed command and applies it
// against the store and the outbound connection.
package command

import (
	"fmt"
	"strings"

	"github.com/nishisan-dev/go-resp-kv/internal/conn"
	"github.com/nishisan-dev/go-resp-kv/internal/resp"
	"github.com/nishisan-dev/go-resp-kv/internal/store"
)

// PublishAction describes a mutation to be broadcast to followers. It is
// deliberately decoupled from the replication package (which implements
// Publisher) so that command never has to import replication.
type PublishAction struct {
	Key       []byte
	Value     []byte
	HasTTL    bool
	TTLMillis uint64
}

// Publisher broadcasts a mutation to every registered follower. A nil
// Publisher in ApplyContext means "do not publish" — this is how the
// follower-side apply loop (internal/replication.Replicator) suppresses
// fan-out for commands it is itself replaying.
type Publisher interface {
	Publish(action PublishAction) error
}

// ApplyContext bundles everything a command needs to apply itself.
type ApplyContext struct {
	Store     *store.Store
	Conn      *conn.Conn
	Publisher Publisher
	// Respond is false on the replicator's apply path: mutating commands
	// still update the store but must not write an outbound frame.
	Respond bool
}

// Command is a parsed, ready-to-apply RESP command.
type Command interface {
	Apply(ctx ApplyContext) error
}

// FollowerPromoter is implemented by commands that may promote the
// connection they were received on to a replication follower. Only PSYNC
// implements it today.
type FollowerPromoter interface {
	// PromoteAfterApply reports whether, after Apply has returned, the
	// server loop should hand this connection to the Publisher as a new
	// follower. It must only be called after Apply.
	PromoteAfterApply() bool
}

// FromFrame validates that frame is an Array whose first element is a
// bulk, and dispatches on its ASCII-upper-cased value to build a typed
// Command. Unknown commands are not an error at this layer — they parse
// into an Unknown command whose Apply writes the -ERR response.
func FromFrame(frame resp.Frame) (Command, error) {
	p, err := newArgParser(frame)
	if err != nil {
		return nil, err
	}

	nameBytes, err := p.nextBulk()
	if err != nil {
		return nil, fmt.Errorf("command: reading command name: %w", err)
	}
	name := strings.ToUpper(string(nameBytes))

	var cmd Command
	switch name {
	case "PING":
		cmd, err = parsePing(p)
	case "ECHO":
		cmd, err = parseEcho(p)
	case "GET":
		cmd, err = parseGet(p)
	case "SET":
		cmd, err = parseSet(p)
	case "INFO":
		cmd, err = parseInfo(p)
	case "REPLCONF":
		cmd, err = parseReplConf(p)
	case "PSYNC":
		cmd, err = parsePsync(p)
	default:
		return &UnknownCommand{Name: strings.ToLower(string(nameBytes))}, nil
	}
	if err != nil {
		return nil, err
	}
	if !p.drained() {
		return nil, fmt.Errorf("command: %s: unexpected trailing arguments", name)
	}
	return cmd, nil
}
