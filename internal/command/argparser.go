// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package command

import (
	"fmt"

	"github.com/nishisan-dev/go-resp-kv/internal/resp"
)

// argParser walks the elements of a command Array frame one bulk at a time.
// Every parseXxx function in this package must drain exactly the arguments
// it understands and leave the rest for FromFrame's trailing-argument check.
type argParser struct {
	elems []resp.Frame
	pos   int
}

func newArgParser(frame resp.Frame) (*argParser, error) {
	if frame.Kind != resp.KindArray {
		return nil, fmt.Errorf("command: expected array frame, got kind %d", frame.Kind)
	}
	if len(frame.Array) == 0 {
		return nil, fmt.Errorf("command: empty command array")
	}
	return &argParser{elems: frame.Array}, nil
}

func (p *argParser) nextBulk() ([]byte, error) {
	if p.pos >= len(p.elems) {
		return nil, fmt.Errorf("command: expected argument, found none")
	}
	e := p.elems[p.pos]
	p.pos++
	if e.Kind != resp.KindBulk {
		return nil, fmt.Errorf("command: expected bulk argument, got kind %d", e.Kind)
	}
	return e.Bulk, nil
}

// peekBulk returns the next bulk argument without consuming it, and whether
// one exists.
func (p *argParser) peekBulk() ([]byte, bool) {
	if p.pos >= len(p.elems) {
		return nil, false
	}
	e := p.elems[p.pos]
	if e.Kind != resp.KindBulk {
		return nil, false
	}
	return e.Bulk, true
}

func (p *argParser) skip() {
	p.pos++
}

func (p *argParser) drained() bool {
	return p.pos >= len(p.elems)
}
