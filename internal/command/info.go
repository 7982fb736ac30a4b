// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package command

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/nishisan-dev/go-resp-kv/internal/resp"
	"github.com/nishisan-dev/go-resp-kv/internal/serverinfo"
)

// InfoCommand reports the server's replication role and identity as a
// single bulk of CRLF-separated "key:value" lines. The role,
// master_replid and master_repl_offset lines always come first (a replica
// follows them with master_host and master_port), then a "# Host" section
// with host memory figures. The section argument (if any) is accepted and
// ignored; the reply is the same whichever section is asked for.
type InfoCommand struct{}

func parseInfo(p *argParser) (Command, error) {
	if _, ok := p.peekBulk(); ok {
		p.skip()
	}
	return &InfoCommand{}, nil
}

func (c *InfoCommand) Apply(ctx ApplyContext) error {
	if !ctx.Respond {
		return nil
	}

	info, err := serverinfo.FromStore(ctx.Store)
	if err != nil {
		return fmt.Errorf("command: INFO: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "role:%s\r\n", info.Replication.Role)
	fmt.Fprintf(&b, "master_replid:%s\r\n", info.Replication.MasterReplID)
	fmt.Fprintf(&b, "master_repl_offset:%d\r\n", info.Replication.MasterReplOffset)
	if info.Replication.IsReplica() {
		fmt.Fprintf(&b, "master_host:%s\r\n", info.Replication.ReplicaOfHost)
		fmt.Fprintf(&b, "master_port:%d\r\n", info.Replication.ReplicaOfPort)
	}

	b.WriteString("# Host\r\n")
	if vm, err := mem.VirtualMemory(); err == nil {
		fmt.Fprintf(&b, "used_memory:%d\r\n", vm.Used)
		fmt.Fprintf(&b, "total_memory:%d\r\n", vm.Total)
	} else {
		b.WriteString("used_memory:unknown\r\n")
	}

	return ctx.Conn.WriteFrame(resp.BulkString(b.String()))
}
