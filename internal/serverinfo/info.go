// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package serverinfo holds the server's identity and replication role, and
// persists it through the shared store under the reserved INFO: key prefix
// so that any command handler can read it without a separate dependency.
package serverinfo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/nishisan-dev/go-resp-kv/internal/store"
)

// infoTTL is the TTL given to every INFO: key. Identity and replication
// role must outlive any realistic process uptime, so this is deliberately
// far longer than store.DefaultExpiry (which governs ordinary SET keys,
// not this package's own bookkeeping).
const infoTTL = 100 * 365 * 24 * time.Hour

const (
	// DefaultRole is the role a freshly started server assumes absent a
	// --replicaof flag.
	DefaultRole = "master"
	// DefaultHost is the bind host assumed when none is configured.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the RESP listener's default port.
	DefaultPort uint16 = 6379
	// DefaultMasterReplID is the fixed 40-character replication identifier
	// used when the server starts as leader.
	DefaultMasterReplID = "8371b4fb1155b71f4a04d3e1bc3e18c4a990aeeb"

	storePrefix = "INFO:"
)

// Replication describes a server's role in the leader/follower topology.
type Replication struct {
	Role             string
	MasterReplID     string
	MasterReplOffset uint64
	ReplicaOfHost    string
	ReplicaOfPort    uint16
	HasReplicaOfPeer bool
}

// Info is the server's identity plus its replication configuration.
type Info struct {
	SelfHost    string
	SelfPort    uint16
	Replication Replication
}

// Default returns the zero-configuration leader Info.
func Default() Info {
	return Info{
		SelfHost: DefaultHost,
		SelfPort: DefaultPort,
		Replication: Replication{
			Role:             DefaultRole,
			MasterReplID:     DefaultMasterReplID,
			MasterReplOffset: 0,
		},
	}
}

// BindAddress returns "host:port" for the server's own listener.
func (i Info) BindAddress() string {
	return fmt.Sprintf("%s:%d", i.SelfHost, i.SelfPort)
}

// MasterAddress returns "host:port" for the leader this server replicates
// from. It is only meaningful when Replication.Role is "slave".
func (r Replication) MasterAddress() string {
	return fmt.Sprintf("%s:%d", r.ReplicaOfHost, r.ReplicaOfPort)
}

// IsReplica reports whether this server is a follower.
func (r Replication) IsReplica() bool {
	return r.Role == "slave"
}

const (
	keySelfHost      = storePrefix + "SELF_HOST"
	keySelfPort      = storePrefix + "SELF_PORT"
	keyRole          = storePrefix + "REPLICATION:ROLE"
	keyReplicaOfHost = storePrefix + "REPLICATION:REPLICATION_OF_HOST"
	keyReplicaOfPort = storePrefix + "REPLICATION:REPLICATION_OF_PORT"
)

// WriteTo persists every field of i into st under the reserved INFO: key
// prefix, each with infoTTL rather than the store's default expiry.
func (i Info) WriteTo(st *store.Store) {
	st.Set([]byte(keySelfHost), []byte(i.SelfHost), infoTTL)
	st.Set([]byte(keySelfPort), []byte(strconv.FormatUint(uint64(i.SelfPort), 10)), infoTTL)
	st.Set([]byte(keyRole), []byte(i.Replication.Role), infoTTL)
	if i.Replication.HasReplicaOfPeer {
		st.Set([]byte(keyReplicaOfHost), []byte(i.Replication.ReplicaOfHost), infoTTL)
		st.Set([]byte(keyReplicaOfPort), []byte(strconv.FormatUint(uint64(i.Replication.ReplicaOfPort), 10)), infoTTL)
	}
}

// FromStore reconstructs Info from whatever INFO: keys are present in st,
// falling back to defaults for anything missing.
func FromStore(st *store.Store) (Info, error) {
	info := Default()

	if v, ok := st.Get([]byte(keySelfHost)); ok {
		info.SelfHost = string(v)
	}
	if v, ok := st.Get([]byte(keySelfPort)); ok {
		port, err := strconv.ParseUint(string(v), 10, 16)
		if err != nil {
			return Info{}, fmt.Errorf("serverinfo: invalid self_port %q: %w", v, err)
		}
		info.SelfPort = uint16(port)
	}
	if v, ok := st.Get([]byte(keyRole)); ok {
		info.Replication.Role = string(v)
	}
	if v, ok := st.Get([]byte(keyReplicaOfHost)); ok {
		info.Replication.ReplicaOfHost = string(v)
		info.Replication.HasReplicaOfPeer = true
	}
	if v, ok := st.Get([]byte(keyReplicaOfPort)); ok {
		port, err := strconv.ParseUint(string(v), 10, 16)
		if err != nil {
			return Info{}, fmt.Errorf("serverinfo: invalid replicaof port %q: %w", v, err)
		}
		info.Replication.ReplicaOfPort = uint16(port)
	}
	return info, nil
}
