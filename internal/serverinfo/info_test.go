// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package serverinfo

import (
	"testing"

	"github.com/nishisan-dev/go-resp-kv/internal/store"
)

func TestWriteThenFromStoreRoundTrips(t *testing.T) {
	st := store.New()
	info := Info{
		SelfHost: "localhost",
		SelfPort: 1234,
		Replication: Replication{
			Role:             "slave",
			ReplicaOfHost:    "master.host",
			ReplicaOfPort:    5678,
			HasReplicaOfPeer: true,
		},
	}
	info.WriteTo(st)

	got, err := FromStore(st)
	if err != nil {
		t.Fatalf("FromStore: %v", err)
	}
	if got.SelfHost != info.SelfHost || got.SelfPort != info.SelfPort {
		t.Fatalf("identity mismatch: %+v", got)
	}
	if got.Replication.Role != info.Replication.Role ||
		got.Replication.ReplicaOfHost != info.Replication.ReplicaOfHost ||
		got.Replication.ReplicaOfPort != info.Replication.ReplicaOfPort {
		t.Fatalf("replication mismatch: %+v", got.Replication)
	}
}

func TestDefaultInfoIsMaster(t *testing.T) {
	info := Default()
	if info.Replication.Role != "master" {
		t.Fatalf("expected master role, got %q", info.Replication.Role)
	}
	if info.SelfPort != 6379 {
		t.Fatalf("expected default port 6379, got %d", info.SelfPort)
	}
}

func TestFromStoreWithNoKeysReturnsDefaults(t *testing.T) {
	st := store.New()
	info, err := FromStore(st)
	if err != nil {
		t.Fatalf("FromStore: %v", err)
	}
	if info.Replication.Role != DefaultRole {
		t.Fatalf("expected default role, got %q", info.Replication.Role)
	}
}
