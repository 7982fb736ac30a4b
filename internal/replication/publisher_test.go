// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package replication

import (
	"net"
	"testing"

	"github.com/nishisan-dev/go-resp-kv/internal/command"
	"github.com/nishisan-dev/go-resp-kv/internal/conn"
	"github.com/nishisan-dev/go-resp-kv/internal/resp"
	"github.com/nishisan-dev/go-resp-kv/internal/store"
)

// newFollowerPipe returns the leader-side Conn (what Publisher writes
// through), the follower-side Conn (what a test reads replies from), and
// the raw net.Conn backing the leader side so a test can force a write
// failure by closing it directly.
func newFollowerPipe(t *testing.T) (leader *conn.Conn, leaderRaw net.Conn, follower *conn.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	return conn.New(server, false), server, conn.New(client, false)
}

func TestAddFollowerSendsSnapshotThenRegistersForPublish(t *testing.T) {
	st := store.New()
	st.Set([]byte("existing"), []byte("v"), store.DefaultExpiry)

	pub := NewPublisher(nil, 0, 0)
	leaderSide, _, followerSide := newFollowerPipe(t)

	errCh := make(chan error, 1)
	go func() { errCh <- pub.AddFollower(leaderSide, st) }()

	frame, ok, err := followerSide.ReadFrame()
	if err != nil || !ok {
		t.Fatalf("reading snapshot frame: ok=%v err=%v", ok, err)
	}
	if frame.Kind != resp.KindBulk {
		t.Fatalf("expected bulk snapshot frame, got %+v", frame)
	}
	if err := store.LoadSnapshot(frame.Bulk); err != nil {
		t.Fatalf("snapshot failed validation: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("AddFollower: %v", err)
	}

	// net.Pipe is unbuffered, so Publish blocks until the follower side
	// reads; run it concurrently with the read.
	pubErrCh := make(chan error, 1)
	go func() {
		pubErrCh <- pub.Publish(command.PublishAction{Key: []byte("k"), Value: []byte("v")})
	}()
	got, ok, err := followerSide.ReadFrame()
	if err != nil || !ok {
		t.Fatalf("reading published frame: ok=%v err=%v", ok, err)
	}
	if err := <-pubErrCh; err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := resp.NewArray(resp.BulkString("set"), resp.BulkString("k"), resp.BulkString("v"))
	if !got.Equal(want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestPublishDropsFollowerOnWriteFailureAndKeepsOthers(t *testing.T) {
	st := store.New()
	pub := NewPublisher(nil, 0, 0)

	brokenLeaderSide, brokenRaw, brokenFollowerSide := newFollowerPipe(t)
	brokenErrCh := make(chan error, 1)
	go func() { brokenErrCh <- pub.AddFollower(brokenLeaderSide, st) }()
	brokenFollowerSide.ReadFrame() // drain the snapshot
	if err := <-brokenErrCh; err != nil {
		t.Fatalf("AddFollower: %v", err)
	}

	healthyLeaderSide, _, healthyFollowerSide := newFollowerPipe(t)
	healthyErrCh := make(chan error, 1)
	go func() { healthyErrCh <- pub.AddFollower(healthyLeaderSide, st) }()
	healthyFollowerSide.ReadFrame()
	if err := <-healthyErrCh; err != nil {
		t.Fatalf("AddFollower: %v", err)
	}

	// Close the leader side of the broken follower's pipe so the next write
	// to it fails; writing to a closed net.Pipe end returns an error
	// immediately.
	brokenRaw.Close()

	// The healthy follower's net.Pipe is unbuffered, so Publish blocks on
	// it until the read below; run it concurrently.
	pubErrCh := make(chan error, 1)
	go func() {
		pubErrCh <- pub.Publish(command.PublishAction{Key: []byte("k"), Value: []byte("v")})
	}()

	got, ok, err := healthyFollowerSide.ReadFrame()
	if err != nil || !ok {
		t.Fatalf("healthy follower should still receive the broadcast: ok=%v err=%v", ok, err)
	}
	if err := <-pubErrCh; err == nil {
		t.Fatal("expected Publish to report the broken follower's write error")
	}
	if got.Kind != resp.KindArray {
		t.Fatalf("got %+v", got)
	}

	pub.mu.Lock()
	remaining := len(pub.followers)
	pub.mu.Unlock()
	if remaining != 1 {
		t.Fatalf("expected exactly one follower left after the broken one was dropped, got %d", remaining)
	}
}
