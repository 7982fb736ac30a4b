// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func TestSetThenGet(t *testing.T) {
	s := New()
	s.Set([]byte("hello"), []byte("world"), DefaultExpiry)
	v, ok := s.Get([]byte("hello"))
	if !ok || string(v) != "world" {
		t.Fatalf("got %q, %v", v, ok)
	}
}

func TestGetAfterTTLExpiresReturnsAbsent(t *testing.T) {
	s := New()
	s.Set([]byte("k"), []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := s.Get([]byte("k")); ok {
		t.Fatal("expected expired key to be absent")
	}
}

func TestGetAbsentKey(t *testing.T) {
	s := New()
	if _, ok := s.Get([]byte("nope")); ok {
		t.Fatal("expected absent")
	}
}

func TestDel(t *testing.T) {
	s := New()
	s.SetWithDefaultExpiry([]byte("k"), []byte("v"))
	s.Del([]byte("k"))
	if _, ok := s.Get([]byte("k")); ok {
		t.Fatal("expected deleted key to be absent")
	}
}

func TestSnapshotRoundTripEntryCount(t *testing.T) {
	s := New()
	s.SetWithDefaultExpiry([]byte("a"), []byte("1"))
	s.SetWithDefaultExpiry([]byte("b"), []byte("2"))
	s.Set([]byte("c"), []byte("expired"), -time.Second)

	blob := s.Snapshot()
	count, err := SnapshotEntryCount(blob)
	if err != nil {
		t.Fatalf("SnapshotEntryCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 non-expired entries in snapshot, got %d", count)
	}
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	s := New()
	s.Set([]byte("k"), []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan error, 1)
	go func() { done <- s.RunSweep(ctx, "@every 1ms", logger) }()

	deadline := time.Now().Add(time.Second)
	for s.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	<-done

	if s.Len() != 0 {
		t.Fatalf("expected sweep to remove expired entry, len=%d", s.Len())
	}
}
