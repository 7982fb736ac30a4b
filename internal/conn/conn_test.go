// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package conn

import (
	"net"
	"testing"

	"github.com/nishisan-dev/go-resp-kv/internal/resp"
)

func TestReadFrameParsesAWrittenFrame(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serverConn := New(server, false)

	go func() {
		client.Write([]byte("*2\r\n$4\r\nECHO\r\n$5\r\nhello\r\n"))
	}()

	frame, ok, err := serverConn.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !ok {
		t.Fatal("expected a frame, got EOF")
	}
	want := resp.NewArray(resp.BulkString("ECHO"), resp.BulkString("hello"))
	if !frame.Equal(want) {
		t.Fatalf("got %+v want %+v", frame, want)
	}
}

func TestReadFrameReturnsFalseOnCleanEOF(t *testing.T) {
	client, server := net.Pipe()
	serverConn := New(server, false)

	client.Close()

	_, ok, err := serverConn.ReadFrame()
	if err != nil {
		t.Fatalf("expected no error on clean EOF, got %v", err)
	}
	if ok {
		t.Fatal("expected no frame on clean EOF")
	}
	server.Close()
}

func TestWriteFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serverConn := New(server, false)
	clientConn := New(client, false)

	go func() {
		serverConn.WriteFrame(resp.OK())
	}()

	frame, ok, err := clientConn.ReadFrame()
	if err != nil || !ok {
		t.Fatalf("ReadFrame: ok=%v err=%v", ok, err)
	}
	if frame.Kind != resp.KindOK {
		t.Fatalf("expected OK frame, got %+v", frame)
	}
}
