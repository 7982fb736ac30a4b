// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package resp

import (
	"bytes"
	"errors"
	"testing"
)

func TestCheckIncompleteOnEveryProperPrefix(t *testing.T) {
	full := []byte("*3\r\n$3\r\nSET\r\n$5\r\nhello\r\n$5\r\nworld\r\n")
	for i := 0; i < len(full); i++ {
		if _, err := Check(full[:i]); !errors.Is(err, ErrIncomplete) {
			t.Fatalf("prefix length %d: expected Incomplete, got %v", i, err)
		}
	}
	if n, err := Check(full); err != nil || n != len(full) {
		t.Fatalf("full buffer: expected n=%d err=nil, got n=%d err=%v", len(full), n, err)
	}
}

func TestParseRoundTrip(t *testing.T) {
	cases := []Frame{
		Simple("PONG"),
		Error("ERR unknown command 'foo'"),
		Int(42),
		BulkString("hello"),
		Null(),
		OK(),
		NewArray(BulkString("SET"), BulkString("k"), BulkString("v")),
	}
	for _, f := range cases {
		var buf bytes.Buffer
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame(%v): %v", f, err)
		}
		n, err := Check(buf.Bytes())
		if err != nil {
			t.Fatalf("Check(%v) after write: %v", f, err)
		}
		got, consumed, err := Parse(buf.Bytes())
		if err != nil {
			t.Fatalf("Parse(%v): %v", f, err)
		}
		if consumed != n {
			t.Fatalf("Parse consumed %d bytes, Check reported %d", consumed, n)
		}
		if !got.Equal(f) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, f)
		}
	}
}

func TestNullIsWireEquivalentToBulkMinusOne(t *testing.T) {
	n, err := Check([]byte("$-1\r\n"))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	f, _, err := Parse([]byte("$-1\r\n")[:n])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Kind != KindNull {
		t.Fatalf("expected Null frame, got %+v", f)
	}
}

func TestRdbFileHasNoTrailingCRLF(t *testing.T) {
	payload := []byte("opaque-snapshot-bytes")
	var buf bytes.Buffer
	if err := WriteFrame(&buf, RdbFile(payload)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	want := []byte("$21\r\nopaque-snapshot-bytes")
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("got %q want %q", buf.Bytes(), want)
	}
}

func TestSnapshotExceptionLeavesNextFrameInPlace(t *testing.T) {
	// A bulk with no trailing CRLF immediately followed by the next frame
	// (as the leader streams RdbFile + next replicated command).
	input := []byte("$5\r\nhelloINTERLEAVED")
	n, err := Check(input)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	f, consumed, err := Parse(input[:n])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if consumed != n {
		t.Fatalf("consumed %d want %d", consumed, n)
	}
	if string(f.Bulk) != "hello" {
		t.Fatalf("got bulk %q", f.Bulk)
	}
	if n != len("$5\r\nhello") {
		t.Fatalf("frame consumed %d bytes, expected exactly the bulk without trailing separator (%d)", n, len("$5\r\nhello"))
	}
}

func TestCheckInvalidNegativeBulkLength(t *testing.T) {
	if _, err := Check([]byte("$-2\r\n")); err == nil {
		t.Fatal("expected protocol error for bulk length -2")
	} else if errors.Is(err, ErrIncomplete) {
		t.Fatal("expected protocol error, got Incomplete")
	}
}

func TestCheckInvalidLeadingByte(t *testing.T) {
	var perr *ProtocolError
	_, err := Check([]byte("@1\r\n"))
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ProtocolError, got %v", err)
	}
}
