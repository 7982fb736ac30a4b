// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package conn wraps a bidirectional byte stream with a growable read
// buffer and exposes ReadFrame/WriteFrame over the resp codec.
package conn

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/nishisan-dev/go-resp-kv/internal/resp"
)

// ErrConnectionReset is returned by ReadFrame when the peer closes the
// connection mid-frame (EOF with a non-empty buffer).
var ErrConnectionReset = errors.New("conn: connection reset by peer")

// Conn wraps an independently owned reader and writer half of a byte
// stream. Each Conn is owned by exactly one handler goroutine after
// accept, so write atomicity across a single frame is guaranteed by
// ownership rather than by locking.
type Conn struct {
	reader *bufio.Reader
	writer *bufio.Writer
	buf    []byte

	// isFollowerSync marks this Conn as the follower's view of the leader
	// stream. It affects nothing in the codec (the CRLF-peek exception in
	// resp.Check applies uniformly) and the server loop does not consult
	// it; it is only reported by IsFollowerReceivingSync.
	isFollowerSync bool
}

// New wraps rw as a Conn. isFollowerSync marks a follower-side view of the
// leader's stream.
func New(rw io.ReadWriter, isFollowerSync bool) *Conn {
	return &Conn{
		reader:         bufio.NewReader(rw),
		writer:         bufio.NewWriter(rw),
		buf:            make([]byte, 0, 4*1024),
		isFollowerSync: isFollowerSync,
	}
}

// IsFollowerReceivingSync reports whether this Conn is the follower's view
// of the leader connection during/after the snapshot handoff.
func (c *Conn) IsFollowerReceivingSync() bool {
	return c.isFollowerSync
}

// ReadFrame loops reading more bytes until resp.Check succeeds, then parses
// and returns exactly one frame. It returns (Frame{}, false, nil) on clean
// EOF with an empty buffer, and ErrConnectionReset on EOF with a non-empty
// buffer.
func (c *Conn) ReadFrame() (resp.Frame, bool, error) {
	for {
		if n, err := resp.Check(c.buf); err == nil {
			frame, consumed, perr := resp.Parse(c.buf[:n])
			if perr != nil {
				return resp.Frame{}, false, perr
			}
			c.buf = append(c.buf[:0], c.buf[consumed:]...)
			return frame, true, nil
		} else if !errors.Is(err, resp.ErrIncomplete) {
			return resp.Frame{}, false, err
		}

		chunk := make([]byte, 4*1024)
		n, err := c.reader.Read(chunk)
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(c.buf) == 0 {
					return resp.Frame{}, false, nil
				}
				return resp.Frame{}, false, ErrConnectionReset
			}
			return resp.Frame{}, false, fmt.Errorf("conn: reading frame: %w", err)
		}
	}
}

// Write implements io.Writer over the connection's buffered writer. It
// exists for internal/replication's rate-limited snapshot transfer, which
// needs to push raw bytes through in caller-controlled chunks; application
// code should use WriteFrame instead.
func (c *Conn) Write(p []byte) (int, error) {
	return c.writer.Write(p)
}

// Flush flushes bytes written via Write. WriteFrame flushes itself and
// never needs this.
func (c *Conn) Flush() error {
	return c.writer.Flush()
}

// WriteFrame serialises frame and flushes it. A partially written frame
// never interleaves with another writer because each Conn is owned by one
// handler goroutine.
func (c *Conn) WriteFrame(frame resp.Frame) error {
	if err := resp.WriteFrame(c.writer, frame); err != nil {
		return err
	}
	if err := c.writer.Flush(); err != nil {
		return fmt.Errorf("conn: flushing frame: %w", err)
	}
	return nil
}
