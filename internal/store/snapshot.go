// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"
)

// snapshotMagic identifies the snapshot blob's header.
var snapshotMagic = [4]byte{'R', 'D', 'B', '1'}

// Snapshot returns an opaque, gzip-compressed byte blob representing every
// non-expired entry at the instant of the call. A follower treats the blob
// as opaque; only LoadSnapshot's header validation inspects it.
func (s *Store) Snapshot() []byte {
	s.mu.Lock()
	now := time.Now()
	raw := make([]byte, 0, 64)
	raw = append(raw, snapshotMagic[:]...)

	var countBuf [4]byte
	count := uint32(0)
	body := bytes.Buffer{}
	for k, e := range s.data {
		if now.After(e.expiresAt) {
			continue
		}
		writeSnapshotEntry(&body, k, e)
		count++
	}
	s.mu.Unlock()

	binary.BigEndian.PutUint32(countBuf[:], count)
	raw = append(raw, countBuf[:]...)
	raw = append(raw, body.Bytes()...)

	var compressed bytes.Buffer
	gw := pgzip.NewWriter(&compressed)
	if _, err := gw.Write(raw); err != nil {
		// pgzip only fails writing to a bytes.Buffer on OOM; there is no
		// recoverable fallback, so a minimal sentinel blob is returned
		// rather than panicking the calling connection handler.
		return minimalSnapshot()
	}
	if err := gw.Close(); err != nil {
		return minimalSnapshot()
	}
	return compressed.Bytes()
}

func writeSnapshotEntry(w *bytes.Buffer, key string, e entry) {
	var lenBuf [4]byte

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(key)))
	w.Write(lenBuf[:])
	w.WriteString(key)

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(e.value)))
	w.Write(lenBuf[:])
	w.Write(e.value)

	var expBuf [8]byte
	binary.BigEndian.PutUint64(expBuf[:], uint64(e.expiresAt.UnixNano()))
	w.Write(expBuf[:])
}

// minimalSnapshot is the well-known fixed sentinel blob returned when a
// faithful serialization cannot be produced.
func minimalSnapshot() []byte {
	var buf bytes.Buffer
	gw := pgzip.NewWriter(&buf)
	gw.Write(snapshotMagic[:])
	gw.Write([]byte{0, 0, 0, 0})
	gw.Close()
	return buf.Bytes()
}

// SnapshotEntryCount decompresses and validates a snapshot blob's header,
// returning the number of entries it claims to hold. It is used on the
// follower side to confirm the RDB frame arrived intact; the follower never
// replays the blob's contents into its own map, so its map only receives
// the SET commands published after it is registered.
func SnapshotEntryCount(blob []byte) (int, error) {
	gr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return 0, fmt.Errorf("store: opening snapshot gzip stream: %w", err)
	}
	defer gr.Close()

	var header [8]byte
	if _, err := io.ReadFull(gr, header[:]); err != nil {
		return 0, fmt.Errorf("store: reading snapshot header: %w", err)
	}
	if [4]byte{header[0], header[1], header[2], header[3]} != snapshotMagic {
		return 0, fmt.Errorf("store: invalid snapshot magic %q", header[:4])
	}
	count := binary.BigEndian.Uint32(header[4:8])

	for i := uint32(0); i < count; i++ {
		if err := skipSnapshotEntry(gr); err != nil {
			return 0, fmt.Errorf("store: snapshot entry %d: %w", i, err)
		}
	}
	return int(count), nil
}

// LoadSnapshot validates that blob is a well-formed snapshot without
// reconstructing a keyspace from it. The follower calls this once, right
// after receiving the RdbFile frame from the leader, purely to catch bit
// corruption early; a valid blob is then discarded.
func LoadSnapshot(blob []byte) error {
	_, err := SnapshotEntryCount(blob)
	return err
}

func skipSnapshotEntry(r io.Reader) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return fmt.Errorf("reading key length: %w", err)
	}
	if _, err := io.CopyN(io.Discard, r, int64(binary.BigEndian.Uint32(lenBuf[:]))); err != nil {
		return fmt.Errorf("reading key: %w", err)
	}
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return fmt.Errorf("reading value length: %w", err)
	}
	if _, err := io.CopyN(io.Discard, r, int64(binary.BigEndian.Uint32(lenBuf[:]))); err != nil {
		return fmt.Errorf("reading value: %w", err)
	}
	var expBuf [8]byte
	if _, err := io.ReadFull(r, expBuf[:]); err != nil {
		return fmt.Errorf("reading expiry: %w", err)
	}
	return nil
}
