// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package resp

import (
	"fmt"
	"io"
	"strconv"
)

// WriteFrame serialises frame to w. Array frames write a header then
// recurse on each element; RdbFile frames omit the trailing CRLF.
func WriteFrame(w io.Writer, frame Frame) error {
	switch frame.Kind {
	case KindArray:
		if _, err := fmt.Fprintf(w, "*%d\r\n", len(frame.Array)); err != nil {
			return fmt.Errorf("resp: writing array header: %w", err)
		}
		for _, elem := range frame.Array {
			if err := WriteFrame(w, elem); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeScalar(w, frame)
	}
}

func writeScalar(w io.Writer, frame Frame) error {
	switch frame.Kind {
	case KindSimple:
		if _, err := fmt.Fprintf(w, "+%s\r\n", frame.Simple); err != nil {
			return fmt.Errorf("resp: writing simple frame: %w", err)
		}
	case KindError:
		if _, err := fmt.Fprintf(w, "-%s\r\n", frame.Err); err != nil {
			return fmt.Errorf("resp: writing error frame: %w", err)
		}
	case KindInteger:
		if _, err := fmt.Fprintf(w, ":%s\r\n", strconv.FormatUint(frame.Integer, 10)); err != nil {
			return fmt.Errorf("resp: writing integer frame: %w", err)
		}
	case KindNull:
		if _, err := io.WriteString(w, "$-1\r\n"); err != nil {
			return fmt.Errorf("resp: writing null frame: %w", err)
		}
	case KindOK:
		if _, err := io.WriteString(w, "+OK\r\n"); err != nil {
			return fmt.Errorf("resp: writing ok frame: %w", err)
		}
	case KindBulk:
		if _, err := fmt.Fprintf(w, "$%d\r\n", len(frame.Bulk)); err != nil {
			return fmt.Errorf("resp: writing bulk header: %w", err)
		}
		if _, err := w.Write(frame.Bulk); err != nil {
			return fmt.Errorf("resp: writing bulk payload: %w", err)
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return fmt.Errorf("resp: writing bulk trailer: %w", err)
		}
	case KindRdbFile:
		if _, err := fmt.Fprintf(w, "$%d\r\n", len(frame.Bulk)); err != nil {
			return fmt.Errorf("resp: writing rdb header: %w", err)
		}
		if _, err := w.Write(frame.Bulk); err != nil {
			return fmt.Errorf("resp: writing rdb payload: %w", err)
		}
		// No trailing CRLF: the snapshot payload is followed directly by
		// the next RESP frame on the wire.
	case KindArray:
		return fmt.Errorf("resp: writeScalar called on array frame")
	default:
		return fmt.Errorf("resp: unknown frame kind %d", frame.Kind)
	}
	return nil
}
