// Copyright (c) 2025 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Backup License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerJSONFormat(t *testing.T) {
	logger, closer := NewLogger("info", "json", "")
	defer closer.Close()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLoggerTextFormat(t *testing.T) {
	logger, closer := NewLogger("debug", "text", "")
	defer closer.Close()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLoggerUnknownFormatFallsBackToJSON(t *testing.T) {
	logger, closer := NewLogger("info", "unknown", "")
	defer closer.Close()
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewLoggerAllLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "warning", "error", "unknown"}
	for _, level := range levels {
		logger, closer := NewLogger(level, "json", "")
		defer closer.Close()
		if logger == nil {
			t.Errorf("expected non-nil logger for level %q", level)
		}
	}
}

func TestNewLoggerTeesToFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "server.log")

	logger, closer := NewLogger("info", "json", logFile)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	logger.Info("server listening", "address", "0.0.0.0:6379")
	closer.Close()

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "server listening") {
		t.Errorf("expected log file to contain %q, got: %s", "server listening", content)
	}
	if !strings.Contains(content, "address") {
		t.Errorf("expected log file to contain %q, got: %s", "address", content)
	}
}

func TestNewLoggerFallsBackToStdoutOnInvalidFilePath(t *testing.T) {
	logger, closer := NewLogger("info", "json", "/nonexistent/dir/server.log")
	defer closer.Close()

	if logger == nil {
		t.Fatal("expected non-nil logger even with an invalid file path")
	}
	logger.Info("still works")
}
