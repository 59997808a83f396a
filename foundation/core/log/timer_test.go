// File: timer_test.go
// Title: Performance Timer Tests
// Description: Tests for timer completion, failure and result logging.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial timer tests
// - 2026-10-19 v0.2.0: Rewritten for the reduced timer

package log

import (
	"bytes"
	"errors"
	"testing"
)

func TestTimer_Stop(t *testing.T) {
	var buf bytes.Buffer
	timer := newTestLogger(&buf).StartTimer("analyze").WithField("file", "a.bas")

	if !timer.IsRunning() {
		t.Error("timer should be running")
	}
	timer.Stop()
	if timer.IsRunning() {
		t.Error("timer should be stopped")
	}
	if d := timer.Stop(); d != 0 {
		t.Errorf("second Stop() = %v, want 0", d)
	}

	entries := lines(&buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["message"] != "analyze completed" || e["operation"] != "analyze" || e["file"] != "a.bas" {
		t.Errorf("entry = %v", e)
	}
	if _, ok := e["duration_ms"]; !ok {
		t.Error("duration_ms missing")
	}
}

func TestTimer_StopWithError(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(&buf).StartTimer("store").StopWithError(errors.New("locked"))

	e := lines(&buf)[0]
	if e["level"] != "error" || e["message"] != "store failed" || e["error"] != "locked" {
		t.Errorf("entry = %v", e)
	}
}

func TestTimer_StopWithResult(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	logger.StartTimer("run").StopWithResult(true, 3)
	logger.StartTimer("run").StopWithResult(false, nil)

	entries := lines(&buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0]["level"] != "debug" || entries[0]["result"] != float64(3) {
		t.Errorf("success entry = %v", entries[0])
	}
	if entries[1]["level"] != "warn" || entries[1]["success"] != false {
		t.Errorf("failure entry = %v", entries[1])
	}
}
