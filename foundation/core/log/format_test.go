// File: format_test.go
// Title: Log Format Tests
// Description: Tests for the JSON, text, console and logfmt formatters.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial formatter tests
// - 2026-10-19 v0.2.0: Rewritten for deterministic field order

package log

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	mdwerror "github.com/msto63/mbasic/foundation/core/error"
)

func testEntry() *Entry {
	e := NewEntry(LevelInfo, "analysis finished")
	e.Timestamp = time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
	e.Logger = "engine"
	e.RequestID = "req-1"
	e.Fields["tokens"] = 4
	e.Fields["file"] = "<web>"
	return e
}

func TestJSONFormatter(t *testing.T) {
	e := testEntry()
	e.Error = mdwerror.New("boom").WithCode(mdwerror.CodeInternal)
	e.Duration = 1500 * time.Microsecond

	out, err := NewJSONFormatter().Format(e)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(out), "\n") {
		t.Error("JSON output should end with a newline")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	checks := map[string]interface{}{
		"level":       "info",
		"message":     "analysis finished",
		"logger":      "engine",
		"request_id":  "req-1",
		"file":        "<web>",
		"tokens":      float64(4),
		"error":       "boom",
		"duration_ms": 1.5,
		"timestamp":   "2026-10-19T12:30:00Z",
	}
	for k, want := range checks {
		if decoded[k] != want {
			t.Errorf("%s = %v, want %v", k, decoded[k], want)
		}
	}

	details, ok := decoded["error_details"].(map[string]interface{})
	if !ok || details["code"] != "INTERNAL" {
		t.Errorf("error_details = %v", decoded["error_details"])
	}
}

func TestJSONFormatter_ErrorField(t *testing.T) {
	e := testEntry()
	e.Fields = Err(errors.New("disk full"))

	out, err := NewJSONFormatter().Format(e)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"error":"disk full"`) {
		t.Errorf("error field not rendered as string: %s", out)
	}
}

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter()
	f.DisableTimestamp = true

	out, err := f.Format(testEntry())
	if err != nil {
		t.Fatal(err)
	}
	want := "[INF] {engine} (req=req-1) analysis finished [file=<web> tokens=4]\n"
	if string(out) != want {
		t.Errorf("got  %q\nwant %q", out, want)
	}
}

func TestConsoleFormatter(t *testing.T) {
	f := NewConsoleFormatter()
	f.DisableTimestamp = true

	out, _ := f.Format(testEntry())
	if !strings.HasPrefix(string(out), LevelInfo.Color()) || !strings.HasSuffix(string(out), "\033[0m\n") {
		t.Errorf("missing color codes: %q", out)
	}

	f.DisableColors = true
	out, _ = f.Format(testEntry())
	if strings.Contains(string(out), "\033[") {
		t.Errorf("colors not disabled: %q", out)
	}
}

func TestLogfmtFormatter(t *testing.T) {
	out, err := NewLogfmtFormatter().Format(testEntry())
	if err != nil {
		t.Fatal(err)
	}
	want := `timestamp=2026-10-19T12:30:00Z level=info message="analysis finished" logger=engine request_id=req-1 file="<web>" tokens=4` + "\n"
	if string(out) != want {
		t.Errorf("got  %q\nwant %q", out, want)
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"json", "text", "console", "logfmt"} {
		f, err := ParseFormat(name)
		if err != nil || f.String() != name {
			t.Errorf("ParseFormat(%q) = %v, %v", name, f, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
