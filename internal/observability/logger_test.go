package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "")

	l.LogWorkflowStart("42", "create")
	l.LogStoreError("42", "create", "put", errors.New("disk full"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var evt struct {
		Type     EventType         `json:"type"`
		ChatID   string            `json:"chat_id"`
		Workflow string            `json:"workflow"`
		Data     map[string]string `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &evt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if evt.Type != EventTypeStoreError || evt.ChatID != "42" || evt.Data["error"] != "disk full" {
		t.Errorf("unexpected event: %+v", evt)
	}
}

func TestCommitGoesToAuditFile(t *testing.T) {
	audit := filepath.Join(t.TempDir(), "logs", "audit.jsonl")
	var buf bytes.Buffer
	l := NewLogger(&buf, audit)

	before := Snapshot().Commits
	l.LogTransition("1", "edit", "menu", "field")
	l.LogCommit("1", "edit", "update", "abc")

	data, err := os.ReadFile(audit)
	if err != nil {
		t.Fatalf("read audit: %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 1 {
		t.Errorf("audit has %d lines, want 1", n)
	}
	if !strings.Contains(string(data), `"item_id":"abc"`) {
		t.Errorf("audit line = %s", data)
	}
	if Snapshot().Commits != before+1 {
		t.Error("commit counter not incremented")
	}
}

func TestAuditRotation(t *testing.T) {
	audit := filepath.Join(t.TempDir(), "audit.jsonl")
	l := NewLogger(&bytes.Buffer{}, audit)
	l.maxSize = 10

	l.LogCommit("1", "create", "create", "a")
	l.LogCommit("1", "create", "create", "b")

	if _, err := os.Stat(audit + ".old"); err != nil {
		t.Fatalf("expected rotated file: %v", err)
	}
	data, _ := os.ReadFile(audit)
	if !strings.Contains(string(data), `"item_id":"b"`) || strings.Contains(string(data), `"item_id":"a"`) {
		t.Errorf("current audit = %s", data)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.LogCancel("1", "view", "choose")
	l.Log(Event{Type: EventTypeGateway})
}
