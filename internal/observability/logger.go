package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeWorkflowStart EventType = "workflow_start"
	EventTypeTransition    EventType = "transition"
	EventTypeCommit        EventType = "commit"
	EventTypeCancel        EventType = "cancel"
	EventTypeStoreError    EventType = "store_error"
	EventTypeSync          EventType = "sync"
	EventTypeGateway       EventType = "gateway"
	EventTypeHeartbeat     EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chat_id,omitempty"`
	Workflow  string    `json:"workflow,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger handles structured logging. Every event goes to out as one JSON
// line; commit events are also appended to the audit file.
// A nil *Logger discards everything.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	auditPath string
	maxSize   int64
}

// NewLogger writes events to out (stdout when nil). An empty auditPath
// disables the audit file.
func NewLogger(out io.Writer, auditPath string) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		out:       out,
		auditPath: auditPath,
		maxSize:   10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		data = []byte(fmt.Sprintf("{\"error\": %q}", "failed to marshal event: "+err.Error()))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		log.Printf("[observability] write event: %v", err)
	}
	if evt.Type == EventTypeCommit && l.auditPath != "" {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.auditPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	info, err := os.Stat(l.auditPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.auditPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open audit file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to audit file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// keep one .old file
	oldPath := l.auditPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.auditPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogWorkflowStart(chatID, workflow string) {
	RecordWorkflow(workflow)
	l.Log(Event{Type: EventTypeWorkflowStart, ChatID: chatID, Workflow: workflow, Data: map[string]string{}})
}

func (l *Logger) LogTransition(chatID, workflow, from, to string) {
	l.Log(Event{
		Type:     EventTypeTransition,
		ChatID:   chatID,
		Workflow: workflow,
		Data:     map[string]string{"from": from, "to": to},
	})
}

// LogCommit records a persisted mutation (create, update, status, delete).
func (l *Logger) LogCommit(chatID, workflow, op, itemID string) {
	RecordCommit()
	l.Log(Event{
		Type:     EventTypeCommit,
		ChatID:   chatID,
		Workflow: workflow,
		Data:     map[string]string{"op": op, "item_id": itemID},
	})
}

func (l *Logger) LogCancel(chatID, workflow, state string) {
	l.Log(Event{
		Type:     EventTypeCancel,
		ChatID:   chatID,
		Workflow: workflow,
		Data:     map[string]string{"state": state},
	})
}

func (l *Logger) LogStoreError(chatID, workflow, op string, err error) {
	l.Log(Event{
		Type:     EventTypeStoreError,
		ChatID:   chatID,
		Workflow: workflow,
		Data:     map[string]string{"op": op, "error": err.Error()},
	})
}

func (l *Logger) LogSync(action string, items int, err error) {
	data := map[string]any{"action": action, "items": items}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypeSync, Data: data})
}

func (l *Logger) LogGateway(name, action string, err error) {
	data := map[string]string{"gateway": name, "action": action}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypeGateway, Data: data})
}

func (l *Logger) LogHeartbeat() {
	Heartbeat()
	s := Snapshot()
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]any{
			"status":          "alive",
			"active_sessions": s.ActiveSessions,
			"commits":         s.Commits,
			"workflows":       s.Workflows,
		},
	})
}
